package datastore

import "testing"

func TestHashSetGetDelete(t *testing.T) {
	h := NewHash()
	l := DefaultLimits()

	if !h.Set([]byte("f1"), []byte("v1"), l) {
		t.Fatal("expected new field")
	}
	if h.Set([]byte("f1"), []byte("v2"), l) {
		t.Fatal("expected existing field on overwrite")
	}
	v, ok := h.Get([]byte("f1"))
	if !ok || string(v) != "v2" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if h.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.Len())
	}
	if !h.Delete([]byte("f1")) {
		t.Fatal("expected delete to succeed")
	}
	if h.Exists([]byte("f1")) {
		t.Fatal("field should no longer exist")
	}
	if h.Delete([]byte("f1")) {
		t.Fatal("second delete should report false")
	}
}

func TestHashPromotesOnEntryCount(t *testing.T) {
	h := NewHash()
	l := DefaultLimits()
	l.HashMaxListpackEntries = 2

	h.Set([]byte("a"), []byte("1"), l)
	h.Set([]byte("b"), []byte("2"), l)
	if h.Encoding() != "listpack" {
		t.Fatalf("encoding = %s, want listpack", h.Encoding())
	}
	h.Set([]byte("c"), []byte("3"), l)
	if h.Encoding() != "hashtable" {
		t.Fatalf("encoding = %s, want hashtable after exceeding entries", h.Encoding())
	}
	if h.Len() != 3 {
		t.Fatalf("Len = %d, want 3", h.Len())
	}
	v, ok := h.Get([]byte("a"))
	if !ok || string(v) != "1" {
		t.Fatalf("Get(a) after promotion = %q, %v", v, ok)
	}
}

func TestHashPromotesOnValueSize(t *testing.T) {
	h := NewHash()
	l := DefaultLimits()
	l.HashMaxListpackValue = 4

	h.Set([]byte("field"), []byte("this value is too long"), l)
	if h.Encoding() != "hashtable" {
		t.Fatalf("encoding = %s, want hashtable", h.Encoding())
	}
}

func TestHashEachVisitsAllPairs(t *testing.T) {
	h := NewHash()
	l := DefaultLimits()
	h.Set([]byte("a"), []byte("1"), l)
	h.Set([]byte("b"), []byte("2"), l)

	seen := map[string]string{}
	h.Each(func(field, value []byte) {
		seen[string(field)] = string(value)
	})
	if len(seen) != 2 || seen["a"] != "1" || seen["b"] != "2" {
		t.Fatalf("Each visited %v", seen)
	}
}
