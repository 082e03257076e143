package datastore

import "testing"

func TestSetStartsAsIntset(t *testing.T) {
	s := NewSet()
	l := DefaultLimits()
	s.Add([]byte("1"), l)
	s.Add([]byte("2"), l)
	if s.Encoding() != "intset" {
		t.Fatalf("encoding = %s, want intset", s.Encoding())
	}
	if !s.IsMember([]byte("1")) {
		t.Fatal("expected member 1")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestSetPromotesToPackedOnNonInteger(t *testing.T) {
	s := NewSet()
	l := DefaultLimits()
	s.Add([]byte("1"), l)
	s.Add([]byte("hello"), l)
	if s.Encoding() != "listpack" {
		t.Fatalf("encoding = %s, want listpack", s.Encoding())
	}
	if !s.IsMember([]byte("1")) || !s.IsMember([]byte("hello")) {
		t.Fatal("expected both members present after promotion")
	}
}

func TestSetPromotesToHashOnEntryCount(t *testing.T) {
	s := NewSet()
	l := DefaultLimits()
	l.SetMaxIntsetEntries = 0
	l.SetMaxListpackEntries = 1

	s.Add([]byte("a"), l)
	s.Add([]byte("b"), l)
	if s.Encoding() != "hashtable" {
		t.Fatalf("encoding = %s, want hashtable", s.Encoding())
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestSetRemove(t *testing.T) {
	s := NewSet()
	l := DefaultLimits()
	s.Add([]byte("1"), l)
	if !s.Remove([]byte("1")) {
		t.Fatal("expected remove to succeed")
	}
	if s.Remove([]byte("1")) {
		t.Fatal("second remove should report false")
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
}

func TestSetPopDrainsAllMembers(t *testing.T) {
	s := NewSet()
	l := DefaultLimits()
	s.Add([]byte("1"), l)
	s.Add([]byte("2"), l)
	s.Add([]byte("3"), l)

	seen := map[string]bool{}
	for s.Len() > 0 {
		m, ok := s.Pop()
		if !ok {
			t.Fatal("expected Pop to succeed while set is non-empty")
		}
		seen[string(m)] = true
	}
	if len(seen) != 3 {
		t.Fatalf("popped %d distinct members, want 3", len(seen))
	}
}
