package datastore

import "testing"

func collectBytes(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}

func assertBytesOrder(t *testing.T, got [][]byte, want []string) {
	t.Helper()
	g := collectBytes(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func TestListPushAndPop(t *testing.T) {
	l := NewList()
	limit := DefaultLimits()
	l.PushRight([]byte("a"), limit)
	l.PushRight([]byte("b"), limit)
	l.PushLeft([]byte("z"), limit)

	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3", l.Len())
	}
	assertBytesOrder(t, l.Range(0, -1), []string{"z", "a", "b"})

	v, ok := l.PopLeft()
	if !ok || string(v) != "z" {
		t.Fatalf("PopLeft = %q, %v", v, ok)
	}
	v, ok = l.PopRight()
	if !ok || string(v) != "b" {
		t.Fatalf("PopRight = %q, %v", v, ok)
	}
	if l.Len() != 1 {
		t.Fatalf("Len = %d, want 1", l.Len())
	}
}

func TestListIndexAndSet(t *testing.T) {
	l := NewList()
	limit := DefaultLimits()
	for _, v := range []string{"a", "b", "c"} {
		l.PushRight([]byte(v), limit)
	}

	v, ok := l.Index(1)
	if !ok || string(v) != "b" {
		t.Fatalf("Index(1) = %q, %v", v, ok)
	}
	v, ok = l.Index(-1)
	if !ok || string(v) != "c" {
		t.Fatalf("Index(-1) = %q, %v", v, ok)
	}
	if !l.SetIndex(1, []byte("B")) {
		t.Fatal("expected SetIndex to succeed")
	}
	assertBytesOrder(t, l.Range(0, -1), []string{"a", "B", "c"})
}

func TestListPromotesToQuicklist(t *testing.T) {
	l := NewList()
	limit := DefaultLimits()
	limit.ListMaxListpackSize = 2

	l.PushRight([]byte("a"), limit)
	l.PushRight([]byte("b"), limit)
	if l.Encoding() != "listpack" {
		t.Fatalf("encoding = %s, want listpack", l.Encoding())
	}
	l.PushRight([]byte("c"), limit)
	if l.Encoding() != "quicklist" {
		t.Fatalf("encoding = %s, want quicklist", l.Encoding())
	}
	assertBytesOrder(t, l.Range(0, -1), []string{"a", "b", "c"})
}

func TestListTrim(t *testing.T) {
	l := NewList()
	limit := DefaultLimits()
	for _, v := range []string{"a", "b", "c", "d"} {
		l.PushRight([]byte(v), limit)
	}
	l.Trim(1, 2)
	assertBytesOrder(t, l.Range(0, -1), []string{"b", "c"})
	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
}

func TestListRemove(t *testing.T) {
	l := NewList()
	limit := DefaultLimits()
	for _, v := range []string{"a", "b", "a", "c", "a"} {
		l.PushRight([]byte(v), limit)
	}
	removed := l.Remove([]byte("a"), 2)
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	assertBytesOrder(t, l.Range(0, -1), []string{"b", "c", "a"})
}

func TestListRemoveAllWithZeroCount(t *testing.T) {
	l := NewList()
	limit := DefaultLimits()
	for _, v := range []string{"a", "b", "a"} {
		l.PushRight([]byte(v), limit)
	}
	removed := l.Remove([]byte("a"), 0)
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	assertBytesOrder(t, l.Range(0, -1), []string{"b"})
}
