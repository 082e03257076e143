package datastore

import "testing"

func namesOf(ms []ScoredMember) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = string(m.Member)
	}
	return out
}

func assertNames(t *testing.T, got []ScoredMember, want []string) {
	t.Helper()
	g := namesOf(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func TestSortedSetAddScoreAndRank(t *testing.T) {
	z := NewSortedSet()
	l := DefaultLimits()
	z.Add([]byte("a"), 1, l)
	z.Add([]byte("b"), 2, l)
	z.Add([]byte("c"), 3, l)

	if z.Len() != 3 {
		t.Fatalf("Len = %d, want 3", z.Len())
	}
	score, ok := z.Score([]byte("b"))
	if !ok || score != 2 {
		t.Fatalf("Score(b) = %v, %v", score, ok)
	}
}

func TestSortedSetRangeByScorePacked(t *testing.T) {
	z := NewSortedSet()
	l := DefaultLimits()
	z.Add([]byte("a"), 1, l)
	z.Add([]byte("b"), 2, l)
	z.Add([]byte("c"), 3, l)

	fwd := z.RangeByScore(1, 2, 0, -1, false)
	assertNames(t, fwd, []string{"a", "b"})

	rev := z.RangeByScore(1, 3, 0, -1, true)
	assertNames(t, rev, []string{"c", "b", "a"})
}

func TestSortedSetPromotesOnEntryCount(t *testing.T) {
	z := NewSortedSet()
	l := DefaultLimits()
	l.ZSetMaxListpackEntries = 2

	z.Add([]byte("a"), 1, l)
	z.Add([]byte("b"), 2, l)
	if z.Encoding() != "listpack" {
		t.Fatalf("encoding = %s, want listpack", z.Encoding())
	}
	z.Add([]byte("c"), 3, l)
	if z.Encoding() != "skiplist" {
		t.Fatalf("encoding = %s, want skiplist after exceeding entries", z.Encoding())
	}
	fwd := z.RangeByRank(0, -1, false)
	assertNames(t, fwd, []string{"a", "b", "c"})
}

func TestSortedSetIncrByCreatesMember(t *testing.T) {
	z := NewSortedSet()
	l := DefaultLimits()
	newScore := z.IncrBy([]byte("a"), 5, l)
	if newScore != 5 {
		t.Fatalf("IncrBy = %v, want 5", newScore)
	}
	newScore = z.IncrBy([]byte("a"), 2.5, l)
	if newScore != 7.5 {
		t.Fatalf("IncrBy = %v, want 7.5", newScore)
	}
}

func TestSortedSetRemove(t *testing.T) {
	z := NewSortedSet()
	l := DefaultLimits()
	z.Add([]byte("a"), 1, l)
	if !z.Remove([]byte("a")) {
		t.Fatal("expected remove to succeed")
	}
	if z.Remove([]byte("a")) {
		t.Fatal("second remove should report false")
	}
}
