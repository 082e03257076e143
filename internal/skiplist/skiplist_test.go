package skiplist

import "testing"

func vals(members ...string) []string {
	return members
}

func collect(ms []Member) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = string(m.Value)
	}
	return out
}

func assertOrder(t *testing.T, got []Member, want []string) {
	t.Helper()
	g := collect(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func TestInsertScoreRank(t *testing.T) {
	sl := New()
	sl.Insert([]byte("a"), 1)
	sl.Insert([]byte("b"), 2)
	sl.Insert([]byte("c"), 3)

	if sl.Len() != 3 {
		t.Fatalf("len = %d, want 3", sl.Len())
	}
	if score, ok := sl.Score([]byte("b")); !ok || score != 2 {
		t.Fatalf("score(b) = %v, %v", score, ok)
	}
	if rank := sl.Rank([]byte("b"), 2); rank != 1 {
		t.Fatalf("rank(b) = %d, want 1", rank)
	}
	if rank := sl.Rank([]byte("missing"), 99); rank != -1 {
		t.Fatalf("rank(missing) = %d, want -1", rank)
	}
}

func TestInsertUpdateScore(t *testing.T) {
	sl := New()
	sl.Insert([]byte("a"), 1)
	if sl.Insert([]byte("a"), 5) {
		t.Fatal("re-insert with new score should not report a new node")
	}
	if sl.Len() != 1 {
		t.Fatalf("len = %d, want 1", sl.Len())
	}
	score, _ := sl.Score([]byte("a"))
	if score != 5 {
		t.Fatalf("score = %v, want 5", score)
	}
}

func TestDelete(t *testing.T) {
	sl := New()
	sl.Insert([]byte("a"), 1)
	sl.Insert([]byte("b"), 2)

	if !sl.Delete([]byte("a"), 1) {
		t.Fatal("expected delete to succeed")
	}
	if sl.Delete([]byte("a"), 1) {
		t.Fatal("expected second delete to fail")
	}
	if sl.Len() != 1 {
		t.Fatalf("len = %d, want 1", sl.Len())
	}
}

func TestRangeByScoreForwardAndReverse(t *testing.T) {
	sl := New()
	for i, m := range vals("a", "b", "c", "d", "e") {
		sl.Insert([]byte(m), float64(i))
	}

	fwd := sl.RangeByScore(1, 3, 0, -1, false)
	assertOrder(t, fwd, []string{"b", "c", "d"})

	rev := sl.RangeByScore(1, 3, 0, -1, true)
	assertOrder(t, rev, []string{"d", "c", "b"})

	revOffset := sl.RangeByScore(0, 4, 1, 2, true)
	assertOrder(t, revOffset, []string{"d", "c"})
}

func TestRangeByRank(t *testing.T) {
	sl := New()
	for i, m := range vals("a", "b", "c", "d", "e") {
		sl.Insert([]byte(m), float64(i))
	}

	fwd := sl.RangeByRank(1, 3, false)
	assertOrder(t, fwd, []string{"b", "c", "d"})

	rev := sl.RangeByRank(0, 1, true)
	assertOrder(t, rev, []string{"e", "d"})
}

func TestEqualScoreOrderedByMember(t *testing.T) {
	sl := New()
	sl.Insert([]byte("zeta"), 1)
	sl.Insert([]byte("alpha"), 1)
	sl.Insert([]byte("mu"), 1)

	all := sl.RangeByRank(0, 2, false)
	assertOrder(t, all, []string{"alpha", "mu", "zeta"})
}
