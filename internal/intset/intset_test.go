package intset

import "testing"

func TestInsertAndWiden(t *testing.T) {
	var s Set

	if !s.Empty() {
		t.Fatal("new set should be empty")
	}

	// i8
	if !s.Insert(1) {
		t.Fatal("expected insert to succeed")
	}
	if s.Insert(1) {
		t.Fatal("expected duplicate insert to fail")
	}
	if !s.Insert(0) {
		t.Fatal("expected insert to succeed")
	}
	if !s.Contains(0) || !s.Contains(1) || s.Contains(2) {
		t.Fatal("contains mismatch")
	}

	// i16
	if !s.Insert(128) {
		t.Fatal("expected widen-insert to succeed")
	}
	if s.Insert(128) {
		t.Fatal("expected duplicate insert to fail")
	}
	if !s.Insert(-129) {
		t.Fatal("expected insert to succeed")
	}
	if !s.Contains(128) || !s.Contains(-129) || s.Contains(130) {
		t.Fatal("contains mismatch after i16 widen")
	}

	// i32
	if !s.Insert(32768) {
		t.Fatal("expected widen-insert to succeed")
	}
	if !s.Insert(-32769) {
		t.Fatal("expected insert to succeed")
	}
	if !s.Contains(32768) || !s.Contains(-32769) {
		t.Fatal("contains mismatch after i32 widen")
	}

	// i64
	if !s.Insert(2147483648) {
		t.Fatal("expected widen-insert to succeed")
	}
	if !s.Insert(-2147483649) {
		t.Fatal("expected insert to succeed")
	}
	if !s.Contains(2147483648) || !s.Contains(-2147483649) {
		t.Fatal("contains mismatch after i64 widen")
	}
}

func TestRemove(t *testing.T) {
	var s Set
	s.Insert(0)
	s.Insert(1)
	if !s.Remove(0) {
		t.Fatal("expected remove to succeed")
	}
	if s.Remove(0) {
		t.Fatal("expected second remove to fail")
	}
	if s.Contains(0) {
		t.Fatal("0 should be gone")
	}

	s.Insert(200) // widens to i16
	if !s.Remove(200) {
		t.Fatal("expected remove to succeed")
	}
	if s.Remove(200) {
		t.Fatal("expected second remove to fail")
	}
}

func TestValuesOrdered(t *testing.T) {
	var s Set
	s.Insert(0)
	s.Insert(128)
	s.Insert(32768)
	s.Insert(2147483648)

	want := []int64{0, 128, 32768, 2147483648}
	got := s.Values()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLongest(t *testing.T) {
	var s Set
	if s.Longest() != 0 {
		t.Fatal("empty set longest should be 0")
	}
	s.Insert(0)
	if s.Longest() != 1 {
		t.Fatalf("longest = %d, want 1", s.Longest())
	}
	s.Insert(10)
	if s.Longest() != 2 {
		t.Fatalf("longest = %d, want 2", s.Longest())
	}
	s.Insert(-10)
	if s.Longest() != 3 {
		t.Fatalf("longest = %d, want 3", s.Longest())
	}
	s.Insert(-2345678)
	if s.Longest() != 8 {
		t.Fatalf("longest = %d, want 8", s.Longest())
	}
	s.Insert(1234567890)
	if s.Longest() != 10 {
		t.Fatalf("longest = %d, want 10", s.Longest())
	}
}

func TestPop(t *testing.T) {
	var s Set
	s.Insert(5)
	s.Insert(6)
	s.Insert(7)
	seen := map[int64]bool{}
	for i := 0; i < 3; i++ {
		v, ok := s.Pop()
		if !ok {
			t.Fatal("expected a value")
		}
		seen[v] = true
	}
	if len(seen) != 3 || !seen[5] || !seen[6] || !seen[7] {
		t.Fatalf("pop did not drain all members: %v", seen)
	}
	if _, ok := s.Pop(); ok {
		t.Fatal("expected empty set after draining")
	}
}
