package bytesutil

import "testing"

func TestParseI64ExactRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 9, -9, 123456789, -123456789, 1<<63 - 1, -(1 << 62)}
	for _, n := range cases {
		formatted := FormatI64(n)
		got, ok := ParseI64Exact(formatted)
		if !ok || got != n {
			t.Fatalf("round trip failed for %d: got=%d ok=%v", n, got, ok)
		}
	}
}

func TestParseI64ExactRejects(t *testing.T) {
	bad := []string{"", "-", "+1", "01", "-0", "1 ", " 1", "1.0", "abc", "--1"}
	for _, s := range bad {
		if _, ok := ParseI64Exact([]byte(s)); ok {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}

func TestParseI64ExactAcceptsZero(t *testing.T) {
	n, ok := ParseI64Exact([]byte("0"))
	if !ok || n != 0 {
		t.Fatalf("expected 0 to parse, got %d %v", n, ok)
	}
}

func TestParseMemorySize(t *testing.T) {
	cases := map[string]int64{
		"100":   100,
		"1k":    1000,
		"1kb":   1024,
		"2M":    2 * 1000 * 1000,
		"2mb":   2 * 1024 * 1024,
		"1g":    1000 * 1000 * 1000,
		"1GB":   1024 * 1024 * 1024,
		"0":     0,
	}
	for in, want := range cases {
		got, err := ParseMemorySize(in)
		if err != nil {
			t.Fatalf("ParseMemorySize(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseMemorySize(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseMemorySizeBad(t *testing.T) {
	for _, in := range []string{"", "abc", "1XB"} {
		if _, err := ParseMemorySize(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
