package datastore

import "testing"

func TestNewStringNormalizesInteger(t *testing.T) {
	s := NewString([]byte("12345"))
	if s.Encoding() != "int" {
		t.Fatalf("encoding = %s, want int", s.Encoding())
	}
	if i, ok := s.Int(); !ok || i != 12345 {
		t.Fatalf("Int() = %d, %v", i, ok)
	}
	if string(s.Bytes()) != "12345" {
		t.Fatalf("Bytes() = %q", s.Bytes())
	}
}

func TestNewStringLeavesNonCanonicalRaw(t *testing.T) {
	for _, in := range []string{"+1", "01", "1 ", "", "9223372036854775808"} {
		s := NewString([]byte(in))
		if s.Encoding() == "int" {
			t.Fatalf("input %q should not normalize to int", in)
		}
	}
}

func TestEncodingThresholds(t *testing.T) {
	short := NewString([]byte("hello"))
	if short.Encoding() != "embstr" {
		t.Fatalf("encoding = %s, want embstr", short.Encoding())
	}
	long := NewString(make([]byte, 45))
	if long.Encoding() != "raw" {
		t.Fatalf("encoding = %s, want raw", long.Encoding())
	}
}

func TestAppendMaterializesRaw(t *testing.T) {
	s := NewStringInt(7)
	appended := s.Append([]byte("x"))
	if appended.Encoding() != "raw" && appended.Encoding() != "embstr" {
		t.Fatalf("encoding = %s", appended.Encoding())
	}
	if string(appended.Bytes()) != "7x" {
		t.Fatalf("Bytes() = %q, want 7x", appended.Bytes())
	}
}

func TestEqual(t *testing.T) {
	a := NewString([]byte("42"))
	b := NewStringInt(42)
	if !a.Equal(b) {
		t.Fatal("expected int-normalized and direct int string to be equal")
	}
	c := NewString([]byte("43"))
	if a.Equal(c) {
		t.Fatal("expected different values to compare unequal")
	}
}

func TestFloatFallsBackToParse(t *testing.T) {
	s := NewString([]byte("3.25"))
	f, ok := s.Float()
	if !ok || f != 3.25 {
		t.Fatalf("Float() = %v, %v", f, ok)
	}
}
