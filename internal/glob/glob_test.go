package glob

import "testing"

func m(s, p string) bool { return Match([]byte(s), []byte(p)) }
func mf(s, p string) bool { return MatchFold([]byte(s), []byte(p)) }

func TestEq(t *testing.T) {
	if !m("abc", "abc") {
		t.Fatal("expected exact match")
	}
}

func TestAny(t *testing.T) {
	for _, p := range []string{"ab?", "a??", "a?c"} {
		if !m("abc", p) {
			t.Fatalf("expected %q to match abc", p)
		}
	}
}

func TestStar(t *testing.T) {
	for _, p := range []string{"*", "a*c", "a**c"} {
		if !m("abc", p) {
			t.Fatalf("expected %q to match abc", p)
		}
	}
}

func TestTrailingLeadingStar(t *testing.T) {
	if !m("abc", "abc*") {
		t.Fatal("trailing star")
	}
	if !m("abc", "*abc") || !m("abc", "*bc") {
		t.Fatal("leading star")
	}
}

func TestBrackets(t *testing.T) {
	if !m("abd", "a[bc]d") || !m("acd", "a[bc]d") {
		t.Fatal("bracket set")
	}
	if !m("ac", "a[bc") {
		t.Fatal("unterminated bracket")
	}
}

func TestBracketsEscape(t *testing.T) {
	if !m("a-d", `a[\-]d`) {
		t.Fatal("bracket escape")
	}
}

func TestBracketsDash(t *testing.T) {
	if !m("abd", "a[a-d]d") {
		t.Fatal("bracket range positive")
	}
	if m("afd", "a[a-d]d") {
		t.Fatal("bracket range negative")
	}
}

func TestBracketsNot(t *testing.T) {
	if m("abd", "a[^bc]d") || m("acd", "a[^bc]d") {
		t.Fatal("negated bracket should reject member")
	}
	if !m("aed", "a[^bc]d") || !m("afd", "a[^bc]d") {
		t.Fatal("negated bracket should accept non-member")
	}
}

func TestEscapes(t *testing.T) {
	if !m("ab[d]", `ab\[d\]`) {
		t.Fatal("escaped brackets literal")
	}
	if !m(`ab*`, `ab\*`) || m("abc", `ab\*`) {
		t.Fatal("escaped star literal")
	}
	if !m("ab?", `ab\?`) || m("abc", `ab\?`) {
		t.Fatal("escaped question literal")
	}
	if !m("ab[", `ab\[`) || m("abc", `ab\[`) {
		t.Fatal("escaped bracket literal")
	}
	if !m("ab]", "ab]") {
		t.Fatal("bare closing bracket literal")
	}
}

func TestNoCase(t *testing.T) {
	if !mf("ABC", "abc") || !mf("abc", "ABC") {
		t.Fatal("case fold literal")
	}
	if !mf("abc", "AB[C]") || !mf("abc", "AB[C-D]") {
		t.Fatal("case fold bracket")
	}
}
