// Package glob implements the Redis glob-style pattern matcher used by KEYS,
// PSUBSCRIBE, CONFIG GET and COMMAND LIST: '?' matches one byte, '*' matches
// any run including empty, '[...]' matches a single byte from a set ('^'
// negates, 'a-b' ranges, '\' escapes), and '\c' escapes any character
// outside brackets too.
package glob

// Match reports whether s matches pattern, case-sensitively. Used by
// PUBLISH's exact-channel / pattern fan-out.
func Match(s, pattern []byte) bool {
	return match(s, pattern, false)
}

// MatchFold reports whether s matches pattern, case-insensitively. Used by
// KEYS, CONFIG GET and COMMAND LIST.
func MatchFold(s, pattern []byte) bool {
	return match(s, pattern, true)
}

func fold(c byte, ci bool) byte {
	if ci && c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func match(s, pattern []byte, ci bool) bool {
	for {
		if len(pattern) == 0 {
			return len(s) == 0
		}

		switch pattern[0] {
		case '*':
			pattern = trimStarPrefix(pattern[1:])
			if len(pattern) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if match(s[i:], pattern, ci) {
					return true
				}
			}
			return false

		case '?':
			if len(s) == 0 {
				return false
			}
			s = s[1:]
			pattern = pattern[1:]

		case '[':
			if len(s) == 0 {
				return false
			}
			rest, ok := matchBrackets(pattern[1:], s[0], ci)
			if !ok {
				return false
			}
			pattern = rest
			s = s[1:]

		case '\\':
			if len(pattern) < 2 {
				// Unterminated escape: treat '\' as a literal.
				if len(s) == 0 || fold(s[0], ci) != fold('\\', ci) {
					return false
				}
				s, pattern = s[1:], pattern[1:]
				continue
			}
			if len(s) == 0 || fold(s[0], ci) != fold(pattern[1], ci) {
				return false
			}
			s, pattern = s[1:], pattern[2:]

		default:
			if len(s) == 0 || fold(s[0], ci) != fold(pattern[0], ci) {
				return false
			}
			s, pattern = s[1:], pattern[1:]
		}
	}
}

func trimStarPrefix(pattern []byte) []byte {
	i := 0
	for i < len(pattern) && pattern[i] == '*' {
		i++
	}
	return pattern[i:]
}

// matchBrackets consumes a bracket expression (the content after '[') against
// byte b, returning the pattern slice positioned after the closing ']' (or
// at the end of the pattern if it is never found — an unterminated '[' just
// treats every remaining byte as a set member) and whether b matched.
func matchBrackets(pattern []byte, b byte, ci bool) ([]byte, bool) {
	neg := false
	if len(pattern) > 0 && pattern[0] == '^' {
		neg = true
		pattern = pattern[1:]
	}

	matched := false
	p := pattern
loop:
	for len(p) > 0 {
		switch {
		case p[0] == ']':
			p = p[1:]
			break loop
		case len(p) >= 2 && p[0] == '\\':
			if fold(p[1], ci) == fold(b, ci) {
				matched = true
			}
			p = p[2:]
		case len(p) >= 3 && p[1] == '-':
			lo, hi := p[0], p[2]
			if fold(lo, ci) <= fold(b, ci) && fold(b, ci) <= fold(hi, ci) {
				matched = true
			}
			p = p[3:]
		default:
			if fold(p[0], ci) == fold(b, ci) {
				matched = true
			}
			p = p[1:]
		}
	}

	return p, neg != matched
}
