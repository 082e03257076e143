package datastore

import "vredis/internal/bytesutil"

type stringRepr int

const (
	stringInteger stringRepr = iota
	stringFloat
	stringRaw
)

// StringValue is the String variant of §4.4(a). Go's garbage-collected
// slices already give cheap structural sharing, so the inline small-buffer
// optimization the spec describes collapses here into one raw
// representation; only the observable OBJECT ENCODING name ("int" /
// "embstr" / "raw") is preserved.
type StringValue struct {
	repr stringRepr
	i    int64
	f    float64
	raw  []byte
}

// NewString builds a StringValue from raw bytes, normalizing a canonical
// decimal i64 rendering into the Integer representation.
func NewString(b []byte) *StringValue {
	if i, ok := bytesutil.ParseI64Exact(b); ok {
		return &StringValue{repr: stringInteger, i: i}
	}
	return &StringValue{repr: stringRaw, raw: b}
}

// NewStringInt builds an Integer StringValue directly (INCR/DECR results).
func NewStringInt(i int64) *StringValue { return &StringValue{repr: stringInteger, i: i} }

// NewStringFloat builds a Float StringValue directly (INCRBYFLOAT results).
func NewStringFloat(f float64) *StringValue { return &StringValue{repr: stringFloat, f: f} }

func (s *StringValue) Kind() Kind { return KindString }

func (s *StringValue) Encoding() string {
	switch s.repr {
	case stringInteger:
		return "int"
	case stringFloat:
		return "embstr"
	default:
		if len(s.raw) <= 44 {
			return "embstr"
		}
		return "raw"
	}
}

// Bytes materializes the canonical byte rendering of the value.
func (s *StringValue) Bytes() []byte {
	switch s.repr {
	case stringInteger:
		return bytesutil.FormatI64(s.i)
	case stringFloat:
		return bytesutil.FormatFloat(s.f)
	default:
		return s.raw
	}
}

// Int returns the value as an i64, true only when it parses exactly.
func (s *StringValue) Int() (int64, bool) {
	switch s.repr {
	case stringInteger:
		return s.i, true
	case stringFloat:
		return 0, false
	default:
		return bytesutil.ParseI64Exact(s.raw)
	}
}

// Float returns the value as an f64, true when it parses as a number.
func (s *StringValue) Float() (float64, bool) {
	switch s.repr {
	case stringFloat:
		return s.f, true
	case stringInteger:
		return float64(s.i), true
	default:
		return bytesutil.ParseFloat(s.raw)
	}
}

// Len returns the byte length of the materialized value.
func (s *StringValue) Len() int { return len(s.Bytes()) }

// Append returns a new StringValue with b appended, always materializing
// to the raw representation (APPEND, SETRANGE past the end).
func (s *StringValue) Append(b []byte) *StringValue {
	out := append(append([]byte(nil), s.Bytes()...), b...)
	return &StringValue{repr: stringRaw, raw: out}
}

// Equal compares two string values by their materialized bytes.
func (s *StringValue) Equal(other *StringValue) bool {
	a, b := s.Bytes(), other.Bytes()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
