package pack

import (
	"bytes"
	"math"

	"vredis/internal/bytesutil"
)

// PackEq compares two refs for equality the way values stored in a Pack
// compare: an integer, a float with a zero fractional part, and the
// canonical decimal string of either are all the same value.
func PackEq(lhs, rhs Ref) bool {
	switch lhs.kind {
	case refFloat:
		return floatEq(lhs.f, rhs)
	case refInteger:
		return intEq(lhs.i, rhs)
	default:
		return sliceEq(lhs.slice, rhs)
	}
}

func floatEq(f float64, other Ref) bool {
	switch other.kind {
	case refFloat:
		return f == other.f
	case refInteger:
		return f == math.Trunc(f) && int64(f) == other.i
	default:
		return bytes.Equal(bytesutil.FormatFloat(f), other.slice)
	}
}

func intEq(i int64, other Ref) bool {
	switch other.kind {
	case refFloat:
		return other.f == math.Trunc(other.f) && i == int64(other.f)
	case refInteger:
		return i == other.i
	default:
		parsed, ok := bytesutil.ParseI64Exact(other.slice)
		return ok && i == parsed
	}
}

func sliceEq(s []byte, other Ref) bool {
	switch other.kind {
	case refFloat:
		return bytes.Equal(s, bytesutil.FormatFloat(other.f))
	case refInteger:
		parsed, ok := bytesutil.ParseI64Exact(s)
		return ok && parsed == other.i
	default:
		return bytes.Equal(s, other.slice)
	}
}
