package pack

import "vredis/internal/bytesutil"

// Value is something that can be appended to a Pack: an integer, a float,
// or raw bytes. Constructing a Value from bytes normalizes any string that
// is the exact canonical decimal rendering of an int64 into an integer, so
// that a packed integer and a packed numeric string of the same number
// compare and hash equal (§4.1's normalization invariant).
type Value struct {
	kind  refKind
	i     int64
	f     float64
	bytes []byte
}

// Int constructs an integer Value.
func Int(i int64) Value { return Value{kind: refInteger, i: i} }

// Float constructs a float Value.
func Float(f float64) Value { return Value{kind: refFloat, f: f} }

// Bytes constructs a Value from a byte slice, normalizing it to an integer
// when it is the canonical decimal rendering of one.
func Bytes(b []byte) Value {
	if i, ok := bytesutil.ParseI64Exact(b); ok {
		return Int(i)
	}
	return Value{kind: refSlice, bytes: b}
}

// String constructs a Value from a string, with the same normalization as
// Bytes.
func String(s string) Value { return Bytes([]byte(s)) }
