package pack

import "vredis/internal/bytesutil"

// Ref is a zero-copy view of one element decoded from a Pack: either an
// immediate integer, an immediate float, or a byte slice backed by the
// pack's own storage. Slice is only valid until the Pack is next mutated.
type Ref struct {
	kind  refKind
	i     int64
	f     float64
	slice []byte
}

type refKind int

const (
	refInteger refKind = iota
	refFloat
	refSlice
)

func intRef(i int64) Ref   { return Ref{kind: refInteger, i: i} }
func floatRef(f float64) Ref { return Ref{kind: refFloat, f: f} }
func sliceRef(s []byte) Ref { return Ref{kind: refSlice, slice: s} }

// IsInteger reports whether the ref holds an immediate integer.
func (r Ref) IsInteger() bool { return r.kind == refInteger }

// IsFloat reports whether the ref holds an immediate float.
func (r Ref) IsFloat() bool { return r.kind == refFloat }

// IsSlice reports whether the ref holds a byte-slice element.
func (r Ref) IsSlice() bool { return r.kind == refSlice }

// Int returns the integer value and true if the ref is an integer.
func (r Ref) Int() (int64, bool) {
	if r.kind != refInteger {
		return 0, false
	}
	return r.i, true
}

// Float returns the float value and true if the ref is a float.
func (r Ref) Float() (float64, bool) {
	if r.kind != refFloat {
		return 0, false
	}
	return r.f, true
}

// Slice returns the backing bytes and true if the ref is a byte slice.
func (r Ref) Slice() ([]byte, bool) {
	if r.kind != refSlice {
		return nil, false
	}
	return r.slice, true
}

// value returns the Value that would re-encode this ref unchanged.
func (r Ref) value() Value {
	return Value{kind: r.kind, i: r.i, f: r.f, bytes: r.slice}
}

// Bytes materializes the ref's canonical byte form regardless of kind: an
// integer or float ref is formatted to its decimal text, a slice ref is
// returned as-is.
func (r Ref) Bytes() []byte {
	switch r.kind {
	case refInteger:
		return bytesutil.FormatI64(r.i)
	case refFloat:
		return bytesutil.FormatFloat(r.f)
	default:
		return r.slice
	}
}
