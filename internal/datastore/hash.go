package datastore

import "vredis/internal/pack"

// Hash is a field->value map (§4.4(b)). It starts as a flat PackMap
// (alternating field, value elements in one pack.Pack) and is promoted to
// a HashMap once it outgrows the configured listpack thresholds. Promotion
// only ever moves forward.
type Hash struct {
	packed *pack.Pack
	fields map[string][]byte
}

// NewHash returns an empty, packed hash.
func NewHash() *Hash {
	return &Hash{packed: pack.WithCapacity(0)}
}

func (h *Hash) Kind() Kind { return KindHash }

func (h *Hash) Encoding() string {
	if h.packed != nil {
		return "listpack"
	}
	return "hashtable"
}

// Len returns the number of fields.
func (h *Hash) Len() int {
	if h.packed != nil {
		return h.packed.Len() / 2
	}
	return len(h.fields)
}

// Get returns the value of field, if present.
func (h *Hash) Get(field []byte) ([]byte, bool) {
	if h.packed != nil {
		it := h.packed.Iter()
		for {
			f, ok := it.Next()
			if !ok {
				return nil, false
			}
			v, ok := it.Next()
			if !ok {
				return nil, false
			}
			if bytesEqual(f.Bytes(), field) {
				return v.Bytes(), true
			}
		}
	}
	v, ok := h.fields[string(field)]
	return v, ok
}

// Exists reports whether field is present.
func (h *Hash) Exists(field []byte) bool {
	_, ok := h.Get(field)
	return ok
}

// Set stores field=value, returning true if field is new. l drives
// promotion to the hashtable tier when the new entry would outgrow the
// listpack thresholds.
func (h *Hash) Set(field, value []byte, l Limits) bool {
	if h.packed != nil {
		isNew := h.setPacked(field, value)
		if overLimit(field, value, l) {
			h.promote()
		} else {
			h.maybePromote(l)
		}
		return isNew
	}
	_, existed := h.fields[string(field)]
	h.fields[string(field)] = append([]byte(nil), value...)
	return !existed
}

func (h *Hash) setPacked(field, value []byte) (isNew bool) {
	c := h.packed.Cursor(pack.EdgeLeft)
	for {
		f, ok := c.Peek()
		if !ok {
			break
		}
		if bytesEqual(f.Bytes(), field) {
			c.Next()
			c.Replace(pack.Bytes(value))
			return false
		}
		c.Skip(2)
	}
	h.packed.Append2(pack.Bytes(field), pack.Bytes(value))
	return true
}

// Delete removes field, returning true if it existed.
func (h *Hash) Delete(field []byte) bool {
	if h.packed != nil {
		c := h.packed.Cursor(pack.EdgeLeft)
		for {
			f, ok := c.Peek()
			if !ok {
				return false
			}
			if bytesEqual(f.Bytes(), field) {
				c.Remove(2)
				return true
			}
			c.Skip(2)
		}
	}
	if _, ok := h.fields[string(field)]; !ok {
		return false
	}
	delete(h.fields, string(field))
	return true
}

// Each calls fn for every field, value pair. Iteration order is
// insertion order for the listpack tier and unspecified for the
// hashtable tier.
func (h *Hash) Each(fn func(field, value []byte)) {
	if h.packed != nil {
		it := h.packed.Iter()
		for {
			f, ok := it.Next()
			if !ok {
				return
			}
			v, _ := it.Next()
			fn(f.Bytes(), v.Bytes())
		}
	}
	for f, v := range h.fields {
		fn([]byte(f), v)
	}
}

func (h *Hash) maybePromote(l Limits) {
	if h.packed == nil {
		return
	}
	if h.packed.Len()/2 > l.HashMaxListpackEntries {
		h.promote()
	}
}

func (h *Hash) promote() {
	m := make(map[string][]byte, h.packed.Len()/2)
	it := h.packed.Iter()
	for {
		f, ok := it.Next()
		if !ok {
			break
		}
		v, _ := it.Next()
		m[string(f.Bytes())] = append([]byte(nil), v.Bytes()...)
	}
	h.fields = m
	h.packed = nil
}

// overLimit reports whether field or value exceeds the single-entry byte
// threshold, forcing an immediate promotion regardless of entry count.
func overLimit(field, value []byte, l Limits) bool {
	return len(field) > l.HashMaxListpackValue || len(value) > l.HashMaxListpackValue
}

func bytesEqual(a, b []byte) bool {
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
