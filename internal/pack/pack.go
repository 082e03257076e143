// Package pack implements a listpack-style packed buffer: a flat byte
// buffer holding a sequence of variable-width elements (§4.1), each
// followed by a back-length varint so the buffer can be walked in either
// direction without a separate index. It backs the small-collection
// encodings of hashes, lists, sets and sorted sets before they're promoted
// to their hashtable/skiplist forms.
package pack

// Edge names one end of a Pack, used by Cursor and Mv.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
)

// Pack is a packed sequence of values. The zero value is an empty pack.
type Pack struct {
	data []byte
	len  int
}

// WithCapacity returns an empty Pack whose backing buffer is pre-sized.
func WithCapacity(capacity int) *Pack {
	return &Pack{data: make([]byte, 0, capacity)}
}

// Len returns the number of values in the pack.
func (p *Pack) Len() int { return p.len }

// Size returns the byte length of the packed data.
func (p *Pack) Size() int { return len(p.data) }

// Append adds a value to the end of the pack.
func (p *Pack) Append(v Value) {
	p.data = writeElement(p.data, v)
	p.len++
}

// Append2 adds two values to the end of the pack in one grow.
func (p *Pack) Append2(a, b Value) {
	p.data = writeElement(p.data, a)
	p.data = writeElement(p.data, b)
	p.len += 2
}

// Prepend adds a value to the beginning of the pack.
func (p *Pack) Prepend(v Value) {
	c := p.Cursor(EdgeLeft)
	c.Insert(v)
}

// Iter returns a double-ended iterator over the pack's values.
func (p *Pack) Iter() *Iter {
	return &Iter{pack: p, nextFront: 0, nextBack: len(p.data), remaining: p.len}
}

// Iter is a double-ended iterator over the values in a Pack.
type Iter struct {
	pack                *Pack
	nextFront, nextBack int
	remaining           int
}

// Next returns the next value from the front, or false when exhausted.
func (it *Iter) Next() (Ref, bool) {
	if it.nextFront >= it.nextBack {
		return Ref{}, false
	}
	ref, next, ok := readElement(it.pack.data, it.nextFront)
	if !ok {
		return Ref{}, false
	}
	it.nextFront = next
	it.remaining--
	return ref, true
}

// NextBack returns the next value from the back, or false when exhausted.
func (it *Iter) NextBack() (Ref, bool) {
	if it.nextFront >= it.nextBack {
		return Ref{}, false
	}
	ref, start, ok := readElementBack(it.pack.data, it.nextBack)
	if !ok {
		return Ref{}, false
	}
	it.nextBack = start
	it.remaining--
	return ref, true
}

// Len returns the number of values remaining to be iterated.
func (it *Iter) Len() int { return it.remaining }

// Cursor is a mutable position within a Pack, supporting in-place edits.
// A left-edge cursor walks forward (index 0 toward len); a right-edge
// cursor walks backward (index len toward 0) but Next/Prev always mean
// "toward the edge the cursor started from" / "away from it".
type Cursor struct {
	pack    *Pack
	index   int
	offset  int
	reverse bool
}

// Cursor returns a cursor positioned at edge.
func (p *Pack) Cursor(edge Edge) *Cursor {
	if edge == EdgeLeft {
		return &Cursor{pack: p, index: 0, offset: 0, reverse: false}
	}
	return &Cursor{pack: p, index: p.len, offset: len(p.data), reverse: true}
}

// Len returns the number of values in the underlying pack.
func (c *Cursor) Len() int { return c.pack.len }

// Index returns the index of the cursor's current value.
func (c *Cursor) Index() int { return c.index }

// Skip advances the cursor past n values.
func (c *Cursor) Skip(n int) {
	for i := 0; i < n; i++ {
		if _, ok := c.Next(); !ok {
			return
		}
	}
}

// Peek returns the current value without consuming it.
func (c *Cursor) Peek() (Ref, bool) {
	if c.reverse {
		ref, _, ok := readElementBack(c.pack.data, c.offset)
		return ref, ok
	}
	ref, _, ok := readElement(c.pack.data, c.offset)
	return ref, ok
}

// Next consumes and returns the value toward the cursor's direction of
// travel.
func (c *Cursor) Next() (Ref, bool) {
	if c.reverse {
		return c.backward()
	}
	return c.forward()
}

// Prev consumes and returns the value opposite the cursor's direction of
// travel.
func (c *Cursor) Prev() (Ref, bool) {
	if c.reverse {
		return c.forward()
	}
	return c.backward()
}

func (c *Cursor) forward() (Ref, bool) {
	if c.index == c.pack.len {
		c.offset = 0
		c.index = 0
		return Ref{}, false
	}
	ref, next, ok := readElement(c.pack.data, c.offset)
	if !ok {
		return Ref{}, false
	}
	c.index++
	c.offset = next
	return ref, true
}

func (c *Cursor) backward() (Ref, bool) {
	if c.index == 0 {
		c.offset = len(c.pack.data)
		c.index = c.pack.len
		return Ref{}, false
	}
	ref, start, ok := readElementBack(c.pack.data, c.offset)
	if !ok {
		return Ref{}, false
	}
	c.index--
	c.offset = start
	return ref, true
}

// Split splits the pack at the cursor's current index, truncating it to
// everything before that index and returning a new Pack holding the rest.
func (c *Cursor) Split() *Pack {
	length := c.pack.len
	tail := make([]byte, len(c.pack.data)-c.offset)
	copy(tail, c.pack.data[c.offset:])
	right := &Pack{data: tail, len: length - c.index}
	c.pack.data = c.pack.data[:c.offset:c.offset]
	c.pack.len = c.index
	return right
}

// Remove deletes count values in the cursor's direction of travel.
func (c *Cursor) Remove(count int) {
	if count == 0 {
		return
	}
	start, end := c.offset, c.offset
	if c.reverse {
		for i := 0; i < count; i++ {
			_, next, ok := readElementBack(c.pack.data, start)
			if !ok {
				break
			}
			start = next
			c.offset = next
			c.index--
			c.pack.len--
		}
	} else {
		for i := 0; i < count; i++ {
			_, next, ok := readElement(c.pack.data, end)
			if !ok {
				break
			}
			end = next
			c.pack.len--
		}
	}
	c.pack.data = append(c.pack.data[:start], c.pack.data[end:]...)
}

// Insert adds a value at the cursor's current offset, shifting everything
// from that point onward to make room. The cursor itself is left pointing
// at the same byte offset, so a following Next reads the inserted value.
func (c *Cursor) Insert(v Value) {
	c.pack.len++
	tail := make([]byte, len(c.pack.data)-c.offset)
	copy(tail, c.pack.data[c.offset:])
	c.pack.data = writeElement(c.pack.data[:c.offset:c.offset], v)
	c.pack.data = append(c.pack.data, tail...)
}

// Insert2 adds two values at the cursor's current offset in one grow.
func (c *Cursor) Insert2(a, b Value) {
	c.pack.len += 2
	tail := make([]byte, len(c.pack.data)-c.offset)
	copy(tail, c.pack.data[c.offset:])
	data := writeElement(c.pack.data[:c.offset:c.offset], a)
	data = writeElement(data, b)
	c.pack.data = append(data, tail...)
}

// Replace overwrites the value at the cursor's current index with v.
func (c *Cursor) Replace(v Value) {
	old, ok := c.Peek()
	if !ok {
		return
	}
	oldSize := elementSize(old.value())
	start := c.offset
	if c.reverse {
		start = c.offset - oldSize
	}
	newBytes := writeElement(nil, v)
	data := make([]byte, 0, len(c.pack.data)-oldSize+len(newBytes))
	data = append(data, c.pack.data[:start]...)
	data = append(data, newBytes...)
	data = append(data, c.pack.data[start+oldSize:]...)
	c.pack.data = data
}

// Mv moves the value at edge to the opposite end of the pack.
func (p *Pack) Mv(from Edge) {
	c := p.Cursor(from)
	ref, ok := c.Peek()
	if !ok {
		return
	}
	elemBytes := writeElement(nil, ref.value())
	size := len(elemBytes)

	data := make([]byte, 0, len(p.data))
	switch from {
	case EdgeLeft:
		data = append(data, p.data[size:]...)
		data = append(data, elemBytes...)
	case EdgeRight:
		data = append(data, elemBytes...)
		data = append(data, p.data[:len(p.data)-size]...)
	}
	p.data = data
}
