package datastore

import "vredis/internal/pack"

// listNode is one segment of a quicklist: a packed buffer of elements plus
// its neighbors in the node chain.
type listNode struct {
	pack *pack.Pack
	prev *listNode
	next *listNode
}

// List is a sequence of values (§4.4(c)). It starts as a single packed
// node and is promoted to a quicklist (several packed nodes chained
// together) once a node would outgrow the configured listpack size, so
// that no single push ever has to re-encode the whole list.
type List struct {
	head, tail *listNode
	nodeCount  int
	length     int
}

// NewList returns an empty, single-node list.
func NewList() *List {
	n := &listNode{pack: pack.WithCapacity(0)}
	return &List{head: n, tail: n, nodeCount: 1}
}

func (l *List) Kind() Kind { return KindList }

func (l *List) Encoding() string {
	if l.nodeCount <= 1 {
		return "listpack"
	}
	return "quicklist"
}

// Len returns the number of elements.
func (l *List) Len() int { return l.length }

func nodeFull(n *listNode, limit Limits) bool {
	if limit.ListMaxListpackSize > 0 {
		return n.pack.Len() >= limit.ListMaxListpackSize
	}
	return n.pack.Size() >= listPackByteCap(limit.ListMaxListpackSize)
}

// PushLeft prepends value.
func (l *List) PushLeft(value []byte, limit Limits) {
	if nodeFull(l.head, limit) {
		n := &listNode{pack: pack.WithCapacity(0), next: l.head}
		l.head.prev = n
		l.head = n
		l.nodeCount++
	}
	l.head.pack.Prepend(pack.Bytes(value))
	l.length++
}

// PushRight appends value.
func (l *List) PushRight(value []byte, limit Limits) {
	if nodeFull(l.tail, limit) {
		n := &listNode{pack: pack.WithCapacity(0), prev: l.tail}
		l.tail.next = n
		l.tail = n
		l.nodeCount++
	}
	l.tail.pack.Append(pack.Bytes(value))
	l.length++
}

// PopLeft removes and returns the first element.
func (l *List) PopLeft() ([]byte, bool) {
	if l.length == 0 {
		return nil, false
	}
	c := l.head.pack.Cursor(pack.EdgeLeft)
	r, ok := c.Peek()
	if !ok {
		return nil, false
	}
	v := append([]byte(nil), r.Bytes()...)
	c.Remove(1)
	l.length--
	l.dropNodeIfEmpty(l.head)
	return v, true
}

// PopRight removes and returns the last element.
func (l *List) PopRight() ([]byte, bool) {
	if l.length == 0 {
		return nil, false
	}
	c := l.tail.pack.Cursor(pack.EdgeRight)
	r, ok := c.Peek()
	if !ok {
		return nil, false
	}
	v := append([]byte(nil), r.Bytes()...)
	c.Remove(1)
	l.length--
	l.dropNodeIfEmpty(l.tail)
	return v, true
}

func (l *List) dropNodeIfEmpty(n *listNode) {
	if n.pack.Len() > 0 || l.nodeCount == 1 {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	l.nodeCount--
}

// Index returns the element at the given 0-based index, or false if out of
// range. Negative indexes count from the end.
func (l *List) Index(index int) ([]byte, bool) {
	if index < 0 {
		index += l.length
	}
	if index < 0 || index >= l.length {
		return nil, false
	}
	skipped := 0
	for n := l.head; n != nil; n = n.next {
		if index < skipped+n.pack.Len() {
			c := n.pack.Cursor(pack.EdgeLeft)
			c.Skip(index - skipped)
			r, ok := c.Peek()
			return r.Bytes(), ok
		}
		skipped += n.pack.Len()
	}
	return nil, false
}

// SetIndex overwrites the element at index, returning false if out of
// range.
func (l *List) SetIndex(index int, value []byte) bool {
	if index < 0 {
		index += l.length
	}
	if index < 0 || index >= l.length {
		return false
	}
	skipped := 0
	for n := l.head; n != nil; n = n.next {
		if index < skipped+n.pack.Len() {
			c := n.pack.Cursor(pack.EdgeLeft)
			c.Skip(index - skipped)
			c.Replace(pack.Bytes(value))
			return true
		}
		skipped += n.pack.Len()
	}
	return false
}

// Range returns elements with 0-based inclusive indexes [start, stop],
// clamped to the list bounds. Negative indexes count from the end.
func (l *List) Range(start, stop int) [][]byte {
	if start < 0 {
		start += l.length
	}
	if stop < 0 {
		stop += l.length
	}
	if start < 0 {
		start = 0
	}
	if stop >= l.length {
		stop = l.length - 1
	}
	if start > stop || l.length == 0 {
		return nil
	}

	out := make([][]byte, 0, stop-start+1)
	i := 0
	for n := l.head; n != nil; n = n.next {
		it := n.pack.Iter()
		for {
			r, ok := it.Next()
			if !ok {
				break
			}
			if i >= start && i <= stop {
				out = append(out, r.Bytes())
			}
			i++
			if i > stop {
				return out
			}
		}
	}
	return out
}

// Trim keeps only elements with 0-based inclusive indexes [start, stop],
// discarding the rest.
func (l *List) Trim(start, stop int) {
	kept := l.Range(start, stop)
	n := &listNode{pack: pack.WithCapacity(0)}
	for _, v := range kept {
		n.pack.Append(pack.Bytes(v))
	}
	l.head, l.tail, l.nodeCount, l.length = n, n, 1, len(kept)
}

// Remove deletes up to count occurrences of value. count > 0 walks front
// to back, count < 0 walks back to front, count == 0 removes all
// occurrences. Returns the number removed.
func (l *List) Remove(value []byte, count int) int {
	forward := count >= 0
	limit := count
	if limit < 0 {
		limit = -limit
	}

	removed := 0
	matches := func() bool { return limit == 0 || removed < limit }

	if forward {
		for n := l.head; n != nil; {
			next := n.next
			c := n.pack.Cursor(pack.EdgeLeft)
			for matches() {
				r, ok := c.Peek()
				if !ok {
					break
				}
				if bytesEqual(r.Bytes(), value) {
					c.Remove(1)
					l.length--
					removed++
					continue
				}
				c.Skip(1)
			}
			l.dropNodeIfEmpty(n)
			if !matches() {
				break
			}
			n = next
		}
		return removed
	}

	for n := l.tail; n != nil; {
		prev := n.prev
		c := n.pack.Cursor(pack.EdgeRight)
		for matches() {
			r, ok := c.Peek()
			if !ok {
				break
			}
			if bytesEqual(r.Bytes(), value) {
				c.Remove(1)
				l.length--
				removed++
				continue
			}
			c.Skip(1)
		}
		l.dropNodeIfEmpty(n)
		if !matches() {
			break
		}
		n = prev
	}
	return removed
}
