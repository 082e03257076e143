package datastore

import (
	"math/rand"

	"vredis/internal/bytesutil"
	"vredis/internal/intset"
	"vredis/internal/pack"
)

// Set is an unordered collection of unique members (§4.4(d)). It starts as
// an IntSet while every member is a canonical integer, is promoted to a
// packed listpack on the first non-integer member or once it outgrows the
// intset entry limit, and finally to a plain string-keyed hashtable once it
// outgrows the listpack thresholds. Promotion only ever moves forward:
// IntSet -> PackSet -> HashSet.
type Set struct {
	ints    *intset.Set
	packed  *pack.Pack
	members map[string]struct{}
}

// NewSet returns an empty, intset-encoded set.
func NewSet() *Set {
	return &Set{ints: &intset.Set{}}
}

func (s *Set) Kind() Kind { return KindSet }

func (s *Set) Encoding() string {
	switch {
	case s.ints != nil:
		return "intset"
	case s.packed != nil:
		return "listpack"
	default:
		return "hashtable"
	}
}

// Len returns the number of members.
func (s *Set) Len() int {
	switch {
	case s.ints != nil:
		return s.ints.Len()
	case s.packed != nil:
		return s.packed.Len()
	default:
		return len(s.members)
	}
}

// IsMember reports whether member is present.
func (s *Set) IsMember(member []byte) bool {
	if s.ints != nil {
		i, ok := bytesutil.ParseI64Exact(member)
		if !ok {
			return false
		}
		return s.ints.Contains(i)
	}
	if s.packed != nil {
		it := s.packed.Iter()
		for {
			r, ok := it.Next()
			if !ok {
				return false
			}
			if bytesEqual(r.Bytes(), member) {
				return true
			}
		}
	}
	_, ok := s.members[string(member)]
	return ok
}

// Add inserts member, returning true if it was new.
func (s *Set) Add(member []byte, l Limits) bool {
	if s.ints != nil {
		if i, ok := bytesutil.ParseI64Exact(member); ok {
			isNew := s.ints.Insert(i)
			if s.ints.Len() > l.SetMaxIntsetEntries {
				s.promoteToPacked()
			}
			return isNew
		}
		s.promoteToPacked()
	}
	if s.packed != nil {
		isNew := s.addPacked(member)
		if len(member) > l.SetMaxListpackValue || s.packed.Len() > l.SetMaxListpackEntries {
			s.promoteToHash()
		}
		return isNew
	}
	_, existed := s.members[string(member)]
	s.members[string(member)] = struct{}{}
	return !existed
}

func (s *Set) addPacked(member []byte) (isNew bool) {
	it := s.packed.Iter()
	for {
		r, ok := it.Next()
		if !ok {
			break
		}
		if bytesEqual(r.Bytes(), member) {
			return false
		}
	}
	s.packed.Append(pack.Bytes(member))
	return true
}

// Remove deletes member, returning true if it was present.
func (s *Set) Remove(member []byte) bool {
	if s.ints != nil {
		i, ok := bytesutil.ParseI64Exact(member)
		if !ok {
			return false
		}
		return s.ints.Remove(i)
	}
	if s.packed != nil {
		c := s.packed.Cursor(pack.EdgeLeft)
		for {
			r, ok := c.Peek()
			if !ok {
				return false
			}
			if bytesEqual(r.Bytes(), member) {
				c.Remove(1)
				return true
			}
			c.Skip(1)
		}
	}
	if _, ok := s.members[string(member)]; !ok {
		return false
	}
	delete(s.members, string(member))
	return true
}

// Each calls fn for every member.
func (s *Set) Each(fn func(member []byte)) {
	switch {
	case s.ints != nil:
		for _, v := range s.ints.Values() {
			fn(bytesutil.FormatI64(v))
		}
	case s.packed != nil:
		it := s.packed.Iter()
		for {
			r, ok := it.Next()
			if !ok {
				return
			}
			fn(r.Bytes())
		}
	default:
		for m := range s.members {
			fn([]byte(m))
		}
	}
}

// Members returns all members as a freshly allocated slice.
func (s *Set) Members() [][]byte {
	out := make([][]byte, 0, s.Len())
	s.Each(func(m []byte) { out = append(out, append([]byte(nil), m...)) })
	return out
}

// Pop removes and returns a uniformly random member.
func (s *Set) Pop() ([]byte, bool) {
	if s.ints != nil {
		v, ok := s.ints.Pop()
		if !ok {
			return nil, false
		}
		return bytesutil.FormatI64(v), true
	}
	members := s.Members()
	if len(members) == 0 {
		return nil, false
	}
	m := members[rand.Intn(len(members))]
	s.Remove(m)
	return m, true
}

func (s *Set) promoteToPacked() {
	p := pack.WithCapacity(0)
	if s.ints != nil {
		for _, v := range s.ints.Values() {
			p.Append(pack.Int(v))
		}
	}
	s.ints = nil
	s.packed = p
}

func (s *Set) promoteToHash() {
	m := make(map[string]struct{}, s.packed.Len())
	it := s.packed.Iter()
	for {
		r, ok := it.Next()
		if !ok {
			break
		}
		m[string(r.Bytes())] = struct{}{}
	}
	s.packed = nil
	s.members = m
}
