// Package intset implements a width-adaptive sorted set of integers: the
// small-set encoding used by sets whose members are all integers (§4.4).
// It starts as a vector of int8 and widens to int16, int32 then int64 the
// first time a value no longer fits, never narrowing back down except by
// capacity shrink after removals.
package intset

import (
	"math/rand"
	"sort"

	"vredis/internal/bytesutil"
)

type width int

const (
	width8 width = iota
	width16
	width32
	width64
)

// Set is a sorted, width-adaptive vector of int64 values.
type Set struct {
	w   width
	i8  []int8
	i16 []int16
	i32 []int32
	i64 []int64
}

// Len returns the number of members.
func (s *Set) Len() int {
	switch s.w {
	case width8:
		return len(s.i8)
	case width16:
		return len(s.i16)
	case width32:
		return len(s.i32)
	default:
		return len(s.i64)
	}
}

// Empty reports whether the set has no members.
func (s *Set) Empty() bool { return s.Len() == 0 }

// Contains reports whether value is a member.
func (s *Set) Contains(value int64) bool {
	switch s.w {
	case width8:
		if value < -128 || value > 127 {
			return false
		}
		_, ok := search8(s.i8, int8(value))
		return ok
	case width16:
		if value < -32768 || value > 32767 {
			return false
		}
		_, ok := search16(s.i16, int16(value))
		return ok
	case width32:
		if value < -2147483648 || value > 2147483647 {
			return false
		}
		_, ok := search32(s.i32, int32(value))
		return ok
	default:
		_, ok := search64(s.i64, value)
		return ok
	}
}

// Insert adds value, returning false if it was already present.
func (s *Set) Insert(value int64) bool {
	switch s.w {
	case width8:
		if value >= -128 && value <= 127 {
			n, ok := search8(s.i8, int8(value))
			if ok {
				return false
			}
			s.i8 = append(s.i8, 0)
			copy(s.i8[n+1:], s.i8[n:])
			s.i8[n] = int8(value)
			return true
		}
		s.widenTo16()
		return s.Insert(value)
	case width16:
		if value >= -32768 && value <= 32767 {
			n, ok := search16(s.i16, int16(value))
			if ok {
				return false
			}
			s.i16 = append(s.i16, 0)
			copy(s.i16[n+1:], s.i16[n:])
			s.i16[n] = int16(value)
			return true
		}
		s.widenTo32()
		return s.Insert(value)
	case width32:
		if value >= -2147483648 && value <= 2147483647 {
			n, ok := search32(s.i32, int32(value))
			if ok {
				return false
			}
			s.i32 = append(s.i32, 0)
			copy(s.i32[n+1:], s.i32[n:])
			s.i32[n] = int32(value)
			return true
		}
		s.widenTo64()
		return s.Insert(value)
	default:
		n, ok := search64(s.i64, value)
		if ok {
			return false
		}
		s.i64 = append(s.i64, 0)
		copy(s.i64[n+1:], s.i64[n:])
		s.i64[n] = value
		return true
	}
}

func (s *Set) widenTo16() {
	s.i16 = make([]int16, len(s.i8))
	for i, v := range s.i8 {
		s.i16[i] = int16(v)
	}
	s.i8 = nil
	s.w = width16
}

func (s *Set) widenTo32() {
	if s.w == width8 {
		s.widenTo16()
	}
	s.i32 = make([]int32, len(s.i16))
	for i, v := range s.i16 {
		s.i32[i] = int32(v)
	}
	s.i16 = nil
	s.w = width32
}

func (s *Set) widenTo64() {
	if s.w == width8 {
		s.widenTo16()
	}
	if s.w == width16 {
		s.widenTo32()
	}
	s.i64 = make([]int64, len(s.i32))
	for i, v := range s.i32 {
		s.i64[i] = int64(v)
	}
	s.i32 = nil
	s.w = width64
}

// Remove deletes value, returning false if it was not present.
func (s *Set) Remove(value int64) bool {
	if s.Empty() {
		return false
	}
	var removed bool
	switch s.w {
	case width8:
		if value >= -128 && value <= 127 {
			if n, ok := search8(s.i8, int8(value)); ok {
				s.i8 = append(s.i8[:n], s.i8[n+1:]...)
				removed = true
			}
		}
	case width16:
		if value >= -32768 && value <= 32767 {
			if n, ok := search16(s.i16, int16(value)); ok {
				s.i16 = append(s.i16[:n], s.i16[n+1:]...)
				removed = true
			}
		}
	case width32:
		if value >= -2147483648 && value <= 2147483647 {
			if n, ok := search32(s.i32, int32(value)); ok {
				s.i32 = append(s.i32[:n], s.i32[n+1:]...)
				removed = true
			}
		}
	default:
		if n, ok := search64(s.i64, value); ok {
			s.i64 = append(s.i64[:n], s.i64[n+1:]...)
			removed = true
		}
	}
	if removed {
		s.shrink()
	}
	return removed
}

// shrink halves backing capacity once it's grown to ≥4x the live length,
// so a burst of removals doesn't leave the set permanently over-allocated.
func (s *Set) shrink() {
	switch s.w {
	case width8:
		if cap(s.i8)/4 >= len(s.i8) {
			s.i8 = shrinkTo(s.i8, cap(s.i8)/2)
		}
	case width16:
		if cap(s.i16)/4 >= len(s.i16) {
			s.i16 = shrinkTo(s.i16, cap(s.i16)/2)
		}
	case width32:
		if cap(s.i32)/4 >= len(s.i32) {
			s.i32 = shrinkTo(s.i32, cap(s.i32)/2)
		}
	default:
		if cap(s.i64)/4 >= len(s.i64) {
			s.i64 = shrinkTo(s.i64, cap(s.i64)/2)
		}
	}
}

func shrinkTo[T any](s []T, capacity int) []T {
	if capacity < len(s) {
		capacity = len(s)
	}
	out := make([]T, len(s), capacity)
	copy(out, s)
	return out
}

// Pop removes and returns a uniformly random member.
func (s *Set) Pop() (int64, bool) {
	n := s.Len()
	if n == 0 {
		return 0, false
	}
	i := rand.Intn(n)
	var value int64
	switch s.w {
	case width8:
		value = int64(s.i8[i])
		s.i8 = append(s.i8[:i], s.i8[i+1:]...)
	case width16:
		value = int64(s.i16[i])
		s.i16 = append(s.i16[:i], s.i16[i+1:]...)
	case width32:
		value = int64(s.i32[i])
		s.i32 = append(s.i32[:i], s.i32[i+1:]...)
	default:
		value = s.i64[i]
		s.i64 = append(s.i64[:i], s.i64[i+1:]...)
	}
	s.shrink()
	return value, true
}

// Values returns every member in ascending order.
func (s *Set) Values() []int64 {
	out := make([]int64, 0, s.Len())
	switch s.w {
	case width8:
		for _, v := range s.i8 {
			out = append(out, int64(v))
		}
	case width16:
		for _, v := range s.i16 {
			out = append(out, int64(v))
		}
	case width32:
		for _, v := range s.i32 {
			out = append(out, int64(v))
		}
	default:
		out = append(out, s.i64...)
	}
	return out
}

// Longest returns the base-10 byte length of the longest member, used to
// size an eventual promotion to a pack or hashtable.
func (s *Set) Longest() int {
	if s.Empty() {
		return 0
	}
	values := s.Values()
	first := bytesutil.I64Len(values[0])
	last := bytesutil.I64Len(values[len(values)-1])
	if last > first {
		return last
	}
	return first
}

func search8(s []int8, v int8) (int, bool) {
	n := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	return n, n < len(s) && s[n] == v
}

func search16(s []int16, v int16) (int, bool) {
	n := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	return n, n < len(s) && s[n] == v
}

func search32(s []int32, v int32) (int, bool) {
	n := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	return n, n < len(s) && s[n] == v
}

func search64(s []int64, v int64) (int, bool) {
	n := sort.Search(len(s), func(i int) bool { return s[i] >= v })
	return n, n < len(s) && s[n] == v
}
