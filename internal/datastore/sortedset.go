package datastore

import (
	"vredis/internal/pack"
	"vredis/internal/skiplist"
)

// ScoredMember is one (member, score) pair returned by a range query.
type ScoredMember struct {
	Member []byte
	Score  float64
}

// SortedSet is a set of members each carrying a float64 score, ordered by
// score then member bytes (§4.4(e)). It starts as a packed listpack of
// alternating member, score elements and is promoted once to a skiplist
// paired with a member->score map for O(log n) rank/range queries.
type SortedSet struct {
	packed   *pack.Pack
	sl       *skiplist.SkipList
	byMember map[string]float64
}

// NewSortedSet returns an empty, packed sorted set.
func NewSortedSet() *SortedSet {
	return &SortedSet{packed: pack.WithCapacity(0)}
}

func (z *SortedSet) Kind() Kind { return KindSortedSet }

func (z *SortedSet) Encoding() string {
	if z.packed != nil {
		return "listpack"
	}
	return "skiplist"
}

// Len returns the number of members.
func (z *SortedSet) Len() int {
	if z.packed != nil {
		return z.packed.Len() / 2
	}
	return len(z.byMember)
}

// Score returns the score for member, if present.
func (z *SortedSet) Score(member []byte) (float64, bool) {
	if z.packed != nil {
		it := z.packed.Iter()
		for {
			m, ok := it.Next()
			if !ok {
				return 0, false
			}
			s, _ := it.Next()
			if bytesEqual(m.Bytes(), member) {
				f, _ := s.Float()
				return f, true
			}
		}
	}
	f, ok := z.byMember[string(member)]
	return f, ok
}

// Add sets member's score, returning true if member is new.
func (z *SortedSet) Add(member []byte, score float64, l Limits) bool {
	if z.packed != nil {
		isNew := z.addPacked(member, score)
		if z.packed.Len()/2 > l.ZSetMaxListpackEntries || len(member) > l.ZSetMaxListpackValue {
			z.promote()
		}
		return isNew
	}
	old, existed := z.byMember[string(member)]
	if existed {
		z.sl.Delete(member, old)
	}
	z.byMember[string(member)] = score
	z.sl.Insert(append([]byte(nil), member...), score)
	return !existed
}

func (z *SortedSet) addPacked(member []byte, score float64) (isNew bool) {
	c := z.packed.Cursor(pack.EdgeLeft)
	for {
		m, ok := c.Peek()
		if !ok {
			break
		}
		if bytesEqual(m.Bytes(), member) {
			c.Next()
			c.Replace(pack.Float(score))
			return false
		}
		c.Skip(2)
	}
	z.packed.Append2(pack.Bytes(member), pack.Float(score))
	return true
}

// Remove deletes member, returning true if it was present.
func (z *SortedSet) Remove(member []byte) bool {
	if z.packed != nil {
		c := z.packed.Cursor(pack.EdgeLeft)
		for {
			m, ok := c.Peek()
			if !ok {
				return false
			}
			if bytesEqual(m.Bytes(), member) {
				c.Remove(2)
				return true
			}
			c.Skip(2)
		}
	}
	score, existed := z.byMember[string(member)]
	if !existed {
		return false
	}
	delete(z.byMember, string(member))
	z.sl.Delete(member, score)
	return true
}

// IncrBy adds delta to member's score (creating it with score=delta if
// absent) and returns the new score.
func (z *SortedSet) IncrBy(member []byte, delta float64, l Limits) float64 {
	score, _ := z.Score(member)
	newScore := score + delta
	z.Add(member, newScore, l)
	return newScore
}

// RangeByScore returns members with score in [min, max], honoring offset
// and count (count < 0 means unbounded) in ascending or descending order.
func (z *SortedSet) RangeByScore(min, max float64, offset, count int, reverse bool) []ScoredMember {
	if z.packed != nil {
		return z.rangeByScorePacked(min, max, offset, count, reverse)
	}
	ms := z.sl.RangeByScore(min, max, offset, count, reverse)
	out := make([]ScoredMember, len(ms))
	for i, m := range ms {
		out[i] = ScoredMember{Member: m.Value, Score: m.Score}
	}
	return out
}

func (z *SortedSet) rangeByScorePacked(min, max float64, offset, count int, reverse bool) []ScoredMember {
	all := z.allPacked()
	sortScoredMembers(all)
	if reverse {
		reverseScoredMembers(all)
	}
	var out []ScoredMember
	for _, m := range all {
		if m.Score < min || m.Score > max {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		if count >= 0 && len(out) >= count {
			break
		}
		out = append(out, m)
	}
	return out
}

// RangeByRank returns members by 0-based inclusive rank range. Negative
// indexes count from the end.
func (z *SortedSet) RangeByRank(start, stop int, reverse bool) []ScoredMember {
	n := z.Len()
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if z.packed != nil {
		all := z.allPacked()
		sortScoredMembers(all)
		if reverse {
			reverseScoredMembers(all)
		}
		return sliceRank(all, start, stop)
	}
	ms := z.sl.RangeByRank(start, stop, reverse)
	out := make([]ScoredMember, len(ms))
	for i, m := range ms {
		out[i] = ScoredMember{Member: m.Value, Score: m.Score}
	}
	return out
}

func sliceRank(all []ScoredMember, start, stop int) []ScoredMember {
	n := len(all)
	if start < 0 || start >= n || stop < start {
		return nil
	}
	if stop >= n {
		stop = n - 1
	}
	return all[start : stop+1]
}

func (z *SortedSet) allPacked() []ScoredMember {
	out := make([]ScoredMember, 0, z.packed.Len()/2)
	it := z.packed.Iter()
	for {
		m, ok := it.Next()
		if !ok {
			break
		}
		s, _ := it.Next()
		f, _ := s.Float()
		out = append(out, ScoredMember{Member: m.Bytes(), Score: f})
	}
	return out
}

func sortScoredMembers(ms []ScoredMember) {
	for i := 1; i < len(ms); i++ {
		for j := i; j > 0 && scoredLess(ms[j], ms[j-1]); j-- {
			ms[j], ms[j-1] = ms[j-1], ms[j]
		}
	}
}

func scoredLess(a, b ScoredMember) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return bytesLess(a.Member, b.Member)
}

func bytesLess(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func reverseScoredMembers(ms []ScoredMember) {
	for i, j := 0, len(ms)-1; i < j; i, j = i+1, j-1 {
		ms[i], ms[j] = ms[j], ms[i]
	}
}

func (z *SortedSet) promote() {
	all := z.allPacked()
	sl := skiplist.New()
	byMember := make(map[string]float64, len(all))
	for _, m := range all {
		sl.Insert(m.Member, m.Score)
		byMember[string(m.Member)] = m.Score
	}
	z.packed = nil
	z.sl = sl
	z.byMember = byMember
}
