package command

import (
	"strings"
	"time"

	"vredis/internal/blocking"
	"vredis/internal/bytesutil"
	"vredis/internal/datastore"
	"vredis/internal/reply"
)

func init() {
	register(&Descriptor{Name: "zadd", Arity: -4, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execZAdd})
	register(&Descriptor{Name: "zcard", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execZCard})
	register(&Descriptor{Name: "zscore", Arity: 3, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execZScore})
	register(&Descriptor{Name: "zrank", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execZRank})
	register(&Descriptor{Name: "zrem", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execZRem})
	register(&Descriptor{Name: "zincrby", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execZIncrBy})
	register(&Descriptor{Name: "zcount", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execZCount})
	register(&Descriptor{Name: "zrange", Arity: -4, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execZRange})
	register(&Descriptor{Name: "zrangebyscore", Arity: -4, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execZRangeByScore})
	register(&Descriptor{Name: "zrevrange", Arity: -4, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execZRevRange})
	register(&Descriptor{Name: "zrevrangebyscore", Arity: -4, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execZRevRangeByScore})
	register(&Descriptor{Name: "zpopmin", Arity: -2, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execZPopMin})
	register(&Descriptor{Name: "zpopmax", Arity: -2, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execZPopMax})
	register(&Descriptor{Name: "zremrangebyscore", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execZRemRangeByScore})
	register(&Descriptor{Name: "bzpopmin", Arity: -3, KeyLayout: KeyLayout{Kind: KeyTrailing}, Write: true, NoScript: true, Executor: execBZPopMin})
	register(&Descriptor{Name: "bzpopmax", Arity: -3, KeyLayout: KeyLayout{Kind: KeyTrailing}, Write: true, NoScript: true, Executor: execBZPopMax})
	register(&Descriptor{Name: "zmpop", Arity: -4, KeyLayout: KeyLayout{Kind: KeyArgument, ArgIndex: 1}, Write: true, Executor: execZMPop})
	register(&Descriptor{Name: "bzmpop", Arity: -5, KeyLayout: KeyLayout{Kind: KeyArgument, ArgIndex: 2}, Write: true, NoScript: true, Executor: execBZMPop})
}

func getZSet(ctx *ExecContext, key []byte, forWrite bool) (*datastore.SortedSet, bool, Result) {
	var v datastore.Value
	var ok bool
	if forWrite {
		v, ok = ctx.DB.GetMut(key, ctx.NowMs)
	} else {
		v, ok = ctx.DB.Get(key, ctx.NowMs)
	}
	if !ok {
		return nil, false, Result{}
	}
	z, isZ := v.(*datastore.SortedSet)
	if !isZ {
		return nil, false, Fail(reply.WrongType())
	}
	return z, true, Result{}
}

func execZAdd(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	var nx, xx, gt, lt, ch, incr bool
	for {
		peek, more := ctx.Request.Peek()
		if !more {
			return Fail(reply.WrongArgCount("zadd"))
		}
		switch strings.ToUpper(string(peek)) {
		case "NX":
			nx = true
		case "XX":
			xx = true
		case "GT":
			gt = true
		case "LT":
			lt = true
		case "CH":
			ch = true
		case "INCR":
			incr = true
		default:
			goto done
		}
		ctx.Request.Pop()
	}
done:
	if nx && (gt || lt) {
		return Fail(reply.Error("ERR", "GT, LT, and/or NX options at the same time are not compatible"))
	}
	if gt && lt {
		return Fail(reply.Error("ERR", "GT, LT, and/or NX options at the same time are not compatible"))
	}

	z, ok, fail := getZSet(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		z = datastore.NewSortedSet()
	}
	limits := ctx.Store.Config().Limits()

	type pair struct {
		score  float64
		member []byte
	}
	var pairs []pair
	for {
		scoreB, more := ctx.Request.Pop()
		if !more {
			break
		}
		member, more := ctx.Request.Pop()
		if !more {
			return Fail(reply.WrongArgCount("zadd"))
		}
		score, ok := bytesutil.ParseFloat(scoreB)
		if !ok {
			return Fail(reply.NotFloat())
		}
		pairs = append(pairs, pair{score, member})
	}
	if incr && len(pairs) != 1 {
		return Fail(reply.Error("ERR", "INCR option supports a single increment-element pair"))
	}

	added, changed := 0, 0
	var incrResult float64
	var incrOK = true
	for _, p := range pairs {
		existing, existed := z.Score(p.member)
		if nx && existed {
			if incr {
				incrOK = false
			}
			continue
		}
		if xx && !existed {
			if incr {
				incrOK = false
			}
			continue
		}
		newScore := p.score
		if incr {
			newScore = existing + p.score
		}
		if existed {
			if gt && newScore <= existing {
				if incr {
					incrOK = false
				}
				continue
			}
			if lt && newScore >= existing {
				if incr {
					incrOK = false
				}
				continue
			}
		}
		if incr {
			if existed {
				incrResult = z.IncrBy(p.member, newScore-existing, limits)
			} else {
				z.Add(p.member, newScore, limits)
				incrResult = newScore
			}
		} else {
			isNew := z.Add(p.member, newScore, limits)
			if isNew {
				added++
			} else if newScore != existing {
				changed++
			}
		}
	}
	if z.Len() == 0 {
		ctx.DB.Remove(key, ctx.NowMs)
	} else {
		ctx.DB.Overwrite(key, z, ctx.NowMs)
	}
	if len(pairs) > 0 {
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.MarkReady(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
	}

	if incr {
		if !incrOK {
			ctx.Client.Send(reply.Nil())
		} else {
			ctx.Client.Send(reply.Double(incrResult))
		}
		return Ok()
	}
	if ch {
		ctx.Client.Send(reply.Integer(int64(added + changed)))
	} else {
		ctx.Client.Send(reply.Integer(int64(added)))
	}
	return Ok()
}

func execZCard(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	z, ok, fail := getZSet(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	ctx.Client.Send(reply.Integer(int64(z.Len())))
	return Ok()
}

func execZScore(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	member, _ := ctx.Request.Pop()
	z, ok, fail := getZSet(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}
	score, found := z.Score(member)
	if !found {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}
	ctx.Client.Send(reply.Bulk(bytesutil.FormatFloat(score)))
	return Ok()
}

func execZRank(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	member, _ := ctx.Request.Pop()
	withScore := false
	if opt, more := ctx.Request.Pop(); more {
		if strings.EqualFold(string(opt), "WITHSCORE") {
			withScore = true
		} else {
			return Fail(reply.SyntaxError())
		}
	}
	z, ok, fail := getZSet(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		if withScore {
			r, ch := reply.DeferredArray()
			ctx.Client.Send(r)
			ch <- 0
		} else {
			ctx.Client.Send(reply.Nil())
		}
		return Ok()
	}
	score, found := z.Score(member)
	if !found {
		if withScore {
			r, ch := reply.DeferredArray()
			ctx.Client.Send(r)
			ch <- 0
		} else {
			ctx.Client.Send(reply.Nil())
		}
		return Ok()
	}
	all := z.RangeByRank(0, -1, false)
	rank := -1
	for i, m := range all {
		if bytesEqual(m.Member, member) {
			rank = i
			break
		}
	}
	if withScore {
		r, ch := reply.DeferredArray()
		ctx.Client.Send(r)
		ctx.Client.Send(reply.Integer(int64(rank)))
		ctx.Client.Send(reply.Bulk(bytesutil.FormatFloat(score)))
		ch <- 2
		return Ok()
	}
	ctx.Client.Send(reply.Integer(int64(rank)))
	return Ok()
}

func execZRem(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	z, ok, fail := getZSet(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	removed := 0
	for {
		member, more := ctx.Request.Pop()
		if !more {
			break
		}
		if z.Remove(member) {
			removed++
		}
	}
	if z.Len() == 0 {
		ctx.DB.Remove(key, ctx.NowMs)
	}
	if removed > 0 {
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
	}
	ctx.Client.Send(reply.Integer(int64(removed)))
	return Ok()
}

func execZIncrBy(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	deltaB, _ := ctx.Request.Pop()
	member, _ := ctx.Request.Pop()
	delta, ok := bytesutil.ParseFloat(deltaB)
	if !ok {
		return Fail(reply.NotFloat())
	}
	z, ok, fail := getZSet(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		z = datastore.NewSortedSet()
	}
	next := z.IncrBy(member, delta, ctx.Store.Config().Limits())
	ctx.DB.Overwrite(key, z, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.MarkReady(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Bulk(bytesutil.FormatFloat(next)))
	return Ok()
}

func parseScoreBound(b []byte) (float64, bool) {
	s := string(b)
	if strings.HasPrefix(s, "(") {
		return bytesutil.ParseFloat([]byte(s[1:]))
	}
	return bytesutil.ParseFloat(b)
}

// lexBound decodes a ZRANGEBYLEX endpoint: "-"/"+" for the open ends,
// "[value" for inclusive, "(value" for exclusive.
type lexBound struct {
	unbounded  bool
	inf        int // -1, 0, or +1 when unbounded
	value      []byte
	inclusive  bool
}

func parseLexBound(b []byte) (lexBound, bool) {
	if len(b) == 0 {
		return lexBound{}, false
	}
	switch b[0] {
	case '-':
		return lexBound{unbounded: true, inf: -1}, true
	case '+':
		return lexBound{unbounded: true, inf: 1}, true
	case '[':
		return lexBound{value: b[1:], inclusive: true}, true
	case '(':
		return lexBound{value: b[1:], inclusive: false}, true
	default:
		return lexBound{}, false
	}
}

func (lb lexBound) satisfiesMin(member []byte) bool {
	if lb.unbounded {
		return lb.inf < 0
	}
	cmp := compareBytes(member, lb.value)
	if lb.inclusive {
		return cmp >= 0
	}
	return cmp > 0
}

func (lb lexBound) satisfiesMax(member []byte) bool {
	if lb.unbounded {
		return lb.inf > 0
	}
	cmp := compareBytes(member, lb.value)
	if lb.inclusive {
		return cmp <= 0
	}
	return cmp < 0
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// lexRange implements ZRANGEBYLEX-style scanning. It is only meaningful
// when every member in the set carries the same score, per the Redis
// contract for lexicographic ranges.
func lexRange(z *datastore.SortedSet, minB, maxB []byte, offset, limit int, rev bool) ([]datastore.ScoredMember, reply.Reply, bool) {
	min, ok := parseLexBound(minB)
	if !ok {
		return nil, reply.Error("ERR", "min or max not valid string range item"), true
	}
	max, ok := parseLexBound(maxB)
	if !ok {
		return nil, reply.Error("ERR", "min or max not valid string range item"), true
	}
	all := z.RangeByRank(0, -1, false)
	var matched []datastore.ScoredMember
	for _, m := range all {
		if min.satisfiesMin(m.Member) && max.satisfiesMax(m.Member) {
			matched = append(matched, m)
		}
	}
	if rev {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}
	if offset > 0 {
		if offset >= len(matched) {
			return nil, reply.Reply{}, false
		}
		matched = matched[offset:]
	}
	if limit >= 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, reply.Reply{}, false
}

func execZCount(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	minB, _ := ctx.Request.Pop()
	maxB, _ := ctx.Request.Pop()
	min, minOk := parseScoreBound(minB)
	if !minOk {
		return Fail(reply.Error("ERR", "min or max is not a float"))
	}
	max, maxOk := parseScoreBound(maxB)
	if !maxOk {
		return Fail(reply.Error("ERR", "min or max is not a float"))
	}
	z, ok, fail := getZSet(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	members := z.RangeByScore(min, max, 0, -1, false)
	ctx.Client.Send(reply.Integer(int64(len(members))))
	return Ok()
}

func sendZRange(ctx *ExecContext, members []datastore.ScoredMember, withScores bool) {
	r, ch := reply.DeferredArray()
	ctx.Client.Send(r)
	n := 0
	for _, m := range members {
		ctx.Client.Send(reply.Bulk(m.Member))
		n++
		if withScores {
			ctx.Client.Send(reply.Bulk(bytesutil.FormatFloat(m.Score)))
			n++
		}
	}
	ch <- n
}

func execZRange(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	startB, _ := ctx.Request.Pop()
	stopB, _ := ctx.Request.Pop()

	var byScore, byLex, rev, withScores bool
	limit := -1
	offset := 0
	for {
		opt, more := ctx.Request.Pop()
		if !more {
			break
		}
		switch strings.ToUpper(string(opt)) {
		case "BYSCORE":
			byScore = true
		case "REV":
			rev = true
		case "WITHSCORES":
			withScores = true
		case "LIMIT":
			offB, _ := ctx.Request.Pop()
			cntB, _ := ctx.Request.Pop()
			off, ok := bytesutil.ParseI64Exact(offB)
			if !ok {
				return Fail(reply.NotInteger())
			}
			cnt, ok := bytesutil.ParseI64Exact(cntB)
			if !ok {
				return Fail(reply.NotInteger())
			}
			offset, limit = int(off), int(cnt)
		case "BYLEX":
			byLex = true
		default:
			return Fail(reply.SyntaxError())
		}
	}

	z, ok, fail := getZSet(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		sendZRange(ctx, nil, withScores)
		return Ok()
	}
	if byLex {
		members, errReply, hasErr := lexRange(z, startB, stopB, offset, limit, rev)
		if hasErr {
			return Fail(errReply)
		}
		sendZRange(ctx, members, withScores)
		return Ok()
	}
	if byScore {
		min, minOk := parseScoreBound(startB)
		if !minOk {
			return Fail(reply.Error("ERR", "min or max is not a float"))
		}
		max, maxOk := parseScoreBound(stopB)
		if !maxOk {
			return Fail(reply.Error("ERR", "min or max is not a float"))
		}
		members := z.RangeByScore(min, max, offset, limit, rev)
		sendZRange(ctx, members, withScores)
		return Ok()
	}
	start, ok := bytesutil.ParseI64Exact(startB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	stop, ok := bytesutil.ParseI64Exact(stopB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	members := z.RangeByRank(int(start), int(stop), rev)
	sendZRange(ctx, members, withScores)
	return Ok()
}

func execZRangeByScore(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	minB, _ := ctx.Request.Pop()
	maxB, _ := ctx.Request.Pop()
	withScores := false
	limit := -1
	offset := 0
	for {
		opt, more := ctx.Request.Pop()
		if !more {
			break
		}
		switch strings.ToUpper(string(opt)) {
		case "WITHSCORES":
			withScores = true
		case "LIMIT":
			offB, _ := ctx.Request.Pop()
			cntB, _ := ctx.Request.Pop()
			off, ok := bytesutil.ParseI64Exact(offB)
			if !ok {
				return Fail(reply.NotInteger())
			}
			cnt, ok := bytesutil.ParseI64Exact(cntB)
			if !ok {
				return Fail(reply.NotInteger())
			}
			offset, limit = int(off), int(cnt)
		default:
			return Fail(reply.SyntaxError())
		}
	}
	min, minOk := parseScoreBound(minB)
	if !minOk {
		return Fail(reply.Error("ERR", "min or max is not a float"))
	}
	max, maxOk := parseScoreBound(maxB)
	if !maxOk {
		return Fail(reply.Error("ERR", "min or max is not a float"))
	}
	z, ok, fail := getZSet(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		sendZRange(ctx, nil, withScores)
		return Ok()
	}
	sendZRange(ctx, z.RangeByScore(min, max, offset, limit, false), withScores)
	return Ok()
}

func execZRevRange(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	startB, _ := ctx.Request.Pop()
	stopB, _ := ctx.Request.Pop()
	withScores := false
	if opt, more := ctx.Request.Pop(); more {
		if !strings.EqualFold(string(opt), "WITHSCORES") {
			return Fail(reply.SyntaxError())
		}
		withScores = true
	}
	start, ok := bytesutil.ParseI64Exact(startB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	stop, ok := bytesutil.ParseI64Exact(stopB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	z, ok, fail := getZSet(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		sendZRange(ctx, nil, withScores)
		return Ok()
	}
	sendZRange(ctx, z.RangeByRank(int(start), int(stop), true), withScores)
	return Ok()
}

func execZRevRangeByScore(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	maxB, _ := ctx.Request.Pop()
	minB, _ := ctx.Request.Pop()
	withScores := false
	limit := -1
	offset := 0
	for {
		opt, more := ctx.Request.Pop()
		if !more {
			break
		}
		switch strings.ToUpper(string(opt)) {
		case "WITHSCORES":
			withScores = true
		case "LIMIT":
			offB, _ := ctx.Request.Pop()
			cntB, _ := ctx.Request.Pop()
			off, _ := bytesutil.ParseI64Exact(offB)
			cnt, _ := bytesutil.ParseI64Exact(cntB)
			offset, limit = int(off), int(cnt)
		default:
			return Fail(reply.SyntaxError())
		}
	}
	min, minOk := parseScoreBound(minB)
	if !minOk {
		return Fail(reply.Error("ERR", "min or max is not a float"))
	}
	max, maxOk := parseScoreBound(maxB)
	if !maxOk {
		return Fail(reply.Error("ERR", "min or max is not a float"))
	}
	z, ok, fail := getZSet(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		sendZRange(ctx, nil, withScores)
		return Ok()
	}
	sendZRange(ctx, z.RangeByScore(min, max, offset, limit, true), withScores)
	return Ok()
}

func popExtreme(ctx *ExecContext, fromMin bool) Result {
	key, _ := ctx.Request.Pop()
	count := 1
	if c, more := ctx.Request.Pop(); more {
		n, ok := bytesutil.ParseI64Exact(c)
		if !ok || n < 0 {
			return Fail(reply.Error("ERR", "value is out of range, must be positive"))
		}
		count = int(n)
	}
	z, ok, fail := getZSet(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		r, ch := reply.DeferredArray()
		ctx.Client.Send(r)
		ch <- 0
		return Ok()
	}
	var members []datastore.ScoredMember
	for i := 0; i < count; i++ {
		all := z.RangeByRank(0, 0, !fromMin)
		if len(all) == 0 {
			break
		}
		m := all[0]
		z.Remove(m.Member)
		members = append(members, m)
	}
	if z.Len() == 0 {
		ctx.DB.Remove(key, ctx.NowMs)
	}
	if len(members) > 0 {
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
	}
	sendZRange(ctx, members, true)
	return Ok()
}

func execZPopMin(ctx *ExecContext) Result { return popExtreme(ctx, true) }
func execZPopMax(ctx *ExecContext) Result { return popExtreme(ctx, false) }

func execZRemRangeByScore(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	minB, _ := ctx.Request.Pop()
	maxB, _ := ctx.Request.Pop()
	min, minOk := parseScoreBound(minB)
	if !minOk {
		return Fail(reply.Error("ERR", "min or max is not a float"))
	}
	max, maxOk := parseScoreBound(maxB)
	if !maxOk {
		return Fail(reply.Error("ERR", "min or max is not a float"))
	}
	z, ok, fail := getZSet(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	members := z.RangeByScore(min, max, 0, -1, false)
	removed := 0
	for _, m := range members {
		if z.Remove(m.Member) {
			removed++
		}
	}
	if z.Len() == 0 {
		ctx.DB.Remove(key, ctx.NowMs)
	}
	if removed > 0 {
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
	}
	ctx.Client.Send(reply.Integer(int64(removed)))
	return Ok()
}

func blockingZPop(ctx *ExecContext, fromMin bool, cmdName string) Result {
	keys, timeout, fail, ok := popKeysAndTimeout(ctx, cmdName)
	if !ok {
		return fail
	}
	for _, key := range keys {
		z, has, failRes := getZSet(ctx, key, true)
		if failRes.Outcome == Errored {
			return failRes
		}
		if !has || z.Len() == 0 {
			continue
		}
		all := z.RangeByRank(0, 0, !fromMin)
		if len(all) == 0 {
			continue
		}
		m := all[0]
		z.Remove(m.Member)
		if z.Len() == 0 {
			ctx.DB.Remove(key, ctx.NowMs)
		}
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
		r, ch := reply.DeferredArray()
		ctx.Client.Send(r)
		ctx.Client.Send(reply.Bulk(key))
		ctx.Client.Send(reply.Bulk(m.Member))
		ctx.Client.Send(reply.Bulk(bytesutil.FormatFloat(m.Score)))
		ch <- 3
		return Ok()
	}
	blockKeys := make([]blocking.Key, len(keys))
	for i, k := range keys {
		blockKeys[i] = blocking.Key{DB: ctx.Client.DB(), Key: string(k)}
	}
	return WaitOn(blockKeys, timeout)
}

func execBZPopMin(ctx *ExecContext) Result { return blockingZPop(ctx, true, "bzpopmin") }
func execBZPopMax(ctx *ExecContext) Result { return blockingZPop(ctx, false, "bzpopmax") }

func zmpop(ctx *ExecContext, blockingCmd bool) Result {
	var timeout time.Duration
	if blockingCmd {
		tb, _ := ctx.Request.Pop()
		secs, ok := bytesutil.ParseFloat(tb)
		if !ok || secs < 0 {
			return Fail(reply.Error("ERR", "timeout is not a float or out of range"))
		}
		timeout = SecondsToTimeout(secs)
	}
	keys, fail, ok := popNumkeys(ctx)
	if !ok {
		return fail
	}
	dirB, more := ctx.Request.Pop()
	if !more {
		return Fail(reply.SyntaxError())
	}
	var fromMin bool
	switch {
	case strings.EqualFold(string(dirB), "MIN"):
		fromMin = true
	case strings.EqualFold(string(dirB), "MAX"):
		fromMin = false
	default:
		return Fail(reply.SyntaxError())
	}
	count := 1
	if opt, more := ctx.Request.Pop(); more {
		if !strings.EqualFold(string(opt), "COUNT") {
			return Fail(reply.SyntaxError())
		}
		cb, more := ctx.Request.Pop()
		if !more {
			return Fail(reply.SyntaxError())
		}
		n, ok := bytesutil.ParseI64Exact(cb)
		if !ok || n <= 0 {
			return Fail(reply.Error("ERR", "count should be greater than 0"))
		}
		count = int(n)
	}

	for _, key := range keys {
		z, has, failRes := getZSet(ctx, key, true)
		if failRes.Outcome == Errored {
			return failRes
		}
		if !has || z.Len() == 0 {
			continue
		}
		var popped []datastore.ScoredMember
		for i := 0; i < count; i++ {
			all := z.RangeByRank(0, 0, !fromMin)
			if len(all) == 0 {
				break
			}
			m := all[0]
			z.Remove(m.Member)
			popped = append(popped, m)
		}
		if z.Len() == 0 {
			ctx.DB.Remove(key, ctx.NowMs)
		}
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
		outer, ch := reply.DeferredArray()
		ctx.Client.Send(outer)
		ctx.Client.Send(reply.Bulk(key))
		inner, ich := reply.DeferredArray()
		ctx.Client.Send(inner)
		n := 0
		for _, m := range popped {
			ctx.Client.Send(reply.Bulk(m.Member))
			ctx.Client.Send(reply.Bulk(bytesutil.FormatFloat(m.Score)))
			n += 2
		}
		ich <- n
		ch <- 2
		return Ok()
	}

	if !blockingCmd {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}
	blockKeys := make([]blocking.Key, len(keys))
	for i, k := range keys {
		blockKeys[i] = blocking.Key{DB: ctx.Client.DB(), Key: string(k)}
	}
	return WaitOn(blockKeys, timeout)
}

func execZMPop(ctx *ExecContext) Result  { return zmpop(ctx, false) }
func execBZMPop(ctx *ExecContext) Result { return zmpop(ctx, true) }
