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
	register(&Descriptor{Name: "lpush", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execLPush})
	register(&Descriptor{Name: "rpush", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execRPush})
	register(&Descriptor{Name: "lpushx", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execLPushX})
	register(&Descriptor{Name: "rpushx", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execRPushX})
	register(&Descriptor{Name: "lpop", Arity: -2, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execLPop})
	register(&Descriptor{Name: "rpop", Arity: -2, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execRPop})
	register(&Descriptor{Name: "lrange", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execLRange})
	register(&Descriptor{Name: "llen", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execLLen})
	register(&Descriptor{Name: "lindex", Arity: 3, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execLIndex})
	register(&Descriptor{Name: "lset", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execLSet})
	register(&Descriptor{Name: "ltrim", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execLTrim})
	register(&Descriptor{Name: "lrem", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execLRem})
	register(&Descriptor{Name: "linsert", Arity: 5, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execLInsert})
	register(&Descriptor{Name: "lpos", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execLPos})
	register(&Descriptor{Name: "lmove", Arity: 5, KeyLayout: KeyLayout{Kind: KeyDouble}, Write: true, Executor: execLMove})
	register(&Descriptor{Name: "rpoplpush", Arity: 3, KeyLayout: KeyLayout{Kind: KeyDouble}, Write: true, Executor: execRPopLPush})
	register(&Descriptor{Name: "blpop", Arity: -3, KeyLayout: KeyLayout{Kind: KeyTrailing}, Write: true, NoScript: true, Executor: execBLPop})
	register(&Descriptor{Name: "brpop", Arity: -3, KeyLayout: KeyLayout{Kind: KeyTrailing}, Write: true, NoScript: true, Executor: execBRPop})
	register(&Descriptor{Name: "blmove", Arity: 6, KeyLayout: KeyLayout{Kind: KeyDouble}, Write: true, NoScript: true, Executor: execBLMove})
	register(&Descriptor{Name: "brpoplpush", Arity: 4, KeyLayout: KeyLayout{Kind: KeyDouble}, Write: true, NoScript: true, Executor: execBRPopLPush})
	register(&Descriptor{Name: "lmpop", Arity: -4, KeyLayout: KeyLayout{Kind: KeyArgument, ArgIndex: 1}, Write: true, Executor: execLMPop})
	register(&Descriptor{Name: "blmpop", Arity: -5, KeyLayout: KeyLayout{Kind: KeyArgument, ArgIndex: 2}, Write: true, NoScript: true, Executor: execBLMPop})
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

func getList(ctx *ExecContext, key []byte, forWrite bool) (*datastore.List, bool, Result) {
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
	l, isList := v.(*datastore.List)
	if !isList {
		return nil, false, Fail(reply.WrongType())
	}
	return l, true, Result{}
}

func pushMany(ctx *ExecContext, key []byte, left bool, mustExist bool) Result {
	l, ok, fail := getList(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		if mustExist {
			ctx.Client.Send(reply.Integer(0))
			return Ok()
		}
		l = datastore.NewList()
	}
	limits := ctx.Store.Config().Limits()
	n := 0
	for {
		v, more := ctx.Request.Pop()
		if !more {
			break
		}
		if left {
			l.PushLeft(v, limits)
		} else {
			l.PushRight(v, limits)
		}
		n++
	}
	if n == 0 {
		return Fail(reply.WrongArgCount("lpush"))
	}
	ctx.DB.Overwrite(key, l, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.MarkReady(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(int64(l.Len())))
	return Ok()
}

func execLPush(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	return pushMany(ctx, key, true, false)
}

func execRPush(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	return pushMany(ctx, key, false, false)
}

func execLPushX(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	return pushMany(ctx, key, true, true)
}

func execRPushX(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	return pushMany(ctx, key, false, true)
}

func popMany(ctx *ExecContext, key []byte, left bool) Result {
	count := 1
	hasCount := false
	if c, more := ctx.Request.Pop(); more {
		n, ok := bytesutil.ParseI64Exact(c)
		if !ok || n < 0 {
			return Fail(reply.Error("ERR", "value is out of range, must be positive"))
		}
		count = int(n)
		hasCount = true
	}

	l, ok, fail := getList(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		if hasCount {
			ctx.Client.Send(reply.Nil())
		} else {
			ctx.Client.Send(reply.Nil())
		}
		return Ok()
	}

	var popped [][]byte
	for i := 0; i < count; i++ {
		var v []byte
		var got bool
		if left {
			v, got = l.PopLeft()
		} else {
			v, got = l.PopRight()
		}
		if !got {
			break
		}
		popped = append(popped, v)
	}
	if l.Len() == 0 {
		ctx.DB.Remove(key, ctx.NowMs)
	}
	if len(popped) > 0 {
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
	}

	if !hasCount {
		if len(popped) == 0 {
			ctx.Client.Send(reply.Nil())
		} else {
			ctx.Client.Send(reply.Bulk(popped[0]))
		}
		return Ok()
	}
	if len(popped) == 0 {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}
	r, ch := reply.DeferredArray()
	ctx.Client.Send(r)
	for _, v := range popped {
		ctx.Client.Send(reply.Bulk(v))
	}
	ch <- len(popped)
	return Ok()
}

func execLPop(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	return popMany(ctx, key, true)
}

func execRPop(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	return popMany(ctx, key, false)
}

func execLRange(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	startB, _ := ctx.Request.Pop()
	stopB, _ := ctx.Request.Pop()
	start, ok := bytesutil.ParseI64Exact(startB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	stop, ok := bytesutil.ParseI64Exact(stopB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	l, ok, fail := getList(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	r, ch := reply.DeferredArray()
	ctx.Client.Send(r)
	n := 0
	if ok {
		for _, v := range l.Range(int(start), int(stop)) {
			ctx.Client.Send(reply.Bulk(v))
			n++
		}
	}
	ch <- n
	return Ok()
}

func execLLen(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	l, ok, fail := getList(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	ctx.Client.Send(reply.Integer(int64(l.Len())))
	return Ok()
}

func execLIndex(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	idxB, _ := ctx.Request.Pop()
	idx, ok := bytesutil.ParseI64Exact(idxB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	l, ok, fail := getList(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}
	v, found := l.Index(int(idx))
	if !found {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}
	ctx.Client.Send(reply.Bulk(v))
	return Ok()
}

func execLSet(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	idxB, _ := ctx.Request.Pop()
	value, _ := ctx.Request.Pop()
	idx, ok := bytesutil.ParseI64Exact(idxB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	l, ok, fail := getList(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		return Fail(reply.Error("ERR", "no such key"))
	}
	if !l.SetIndex(int(idx), value) {
		return Fail(reply.Error("ERR", "index out of range"))
	}
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

func execLTrim(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	startB, _ := ctx.Request.Pop()
	stopB, _ := ctx.Request.Pop()
	start, ok := bytesutil.ParseI64Exact(startB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	stop, ok := bytesutil.ParseI64Exact(stopB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	l, ok, fail := getList(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if ok {
		l.Trim(int(start), int(stop))
		if l.Len() == 0 {
			ctx.DB.Remove(key, ctx.NowMs)
		}
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
	}
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

// execLRem implements LREM key count value. A positive count removes up
// to count matching elements starting from the head, a negative count up
// to -count starting from the tail, and a count of 0 removes all matching
// elements. The reply is the number of elements removed.
func execLRem(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	countB, _ := ctx.Request.Pop()
	value, _ := ctx.Request.Pop()
	count, ok := bytesutil.ParseI64Exact(countB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	l, ok, fail := getList(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	removed := l.Remove(value, int(count))
	if l.Len() == 0 {
		ctx.DB.Remove(key, ctx.NowMs)
	}
	if removed > 0 {
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
	}
	ctx.Client.Send(reply.Integer(int64(removed)))
	return Ok()
}

func execLInsert(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	where, _ := ctx.Request.Pop()
	pivot, _ := ctx.Request.Pop()
	value, _ := ctx.Request.Pop()
	before := strings.EqualFold(string(where), "BEFORE")
	if !before && !strings.EqualFold(string(where), "AFTER") {
		return Fail(reply.SyntaxError())
	}

	l, ok, fail := getList(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}

	items := l.Range(0, -1)
	idx := -1
	for i, v := range items {
		if bytesEqual(v, pivot) {
			idx = i
			break
		}
	}
	if idx < 0 {
		ctx.Client.Send(reply.Integer(-1))
		return Ok()
	}
	insertAt := idx
	if !before {
		insertAt = idx + 1
	}
	rebuilt := datastore.NewList()
	limits := ctx.Store.Config().Limits()
	for i, v := range items {
		if i == insertAt {
			rebuilt.PushRight(value, limits)
		}
		rebuilt.PushRight(v, limits)
	}
	if insertAt == len(items) {
		rebuilt.PushRight(value, limits)
	}
	ctx.DB.Overwrite(key, rebuilt, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(int64(rebuilt.Len())))
	return Ok()
}

func execLPos(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	target, _ := ctx.Request.Pop()
	rank := int64(1)
	count := 1
	hasCount := false
	maxLen := 0
	for {
		opt, more := ctx.Request.Pop()
		if !more {
			break
		}
		switch strings.ToUpper(string(opt)) {
		case "RANK":
			v, _ := ctx.Request.Pop()
			n, ok := bytesutil.ParseI64Exact(v)
			if !ok || n == 0 {
				return Fail(reply.Error("ERR", "RANK can't be zero"))
			}
			rank = n
		case "COUNT":
			v, _ := ctx.Request.Pop()
			n, ok := bytesutil.ParseI64Exact(v)
			if !ok || n < 0 {
				return Fail(reply.Error("ERR", "COUNT can't be negative"))
			}
			count = int(n)
			hasCount = true
		case "MAXLEN":
			v, _ := ctx.Request.Pop()
			n, ok := bytesutil.ParseI64Exact(v)
			if !ok || n < 0 {
				return Fail(reply.Error("ERR", "MAXLEN can't be negative"))
			}
			maxLen = int(n)
		default:
			return Fail(reply.SyntaxError())
		}
	}

	l, ok, fail := getList(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		if hasCount {
			r, ch := reply.DeferredArray()
			ctx.Client.Send(r)
			ch <- 0
		} else {
			ctx.Client.Send(reply.Nil())
		}
		return Ok()
	}

	items := l.Range(0, -1)
	var matches []int64
	scanned := 0
	matchesNeeded := count
	if !hasCount {
		matchesNeeded = 1
	}
	skip := rank - 1
	if rank > 0 {
		for i := 0; i < len(items); i++ {
			if maxLen > 0 && scanned >= maxLen {
				break
			}
			scanned++
			if bytesEqual(items[i], target) {
				if skip > 0 {
					skip--
					continue
				}
				matches = append(matches, int64(i))
				if matchesNeeded > 0 && len(matches) >= matchesNeeded {
					break
				}
			}
		}
	} else {
		skip = -rank - 1
		for i := len(items) - 1; i >= 0; i-- {
			if maxLen > 0 && scanned >= maxLen {
				break
			}
			scanned++
			if bytesEqual(items[i], target) {
				if skip > 0 {
					skip--
					continue
				}
				matches = append(matches, int64(i))
				if matchesNeeded > 0 && len(matches) >= matchesNeeded {
					break
				}
			}
		}
	}

	if !hasCount {
		if len(matches) == 0 {
			ctx.Client.Send(reply.Nil())
		} else {
			ctx.Client.Send(reply.Integer(matches[0]))
		}
		return Ok()
	}
	r, ch := reply.DeferredArray()
	ctx.Client.Send(r)
	for _, m := range matches {
		ctx.Client.Send(reply.Integer(m))
	}
	ch <- len(matches)
	return Ok()
}

func moveBetween(ctx *ExecContext, srcKey, dstKey []byte, fromLeft, toLeft bool) Result {
	src, ok, fail := getList(ctx, srcKey, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}
	var v []byte
	if fromLeft {
		v, ok = src.PopLeft()
	} else {
		v, ok = src.PopRight()
	}
	if !ok {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}
	if src.Len() == 0 {
		ctx.DB.Remove(srcKey, ctx.NowMs)
	}
	ctx.Store.Touch(ctx.Client.DB(), srcKey)

	dst, ok, fail := getList(ctx, dstKey, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		dst = datastore.NewList()
	}
	limits := ctx.Store.Config().Limits()
	if toLeft {
		dst.PushLeft(v, limits)
	} else {
		dst.PushRight(v, limits)
	}
	ctx.DB.Overwrite(dstKey, dst, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), dstKey)
	ctx.Store.MarkReady(ctx.Client.DB(), dstKey)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Bulk(v))
	return Ok()
}

func execLMove(ctx *ExecContext) Result {
	src, _ := ctx.Request.Pop()
	dst, _ := ctx.Request.Pop()
	fromDir, _ := ctx.Request.Pop()
	toDir, _ := ctx.Request.Pop()
	fromLeft := strings.EqualFold(string(fromDir), "LEFT")
	toLeft := strings.EqualFold(string(toDir), "LEFT")
	return moveBetween(ctx, src, dst, fromLeft, toLeft)
}

func execRPopLPush(ctx *ExecContext) Result {
	src, _ := ctx.Request.Pop()
	dst, _ := ctx.Request.Pop()
	return moveBetween(ctx, src, dst, false, true)
}

// popKeysAndTimeout parses BLPOP/BRPOP's "key [key ...] timeout" tail:
// everything but the last argument is a key, the last is a seconds
// timeout. Called again verbatim when drainBlocking retries a parked
// client, so it must stay side-effect free until a key is actually found.
func popKeysAndTimeout(ctx *ExecContext, cmdName string) (keys [][]byte, timeout time.Duration, fail Result, ok bool) {
	n := ctx.Request.Remaining()
	if n < 2 {
		return nil, 0, Fail(reply.WrongArgCount(cmdName)), false
	}
	keys = make([][]byte, 0, n-1)
	for i := 0; i < n-1; i++ {
		k, _ := ctx.Request.Pop()
		keys = append(keys, k)
	}
	tb, _ := ctx.Request.Pop()
	secs, okf := bytesutil.ParseFloat(tb)
	if !okf || secs < 0 {
		return nil, 0, Fail(reply.Error("ERR", "timeout is not a float or out of range")), false
	}
	return keys, SecondsToTimeout(secs), Result{}, true
}

func blockingListPop(ctx *ExecContext, left bool, cmdName string) Result {
	keys, timeout, fail, ok := popKeysAndTimeout(ctx, cmdName)
	if !ok {
		return fail
	}
	for _, key := range keys {
		l, has, failRes := getList(ctx, key, true)
		if failRes.Outcome == Errored {
			return failRes
		}
		if !has || l.Len() == 0 {
			continue
		}
		var v []byte
		var got bool
		if left {
			v, got = l.PopLeft()
		} else {
			v, got = l.PopRight()
		}
		if !got {
			continue
		}
		if l.Len() == 0 {
			ctx.DB.Remove(key, ctx.NowMs)
		}
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
		r, ch := reply.DeferredArray()
		ctx.Client.Send(r)
		ctx.Client.Send(reply.Bulk(key))
		ctx.Client.Send(reply.Bulk(v))
		ch <- 2
		return Ok()
	}
	blockKeys := make([]blocking.Key, len(keys))
	for i, k := range keys {
		blockKeys[i] = blocking.Key{DB: ctx.Client.DB(), Key: string(k)}
	}
	return WaitOn(blockKeys, timeout)
}

func execBLPop(ctx *ExecContext) Result { return blockingListPop(ctx, true, "blpop") }
func execBRPop(ctx *ExecContext) Result { return blockingListPop(ctx, false, "brpop") }

func parseDirection(b []byte) (left bool, ok bool) {
	if strings.EqualFold(string(b), "LEFT") {
		return true, true
	}
	if strings.EqualFold(string(b), "RIGHT") {
		return false, true
	}
	return false, false
}

func execBLMove(ctx *ExecContext) Result {
	src, _ := ctx.Request.Pop()
	dst, _ := ctx.Request.Pop()
	fromDir, _ := ctx.Request.Pop()
	toDir, _ := ctx.Request.Pop()
	timeoutB, _ := ctx.Request.Pop()
	secs, ok := bytesutil.ParseFloat(timeoutB)
	if !ok || secs < 0 {
		return Fail(reply.Error("ERR", "timeout is not a float or out of range"))
	}
	fromLeft, ok := parseDirection(fromDir)
	if !ok {
		return Fail(reply.SyntaxError())
	}
	toLeft, ok := parseDirection(toDir)
	if !ok {
		return Fail(reply.SyntaxError())
	}

	l, has, fail := getList(ctx, src, true)
	if fail.Outcome == Errored {
		return fail
	}
	if has && l.Len() > 0 {
		return moveBetween(ctx, src, dst, fromLeft, toLeft)
	}
	return WaitOn([]blocking.Key{{DB: ctx.Client.DB(), Key: string(src)}}, SecondsToTimeout(secs))
}

func execBRPopLPush(ctx *ExecContext) Result {
	src, _ := ctx.Request.Pop()
	dst, _ := ctx.Request.Pop()
	timeoutB, _ := ctx.Request.Pop()
	secs, ok := bytesutil.ParseFloat(timeoutB)
	if !ok || secs < 0 {
		return Fail(reply.Error("ERR", "timeout is not a float or out of range"))
	}
	l, has, fail := getList(ctx, src, true)
	if fail.Outcome == Errored {
		return fail
	}
	if has && l.Len() > 0 {
		return moveBetween(ctx, src, dst, false, true)
	}
	return WaitOn([]blocking.Key{{DB: ctx.Client.DB(), Key: string(src)}}, SecondsToTimeout(secs))
}

// popNumkeys parses the "numkeys key [key ...]" prefix shared by
// LMPOP/BLMPOP/ZMPOP/BZMPOP.
func popNumkeys(ctx *ExecContext) (keys [][]byte, fail Result, ok bool) {
	numB, more := ctx.Request.Pop()
	if !more {
		return nil, Fail(reply.SyntaxError()), false
	}
	numkeys, valid := bytesutil.ParseI64Exact(numB)
	if !valid || numkeys <= 0 {
		return nil, Fail(reply.Error("ERR", "numkeys should be greater than 0")), false
	}
	keys = make([][]byte, numkeys)
	for i := range keys {
		k, more := ctx.Request.Pop()
		if !more {
			return nil, Fail(reply.SyntaxError()), false
		}
		keys[i] = k
	}
	return keys, Result{}, true
}

func lmpop(ctx *ExecContext, blockingCmd bool) Result {
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
	left, ok := parseDirection(dirB)
	if !ok {
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
		l, has, failRes := getList(ctx, key, true)
		if failRes.Outcome == Errored {
			return failRes
		}
		if !has || l.Len() == 0 {
			continue
		}
		var popped [][]byte
		for i := 0; i < count; i++ {
			var v []byte
			var got bool
			if left {
				v, got = l.PopLeft()
			} else {
				v, got = l.PopRight()
			}
			if !got {
				break
			}
			popped = append(popped, v)
		}
		if l.Len() == 0 {
			ctx.DB.Remove(key, ctx.NowMs)
		}
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
		outer, ch := reply.DeferredArray()
		ctx.Client.Send(outer)
		ctx.Client.Send(reply.Bulk(key))
		inner, ich := reply.DeferredArray()
		ctx.Client.Send(inner)
		for _, v := range popped {
			ctx.Client.Send(reply.Bulk(v))
		}
		ich <- len(popped)
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

func execLMPop(ctx *ExecContext) Result  { return lmpop(ctx, false) }
func execBLMPop(ctx *ExecContext) Result { return lmpop(ctx, true) }
