package command

import (
	"strings"

	"vredis/internal/bytesutil"
	"vredis/internal/datastore"
	"vredis/internal/reply"
)

func init() {
	register(&Descriptor{Name: "get", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execGet})
	register(&Descriptor{Name: "set", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execSet})
	register(&Descriptor{Name: "getex", Arity: -2, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execGetEx})
	register(&Descriptor{Name: "getdel", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execGetDel})
	register(&Descriptor{Name: "getrange", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execGetRange})
	register(&Descriptor{Name: "setrange", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execSetRange})
	register(&Descriptor{Name: "append", Arity: 3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execAppend})
	register(&Descriptor{Name: "strlen", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execStrlen})
	register(&Descriptor{Name: "mget", Arity: -2, KeyLayout: KeyLayout{Kind: KeyAll}, ReadOnly: true, Executor: execMGet})
	register(&Descriptor{Name: "mset", Arity: -3, KeyLayout: KeyLayout{Kind: KeyOdd}, Write: true, Executor: execMSet})
	register(&Descriptor{Name: "msetnx", Arity: -3, KeyLayout: KeyLayout{Kind: KeyOdd}, Write: true, Executor: execMSetNX})
	register(&Descriptor{Name: "setnx", Arity: 3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execSetNX})
	register(&Descriptor{Name: "setex", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execSetEx})
	register(&Descriptor{Name: "psetex", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execPSetEx})
	register(&Descriptor{Name: "incr", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execIncr})
	register(&Descriptor{Name: "decr", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execDecr})
	register(&Descriptor{Name: "incrby", Arity: 3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execIncrBy})
	register(&Descriptor{Name: "decrby", Arity: 3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execDecrBy})
	register(&Descriptor{Name: "incrbyfloat", Arity: 3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execIncrByFloat})
}

func getString(ctx *ExecContext, key []byte) (*datastore.StringValue, bool, bool) {
	v, ok := ctx.DB.Get(key, ctx.NowMs)
	if !ok {
		return nil, false, true
	}
	s, ok := v.(*datastore.StringValue)
	return s, ok, ok
}

func execGet(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	v, ok := ctx.DB.Get(key, ctx.NowMs)
	if !ok {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}
	s, ok := v.(*datastore.StringValue)
	if !ok {
		return Fail(reply.WrongType())
	}
	ctx.Client.Send(reply.Bulk(s.Bytes()))
	return Ok()
}

func execSet(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	value, ok := ctx.Request.Pop()
	if !ok {
		return Fail(reply.WrongArgCount("set"))
	}

	var nx, xx, get, keepttl bool
	var atMs int64
	hasExpiry := false

	for {
		opt, ok := ctx.Request.Pop()
		if !ok {
			break
		}
		switch strings.ToUpper(string(opt)) {
		case "NX":
			nx = true
		case "XX":
			xx = true
		case "GET":
			get = true
		case "KEEPTTL":
			keepttl = true
		case "EX", "PX", "EXAT", "PXAT":
			arg, ok := ctx.Request.Pop()
			if !ok {
				return Fail(reply.SyntaxError())
			}
			n, ok := bytesutil.ParseI64Exact(arg)
			if !ok {
				return Fail(reply.NotInteger())
			}
			switch strings.ToUpper(string(opt)) {
			case "EX":
				atMs = ctx.NowMs + n*1000
			case "PX":
				atMs = ctx.NowMs + n
			case "EXAT":
				atMs = n * 1000
			case "PXAT":
				atMs = n
			}
			hasExpiry = true
		default:
			return Fail(reply.SyntaxError())
		}
	}
	if nx && xx {
		return Fail(reply.SyntaxError())
	}

	existing, existingOk := ctx.DB.Get(key, ctx.NowMs)
	var oldReply reply.Reply
	if get {
		if existingOk {
			s, isStr := existing.(*datastore.StringValue)
			if !isStr {
				return Fail(reply.WrongType())
			}
			oldReply = reply.Bulk(s.Bytes())
		} else {
			oldReply = reply.Nil()
		}
	}

	if nx && existingOk {
		ctx.Client.Send(pickSetReply(get, oldReply))
		return Ok()
	}
	if xx && !existingOk {
		ctx.Client.Send(pickSetReply(get, oldReply))
		return Ok()
	}

	sv := datastore.NewString(value)
	switch {
	case hasExpiry:
		ctx.DB.SetEx(key, sv, atMs, ctx.NowMs)
		if atMs <= ctx.NowMs {
			ctx.DB.Remove(key, ctx.NowMs)
		}
	case keepttl:
		ctx.DB.Overwrite(key, sv, ctx.NowMs)
	default:
		ctx.DB.Set(key, sv)
	}
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.MarkReady(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()

	if get {
		ctx.Client.Send(oldReply)
	} else {
		ctx.Client.Send(reply.Status("OK"))
	}
	return Ok()
}

func pickSetReply(get bool, oldReply reply.Reply) reply.Reply {
	if get {
		return oldReply
	}
	return reply.Nil()
}

func execGetEx(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	s, isStr, present := getString(ctx, key)
	if !present {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}
	if !isStr {
		return Fail(reply.WrongType())
	}

	var persist bool
	var atMs int64
	hasExpiry := false
	for {
		opt, ok := ctx.Request.Pop()
		if !ok {
			break
		}
		switch strings.ToUpper(string(opt)) {
		case "PERSIST":
			persist = true
		case "EX", "PX", "EXAT", "PXAT":
			arg, ok := ctx.Request.Pop()
			if !ok {
				return Fail(reply.SyntaxError())
			}
			n, ok := bytesutil.ParseI64Exact(arg)
			if !ok {
				return Fail(reply.NotInteger())
			}
			switch strings.ToUpper(string(opt)) {
			case "EX":
				atMs = ctx.NowMs + n*1000
			case "PX":
				atMs = ctx.NowMs + n
			case "EXAT":
				atMs = n * 1000
			case "PXAT":
				atMs = n
			}
			hasExpiry = true
		default:
			return Fail(reply.SyntaxError())
		}
	}
	if persist {
		ctx.DB.Persist(key)
	} else if hasExpiry {
		if atMs <= ctx.NowMs {
			ctx.DB.Remove(key, ctx.NowMs)
			ctx.Store.Touch(ctx.Client.DB(), key)
		} else {
			ctx.DB.Expire(key, atMs, ctx.NowMs)
		}
	}
	ctx.Client.Send(reply.Bulk(s.Bytes()))
	return Ok()
}

func execGetDel(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	v, ok := ctx.DB.Get(key, ctx.NowMs)
	if !ok {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}
	s, isStr := v.(*datastore.StringValue)
	if !isStr {
		return Fail(reply.WrongType())
	}
	ctx.DB.Remove(key, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Bulk(s.Bytes()))
	return Ok()
}

func clampRange(start, end, length int) (int, int) {
	if start < 0 {
		start += length
	}
	if end < 0 {
		end += length
	}
	if start < 0 {
		start = 0
	}
	if end > length-1 {
		end = length - 1
	}
	return start, end
}

func execGetRange(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	startB, _ := ctx.Request.Pop()
	endB, _ := ctx.Request.Pop()
	start64, ok := bytesutil.ParseI64Exact(startB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	end64, ok := bytesutil.ParseI64Exact(endB)
	if !ok {
		return Fail(reply.NotInteger())
	}

	v, ok := ctx.DB.Get(key, ctx.NowMs)
	if !ok {
		ctx.Client.Send(reply.Bulk([]byte{}))
		return Ok()
	}
	s, isStr := v.(*datastore.StringValue)
	if !isStr {
		return Fail(reply.WrongType())
	}
	b := s.Bytes()
	start, end := clampRange(int(start64), int(end64), len(b))
	if end < start || len(b) == 0 {
		ctx.Client.Send(reply.Bulk([]byte{}))
		return Ok()
	}
	ctx.Client.Send(reply.Bulk(append([]byte(nil), b[start:end+1]...)))
	return Ok()
}

func execSetRange(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	offB, _ := ctx.Request.Pop()
	data, _ := ctx.Request.Pop()
	offset, ok := bytesutil.ParseI64Exact(offB)
	if !ok || offset < 0 {
		return Fail(reply.Error("ERR", "offset is out of range"))
	}

	var existing []byte
	if v, ok := ctx.DB.Get(key, ctx.NowMs); ok {
		s, isStr := v.(*datastore.StringValue)
		if !isStr {
			return Fail(reply.WrongType())
		}
		existing = s.Bytes()
	}
	needed := int(offset) + len(data)
	if needed > len(existing) {
		grown := make([]byte, needed)
		copy(grown, existing)
		existing = grown
	}
	copy(existing[offset:], data)
	ctx.DB.Overwrite(key, datastore.NewString(existing), ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(int64(len(existing))))
	return Ok()
}

func execAppend(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	data, _ := ctx.Request.Pop()
	v, ok := ctx.DB.Get(key, ctx.NowMs)
	if !ok {
		sv := datastore.NewString(data)
		ctx.DB.Set(key, sv)
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
		ctx.Client.Send(reply.Integer(int64(sv.Len())))
		return Ok()
	}
	s, isStr := v.(*datastore.StringValue)
	if !isStr {
		return Fail(reply.WrongType())
	}
	appended := s.Append(data)
	ctx.DB.Overwrite(key, appended, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(int64(appended.Len())))
	return Ok()
}

func execStrlen(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	v, ok := ctx.DB.Get(key, ctx.NowMs)
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	s, isStr := v.(*datastore.StringValue)
	if !isStr {
		return Fail(reply.WrongType())
	}
	ctx.Client.Send(reply.Integer(int64(s.Len())))
	return Ok()
}

func execMGet(ctx *ExecContext) Result {
	r, ch := reply.DeferredArray()
	ctx.Client.Send(r)
	n := 0
	for {
		key, ok := ctx.Request.Pop()
		if !ok {
			break
		}
		n++
		v, ok := ctx.DB.Get(key, ctx.NowMs)
		if !ok {
			ctx.Client.Send(reply.Nil())
			continue
		}
		s, isStr := v.(*datastore.StringValue)
		if !isStr {
			ctx.Client.Send(reply.Nil())
			continue
		}
		ctx.Client.Send(reply.Bulk(s.Bytes()))
	}
	ch <- n
	return Ok()
}

func execMSet(ctx *ExecContext) Result {
	var pairs [][2][]byte
	for {
		k, ok := ctx.Request.Pop()
		if !ok {
			break
		}
		v, ok := ctx.Request.Pop()
		if !ok {
			return Fail(reply.WrongArgCount("mset"))
		}
		pairs = append(pairs, [2][]byte{k, v})
	}
	for _, p := range pairs {
		ctx.DB.Set(p[0], datastore.NewString(p[1]))
		ctx.Store.Touch(ctx.Client.DB(), p[0])
		ctx.Store.MarkReady(ctx.Client.DB(), p[0])
	}
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

func execMSetNX(ctx *ExecContext) Result {
	var pairs [][2][]byte
	for {
		k, ok := ctx.Request.Pop()
		if !ok {
			break
		}
		v, ok := ctx.Request.Pop()
		if !ok {
			return Fail(reply.WrongArgCount("msetnx"))
		}
		pairs = append(pairs, [2][]byte{k, v})
	}
	for _, p := range pairs {
		if _, ok := ctx.DB.Get(p[0], ctx.NowMs); ok {
			ctx.Client.Send(reply.Integer(0))
			return Ok()
		}
	}
	for _, p := range pairs {
		ctx.DB.Set(p[0], datastore.NewString(p[1]))
		ctx.Store.Touch(ctx.Client.DB(), p[0])
		ctx.Store.MarkReady(ctx.Client.DB(), p[0])
	}
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(1))
	return Ok()
}

func execSetNX(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	value, _ := ctx.Request.Pop()
	if _, ok := ctx.DB.Get(key, ctx.NowMs); ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	ctx.DB.Set(key, datastore.NewString(value))
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.MarkReady(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(1))
	return Ok()
}

func setWithTTL(ctx *ExecContext, key, value []byte, seconds int64, millis bool) Result {
	atMs := ctx.NowMs + seconds
	if !millis {
		atMs = ctx.NowMs + seconds*1000
	}
	if seconds <= 0 {
		return Fail(reply.Error("ERR", "invalid expire time"))
	}
	ctx.DB.SetEx(key, datastore.NewString(value), atMs, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.MarkReady(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

func execSetEx(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	secB, _ := ctx.Request.Pop()
	value, _ := ctx.Request.Pop()
	seconds, ok := bytesutil.ParseI64Exact(secB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	return setWithTTL(ctx, key, value, seconds, false)
}

func execPSetEx(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	msB, _ := ctx.Request.Pop()
	value, _ := ctx.Request.Pop()
	ms, ok := bytesutil.ParseI64Exact(msB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	return setWithTTL(ctx, key, value, ms, true)
}

func incrByHelper(ctx *ExecContext, key []byte, delta int64) Result {
	v, ok := ctx.DB.Get(key, ctx.NowMs)
	var cur int64
	if ok {
		s, isStr := v.(*datastore.StringValue)
		if !isStr {
			return Fail(reply.WrongType())
		}
		n, ok := s.Int()
		if !ok {
			return Fail(reply.NotInteger())
		}
		cur = n
	}
	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return Fail(reply.Error("ERR", "increment or decrement would overflow"))
	}
	ctx.DB.Overwrite(key, datastore.NewStringInt(next), ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(next))
	return Ok()
}

func execIncr(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	return incrByHelper(ctx, key, 1)
}

func execDecr(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	return incrByHelper(ctx, key, -1)
}

func execIncrBy(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	n, _ := ctx.Request.Pop()
	delta, ok := bytesutil.ParseI64Exact(n)
	if !ok {
		return Fail(reply.NotInteger())
	}
	return incrByHelper(ctx, key, delta)
}

func execDecrBy(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	n, _ := ctx.Request.Pop()
	delta, ok := bytesutil.ParseI64Exact(n)
	if !ok {
		return Fail(reply.NotInteger())
	}
	return incrByHelper(ctx, key, -delta)
}

func execIncrByFloat(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	n, _ := ctx.Request.Pop()
	delta, ok := bytesutil.ParseFloat(n)
	if !ok {
		return Fail(reply.NotFloat())
	}
	v, ok := ctx.DB.Get(key, ctx.NowMs)
	var cur float64
	if ok {
		s, isStr := v.(*datastore.StringValue)
		if !isStr {
			return Fail(reply.WrongType())
		}
		f, ok := s.Float()
		if !ok {
			return Fail(reply.NotFloat())
		}
		cur = f
	}
	next := cur + delta
	sv := datastore.NewStringFloat(next)
	ctx.DB.Overwrite(key, sv, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Bulk(sv.Bytes()))
	return Ok()
}
