package command

import (
	"vredis/internal/bytesutil"
	"vredis/internal/datastore"
	"vredis/internal/reply"
)

func init() {
	register(&Descriptor{Name: "hset", Arity: -4, KeyLayout: KeyLayout{Kind: KeySkipOne}, Write: true, Executor: execHSet})
	register(&Descriptor{Name: "hmset", Arity: -4, KeyLayout: KeyLayout{Kind: KeySkipOne}, Write: true, Executor: execHMSet})
	register(&Descriptor{Name: "hget", Arity: 3, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execHGet})
	register(&Descriptor{Name: "hmget", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execHMGet})
	register(&Descriptor{Name: "hgetall", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execHGetAll})
	register(&Descriptor{Name: "hdel", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execHDel})
	register(&Descriptor{Name: "hexists", Arity: 3, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execHExists})
	register(&Descriptor{Name: "hkeys", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execHKeys})
	register(&Descriptor{Name: "hvals", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execHVals})
	register(&Descriptor{Name: "hlen", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execHLen})
	register(&Descriptor{Name: "hsetnx", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execHSetNX})
	register(&Descriptor{Name: "hstrlen", Arity: 3, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execHStrlen})
	register(&Descriptor{Name: "hincrby", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execHIncrBy})
	register(&Descriptor{Name: "hincrbyfloat", Arity: 4, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execHIncrByFloat})
}

func getHash(ctx *ExecContext, key []byte, forWrite bool) (*datastore.Hash, bool, Result) {
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
	h, isHash := v.(*datastore.Hash)
	if !isHash {
		return nil, false, Fail(reply.WrongType())
	}
	return h, true, Result{}
}

func execHSet(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	h, ok, fail := getHash(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		h = datastore.NewHash()
	}
	limits := ctx.Store.Config().Limits()
	added := 0
	for {
		field, ok := ctx.Request.Pop()
		if !ok {
			break
		}
		value, ok := ctx.Request.Pop()
		if !ok {
			return Fail(reply.WrongArgCount("hset"))
		}
		if h.Set(field, value, limits) {
			added++
		}
	}
	ctx.DB.Overwrite(key, h, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.MarkReady(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(int64(added)))
	return Ok()
}

func execHMSet(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	h, ok, fail := getHash(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		h = datastore.NewHash()
	}
	limits := ctx.Store.Config().Limits()
	for {
		field, ok := ctx.Request.Pop()
		if !ok {
			break
		}
		value, ok := ctx.Request.Pop()
		if !ok {
			return Fail(reply.WrongArgCount("hmset"))
		}
		h.Set(field, value, limits)
	}
	ctx.DB.Overwrite(key, h, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.MarkReady(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

func execHGet(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	field, _ := ctx.Request.Pop()
	h, ok, fail := getHash(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}
	v, ok := h.Get(field)
	if !ok {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}
	ctx.Client.Send(reply.Bulk(v))
	return Ok()
}

func execHMGet(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	h, ok, fail := getHash(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	r, ch := reply.DeferredArray()
	ctx.Client.Send(r)
	n := 0
	for {
		field, more := ctx.Request.Pop()
		if !more {
			break
		}
		n++
		if !ok {
			ctx.Client.Send(reply.Nil())
			continue
		}
		v, found := h.Get(field)
		if !found {
			ctx.Client.Send(reply.Nil())
			continue
		}
		ctx.Client.Send(reply.Bulk(v))
	}
	ch <- n
	return Ok()
}

func execHGetAll(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	h, ok, fail := getHash(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	r, ch := reply.DeferredMap()
	ctx.Client.Send(r)
	n := 0
	if ok {
		h.Each(func(field, value []byte) {
			ctx.Client.Send(reply.Bulk(field))
			ctx.Client.Send(reply.Bulk(value))
			n++
		})
	}
	ch <- n
	return Ok()
}

func execHDel(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	h, ok, fail := getHash(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	removed := 0
	for {
		field, more := ctx.Request.Pop()
		if !more {
			break
		}
		if h.Delete(field) {
			removed++
		}
	}
	if h.Len() == 0 {
		ctx.DB.Remove(key, ctx.NowMs)
	}
	if removed > 0 {
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
	}
	ctx.Client.Send(reply.Integer(int64(removed)))
	return Ok()
}

func execHExists(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	field, _ := ctx.Request.Pop()
	h, ok, fail := getHash(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok || !h.Exists(field) {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	ctx.Client.Send(reply.Integer(1))
	return Ok()
}

func execHKeys(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	h, ok, fail := getHash(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	r, ch := reply.DeferredArray()
	ctx.Client.Send(r)
	n := 0
	if ok {
		h.Each(func(field, _ []byte) {
			ctx.Client.Send(reply.Bulk(field))
			n++
		})
	}
	ch <- n
	return Ok()
}

func execHVals(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	h, ok, fail := getHash(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	r, ch := reply.DeferredArray()
	ctx.Client.Send(r)
	n := 0
	if ok {
		h.Each(func(_, value []byte) {
			ctx.Client.Send(reply.Bulk(value))
			n++
		})
	}
	ch <- n
	return Ok()
}

func execHLen(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	h, ok, fail := getHash(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	ctx.Client.Send(reply.Integer(int64(h.Len())))
	return Ok()
}

func execHSetNX(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	field, _ := ctx.Request.Pop()
	value, _ := ctx.Request.Pop()
	h, ok, fail := getHash(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		h = datastore.NewHash()
	}
	if h.Exists(field) {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	h.Set(field, value, ctx.Store.Config().Limits())
	ctx.DB.Overwrite(key, h, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.MarkReady(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(1))
	return Ok()
}

func execHStrlen(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	field, _ := ctx.Request.Pop()
	h, ok, fail := getHash(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	v, found := h.Get(field)
	if !found {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	ctx.Client.Send(reply.Integer(int64(len(v))))
	return Ok()
}

func execHIncrBy(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	field, _ := ctx.Request.Pop()
	deltaB, _ := ctx.Request.Pop()
	delta, ok := bytesutil.ParseI64Exact(deltaB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	h, ok, fail := getHash(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		h = datastore.NewHash()
	}
	var cur int64
	if v, found := h.Get(field); found {
		n, exact := bytesutil.ParseI64Exact(v)
		if !exact {
			return Fail(reply.NotInteger())
		}
		cur = n
	}
	next := cur + delta
	h.Set(field, bytesutil.FormatI64(next), ctx.Store.Config().Limits())
	ctx.DB.Overwrite(key, h, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(next))
	return Ok()
}

func execHIncrByFloat(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	field, _ := ctx.Request.Pop()
	deltaB, _ := ctx.Request.Pop()
	delta, ok := bytesutil.ParseFloat(deltaB)
	if !ok {
		return Fail(reply.NotFloat())
	}
	h, ok, fail := getHash(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		h = datastore.NewHash()
	}
	var cur float64
	if v, found := h.Get(field); found {
		f, exact := bytesutil.ParseFloat(v)
		if !exact {
			return Fail(reply.NotFloat())
		}
		cur = f
	}
	next := cur + delta
	out := bytesutil.FormatFloat(next)
	h.Set(field, out, ctx.Store.Config().Limits())
	ctx.DB.Overwrite(key, h, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Bulk(out))
	return Ok()
}
