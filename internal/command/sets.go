package command

import (
	"vredis/internal/bytesutil"
	"vredis/internal/datastore"
	"vredis/internal/reply"
)

func init() {
	register(&Descriptor{Name: "sadd", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execSAdd})
	register(&Descriptor{Name: "scard", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execSCard})
	register(&Descriptor{Name: "sismember", Arity: 3, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execSIsMember})
	register(&Descriptor{Name: "smismember", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execSMIsMember})
	register(&Descriptor{Name: "smembers", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execSMembers})
	register(&Descriptor{Name: "spop", Arity: -2, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execSPop})
	register(&Descriptor{Name: "srem", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execSRem})
}

func getSet(ctx *ExecContext, key []byte, forWrite bool) (*datastore.Set, bool, Result) {
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
	s, isSet := v.(*datastore.Set)
	if !isSet {
		return nil, false, Fail(reply.WrongType())
	}
	return s, true, Result{}
}

func execSAdd(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	s, ok, fail := getSet(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		s = datastore.NewSet()
	}
	limits := ctx.Store.Config().Limits()
	added := 0
	for {
		member, more := ctx.Request.Pop()
		if !more {
			break
		}
		if s.Add(member, limits) {
			added++
		}
	}
	if added == 0 && s.Len() == 0 {
		return Fail(reply.WrongArgCount("sadd"))
	}
	ctx.DB.Overwrite(key, s, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.MarkReady(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(int64(added)))
	return Ok()
}

func execSCard(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	s, ok, fail := getSet(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	ctx.Client.Send(reply.Integer(int64(s.Len())))
	return Ok()
}

func execSIsMember(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	member, _ := ctx.Request.Pop()
	s, ok, fail := getSet(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok || !s.IsMember(member) {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	ctx.Client.Send(reply.Integer(1))
	return Ok()
}

func execSMIsMember(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	s, ok, fail := getSet(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	r, ch := reply.DeferredArray()
	ctx.Client.Send(r)
	n := 0
	for {
		member, more := ctx.Request.Pop()
		if !more {
			break
		}
		n++
		if ok && s.IsMember(member) {
			ctx.Client.Send(reply.Integer(1))
		} else {
			ctx.Client.Send(reply.Integer(0))
		}
	}
	ch <- n
	return Ok()
}

func execSMembers(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	s, ok, fail := getSet(ctx, key, false)
	if fail.Outcome == Errored {
		return fail
	}
	r, ch := reply.DeferredSet()
	ctx.Client.Send(r)
	n := 0
	if ok {
		s.Each(func(member []byte) {
			ctx.Client.Send(reply.Bulk(member))
			n++
		})
	}
	ch <- n
	return Ok()
}

func execSPop(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
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

	s, ok, fail := getSet(ctx, key, true)
	if fail.Outcome == Errored {
		return fail
	}
	if !ok {
		if hasCount {
			r, ch := reply.DeferredSet()
			ctx.Client.Send(r)
			ch <- 0
		} else {
			ctx.Client.Send(reply.Nil())
		}
		return Ok()
	}

	var popped [][]byte
	for i := 0; i < count; i++ {
		v, got := s.Pop()
		if !got {
			break
		}
		popped = append(popped, v)
	}
	if s.Len() == 0 {
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
	r, ch := reply.DeferredSet()
	ctx.Client.Send(r)
	for _, v := range popped {
		ctx.Client.Send(reply.Bulk(v))
	}
	ch <- len(popped)
	return Ok()
}

func execSRem(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	s, ok, fail := getSet(ctx, key, true)
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
		if s.Remove(member) {
			removed++
		}
	}
	if s.Len() == 0 {
		ctx.DB.Remove(key, ctx.NowMs)
	}
	if removed > 0 {
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
	}
	ctx.Client.Send(reply.Integer(int64(removed)))
	return Ok()
}
