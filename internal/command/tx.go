package command

import (
	"vredis/internal/clientio"
	"vredis/internal/reply"
	"vredis/internal/watch"
)

func init() {
	register(&Descriptor{Name: "multi", Arity: 1, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, NoScript: true, Executor: execMulti})
	register(&Descriptor{Name: "exec", Arity: 1, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, NoScript: true, Executor: execExec})
	register(&Descriptor{Name: "discard", Arity: 1, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, NoScript: true, Executor: execDiscard})
	register(&Descriptor{Name: "watch", Arity: -2, KeyLayout: KeyLayout{Kind: KeyAll}, Admin: true, NoScript: true, Executor: execWatch})
	register(&Descriptor{Name: "unwatch", Arity: 1, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, NoScript: true, Executor: execUnwatch})
}

func execMulti(ctx *ExecContext) Result {
	if ctx.Client.Tx != clientio.TxNone {
		return Fail(reply.Error("ERR", "MULTI calls can not be nested"))
	}
	ctx.Client.Tx = clientio.TxActive
	ctx.Client.Queue = nil
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

func execDiscard(ctx *ExecContext) Result {
	if ctx.Client.Tx == clientio.TxNone {
		return Fail(reply.Error("ERR", "DISCARD without MULTI"))
	}
	ctx.Client.Tx = clientio.TxNone
	ctx.Client.Queue = nil
	ctx.Store.Watch().Remove(watch.ClientID(ctx.Client.ID))
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

func execWatch(ctx *ExecContext) Result {
	if ctx.Client.Tx != clientio.TxNone {
		return Fail(reply.Error("ERR", "WATCH inside MULTI is not allowed"))
	}
	for {
		key, more := ctx.Request.Pop()
		if !more {
			break
		}
		ctx.Store.Watch().Add(watch.ClientID(ctx.Client.ID), watch.Key{DB: ctx.Client.DB(), Key: string(key)})
	}
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

func execUnwatch(ctx *ExecContext) Result {
	ctx.Store.Watch().Remove(watch.ClientID(ctx.Client.ID))
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

func execExec(ctx *ExecContext) Result {
	if ctx.Client.Tx == clientio.TxNone {
		return Fail(reply.Error("ERR", "EXEC without MULTI"))
	}
	if ctx.Client.Tx == clientio.TxErrored {
		ctx.Client.Tx = clientio.TxNone
		ctx.Client.Queue = nil
		ctx.Store.Watch().Remove(watch.ClientID(ctx.Client.ID))
		return Fail(reply.Error("EXECABORT", "Transaction discarded because of previous errors."))
	}

	queue := ctx.Client.Queue
	ctx.Client.Queue = nil
	ctx.Client.Tx = clientio.TxNone

	dirty := ctx.Store.Watch().IsDirty(watch.ClientID(ctx.Client.ID))
	ctx.Store.Watch().Remove(watch.ClientID(ctx.Client.ID))
	if dirty {
		ctx.Client.Send(reply.Nil())
		return Ok()
	}

	r, ch := reply.DeferredArray()
	ctx.Client.Send(r)
	for _, q := range queue {
		name := string(q.Args[0])
		desc, ok := Lookup(name)
		if !ok {
			ctx.Client.Send(reply.UnknownCommand(name))
			continue
		}
		db, _ := ctx.Store.DB(ctx.Client.DB())
		req := clientio.NewRequest(q.Args)
		req.Reset(1)
		sub := &ExecContext{
			Store:   ctx.Store,
			Client:  ctx.Client,
			Request: req,
			DB:      db,
			NowMs:   ctx.NowMs,
		}
		result := desc.Executor(sub)
		switch result.Outcome {
		case Block:
			ctx.Client.Send(reply.Nil())
		case Errored:
			ctx.Client.Send(result.Reply)
		}
	}
	ch <- len(queue)
	return Ok()
}
