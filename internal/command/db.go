package command

import (
	"strings"

	"vredis/internal/bytesutil"
	"vredis/internal/reply"
)

func init() {
	register(&Descriptor{Name: "select", Arity: 2, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, Executor: execSelect})
	register(&Descriptor{Name: "dbsize", Arity: 1, KeyLayout: KeyLayout{Kind: KeyNone}, ReadOnly: true, Executor: execDBSize})
	register(&Descriptor{Name: "flushdb", Arity: -1, KeyLayout: KeyLayout{Kind: KeyNone}, Write: true, Executor: execFlushDB})
	register(&Descriptor{Name: "flushall", Arity: -1, KeyLayout: KeyLayout{Kind: KeyNone}, Write: true, Executor: execFlushAll})
	register(&Descriptor{Name: "swapdb", Arity: 3, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, Write: true, Executor: execSwapDB})
}

func execSelect(ctx *ExecContext) Result {
	idxB, _ := ctx.Request.Pop()
	idx, ok := bytesutil.ParseI64Exact(idxB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	if _, ok := ctx.Store.DB(int(idx)); !ok {
		return Fail(reply.Error("ERR", "DB index is out of range"))
	}
	ctx.Client.SetDB(int(idx))
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

func execDBSize(ctx *ExecContext) Result {
	ctx.Client.Send(reply.Integer(int64(ctx.Store.DBSize(ctx.Client.DB()))))
	return Ok()
}

func parseFlushAsync(ctx *ExecContext) Result {
	if opt, more := ctx.Request.Pop(); more {
		switch strings.ToUpper(string(opt)) {
		case "SYNC", "ASYNC":
		default:
			return Fail(reply.SyntaxError())
		}
	}
	return Result{}
}

func execFlushDB(ctx *ExecContext) Result {
	if r := parseFlushAsync(ctx); r.Outcome == Errored {
		return r
	}
	ctx.Store.FlushDB(ctx.Client.DB())
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

func execFlushAll(ctx *ExecContext) Result {
	if r := parseFlushAsync(ctx); r.Outcome == Errored {
		return r
	}
	ctx.Store.FlushAll()
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

func execSwapDB(ctx *ExecContext) Result {
	aB, _ := ctx.Request.Pop()
	bB, _ := ctx.Request.Pop()
	a, ok := bytesutil.ParseI64Exact(aB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	b, ok := bytesutil.ParseI64Exact(bB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	if !ctx.Store.SwapDB(int(a), int(b)) {
		return Fail(reply.Error("ERR", "DB index is out of range"))
	}
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}
