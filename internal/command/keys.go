package command

import (
	"strings"

	"vredis/internal/bytesutil"
	"vredis/internal/datastore"
	"vredis/internal/glob"
	"vredis/internal/reply"
)

func init() {
	register(&Descriptor{Name: "exists", Arity: -2, KeyLayout: KeyLayout{Kind: KeyAll}, ReadOnly: true, Executor: execExists})
	register(&Descriptor{Name: "del", Arity: -2, KeyLayout: KeyLayout{Kind: KeyAll}, Write: true, Executor: execDel})
	register(&Descriptor{Name: "unlink", Arity: -2, KeyLayout: KeyLayout{Kind: KeyAll}, Write: true, Executor: execDel})
	register(&Descriptor{Name: "keys", Arity: 2, KeyLayout: KeyLayout{Kind: KeyNone}, ReadOnly: true, Executor: execKeys})
	register(&Descriptor{Name: "type", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execType})
	register(&Descriptor{Name: "object", Arity: -2, KeyLayout: KeyLayout{Kind: KeyNone}, ReadOnly: true, Executor: execObject})
	register(&Descriptor{Name: "rename", Arity: 3, KeyLayout: KeyLayout{Kind: KeyDouble}, Write: true, Executor: execRename})
	register(&Descriptor{Name: "renamenx", Arity: 3, KeyLayout: KeyLayout{Kind: KeyDouble}, Write: true, Executor: execRenameNX})
	register(&Descriptor{Name: "copy", Arity: -3, KeyLayout: KeyLayout{Kind: KeyDouble}, Write: true, Executor: execCopy})
	register(&Descriptor{Name: "move", Arity: 3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execMove})
	register(&Descriptor{Name: "expire", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execExpire})
	register(&Descriptor{Name: "pexpire", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execPExpire})
	register(&Descriptor{Name: "expireat", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execExpireAt})
	register(&Descriptor{Name: "pexpireat", Arity: -3, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execPExpireAt})
	register(&Descriptor{Name: "persist", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, Write: true, Executor: execPersist})
	register(&Descriptor{Name: "ttl", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execTTL})
	register(&Descriptor{Name: "pttl", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execPTTL})
	register(&Descriptor{Name: "expiretime", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execExpireTime})
	register(&Descriptor{Name: "pexpiretime", Arity: 2, KeyLayout: KeyLayout{Kind: KeySingle}, ReadOnly: true, Executor: execPExpireTime})
}

func execExists(ctx *ExecContext) Result {
	count := 0
	for {
		key, more := ctx.Request.Pop()
		if !more {
			break
		}
		if _, ok := ctx.DB.Get(key, ctx.NowMs); ok {
			count++
		}
	}
	ctx.Client.Send(reply.Integer(int64(count)))
	return Ok()
}

func execDel(ctx *ExecContext) Result {
	count := 0
	for {
		key, more := ctx.Request.Pop()
		if !more {
			break
		}
		if _, ok := ctx.DB.Remove(key, ctx.NowMs); ok {
			count++
			ctx.Store.Touch(ctx.Client.DB(), key)
		}
	}
	if count > 0 {
		ctx.Store.IncrDirty()
	}
	ctx.Client.Send(reply.Integer(int64(count)))
	return Ok()
}

func execKeys(ctx *ExecContext) Result {
	pattern, _ := ctx.Request.Pop()
	r, ch := reply.DeferredArray()
	ctx.Client.Send(r)
	n := 0
	for _, key := range ctx.DB.Keys(ctx.NowMs) {
		if glob.Match(key, pattern) {
			ctx.Client.Send(reply.Bulk(key))
			n++
		}
	}
	ch <- n
	return Ok()
}

func typeName(v datastore.Value) string {
	switch v.Kind() {
	case datastore.KindString:
		return "string"
	case datastore.KindHash:
		return "hash"
	case datastore.KindSet:
		return "set"
	case datastore.KindSortedSet:
		return "zset"
	case datastore.KindList:
		return "list"
	default:
		return "none"
	}
}

func execType(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	v, ok := ctx.DB.Get(key, ctx.NowMs)
	if !ok {
		ctx.Client.Send(reply.Status("none"))
		return Ok()
	}
	ctx.Client.Send(reply.Status(typeName(v)))
	return Ok()
}

func execObject(ctx *ExecContext) Result {
	sub, _ := ctx.Request.Pop()
	switch strings.ToUpper(string(sub)) {
	case "ENCODING":
		key, more := ctx.Request.Pop()
		if !more {
			return Fail(reply.WrongArgCount("object|encoding"))
		}
		v, ok := ctx.DB.Get(key, ctx.NowMs)
		if !ok {
			return Fail(reply.Error("ERR", "no such key"))
		}
		ctx.Client.Send(reply.Bulk([]byte(v.Encoding())))
		return Ok()
	case "REFCOUNT":
		key, more := ctx.Request.Pop()
		if !more {
			return Fail(reply.WrongArgCount("object|refcount"))
		}
		if _, ok := ctx.DB.Get(key, ctx.NowMs); !ok {
			return Fail(reply.Error("ERR", "no such key"))
		}
		ctx.Client.Send(reply.Integer(1))
		return Ok()
	case "IDLETIME", "FREQ":
		return Fail(reply.Error("ERR", "not implemented"))
	case "HELP":
		r, ch := reply.DeferredArray()
		ctx.Client.Send(r)
		ctx.Client.Send(reply.Status("OBJECT ENCODING|REFCOUNT|IDLETIME|FREQ|HELP"))
		ch <- 1
		return Ok()
	default:
		return Fail(reply.Error("ERR", "unknown subcommand"))
	}
}

func execRename(ctx *ExecContext) Result {
	src, _ := ctx.Request.Pop()
	dst, _ := ctx.Request.Pop()
	v, ok := ctx.DB.GetMut(src, ctx.NowMs)
	if !ok {
		return Fail(reply.Error("ERR", "no such key"))
	}
	ttl, hasTTL := ctx.DB.ExpiresAt(src, ctx.NowMs)
	ctx.DB.Remove(src, ctx.NowMs)
	if hasTTL {
		ctx.DB.SetEx(dst, v, ttl, ctx.NowMs)
	} else {
		ctx.DB.Set(dst, v)
	}
	ctx.Store.Touch(ctx.Client.DB(), src)
	ctx.Store.Touch(ctx.Client.DB(), dst)
	ctx.Store.MarkReady(ctx.Client.DB(), dst)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

func execRenameNX(ctx *ExecContext) Result {
	src, _ := ctx.Request.Pop()
	dst, _ := ctx.Request.Pop()
	v, ok := ctx.DB.GetMut(src, ctx.NowMs)
	if !ok {
		return Fail(reply.Error("ERR", "no such key"))
	}
	if _, exists := ctx.DB.Get(dst, ctx.NowMs); exists {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	ttl, hasTTL := ctx.DB.ExpiresAt(src, ctx.NowMs)
	ctx.DB.Remove(src, ctx.NowMs)
	if hasTTL {
		ctx.DB.SetEx(dst, v, ttl, ctx.NowMs)
	} else {
		ctx.DB.Set(dst, v)
	}
	ctx.Store.Touch(ctx.Client.DB(), src)
	ctx.Store.Touch(ctx.Client.DB(), dst)
	ctx.Store.MarkReady(ctx.Client.DB(), dst)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(1))
	return Ok()
}

func execCopy(ctx *ExecContext) Result {
	src, _ := ctx.Request.Pop()
	dst, _ := ctx.Request.Pop()
	destDB := ctx.Client.DB()
	replace := false
	for {
		opt, more := ctx.Request.Pop()
		if !more {
			break
		}
		switch strings.ToUpper(string(opt)) {
		case "DB":
			n, more := ctx.Request.Pop()
			if !more {
				return Fail(reply.SyntaxError())
			}
			idx, ok := bytesutil.ParseI64Exact(n)
			if !ok {
				return Fail(reply.NotInteger())
			}
			destDB = int(idx)
		case "REPLACE":
			replace = true
		default:
			return Fail(reply.SyntaxError())
		}
	}
	targetDB, ok := ctx.Store.DB(destDB)
	if !ok {
		return Fail(reply.Error("ERR", "DB index is out of range"))
	}
	v, ok := ctx.DB.Get(src, ctx.NowMs)
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	if !replace {
		if _, exists := targetDB.Get(dst, ctx.NowMs); exists {
			ctx.Client.Send(reply.Integer(0))
			return Ok()
		}
	}
	clone := cloneValue(v, ctx.Store.Config().Limits())
	if ttl, hasTTL := ctx.DB.ExpiresAt(src, ctx.NowMs); hasTTL {
		targetDB.SetEx(dst, clone, ttl, ctx.NowMs)
	} else {
		targetDB.Set(dst, clone)
	}
	ctx.Store.Touch(destDB, dst)
	ctx.Store.MarkReady(destDB, dst)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(1))
	return Ok()
}

// cloneValue deep-copies a value for COPY, rebuilding through each type's
// public API rather than reaching into its internal representation.
func cloneValue(v datastore.Value, limits datastore.Limits) datastore.Value {
	switch t := v.(type) {
	case *datastore.StringValue:
		return datastore.NewString(append([]byte(nil), t.Bytes()...))
	case *datastore.Hash:
		out := datastore.NewHash()
		t.Each(func(field, value []byte) {
			out.Set(append([]byte(nil), field...), append([]byte(nil), value...), limits)
		})
		return out
	case *datastore.Set:
		out := datastore.NewSet()
		t.Each(func(member []byte) {
			out.Add(append([]byte(nil), member...), limits)
		})
		return out
	case *datastore.List:
		out := datastore.NewList()
		for _, value := range t.Range(0, -1) {
			out.PushRight(append([]byte(nil), value...), limits)
		}
		return out
	case *datastore.SortedSet:
		out := datastore.NewSortedSet()
		for _, m := range t.RangeByRank(0, -1, false) {
			out.Add(append([]byte(nil), m.Member...), m.Score, limits)
		}
		return out
	default:
		return v
	}
}

func execMove(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	dstB, _ := ctx.Request.Pop()
	idx, ok := bytesutil.ParseI64Exact(dstB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	targetDB, ok := ctx.Store.DB(int(idx))
	if !ok {
		return Fail(reply.Error("ERR", "DB index is out of range"))
	}
	if int(idx) == ctx.Client.DB() {
		return Fail(reply.Error("ERR", "source and destination objects are the same"))
	}
	v, ok := ctx.DB.GetMut(key, ctx.NowMs)
	if !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	if _, exists := targetDB.Get(key, ctx.NowMs); exists {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	ttl, hasTTL := ctx.DB.ExpiresAt(key, ctx.NowMs)
	ctx.DB.Remove(key, ctx.NowMs)
	if hasTTL {
		targetDB.SetEx(key, v, ttl, ctx.NowMs)
	} else {
		targetDB.Set(key, v)
	}
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.Touch(int(idx), key)
	ctx.Store.MarkReady(int(idx), key)
	ctx.Store.IncrDirty()
	ctx.Client.Send(reply.Integer(1))
	return Ok()
}

type expireOpts struct {
	nx, xx, gt, lt bool
}

func parseExpireOpts(ctx *ExecContext) (expireOpts, Result, bool) {
	var o expireOpts
	for {
		opt, more := ctx.Request.Pop()
		if !more {
			break
		}
		switch strings.ToUpper(string(opt)) {
		case "NX":
			o.nx = true
		case "XX":
			o.xx = true
		case "GT":
			o.gt = true
		case "LT":
			o.lt = true
		default:
			return o, Fail(reply.SyntaxError()), true
		}
	}
	if o.nx && (o.xx || o.gt || o.lt) {
		return o, Fail(reply.Error("ERR", "NX and XX, GT or LT options at the same time are not compatible")), true
	}
	if o.gt && o.lt {
		return o, Fail(reply.Error("ERR", "GT and LT options at the same time are not compatible")), true
	}
	return o, Result{}, false
}

func applyExpire(ctx *ExecContext, key []byte, atMs int64) Result {
	opts, fail, hasErr := parseExpireOpts(ctx)
	if hasErr {
		return fail
	}
	if _, ok := ctx.DB.GetMut(key, ctx.NowMs); !ok {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	existing, hasExisting := ctx.DB.ExpiresAt(key, ctx.NowMs)
	if opts.nx && hasExisting {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	if opts.xx && !hasExisting {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	if opts.gt && (!hasExisting || atMs <= existing) {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	if opts.lt && hasExisting && atMs >= existing {
		ctx.Client.Send(reply.Integer(0))
		return Ok()
	}
	ctx.DB.Expire(key, atMs, ctx.NowMs)
	ctx.Store.Touch(ctx.Client.DB(), key)
	ctx.Store.IncrDirty()
	if atMs <= ctx.NowMs {
		ctx.Store.Touch(ctx.Client.DB(), key)
	}
	ctx.Client.Send(reply.Integer(1))
	return Ok()
}

func execExpire(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	secB, _ := ctx.Request.Pop()
	sec, ok := bytesutil.ParseI64Exact(secB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	return applyExpire(ctx, key, ctx.NowMs+sec*1000)
}

func execPExpire(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	msB, _ := ctx.Request.Pop()
	ms, ok := bytesutil.ParseI64Exact(msB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	return applyExpire(ctx, key, ctx.NowMs+ms)
}

func execExpireAt(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	secB, _ := ctx.Request.Pop()
	sec, ok := bytesutil.ParseI64Exact(secB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	return applyExpire(ctx, key, sec*1000)
}

func execPExpireAt(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	msB, _ := ctx.Request.Pop()
	ms, ok := bytesutil.ParseI64Exact(msB)
	if !ok {
		return Fail(reply.NotInteger())
	}
	return applyExpire(ctx, key, ms)
}

func execPersist(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	if ctx.DB.Persist(key) {
		ctx.Store.Touch(ctx.Client.DB(), key)
		ctx.Store.IncrDirty()
		ctx.Client.Send(reply.Integer(1))
		return Ok()
	}
	ctx.Client.Send(reply.Integer(0))
	return Ok()
}

func execTTL(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	if _, ok := ctx.DB.Get(key, ctx.NowMs); !ok {
		ctx.Client.Send(reply.Integer(-2))
		return Ok()
	}
	atMs, has := ctx.DB.ExpiresAt(key, ctx.NowMs)
	if !has {
		ctx.Client.Send(reply.Integer(-1))
		return Ok()
	}
	remaining := (atMs - ctx.NowMs + 999) / 1000
	ctx.Client.Send(reply.Integer(remaining))
	return Ok()
}

func execPTTL(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	if _, ok := ctx.DB.Get(key, ctx.NowMs); !ok {
		ctx.Client.Send(reply.Integer(-2))
		return Ok()
	}
	atMs, has := ctx.DB.ExpiresAt(key, ctx.NowMs)
	if !has {
		ctx.Client.Send(reply.Integer(-1))
		return Ok()
	}
	ctx.Client.Send(reply.Integer(atMs - ctx.NowMs))
	return Ok()
}

func execExpireTime(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	if _, ok := ctx.DB.Get(key, ctx.NowMs); !ok {
		ctx.Client.Send(reply.Integer(-2))
		return Ok()
	}
	atMs, has := ctx.DB.ExpiresAt(key, ctx.NowMs)
	if !has {
		ctx.Client.Send(reply.Integer(-1))
		return Ok()
	}
	ctx.Client.Send(reply.Integer(atMs / 1000))
	return Ok()
}

func execPExpireTime(ctx *ExecContext) Result {
	key, _ := ctx.Request.Pop()
	if _, ok := ctx.DB.Get(key, ctx.NowMs); !ok {
		ctx.Client.Send(reply.Integer(-2))
		return Ok()
	}
	atMs, has := ctx.DB.ExpiresAt(key, ctx.NowMs)
	if !has {
		ctx.Client.Send(reply.Integer(-1))
		return Ok()
	}
	ctx.Client.Send(reply.Integer(atMs))
	return Ok()
}
