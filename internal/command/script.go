package command

import (
	"fmt"
	"strings"

	"vredis/internal/bytesutil"
	"vredis/internal/clientio"
	"vredis/internal/reply"
)

func init() {
	register(&Descriptor{Name: "eval", Arity: -3, KeyLayout: KeyLayout{Kind: KeyArgument, ArgIndex: 2}, Write: true, NoScript: true, Executor: execEval})
	register(&Descriptor{Name: "evalsha", Arity: -3, KeyLayout: KeyLayout{Kind: KeyArgument, ArgIndex: 2}, Write: true, NoScript: true, Executor: execEvalSha})
	register(&Descriptor{Name: "script", Arity: -2, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, NoScript: true, Executor: execScript})
}

// popNumkeysArgs consumes EVAL/EVALSHA's "numkeys key [key ...] arg [arg
// ...]" tail per §4.10's KeyArgument layout, after the script/sha
// argument has already been popped.
func popNumkeysArgs(ctx *ExecContext) (keys, argv [][]byte, fail Result, ok bool) {
	numKeysArg, _ := ctx.Request.Pop()
	n, valid := bytesutil.ParseI64Exact(numKeysArg)
	if !valid || n < 0 {
		return nil, nil, Fail(reply.Error("ERR", "value is not an integer or out of range")), false
	}
	if int(n) > ctx.Request.Remaining() {
		return nil, nil, Fail(reply.Error("ERR", "Number of keys can't be greater than number of args")), false
	}
	keys = make([][]byte, n)
	for i := range keys {
		keys[i], _ = ctx.Request.Pop()
	}
	for {
		a, more := ctx.Request.Pop()
		if !more {
			break
		}
		argv = append(argv, a)
	}
	return keys, argv, Result{}, true
}

func execEval(ctx *ExecContext) Result {
	src, ok := ctx.Request.Pop()
	if !ok {
		return Fail(reply.WrongArgCount("eval"))
	}
	keys, argv, fail, ok := popNumkeysArgs(ctx)
	if !ok {
		return fail
	}
	v, err := ctx.Store.Script().Eval(ctx.Client, string(src), keys, argv)
	if err != nil {
		return Fail(scriptError(err))
	}
	sendScriptValue(ctx.Client, v)
	return Ok()
}

func execEvalSha(ctx *ExecContext) Result {
	sha, ok := ctx.Request.Pop()
	if !ok {
		return Fail(reply.WrongArgCount("evalsha"))
	}
	keys, argv, fail, ok := popNumkeysArgs(ctx)
	if !ok {
		return fail
	}
	v, err := ctx.Store.Script().EvalSHA(ctx.Client, strings.ToLower(string(sha)), keys, argv)
	if err != nil {
		return Fail(scriptError(err))
	}
	sendScriptValue(ctx.Client, v)
	return Ok()
}

func execScript(ctx *ExecContext) Result {
	sub, ok := ctx.Request.Pop()
	if !ok {
		return Fail(reply.WrongArgCount("script"))
	}
	switch strings.ToUpper(string(sub)) {
	case "LOAD":
		src, ok := ctx.Request.Pop()
		if !ok {
			return Fail(reply.WrongArgCount("script|load"))
		}
		ctx.Client.Send(reply.Bulk([]byte(ctx.Store.Script().Load(string(src)))))
		return Ok()
	case "EXISTS":
		var hashes []string
		for {
			h, more := ctx.Request.Pop()
			if !more {
				break
			}
			hashes = append(hashes, strings.ToLower(string(h)))
		}
		exists := ctx.Store.Script().Exists(hashes)
		r, ch := reply.DeferredArray()
		ctx.Client.Send(r)
		for _, e := range exists {
			n := int64(0)
			if e {
				n = 1
			}
			ctx.Client.Send(reply.Integer(n))
		}
		ch <- len(exists)
		return Ok()
	case "FLUSH":
		ctx.Store.Script().Flush()
		ctx.Client.Send(reply.Status("OK"))
		return Ok()
	default:
		return Fail(reply.Error("ERR", "Unknown SCRIPT subcommand or wrong number of arguments"))
	}
}

// scriptError maps an error from internal/script — conventionally
// "<TYPE> message", e.g. "NOSCRIPT No matching script..." — into a typed
// reply the same way every other executor's Fail does, defaulting to ERR
// when the message carries no all-caps type prefix.
func scriptError(err error) reply.Reply {
	msg := err.Error()
	if sp := strings.IndexByte(msg, ' '); sp > 0 {
		typed := msg[:sp]
		isTyped := len(typed) > 0
		for _, r := range typed {
			if r < 'A' || r > 'Z' {
				isTyped = false
				break
			}
		}
		if isTyped {
			return reply.Error(typed, msg[sp+1:])
		}
	}
	return reply.Error("ERR", msg)
}

// sendScriptValue converts a script's returned Go value — built by
// internal/script's Lua<->Go conversion, or by decoding a nested
// redis.call reply — into the wire reply algebra, following real
// Redis's Lua-to-RESP conversion: numbers truncate to integers, tables
// become multi-bulk arrays, {ok=...}/{err=...} become status/error
// replies, and false/nil become a null reply.
func sendScriptValue(client *clientio.Client, v interface{}) {
	switch val := v.(type) {
	case nil:
		client.Send(reply.Nil())
	case bool:
		if val {
			client.Send(reply.Integer(1))
		} else {
			client.Send(reply.Nil())
		}
	case int64:
		client.Send(reply.Integer(val))
	case float64:
		client.Send(reply.Integer(int64(val)))
	case string:
		client.Send(reply.Bulk([]byte(val)))
	case []interface{}:
		client.Send(reply.Array(len(val)))
		for _, e := range val {
			sendScriptValue(client, e)
		}
	case map[string]interface{}:
		if ok, has := val["ok"]; has {
			client.Send(reply.Status(fmt.Sprintf("%v", ok)))
			return
		}
		if errv, has := val["err"]; has {
			client.Send(reply.Error("ERR", fmt.Sprintf("%v", errv)))
			return
		}
		client.Send(reply.Array(0))
	default:
		client.Send(reply.Bulk([]byte(fmt.Sprintf("%v", val))))
	}
}
