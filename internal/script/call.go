package script

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"vredis/internal/clientio"
	"vredis/internal/command"
	"vredis/internal/reply"
)

// registerRedisAPI installs the `redis` global table into L, grounded
// on the teacher's registerRedisAPI: call/pcall/log/status_reply/
// error_reply, with call/pcall rewired to dispatch through
// internal/command's descriptor table instead of a hand-written
// per-command switch.
func (e *Engine) registerRedisAPI(L *lua.LState, caller *clientio.Client) {
	redisTable := L.NewTable()

	redisTable.RawSetString("call", L.NewFunction(func(L *lua.LState) int {
		v, err := e.invoke(L, caller)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(convertGoToLua(L, v))
		return 1
	}))

	redisTable.RawSetString("pcall", L.NewFunction(func(L *lua.LState) int {
		v, err := e.invoke(L, caller)
		if err != nil {
			errTable := L.NewTable()
			errTable.RawSetString("err", lua.LString(err.Error()))
			L.Push(errTable)
			return 1
		}
		L.Push(convertGoToLua(L, v))
		return 1
	}))

	redisTable.RawSetString("log", L.NewFunction(func(L *lua.LState) int { return 0 }))

	redisTable.RawSetString("status_reply", L.NewFunction(func(L *lua.LState) int {
		t := L.NewTable()
		t.RawSetString("ok", lua.LString(L.CheckString(1)))
		L.Push(t)
		return 1
	}))

	redisTable.RawSetString("error_reply", L.NewFunction(func(L *lua.LState) int {
		t := L.NewTable()
		t.RawSetString("err", lua.LString(L.CheckString(1)))
		L.Push(t)
		return 1
	}))

	redisTable.RawSetString("sha1hex", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(sha1Hex(L.CheckString(1))))
		return 1
	}))

	L.SetGlobal("redis", redisTable)
}

// invoke handles one redis.call/pcall: read the command name and
// arguments off the Lua stack, dispatch through command.Lookup, and
// decode whatever the executor sent back into a plain Go value.
func (e *Engine) invoke(L *lua.LState, caller *clientio.Client) (interface{}, error) {
	n := L.GetTop()
	if n < 1 {
		return nil, fmt.Errorf("Please specify at least one argument for this redis lib call")
	}

	name := strings.ToLower(L.CheckString(1))
	desc, ok := command.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("Unknown Redis command called from script")
	}
	if desc.NoScript {
		return nil, fmt.Errorf("This Redis command is not allowed from script")
	}

	args := make([][]byte, n)
	args[0] = []byte(name)
	for i := 2; i <= n; i++ {
		args[i-1] = []byte(luaArgString(L.Get(i)))
	}
	if !desc.CheckArity(len(args)) {
		return nil, fmt.Errorf("Wrong number of args calling Redis command from script")
	}

	scratch := clientio.NewClient(scriptClientID, nil)
	scratch.SetDB(caller.DB())

	db, ok := e.store.DB(scratch.DB())
	if !ok {
		return nil, fmt.Errorf("ERR DB index is out of range")
	}

	req := clientio.NewRequest(args)
	req.Reset(1)
	ctx := &command.ExecContext{Store: e.store, Client: scratch, Request: req, DB: db, NowMs: e.store.Now()}
	result := desc.Executor(ctx)

	switch result.Outcome {
	case command.Block:
		return nil, fmt.Errorf("This Redis command is not allowed from script")
	case command.Errored:
		return nil, fmt.Errorf("%s %s", result.Reply.ErrTyped, result.Reply.ErrMsg)
	}

	return decodeReplies(drain(scratch))
}

func luaArgString(v lua.LValue) string {
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return v.String()
}

// drain collects every ReplierMsg a just-finished, never-networked
// scratch client accumulated; safe to read non-blockingly since the
// executor that produced them already returned (scripting never blocks
// — see the command.Block case in invoke).
func drain(c *clientio.Client) []clientio.ReplierMsg {
	var msgs []clientio.ReplierMsg
	for {
		select {
		case m := <-c.Reply:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

// decodeReplies walks a flat reply stream the same way
// internal/clientio.RunReplier's wire encoder would, except building Go
// values instead of bytes — an array/set/map's Len (or, for a deferred
// reply, the count on its own Deferred channel) says how many of the
// following messages are its elements.
func decodeReplies(msgs []clientio.ReplierMsg) (interface{}, error) {
	v, _, err := decodeOne(msgs, 0)
	return v, err
}

func decodeOne(msgs []clientio.ReplierMsg, i int) (interface{}, int, error) {
	if i >= len(msgs) {
		return nil, i, fmt.Errorf("ERR script: nested command produced no reply")
	}
	r := msgs[i].Reply
	i++

	switch r.Kind {
	case reply.KindNil:
		return nil, i, nil
	case reply.KindBoolean:
		return r.Bool, i, nil
	case reply.KindInteger:
		return r.Int, i, nil
	case reply.KindDouble:
		return r.Float, i, nil
	case reply.KindBignum, reply.KindBulk, reply.KindVerbatim:
		return string(r.Bytes), i, nil
	case reply.KindStatus:
		return map[string]interface{}{"ok": string(r.Bytes)}, i, nil
	case reply.KindError:
		return nil, i, fmt.Errorf("%s %s", r.ErrTyped, r.ErrMsg)
	case reply.KindArray, reply.KindSet, reply.KindPush:
		return decodeN(msgs, i, r.Len)
	case reply.KindMap:
		return decodeMapN(msgs, i, r.Len)
	case reply.KindDeferredArray, reply.KindDeferredSet:
		return decodeN(msgs, i, <-r.Deferred)
	case reply.KindDeferredMap:
		return decodeMapN(msgs, i, <-r.Deferred)
	default:
		return nil, i, fmt.Errorf("ERR script: unsupported nested reply kind")
	}
}

func decodeN(msgs []clientio.ReplierMsg, i, n int) (interface{}, int, error) {
	arr := make([]interface{}, 0, n)
	for j := 0; j < n; j++ {
		var v interface{}
		var err error
		v, i, err = decodeOne(msgs, i)
		if err != nil {
			return nil, i, err
		}
		arr = append(arr, v)
	}
	return arr, i, nil
}

func decodeMapN(msgs []clientio.ReplierMsg, i, n int) (interface{}, int, error) {
	m := make(map[string]interface{}, n)
	for j := 0; j < n; j++ {
		var k, v interface{}
		var err error
		k, i, err = decodeOne(msgs, i)
		if err != nil {
			return nil, i, err
		}
		v, i, err = decodeOne(msgs, i)
		if err != nil {
			return nil, i, err
		}
		m[fmt.Sprintf("%v", k)] = v
	}
	return m, i, nil
}

// convertLuaToGo mirrors the teacher's convertLuaToGo: a Lua table with
// an "ok" or "err" field becomes a status/error marker map, otherwise a
// 1..n-dense table becomes a slice and anything else becomes an empty
// slice.
func convertLuaToGo(lv lua.LValue) interface{} {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if ok := v.RawGetString("ok"); ok != lua.LNil {
			return map[string]interface{}{"ok": convertLuaToGo(ok)}
		}
		if errv := v.RawGetString("err"); errv != lua.LNil {
			return map[string]interface{}{"err": convertLuaToGo(errv)}
		}

		isArray := true
		maxN := 0
		v.ForEach(func(k, _ lua.LValue) {
			if num, ok := k.(lua.LNumber); ok {
				if int(num) > maxN {
					maxN = int(num)
				}
			} else {
				isArray = false
			}
		})
		if isArray && maxN > 0 {
			arr := make([]interface{}, maxN)
			for i := 1; i <= maxN; i++ {
				arr[i-1] = convertLuaToGo(v.RawGetInt(i))
			}
			return arr
		}
		return []interface{}{}
	default:
		return nil
	}
}

// convertGoToLua mirrors the teacher's convertGoToLua, pushing a
// decoded nested-call result back onto the Lua stack for redis.call's
// caller.
func convertGoToLua(L *lua.LState, v interface{}) lua.LValue {
	if v == nil {
		return lua.LFalse
	}
	switch val := v.(type) {
	case bool:
		return lua.LBool(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []interface{}:
		t := L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, convertGoToLua(L, item))
		}
		return t
	case map[string]interface{}:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, convertGoToLua(L, item))
		}
		return t
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}
