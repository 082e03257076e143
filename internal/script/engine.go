// Package script runs EVAL/EVALSHA/SCRIPT against a live command.Store
// by driving a gopher-lua state whose redis.call/redis.pcall re-enter
// the store's own descriptor table — legal because scripting always
// executes from inside the store's single execution point, so a nested
// call is just another synchronous Descriptor.Executor invocation, not
// a second client.
//
// Grounded on the teacher's internal/lua.ScriptEngine: the SHA1 script
// cache, the redis table registered into the Lua state, and the
// Lua<->Go value conversion are kept close to the teacher's shape.
// What changes is how a nested command actually runs: the teacher's
// RedisExecutor.ExecuteCommand is a hand-written switch duplicating
// every command against internal/storage; vredis already has a generic
// dispatch table (internal/command.Lookup/Descriptor.Executor), so
// nested calls go through that instead of a second command surface.
package script

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"vredis/internal/clientio"
	"vredis/internal/command"
)

// scriptClientID is the identity nested commands execute under; it is
// never registered with the store (no CONNECT message is ever sent for
// it) so it can never appear in CLIENT LIST or receive a real reply —
// it exists purely as a throwaway reply sink for internal/command's
// Client.Send calls during one redis.call/pcall.
const scriptClientID clientio.ID = -1

// Engine owns the SHA1 script cache (§ scripting). It is not safe for
// concurrent use from more than one goroutine at a time, which matches
// how internal/store calls it: only ever from its own single message
// loop.
type Engine struct {
	store   command.Store
	scripts map[string]string
}

// New returns an Engine bound to store; store is used both for nested
// redis.call/pcall dispatch (DB lookup, Now) and as the Store every
// nested ExecContext carries.
func New(store command.Store) *Engine {
	return &Engine{store: store, scripts: make(map[string]string)}
}

// Eval compiles and runs script once, with KEYS/ARGV bound from keys and
// argv, returning the Lua return value converted to a plain Go value
// (nil, bool, float64, string, []interface{} or
// map[string]interface{}) per the teacher's convertLuaToGo.
func (e *Engine) Eval(caller *clientio.Client, src string, keys, argv [][]byte) (interface{}, error) {
	e.scripts[sha1Hex(src)] = src

	L := lua.NewState()
	defer L.Close()

	e.registerRedisAPI(L, caller)
	setGlobals(L, keys, argv)

	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("ERR Error running script: %v", err)
	}
	return convertLuaToGo(L.Get(-1)), nil
}

// EvalSHA runs a previously LOAD-ed (or EVAL-cached) script by its SHA1.
func (e *Engine) EvalSHA(caller *clientio.Client, sha string, keys, argv [][]byte) (interface{}, error) {
	src, ok := e.scripts[sha]
	if !ok {
		return nil, fmt.Errorf("NOSCRIPT No matching script. Please use EVAL")
	}
	return e.Eval(caller, src, keys, argv)
}

// Load caches src and returns its SHA1 hex digest; Eval does the same
// caching itself, matching real Redis's "every EVAL is also an implicit
// SCRIPT LOAD", so a later EVALSHA of the same source works.
func (e *Engine) Load(src string) string {
	hash := sha1Hex(src)
	e.scripts[hash] = src
	return hash
}

// Exists reports, per hash, whether it is cached.
func (e *Engine) Exists(hashes []string) []bool {
	out := make([]bool, len(hashes))
	for i, h := range hashes {
		_, out[i] = e.scripts[h]
	}
	return out
}

// Flush discards the entire script cache.
func (e *Engine) Flush() { e.scripts = make(map[string]string) }

func sha1Hex(src string) string {
	sum := sha1.Sum([]byte(src))
	return hex.EncodeToString(sum[:])
}

// setGlobals sets Lua's 1-indexed KEYS and ARGV arrays.
func setGlobals(L *lua.LState, keys, argv [][]byte) {
	keysTable := L.NewTable()
	for i, k := range keys {
		keysTable.RawSetInt(i+1, lua.LString(k))
	}
	L.SetGlobal("KEYS", keysTable)

	argvTable := L.NewTable()
	for i, a := range argv {
		argvTable.RawSetInt(i+1, lua.LString(a))
	}
	L.SetGlobal("ARGV", argvTable)
}
