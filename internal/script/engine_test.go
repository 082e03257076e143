package script

import (
	"testing"

	"vredis/internal/clientio"
	"vredis/internal/config"
	"vredis/internal/store"
)

func newTestEngine(t *testing.T) (*store.Store, *clientio.Client) {
	t.Helper()
	s := store.New(config.New(), 16, "test-run-id")
	c := clientio.NewClient(1, nil)
	return s, c
}

func TestEvalReturnsLiteral(t *testing.T) {
	s, c := newTestEngine(t)
	v, err := s.Script().Eval(c, "return 'hello'", nil, nil)
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if v != "hello" {
		t.Fatalf("Eval result = %#v, want \"hello\"", v)
	}
}

func TestEvalRedisCallSetAndGet(t *testing.T) {
	s, c := newTestEngine(t)
	keys := [][]byte{[]byte("k")}
	argv := [][]byte{[]byte("v")}

	if _, err := s.Script().Eval(c, "return redis.call('set', KEYS[1], ARGV[1])", keys, argv); err != nil {
		t.Fatalf("SET via script: %v", err)
	}

	v, err := s.Script().Eval(c, "return redis.call('get', KEYS[1])", keys, nil)
	if err != nil {
		t.Fatalf("GET via script: %v", err)
	}
	if v != "v" {
		t.Fatalf("GET via script = %#v, want \"v\"", v)
	}
}

func TestEvalRedisCallRaisesOnWrongType(t *testing.T) {
	s, c := newTestEngine(t)
	keys := [][]byte{[]byte("k")}
	if _, err := s.Script().Eval(c, "return redis.call('set', KEYS[1], 'x')", keys, nil); err != nil {
		t.Fatalf("SET via script: %v", err)
	}

	_, err := s.Script().Eval(c, "return redis.call('lpush', KEYS[1], 'y')", keys, nil)
	if err == nil {
		t.Fatalf("expected an error calling LPUSH against a string key")
	}
}

func TestEvalPcallCatchesRedisCallError(t *testing.T) {
	s, c := newTestEngine(t)
	v, err := s.Script().Eval(c, `
		local ok, res = pcall(function() return redis.call('nosuchcommand') end)
		if ok then return 'unexpected' end
		return 'caught'
	`, nil, nil)
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if v != "caught" {
		t.Fatalf("Eval result = %#v, want \"caught\" (redis.call should raise on unknown command)", v)
	}
}

func TestScriptLoadExistsEvalSha(t *testing.T) {
	s, _ := newTestEngine(t)
	hash := s.Script().Load("return 1")
	if exists := s.Script().Exists([]string{hash, "notarealhash"}); !exists[0] || exists[1] {
		t.Fatalf("Exists = %v, want [true false]", exists)
	}

	c := clientio.NewClient(1, nil)
	v, err := s.Script().EvalSHA(c, hash, nil, nil)
	if err != nil {
		t.Fatalf("EvalSHA error: %v", err)
	}
	if v != float64(1) {
		t.Fatalf("EvalSHA result = %#v, want 1", v)
	}
}

func TestScriptFlushClearsCache(t *testing.T) {
	s, _ := newTestEngine(t)
	hash := s.Script().Load("return 1")
	s.Script().Flush()
	if exists := s.Script().Exists([]string{hash}); exists[0] {
		t.Fatalf("hash should be gone after Flush")
	}
}
