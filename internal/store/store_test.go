package store

import (
	"testing"

	"vredis/internal/clientio"
	"vredis/internal/config"
	"vredis/internal/reply"
)

func newTestClient(s *Store, id clientio.ID) *clientio.Client {
	c := clientio.NewClient(id, nil)
	s.handleConnect(c)
	return c
}

func recv(t *testing.T, c *clientio.Client) clientio.ReplierMsg {
	t.Helper()
	select {
	case m := <-c.Reply:
		return m
	default:
		t.Fatalf("client %d: no reply queued", c.ID)
		return clientio.ReplierMsg{}
	}
}

func drainEmpty(t *testing.T, c *clientio.Client) {
	t.Helper()
	select {
	case m := <-c.Reply:
		t.Fatalf("client %d: unexpected extra reply %+v", c.ID, m)
	default:
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	s := New(config.New(), 16, "test-run-id")
	c := newTestClient(s, 1)

	s.handleReady(c.ID, [][]byte{[]byte("SET"), []byte("k"), []byte("v")})
	if msg := recv(t, c); msg.Reply.Kind != reply.KindStatus || string(msg.Reply.Bytes) != "OK" {
		t.Fatalf("SET reply = %+v", msg.Reply)
	}

	s.handleReady(c.ID, [][]byte{[]byte("GET"), []byte("k")})
	if msg := recv(t, c); msg.Reply.Kind != reply.KindBulk || string(msg.Reply.Bytes) != "v" {
		t.Fatalf("GET reply = %+v", msg.Reply)
	}
	drainEmpty(t, c)

	if got := s.DBSize(0); got != 1 {
		t.Fatalf("DBSize = %d, want 1", got)
	}
	if got := s.NumCommands(); got != 2 {
		t.Fatalf("NumCommands = %d, want 2", got)
	}
}

func TestUnknownCommandErrorsTransaction(t *testing.T) {
	s := New(config.New(), 16, "test-run-id")
	c := newTestClient(s, 1)

	s.handleReady(c.ID, [][]byte{[]byte("MULTI")})
	recv(t, c) // OK

	s.handleReady(c.ID, [][]byte{[]byte("NOSUCHCOMMAND")})
	if msg := recv(t, c); msg.Reply.Kind != reply.KindError {
		t.Fatalf("unknown command inside MULTI should error, got %+v", msg.Reply)
	}
	if c.Tx != clientio.TxErrored {
		t.Fatalf("Tx = %v, want TxErrored", c.Tx)
	}

	s.handleReady(c.ID, [][]byte{[]byte("EXEC")})
	if msg := recv(t, c); msg.Reply.Kind != reply.KindError || msg.Reply.ErrTyped != "EXECABORT" {
		t.Fatalf("EXEC after an errored transaction should EXECABORT, got %+v", msg.Reply)
	}
}

func TestMultiQueuesAndExecReplaysInOrder(t *testing.T) {
	s := New(config.New(), 16, "test-run-id")
	c := newTestClient(s, 1)

	s.handleReady(c.ID, [][]byte{[]byte("MULTI")})
	recv(t, c) // OK

	s.handleReady(c.ID, [][]byte{[]byte("SET"), []byte("a"), []byte("1")})
	if msg := recv(t, c); msg.Reply.Kind != reply.KindStatus || string(msg.Reply.Bytes) != "QUEUED" {
		t.Fatalf("queued SET reply = %+v", msg.Reply)
	}

	s.handleReady(c.ID, [][]byte{[]byte("INCR"), []byte("a")})
	if msg := recv(t, c); string(msg.Reply.Bytes) != "QUEUED" {
		t.Fatalf("queued INCR reply = %+v", msg.Reply)
	}

	s.handleReady(c.ID, [][]byte{[]byte("EXEC")})
	hdr := recv(t, c)
	if hdr.Reply.Kind != reply.KindDeferredArray {
		t.Fatalf("EXEC should reply with a deferred array, got %+v", hdr.Reply)
	}
	setReply := recv(t, c)
	if setReply.Reply.Kind != reply.KindStatus || string(setReply.Reply.Bytes) != "OK" {
		t.Fatalf("queued SET result = %+v", setReply.Reply)
	}
	incrReply := recv(t, c)
	if incrReply.Reply.Kind != reply.KindInteger || incrReply.Reply.Int != 2 {
		t.Fatalf("queued INCR result = %+v", incrReply.Reply)
	}
	if n := <-hdr.Reply.Deferred; n != 2 {
		t.Fatalf("EXEC deferred count = %d, want 2", n)
	}
	drainEmpty(t, c)
}

func TestFlushAllResetsKeyspace(t *testing.T) {
	s := New(config.New(), 16, "test-run-id")
	c := newTestClient(s, 1)

	s.handleReady(c.ID, [][]byte{[]byte("SET"), []byte("k"), []byte("v")})
	recv(t, c)

	s.handleReady(c.ID, [][]byte{[]byte("FLUSHALL")})
	if msg := recv(t, c); msg.Reply.Kind != reply.KindStatus || string(msg.Reply.Bytes) != "OK" {
		t.Fatalf("FLUSHALL reply = %+v", msg.Reply)
	}
	if got := s.DBSize(0); got != 0 {
		t.Fatalf("DBSize after FLUSHALL = %d, want 0", got)
	}
}

func TestBlpopWakesOnPush(t *testing.T) {
	s := New(config.New(), 16, "test-run-id")
	blocked := newTestClient(s, 1)
	pusher := newTestClient(s, 2)

	s.handleReady(blocked.ID, [][]byte{[]byte("BLPOP"), []byte("q"), []byte("0")})
	drainEmpty(t, blocked)
	if blocked.State != clientio.StateBlocked {
		t.Fatalf("client state = %v, want StateBlocked", blocked.State)
	}

	s.handleReady(pusher.ID, [][]byte{[]byte("LPUSH"), []byte("q"), []byte("v")})
	recv(t, pusher) // LPUSH's own integer reply
	drainEmpty(t, pusher)

	hdr := recv(t, blocked)
	if hdr.Reply.Kind != reply.KindDeferredArray {
		t.Fatalf("BLPOP wake reply = %+v, want a deferred array", hdr.Reply)
	}
	keyReply := recv(t, blocked)
	if string(keyReply.Reply.Bytes) != "q" {
		t.Fatalf("BLPOP key = %q, want \"q\"", keyReply.Reply.Bytes)
	}
	valReply := recv(t, blocked)
	if string(valReply.Reply.Bytes) != "v" {
		t.Fatalf("BLPOP value = %q, want \"v\"", valReply.Reply.Bytes)
	}
	if n := <-hdr.Reply.Deferred; n != 2 {
		t.Fatalf("BLPOP deferred count = %d, want 2", n)
	}
	if blocked.State == clientio.StateBlocked {
		t.Fatalf("client should no longer be blocked after waking")
	}
	drainEmpty(t, blocked)
}

func TestLmpopAndZRemRangeByScore(t *testing.T) {
	s := New(config.New(), 16, "test-run-id")
	c := newTestClient(s, 1)

	s.handleReady(c.ID, [][]byte{[]byte("RPUSH"), []byte("l"), []byte("a"), []byte("b")})
	recv(t, c)

	s.handleReady(c.ID, [][]byte{[]byte("LMPOP"), []byte("1"), []byte("l"), []byte("LEFT")})
	hdr := recv(t, c)
	if hdr.Reply.Kind != reply.KindDeferredArray {
		t.Fatalf("LMPOP reply = %+v, want a deferred array", hdr.Reply)
	}
	keyReply := recv(t, c)
	if string(keyReply.Reply.Bytes) != "l" {
		t.Fatalf("LMPOP key = %q, want \"l\"", keyReply.Reply.Bytes)
	}
	innerHdr := recv(t, c)
	if innerHdr.Reply.Kind != reply.KindDeferredArray {
		t.Fatalf("LMPOP inner reply = %+v, want a deferred array", innerHdr.Reply)
	}
	elemReply := recv(t, c)
	if string(elemReply.Reply.Bytes) != "a" {
		t.Fatalf("LMPOP popped = %q, want \"a\"", elemReply.Reply.Bytes)
	}
	if n := <-innerHdr.Reply.Deferred; n != 1 {
		t.Fatalf("LMPOP inner deferred count = %d, want 1", n)
	}
	if n := <-hdr.Reply.Deferred; n != 2 {
		t.Fatalf("LMPOP outer deferred count = %d, want 2", n)
	}
	drainEmpty(t, c)

	s.handleReady(c.ID, [][]byte{[]byte("ZADD"), []byte("z"), []byte("1"), []byte("one"), []byte("2"), []byte("two")})
	recv(t, c)

	s.handleReady(c.ID, [][]byte{[]byte("ZREMRANGEBYSCORE"), []byte("z"), []byte("-inf"), []byte("1")})
	if msg := recv(t, c); msg.Reply.Kind != reply.KindInteger || msg.Reply.Int != 1 {
		t.Fatalf("ZREMRANGEBYSCORE reply = %+v, want integer 1", msg.Reply)
	}
	if got := s.DBSize(0); got != 2 {
		t.Fatalf("DBSize = %d, want 2 (l still holds \"b\", z still holds \"two\")", got)
	}
	drainEmpty(t, c)
}

func TestDisconnectClearsClientState(t *testing.T) {
	s := New(config.New(), 16, "test-run-id")
	c := newTestClient(s, 1)

	s.handleReady(c.ID, [][]byte{[]byte("SUBSCRIBE"), []byte("news")})
	recv(t, c) // subscribe confirmation

	if chans := s.PubSub().ActiveChannels([]byte("*")); len(chans) != 1 {
		t.Fatalf("ActiveChannels before disconnect = %v, want 1 entry", chans)
	}

	s.handleDisconnect(c.ID)
	if _, ok := s.ClientByID(c.ID); ok {
		t.Fatalf("client should be removed after disconnect")
	}
	if chans := s.PubSub().ActiveChannels([]byte("*")); len(chans) != 0 {
		t.Fatalf("pubsub state should be cleared on disconnect, ActiveChannels = %v", chans)
	}
}
