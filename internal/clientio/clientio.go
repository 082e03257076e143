// Package clientio models one connected client (§4.10): its protocol
// state machine, argument cursor, transaction queue, and subscription
// counts. No teacher precedent exists for this split (the teacher's
// handler.Client is a passive struct mutated under a processor-held
// mutex); this is built directly from the state machine spec.md
// describes, using atomics for the fields the store task reads for
// CLIENT LIST/INFO concurrently with the client's own goroutines, per
// §5's note that those fields are advisory and need no locking beyond
// that.
package clientio

import (
	"net"
	"sync/atomic"
	"time"

	"vredis/internal/reply"
)

// State is one position in the per-client protocol state machine.
type State int

const (
	StateWaiting State = iota
	StateAssembling
	StateReady
	StateRunning
	StateBlocked
	StateQuitting
)

// ID uniquely identifies a connected client for the lifetime of the
// process.
type ID int64

// TxState is the client's MULTI/EXEC transaction state.
type TxState int

const (
	TxNone TxState = iota
	TxActive
	TxErrored
)

// QueuedCommand is one command buffered while a transaction is open.
type QueuedCommand struct {
	Args [][]byte
}

// ReplierMsg is one message sent to a client's writer goroutine.
type ReplierMsg struct {
	Kind     ReplierKind
	Version  int
	Mute     bool
	Reply    reply.Reply
}

type ReplierKind int

const (
	ReplierProtocol ReplierKind = iota
	ReplierOn
	ReplierQuit
	ReplierReply
)

// Request is one fully assembled command with an argument cursor, so
// executors can pop/peek arguments and a blocked command can be
// re-executed by resetting the cursor to just past the command name
// (§9's "argument cursor").
type Request struct {
	Args []([]byte)
	next int
}

func NewRequest(args [][]byte) *Request { return &Request{Args: args} }

// Pop returns the next unconsumed argument and advances the cursor.
func (r *Request) Pop() ([]byte, bool) {
	if r.next >= len(r.Args) {
		return nil, false
	}
	a := r.Args[r.next]
	r.next++
	return a, true
}

// Peek returns the next unconsumed argument without advancing.
func (r *Request) Peek() ([]byte, bool) {
	if r.next >= len(r.Args) {
		return nil, false
	}
	return r.Args[r.next], true
}

// Remaining reports how many arguments are left unconsumed.
func (r *Request) Remaining() int { return len(r.Args) - r.next }

// Reset seeks the cursor back to index i (used to restart re-execution
// of a previously blocked command at argument 1, just past the name).
func (r *Request) Reset(i int) { r.next = i }

// Name returns the command name (argument 0), lowercased handling left
// to the caller.
func (r *Request) Name() []byte { return r.Args[0] }

// Client is the store-side view of one connection: its identity,
// protocol mode, and the advisory fields CLIENT LIST/INFO report.
type Client struct {
	ID   ID
	Conn net.Conn

	// Reply is the channel the client's replier goroutine drains;
	// sending to it never blocks the store for long since it is
	// unbounded (backed by an internal queue) per §5.
	Reply chan ReplierMsg

	// Resume is signalled by the store once a request is fully done —
	// immediately for a non-blocking command, or later (once unblocked
	// or timed out) for one that parked the client — so the reader
	// goroutine knows it may read the next request (§4.10's "the store
	// eventually returns it to reading").
	Resume chan struct{}

	ConnectedAt time.Time

	// Advisory fields read by the store for CLIENT LIST/INFO without
	// synchronization beyond the atomic itself (§5).
	db           atomic.Int64
	protoVersion atomic.Int64
	multiLen     atomic.Int64 // -1 when not in a transaction
	subCount     atomic.Int64
	psubCount    atomic.Int64
	monitoring   atomic.Bool
	blocked      atomic.Bool
	replyOn      atomic.Bool
	replySkip    atomic.Bool

	name []byte

	State State
	Tx    TxState
	Queue []QueuedCommand

	// PubSubOnly is true once the client has at least one channel or
	// pattern subscription and is on RESP2 (§4.6 rule 3).
	PubSubOnly bool

	LastCommand string
}

// NewClient returns a Client in its initial Waiting state, RESP2, db 0.
func NewClient(id ID, conn net.Conn) *Client {
	c := &Client{
		ID:          id,
		Conn:        conn,
		Reply:       make(chan ReplierMsg, 64),
		Resume:      make(chan struct{}, 1),
		ConnectedAt: time.Now(),
		State:       StateWaiting,
		Tx:          TxNone,
	}
	c.protoVersion.Store(2)
	c.multiLen.Store(-1)
	c.replyOn.Store(true)
	return c
}

func (c *Client) DB() int              { return int(c.db.Load()) }
func (c *Client) SetDB(db int)         { c.db.Store(int64(db)) }
func (c *Client) ProtoVersion() int    { return int(c.protoVersion.Load()) }
func (c *Client) SetProtoVersion(v int) { c.protoVersion.Store(int64(v)) }
func (c *Client) MultiLen() int        { return int(c.multiLen.Load()) }
func (c *Client) SetMultiLen(n int)    { c.multiLen.Store(int64(n)) }
func (c *Client) SubCount() int        { return int(c.subCount.Load()) }
func (c *Client) SetSubCount(n int)    { c.subCount.Store(int64(n)) }
func (c *Client) PSubCount() int       { return int(c.psubCount.Load()) }
func (c *Client) SetPSubCount(n int)   { c.psubCount.Store(int64(n)) }
func (c *Client) Monitoring() bool     { return c.monitoring.Load() }
func (c *Client) SetMonitoring(b bool) { c.monitoring.Store(b) }
func (c *Client) Blocked() bool        { return c.blocked.Load() }
func (c *Client) SetBlocked(b bool)    { c.blocked.Store(b) }

// SignalResume wakes the reader goroutine waiting in RunReader, once per
// send (buffered 1: a resume that arrives before the reader starts
// waiting is not lost).
func (c *Client) SignalResume() {
	select {
	case c.Resume <- struct{}{}:
	default:
	}
}

// ReplyOn reports whether CLIENT REPLY is in the default ON mode (as
// opposed to OFF, or a one-shot SKIP already consumed).
func (c *Client) ReplyOn() bool { return c.replyOn.Load() }
func (c *Client) SetReplyOn(b bool) { c.replyOn.Store(b) }

// ConsumeSkip reports and clears a pending CLIENT REPLY SKIP for exactly
// one reply.
func (c *Client) ConsumeSkip() bool {
	return c.replySkip.CompareAndSwap(true, false)
}

func (c *Client) SetSkipNext() { c.replySkip.Store(true) }

func (c *Client) Name() []byte { return c.name }
func (c *Client) SetName(n []byte) { c.name = n }

// Send enqueues one reply for the client's replier goroutine, honoring
// CLIENT REPLY OFF/SKIP per §4.6's flow-control rule.
func (c *Client) Send(r reply.Reply) {
	if c.ConsumeSkip() {
		return
	}
	if !c.ReplyOn() {
		return
	}
	c.Reply <- ReplierMsg{Kind: ReplierReply, Reply: r}
}

// SendProtocol switches the replier's serialization version.
func (c *Client) SendProtocol(version int) {
	c.Reply <- ReplierMsg{Kind: ReplierProtocol, Version: version}
}

// Quit tells the replier to stop writing permanently.
func (c *Client) Quit() {
	c.State = StateQuitting
	c.Reply <- ReplierMsg{Kind: ReplierQuit}
}

// Addr returns the remote address string used by CLIENT LIST's addr=
// field, or "?" if unavailable.
func (c *Client) Addr() string {
	if c.Conn == nil {
		return "?"
	}
	return c.Conn.RemoteAddr().String()
}

func (c *Client) LocalAddr() string {
	if c.Conn == nil {
		return "?"
	}
	return c.Conn.LocalAddr().String()
}
