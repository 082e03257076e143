// Package store implements the single-threaded store of §4.6: the
// owner of all sixteen databases, the blocking/watch/pub-sub registries,
// and CONFIG, driven entirely by messages so no lock is ever needed
// across a request.
//
// No teacher package matches this shape — the teacher serializes access
// with a plain sync.RWMutex inside internal/storage and dispatches
// through internal/processor's big switch instead of an actor loop. This
// is built directly from §4.6's message-passing description, reusing
// internal/command's descriptor table for dispatch and the
// blocking/watch/pubsub/config registries already built for it.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vredis/internal/blocking"
	"vredis/internal/clientio"
	"vredis/internal/command"
	"vredis/internal/config"
	"vredis/internal/datastore"
	"vredis/internal/pubsub"
	"vredis/internal/reply"
	"vredis/internal/script"
	"vredis/internal/watch"
)

// notQueueable names the commands §4.6 rule 4 excludes from transaction
// queueing even while a MULTI is open.
var notQueueable = map[string]bool{
	"exec": true, "discard": true, "multi": true,
	"quit": true, "reset": true, "watch": true,
}

// pubsubAllowed names the commands a RESP2 client stuck in pub/sub-only
// mode may still issue (§4.6 rule 3).
var pubsubAllowed = map[string]bool{
	"subscribe": true, "psubscribe": true,
	"unsubscribe": true, "punsubscribe": true,
	"ping": true, "quit": true, "reset": true,
}

type pendingBlock struct {
	client *clientio.Client
	desc   *command.Descriptor
	args   [][]byte
	gen    uint64
	timer  *time.Timer
}

// Store owns every database and registry and satisfies command.Store.
type Store struct {
	dbs    []*datastore.Database
	cfg    *config.Config
	watch  *watch.Registry
	block  *blocking.Registry
	pubsub *pubsub.Registry

	clients map[clientio.ID]*clientio.Client
	pending map[clientio.ID]*pendingBlock
	genSeq  uint64

	dirty          int64
	numcommands    int64
	numconnections int64

	runID    string
	scripter *script.Engine

	inbox chan Msg
}

// New returns a Store with numDBs empty databases, ready to Run. runID
// identifies this process for INFO's run_id field (§5) — the
// caller mints it once at startup (cmd/server/main.go, via
// github.com/google/uuid) since a store has no business generating its
// own identity.
func New(cfg *config.Config, numDBs int, runID string) *Store {
	s := &Store{
		dbs:     make([]*datastore.Database, numDBs),
		cfg:     cfg,
		watch:   watch.New(),
		block:   blocking.New(),
		pubsub:  pubsub.New(),
		clients: make(map[clientio.ID]*clientio.Client),
		pending: make(map[clientio.ID]*pendingBlock),
		runID:   runID,
		inbox:   make(chan Msg, 256),
	}
	for i := range s.dbs {
		s.dbs[i] = datastore.NewDatabase()
	}
	s.scripter = script.New(s)
	return s
}

// Submit enqueues a message for the next iteration of the store's loop.
// Safe to call from any goroutine.
func (s *Store) Submit(msg Msg) { s.inbox <- msg }

// Run drives the message loop until ctx is cancelled.
func (s *Store) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-s.inbox:
			s.handle(msg)
		}
	}
}

func (s *Store) handle(msg Msg) {
	switch m := msg.(type) {
	case ConnectMsg:
		s.handleConnect(m.Client)
	case ReadyMsg:
		s.handleReady(m.ID, m.Args)
	case DisconnectMsg:
		s.handleDisconnect(m.ID)
	case TimeoutMsg:
		s.handleTimeout(m.ID, m.Gen)
	}
}

func (s *Store) handleConnect(c *clientio.Client) {
	s.clients[c.ID] = c
	s.numconnections++
}

func (s *Store) handleDisconnect(id clientio.ID) {
	if pb, ok := s.pending[id]; ok {
		if pb.timer != nil {
			pb.timer.Stop()
		}
		delete(s.pending, id)
	}
	s.block.Remove(blocking.ClientID(id))
	s.watch.Remove(watch.ClientID(id))
	s.pubsub.RemoveClient(pubsub.ClientID(id))
	delete(s.clients, id)
}

func (s *Store) handleTimeout(id clientio.ID, gen uint64) {
	pb, ok := s.pending[id]
	if !ok || pb.gen != gen {
		return
	}
	s.block.Remove(blocking.ClientID(id))
	delete(s.pending, id)
	pb.client.SetBlocked(false)
	pb.client.State = clientio.StateWaiting
	pb.client.Send(reply.Nil())
	s.numcommands++
	pb.client.SignalResume()
}

func (s *Store) handleReady(id clientio.ID, args [][]byte) {
	client, ok := s.clients[id]
	if !ok || len(args) == 0 {
		return
	}
	client.State = clientio.StateRunning
	blocked := false
	defer func() {
		if client.State == clientio.StateRunning {
			client.State = clientio.StateWaiting
		}
		if !blocked {
			client.SignalResume()
		}
	}()

	name := strings.ToLower(string(args[0]))
	desc, ok := command.Lookup(name)
	if !ok {
		client.Send(reply.UnknownCommand(string(args[0])))
		if client.Tx == clientio.TxActive {
			client.Tx = clientio.TxErrored
		}
		return
	}

	// 1. arity check
	if !desc.CheckArity(len(args)) {
		client.Send(reply.WrongArgCount(name))
		if client.Tx == clientio.TxActive {
			client.Tx = clientio.TxErrored
		}
		return
	}

	// 2. MONITOR-mode restriction
	if client.Monitoring() && (desc.ReadOnly || desc.Write) {
		client.Send(reply.Error("ERR", "replica can't interact with the keyspace"))
		return
	}

	// 3. RESP2 pub/sub-mode restriction
	if client.ProtoVersion() < 3 && (client.SubCount() > 0 || client.PSubCount() > 0) && !pubsubAllowed[name] {
		client.Send(reply.Error("ERR", "Can't execute '"+name+"': only (P|S)SUBSCRIBE / (P|S)UNSUBSCRIBE / PING / QUIT / RESET are allowed in this context"))
		return
	}

	// 4. transaction queueing
	if client.Tx != clientio.TxNone && !notQueueable[name] {
		client.Queue = append(client.Queue, clientio.QueuedCommand{Args: args})
		client.Send(reply.Status("QUEUED"))
		s.numcommands++
		return
	}

	// 5. invoke the executor
	db := s.dbs[client.DB()]
	req := clientio.NewRequest(args)
	req.Reset(1)
	ctx := &command.ExecContext{Store: s, Client: client, Request: req, DB: db, NowMs: s.Now()}
	result := desc.Executor(ctx)

	switch result.Outcome {
	case command.Block:
		s.parkClient(client, args, desc, result.BlockOn)
		blocked = true
	case command.Errored:
		client.Send(result.Reply)
		if client.Tx == clientio.TxActive && result.Reply.Kind == reply.KindError {
			client.Tx = clientio.TxErrored
		}
	}

	// 6. MONITOR notification
	s.notifyMonitors(client, args, desc)

	// 7. numcommands
	s.numcommands++

	s.drainBlocking()
}

func (s *Store) parkClient(client *clientio.Client, args [][]byte, desc *command.Descriptor, bk *command.BlockKeys) {
	s.genSeq++
	gen := s.genSeq
	client.SetBlocked(true)
	client.State = clientio.StateBlocked

	pb := &pendingBlock{client: client, desc: desc, args: args, gen: gen}
	if bk.Timeout > 0 {
		id := client.ID
		pb.timer = time.AfterFunc(bk.Timeout, func() {
			s.Submit(TimeoutMsg{ID: id, Gen: gen})
		})
	}
	s.pending[client.ID] = pb
	s.block.Add(blocking.ClientID(client.ID), bk.Keys)
}

// drainBlocking implements §4.6's "ready keys" sweep: after every
// executed command, replay the front waiter of each newly non-empty key
// until it either unblocks or blocks again, then move to the next ready
// key. Executing a waiter can itself mark further keys ready, so the
// outer loop repeats until a full pass finds nothing left to drain.
func (s *Store) drainBlocking() {
	for {
		ready := s.block.DrainReady()
		if len(ready) == 0 {
			return
		}
		for _, k := range ready {
			for {
				id, ok := s.block.Front(k)
				if !ok {
					break
				}
				cid := clientio.ID(id)
				pb, ok := s.pending[cid]
				if !ok {
					s.block.PopFront(k)
					continue
				}

				db := s.dbs[pb.client.DB()]
				req := clientio.NewRequest(pb.args)
				req.Reset(1)
				ctx := &command.ExecContext{Store: s, Client: pb.client, Request: req, DB: db, NowMs: s.Now()}
				result := pb.desc.Executor(ctx)

				if result.Outcome == command.Block {
					break
				}

				s.block.Remove(blocking.ClientID(cid))
				if pb.timer != nil {
					pb.timer.Stop()
				}
				delete(s.pending, cid)
				pb.client.SetBlocked(false)
				pb.client.State = clientio.StateWaiting

				if result.Outcome == command.Errored {
					pb.client.Send(result.Reply)
				}
				s.numcommands++
				pb.client.SignalResume()
			}
		}
	}
}

func (s *Store) notifyMonitors(client *clientio.Client, args [][]byte, desc *command.Descriptor) {
	if desc.Admin {
		return
	}
	now := time.Now()
	var line string
	for _, c := range s.clients {
		if c.ID == client.ID || !c.Monitoring() {
			continue
		}
		if line == "" {
			line = fmt.Sprintf("%d.%06d [%d %s] %s", now.Unix(), now.Nanosecond()/1000, client.DB(), client.Addr(), quoteArgs(args))
		}
		c.Send(reply.Status(line))
	}
}

func quoteArgs(args [][]byte) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = quoteArg(a)
	}
	return strings.Join(parts, " ")
}

func quoteArg(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range b {
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&sb, "\\x%02x", c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// --- command.Store ---

func (s *Store) DB(index int) (*datastore.Database, bool) {
	if index < 0 || index >= len(s.dbs) {
		return nil, false
	}
	return s.dbs[index], true
}

func (s *Store) NumDBs() int { return len(s.dbs) }

func (s *Store) Touch(db int, key []byte) {
	s.watch.Touch(watch.Key{DB: db, Key: string(key)})
}

func (s *Store) MarkReady(db int, key []byte) {
	s.block.MarkReady(blocking.Key{DB: db, Key: string(key)})
}

func (s *Store) Watch() *watch.Registry      { return s.watch }
func (s *Store) Blocking() *blocking.Registry { return s.block }
func (s *Store) PubSub() *pubsub.Registry    { return s.pubsub }
func (s *Store) Config() *config.Config      { return s.cfg }

func (s *Store) FlushDB(db int) {
	if db < 0 || db >= len(s.dbs) {
		return
	}
	s.dbs[db] = datastore.NewDatabase()
}

func (s *Store) FlushAll() {
	for i := range s.dbs {
		s.dbs[i] = datastore.NewDatabase()
	}
}

func (s *Store) SwapDB(i, j int) bool {
	if i < 0 || i >= len(s.dbs) || j < 0 || j >= len(s.dbs) {
		return false
	}
	s.dbs[i], s.dbs[j] = s.dbs[j], s.dbs[i]
	return true
}

func (s *Store) DBSize(db int) int {
	if db < 0 || db >= len(s.dbs) {
		return 0
	}
	return s.dbs[db].Len(s.Now())
}

func (s *Store) IncrDirty() { s.dirty++ }

func (s *Store) Dirty() int64          { return s.dirty }
func (s *Store) NumCommands() int64    { return s.numcommands }
func (s *Store) NumConnections() int64 { return s.numconnections }
func (s *Store) RunID() string         { return s.runID }

func (s *Store) Script() command.Scripter { return s.scripter }

func (s *Store) ClientByID(id clientio.ID) (*clientio.Client, bool) {
	c, ok := s.clients[id]
	return c, ok
}

func (s *Store) AllClients() []*clientio.Client {
	out := make([]*clientio.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	return out
}

func (s *Store) Now() int64 { return time.Now().UnixMilli() }
