// Package serverio owns the TCP listener and the per-connection
// goroutines that read, submit and reply on behalf of one client
// (§4.10). It is the thin edge between the network and
// internal/store: every request it reads is handed to the store as a
// message, and every reply the store produces is written back by a
// dedicated replier goroutine.
//
// Grounded on the teacher's internal/server.RedisServer (accept loop,
// per-connection goroutine, a map of live connections, a WaitGroup
// drained with a shutdown timeout), with the AOF/RDB/replication/
// cluster/sentinel machinery stripped and the handler/processor pair
// replaced by internal/clientio's reader/replier goroutines talking to
// internal/store over its message channel. The teacher bounds
// concurrency only by a max-connections counter checked before
// spawning; vredis additionally bounds the in-flight connection
// goroutines with golang.org/x/sync/errgroup's SetLimit, the same
// semaphore idiom the pack's edirooss-zmux-server implements by hand in
// processmgr/slot_pool.go.
package serverio

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vredis/internal/clientio"
	"vredis/internal/config"
	"vredis/internal/respio"
	"vredis/internal/store"
)

// Listener accepts connections on addr and drives them against st.
type Listener struct {
	addr           string
	maxConnections int
	store          *store.Store
	cfg            *config.Config
	log            *zap.Logger

	nextID      atomic.Int64
	activeConns atomic.Int64
	connections sync.Map // clientio.ID -> net.Conn, for diagnostics only
}

// New returns a Listener that has not yet started accepting.
// maxConnections bounds both the legacy rejection check (a full accept
// queue gets a closed connection, matching the teacher) and the
// errgroup-limited set of connection-handling goroutines.
func New(addr string, st *store.Store, cfg *config.Config, maxConnections int, log *zap.Logger) *Listener {
	if maxConnections <= 0 {
		maxConnections = 10000
	}
	return &Listener{
		addr:           addr,
		maxConnections: maxConnections,
		store:          st,
		cfg:            cfg,
		log:            log,
	}
}

// Run listens on l.addr and serves connections until ctx is cancelled,
// then waits (bounded by ctx's own cancellation having already happened,
// so this return is as fast as the in-flight connections allow) for
// every connection goroutine to finish before returning.
func (l *Listener) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("serverio: listen %s: %w", l.addr, err)
	}
	defer ln.Close()
	l.log.Info("listening", zap.String("addr", l.addr))

	stopClosing := make(chan struct{})
	defer close(stopClosing)
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-stopClosing:
		}
	}()

	var conns errgroup.Group
	conns.SetLimit(l.maxConnections)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				conns.Wait()
				return ctx.Err()
			default:
			}
			l.log.Warn("accept failed", zap.Error(err))
			continue
		}

		id := clientio.ID(l.nextID.Add(1))
		if int(l.activeConns.Load()) >= l.maxConnections {
			l.log.Warn("max connections reached, rejecting", zap.String("remote", conn.RemoteAddr().String()))
			conn.Close()
			continue
		}

		conns.Go(func() error {
			l.handleConnection(ctx, id, conn)
			return nil
		})
	}
}

func (l *Listener) handleConnection(ctx context.Context, id clientio.ID, conn net.Conn) {
	l.activeConns.Add(1)
	l.connections.Store(id, conn)
	defer func() {
		l.connections.Delete(id)
		l.activeConns.Add(-1)
		conn.Close()
	}()

	client := clientio.NewClient(id, conn)
	l.store.Submit(store.ConnectMsg{Client: client})
	defer l.store.Submit(store.DisconnectMsg{ID: id})

	replierDone := make(chan struct{})
	go func() {
		clientio.RunReplier(client)
		close(replierDone)
	}()

	limits := respio.Limits{
		MaxBulkLen:   l.cfg.ProtoMaxBulkLen(),
		MaxInlineLen: l.cfg.ProtoInlineMaxLen(),
	}
	err := clientio.RunReader(client, limits, func(args [][]byte) {
		l.store.Submit(store.ReadyMsg{ID: id, Args: args})
	})
	if err != nil {
		l.log.Debug("connection closed", zap.Int64("client", int64(id)), zap.Error(err))
	}

	// RunReader only returns once the client disconnects, errors, or
	// quits; either way the replier has nothing left to write, so tell
	// it to flush and close rather than leaving it blocked on c.Reply.
	client.Quit()
	<-replierDone
}
