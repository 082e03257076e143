package clientio

import (
	"errors"
	"io"

	"vredis/internal/reply"
	"vredis/internal/respio"
)

// RunReader drives one connection's Waiting/Assembling/Ready cycle
// (§4.10): it blocks reading complete requests off the wire, hands each
// one to onReady (which submits it to the store), waits until the store
// signals c.Resume, and only then reads the next one.
// That handshake is what keeps a blocked client from having its
// pipelined follow-up commands run out of order: the store withholds
// the resume signal until the blocking command it parked the client on
// has itself completed (§4.10's "the store eventually returns it to
// reading"). It returns once the connection is closed, a protocol error
// occurs, or the client quits — at which point the caller
// (internal/serverio, which owns the store handle this package must not
// import, to avoid a dependency cycle) is responsible for notifying the
// store of the disconnect.
//
// One consequence of waiting on c.Resume instead of a raw read deadline:
// a client parked by a blocking command whose underlying TCP connection
// is abruptly closed is not noticed until it unblocks (naturally or by
// timeout) and this loop attempts its next read. A production
// deployment would pair this with a read-deadline/keepalive probe on
// the connection even while blocked; out of scope here.
//
// There is no teacher precedent for a reader/replier goroutine split
// (the teacher's handler.HandlePipeline is one synchronous read-execute-
// write loop per connection); this follows directly from §4.10's state
// machine and §4.6's note that a client task drains its request channel
// only while not blocked and not quitting.
func RunReader(c *Client, limits respio.Limits, onReady func(args [][]byte)) error {
	r := respio.NewReader(c.Conn, limits)
	for {
		if c.State == StateQuitting {
			return nil
		}
		args, err := r.ReadRequest()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if len(args) == 0 {
			continue
		}
		c.State = StateReady
		onReady(args)
		<-c.Resume
	}
}

// RunReplier drains c.Reply and serializes each reply onto the
// connection, honoring the deferred-length mechanism of §4.11 (write
// the placeholder header, then block on the reply's own Deferred
// channel for the final count once its elements have been queued) and
// batching the Flush until the channel is momentarily empty, so a burst
// of pushed replies (MULTI/EXEC, a pub/sub fan-out) costs one syscall.
func RunReplier(c *Client) {
	version := c.ProtoVersion()
	w := respio.NewWriter(c.Conn, version)
	for msg := range c.Reply {
		switch msg.Kind {
		case ReplierProtocol:
			version = msg.Version
			w.SetVersion(msg.Version)
			continue
		case ReplierQuit:
			w.Flush()
			c.Conn.Close()
			return
		case ReplierReply:
			if err := w.Write(msg.Reply); err != nil {
				return
			}
			if n := deferredKind(msg.Reply); n {
				count := <-msg.Reply.Deferred
				if msg.Reply.Kind == reply.KindDeferredMap && version < 3 {
					count *= 2
				}
				if err := w.WriteDeferredCount(count); err != nil {
					return
				}
			}
		}

		if len(c.Reply) == 0 {
			if err := w.Flush(); err != nil {
				return
			}
		}
	}
	w.Flush()
}

func deferredKind(r reply.Reply) bool {
	switch r.Kind {
	case reply.KindDeferredArray, reply.KindDeferredSet, reply.KindDeferredMap:
		return true
	default:
		return false
	}
}
