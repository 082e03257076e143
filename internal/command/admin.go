package command

import (
	"fmt"
	"strings"

	"vredis/internal/bytesutil"
	"vredis/internal/clientio"
	"vredis/internal/pubsub"
	"vredis/internal/reply"
	"vredis/internal/watch"
)

func init() {
	register(&Descriptor{Name: "ping", Arity: -1, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, Executor: execPing})
	register(&Descriptor{Name: "echo", Arity: 2, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, Executor: execEcho})
	register(&Descriptor{Name: "quit", Arity: 1, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, NoScript: true, Executor: execQuit})
	register(&Descriptor{Name: "reset", Arity: 1, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, NoScript: true, Executor: execReset})
	register(&Descriptor{Name: "hello", Arity: -1, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, Executor: execHello})
	register(&Descriptor{Name: "client", Arity: -2, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, NoScript: true, Executor: execClient})
	register(&Descriptor{Name: "config", Arity: -2, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, Executor: execConfig})
	register(&Descriptor{Name: "command", Arity: -1, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, Executor: execCommand})
	register(&Descriptor{Name: "monitor", Arity: 1, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, NoScript: true, Executor: execMonitor})
	register(&Descriptor{Name: "info", Arity: -1, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, Executor: execInfo})
	register(&Descriptor{Name: "debug", Arity: -2, KeyLayout: KeyLayout{Kind: KeyNone}, Admin: true, Executor: execDebug})
}

func execPing(ctx *ExecContext) Result {
	if msg, more := ctx.Request.Pop(); more {
		ctx.Client.Send(reply.Bulk(msg))
	} else {
		ctx.Client.Send(reply.Status("PONG"))
	}
	return Ok()
}

func execEcho(ctx *ExecContext) Result {
	msg, _ := ctx.Request.Pop()
	ctx.Client.Send(reply.Bulk(msg))
	return Ok()
}

func execQuit(ctx *ExecContext) Result {
	ctx.Client.Send(reply.Status("OK"))
	ctx.Client.Quit()
	return Ok()
}

func execReset(ctx *ExecContext) Result {
	ctx.Client.Tx = clientio.TxNone
	ctx.Client.Queue = nil
	ctx.Client.SetDB(0)
	ctx.Client.SetMonitoring(false)
	ctx.Client.SetReplyOn(true)
	ctx.Client.SetName(nil)
	ctx.Store.Watch().Remove(watch.ClientID(ctx.Client.ID))
	ctx.Store.PubSub().RemoveClient(pubsub.ClientID(ctx.Client.ID))
	ctx.Client.SetSubCount(0)
	ctx.Client.SetPSubCount(0)
	ctx.Client.Send(reply.Status("RESET"))
	return Ok()
}

func execHello(ctx *ExecContext) Result {
	version := ctx.Client.ProtoVersion()
	if verB, more := ctx.Request.Pop(); more {
		v, ok := bytesutil.ParseI64Exact(verB)
		if !ok || (v != 2 && v != 3) {
			return Fail(reply.Error("NOPROTO", "unsupported protocol version"))
		}
		version = int(v)
	}
	for {
		opt, more := ctx.Request.Pop()
		if !more {
			break
		}
		switch strings.ToUpper(string(opt)) {
		case "AUTH":
			ctx.Request.Pop()
			ctx.Request.Pop()
		case "SETNAME":
			name, more := ctx.Request.Pop()
			if !more {
				return Fail(reply.SyntaxError())
			}
			ctx.Client.SetName(name)
		default:
			return Fail(reply.SyntaxError())
		}
	}
	ctx.Client.SetProtoVersion(version)
	ctx.Client.SendProtocol(version)

	r, ch := reply.DeferredMap()
	ctx.Client.Send(r)
	ctx.Client.Send(reply.Bulk([]byte("server")))
	ctx.Client.Send(reply.Bulk([]byte("vredis")))
	ctx.Client.Send(reply.Bulk([]byte("version")))
	ctx.Client.Send(reply.Bulk([]byte("7.0.0")))
	ctx.Client.Send(reply.Bulk([]byte("proto")))
	ctx.Client.Send(reply.Integer(int64(version)))
	ctx.Client.Send(reply.Bulk([]byte("id")))
	ctx.Client.Send(reply.Integer(int64(ctx.Client.ID)))
	ctx.Client.Send(reply.Bulk([]byte("mode")))
	ctx.Client.Send(reply.Bulk([]byte("standalone")))
	ctx.Client.Send(reply.Bulk([]byte("role")))
	ctx.Client.Send(reply.Bulk([]byte("master")))
	ctx.Client.Send(reply.Bulk([]byte("modules")))
	ctx.Client.Send(reply.Array(0))
	ch <- 7
	return Ok()
}

func execMonitor(ctx *ExecContext) Result {
	ctx.Client.SetMonitoring(true)
	ctx.Client.Send(reply.Status("OK"))
	return Ok()
}

func flagsString(c *clientio.Client) string {
	var b strings.Builder
	if c.Blocked() {
		b.WriteByte('b')
	}
	if c.SubCount() > 0 || c.PSubCount() > 0 {
		b.WriteByte('P')
	}
	if c.Tx == clientio.TxActive || c.Tx == clientio.TxErrored {
		b.WriteByte('x')
	}
	if c.Monitoring() {
		b.WriteByte('O')
	}
	if b.Len() == 0 {
		return "N"
	}
	return b.String()
}

func clientLine(c *clientio.Client, nowMs int64) string {
	multi := -1
	if c.Tx == clientio.TxActive || c.Tx == clientio.TxErrored {
		multi = len(c.Queue)
	}
	name := c.Name()
	age := (nowMs - c.ConnectedAt.UnixMilli()) / 1000
	return fmt.Sprintf(
		"id=%d db=%d age=%d sub=%d psub=%d resp=%d addr=%s laddr=%s cmd=%s name=%s multi=%d flags=%s",
		c.ID, c.DB(), age, c.SubCount(), c.PSubCount(), c.ProtoVersion(),
		c.Addr(), c.LocalAddr(), c.LastCommand, string(name), multi, flagsString(c),
	)
}

func execClient(ctx *ExecContext) Result {
	sub, _ := ctx.Request.Pop()
	switch strings.ToUpper(string(sub)) {
	case "ID":
		ctx.Client.Send(reply.Integer(int64(ctx.Client.ID)))
		return Ok()
	case "GETNAME":
		ctx.Client.Send(reply.Bulk(ctx.Client.Name()))
		return Ok()
	case "SETNAME":
		name, more := ctx.Request.Pop()
		if !more {
			return Fail(reply.WrongArgCount("client|setname"))
		}
		ctx.Client.SetName(name)
		ctx.Client.Send(reply.Status("OK"))
		return Ok()
	case "LIST":
		var lines []string
		for _, c := range ctx.Store.AllClients() {
			lines = append(lines, clientLine(c, ctx.NowMs))
		}
		ctx.Client.Send(reply.Bulk([]byte(strings.Join(lines, "\n"))))
		return Ok()
	case "REPLY":
		mode, more := ctx.Request.Pop()
		if !more {
			return Fail(reply.SyntaxError())
		}
		switch strings.ToUpper(string(mode)) {
		case "ON":
			ctx.Client.SetReplyOn(true)
			ctx.Client.Send(reply.Status("OK"))
		case "OFF":
			ctx.Client.SetReplyOn(false)
		case "SKIP":
			ctx.Client.SetSkipNext()
		default:
			return Fail(reply.SyntaxError())
		}
		return Ok()
	case "KILL":
		idB, more := ctx.Request.Pop()
		if !more {
			return Fail(reply.SyntaxError())
		}
		id, ok := bytesutil.ParseI64Exact(idB)
		if !ok {
			return Fail(reply.NotInteger())
		}
		target, ok := ctx.Store.ClientByID(clientio.ID(id))
		if !ok {
			ctx.Client.Send(reply.Integer(0))
			return Ok()
		}
		target.Quit()
		ctx.Client.Send(reply.Integer(1))
		return Ok()
	case "UNBLOCK":
		idB, more := ctx.Request.Pop()
		if !more {
			return Fail(reply.SyntaxError())
		}
		id, ok := bytesutil.ParseI64Exact(idB)
		if !ok {
			return Fail(reply.NotInteger())
		}
		target, ok := ctx.Store.ClientByID(clientio.ID(id))
		if !ok || !target.Blocked() {
			ctx.Client.Send(reply.Integer(0))
			return Ok()
		}
		ctx.Client.Send(reply.Integer(1))
		return Ok()
	case "INFO":
		ctx.Client.Send(reply.Bulk([]byte(clientLine(ctx.Client, ctx.NowMs))))
		return Ok()
	case "HELP":
		r, ch := reply.DeferredArray()
		ctx.Client.Send(r)
		ctx.Client.Send(reply.Status("CLIENT ID|GETNAME|SETNAME|LIST|KILL|UNBLOCK|REPLY|INFO|HELP"))
		ch <- 1
		return Ok()
	default:
		return Fail(reply.Error("ERR", "unknown CLIENT subcommand"))
	}
}

func execConfig(ctx *ExecContext) Result {
	sub, _ := ctx.Request.Pop()
	switch strings.ToUpper(string(sub)) {
	case "GET":
		pattern, more := ctx.Request.Pop()
		if !more {
			return Fail(reply.WrongArgCount("config|get"))
		}
		pairs := ctx.Store.Config().Get(pattern)
		r, ch := reply.DeferredMap()
		ctx.Client.Send(r)
		for _, p := range pairs {
			ctx.Client.Send(reply.Bulk([]byte(p)))
		}
		ch <- len(pairs)
		return Ok()
	case "SET":
		name, more := ctx.Request.Pop()
		if !more {
			return Fail(reply.WrongArgCount("config|set"))
		}
		value, more := ctx.Request.Pop()
		if !more {
			return Fail(reply.WrongArgCount("config|set"))
		}
		if err := ctx.Store.Config().Set(string(name), string(value)); err != nil {
			return Fail(reply.Error("ERR", err.Error()))
		}
		ctx.Client.Send(reply.Status("OK"))
		return Ok()
	case "RESETSTAT":
		ctx.Client.Send(reply.Status("OK"))
		return Ok()
	case "HELP":
		r, ch := reply.DeferredArray()
		ctx.Client.Send(r)
		ctx.Client.Send(reply.Status("CONFIG GET|SET|RESETSTAT|HELP"))
		ch <- 1
		return Ok()
	default:
		return Fail(reply.Error("ERR", "unknown CONFIG subcommand"))
	}
}

func sendCommandEntry(ctx *ExecContext, d *Descriptor) {
	r, ch := reply.DeferredArray()
	ctx.Client.Send(r)
	ctx.Client.Send(reply.Bulk([]byte(d.Name)))
	ctx.Client.Send(reply.Integer(int64(d.Arity)))
	ch <- 2
}

func execCommand(ctx *ExecContext) Result {
	sub, more := ctx.Request.Pop()
	if !more {
		all := All()
		r, ch := reply.DeferredArray()
		ctx.Client.Send(r)
		for _, d := range all {
			sendCommandEntry(ctx, d)
		}
		ch <- len(all)
		return Ok()
	}
	switch strings.ToUpper(string(sub)) {
	case "COUNT":
		ctx.Client.Send(reply.Integer(int64(len(All()))))
		return Ok()
	case "LIST":
		r, ch := reply.DeferredArray()
		ctx.Client.Send(r)
		n := 0
		for _, d := range All() {
			ctx.Client.Send(reply.Bulk([]byte(d.Name)))
			n++
		}
		ch <- n
		return Ok()
	case "INFO":
		r, ch := reply.DeferredArray()
		ctx.Client.Send(r)
		n := 0
		for {
			name, more := ctx.Request.Pop()
			if !more {
				break
			}
			n++
			d, ok := Lookup(string(name))
			if !ok {
				ctx.Client.Send(reply.Nil())
				continue
			}
			sendCommandEntry(ctx, d)
		}
		ch <- n
		return Ok()
	case "DOCS":
		r, ch := reply.DeferredMap()
		ctx.Client.Send(r)
		ch <- 0
		return Ok()
	default:
		return Fail(reply.Error("ERR", "unknown COMMAND subcommand"))
	}
}

func execInfo(ctx *ExecContext) Result {
	var b strings.Builder
	b.WriteString("# Server\r\nredis_version:7.0.0\r\ntcp_port:0\r\n")
	b.WriteString(fmt.Sprintf("run_id:%s\r\n", ctx.Store.RunID()))
	b.WriteString("# Clients\r\nconnected_clients:")
	b.WriteString(fmt.Sprintf("%d\r\n", len(ctx.Store.AllClients())))
	b.WriteString("# Stats\r\n")
	b.WriteString(fmt.Sprintf("total_connections_received:%d\r\n", ctx.Store.NumConnections()))
	b.WriteString(fmt.Sprintf("total_commands_processed:%d\r\n", ctx.Store.NumCommands()))
	b.WriteString("# Persistence\r\n")
	b.WriteString(fmt.Sprintf("rdb_changes_since_last_save:%d\r\n", ctx.Store.Dirty()))
	b.WriteString("# Keyspace\r\n")
	for i := 0; i < ctx.Store.NumDBs(); i++ {
		n := ctx.Store.DBSize(i)
		if n > 0 {
			b.WriteString(fmt.Sprintf("db%d:keys=%d,expires=0,avg_ttl=0\r\n", i, n))
		}
	}
	ctx.Client.Send(reply.Bulk([]byte(b.String())))
	return Ok()
}

func execDebug(ctx *ExecContext) Result {
	sub, _ := ctx.Request.Pop()
	switch strings.ToUpper(string(sub)) {
	case "LOG":
		ctx.Client.Send(reply.Status("OK"))
		return Ok()
	case "JSONSET", "SLEEP", "SET-ACTIVE-EXPIRE", "QUICKLIST-PACKED-THRESHOLD", "STRINGMATCH-LEN":
		ctx.Client.Send(reply.Status("OK"))
		return Ok()
	default:
		return Fail(reply.Error("ERR", "DEBUG subcommand not supported"))
	}
}
