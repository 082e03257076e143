package command

import (
	"strings"

	"vredis/internal/bytesutil"
	"vredis/internal/clientio"
	"vredis/internal/pubsub"
	"vredis/internal/reply"
)

func init() {
	register(&Descriptor{Name: "subscribe", Arity: -2, KeyLayout: KeyLayout{Kind: KeyNone}, PubSub: true, NoScript: true, Executor: execSubscribe})
	register(&Descriptor{Name: "unsubscribe", Arity: -1, KeyLayout: KeyLayout{Kind: KeyNone}, PubSub: true, NoScript: true, Executor: execUnsubscribe})
	register(&Descriptor{Name: "psubscribe", Arity: -2, KeyLayout: KeyLayout{Kind: KeyNone}, PubSub: true, NoScript: true, Executor: execPSubscribe})
	register(&Descriptor{Name: "punsubscribe", Arity: -1, KeyLayout: KeyLayout{Kind: KeyNone}, PubSub: true, NoScript: true, Executor: execPUnsubscribe})
	register(&Descriptor{Name: "publish", Arity: 3, KeyLayout: KeyLayout{Kind: KeyNone}, PubSub: true, Write: true, Executor: execPublish})
	register(&Descriptor{Name: "pubsub", Arity: -2, KeyLayout: KeyLayout{Kind: KeyNone}, PubSub: true, Executor: execPubSub})
}

func pushMessage(client *clientio.Client, parts ...[]byte) {
	r := reply.Push(len(parts))
	client.Send(r)
	for _, p := range parts {
		client.Send(reply.Bulk(p))
	}
}

func pubsubSender(client *clientio.Client) pubsub.Sender {
	return func(m pubsub.Message) {
		switch m.Kind {
		case "message":
			pushMessage(client, []byte("message"), []byte(m.Channel), m.Payload)
		case "pmessage":
			pushMessage(client, []byte("pmessage"), []byte(m.Pattern), []byte(m.Channel), m.Payload)
		}
	}
}

func execSubscribe(ctx *ExecContext) Result {
	id := pubsub.ClientID(ctx.Client.ID)
	var count int
	for {
		channel, more := ctx.Request.Pop()
		if !more {
			break
		}
		count = ctx.Store.PubSub().Subscribe(id, string(channel), pubsubSender(ctx.Client))
		ctx.Client.SetSubCount(count - ctx.Client.PSubCount())
		pushMessage(ctx.Client, []byte("subscribe"), channel, bytesutil.FormatI64(int64(count)))
	}
	return Ok()
}

func execUnsubscribe(ctx *ExecContext) Result {
	id := pubsub.ClientID(ctx.Client.ID)
	channels := ctx.Store.PubSub().Channels(id)
	var requested [][]byte
	for {
		channel, more := ctx.Request.Pop()
		if !more {
			break
		}
		requested = append(requested, channel)
	}
	if len(requested) == 0 {
		for _, c := range channels {
			requested = append(requested, []byte(c))
		}
	}
	if len(requested) == 0 {
		pushMessage(ctx.Client, []byte("unsubscribe"), nil, []byte("0"))
		return Ok()
	}
	for _, channel := range requested {
		count := ctx.Store.PubSub().Unsubscribe(id, string(channel))
		ctx.Client.SetSubCount(count - ctx.Client.PSubCount())
		pushMessage(ctx.Client, []byte("unsubscribe"), channel, bytesutil.FormatI64(int64(count)))
	}
	return Ok()
}

func execPSubscribe(ctx *ExecContext) Result {
	id := pubsub.ClientID(ctx.Client.ID)
	for {
		pattern, more := ctx.Request.Pop()
		if !more {
			break
		}
		count := ctx.Store.PubSub().PSubscribe(id, string(pattern), pubsubSender(ctx.Client))
		ctx.Client.SetPSubCount(count - ctx.Client.SubCount())
		pushMessage(ctx.Client, []byte("psubscribe"), pattern, bytesutil.FormatI64(int64(count)))
	}
	return Ok()
}

func execPUnsubscribe(ctx *ExecContext) Result {
	id := pubsub.ClientID(ctx.Client.ID)
	patterns := ctx.Store.PubSub().Patterns(id)
	var requested [][]byte
	for {
		pattern, more := ctx.Request.Pop()
		if !more {
			break
		}
		requested = append(requested, pattern)
	}
	if len(requested) == 0 {
		for _, p := range patterns {
			requested = append(requested, []byte(p))
		}
	}
	if len(requested) == 0 {
		pushMessage(ctx.Client, []byte("punsubscribe"), nil, []byte("0"))
		return Ok()
	}
	for _, pattern := range requested {
		count := ctx.Store.PubSub().PUnsubscribe(id, string(pattern))
		ctx.Client.SetPSubCount(count - ctx.Client.SubCount())
		pushMessage(ctx.Client, []byte("punsubscribe"), pattern, bytesutil.FormatI64(int64(count)))
	}
	return Ok()
}

func execPublish(ctx *ExecContext) Result {
	channel, _ := ctx.Request.Pop()
	payload, _ := ctx.Request.Pop()
	n := ctx.Store.PubSub().Publish(string(channel), payload)
	ctx.Client.Send(reply.Integer(int64(n)))
	return Ok()
}

func execPubSub(ctx *ExecContext) Result {
	sub, _ := ctx.Request.Pop()
	switch strings.ToUpper(string(sub)) {
	case "CHANNELS":
		var pattern []byte
		if p, more := ctx.Request.Pop(); more {
			pattern = p
		} else {
			pattern = []byte("*")
		}
		channels := ctx.Store.PubSub().ActiveChannels(pattern)
		r, ch := reply.DeferredArray()
		ctx.Client.Send(r)
		for _, c := range channels {
			ctx.Client.Send(reply.Bulk([]byte(c)))
		}
		ch <- len(channels)
		return Ok()
	case "NUMSUB":
		var channels []string
		for {
			c, more := ctx.Request.Pop()
			if !more {
				break
			}
			channels = append(channels, string(c))
		}
		counts := ctx.Store.PubSub().NumSub(channels)
		r, ch := reply.DeferredMap()
		ctx.Client.Send(r)
		for i, c := range channels {
			ctx.Client.Send(reply.Bulk([]byte(c)))
			ctx.Client.Send(reply.Integer(int64(counts[i])))
		}
		ch <- len(channels)
		return Ok()
	case "NUMPAT":
		ctx.Client.Send(reply.Integer(int64(ctx.Store.PubSub().NumPat())))
		return Ok()
	default:
		return Fail(reply.Error("ERR", "unknown PUBSUB subcommand"))
	}
}
