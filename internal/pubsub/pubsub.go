// Package pubsub implements the store's publish/subscribe registry
// (§4.9): bidirectional channel and pattern subscription maps with
// glob-matched fan-out.
//
// Grounded on the teacher's internal/storage/pubsub.go for the overall
// shape (subscriber handles pushed into per-channel maps, a Message
// struct carrying the push kind), but the teacher's PatternTrie prefix
// index is dropped: a trie only prunes candidates sharing a literal
// pattern prefix, and the spec does not call for that optimization over
// a linear scan through the (typically tiny) pattern subscription set —
// see DESIGN.md.
package pubsub

import "vredis/internal/glob"

// ClientID identifies a subscribing client.
type ClientID int64

// Message is one push delivered to a subscriber.
type Message struct {
	Kind    string // "message" or "pmessage"
	Channel string
	Pattern string // set only for "pmessage"
	Payload []byte
}

// Sender delivers a push to one subscriber. The store supplies this as a
// thin wrapper around the client's reply channel.
type Sender func(Message)

type subscriber struct {
	id   ClientID
	send Sender
}

// Registry holds the channel and pattern subscription maps.
type Registry struct {
	channels map[string]map[ClientID]subscriber
	patterns map[string]map[ClientID]subscriber
	byClient map[ClientID]*clientSubs
}

type clientSubs struct {
	channels map[string]struct{}
	patterns map[string]struct{}
}

// New returns an empty pub/sub registry.
func New() *Registry {
	return &Registry{
		channels: make(map[string]map[ClientID]subscriber),
		patterns: make(map[string]map[ClientID]subscriber),
		byClient: make(map[ClientID]*clientSubs),
	}
}

func (r *Registry) clientEntry(id ClientID) *clientSubs {
	cs, ok := r.byClient[id]
	if !ok {
		cs = &clientSubs{channels: make(map[string]struct{}), patterns: make(map[string]struct{})}
		r.byClient[id] = cs
	}
	return cs
}

// Subscribe adds id as a subscriber of channel, returning its new total
// subscription count (channels + patterns).
func (r *Registry) Subscribe(id ClientID, channel string, send Sender) int {
	subs, ok := r.channels[channel]
	if !ok {
		subs = make(map[ClientID]subscriber)
		r.channels[channel] = subs
	}
	subs[id] = subscriber{id: id, send: send}
	r.clientEntry(id).channels[channel] = struct{}{}
	return r.Count(id)
}

// PSubscribe adds id as a subscriber of pattern, returning its new total
// subscription count.
func (r *Registry) PSubscribe(id ClientID, pattern string, send Sender) int {
	subs, ok := r.patterns[pattern]
	if !ok {
		subs = make(map[ClientID]subscriber)
		r.patterns[pattern] = subs
	}
	subs[id] = subscriber{id: id, send: send}
	r.clientEntry(id).patterns[pattern] = struct{}{}
	return r.Count(id)
}

// Unsubscribe removes id from channel, returning its new total
// subscription count.
func (r *Registry) Unsubscribe(id ClientID, channel string) int {
	if subs := r.channels[channel]; subs != nil {
		delete(subs, id)
		if len(subs) == 0 {
			delete(r.channels, channel)
		}
	}
	if cs, ok := r.byClient[id]; ok {
		delete(cs.channels, channel)
	}
	return r.Count(id)
}

// PUnsubscribe removes id from pattern, returning its new total
// subscription count.
func (r *Registry) PUnsubscribe(id ClientID, pattern string) int {
	if subs := r.patterns[pattern]; subs != nil {
		delete(subs, id)
		if len(subs) == 0 {
			delete(r.patterns, pattern)
		}
	}
	if cs, ok := r.byClient[id]; ok {
		delete(cs.patterns, pattern)
	}
	return r.Count(id)
}

// Channels returns id's current channel subscriptions.
func (r *Registry) Channels(id ClientID) []string {
	cs, ok := r.byClient[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(cs.channels))
	for c := range cs.channels {
		out = append(out, c)
	}
	return out
}

// Patterns returns id's current pattern subscriptions.
func (r *Registry) Patterns(id ClientID) []string {
	cs, ok := r.byClient[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(cs.patterns))
	for p := range cs.patterns {
		out = append(out, p)
	}
	return out
}

// Count returns id's total subscription count (channels + patterns).
func (r *Registry) Count(id ClientID) int {
	cs, ok := r.byClient[id]
	if !ok {
		return 0
	}
	return len(cs.channels) + len(cs.patterns)
}

// RemoveClient clears every subscription id holds (disconnect).
func (r *Registry) RemoveClient(id ClientID) {
	cs, ok := r.byClient[id]
	if !ok {
		return
	}
	for c := range cs.channels {
		if subs := r.channels[c]; subs != nil {
			delete(subs, id)
			if len(subs) == 0 {
				delete(r.channels, c)
			}
		}
	}
	for p := range cs.patterns {
		if subs := r.patterns[p]; subs != nil {
			delete(subs, id)
			if len(subs) == 0 {
				delete(r.patterns, p)
			}
		}
	}
	delete(r.byClient, id)
}

// Publish fans a payload out to every exact subscriber of channel and to
// every pattern subscriber whose pattern glob-matches channel, returning
// the number of receivers. Per §5's ordering guarantee, every push named
// here is enqueued on its subscriber's reply channel before Publish
// returns.
func (r *Registry) Publish(channel string, payload []byte) int {
	receivers := 0
	for _, sub := range r.channels[channel] {
		sub.send(Message{Kind: "message", Channel: channel, Payload: payload})
		receivers++
	}
	for pattern, subs := range r.patterns {
		if !glob.Match([]byte(channel), []byte(pattern)) {
			continue
		}
		for _, sub := range subs {
			sub.send(Message{Kind: "pmessage", Channel: channel, Pattern: pattern, Payload: payload})
			receivers++
		}
	}
	return receivers
}

// ActiveChannels returns every channel with at least one subscriber,
// optionally filtered by a glob pattern (nil means no filter).
func (r *Registry) ActiveChannels(pattern []byte) []string {
	out := make([]string, 0, len(r.channels))
	for c := range r.channels {
		if pattern != nil && !glob.Match([]byte(c), pattern) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// NumSub returns the subscriber count for each requested channel.
func (r *Registry) NumSub(channels []string) []int {
	out := make([]int, len(channels))
	for i, c := range channels {
		out[i] = len(r.channels[c])
	}
	return out
}

// NumPat returns the number of distinct patterns with at least one
// subscriber.
func (r *Registry) NumPat() int { return len(r.patterns) }
