package pubsub

import "testing"

func collectMessages(dst *[]Message) Sender {
	return func(m Message) { *dst = append(*dst, m) }
}

func TestSubscribePublishExactMatch(t *testing.T) {
	r := New()
	var got []Message
	r.Subscribe(1, "news", collectMessages(&got))

	n := r.Publish("news", []byte("hello"))
	if n != 1 {
		t.Fatalf("receivers = %d, want 1", n)
	}
	if len(got) != 1 || got[0].Kind != "message" || got[0].Channel != "news" {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	r := New()
	if n := r.Publish("nobody", []byte("x")); n != 0 {
		t.Fatalf("receivers = %d, want 0", n)
	}
}

func TestPSubscribePublishPatternMatch(t *testing.T) {
	r := New()
	var got []Message
	r.PSubscribe(1, "news.*", collectMessages(&got))

	n := r.Publish("news.sports", []byte("score"))
	if n != 1 {
		t.Fatalf("receivers = %d, want 1", n)
	}
	if len(got) != 1 || got[0].Kind != "pmessage" || got[0].Pattern != "news.*" || got[0].Channel != "news.sports" {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestPublishFansOutToBothChannelAndPatternSubscribers(t *testing.T) {
	r := New()
	var exact, pat []Message
	r.Subscribe(1, "news.sports", collectMessages(&exact))
	r.PSubscribe(2, "news.*", collectMessages(&pat))

	n := r.Publish("news.sports", []byte("score"))
	if n != 2 {
		t.Fatalf("receivers = %d, want 2", n)
	}
	if len(exact) != 1 || len(pat) != 1 {
		t.Fatalf("exact=%d pat=%d, want 1,1", len(exact), len(pat))
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	r := New()
	var got []Message
	r.Subscribe(1, "news", collectMessages(&got))
	if n := r.Unsubscribe(1, "news"); n != 0 {
		t.Fatalf("count after unsubscribe = %d, want 0", n)
	}
	r.Publish("news", []byte("hello"))
	if len(got) != 0 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", len(got))
	}
}

func TestCountTracksChannelsAndPatterns(t *testing.T) {
	r := New()
	r.Subscribe(1, "a", func(Message) {})
	if n := r.Subscribe(1, "b", func(Message) {}); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	if n := r.PSubscribe(1, "c.*", func(Message) {}); n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
}

func TestRemoveClientClearsAllSubscriptions(t *testing.T) {
	r := New()
	var got []Message
	r.Subscribe(1, "a", collectMessages(&got))
	r.PSubscribe(1, "b.*", collectMessages(&got))
	r.RemoveClient(1)

	if r.Count(1) != 0 {
		t.Fatalf("count after RemoveClient = %d, want 0", r.Count(1))
	}
	r.Publish("a", []byte("x"))
	r.Publish("b.x", []byte("y"))
	if len(got) != 0 {
		t.Fatalf("expected no delivery after RemoveClient, got %d", len(got))
	}
}

func TestActiveChannelsFiltersByPattern(t *testing.T) {
	r := New()
	r.Subscribe(1, "news.sports", func(Message) {})
	r.Subscribe(1, "news.weather", func(Message) {})
	r.Subscribe(1, "other", func(Message) {})

	got := r.ActiveChannels([]byte("news.*"))
	if len(got) != 2 {
		t.Fatalf("ActiveChannels = %v, want 2 entries", got)
	}
}

func TestNumSubAndNumPat(t *testing.T) {
	r := New()
	r.Subscribe(1, "a", func(Message) {})
	r.Subscribe(2, "a", func(Message) {})
	r.Subscribe(1, "b", func(Message) {})
	r.PSubscribe(1, "p.*", func(Message) {})

	counts := r.NumSub([]string{"a", "b", "missing"})
	if counts[0] != 2 || counts[1] != 1 || counts[2] != 0 {
		t.Fatalf("NumSub = %v, want [2 1 0]", counts)
	}
	if r.NumPat() != 1 {
		t.Fatalf("NumPat = %d, want 1", r.NumPat())
	}
}

func TestCaseSensitivePublish(t *testing.T) {
	r := New()
	var got []Message
	r.Subscribe(1, "News", collectMessages(&got))
	r.Publish("news", []byte("x"))
	if len(got) != 0 {
		t.Fatalf("expected case-sensitive channel match to not deliver, got %d", len(got))
	}
}
