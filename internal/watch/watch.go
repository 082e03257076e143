// Package watch implements the store's WATCH/MULTI/EXEC invalidation
// registry (§4.8). No teacher package covers optimistic-lock watching; the
// shape mirrors internal/blocking's bidirectional (key, client) index
// since both are "who cares about this key" registries, generalized here
// to one-shot touch-then-forget semantics instead of FIFO wait queues.
package watch

// ClientID identifies a watching client.
type ClientID int64

// Key names one (database, key) pair a client can watch.
type Key struct {
	DB  int
	Key string
}

// Registry tracks, for every (db, key), the set of clients watching it,
// the reverse index needed to clear a client's watches in one pass, and
// the set of clients whose watched keys have been touched since WATCH.
type Registry struct {
	watchers map[Key]map[ClientID]struct{}
	byClient map[ClientID]map[Key]struct{}
	dirty    map[ClientID]struct{}
}

// New returns an empty watch registry.
func New() *Registry {
	return &Registry{
		watchers: make(map[Key]map[ClientID]struct{}),
		byClient: make(map[ClientID]map[Key]struct{}),
		dirty:    make(map[ClientID]struct{}),
	}
}

// Add records that client id is now watching key.
func (r *Registry) Add(id ClientID, k Key) {
	ws, ok := r.watchers[k]
	if !ok {
		ws = make(map[ClientID]struct{})
		r.watchers[k] = ws
	}
	ws[id] = struct{}{}

	ks, ok := r.byClient[id]
	if !ok {
		ks = make(map[Key]struct{})
		r.byClient[id] = ks
	}
	ks[k] = struct{}{}
}

// Remove clears every watch client id holds (called on EXEC, DISCARD,
// UNWATCH, or disconnect).
func (r *Registry) Remove(id ClientID) {
	for k := range r.byClient[id] {
		if ws := r.watchers[k]; ws != nil {
			delete(ws, id)
			if len(ws) == 0 {
				delete(r.watchers, k)
			}
		}
	}
	delete(r.byClient, id)
	delete(r.dirty, id)
}

// Touch is called whenever key is written: every current watcher of key
// is marked dirty and its watch on key is removed (watches are one-shot).
func (r *Registry) Touch(k Key) {
	ws, ok := r.watchers[k]
	if !ok {
		return
	}
	for id := range ws {
		r.dirty[id] = struct{}{}
		if ks := r.byClient[id]; ks != nil {
			delete(ks, k)
		}
	}
	delete(r.watchers, k)
}

// IsDirty reports whether any of id's watched keys have been touched
// since it last issued WATCH/EXEC.
func (r *Registry) IsDirty(id ClientID) bool {
	_, ok := r.dirty[id]
	return ok
}
