package datastore

// Database is a database index's pair of maps over the same key space —
// values and their optional expirations — implementing the lazy-expiry
// contract of §4.5: read-only lookups never evict an expired key, only a
// mutating lookup (GetMut) or an explicit sweep removes it.
//
// Every method that needs "now" takes it as an explicit argument (ms
// since epoch) rather than calling time.Now() itself, so a store driving
// many databases can stamp one timestamp per request and so tests can
// exercise expiry deterministically.
type Database struct {
	values  map[string]Value
	expires map[string]int64
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{values: make(map[string]Value), expires: make(map[string]int64)}
}

func (d *Database) expired(key string, nowMs int64) bool {
	at, ok := d.expires[key]
	return ok && at <= nowMs
}

// Get returns the value for key, or false if absent or expired. It never
// mutates the database, even when the key has logically expired.
func (d *Database) Get(key []byte, nowMs int64) (Value, bool) {
	k := string(key)
	v, ok := d.values[k]
	if !ok || d.expired(k, nowMs) {
		return nil, false
	}
	return v, true
}

// GetMut returns the value for key for in-place mutation, reaping it
// first if it has expired.
func (d *Database) GetMut(key []byte, nowMs int64) (Value, bool) {
	k := string(key)
	if d.expired(k, nowMs) {
		delete(d.values, k)
		delete(d.expires, k)
		return nil, false
	}
	v, ok := d.values[k]
	return v, ok
}

// Set inserts or replaces key's value, clearing any expiration.
func (d *Database) Set(key []byte, value Value) {
	k := string(key)
	d.values[k] = value
	delete(d.expires, k)
}

// Overwrite inserts or replaces key's value, preserving its expiration
// unless the old value had already expired, in which case this behaves
// like Set.
func (d *Database) Overwrite(key []byte, value Value, nowMs int64) {
	k := string(key)
	if d.expired(k, nowMs) {
		delete(d.expires, k)
	}
	d.values[k] = value
}

// SetEx inserts key with value and an absolute expiration at atMs. If
// atMs is already due (<= nowMs), no change is made; the caller decides
// whether to instead delete the key.
func (d *Database) SetEx(key []byte, value Value, atMs, nowMs int64) {
	if atMs <= nowMs {
		return
	}
	k := string(key)
	d.values[k] = value
	d.expires[k] = atMs
}

// Expire sets key's expiration to atMs if key is present and not already
// expired, returning true. An already-expired key is reaped and Expire
// returns false; an absent key also returns false.
func (d *Database) Expire(key []byte, atMs, nowMs int64) bool {
	k := string(key)
	if d.expired(k, nowMs) {
		delete(d.values, k)
		delete(d.expires, k)
		return false
	}
	if _, ok := d.values[k]; !ok {
		return false
	}
	d.expires[k] = atMs
	return true
}

// Persist removes key's expiration, returning whether one existed.
func (d *Database) Persist(key []byte) bool {
	k := string(key)
	if _, ok := d.expires[k]; !ok {
		return false
	}
	delete(d.expires, k)
	return true
}

// Remove deletes key's value and expiration, returning the value if it
// existed and had not already expired.
func (d *Database) Remove(key []byte, nowMs int64) (Value, bool) {
	k := string(key)
	if d.expired(k, nowMs) {
		delete(d.values, k)
		delete(d.expires, k)
		return nil, false
	}
	v, ok := d.values[k]
	if ok {
		delete(d.values, k)
		delete(d.expires, k)
	}
	return v, ok
}

// TTL returns the remaining ms until key expires, or false for a
// non-volatile or already-expired key.
func (d *Database) TTL(key []byte, nowMs int64) (int64, bool) {
	at, ok := d.ExpiresAt(key, nowMs)
	if !ok {
		return 0, false
	}
	return at - nowMs, true
}

// ExpiresAt returns the absolute expiration for key, or false for a
// non-volatile or already-expired key.
func (d *Database) ExpiresAt(key []byte, nowMs int64) (int64, bool) {
	k := string(key)
	at, ok := d.expires[k]
	if !ok || at <= nowMs {
		return 0, false
	}
	return at, true
}

// Keys returns every non-expired key.
func (d *Database) Keys(nowMs int64) [][]byte {
	out := make([][]byte, 0, len(d.values))
	for k := range d.values {
		if d.expired(k, nowMs) {
			continue
		}
		out = append(out, []byte(k))
	}
	return out
}

// Len returns the number of non-expired keys.
func (d *Database) Len(nowMs int64) int {
	if len(d.expires) == 0 {
		return len(d.values)
	}
	n := 0
	for k := range d.values {
		if !d.expired(k, nowMs) {
			n++
		}
	}
	return n
}
