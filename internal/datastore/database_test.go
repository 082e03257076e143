package datastore

import "testing"

func TestDatabaseSetGet(t *testing.T) {
	d := NewDatabase()
	d.Set([]byte("k"), NewString([]byte("v")))
	v, ok := d.Get([]byte("k"), 1000)
	if !ok {
		t.Fatal("expected key present")
	}
	if sv, _ := v.(*StringValue); sv == nil || string(sv.Bytes()) != "v" {
		t.Fatalf("Get = %v", v)
	}
}

func TestDatabaseGetDoesNotEvictExpired(t *testing.T) {
	d := NewDatabase()
	d.SetEx([]byte("k"), NewString([]byte("v")), 1000, 0)
	if _, ok := d.Get([]byte("k"), 2000); ok {
		t.Fatal("expected expired key to read as absent")
	}
	if d.Len(0) != 1 {
		t.Fatal("Get must not have evicted the expired key")
	}
}

func TestDatabaseGetMutEvictsExpired(t *testing.T) {
	d := NewDatabase()
	d.SetEx([]byte("k"), NewString([]byte("v")), 1000, 0)
	if _, ok := d.GetMut([]byte("k"), 2000); ok {
		t.Fatal("expected expired key to read as absent")
	}
	if d.Len(0) != 0 {
		t.Fatal("GetMut must evict the expired key")
	}
}

func TestDatabaseSetClearsExpiration(t *testing.T) {
	d := NewDatabase()
	d.SetEx([]byte("k"), NewString([]byte("v")), 1000, 0)
	d.Set([]byte("k"), NewString([]byte("v2")))
	if _, ok := d.ExpiresAt([]byte("k"), 0); ok {
		t.Fatal("Set should have cleared the expiration")
	}
}

func TestDatabaseOverwritePreservesExpiration(t *testing.T) {
	d := NewDatabase()
	d.SetEx([]byte("k"), NewString([]byte("v")), 5000, 0)
	d.Overwrite([]byte("k"), NewString([]byte("v2")), 0)
	at, ok := d.ExpiresAt([]byte("k"), 0)
	if !ok || at != 5000 {
		t.Fatalf("ExpiresAt = %d, %v, want 5000, true", at, ok)
	}
}

func TestDatabaseSetExNoChangeWhenAlreadyDue(t *testing.T) {
	d := NewDatabase()
	d.SetEx([]byte("k"), NewString([]byte("v")), 500, 1000)
	if _, ok := d.Get([]byte("k"), 1000); ok {
		t.Fatal("expected no-op when atMs <= nowMs")
	}
}

func TestDatabaseExpirePersist(t *testing.T) {
	d := NewDatabase()
	d.Set([]byte("k"), NewString([]byte("v")))
	if !d.Expire([]byte("k"), 5000, 0) {
		t.Fatal("expected Expire to succeed on a present key")
	}
	ttl, ok := d.TTL([]byte("k"), 1000)
	if !ok || ttl != 4000 {
		t.Fatalf("TTL = %d, %v, want 4000, true", ttl, ok)
	}
	if !d.Persist([]byte("k")) {
		t.Fatal("expected Persist to report an existing expiration")
	}
	if d.Persist([]byte("k")) {
		t.Fatal("second Persist should report false")
	}
}

func TestDatabaseExpireOnAbsentKey(t *testing.T) {
	d := NewDatabase()
	if d.Expire([]byte("missing"), 5000, 0) {
		t.Fatal("expected Expire on absent key to fail")
	}
}

func TestDatabaseExpireReapsAlreadyExpired(t *testing.T) {
	d := NewDatabase()
	d.SetEx([]byte("k"), NewString([]byte("v")), 1000, 0)
	if d.Expire([]byte("k"), 5000, 2000) {
		t.Fatal("expected Expire on an already-expired key to fail")
	}
	if d.Len(2000) != 0 {
		t.Fatal("expected the already-expired key to be reaped")
	}
}

func TestDatabaseRemove(t *testing.T) {
	d := NewDatabase()
	d.Set([]byte("k"), NewString([]byte("v")))
	v, ok := d.Remove([]byte("k"), 0)
	if !ok || v == nil {
		t.Fatal("expected remove to return the value")
	}
	if _, ok := d.Remove([]byte("k"), 0); ok {
		t.Fatal("second remove should report false")
	}
}

func TestDatabaseKeysFiltersExpired(t *testing.T) {
	d := NewDatabase()
	d.Set([]byte("a"), NewString([]byte("1")))
	d.SetEx([]byte("b"), NewString([]byte("2")), 1000, 0)
	keys := d.Keys(2000)
	if len(keys) != 1 || string(keys[0]) != "a" {
		t.Fatalf("Keys = %v, want [a]", keys)
	}
}
