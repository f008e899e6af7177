package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestIndexKey(t *testing.T) {
	k1 := IndexKey("whale", "Call me Ishmael.")
	k2 := IndexKey("whale", "Call me Ishmael.")
	if k1 != k2 {
		t.Error("same book and text must produce the same key")
	}

	if IndexKey("whale", "Call me Ishmael.") == IndexKey("whale", "Call me Ishmael!") {
		t.Error("edited text must change the key")
	}
	if IndexKey("whale", "text") == IndexKey("voyage", "text") {
		t.Error("different books must not collide")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("absent"); found {
		t.Error("unexpected hit for absent key")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || !bytes.Equal(val, []byte("v")) {
		t.Errorf("got (%q, %v), want (v, true)", val, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("key survived delete")
	}
}

func TestDiskCache(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if _, found := c.Get("absent"); found {
		t.Error("unexpected hit for absent key")
	}

	if err := c.Set("k", []byte("payload"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || !bytes.Equal(val, []byte("payload")) {
		t.Errorf("got (%q, %v), want (payload, true)", val, found)
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("expired entry served")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredCache(time.Minute, dir, time.Minute)

	// Seed only the disk layer, as a previous run would have.
	disk := NewDiskCache(dir, time.Minute)
	if err := disk.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("seed disk: %v", err)
	}

	val, found := layered.Get("k")
	if !found || !bytes.Equal(val, []byte("v")) {
		t.Fatalf("disk value not served: (%q, %v)", val, found)
	}

	// The hit must now live in memory too.
	if _, found := layered.memory.Get("k"); !found {
		t.Error("disk hit was not promoted to memory")
	}
}
