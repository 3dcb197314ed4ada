package disk

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
)

func TestCachePutGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	content := []byte("OAF\x01hello")
	key := digest.FromString("http://example.com/f1.oaf")

	if _, ok := c.Get(key); ok {
		t.Fatal("Get() ok = true before Put, want false")
	}
	if putErr := c.Put(key, content); putErr != nil {
		t.Fatalf("Put() error = %v", putErr)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("Get() content = %q, want %q", got, content)
	}

	hexKey := key.Encoded()
	path := filepath.Join(dir, hexKey[:defaultShardPrefixLen], "sha256-"+hexKey)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected cache file at %s: %v", path, err)
	}
	if perm := info.Mode().Perm(); perm != defaultFilePerm {
		t.Fatalf("cache file perm = %o, want %o", perm, defaultFilePerm)
	}
}

func TestCacheShardDisable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, WithShardPrefixLen(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := digest.FromString("a")
	if putErr := c.Put(key, []byte("a")); putErr != nil {
		t.Fatalf("Put() error = %v", putErr)
	}
	if _, err := os.Stat(filepath.Join(dir, "sha256-"+key.Encoded())); err != nil {
		t.Fatalf("expected unsharded cache file: %v", err)
	}
}

func TestCachePutKeepsExisting(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := digest.FromString("k")
	if err := c.Put(key, []byte("first")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := c.Put(key, []byte("second")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, _ := c.Get(key)
	if string(got) != "first" {
		t.Fatalf("Get() = %q, want %q", got, "first")
	}
}

func TestCacheInvalidKey(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	bad := digest.Digest("sha256:zz")
	if err := c.Put(bad, []byte("x")); err == nil {
		t.Fatal("Put() error = nil for invalid digest")
	}
	if _, ok := c.Get(bad); ok {
		t.Fatal("Get() ok = true for invalid digest")
	}
}

func TestCacheConcurrentPut(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := digest.FromString("shared")
	content := bytes.Repeat([]byte("x"), 4096)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Put(key, content); err != nil {
				t.Errorf("Put() error = %v", err)
			}
		}()
	}
	wg.Wait()

	got, ok := c.Get(key)
	if !ok || !bytes.Equal(got, content) {
		t.Fatalf("Get() = %d bytes, ok=%v; want %d bytes", len(got), ok, len(content))
	}
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") error = nil")
	}
	if _, err := New(t.TempDir(), WithShardPrefixLen(-1)); err == nil {
		t.Fatal("New() with negative shard length error = nil")
	}
}
