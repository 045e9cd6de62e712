package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGetMissOnUnknownKey(t *testing.T) {
	c := New(4)
	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestPutThenGet(t *testing.T) {
	c := New(4)
	c.Put("k", 42, nil, time.Minute)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestTTLExpiry(t *testing.T) {
	c := New(4)
	fakeNow := time.Now()
	c.now = func() time.Time { return fakeNow }
	c.Put("k", 1, nil, time.Second)

	fakeNow = fakeNow.Add(2 * time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestLRUEviction(t *testing.T) {
	c := New(2)
	c.Put("a", 1, nil, time.Minute)
	c.Put("b", 2, nil, time.Minute)
	c.Put("c", 3, nil, time.Minute) // evicts "a"

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestFileHashInvalidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))

	c := New(4)
	c.Put("k", "parsed", []string{path}, time.Hour)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "parsed", v)

	require.NoError(t, os.WriteFile(path, []byte("package changed"), 0o644))
	_, ok = c.Get("k")
	assert.False(t, ok, "changed file content must invalidate the cache entry")
}
