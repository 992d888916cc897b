package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	st, err := NewFile(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	return st
}

func TestFileStore_PutGet(t *testing.T) {
	st := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "crawl::http://example.com", []byte(`{"a":1}`)))

	data, err := st.Get(ctx, "crawl::http://example.com")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))
}

func TestFileStore_Missing(t *testing.T) {
	st := newTestFileStore(t)

	data, err := st.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestFileStore_Overwrite(t *testing.T) {
	st := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "k", []byte("old")))
	require.NoError(t, st.Put(ctx, "k", []byte("new")))

	data, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestFileStore_Delete(t *testing.T) {
	st := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, "k", []byte("v")))
	require.NoError(t, st.Delete(ctx, "k"))
	require.NoError(t, st.Delete(ctx, "k"))

	data, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestFileStore_PathIsHashed(t *testing.T) {
	st := newTestFileStore(t)

	p := st.Path("crawl::https://example.com/a?b=c")
	assert.Equal(t, 64+len(".json"), len(filepath.Base(p)))
	assert.Equal(t, p, st.Path("crawl::https://example.com/a?b=c"))
	assert.NotEqual(t, p, st.Path("crawl::https://example.com/a"))
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	st := newTestFileStore(t)
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, st.Put(ctx, fmt.Sprintf("k%d", i), []byte("v")))
	}

	entries, err := os.ReadDir(st.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	for _, e := range entries {
		assert.Equal(t, ".json", filepath.Ext(e.Name()))
	}
}

func TestFileStore_ConcurrentDistinctKeys(t *testing.T) {
	st := newTestFileStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			assert.NoError(t, st.Put(ctx, key, []byte(key)))
		}(i)
	}
	wg.Wait()

	for i := range 32 {
		key := fmt.Sprintf("key-%d", i)
		data, err := st.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, key, string(data))
	}
}

func TestNewFile_RequiresDir(t *testing.T) {
	_, err := NewFile("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory is required")
}
