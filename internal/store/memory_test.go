package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

func TestMemoryStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	params := []*sphelper.Parameter{{Name: "@id"}}
	require.NoError(t, s.Set(ctx, "k", params))

	got, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, params, got)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_EmptySetIsFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "noargs", []*sphelper.Parameter{}))

	got, found, err := s.Get(ctx, "noargs")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, got)
}

func TestMemoryStore_DeleteKeysClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, k, nil))
	}

	require.NoError(t, s.Delete(ctx, "b"))
	require.NoError(t, s.Delete(ctx, "never-there"))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "c"}, keys)

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("proc-%d", id%5)
			_ = s.Set(ctx, key, []*sphelper.Parameter{{Name: "@p"}})
			_, _, _ = s.Get(ctx, key)
			_, _ = s.Keys(ctx)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, s.Len())
}
