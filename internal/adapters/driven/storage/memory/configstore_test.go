package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seed(t *testing.T) {
	store := NewConfigStore(map[string]any{"analysis.mode": "deep"}, map[string]any{"analysis.workers": 4})

	assert.Equal(t, "deep", store.GetString("analysis.mode"))
	assert.Equal(t, 4, store.GetInt("analysis.workers"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "value"))
	require.NoError(t, store.Set("i", 42))
	require.NoError(t, store.Set("i64", int64(7)))
	require.NoError(t, store.Set("f", 0.25))
	require.NoError(t, store.Set("b", true))
	require.NoError(t, store.Set("list", []string{"openai", "ollama"}))
	require.NoError(t, store.Set("anylist", []any{"a", 1, "b"}))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("s"), "value"},
		{"string wrong type", store.GetString("i"), ""},
		{"int", store.GetInt("i"), 42},
		{"int from int64", store.GetInt("i64"), 7},
		{"int from float", store.GetInt("f"), 0},
		{"float", store.GetFloat("f"), 0.25},
		{"float from int", store.GetFloat("i"), 42.0},
		{"float from int64", store.GetFloat("i64"), 7.0},
		{"float wrong type", store.GetFloat("s"), 0.0},
		{"float missing", store.GetFloat("missing"), 0.0},
		{"bool", store.GetBool("b"), true},
		{"bool wrong type", store.GetBool("s"), false},
		{"slice", store.GetStringSlice("list"), []string{"openai", "ollama"}},
		{"slice from any", store.GetStringSlice("anylist"), []string{"a", "b"}},
		{"slice missing", store.GetStringSlice("missing"), []string(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_SaveAndLoadAreNoOps(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("k", "v"))
	require.NoError(t, store.Save())
	require.NoError(t, store.Load())
	assert.Equal(t, "v", store.GetString("k"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key%d", i), i)
		}(i)
		go func(i int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key%d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key%d", i)))
	}
}
