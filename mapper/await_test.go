package mapper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapOneContext(t *testing.T) {
	lookup := map[string]string{"US": "United States", "PE": "Peru"}
	name := func(code string) Later {
		return func(ctx context.Context) (any, error) {
			return lookup[code], ctx.Err()
		}
	}

	t.Run("awaits deferred values", func(t *testing.T) {
		src := map[string]any{"codes": []any{"US", "PE"}}
		out, err := MapOneContext(context.Background(), src, RuleSet{
			{Target: "code", Source: "$.codes[*]"},
			{Target: "name", Source: []any{"$.codes[*]", func(c string) Later { return name(c) }}},
		})
		require.NoError(t, err)
		assert.Equal(t, []map[string]any{
			{"code": "US", "name": "United States"},
			{"code": "PE", "name": "Peru"},
		}, out)
	})

	t.Run("nested awaitables", func(t *testing.T) {
		nested := Later(func(context.Context) (any, error) {
			return map[string]any{"inner": Later(func(context.Context) (any, error) {
				return []any{1, Later(func(context.Context) (any, error) { return 2, nil })}, nil
			})}, nil
		})
		out, err := MapOneContext(context.Background(), map[string]any{}, RuleSet{{Target: "x", Source: nested}})
		require.NoError(t, err)
		assert.Equal(t, []map[string]any{{"x": map[string]any{"inner": []any{1, 2}}}}, out)
	})

	t.Run("first error aborts", func(t *testing.T) {
		boom := errors.New("lookup failed")
		failing := Later(func(context.Context) (any, error) { return nil, boom })
		_, err := MapOneContext(context.Background(), map[string]any{}, RuleSet{
			{Target: "ok", Source: name("US")},
			{Target: "bad", Source: failing},
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := MapOneContext(ctx, map[string]any{"a": 1}, RuleSet{{Target: "a", Source: "$.a"}})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("many documents", func(t *testing.T) {
		docs := []any{
			map[string]any{"codes": []any{"US"}},
			map[string]any{"codes": []any{"PE"}},
		}
		out, err := MapManyContext(context.Background(), docs, RuleSet{
			{Target: "name", Source: []any{"$.codes[*]", func(c string) Later { return name(c) }}},
		})
		require.NoError(t, err)
		assert.Equal(t, []map[string]any{{"name": "United States"}, {"name": "Peru"}}, out)
	})
}

func TestMapOneLeavesAwaitables(t *testing.T) {
	out, err := MapOne(map[string]any{}, RuleSet{{Target: "x", Source: Later(func(context.Context) (any, error) { return 1, nil })}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	_, ok := out[0]["x"].(Awaitable)
	assert.True(t, ok)
}
