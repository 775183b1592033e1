package mapper

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		kind  Kind
		paths []string
	}{
		{"path", Rule{"a", "$.a"}, SinglePath, []string{"$.a"}},
		{"literal string", Rule{"a", "plain"}, Default, nil},
		{"literal number", Rule{"a", 12}, Default, nil},
		{"literal list", Rule{"a", []any{"x", "y"}}, Default, nil},
		{"path and func", Rule{"a", []any{"$.a", strings.ToUpper}}, SinglePathTransform, []string{"$.a"}},
		{"string paths", Rule{"a", []string{"$.a", "$.b", "expr: args[0] + args[1]"}}, MultiPathTransform, []string{"$.a", "$.b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Classify(tt.rule)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.paths, c.Paths)
			assert.Equal(t, tt.kind == SinglePathTransform || tt.kind == MultiPathTransform, c.Transform != nil)
		})
	}

	t.Run("skip", func(t *testing.T) {
		c, err := Classify(Rule{"a", Skip})
		require.NoError(t, err)
		assert.Nil(t, c)
	})
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "default", Default.String())
	assert.Equal(t, "paths+transform", MultiPathTransform.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestFromMap(t *testing.T) {
	rs := FromMap(map[string]any{"b": "$.b", "a": 1, "c": Skip})
	require.Len(t, rs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{rs[0].Target, rs[1].Target, rs[2].Target})
}

func TestFunc(t *testing.T) {
	t.Run("typed parameters", func(t *testing.T) {
		tf, err := Func(func(n int, s string) string { return strconv.Itoa(n) + s })
		require.NoError(t, err)
		assert.Equal(t, 2, tf.Arity())
		v, err := tf.Apply([]any{int64(3), "x"})
		require.NoError(t, err)
		assert.Equal(t, "3x", v)
	})

	t.Run("nil argument is the zero value", func(t *testing.T) {
		tf, err := Func(func(s string) string { return "<" + s + ">" })
		require.NoError(t, err)
		v, err := tf.Apply([]any{nil})
		require.NoError(t, err)
		assert.Equal(t, "<>", v)
	})

	t.Run("variadic", func(t *testing.T) {
		tf, err := Func(func(parts ...string) string { return strings.Join(parts, "-") })
		require.NoError(t, err)
		assert.Equal(t, -1, tf.Arity())
		v, err := tf.Apply([]any{"a", "b", "c"})
		require.NoError(t, err)
		assert.Equal(t, "a-b-c", v)
	})

	t.Run("error result", func(t *testing.T) {
		boom := errors.New("boom")
		tf, err := Func(func(any) (any, error) { return nil, boom })
		require.NoError(t, err)
		_, err = tf.Apply([]any{1})
		assert.Same(t, boom, err)
	})

	t.Run("argument type mismatch", func(t *testing.T) {
		tf, err := Func(func(n int) int { return n })
		require.NoError(t, err)
		_, err = tf.Apply([]any{"one"})
		assert.ErrorContains(t, err, "argument 0")

		_, err = tf.Apply([]any{1, 2})
		assert.ErrorContains(t, err, "takes 1 arguments")
	})

	t.Run("not a function", func(t *testing.T) {
		_, err := Func(3)
		assert.Error(t, err)
		_, err = Func(func() {})
		assert.Error(t, err)
		_, err = Func(func() (int, int) { return 0, 0 })
		assert.Error(t, err)
	})
}

func TestExpr(t *testing.T) {
	x, err := NewExpr("expr: args[0] * 2 + len(args)")
	require.NoError(t, err)
	v, err := x.Apply([]any{5})
	require.NoError(t, err)
	assert.EqualValues(t, 11, v)
	assert.Equal(t, "expr: args[0] * 2 + len(args)", x.String())

	_, err = NewExpr("expr: (")
	assert.ErrorContains(t, err, "compile expression")
}
