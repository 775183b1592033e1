package ingest

import (
	"bytes"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDocuments(t *testing.T) {
	fs := memfs.New()
	files := map[string]string{
		"one.json":     `{"a": 1}`,
		"many.json":    `[{"a": 1}, {"a": 2}]`,
		"lines.ndjson": "{\"a\": 1}\n\n{\"a\": 2}\n",
		"bad.jsonl":    "{\"a\": 1}\n{\"a\":\n",
	}
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}

	tests := []struct {
		name string
		want []any
	}{
		{"one.json", []any{map[string]any{"a": int64(1)}}},
		{"many.json", []any{map[string]any{"a": int64(1)}, map[string]any{"a": int64(2)}}},
		{"lines.ndjson", []any{map[string]any{"a": int64(1)}, map[string]any{"a": int64(2)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := ReadDocuments(fs, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, docs)
		})
	}

	t.Run("bad line", func(t *testing.T) {
		_, err := ReadDocuments(fs, "bad.jsonl")
		assert.ErrorContains(t, err, "bad.jsonl:2")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ReadDocuments(fs, "nope.json")
		assert.Error(t, err)
	})
}

func TestWriteDocuments(t *testing.T) {
	docs := []map[string]any{{"b": 1, "a": "x"}, {"a": "y"}}

	var buf bytes.Buffer
	require.NoError(t, WriteDocuments(&buf, docs, false))
	assert.Equal(t, `[{"a":"x","b":1},{"a":"y"}]`+"\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteLines(&buf, docs))
	assert.Equal(t, "{\"a\":\"x\",\"b\":1}\n{\"a\":\"y\"}\n", buf.String())

	assert.Equal(t, "[]", EncodeDocuments(nil, false))
	assert.Contains(t, EncodeDocuments(docs, true), "\n")
}
