package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// IsLines reports whether name holds one JSON document per line.
func IsLines(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ndjson", ".jsonl":
		return true
	}
	return false
}

// ReadDocuments loads the source documents stored in name. A JSON array
// yields one document per element, a line-delimited file one per non-blank
// line, and anything else a single document.
func ReadDocuments(fs billy.Filesystem, name string) ([]any, error) {
	data, err := util.ReadFile(fs, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if IsLines(name) {
		return parseLines(data, name)
	}
	v, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if arr, ok := v.([]any); ok {
		return arr, nil
	}
	return []any{v}, nil
}

func parseLines(data []byte, name string) ([]any, error) {
	var docs []any
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		v, err := oj.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s:%d: %w", name, line, err)
		}
		docs = append(docs, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", name, err)
	}
	return docs, nil
}

// EncodeDocuments renders docs as a JSON array with sorted keys.
func EncodeDocuments(docs []map[string]any, pretty bool) string {
	opts := &ojg.Options{Sort: true}
	if pretty {
		opts.Indent = 2
	}
	return oj.JSON(toList(docs), opts)
}

// WriteDocuments writes docs to w as a JSON array.
func WriteDocuments(w io.Writer, docs []map[string]any, pretty bool) error {
	_, err := io.WriteString(w, EncodeDocuments(docs, pretty)+"\n")
	return err
}

// WriteLines writes docs to w, one compact JSON document per line.
func WriteLines(w io.Writer, docs []map[string]any) error {
	opts := &ojg.Options{Sort: true}
	for _, d := range docs {
		if _, err := io.WriteString(w, oj.JSON(d, opts)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func toList(docs []map[string]any) []any {
	out := make([]any, len(docs))
	for i, d := range docs {
		out[i] = d
	}
	return out
}
