package mapper

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Target is a parsed target field path.
type Target struct {
	// Raw is the target as written in the rule.
	Raw string
	// Path is the location inside the output document, without the root.
	Path Path
	// Array is set when the target contains "[]" and its rows are merged.
	Array bool
	// Field is the array field rows are merged into: Raw cut just after the
	// last "[]".
	Field string
}

// ParseTarget parses a target path. Both "$.a.b" and "a.b" are accepted.
// "[]" and "[*]" address the first element of a not yet materialized array.
func ParseTarget(raw string) (*Target, error) {
	if err := checkBrackets(raw); err != nil {
		return nil, err
	}
	t := &Target{Raw: raw}
	if i := strings.LastIndex(raw, "[]"); i >= 0 {
		t.Array = true
		t.Field = raw[:i+2]
	}
	p, err := parseLocation(raw)
	if err != nil {
		return nil, err
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("target %q addresses the document root", raw)
	}
	t.Path = p
	return t, nil
}

// parseLocation turns a simple location (keys, indexes, [] and [*]) into a
// Path relative to the document root.
func parseLocation(raw string) (Path, error) {
	src := strings.ReplaceAll(raw, "[]", "[0]")
	if !strings.HasPrefix(src, "$") {
		src = "$." + src
	}
	x, err := jp.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, err)
	}
	var p Path
	for _, f := range x {
		switch frag := f.(type) {
		case jp.Root, jp.Bracket:
		case jp.Child:
			p = append(p, Key(string(frag)))
		case jp.Nth:
			if frag < 0 {
				return nil, fmt.Errorf("negative index in %q", raw)
			}
			p = append(p, Index(int(frag)))
		case jp.Wildcard:
			p = append(p, Index(0))
		default:
			return nil, fmt.Errorf("%q: only keys and indexes are allowed in a target, found %s", raw, jp.Expr{f})
		}
	}
	if len(p) > 0 && p[0].isIndex {
		return nil, fmt.Errorf("%q: a target must start with a field name", raw)
	}
	return p, nil
}

// checkBrackets rejects an unpaired "[" or "]" in a target.
func checkBrackets(raw string) error {
	depth := 0
	for i, r := range raw {
		switch r {
		case '[':
			if depth > 0 {
				return fmt.Errorf("%q: unexpected '[' at offset %d", raw, i)
			}
			depth++
		case ']':
			if depth == 0 {
				return fmt.Errorf("%q: expecting opening '[' before ']' at offset %d", raw, i)
			}
			depth--
		}
	}
	if depth != 0 {
		return fmt.Errorf("%q: expecting closing ']' after '['", raw)
	}
	return nil
}
