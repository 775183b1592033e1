package mapper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Segment is one step of a Path: an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	isIndex bool
}

// Key returns an object-key segment.
func Key(k string) Segment { return Segment{Key: k} }

// Index returns an array-index segment.
func Index(i int) Segment { return Segment{Index: i, isIndex: true} }

// IsIndex reports whether the segment addresses an array element.
func (s Segment) IsIndex() bool { return s.isIndex }

func (s Segment) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	if isIdent(s.Key) {
		return "." + s.Key
	}
	return "['" + strings.ReplaceAll(s.Key, "'", `\'`) + "']"
}

// Path is a resolved location inside a document. Source locations start with
// the root segment "$".
type Path []Segment

// GroupKey identifies the row (or parent row) a resolved value belongs to.
type GroupKey string

const rootKey = "$"

func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if i == 0 && !s.isIndex && s.Key == rootKey {
			b.WriteString(rootKey)
			continue
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// Key returns the comparable grouping key for p.
func (p Path) Key() GroupKey { return GroupKey(p.String()) }

// Equal reports structural equality.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading subsequence of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return p[:len(prefix)].Equal(prefix)
}

// Indexes counts the array-index segments of p.
func (p Path) Indexes() int {
	n := 0
	for _, s := range p {
		if s.isIndex {
			n++
		}
	}
	return n
}

// Concat returns a new path holding p followed by o.
func (p Path) Concat(o Path) Path {
	out := make(Path, 0, len(p)+len(o))
	out = append(out, p...)
	return append(out, o...)
}

// Group truncates p just after its depth-th array index counted from the end.
// Depth 1 is the enclosing row; depth 2 is the row one array level up. When p
// has fewer than depth indexes, Group drops the last segment instead.
//
//	$.items[0].availableCountries[1].country  depth 1 -> $.items[0].availableCountries[1]
//	$.items[0].availableCountries[1].country  depth 2 -> $.items[0]
//	$.items[0].item                           depth 2 -> $.items[0]
func (p Path) Group(depth int) Path {
	seen := 0
	for i := len(p) - 1; i > 0; i-- {
		if p[i].isIndex {
			seen++
			if seen == depth {
				return p[: i+1 : i+1]
			}
		}
	}
	if len(p) == 0 {
		return nil
	}
	return p[: len(p)-1 : len(p)-1]
}

// isScalar reports whether a single match at p is shared by every row: it
// has no array index, or its only index is the trailing segment. An interior
// index ties the value to one element.
func (p Path) isScalar() bool {
	switch p.Indexes() {
	case 0:
		return true
	case 1:
		return p[len(p)-1].isIndex
	default:
		return false
	}
}

// pathFromExpr converts a normalized ojg location into a Path.
func pathFromExpr(x jp.Expr) (Path, error) {
	p := make(Path, 0, len(x)+1)
	for i, f := range x {
		switch frag := f.(type) {
		case jp.Root, jp.At:
			if i == 0 {
				p = append(p, Key(rootKey))
			}
		case jp.Bracket:
		case jp.Child:
			p = append(p, Key(string(frag)))
		case jp.Nth:
			if frag < 0 {
				return nil, fmt.Errorf("negative index in location %s", x)
			}
			p = append(p, Index(int(frag)))
		default:
			return nil, fmt.Errorf("location %s is not normalized", x)
		}
	}
	if len(p) == 0 || p[0] != Key(rootKey) {
		p = append(Path{Key(rootKey)}, p...)
	}
	return p, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
