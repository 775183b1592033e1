// Package jsonpath evaluates JSONPath selectors against JSON-like data and
// reports the normalized location of every match.
package jsonpath

import (
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ohler55/ojg/jp"
)

// DefaultCacheSize bounds the number of parsed selectors a Walker keeps.
const DefaultCacheSize = 1024

// Match is a single selector result.
type Match struct {
	// Path is the normalized location of Value, e.g. $.items[0].item.
	Path jp.Expr
	// Value is the data found at Path.
	Value any
}

// Walker runs JSONPath selectors. Parsed selectors are cached, so a Walker
// should be shared by every mapping run that uses the same rules. It is safe
// for concurrent use.
type Walker struct {
	cache *lru.Cache[string, jp.Expr]
}

func NewWalker() *Walker {
	return NewWalkerSize(DefaultCacheSize)
}

// NewWalkerSize returns a Walker caching up to size parsed selectors.
func NewWalkerSize(size int) *Walker {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, _ := lru.New[string, jp.Expr](size) // only fails for size <= 0
	return &Walker{cache: c}
}

// Compile parses selector, reusing a cached parse when there is one.
func (w *Walker) Compile(selector string) (jp.Expr, error) {
	if x, ok := w.cache.Get(selector); ok {
		return x, nil
	}
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	w.cache.Add(selector, x)
	return x, nil
}

// Query returns every match of selector in root, in document order. A
// selector that matches nothing yields an empty result, not an error.
func (w *Walker) Query(root any, selector string) ([]Match, error) {
	x, err := w.Compile(selector)
	if err != nil {
		return nil, err
	}

	locs := x.Locate(root, 0)
	sortLocations(locs)
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, Match{Path: loc, Value: loc.First(root)})
	}
	return matches, nil
}

// sortLocations puts normalized locations into document order. ojg reports
// filter matches last-first, so indexes are compared numerically while object
// keys keep the position they were first seen in.
func sortLocations(locs []jp.Expr) {
	if len(locs) < 2 {
		return
	}
	seen := map[string]int{}
	next := map[string]int{}
	keyed := make([][]int, len(locs))
	for i, loc := range locs {
		r := make([]int, len(loc))
		for j, f := range loc {
			switch frag := f.(type) {
			case jp.Nth:
				r[j] = int(frag)
			case jp.Child:
				prefix := loc[:j].String()
				k := prefix + "\x00" + string(frag)
				rank, ok := seen[k]
				if !ok {
					rank = next[prefix]
					next[prefix]++
					seen[k] = rank
				}
				r[j] = rank
			}
		}
		keyed[i] = r
	}

	order := make([]int, len(locs))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return slices.Compare(keyed[a], keyed[b])
	})
	sorted := make([]jp.Expr, len(locs))
	for i, o := range order {
		sorted[i] = locs[o]
	}
	copy(locs, sorted)
}
