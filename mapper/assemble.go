package mapper

import (
	"cmp"
	"slices"

	"github.com/RoaringBitmap/roaring"
)

// candidate is a row-scoped value waiting to be placed into an output row.
type candidate struct {
	value  any
	path   Path
	target *Target
}

// rows maps group keys to output documents, keeping first-insertion order.
type rows struct {
	keys []GroupKey
	docs map[GroupKey]map[string]any
}

func newRows() *rows {
	return &rows{docs: make(map[GroupKey]map[string]any)}
}

func (r *rows) get(k GroupKey) (map[string]any, bool) {
	d, ok := r.docs[k]
	return d, ok
}

// set stores d under k. An existing key keeps its position.
func (r *rows) set(k GroupKey, d map[string]any) {
	if _, ok := r.docs[k]; !ok {
		r.keys = append(r.keys, k)
	}
	r.docs[k] = d
}

func (r *rows) delete(k GroupKey) {
	if _, ok := r.docs[k]; !ok {
		return
	}
	delete(r.docs, k)
	r.keys = slices.DeleteFunc(r.keys, func(e GroupKey) bool { return e == k })
}

func (r *rows) len() int { return len(r.keys) }

func (r *rows) list() []map[string]any {
	out := make([]map[string]any, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.docs[k])
	}
	return out
}

// sortCandidates orders candidates deepest first. Ties keep rule order.
func sortCandidates(cs []*candidate) {
	slices.SortStableFunc(cs, func(a, b *candidate) int {
		return cmp.Compare(len(b.path), len(a.path))
	})
}

// assemble places sorted candidates into rows keyed by their enclosing array
// element. Each placed candidate also pulls in every shallower candidate that
// lives under its parent element, so a per-element value (an item id) is
// repeated next to each of the deeper values of that element (its
// countries). Pulled-in candidates are consumed: they never get a row of
// their own, but they are still repeated into every deeper sibling row.
func assemble(cs []*candidate) *rows {
	out := newRows()
	consumed := roaring.New()
	for i, c := range cs {
		if consumed.Contains(uint32(i)) {
			continue
		}
		key := c.path.Group(1).Key()
		doc, ok := out.get(key)
		if !ok {
			doc = map[string]any{}
		}
		doc = setPath(doc, c.target.Path, c.value)

		parent := c.path.Group(2)
		for j, o := range cs {
			if j == i || len(o.path) >= len(c.path) || !o.path.HasPrefix(parent) {
				continue
			}
			consumed.Add(uint32(j))
			doc = setPath(doc, o.target.Path, clone(o.value))
		}
		out.set(key, doc)
	}
	return out
}

// overlay copies the common fields onto every row.
func overlay(r *rows, common map[string]any) {
	for _, doc := range r.docs {
		for k, v := range common {
			doc[k] = v
		}
	}
}
