package mapper

import "strings"

// MergeArrayField collapses docs into one document: a copy of the first one
// whose field holds the elements of field collected from every document in
// order. field may be written with or without its trailing "[]".
//
//	MergeArrayField([{"c": ["US"]}, {"c": ["PE"]}], "c[]") -> {"c": ["US", "PE"]}
func MergeArrayField(docs []map[string]any, field string) (map[string]any, error) {
	p, err := parseLocation(strings.TrimSuffix(field, "[]"))
	if err != nil {
		return nil, invalid(field, "%v", err)
	}
	if len(docs) == 0 {
		return map[string]any{}, nil
	}
	if len(p) == 0 {
		return cloneDoc(docs[0]), nil
	}
	return mergeField(docs, p), nil
}

func mergeField(docs []map[string]any, p Path) map[string]any {
	var collected []any
	for _, d := range docs {
		v, ok := getPath(d, p)
		if !ok {
			continue
		}
		if arr, isArr := v.([]any); isArr {
			collected = append(collected, clone(arr).([]any)...)
		} else {
			collected = append(collected, clone(v))
		}
	}
	base := cloneDoc(docs[0])
	if collected == nil {
		return base
	}
	return setPath(base, p, collected)
}

// mergeRows folds the rows of array-valued targets into one row per parent
// element. Merged rows come first, in the order their parents were first
// seen, followed by the rows no merge touched.
func mergeRows(r *rows, cs []*candidate, targets []*Target) *rows {
	merged := newRows()
	for _, t := range targets {
		field, err := parseLocation(strings.TrimSuffix(t.Field, "[]"))
		if err != nil || len(field) == 0 {
			continue
		}
		for _, c := range cs {
			if c.target.Raw != t.Raw {
				continue
			}
			key := c.path.Group(1).Key()
			doc, ok := r.get(key)
			if !ok {
				continue
			}
			r.delete(key)
			parent := c.path.Group(2).Key()
			if acc, ok := merged.get(parent); ok {
				doc = mergeField([]map[string]any{acc, doc}, field)
			} else {
				doc = mergeField([]map[string]any{doc}, field)
			}
			merged.set(parent, doc)
		}
	}
	for _, k := range r.keys {
		merged.set(k, r.docs[k])
	}
	return merged
}
