package mapper

// DeepSet writes value at the target path inside doc, creating intermediate
// objects and growing arrays as needed, and returns doc. A nil doc starts a
// new document.
func DeepSet(doc map[string]any, target string, value any) (map[string]any, error) {
	p, err := parseLocation(target)
	if err != nil {
		return nil, invalid(target, "%v", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	if len(p) == 0 {
		return doc, nil
	}
	return setPath(doc, p, value), nil
}

// setPath is DeepSet on an already parsed path. p must start with a key.
func setPath(doc map[string]any, p Path, value any) map[string]any {
	return setIn(doc, p, value).(map[string]any)
}

func setIn(cur any, p Path, value any) any {
	if len(p) == 0 {
		return value
	}
	s := p[0]
	if s.isIndex {
		arr, _ := cur.([]any)
		for len(arr) <= s.Index {
			arr = append(arr, nil)
		}
		arr[s.Index] = setIn(arr[s.Index], p[1:], value)
		return arr
	}
	m, ok := cur.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	m[s.Key] = setIn(m[s.Key], p[1:], value)
	return m
}

// getPath reads the value at p. The boolean is false when any step is missing.
func getPath(doc any, p Path) (any, bool) {
	cur := doc
	for _, s := range p {
		if s.isIndex {
			arr, ok := cur.([]any)
			if !ok || s.Index >= len(arr) {
				return nil, false
			}
			cur = arr[s.Index]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[s.Key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// clone deep-copies objects and arrays. Other values, including Awaitables,
// are shared.
func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = clone(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = clone(e)
		}
		return out
	default:
		return v
	}
}

func cloneDoc(doc map[string]any) map[string]any {
	return clone(doc).(map[string]any)
}
