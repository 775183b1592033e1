package mapper

// cartesian returns every combination taking one element from each list, the
// first list varying slowest. Any empty list yields no combinations.
func cartesian[T any](lists [][]T) [][]T {
	if len(lists) == 0 {
		return nil
	}
	out := [][]T{{}}
	for _, list := range lists {
		next := make([][]T, 0, len(out)*len(list))
		for _, prefix := range out {
			for _, e := range list {
				combo := make([]T, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, e))
			}
		}
		out = next
	}
	return out
}

// missingInput stands in for a transform input that matched nothing. Typed
// Go funcs receive the zero value of the parameter, or "" for string and
// interface parameters; every other Transform receives "".
type missingInput struct{}

var missing any = missingInput{}

// empty replaces a nil transform result.
const empty = ""

// combine resolves every path of a multi-path rule, applies the transform to
// each combination of values and reports whether any contributing location
// is array-scoped. Inputs that match nothing take part once, as missing, with
// an empty location.
func combine(q Querier, doc any, c *Classified) (values []any, paths []Path, scoped bool, err error) {
	valueLists := make([][]any, len(c.Paths))
	pathLists := make([][]Path, len(c.Paths))
	for i, expr := range c.Paths {
		found, err := resolve(q, doc, c.Target.Raw, expr)
		if err != nil {
			return nil, nil, false, err
		}
		if len(found) == 0 {
			valueLists[i] = []any{missing}
			pathLists[i] = []Path{nil}
			continue
		}
		for _, m := range found {
			valueLists[i] = append(valueLists[i], m.Value)
			pathLists[i] = append(pathLists[i], m.Path)
			if m.Path.Indexes() > 0 {
				scoped = true
			}
		}
	}

	for _, combo := range cartesian(valueLists) {
		v, err := apply(c, combo)
		if err != nil {
			return nil, nil, false, err
		}
		values = append(values, v)
	}
	for _, combo := range cartesian(pathLists) {
		var joined Path
		for _, p := range combo {
			joined = joined.Concat(p)
		}
		paths = append(paths, joined)
	}
	return values, paths, scoped, nil
}

// apply runs the rule's transform. Transform errors are returned as is; a nil
// result becomes the empty string.
func apply(c *Classified, args []any) (any, error) {
	if _, typed := c.Transform.(*funcTransform); !typed {
		args = blankMissing(args)
	}
	v, err := c.Transform.Apply(args)
	if err != nil {
		return nil, err
	}
	if isFunc(v) {
		return nil, invalid(c.Target.Raw, "the transform cannot return a function")
	}
	if v == nil {
		return empty, nil
	}
	return v, nil
}

func blankMissing(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if a == missing {
			a = empty
		}
		out[i] = a
	}
	return out
}
