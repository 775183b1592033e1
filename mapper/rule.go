package mapper

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Rule binds a target field to its source. Source is one of:
//   - a path expression: a string starting with "$";
//   - a path array: []any{path, ..., transform} where transform is a
//     Transform, a Go func, or an ExprPrefix string;
//   - Skip, which drops the rule;
//   - anything else, emitted as a literal default.
type Rule struct {
	Target string
	Source any
}

// RuleSet is an ordered list of rules. Order decides the order of candidates
// that tie during assembly, and so the order of the output documents.
type RuleSet []Rule

// FromMap builds a RuleSet from a map, ordering rules by target.
func FromMap(m map[string]any) RuleSet {
	rs := make(RuleSet, 0, len(m))
	for t, s := range m {
		rs = append(rs, Rule{Target: t, Source: s})
	}
	slices.SortFunc(rs, func(a, b Rule) int { return strings.Compare(a.Target, b.Target) })
	return rs
}

type skip struct{}

// Skip as a rule source drops the rule without emitting a field.
var Skip any = skip{}

// Kind classifies a rule source.
type Kind int

const (
	Default Kind = iota
	SinglePath
	SinglePathTransform
	MultiPathTransform
)

func (k Kind) String() string {
	switch k {
	case Default:
		return "default"
	case SinglePath:
		return "path"
	case SinglePathTransform:
		return "path+transform"
	case MultiPathTransform:
		return "paths+transform"
	default:
		return "unknown"
	}
}

// Classified is a rule resolved into its variant.
type Classified struct {
	Target    *Target
	Kind      Kind
	Value     any // Default only
	Paths     []string
	Transform Transform
}

// IsPath reports whether v is a path expression.
func IsPath(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, "$")
}

// IsPathArray reports whether v is an array whose first element is a path
// expression.
func IsPathArray(v any) bool {
	arr, ok := asArray(v)
	return ok && len(arr) > 0 && IsPath(arr[0])
}

func asArray(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// Classify resolves one rule. It returns nil for a skipped rule.
func Classify(r Rule) (*Classified, error) {
	if r.Source == Skip {
		return nil, nil
	}
	t, err := ParseTarget(r.Target)
	if err != nil {
		return nil, invalid(r.Target, "%v", err)
	}
	c := &Classified{Target: t}
	switch {
	case IsPath(r.Source):
		c.Kind = SinglePath
		c.Paths = []string{r.Source.(string)}
	case IsPathArray(r.Source):
		arr, _ := asArray(r.Source)
		if err := classifyArray(c, arr); err != nil {
			return nil, err
		}
	default:
		c.Kind = Default
		c.Value = r.Source
	}
	return c, nil
}

func classifyArray(c *Classified, arr []any) error {
	target := c.Target.Raw
	if len(arr) < 2 {
		return invalid(target, "the array should contain at least one path and the transform")
	}
	tf, err := toTransform(arr[len(arr)-1])
	if err != nil {
		return invalid(target, "the last element of the array must be a transform: %v", err)
	}
	paths := make([]string, 0, len(arr)-1)
	for i, p := range arr[:len(arr)-1] {
		if !IsPath(p) {
			return invalid(target, "element %d is not a path expression", i)
		}
		paths = append(paths, p.(string))
	}
	if n := tf.Arity(); n >= 0 && n != len(paths) {
		return invalid(target, "the transform takes %d arguments but %d paths are given", n, len(paths))
	}
	c.Paths = paths
	c.Transform = tf
	if len(paths) == 1 {
		c.Kind = SinglePathTransform
	} else {
		c.Kind = MultiPathTransform
	}
	return nil
}

func toTransform(v any) (Transform, error) {
	switch t := v.(type) {
	case Transform:
		return t, nil
	case string:
		if !strings.HasPrefix(t, ExprPrefix) {
			return nil, errNotCallable(v)
		}
		return NewExpr(t)
	}
	if v != nil && reflect.TypeOf(v).Kind() == reflect.Func {
		return Func(v)
	}
	return nil, errNotCallable(v)
}

func errNotCallable(v any) error {
	if s, ok := v.(string); ok {
		return fmt.Errorf("string %q is not callable", s)
	}
	return fmt.Errorf("%T is not callable", v)
}
