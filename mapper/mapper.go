// Package mapper reshapes JSON-like documents with declarative rules.
//
// A rule binds a target field to a JSONPath expression over the source
// document, to a literal, or to a transform over one or more expressions.
// When an expression matches several array elements the source fans out into
// one output document per element; values that resolve once are shared by
// every output, and values that live under an enclosing element are repeated
// into the rows of that element's deeper values:
//
//	src := {"date": "20240921", "items": [
//	    {"item": 1, "availableCountries": [{"country": "US"}, {"country": "PE"}]},
//	    {"item": 2, "availableCountries": [{"country": "UY"}]}]}
//
//	rules := mapper.RuleSet{
//	    {Target: "date", Source: "$.date"},
//	    {Target: "item", Source: "$.items[*].item"},
//	    {Target: "country", Source: "$.items[*].availableCountries[*].country"},
//	}
//
//	-> {date, item: 1, country: US}, {date, item: 1, country: PE}, {date, item: 2, country: UY}
//
// A target containing "[]" collects the fanned-out values of each enclosing
// element back into one array:
//
//	{Target: "countries[]", Source: "$.items[*].availableCountries[*].country"}
//	-> {date, item: 1, countries: [US, PE]}, {date, item: 2, countries: [UY]}
package mapper

import (
	"context"
	"slices"
)

// Validator checks a rule set before it is classified.
type Validator func(RuleSet) error

// Option configures a Mapper.
type Option func(*Mapper)

// WithValidator runs v over the rule set in New.
func WithValidator(v Validator) Option {
	return func(m *Mapper) { m.validate = v }
}

// WithQuerier replaces the JSONPath evaluator.
func WithQuerier(q Querier) Option {
	return func(m *Mapper) { m.querier = q }
}

// Mapper applies a classified rule set to source documents. It holds no
// per-call state and is safe for concurrent use.
type Mapper struct {
	rules    []*Classified
	arrays   []*Target
	querier  Querier
	validate Validator
}

// New validates and classifies rules.
func New(rules RuleSet, opts ...Option) (*Mapper, error) {
	m := &Mapper{}
	for _, opt := range opts {
		opt(m)
	}
	if m.querier == nil {
		m.querier = NewJSONPath()
	}
	if m.validate != nil {
		if err := m.validate(rules); err != nil {
			return nil, err
		}
	}

	seen := map[string]bool{}
	for _, r := range rules {
		c, err := Classify(r)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		if ch, ok := m.querier.(checker); ok {
			for _, p := range c.Paths {
				if err := ch.Check(p); err != nil {
					return nil, invalid(r.Target, "%v", err)
				}
			}
		}
		m.rules = append(m.rules, c)
		if c.Target.Array && !seen[c.Target.Raw] {
			seen[c.Target.Raw] = true
			m.arrays = append(m.arrays, c.Target)
		}
	}
	return m, nil
}

// Rules returns the classified rules in order.
func (m *Mapper) Rules() []*Classified {
	return slices.Clone(m.rules)
}

// MapOne maps a single source document. It returns no documents when nothing
// resolved, one document when only shared values resolved, and otherwise one
// document per row. Every returned document is an independent copy.
func (m *Mapper) MapOne(doc any) ([]map[string]any, error) {
	common := map[string]any{}
	var cs []*candidate

	for _, c := range m.rules {
		switch c.Kind {
		case Default:
			common = setPath(common, c.Target.Path, clone(c.Value))

		case SinglePath, SinglePathTransform:
			found, err := resolve(m.querier, doc, c.Target.Raw, c.Paths[0])
			if err != nil {
				return nil, err
			}
			if len(found) == 0 {
				continue
			}
			if len(found) == 1 && found[0].Path.isScalar() {
				v, err := m.value(c, found[0].Value)
				if err != nil {
					return nil, err
				}
				common = setPath(common, c.Target.Path, v)
				continue
			}
			for _, f := range found {
				v, err := m.value(c, f.Value)
				if err != nil {
					return nil, err
				}
				cs = append(cs, &candidate{value: v, path: f.Path, target: c.Target})
			}

		case MultiPathTransform:
			values, paths, scoped, err := combine(m.querier, doc, c)
			if err != nil {
				return nil, err
			}
			if !scoped {
				for _, v := range values {
					common = setPath(common, c.Target.Path, v)
				}
				continue
			}
			for i, v := range values {
				cs = append(cs, &candidate{value: v, path: paths[i], target: c.Target})
			}
		}
	}

	sortCandidates(cs)
	r := assemble(cs)
	if r.len() == 0 {
		if len(common) == 0 {
			return []map[string]any{}, nil
		}
		return []map[string]any{cloneDoc(common)}, nil
	}
	overlay(r, common)
	if len(m.arrays) > 0 {
		r = mergeRows(r, cs, m.arrays)
	}

	out := r.list()
	for i, d := range out {
		out[i] = cloneDoc(d)
	}
	return out, nil
}

// value copies a resolved source value, applying the rule's transform if it
// has one.
func (m *Mapper) value(c *Classified, v any) (any, error) {
	if c.Transform == nil {
		return clone(v), nil
	}
	return apply(c, []any{v})
}

// MapMany maps every source document in order and concatenates the results.
// The first error aborts the batch.
func (m *Mapper) MapMany(docs []any) ([]map[string]any, error) {
	out := []map[string]any{}
	for _, d := range docs {
		res, err := m.MapOne(d)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}

// MapOneContext is MapOne followed by awaiting every Awaitable left in the
// output documents.
func (m *Mapper) MapOneContext(ctx context.Context, doc any) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := m.MapOne(doc)
	if err != nil {
		return nil, err
	}
	for i, d := range out {
		resolved, err := awaitTree(ctx, d)
		if err != nil {
			return nil, err
		}
		out[i] = resolved.(map[string]any)
	}
	return out, nil
}

// MapManyContext is MapMany with the await pass of MapOneContext.
func (m *Mapper) MapManyContext(ctx context.Context, docs []any) ([]map[string]any, error) {
	out := []map[string]any{}
	for _, d := range docs {
		res, err := m.MapOneContext(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}

// MapOne classifies rules and maps doc with them.
func MapOne(doc any, rules RuleSet, opts ...Option) ([]map[string]any, error) {
	m, err := New(rules, opts...)
	if err != nil {
		return nil, err
	}
	return m.MapOne(doc)
}

// MapMany classifies rules and maps every document with them.
func MapMany(docs []any, rules RuleSet, opts ...Option) ([]map[string]any, error) {
	m, err := New(rules, opts...)
	if err != nil {
		return nil, err
	}
	return m.MapMany(docs)
}

// MapOneContext classifies rules and maps doc, awaiting deferred values.
func MapOneContext(ctx context.Context, doc any, rules RuleSet, opts ...Option) ([]map[string]any, error) {
	m, err := New(rules, opts...)
	if err != nil {
		return nil, err
	}
	return m.MapOneContext(ctx, doc)
}

// MapManyContext classifies rules and maps every document, awaiting deferred
// values.
func MapManyContext(ctx context.Context, docs []any, rules RuleSet, opts ...Option) ([]map[string]any, error) {
	m, err := New(rules, opts...)
	if err != nil {
		return nil, err
	}
	return m.MapManyContext(ctx, docs)
}
