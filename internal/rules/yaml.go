package rules

import (
	"fmt"
	"math"

	"github.com/goccy/go-yaml"

	"github.com/agentic-research/reshape/api"
)

// parseYAML decodes YAML or JSON rule files. Maps are decoded in order so the
// rule order of a target-to-source mapping survives.
func parseYAML(data []byte) (*api.MappingFile, error) {
	var raw any
	if err := yaml.UnmarshalWithOptions(data, &raw, yaml.UseOrderedMap()); err != nil {
		return nil, err
	}
	top, ok := raw.(yaml.MapSlice)
	if !ok {
		return nil, fmt.Errorf("expected a mapping at the top level, got %T", raw)
	}

	mf := &api.MappingFile{}
	for _, item := range top {
		switch fmt.Sprint(item.Key) {
		case "version":
			mf.Version = fmt.Sprint(item.Value)
		case "rules":
			specs, err := ruleSpecs(item.Value)
			if err != nil {
				return nil, err
			}
			mf.Rules = specs
		default:
			return nil, fmt.Errorf("unknown key %q", fmt.Sprint(item.Key))
		}
	}
	return mf, nil
}

// ruleSpecs accepts either a target-to-source mapping or a list of
// {target, from} objects.
func ruleSpecs(v any) ([]api.RuleSpec, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case yaml.MapSlice:
		specs := make([]api.RuleSpec, 0, len(t))
		for _, item := range t {
			specs = append(specs, api.RuleSpec{Target: fmt.Sprint(item.Key), From: plain(item.Value)})
		}
		return specs, nil
	case []any:
		specs := make([]api.RuleSpec, 0, len(t))
		for i, e := range t {
			obj, ok := e.(yaml.MapSlice)
			if !ok {
				return nil, fmt.Errorf("rules[%d]: expected an object, got %T", i, e)
			}
			var spec api.RuleSpec
			for _, item := range obj {
				switch fmt.Sprint(item.Key) {
				case "target":
					spec.Target = fmt.Sprint(item.Value)
				case "from":
					spec.From = plain(item.Value)
				default:
					return nil, fmt.Errorf("rules[%d]: unknown key %q", i, fmt.Sprint(item.Key))
				}
			}
			if spec.Target == "" {
				return nil, fmt.Errorf("rules[%d]: missing target", i)
			}
			specs = append(specs, spec)
		}
		return specs, nil
	default:
		return nil, fmt.Errorf("rules: expected a mapping or a list, got %T", v)
	}
}

// plain converts decoded YAML into the map[string]any / []any / int64 shapes
// the mapper works with.
func plain(v any) any {
	switch t := v.(type) {
	case yaml.MapSlice:
		m := make(map[string]any, len(t))
		for _, item := range t {
			m[fmt.Sprint(item.Key)] = plain(item.Value)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = plain(e)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case uint64:
		if t <= math.MaxInt64 {
			return int64(t)
		}
		return t
	case int:
		return int64(t)
	default:
		return v
	}
}
