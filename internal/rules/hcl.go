package rules

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/ohler55/ojg/oj"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/agentic-research/reshape/api"
)

type hclFile struct {
	Version string    `hcl:"version,optional"`
	Rules   []hclRule `hcl:"rule,block"`
}

type hclRule struct {
	Target string    `hcl:"target,label"`
	From   cty.Value `hcl:"from"`
}

func parseHCL(data []byte, name string) (*api.MappingFile, error) {
	if name == "" {
		name = "rules.hcl"
	}
	var f hclFile
	if err := hclsimple.Decode(name, data, nil, &f); err != nil {
		return nil, err
	}
	mf := &api.MappingFile{Version: f.Version, Rules: make([]api.RuleSpec, 0, len(f.Rules))}
	for _, r := range f.Rules {
		from, err := ctyValue(r.From)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Target, err)
		}
		mf.Rules = append(mf.Rules, api.RuleSpec{Target: r.Target, From: from})
	}
	return mf, nil
}

// ctyValue converts an HCL value to plain JSON-like data by way of its JSON
// encoding.
func ctyValue(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	data, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return nil, err
	}
	return oj.Parse(data)
}
