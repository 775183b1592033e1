// Package rules loads rule files and compiles them into mapper rule sets.
//
// Rule files are YAML, JSON or HCL, chosen by extension. In YAML and JSON the
// rules are a mapping from target to source, kept in file order:
//
//	version: v1
//	rules:
//	  date: $.date
//	  countries[]: $.items[*].availableCountries[*].country
//	  agent: [$.event.name, $.event.lastName, "expr: args[0] + ' ' + args[1]"]
//
// HCL files use one block per rule:
//
//	version = "v1"
//	rule "date" { from = "$.date" }
package rules

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/agentic-research/reshape/api"
	"github.com/agentic-research/reshape/mapper"
)

// ErrUnknownFormat is returned for rule files with an unsupported extension.
var ErrUnknownFormat = errors.New("unknown rule file format")

// Format of a rule file.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
	HCL  Format = "hcl"
)

// FormatOf picks the format from the file extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	case ".hcl":
		return HCL, nil
	default:
		return "", fmt.Errorf("%s: %w", name, ErrUnknownFormat)
	}
}

// Load reads and parses the rule file name from fs.
func Load(fs billy.Filesystem, name string) (*api.MappingFile, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	data, err := util.ReadFile(fs, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %s: %w", name, err)
	}
	mf, err := Parse(data, format, name)
	if err != nil {
		return nil, err
	}
	return mf, nil
}

// Parse decodes rule file data. name is only used in error messages.
func Parse(data []byte, format Format, name string) (*api.MappingFile, error) {
	var (
		mf  *api.MappingFile
		err error
	)
	switch format {
	case YAML, JSON:
		mf, err = parseYAML(data)
	case HCL:
		mf, err = parseHCL(data, name)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse rule file %s: %w", name, err)
	}
	applyDefaults(mf)
	return mf, nil
}

func applyDefaults(mf *api.MappingFile) {
	if mf.Version == "" {
		mf.Version = api.CurrentVersion
	}
}

// Compile turns a rule file into a rule set. "expr:" transforms are compiled
// here, so a broken expression fails before any document is read.
func Compile(mf *api.MappingFile) (mapper.RuleSet, error) {
	rs := make(mapper.RuleSet, 0, len(mf.Rules))
	for _, spec := range mf.Rules {
		src := spec.From
		if list, ok := src.([]any); ok && len(list) > 1 && mapper.IsPath(list[0]) {
			last, isStr := list[len(list)-1].(string)
			if isStr && strings.HasPrefix(last, mapper.ExprPrefix) {
				x, err := mapper.NewExpr(last)
				if err != nil {
					return nil, &mapper.InvalidRuleError{Target: spec.Target, Reason: err.Error()}
				}
				compiled := make([]any, len(list))
				copy(compiled, list)
				compiled[len(list)-1] = x
				src = compiled
			}
		}
		rs = append(rs, mapper.Rule{Target: spec.Target, Source: src})
	}
	return rs, nil
}

// LoadRuleSet is Load followed by Compile.
func LoadRuleSet(fs billy.Filesystem, name string) (mapper.RuleSet, error) {
	mf, err := Load(fs, name)
	if err != nil {
		return nil, err
	}
	return Compile(mf)
}
