package api

// MappingFile is the on-disk form of a rule set.
type MappingFile struct {
	// Version of the rule file schema.
	Version string `json:"version" yaml:"version"`
	// Rules in file order.
	Rules []RuleSpec `json:"rules" yaml:"rules"`
}

// RuleSpec binds a target field to its source.
type RuleSpec struct {
	// Target is the output field, e.g. "countries[]" or "$.meta.id".
	Target string `json:"target" yaml:"target"`
	// From is a path expression, a literal, or a list of path expressions
	// ending in an "expr:" transform.
	From any `json:"from" yaml:"from"`
}

// CurrentVersion is the schema version written by this release.
const CurrentVersion = "v1"
