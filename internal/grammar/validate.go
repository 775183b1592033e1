// Package grammar checks the syntax of a rule set before any document is
// mapped.
package grammar

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/agentic-research/reshape/mapper"
)

// SyntaxError describes the first malformed rule of a rule set.
type SyntaxError struct {
	Target  string
	Source  string // offending text: the target itself or one of its paths
	Offset  int    // 0-indexed byte offset into Source, -1 when unknown
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("rule %q: %s: %s", e.Target, e.Source, e.Message)
	}
	return fmt.Sprintf("rule %q: %s:%d: %s", e.Target, e.Source, e.Offset+1, e.Message)
}

// Validate returns a *SyntaxError for the first rule whose target or source
// paths are malformed, or nil. It only checks syntax; whether a path matches
// anything is decided at mapping time.
func Validate(rules mapper.RuleSet) error {
	for _, r := range rules {
		if err := validateTarget(r.Target); err != nil {
			return err
		}
		if err := validateSource(r); err != nil {
			return err
		}
	}
	return nil
}

func validateTarget(target string) error {
	if strings.TrimSpace(target) == "" {
		return &SyntaxError{Target: target, Source: target, Offset: 0, Message: "empty target"}
	}
	depth := 0
	for i, c := range target {
		switch c {
		case '[':
			if depth > 0 {
				return &SyntaxError{Target: target, Source: target, Offset: i, Message: "nested '['"}
			}
			depth++
		case ']':
			if depth == 0 {
				return &SyntaxError{Target: target, Source: target, Offset: i, Message: "unmatched ']'"}
			}
			depth--
		}
	}
	if depth != 0 {
		return &SyntaxError{Target: target, Source: target, Offset: strings.LastIndex(target, "["), Message: "unclosed '['"}
	}

	expr := strings.ReplaceAll(target, "[]", "[0]")
	shift := 0
	if !strings.HasPrefix(expr, "$") {
		expr = "$." + expr
		shift = 2
	}
	if _, err := jp.ParseString(expr); err != nil {
		off := offset(err)
		if off >= 0 {
			off = max(off-shift, 0)
		}
		return &SyntaxError{Target: target, Source: target, Offset: off, Message: err.Error()}
	}
	return nil
}

func validateSource(r mapper.Rule) error {
	switch {
	case mapper.IsPath(r.Source):
		return validatePath(r.Target, r.Source.(string))
	case mapper.IsPathArray(r.Source):
		arr := toList(r.Source)
		if len(arr) < 2 {
			return &SyntaxError{Target: r.Target, Source: fmt.Sprint(r.Source), Offset: -1,
				Message: "a path list must end with a transform"}
		}
		for _, p := range arr[:len(arr)-1] {
			s, ok := p.(string)
			if !ok || !mapper.IsPath(s) {
				return &SyntaxError{Target: r.Target, Source: fmt.Sprint(p), Offset: -1,
					Message: "expected a path expression"}
			}
			if err := validatePath(r.Target, s); err != nil {
				return err
			}
		}
		if last := arr[len(arr)-1]; !callable(last) {
			return &SyntaxError{Target: r.Target, Source: fmt.Sprint(last), Offset: -1,
				Message: "expected a transform as the last element"}
		}
	}
	return nil
}

func validatePath(target, path string) error {
	if _, err := jp.ParseString(path); err != nil {
		return &SyntaxError{Target: target, Source: path, Offset: offset(err), Message: err.Error()}
	}
	return nil
}

func toList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return nil
}

func callable(v any) bool {
	switch t := v.(type) {
	case mapper.Transform:
		return true
	case string:
		return strings.HasPrefix(t, mapper.ExprPrefix)
	case nil:
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}

var offsetRe = regexp.MustCompile(`at (\d+)`)

// offset extracts the 1-indexed parse position ojg reports in its errors.
func offset(err error) int {
	m := offsetRe.FindStringSubmatch(err.Error())
	if m == nil {
		return -1
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil || n < 1 {
		return -1
	}
	return n - 1
}
