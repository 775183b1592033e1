package mapper

import (
	"github.com/agentic-research/reshape/internal/jsonpath"
)

// Match is one resolved source value and its location.
type Match struct {
	Value any
	Path  Path
}

// Querier evaluates path expressions against a document. It returns every
// match in document order, an empty result when nothing matches, and an
// error only for an unparsable expression.
type Querier interface {
	Query(doc any, expr string) ([]Match, error)
}

// JSONPath is the default Querier.
type JSONPath struct {
	w *jsonpath.Walker
}

func NewJSONPath() *JSONPath {
	return &JSONPath{w: jsonpath.NewWalker()}
}

func (q *JSONPath) Query(doc any, expr string) ([]Match, error) {
	found, err := q.w.Query(doc, expr)
	if err != nil {
		return nil, err
	}
	out := make([]Match, 0, len(found))
	for _, f := range found {
		p, err := pathFromExpr(f.Path)
		if err != nil {
			return nil, err
		}
		out = append(out, Match{Value: f.Value, Path: p})
	}
	return out, nil
}

// Check parses expr without evaluating it.
func (q *JSONPath) Check(expr string) error {
	_, err := q.w.Compile(expr)
	return err
}

// checker is implemented by queriers that can reject a bad expression
// before any document is seen.
type checker interface {
	Check(expr string) error
}

// resolve runs one path expression. Parse failures become InvalidRuleError.
func resolve(q Querier, doc any, target, expr string) ([]Match, error) {
	found, err := q.Query(doc, expr)
	if err != nil {
		return nil, invalid(target, "%v", err)
	}
	return found, nil
}
