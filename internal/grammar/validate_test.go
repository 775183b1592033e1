package grammar

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/reshape/mapper"
)

func TestValidate_Accepts(t *testing.T) {
	rules := mapper.RuleSet{
		{Target: "$.otherKey", Source: "$.key"},
		{Target: "number", Source: 12},
		{Target: "negative", Source: -12},
		{Target: "item", Source: "$.items[0].item"},
		{Target: "price", Source: "$.store.book[?(@.price < 10)]"},
		{Target: "categories", Source: `$.store.book[?(@.category == "reference")]`},
		{Target: "$.store.book[0].author", Source: "$.author"},
		{Target: "countries[]", Source: "$.items[*].availableCountries[*].country"},
		{Target: "name", Source: []any{"$.first", "$.last", strings.Join}},
		{Target: "upper", Source: []any{"$.first", "expr: upper(v)"}},
		{Target: "literal", Source: []any{"a", "b"}},
		{Target: "skipped", Source: mapper.Skip},
	}
	assert.NoError(t, Validate(rules))
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		rule   mapper.Rule
		source string
		offset int
	}{
		{"empty target", mapper.Rule{Target: " ", Source: "$.a"}, " ", 0},
		{"nested bracket", mapper.Rule{Target: "a[b[0]]", Source: "$.a"}, "a[b[0]]", 3},
		{"unmatched close", mapper.Rule{Target: "a]", Source: "$.a"}, "a]", 1},
		{"unclosed", mapper.Rule{Target: "a.b[", Source: "$.a"}, "a.b[", 3},
		{"path list without transform", mapper.Rule{Target: "x", Source: []any{"$.a"}}, "[$.a]", -1},
		{"literal in path list", mapper.Rule{Target: "x", Source: []any{"$.a", 3, "expr: v"}}, "3", -1},
		{"last element not callable", mapper.Rule{Target: "x", Source: []any{"$.a", "$.b"}}, "$.b", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(mapper.RuleSet{{Target: "ok", Source: "$.ok"}, tt.rule})
			var se *SyntaxError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.rule.Target, se.Target)
			assert.Equal(t, tt.source, se.Source)
			assert.Equal(t, tt.offset, se.Offset)
		})
	}
}

func TestValidate_BadPath(t *testing.T) {
	err := Validate(mapper.RuleSet{{Target: "x", Source: "$.a[?(@.b =="}})
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "x", se.Target)
	assert.Equal(t, "$.a[?(@.b ==", se.Source)
	assert.NotEmpty(t, se.Message)
	assert.Contains(t, se.Error(), `rule "x"`)
}

func TestValidate_AsMapperValidator(t *testing.T) {
	_, err := mapper.New(mapper.RuleSet{{Target: "a]", Source: "$.a"}}, mapper.WithValidator(Validate))
	var se *SyntaxError
	assert.ErrorAs(t, err, &se)

	m, err := mapper.New(mapper.RuleSet{{Target: "a", Source: "$.a"}}, mapper.WithValidator(Validate))
	require.NoError(t, err)
	out, err := m.MapOne(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"a": 1}}, out)
}
