package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueTypes(issues []ValidationIssue) []string {
	types := make([]string, len(issues))
	for i, is := range issues {
		types[i] = is.Type
	}
	return types
}

func TestValidateAll_Valid(t *testing.T) {
	s, err := Parse(strings.NewReader(shopYAML))
	require.NoError(t, err)

	result := ValidateAll([]*SystemSchema{s})
	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)
}

func TestValidateAll_Errors(t *testing.T) {
	s := &SystemSchema{
		Output: OutputConfig{Formats: []string{"parquet"}, Path: "."},
		Entities: []*EntityConfig{
			{Name: "a", Count: 0, Attributes: []*AttributeConfig{
				{Name: "x", Type: LinkType},
				{Name: "y", Type: LinkType, LinkTo: "nope"},
				{Name: "z", Type: LinkType, LinkTo: "s.b.id"},
			}},
		},
	}

	result := ValidateAll([]*SystemSchema{s})
	require.False(t, result.Valid())
	assert.ElementsMatch(t, []string{
		"missing_field", "missing_field", "unsupported_format", "invalid_count",
		"missing_link_target", "invalid_link_format", "broken_link",
	}, issueTypes(result.Errors))

	for _, e := range result.Errors {
		if e.Type == "unsupported_format" {
			assert.Contains(t, e.Suggestion, "csv")
		}
	}
}

func TestValidateAll_Warnings(t *testing.T) {
	s := &SystemSchema{
		Name:    "org",
		Version: "1",
		Output:  OutputConfig{Formats: []string{"json"}},
		Entities: []*EntityConfig{
			{Name: "employees", Count: 3, Attributes: []*AttributeConfig{
				{Name: "id", Type: "uuid", Required: true},
				{Name: "manager_id", Type: LinkType, LinkTo: "org.employees.id", Required: true},
				{Name: "buddy", Type: "uuid", LinkTo: "org.employees.id"},
			}},
			{Name: "empty", Count: 1},
		},
	}

	result := ValidateAll([]*SystemSchema{s})
	assert.True(t, result.Valid())
	assert.ElementsMatch(t, []string{"required_self_link", "link_type_mismatch", "empty_attributes"}, issueTypes(result.Warnings))
}

func TestValidateAll_CrossSchema(t *testing.T) {
	a := &SystemSchema{Name: "a", Version: "1", Entities: []*EntityConfig{
		{Name: "users", Count: 1, Attributes: []*AttributeConfig{{Name: "id", Type: "uuid"}}},
	}}
	b := &SystemSchema{Name: "b", Version: "1", Entities: []*EntityConfig{
		{Name: "orders", Count: 1, Attributes: []*AttributeConfig{{Name: "u", Type: LinkType, LinkTo: "a.users.id"}}},
	}}
	dup := &SystemSchema{Name: "a", Version: "2"}

	assert.True(t, ValidateAll([]*SystemSchema{a, b}).Valid())

	result := ValidateAll([]*SystemSchema{a, b, dup})
	require.False(t, result.Valid())
	assert.Contains(t, issueTypes(result.Errors), "duplicate_schema")
}
