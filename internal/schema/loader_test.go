package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopYAML = `
system:
  name: shop
  version: "1.0"
  seed: 7
  output:
    format: [csv, json]
    path: ./shop
entities:
  users:
    count: 3
    attributes:
      id:
        type: uuid
        unique: true
      email:
        type: person.email
      age:
        type: person.age
        required: false
        constraints:
          min_value: 18
          max_value: 90
  orders:
    count: 5
    attributes:
      id:
        type: uuid
      user_id:
        type: link
        link_to: shop.users.id
`

func writeSchema(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParse_PreservesDeclarationOrder(t *testing.T) {
	s, err := Parse(strings.NewReader(shopYAML))
	require.NoError(t, err)

	assert.Equal(t, "shop", s.Name)
	assert.Equal(t, "1.0", s.Version)
	require.NotNil(t, s.Seed)
	assert.Equal(t, int64(7), *s.Seed)
	assert.Equal(t, []string{"csv", "json"}, s.Output.Formats)
	assert.Equal(t, "./shop", s.Output.Path)

	require.Len(t, s.Entities, 2)
	assert.Equal(t, "users", s.Entities[0].Name)
	assert.Equal(t, "orders", s.Entities[1].Name)
	assert.Equal(t, []string{"id", "email", "age"}, s.Entities[0].Columns())

	age, ok := s.Entities[0].Attribute("age")
	require.True(t, ok)
	assert.False(t, age.Required)
	assert.Equal(t, 18, age.Constraints["min_value"])

	id, _ := s.Entities[0].Attribute("id")
	assert.True(t, id.Unique)
	assert.True(t, id.Required, "required defaults to true")

	link, _ := s.Entities[1].Attribute("user_id")
	assert.True(t, link.IsLink())
	assert.Equal(t, "shop.users.id", link.LinkTo)
}

func TestParse_Defaults(t *testing.T) {
	s, err := Parse(strings.NewReader("system:\n  name: bare\n  version: v1\n"))
	require.NoError(t, err)
	assert.Nil(t, s.Seed)
	assert.Equal(t, DefaultSeed, s.EffectiveSeed(nil))
	assert.Equal(t, []string{DefaultOutputFormat}, s.Output.Formats)
	assert.Equal(t, DefaultOutputPath, s.Output.Path)

	override := int64(99)
	assert.Equal(t, int64(99), s.EffectiveSeed(&override))
}

func TestParse_SingleFormatScalar(t *testing.T) {
	s, err := Parse(strings.NewReader("system:\n  name: a\n  version: v1\n  output:\n    format: json\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"json"}, s.Output.Formats)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "empty"},
		{"missing type", "system: {name: a, version: v}\nentities:\n  e:\n    count: 1\n    attributes:\n      x: {unique: true}\n", "must have a type"},
		{"negative count", "system: {name: a, version: v}\nentities:\n  e:\n    count: -1\n", "non-negative"},
		{"entities not mapping", "system: {name: a, version: v}\nentities: [a, b]\n", "must be a mapping"},
		{"bad yaml", "system: [", "invalid YAML"},
		{"duplicate entity", "system: {name: a, version: v}\nentities:\n  e:\n    count: 1\n  e:\n    count: 2\n", "duplicate entity 'e' (line 5, first declared on line 3)"},
		{"duplicate attribute", "system: {name: a, version: v}\nentities:\n  e:\n    attributes:\n      x: {type: uuid}\n      x: {type: int}\n", "duplicate attribute 'e.x' (line 6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_LinkToMakesAnyTypeALink(t *testing.T) {
	s, err := Parse(strings.NewReader(`
system: {name: S, version: v}
entities:
  orders:
    attributes:
      user_id: {type: uuid, link_to: S.users.id}
      total: {type: decimal}
`))
	require.NoError(t, err)
	attrs := s.Entities[0].Attributes
	assert.True(t, attrs[0].IsLink())
	assert.False(t, attrs[1].IsLink())
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "b.yml", shopYAML)
	writeSchema(t, dir, "a.yaml", shopYAML)
	writeSchema(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0755))

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yml")}, files)

	files, err = Discover(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = Discover(filepath.Join(dir, "notes.txt"))
	require.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "shop.yaml", shopYAML)
	writeSchema(t, dir, "crm.yaml", `
system:
  name: crm
  version: "2"
entities:
  accounts:
    count: 2
    attributes:
      owner:
        type: link
        link_to: shop.users.email
`)

	graph, result, err := LoadDir(dir)
	require.NoError(t, err)
	require.True(t, result.Valid(), "%+v", result.Errors)
	require.Len(t, graph.Schemas, 2)
	assert.Equal(t, "crm", graph.Schemas[0].Name)
	assert.Equal(t, filepath.Join(dir, "crm.yaml"), graph.Schemas[0].Source)

	_, e, a, err := graph.Attribute(LinkRef{Schema: "shop", Entity: "users", Attribute: "email"})
	require.NoError(t, err)
	assert.Equal(t, "users", e.Name)
	assert.Equal(t, "person.email", a.Type)
}

func TestNewSchemaGraph_DuplicateNames(t *testing.T) {
	_, err := NewSchemaGraph(&SystemSchema{Name: "a", Source: "x.yaml"}, &SystemSchema{Name: "a", Source: "y.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate schema name")
}

func TestParseLinkRef(t *testing.T) {
	ref, err := ParseLinkRef("S.users.id")
	require.NoError(t, err)
	assert.Equal(t, LinkRef{Schema: "S", Entity: "users", Attribute: "id"}, ref)
	assert.Equal(t, "S.users.id", ref.String())
	assert.True(t, ref.SameEntity("S", "users"))
	assert.False(t, ref.SameEntity("s", "users"))

	for _, bad := range []string{"", "a.b", "a.b.c.d", "a..c", ".b.c"} {
		_, err := ParseLinkRef(bad)
		assert.Error(t, err, bad)
	}
}
