package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/export"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

const shopYAML = `
system:
  name: shop
  version: "1.0"
  seed: 7
  output:
    format: [csv]
entities:
  customers:
    count: 4
    attributes:
      id:
        type: uuid
        unique: true
  orders:
    count: 6
    attributes:
      id:
        type: uuid
        unique: true
      customer_id:
        type: link
        link_to: shop.customers.id
`

const billingYAML = `
system:
  name: billing
  version: "1.0"
entities:
  invoices:
    count: 3
    attributes:
      order_id:
        type: link
        link_to: shop.orders.id
`

func writeSchemas(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
	return dir
}

func TestSchemaFilter(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"", "anything", true},
		{"shop", "shop", true},
		{"shop", "shopping", false},
		{"shop*", "shopping", true},
		{"{shop,billing}", "billing", true},
		{"b?lling", "billing", true},
		{"b?lling", "shop", false},
	}
	for _, tt := range tests {
		f, err := newSchemaFilter(tt.pattern)
		require.NoError(t, err)
		assert.Equal(t, tt.want, f.Match(tt.name), "%q against %q", tt.pattern, tt.name)
	}
}

func TestSchemaFilter_Systems(t *testing.T) {
	systems := []*seeder.GeneratedSystem{
		{Schema: &schema.SystemSchema{Name: "shop"}},
		{Schema: &schema.SystemSchema{Name: "billing"}},
	}
	f, err := newSchemaFilter("bill*")
	require.NoError(t, err)

	got := f.Systems(systems)
	require.Len(t, got, 1)
	assert.Equal(t, "billing", got[0].Schema.Name)
}

func TestGenerateCommand(t *testing.T) {
	schemaDir := writeSchemas(t, map[string]string{
		"billing.yaml": billingYAML,
		"shop.yaml":    shopYAML,
	})
	outDir := t.TempDir()

	rootCmd.SetArgs([]string{"generate", "--quiet",
		"--schema-dir", schemaDir,
		"--output-dir", outDir,
		"--only", "bill*",
		"--format", "csv,json",
	})
	require.NoError(t, rootCmd.Execute())

	billing := filepath.Join(outDir, "billing")
	assert.FileExists(t, filepath.Join(billing, "invoices.csv"))
	assert.FileExists(t, filepath.Join(billing, "invoices.json"))
	assert.NoDirExists(t, filepath.Join(outDir, "shop"))

	meta, err := export.ReadMetadata(billing)
	require.NoError(t, err)
	assert.Equal(t, 3, meta.TotalRecords)
	assert.Equal(t, []string{"csv", "json"}, meta.Formats)
	assert.Equal(t, schema.DefaultSeed, meta.SeedUsed)
}

func TestGenerateAll_RejectsInvalidSchemas(t *testing.T) {
	schemaDir := writeSchemas(t, map[string]string{"billing.yaml": billingYAML})

	cfg, err := loadConfig()
	require.NoError(t, err)
	cfg.SchemaDir = schemaDir

	_, _, err = generateAll(cfg, generateOptions{Quiet: true}, nil)
	assert.ErrorIs(t, err, errInvalidSchemas)
}

func TestGenerateAll_PrintsSuggestionOnce(t *testing.T) {
	schemaDir := writeSchemas(t, map[string]string{"tags.yaml": `
system:
  name: tags
  version: "1.0"
entities:
  tags:
    count: 5
    attributes:
      name:
        type: choice
        unique: true
        constraints:
          choices: [a, b]
`})
	cfg, err := loadConfig()
	require.NoError(t, err)
	cfg.SchemaDir = schemaDir

	var out bytes.Buffer
	prev := color.Output
	color.Output = &out
	t.Cleanup(func() { color.Output = prev })

	_, _, err = generateAll(cfg, generateOptions{Quiet: true}, nil)
	require.ErrorIs(t, err, seeder.ErrUniqueExhausted)
	assert.Contains(t, err.Error(), "only 2 unique values possible")

	assert.Contains(t, out.String(), "reduce count or widen choice set")
	assert.NotContains(t, out.String(), "only 2 unique values possible")
}
