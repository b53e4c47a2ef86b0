package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/export"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic data from the schemas",
	Long: `
Generate data for every schema in the schema directory and write it to the
output directory, one sub-directory per schema.

Examples:
  seedsmith generate
  seedsmith generate --seed 7 --format csv,json
  seedsmith generate --only 'shop*' --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if dir, _ := cmd.Flags().GetString("schema-dir"); dir != "" {
			cfg.SchemaDir = dir
		}
		if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
			cfg.OutputDir = dir
		}
		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetInt64("seed")
			cfg.Seed = &seed
		}
		if formats, _ := cmd.Flags().GetStringSlice("format"); len(formats) > 0 {
			cfg.Formats = formats
		}
		for _, f := range cfg.Formats {
			if !slices.Contains(schema.SupportedFormats, f) {
				return fmt.Errorf("unsupported format %q. Supported formats: %v", f, schema.SupportedFormats)
			}
		}

		only, _ := cmd.Flags().GetString("only")
		filter, err := newSchemaFilter(only)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		quiet, _ := cmd.Flags().GetBool("quiet")

		log := newLogger(cfg)
		_, systems, err := generateAll(cfg, generateOptions{Seed: cfg.Seed, Formats: cfg.Formats, Quiet: quiet}, log)
		if err != nil {
			return err
		}

		if len(systems) == 0 {
			color.Yellow("⚠️  No schemas found in %s", cfg.SchemaDir)
			return nil
		}
		selected := filter.Systems(systems)
		if len(selected) == 0 {
			color.Yellow("⚠️  No schema matches %q", only)
			return nil
		}

		manager := export.NewManager(cfg.OutputDir, force, log)
		results, err := manager.ExportAll(context.Background(), selected)
		if err != nil {
			return err
		}

		printSummary(selected, results)
		return nil
	},
}

func printSummary(systems []*seeder.GeneratedSystem, results []*export.Result) {
	total := 0
	for i, sys := range systems {
		res := results[i]
		total += sys.Metadata.TotalRecords
		if res.Skipped {
			color.Yellow("⏭️  %s: up to date (%s)", sys.Schema.Name, res.Dir)
			continue
		}
		color.Green("✅ %s: %d records in %d entities (seed %d) -> %s",
			sys.Schema.Name, sys.Metadata.TotalRecords, len(sys.Order), sys.Metadata.SeedUsed, res.Dir)
		for _, name := range sys.Order {
			fmt.Printf("   %-24s %d\n", name, sys.Metadata.EntityCounts[name])
		}
	}
	color.Cyan("🎉 %d schema(s), %d records", len(systems), total)
}

func init() {
	generateCmd.Flags().StringP("schema-dir", "s", "", "Directory containing schema files (overrides config)")
	generateCmd.Flags().StringP("output-dir", "o", "", "Output directory (overrides config)")
	generateCmd.Flags().Int64("seed", 0, "Seed for every schema, overriding schema seeds")
	generateCmd.Flags().StringSliceP("format", "f", nil, "Output formats, overriding schema formats (csv, json, sqlite, msgpack)")
	generateCmd.Flags().String("only", "", "Only write schemas whose name matches this glob")
	generateCmd.Flags().Bool("force", false, "Rewrite output even when it is up to date")
	generateCmd.Flags().BoolP("quiet", "q", false, "Hide the progress bar")
}
