package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

var validateCmd = &cobra.Command{
	Use:   "validate-schema",
	Short: "Check schemas without generating data",
	Long: `
Validate every schema in the schema directory: structure, link targets,
output formats, generator types, constraints, dependency cycles and whether
unique attributes can be satisfied.

Examples:
  seedsmith validate-schema
  seedsmith validate-schema --schema-dir ./fixtures
  seedsmith validate-schema --types`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listTypes, _ := cmd.Flags().GetBool("types"); listTypes {
			for _, t := range seeder.SupportedTypes() {
				fmt.Println(t)
			}
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if dir, _ := cmd.Flags().GetString("schema-dir"); dir != "" {
			cfg.SchemaDir = dir
		}

		graph, result, err := schema.LoadDir(cfg.SchemaDir)
		if err != nil {
			return err
		}
		printValidation(result)
		if !result.Valid() {
			color.Red("❌ %d error(s), %d warning(s)", len(result.Errors), len(result.Warnings))
			return errInvalidSchemas
		}

		plan, err := seeder.New(seeder.Options{Logger: newLogger(cfg)}).Compile(graph)
		if err != nil {
			printGenerationError(err)
			return errInvalidSchemas
		}
		for _, w := range plan.Warnings() {
			color.Yellow("⚠️  %s", w)
		}

		color.Green("✅ %d schema(s) valid, %d entities in load order", len(graph.Schemas), len(plan.Order()))
		for i, key := range plan.Order() {
			fmt.Printf("   %2d. %s\n", i+1, key)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringP("schema-dir", "s", "", "Directory containing schema files (overrides config)")
	validateCmd.Flags().Bool("types", false, "List supported attribute types and exit")
}
