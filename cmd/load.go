package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/database"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Generate data and insert it into a database",
	Long: `
Generate data for every schema and insert it into the database named by the
configured environment variable (DATABASE_URL by default). Entities are
inserted in dependency order inside a single transaction.

Examples:
  seedsmith load
  seedsmith load --truncate
  seedsmith load --only shop --prefix-schema --batch-size 500`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if dir, _ := flags.GetString("schema-dir"); dir != "" {
			cfg.SchemaDir = dir
		}
		if flags.Changed("seed") {
			seed, _ := flags.GetInt64("seed")
			cfg.Seed = &seed
		}
		if flags.Changed("truncate") {
			cfg.Database.Truncate, _ = flags.GetBool("truncate")
		}
		if flags.Changed("create-tables") {
			cfg.Database.CreateTables, _ = flags.GetBool("create-tables")
		}
		if flags.Changed("prefix-schema") {
			cfg.Database.PrefixSchema, _ = flags.GetBool("prefix-schema")
		}
		if flags.Changed("batch-size") {
			cfg.Database.BatchSize, _ = flags.GetInt("batch-size")
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		only, _ := flags.GetString("only")
		filter, err := newSchemaFilter(only)
		if err != nil {
			return err
		}
		quiet, _ := flags.GetBool("quiet")

		dbURL, err := cfg.GetDatabaseURL()
		if err != nil {
			return err
		}

		log := newLogger(cfg)
		plan, systems, err := generateAll(cfg, generateOptions{Seed: cfg.Seed, Quiet: quiet}, log)
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

		ctx := context.Background()
		adapter, err := database.NewAdapter(cfg.Database.Provider)
		if err != nil {
			return err
		}
		if err := adapter.Connect(ctx, dbURL); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer adapter.Close()

		if err := adapter.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		opts := database.LoadOptions{
			BatchSize:    cfg.Database.BatchSize,
			CreateTables: cfg.Database.CreateTables,
			Truncate:     cfg.Database.Truncate,
		}
		if cfg.Database.PrefixSchema {
			opts.TableName = database.SchemaTableName
		}
		total := 0
		for _, sys := range selected {
			total += sys.Metadata.TotalRecords
		}
		if !quiet {
			bar := newProgressBar(total, "Loading", "rows")
			opts.OnEntity = func(key seeder.NodeKey, rows int) {
				bar.Describe(fmt.Sprintf("Loading %s", key))
				bar.Add(rows)
			}
			defer bar.Finish()
		}

		inserted, err := database.NewLoader(adapter, opts, log).Load(ctx, plan.Order(), selected)
		if err != nil {
			color.Red("❌ Load failed, no rows were written")
			return err
		}

		color.Green("✅ Inserted %d rows from %d schema(s) into %s", inserted, len(selected), cfg.Database.Provider)
		return nil
	},
}

func init() {
	loadCmd.Flags().StringP("schema-dir", "s", "", "Directory containing schema files (overrides config)")
	loadCmd.Flags().Int64("seed", 0, "Seed for every schema, overriding schema seeds")
	loadCmd.Flags().String("only", "", "Only load schemas whose name matches this glob")
	loadCmd.Flags().Bool("truncate", false, "Empty the target tables before inserting")
	loadCmd.Flags().Bool("create-tables", true, "Create missing tables")
	loadCmd.Flags().Bool("prefix-schema", false, "Name tables <schema>_<entity>")
	loadCmd.Flags().Int("batch-size", database.DefaultBatchSize, "Rows per INSERT statement")
	loadCmd.Flags().BoolP("quiet", "q", false, "Hide progress bars")
}
