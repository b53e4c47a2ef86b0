package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
)

var listCmd = &cobra.Command{
	Use:   "list-schemas",
	Short: "List the schemas in the schema directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if dir, _ := cmd.Flags().GetString("schema-dir"); dir != "" {
			cfg.SchemaDir = dir
		}

		files, err := schema.Discover(cfg.SchemaDir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			color.Yellow("⚠️  No schemas found in %s", cfg.SchemaDir)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SCHEMA\tVERSION\tENTITIES\tRECORDS\tSEED\tFORMATS\tFILE")
		for _, file := range files {
			s, err := schema.LoadFile(file)
			if err != nil {
				fmt.Fprintf(w, "?\t?\t?\t?\t?\t?\t%s (%v)\n", filepath.Base(file), err)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
				s.Name, s.Version, len(s.Entities), s.TotalCount(), s.EffectiveSeed(nil),
				strings.Join(s.Output.Formats, ","), filepath.Base(file))
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().StringP("schema-dir", "s", "", "Directory containing schema files (overrides config)")
}
