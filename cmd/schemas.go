package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gobwas/glob"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/config"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

var errInvalidSchemas = errors.New("schema validation failed")

// loadSchemas loads every schema under dir and prints validation findings.
// Invalid schema sets are reported and rejected.
func loadSchemas(dir string) (*schema.SchemaGraph, error) {
	graph, result, err := schema.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	printValidation(result)
	if !result.Valid() {
		return nil, errInvalidSchemas
	}
	return graph, nil
}

func printValidation(result *schema.ValidationResult) {
	for _, issue := range result.Errors {
		color.Red("❌ %s: %s", issue.Location, issue.Message)
		if issue.Suggestion != "" {
			color.Cyan("   💡 %s", issue.Suggestion)
		}
	}
	for _, issue := range result.Warnings {
		color.Yellow("⚠️  %s: %s", issue.Location, issue.Message)
	}
}

// printGenerationError shows a compile or generation failure with its
// suggestion, for commands that return a summary error of their own.
func printGenerationError(err error) {
	var genErr *seeder.GenerationError
	if !errors.As(err, &genErr) {
		return
	}
	color.Red("❌ %s", genErr.Error())
	printSuggestion(err)
}

// printSuggestion shows only the hint attached to a generation failure. The
// error itself is reported by the caller.
func printSuggestion(err error) {
	var genErr *seeder.GenerationError
	if errors.As(err, &genErr) && genErr.Suggestion != "" {
		color.Cyan("   💡 %s", genErr.Suggestion)
	}
}

// schemaFilter selects schemas by a glob over their names. An empty pattern
// matches everything.
type schemaFilter struct {
	pattern glob.Glob
}

func newSchemaFilter(pattern string) (*schemaFilter, error) {
	if pattern == "" {
		return &schemaFilter{}, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid --only pattern %q: %w", pattern, err)
	}
	return &schemaFilter{pattern: g}, nil
}

func (f *schemaFilter) Match(name string) bool {
	return f.pattern == nil || f.pattern.Match(name)
}

func (f *schemaFilter) Systems(systems []*seeder.GeneratedSystem) []*seeder.GeneratedSystem {
	out := make([]*seeder.GeneratedSystem, 0, len(systems))
	for _, sys := range systems {
		if f.Match(sys.Schema.Name) {
			out = append(out, sys)
		}
	}
	return out
}

func newProgressBar(max int, description, unit string) *progressbar.ProgressBar {
	visible := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(unit),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

type generateOptions struct {
	Seed    *int64
	Formats []string
	Quiet   bool
}

// generateAll loads, compiles and runs every schema under the configured
// schema directory. Link targets in other schemas are always generated, so
// filtering happens on the result.
func generateAll(cfg *config.Config, opts generateOptions, log *slog.Logger) (*seeder.Plan, []*seeder.GeneratedSystem, error) {
	graph, err := loadSchemas(cfg.SchemaDir)
	if err != nil {
		return nil, nil, err
	}

	total := 0
	for _, s := range graph.Schemas {
		total += s.TotalCount()
	}

	var bar *progressbar.ProgressBar
	s := seeder.New(seeder.Options{
		SeedOverride: opts.Seed,
		Formats:      opts.Formats,
		Logger:       log,
		OnEntity: func(p seeder.EntityProgress) {
			if bar == nil {
				return
			}
			bar.Describe(fmt.Sprintf("Generating %s", p.Key))
			bar.Add(p.Rows)
		},
	})

	plan, err := s.Compile(graph)
	if err != nil {
		printSuggestion(err)
		return nil, nil, err
	}
	if !opts.Quiet {
		bar = newProgressBar(total, "Generating", "rows")
	}

	systems, err := s.Run(plan)
	if err != nil {
		printSuggestion(err)
		return nil, nil, err
	}
	if bar != nil {
		bar.Finish()
	}
	return plan, systems, nil
}
