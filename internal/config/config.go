package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	ConfigName = "seedsmith.config"
	ConfigFile = ConfigName + ".yaml"
	EnvPrefix  = "SEEDSMITH"
)

type Config struct {
	SchemaDir string   `json:"schema_dir" mapstructure:"schema_dir" yaml:"schema_dir"`
	OutputDir string   `json:"output_dir" mapstructure:"output_dir" yaml:"output_dir"`
	Seed      *int64   `json:"seed,omitempty" mapstructure:"seed" yaml:"seed,omitempty"`
	Formats   []string `json:"formats,omitempty" mapstructure:"formats" yaml:"formats,omitempty"` // overrides every schema's formats
	Database  Database `json:"database" mapstructure:"database" yaml:"database"`
	Log       Log      `json:"log" mapstructure:"log" yaml:"log"`
}

type Database struct {
	Provider     string `json:"provider" mapstructure:"provider" yaml:"provider"`
	URLEnv       string `json:"url_env" mapstructure:"url_env" yaml:"url_env"`
	BatchSize    int    `json:"batch_size" mapstructure:"batch_size" yaml:"batch_size"`
	Truncate     bool   `json:"truncate" mapstructure:"truncate" yaml:"truncate"`
	CreateTables bool   `json:"create_tables" mapstructure:"create_tables" yaml:"create_tables"`
	PrefixSchema bool   `json:"prefix_schema" mapstructure:"prefix_schema" yaml:"prefix_schema"`
}

type Log struct {
	Verbose bool `json:"verbose" mapstructure:"verbose" yaml:"verbose"`
}

var supportedProviders = []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}

func DefaultConfig() *Config {
	return &Config{
		SchemaDir: "./schemas",
		OutputDir: "./output",
		Database: Database{
			Provider:     "postgresql",
			URLEnv:       "DATABASE_URL",
			BatchSize:    100,
			CreateTables: true,
		},
	}
}

// SetDefaults registers every key with v so that SEEDSMITH_* environment
// variables can override keys missing from the config file.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("schema_dir", d.SchemaDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("formats", []string{})
	v.SetDefault("database.provider", d.Database.Provider)
	v.SetDefault("database.url_env", d.Database.URLEnv)
	v.SetDefault("database.batch_size", d.Database.BatchSize)
	v.SetDefault("database.truncate", d.Database.Truncate)
	v.SetDefault("database.create_tables", d.Database.CreateTables)
	v.SetDefault("database.prefix_schema", d.Database.PrefixSchema)
	v.SetDefault("log.verbose", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	d := DefaultConfig()
	if cfg.SchemaDir == "" {
		cfg.SchemaDir = d.SchemaDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = d.OutputDir
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = d.Database.Provider
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = d.Database.URLEnv
	}
	if cfg.Database.BatchSize == 0 {
		cfg.Database.BatchSize = d.Database.BatchSize
	}
	// a seed set through the environment arrives as a string
	if cfg.Seed == nil && v.IsSet("seed") {
		seed := v.GetInt64("seed")
		cfg.Seed = &seed
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if !slices.Contains(supportedProviders, c.Database.Provider) {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}
	if c.Database.BatchSize < 1 {
		return fmt.Errorf("database.batch_size must be positive, got %d", c.Database.BatchSize)
	}
	if c.SchemaDir == "" {
		return fmt.Errorf("schema_dir cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}
	return nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

func IsInitialized() bool {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		if _, err := os.Stat(ConfigName + ext); err == nil {
			return true
		}
	}
	return false
}

const exampleSchema = `system:
  name: example
  version: "1.0"
  seed: 42
  output:
    format: [csv, json]

entities:
  customers:
    count: 10
    attributes:
      id:
        type: uuid
        unique: true
      name:
        type: person.full_name
      email:
        type: person.email
        unique: true

  orders:
    count: 25
    attributes:
      id:
        type: uuid
        unique: true
      customer_id:
        type: link
        link_to: example.customers.id
      total:
        type: finance.price
      status:
        type: choice
        constraints:
          choices: [pending, paid, shipped]
`

// InitializeProject writes a default config file and an example schema in
// the working directory. An empty provider keeps the default.
func InitializeProject(provider string) error {
	if IsInitialized() {
		return fmt.Errorf("project already initialized (%s exists)", ConfigFile)
	}

	cfg := DefaultConfig()
	if provider != "" {
		cfg.Database.Provider = provider
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(ConfigFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := os.MkdirAll(cfg.SchemaDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", cfg.SchemaDir, err)
	}
	example := filepath.Join(cfg.SchemaDir, "example.yaml")
	if _, err := os.Stat(example); os.IsNotExist(err) {
		if err := os.WriteFile(example, []byte(exampleSchema), 0644); err != nil {
			return fmt.Errorf("failed to write example schema: %w", err)
		}
	}
	return nil
}
