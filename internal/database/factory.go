package database

import (
	"fmt"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/database/mysql"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/database/postgres"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/database/sqlite"
)

var SupportedProviders = []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}

func NewAdapter(provider string) (DatabaseAdapter, error) {
	switch provider {
	case "postgresql", "postgres":
		return postgres.New(), nil
	case "mysql":
		return mysql.New(), nil
	case "sqlite", "sqlite3":
		return sqlite.New(), nil
	}
	return nil, fmt.Errorf("unsupported database provider: %s. Supported providers: %v", provider, SupportedProviders)
}
