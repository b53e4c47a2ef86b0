package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/database/common"
)

func TestGenerateCreateTableSQL(t *testing.T) {
	table := common.Table{
		Name: "order items",
		Columns: []common.Column{
			{Name: "id", Kind: common.KindText, NotNull: true},
			{Name: "qty", Kind: common.KindInteger, NotNull: true},
			{Name: "price", Kind: common.KindDecimal},
			{Name: "shipped_at", Kind: common.KindTimestamp},
		},
	}

	got := New().GenerateCreateTableSQL(table)
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "order items" (
  "id" TEXT NOT NULL,
  "qty" BIGINT NOT NULL,
  "price" NUMERIC,
  "shipped_at" TIMESTAMP WITH TIME ZONE
)`, got)
}

func TestNumericArgs(t *testing.T) {
	row := []any{"a", decimal.RequireFromString("12.50"), int64(3), nil}
	p := New()

	query, args, err := p.qb.Insert(`"t"`).Columns(`"a"`, `"b"`, `"c"`, `"d"`).Values(numericArgs(row)...).ToSql()
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "t" ("a","b","c","d") VALUES ($1,CAST($2 AS NUMERIC),$3,$4)`, query)
	assert.Equal(t, []any{"a", "12.5", int64(3), nil}, args)

	// the input row is left alone
	assert.IsType(t, decimal.Decimal{}, row[1])
}
