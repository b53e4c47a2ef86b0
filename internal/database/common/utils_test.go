package common

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/schema"
	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

func TestTableFor(t *testing.T) {
	e := &schema.EntityConfig{
		Name: "employees",
		Attributes: []*schema.AttributeConfig{
			{Name: "id", Type: "uuid", Required: true},
			{Name: "salary", Type: "decimal", Required: true},
			{Name: "hired", Type: "datetime.datetime", Required: false},
			{Name: "manager_id", Type: "link", LinkTo: "hr.employees.id", Required: true},
		},
	}
	rows := []seeder.Row{
		{"id": "a", "salary": decimal.NewFromInt(10), "hired": nil, "manager_id": nil},
		{"id": "b", "salary": decimal.NewFromInt(12), "hired": time.Now(), "manager_id": "a"},
	}

	table := TableFor("employees", "hr", e, rows)
	assert.Equal(t, []string{"id", "salary", "hired", "manager_id"}, table.ColumnNames())
	assert.Equal(t, []Column{
		{Name: "id", Kind: KindText, NotNull: true},
		{Name: "salary", Kind: KindDecimal, NotNull: true},
		{Name: "hired", Kind: KindTimestamp, NotNull: false},
		{Name: "manager_id", Kind: KindText, NotNull: false},
	}, table.Columns)

	assert.Equal(t, [][]any{
		{"a", decimal.NewFromInt(10), nil, nil},
		{"b", decimal.NewFromInt(12), rows[1]["hired"], "a"},
	}, Values(table, rows))
}

func TestMaxBatchRows(t *testing.T) {
	assert.Equal(t, 100, MaxBatchRows(100, 5, 65535))
	assert.Equal(t, 10, MaxBatchRows(100, 3000, 32766))
	assert.Equal(t, 1, MaxBatchRows(100, 70000, 65535))
	assert.Equal(t, 100, MaxBatchRows(100, 0, 65535))
}
