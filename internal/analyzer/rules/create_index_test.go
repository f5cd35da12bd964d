package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqasim81/posmigrate/internal/analyzer"
	"github.com/aqasim81/posmigrate/internal/analyzer/rules"
)

func TestCreateIndexRule_ID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "create-index", rules.NewCreateIndexRule().ID())
}

func TestCreateIndexRule_Check(t *testing.T) {
	t.Parallel()

	runRuleCases(t, rules.NewCreateIndexRule(), []ruleCase{
		{name: "plain index is safe", sql: "CREATE INDEX idx_products_name ON products (name);", wantCount: 0},
		{name: "IF NOT EXISTS index is safe", sql: "CREATE INDEX IF NOT EXISTS idx_products_name ON products (name);", wantCount: 0},
		{name: "UNIQUE index is MEDIUM", sql: "CREATE UNIQUE INDEX idx_products_sku ON products (sku);", wantCount: 1, wantSeverity: analyzer.Medium, wantTable: "products"},
		{name: "CONCURRENTLY is HIGH", sql: "CREATE INDEX CONCURRENTLY idx_sales_at ON sales (created_at);", wantCount: 1, wantSeverity: analyzer.High, wantTable: "sales"},
		{name: "CREATE TABLE is not flagged", sql: "CREATE TABLE products (id INTEGER);", wantCount: 0},
	})
}
