package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationsAreIdempotent(t *testing.T) {
	for i, stmt := range migrationStatements {
		normalized := strings.ToUpper(strings.Join(strings.Fields(stmt), " "))
		assert.Contains(t, normalized, "IF NOT EXISTS", "statement %d", i+1)
	}
}

func TestVehiclesTableCreatedFirst(t *testing.T) {
	first := strings.ToUpper(migrationStatements[0])
	assert.True(t, strings.HasPrefix(strings.TrimSpace(first), "CREATE TABLE IF NOT EXISTS VEHICLES"))
	assert.Contains(t, first, "STAGES JSONB")
}
