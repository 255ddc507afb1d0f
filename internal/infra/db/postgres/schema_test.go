package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{"repositories", "analyses", "analysis_errors"} {
		assert.True(t, strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" ("), table)
	}
	// every statement must survive the naive split in Migrate
	for _, stmt := range strings.Split(schema, ";") {
		assert.NotContains(t, stmt, "$$")
	}
}
