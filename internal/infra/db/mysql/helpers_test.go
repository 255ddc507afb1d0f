package mysql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringOrDash(t *testing.T) {
	assert.Equal(t, "-", stringOrDash(""))
	assert.Equal(t, "-", stringOrDash("  "))
	assert.Equal(t, "u1", stringOrDash("u1"))
}

func TestJSONOrDefault(t *testing.T) {
	assert.Equal(t, "{}", jsonOrDefault("", "{}"))
	assert.Equal(t, `{"a":1}`, jsonOrDefault(`{"a":1}`, "{}"))
	assert.JSONEq(t, `{"raw":"not json"}`, jsonOrDefault("not json", "{}"))
}

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{"repositories", "analyses", "analysis_errors"} {
		assert.True(t, strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" ("), table)
	}
}
