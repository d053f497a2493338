package common

import (
	"testing"

	"github.com/polydb-io/polydb/pkg/provider"
	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"users"`, QuoteIdentifier("users"))
	assert.Equal(t, `"we""ird"`, QuoteIdentifier(`we"ird`))
	assert.Equal(t, `"a;DROP TABLE x--"`, QuoteIdentifier("a;DROP TABLE x--"))
}

func TestBuildOrderBy(t *testing.T) {
	assert.Equal(t, "", BuildOrderBy(nil, QuoteIdentifier))

	sort := []provider.SortKey{
		{Column: "name"},
		{Column: "age", Direction: provider.Descending},
	}
	assert.Equal(t, `ORDER BY "name" ASC, "age" DESC`, BuildOrderBy(sort, QuoteIdentifier))
}

func TestValueToString(t *testing.T) {
	assert.Equal(t, "", ValueToString(nil))
	assert.Equal(t, "hi", ValueToString("hi"))
	assert.Equal(t, "hi", ValueToString([]byte("hi")))
	assert.Equal(t, "42", ValueToString(42))
}
