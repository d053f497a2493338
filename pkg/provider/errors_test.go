package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	safety := NewSafetyViolationError(MongoDB, "update_record", "identifier filter is empty")
	assert.ErrorIs(t, safety, ErrSafetyViolation)
	assert.NotErrorIs(t, safety, ErrQuerySyntax)
	assert.Contains(t, safety.Error(), "identifier filter is empty")

	syntax := NewQuerySyntaxError(MongoDB, "unrecognized query shape",
		"accepted forms: db.<collection>.find({...}) or a bare filter literal")
	assert.ErrorIs(t, syntax, ErrQuerySyntax)
	assert.Contains(t, syntax.Error(), "accepted forms")

	unsupported := NewUnsupportedError(Redis, "import", "import is not supported for this engine")
	assert.ErrorIs(t, unsupported, ErrUnsupportedFeature)
	assert.True(t, IsUnsupported(unsupported))

	connErr := NewConnectionError(PostgreSQL, errors.New("dial tcp 127.0.0.1:5432: refused"))
	assert.ErrorIs(t, connErr, ErrConnectionFailed)
	assert.Contains(t, connErr.Error(), "refused")
}

func TestWrapErrorNoDoubleWrap(t *testing.T) {
	cause := errors.New("relation does not exist")
	wrapped := WrapError(PostgreSQL, "get_records", cause)
	assert.Same(t, any(wrapped), any(WrapError(PostgreSQL, "outer", wrapped)))

	annotated := fmt.Errorf("ctx: %w", wrapped)
	assert.Same(t, any(annotated), any(WrapError(PostgreSQL, "outer", annotated)))

	var dbErr *DatabaseError
	assert.ErrorAs(t, wrapped, &dbErr)
	assert.Equal(t, "get_records", dbErr.Operation)
	assert.ErrorIs(t, wrapped, cause)

	assert.Nil(t, WrapError(PostgreSQL, "noop", nil))
}
