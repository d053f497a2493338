package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polydb-io/polydb/pkg/provider"
)

func TestQuoteIdentifier(t *testing.T) {
	d := &dialect{}
	assert.Equal(t, "`users`", d.QuoteIdentifier("users"))
	assert.Equal(t, "`weird``name`", d.QuoteIdentifier("weird`name"))
}

func TestConnectRejectsEmptyDSN(t *testing.T) {
	_, err := NewAdapter().Connect(context.Background(), provider.Config{})
	assert.ErrorIs(t, err, provider.ErrConnectionFailed)
}

func TestPrimaryKeyColumns(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT column_name").
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("region").AddRow("order_id"))

	columns, err := (&dialect{}).PrimaryKeyColumns(context.Background(), db, "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "order_id"}, columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableExists(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := (&dialect{}).TableExists(context.Background(), db, "orders")
	require.NoError(t, err)
	assert.True(t, exists)
}
