package sqlcommon

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteCatalogListTablesSorted(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name FROM sqlite_master").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("users").
			AddRow("accounts"))

	tables, err := SQLiteCatalog{}.ListTables(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts", "users"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteCatalogPrimaryKeyOrder(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	// table_info reports columns in definition order; the pk rank, not
	// the column position, decides the key order.
	mock.ExpectQuery(`PRAGMA table_info`).
		WillReturnRows(sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "tenant", "TEXT", 1, nil, 2).
			AddRow(1, "id", "INTEGER", 1, nil, 1).
			AddRow(2, "name", "TEXT", 0, nil, 0))

	cols, err := SQLiteCatalog{}.PrimaryKeyColumns(context.Background(), db, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "tenant"}, cols)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteCatalogTableExists(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := SQLiteCatalog{}.TableExists(context.Background(), db, "users")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = SQLiteCatalog{}.TableExists(context.Background(), db, "missing")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
