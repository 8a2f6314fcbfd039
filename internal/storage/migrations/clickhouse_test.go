package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	input := `
-- header comment
CREATE TABLE a (x Int64) ENGINE = Memory;

CREATE TABLE b (
    y String
) ENGINE = Memory;
`
	stmts := splitStatements(input)

	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x Int64) ENGINE = Memory", stmts[0])
	assert.Contains(t, stmts[1], "y String")
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings("SELECT 'it''s'; SELECT 1;"))
	assert.Error(t, validateNoSemicolonInStrings("SELECT 'a;b'"))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/analytics")
	require.NoError(t, err)
	assert.Equal(t, "analytics", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := readMigrations(PostgresFS, "postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Contains(t, pg[0].sql, "CREATE TABLE IF NOT EXISTS tokens")

	ch, err := readMigrations(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	for _, f := range ch {
		assert.NoError(t, validateNoSemicolonInStrings(f.sql), f.name)
	}
	assert.Len(t, splitStatements(ch[0].sql), 1)
}
