package persistence

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNamesOrdered(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_users.sql", "0002_refresh_tokens.sql", "0003_problems.sql"}, names)
}

func TestRefreshTokenMigrationIndexesDigest(t *testing.T) {
	content, err := fs.ReadFile(migrationFiles, "migrations/0002_refresh_tokens.sql")
	require.NoError(t, err)
	sql := string(content)

	assert.Contains(t, sql, "token_hash  TEXT NOT NULL")
	assert.Contains(t, sql, "CREATE UNIQUE INDEX IF NOT EXISTS refresh_tokens_token_hash_idx")
	assert.Contains(t, sql, "replaced_by UUID")
}

func TestUserMigrationConstrainsRole(t *testing.T) {
	content, err := fs.ReadFile(migrationFiles, "migrations/0001_users.sql")
	require.NoError(t, err)
	for _, role := range []string{"citizen", "inspector", "contractor", "admin"} {
		assert.True(t, strings.Contains(string(content), "'"+role+"'"), role)
	}
}
