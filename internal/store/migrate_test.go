package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@localhost:5432/salon?sslmode=disable", migrateURL("postgres://u:p@localhost:5432/salon?sslmode=disable"))
	require.Equal(t, "pgx5://db/salon", migrateURL("postgresql://db/salon"))
	require.Equal(t, "pgx5://db/salon", migrateURL("pgx5://db/salon"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Contains(t, names, "0001_init.up.sql")
	require.Contains(t, names, "0001_init.down.sql")
	require.Contains(t, names, "0002_admin.up.sql")
	require.Contains(t, names, "0002_admin.down.sql")
}
