package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/btts/internal/model"
)

func TestMigrationsAreIdempotent(t *testing.T) {
	db, err := NewDatabase("sqlite://:memory:", nil)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	assert.Equal(t, "sqlite", db.Driver())
	require.NoError(t, db.HealthCheck(ctx))

	require.NoError(t, db.RunMigrations(ctx))
	require.NoError(t, db.RunMigrations(ctx))

	var versions int
	require.NoError(t, db.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 2, versions)

	comps := []model.Competition{
		{ID: 39, Name: "Premier League", Country: "England"},
		{ID: 88, Name: "Eredivisie", Country: "Netherlands"},
	}
	n, err := db.SeedData(ctx, comps)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = db.SeedData(ctx, append(comps, model.Competition{ID: 94, Name: "Primeira Liga"}))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRebind(t *testing.T) {
	sqlite := &Database{driver: "sqlite"}
	assert.Equal(t, "SELECT ?1, ?2", sqlite.Rebind("SELECT $1, $2"))

	pg := &Database{driver: "postgres"}
	assert.Equal(t, "SELECT $1", pg.Rebind("SELECT $1"))
}

func TestNewDatabaseUnreachable(t *testing.T) {
	_, err := NewDatabase("postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1", nil)
	assert.Error(t, err)
}
