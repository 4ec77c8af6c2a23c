package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/goap/internal/config"
	"github.com/cory-johannsen/goap/internal/storage/postgres"
	"github.com/cory-johannsen/goap/internal/testutil"
)

func TestPool_HealthReportsReachableDatabase(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	require.NoError(t, pc.Pool.Health(context.Background(), postgres.DefaultHealthTimeout))
}

func TestPool_HealthFailsAfterClose(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	pool, err := postgres.NewPool(context.Background(), pc.Config)
	require.NoError(t, err)
	pool.Close()
	assert.Error(t, pool.Health(context.Background(), postgres.DefaultHealthTimeout))
}

func TestNewPool_UnreachableDatabase(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "127.0.0.1",
		Port:     1,
		User:     "goap",
		Name:     "goap",
		SSLMode:  "disable",
		MaxConns: 1,
	}
	ctx, cancel := context.WithTimeout(context.Background(), postgres.DefaultHealthTimeout)
	defer cancel()
	_, err := postgres.NewPool(ctx, cfg)
	assert.Error(t, err)
}
