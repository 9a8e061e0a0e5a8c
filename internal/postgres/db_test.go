package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/shopapp/internal/shop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_UnreachableIsErrConnection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// nothing listens on port 1
	pool, err := Connect(ctx, Options{DSN: "postgres://x@127.0.0.1:1/db?connect_timeout=1&sslmode=disable"})
	require.Error(t, err)
	assert.Nil(t, pool)
	assert.ErrorIs(t, err, shop.ErrConnection)
}

func TestConnect_BadDSN(t *testing.T) {
	_, err := Connect(context.Background(), Options{DSN: "postgres://%zz"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, shop.ErrConnection)
	assert.ErrorContains(t, err, "parse dsn")
}
