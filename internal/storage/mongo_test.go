package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestMongo(t *testing.T) *Mongo {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, mongoContainer)
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	s := NewMongo(db, "")
	require.NoError(t, s.CreateIndexes(ctx))
	return s
}

func TestMongo_ReadMissing(t *testing.T) {
	s := setupTestMongo(t)

	_, found, err := s.Read(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMongo_WriteUpserts(t *testing.T) {
	s := setupTestMongo(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "shopclassy_cart", "[]"))
	require.NoError(t, s.Write(ctx, "shopclassy_cart", `[{"quantity":3}]`))

	v, found, err := s.Read(ctx, "shopclassy_cart")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"quantity":3}]`, v)

	n, err := s.collection.CountDocuments(ctx, map[string]string{"_id": "shopclassy_cart"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
