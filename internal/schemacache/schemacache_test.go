package schemacache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqldesk/internal/database"
)

type countingDB struct {
	database.DB // unused methods panic
	calls       int
	err         error
}

func (d *countingDB) InspectSchema(context.Context) (*database.Schema, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return &database.Schema{Tables: []database.Table{{Name: "users"}}}, nil
}

func TestCache_HitsAndInvalidates(t *testing.T) {
	ctx := context.Background()
	c := New(DefaultConfig())
	db := &countingDB{}

	s1, err := c.Get(ctx, "root@h:3306/shop", db)
	require.NoError(t, err)
	s2, err := c.Get(ctx, "root@h:3306/shop", db)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, db.calls)

	c.Invalidate("root@h:3306/shop")
	_, err = c.Get(ctx, "root@h:3306/shop", db)
	require.NoError(t, err)
	assert.Equal(t, 2, db.calls)

	_, err = c.Get(ctx, "root@h:3306/other", db)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestCache_DoesNotStoreErrors(t *testing.T) {
	ctx := context.Background()
	c := New(Config{Size: 2, TTL: time.Minute})
	db := &countingDB{err: errors.New("boom")}

	_, err := c.Get(ctx, "k", db)
	require.Error(t, err)
	assert.Zero(t, c.Len())
}

func TestCache_Expires(t *testing.T) {
	ctx := context.Background()
	c := New(Config{Size: 2, TTL: 20 * time.Millisecond})
	db := &countingDB{}

	_, err := c.Get(ctx, "k", db)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, "k", db)
		return err == nil && db.calls >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestCache_EvictsLeastRecent(t *testing.T) {
	ctx := context.Background()
	c := New(Config{Size: 2, TTL: time.Minute})
	db := &countingDB{}

	for _, k := range []string{"a", "b", "a", "c"} {
		_, err := c.Get(ctx, k, db)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, db.calls)

	_, err := c.Get(ctx, "a", db)
	require.NoError(t, err)
	assert.Equal(t, 3, db.calls, "a was recently used and survives")
}
