package savedquery

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqldesk/internal/errs"
	"github.com/koustreak/sqldesk/internal/filestore"
	"github.com/koustreak/sqldesk/internal/filestore/memory"
)

func newStore(t *testing.T) (*Store, *memory.Store) {
	t.Helper()
	files := memory.New()
	s := New(files)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}
	return s, files
}

func TestStore_SaveListGetDelete(t *testing.T) {
	ctx := context.Background()
	s, files := newStore(t)

	first, err := s.Save(ctx, " daily ", "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "daily", first.Name)
	assert.NotEmpty(t, first.ID)

	second, err := s.Save(ctx, "weekly", "SELECT 2")
	require.NoError(t, err)

	objs, err := files.List(ctx, filestore.ListOptions{Prefix: "saved-queries/"})
	require.NoError(t, err)
	assert.Len(t, objs, 2)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	require.NoError(t, s.Delete(ctx, first.ID))
	_, err = s.Get(ctx, first.ID)
	assert.True(t, errs.IsNotFound(err))

	err = s.Delete(ctx, first.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestStore_SaveValidates(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.Save(context.Background(), "  ", "SELECT 1")
	assert.True(t, errs.IsInvalidInput(err))

	_, err = s.Save(context.Background(), "x", "\n")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestStore_GetRejectsForeignKeys(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Get(context.Background(), "../imports/x")
	assert.True(t, errs.IsNotFound(err))
}

func TestStore_ListReportsCorruptObject(t *testing.T) {
	ctx := context.Background()
	s, files := newStore(t)

	id := "8f7b3a52-7c1d-4a55-9f43-0f8f5a0f3c11"
	_, err := files.Put(ctx, key(id), strings.NewReader("not json"), -1, "application/json")
	require.NoError(t, err)

	_, err = s.List(ctx)
	assert.True(t, errs.IsQueryFailed(err))
}
