package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/domain"
)

type note struct {
	ID     string   `gorm:"primaryKey;size:64"                                   json:"id"`
	Owner  string   `gorm:"index:idx_notes_owner;uniqueIndex:idx_notes_owner_slug" json:"owner"`
	Slug   string   `gorm:"uniqueIndex:idx_notes_owner_slug"                      json:"slug"`
	Title  string   `json:"title"`
	Tags   []string `gorm:"serializer:json;type:text"                            json:"tags"`
	Pinned bool     `json:"pinned"`
}

type counter struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Owner string `gorm:"index:idx_counters_owner" json:"owner"`
}

var testDefs = []CollectionDef{
	{
		Name: "notes", Model: &note{}, PrimaryKey: "id",
		Indexes: []IndexDef{
			{Name: "owner", Index: "idx_notes_owner", Columns: []string{"owner"}},
			{Name: "ownerSlug", Index: "idx_notes_owner_slug", Columns: []string{"owner", "slug"}, Unique: true},
		},
	},
	{
		Name: "counters", Model: &counter{}, PrimaryKey: "id",
		Indexes: []IndexDef{{Name: "owner", Index: "idx_counters_owner", Columns: []string{"owner"}}},
	},
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Initialize(context.Background(), 1, testDefs))
	return s
}

func notes(t *testing.T, s *Store) *Collection[note] {
	t.Helper()
	c, err := Collect[note](s, "notes")
	require.NoError(t, err)
	return c
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mongo"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestOpen_PostgresWithoutDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverPostgres})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestInitialize_Versioning(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	assert.Equal(t, 1, s.Version())

	require.NoError(t, s.Initialize(ctx, 1, testDefs), "same version is a no-op")
	require.NoError(t, s.Initialize(ctx, 2, testDefs), "upgrade is additive")
	assert.Equal(t, 2, s.Version())

	err := s.Initialize(ctx, 1, testDefs)
	assert.ErrorIs(t, err, ErrSchemaDowngrade)

	assert.ErrorIs(t, s.Initialize(ctx, 0, testDefs), domain.ErrInvalidInput)
}

func TestInitialize_DuplicateCollection(t *testing.T) {
	s, err := Open(context.Background(), Config{DSN: ":memory:"})
	require.NoError(t, err)
	defer s.Close()

	err = s.Initialize(context.Background(), 1, []CollectionDef{testDefs[0], testDefs[0]})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollect_Errors(t *testing.T) {
	s := newTestStore(t)

	_, err := Collect[note](s, "missing")
	assert.ErrorIs(t, err, ErrUnknownCollection)

	_, err = Collect[counter](s, "notes")
	assert.ErrorIs(t, err, ErrModelMismatch)
}

func TestCollection_InsertDuplicateKeepsOriginal(t *testing.T) {
	s := newTestStore(t)
	c := notes(t, s)
	ctx := context.Background()

	require.NoError(t, c.Insert(ctx, &note{ID: "n1", Owner: "u1", Slug: "a", Title: "first"}))

	err := c.Insert(ctx, &note{ID: "n1", Owner: "u2", Slug: "b", Title: "second"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	got, ok, err := c.Get(ctx, "n1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", got.Title)
	assert.Equal(t, "u1", got.Owner)
}

func TestCollection_UniqueCompositeIndex(t *testing.T) {
	s := newTestStore(t)
	c := notes(t, s)
	ctx := context.Background()

	require.NoError(t, c.Insert(ctx, &note{ID: "n1", Owner: "u1", Slug: "a"}))
	require.NoError(t, c.Insert(ctx, &note{ID: "n2", Owner: "u2", Slug: "a"}))

	err := c.Insert(ctx, &note{ID: "n3", Owner: "u1", Slug: "a"})
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	got, ok, err := c.FindUnique(ctx, "ownerSlug", "u2", "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "n2", got.ID)

	_, ok, err = c.FindUnique(ctx, "ownerSlug", "u3", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = c.FindUnique(ctx, "owner", "u1")
	assert.ErrorIs(t, err, ErrUnknownIndex)

	_, err = c.FindByIndex(ctx, "ownerSlug", "u1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollection_GetMissing(t *testing.T) {
	s := newTestStore(t)
	got, ok, err := notes(t, s).Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCollection_FindAllCount(t *testing.T) {
	s := newTestStore(t)
	c := notes(t, s)
	ctx := context.Background()

	for _, n := range []note{
		{ID: "b", Owner: "u1", Slug: "x", Tags: []string{"red"}},
		{ID: "a", Owner: "u1", Slug: "y"},
		{ID: "c", Owner: "u2", Slug: "x"},
	} {
		n := n
		require.NoError(t, c.Insert(ctx, &n))
	}

	byOwner, err := c.FindByIndex(ctx, "owner", "u1")
	require.NoError(t, err)
	require.Len(t, byOwner, 2)
	assert.Equal(t, "a", byOwner[0].ID)
	assert.Equal(t, []string{"red"}, byOwner[1].Tags)

	none, err := c.FindByIndex(ctx, "owner", "ghost")
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := c.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	_, err = c.FindByIndex(ctx, "title", "x")
	assert.ErrorIs(t, err, ErrUnknownIndex)
}

func TestCollection_UpdateShallowMerge(t *testing.T) {
	s := newTestStore(t)
	c := notes(t, s)
	ctx := context.Background()

	require.NoError(t, c.Insert(ctx, &note{ID: "n1", Owner: "u1", Slug: "a", Title: "t", Tags: []string{"x"}}))

	got, err := c.Update(ctx, "n1", map[string]any{"title": "renamed", "pinned": true, "id": "hijack"})
	require.NoError(t, err)
	assert.Equal(t, "n1", got.ID)
	assert.Equal(t, "renamed", got.Title)
	assert.True(t, got.Pinned)
	assert.Equal(t, []string{"x"}, got.Tags)
	assert.Equal(t, "u1", got.Owner)

	stored, ok, err := c.Get(ctx, "n1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, *got, *stored)

	_, ok, err = c.Get(ctx, "hijack")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Update(ctx, "missing", map[string]any{"title": "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollection_DeleteAndDeleteAllByIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c, err := Collect[counter](s, "counters")
	require.NoError(t, err)

	first := &counter{Owner: "u1"}
	require.NoError(t, c.Insert(ctx, first))
	assert.NotZero(t, first.ID)
	require.NoError(t, c.Insert(ctx, &counter{Owner: "u1"}))
	require.NoError(t, c.Insert(ctx, &counter{Owner: "u2"}))

	require.NoError(t, c.Delete(ctx, uint(9999)), "absent key is a no-op")

	removed, err := c.DeleteAllByIndex(ctx, "owner", "nobody")
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = c.DeleteAllByIndex(ctx, "owner", "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	left, err := c.All(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "u2", left[0].Owner)

	require.NoError(t, c.Delete(ctx, left[0].ID))
	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isDuplicate(&pq.Error{Code: "23503"}))
	assert.True(t, isDuplicate(errors.New("UNIQUE constraint failed: notes.id")))
	assert.False(t, isDuplicate(errors.New("disk I/O error")))
}
