package product

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCached(t *testing.T) (*CachedRepository, *MockRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	repo := new(MockRepository)
	return NewCachedRepository(repo, rdb, 0), repo, mr
}

func TestCachedRepository_List(t *testing.T) {
	ctx := context.Background()
	c, repo, mr := newCached(t)
	opts := ListOptions{ActiveOnly: true}
	products := []Product{{ID: uuid.New(), Name: "Limonada", Category: CategoryBebida, IsActive: true}}

	repo.On("List", ctx, ListOptions{ActiveOnly: true, OrderBy: OrderByName}).Return(products, nil).Once()

	first, err := c.List(ctx, opts)
	require.NoError(t, err)
	second, err := c.List(ctx, opts)
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, mr.Exists(listKey(opts)))
	repo.AssertNumberOfCalls(t, "List", 1)
}

func TestCachedRepository_UnknownOrderingSharesKey(t *testing.T) {
	ctx := context.Background()
	c, repo, mr := newCached(t)

	repo.On("List", ctx, ListOptions{ActiveOnly: true, OrderBy: OrderByName}).Return([]Product{}, nil).Once()

	for _, o := range []OrderBy{"", OrderByName, "price; DROP", "zzz"} {
		_, err := c.List(ctx, ListOptions{ActiveOnly: true, OrderBy: o})
		require.NoError(t, err)
	}

	repo.AssertNumberOfCalls(t, "List", 1)
	assert.Len(t, mr.Keys(), 1)
	assert.Equal(t, OrderByRating, OrderByRating.Normalize())
}

func TestCachedRepository_AdminListBypassesCache(t *testing.T) {
	ctx := context.Background()
	c, repo, mr := newCached(t)
	opts := ListOptions{}

	repo.On("List", ctx, opts).Return([]Product{}, nil)

	_, err := c.List(ctx, opts)
	require.NoError(t, err)
	_, err = c.List(ctx, opts)
	require.NoError(t, err)

	repo.AssertNumberOfCalls(t, "List", 2)
	assert.Empty(t, mr.Keys())
}

func TestCachedRepository_WritesInvalidate(t *testing.T) {
	ctx := context.Background()
	c, repo, mr := newCached(t)
	id := uuid.New()

	require.NoError(t, mr.Set(listKey(ListOptions{ActiveOnly: true}), "[]"))
	require.NoError(t, mr.Set(listKey(ListOptions{ActiveOnly: true, FeaturedOnly: true}), "[]"))
	require.NoError(t, mr.Set("unrelated", "x"))

	repo.On("SetActive", ctx, id, false).Return(nil)
	require.NoError(t, c.SetActive(ctx, id, false))

	assert.Equal(t, []string{"unrelated"}, mr.Keys())

	t.Run("Failed Write Keeps Cache", func(t *testing.T) {
		require.NoError(t, mr.Set(listKey(ListOptions{ActiveOnly: true}), "[]"))
		repo.On("SetFeatured", ctx, id, true).Return(ErrProductNotFound)

		assert.ErrorIs(t, c.SetFeatured(ctx, id, true), ErrProductNotFound)
		assert.True(t, mr.Exists(listKey(ListOptions{ActiveOnly: true})))
	})

	t.Run("Upsert Invalidates", func(t *testing.T) {
		repo.On("Upsert", ctx, mock.Anything).Return(nil)
		require.NoError(t, c.Upsert(ctx, &Product{ID: id}))
		assert.False(t, mr.Exists(listKey(ListOptions{ActiveOnly: true})))
	})
}
