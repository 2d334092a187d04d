package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Open(t *testing.T) {
	ctx := context.Background()
	storage, _ := newRedisStorage(t)
	m := NewManager(storage, nil)

	a, err := m.Open(ctx, owner)
	require.NoError(t, err)
	b, err := m.Open(ctx, owner)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, m.Len())

	_, err = m.Open(ctx, "guest")
	assert.ErrorIs(t, err, ErrInvalidOwner)
	_, err = m.Open(ctx, "user:not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidOwner)

	require.NoError(t, a.AddItem(ctx, burger))
	m.Close(owner)
	assert.Zero(t, m.Len())

	reopened, err := m.Open(ctx, owner)
	require.NoError(t, err)
	assert.NotSame(t, a, reopened)
	assert.Equal(t, 1, reopened.ItemCount())
}

func TestManager_Merge(t *testing.T) {
	ctx := context.Background()
	storage, _ := newRedisStorage(t)
	m := NewManager(storage, nil)

	anon := AnonOwner(uuid.New())
	user := UserOwner(uuid.New())

	src, err := m.Open(ctx, anon)
	require.NoError(t, err)
	require.NoError(t, src.AddItem(ctx, burger))
	require.NoError(t, src.AddItem(ctx, soda))

	dst, err := m.Open(ctx, user)
	require.NoError(t, err)
	require.NoError(t, dst.AddItem(ctx, burger))

	require.NoError(t, m.Merge(ctx, anon, user))

	assert.Equal(t, 3, dst.ItemCount())
	assert.Equal(t, 2, dst.Items()[0].Quantity)
	assert.Zero(t, src.ItemCount())

	again, err := m.Open(ctx, anon)
	require.NoError(t, err)
	assert.Zero(t, again.ItemCount())

	assert.NoError(t, m.Merge(ctx, user, user))
}

func TestManager_Bounded(t *testing.T) {
	ctx := context.Background()
	storage, _ := newRedisStorage(t)
	m := newManager(storage, nil, 64, time.Hour)

	for i := 0; i < 1000; i++ {
		_, err := m.Open(ctx, AnonOwner(uuid.New()))
		require.NoError(t, err)
	}
	assert.Equal(t, 64, m.Len())
}

func TestManager_ReloadsSharedStorage(t *testing.T) {
	ctx := context.Background()
	storage, _ := newRedisStorage(t)
	first := NewManager(storage, nil)
	second := NewManager(storage, nil)

	a, err := first.Open(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, a.AddItem(ctx, burger))

	b, err := second.Open(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 1, b.ItemCount())
	require.NoError(t, b.AddItem(ctx, soda))

	a, err = first.Open(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, a.ItemCount())
	assert.Len(t, a.Items(), 2)
}
