package model

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedStore_LoadCaches(t *testing.T) {
	inner := &memStore{data: []byte("v1")}
	c := NewCachedStore(inner)

	for range 3 {
		data, err := c.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), data)
	}
	assert.Equal(t, 1, inner.loads)
}

func TestCachedStore_LoadReturnsCopy(t *testing.T) {
	c := NewCachedStore(&memStore{data: []byte("v1")})

	data, err := c.Load(context.Background())
	require.NoError(t, err)
	data[0] = 'x'

	again, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), again)
}

func TestCachedStore_SaveReplacesCache(t *testing.T) {
	inner := &memStore{data: []byte("v1")}
	c := NewCachedStore(inner)

	_, err := c.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Save(context.Background(), []byte("v2")))

	data, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
	assert.Equal(t, 1, inner.loads)
	assert.Equal(t, []byte("v2"), inner.data)
}

func TestCachedStore_Invalidate(t *testing.T) {
	inner := &memStore{data: []byte("v1")}
	c := NewCachedStore(inner)

	_, err := c.Load(context.Background())
	require.NoError(t, err)

	// Written behind the cache's back, as another process would.
	inner.data = []byte("v2")
	data, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)

	c.Invalidate()
	data, err = c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

func TestCachedStore_NotFoundNotCached(t *testing.T) {
	inner := &memStore{}
	c := NewCachedStore(inner)

	_, err := c.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrModelNotFound)

	inner.data = []byte("v1")
	data, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)
}

func TestCachedStore_SaveErrorDropsCache(t *testing.T) {
	inner := &memStore{data: []byte("v1")}
	c := NewCachedStore(inner)
	_, err := c.Load(context.Background())
	require.NoError(t, err)

	inner.err = errors.New("disk full")
	require.Error(t, c.Save(context.Background(), []byte("v2")))

	inner.err = nil
	data, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)
	assert.Equal(t, 2, inner.loads)
}
