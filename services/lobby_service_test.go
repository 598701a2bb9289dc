package services

import (
	"context"
	"testing"

	"github.com/gabnunesdev/futmais-app/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAppStateRepo struct {
	order []string
	err   error
}

func (f *fakeAppStateRepo) GetLobbyOrder(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.order == nil {
		return nil, repositories.ErrAppStateNotFound
	}
	return append([]string(nil), f.order...), nil
}

func (f *fakeAppStateRepo) SetLobbyOrder(ctx context.Context, order []string) error {
	if f.err != nil {
		return f.err
	}
	f.order = order
	return nil
}

func TestLobbyGetOrderEmptyWhenUnset(t *testing.T) {
	svc := NewLobbyService(&fakeAppStateRepo{})

	order, err := svc.GetOrder(context.Background())
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestLobbyToggleChecksInAndOut(t *testing.T) {
	repo := &fakeAppStateRepo{}
	svc := NewLobbyService(repo)
	ctx := context.Background()

	order, err := svc.Toggle(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, order)

	order, err = svc.Toggle(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)

	// Toggling again removes, preserving everyone else's position.
	order, err = svc.Toggle(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, order)
	assert.Equal(t, []string{"b"}, repo.order)
}

func TestLobbyMove(t *testing.T) {
	repo := &fakeAppStateRepo{order: []string{"a", "b", "c"}}
	svc := NewLobbyService(repo)
	ctx := context.Background()

	order, err := svc.Move(ctx, 2, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, order)

	order, err = svc.Move(ctx, 0, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, order)

	// Moves past either end are no-ops.
	order, err = svc.Move(ctx, 0, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, order)

	order, err = svc.Move(ctx, 2, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, order)
}

func TestLobbyReplaceOrderNilBecomesEmpty(t *testing.T) {
	repo := &fakeAppStateRepo{order: []string{"a"}}
	svc := NewLobbyService(repo)

	require.NoError(t, svc.ReplaceOrder(context.Background(), nil))
	assert.Empty(t, repo.order)
	assert.NotNil(t, repo.order)
}
