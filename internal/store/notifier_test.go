package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntrioooo/job-tracker/internal/store"
)

func TestMemoryNotifier_DeliversToUserOnly(t *testing.T) {
	n := store.NewMemoryNotifier()
	ctx := context.Background()

	l1, err := n.Listen(ctx, "user-1")
	require.NoError(t, err)
	defer l1.Close()
	l2, err := n.Listen(ctx, "user-2")
	require.NoError(t, err)
	defer l2.Close()

	require.NoError(t, n.Publish(ctx, store.Change{Type: store.EventApplicationCreated, UserID: "user-1", ApplicationID: "a"}))

	got := <-l1.C()
	assert.Equal(t, "a", got.ApplicationID)
	select {
	case c := <-l2.C():
		t.Fatalf("user-2 received %+v", c)
	default:
	}
}

func TestMemoryNotifier_KeepsLatestPendingEvent(t *testing.T) {
	n := store.NewMemoryNotifier()
	ctx := context.Background()

	l, err := n.Listen(ctx, "user-1")
	require.NoError(t, err)
	defer l.Close()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, n.Publish(ctx, store.Change{UserID: "user-1", ApplicationID: id}))
	}

	got := <-l.C()
	assert.Equal(t, "c", got.ApplicationID)
}

func TestMemoryNotifier_PublishAfterCloseIsSafe(t *testing.T) {
	n := store.NewMemoryNotifier()
	ctx := context.Background()

	l, err := n.Listen(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	assert.NoError(t, n.Publish(ctx, store.Change{UserID: "user-1"}))
	assert.Equal(t, 0, n.Listeners("user-1"))
}

func TestNewSnapshot_VersionTracksContent(t *testing.T) {
	a := store.NewSnapshot("u", nil)
	b := store.NewSnapshot("u", nil)
	assert.Equal(t, a.Version, b.Version)
	assert.NotNil(t, a.Applications)
}
