package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(action, subject string) Event {
	return Event{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Actor:     "root",
		Action:    action,
		Subject:   subject,
	}
}

func TestChecksumChain(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := store.Append(ctx, testEvent(ActionSeasonCreated, "1"))
	require.NoError(t, err)
	second, err := store.Append(ctx, testEvent(ActionNameRegistered, "abc"))
	require.NoError(t, err)

	t.Run("sequences are monotonic", func(t *testing.T) {
		assert.Equal(t, uint64(1), first.Sequence)
		assert.Equal(t, uint64(2), second.Sequence)
	})

	t.Run("an intact chain verifies", func(t *testing.T) {
		entries, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), VerifyChain(entries))
	})

	t.Run("tampering is detected at the altered entry", func(t *testing.T) {
		entries, err := store.List(ctx)
		require.NoError(t, err)
		entries[0].Subject = "99"
		assert.Equal(t, uint64(1), VerifyChain(entries))
	})

	t.Run("a swapped checksum breaks the link downstream", func(t *testing.T) {
		entries, err := store.List(ctx)
		require.NoError(t, err)
		entries[1].Checksum = entries[0].Checksum
		assert.Equal(t, uint64(2), VerifyChain(entries))
	})
}

func TestListByActor(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Append(ctx, testEvent(ActionSeasonCreated, "1"))
	require.NoError(t, err)
	other := testEvent(ActionNameRegistered, "abc")
	other.Actor = "alice"
	_, err = store.Append(ctx, other)
	require.NoError(t, err)

	entries, err := store.ListByActor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionNameRegistered, entries[0].Action)
}

func TestWorkerPersistsAndExports(t *testing.T) {
	store := NewMemoryStore()
	inbox := make(chan Event, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewWorker(store, nil, inbox, discardLogger())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	inbox <- testEvent(ActionRoleAssigned, "alice")

	require.Eventually(t, func() bool {
		entries, err := store.List(context.Background())
		return err == nil && len(entries) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
