package views

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacetraveling/internal/domain"
	"spacetraveling/internal/listing"
)

func testState(next string, uids ...string) listing.State {
	state := listing.State{NextPage: next}
	for _, uid := range uids {
		state.Items = append(state.Items, domain.PostSummary{UID: uid})
	}
	return state
}

func TestMemoryStore_CreateLoadSave(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	id, err := store.Create(ctx, testState("page2", "p1"))
	require.NoError(t, err)
	assert.Len(t, id, 36)

	state, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, testState("page2", "p1"), state)

	require.NoError(t, store.Save(ctx, id, testState("", "p1", "p2")))

	state, err = store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, testState("", "p1", "p2"), state)
}

func TestMemoryStore_UnknownView(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrViewNotFound)
	assert.ErrorIs(t, store.Save(ctx, "missing", testState("")), ErrViewNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2021, 3, 15, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	id, err := store.Create(ctx, testState("page2", "p1"))
	require.NoError(t, err)

	now = now.Add(50 * time.Second)
	require.NoError(t, store.Save(ctx, id, testState("page3", "p1", "p2")), "save refreshes the expiry")

	now = now.Add(50 * time.Second)
	_, err = store.Load(ctx, id)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestMemoryStore_StateIsCopied(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	state := testState("page2", "p1")
	id, err := store.Create(ctx, state)
	require.NoError(t, err)

	state.Items[0].UID = "changed"

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "p1", loaded.Items[0].UID)
}
