package tests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/aretw0/guiapi/pkg/page"
	"github.com/aretw0/guiapi/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPageStoreContract verifies that a PageStore implementation adheres to the port contract.
func RunPageStoreContract(t *testing.T, store ports.PageStore) {
	t.Helper()
	ctx := context.Background()
	pageID := "contract-page-" + time.Now().Format("20060102150405")

	snapshot := func(id string) *page.Snapshot {
		return &page.Snapshot{
			ID:   id,
			HTML: `<html><head></head><body><div id="container">list</div></body></html>`,
			History: []page.HistoryEntry{
				{State: json.RawMessage(`{"id":3}`), Title: "Edit", URL: "/item/3"},
			},
			UpdatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		want := snapshot(pageID)
		require.NoError(t, store.Save(ctx, pageID, want))

		got, err := store.Load(ctx, pageID)
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.HTML, got.HTML)
		require.Len(t, got.History, 1)
		assert.Equal(t, "/item/3", got.History[0].URL)
		assert.JSONEq(t, `{"id":3}`, string(got.History[0].State))
		assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("Save overwrites", func(t *testing.T) {
		next := snapshot(pageID)
		next.HTML = `<html><head></head><body>second</body></html>`
		require.NoError(t, store.Save(ctx, pageID, next))

		got, err := store.Load(ctx, pageID)
		require.NoError(t, err)
		assert.Equal(t, next.HTML, got.HTML)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+pageID)
		assert.ErrorIs(t, err, domain.ErrPageNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := pageID+"-1", pageID+"-2"
		require.NoError(t, store.Save(ctx, id1, snapshot(id1)))
		require.NoError(t, store.Save(ctx, id2, snapshot(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, pageID))
		_, err := store.Load(ctx, pageID)
		assert.ErrorIs(t, err, domain.ErrPageNotFound)

		assert.NoError(t, store.Delete(ctx, pageID), "deleting twice is not an error")
	})
}
