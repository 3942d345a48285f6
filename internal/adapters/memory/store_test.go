package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/guiapi/internal/adapters/memory"
	"github.com/aretw0/guiapi/pkg/page"
	"github.com/aretw0/guiapi/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	tests.RunPageStoreContract(t, memory.New())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	snap := &page.Snapshot{ID: "p", History: []page.HistoryEntry{{URL: "/a"}}}
	require.NoError(t, store.Save(ctx, "p", snap))

	snap.History[0].URL = "/mutated"

	got, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "/a", got.History[0].URL)
}
