package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/guiapi/internal/adapters/file"
	"github.com/aretw0/guiapi/pkg/page"
	"github.com/aretw0/guiapi/pkg/ports"
	"github.com/aretw0/guiapi/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.PageStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	tests.RunPageStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)

	require.NoError(t, store.Save(context.Background(), "p1", &page.Snapshot{ID: "p1", HTML: "<p></p>"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "p1.json", entries[0].Name())
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "..", "../escape", filepath.Join("a", "b")} {
		err := store.Save(ctx, id, &page.Snapshot{})
		assert.ErrorIs(t, err, file.ErrInvalidPageID, id)
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
