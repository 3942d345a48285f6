package http

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/guiapi/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFixtures_YAML(t *testing.T) {
	table, err := LoadFixtures(filepath.Join("testdata", "fixtures.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"itemEdit", "itemSave", "listView"}, table.Names())

	res, err := table["listView"](context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.HTML, 1)
	assert.Equal(t, domain.HTMLReplace, res.HTML[0].Operation)
	assert.Contains(t, res.HTML[0].Content, `<ul id="item-list">`)
	require.Len(t, res.JS, 2)
	assert.Equal(t, "setURL", res.JS[0].Name)
	assert.JSONEq(t, `[null,"Bunny List","/"]`, string(res.JS[0].Arguments))
	assert.Empty(t, res.JS[1].Arguments)

	edit, err := table["itemEdit"](context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, edit.HTML[0].Init, 1)
	assert.JSONEq(t, `{"focus":"title"}`, string(edit.HTML[0].Init[0].Arguments))
	assert.Equal(t, "stopEditor", edit.HTML[0].Destroy[0].Name)

	save, err := table["itemSave"](context.Background(), nil)
	assert.EqualError(t, err, "title missing")
	assert.Equal(t, "<form>retry</form>", save.HTML[0].Content)
}

func TestLoadFixtures_JSON(t *testing.T) {
	table, err := LoadFixtures(filepath.Join("testdata", "fixtures.json"))
	require.NoError(t, err)

	res, err := table["focusView"](context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.HTMLReplace, res.HTML[0].Operation)
	assert.Equal(t, "enableSorting", res.JS[0].Name)
}

func TestLoadFixtures_Invalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("actions:\n  x:\n    html:\n      - content: no selector\n"), 0644))

	_, err := LoadFixtures(bad)
	assert.ErrorContains(t, err, "without selector")

	_, err = LoadFixtures(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestFixtures_ResultsAreIndependent(t *testing.T) {
	table, err := LoadFixtures(filepath.Join("testdata", "fixtures.yaml"))
	require.NoError(t, err)

	first, _ := table["listView"](context.Background(), nil)
	first.JS = nil
	second, _ := table["listView"](context.Background(), nil)
	assert.Len(t, second.JS, 2)
}
