package stac

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/satstac/api"
)

func TestThing_Links(t *testing.T) {
	root, err := fixtureStore().Open("catalog/catalog.json")
	require.NoError(t, err)

	assert.Equal(t, []string{"catalog/eo/catalog.json", "catalog/radar/catalog.json"}, root.Links(api.RelChild))
	assert.Equal(t, []string{"catalog/catalog.json"}, root.Links(api.RelRoot))
	assert.Len(t, root.Links(api.RelChild, api.RelRoot), 3)
	assert.Empty(t, root.Links(api.RelItem))
}

func TestThing_AddLink(t *testing.T) {
	cat := NewStore(memfs.New()).Create("")

	cat.AddLink(api.RelChild, "a/catalog.json")
	cat.AddLink(api.RelChild, "b/catalog.json")
	cat.AddLink(api.RelChild, "a/catalog.json")
	cat.AddLink(api.RelParent, "../one.json")
	cat.AddLink(api.RelParent, "../two.json")

	assert.Equal(t, []string{"a/catalog.json", "b/catalog.json"}, cat.Links(api.RelChild))
	assert.Equal(t, []string{"../two.json"}, cat.Links(api.RelParent))

	cat.CleanHierarchy()
	assert.Empty(t, cat.Links())
}

func TestThing_CleanHierarchyKeepsOtherLinks(t *testing.T) {
	item := fixtureStore().NewItem(map[string]any{
		"id": "x",
		"links": []any{
			map[string]any{"rel": "self", "href": "https://a/x.json"},
			map[string]any{"rel": "license", "href": "https://a/license"},
			"garbage",
		},
	})
	item.CleanHierarchy()
	assert.Equal(t, []api.Link{{Rel: "license", Href: "https://a/license"}}, item.RawLinks())
	links, _ := item.Get("links")
	assert.Len(t, links, 2)
}

func TestThing_Lookup(t *testing.T) {
	item, err := fixtureStore().OpenItem("catalog/eo/landsat-8-l1/item.json")
	require.NoError(t, err)

	res, err := item.Lookup("$.properties['eo:cloud_cover']")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.EqualValues(t, 10, res[0])

	res, err = item.Lookup("$.links[*].rel")
	require.NoError(t, err)
	assert.Equal(t, []any{"root", "parent", "collection"}, res)

	_, err = item.Lookup("$.properties[")
	var se *Error
	assert.ErrorAs(t, err, &se)
}

func TestThing_SaveAs(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		store := NewStore(memfs.New())
		cat := store.NewCatalog(map[string]any{"stac_version": api.DefaultVersion})
		err := cat.SaveAs("/c/catalog.json", true)
		assert.ErrorIs(t, err, ErrMissingID)
		assert.Equal(t, Unsaved, cat.State())
		assert.Empty(t, cat.Filename())
	})

	t.Run("root sets self and root", func(t *testing.T) {
		store := NewStore(memfs.New())
		cat := store.Create("")
		require.NoError(t, cat.SaveAs("/c/catalog.json", true))
		assert.Equal(t, Saved, cat.State())
		assert.Equal(t, []string{"/c/catalog.json"}, cat.Links(api.RelSelf))
		assert.Equal(t, []string{"/c/catalog.json"}, cat.Links(api.RelRoot))

		reopened, err := store.Open("/c/catalog.json")
		require.NoError(t, err)
		assert.Equal(t, cat.RawLinks(), reopened.RawLinks())
	})

	t.Run("root is fixed", func(t *testing.T) {
		store, _ := memTree(t)
		eo, err := store.Open("/catalog/eo/catalog.json")
		require.NoError(t, err)

		err = eo.SaveAs("/catalog/eo/catalog.json", true)
		assert.ErrorIs(t, err, ErrRootFixed)
		assert.Equal(t, []string{"/catalog/catalog.json"}, eo.Links(api.RelRoot))

		eo.CleanHierarchy()
		require.NoError(t, eo.SaveAs("/catalog/eo/catalog.json", true))
		assert.Equal(t, []string{"/catalog/eo/catalog.json"}, eo.Links(api.RelRoot))
		assert.Empty(t, eo.Links(api.RelParent))
	})

	t.Run("new tree", func(t *testing.T) {
		store, mem := memTree(t)
		eo, err := store.Open("/catalog/eo/catalog.json")
		require.NoError(t, err)

		require.NoError(t, eo.SaveAs("/new/catalog.json", true))
		assert.Equal(t, "/new/catalog.json", eo.Filename())
		assert.Equal(t, []string{"/new/catalog.json"}, eo.Links(api.RelRoot))
		assert.Equal(t, []string{"/new/catalog.json"}, eo.Links(api.RelSelf))
		assert.Empty(t, eo.Links(api.RelParent))

		// the source document is left alone
		src, err := store.Open("/catalog/eo/catalog.json")
		require.NoError(t, err)
		assert.Equal(t, []string{"/catalog/catalog.json"}, src.Links(api.RelRoot))
		_, err = mem.Stat("/new/catalog.json")
		assert.NoError(t, err)
	})

	t.Run("not a root", func(t *testing.T) {
		store := NewStore(memfs.New())
		cat := store.Create("")
		require.NoError(t, cat.SaveAs("/c/catalog.json", false))
		assert.Empty(t, cat.Links())
		assert.Equal(t, "/c/catalog.json", cat.Filename())
	})
}

func TestThing_Save(t *testing.T) {
	store := NewStore(memfs.New())

	err := store.Create("").Save()
	assert.ErrorIs(t, err, ErrNotSaved)

	cat := store.Create("/c/catalog.json", WithDescription("first"))
	require.NoError(t, cat.Save())
	assert.Equal(t, Saved, cat.State())

	reopened, err := store.Open("/c/catalog.json")
	require.NoError(t, err)
	assert.Equal(t, "first", reopened.Description())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unsaved", Unsaved.String())
	assert.Equal(t, "saved", Saved.String())
	assert.Equal(t, "published", Published.String())
	assert.Equal(t, "unknown", State(42).String())
}
