package index

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/satstac/internal/docio"
	"github.com/agentic-research/satstac/stac"
)

func openFixture(t *testing.T) *stac.Catalog {
	t.Helper()
	l, _ := logtest.NewNullLogger()
	store := stac.NewStore(osfs.New(filepath.Join("..", "stac", "testdata")), stac.WithLogger(l))
	root, err := store.Open("catalog/catalog.json")
	require.NoError(t, err)
	return root
}

func openInventory(t *testing.T, dbPath string) *Inventory {
	t.Helper()
	inv, err := Open(dbPath)
	require.NoError(t, err)
	l, _ := logtest.NewNullLogger()
	inv.SetLogger(l)
	return inv
}

func TestInventory_Index(t *testing.T) {
	inv := openInventory(t, filepath.Join(t.TempDir(), "inventory.db"))
	defer func() { _ = inv.Close() }()

	n, err := inv.Index(openFixture(t))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	assert.Equal(t, uint64(3), inv.Count(KindCatalog))
	assert.Equal(t, uint64(2), inv.Count(KindCollection))
	assert.Equal(t, uint64(2), inv.Count(KindItem))

	cols, err := inv.Select(KindCollection)
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "landsat-8-l1", cols[0].ID)
	assert.Equal(t, "sentinel-2-l1c", cols[1].ID)
	assert.Equal(t, "catalog/eo/catalog.json", cols[0].Parent)

	e, err := inv.Get("catalog/catalog.json")
	require.NoError(t, err)
	assert.Equal(t, "stac", e.ID)
	assert.Equal(t, KindCatalog, e.Kind)
	assert.Empty(t, e.Parent)

	doc, err := docio.Decode(e.Record)
	require.NoError(t, err)
	assert.Equal(t, "A STAC of public datasets", doc["description"])
}

func TestInventory_ByID(t *testing.T) {
	inv := openInventory(t, filepath.Join(t.TempDir(), "inventory.db"))
	defer func() { _ = inv.Close() }()
	_, err := inv.Index(openFixture(t))
	require.NoError(t, err)

	entries, err := inv.ByID("LC80101172015002LGN00")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KindItem, entries[0].Kind)
	assert.Equal(t, "catalog/eo/landsat-8-l1/item.json", entries[0].Path)

	entries, err = inv.ByID("nope")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = inv.Get("nope.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInventory_ReindexAndReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "inventory.db")
	inv := openInventory(t, dbPath)
	root := openFixture(t)

	_, err := inv.Index(root)
	require.NoError(t, err)
	_, err = inv.Index(root)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), inv.Count(KindItem))
	require.NoError(t, inv.Close())

	reopened := openInventory(t, dbPath)
	defer func() { _ = reopened.Close() }()
	assert.Equal(t, uint64(3), reopened.Count(KindCatalog))
	assert.Equal(t, uint64(2), reopened.Count(KindCollection))
	assert.Equal(t, uint64(2), reopened.Count(KindItem))
}

func TestInventory_PutChangesKind(t *testing.T) {
	inv := openInventory(t, filepath.Join(t.TempDir(), "inventory.db"))
	defer func() { _ = inv.Close() }()

	require.NoError(t, inv.Put(Entry{Path: "/a.json", ID: "a", Kind: KindCatalog}))
	require.NoError(t, inv.Put(Entry{Path: "/a.json", ID: "a", Kind: KindCollection}))

	assert.Equal(t, uint64(0), inv.Count(KindCatalog))
	assert.Equal(t, uint64(1), inv.Count(KindCollection))
}

func TestInventory_RowIDOutOfRange(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "inventory.db")
	inv := openInventory(t, dbPath)

	_, err := inv.db.Exec(`INSERT INTO nodes (rowid, path, id, kind, record) VALUES (?, ?, ?, ?, ?)`,
		int64(math.MaxUint32)+1, "/big.json", "big", int(KindItem), "{}")
	require.NoError(t, err)

	err = inv.Put(Entry{Path: "/next.json", ID: "next", Kind: KindItem, Record: []byte("{}")})
	require.ErrorIs(t, err, ErrRowIDRange)
	assert.Equal(t, uint64(0), inv.Count(KindItem))
	_, err = inv.Get("/next.json")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, inv.Close())

	_, err = Open(dbPath)
	assert.ErrorIs(t, err, ErrRowIDRange)
}

func TestInventory_SkipsBrokenLinks(t *testing.T) {
	mem := memfs.New()
	store := stac.NewStore(mem)
	root := store.Create("")
	require.NoError(t, root.SaveAs("/tree/catalog.json", true))
	require.NoError(t, root.AddCatalog(store.Create("", stac.WithID("a"))))
	require.NoError(t, root.AddCatalog(store.Create("", stac.WithID("b"))))
	require.NoError(t, mem.Remove("/tree/a/catalog.json"))

	inv, err := Open(filepath.Join(t.TempDir(), "inventory.db"))
	require.NoError(t, err)
	defer func() { _ = inv.Close() }()
	l, hook := logtest.NewNullLogger()
	inv.SetLogger(l)

	n, err := inv.Index(root)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "skipping catalog" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "catalog", KindCatalog.String())
	assert.Equal(t, "collection", KindCollection.String())
	assert.Equal(t, "item", KindItem.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
