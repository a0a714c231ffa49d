package stac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLandsatItem(t *testing.T) *Item {
	t.Helper()
	item, err := fixtureStore().OpenItem("catalog/eo/landsat-8-l1/item.json")
	require.NoError(t, err)
	return item
}

func TestItem_Accessors(t *testing.T) {
	item := openLandsatItem(t)

	dt, err := item.Datetime()
	require.NoError(t, err)
	assert.True(t, dt.Equal(time.Date(2015, 1, 2, 15, 49, 5, 571384000, time.UTC)), "datetime = %v", dt)

	assert.Len(t, item.BBox(), 4)
	assert.InDelta(t, -70.59341, item.BBox()[0], 1e-9)
	assert.Equal(t, "Polygon", item.Geometry()["type"])

	v, ok := item.Property("eo:cloud_cover")
	require.True(t, ok)
	assert.EqualValues(t, 10, v)
}

func TestItem_Assets(t *testing.T) {
	item := openLandsatItem(t)
	assert.Len(t, item.Assets(), 2)

	href, ok := item.Asset("B1")
	require.True(t, ok)
	assert.Equal(t, "catalog/eo/landsat-8-l1/LC80101172015002LGN00_B1.TIF", href)

	href, ok = item.Asset("thumbnail")
	require.True(t, ok)
	assert.Contains(t, href, "https://landsat-pds.s3.amazonaws.com/")

	_, ok = item.Asset("B99")
	assert.False(t, ok)
}

func TestItem_Collection(t *testing.T) {
	item := openLandsatItem(t)
	col, err := item.Collection()
	require.NoError(t, err)
	assert.Equal(t, "landsat-8-l1", col.ID())
	assert.Equal(t, "PDDL-1.0", col.License())
}

func TestItem_CollectionFallsBackToParent(t *testing.T) {
	store, _ := memTree(t)
	item, err := store.OpenItem("/catalog/eo/sentinel-2-l1c/item.json")
	require.NoError(t, err)
	item.data["links"] = []any{
		map[string]any{"rel": "parent", "href": "catalog.json"},
	}

	col, err := item.Collection()
	require.NoError(t, err)
	assert.Equal(t, "sentinel-2-l1c", col.ID())
}

func TestItem_SubstituteString(t *testing.T) {
	item := openLandsatItem(t)

	tests := []struct {
		template string
		want     string
	}{
		{"${id}", "LC80101172015002LGN00"},
		{"${collection}/${year}/${month}/${day}", "landsat-8-l1/2015/01/02"},
		{"${date}", "2015-01-02"},
		{"path_${landsat:path}/row_${landsat:row}", "path_10/row_117"},
		{"${unknown}x", "x"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			assert.Equal(t, tt.want, item.SubstituteString(tt.template))
		})
	}
}

func TestItem_DatetimeMissing(t *testing.T) {
	item := fixtureStore().NewItem(map[string]any{"id": "x"})
	_, err := item.Datetime()
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, "x", item.SubstituteString("${id}${date}"))
}
