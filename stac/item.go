package stac

import (
	"fmt"
	"os"
	"time"

	"github.com/agentic-research/satstac/api"
)

// Item is a leaf document describing a single observation and its assets.
type Item struct {
	*Thing
}

func (i *Item) Properties() map[string]any {
	m, _ := i.data["properties"].(map[string]any)
	return m
}

// Property returns a single property. Properties of the item's collection
// are not consulted.
func (i *Item) Property(key string) (any, bool) {
	v, ok := i.Properties()[key]
	return v, ok
}

// Datetime parses the RFC 3339 datetime property.
func (i *Item) Datetime() (time.Time, error) {
	v, _ := i.Property("datetime")
	s, ok := v.(string)
	if !ok {
		return time.Time{}, newError("datetime", i.filename, fmt.Errorf("%w: no datetime property", ErrMalformed))
	}
	dt, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, newError("datetime", i.filename, fmt.Errorf("%w: %w", ErrMalformed, err))
	}
	return dt, nil
}

// BBox returns the bounding box coordinates.
func (i *Item) BBox() []float64 {
	arr, _ := i.data["bbox"].([]any)
	out := make([]float64, 0, len(arr))
	for _, v := range arr {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case int64:
			out = append(out, float64(n))
		}
	}
	return out
}

// Geometry returns the GeoJSON geometry object.
func (i *Item) Geometry() map[string]any {
	m, _ := i.data["geometry"].(map[string]any)
	return m
}

// Assets returns the asset objects keyed by asset name.
func (i *Item) Assets() map[string]any {
	m, _ := i.data["assets"].(map[string]any)
	return m
}

// Asset returns the href of the named asset, resolved against the item's
// directory when relative.
func (i *Item) Asset(key string) (string, bool) {
	a, ok := i.Assets()[key].(map[string]any)
	if !ok {
		return "", false
	}
	href, ok := a["href"].(string)
	if !ok {
		return "", false
	}
	return i.resolve(href), true
}

// Collection opens the item's collection, following the collection link and
// falling back to the parent link.
func (i *Item) Collection() (*Collection, error) {
	cat, err := i.openCatalogRel("collection", api.RelCollection)
	if err != nil {
		if cat, err = i.Parent(); err != nil {
			return nil, err
		}
	}
	col, ok := cat.AsCollection()
	if !ok {
		return nil, newError("collection", cat.filename, fmt.Errorf("%w: not a collection", ErrInvalid))
	}
	return col, nil
}

// SubstituteString expands ${key} references in template. Recognized keys are
// id, collection, date (YYYY-MM-DD), year, month, day and any item property.
// Unknown keys expand to the empty string.
func (i *Item) SubstituteString(template string) string {
	dt, dtErr := i.Datetime()
	return os.Expand(template, func(key string) string {
		switch key {
		case "id":
			return i.ID()
		case "collection":
			if s := i.getString("collection"); s != "" {
				return s
			}
		case "date":
			if dtErr == nil {
				return dt.Format(time.DateOnly)
			}
		case "year":
			if dtErr == nil {
				return fmt.Sprintf("%04d", dt.Year())
			}
		case "month":
			if dtErr == nil {
				return fmt.Sprintf("%02d", int(dt.Month()))
			}
		case "day":
			if dtErr == nil {
				return fmt.Sprintf("%02d", dt.Day())
			}
		}
		if v, ok := i.Property(key); ok {
			return fmt.Sprint(v)
		}
		return ""
	})
}
