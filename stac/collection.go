package stac

// Collection is a catalog describing a dataset: it carries a license, an
// extent and properties shared by its items.
type Collection struct {
	*Catalog
}

func (c *Collection) License() string { return c.getString("license") }

// Extent returns the spatial and temporal extent object.
func (c *Collection) Extent() map[string]any {
	m, _ := c.data["extent"].(map[string]any)
	return m
}

// Properties returns properties common to every item of the collection.
func (c *Collection) Properties() map[string]any {
	m, _ := c.data["properties"].(map[string]any)
	return m
}

// Providers returns the provider objects, in order.
func (c *Collection) Providers() []map[string]any {
	arr, _ := c.data["providers"].([]any)
	var out []map[string]any
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
