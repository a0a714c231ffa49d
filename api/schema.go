package api

// DefaultVersion is the STAC version stamped on documents created by this library.
const DefaultVersion = "0.6.0"

// Default document basenames, without the .json extension.
const (
	CatalogBasename = "catalog"
	ItemBasename    = "item"
)

// Link relation types that define the catalog hierarchy.
const (
	RelSelf       = "self"
	RelRoot       = "root"
	RelParent     = "parent"
	RelChild      = "child"
	RelItem       = "item"
	RelCollection = "collection"
)

// HierarchyRels are the relations that tie a document to its position in a tree.
// They are stripped when a document is moved into another tree.
var HierarchyRels = []string{RelSelf, RelRoot, RelParent, RelChild, RelItem}

// Link connects one document to another.
type Link struct {
	// Rel is the relation type (e.g., "child").
	Rel string `json:"rel"`
	// Href is a relative path or an absolute URL.
	Href string `json:"href"`
	// Type is the media type of the target (optional).
	Type string `json:"type,omitempty"`
	// Title is a human readable label (optional).
	Title string `json:"title,omitempty"`
}

// Map returns the link as a generic JSON object, dropping empty optional fields.
func (l Link) Map() map[string]any {
	m := map[string]any{"rel": l.Rel, "href": l.Href}
	if l.Type != "" {
		m["type"] = l.Type
	}
	if l.Title != "" {
		m["title"] = l.Title
	}
	return m
}

// LinkFromMap reads a link out of a decoded JSON object.
// ok is false when the object has no string rel or href.
func LinkFromMap(m map[string]any) (l Link, ok bool) {
	rel, relOK := m["rel"].(string)
	href, hrefOK := m["href"].(string)
	if !relOK || !hrefOK {
		return Link{}, false
	}
	l = Link{Rel: rel, Href: href}
	l.Type, _ = m["type"].(string)
	l.Title, _ = m["title"].(string)
	return l, true
}
