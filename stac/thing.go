package stac

import (
	"path"
	"slices"
	"sort"

	"github.com/agentic-research/satstac/api"
	"github.com/agentic-research/satstac/internal/docio"
)

// Thing is the part common to catalogs, collections and items: a JSON object
// with an id, a stac_version and an ordered list of links.
type Thing struct {
	store    *Store
	data     map[string]any
	filename string
	state    State
}

func (t *Thing) ID() string { return t.getString("id") }

func (t *Thing) STACVersion() string { return t.getString("stac_version") }

func (t *Thing) Title() string { return t.getString("title") }

func (t *Thing) Description() string { return t.getString("description") }

// Keywords returns the string entries of the keywords array.
func (t *Thing) Keywords() []string {
	arr, _ := t.data["keywords"].([]any)
	var out []string
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Keys returns the top-level property names, sorted.
func (t *Thing) Keys() []string {
	keys := make([]string, 0, len(t.data))
	for k := range t.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a top-level property.
func (t *Thing) Get(key string) (any, bool) {
	v, ok := t.data[key]
	return v, ok
}

// Lookup evaluates a JSONPath selector (e.g. "$.properties['eo:cloud_cover']")
// against the document.
func (t *Thing) Lookup(selector string) ([]any, error) {
	res, err := docio.Query(t.data, selector)
	if err != nil {
		return nil, newError("lookup", t.filename, err)
	}
	return res, nil
}

// Data returns a deep copy of the document.
func (t *Thing) Data() map[string]any {
	return docio.Clone(t.data).(map[string]any)
}

// Filename is the document's storage location, or "" if it has none.
func (t *Thing) Filename() string { return t.filename }

// Dir is the directory holding the document.
func (t *Thing) Dir() string {
	if t.filename == "" {
		return ""
	}
	return path.Dir(t.filename)
}

func (t *Thing) State() State { return t.state }

// Store returns the store the document was opened or created with.
func (t *Thing) Store() *Store { return t.store }

// RawLinks returns the document's links as written.
func (t *Thing) RawLinks() []api.Link {
	return docio.Links(t.data)
}

// Links returns the hrefs of all links, or only of links whose rel is one of
// rels. Relative hrefs are resolved against the document's directory.
func (t *Thing) Links(rels ...string) []string {
	var out []string
	for _, l := range t.RawLinks() {
		if len(rels) > 0 && !slices.Contains(rels, l.Rel) {
			continue
		}
		out = append(out, t.resolve(l.Href))
	}
	return out
}

// AddLink appends a link in memory. self, root and parent are single valued:
// adding one replaces the previous link of that rel. An identical rel/href
// pair is never added twice.
func (t *Thing) AddLink(rel, href string) {
	addLink(t.data, api.Link{Rel: rel, Href: href})
}

// CleanHierarchy removes every link that ties the document to a tree
// (self, root, parent, child, item), in memory.
func (t *Thing) CleanHierarchy() {
	removeRels(t.data, api.HierarchyRels...)
}

// Parent opens the document's parent catalog.
func (t *Thing) Parent() (*Catalog, error) {
	return t.openCatalogRel("parent", api.RelParent)
}

// Root opens the root catalog of the document's tree.
func (t *Thing) Root() (*Catalog, error) {
	return t.openCatalogRel("root", api.RelRoot)
}

// Save writes the document to its filename.
func (t *Thing) Save() error {
	if t.filename == "" {
		return newError("save", "", ErrNotSaved)
	}
	if t.ID() == "" {
		return newError("save", t.filename, ErrMissingID)
	}
	if err := t.store.write(t.filename, t.data); err != nil {
		return newError("save", t.filename, err)
	}
	if t.state == Unsaved {
		t.state = Saved
	}
	return nil
}

// SaveAs writes the document to name and makes name its filename. When root
// is true the document becomes the root of its tree: its self and root links
// point at itself and any parent link is dropped. Saving to a new name starts
// a new tree. Saved in place, a document whose root link designates another
// document cannot be made a root; call CleanHierarchy first to detach it.
func (t *Thing) SaveAs(name string, root bool) error {
	name = cleanName(name)
	if t.ID() == "" {
		return newError("save", name, ErrMissingID)
	}

	data := docio.Clone(t.data).(map[string]any)
	if root {
		if cur := t.rootName(name); name == t.filename && cur != "" && cur != name {
			return newError("save", name, ErrRootFixed)
		}
		removeRels(data, api.RelParent)
		addLink(data, api.Link{Rel: api.RelRoot, Href: path.Base(name)})
		if !isRemote(selfHref(data)) {
			addLink(data, api.Link{Rel: api.RelSelf, Href: path.Base(name)})
		}
	}

	if err := t.store.write(name, data); err != nil {
		return newError("save", name, err)
	}
	t.data = data
	t.filename = name
	if t.state == Unsaved {
		t.state = Saved
	}
	return nil
}

// rootName is the resolved local root link. Relative links resolve against
// the current filename, or against name while the document has none.
func (t *Thing) rootName(name string) string {
	for _, l := range t.RawLinks() {
		if l.Rel != api.RelRoot || isRemote(l.Href) {
			continue
		}
		href := localPath(l.Href)
		if path.IsAbs(href) {
			return cleanName(href)
		}
		dir := t.Dir()
		if dir == "" {
			dir = path.Dir(name)
		}
		return path.Join(dir, href)
	}
	return ""
}

func (t *Thing) selfHref() string { return selfHref(t.data) }

// resolve turns a relative href into a store name. Absolute paths and URLs
// are returned unchanged, as are relative hrefs of unsaved documents.
func (t *Thing) resolve(href string) string {
	if isRemote(href) {
		return href
	}
	p := localPath(href)
	if path.IsAbs(p) || t.filename == "" {
		return p
	}
	return path.Join(t.Dir(), p)
}

// target resolves href into an openable store name.
func (t *Thing) target(op, href string) (string, error) {
	if isRemote(href) {
		return "", newError(op, href, ErrRemoteHref)
	}
	p := localPath(href)
	if !path.IsAbs(p) && t.filename == "" {
		return "", newError(op, href, ErrNotSaved)
	}
	return t.resolve(p), nil
}

func (t *Thing) openCatalogRel(op, rel string) (*Catalog, error) {
	for _, l := range t.RawLinks() {
		if l.Rel != rel {
			continue
		}
		name, err := t.target(op, l.Href)
		if err != nil {
			return nil, err
		}
		return t.store.Open(name)
	}
	return nil, newError(op, t.filename, ErrNoLink)
}

// isItem reports whether the document is a GeoJSON feature.
func (t *Thing) isItem() bool {
	return t.getString("type") == "Feature"
}

func (t *Thing) getString(key string) string {
	s, _ := t.data[key].(string)
	return s
}

func selfHref(data map[string]any) string {
	for _, l := range docio.Links(data) {
		if l.Rel == api.RelSelf {
			return l.Href
		}
	}
	return ""
}

var singleRels = []string{api.RelSelf, api.RelRoot, api.RelParent}

func addLink(data map[string]any, l api.Link) {
	if slices.Contains(singleRels, l.Rel) {
		removeRels(data, l.Rel)
	}
	arr, _ := data["links"].([]any)
	for _, v := range arr {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if cur, ok := api.LinkFromMap(m); ok && cur.Rel == l.Rel && cur.Href == l.Href {
			return
		}
	}
	data["links"] = append(arr, l.Map())
}

// removeRels drops links whose rel is in rels. Entries that are not
// well-formed links are kept as written.
func removeRels(data map[string]any, rels ...string) {
	arr, _ := data["links"].([]any)
	kept := make([]any, 0, len(arr))
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			if l, ok := api.LinkFromMap(m); ok && slices.Contains(rels, l.Rel) {
				continue
			}
		}
		kept = append(kept, v)
	}
	data["links"] = kept
}
