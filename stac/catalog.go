package stac

import (
	"path"

	"github.com/sirupsen/logrus"

	"github.com/agentic-research/satstac/api"
	"github.com/agentic-research/satstac/internal/docio"
)

// DefaultCatalogID is the id given to catalogs built by Create.
const DefaultCatalogID = "stac-catalog"

// Catalog groups child catalogs, collections and items through links.
type Catalog struct {
	*Thing
}

// CreateOption customizes a catalog built by Create.
type CreateOption func(map[string]any)

func WithID(id string) CreateOption {
	return func(d map[string]any) { d["id"] = id }
}

func WithTitle(title string) CreateOption {
	return func(d map[string]any) { d["title"] = title }
}

func WithDescription(desc string) CreateOption {
	return func(d map[string]any) { d["description"] = desc }
}

func WithKeywords(keywords ...string) CreateOption {
	return func(d map[string]any) {
		arr := make([]any, len(keywords))
		for i, k := range keywords {
			arr[i] = k
		}
		d["keywords"] = arr
	}
}

// Create builds an unsaved catalog with the store's stac_version. A non-empty
// filename is remembered for Save; nothing is written until then.
func (s *Store) Create(filename string, opts ...CreateOption) *Catalog {
	data := map[string]any{
		"id":           DefaultCatalogID,
		"stac_version": s.cfg.Version,
		"description":  "",
		"links":        []any{},
	}
	for _, o := range opts {
		o(data)
	}
	t := s.newThing(data)
	if filename != "" {
		t.filename = cleanName(filename)
	}
	return &Catalog{Thing: t}
}

// IsCollection reports whether the document carries collection fields.
func (c *Catalog) IsCollection() bool {
	_, extent := c.data["extent"]
	_, license := c.data["license"]
	return extent || license
}

// AsCollection returns the catalog as a Collection when it is one.
func (c *Catalog) AsCollection() (*Collection, bool) {
	if !c.IsCollection() {
		return nil, false
	}
	return &Collection{Catalog: c}, true
}

// Children opens every catalog referenced by a child link, in link order.
func (c *Catalog) Children() ([]*Catalog, error) {
	var out []*Catalog
	for _, l := range c.RawLinks() {
		if l.Rel != api.RelChild {
			continue
		}
		name, err := c.target("children", l.Href)
		if err != nil {
			return nil, err
		}
		child, err := c.store.Open(name)
		if err != nil {
			return nil, err
		}
		if child.isItem() {
			return nil, newError("children", name, errChildItem)
		}
		out = append(out, child)
	}
	return out, nil
}

// ItemLinks opens every item referenced directly by an item link, in link order.
func (c *Catalog) ItemLinks() ([]*Item, error) {
	var out []*Item
	for _, l := range c.RawLinks() {
		if l.Rel != api.RelItem {
			continue
		}
		name, err := c.target("items", l.Href)
		if err != nil {
			return nil, err
		}
		item, err := c.store.OpenItem(name)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// AddCatalog places child under c, at <dir of c>/<child id>/<catalog basename>.json.
// The child's hierarchy links are replaced by root and parent links into c's
// tree, c gets a child link, and both are saved. Catalogs and items below
// child are moved along with it. c must have been saved first.
func (c *Catalog) AddCatalog(child *Catalog) error {
	const op = "add catalog"
	if c.state == Unsaved || c.filename == "" {
		return newError(op, c.filename, ErrNotSaved)
	}
	if child == nil || child.Thing == nil {
		return newError(op, c.filename, ErrInvalid)
	}
	if child.ID() == "" {
		return newError(op, child.filename, ErrMissingID)
	}

	// Plan the whole move first. Descendants are resolved against their
	// current location and must all open before anything is written.
	type move struct {
		parent, child *Catalog
		items         []*Item
	}
	var moves []move
	queue := []move{{parent: c, child: child}}
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]

		var kids []*Catalog
		if m.child.filename != "" {
			var err error
			if kids, err = m.child.Children(); err != nil {
				return newError(op, m.child.filename, err)
			}
			if m.items, err = m.child.ItemLinks(); err != nil {
				return newError(op, m.child.filename, err)
			}
		}
		for _, it := range m.items {
			if it.ID() == "" {
				return newError(op, it.filename, ErrMissingID)
			}
		}
		for _, k := range kids {
			if k.ID() == "" {
				return newError(op, k.filename, ErrMissingID)
			}
			queue = append(queue, move{parent: m.child, child: k})
		}
		moves = append(moves, m)
	}

	u := newUndoLog(c.store)
	for _, m := range moves {
		err := m.parent.adopt(u, m.child)
		for _, it := range m.items {
			if err != nil {
				break
			}
			err = m.child.addItem(u, it, "", trimJSON(path.Base(it.filename)))
		}
		if err != nil {
			u.rollback()
			return newError(op, c.filename, err)
		}
	}

	c.store.log.WithFields(logrus.Fields{
		"path":     c.filename,
		"id":       child.ID(),
		"catalogs": len(moves),
	}).Info("added catalog")
	return nil
}

// adopt saves child directly under c and links the two.
func (c *Catalog) adopt(u *undoLog, child *Catalog) error {
	const op = "add catalog"
	name := docName(path.Join(c.Dir(), child.ID()), c.store.cfg.CatalogBasename)
	dir := path.Dir(name)

	data := docio.Clone(child.data).(map[string]any)
	removeRels(data, api.HierarchyRels...)
	addLink(data, api.Link{Rel: api.RelRoot, Href: relName(dir, c.treeRoot())})
	addLink(data, api.Link{Rel: api.RelParent, Href: relName(dir, c.filename)})
	u.keep(child.Thing)
	if err := u.write(name, data); err != nil {
		return newError(op, name, err)
	}
	child.data = data
	child.filename = name
	child.state = Saved
	child.store = c.store

	return c.linkAndSave(u, op, api.Link{Rel: api.RelChild, Href: relName(c.Dir(), name)})
}

// AddItem saves item under c and adds an item link to c. The item is written
// to <dir of c>/<pathTemplate>/<filenameTemplate>.json after substituting
// ${...} fields (see Item.SubstituteString). An empty filenameTemplate uses
// the store's item basename.
func (c *Catalog) AddItem(item *Item, pathTemplate, filenameTemplate string) error {
	const op = "add item"
	if c.state == Unsaved || c.filename == "" {
		return newError(op, c.filename, ErrNotSaved)
	}
	if item == nil || item.Thing == nil {
		return newError(op, c.filename, ErrInvalid)
	}
	if item.ID() == "" {
		return newError(op, item.filename, ErrMissingID)
	}

	u := newUndoLog(c.store)
	if err := c.addItem(u, item, pathTemplate, filenameTemplate); err != nil {
		u.rollback()
		return err
	}
	return nil
}

func (c *Catalog) addItem(u *undoLog, item *Item, pathTemplate, filenameTemplate string) error {
	const op = "add item"
	if filenameTemplate == "" {
		filenameTemplate = c.store.cfg.ItemBasename
	}

	dir := path.Join(c.Dir(), item.SubstituteString(pathTemplate))
	name := docName(dir, item.SubstituteString(filenameTemplate))

	data := docio.Clone(item.data).(map[string]any)
	removeRels(data, api.RelSelf, api.RelRoot, api.RelParent)
	addLink(data, api.Link{Rel: api.RelRoot, Href: relName(dir, c.treeRoot())})
	addLink(data, api.Link{Rel: api.RelParent, Href: relName(dir, c.filename)})
	if c.IsCollection() {
		removeRels(data, api.RelCollection)
		addLink(data, api.Link{Rel: api.RelCollection, Href: relName(dir, c.filename)})
		data["collection"] = c.ID()
	}
	u.keep(item.Thing)
	if err := u.write(name, data); err != nil {
		return newError(op, name, err)
	}
	item.data = data
	item.filename = name
	item.state = Saved
	item.store = c.store

	return c.linkAndSave(u, op, api.Link{Rel: api.RelItem, Href: relName(c.Dir(), name)})
}

// linkAndSave adds l to c and saves c.
func (c *Catalog) linkAndSave(u *undoLog, op string, l api.Link) error {
	data := docio.Clone(c.data).(map[string]any)
	addLink(data, l)
	u.keep(c.Thing)
	if err := u.write(c.filename, data); err != nil {
		return newError(op, c.filename, err)
	}
	c.data = data
	return nil
}

// treeRoot is the filename of the root of c's tree; c itself when it has no root link.
func (c *Catalog) treeRoot() string {
	if r := c.rootName(c.filename); r != "" {
		return r
	}
	return c.filename
}

func trimJSON(base string) string {
	return base[:len(base)-len(path.Ext(base))]
}
