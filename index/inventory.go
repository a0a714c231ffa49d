// Package index keeps an inventory of the documents in a catalog tree: one
// SQLite row per document, plus in-memory bitmaps of row ids per kind.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/agentic-research/satstac/api"
	"github.com/agentic-research/satstac/internal/docio"
	"github.com/agentic-research/satstac/stac"
)

var (
	ErrNotFound   = errors.New("entry not found")
	ErrRowIDRange = errors.New("row id out of bitmap range")
)

// Kind classifies an inventory entry.
type Kind int

const (
	KindCatalog Kind = iota
	KindCollection
	KindItem
)

var kinds = []Kind{KindCatalog, KindCollection, KindItem}

func (k Kind) String() string {
	switch k {
	case KindCatalog:
		return "catalog"
	case KindCollection:
		return "collection"
	case KindItem:
		return "item"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entry is one document of the tree.
type Entry struct {
	Path   string // store filename
	ID     string
	Kind   Kind
	Parent string // resolved parent link, "" for a root
	Self   string // self href as written
	Record []byte // the document, JSON encoded
}

// Inventory is a SQLite-backed index of catalog documents.
type Inventory struct {
	mu    sync.Mutex
	db    *sql.DB
	kinds map[Kind]*roaring.Bitmap
	log   logrus.FieldLogger
}

// Open opens or creates the inventory database at dbPath.
func Open(dbPath string) (*Inventory, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// one connection: ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS nodes (
		path TEXT NOT NULL UNIQUE,
		id TEXT NOT NULL,
		kind INTEGER NOT NULL,
		parent TEXT,
		self TEXT,
		record JSON
	);
	CREATE INDEX IF NOT EXISTS idx_nodes_id ON nodes(id);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	inv := &Inventory{
		db:    db,
		kinds: make(map[Kind]*roaring.Bitmap, len(kinds)),
		log:   logrus.StandardLogger(),
	}
	for _, k := range kinds {
		inv.kinds[k] = roaring.New()
	}
	if err := inv.loadBitmaps(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return inv, nil
}

// SetLogger sets the logger used for skipped documents while indexing.
func (inv *Inventory) SetLogger(l logrus.FieldLogger) {
	inv.log = l
}

func (inv *Inventory) loadBitmaps() error {
	rows, err := inv.db.Query(`SELECT rowid, kind FROM nodes`)
	if err != nil {
		return fmt.Errorf("load kinds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var rowid int64
		var kind Kind
		if err := rows.Scan(&rowid, &kind); err != nil {
			return fmt.Errorf("load kinds: %w", err)
		}
		id, err := bitmapID(rowid)
		if err != nil {
			return fmt.Errorf("load kinds: %w", err)
		}
		if bm, ok := inv.kinds[kind]; ok {
			bm.Add(id)
		}
	}
	return rows.Err()
}

// Put inserts or replaces the entry for e.Path.
func (inv *Inventory) Put(e Entry) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	tx, err := inv.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var rowid int64
	err = tx.QueryRow(`SELECT rowid FROM nodes WHERE path = ?`, e.Path).Scan(&rowid)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.Exec(`INSERT INTO nodes (path, id, kind, parent, self, record) VALUES (?, ?, ?, ?, ?, ?)`,
			e.Path, e.ID, int(e.Kind), e.Parent, e.Self, string(e.Record))
		if err != nil {
			return fmt.Errorf("insert %s: %w", e.Path, err)
		}
		if rowid, err = res.LastInsertId(); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("lookup %s: %w", e.Path, err)
	default:
		if _, err := tx.Exec(`UPDATE nodes SET id = ?, kind = ?, parent = ?, self = ?, record = ? WHERE rowid = ?`,
			e.ID, int(e.Kind), e.Parent, e.Self, string(e.Record), rowid); err != nil {
			return fmt.Errorf("update %s: %w", e.Path, err)
		}
	}
	id, err := bitmapID(rowid)
	if err != nil {
		return fmt.Errorf("put %s: %w", e.Path, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	for k, bm := range inv.kinds {
		if k == e.Kind {
			bm.Add(id)
		} else {
			bm.Remove(id)
		}
	}
	return nil
}

// bitmapID narrows a SQLite rowid to a bitmap entry.
func bitmapID(rowid int64) (uint32, error) {
	if rowid < 0 || rowid > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d", ErrRowIDRange, rowid)
	}
	return uint32(rowid), nil
}

const selectEntry = `SELECT path, id, kind, COALESCE(parent, ''), COALESCE(self, ''), record FROM nodes`

func scanEntry(row interface{ Scan(...any) error }) (Entry, error) {
	var e Entry
	err := row.Scan(&e.Path, &e.ID, &e.Kind, &e.Parent, &e.Self, &e.Record)
	return e, err
}

// Get returns the entry stored for path.
func (inv *Inventory) Get(path string) (Entry, error) {
	e, err := scanEntry(inv.db.QueryRow(selectEntry+` WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// ByID returns every entry with the given document id, in insertion order.
func (inv *Inventory) ByID(id string) ([]Entry, error) {
	rows, err := inv.db.Query(selectEntry+` WHERE id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of entries of a kind.
func (inv *Inventory) Count(kind Kind) uint64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	bm, ok := inv.kinds[kind]
	if !ok {
		return 0
	}
	return bm.GetCardinality()
}

// Select returns the entries of a kind, in insertion order.
func (inv *Inventory) Select(kind Kind) ([]Entry, error) {
	inv.mu.Lock()
	bm, ok := inv.kinds[kind]
	if !ok {
		inv.mu.Unlock()
		return nil, nil
	}
	ids := bm.ToArray()
	inv.mu.Unlock()

	out := make([]Entry, 0, len(ids))
	for _, rowid := range ids {
		e, err := scanEntry(inv.db.QueryRow(selectEntry+` WHERE rowid = ?`, int64(rowid)))
		if err != nil {
			return nil, fmt.Errorf("select %s row %d: %w", kind, rowid, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Index records root and every document below it. Documents that cannot be
// opened are logged and skipped. It returns the number of entries written.
func (inv *Inventory) Index(root *stac.Catalog) (int, error) {
	n := 0
	put := func(t *stac.Thing, kind Kind) error {
		record, err := docio.Encode(t.Data())
		if err != nil {
			return fmt.Errorf("encode %s: %w", t.Filename(), err)
		}
		e := Entry{
			Path:   t.Filename(),
			ID:     t.ID(),
			Kind:   kind,
			Parent: first(t.Links(api.RelParent)),
			Record: record,
		}
		for _, l := range t.RawLinks() {
			if l.Rel == api.RelSelf {
				e.Self = l.Href
				break
			}
		}
		if err := inv.Put(e); err != nil {
			return err
		}
		n++
		return nil
	}

	if err := put(root.Thing, catalogKind(root)); err != nil {
		return n, err
	}
	for cat, err := range root.Catalogs() {
		if err != nil {
			inv.log.WithError(err).Warn("skipping catalog")
			continue
		}
		if err := put(cat.Thing, catalogKind(cat)); err != nil {
			return n, err
		}
	}
	for item, err := range root.Items() {
		if err != nil {
			inv.log.WithError(err).Warn("skipping item")
			continue
		}
		if err := put(item.Thing, KindItem); err != nil {
			return n, err
		}
	}

	inv.log.WithFields(logrus.Fields{"path": root.Filename(), "entries": n}).Info("indexed catalog")
	return n, nil
}

// Close closes the database.
func (inv *Inventory) Close() error {
	return inv.db.Close()
}

func catalogKind(c *stac.Catalog) Kind {
	if c.IsCollection() {
		return KindCollection
	}
	return KindCatalog
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
