package stac

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"

	"github.com/agentic-research/satstac/internal/docio"
)

// Store binds documents to a filesystem. All opens and saves of a document,
// and of every document reached through its links, go through the same Store.
type Store struct {
	fs  billy.Filesystem
	cfg Config
	log logrus.FieldLogger
}

// Option configures a Store.
type Option func(*Store)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(s *Store) {
		s.cfg = DefaultConfig().merge(cfg)
	}
}

// WithLogger sets the logger used for document I/O.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// NewStore creates a Store over fsys. Document names are slash-separated
// paths interpreted by fsys.
func NewStore(fsys billy.Filesystem, opts ...Option) *Store {
	s := &Store{
		fs:  fsys,
		cfg: DefaultConfig(),
		log: logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var local = sync.OnceValue(func() *Store {
	return NewStore(osfs.New("/"))
})

// Local returns the Store over the host filesystem used by the package-level
// Open, OpenItem and Create functions.
func Local() *Store { return local() }

// Open opens the catalog at filename on the host filesystem.
func Open(filename string) (*Catalog, error) {
	name, err := absName(filename)
	if err != nil {
		return nil, newError("open", filename, err)
	}
	return Local().Open(name)
}

// OpenItem opens the item at filename on the host filesystem.
func OpenItem(filename string) (*Item, error) {
	name, err := absName(filename)
	if err != nil {
		return nil, newError("open", filename, err)
	}
	return Local().OpenItem(name)
}

// Create builds an unsaved catalog on the host filesystem. filename may be
// empty; when set it is remembered for a later Save.
func Create(filename string, opts ...CreateOption) *Catalog {
	if filename != "" {
		if name, err := absName(filename); err == nil {
			filename = name
		}
	}
	return Local().Create(filename, opts...)
}

func absName(filename string) (string, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}

// Config returns the store configuration.
func (s *Store) Config() Config { return s.cfg }

// Filesystem returns the filesystem documents are read from and written to.
func (s *Store) Filesystem() billy.Filesystem { return s.fs }

// Open reads the catalog or collection stored at name.
func (s *Store) Open(name string) (*Catalog, error) {
	t, err := s.read(name)
	if err != nil {
		return nil, err
	}
	return &Catalog{Thing: t}, nil
}

// OpenItem reads the item stored at name.
func (s *Store) OpenItem(name string) (*Item, error) {
	t, err := s.read(name)
	if err != nil {
		return nil, err
	}
	return &Item{Thing: t}, nil
}

// NewCatalog wraps already decoded data. The catalog is unsaved and has no filename.
func (s *Store) NewCatalog(data map[string]any) *Catalog {
	return &Catalog{Thing: s.newThing(data)}
}

// NewItem wraps already decoded item data. The item is unsaved and has no filename.
func (s *Store) NewItem(data map[string]any) *Item {
	return &Item{Thing: s.newThing(data)}
}

func (s *Store) newThing(data map[string]any) *Thing {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["links"]; !ok {
		data["links"] = []any{}
	}
	return &Thing{store: s, data: data, state: Unsaved}
}

func (s *Store) read(name string) (*Thing, error) {
	name = cleanName(name)
	data, err := docio.Read(s.fs, name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, newError("open", name, fmt.Errorf("%w: %w", ErrNotFound, err))
	case err != nil:
		return nil, newError("open", name, fmt.Errorf("%w: %w", ErrMalformed, err))
	}
	s.log.WithField("path", name).Debug("opened document")

	t := &Thing{store: s, data: data, filename: name, state: Saved}
	if isRemote(t.selfHref()) {
		t.state = Published
	}
	return t, nil
}

func (s *Store) write(name string, data map[string]any) error {
	if err := docio.Write(s.fs, name, data); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"path": name, "id": data["id"]}).Debug("saved document")
	return nil
}

func cleanName(name string) string {
	return path.Clean(filepath.ToSlash(name))
}

// isRemote reports whether href is an absolute URL that is not a file URL.
func isRemote(href string) bool {
	u, err := url.Parse(href)
	if err != nil || u.Scheme == "" {
		return false
	}
	// single letter schemes are Windows drive letters
	return len(u.Scheme) > 1 && u.Scheme != "file"
}

// localPath strips a file:// scheme.
func localPath(href string) string {
	if strings.HasPrefix(href, "file://") {
		if u, err := url.Parse(href); err == nil {
			return u.Path
		}
	}
	return href
}

// relName returns target relative to the directory dir, slash-separated.
func relName(dir, target string) string {
	rel, err := filepath.Rel(filepath.FromSlash(dir), filepath.FromSlash(target))
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}

func docName(dir, base string) string {
	return path.Join(dir, base+".json")
}
