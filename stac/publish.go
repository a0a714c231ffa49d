package stac

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/agentic-research/satstac/api"
	"github.com/agentic-research/satstac/internal/docio"
)

// Publish rewrites the self link of c and of every catalog, collection and
// item below it to baseURL joined with the document's path relative to c's
// directory, and saves each document. Other links are left as they are.
// Publishing again with the same baseURL produces the same documents. An
// empty baseURL falls back to the store's configured BaseURL.
func (c *Catalog) Publish(baseURL string) error {
	const op = "publish"
	if baseURL == "" {
		baseURL = c.store.cfg.BaseURL
	}
	if baseURL == "" {
		return newError(op, c.filename, fmt.Errorf("%w: empty base url", ErrInvalid))
	}
	if _, err := url.Parse(baseURL); err != nil {
		return newError(op, c.filename, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	if c.state == Unsaved || c.filename == "" {
		return newError(op, c.filename, ErrNotSaved)
	}

	// Resolve the whole subtree and every URL before writing anything, so a
	// broken link leaves the tree as it was.
	type target struct {
		t    *Thing
		self string
	}
	rootDir := c.Dir()
	var targets []target
	plan := func(t *Thing) error {
		self, err := selfURL(baseURL, rootDir, t.filename)
		if err != nil {
			return newError(op, t.filename, err)
		}
		targets = append(targets, target{t, self})
		return nil
	}
	var walkErr error
	c.walk(func(cat *Catalog, err error) bool {
		if err == nil {
			err = plan(cat.Thing)
		}
		var items []*Item
		if err == nil {
			items, err = cat.ItemLinks()
		}
		for _, it := range items {
			if err != nil {
				break
			}
			err = plan(it.Thing)
		}
		walkErr = err
		return err == nil
	})
	if walkErr != nil {
		return newError(op, c.filename, walkErr)
	}

	u := newUndoLog(c.store)
	for _, tg := range targets {
		if err := publishThing(u, tg.t, tg.self); err != nil {
			u.rollback()
			return newError(op, tg.t.filename, err)
		}
	}

	c.store.log.WithFields(logrus.Fields{
		"path":      c.filename,
		"url":       baseURL,
		"documents": len(targets),
	}).Info("published catalog")
	return nil
}

// selfURL joins baseURL with name's path below rootDir. Documents outside
// rootDir have no place under baseURL.
func selfURL(baseURL, rootDir, name string) (string, error) {
	rel := relName(rootDir, name)
	if rel == ".." || strings.HasPrefix(rel, "../") || path.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrInvalid, name, rootDir)
	}
	self, err := url.JoinPath(baseURL, strings.Split(rel, "/")...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return self, nil
}

func publishThing(u *undoLog, t *Thing, self string) error {
	data := docio.Clone(t.data).(map[string]any)
	addLink(data, api.Link{Rel: api.RelSelf, Href: self})
	u.keep(t)
	if err := u.write(t.filename, data); err != nil {
		return err
	}
	t.data = data
	t.state = Published
	return nil
}
