package stac

import (
	"fmt"
	"iter"
	"slices"

	"github.com/agentic-research/satstac/api"
)

var errChildItem = fmt.Errorf("%w: child link points at an item", ErrInvalid)

// walk yields c and then every catalog reachable through child links,
// depth-first and in link order. Targets are opened only when reached, and a
// document already visited is not visited again. An unreadable child is
// reported as an error and its subtree skipped; the walk continues with the
// next target unless yield returns false.
func (c *Catalog) walk(yield func(*Catalog, error) bool) {
	type pending struct {
		from *Catalog
		href string
	}

	seen := map[string]bool{}
	if c.filename != "" {
		seen[c.filename] = true
	}
	if !yield(c, nil) {
		return
	}

	var stack []pending
	push := func(cat *Catalog) {
		hrefs := cat.RawLinks()
		var kids []pending
		for _, l := range hrefs {
			if l.Rel == api.RelChild {
				kids = append(kids, pending{cat, l.Href})
			}
		}
		// reversed so the first child is popped first
		slices.Reverse(kids)
		stack = append(stack, kids...)
	}
	push(c)

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		name, err := p.from.target("walk", p.href)
		if err != nil {
			if !yield(nil, err) {
				return
			}
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		cat, err := p.from.store.Open(name)
		if err == nil && cat.isItem() {
			cat, err = nil, newError("walk", name, errChildItem)
		}
		if err != nil {
			if !yield(nil, err) {
				return
			}
			continue
		}
		if !yield(cat, nil) {
			return
		}
		push(cat)
	}
}

// Catalogs yields every catalog below c, collections included, depth-first in
// link order. Each call starts a fresh traversal.
func (c *Catalog) Catalogs() iter.Seq2[*Catalog, error] {
	return func(yield func(*Catalog, error) bool) {
		first := true
		c.walk(func(cat *Catalog, err error) bool {
			if first {
				first = false
				return true
			}
			return yield(cat, err)
		})
	}
}

// Collections yields every collection below c, depth-first in link order.
func (c *Catalog) Collections() iter.Seq2[*Collection, error] {
	return func(yield func(*Collection, error) bool) {
		for cat, err := range c.Catalogs() {
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if col, ok := cat.AsCollection(); ok {
				if !yield(col, nil) {
					return
				}
			}
		}
	}
}

// Items yields every item in the subtree of c: first the items linked from c,
// then those of each catalog below it, depth-first in link order.
func (c *Catalog) Items() iter.Seq2[*Item, error] {
	return func(yield func(*Item, error) bool) {
		seen := map[string]bool{}
		c.walk(func(cat *Catalog, err error) bool {
			if err != nil {
				return yield(nil, err)
			}
			for _, l := range cat.RawLinks() {
				if l.Rel != api.RelItem {
					continue
				}
				name, err := cat.target("items", l.Href)
				if err != nil {
					if !yield(nil, err) {
						return false
					}
					continue
				}
				if seen[name] {
					continue
				}
				seen[name] = true

				item, err := cat.store.OpenItem(name)
				if !yield(item, err) {
					return false
				}
			}
			return true
		})
	}
}
