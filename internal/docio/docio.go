// Package docio reads and writes JSON documents on a billy.Filesystem.
package docio

import (
	"errors"
	"fmt"
	"io"
	"path"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/satstac/api"
)

// ErrNotObject is returned when a document parses but is not a JSON object.
var ErrNotObject = errors.New("document is not a JSON object")

var (
	linksExpr    = jp.MustParseString("$.links[*]")
	writeOptions = &ojg.Options{Indent: 2, Sort: true}
)

// Read loads the JSON object stored at name.
func Read(fs billy.Filesystem, name string) (map[string]any, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return Decode(b)
}

// Decode parses b as a JSON object.
func Decode(b []byte) (map[string]any, error) {
	v, err := oj.Parse(b)
	if err != nil {
		return nil, err
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return doc, nil
}

// Encode serializes doc with sorted keys and two-space indentation.
func Encode(doc map[string]any) ([]byte, error) {
	b, err := oj.Marshal(doc, writeOptions)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Write stores doc at name. The document is written to a temp file in the
// target directory and renamed into place, so readers never see a partial file.
func Write(fs billy.Filesystem, name string, doc map[string]any) error {
	b, err := Encode(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	dir := path.Dir(name)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := util.TempFile(fs, dir, "."+path.Base(name)+"-")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := fs.Rename(tmpName, name); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// Query evaluates a JSONPath selector against doc.
func Query(doc any, selector string) ([]any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	return x.Get(doc), nil
}

// Links returns the well-formed entries of the document's links array, in order.
// Entries without a string rel and href are skipped.
func Links(doc map[string]any) []api.Link {
	var out []api.Link
	for _, v := range linksExpr.Get(doc) {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if l, ok := api.LinkFromMap(m); ok {
			out = append(out, l)
		}
	}
	return out
}

// Clone returns a deep copy of a decoded JSON value.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = Clone(e)
		}
		return m
	case []any:
		a := make([]any, len(t))
		for i, e := range t {
			a[i] = Clone(e)
		}
		return a
	default:
		return v
	}
}
