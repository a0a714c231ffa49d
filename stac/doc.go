// Package stac reads, creates, links and publishes STAC catalog documents.
//
// A tree of documents is made of catalogs, collections and items connected by
// typed links (root, parent, child, item, self). Relationships are never held
// in memory: every traversal resolves hrefs against the document's filename
// and opens the target through the Store's billy.Filesystem.
//
//	cat, err := stac.Open("catalog/catalog.json")
//	for col, err := range cat.Collections() {
//		...
//	}
package stac
