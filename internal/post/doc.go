// Package post models a single blog post: the metadata record extracted from
// a content fragment and the normalised word bag used by the search index.
package post
