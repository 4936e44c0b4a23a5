// Package site folds assembled posts into the site-wide artifacts: the
// homepage feed, the sitemap and the search index.
//
// All state of one aggregate run lives in a BuildState that is created fresh
// for the run and discarded afterwards, so a rebuild reflects exactly the
// fragments that exist when it starts.
package site
