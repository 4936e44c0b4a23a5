// Package css compiles the site stylesheet, tracks which selectors the
// generated pages use and prunes the stylesheet down to that set.
//
// Usage is global across the site: a selector survives pruning when any
// rendered page matches it or when it is part of the seed whitelist.
package css
