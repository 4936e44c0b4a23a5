package css

import "sort"

// SeedSelectors are used by markup the build generates itself, so they are
// never seen when scanning the authored sources alone.
var SeedSelectors = []string{
	".post-tags",
	".post-tags ul",
	".post-tags li",
	".post-tags a",
	".mt-30",
	// Homepage thumbnail image.
	".img-fluid",
}

// Whitelist is the set of selectors considered live.
type Whitelist map[string]struct{}

// NewWhitelist returns a whitelist holding the seed selectors plus extra.
func NewWhitelist(extra ...string) Whitelist {
	w := make(Whitelist, len(SeedSelectors)+len(extra))
	w.Add(SeedSelectors...)
	w.Add(extra...)
	return w
}

// Add inserts selectors after normalising them.
func (w Whitelist) Add(selectors ...string) {
	for _, sel := range selectors {
		if n := NormalizeSelector(sel); n != "" {
			w[n] = struct{}{}
		}
	}
}

// Merge adds every selector of other.
func (w Whitelist) Merge(other Whitelist) {
	for sel := range other {
		w[sel] = struct{}{}
	}
}

// Has reports whether sel is live.
func (w Whitelist) Has(sel string) bool {
	_, ok := w[NormalizeSelector(sel)]
	return ok
}

// Sorted returns the selectors in lexical order.
func (w Whitelist) Sorted() []string {
	out := make([]string, 0, len(w))
	for sel := range w {
		out = append(out, sel)
	}
	sort.Strings(out)
	return out
}
