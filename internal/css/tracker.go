package css

import (
	"github.com/PuerkitoBio/goquery"
)

// Tracker accumulates the live selectors of one compiled stylesheet across
// every page it observes.
type Tracker struct {
	sheet    *Stylesheet
	analyzer *Analyzer
	live     Whitelist
}

// NewTracker starts tracking against sheet with the seed whitelist plus extra.
func NewTracker(sheet *Stylesheet, extra ...string) *Tracker {
	return &Tracker{sheet: sheet, analyzer: NewAnalyzer(sheet), live: NewWhitelist(extra...)}
}

// NewTrackerWith starts tracking against sheet from a copy of live.
func NewTrackerWith(sheet *Stylesheet, live Whitelist) *Tracker {
	clone := make(Whitelist, len(live))
	clone.Merge(live)
	return &Tracker{sheet: sheet, analyzer: NewAnalyzer(sheet), live: clone}
}

// Observe merges in the selectors a rendered page uses.
func (t *Tracker) Observe(doc *goquery.Document) {
	t.live.Add(t.analyzer.Used(doc)...)
}

// ObserveHTML parses markup and merges in the selectors it uses.
func (t *Tracker) ObserveHTML(markup string) error {
	used, err := t.analyzer.UsedInHTML(markup)
	if err != nil {
		return err
	}
	t.live.Add(used...)
	return nil
}

// Whitelist returns the live selector set.
func (t *Tracker) Whitelist() Whitelist { return t.live }

// Sheet returns the compiled stylesheet being tracked.
func (t *Tracker) Sheet() *Stylesheet { return t.sheet }

// Pruned returns the stylesheet restricted to the live selectors.
func (t *Tracker) Pruned() *Stylesheet { return Prune(t.sheet, t.live) }
