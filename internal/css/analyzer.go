package css

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// pseudoPattern matches a pseudo-class or pseudo-element with optional arguments.
var pseudoPattern = regexp.MustCompile(`::?[a-zA-Z-]+(\([^)]*\))?`)

// dynamicPseudo lists pseudo-classes that depend on runtime state, plus the
// legacy single-colon pseudo-elements. Neither can be evaluated against a
// static document.
var dynamicPseudo = setOf(
	"hover", "focus", "focus-within", "focus-visible", "active", "visited",
	"link", "any-link", "target", "checked", "indeterminate", "placeholder-shown",
	"autofill", "invalid", "valid", "user-invalid", "defined", "fullscreen", "modal",
	"before", "after", "first-letter", "first-line", "selection", "placeholder",
	"marker", "backdrop",
)

func setOf(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

type compiled struct {
	selector string
	matcher  cascadia.Selector
}

// Analyzer reports which of a stylesheet's selectors match a document.
type Analyzer struct {
	matchers []compiled
	// always holds selectors the matcher cannot evaluate; they count as used.
	always []string
}

// NewAnalyzer precompiles the selectors of sheet.
func NewAnalyzer(sheet *Stylesheet) *Analyzer {
	a := &Analyzer{}
	for _, sel := range sheet.Selectors() {
		static := StaticSelector(sel)
		m, err := cascadia.Compile(static)
		if err != nil {
			slog.Debug("Selector cannot be evaluated statically, keeping it", "selector", sel, "error", err)
			a.always = append(a.always, sel)
			continue
		}
		a.matchers = append(a.matchers, compiled{selector: sel, matcher: m})
	}
	return a
}

// Used returns the selectors that match doc, in stylesheet order.
func (a *Analyzer) Used(doc *goquery.Document) []string {
	used := append([]string(nil), a.always...)
	for _, c := range a.matchers {
		if doc.FindMatcher(c.matcher).Length() > 0 {
			used = append(used, c.selector)
		}
	}
	return used
}

// UsedInHTML parses markup and returns the selectors it uses.
func (a *Analyzer) UsedInHTML(markup string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return a.Used(doc), nil
}

// StaticSelector strips pseudo-elements and state-dependent pseudo-classes so
// the remainder can be matched against a static document.
func StaticSelector(sel string) string {
	stripped := pseudoPattern.ReplaceAllStringFunc(sel, func(m string) string {
		name := strings.TrimLeft(m, ":")
		if i := strings.IndexByte(name, '('); i >= 0 {
			name = name[:i]
		}
		name = strings.ToLower(name)
		if strings.HasPrefix(m, "::") || dynamicPseudo[name] ||
			strings.HasPrefix(name, "-webkit-") || strings.HasPrefix(name, "-moz-") || strings.HasPrefix(name, "-ms-") {
			return ""
		}
		return m
	})
	stripped = strings.TrimSpace(stripped)
	if stripped == "" {
		return "*"
	}
	if strings.ContainsAny(stripped[len(stripped)-1:], ">+~") {
		stripped += " *"
	}
	return collapse(stripped)
}
