package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	tcss "github.com/tdewolff/parse/v2/css"
)

// Node is a top-level or nested stylesheet item.
type Node interface {
	write(b *strings.Builder, depth int)
}

// Declaration is a single property: value pair.
type Declaration struct {
	Property string
	Value    string
}

// Rule is a style rule with one or more selectors.
type Rule struct {
	Selectors    []string
	Declarations []Declaration
}

// AtRule is an at-rule. Block is false for statements like @import.
type AtRule struct {
	Name         string
	Prelude      string
	Block        bool
	Children     []Node
	Declarations []Declaration
}

// Stylesheet is a parsed stylesheet.
type Stylesheet struct {
	Nodes []Node
}

// prunableAtRules hold style rules whose selectors take part in pruning.
var prunableAtRules = map[string]bool{
	"@media":     true,
	"@supports":  true,
	"@container": true,
	"@layer":     true,
	"@document":  true,
}

// Parse reads a stylesheet into a Stylesheet.
func Parse(src []byte) (*Stylesheet, error) {
	p := tcss.NewParser(parse.NewInput(bytes.NewReader(src)), false)

	root := &AtRule{Block: true}
	stack := []*AtRule{root}
	var current *Rule
	var pending []string

	for {
		gt, _, data := p.Next()
		parent := stack[len(stack)-1]
		switch gt {
		case tcss.ErrorGrammar:
			if err := p.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parse stylesheet: %w", err)
			}
			return &Stylesheet{Nodes: root.Children}, nil
		case tcss.QualifiedRuleGrammar:
			pending = append(pending, selectorText(data, p.Values()))
		case tcss.BeginRulesetGrammar:
			pending = append(pending, selectorText(data, p.Values()))
			current = &Rule{Selectors: pending}
			pending = nil
			parent.Children = append(parent.Children, current)
		case tcss.EndRulesetGrammar:
			current = nil
		case tcss.DeclarationGrammar, tcss.CustomPropertyGrammar:
			decl := Declaration{Property: string(data), Value: strings.TrimSpace(tokensText(p.Values()))}
			if current != nil {
				current.Declarations = append(current.Declarations, decl)
			} else {
				parent.Declarations = append(parent.Declarations, decl)
			}
		case tcss.AtRuleGrammar:
			parent.Children = append(parent.Children, &AtRule{
				Name:    strings.ToLower(string(data)),
				Prelude: preludeText(p.Values()),
			})
		case tcss.BeginAtRuleGrammar:
			at := &AtRule{
				Name:    strings.ToLower(string(data)),
				Prelude: preludeText(p.Values()),
				Block:   true,
			}
			parent.Children = append(parent.Children, at)
			stack = append(stack, at)
		case tcss.EndAtRuleGrammar:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

// selectorText rebuilds a selector from the parser's token values. Depending
// on the grammar the leading token may be reported separately as data.
func selectorText(data []byte, values []tcss.Token) string {
	text := tokensText(values)
	lead := strings.TrimSpace(string(data))
	if lead != "" && lead != "{" && lead != "," && !strings.HasPrefix(strings.TrimSpace(text), lead) {
		text = lead + text
	}
	return NormalizeSelector(text)
}

func tokensText(values []tcss.Token) string {
	var b strings.Builder
	for _, v := range values {
		b.Write(v.Data)
	}
	return b.String()
}

// preludeText rebuilds an at-rule prelude. The parser drops whitespace after
// commas and colons, so one space is put back after every comma and after
// colons inside parentheses ("(max-width: 600px)", but "@page :first").
func preludeText(values []tcss.Token) string {
	var b strings.Builder
	depth := 0
	for i, v := range values {
		b.Write(v.Data)
		switch v.TokenType {
		case tcss.LeftParenthesisToken, tcss.FunctionToken:
			depth++
		case tcss.RightParenthesisToken:
			depth--
		}
		if i+1 == len(values) || values[i+1].TokenType == tcss.WhitespaceToken {
			continue
		}
		if v.TokenType == tcss.CommaToken || v.TokenType == tcss.ColonToken && depth > 0 {
			b.WriteByte(' ')
		}
	}
	return collapse(b.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeSelector trims a selector and collapses internal whitespace so
// selectors from different sources compare equal.
func NormalizeSelector(sel string) string {
	return collapse(sel)
}

// String renders the stylesheet in an expanded, readable form.
func (s *Stylesheet) String() string {
	var b strings.Builder
	for i, n := range s.Nodes {
		if i > 0 {
			b.WriteString("\n")
		}
		n.write(&b, 0)
	}
	return b.String()
}

// Selectors returns every style-rule selector that takes part in pruning, in
// document order without duplicates.
func (s *Stylesheet) Selectors() []string {
	seen := make(map[string]struct{})
	var out []string
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			switch v := n.(type) {
			case *Rule:
				for _, sel := range v.Selectors {
					if _, ok := seen[sel]; !ok {
						seen[sel] = struct{}{}
						out = append(out, sel)
					}
				}
			case *AtRule:
				if prunableAtRules[v.Name] {
					walk(v.Children)
				}
			}
		}
	}
	walk(s.Nodes)
	return out
}

func indent(b *strings.Builder, depth int) {
	for range depth {
		b.WriteString("  ")
	}
}

func writeDeclarations(b *strings.Builder, decls []Declaration, depth int) {
	for _, d := range decls {
		indent(b, depth)
		b.WriteString(d.Property)
		b.WriteString(": ")
		b.WriteString(d.Value)
		b.WriteString(";\n")
	}
}

func (r *Rule) write(b *strings.Builder, depth int) {
	indent(b, depth)
	b.WriteString(strings.Join(r.Selectors, ", "))
	b.WriteString(" {\n")
	writeDeclarations(b, r.Declarations, depth+1)
	indent(b, depth)
	b.WriteString("}\n")
}

func (a *AtRule) write(b *strings.Builder, depth int) {
	indent(b, depth)
	b.WriteString(a.Name)
	if a.Prelude != "" {
		b.WriteString(" ")
		b.WriteString(a.Prelude)
	}
	if !a.Block {
		b.WriteString(";\n")
		return
	}
	b.WriteString(" {\n")
	writeDeclarations(b, a.Declarations, depth+1)
	for _, child := range a.Children {
		child.write(b, depth+1)
	}
	indent(b, depth)
	b.WriteString("}\n")
}
