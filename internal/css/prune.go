package css

// Prune returns a copy of sheet holding only whitelisted selectors. Rules left
// without selectors are dropped, as are grouping at-rules left empty. Other
// at-rules (@keyframes, @font-face, @import, ...) are kept unchanged.
func Prune(sheet *Stylesheet, live Whitelist) *Stylesheet {
	return &Stylesheet{Nodes: pruneNodes(sheet.Nodes, live)}
}

func pruneNodes(nodes []Node, live Whitelist) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case *Rule:
			var kept []string
			for _, sel := range v.Selectors {
				if live.Has(sel) {
					kept = append(kept, sel)
				}
			}
			if len(kept) > 0 {
				out = append(out, &Rule{Selectors: kept, Declarations: v.Declarations})
			}
		case *AtRule:
			if !prunableAtRules[v.Name] || !v.Block {
				out = append(out, v)
				continue
			}
			children := pruneNodes(v.Children, live)
			if len(children) == 0 && len(v.Declarations) == 0 {
				continue
			}
			out = append(out, &AtRule{
				Name:         v.Name,
				Prelude:      v.Prelude,
				Block:        true,
				Children:     children,
				Declarations: v.Declarations,
			})
		}
	}
	return out
}
