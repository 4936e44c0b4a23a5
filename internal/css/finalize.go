package css

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tdewolff/minify/v2"

	"git.home.luguber.info/inful/blogbuilder/internal/minifier"
)

// Output file names under the output css directory.
const (
	FileCSS       = "style.css"
	FileMinCSS    = "style.min.css"
	FileSourceMap = "style.css.map"
)

// Output is the finalised stylesheet in its three published forms.
type Output struct {
	CSS       string
	Minified  string
	SourceMap []byte
}

type sourceMap struct {
	Version  int      `json:"version"`
	File     string   `json:"file"`
	Sources  []string `json:"sources"`
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
}

// Finalize renders sheet, minifies it and produces a source map from the
// minified file back to the readable one. Each top-level node gets one mapping.
func Finalize(sheet *Stylesheet, m *minify.M) (*Output, error) {
	if m == nil {
		m = minifier.New()
	}

	var readable, minified strings.Builder
	var mappings []mapping
	line := 0
	for i, n := range sheet.Nodes {
		if i > 0 {
			readable.WriteString("\n")
			line++
		}
		var chunk strings.Builder
		n.write(&chunk, 0)
		text := chunk.String()

		small, err := m.String(minifier.MediaCSS, text)
		if err != nil {
			return nil, fmt.Errorf("minify stylesheet: %w", err)
		}
		if small != "" {
			mappings = append(mappings, mapping{generatedColumn: minified.Len(), sourceLine: line})
			minified.WriteString(small)
		}

		readable.WriteString(text)
		line += strings.Count(text, "\n")
	}

	payload, err := json.Marshal(sourceMap{
		Version:  3,
		File:     FileMinCSS,
		Sources:  []string{FileCSS},
		Names:    []string{},
		Mappings: encodeMappings(mappings),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal source map: %w", err)
	}

	minified.WriteString("\n/*# sourceMappingURL=" + FileSourceMap + " */")
	return &Output{CSS: readable.String(), Minified: minified.String(), SourceMap: payload}, nil
}

type mapping struct {
	generatedColumn int
	sourceLine      int
}

// encodeMappings writes a single generated line of segments, each relative to
// the previous one as the v3 format requires.
func encodeMappings(ms []mapping) string {
	var b strings.Builder
	prevCol, prevLine := 0, 0
	for i, m := range ms {
		if i > 0 {
			b.WriteByte(',')
		}
		writeVLQ(&b, m.generatedColumn-prevCol)
		writeVLQ(&b, 0)
		writeVLQ(&b, m.sourceLine-prevLine)
		writeVLQ(&b, 0)
		prevCol, prevLine = m.generatedColumn, m.sourceLine
	}
	return b.String()
}

const base64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func writeVLQ(b *strings.Builder, value int) {
	v := value << 1
	if value < 0 {
		v = (-value << 1) | 1
	}
	for {
		digit := v & 0x1f
		v >>= 5
		if v > 0 {
			digit |= 0x20
		}
		b.WriteByte(base64Digits[digit])
		if v == 0 {
			return
		}
	}
}
