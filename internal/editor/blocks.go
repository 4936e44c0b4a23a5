package editor

import (
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
)

// Document is the block document the editor submits.
type Document struct {
	Time    int64   `json:"time,omitempty"`
	Blocks  []Block `json:"blocks"`
	Version string  `json:"version,omitempty"`
}

// Block is one editor block; Data depends on Type.
type Block struct {
	ID   string          `json:"id,omitempty"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type textData struct {
	Text string `json:"text"`
}

type headerData struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// listItem accepts both flat string items and nested item objects.
type listItem struct {
	Content string     `json:"content"`
	Items   []listItem `json:"items"`
}

func (li *listItem) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		li.Content = s
		return nil
	}
	type plain listItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*li = listItem(p)
	return nil
}

type listData struct {
	Style string     `json:"style"`
	Items []listItem `json:"items"`
}

type checklistData struct {
	Items []struct {
		Text    string `json:"text"`
		Checked bool   `json:"checked"`
	} `json:"items"`
}

type imageFile struct {
	URL string `json:"url"`
}

type imageData struct {
	File           imageFile `json:"file"`
	Caption        string    `json:"caption"`
	WithBorder     bool      `json:"withBorder"`
	WithBackground bool      `json:"withBackground"`
	Stretched      bool      `json:"stretched"`
}

type codeData struct {
	Code         string `json:"code"`
	LanguageCode string `json:"languageCode"`
}

type quoteData struct {
	Text      string `json:"text"`
	Caption   string `json:"caption"`
	Alignment string `json:"alignment"`
}

type rawData struct {
	HTML string `json:"html"`
}

type tableData struct {
	WithHeadings bool       `json:"withHeadings"`
	Content      [][]string `json:"content"`
}

// languageClasses maps short editor language codes to highlighter names.
var languageClasses = map[string]string{
	"js": "javascript",
	"ts": "typescript",
	"sh": "bash",
	"py": "python",
}

// ParseDocument decodes the editor's JSON.
func ParseDocument(raw string) (*Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// RenderHTML renders every block in order. Text fields carry inline markup
// from the editor and are written as-is; code is escaped. Unknown block
// types are skipped.
func (d *Document) RenderHTML() (string, error) {
	var b strings.Builder
	for i, block := range d.Blocks {
		if err := renderBlock(&b, block); err != nil {
			return "", fmt.Errorf("block %d (%s): %w", i, block.Type, err)
		}
	}
	return b.String(), nil
}

func renderBlock(b *strings.Builder, block Block) error {
	switch block.Type {
	case "paragraph":
		var d textData
		if err := json.Unmarshal(block.Data, &d); err != nil {
			return err
		}
		b.WriteString("<p>" + d.Text + "</p>")
	case "header":
		var d headerData
		if err := json.Unmarshal(block.Data, &d); err != nil {
			return err
		}
		level := d.Level
		if level < 1 || level > 6 {
			level = 2
		}
		tag := "h" + strconv.Itoa(level)
		b.WriteString("<" + tag + ">" + d.Text + "</" + tag + ">")
	case "list":
		var d listData
		if err := json.Unmarshal(block.Data, &d); err != nil {
			return err
		}
		writeList(b, listTag(d.Style), d.Items)
	case "checklist":
		var d checklistData
		if err := json.Unmarshal(block.Data, &d); err != nil {
			return err
		}
		b.WriteString(`<ul class="checklist">`)
		for _, item := range d.Items {
			if item.Checked {
				b.WriteString(`<li class="checked">`)
			} else {
				b.WriteString("<li>")
			}
			b.WriteString(item.Text + "</li>")
		}
		b.WriteString("</ul>")
	case "image":
		var d imageData
		if err := json.Unmarshal(block.Data, &d); err != nil {
			return err
		}
		writeImage(b, d)
	case "code":
		var d codeData
		if err := json.Unmarshal(block.Data, &d); err != nil {
			return err
		}
		b.WriteString("<pre><code")
		if lang := codeLanguage(d.LanguageCode); lang != "" {
			b.WriteString(` class="language-` + html.EscapeString(lang) + `"`)
		}
		b.WriteString(">" + html.EscapeString(d.Code) + "</code></pre>")
	case "quote":
		var d quoteData
		if err := json.Unmarshal(block.Data, &d); err != nil {
			return err
		}
		b.WriteString("<blockquote><p>" + d.Text + "</p>")
		if d.Caption != "" {
			b.WriteString("<cite>" + d.Caption + "</cite>")
		}
		b.WriteString("</blockquote>")
	case "delimiter":
		b.WriteString("<hr>")
	case "raw":
		var d rawData
		if err := json.Unmarshal(block.Data, &d); err != nil {
			return err
		}
		b.WriteString(d.HTML)
	case "table":
		var d tableData
		if err := json.Unmarshal(block.Data, &d); err != nil {
			return err
		}
		writeTable(b, d)
	default:
		slog.Debug("Skipping unsupported editor block", "type", block.Type)
	}
	return nil
}

func listTag(style string) string {
	if style == "ordered" {
		return "ol"
	}
	return "ul"
}

func writeList(b *strings.Builder, tag string, items []listItem) {
	b.WriteString("<" + tag + ">")
	for _, item := range items {
		b.WriteString("<li>" + item.Content)
		if len(item.Items) > 0 {
			writeList(b, tag, item.Items)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</" + tag + ">")
}

func writeImage(b *strings.Builder, d imageData) {
	var classes []string
	if d.WithBorder {
		classes = append(classes, "image-border")
	}
	if d.WithBackground {
		classes = append(classes, "image-background")
	}
	if d.Stretched {
		classes = append(classes, "image-stretched")
	}
	b.WriteString("<figure")
	if len(classes) > 0 {
		b.WriteString(` class="` + strings.Join(classes, " ") + `"`)
	}
	b.WriteString(`><img src="` + html.EscapeString(d.File.URL) + `" alt="` + html.EscapeString(stripTags(d.Caption)) + `">`)
	if d.Caption != "" {
		b.WriteString("<figcaption>" + d.Caption + "</figcaption>")
	}
	b.WriteString("</figure>")
}

func writeTable(b *strings.Builder, d tableData) {
	b.WriteString("<table>")
	rows := d.Content
	if d.WithHeadings && len(rows) > 0 {
		b.WriteString("<thead><tr>")
		for _, cell := range rows[0] {
			b.WriteString("<th>" + cell + "</th>")
		}
		b.WriteString("</tr></thead>")
		rows = rows[1:]
	}
	b.WriteString("<tbody>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>" + cell + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
}

func codeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if name, ok := languageClasses[code]; ok {
		return name
	}
	return code
}

// stripTags drops inline markup so a caption can be used as alt text.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return html.UnescapeString(b.String())
}

// RewriteImages replaces the URL of every image block with fn's result.
func (d *Document) RewriteImages(fn func(url string) (string, error)) error {
	for i := range d.Blocks {
		if d.Blocks[i].Type != "image" {
			continue
		}
		var img map[string]any
		if err := json.Unmarshal(d.Blocks[i].Data, &img); err != nil {
			return err
		}
		file, _ := img["file"].(map[string]any)
		url, _ := file["url"].(string)
		if url == "" {
			continue
		}
		next, err := fn(url)
		if err != nil {
			return err
		}
		file["url"] = next
		data, err := json.Marshal(img)
		if err != nil {
			return err
		}
		d.Blocks[i].Data = data
	}
	return nil
}
