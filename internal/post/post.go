package post

import (
	"strings"
	"time"
)

// Author identifies who wrote a post.
type Author struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Thumbnail is a responsive picture declared in the metadata block.
type Thumbnail struct {
	// Sources holds the srcset of every <source> child in declaration order.
	Sources []string
	// InnerHTML is the picture's markup, copied verbatim into the post page.
	InnerHTML string
}

// Primary returns the first declared source variant.
func (t *Thumbnail) Primary() string {
	if t == nil || len(t.Sources) == 0 {
		return ""
	}
	return t.Sources[0]
}

// Preview returns the fourth declared source variant, or the last one when
// fewer than four are declared.
func (t *Thumbnail) Preview() string {
	if t == nil || len(t.Sources) == 0 {
		return ""
	}
	if len(t.Sources) > previewSourceIndex {
		return t.Sources[previewSourceIndex]
	}
	return t.Sources[len(t.Sources)-1]
}

const previewSourceIndex = 3

// Meta is the metadata of one content fragment. It is serialised verbatim
// into the search index.
type Meta struct {
	File       string     `json:"file"`
	Slug       string     `json:"slug"`
	Title      string     `json:"title"`
	Excerpt    string     `json:"excerpt"`
	Tags       []string   `json:"tags"`
	Author     Author     `json:"author"`
	Thumbnail  *Thumbnail `json:"-"`
	Image      string     `json:"thumbnail,omitempty"`
	PostDate   time.Time  `json:"postDate"`
	UpdateDate time.Time  `json:"updateDate"`
	SearchBody string     `json:"searchBody"`
}

// TagList joins the tags the way they are written in the metadata block.
func (m *Meta) TagList() string {
	return strings.Join(m.Tags, ", ")
}

// Seed carries the values every Meta starts from before the metadata block
// is applied.
type Seed struct {
	File       string
	SearchBody string
	PostDate   time.Time
	UpdateDate time.Time
}

// SlugFromFile derives a slug from a fragment file name by dropping its extension.
func SlugFromFile(file string) string {
	if i := strings.LastIndex(file, "."); i > 0 {
		return file[:i]
	}
	return file
}

// ParseTags splits a comma-delimited tag string, trimming each entry and
// dropping empty ones.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
