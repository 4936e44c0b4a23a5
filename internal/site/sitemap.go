package site

import (
	"encoding/xml"
	"fmt"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/post"
)

const (
	sitemapNamespace = "https://www.sitemaps.org/schemas/sitemap/0.9"
	rootPriority     = "1.00"
	postPriority     = "0.80"
)

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc      string `xml:"loc"`
	Lastmod  string `xml:"lastmod"`
	Priority string `xml:"priority"`
}

// Sitemap renders the site root entry followed by the post entries in insertion order.
func Sitemap(baseURL string, builtAt time.Time, entries []SitemapEntry) ([]byte, error) {
	set := urlset{Xmlns: sitemapNamespace}
	set.URLs = append(set.URLs, sitemapURL{Loc: baseURL, Lastmod: post.FormatISO(builtAt), Priority: rootPriority})
	for _, e := range entries {
		set.URLs = append(set.URLs, sitemapURL(e))
	}
	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
