package extractor

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
)

// ExtractHTMLBlock parses a single HTML page blob into one candidate
// block. Unlike the PDF pipeline, one HTML
// page always yields at most one article.
func ExtractHTMLBlock(raw []byte, pageURL, sourceFile string) (Block, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return Block{}, dataError("parse html", err)
	}

	parsedURL, _ := url.Parse(pageURL)
	article, rerr := readability.FromReader(bytes.NewReader(raw), parsedURL)
	content := ""
	if rerr == nil {
		content = strings.TrimSpace(article.TextContent)
	}
	if content == "" {
		content = strings.TrimSpace(doc.Find("body").Text())
	}
	if content == "" {
		return Block{}, dataError("extract html", ErrEmptyBlob)
	}

	block := Block{
		Title:      pickTitle(doc, article),
		Content:    content,
		Section:    pickSection(doc, pageURL),
		Author:     pickAuthor(doc, article),
		URL:        pageURL,
		RawHTML:    string(raw),
		SourceFile: sourceFile,
	}
	if published := pickDatePublished(doc, article); published != nil {
		block.DatePublished = published
	}
	return block, nil
}

// pickTitle follows the documented fallback chain: og:title -> <title> -> h1.
func pickTitle(doc *goquery.Document, article readability.Article) string {
	if v, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if h := strings.TrimSpace(doc.Find("h1").First().Text()); h != "" {
		return h
	}
	return strings.TrimSpace(article.Title)
}

// pickSection follows meta[name=section] -> breadcrumbs -> URL path segment.
func pickSection(doc *goquery.Document, pageURL string) string {
	if v, ok := doc.Find(`meta[name="section"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[property="article:section"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if crumb := strings.TrimSpace(doc.Find(`[class*="breadcrumb"] a`).First().Text()); crumb != "" {
		return crumb
	}
	if crumb := strings.TrimSpace(doc.Find(`nav[aria-label="breadcrumb"] a`).First().Text()); crumb != "" {
		return crumb
	}
	if parsed, err := url.Parse(pageURL); err == nil {
		segs := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(segs) > 0 && segs[0] != "" {
			return segs[0]
		}
	}
	return ""
}

func pickAuthor(doc *goquery.Document, article readability.Article) string {
	if v, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[property="article:author"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if article.Byline != "" {
		return strings.TrimSpace(article.Byline)
	}
	return ""
}

func pickDatePublished(doc *goquery.Document, article readability.Article) *time.Time {
	if article.PublishedTime != nil {
		return article.PublishedTime
	}
	candidates := []string{
		`meta[property="article:published_time"]`,
		`meta[name="date"]`,
		`meta[name="publish-date"]`,
		`time[datetime]`,
	}
	for _, sel := range candidates {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		raw, ok := node.Attr("content")
		if !ok {
			raw, ok = node.Attr("datetime")
		}
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			return &t
		}
	}
	return nil
}
