package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

const fragmentShell = "<!DOCTYPE html><html><head></head><body>%s</body></html>"

// Extractor applies a Layout to fetched HTML.
type Extractor struct {
	layout Layout
}

// New builds an Extractor over layout.
func New(layout Layout) *Extractor {
	return &Extractor{layout: layout}
}

// Layout returns the selector table in use.
func (e *Extractor) Layout() Layout {
	return e.layout
}

// Links parses the index fragment served at pageURL and splits the first
// unique link off as the abstract page.
func (e *Extractor) Links(pageURL, fragment string) (news.LinkSet, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fmt.Sprintf(fragmentShell, fragment)))
	if err != nil {
		return news.LinkSet{}, &news.ExtractionError{URL: pageURL, Reason: fmt.Sprintf("parse index: %v", err)}
	}
	base, _ := url.Parse(pageURL)

	var links []string
	seen := make(map[string]struct{})
	doc.Find(e.layout.Links.Selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		link := resolve(base, strings.TrimSpace(href))
		if link == "" {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	if len(links) < 2 {
		return news.LinkSet{}, &news.ExtractionError{URL: pageURL, Reason: news.ErrEmptyResult.Error()}
	}
	return news.LinkSet{Abstract: links[0], Articles: links[1:]}, nil
}

// Abstract returns the summary paragraph with paragraph breaks inserted after
// full-width semicolons and colons. found is false when the selector missed
// and the fallback was returned.
func (e *Extractor) Abstract(html string) (abstract string, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false, fmt.Errorf("parse abstract page: %w", err)
	}
	inner, ok := innerHTML(doc, e.layout.Abstract.Selector)
	if !ok {
		return e.layout.Abstract.Fallback, false, nil
	}
	return Reflow(inner), true, nil
}

// Article returns the title and body of one article page. Missing nodes fall
// back to the layout sentinels independently.
func (e *Extractor) Article(sourceURL, html string) (news.ArticleRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return news.ArticleRecord{}, fmt.Errorf("parse article page: %w", err)
	}
	rec := news.ArticleRecord{
		Title:     e.layout.Title.Fallback,
		Content:   e.layout.Content.Fallback,
		SourceURL: sourceURL,
	}
	if title, ok := innerHTML(doc, e.layout.Title.Selector); ok {
		if e.layout.TitleMarker != "" {
			title = strings.Replace(title, e.layout.TitleMarker, "", 1)
		}
		if title = strings.TrimSpace(title); title != "" {
			rec.Title = title
		}
	}
	if content, ok := innerHTML(doc, e.layout.Content.Selector); ok {
		if content = strings.TrimSpace(content); content != "" {
			rec.Content = content
		}
	}
	return rec, nil
}

// Reflow inserts a blank line after every full-width semicolon, then after
// every full-width colon.
func Reflow(s string) string {
	s = strings.ReplaceAll(s, "；", "；\n\n")
	return strings.ReplaceAll(s, "：", "：\n\n")
}

func innerHTML(doc *goquery.Document, selector string) (string, bool) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	inner, err := sel.Html()
	if err != nil {
		return "", false
	}
	return browserEscaping(inner), true
}

// browserEscaping rewrites the html renderer's escaping to what a browser's
// innerHTML produces: quotes stay literal in text, attribute quotes become
// &quot;, and no-break spaces become &nbsp;. The renderer escapes < and >
// inside attribute values, so a bare < always opens a tag.
func browserEscaping(s string) string {
	if !strings.ContainsAny(s, "&\u00a0") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for i := 0; i < len(s); {
		rest := s[i:]
		switch {
		case s[i] == '<':
			inTag = true
		case s[i] == '>':
			inTag = false
		case strings.HasPrefix(rest, "&#34;"):
			if inTag {
				b.WriteString("&quot;")
			} else {
				b.WriteByte('"')
			}
			i += len("&#34;")
			continue
		case strings.HasPrefix(rest, "&#39;"):
			b.WriteByte('\'')
			i += len("&#39;")
			continue
		case strings.HasPrefix(rest, "\u00a0"):
			b.WriteString("&nbsp;")
			i += len("\u00a0")
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func resolve(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if !ref.IsAbs() {
		return ""
	}
	return ref.String()
}
