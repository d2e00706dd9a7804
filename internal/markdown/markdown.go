// Package markdown renders a day's crawl into the stored document format and
// inspects documents with goldmark.
package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

// Labels used in the stored documents. Changing them breaks parity with
// documents already in the database.
const (
	SummaryHeading = "新闻摘要"
	DetailHeading  = "详细新闻"
	SourceLabel    = "查看原文"
	FooterLabel    = "更新时间"
	// FooterTimeLayout matches the zh-CN locale date string.
	FooterTimeLayout = "2006/1/2 15:04:05"
)

// Assemble renders the document. links[i] is the source of articles[i]; when
// links is short the record's own SourceURL is used. renderedAt feeds the
// footer, so two calls on identical input differ only in that line.
func Assemble(
	date news.CrawlDate,
	abstract string,
	articles []news.ArticleRecord,
	links []string,
	renderedAt time.Time,
) string {
	var body strings.Builder
	for i, a := range articles {
		link := a.SourceURL
		if i < len(links) {
			link = links[i]
		}
		fmt.Fprintf(&body, "### %s\n\n%s\n\n[%s](%s)\n\n", a.Title, a.Content, SourceLabel, link)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# 《新闻联播》 (%s)\n\n", date.Dashed())
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", SummaryHeading, abstract)
	fmt.Fprintf(&b, "## %s\n\n%s\n\n", DetailHeading, body.String())
	fmt.Fprintf(&b, "---\n\n*%s: %s*\n", FooterLabel, renderedAt.Format(FooterTimeLayout))
	return b.String()
}

// Heading is one entry of a document outline.
type Heading struct {
	Level int
	Text  string
}

// Outline lists the headings of doc in order.
func Outline(doc string) []Heading {
	source := []byte(doc)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var out []Heading
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		out = append(out, Heading{Level: h.Level, Text: inlineText(h, source)})
		return ast.WalkSkipChildren, nil
	})
	return out
}

// CountArticles returns the number of level-three headings in doc.
func CountArticles(doc string) int {
	n := 0
	for _, h := range Outline(doc) {
		if h.Level == 3 {
			n++
		}
	}
	return n
}

// ToHTML renders doc. Article bodies are origin HTML, so raw HTML is kept.
func ToHTML(doc string) ([]byte, error) {
	md := goldmark.New(goldmark.WithRendererOptions(html.WithUnsafe()))
	var buf bytes.Buffer
	if err := md.Convert([]byte(doc), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			continue
		}
		b.WriteString(inlineText(c, source))
	}
	return b.String()
}
