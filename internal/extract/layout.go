// Package extract pulls structured data out of the origin's index, summary,
// and article pages. Every DOM location lives in a Layout so a page redesign
// is a configuration change.
package extract

import (
	"fmt"
	"strings"

	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

// Field maps a logical field to its selector chain and fallback sentinel.
type Field struct {
	Name     string `mapstructure:"name"`
	Selector string `mapstructure:"selector"`
	Fallback string `mapstructure:"fallback"`
}

// Layout is the selector table for one origin.
type Layout struct {
	// IndexURL is a fmt template receiving the YYYYMMDD date.
	IndexURL string `mapstructure:"index_url"`
	Links    Field  `mapstructure:"links"`
	Abstract Field  `mapstructure:"abstract"`
	Title    Field  `mapstructure:"title"`
	Content  Field  `mapstructure:"content"`
	// TitleMarker is stripped once from article titles.
	TitleMarker string `mapstructure:"title_marker"`
}

// DefaultLayout targets the CCTV Xinwen Lianbo transcript pages.
func DefaultLayout() Layout {
	return Layout{
		IndexURL: "http://tv.cctv.com/lm/xwlb/day/%s.shtml",
		Links:    Field{Name: "links", Selector: "a"},
		Abstract: Field{
			Name: "abstract",
			Selector: "#page_body > div.allcontent > div.video18847 > div.playingCon > " +
				"div.nrjianjie_shadow > div > ul > li:nth-child(1) > p",
			Fallback: news.NoAbstract,
		},
		Title: Field{
			Name:     "title",
			Selector: "#page_body > div.allcontent > div.video18847 > div.playingVideo > div.tit",
			Fallback: news.NoTitle,
		},
		Content: Field{
			Name:     "content",
			Selector: "#content_area",
			Fallback: news.NoContent,
		},
		TitleMarker: "[视频]",
	}
}

// IndexURLFor renders the index page URL for date.
func (l Layout) IndexURLFor(date news.CrawlDate) string {
	return fmt.Sprintf(l.IndexURL, string(date))
}

// Validate rejects tables with missing selectors.
func (l Layout) Validate() error {
	if !strings.Contains(l.IndexURL, "%s") {
		return fmt.Errorf("layout.index_url must contain a %%s date placeholder")
	}
	for _, f := range []Field{l.Links, l.Abstract, l.Title, l.Content} {
		if strings.TrimSpace(f.Selector) == "" {
			return fmt.Errorf("layout.%s.selector must be set", f.Name)
		}
	}
	return nil
}
