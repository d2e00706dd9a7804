package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

const testOrigin = "http://origin.test"

// stubFetcher serves canned pages and records the request order.
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (s *stubFetcher) FetchHTML(_ context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, url)
	body, ok := s.pages[url]
	if !ok {
		return "", &news.FetchError{URL: url, StatusCode: 404, Err: fmt.Errorf("not found")}
	}
	return body, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDs struct{ n int }

func (s *seqIDs) NewID() (string, error) {
	s.n++
	return fmt.Sprintf("run-%d", s.n), nil
}

// dayPages builds an index with one abstract link and n article links
// plus the matching pages, all rooted at origin.
func dayPages(origin string, date news.CrawlDate, n int) (map[string]string, []string) {
	pages := make(map[string]string)
	var index strings.Builder
	abstractURL := fmt.Sprintf("%s/%s/summary.shtml", origin, date)
	fmt.Fprintf(&index, `<li><a href="%s">summary</a></li>`, abstractURL)
	pages[abstractURL] = abstractPage("今天节目的主要内容有：要闻一；要闻二")

	articles := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		u := fmt.Sprintf("%s/%s/article-%02d.shtml", origin, date, i)
		fmt.Fprintf(&index, `<li><a href="%s">article %d</a><a href="%s">dup</a></li>`, u, i, u)
		pages[u] = articlePage(fmt.Sprintf("[视频]新闻%d", i), fmt.Sprintf("<p>正文%d</p>", i))
		articles = append(articles, u)
	}
	pages[fmt.Sprintf(origin+"/day/%s.shtml", date)] = index.String()
	return pages, articles
}

func abstractPage(text string) string {
	return fmt.Sprintf(`<html><body><div id="page_body"><div class="allcontent"><div class="video18847">
<div class="playingCon"><div class="nrjianjie_shadow"><div><ul><li><p>%s</p></li></ul></div></div></div>
</div></div></div></body></html>`, text)
}

func articlePage(title, content string) string {
	return fmt.Sprintf(`<html><body><div id="page_body"><div class="allcontent"><div class="video18847">
<div class="playingVideo"><div class="tit">%s</div></div></div></div></div>
<div id="content_area">%s</div></body></html>`, title, content)
}
