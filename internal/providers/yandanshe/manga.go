package yandanshe

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/yandanshe/internal/providers"
)

const (
	statusSeparator = "·"
	scrollTag       = "條漫"
)

var safeTags = map[string]bool{
	"清水向": true,
	"清水":  true,
}

func (s *Source) GetMangaDetails(ctx context.Context, id string) (*providers.Manga, error) {
	u := Manga(id)

	doc, err := s.html(ctx, u)
	if err != nil {
		return nil, err
	}

	m := parseMangaDetails(doc)
	m.ID = id
	m.URL = u.String()
	m.Cover = s.lookupCover(ctx, id, m.Title)

	return m, nil
}

// lookupCover finds the cover through a title search since the detail page
// has no reliable cover image. Failures leave the cover empty.
func (s *Source) lookupCover(ctx context.Context, id, title string) string {
	doc, err := s.html(ctx, Search(title, 1))
	if err != nil {
		s.log.Debugf("cover lookup for %s failed: %v\n", id, err)
		return ""
	}

	return attr(doc.Find(fmt.Sprintf(`a[href*="/%s/"] img`, id)), "src")
}

func parseMangaDetails(doc *goquery.Document) *providers.Manga {
	var paragraphs []string
	doc.Find("blockquote p").Each(func(_ int, p *goquery.Selection) {
		paragraphs = append(paragraphs, text(p))
	})

	rating := providers.Nsfw
	viewer := providers.ViewerDefault

	var categories []string
	doc.Find("a[rel=tag]").Each(func(_ int, a *goquery.Selection) {
		tag := text(a)
		switch {
		case safeTags[tag]:
			rating = providers.Safe
		case tag == scrollTag:
			viewer = providers.ViewerScroll
		}
		categories = append(categories, tag)
	})

	return &providers.Manga{
		Title:       text(doc.Find("h1")),
		Author:      text(doc.Find("span.item-author")),
		Description: strings.Join(paragraphs, "\n\n"),
		Categories:  categories,
		Status:      parseStatus(text(doc.Find("a[rel*=category]"))),
		Rating:      rating,
		Viewer:      viewer,
	}
}

// parseStatus reads the breadcrumb's last segment, e.g. "耽美·完結".
func parseStatus(breadcrumb string) providers.MangaStatus {
	i := strings.LastIndex(breadcrumb, statusSeparator)
	if i < 0 {
		return providers.StatusUnknown
	}

	switch strings.TrimSpace(breadcrumb[i+len(statusSeparator):]) {
	case "完結":
		return providers.StatusCompleted
	case "連載":
		return providers.StatusOngoing
	}

	return providers.StatusUnknown
}
