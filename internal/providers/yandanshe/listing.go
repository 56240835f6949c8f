package yandanshe

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/yandanshe/internal/providers"
)

const (
	memberLabel    = "會員"
	memberCategory = "會員專區"
	completeGlyph  = "全"
)

func parseMangaPage(doc *goquery.Document) (*providers.MangaPageResult, error) {
	items := doc.Find("article.item")
	manga := make([]providers.Manga, 0, items.Length())

	var err error
	items.EachWithBreak(func(i int, item *goquery.Selection) bool {
		m, perr := parseListItem(item)
		if perr != nil {
			err = fmt.Errorf("item %d: %w", i+1, perr)
			return false
		}
		manga = append(manga, m)
		return true
	})
	if err != nil {
		return nil, err
	}

	return &providers.MangaPageResult{
		Manga:   manga,
		HasMore: doc.Find("li.next-page a").Length() > 0,
	}, nil
}

func parseListItem(item *goquery.Selection) (providers.Manga, error) {
	href, ok := item.Find("a[href]").First().Attr("href")
	if !ok {
		return providers.Manga{}, ErrMalformedFragment
	}

	var categories []string
	if text(item.Find("span.label")) == memberLabel {
		categories = []string{memberCategory}
	}

	status := providers.StatusOngoing
	if strings.HasPrefix(text(item.Find("footer")), completeGlyph) {
		status = providers.StatusCompleted
	}

	return providers.Manga{
		ID:         digitsOnly(href),
		Cover:      attr(item.Find("img"), "src"),
		Title:      text(item.Find("h3")),
		URL:        href,
		Categories: categories,
		Status:     status,
		Rating:     providers.Nsfw,
	}, nil
}

// digitsOnly keeps the ASCII digits of s. Listing links look like
// https://yandanshe.com/12345/, so this is the manga id.
func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
