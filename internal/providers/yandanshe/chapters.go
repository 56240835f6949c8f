package yandanshe

import (
	"context"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/yandanshe/internal/providers"
)

const (
	chapterLang = "zh"
	dateLayout  = "2006-01-02"
)

// GetChapterList maps the sections of a post to chapters. The site splits a
// work into numbered post pages, so chapter n is page n of the post.
func (s *Source) GetChapterList(ctx context.Context, mangaID string) ([]providers.Chapter, error) {
	doc, err := s.html(ctx, Manga(mangaID))
	if err != nil {
		return nil, err
	}

	return parseChapterList(mangaID, doc), nil
}

func parseChapterList(mangaID string, doc *goquery.Document) []providers.Chapter {
	count := doc.Find(".post-page-numbers").Length()
	if count == 0 {
		count = 1
	}

	chapters := make([]providers.Chapter, 0, count)
	for n := count; n >= 1; n-- {
		id := strconv.Itoa(n)
		chapters = append(chapters, providers.Chapter{
			ID:     id,
			Number: float64(n),
			URL:    Chapter(mangaID, id).String(),
			Lang:   chapterLang,
		})
	}

	if updated, err := time.Parse(dateLayout, text(doc.Find("span.item-time"))); err == nil {
		chapters[0].DateUpdated = updated
	}

	return chapters
}
