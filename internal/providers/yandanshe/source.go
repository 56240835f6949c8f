package yandanshe

import (
	"context"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/yandanshe/internal/providers"
)

const (
	blockedTitle = "您已被臨時封鎖"
	HomeListing  = "首頁"
)

type Fetcher interface {
	Document(ctx context.Context, url string) (*goquery.Document, error)
}

type Settings interface {
	Get(key string) (any, bool)
}

type RateLimiter interface {
	SetRequestLimit(n int)
	SetRequestPeriod(seconds int)
}

type Options struct {
	Fetcher     Fetcher
	Settings    Settings
	RateLimiter RateLimiter
	DebugLogger interface {
		Debugf(string, ...any)
	}
}

type Source struct {
	fetcher  Fetcher
	settings Settings
	limiter  RateLimiter
	log      interface{ Debugf(string, ...any) }
}

var _ providers.Source = (*Source)(nil)

func New(opts Options) *Source {
	s := &Source{
		fetcher:  opts.Fetcher,
		settings: opts.Settings,
		limiter:  opts.RateLimiter,
		log:      opts.DebugLogger,
	}
	if s.log == nil {
		s.log = nopLogger{}
	}

	return s
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}

// html fetches u and rejects the site's temporary block page. Transport
// errors are returned as they are.
func (s *Source) html(ctx context.Context, u URL) (*goquery.Document, error) {
	target := u.String()
	s.log.Debugf("fetching %s\n", target)

	doc, err := s.fetcher.Document(ctx, target)
	if err != nil {
		return nil, err
	}

	if text(doc.Find("title")) == blockedTitle {
		return nil, &BlockedError{URL: target}
	}

	return doc, nil
}

func (s *Source) GetMangaList(ctx context.Context, filters []providers.Filter, page int) (*providers.MangaPageResult, error) {
	doc, err := s.html(ctx, FromFilters(filters, page))
	if err != nil {
		return nil, err
	}

	return parseMangaPage(doc)
}

func (s *Source) GetMangaListing(ctx context.Context, listing providers.Listing, page int) (*providers.MangaPageResult, error) {
	if listing.Name != HomeListing {
		return nil, &UnimplementedListingError{Name: listing.Name}
	}

	doc, err := s.html(ctx, Home(page))
	if err != nil {
		return nil, err
	}

	return parseMangaPage(doc)
}

func (s *Source) GetPageList(ctx context.Context, mangaID, chapterID string) ([]providers.Page, error) {
	doc, err := s.html(ctx, Chapter(mangaID, chapterID))
	if err != nil {
		return nil, err
	}

	return parsePageList(doc)
}

// ModifyImageRequest prepares a page image request; the image host rejects
// requests without the site as referer.
func (s *Source) ModifyImageRequest(req *http.Request) {
	req.Header.Set("Referer", Domain)
}
