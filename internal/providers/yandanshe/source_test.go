package yandanshe

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/yandanshe/internal/providers"
)

// fakeFetcher serves canned HTML by address and records every request.
type fakeFetcher struct {
	pages    map[string]string
	requests []string
}

var errNotFound = errors.New("not found")

func (f *fakeFetcher) Document(_ context.Context, url string) (*goquery.Document, error) {
	f.requests = append(f.requests, url)

	body, ok := f.pages[url]
	if !ok {
		return nil, errNotFound
	}

	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

func newTestSource(pages map[string]string) (*Source, *fakeFetcher) {
	f := &fakeFetcher{pages: pages}
	return New(Options{Fetcher: f}), f
}

const blockedPage = `<html><head><title>您已被臨時封鎖</title></head><body></body></html>`

const listingPage = `<html><head><title>首頁</title></head><body>
<article class="item">
  <a href="https://yandanshe.com/101/"><img src="https://img.example/101.jpg"></a>
  <span class="label">會員</span>
  <h3>  第一本
     漫畫 </h3>
  <footer>全 12 頁</footer>
</article>
<article class="item">
  <a href="https://yandanshe.com/102/"><img src="https://img.example/102.jpg"></a>
  <span class="label">新</span>
  <h3>第二本</h3>
  <footer>連載中</footer>
</article>
<article class="item">
  <a href="https://yandanshe.com/103/"><img src="https://img.example/103.jpg"></a>
  <h3>第三本</h3>
</article>
<ul><li class="next-page"><a href="/page/2/">下一頁</a></li></ul>
</body></html>`

func TestGetMangaList(t *testing.T) {
	url := FromFilters(nil, 1).String()
	src, _ := newTestSource(map[string]string{url: listingPage})

	res, err := src.GetMangaList(context.Background(), nil, 1)
	if err != nil {
		t.Fatalf("GetMangaList: %v", err)
	}

	if !res.HasMore {
		t.Error("HasMore = false, want true")
	}
	if len(res.Manga) != 3 {
		t.Fatalf("got %d entries, want 3", len(res.Manga))
	}

	first := res.Manga[0]
	if first.ID != "101" || first.Title != "第一本 漫畫" || first.Cover != "https://img.example/101.jpg" {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if first.URL != "https://yandanshe.com/101/" {
		t.Errorf("URL = %q", first.URL)
	}
	if len(first.Categories) != 1 || first.Categories[0] != "會員專區" {
		t.Errorf("categories = %v", first.Categories)
	}
	if first.Status != providers.StatusCompleted || first.Rating != providers.Nsfw {
		t.Errorf("status=%v rating=%v", first.Status, first.Rating)
	}

	second := res.Manga[1]
	if second.ID != "102" || len(second.Categories) != 0 || second.Status != providers.StatusOngoing {
		t.Errorf("unexpected second entry: %+v", second)
	}

	if res.Manga[2].Status != providers.StatusOngoing {
		t.Errorf("entry without footer should be ongoing, got %v", res.Manga[2].Status)
	}
}

func TestGetMangaListLastPage(t *testing.T) {
	url := Search("x", 5).String()
	src, _ := newTestSource(map[string]string{url: `<html><body></body></html>`})

	res, err := src.GetMangaList(context.Background(), []providers.Filter{titleFilter("x")}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if res.HasMore || len(res.Manga) != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestGetMangaListMalformedItem(t *testing.T) {
	page := `<html><body>
<article class="item"><a href="https://yandanshe.com/1/"></a><h3>ok</h3></article>
<article class="item"><h3>no link</h3></article>
</body></html>`

	url := FromFilters(nil, 1).String()
	src, _ := newTestSource(map[string]string{url: page})

	res, err := src.GetMangaList(context.Background(), nil, 1)
	if !errors.Is(err, ErrMalformedFragment) {
		t.Fatalf("err = %v, want ErrMalformedFragment", err)
	}
	if res != nil {
		t.Errorf("partial result returned: %+v", res)
	}
}

func TestGetMangaListing(t *testing.T) {
	src, f := newTestSource(map[string]string{Home(2).String(): listingPage})

	res, err := src.GetMangaListing(context.Background(), providers.Listing{Name: HomeListing}, 2)
	if err != nil {
		t.Fatalf("GetMangaListing: %v", err)
	}
	if len(res.Manga) != 3 {
		t.Errorf("got %d entries", len(res.Manga))
	}
	if f.requests[0] != "https://yandanshe.com/page/2/" {
		t.Errorf("requested %v", f.requests)
	}
}

func TestGetMangaListingUnimplemented(t *testing.T) {
	src, f := newTestSource(nil)

	_, err := src.GetMangaListing(context.Background(), providers.Listing{Name: "排行"}, 1)

	var unimpl *UnimplementedListingError
	if !errors.As(err, &unimpl) {
		t.Fatalf("err = %v, want UnimplementedListingError", err)
	}
	if unimpl.Name != "排行" || err.Error() != "listing unimplemented: 排行" {
		t.Errorf("unexpected error: %v", err)
	}
	if len(f.requests) != 0 {
		t.Errorf("unexpected requests: %v", f.requests)
	}
}

func TestBlockDetection(t *testing.T) {
	ctx := context.Background()
	pages := map[string]string{}
	for _, u := range []URL{FromFilters(nil, 1), Home(1), Manga("1"), Chapter("1", "1"), Search("", 1)} {
		pages[u.String()] = blockedPage
	}
	src, _ := newTestSource(pages)

	calls := map[string]func() error{
		"list": func() error {
			_, err := src.GetMangaList(ctx, nil, 1)
			return err
		},
		"home": func() error {
			_, err := src.GetMangaListing(ctx, providers.Listing{Name: HomeListing}, 1)
			return err
		},
		"details": func() error {
			_, err := src.GetMangaDetails(ctx, "1")
			return err
		},
		"chapters": func() error {
			_, err := src.GetChapterList(ctx, "1")
			return err
		},
		"pages": func() error {
			_, err := src.GetPageList(ctx, "1", "1")
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			if !errors.Is(err, ErrParse) {
				t.Fatalf("err = %v, want ErrParse", err)
			}

			var blocked *BlockedError
			if !errors.As(err, &blocked) || blocked.URL == "" {
				t.Errorf("err = %v, want BlockedError with URL", err)
			}
		})
	}
}

func TestTransportErrorPropagates(t *testing.T) {
	src, _ := newTestSource(nil)

	if _, err := src.GetMangaList(context.Background(), nil, 1); !errors.Is(err, errNotFound) {
		t.Errorf("err = %v, want transport error unchanged", err)
	}
}

const detailPage = `<html><head><title>標題</title></head><body>
<h1>測試漫畫</h1>
<span class="item-author">作者甲</span>
<a rel="category tag" href="/blwj/">耽美 · 完結</a>
<span class="item-time">2024-03-05</span>
<blockquote><p>第一段</p><p>第二段
  換行</p></blockquote>
<a rel="tag">校園</a>
<a rel="tag">清水</a>
<a rel="tag">條漫</a>
<div class="pages">
  <a class="post-page-numbers">1</a>
  <a class="post-page-numbers">2</a>
  <a class="post-page-numbers">3</a>
</div>
</body></html>`

const coverSearchPage = `<html><body>
<article class="item"><a href="https://yandanshe.com/999/"><img src="https://img.example/other.jpg"></a></article>
<article class="item"><a href="https://yandanshe.com/42/"><img src="https://img.example/42.jpg"></a></article>
</body></html>`

func TestGetMangaDetails(t *testing.T) {
	src, f := newTestSource(map[string]string{
		Manga("42").String():        detailPage,
		Search("測試漫畫", 1).String(): coverSearchPage,
	})

	m, err := src.GetMangaDetails(context.Background(), "42")
	if err != nil {
		t.Fatalf("GetMangaDetails: %v", err)
	}

	if m.ID != "42" || m.URL != "https://yandanshe.com/42/" {
		t.Errorf("id=%q url=%q", m.ID, m.URL)
	}
	if m.Title != "測試漫畫" || m.Author != "作者甲" {
		t.Errorf("title=%q author=%q", m.Title, m.Author)
	}
	if m.Description != "第一段\n\n第二段 換行" {
		t.Errorf("description = %q", m.Description)
	}
	if strings.Join(m.Categories, ",") != "校園,清水,條漫" {
		t.Errorf("categories = %v", m.Categories)
	}
	if m.Rating != providers.Safe || m.Viewer != providers.ViewerScroll {
		t.Errorf("rating=%v viewer=%v", m.Rating, m.Viewer)
	}
	if m.Status != providers.StatusCompleted {
		t.Errorf("status = %v", m.Status)
	}
	if m.Cover != "https://img.example/42.jpg" {
		t.Errorf("cover = %q", m.Cover)
	}

	if len(f.requests) != 2 || f.requests[1] != Search("測試漫畫", 1).String() {
		t.Errorf("requests = %v", f.requests)
	}
}

func TestGetMangaDetailsCoverLookupFails(t *testing.T) {
	src, _ := newTestSource(map[string]string{Manga("42").String(): detailPage})

	m, err := src.GetMangaDetails(context.Background(), "42")
	if err != nil {
		t.Fatalf("cover failure must not fail details: %v", err)
	}
	if m.Cover != "" {
		t.Errorf("cover = %q, want empty", m.Cover)
	}
}

func TestParseMangaDetailsDefaults(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><h1>x</h1><a rel="tag">a</a></body></html>`))
	if err != nil {
		t.Fatal(err)
	}

	m := parseMangaDetails(doc)
	if m.Rating != providers.Nsfw || m.Viewer != providers.ViewerDefault || m.Status != providers.StatusUnknown {
		t.Errorf("rating=%v viewer=%v status=%v", m.Rating, m.Viewer, m.Status)
	}
	if m.Description != "" {
		t.Errorf("description = %q", m.Description)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want providers.MangaStatus
	}{
		{"耽美·完結", providers.StatusCompleted},
		{"耽美 · 連載", providers.StatusOngoing},
		{"a·b·完結", providers.StatusCompleted},
		{"完結·耽美", providers.StatusUnknown},
		{"完結", providers.StatusUnknown},
		{"", providers.StatusUnknown},
	}

	for _, tt := range tests {
		if got := parseStatus(tt.in); got != tt.want {
			t.Errorf("parseStatus(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGetChapterList(t *testing.T) {
	src, _ := newTestSource(map[string]string{Manga("42").String(): detailPage})

	chapters, err := src.GetChapterList(context.Background(), "42")
	if err != nil {
		t.Fatalf("GetChapterList: %v", err)
	}

	if len(chapters) != 3 {
		t.Fatalf("got %d chapters, want 3", len(chapters))
	}

	for i, want := range []string{"3", "2", "1"} {
		ch := chapters[i]
		if ch.ID != want || ch.Number != float64(3-i) || ch.Lang != "zh" {
			t.Errorf("chapter %d = %+v", i, ch)
		}
		if ch.URL != "https://yandanshe.com/42/"+want+"/" {
			t.Errorf("chapter %d url = %q", i, ch.URL)
		}
	}

	wantDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if !chapters[0].DateUpdated.Equal(wantDate) {
		t.Errorf("date = %v, want %v", chapters[0].DateUpdated, wantDate)
	}
	for _, ch := range chapters[1:] {
		if !ch.DateUpdated.IsZero() {
			t.Errorf("chapter %s has a date", ch.ID)
		}
	}
}

func TestGetChapterListSingle(t *testing.T) {
	src, _ := newTestSource(map[string]string{
		Manga("7").String(): `<html><body><span class="item-time">bad date</span></body></html>`,
	})

	chapters, err := src.GetChapterList(context.Background(), "7")
	if err != nil {
		t.Fatal(err)
	}
	if len(chapters) != 1 || chapters[0].ID != "1" || chapters[0].Number != 1 {
		t.Fatalf("chapters = %+v", chapters)
	}
	if !chapters[0].DateUpdated.IsZero() {
		t.Error("unparsable date should be left empty")
	}
}

func TestGetPageList(t *testing.T) {
	page := `<html><body>
<img src="/lazy.gif" data-src="https://img.example/1.jpg">
<img src="/logo.png">
<img data-src="https://img.example/2.jpg">
<div class="article-login">請登入</div>
</body></html>`

	src, _ := newTestSource(map[string]string{Chapter("42", "2").String(): page})

	pages, err := src.GetPageList(context.Background(), "42", "2")
	if err != nil {
		t.Fatalf("GetPageList: %v", err)
	}

	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if pages[0].Index != 0 || pages[0].URL != "https://img.example/1.jpg" {
		t.Errorf("page 0 = %+v", pages[0])
	}
	if pages[1].Index != 1 || pages[1].URL != "https://img.example/2.jpg" {
		t.Errorf("page 1 = %+v", pages[1])
	}
	if pages[2].Index != 2 || pages[2].URL != "" || pages[2].Base64 != requiresSignIn {
		t.Errorf("sign-in page = %+v", pages[2])
	}
}

func TestGetPageListWithoutLogin(t *testing.T) {
	src, _ := newTestSource(map[string]string{
		Chapter("1", "1").String(): `<html><body><img data-src="a.jpg"></body></html>`,
	})

	pages, err := src.GetPageList(context.Background(), "1", "1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].Base64 != "" {
		t.Errorf("pages = %+v", pages)
	}
}

func TestPageIndex(t *testing.T) {
	if i, err := pageIndex(5); err != nil || i != 5 {
		t.Errorf("pageIndex(5) = %d, %v", i, err)
	}
	if _, err := pageIndex(-1); !errors.Is(err, ErrIndexOverflow) {
		t.Errorf("pageIndex(-1) err = %v", err)
	}
}

func TestHandleURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		manga   bool
		chapter string
	}{
		{"chapter", "https://yandanshe.com/42/3/", true, "3"},
		{"start", "https://yandanshe.com/42/?start", true, "1"},
		{"manga", "https://yandanshe.com/42/", true, ""},
		{"other host", "https://mirror.example/42/", true, ""},
		{"not numeric", "https://yandanshe.com/tag/abc/", false, ""},
		{"listing", "https://yandanshe.com/page/2/", false, ""},
		{"missing slash", "https://yandanshe.com/42", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, f := newTestSource(map[string]string{Manga("42").String(): detailPage})

			link, err := src.HandleURL(context.Background(), tt.url)
			if err != nil {
				t.Fatalf("HandleURL: %v", err)
			}

			if !tt.manga {
				if link.Manga != nil || link.Chapter != nil || len(f.requests) != 0 {
					t.Errorf("expected empty link without requests, got %+v (%v)", link, f.requests)
				}
				return
			}

			if link.Manga == nil || link.Manga.ID != "42" || link.Manga.Title != "測試漫畫" {
				t.Fatalf("manga = %+v", link.Manga)
			}

			switch {
			case tt.chapter == "" && link.Chapter != nil:
				t.Errorf("chapter = %+v, want none", link.Chapter)
			case tt.chapter != "" && (link.Chapter == nil || link.Chapter.ID != tt.chapter):
				t.Errorf("chapter = %+v, want %s", link.Chapter, tt.chapter)
			}
		})
	}
}

func TestHandleURLDetailsError(t *testing.T) {
	src, _ := newTestSource(nil)

	if _, err := src.HandleURL(context.Background(), "https://yandanshe.com/1/"); !errors.Is(err, errNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestModifyImageRequest(t *testing.T) {
	src, _ := newTestSource(nil)

	req, err := http.NewRequest(http.MethodGet, "https://img.example/1.jpg", nil)
	if err != nil {
		t.Fatal(err)
	}

	src.ModifyImageRequest(req)
	if got := req.Header.Get("Referer"); got != Domain {
		t.Errorf("Referer = %q", got)
	}
}
