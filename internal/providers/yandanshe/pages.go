package yandanshe

import (
	"fmt"
	"math"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/yandanshe/internal/providers"
)

// requiresSignIn is shown in place of the pages hidden behind the site login.
const requiresSignIn = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func parsePageList(doc *goquery.Document) ([]providers.Page, error) {
	images := doc.Find("img[data-src]")
	pages := make([]providers.Page, 0, images.Length()+1)

	var err error
	images.EachWithBreak(func(i int, img *goquery.Selection) bool {
		index, ierr := pageIndex(i)
		if ierr != nil {
			err = ierr
			return false
		}
		pages = append(pages, providers.Page{
			Index: index,
			URL:   attr(img, "data-src"),
		})
		return true
	})
	if err != nil {
		return nil, err
	}

	if doc.Find("div.article-login").Length() > 0 {
		index, err := pageIndex(len(pages))
		if err != nil {
			return nil, err
		}
		pages = append(pages, providers.Page{
			Index:  index,
			Base64: requiresSignIn,
		})
	}

	return pages, nil
}

func pageIndex(i int) (int32, error) {
	if i < 0 || int64(i) > math.MaxInt32 {
		return 0, fmt.Errorf("page %d: %w", i, ErrIndexOverflow)
	}

	return int32(i), nil
}
