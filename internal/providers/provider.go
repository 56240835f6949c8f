package providers

import (
	"context"
	"net/http"
	"time"
)

type ContentRating int

const (
	Safe ContentRating = iota
	Suggestive
	Nsfw
)

func (r ContentRating) String() string {
	switch r {
	case Safe:
		return "safe"
	case Suggestive:
		return "suggestive"
	case Nsfw:
		return "nsfw"
	}

	return "unknown"
}

type MangaStatus int

const (
	StatusUnknown MangaStatus = iota
	StatusOngoing
	StatusCompleted
	StatusCancelled
	StatusHiatus
)

func (s MangaStatus) String() string {
	switch s {
	case StatusOngoing:
		return "ongoing"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusHiatus:
		return "hiatus"
	}

	return "unknown"
}

type Viewer int

const (
	ViewerDefault Viewer = iota
	ViewerRTL
	ViewerLTR
	ViewerVertical
	ViewerScroll
)

func (v Viewer) String() string {
	switch v {
	case ViewerRTL:
		return "rtl"
	case ViewerLTR:
		return "ltr"
	case ViewerVertical:
		return "vertical"
	case ViewerScroll:
		return "scroll"
	}

	return "default"
}

type Manga struct {
	ID          string        `yaml:"id"`
	Cover       string        `yaml:"cover"`
	Title       string        `yaml:"title"`
	Author      string        `yaml:"author,omitempty"`
	Description string        `yaml:"description,omitempty"`
	URL         string        `yaml:"url"`
	Categories  []string      `yaml:"categories"`
	Status      MangaStatus   `yaml:"status"`
	Rating      ContentRating `yaml:"rating"`
	Viewer      Viewer        `yaml:"viewer"`
}

type MangaPageResult struct {
	Manga   []Manga `yaml:"manga"`
	HasMore bool    `yaml:"has_more"`
}

type Chapter struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title,omitempty"`
	Number      float64   `yaml:"number"`
	URL         string    `yaml:"url,omitempty"`
	Lang        string    `yaml:"lang,omitempty"`
	DateUpdated time.Time `yaml:"date_updated,omitempty"`
}

// Page carries either a remote URL or an inline base64 image.
type Page struct {
	Index  int32  `yaml:"index"`
	URL    string `yaml:"url,omitempty"`
	Base64 string `yaml:"base64,omitempty"`
}

type Listing struct {
	Name string
}

type DeepLink struct {
	Manga   *Manga   `yaml:"manga,omitempty"`
	Chapter *Chapter `yaml:"chapter,omitempty"`
}

type FilterKind int

const (
	FilterTitle FilterKind = iota
	FilterAuthor
	FilterSelect
	FilterSort
	FilterCheck
	FilterGroup
	FilterGenre
)

// Filter is the host's generic filter value. Value holds an int for select
// and toggle kinds, a string for text kinds and a map with an "index" key for sort.
type Filter struct {
	Kind  FilterKind
	Name  string
	Value any
}

type Source interface {
	Initialize()
	HandleNotification(name string)

	GetMangaList(ctx context.Context, filters []Filter, page int) (*MangaPageResult, error)
	GetMangaListing(ctx context.Context, listing Listing, page int) (*MangaPageResult, error)
	GetMangaDetails(ctx context.Context, id string) (*Manga, error)
	GetChapterList(ctx context.Context, mangaID string) ([]Chapter, error)
	GetPageList(ctx context.Context, mangaID, chapterID string) ([]Page, error)
	HandleURL(ctx context.Context, url string) (*DeepLink, error)
	ModifyImageRequest(req *http.Request)
}

func (r ContentRating) MarshalYAML() (any, error) { return r.String(), nil }

func (s MangaStatus) MarshalYAML() (any, error) { return s.String(), nil }

func (v Viewer) MarshalYAML() (any, error) { return v.String(), nil }
