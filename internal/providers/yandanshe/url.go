package yandanshe

import (
	"fmt"

	"github.com/brogergvhs/yandanshe/internal/providers"
)

const Domain = "https://yandanshe.com"

// URL is one of the five addresses the site understands. The set is closed:
// only the types in this file implement it.
type URL interface {
	fmt.Stringer
	isURL()
}

type FiltersURL struct {
	Genre  Genre
	Status Status
	Page   int
	Query  FiltersQuery
}

type SearchURL struct {
	Page  int
	Query SearchQuery
}

type HomeURL struct {
	Page int
}

type MangaURL struct {
	ID string
}

type ChapterURL struct {
	MangaID   string
	ChapterID string
}

func (FiltersURL) isURL() {}
func (SearchURL) isURL()  {}
func (HomeURL) isURL()    {}
func (MangaURL) isURL()   {}
func (ChapterURL) isURL() {}

func (u FiltersURL) String() string {
	return fmt.Sprintf("%s/%s%s/page/%d/?%s", Domain, u.Genre, u.Status, u.Page, u.Query)
}

func (u SearchURL) String() string {
	return fmt.Sprintf("%s/page/%d/?%s", Domain, u.Page, u.Query)
}

func (u HomeURL) String() string {
	return fmt.Sprintf("%s/page/%d/", Domain, u.Page)
}

func (u MangaURL) String() string {
	return fmt.Sprintf("%s/%s/", Domain, u.ID)
}

func (u ChapterURL) String() string {
	return fmt.Sprintf("%s/%s/%s/", Domain, u.MangaID, u.ChapterID)
}

func Search(keyword string, page int) SearchURL {
	return SearchURL{Page: page, Query: SearchQuery{Keyword: keyword}}
}

func Home(page int) HomeURL {
	return HomeURL{Page: page}
}

func Manga(id string) MangaURL {
	return MangaURL{ID: id}
}

func Chapter(mangaID, chapterID string) ChapterURL {
	return ChapterURL{MangaID: mangaID, ChapterID: chapterID}
}

// FromFilters translates the host's filter list into an address. A title
// filter carrying a string wins over everything collected before or after it.
// Unknown kinds and select names are skipped.
func FromFilters(filters []providers.Filter, page int) URL {
	var (
		genre  = Yaoi
		status = Completed
		mode   = And
		sort   = LastUpdated
		tags   []string
	)

	for _, f := range filters {
		switch f.Kind {
		case providers.FilterSelect:
			i := indexOr(f.Value, -1)
			switch f.Name {
			case GenreFilter:
				genre = genreFromIndex(i)
			case StatusFilter:
				status = statusFromIndex(i)
			case ModeFilter:
				mode = modeFromIndex(i)
			}

		case providers.FilterSort:
			i, ok := sortIndex(f.Value)
			if !ok {
				i = -1
			}
			sort = sortFromIndex(i)

		case providers.FilterTitle:
			keyword, ok := f.Value.(string)
			if !ok {
				continue
			}

			return Search(keyword, page)

		case providers.FilterGenre:
			if indexOr(f.Value, -1) != 1 {
				continue
			}
			tags = append(tags, f.Name)
		}
	}

	return FiltersURL{
		Genre:  genre,
		Status: status,
		Page:   page,
		Query:  FiltersQuery{Tags: tags, Mode: mode, Sort: sort},
	}
}
