package yandanshe

import (
	"context"
	"regexp"
	"strings"

	"github.com/brogergvhs/yandanshe/internal/providers"
)

const startMarker = "?start"

var reDeepLink = regexp.MustCompile(`^https://[^/]+/(\d+)/(\d+/|\?start)?$`)

// HandleURL resolves a shared site link. Links that are not manga or chapter
// pages resolve to an empty DeepLink.
func (s *Source) HandleURL(ctx context.Context, rawURL string) (*providers.DeepLink, error) {
	m := reDeepLink.FindStringSubmatch(rawURL)
	if m == nil {
		return &providers.DeepLink{}, nil
	}

	manga, err := s.GetMangaDetails(ctx, m[1])
	if err != nil {
		return nil, err
	}

	link := &providers.DeepLink{Manga: manga}

	switch m[2] {
	case "":
	case startMarker:
		link.Chapter = &providers.Chapter{ID: "1"}
	default:
		link.Chapter = &providers.Chapter{ID: strings.ReplaceAll(m[2], "/", "")}
	}

	return link, nil
}
