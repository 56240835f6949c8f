package chapters

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/brogergvhs/yandanshe/internal/providers"
)

// Chapter is a source chapter bound to the title it belongs to, for naming
// download output.
type Chapter struct {
	providers.Chapter
	MangaID    string
	MangaTitle string
}

var reUnderscore = regexp.MustCompile(`_+`)

func sanitize(s string) string {
	s = strings.ToLower(s)

	repl := []string{
		"•", "_",
		"·", "_",
		"-", "_",
		"—", "_",
		"–", "_",
		"/", "_",
		"\\", "_",
		".", "_",
		" ", "_",
		"(", "",
		")", "",
	}
	for i := 0; i < len(repl); i += 2 {
		s = strings.ReplaceAll(s, repl[i], repl[i+1])
	}

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			clean = append(clean, r)
		}
	}
	s = string(clean)

	s = reUnderscore.ReplaceAllString(s, "_")

	return strings.Trim(s, "_")
}

func (c Chapter) Label() string {
	return fmt.Sprintf("%03d", int(c.Number))
}

func (c Chapter) baseName() string {
	lbl := "ch" + c.Label()

	title := sanitize(c.MangaTitle)
	if title != "" {
		return title + "_" + lbl
	}
	return lbl
}

// FolderName names the working folder the pages are written to.
func (c Chapter) FolderName() string {
	return c.baseName()
}

func (c Chapter) OutputCBZ() string {
	return c.baseName() + ".cbz"
}

func (c Chapter) OutputCBZPath(out string) string {
	return filepath.Join(out, c.OutputCBZ())
}

func Wrap(m *providers.Manga, all []providers.Chapter) []Chapter {
	out := make([]Chapter, len(all))
	for i, c := range all {
		out[i] = Chapter{Chapter: c, MangaID: m.ID, MangaTitle: m.Title}
	}

	return out
}
