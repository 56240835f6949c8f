package chapters

import (
	"strconv"
	"strings"
)

// Filter selects chapters by id, by an inclusive number range ("3-7") or by a
// number list ("1,3,5"). The first non-empty selector wins; none selects all.
func Filter(all []Chapter, chapter string, rng string, list string) []Chapter {
	if chapter != "" {
		return FilterChaptersByID(all, chapter)
	}
	if rng != "" {
		return FilterChapterRange(all, rng)
	}
	if list != "" {
		return FilterChapterList(all, list)
	}
	return all
}

func FilterChaptersByID(all []Chapter, id string) []Chapter {
	id = strings.TrimSpace(id)

	var out []Chapter
	for _, ch := range all {
		if ch.ID == id {
			out = append(out, ch)
		}
	}
	return out
}

func FilterChapterRange(all []Chapter, rng string) []Chapter {
	parts := strings.Split(rng, "-")
	if len(parts) != 2 {
		return nil
	}
	start, err1 := parseNumber(parts[0])
	end, err2 := parseNumber(parts[1])
	if err1 != nil || err2 != nil {
		return nil
	}
	if start <= 0 || end <= 0 || start > end {
		return nil
	}

	var out []Chapter
	for _, ch := range all {
		if ch.Number >= start && ch.Number <= end {
			out = append(out, ch)
		}
	}
	return out
}

func FilterChapterList(all []Chapter, list string) []Chapter {
	byNumber := make(map[float64]Chapter, len(all))
	for _, ch := range all {
		byNumber[ch.Number] = ch
	}

	out := []Chapter{}
	for _, n := range strings.Split(list, ",") {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		num, err := parseNumber(n)
		if err != nil {
			continue
		}
		if ch, ok := byNumber[num]; ok {
			out = append(out, ch)
		}
	}
	return out
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
