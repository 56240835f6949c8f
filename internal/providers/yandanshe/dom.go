package yandanshe

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// text returns the whitespace-normalized text of every node in sel, joined
// by single spaces.
func text(sel *goquery.Selection) string {
	parts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			parts = append(parts, t)
		}
	})

	return strings.Join(parts, " ")
}

// attr returns the named attribute of the first node in sel that has it.
func attr(sel *goquery.Selection, name string) string {
	var value string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(name)
		if ok {
			value = v
		}
		return !ok
	})

	return value
}
