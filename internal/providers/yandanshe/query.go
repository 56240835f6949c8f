package yandanshe

import (
	"net/url"
	"strings"
)

type queryParam struct {
	key   string
	value string
}

// queryParams keeps insertion order, unlike url.Values.
type queryParams []queryParam

// pushEncoded appends a value that is already percent-encoded. Empty values
// are dropped.
func (q *queryParams) pushEncoded(key, value string) {
	if value == "" {
		return
	}

	*q = append(*q, queryParam{key: key, value: value})
}

func (q *queryParams) push(key, value string) {
	q.pushEncoded(key, encodeComponent(value))
}

func (q queryParams) String() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(p.value)
	}

	return b.String()
}

// encodeComponent percent-encodes s for use inside a single path or query
// component, spaces included.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

type FiltersQuery struct {
	Tags []string
	Mode Mode
	Sort Sort
}

func (fq FiltersQuery) String() string {
	var q queryParams

	if len(fq.Tags) > 0 {
		encoded := make([]string, len(fq.Tags))
		for i, tag := range fq.Tags {
			encoded[i] = encodeComponent(tag)
		}
		q.pushEncoded("tag", strings.Join(encoded, fq.Mode.String()))
	}

	if fq.Sort != LastUpdated {
		q.pushEncoded("sort", fq.Sort.String())
	}

	return q.String()
}

type SearchQuery struct {
	Keyword string
}

// String always carries s, even for an empty keyword. Without it the site
// serves the home page.
func (sq SearchQuery) String() string {
	q := queryParams{{key: "s", value: encodeComponent(sq.Keyword)}}

	return q.String()
}
