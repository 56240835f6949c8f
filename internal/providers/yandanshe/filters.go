package yandanshe

import "math"

// Select filter labels as the host presents them.
const (
	GenreFilter  = "類型"
	StatusFilter = "連載情形"
	ModeFilter   = "模式"
)

// Choices names the options of each select filter in index order.
var Choices = map[string][]string{
	GenreFilter:  {"yaoi", "yuri"},
	StatusFilter: {"completed", "ongoing"},
	ModeFilter:   {"and", "or"},
}

// SortChoices names the sort options in index order.
var SortChoices = []string{"likes", "updated"}

type Genre int

const (
	Yaoi Genre = iota
	Yuri
)

func (g Genre) String() string {
	if g == Yuri {
		return "bg"
	}

	return "bl"
}

func genreFromIndex(i int) Genre {
	switch i {
	case 0:
		return Yaoi
	case 1:
		return Yuri
	}

	return Yaoi
}

type Status int

const (
	Completed Status = iota
	Ongoing
)

func (s Status) String() string {
	if s == Ongoing {
		return "lz"
	}

	return "wj"
}

func statusFromIndex(i int) Status {
	switch i {
	case 0:
		return Completed
	case 1:
		return Ongoing
	}

	return Completed
}

// Mode decides how tags are combined; its string form is the tag separator.
type Mode int

const (
	And Mode = iota
	Or
)

func (m Mode) String() string {
	if m == Or {
		return ","
	}

	return "+"
}

func modeFromIndex(i int) Mode {
	switch i {
	case 0:
		return And
	case 1:
		return Or
	}

	return And
}

type Sort int

// The zero value is the site default. Host indices are mapped by
// sortFromIndex and do not follow the declaration order.
const (
	LastUpdated Sort = iota
	Likes
)

// String returns the value of the sort query parameter. LastUpdated is the
// site default and renders empty.
func (s Sort) String() string {
	if s == Likes {
		return "like"
	}

	return ""
}

func sortFromIndex(i int) Sort {
	switch i {
	case 0:
		return Likes
	case 1:
		return LastUpdated
	}

	return LastUpdated
}

// asInt decodes a generic filter value into an integer index.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	}

	return 0, false
}

// sortIndex reads the "index" field of a sort filter value.
func sortIndex(v any) (int, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return 0, false
	}

	return asInt(obj["index"])
}

func indexOr(v any, fallback int) int {
	if i, ok := asInt(v); ok {
		return i
	}

	return fallback
}
