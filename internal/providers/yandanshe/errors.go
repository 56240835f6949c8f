package yandanshe

import (
	"errors"
	"fmt"
)

var (
	// ErrParse marks a document the adapter refuses to read, such as the
	// temporary block page.
	ErrParse = errors.New("parse error")

	ErrMalformedFragment = errors.New("malformed listing item")
	ErrIndexOverflow     = errors.New("index overflow")
)

type BlockedError struct {
	URL string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("temporarily blocked while fetching %s", e.URL)
}

func (e *BlockedError) Unwrap() error {
	return ErrParse
}

type UnimplementedListingError struct {
	Name string
}

func (e *UnimplementedListingError) Error() string {
	return "listing unimplemented: " + e.Name
}
