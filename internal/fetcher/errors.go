package fetcher

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSelectorNotFound is returned when a page lacks a node the extractor requires.
var ErrSelectorNotFound = errors.New("could not find selector")

// ExtractionError wraps an extractor failure with the page it came from.
type ExtractionError struct {
	Source string
	URL    string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: URL %s", e.Source, e.URL)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// causeChain renders err and everything it wraps, one cause per line.
func causeChain(err error) string {
	var causes []string
	for err != nil {
		msg := err.Error()
		next := errors.Unwrap(err)
		if next != nil {
			// fmt.Errorf("x: %w") repeats the inner message; keep only the prefix.
			msg = strings.TrimSuffix(msg, ": "+next.Error())
		}
		causes = append(causes, msg)
		err = next
	}
	return strings.Join(causes, "\n  ")
}
