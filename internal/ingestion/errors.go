package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrNoText is returned when every strategy ran but produced no text.
	ErrNoText = errors.New("no text found in document")
	// ErrUnsupported is returned for a Kind with no extraction strategy.
	ErrUnsupported = errors.New("unsupported document kind")
)

// ExtractionError reports that no strategy could decode a document. It is
// terminal for the request that produced it.
type ExtractionError struct {
	Name string
	Kind Kind
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("extract %s (%s) page %d: %v", e.Name, e.Kind, e.Page, e.Err)
	}
	return fmt.Sprintf("extract %s (%s): %v", e.Name, e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
