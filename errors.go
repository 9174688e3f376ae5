package pdfregion

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrSourceUnavailable means the page source cannot serve any page at
	// all, for example because the document was closed.
	ErrSourceUnavailable = errors.New("page source unavailable")

	// ErrMalformedRun is returned when a text run carries a non-finite
	// transform.
	ErrMalformedRun = errors.New("malformed text run")

	// ErrStaleScale is returned when a polygon was drawn at a different
	// scale than the one extraction runs at.
	ErrStaleScale = errors.New("polygon scale does not match extraction scale")

	// ErrInvalidPolygon is returned for polygons with fewer than three
	// vertices or a page number below 1.
	ErrInvalidPolygon = errors.New("invalid polygon")

	// ErrUnknownReference is returned when the configured reference polygon
	// id is not in the polygon set.
	ErrUnknownReference = errors.New("unknown reference polygon")

	// ErrInvalidScale is returned for scales that are not finite and positive.
	ErrInvalidScale = errors.New("invalid scale")
)

// PageRetrievalError reports that a single page could not be fetched.
// Extraction treats it as local to that page: the page is skipped and the
// run continues.
type PageRetrievalError struct {
	Page int
	Err  error
}

func (e *PageRetrievalError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageRetrievalError) Unwrap() error { return e.Err }

// Cause lets errors.Cause see through the page wrapper.
func (e *PageRetrievalError) Cause() error { return e.Err }

// IsPageRetrievalError reports whether err carries a PageRetrievalError.
func IsPageRetrievalError(err error) bool {
	var pre *PageRetrievalError
	return errors.As(err, &pre)
}
