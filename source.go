package pdfregion

import (
	"sync"

	"github.com/pkg/errors"
)

// PageSource is the renderer collaborator extraction depends on. Page
// numbers are 1-based.
//
// Failures confined to one page should be reported as *PageRetrievalError so
// extraction can skip the page. Any other error aborts the whole run.
type PageSource interface {
	// PageCount returns the number of pages in the document.
	PageCount() (int, error)
	// PageHeight returns the viewport height of a page at the given scale.
	PageHeight(pageNumber int, scale float64) (float64, error)
	// TextRuns returns the positioned text runs of a page. Transforms are in
	// unscaled PDF user space.
	TextRuns(pageNumber int, scale float64) ([]TextRun, error)
}

// MemoryPage is one page served by a MemorySource.
type MemoryPage struct {
	Height float64 // unscaled page height
	Runs   []TextRun
	Err    error // returned for this page instead of its content
}

// MemorySource is a PageSource backed by in-memory pages. It is useful for
// tests and for callers that obtain text positions from another renderer.
type MemorySource struct {
	mu     sync.Mutex
	pages  []MemoryPage
	closed bool
	calls  int
}

// NewMemorySource creates a source serving the given pages, page 1 first.
func NewMemorySource(pages ...MemoryPage) *MemorySource {
	return &MemorySource{pages: pages}
}

// Calls returns the number of PageHeight and TextRuns calls served so far.
func (s *MemorySource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Close makes every later call fail with ErrSourceUnavailable.
func (s *MemorySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemorySource) PageCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSourceUnavailable
	}
	return len(s.pages), nil
}

func (s *MemorySource) PageHeight(pageNumber int, scale float64) (float64, error) {
	page, err := s.page(pageNumber)
	if err != nil {
		return 0, err
	}
	return page.Height * scale, nil
}

func (s *MemorySource) TextRuns(pageNumber int, scale float64) ([]TextRun, error) {
	page, err := s.page(pageNumber)
	if err != nil {
		return nil, err
	}
	runs := make([]TextRun, len(page.Runs))
	for i, run := range page.Runs {
		run.PageHeight = page.Height * scale
		runs[i] = run
	}
	return runs, nil
}

func (s *MemorySource) page(pageNumber int) (MemoryPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if s.closed {
		return MemoryPage{}, ErrSourceUnavailable
	}
	if pageNumber < 1 || pageNumber > len(s.pages) {
		return MemoryPage{}, &PageRetrievalError{
			Page: pageNumber,
			Err:  errors.Errorf("page out of range (document has %d pages)", len(s.pages)),
		}
	}

	page := s.pages[pageNumber-1]
	if page.Err != nil {
		if IsPageRetrievalError(page.Err) {
			return MemoryPage{}, page.Err
		}
		return MemoryPage{}, &PageRetrievalError{Page: pageNumber, Err: page.Err}
	}
	return page, nil
}

// RunAt builds a text run whose origin sits at (x, y) in PDF user space.
func RunAt(content string, x, y float64) TextRun {
	return TextRun{
		Content:   content,
		Transform: Matrix{1, 0, 0, 1, x, y},
	}
}
