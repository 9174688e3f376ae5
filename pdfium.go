package pdfregion

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/enums"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/pkg/errors"
)

// InitWorker starts the pdfium WebAssembly runtime and checks out one
// instance. It must run once, before any document is opened; close the
// returned pool on shutdown.
func InitWorker(timeout time.Duration) (pdfium.Pool, pdfium.Pdfium, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialise pdfium")
	}

	instance, err := pool.GetInstance(timeout)
	if err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "failed to get pdfium instance")
	}
	return pool, instance, nil
}

// PdfiumSource serves page geometry and text runs from a PDF document opened
// with pdfium. Each text page object becomes one TextRun.
type PdfiumSource struct {
	mu        sync.Mutex
	instance  pdfium.Pdfium
	document  references.FPDF_DOCUMENT
	pageCount int
	closed    bool
}

// OpenFile opens a PDF file.
func OpenFile(instance pdfium.Pdfium, filePath string) (*PdfiumSource, error) {
	return openDocument(instance, &requests.OpenDocument{
		FilePath: &filePath,
	})
}

// OpenBytes opens a PDF held in memory.
func OpenBytes(instance pdfium.Pdfium, pdfBytes []byte) (*PdfiumSource, error) {
	return openDocument(instance, &requests.OpenDocument{
		File: &pdfBytes,
	})
}

// OpenReader opens a PDF from an io.ReadSeeker.
func OpenReader(instance pdfium.Pdfium, reader io.ReadSeeker) (*PdfiumSource, error) {
	return openDocument(instance, &requests.OpenDocument{
		FileReader: reader,
	})
}

func openDocument(instance pdfium.Pdfium, req *requests.OpenDocument) (*PdfiumSource, error) {
	doc, err := instance.OpenDocument(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open PDF document")
	}

	pageCount, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
			Document: doc.Document,
		})
		return nil, errors.Wrap(err, "failed to get page count")
	}

	return &PdfiumSource{
		instance:  instance,
		document:  doc.Document,
		pageCount: pageCount.PageCount,
	}, nil
}

// Close releases the document. Later calls fail with ErrSourceUnavailable.
func (s *PdfiumSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_, err := s.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: s.document,
	})
	return errors.Wrap(err, "failed to close PDF document")
}

func (s *PdfiumSource) PageCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSourceUnavailable
	}
	return s.pageCount, nil
}

func (s *PdfiumSource) PageHeight(pageNumber int, scale float64) (float64, error) {
	var height float64
	err := s.withPage(pageNumber, func(page references.FPDF_PAGE) error {
		resp, err := s.instance.FPDF_GetPageHeightF(&requests.FPDF_GetPageHeightF{
			Page: requests.Page{
				ByReference: &page,
			},
		})
		if err != nil {
			return errors.Wrap(err, "failed to get page height")
		}
		height = float64(resp.PageHeight) * scale
		return nil
	})
	return height, err
}

func (s *PdfiumSource) TextRuns(pageNumber int, scale float64) ([]TextRun, error) {
	var runs []TextRun
	err := s.withPage(pageNumber, func(page references.FPDF_PAGE) error {
		heightResp, err := s.instance.FPDF_GetPageHeightF(&requests.FPDF_GetPageHeightF{
			Page: requests.Page{
				ByReference: &page,
			},
		})
		if err != nil {
			return errors.Wrap(err, "failed to get page height")
		}

		runs, err = extractTextRuns(s.instance, page, float64(heightResp.PageHeight)*scale)
		return err
	})
	return runs, err
}

// HasText reports whether any text run on the page has visible content.
func (s *PdfiumSource) HasText(pageNumber int) (bool, error) {
	runs, err := s.TextRuns(pageNumber, 1)
	if err != nil {
		return false, err
	}
	for _, run := range runs {
		if strings.TrimSpace(run.Content) != "" {
			return true, nil
		}
	}
	return false, nil
}

// withPage loads a page, runs fn and closes the page again. Failures are
// reported as *PageRetrievalError.
func (s *PdfiumSource) withPage(pageNumber int, fn func(page references.FPDF_PAGE) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSourceUnavailable
	}
	if pageNumber < 1 || pageNumber > s.pageCount {
		return &PageRetrievalError{
			Page: pageNumber,
			Err:  errors.Errorf("page out of range (document has %d pages)", s.pageCount),
		}
	}

	pageResp, err := s.instance.FPDF_LoadPage(&requests.FPDF_LoadPage{
		Document: s.document,
		Index:    pageNumber - 1,
	})
	if err != nil {
		return &PageRetrievalError{Page: pageNumber, Err: errors.Wrap(err, "failed to load page")}
	}
	defer s.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{
		Page: pageResp.Page,
	})

	if err := fn(pageResp.Page); err != nil {
		return &PageRetrievalError{Page: pageNumber, Err: err}
	}
	return nil
}

// extractTextRuns walks the page objects and turns every text object into a
// run positioned by its transform matrix.
func extractTextRuns(instance pdfium.Pdfium, page references.FPDF_PAGE, pageHeight float64) ([]TextRun, error) {
	textPage, err := instance.FPDFText_LoadPage(&requests.FPDFText_LoadPage{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load text page")
	}
	defer instance.FPDFText_ClosePage(&requests.FPDFText_ClosePage{
		TextPage: textPage.TextPage,
	})

	countResp, err := instance.FPDFPage_CountObjects(&requests.FPDFPage_CountObjects{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to count page objects")
	}

	runs := make([]TextRun, 0, countResp.Count)
	for i := 0; i < countResp.Count; i++ {
		objResp, err := instance.FPDFPage_GetObject(&requests.FPDFPage_GetObject{
			Page: requests.Page{
				ByReference: &page,
			},
			Index: i,
		})
		if err != nil {
			continue
		}

		typeResp, err := instance.FPDFPageObj_GetType(&requests.FPDFPageObj_GetType{
			PageObject: objResp.PageObject,
		})
		if err != nil || typeResp.Type != enums.FPDF_PAGEOBJ_TEXT {
			continue
		}

		textResp, err := instance.FPDFTextObj_GetText(&requests.FPDFTextObj_GetText{
			PageObject: objResp.PageObject,
			TextPage:   textPage.TextPage,
		})
		if err != nil {
			continue
		}

		matrixResp, err := instance.FPDFPageObj_GetMatrix(&requests.FPDFPageObj_GetMatrix{
			PageObject: objResp.PageObject,
		})
		if err != nil {
			continue
		}
		m := matrixResp.Matrix

		runs = append(runs, TextRun{
			Content: textResp.Text,
			Transform: Matrix{
				float64(m.A), float64(m.B),
				float64(m.C), float64(m.D),
				float64(m.E), float64(m.F),
			},
			PageHeight: pageHeight,
		})
	}

	return runs, nil
}
