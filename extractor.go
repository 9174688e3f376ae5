package pdfregion

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/pkg/errors"
)

// ExtractionMetrics contains timing and statistics for one extraction run.
type ExtractionMetrics struct {
	TotalTime time.Duration
	Pages     []PageMetrics
}

// PageMetrics contains timing for a single polygon/page pass.
type PageMetrics struct {
	PageNumber  int
	PolygonID   string
	Duration    time.Duration
	RunsScanned int
	RunsMatched int
	Failed      bool
}

// Extractor collects the text that falls inside polygons, using a
// PageSource for page geometry and text runs.
type Extractor struct {
	source PageSource
	config Config
	logger *log.Logger

	// ReferenceID names the reference polygon when Config.Reference is
	// ReferenceExplicit.
	ReferenceID string

	metrics ExtractionMetrics
}

// NewExtractor creates an extractor with the default configuration.
func NewExtractor(source PageSource) *Extractor {
	config := DefaultConfig()
	return &Extractor{
		source: source,
		config: config,
		logger: config.logger(),
	}
}

// NewExtractorWithConfig creates an extractor with a custom configuration.
func NewExtractorWithConfig(source PageSource, config Config) (*Extractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{
		source: source,
		config: config,
		logger: config.logger(),
	}, nil
}

// LastMetrics returns the metrics of the most recent extraction run.
func (e *Extractor) LastMetrics() ExtractionMetrics {
	m := e.metrics
	m.Pages = append([]PageMetrics(nil), m.Pages...)
	return m
}

// ExtractPerPolygon collects, for every polygon, the text runs on that
// polygon's page whose anchor lies inside it. Results follow polygon order
// and polygons that match no run produce no result. A polygon whose matched
// runs are all blank still produces a result, with empty text.
//
// A page that cannot be retrieved is logged and skipped. Any other error
// aborts the run and no results are returned.
func (e *Extractor) ExtractPerPolygon(polygons []Polygon, scale float64) ([]ExtractedResult, error) {
	results := []ExtractedResult{}
	if len(polygons) == 0 {
		return results, nil
	}
	if err := checkPolygons(polygons, scale); err != nil {
		return nil, err
	}

	start := time.Now()
	var pages []PageMetrics

	for _, polygon := range polygons {
		text, pm, err := e.extractPage(polygon, polygon.PageNumber, scale)
		pages = append(pages, pm)
		if err != nil {
			return nil, err
		}
		if pm.RunsMatched == 0 {
			continue
		}
		results = append(results, ExtractedResult{
			PageNumber:      polygon.PageNumber,
			Text:            text,
			SourcePolygonID: polygon.ID,
		})
	}

	e.finishMetrics(start, pages)
	return results, nil
}

// ExtractByReference applies one reference polygon to every page from 1 to
// totalPages, as if it had been drawn on each. Result ids have the form
// "<referenceID>_page_<n>".
//
// By default the reference is the first polygon; see Config.Reference.
// Error handling matches ExtractPerPolygon.
func (e *Extractor) ExtractByReference(polygons []Polygon, totalPages int, scale float64) ([]ExtractedResult, error) {
	results := []ExtractedResult{}
	if len(polygons) == 0 {
		return results, nil
	}

	reference, err := e.reference(polygons)
	if err != nil {
		return nil, err
	}
	if err := checkPolygons([]Polygon{reference}, scale); err != nil {
		return nil, err
	}

	start := time.Now()
	var pages []PageMetrics

	for page := 1; page <= totalPages; page++ {
		text, pm, err := e.extractPage(reference, page, scale)
		pages = append(pages, pm)
		if err != nil {
			return nil, err
		}
		if pm.RunsMatched == 0 {
			continue
		}
		results = append(results, ExtractedResult{
			PageNumber:      page,
			Text:            text,
			SourcePolygonID: fmt.Sprintf("%s_page_%d", reference.ID, page),
		})
	}

	e.finishMetrics(start, pages)
	return results, nil
}

// PageHasText reports whether a page carries any non-blank text. A page
// that cannot be retrieved counts as having none.
func (e *Extractor) PageHasText(pageNumber int, scale float64) (bool, error) {
	runs, err := e.source.TextRuns(pageNumber, scale)
	if err != nil {
		if IsPageRetrievalError(err) {
			e.logger.Warn().Int("page", pageNumber).Err(err).Msg("page retrieval failed")
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to get text runs for page %d", pageNumber)
	}
	for _, run := range runs {
		if strings.TrimSpace(run.Content) != "" {
			return true, nil
		}
	}
	return false, nil
}

// extractPage matches one polygon against the runs of one page. Page
// retrieval failures are absorbed and yield empty text.
func (e *Extractor) extractPage(polygon Polygon, pageNumber int, scale float64) (string, PageMetrics, error) {
	pageStart := time.Now()
	pm := PageMetrics{PageNumber: pageNumber, PolygonID: polygon.ID}

	matched, scanned, err := e.matchRuns(polygon.Points, pageNumber, scale)
	pm.Duration = time.Since(pageStart)
	pm.RunsScanned = scanned
	pm.RunsMatched = len(matched)

	if err != nil {
		if !IsPageRetrievalError(err) {
			return "", pm, err
		}
		pm.Failed = true
		e.logger.Warn().
			Int("page", pageNumber).
			Str("polygon", polygon.ID).
			Err(err).
			Msg("page retrieval failed, skipping page")
		return "", pm, nil
	}

	if e.config.EnableMetricsLogging {
		e.logger.Info().
			Int("page", pageNumber).
			Str("polygon", polygon.ID).
			Int("matched", pm.RunsMatched).
			Dur("duration", pm.Duration).
			Msg("page extracted")
	}

	return strings.TrimSpace(strings.Join(matched, " ")), pm, nil
}

// matchRuns returns the contents of the runs on a page whose anchors fall
// inside points, in source order, and the number of runs examined.
func (e *Extractor) matchRuns(points []Point, pageNumber int, scale float64) ([]string, int, error) {
	runs, err := e.source.TextRuns(pageNumber, scale)
	if err != nil {
		return nil, 0, e.wrapSourceError(err, "failed to get text runs", pageNumber)
	}

	matcher := newRegionMatcher(points, e.config.UseBoundsPrefilter)

	// Runs normally carry the page height they were fetched at. The page
	// is only asked for its height when a run leaves it unset.
	var pageHeight float64
	var haveHeight bool

	var matched []string
	for i, run := range runs {
		if e.config.SkipEmptyRuns && run.Content == "" {
			continue
		}
		if !run.Transform.IsFinite() || math.IsNaN(run.PageHeight) || math.IsInf(run.PageHeight, 0) {
			return nil, len(runs), errors.Wrapf(ErrMalformedRun, "page %d run %d", pageNumber, i)
		}

		height := run.PageHeight
		if height == 0 {
			if !haveHeight {
				pageHeight, err = e.source.PageHeight(pageNumber, scale)
				if err != nil {
					return nil, len(runs), e.wrapSourceError(err, "failed to get page height", pageNumber)
				}
				haveHeight = true
			}
			height = pageHeight
		}

		if matcher.match(AnchorOf(run, scale, height)) {
			matched = append(matched, run.Content)
		}
	}
	return matched, len(runs), nil
}

// wrapSourceError keeps page retrieval errors intact so they can be
// absorbed, and adds context to everything else.
func (e *Extractor) wrapSourceError(err error, msg string, pageNumber int) error {
	if IsPageRetrievalError(err) {
		return err
	}
	return errors.Wrapf(err, "%s for page %d", msg, pageNumber)
}

func (e *Extractor) reference(polygons []Polygon) (Polygon, error) {
	if e.config.Reference != ReferenceExplicit {
		return polygons[0], nil
	}
	for _, p := range polygons {
		if p.ID == e.ReferenceID {
			return p, nil
		}
	}
	return Polygon{}, errors.Wrapf(ErrUnknownReference, "id %q", e.ReferenceID)
}

func (e *Extractor) finishMetrics(start time.Time, pages []PageMetrics) {
	e.metrics = ExtractionMetrics{
		TotalTime: time.Since(start),
		Pages:     pages,
	}
	if e.config.EnableMetricsLogging {
		logExtractionMetrics(e.logger, e.metrics)
	}
}

// checkPolygons rejects polygons that cannot be extracted at scale. A zero
// Scale marks a polygon built outside a Model and is accepted as is.
func checkPolygons(polygons []Polygon, scale float64) error {
	if !validScale(scale) {
		return errors.Wrapf(ErrInvalidScale, "scale %v", scale)
	}
	for _, p := range polygons {
		if len(p.Points) < minPolygonPoints || p.PageNumber < 1 {
			return errors.Wrapf(ErrInvalidPolygon, "polygon %s (page %d, %d points)", p.ID, p.PageNumber, len(p.Points))
		}
		if p.Scale != 0 && p.Scale != scale {
			return errors.Wrapf(ErrStaleScale, "polygon %s drawn at %v, extracting at %v", p.ID, p.Scale, scale)
		}
	}
	return nil
}

// logExtractionMetrics logs the extraction metrics in a readable format.
func logExtractionMetrics(logger *log.Logger, metrics ExtractionMetrics) {
	var failed, matched int
	for _, pm := range metrics.Pages {
		matched += pm.RunsMatched
		if pm.Failed {
			failed++
		}
	}

	var avg time.Duration
	if len(metrics.Pages) > 0 {
		avg = metrics.TotalTime / time.Duration(len(metrics.Pages))
	}

	logger.Info().
		Dur("total", metrics.TotalTime.Round(time.Millisecond)).
		Dur("avg_per_page", avg.Round(time.Millisecond)).
		Int("pages", len(metrics.Pages)).
		Int("failed_pages", failed).
		Int("runs_matched", matched).
		Msg("extraction finished")
}
