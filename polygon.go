package pdfregion

import (
	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/pkg/errors"
)

// minPolygonPoints is the smallest vertex count that encloses an area.
const minPolygonPoints = 3

// Model holds the session state of a region selection: the finalized
// polygons, the polygon currently being drawn, the viewport scale, and the
// results of the last extraction.
//
// A Model is not safe for concurrent use. Extraction operates on a copy of
// the polygon set, so callers may keep editing after Extract returns.
type Model struct {
	config     Config
	logger     *log.Logger
	scale      float64
	generation uint64

	building bool
	pending  []Point

	polygons []Polygon
	results  []ExtractedResult
}

// NewModel creates an empty model at the default scale.
func NewModel() *Model {
	m, _ := NewModelWithConfig(DefaultConfig())
	return m
}

// NewModelWithConfig creates an empty model with a custom configuration.
func NewModelWithConfig(config Config) (*Model, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Model{
		config: config,
		logger: config.logger(),
		scale:  config.DefaultScale,
	}, nil
}

// Scale returns the current viewport scale.
func (m *Model) Scale() float64 { return m.scale }

// Generation returns a counter bumped on every scale change. Polygons carry
// the generation they were drawn in.
func (m *Model) Generation() uint64 { return m.generation }

// Building reports whether a polygon is currently being drawn.
func (m *Model) Building() bool { return m.building }

// PendingPoints returns a copy of the vertices of the polygon being drawn.
func (m *Model) PendingPoints() []Point {
	return append([]Point(nil), m.pending...)
}

// StartBuild enters build mode with an empty vertex sequence. Calling it
// while already building discards the vertices collected so far.
func (m *Model) StartBuild() {
	m.building = true
	m.pending = nil
}

// AddPoint appends a vertex to the polygon being drawn. It reports false,
// and does nothing, when no build is active.
func (m *Model) AddPoint(p Point) bool {
	if !m.building {
		return false
	}
	m.pending = append(m.pending, p)
	return true
}

// FinalizeBuild closes the polygon being drawn and assigns it to the given
// page. Sequences with fewer than three vertices are discarded silently.
// Build mode always ends.
func (m *Model) FinalizeBuild(pageNumber int) (*Polygon, bool) {
	return m.FinalizeBuildAs(pageNumber, "")
}

// FinalizeBuildAs is FinalizeBuild with a caller-chosen polygon id. An empty
// id, or one already in use, is replaced with a generated one.
func (m *Model) FinalizeBuildAs(pageNumber int, id string) (*Polygon, bool) {
	if !m.building {
		return nil, false
	}
	points := m.pending
	m.building = false
	m.pending = nil

	if len(points) < minPolygonPoints {
		m.logger.Debug().Int("points", len(points)).Msg("discarding polygon with too few points")
		return nil, false
	}
	if pageNumber < 1 {
		m.logger.Warn().Int("page", pageNumber).Msg("discarding polygon with invalid page number")
		return nil, false
	}

	if id == "" {
		id = newPolygonID()
	} else if m.hasPolygon(id) {
		fresh := newPolygonID()
		m.logger.Warn().Str("id", id).Str("replacement", fresh).Msg("polygon id already in use")
		id = fresh
	}

	polygon := Polygon{
		ID:         id,
		PageNumber: pageNumber,
		Points:     points,
		Scale:      m.scale,
		Generation: m.generation,
	}
	m.polygons = append(m.polygons, polygon)

	m.logger.Debug().Str("id", id).Int("page", pageNumber).Int("points", len(points)).Msg("polygon finalized")

	out := polygon.clone()
	return &out, true
}

// Polygons returns a copy of the finalized polygons in creation order.
func (m *Model) Polygons() []Polygon {
	out := make([]Polygon, len(m.polygons))
	for i, p := range m.polygons {
		out[i] = p.clone()
	}
	return out
}

// PolygonsOnPage returns copies of the finalized polygons drawn on a page.
func (m *Model) PolygonsOnPage(pageNumber int) []Polygon {
	var out []Polygon
	for _, p := range m.polygons {
		if p.PageNumber == pageNumber {
			out = append(out, p.clone())
		}
	}
	return out
}

// Results returns the results of the last successful extraction.
func (m *Model) Results() []ExtractedResult {
	return append([]ExtractedResult(nil), m.results...)
}

// ClearAll removes every finalized polygon and every stored result. The
// build state is left untouched.
func (m *Model) ClearAll() {
	m.polygons = nil
	m.results = nil
}

// SetScale changes the viewport scale. When the scale actually changes,
// all finalized polygons and the in-progress vertex sequence are dropped,
// since their coordinates no longer line up with the rendered page.
// Build mode itself stays active.
func (m *Model) SetScale(scale float64) error {
	if !validScale(scale) {
		return errors.Wrapf(ErrInvalidScale, "scale %v", scale)
	}
	if scale == m.scale {
		return nil
	}

	m.logger.Debug().
		Float64("from", m.scale).
		Float64("to", scale).
		Int("polygons", len(m.polygons)).
		Msg("scale changed, invalidating polygons")

	m.scale = scale
	m.generation++
	m.polygons = nil
	m.pending = nil
	return nil
}

// ZoomIn moves to the next larger zoom level. At the largest level it is a
// no-op.
func (m *Model) ZoomIn() (float64, error) {
	for _, level := range m.config.ZoomLevels {
		if level > m.scale {
			return level, m.SetScale(level)
		}
	}
	return m.scale, nil
}

// ZoomOut moves to the next smaller zoom level. At the smallest level it is
// a no-op.
func (m *Model) ZoomOut() (float64, error) {
	levels := m.config.ZoomLevels
	for i := len(levels) - 1; i >= 0; i-- {
		if levels[i] < m.scale {
			return levels[i], m.SetScale(levels[i])
		}
	}
	return m.scale, nil
}

// ResetZoom returns to the configured default scale.
func (m *Model) ResetZoom() error {
	return m.SetScale(m.config.DefaultScale)
}

// Extract runs per-polygon extraction over the finalized set at the current
// scale and stores the results. On error the previous results are kept.
func (m *Model) Extract(ex *Extractor) ([]ExtractedResult, error) {
	results, err := ex.ExtractPerPolygon(m.Polygons(), m.scale)
	if err != nil {
		return nil, err
	}
	m.results = results
	return append([]ExtractedResult(nil), results...), nil
}

// ExtractAllPages applies the reference polygon to every page of the
// extractor's source and stores the results.
func (m *Model) ExtractAllPages(ex *Extractor) ([]ExtractedResult, error) {
	polygons := m.Polygons()
	if len(polygons) == 0 {
		m.results = []ExtractedResult{}
		return []ExtractedResult{}, nil
	}

	totalPages, err := ex.source.PageCount()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get page count")
	}

	results, err := ex.ExtractByReference(polygons, totalPages, m.scale)
	if err != nil {
		return nil, err
	}
	m.results = results
	return append([]ExtractedResult(nil), results...), nil
}

func (m *Model) hasPolygon(id string) bool {
	for _, p := range m.polygons {
		if p.ID == id {
			return true
		}
	}
	return false
}

func newPolygonID() string {
	return "polygon_" + uuid.NewString()
}
