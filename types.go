package pdfregion

import (
	"math"

	"github.com/golang/geo/r2"
)

// Point is a position in viewport coordinates: origin at the top-left of the
// rendered page, x to the right, y downward, in scaled units.
type Point = r2.Point

// Matrix is a PDF text transform [a b c d e f]. Elements 4 and 5 hold the
// translation of the run's origin in PDF user space (y up, unscaled).
type Matrix [6]float64

// IsFinite reports whether every element of the matrix is a finite number.
func (m Matrix) IsFinite() bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Polygon is a closed selection region drawn on a single page.
//
// The vertex list is implicitly closed: the last vertex connects back to the
// first. Scale and Generation record the viewport the vertices were drawn
// against; a polygon is only meaningful while both still match the Model
// that created it.
type Polygon struct {
	ID         string  `json:"id" yaml:"id"`
	PageNumber int     `json:"pageNumber" yaml:"page"`
	Points     []Point `json:"points" yaml:"points"`
	Scale      float64 `json:"scale" yaml:"scale"`
	Generation uint64  `json:"generation" yaml:"generation"`
}

// Bounds returns the axis-aligned bounding box of the polygon's vertices.
func (p Polygon) Bounds() r2.Rect {
	return r2.RectFromPoints(p.Points...)
}

// clone returns a copy whose vertex slice does not alias p's.
func (p Polygon) clone() Polygon {
	p.Points = append([]Point(nil), p.Points...)
	return p
}

// TextRun is a contiguous piece of text as positioned by the PDF renderer.
type TextRun struct {
	Content    string
	Transform  Matrix
	PageHeight float64 // viewport height at the scale the run was fetched for
}

// ExtractedResult is the text captured for one polygon on one page.
type ExtractedResult struct {
	PageNumber      int    `json:"pageNumber" yaml:"page"`
	Text            string `json:"text" yaml:"text"`
	SourcePolygonID string `json:"sourcePolygonId" yaml:"sourcePolygonId"`
}
