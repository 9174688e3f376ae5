package pdfregion

import (
	"math"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"
	"github.com/pkg/errors"
)

// ReferencePolicy selects which polygon drives cross-page extraction.
type ReferencePolicy string

const (
	// ReferenceFirst uses the first polygon in the set (default).
	ReferenceFirst ReferencePolicy = "first"
	// ReferenceExplicit uses the polygon named by Extractor.ReferenceID.
	ReferenceExplicit ReferencePolicy = "explicit"
)

// DefaultZoomLevels are the scales the zoom controls step through.
var DefaultZoomLevels = []float64{0.5, 0.75, 1.0, 1.2, 1.5, 2.0, 2.5, 3.0}

// Config controls polygon building and extraction behavior.
type Config struct {
	// DefaultScale is the initial viewport scale and the target of ResetZoom (default: 1.2)
	DefaultScale float64 `validate:"gt=0"`

	// ZoomLevels are the ascending scales used by ZoomIn and ZoomOut
	ZoomLevels []float64 `validate:"min=1,dive,gt=0"`

	// Reference chooses the reference polygon for ExtractByReference (default: first)
	Reference ReferencePolicy `validate:"oneof=first explicit"`

	// SkipEmptyRuns drops runs with no content before containment testing (default: true)
	SkipEmptyRuns bool

	// UseBoundsPrefilter rejects anchors outside the polygon's bounding box
	// before the even-odd walk (default: true)
	UseBoundsPrefilter bool

	// EnableMetricsLogging logs per-page timing after each extraction (default: false)
	EnableMetricsLogging bool

	// Logger receives warnings and debug output; nil means log.DefaultLogger
	Logger *log.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DefaultScale:       1.2,
		ZoomLevels:         append([]float64(nil), DefaultZoomLevels...),
		Reference:          ReferenceFirst,
		SkipEmptyRuns:      true,
		UseBoundsPrefilter: true,
	}
}

// Validate checks the configuration for out-of-range values.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if math.IsInf(c.DefaultScale, 0) {
		return errors.Wrap(ErrInvalidScale, "invalid config: default scale")
	}
	if !sort.Float64sAreSorted(c.ZoomLevels) {
		return errors.New("invalid config: zoom levels must be ascending")
	}
	return nil
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &log.DefaultLogger
}

// validScale reports whether s can be used as a viewport scale.
func validScale(s float64) bool {
	return s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s)
}
