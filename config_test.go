package pdfregion_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivanvanderbyl/pdfregion"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *pdfregion.Config)
		wantErr bool
	}{
		{"defaults", func(c *pdfregion.Config) {}, false},
		{"explicit reference", func(c *pdfregion.Config) { c.Reference = pdfregion.ReferenceExplicit }, false},
		{"zero default scale", func(c *pdfregion.Config) { c.DefaultScale = 0 }, true},
		{"negative default scale", func(c *pdfregion.Config) { c.DefaultScale = -1.2 }, true},
		{"infinite default scale", func(c *pdfregion.Config) { c.DefaultScale = math.Inf(1) }, true},
		{"no zoom levels", func(c *pdfregion.Config) { c.ZoomLevels = nil }, true},
		{"non-positive zoom level", func(c *pdfregion.Config) { c.ZoomLevels = []float64{0, 1} }, true},
		{"unsorted zoom levels", func(c *pdfregion.Config) { c.ZoomLevels = []float64{2, 1} }, true},
		{"unknown reference policy", func(c *pdfregion.Config) { c.Reference = "last" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := pdfregion.DefaultConfig()
			tt.mutate(&config)

			err := config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := pdfregion.DefaultConfig()

	assert.Equal(t, 1.2, config.DefaultScale)
	assert.Equal(t, pdfregion.DefaultZoomLevels, config.ZoomLevels)
	assert.Equal(t, pdfregion.ReferenceFirst, config.Reference)
	assert.True(t, config.SkipEmptyRuns)
	assert.True(t, config.UseBoundsPrefilter)
	assert.False(t, config.EnableMetricsLogging)

	// The default zoom ladder is shared; configs must not alias it.
	config.ZoomLevels[0] = 42
	assert.Equal(t, 0.5, pdfregion.DefaultZoomLevels[0])
}
