package pdfregion_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ivanvanderbyl/pdfregion"
)

// TestDebug_TextRunAnchors prints every run of the first page with the
// viewport anchor it would be tested at. Useful when a region misses text
// that looks like it is inside it.
func TestDebug_TextRunAnchors(t *testing.T) {
	path := testPDFPath(t)
	instance := setupPDFium(t)

	source, err := pdfregion.OpenFile(instance, path)
	require.NoError(t, err)
	defer source.Close()

	const scale = 1.2
	height, err := source.PageHeight(1, scale)
	require.NoError(t, err)

	runs, err := source.TextRuns(1, scale)
	require.NoError(t, err)

	fmt.Printf("\n=== Page 1 runs at scale %.2f (height %.1f) ===\n", scale, height)
	for i, run := range runs {
		anchor := pdfregion.AnchorOf(run, scale, height)
		fmt.Printf("%3d: %-40q pdf=(%.1f, %.1f) viewport=(%.1f, %.1f)\n",
			i, run.Content, run.Transform[4], run.Transform[5], anchor.X, anchor.Y)
	}
}
