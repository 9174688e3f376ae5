package main

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ivanvanderbyl/pdfregion"
)

// regionScript is a recorded selection session: the scale the regions were
// drawn at and the clicks that drew them.
//
//	scale: 1.2
//	regions:
//	  - id: header
//	    page: 1
//	    points: [{x: 10, y: 10}, {x: 200, y: 10}, {x: 200, y: 60}]
type regionScript struct {
	Scale   float64        `yaml:"scale"`
	Regions []regionRecord `yaml:"regions"`
}

type regionRecord struct {
	ID     string        `yaml:"id"`
	Page   int           `yaml:"page"`
	Points []pointRecord `yaml:"points"`
}

type pointRecord struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// loadRegions replays a region script against model. Regions with fewer
// than three points are dropped the same way an interactive build drops
// them. It returns the number of polygons created.
func loadRegions(r io.Reader, model *pdfregion.Model) (int, error) {
	var script regionScript
	if err := yaml.NewDecoder(r).Decode(&script); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to decode region script")
	}

	if script.Scale != 0 {
		if err := model.SetScale(script.Scale); err != nil {
			return 0, err
		}
	}

	created := 0
	for _, region := range script.Regions {
		model.StartBuild()
		for _, p := range region.Points {
			model.AddPoint(pdfregion.Point{X: p.X, Y: p.Y})
		}
		if _, ok := model.FinalizeBuildAs(region.Page, region.ID); ok {
			created++
		}
	}
	return created, nil
}
