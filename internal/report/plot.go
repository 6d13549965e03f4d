package report

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/sympol2d/internal/stacking"
)

// mapLabels is the legend order of the polarisation map.
var mapLabels = append([]stacking.PolarLabel{stacking.NonPolar}, stacking.Directions...)

var labelColours = map[stacking.PolarLabel]color.RGBA{
	stacking.NonPolar:     {R: 200, G: 200, B: 200, A: 255},
	stacking.XPolar:       {R: 228, G: 26, B: 28, A: 255},
	stacking.YPolar:       {R: 55, G: 126, B: 184, A: 255},
	stacking.ZPolar:       {R: 77, G: 175, B: 74, A: 255},
	stacking.XYPolar:      {R: 152, G: 78, B: 163, A: 255},
	stacking.GeneralPolar: {R: 255, G: 127, B: 0, A: 255},
}

// labelPoints groups the grid taus of res by label.
func labelPoints(res *stacking.ScanResult) map[stacking.PolarLabel]plotter.XYs {
	n := res.GridSize
	pts := make(map[stacking.PolarLabel]plotter.XYs)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			l := res.LabelAt(i, j)
			pts[l] = append(pts[l], plotter.XY{X: float64(i) / float64(n), Y: float64(j) / float64(n)})
		}
	}
	return pts
}

// WriteMapPNG draws the polarisation map of res, one coloured square per
// grid point, as a size×size PNG.
func WriteMapPNG(w io.Writer, res *stacking.ScanResult, size vg.Length) error {
	if len(res.Labels) != res.GridSize*res.GridSize {
		return fmt.Errorf("scan result has %d labels for a %dx%d grid", len(res.Labels), res.GridSize, res.GridSize)
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s stacking polarisation (N=%d)", res.LayerGroup, res.GridSize)
	p.X.Label.Text = "τx (fractional)"
	p.Y.Label.Text = "τy (fractional)"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	radius := vg.Points(math.Max(1, 180/float64(res.GridSize)))
	pts := labelPoints(res)
	for _, l := range mapLabels {
		xys := pts[l]
		if len(xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("failed to create %s scatter: %w", l, err)
		}
		sc.GlyphStyle.Color = labelColours[l]
		sc.GlyphStyle.Radius = radius
		sc.GlyphStyle.Shape = draw.BoxGlyph{}
		p.Add(sc)
		p.Legend.Add(string(l), sc)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(size, size, "png")
	if err != nil {
		return fmt.Errorf("failed to render map: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
