package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/sympol2d/internal/stacking"
)

// WriteMapHTML renders the polarisation map of res as an interactive
// echarts scatter page.
func WriteMapHTML(w io.Writer, res *stacking.ScanResult) error {
	if len(res.Labels) != res.GridSize*res.GridSize {
		return fmt.Errorf("scan result has %d labels for a %dx%d grid", len(res.Labels), res.GridSize, res.GridSize)
	}
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "sympol2d polarisation map", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s stackings", res.LayerGroup), Subtitle: fmt.Sprintf("N=%d pairs=%d tol=%.4f", res.GridSize, res.PairCount(), res.Tolerance)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: 1, Name: "τx", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "τy", NameLocation: "middle", NameGap: 35}),
	)

	symbol := int(math.Max(2, 600/float64(res.GridSize)))
	pts := labelPoints(res)
	for _, l := range mapLabels {
		xys := pts[l]
		if len(xys) == 0 {
			continue
		}
		data := make([]opts.ScatterData, 0, len(xys))
		for _, xy := range xys {
			data = append(data, opts.ScatterData{Value: []interface{}{xy.X, xy.Y}})
		}
		c := labelColours[l]
		scatter.AddSeries(string(l), data,
			charts.WithScatterChartOpts(opts.ScatterChart{Symbol: "rect", SymbolSize: symbol}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)}),
		)
	}
	return scatter.Render(w)
}
