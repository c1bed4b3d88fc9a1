package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r2"
)

// AssetsHost is where the rendered page loads the echarts scripts from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Scatter builds an interactive scatter chart of the view: one series per
// station's points, plus the current and best stations.
func Scatter(v View) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: v.Title, Width: "900px", Height: "900px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: v.Title, Subtitle: v.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "5%"}),
		charts.WithXAxisOpts(opts.XAxis{Min: v.Bounds.Left, Max: v.Bounds.Right, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: v.Bounds.Top, Max: v.Bounds.Bottom, Name: "Y", NameLocation: "middle", NameGap: 40}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "inside", XAxisIndex: 0},
			opts.DataZoom{Type: "inside", YAxisIndex: 0},
		),
	)

	groups := v.groups()
	colors := Palette(len(groups))
	for j, set := range groups {
		data := make([]opts.ScatterData, 0, len(set))
		for _, idx := range set {
			p := v.Points[idx]
			data = append(data, opts.ScatterData{Name: p.Category, Value: []interface{}{p.X, p.Y}})
		}
		scatter.AddSeries(fmt.Sprintf("station %d", j), data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: Hex(colors[j])}),
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
		)
	}

	if len(v.BestCenters) > 0 {
		scatter.AddSeries("best", centerData(v.BestCenters),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: Hex(bestColor)}),
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}),
		)
	}
	if len(v.Centers) > 0 {
		scatter.AddSeries("stations", centerData(v.Centers),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: Hex(stationColor)}),
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}),
		)
	}
	return scatter
}

func centerData(centers []r2.Vec) []opts.ScatterData {
	data := make([]opts.ScatterData, len(centers))
	for i, c := range centers {
		data[i] = opts.ScatterData{Name: fmt.Sprintf("station %d", i), Value: []interface{}{c.X, c.Y}}
	}
	return data
}

// WriteHTML renders the view as a standalone HTML page.
func WriteHTML(w io.Writer, v View) error {
	if err := Scatter(v).Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
