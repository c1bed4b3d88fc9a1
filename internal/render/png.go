package render

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Default PNG size.
const (
	DefaultPlotWidth  = 10 * vg.Inch
	DefaultPlotHeight = 10 * vg.Inch
)

var (
	stationColor = color.RGBA{G: 200, A: 255}
	bestColor    = color.RGBA{A: 255}
)

// Plot builds a gonum plot of the view. The y axis is inverted so the
// map reads top-down as it does in game.
func Plot(v View) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = v.Title
	if v.Subtitle != "" {
		p.Title.Text += "\n" + v.Subtitle
	}
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.X.Min, p.X.Max = v.Bounds.Left, v.Bounds.Right
	p.Y.Min, p.Y.Max = v.Bounds.Top, v.Bounds.Bottom
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	p.Add(plotter.NewGrid())

	groups := v.groups()
	colors := Palette(len(groups))
	for j, set := range groups {
		if len(set) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(set))
		for i, idx := range set {
			xys[i] = plotter.XY{X: v.Points[idx].X, Y: v.Points[idx].Y}
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("cluster %d: %w", j, err)
		}
		s.GlyphStyle.Color = colors[j]
		s.GlyphStyle.Radius = vg.Points(1.5)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
	}

	if err := addCenters(p, "best", v.BestCenters, bestColor, draw.RingGlyph{}, vg.Points(7)); err != nil {
		return nil, err
	}
	if err := addCenters(p, "stations", v.Centers, stationColor, draw.CircleGlyph{}, vg.Points(5)); err != nil {
		return nil, err
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func addCenters(p *plot.Plot, label string, centers []r2.Vec, c color.Color, shape draw.GlyphDrawer, radius vg.Length) error {
	if len(centers) == 0 {
		return nil
	}
	xys := make(plotter.XYs, len(centers))
	for i, v := range centers {
		xys[i] = plotter.XY{X: v.X, Y: v.Y}
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = radius
	s.GlyphStyle.Shape = shape
	p.Add(s)
	p.Legend.Add(label, s)
	return nil
}

// WritePNG renders the view as a PNG of the given size.
func WritePNG(w io.Writer, v View, width, height vg.Length) error {
	p, err := Plot(v)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
