// Package render draws planner results: points coloured by their nearest
// station, the current stations and the best stations seen so far.
package render

import (
	"fmt"
	"image/color"

	"github.com/banshee-data/station.planner/internal/kmedian"
	"gonum.org/v1/gonum/spatial/r2"
)

// View is everything a renderer needs for one frame.
type View struct {
	Title    string
	Subtitle string

	Points      []kmedian.Point
	Centers     []r2.Vec
	BestCenters []r2.Vec
	Bounds      kmedian.Bounds
}

// NewView builds a View from a driver snapshot.
func NewView(points []kmedian.Point, bounds kmedian.Bounds, snap kmedian.Snapshot) View {
	return View{
		Title:       fmt.Sprintf("Station plan (k=%d)", snap.Params.K),
		Subtitle:    fmt.Sprintf("state=%s runs=%d last=%s best=%s", snap.State, snap.Runs, FormatError(snap.LastError), FormatError(snap.BestError)),
		Points:      points,
		Centers:     snap.Centers,
		BestCenters: snap.BestCenters,
		Bounds:      bounds,
	}
}

// FormatError prints an error total, or "n/a" before any iteration.
func FormatError(v float64) string {
	if v > 1e300 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v)
}

// groups splits point indices by nearest center. Without centers every
// point lands in a single group.
func (v View) groups() [][]int {
	if len(v.Centers) == 0 {
		all := make([]int, len(v.Points))
		for i := range all {
			all[i] = i
		}
		return [][]int{all}
	}
	return kmedian.Partition(v.Points, v.Centers)
}

// Palette returns n evenly spaced hues.
func Palette(n int) []color.RGBA {
	if n <= 0 {
		return nil
	}
	colors := make([]color.RGBA, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// Hex renders c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
