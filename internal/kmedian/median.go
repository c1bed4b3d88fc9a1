package kmedian

import (
	"math"

	"github.com/banshee-data/station.planner/internal/monitoring"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// MedianFinder approximates the geometric median of the points named by
// subset: the position minimising the weighted sum of Euclidean
// distances to them.
type MedianFinder interface {
	Find(points []Point, subset []int) (r2.Vec, error)
}

// searchDirections is the fixed scan order: +x, -x, +y, -y.
var searchDirections = [4]r2.Vec{
	{X: 1, Y: 0},
	{X: -1, Y: 0},
	{X: 0, Y: 1},
	{X: 0, Y: -1},
}

// SteepestDescentSearch is a deterministic directional hill climb with a
// halving step. It starts at the weighted centroid and, each pass, moves
// to the first axis-aligned trial position that strictly lowers the
// distance sum. A pass without improvement halves the step; the search
// stops once the step is no larger than Epsilon.
//
// Only axis-aligned moves are tried, so on some inputs the result sits
// at a point where every axis move is worse even though a diagonal move
// would help. The error of the returned position is within a few
// Epsilon-sized steps of such a point, not of the true median.
type SteepestDescentSearch struct {
	Step      float64
	Epsilon   float64
	MaxPasses int

	// OnPass, when set, observes the adopted position and its distance
	// sum after every pass.
	OnPass func(pass int, pos r2.Vec, total float64)
}

// NewSteepestDescentSearch builds a search from driver parameters.
func NewSteepestDescentSearch(params Params) *SteepestDescentSearch {
	return &SteepestDescentSearch{
		Step:      params.AnnealStep,
		Epsilon:   params.AnnealEpsilon,
		MaxPasses: params.MaxSearchPasses,
	}
}

// Find runs the search over subset. It returns ErrEmptyCluster when
// subset is empty.
func (s *SteepestDescentSearch) Find(points []Point, subset []int) (r2.Vec, error) {
	if len(subset) == 0 {
		return r2.Vec{}, ErrEmptyCluster
	}

	maxPasses := s.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxSearchPasses
	}

	median := Centroid(points, subset)
	best := SumDistance(points, subset, median)
	step := s.Step

	pass := 0
	for ; step > s.Epsilon && pass < maxPasses; pass++ {
		improved := false
		for _, dir := range searchDirections {
			trial := r2.Add(median, r2.Scale(step, dir))
			if d := SumDistance(points, subset, trial); d < best {
				best = d
				median = trial
				improved = true
				break
			}
		}
		if !improved {
			step *= 0.5
		}
		if s.OnPass != nil {
			s.OnPass(pass, median, best)
		}
	}

	if pass >= maxPasses && step > s.Epsilon {
		monitoring.Logf("[kmedian] median search stopped at pass cap %d (step=%.3f, sum=%.3f)", maxPasses, step, best)
	}
	return median, nil
}

// Centroid returns the weighted arithmetic mean of the subset. It
// returns the zero vector for an empty subset.
func Centroid(points []Point, subset []int) r2.Vec {
	if len(subset) == 0 {
		return r2.Vec{}
	}
	xs := make([]float64, len(subset))
	ys := make([]float64, len(subset))
	ws := make([]float64, len(subset))
	for i, idx := range subset {
		p := points[idx]
		xs[i] = p.X
		ys[i] = p.Y
		ws[i] = p.EffectiveWeight()
	}
	return r2.Vec{X: stat.Mean(xs, ws), Y: stat.Mean(ys, ws)}
}

// SumDistance returns the weighted sum of distances from c to the subset.
func SumDistance(points []Point, subset []int, c r2.Vec) float64 {
	var sum float64
	for _, idx := range subset {
		p := points[idx]
		sum += p.EffectiveWeight() * r2.Norm(r2.Sub(p.Vec(), c))
	}
	return sum
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// finiteVec reports whether both coordinates are finite.
func finiteVec(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
