package kmedian

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a fixed candidate location. Category is opaque to the
// optimisation and only carried through for callers.
type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Category string  `json:"category,omitempty"`
	// Weight scales the point's contribution to every distance sum.
	// Zero or negative means 1.
	Weight float64 `json:"weight,omitempty"`
}

// Vec returns the point position.
func (p Point) Vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// EffectiveWeight returns the weight used in distance sums.
func (p Point) EffectiveWeight() float64 {
	if p.Weight <= 0 {
		return 1
	}
	return p.Weight
}

// Default map extents, in map units.
const (
	DefaultMapLeft   = -324600.0
	DefaultMapTop    = -375000.0
	DefaultMapRight  = 425300.0
	DefaultMapBottom = 375000.0
)

// Bounds is the rectangle centers are seeded in. Y grows downward, so
// Top < Bottom.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// DefaultBounds returns the full map rectangle.
func DefaultBounds() Bounds {
	return Bounds{
		Left:   DefaultMapLeft,
		Top:    DefaultMapTop,
		Right:  DefaultMapRight,
		Bottom: DefaultMapBottom,
	}
}

// Validate rejects empty or non-finite rectangles.
func (b Bounds) Validate() error {
	for _, v := range []float64{b.Left, b.Top, b.Right, b.Bottom} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bounds must be finite, got %+v", ErrInvalidConfiguration, b)
		}
	}
	if b.Left >= b.Right {
		return fmt.Errorf("%w: bounds left %g must be less than right %g", ErrInvalidConfiguration, b.Left, b.Right)
	}
	if b.Top >= b.Bottom {
		return fmt.Errorf("%w: bounds top %g must be less than bottom %g", ErrInvalidConfiguration, b.Top, b.Bottom)
	}
	if math.IsInf(b.Width(), 0) || math.IsInf(b.Height(), 0) {
		return fmt.Errorf("%w: bounds extent overflows, got %+v", ErrInvalidConfiguration, b)
	}
	return nil
}

// Contains reports whether v lies inside the closed rectangle.
func (b Bounds) Contains(v r2.Vec) bool {
	return v.X >= b.Left && v.X <= b.Right && v.Y >= b.Top && v.Y <= b.Bottom
}

// Width returns Right - Left.
func (b Bounds) Width() float64 { return b.Right - b.Left }

// Height returns Bottom - Top.
func (b Bounds) Height() float64 { return b.Bottom - b.Top }

// RunResult is one complete solution: every center plus the clusters
// that produced TotalError.
type RunResult struct {
	TotalError float64  `json:"total_error"`
	Centers    []r2.Vec `json:"centers"`
	Clusters   [][]int  `json:"clusters"`
}

func (r RunResult) clone() RunResult {
	return RunResult{
		TotalError: r.TotalError,
		Centers:    cloneCenters(r.Centers),
		Clusters:   cloneClusters(r.Clusters),
	}
}

func cloneCenters(src []r2.Vec) []r2.Vec {
	if src == nil {
		return nil
	}
	dst := make([]r2.Vec, len(src))
	copy(dst, src)
	return dst
}

func cloneClusters(src [][]int) [][]int {
	if src == nil {
		return nil
	}
	dst := make([][]int, len(src))
	for i, set := range src {
		dst[i] = append([]int(nil), set...)
	}
	return dst
}

// State is the Driver lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateIterating
	StateConverged
	StateIterationLimitReached
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateIterationLimitReached:
		return "iteration_limit_reached"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for v := StateUninitialized; v <= StateIterationLimitReached; v++ {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Terminal reports whether a run has stopped.
func (s State) Terminal() bool {
	return s == StateConverged || s == StateIterationLimitReached
}
