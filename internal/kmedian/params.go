package kmedian

import (
	"fmt"
	"math"
)

// Default algorithm parameters.
const (
	DefaultK               = 10
	DefaultAnnealStep      = 10000.0
	DefaultAnnealEpsilon   = 1.0
	DefaultMaxIter         = 10
	DefaultEpsilon         = 10.0
	DefaultMaxSearchPasses = 1_000_000
)

// Params holds the clustering parameters for a Driver.
type Params struct {
	K int `json:"k"`

	// AnnealStep is the median search's starting step, in map units.
	AnnealStep float64 `json:"anneal_step"`
	// AnnealEpsilon stops the median search once the step falls to it.
	AnnealEpsilon float64 `json:"anneal_epsilon"`
	// MaxSearchPasses caps median search passes. Zero means the default.
	MaxSearchPasses int `json:"max_search_passes,omitempty"`

	// MaxIter caps partition/update iterations per run.
	MaxIter int `json:"k_median_max_iter"`
	// Epsilon is the total-error delta below which a run has converged.
	Epsilon float64 `json:"k_median_epsilon"`
}

// DefaultParams returns production-default parameters.
func DefaultParams() Params {
	return Params{
		K:               DefaultK,
		AnnealStep:      DefaultAnnealStep,
		AnnealEpsilon:   DefaultAnnealEpsilon,
		MaxSearchPasses: DefaultMaxSearchPasses,
		MaxIter:         DefaultMaxIter,
		Epsilon:         DefaultEpsilon,
	}
}

// Validate checks the parameters against a point set of numPoints.
func (p Params) Validate(numPoints int) error {
	if p.K < 1 {
		return fmt.Errorf("%w: k must be at least 1, got %d", ErrInvalidConfiguration, p.K)
	}
	if p.K > numPoints {
		return fmt.Errorf("%w: k=%d exceeds the %d available points", ErrInvalidConfiguration, p.K, numPoints)
	}
	if !positiveFinite(p.AnnealStep) {
		return fmt.Errorf("%w: anneal_step must be positive, got %g", ErrInvalidConfiguration, p.AnnealStep)
	}
	if !positiveFinite(p.AnnealEpsilon) {
		return fmt.Errorf("%w: anneal_epsilon must be positive, got %g", ErrInvalidConfiguration, p.AnnealEpsilon)
	}
	if p.MaxSearchPasses < 0 {
		return fmt.Errorf("%w: max_search_passes must be non-negative, got %d", ErrInvalidConfiguration, p.MaxSearchPasses)
	}
	if p.MaxIter < 1 {
		return fmt.Errorf("%w: k_median_max_iter must be at least 1, got %d", ErrInvalidConfiguration, p.MaxIter)
	}
	if !positiveFinite(p.Epsilon) {
		return fmt.Errorf("%w: k_median_epsilon must be positive, got %g", ErrInvalidConfiguration, p.Epsilon)
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
