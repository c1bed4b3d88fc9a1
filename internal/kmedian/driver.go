package kmedian

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/banshee-data/station.planner/internal/monitoring"
	"gonum.org/v1/gonum/spatial/r2"
)

// Rand is the random source used to seed centers. *rand.Rand satisfies it.
type Rand interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// EmptyClusterPolicy decides what happens to a center that attracted no
// points in an iteration.
type EmptyClusterPolicy int

const (
	// KeepCenter leaves the center where it was for the iteration.
	KeepCenter EmptyClusterPolicy = iota
	// ReseedCenter moves the center to a new random position in bounds.
	ReseedCenter
)

func (p EmptyClusterPolicy) String() string {
	switch p {
	case KeepCenter:
		return "keep"
	case ReseedCenter:
		return "reseed"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseEmptyClusterPolicy accepts "keep" or "reseed". The empty string
// means keep.
func ParseEmptyClusterPolicy(s string) (EmptyClusterPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep":
		return KeepCenter, nil
	case "reseed":
		return ReseedCenter, nil
	default:
		return KeepCenter, fmt.Errorf("%w: unknown empty cluster policy %q", ErrInvalidConfiguration, s)
	}
}

// DriverConfig configures a Driver.
type DriverConfig struct {
	Params Params
	Bounds Bounds

	// Rand seeds centers. When nil a source seeded with Seed is used.
	Rand Rand
	Seed int64

	// Finder overrides the median search. When nil a
	// SteepestDescentSearch built from Params is used and rebuilt on
	// SetParams.
	Finder MedianFinder

	EmptyCluster EmptyClusterPolicy
}

// Iteration records one partition/update pass.
type Iteration struct {
	Index         int     `json:"index"`
	TotalError    float64 `json:"total_error"`
	Delta         float64 `json:"delta"`
	EmptyClusters int     `json:"empty_clusters"`
	NewBest       bool    `json:"new_best"`
	State         State   `json:"state"`
}

// Outcome summarises a Run.
type Outcome struct {
	State      State   `json:"state"`
	Iterations int     `json:"iterations"`
	TotalError float64 `json:"total_error"`
	BestError  float64 `json:"best_error"`
}

// Snapshot is a copy of the Driver's observable state.
type Snapshot struct {
	State       State    `json:"state"`
	Params      Params   `json:"params"`
	Centers     []r2.Vec `json:"centers"`
	Clusters    [][]int  `json:"clusters"`
	LastError   float64  `json:"last_error"`
	BestError   float64  `json:"best_error"`
	BestCenters []r2.Vec `json:"best_centers"`
	Iterations  int      `json:"iterations"`
	Runs        int      `json:"runs"`
	// TotalIterations counts iterations across the whole session.
	TotalIterations int `json:"total_iterations"`
}

// Driver runs k-median clustering over a fixed point set. Best-so-far
// tracking spans every run since construction or the last ClearBest.
type Driver struct {
	points []Point
	bounds Bounds
	params Params
	rng    Rand

	finder       MedianFinder
	customFinder bool
	emptyPolicy  EmptyClusterPolicy

	state      State
	centers    []r2.Vec
	clusters   [][]int
	lastError  float64
	iterations int

	runs            int
	totalIterations int
	best            RunResult
}

// NewDriver validates the configuration and returns an Uninitialized
// Driver. The points slice is copied.
func NewDriver(points []Point, cfg DriverConfig) (*Driver, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points to cluster", ErrInvalidConfiguration)
	}
	for i, p := range points {
		if !finiteVec(p.Vec()) {
			return nil, fmt.Errorf("%w: point %d has non-finite position (%g, %g)", ErrInvalidConfiguration, i, p.X, p.Y)
		}
	}
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Params.Validate(len(points)); err != nil {
		return nil, err
	}
	if cfg.EmptyCluster != KeepCenter && cfg.EmptyCluster != ReseedCenter {
		return nil, fmt.Errorf("%w: unknown empty cluster policy %d", ErrInvalidConfiguration, int(cfg.EmptyCluster))
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}

	d := &Driver{
		points:      append([]Point(nil), points...),
		bounds:      cfg.Bounds,
		params:      cfg.Params,
		rng:         rng,
		emptyPolicy: cfg.EmptyCluster,
		state:       StateUninitialized,
		lastError:   math.Inf(1),
		best:        RunResult{TotalError: math.Inf(1)},
	}
	if cfg.Finder != nil {
		d.finder = cfg.Finder
		d.customFinder = true
	} else {
		d.finder = NewSteepestDescentSearch(cfg.Params)
	}
	return d, nil
}

// Points returns the point set. Callers must not modify it.
func (d *Driver) Points() []Point { return d.points }

// Bounds returns the seeding rectangle.
func (d *Driver) Bounds() Bounds { return d.bounds }

// State returns the current lifecycle state.
func (d *Driver) State() State { return d.state }

// GetParams returns the current parameters.
func (d *Driver) GetParams() Params { return d.params }

// SetParams validates and installs new parameters. Changing K returns
// the Driver to Uninitialized and clears the best-so-far record, since
// errors for different k are not comparable.
func (d *Driver) SetParams(params Params) error {
	if err := params.Validate(len(d.points)); err != nil {
		return err
	}
	if params.K != d.params.K {
		d.state = StateUninitialized
		d.centers = nil
		d.clusters = nil
		d.lastError = math.Inf(1)
		d.iterations = 0
		d.ClearBest()
	}
	d.params = params
	if !d.customFinder {
		d.finder = NewSteepestDescentSearch(params)
	}
	return nil
}

// ClearBest forgets the best-so-far record.
func (d *Driver) ClearBest() {
	d.best = RunResult{TotalError: math.Inf(1)}
}

// Reset seeds k centers uniformly inside the bounds, clears the
// clusters and the previous error, and moves to Ready.
func (d *Driver) Reset() {
	d.centers = make([]r2.Vec, d.params.K)
	for i := range d.centers {
		d.centers[i] = d.randomCenter()
	}
	d.clusters = make([][]int, d.params.K)
	d.lastError = math.Inf(1)
	d.iterations = 0
	d.runs++
	d.state = StateReady
}

func (d *Driver) randomCenter() r2.Vec {
	return r2.Vec{
		X: d.bounds.Left + d.rng.Float64()*d.bounds.Width(),
		Y: d.bounds.Top + d.rng.Float64()*d.bounds.Height(),
	}
}

// Step performs one iteration from the current centers: partition,
// per-cluster median search, error evaluation, best-so-far update and
// the convergence test. An Uninitialized Driver is Reset first.
func (d *Driver) Step() (Iteration, error) {
	if d.state == StateUninitialized {
		d.Reset()
	}
	d.state = StateIterating

	d.clusters = Partition(d.points, d.centers)

	empty := 0
	for j, set := range d.clusters {
		if len(set) == 0 {
			empty++
			d.handleEmptyCluster(j)
			continue
		}
		c, err := d.finder.Find(d.points, set)
		if err != nil {
			return Iteration{}, fmt.Errorf("median for cluster %d: %w", j, err)
		}
		if !finiteVec(c) {
			return Iteration{}, fmt.Errorf("median for cluster %d is not finite: (%g, %g)", j, c.X, c.Y)
		}
		d.centers[j] = c
	}

	total := TotalError(d.points, d.centers, d.clusters)
	d.iterations++
	d.totalIterations++

	it := Iteration{
		Index:         d.iterations,
		TotalError:    total,
		Delta:         math.Abs(total - d.lastError),
		EmptyClusters: empty,
	}

	if total < d.best.TotalError {
		d.best = RunResult{
			TotalError: total,
			Centers:    cloneCenters(d.centers),
			Clusters:   cloneClusters(d.clusters),
		}
		it.NewBest = true
	}

	switch {
	case it.Delta < d.params.Epsilon:
		d.state = StateConverged
	case d.iterations >= d.params.MaxIter:
		d.state = StateIterationLimitReached
	}
	d.lastError = total
	it.State = d.state
	return it, nil
}

func (d *Driver) handleEmptyCluster(j int) {
	switch d.emptyPolicy {
	case ReseedCenter:
		prev := d.centers[j]
		d.centers[j] = d.randomCenter()
		monitoring.Logf("[kmedian] cluster %d empty, reseeded center (%.1f, %.1f) -> (%.1f, %.1f)",
			j, prev.X, prev.Y, d.centers[j].X, d.centers[j].Y)
	default:
		monitoring.Logf("[kmedian] cluster %d empty, keeping center (%.1f, %.1f)", j, d.centers[j].X, d.centers[j].Y)
	}
}

// Run iterates from the current centers until the error delta drops
// below Epsilon or MaxIter iterations have run. Each call gets a fresh
// iteration budget. An Uninitialized Driver is Reset first.
func (d *Driver) Run() (Outcome, error) {
	if d.state == StateUninitialized {
		d.Reset()
	}
	d.iterations = 0
	d.state = StateIterating

	for !d.state.Terminal() {
		if _, err := d.Step(); err != nil {
			return Outcome{}, err
		}
	}

	return Outcome{
		State:      d.state,
		Iterations: d.iterations,
		TotalError: d.lastError,
		BestError:  d.best.TotalError,
	}, nil
}

// ResetAndRun re-seeds the centers and runs to a terminal state.
func (d *Driver) ResetAndRun() (Outcome, error) {
	d.Reset()
	return d.Run()
}

// Restarts performs n ResetAndRun cycles and returns the session best.
func (d *Driver) Restarts(n int) (RunResult, error) {
	for i := 0; i < n; i++ {
		out, err := d.ResetAndRun()
		if err != nil {
			return RunResult{}, fmt.Errorf("restart %d: %w", i, err)
		}
		monitoring.Logf("[kmedian] restart %d/%d: state=%s iterations=%d error=%.3f best=%.3f",
			i+1, n, out.State, out.Iterations, out.TotalError, out.BestError)
	}
	return d.Best(), nil
}

// Best returns a copy of the best-so-far result. TotalError is +Inf
// when no iteration has completed.
func (d *Driver) Best() RunResult {
	return d.best.clone()
}

// Centers returns a copy of the current centers.
func (d *Driver) Centers() []r2.Vec {
	return cloneCenters(d.centers)
}

// Snapshot returns a copy of the Driver's observable state.
func (d *Driver) Snapshot() Snapshot {
	return Snapshot{
		State:           d.state,
		Params:          d.params,
		Centers:         cloneCenters(d.centers),
		Clusters:        cloneClusters(d.clusters),
		LastError:       d.lastError,
		BestError:       d.best.TotalError,
		BestCenters:     cloneCenters(d.best.Centers),
		Iterations:      d.iterations,
		Runs:            d.runs,
		TotalIterations: d.totalIterations,
	}
}
