package kmedian_test

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/station.planner/internal/kmedian"
	"github.com/banshee-data/station.planner/internal/testutil"
	"gonum.org/v1/gonum/spatial/r2"
)

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func defaultSearch() *kmedian.SteepestDescentSearch {
	return kmedian.NewSteepestDescentSearch(kmedian.DefaultParams())
}

func TestSteepestDescentSearch_SinglePoint(t *testing.T) {
	points := []kmedian.Point{{X: 3.25, Y: -4.5}}

	got, err := defaultSearch().Find(points, []int{0})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.X != 3.25 || got.Y != -4.5 {
		t.Errorf("Find = (%v, %v), want the point itself", got.X, got.Y)
	}
}

func TestSteepestDescentSearch_Square(t *testing.T) {
	points := testutil.Square(10)

	got, err := defaultSearch().Find(points, allIndices(len(points)))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if math.Abs(got.X-5) > kmedian.DefaultAnnealEpsilon || math.Abs(got.Y-5) > kmedian.DefaultAnnealEpsilon {
		t.Errorf("Find = (%f, %f), want approximately (5, 5)", got.X, got.Y)
	}
}

func TestSteepestDescentSearch_EmptySubset(t *testing.T) {
	_, err := defaultSearch().Find(testutil.Square(1), nil)
	if !errors.Is(err, kmedian.ErrEmptyCluster) {
		t.Errorf("Find(empty) error = %v, want ErrEmptyCluster", err)
	}
}

// Five points stacked on the origin outweigh one point at x=1000, so the
// median is the origin while the centroid sits at x≈166.7. A search that
// never moves off the centroid fails this test.
func TestSteepestDescentSearch_MovesTowardMedian(t *testing.T) {
	points := []kmedian.Point{
		{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0},
		{X: 1000, Y: 0},
	}
	subset := allIndices(len(points))

	centroid := kmedian.Centroid(points, subset)
	if math.Abs(centroid.X-1000.0/6) > 1e-9 {
		t.Fatalf("centroid.X = %f, want %f", centroid.X, 1000.0/6)
	}

	got, err := defaultSearch().Find(points, subset)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if math.Abs(got.X) > 2*kmedian.DefaultAnnealEpsilon {
		t.Errorf("Find.X = %f, want within %f of 0", got.X, 2*kmedian.DefaultAnnealEpsilon)
	}
	if got.Y != 0 {
		t.Errorf("Find.Y = %f, want 0", got.Y)
	}
	if kmedian.SumDistance(points, subset, got) >= kmedian.SumDistance(points, subset, centroid) {
		t.Error("search result should beat the centroid")
	}
}

func TestSteepestDescentSearch_Monotonic(t *testing.T) {
	points := append(testutil.Blob(0, 0, 50, 30, "a", 3), testutil.Blob(400, 250, 20, 5, "b", 4)...)
	subset := allIndices(len(points))

	search := defaultSearch()
	prev := math.Inf(1)
	passes := 0
	search.OnPass = func(pass int, pos r2.Vec, total float64) {
		if total > prev {
			t.Errorf("pass %d: total %f increased from %f", pass, total, prev)
		}
		if got := kmedian.SumDistance(points, subset, pos); math.Abs(got-total) > 1e-6 {
			t.Errorf("pass %d: reported total %f does not match position sum %f", pass, total, got)
		}
		prev = total
		passes++
	}

	if _, err := search.Find(points, subset); err != nil {
		t.Fatalf("Find: %v", err)
	}
	if passes == 0 {
		t.Error("expected at least one pass")
	}
}

func TestSteepestDescentSearch_Deterministic(t *testing.T) {
	points := testutil.Blob(-100, 75, 40, 60, "", 11)
	subset := allIndices(len(points))

	a, err := defaultSearch().Find(points, subset)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	b, err := defaultSearch().Find(points, subset)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if a != b {
		t.Errorf("repeated searches differ: %v vs %v", a, b)
	}
}

func TestSteepestDescentSearch_PassCap(t *testing.T) {
	search := &kmedian.SteepestDescentSearch{Step: 10000, Epsilon: 1, MaxPasses: 3}
	calls := 0
	search.OnPass = func(int, r2.Vec, float64) { calls++ }

	if _, err := search.Find(testutil.Square(10), allIndices(4)); err != nil {
		t.Fatalf("Find: %v", err)
	}
	if calls != 3 {
		t.Errorf("OnPass called %d times, want 3", calls)
	}
}

func TestSteepestDescentSearch_StepBelowEpsilon(t *testing.T) {
	// No passes run, the centroid comes straight back.
	search := &kmedian.SteepestDescentSearch{Step: 0.5, Epsilon: 1}
	points := []kmedian.Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 9, Y: 0}}

	got, err := search.Find(points, allIndices(3))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.X != 3 || got.Y != 0 {
		t.Errorf("Find = %v, want centroid (3, 0)", got)
	}
}

func TestCentroid_Weighted(t *testing.T) {
	points := []kmedian.Point{
		{X: 0, Y: 0, Weight: 3},
		{X: 4, Y: 8},
	}
	got := kmedian.Centroid(points, []int{0, 1})
	if math.Abs(got.X-1) > 1e-12 || math.Abs(got.Y-2) > 1e-12 {
		t.Errorf("Centroid = %v, want (1, 2)", got)
	}

	if c := kmedian.Centroid(points, nil); c != (r2.Vec{}) {
		t.Errorf("Centroid(empty) = %v, want zero", c)
	}
}

func TestSumDistance(t *testing.T) {
	points := []kmedian.Point{{X: 3, Y: 4}, {X: 0, Y: 0, Weight: 2}, {X: -3, Y: -4}}
	got := kmedian.SumDistance(points, []int{0, 1, 2}, r2.Vec{})
	if math.Abs(got-10) > 1e-12 {
		t.Errorf("SumDistance = %f, want 10", got)
	}
}
