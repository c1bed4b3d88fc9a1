// Package testutil provides shared test utilities and fixtures.
//
// This package centralises synthetic point sets and HTTP assertion
// helpers used by the planner's package tests.
package testutil

import (
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/station.planner/internal/kmedian"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// NewTestRequest creates a test HTTP request with no body.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// Square returns the four corners of an axis-aligned square with its
// top-left corner at the origin.
func Square(side float64) []kmedian.Point {
	return []kmedian.Point{
		{X: 0, Y: 0},
		{X: side, Y: 0},
		{X: 0, Y: side},
		{X: side, Y: side},
	}
}

// Blob returns n points spread uniformly in a square of half-width
// spread around (cx, cy), tagged with category. The same seed always
// yields the same points.
func Blob(cx, cy, spread float64, n int, category string, seed int64) []kmedian.Point {
	rng := rand.New(rand.NewSource(seed))
	points := make([]kmedian.Point, n)
	for i := range points {
		points[i] = kmedian.Point{
			X:        cx + (rng.Float64()*2-1)*spread,
			Y:        cy + (rng.Float64()*2-1)*spread,
			Category: category,
		}
	}
	return points
}

// Ring returns n points evenly spaced on a circle of radius r around
// (cx, cy).
func Ring(cx, cy, r float64, n int) []kmedian.Point {
	points := make([]kmedian.Point, n)
	for i := range points {
		theta := 2 * math.Pi * float64(i) / float64(n)
		points[i] = kmedian.Point{X: cx + r*math.Cos(theta), Y: cy + r*math.Sin(theta)}
	}
	return points
}

// TwoBlobs returns two tight clusters of n points each around (0,0) and
// (1000,1000), with bounds covering both and some margin.
func TwoBlobs(n int) ([]kmedian.Point, kmedian.Bounds) {
	points := append(Blob(0, 0, 10, n, "west", 1), Blob(1000, 1000, 10, n, "east", 2)...)
	bounds := kmedian.Bounds{Left: -200, Top: -200, Right: 1200, Bottom: 1200}
	return points, bounds
}
