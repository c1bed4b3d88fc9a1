package kmedian_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/station.planner/internal/kmedian"
	"github.com/banshee-data/station.planner/internal/testutil"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestPartition_CompleteAndCorrect(t *testing.T) {
	for trial := int64(0); trial < 25; trial++ {
		rng := rand.New(rand.NewSource(trial))
		n := 1 + rng.Intn(200)
		k := 1 + rng.Intn(12)

		points := testutil.Blob(0, 0, 1000, n, "", trial)
		centers := make([]r2.Vec, k)
		for i := range centers {
			centers[i] = r2.Vec{X: (rng.Float64()*2 - 1) * 1000, Y: (rng.Float64()*2 - 1) * 1000}
		}

		clusters := kmedian.Partition(points, centers)
		if len(clusters) != k {
			t.Fatalf("trial %d: got %d clusters, want %d", trial, len(clusters), k)
		}

		seen := make([]int, n)
		for j, set := range clusters {
			for _, idx := range set {
				seen[idx]++
				assigned := kmedian.Distance(points[idx].Vec(), centers[j])
				for other, c := range centers {
					if kmedian.Distance(points[idx].Vec(), c) < assigned {
						t.Errorf("trial %d: point %d assigned to %d but %d is strictly closer", trial, idx, j, other)
					}
				}
			}
		}
		for idx, count := range seen {
			if count != 1 {
				t.Errorf("trial %d: point %d appears in %d clusters", trial, idx, count)
			}
		}
	}
}

func TestPartition_TieGoesToLowestIndex(t *testing.T) {
	points := []kmedian.Point{{X: 0, Y: 0}}
	centers := []r2.Vec{{X: 1, Y: 0}, {X: -1, Y: 0}}

	clusters := kmedian.Partition(points, centers)
	if len(clusters[0]) != 1 || len(clusters[1]) != 0 {
		t.Errorf("clusters = %v, want point in cluster 0", clusters)
	}
}

func TestPartition_EmptyGroups(t *testing.T) {
	points := testutil.Square(10)
	centers := []r2.Vec{{X: 5, Y: 5}, {X: 1e6, Y: 1e6}}

	clusters := kmedian.Partition(points, centers)
	if len(clusters[0]) != 4 {
		t.Errorf("cluster 0 has %d points, want 4", len(clusters[0]))
	}
	if len(clusters[1]) != 0 {
		t.Errorf("cluster 1 has %d points, want 0", len(clusters[1]))
	}
}

func TestPartition_NoAccumulation(t *testing.T) {
	points := testutil.Square(10)
	centers := []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 10}}

	first := kmedian.Partition(points, centers)
	second := kmedian.Partition(points, centers)
	for j := range first {
		if len(first[j]) != len(second[j]) {
			t.Errorf("cluster %d size changed between calls: %d vs %d", j, len(first[j]), len(second[j]))
		}
	}
}

func TestPartition_NoCenters(t *testing.T) {
	if got := kmedian.Partition(testutil.Square(1), nil); len(got) != 0 {
		t.Errorf("Partition with no centers = %v, want empty", got)
	}
}

func TestNearest(t *testing.T) {
	centers := []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}

	idx, dist := kmedian.Nearest(r2.Vec{X: 9, Y: 1}, centers)
	if idx != 1 || math.Abs(dist-math.Sqrt2) > 1e-12 {
		t.Errorf("Nearest = (%d, %f), want (1, %f)", idx, dist, math.Sqrt2)
	}

	idx, dist = kmedian.Nearest(r2.Vec{}, nil)
	if idx != -1 || !math.IsInf(dist, 1) {
		t.Errorf("Nearest(no centers) = (%d, %f), want (-1, +Inf)", idx, dist)
	}
}

func TestTotalError(t *testing.T) {
	points := testutil.Square(10)
	centers := []r2.Vec{{X: 5, Y: 5}}
	clusters := kmedian.Partition(points, centers)

	got := kmedian.TotalError(points, centers, clusters)
	if want := 4 * math.Sqrt(50); math.Abs(got-want) > 1e-9 {
		t.Errorf("TotalError = %f, want %f", got, want)
	}
}
