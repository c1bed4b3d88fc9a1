package kmedian

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// Nearest returns the index of the center closest to v and its distance.
// Ties go to the lowest index. It returns (-1, +Inf) for no centers.
func Nearest(v r2.Vec, centers []r2.Vec) (int, float64) {
	idx := -1
	dist := math.Inf(1)
	for i, c := range centers {
		if d := Distance(v, c); d < dist || idx < 0 {
			dist = d
			idx = i
		}
	}
	return idx, dist
}

// Partition assigns every point to its nearest center and returns one
// group of point indices per center. Groups are built fresh on every
// call; a group is empty when no point is closest to its center.
func Partition(points []Point, centers []r2.Vec) [][]int {
	clusters := make([][]int, len(centers))
	if len(centers) == 0 {
		return clusters
	}
	for i, p := range points {
		j, _ := Nearest(p.Vec(), centers)
		clusters[j] = append(clusters[j], i)
	}
	return clusters
}

// TotalError returns the weighted sum over all clusters of each point's
// distance to its cluster's center.
func TotalError(points []Point, centers []r2.Vec, clusters [][]int) float64 {
	perCluster := make([]float64, len(clusters))
	for j, set := range clusters {
		perCluster[j] = SumDistance(points, set, centers[j])
	}
	return floats.Sum(perCluster)
}
