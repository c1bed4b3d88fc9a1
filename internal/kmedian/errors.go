package kmedian

import "errors"

var (
	// ErrInvalidConfiguration is returned when parameters, bounds or the
	// point set cannot support a run. Check with errors.Is.
	ErrInvalidConfiguration = errors.New("kmedian: invalid configuration")

	// ErrEmptyCluster is returned by a MedianFinder asked to search an
	// empty subset. The Driver never triggers it.
	ErrEmptyCluster = errors.New("kmedian: empty cluster")
)
