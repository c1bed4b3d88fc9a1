// Package kmedian owns the station-placement optimisation core.
//
// Responsibilities: partitioning points to their nearest center,
// approximating each cluster's geometric median with a step-halving
// directional search, and driving the partition/update loop to
// convergence while tracking the best solution seen in a session.
// Key types: Point, Bounds, Params, Driver, SteepestDescentSearch.
//
// The package performs no I/O and holds no global state. A Driver is
// not safe for concurrent use; callers that share one across goroutines
// must serialise access themselves.
package kmedian
