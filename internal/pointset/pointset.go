// Package pointset loads flat point lists for the planner and derives the
// rectangles and category subsets the optimisation core consumes.
package pointset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"sort"

	"github.com/banshee-data/station.planner/internal/fsutil"
	"github.com/banshee-data/station.planner/internal/kmedian"
)

// maxFileSize bounds point files read from disk.
const maxFileSize = 64 * 1024 * 1024

// Set is a decoded point file. Bounds is nil when the file does not
// carry one.
type Set struct {
	Bounds *kmedian.Bounds `json:"bounds,omitempty"`
	Points []kmedian.Point `json:"points"`
}

// Load reads a point file from disk. The file is either an object with
// "points" (and optionally "bounds") or a bare JSON array of points.
func Load(path string) (*Set, error) {
	return LoadFS(fsutil.OSFileSystem{}, path)
}

// LoadFS reads a point file from fsys.
func LoadFS(fsys fsutil.FileSystem, path string) (*Set, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("point file must have .json extension, got %q", ext)
	}

	info, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat point file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("point file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read point file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a point document.
func Parse(data []byte) (*Set, error) {
	trimmed := bytes.TrimSpace(data)
	set := &Set{}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &set.Points); err != nil {
			return nil, fmt.Errorf("failed to parse point array: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, set); err != nil {
		return nil, fmt.Errorf("failed to parse point file: %w", err)
	}

	if len(set.Points) == 0 {
		return nil, fmt.Errorf("point file contains no points")
	}
	for i, p := range set.Points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, fmt.Errorf("point %d has non-finite position", i)
		}
	}
	if set.Bounds != nil {
		if err := set.Bounds.Validate(); err != nil {
			return nil, fmt.Errorf("point file bounds: %w", err)
		}
	}
	return set, nil
}

// FilterCategories returns the points whose category is in categories.
// An empty category list returns points unchanged.
func FilterCategories(points []kmedian.Point, categories []string) []kmedian.Point {
	if len(categories) == 0 {
		return points
	}
	want := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		want[c] = struct{}{}
	}
	out := make([]kmedian.Point, 0, len(points))
	for _, p := range points {
		if _, ok := want[p.Category]; ok {
			out = append(out, p)
		}
	}
	return out
}

// CategoryCount is the number of points carrying one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Categories counts points per category, sorted by category name.
func Categories(points []kmedian.Point) []CategoryCount {
	counts := make(map[string]int)
	for _, p := range points {
		counts[p.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// BoundsOf returns the bounding rectangle of points grown by pad (a
// fraction of each side's extent). Degenerate extents are widened by one
// map unit either side so the result always validates.
func BoundsOf(points []kmedian.Point, pad float64) (kmedian.Bounds, error) {
	if len(points) == 0 {
		return kmedian.Bounds{}, fmt.Errorf("%w: no points to bound", kmedian.ErrInvalidConfiguration)
	}
	b := kmedian.Bounds{
		Left:   math.Inf(1),
		Top:    math.Inf(1),
		Right:  math.Inf(-1),
		Bottom: math.Inf(-1),
	}
	for _, p := range points {
		b.Left = math.Min(b.Left, p.X)
		b.Right = math.Max(b.Right, p.X)
		b.Top = math.Min(b.Top, p.Y)
		b.Bottom = math.Max(b.Bottom, p.Y)
	}

	dx := (b.Right - b.Left) * pad
	dy := (b.Bottom - b.Top) * pad
	b.Left -= dx
	b.Right += dx
	b.Top -= dy
	b.Bottom += dy

	if b.Left == b.Right {
		b.Left--
		b.Right++
	}
	if b.Top == b.Bottom {
		b.Top--
		b.Bottom++
	}
	return b, nil
}
