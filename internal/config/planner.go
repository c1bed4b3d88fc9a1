package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/station.planner/internal/kmedian"
)

// DefaultConfigPath is the path to the canonical planner defaults file.
const DefaultConfigPath = "config/planner.defaults.json"

// maxConfigSize bounds config files read from disk.
const maxConfigSize = 1 * 1024 * 1024

// BoundsConfig is the JSON form of the seeding rectangle.
type BoundsConfig struct {
	Left   *float64 `json:"left,omitempty"`
	Top    *float64 `json:"top,omitempty"`
	Right  *float64 `json:"right,omitempty"`
	Bottom *float64 `json:"bottom,omitempty"`
}

// PlannerConfig is the root planner configuration. The schema matches
// the /api/params endpoint so one JSON document serves both startup and
// runtime updates. Nil fields fall back to defaults in the Get* methods.
type PlannerConfig struct {
	// Clustering params
	K              *int     `json:"k,omitempty"`
	KMedianMaxIter *int     `json:"k_median_max_iter,omitempty"`
	KMedianEpsilon *float64 `json:"k_median_epsilon,omitempty"`

	// Median search params
	AnnealStep      *float64 `json:"anneal_step,omitempty"`
	AnnealEpsilon   *float64 `json:"anneal_epsilon,omitempty"`
	MaxSearchPasses *int     `json:"max_search_passes,omitempty"`

	// Session params
	Seed         *int64  `json:"seed,omitempty"`
	Restarts     *int    `json:"restarts,omitempty"`
	EmptyCluster *string `json:"empty_cluster,omitempty"` // "keep" or "reseed"

	Bounds *BoundsConfig `json:"bounds,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }
func ptrString(v string) *string    { return &v }

// EmptyPlannerConfig returns a PlannerConfig with all fields nil.
func EmptyPlannerConfig() *PlannerConfig {
	return &PlannerConfig{}
}

// DefaultPlannerConfig returns a PlannerConfig with every field set to
// its default value.
func DefaultPlannerConfig() *PlannerConfig {
	b := kmedian.DefaultBounds()
	return &PlannerConfig{
		K:               ptrInt(kmedian.DefaultK),
		KMedianMaxIter:  ptrInt(kmedian.DefaultMaxIter),
		KMedianEpsilon:  ptrFloat64(kmedian.DefaultEpsilon),
		AnnealStep:      ptrFloat64(kmedian.DefaultAnnealStep),
		AnnealEpsilon:   ptrFloat64(kmedian.DefaultAnnealEpsilon),
		MaxSearchPasses: ptrInt(kmedian.DefaultMaxSearchPasses),
		Seed:            ptrInt64(1),
		Restarts:        ptrInt(1),
		EmptyCluster:    ptrString(kmedian.KeepCenter.String()),
		Bounds: &BoundsConfig{
			Left:   ptrFloat64(b.Left),
			Top:    ptrFloat64(b.Top),
			Right:  ptrFloat64(b.Right),
			Bottom: ptrFloat64(b.Bottom),
		},
	}
}

// LoadPlannerConfig loads a PlannerConfig from a JSON file. The file must
// have a .json extension and be under 1MB. Omitted fields keep their
// defaults, so partial configs are safe.
func LoadPlannerConfig(path string) (*PlannerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParsePlannerConfig(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParsePlannerConfig decodes and validates a JSON document.
func ParsePlannerConfig(data []byte) (*PlannerConfig, error) {
	cfg := EmptyPlannerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *PlannerConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadPlannerConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the fields that are set. Point-count dependent checks
// (k against the number of points) happen when a Driver is built.
func (c *PlannerConfig) Validate() error {
	if c.K != nil && *c.K < 1 {
		return fmt.Errorf("k must be at least 1, got %d", *c.K)
	}
	if c.KMedianMaxIter != nil && *c.KMedianMaxIter < 1 {
		return fmt.Errorf("k_median_max_iter must be at least 1, got %d", *c.KMedianMaxIter)
	}
	if c.KMedianEpsilon != nil && !(*c.KMedianEpsilon > 0) {
		return fmt.Errorf("k_median_epsilon must be positive, got %f", *c.KMedianEpsilon)
	}
	if c.AnnealStep != nil && !(*c.AnnealStep > 0) {
		return fmt.Errorf("anneal_step must be positive, got %f", *c.AnnealStep)
	}
	if c.AnnealEpsilon != nil && !(*c.AnnealEpsilon > 0) {
		return fmt.Errorf("anneal_epsilon must be positive, got %f", *c.AnnealEpsilon)
	}
	if c.MaxSearchPasses != nil && *c.MaxSearchPasses < 0 {
		return fmt.Errorf("max_search_passes must be non-negative, got %d", *c.MaxSearchPasses)
	}
	if c.Restarts != nil && *c.Restarts < 1 {
		return fmt.Errorf("restarts must be at least 1, got %d", *c.Restarts)
	}
	if c.EmptyCluster != nil {
		if _, err := kmedian.ParseEmptyClusterPolicy(*c.EmptyCluster); err != nil {
			return fmt.Errorf("empty_cluster: %w", err)
		}
	}
	if c.Bounds != nil {
		if err := c.GetBounds().Validate(); err != nil {
			return fmt.Errorf("bounds: %w", err)
		}
	}
	return nil
}

// Merge overlays the non-nil fields of other onto c.
func (c *PlannerConfig) Merge(other *PlannerConfig) {
	if other == nil {
		return
	}
	if other.K != nil {
		c.K = other.K
	}
	if other.KMedianMaxIter != nil {
		c.KMedianMaxIter = other.KMedianMaxIter
	}
	if other.KMedianEpsilon != nil {
		c.KMedianEpsilon = other.KMedianEpsilon
	}
	if other.AnnealStep != nil {
		c.AnnealStep = other.AnnealStep
	}
	if other.AnnealEpsilon != nil {
		c.AnnealEpsilon = other.AnnealEpsilon
	}
	if other.MaxSearchPasses != nil {
		c.MaxSearchPasses = other.MaxSearchPasses
	}
	if other.Seed != nil {
		c.Seed = other.Seed
	}
	if other.Restarts != nil {
		c.Restarts = other.Restarts
	}
	if other.EmptyCluster != nil {
		c.EmptyCluster = other.EmptyCluster
	}
	if other.Bounds != nil {
		if c.Bounds == nil {
			c.Bounds = &BoundsConfig{}
		}
		if other.Bounds.Left != nil {
			c.Bounds.Left = other.Bounds.Left
		}
		if other.Bounds.Top != nil {
			c.Bounds.Top = other.Bounds.Top
		}
		if other.Bounds.Right != nil {
			c.Bounds.Right = other.Bounds.Right
		}
		if other.Bounds.Bottom != nil {
			c.Bounds.Bottom = other.Bounds.Bottom
		}
	}
}

// GetK returns the k value or the default.
func (c *PlannerConfig) GetK() int {
	if c.K == nil {
		return kmedian.DefaultK
	}
	return *c.K
}

// GetKMedianMaxIter returns the k_median_max_iter value or the default.
func (c *PlannerConfig) GetKMedianMaxIter() int {
	if c.KMedianMaxIter == nil {
		return kmedian.DefaultMaxIter
	}
	return *c.KMedianMaxIter
}

// GetKMedianEpsilon returns the k_median_epsilon value or the default.
func (c *PlannerConfig) GetKMedianEpsilon() float64 {
	if c.KMedianEpsilon == nil {
		return kmedian.DefaultEpsilon
	}
	return *c.KMedianEpsilon
}

// GetAnnealStep returns the anneal_step value or the default.
func (c *PlannerConfig) GetAnnealStep() float64 {
	if c.AnnealStep == nil {
		return kmedian.DefaultAnnealStep
	}
	return *c.AnnealStep
}

// GetAnnealEpsilon returns the anneal_epsilon value or the default.
func (c *PlannerConfig) GetAnnealEpsilon() float64 {
	if c.AnnealEpsilon == nil {
		return kmedian.DefaultAnnealEpsilon
	}
	return *c.AnnealEpsilon
}

// GetMaxSearchPasses returns the max_search_passes value or the default.
func (c *PlannerConfig) GetMaxSearchPasses() int {
	if c.MaxSearchPasses == nil {
		return kmedian.DefaultMaxSearchPasses
	}
	return *c.MaxSearchPasses
}

// GetSeed returns the seed value or the default.
func (c *PlannerConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}

// GetRestarts returns the restarts value or the default.
func (c *PlannerConfig) GetRestarts() int {
	if c.Restarts == nil {
		return 1
	}
	return *c.Restarts
}

// GetEmptyCluster returns the parsed empty_cluster policy or the default.
func (c *PlannerConfig) GetEmptyCluster() kmedian.EmptyClusterPolicy {
	if c.EmptyCluster == nil {
		return kmedian.KeepCenter
	}
	p, err := kmedian.ParseEmptyClusterPolicy(*c.EmptyCluster)
	if err != nil {
		return kmedian.KeepCenter // default on parse error
	}
	return p
}

// GetBounds returns the configured rectangle, filling unset edges from
// the default map bounds.
func (c *PlannerConfig) GetBounds() kmedian.Bounds {
	b := kmedian.DefaultBounds()
	if c.Bounds == nil {
		return b
	}
	if c.Bounds.Left != nil {
		b.Left = *c.Bounds.Left
	}
	if c.Bounds.Top != nil {
		b.Top = *c.Bounds.Top
	}
	if c.Bounds.Right != nil {
		b.Right = *c.Bounds.Right
	}
	if c.Bounds.Bottom != nil {
		b.Bottom = *c.Bounds.Bottom
	}
	return b
}

// HasBounds reports whether any bounds edge was configured.
func (c *PlannerConfig) HasBounds() bool {
	return c.Bounds != nil &&
		(c.Bounds.Left != nil || c.Bounds.Top != nil || c.Bounds.Right != nil || c.Bounds.Bottom != nil)
}

// Params converts the configuration to driver parameters.
func (c *PlannerConfig) Params() kmedian.Params {
	return kmedian.Params{
		K:               c.GetK(),
		AnnealStep:      c.GetAnnealStep(),
		AnnealEpsilon:   c.GetAnnealEpsilon(),
		MaxSearchPasses: c.GetMaxSearchPasses(),
		MaxIter:         c.GetKMedianMaxIter(),
		Epsilon:         c.GetKMedianEpsilon(),
	}
}

// DriverConfig builds a kmedian.DriverConfig using bounds. The caller
// decides between configured bounds and bounds derived from the points.
func (c *PlannerConfig) DriverConfig(bounds kmedian.Bounds) kmedian.DriverConfig {
	return kmedian.DriverConfig{
		Params:       c.Params(),
		Bounds:       bounds,
		Seed:         c.GetSeed(),
		EmptyCluster: c.GetEmptyCluster(),
	}
}
