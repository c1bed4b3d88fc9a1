package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/banshee-data/station.planner/internal/config"
	"github.com/banshee-data/station.planner/internal/fsutil"
	"github.com/banshee-data/station.planner/internal/kmedian"
	"github.com/banshee-data/station.planner/internal/monitor"
	"github.com/banshee-data/station.planner/internal/pointset"
	"github.com/banshee-data/station.planner/internal/render"
	"github.com/banshee-data/station.planner/internal/security"
	"github.com/banshee-data/station.planner/internal/version"
	"github.com/google/uuid"
)

// boundsPad grows derived bounds by this fraction of each extent.
const boundsPad = 0.05

// Result is the exported best plan.
type Result struct {
	RunID       string                   `json:"run_id"`
	Version     string                   `json:"version"`
	GeneratedAt time.Time                `json:"generated_at"`
	Params      kmedian.Params           `json:"params"`
	Restarts    int                      `json:"restarts"`
	Iterations  int                      `json:"iterations"`
	Bounds      kmedian.Bounds           `json:"bounds"`
	Points      int                      `json:"points"`
	Categories  []pointset.CategoryCount `json:"categories"`
	TotalError  float64                  `json:"total_error"`
	Stations    []Station                `json:"stations"`
}

// Station is one placed station and the points it serves.
type Station struct {
	Index  int     `json:"index"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Points int     `json:"points"`
	Error  float64 `json:"error"`
}

// loadConfig layers the config file (if any) and flag overrides over the
// built-in defaults. Bounds stay unset unless the file sets them.
func loadConfig(opts Options) (*config.PlannerConfig, error) {
	cfg := config.EmptyPlannerConfig()
	if opts.ConfigPath != "" {
		fileCfg, err := config.LoadPlannerConfig(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg.Merge(fileCfg)
	}

	overrides := config.EmptyPlannerConfig()
	if opts.KSet {
		overrides.K = &opts.K
	}
	if opts.RestartsSet {
		overrides.Restarts = &opts.Restarts
	}
	if opts.SeedSet {
		overrides.Seed = &opts.Seed
	}
	cfg.Merge(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", kmedian.ErrInvalidConfiguration, err)
	}
	return cfg, nil
}

// loadPoints reads the point file and applies the category filter.
func loadPoints(opts Options) (*pointset.Set, error) {
	if opts.PointsPath == "" {
		return nil, fmt.Errorf("-points is required")
	}
	set, err := pointset.Load(opts.PointsPath)
	if err != nil {
		return nil, err
	}
	if len(opts.Categories) > 0 {
		set.Points = pointset.FilterCategories(set.Points, opts.Categories)
		if len(set.Points) == 0 {
			return nil, fmt.Errorf("no points match categories %v", []string(opts.Categories))
		}
	}
	return set, nil
}

// resolveBounds prefers configured bounds, then bounds carried by the
// point file, then the padded extent of the points.
func resolveBounds(cfg *config.PlannerConfig, set *pointset.Set) (kmedian.Bounds, string, error) {
	if cfg.HasBounds() {
		return cfg.GetBounds(), "config", nil
	}
	if set.Bounds != nil {
		return *set.Bounds, "points file", nil
	}
	b, err := pointset.BoundsOf(set.Points, boundsPad)
	return b, "point extent", err
}

func newDriver(opts Options) (*kmedian.Driver, *config.PlannerConfig, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	set, err := loadPoints(opts)
	if err != nil {
		return nil, nil, err
	}
	bounds, source, err := resolveBounds(cfg, set)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Loaded %d points, bounds from %s: (%.1f, %.1f)-(%.1f, %.1f)",
		len(set.Points), source, bounds.Left, bounds.Top, bounds.Right, bounds.Bottom)

	d, err := kmedian.NewDriver(set.Points, cfg.DriverConfig(bounds))
	if err != nil {
		return nil, nil, err
	}
	return d, cfg, nil
}

func run(ctx context.Context, opts Options, fsys fsutil.FileSystem, out io.Writer) error {
	if err := validateOutputs(opts); err != nil {
		return err
	}
	d, cfg, err := newDriver(opts)
	if err != nil {
		return err
	}

	restarts := cfg.GetRestarts()
	start := time.Now()
	best, err := d.Restarts(restarts)
	if err != nil {
		return err
	}
	log.Printf("Completed %d restarts in %s", restarts, time.Since(start).Round(time.Millisecond))

	res := buildResult(d, best, restarts)
	printResult(out, res)

	if err := export(fsys, opts, d, best, res); err != nil {
		return err
	}

	if opts.Listen == "" {
		return nil
	}
	ws, err := monitor.NewWebServer(monitor.WebServerConfig{Address: opts.Listen, Driver: d})
	if err != nil {
		return err
	}
	return ws.Start(ctx)
}

func buildResult(d *kmedian.Driver, best kmedian.RunResult, restarts int) Result {
	points := d.Points()
	snap := d.Snapshot()
	res := Result{
		RunID:       uuid.NewString(),
		Version:     version.Version,
		GeneratedAt: time.Now().UTC(),
		Params:      snap.Params,
		Restarts:    restarts,
		Iterations:  snap.TotalIterations,
		Bounds:      d.Bounds(),
		Points:      len(points),
		Categories:  pointset.Categories(points),
		TotalError:  best.TotalError,
		Stations:    make([]Station, len(best.Centers)),
	}
	for j, c := range best.Centers {
		res.Stations[j] = Station{
			Index:  j,
			X:      c.X,
			Y:      c.Y,
			Points: len(best.Clusters[j]),
			Error:  kmedian.SumDistance(points, best.Clusters[j], c),
		}
	}
	return res
}

func printResult(w io.Writer, res Result) {
	fmt.Fprintf(w, "run %s: %d points, k=%d, %d restarts, %d iterations\n",
		res.RunID, res.Points, res.Params.K, res.Restarts, res.Iterations)
	fmt.Fprintf(w, "best total distance: %s\n", render.FormatError(res.TotalError))
	for _, s := range res.Stations {
		fmt.Fprintf(w, "  station %2d  (%12.1f, %12.1f)  %6d points  %14.1f\n", s.Index, s.X, s.Y, s.Points, s.Error)
	}
}

// validateOutputs rejects export paths outside the working or temp
// directory before any planning work is done.
func validateOutputs(opts Options) error {
	for _, path := range []string{opts.JSONPath, opts.PNGPath, opts.HTMLPath} {
		if path == "" {
			continue
		}
		if err := security.ValidateExportPath(path); err != nil {
			return err
		}
	}
	return nil
}

func export(fsys fsutil.FileSystem, opts Options, d *kmedian.Driver, best kmedian.RunResult, res Result) error {
	if opts.JSONPath != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		if err := fsys.WriteFile(opts.JSONPath, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", opts.JSONPath, err)
		}
		log.Printf("Wrote plan to %s", opts.JSONPath)
	}

	v := render.View{
		Title:    fmt.Sprintf("Station plan (k=%d)", res.Params.K),
		Subtitle: fmt.Sprintf("best total distance %s over %d restarts", render.FormatError(res.TotalError), res.Restarts),
		Points:   d.Points(),
		Centers:  best.Centers,
		Bounds:   d.Bounds(),
	}
	if opts.PNGPath != "" {
		err := writeWith(fsys, opts.PNGPath, func(w io.Writer) error {
			return render.WritePNG(w, v, render.DefaultPlotWidth, render.DefaultPlotHeight)
		})
		if err != nil {
			return err
		}
		log.Printf("Wrote plot to %s", opts.PNGPath)
	}
	if opts.HTMLPath != "" {
		err := writeWith(fsys, opts.HTMLPath, func(w io.Writer) error {
			return render.WriteHTML(w, v)
		})
		if err != nil {
			return err
		}
		log.Printf("Wrote chart to %s", opts.HTMLPath)
	}
	return nil
}

func writeWith(fsys fsutil.FileSystem, path string, write func(io.Writer) error) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// runRemote asks a running control panel for restarts, optionally
// changing k first, and prints the resulting state.
func runRemote(ctx context.Context, opts Options, out io.Writer) error {
	if opts.KSet && opts.K < 1 {
		return fmt.Errorf("%w: k must be at least 1, got %d", kmedian.ErrInvalidConfiguration, opts.K)
	}
	if opts.RestartsSet && opts.Restarts < 1 {
		return fmt.Errorf("%w: restarts must be at least 1, got %d", kmedian.ErrInvalidConfiguration, opts.Restarts)
	}
	c := monitor.NewClient(nil, opts.Remote)

	state, err := c.State(ctx)
	if err != nil {
		return err
	}
	if opts.KSet && opts.K != state.Params.K {
		params := state.Params
		params.K = opts.K
		if _, err := c.SetParams(ctx, params); err != nil {
			return err
		}
	}

	n := 1
	if opts.RestartsSet {
		n = opts.Restarts
	}
	resp, err := c.Restarts(ctx, n)
	if err != nil {
		return err
	}

	best := "n/a"
	if resp.State.BestError != nil {
		best = render.FormatError(*resp.State.BestError)
	}
	fmt.Fprintf(out, "session %s run %s: %d restarts, %d iterations, state %s\n",
		resp.State.SessionID, resp.RunID, resp.Runs, resp.Iterations, resp.State.State)
	fmt.Fprintf(out, "best total distance: %s\n", best)
	for j, s := range resp.State.BestCenters {
		fmt.Fprintf(out, "  station %2d  (%12.1f, %12.1f)\n", j, s.X, s.Y)
	}
	return nil
}
