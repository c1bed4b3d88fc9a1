// Command planner places k stations over a set of resource points so the
// total distance from every point to its nearest station is minimised.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/station.planner/internal/fsutil"
	"github.com/banshee-data/station.planner/internal/monitoring"
	"github.com/banshee-data/station.planner/internal/version"
)

// Options holds the command-line configuration.
type Options struct {
	ConfigPath  string
	PointsPath  string
	K           int
	KSet        bool
	Restarts    int
	RestartsSet bool
	Seed        int64
	SeedSet     bool
	Categories  categoryList
	JSONPath    string
	PNGPath     string
	HTMLPath    string
	Listen      string
	Remote      string
	Verbose     bool
	Version     bool
}

// categoryList collects repeated -category flags.
type categoryList []string

func (c *categoryList) String() string { return strings.Join(*c, ",") }

func (c *categoryList) Set(v string) error {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*c = append(*c, s)
		}
	}
	return nil
}

func parseFlags(args []string, output io.Writer) (Options, error) {
	opts := Options{}
	fs := flag.NewFlagSet("planner", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&opts.ConfigPath, "config", "", "Path to planner config JSON (defaults apply to omitted fields)")
	fs.StringVar(&opts.PointsPath, "points", "", "Path to points JSON file")
	fs.IntVar(&opts.K, "k", 0, "Number of stations (overrides config)")
	fs.IntVar(&opts.Restarts, "restarts", 0, "Number of reset-and-run cycles (overrides config)")
	fs.Int64Var(&opts.Seed, "seed", 0, "Random seed for center placement (overrides config)")
	fs.Var(&opts.Categories, "category", "Only plan for points of this category (repeatable or comma-separated)")
	fs.StringVar(&opts.JSONPath, "json", "", "Write the best plan as JSON to this file")
	fs.StringVar(&opts.PNGPath, "png", "", "Write a PNG plot of the best plan to this file")
	fs.StringVar(&opts.HTMLPath, "html", "", "Write an interactive HTML chart of the best plan to this file")
	fs.StringVar(&opts.Listen, "listen", "", "Serve the control panel on this address after planning (e.g. :8090)")
	fs.StringVar(&opts.Remote, "remote", "", "Drive a running control panel at this base URL instead of planning locally")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.Version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	// An explicit zero must still reach validation.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "k":
			opts.KSet = true
		case "restarts":
			opts.RestartsSet = true
		case "seed":
			opts.SeedSet = true
		}
	})
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("planner: %v", err)
	}

	if opts.Version {
		fmt.Printf("planner %s\n", version.String())
		return
	}

	monitoring.SetVerbose(opts.Verbose, os.Stderr, "[planner] ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.Remote != "" {
		if err := runRemote(ctx, opts, os.Stdout); err != nil {
			log.Fatalf("planner: %v", err)
		}
		return
	}

	if err := run(ctx, opts, fsutil.OSFileSystem{}, os.Stdout); err != nil {
		log.Fatalf("planner: %v", err)
	}
}
