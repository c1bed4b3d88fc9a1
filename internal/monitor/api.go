package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/banshee-data/station.planner/internal/httputil"
	"github.com/banshee-data/station.planner/internal/kmedian"
	"github.com/banshee-data/station.planner/internal/render"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
)

// Center is a station position on the wire.
type Center struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StateResponse is the panel's view of the Driver. Errors are null until
// an iteration has produced a finite total.
type StateResponse struct {
	SessionID       string         `json:"session_id"`
	State           kmedian.State  `json:"state"`
	Params          kmedian.Params `json:"params"`
	Points          int            `json:"points"`
	Centers         []Center       `json:"centers"`
	ClusterSizes    []int          `json:"cluster_sizes"`
	LastError       *float64       `json:"last_error"`
	BestError       *float64       `json:"best_error"`
	BestCenters     []Center       `json:"best_centers"`
	Iterations      int            `json:"iterations"`
	Runs            int            `json:"runs"`
	TotalIterations int            `json:"total_iterations"`
}

// IterationResponse reports a single iteration.
type IterationResponse struct {
	Index         int           `json:"index"`
	TotalError    *float64      `json:"total_error"`
	Delta         *float64      `json:"delta"`
	EmptyClusters int           `json:"empty_clusters"`
	NewBest       bool          `json:"new_best"`
	State         StateResponse `json:"state"`
}

// RunResponse reports one or more completed runs.
type RunResponse struct {
	RunID      string        `json:"run_id"`
	Runs       int           `json:"runs"`
	Iterations int           `json:"iterations"`
	State      StateResponse `json:"state"`
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func toCenters(vs []r2.Vec) []Center {
	out := make([]Center, len(vs))
	for i, v := range vs {
		out[i] = Center{X: v.X, Y: v.Y}
	}
	return out
}

// stateLocked must be called with ws.mu held.
func (ws *WebServer) stateLocked() StateResponse {
	snap := ws.driver.Snapshot()
	sizes := make([]int, len(snap.Clusters))
	for i, c := range snap.Clusters {
		sizes[i] = len(c)
	}
	return StateResponse{
		SessionID:       ws.sessionID,
		State:           snap.State,
		Params:          snap.Params,
		Points:          len(ws.driver.Points()),
		Centers:         toCenters(snap.Centers),
		ClusterSizes:    sizes,
		LastError:       finite(snap.LastError),
		BestError:       finite(snap.BestError),
		BestCenters:     toCenters(snap.BestCenters),
		Iterations:      snap.Iterations,
		Runs:            snap.Runs,
		TotalIterations: snap.TotalIterations,
	}
}

func (ws *WebServer) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	httputil.WriteJSONOK(w, ws.stateLocked())
}

func (ws *WebServer) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.driver.Reset()
	httputil.WriteJSONOK(w, ws.stateLocked())
}

// handleRun re-seeds the centers and runs to a terminal state.
func (ws *WebServer) handleRun(w http.ResponseWriter, r *http.Request) {
	ws.runWith(w, r, (*kmedian.Driver).ResetAndRun)
}

// handleStep runs to a terminal state from the current centers.
func (ws *WebServer) handleStep(w http.ResponseWriter, r *http.Request) {
	ws.runWith(w, r, (*kmedian.Driver).Run)
}

func (ws *WebServer) runWith(w http.ResponseWriter, r *http.Request, run func(*kmedian.Driver) (kmedian.Outcome, error)) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	out, err := run(ws.driver)
	if err != nil {
		httputil.WriteError(w, err, kmedian.ErrInvalidConfiguration)
		return
	}
	httputil.WriteJSONOK(w, RunResponse{
		RunID:      uuid.NewString(),
		Runs:       1,
		Iterations: out.Iterations,
		State:      ws.stateLocked(),
	})
}

func (ws *WebServer) handleIterate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	it, err := ws.driver.Step()
	if err != nil {
		httputil.WriteError(w, err, kmedian.ErrInvalidConfiguration)
		return
	}
	httputil.WriteJSONOK(w, IterationResponse{
		Index:         it.Index,
		TotalError:    finite(it.TotalError),
		Delta:         finite(it.Delta),
		EmptyClusters: it.EmptyClusters,
		NewBest:       it.NewBest,
		State:         ws.stateLocked(),
	})
}

// handleRestarts performs n reset-and-run cycles.
// Query params:
//
//	n (optional, default 1, at most the configured maximum)
func (ws *WebServer) handleRestarts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	n := 1
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > ws.maxRestarts {
			httputil.BadRequest(w, fmt.Sprintf("n must be an integer in [1, %d]", ws.maxRestarts))
			return
		}
		n = v
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	before := ws.driver.Snapshot().TotalIterations
	if _, err := ws.driver.Restarts(n); err != nil {
		httputil.WriteError(w, err, kmedian.ErrInvalidConfiguration)
		return
	}
	state := ws.stateLocked()
	httputil.WriteJSONOK(w, RunResponse{
		RunID:      uuid.NewString(),
		Runs:       n,
		Iterations: state.TotalIterations - before,
		State:      state,
	})
}

// handleParams returns the parameters on GET. On POST it applies the
// JSON fields present in the body over the current parameters.
func (ws *WebServer) handleParams(w http.ResponseWriter, r *http.Request) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, ws.driver.GetParams())
	case http.MethodPost:
		params := ws.driver.GetParams()
		if err := httputil.DecodeJSON(w, r, &params); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		if err := ws.driver.SetParams(params); err != nil {
			httputil.WriteError(w, err, kmedian.ErrInvalidConfiguration)
			return
		}
		httputil.WriteJSONOK(w, ws.stateLocked())
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (ws *WebServer) view() render.View {
	return render.NewView(ws.driver.Points(), ws.driver.Bounds(), ws.driver.Snapshot())
}

func (ws *WebServer) handleChart(w http.ResponseWriter, r *http.Request) {
	ws.mu.Lock()
	v := ws.view()
	ws.mu.Unlock()

	var buf bytes.Buffer
	if err := render.WriteHTML(&buf, v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (ws *WebServer) handlePlot(w http.ResponseWriter, r *http.Request) {
	ws.mu.Lock()
	v := ws.view()
	ws.mu.Unlock()

	var buf bytes.Buffer
	if err := render.WritePNG(&buf, v, render.DefaultPlotWidth, render.DefaultPlotHeight); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
