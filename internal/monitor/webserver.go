// Package monitor serves the interactive planner panel: a status page,
// a JSON control API over a single Driver, and chart/PNG views.
package monitor

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/banshee-data/station.planner/internal/kmedian"
	"github.com/banshee-data/station.planner/internal/timeutil"
	"github.com/google/uuid"
)

//go:embed status.html
var statusFS embed.FS

var statusTemplate = template.Must(template.ParseFS(statusFS, "status.html"))

// DefaultMaxRestarts caps n for a single /api/restarts call.
const DefaultMaxRestarts = 1000

// WebServer owns one Driver and serialises every request against it.
type WebServer struct {
	address     string
	server      *http.Server
	sessionID   string
	maxRestarts int
	clock       timeutil.Clock
	started     time.Time

	mu     sync.Mutex
	driver *kmedian.Driver
}

// WebServerConfig contains configuration options for the web server
type WebServerConfig struct {
	Address string
	Driver  *kmedian.Driver
	// MaxRestarts defaults to DefaultMaxRestarts.
	MaxRestarts int
	// Clock defaults to the wall clock.
	Clock timeutil.Clock
}

// NewWebServer creates a new web server with the provided configuration
func NewWebServer(config WebServerConfig) (*WebServer, error) {
	if config.Driver == nil {
		return nil, fmt.Errorf("monitor: driver is required")
	}
	clock := config.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	ws := &WebServer{
		address:     config.Address,
		sessionID:   uuid.NewString(),
		maxRestarts: config.MaxRestarts,
		clock:       clock,
		started:     clock.Now(),
		driver:      config.Driver,
	}
	if ws.maxRestarts <= 0 {
		ws.maxRestarts = DefaultMaxRestarts
	}

	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ws, nil
}

// SessionID identifies this panel instance in every state response.
func (ws *WebServer) SessionID() string { return ws.sessionID }

// Handler returns the panel's routes.
func (ws *WebServer) Handler() http.Handler { return ws.server.Handler }

// Start serves until ctx is cancelled, then shuts the server down.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting planner panel on %s (session %s)", ws.address, ws.sessionID)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve %s: %w", ws.address, err)
	case <-ctx.Done():
	}
	log.Println("shutting down planner panel...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("planner panel stopped")
	return nil
}

// Close shuts down the web server
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleStatus)
	mux.HandleFunc("/api/state", ws.handleState)
	mux.HandleFunc("/api/reset", ws.handleReset)
	mux.HandleFunc("/api/run", ws.handleRun)
	mux.HandleFunc("/api/step", ws.handleStep)
	mux.HandleFunc("/api/iterate", ws.handleIterate)
	mux.HandleFunc("/api/restarts", ws.handleRestarts)
	mux.HandleFunc("/api/params", ws.handleParams)
	mux.HandleFunc("/chart", ws.handleChart)
	mux.HandleFunc("/plot.png", ws.handlePlot)

	return mux
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "planner", "timestamp": "%s"}`, ws.clock.Now().UTC().Format(time.RFC3339))
}

func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	ws.mu.Lock()
	state := ws.stateLocked()
	ws.mu.Unlock()

	data := struct {
		State  StateResponse
		Uptime string
		Last   string
		Best   string
	}{
		State:  state,
		Uptime: ws.clock.Since(ws.started).Round(time.Second).String(),
		Last:   formatOptional(state.LastError),
		Best:   formatOptional(state.BestError),
	}

	w.Header().Set("Content-Type", "text/html")
	if err := statusTemplate.Execute(w, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
	}
}

func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *v)
}
