package service

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"

	"pump_bot/internal/modules/config"
	"pump_bot/pkg/logger"
)

// OperationCounter reports how many operations are currently active.
type OperationCounter interface {
	ActiveOperations() int
}

// State serves liveness and readiness over HTTP.
type State struct {
	cfg       *config.Config
	ops       OperationCounter
	startedAt time.Time

	ready          atomic.Bool
	signalsSeen    atomic.Int64
	lastSignalUnix atomic.Int64

	httpSrv *http.Server
}

func NewState(cfg *config.Config, ops OperationCounter) *State {
	s := &State{
		cfg:       cfg,
		ops:       ops,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", s.handleLive)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/healthz", s.handleHealth)
	s.httpSrv = &http.Server{
		Addr:    cfg.Health.Addr,
		Handler: mux,
	}
	return s
}

func (s *State) SetReady(ready bool) { s.ready.Store(ready) }

// SignalSeen bumps the hub counters, wired as the hub's per-signal callback.
func (s *State) SignalSeen() {
	s.signalsSeen.Add(1)
	s.lastSignalUnix.Store(time.Now().Unix())
}

func (s *State) Start() error {
	logger.Info("health endpoint listening on %s", s.cfg.Health.Addr)
	err := s.httpSrv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *State) Stop(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *State) handleLive(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *State) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("starting"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *State) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var lastSignal string
	if unix := s.lastSignalUnix.Load(); unix > 0 {
		lastSignal = time.Unix(unix, 0).UTC().Format(time.RFC3339)
	}

	body, err := sonic.Marshal(map[string]any{
		"uptime":            time.Since(s.startedAt).Truncate(time.Second).String(),
		"ready":             s.ready.Load(),
		"active_operations": s.ops.ActiveOperations(),
		"signals_seen":      s.signalsSeen.Load(),
		"last_signal_at":    lastSignal,
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
