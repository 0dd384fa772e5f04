package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"clinicsim/internal/clinic"
	"clinicsim/internal/events"
	"clinicsim/internal/logging"
	"clinicsim/internal/orchestrator"
	"clinicsim/internal/runner"
	"clinicsim/internal/types"
)

type Options struct {
	Engine     orchestrator.Config
	RunTimeout time.Duration
	// Token, when set, is required as a bearer token on /api routes.
	Token string
	Log   logrus.FieldLogger
}

type Server struct {
	Router http.Handler
	hub    *Hub
	bus    *events.Bus
	orch   *orchestrator.Engine
	log    logrus.FieldLogger

	runTimeout time.Duration
	cancel     context.CancelFunc
}

func NewServer(opts Options) (*Server, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 30 * time.Minute
	}

	bus := events.NewBus(logging.NewWatermillAdapter(log))
	ctx, cancel := context.WithCancel(context.Background())
	stream, err := bus.Subscribe(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	hub := NewHub(log)
	go hub.run(ctx, stream)

	s := &Server{
		hub:        hub,
		bus:        bus,
		log:        log,
		runTimeout: opts.RunTimeout,
		cancel:     cancel,
	}
	s.orch = orchestrator.NewEngine(s.publish, opts.Engine, log)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(requireToken(opts.Token))
	api.HandleFunc("/run", s.handleRun).Methods(http.MethodPost)
	api.HandleFunc("/simulate", s.handleSimulate).Methods(http.MethodPost)
	api.HandleFunc("/export", s.handleExport).Methods(http.MethodPost)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	// CORS for local dev
	s.Router = withCORS(r)
	return s, nil
}

func (s *Server) Close() error {
	s.cancel()
	return s.bus.Close()
}

func (s *Server) publish(ev types.Event) {
	if err := s.bus.Publish(ev); err != nil {
		s.log.WithError(err).Warn("dropping event")
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireToken(token string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := "Bearer " + token
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), []byte(want)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, clinic.ErrInvalidConfig) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	serveWS(s.hub, w, r)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req types.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	plan, err := s.orch.Plan(req)
	if err != nil {
		writeError(w, err)
		return
	}
	go func() {
		// detached from the request so the run outlives the response
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()

		if err := s.orch.Execute(ctx, plan); err != nil {
			s.log.WithError(err).WithField("plan_id", plan.PlanID).Error("run failed")
			s.publish(types.Event{Type: "error", Payload: map[string]any{"plan_id": plan.PlanID, "error": err.Error()}, Timestamp: nowISO()})
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "started", "plan_id": plan.PlanID, "variants": len(plan.Variants)})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var sc runner.Scenario
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	summary, err := s.orch.Simulate(r.Context(), sc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req types.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	yml, filename, err := s.orch.ExportScenario(req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(yml)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Metrics())
}

// Utility for timestamps in events
func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
