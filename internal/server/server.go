// Package server exposes the goal list and the climber's progress as a
// local JSON API, so an external renderer can follow along.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/summit/internal/app"
	"github.com/idilsaglam/summit/internal/goals"
	"github.com/idilsaglam/summit/internal/model"
)

type Server struct {
	app *app.App
	log logrus.FieldLogger
	reg *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	// app is single-threaded; handlers take turns.
	mu sync.Mutex
}

// New builds the server. reg receives the HTTP collectors and is served at
// /metrics; pass the same registry to other components to expose theirs.
func New(a *app.App, log logrus.FieldLogger, reg *prometheus.Registry) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Server{
		app: a,
		log: log,
		reg: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "summit",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "summit",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}, []string{"method", "route"}),
	}
	reg.MustRegister(s.requests, s.duration)
	return s
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.instrument)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/goals", s.listGoals).Methods(http.MethodGet)
	api.HandleFunc("/goals", s.createGoal).Methods(http.MethodPost)
	api.HandleFunc("/goals/{id:[0-9]+}/toggle", s.toggleGoal).Methods(http.MethodPost)
	api.HandleFunc("/goals/{id:[0-9]+}", s.deleteGoal).Methods(http.MethodDelete)
	api.HandleFunc("/progress", s.progress).Methods(http.MethodGet)
	api.HandleFunc("/streak", s.streak).Methods(http.MethodGet)
	api.HandleFunc("/history", s.history).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("api listening")
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		s.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// refresh picks up writes from other processes and a possible new day.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) bool {
	if err := s.app.Refresh(r.Context()); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return false
	}
	return true
}

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.refresh(w, r) {
		return
	}
	var list []model.Goal
	if r.URL.Query().Get("all") != "" {
		list = s.app.Goals.All()
	} else {
		list = s.app.Working()
	}
	if tag := r.URL.Query().Get("tag"); tag != "" {
		filtered := []model.Goal{}
		norm := goals.NormalizeTags([]string{tag})
		for _, g := range list {
			if len(norm) == 1 && g.HasTag(norm[0]) {
				filtered = append(filtered, g)
			}
		}
		list = filtered
	}
	if list == nil {
		list = []model.Goal{}
	}
	writeJSON(w, http.StatusOK, list)
}

type createRequest struct {
	Text              string   `json:"text"`
	Date              string   `json:"date"`
	Time              string   `json:"time"`
	Tags              []string `json:"tags"`
	Recurring         string   `json:"recurring"`
	EmailNotification bool     `json:"emailNotification"`
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.refresh(w, r) {
		return
	}
	d, err := draftFrom(req, s.app.Now())
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	g, err := s.app.Add(r.Context(), d)
	if err != nil {
		s.fail(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func draftFrom(req createRequest, now time.Time) (goals.Draft, error) {
	rec, err := model.ParseRecurrence(req.Recurring)
	if err != nil {
		return goals.Draft{}, err
	}
	date, err := model.NormalizeDate(req.Date, now)
	if err != nil {
		return goals.Draft{}, err
	}
	tm, err := model.NormalizeTime(req.Time)
	if err != nil {
		return goals.Draft{}, err
	}
	return goals.Draft{
		Text:              req.Text,
		Date:              date,
		Time:              tm,
		Tags:              req.Tags,
		Recurring:         rec,
		EmailNotification: req.EmailNotification,
	}, nil
}

func (s *Server) toggleGoal(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.refresh(w, r) {
		return
	}
	g, err := s.app.Toggle(r.Context(), id)
	if err != nil {
		s.fail(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) deleteGoal(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.refresh(w, r) {
		return
	}
	if _, _, err := s.app.Remove(r.Context(), id); err != nil {
		s.fail(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.refresh(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.app.Snapshot())
}

func (s *Server) streak(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.app.StreakStatus(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 366 {
			s.fail(w, http.StatusBadRequest, errors.New("days must be 1..366"))
			return
		}
		days = n
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.app.HistoryWindow(r.Context(), days)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, goals.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, goals.ErrEmptyText):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.log.WithError(err).Error("api request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
