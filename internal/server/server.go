// Package server exposes the completion executor over HTTP together with
// health and prometheus endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/llmclient/internal/core/domain"
	"github.com/vietddude/llmclient/internal/infra/llm"
	redisclient "github.com/vietddude/llmclient/internal/infra/redis"
)

const maxBodyBytes = 1 << 20

// Completer is the part of the executor the server needs.
type Completer interface {
	Send(ctx context.Context, req domain.Request) (*domain.Result, error)
	ProviderName() string
	DefaultModel() string
}

// FailureRecorder persists terminal failures. Optional.
type FailureRecorder interface {
	Record(ctx context.Context, rec *domain.FailureRecord) error
}

// Server provides the HTTP surface.
type Server struct {
	completer Completer
	recorder  FailureRecorder
	server    *http.Server
}

// New creates a server listening on port. recorder may be nil.
func New(completer Completer, recorder FailureRecorder, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		completer: completer,
		recorder:  recorder,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	mux.HandleFunc("POST /v1/complete", s.handleComplete)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server. It blocks until Stop is called.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type completeResponse struct {
	Content    string            `json:"content"`
	TokenUsage domain.TokenUsage `json:"token_usage"`
	ElapsedMs  int64             `json:"elapsed_ms"`
	Provider   string            `json:"provider"`
	Model      string            `json:"model"`
}

type errorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code,omitempty"`
	Attempts   int    `json:"attempts,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Retryable  bool   `json:"retryable"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
		return
	}

	res, err := s.completer.Send(r.Context(), req)
	if err != nil {
		s.writeSendError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, completeResponse{
		Content:    res.Content,
		TokenUsage: res.TokenUsage,
		ElapsedMs:  res.ElapsedMillis(),
		Provider:   s.completer.ProviderName(),
		Model:      s.completer.DefaultModel(),
	})
}

func (s *Server) writeSendError(w http.ResponseWriter, r *http.Request, err error) {
	f, ok := llm.AsFailure(err)
	if !ok {
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: err.Error()})
		return
	}

	if s.recorder != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 2*time.Second)
		defer cancel()
		rec := redisclient.NewFailureRecord(f, s.completer.DefaultModel(), time.Now())
		if recErr := s.recorder.Record(ctx, rec); recErr != nil {
			slog.Warn("Failed to record completion failure", "error", recErr)
		}
	}

	writeJSON(w, http.StatusBadGateway, errorResponse{
		Error:      f.Message,
		StatusCode: f.StatusCode,
		Attempts:   f.Attempts,
		Provider:   f.Provider,
		Retryable:  f.Retryable,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"provider": s.completer.ProviderName(),
		"model":    s.completer.DefaultModel(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}
