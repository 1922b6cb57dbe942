/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "mandatuvideo/internal/log"
	"mandatuvideo/internal/metrics"
	"mandatuvideo/internal/storage"
	"mandatuvideo/internal/submission"
	"mandatuvideo/internal/version"
)

// NoContent replaces a missing contenido at intake.
const NoContent = "Sin contenido"

// Server accepts dialogue submissions over HTTP and stores them as pending
// envelopes. Content is optional; Ready, when set, backs /readyz.
type Server struct {
	Records storage.RecordStore
	Content storage.ContentStore
	Ready   func(ctx context.Context) error
	// MaxBodyBytes caps request bodies; 1 MiB when zero.
	MaxBodyBytes int64
	Now          func() time.Time
	NewID        func() string
	// Metrics defaults to metrics.Default(). MetricsHandler, when set, is
	// served on /metrics.
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
}

func (s *Server) metrics() *metrics.Metrics {
	if s.Metrics != nil {
		return s.Metrics
	}
	return metrics.Default()
}

// Handler returns the routes of the intake server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.Ready == nil {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Ready(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(version.String()))
	})
	if s.MetricsHandler != nil {
		mux.Handle("/metrics", s.MetricsHandler)
	}
	m := s.metrics()
	mux.HandleFunc("/api/dialogs", func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		s.handleDialog(sw, r)
		m.RecordSubmission(r.Context(), sw.status)
	})
	return metrics.Middleware(m)(mux)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// ListenAndServe serves Handler on addr until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l := applog.WithOperation(applog.WithComponent("backend"), "serve")
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	l.Info("intake listening", slog.String("addr", addr))
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleDialog(w http.ResponseWriter, r *http.Request) {
	l := applog.WithOperation(applog.WithComponent("backend"), "intake")
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	limit := s.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	env, err := submission.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.applyDefaults(env)
	if _, err := submission.ParseTimestamp(env.Momento); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	data, err := submission.Encode(env)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := submission.Validate(submission.SchemaEnvelope, data); err != nil {
		var ve *submission.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "invalid submission", "details": ve.Issues})
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	newID := s.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	key := submission.Key(env.Usuario, env.Momento, newID())
	file := key + ".json"
	ctx := applog.WithSubmission(r.Context(), key)

	if s.Content != nil {
		if err := s.Content.WriteFile(ctx, file, data); err != nil {
			l.ErrorContext(ctx, "content write failed", slog.Any("err", err))
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": "content store write failed", "details": err.Error()})
			return
		}
	}
	if s.Records != nil {
		if err := s.Records.Put(ctx, key, data); err != nil {
			l.ErrorContext(ctx, "record put failed", slog.Any("err", err))
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	l.InfoContext(ctx, "submission stored", slog.String("usuario", env.Usuario))
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("Archivo %s guardado con éxito", file),
		"key":     key,
		"file":    file,
	})
}

// applyDefaults fills the intake defaults and marks the envelope pending when
// the client did not say otherwise.
func (s *Server) applyDefaults(env *submission.Envelope) {
	if strings.TrimSpace(env.Usuario) == "" {
		env.Usuario = submission.DefaultUser
	}
	if strings.TrimSpace(env.Momento) == "" {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		env.Momento = now().UTC().Format("2006-01-02T15:04:05.000Z")
	}
	if env.Contenido == "" {
		env.Contenido = NoContent
	}
	if env.Otros == nil {
		env.Otros = submission.Otros{}
	}
	if _, ok := env.Otros[submission.FlagTransformed]; !ok {
		env.Otros[submission.FlagTransformed] = "false"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
