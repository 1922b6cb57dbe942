/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type sink struct {
	mu      sync.Mutex
	events  [][]byte
	crashes [][]byte
}

func (s *sink) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.events = append(s.events, b)
		s.mu.Unlock()
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.crashes = append(s.crashes, b)
		s.mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (s *sink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events), len(s.crashes)
}

func TestClientEventAndUploadCrash(t *testing.T) {
	s := &sink{}
	srv := s.server(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: 2 * time.Second})
	defer c.Close()
	if !c.Enabled() {
		t.Fatalf("expected client to be enabled")
	}

	c.Event(EventBatchRun, map[string]any{"processed": 3, "name": "spoofed"})
	c.Flush(context.Background())
	if n, _ := s.counts(); n != 1 {
		t.Fatalf("events sent = %d", n)
	}
	var m map[string]any
	if err := json.Unmarshal(s.events[0], &m); err != nil {
		t.Fatalf("bad event json: %v", err)
	}
	if m["name"] != EventBatchRun || m["processed"] != float64(3) {
		t.Fatalf("event = %v", m)
	}
	if _, ok := m["ts"].(string); !ok {
		t.Fatalf("missing ts field")
	}

	c.UploadCrash([]byte("STACKTRACE"))
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, n := s.counts(); n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected crash upload to be sent")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestClientDisabled(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := New(Config{OptIn: false, EventsURL: srv.URL, CrashURL: srv.URL})
	defer c.Close()
	if c.Enabled() {
		t.Fatalf("expected disabled client")
	}
	c.Event("ignored", nil)
	c.UploadCrash([]byte("ignored"))

	c2 := New(Config{OptIn: true, EventsURL: srv.URL})
	defer c2.Close()
	c2.Event("", nil)
	c2.Flush(nil)
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no requests, got %d", hits)
	}

	var nilClient *Client
	nilClient.Event("x", nil)
	nilClient.Flush(context.Background())
	nilClient.Close()
}

func TestSendErrorsAreDropped(t *testing.T) {
	c := New(Config{
		OptIn:        true,
		EventsURL:    "http://127.0.0.1:1/events",
		CrashURL:     "http://127.0.0.1:1/crash",
		Timeout:      50 * time.Millisecond,
		DebugLogging: true,
	})
	defer c.Close()
	c.Event("err", map[string]any{"a": 1})
	c.Flush(context.Background())
	c.UploadCrash([]byte("oops"))
}

func TestFromEnvAndDefault(t *testing.T) {
	t.Setenv("MTV_TELEMETRY_OPT_IN", "yes")
	t.Setenv("MTV_TELEMETRY_URL", " http://127.0.0.1:0 ")
	t.Setenv("MTV_CRASH_UPLOAD_URL", "")
	t.Setenv("MTV_TELEMETRY_TIMEOUT_MS", "100")

	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL != "http://127.0.0.1:0" || cfg.Timeout != 100*time.Millisecond {
		t.Fatalf("FromEnv = %+v", cfg)
	}
	SetDefault(cfg)
	if !Default().Enabled() {
		t.Fatalf("default client should be enabled")
	}
	SetDefault(Config{})
	if Default().Enabled() {
		t.Fatalf("default client should be disabled after reset")
	}
}
