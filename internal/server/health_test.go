package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakePinger is a test double for the Pinger interface.
type fakePinger struct {
	// name is returned by Name().
	name string
	// err is returned by Ping(); nil means healthy.
	err error
}

func (f *fakePinger) Name() string                 { return f.name }
func (f *fakePinger) Ping(_ context.Context) error { return f.err }

// TestHandleHealth_OK verifies that GET /api/health returns 200 with a JSON
// body containing {"status":"ok"}. Liveness never consults dependencies.
func TestHandleHealth_OK(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d — body: %s", w.Code, w.Body.String())
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: expected application/json, got %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status: expected %q, got %q", "ok", body["status"])
	}
}

// TestHandleReady exercises GET /api/ready across dependency states: no
// registered probes, all healthy, partial failure, and total failure.
func TestHandleReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		pingers    []Pinger
		wantStatus int
		wantReady  bool
		// wantFailed lists check names that must report ok:false with a
		// non-empty error; every other check must report ok:true.
		wantFailed []string
	}{
		{
			name:       "no pingers",
			wantStatus: http.StatusOK,
			wantReady:  true,
		},
		{
			name: "all healthy",
			pingers: []Pinger{
				&fakePinger{name: "storage"},
				&fakePinger{name: "qdrant"},
				&fakePinger{name: "embedder"},
			},
			wantStatus: http.StatusOK,
			wantReady:  true,
		},
		{
			name: "one failing",
			pingers: []Pinger{
				&fakePinger{name: "storage"},
				&fakePinger{name: "qdrant", err: errors.New("connection refused")},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantReady:  false,
			wantFailed: []string{"qdrant"},
		},
		{
			name: "all failing",
			pingers: []Pinger{
				&fakePinger{name: "storage", err: errors.New("timeout")},
				&fakePinger{name: "qdrant", err: errors.New("connection refused")},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantReady:  false,
			wantFailed: []string{"storage", "qdrant"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer()
			s.pingers = tc.pingers

			req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
			w := httptest.NewRecorder()

			s.handleReady(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d — body: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: expected application/json, got %q", ct)
			}

			var resp readyResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Ready != tc.wantReady {
				t.Errorf("ready: expected %v, got %v", tc.wantReady, resp.Ready)
			}
			if len(resp.Checks) != len(tc.pingers) {
				t.Fatalf("expected %d checks, got %d", len(tc.pingers), len(resp.Checks))
			}

			failed := map[string]bool{}
			for _, name := range tc.wantFailed {
				failed[name] = true
			}
			for _, c := range resp.Checks {
				if failed[c.Name] {
					if c.OK {
						t.Errorf("check %q: expected ok:false", c.Name)
					}
					if c.Error == "" {
						t.Errorf("check %q: expected non-empty error", c.Name)
					}
					continue
				}
				if !c.OK {
					t.Errorf("check %q: expected ok:true, got error %q", c.Name, c.Error)
				}
				if c.Error != "" {
					t.Errorf("check %q: expected no error, got %q", c.Name, c.Error)
				}
			}
		})
	}
}

// TestHandleReady_PreservesProbeOrder verifies that check order in the
// response matches registration order even though probes run concurrently.
func TestHandleReady_PreservesProbeOrder(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.pingers = []Pinger{
		&fakePinger{name: "storage"},
		&fakePinger{name: "qdrant", err: errors.New("down")},
		&fakePinger{name: "embedder"},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	w := httptest.NewRecorder()

	s.handleReady(w, req)

	var resp readyResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := []string{"storage", "qdrant", "embedder"}
	for i, name := range want {
		if resp.Checks[i].Name != name {
			t.Errorf("check %d: expected %q, got %q", i, name, resp.Checks[i].Name)
		}
	}
}
