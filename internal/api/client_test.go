package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// fakeSession is an in-memory SessionStore recording writes.
type fakeSession struct {
	token  string
	writes []string
}

func (f *fakeSession) Read(ctx context.Context) (string, bool) {
	return f.token, f.token != ""
}

func (f *fakeSession) Write(ctx context.Context, token string) {
	f.writes = append(f.writes, token)
	f.token = token
}

// fakeRefresher returns a fixed token (or error) and counts calls.
type fakeRefresher struct {
	token string
	err   error
	calls int
}

func (f *fakeRefresher) RefreshSession(ctx context.Context) (string, error) {
	f.calls++
	return f.token, f.err
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, server
}

func TestDoRefreshAndRetryOnUnauthorized(t *testing.T) {
	var attempts atomic.Int32
	var lastAuth string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		if attempts.Add(1) == 1 {
			http.Error(w, "expired", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true}`)
	},
		WithSession(&fakeSession{token: "stale"}),
		WithRefresher(&fakeRefresher{token: "fresh"}),
	)

	payload, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/ping"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
	if lastAuth != "Bearer fresh" {
		t.Errorf("second attempt Authorization = %q, want %q", lastAuth, "Bearer fresh")
	}
	if !payload.IsJSON() {
		t.Error("expected JSON payload")
	}
}

func TestDoRefreshPersistsNewToken(t *testing.T) {
	var attempts atomic.Int32
	session := &fakeSession{token: "stale"}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			http.Error(w, "expired", http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	},
		WithSession(session),
		WithRefresher(&fakeRefresher{token: "fresh"}),
	)

	if _, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/ping"}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(session.writes) != 1 || session.writes[0] != "fresh" {
		t.Errorf("session writes = %v, want [fresh]", session.writes)
	}
}

func TestDoSecondUnauthorizedIsTerminal(t *testing.T) {
	var attempts atomic.Int32
	refresher := &fakeRefresher{token: "fresh"}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "nope", http.StatusUnauthorized)
	},
		WithSession(&fakeSession{token: "stale"}),
		WithRefresher(refresher),
	)

	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/ping"})

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want HTTPError with status 401", err)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
	if refresher.calls != 1 {
		t.Errorf("refresh calls = %d, want 1", refresher.calls)
	}
}

func TestDoNoRetryWhenRefreshYieldsNothingNew(t *testing.T) {
	tests := []struct {
		name      string
		refresher *fakeRefresher
	}{
		{name: "refresh fails", refresher: &fakeRefresher{err: errors.New("auth service down")}},
		{name: "same token", refresher: &fakeRefresher{token: "stale"}},
		{name: "empty token", refresher: &fakeRefresher{token: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				http.Error(w, "nope", http.StatusUnauthorized)
			},
				WithSession(&fakeSession{token: "stale"}),
				WithRefresher(tt.refresher),
			)

			_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/ping"})

			var httpErr *HTTPError
			if !errors.As(err, &httpErr) || httpErr.Status != http.StatusUnauthorized {
				t.Fatalf("err = %v, want HTTPError with status 401", err)
			}
			if got := attempts.Load(); got != 1 {
				t.Errorf("attempts = %d, want 1", got)
			}
		})
	}
}

func TestDoRequestHeaders(t *testing.T) {
	var got http.Header
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}, WithSession(&fakeSession{token: "tok"}))

	_, err := client.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/posts",
		Body:   `{"text":"hi"}`,
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	for header, want := range map[string]string{
		"Accept":           "application/json",
		"X-Requested-With": "XMLHttpRequest",
		"Content-Type":     "application/json",
		"Authorization":    "Bearer tok",
	} {
		if got.Get(header) != want {
			t.Errorf("%s = %q, want %q", header, got.Get(header), want)
		}
	}
	if got.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
}

func TestDoHeaderDefaults(t *testing.T) {
	var got http.Header
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := client.Do(context.Background(), Request{
		Method:  http.MethodPost,
		Path:    "/upload",
		Body:    "raw bytes",
		Headers: map[string]string{"Content-Type": "application/octet-stream"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	// Explicit content type wins over the JSON default.
	if ct := got.Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("Content-Type = %q, want application/octet-stream", ct)
	}
	// No session: no Authorization header at all.
	if auth := got.Get("Authorization"); auth != "" {
		t.Errorf("Authorization = %q, want empty", auth)
	}
}

func TestDoPayloadByContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantJSON    bool
	}{
		{name: "json object", contentType: "application/json", body: `{"id":"u1"}`, wantJSON: true},
		{name: "json with charset", contentType: "application/json; charset=utf-8", body: `[1,2]`, wantJSON: true},
		{name: "problem json", contentType: "application/problem+json", body: `{}`, wantJSON: true},
		{name: "plain text", contentType: "text/plain", body: "OK", wantJSON: false},
		{name: "no content type", contentType: "", body: "OK", wantJSON: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				} else {
					// Suppress net/http content sniffing.
					w.Header()["Content-Type"] = nil
				}
				fmt.Fprint(w, tt.body)
			})

			payload, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
			if err != nil {
				t.Fatalf("Do: %v", err)
			}
			if payload.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON = %v, want %v", payload.IsJSON(), tt.wantJSON)
			}
			if payload.Text() != tt.body {
				t.Errorf("Text = %q, want %q", payload.Text(), tt.body)
			}
		})
	}
}

func TestDoMalformedJSONResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"broken":`)
	})

	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("err = %v, want ErrInvalidResponse", err)
	}
}

func TestDoErrorCarriesStatusAndBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *HTTPError", err)
	}
	if httpErr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", httpErr.Status)
	}
	if want := "HTTP 500: boom\n"; httpErr.Error() != want {
		t.Errorf("Error() = %q, want %q", httpErr.Error(), want)
	}
}

func TestDoNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}); err == nil {
		t.Fatal("expected error for unreachable server")
	}
}
