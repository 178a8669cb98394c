package fortnite

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_StatsByName(t *testing.T) {
	var gotAuth, gotAccept, gotPath, gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		gotName = r.URL.Query().Get("name")
		w.Write([]byte(`{"status":200,"data":{"account":{"name":"Some One"}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, " secret-key ")
	env, err := c.StatsByName(context.Background(), "Some One")
	if err != nil {
		t.Fatalf("StatsByName: %v", err)
	}

	if gotAuth != "secret-key" {
		t.Errorf("Authorization = %q, want raw key without scheme", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotPath != "/v2/stats/br/v2" {
		t.Errorf("path = %q", gotPath)
	}
	if gotName != "Some One" {
		t.Errorf("name = %q", gotName)
	}
	if env.Status != 200 || !env.HasData() {
		t.Errorf("envelope = %+v", env)
	}
}

func TestClient_StatsByAccountID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"status":200,"data":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "k")
	if _, err := c.StatsByAccountID(context.Background(), "abc123"); err != nil {
		t.Fatalf("StatsByAccountID: %v", err)
	}
	if gotPath != "/v2/stats/br/v2/abc123" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestClient_EmbeddedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":400,"error":"Invalid account"}`))
	}))
	defer srv.Close()

	env, err := NewClient(srv.URL, "k").StatsByName(context.Background(), "x")
	if err != nil {
		t.Fatalf("StatsByName: %v", err)
	}
	if env.Status != 400 || env.Error != "Invalid account" || env.HasData() {
		t.Errorf("envelope = %+v", env)
	}
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr func(error) bool
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   "boom",
			wantErr: func(err error) bool {
				var se *StatusError
				return errors.As(err, &se) && se.StatusCode == 500
			},
		},
		{
			name:   "client error without envelope",
			status: http.StatusNotFound,
			body:   "404 page not found",
			wantErr: func(err error) bool {
				var se *StatusError
				return errors.As(err, &se) && se.StatusCode == 404
			},
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			wantErr: func(err error) bool { return errors.Is(err, ErrRateLimited) },
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    "<html>",
			wantErr: func(err error) bool { return errors.Is(err, ErrMalformedResponse) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "k", WithRateLimitPause(0))
			env, err := c.StatsByName(context.Background(), "x")
			if env != nil {
				t.Errorf("envelope = %+v, want nil", env)
			}
			if !tt.wantErr(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestClient_ClientErrorEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "unknown account",
			status:     http.StatusNotFound,
			body:       `{"status":404,"error":"the requested account does not exist"}`,
			wantStatus: 404,
			wantError:  "the requested account does not exist",
		},
		{
			name:       "private account without embedded status",
			status:     http.StatusForbidden,
			body:       `{"error":"the requested profile is private"}`,
			wantStatus: 403,
			wantError:  "the requested profile is private",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			env, err := NewClient(srv.URL, "k").StatsByName(context.Background(), "ghost")
			if err != nil {
				t.Fatalf("err = %v, want envelope", err)
			}
			if env.Status != tt.wantStatus || env.Error != tt.wantError {
				t.Errorf("envelope = %+v", env)
			}
		})
	}
}

func TestClient_RateLimitPause(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", WithRateLimitPause(50*time.Millisecond))
	start := time.Now()
	_, err := c.StatsByName(context.Background(), "x")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("returned after %v, want at least the pause", elapsed)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", calls)
	}
}
