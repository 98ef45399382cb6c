package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchSetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	data, err := Fetch(context.Background(), srv.URL, FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("Fetch() = %q, want ok", data)
	}
	if !strings.HasPrefix(gotUA, UserAgentName+"/") {
		t.Errorf("User-Agent = %q, want prefix %s/", gotUA, UserAgentName)
	}
}

func TestFetchAnonymousStripsCredentials(t *testing.T) {
	var auth, cookie, custom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		cookie = r.Header.Get("Cookie")
		custom = r.Header.Get("X-Trace")
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.URL, FetchOptions{
		Anonymous: true,
		Headers: map[string]string{
			"Authorization": "Bearer secret",
			"Cookie":        "session=1",
			"X-Trace":       "abc",
		},
	})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if auth != "" || cookie != "" {
		t.Errorf("credentials leaked: Authorization=%q Cookie=%q", auth, cookie)
	}
	if custom != "abc" {
		t.Errorf("X-Trace = %q, want abc", custom)
	}
}

func TestFetchUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var called string
	_, err := Fetch(context.Background(), srv.URL, FetchOptions{
		OnUnauthorized: func(url string) { called = url },
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Fetch() error = %v, want ErrUnauthorized", err)
	}
	if called != srv.URL {
		t.Errorf("OnUnauthorized called with %q, want %q", called, srv.URL)
	}
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := Fetch(context.Background(), srv.URL, FetchOptions{})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Fetch() error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("404 should not match ErrUnauthorized")
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := Fetch(context.Background(), srv.URL, FetchOptions{Timeout: 50 * time.Millisecond})
	if err == nil {
		t.Fatal("Fetch() expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Fetch() took %v, want bounded by timeout", elapsed)
	}
}

func TestFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q, want application/json", r.Header.Get("Accept"))
		}
		_, _ = w.Write([]byte(`{"id": 25, "name": "pikachu"}`))
	}))
	defer srv.Close()

	var got struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := FetchJSON(context.Background(), srv.URL, FetchOptions{}, &got); err != nil {
		t.Fatalf("FetchJSON() error: %v", err)
	}
	if got.ID != 25 || got.Name != "pikachu" {
		t.Errorf("FetchJSON() = %+v", got)
	}
}

func TestFetchJSONInvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var v map[string]any
	if err := FetchJSON(context.Background(), srv.URL, FetchOptions{}, &v); err == nil {
		t.Error("FetchJSON() expected decode error")
	}
}
