package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestParseCSRFMeta(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "head meta",
			page: `<html><head><meta charset="utf-8"><meta name="csrf-token" content="abc123"></head><body></body></html>`,
			want: "abc123",
		},
		{
			name: "case insensitive name",
			page: `<meta NAME="CSRF-Token" content="xyz">`,
			want: "xyz",
		},
		{
			name: "first wins",
			page: `<meta name="csrf-token" content="one"><meta name="csrf-token" content="two">`,
			want: "one",
		},
		{
			name: "missing",
			page: `<html><head><title>Brotherhood</title></head></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCSRFMeta(strings.NewReader(tt.page))
			if err != nil {
				t.Fatalf("ParseCSRFMeta() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCSRFMeta() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMetaTagCSRF_FetchesOnceUntilReset(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `<html><head><meta name="csrf-token" content="page-token"></head></html>`)
	}))
	defer server.Close()

	src := NewMetaTagCSRF(server.URL, server.Client())
	for range 3 {
		got, err := src.Token(context.Background())
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if got != "page-token" {
			t.Errorf("Token() = %q, want %q", got, "page-token")
		}
	}
	if calls.Load() != 1 {
		t.Errorf("page fetches = %d, want 1", calls.Load())
	}

	src.Reset()
	if _, err := src.Token(context.Background()); err != nil {
		t.Fatalf("Token() after Reset error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("page fetches after Reset = %d, want 2", calls.Load())
	}
}

func TestMetaTagCSRF_PageError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := NewMetaTagCSRF(server.URL, nil)
	if _, err := src.Token(context.Background()); err == nil {
		t.Error("Token() error = nil, want error for a failing page")
	}
}

func TestClient_CSRFSourceFailureSendsNoHeader(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer page.Close()

	var present bool
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header[HeaderCSRFToken]
	}))
	defer api.Close()

	env := newTestEnv(t, api.URL, "/feed", WithCSRFSource(NewMetaTagCSRF(page.URL, nil)))
	if _, err := env.client.Do(context.Background(), &Request{Method: http.MethodPost, URL: "/x"}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if present {
		t.Error("X-CSRF-Token sent although the source failed")
	}
}

func TestClient_CSRFPageSharesSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "sess-1", Path: "/"})
	})
	// The token is bound to the session: without the cookie the page has none.
	mux.HandleFunc("GET /page", func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie("access_token"); err == nil {
			token = "token-for-" + c.Value
		}
		io.WriteString(w, `<html><head><meta name="csrf-token" content="`+token+`"></head></html>`)
	})
	var got atomic.Value
	mux.HandleFunc("POST /posts", func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get(HeaderCSRFToken))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	env := newTestEnv(t, server.URL, "/feed", WithCSRFPage(server.URL+"/page"))
	ctx := context.Background()
	if _, err := env.client.Do(ctx, &Request{Method: http.MethodPost, URL: "/auth/login"}); err != nil {
		t.Fatalf("login Do() error = %v", err)
	}
	if _, err := env.client.Do(ctx, &Request{Method: http.MethodPost, URL: "/posts"}); err != nil {
		t.Fatalf("posts Do() error = %v", err)
	}
	if token, _ := got.Load().(string); token != "token-for-sess-1" {
		t.Errorf("X-CSRF-Token = %q, want %q", token, "token-for-sess-1")
	}
}

func TestClient_CSRFSourceOverridesPage(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:0", "/feed",
		WithCSRFPage("http://127.0.0.1:0/page"), WithCSRFSource(StaticCSRF("fixed")))
	if _, ok := env.client.csrf.(StaticCSRF); !ok {
		t.Errorf("csrf source = %T, want StaticCSRF", env.client.csrf)
	}
}
