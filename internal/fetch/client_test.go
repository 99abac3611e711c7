package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetch_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer ts.Close()

	c := New(Config{})
	resp, err := c.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != "<html></html>" {
		t.Errorf("Body = %q, want %q", resp.Body, "<html></html>")
	}
	if resp.Header.Get("Content-Type") != "text/html" {
		t.Errorf("Content-Type = %q, want text/html", resp.Header.Get("Content-Type"))
	}
}

func TestFetch_DoesNotFollowRedirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			w.Header().Set("Location", "/new")
			w.WriteHeader(http.StatusMovedPermanently)
			return
		}
		t.Errorf("redirect target %s was fetched, want no auto-follow", r.URL.Path)
	}))
	defer ts.Close()

	c := New(Config{})
	resp, err := c.Fetch(context.Background(), ts.URL+"/old")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if resp.StatusCode != http.StatusMovedPermanently {
		t.Fatalf("StatusCode = %d, want 301", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "/new" {
		t.Errorf("Location = %q, want /new", got)
	}
}

func TestFetch_PreservesErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer ts.Close()

	c := New(Config{})
	resp, err := c.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
	}
}
