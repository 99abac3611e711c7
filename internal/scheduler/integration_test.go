package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tariktz/webmirror/internal/fetch"
	"github.com/tariktz/webmirror/internal/logging"
	"github.com/tariktz/webmirror/internal/mirror"
	"github.com/tariktz/webmirror/internal/urlmapping"
	"github.com/tariktz/webmirror/internal/urlpipeline"
)

// TestMirror_SmallSiteEndToEnd exercises a tiny multi-page, multi-resource
// site through the full scheduler pipeline and verifies the resulting
// on-disk tree, in the style of gopherseo's and cametumbling's end-to-end
// integration tests.
func TestMirror_SmallSiteEndToEnd(t *testing.T) {
	var mux http.ServeMux
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>
			<a href="/about">About</a>
			<link href="/css/site.css">
			<img src="/img/logo.png">
		</body></html>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><a href="/">Home</a></body></html>`))
	})
	mux.HandleFunc("/css/site.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		w.Write([]byte(`body { background: url(../img/bg.png); }`))
	})
	mux.HandleFunc("/img/logo.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("LOGO"))
	})
	mux.HandleFunc("/img/bg.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("BG"))
	})
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	dir := t.TempDir()
	pipeline, err := urlpipeline.New(urlpipeline.Config{OutputOrigin: srv.URL})
	if err != nil {
		t.Fatalf("urlpipeline.New() error: %v", err)
	}

	sched := New(Config{
		OutputOrigin:       srv.URL,
		RequireRelocatable: true,
		Fetcher:            fetch.New(fetch.Config{}),
		Pipeline:           pipeline,
		Cache:              mirror.New(dir),
		Mapping:            urlmapping.SingleOrigin{SourceOrigin: srv.URL},
		Logger:             logging.Discard(),
	})

	sched.Run(context.Background(), srv.URL + "/", nil)

	wantFiles := []string{
		filepath.Join(dir, "localhost", "index.html"),
		filepath.Join(dir, "localhost", "about", "index.html"),
		filepath.Join(dir, "localhost", "css", "site.css"),
		filepath.Join(dir, "localhost", "img", "logo.png"),
		filepath.Join(dir, "localhost", "img", "bg.png"),
	}
	for _, f := range wantFiles {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("expected mirrored file at %s: %v", f, err)
		}
	}

	indexBytes, err := os.ReadFile(filepath.Join(dir, "localhost", "index.html"))
	if err != nil {
		t.Fatalf("reading index.html: %v", err)
	}
	index := string(indexBytes)
	if !strings.Contains(index, `href="about/index.html"`) {
		t.Errorf("index.html href not rewritten relocatably: %s", index)
	}
	if !strings.Contains(index, `href="css/site.css"`) {
		t.Errorf("index.html link href not rewritten relocatably: %s", index)
	}
	if !strings.Contains(index, `src="img/logo.png"`) {
		t.Errorf("index.html img src not rewritten relocatably: %s", index)
	}

	if sched.PagesOK != 2 {
		t.Errorf("PagesOK = %d, want 2 (index, about)", sched.PagesOK)
	}
	if sched.ResourcesOK != 3 {
		t.Errorf("ResourcesOK = %d, want 3 (css, logo, bg)", sched.ResourcesOK)
	}
}
