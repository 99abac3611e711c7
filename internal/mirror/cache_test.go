package mirror

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCalcFilePath_IndexConvention(t *testing.T) {
	c := New("/out")

	cases := []struct {
		url  string
		want string
	}{
		{"https://site.example/", filepath.Join("/out", "localhost", "index.html")},
		{"https://site.example/about", filepath.Join("/out", "localhost", "about", "index.html")},
		{"https://site.example/css/main.css", filepath.Join("/out", "localhost", "css", "main.css")},
		{"http://site.example:8080/a/b", filepath.Join("/out", "localhost", "a", "b", "index.html")},
	}

	for _, tc := range cases {
		got, err := c.CalcFilePath(tc.url)
		if err != nil {
			t.Fatalf("CalcFilePath(%q) error: %v", tc.url, err)
		}
		if got != tc.want {
			t.Errorf("CalcFilePath(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestAddToCache_OnlyPersists200(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	if err := c.AddToCache("https://site.example/missing", 404, []byte("nope")); err != nil {
		t.Fatalf("AddToCache(404) error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "localhost", "missing")); !os.IsNotExist(err) {
		t.Fatal("AddToCache(404) wrote a file, want no-op")
	}

	if err := c.AddToCache("https://site.example/about", 200, []byte("hello")); err != nil {
		t.Fatalf("AddToCache(200) error: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "localhost", "about", "index.html"))
	if err != nil {
		t.Fatalf("reading persisted file: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("persisted body = %q, want %q", got, "hello")
	}
}

func TestHasInCache(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	if entry, err := c.HasInCache("https://site.example/about"); err != nil || entry != nil {
		t.Fatalf("HasInCache before write = (%v, %v), want (nil, nil)", entry, err)
	}

	if err := c.AddToCache("https://site.example/about", 200, []byte("x")); err != nil {
		t.Fatalf("AddToCache() error: %v", err)
	}

	entry, err := c.HasInCache("https://site.example/about")
	if err != nil {
		t.Fatalf("HasInCache() error: %v", err)
	}
	if entry == nil {
		t.Fatal("HasInCache() = nil after write, want entry")
	}
	if entry.FilePath == "" {
		t.Error("entry.FilePath is empty")
	}
}

func TestBuildRelocatableURL(t *testing.T) {
	cases := []struct {
		name    string
		current string
		target  string
		want    string
	}{
		{
			name:    "root page to root-sibling",
			current: "https://mirror.local/",
			target:  "https://mirror.local/bar",
			want:    "bar/index.html",
		},
		{
			name:    "two levels deep",
			current: "https://mirror.local/a/b/",
			target:  "https://mirror.local/x.png",
			want:    "../../x.png",
		},
		{
			name:    "srcset sibling resource",
			current: "https://mirror.local/p/",
			target:  "https://mirror.local/p/a.png",
			want:    "../p/a.png",
		},
		{
			name:    "same page",
			current: "https://mirror.local/a/",
			target:  "https://mirror.local/a/",
			want:    "a/index.html",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildRelocatableURL("https://mirror.local", tc.current, tc.target)
			if got != tc.want {
				t.Errorf("BuildRelocatableURL(%q, %q) = %q, want %q", tc.current, tc.target, got, tc.want)
			}
		})
	}
}
