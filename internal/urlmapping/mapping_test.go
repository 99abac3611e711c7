package urlmapping

import "testing"

func TestSingleOrigin(t *testing.T) {
	m := SingleOrigin{SourceOrigin: "https://upstream.local"}

	res, ok := m.Resolve("/about")
	if !ok {
		t.Fatal("Resolve() = not ok, want ok")
	}
	if want := "https://upstream.local/about"; res.FetchURL != want {
		t.Errorf("FetchURL = %q, want %q", res.FetchURL, want)
	}
	if got := m.KnownOrigins(); len(got) != 1 || got[0] != "https://upstream.local" {
		t.Errorf("KnownOrigins() = %v", got)
	}
}

func TestComposite_RuleMatch(t *testing.T) {
	m := Composite{
		Rules: []Rule{
			{Prefix: "/blog", Origin: "https://blog.upstream"},
		},
		Default: SingleOrigin{SourceOrigin: "https://main.upstream"},
	}

	res, ok := m.Resolve("/blog/post-1")
	if !ok {
		t.Fatal("Resolve(/blog/post-1) = not ok")
	}
	if want := "https://blog.upstream/post-1"; res.FetchURL != want {
		t.Errorf("FetchURL = %q, want %q", res.FetchURL, want)
	}
}

func TestComposite_FallsBackToDefault(t *testing.T) {
	m := Composite{
		Rules:   []Rule{{Prefix: "/blog", Origin: "https://blog.upstream"}},
		Default: SingleOrigin{SourceOrigin: "https://main.upstream"},
	}

	res, ok := m.Resolve("/about")
	if !ok {
		t.Fatal("Resolve(/about) = not ok")
	}
	if want := "https://main.upstream/about"; res.FetchURL != want {
		t.Errorf("FetchURL = %q, want %q", res.FetchURL, want)
	}
}

func TestComposite_NoDefaultMeansIgnored(t *testing.T) {
	m := Composite{Rules: []Rule{{Prefix: "/blog", Origin: "https://blog.upstream"}}}

	if _, ok := m.Resolve("/about"); ok {
		t.Error("Resolve(/about) = ok, want ignored")
	}
}

func TestComposite_KnownOrigins(t *testing.T) {
	m := Composite{
		Rules:   []Rule{{Prefix: "/blog", Origin: "https://blog.upstream"}},
		Default: SingleOrigin{SourceOrigin: "https://main.upstream"},
	}

	got := m.KnownOrigins()
	want := []string{"https://blog.upstream", "https://main.upstream"}
	if len(got) != len(want) {
		t.Fatalf("KnownOrigins() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("KnownOrigins()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
