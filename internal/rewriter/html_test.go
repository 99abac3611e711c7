package rewriter

import (
	"strings"
	"testing"
)

// identityResolve rewrites every URL to itself, useful for tests that only
// care about which attributes get visited.
func identityResolve(seen *[]string) Resolve {
	return func(raw string) (string, bool) {
		*seen = append(*seen, raw)
		return raw, true
	}
}

func TestRewrite_HrefAndSrc(t *testing.T) {
	var seen []string
	out, err := Rewrite(`<a href="/a">A</a><img src="/b.png"><script src="/c.js"></script>`, identityResolve(&seen))
	if err != nil {
		t.Fatalf("Rewrite() error: %v", err)
	}
	want := []string{"/a", "/b.png", "/c.js"}
	if !equalSlices(seen, want) {
		t.Errorf("visited URLs = %v, want %v", seen, want)
	}
	if !strings.Contains(out, `href="/a"`) {
		t.Errorf("output missing rewritten href: %s", out)
	}
}

func TestRewrite_RejectedLeavesAttributeUnchanged(t *testing.T) {
	resolve := func(raw string) (string, bool) {
		if raw == "javascript:void(0)" {
			return "", false
		}
		return "/rewritten", true
	}

	out, err := Rewrite(`<a href="javascript:void(0)">x</a>`, resolve)
	if err != nil {
		t.Fatalf("Rewrite() error: %v", err)
	}
	if !strings.Contains(out, `href="javascript:void(0)"`) {
		t.Errorf("rejected href was rewritten: %s", out)
	}
}

func TestRewrite_Srcset(t *testing.T) {
	resolve := func(raw string) (string, bool) {
		return "../p/" + raw, true
	}

	out, err := Rewrite(`<img srcset="a.png 1x, b.png 2x">`, resolve)
	if err != nil {
		t.Fatalf("Rewrite() error: %v", err)
	}
	if !strings.Contains(out, `srcset="../p/a.png 1x,../p/b.png 2x"`) {
		t.Errorf("srcset rewrite = %s, want ../p/a.png 1x,../p/b.png 2x", out)
	}
}

func TestRewrite_SrcsetDropsPartsWithoutDescriptor(t *testing.T) {
	resolve := func(raw string) (string, bool) { return raw, true }

	out, err := Rewrite(`<img srcset="a.png, b.png 2x">`, resolve)
	if err != nil {
		t.Fatalf("Rewrite() error: %v", err)
	}
	if !strings.Contains(out, `srcset="b.png 2x"`) {
		t.Errorf("srcset rewrite = %s, want only b.png 2x to survive", out)
	}
	if strings.Contains(out, "a.png,") {
		t.Errorf("srcset rewrite kept descriptor-less part: %s", out)
	}
}

func TestRewrite_IgnoresUnrelatedTags(t *testing.T) {
	var seen []string
	out, err := Rewrite(`<div data-src="/ignored"><p>hi</p></div>`, identityResolve(&seen))
	if err != nil {
		t.Fatalf("Rewrite() error: %v", err)
	}
	if len(seen) != 0 {
		t.Errorf("visited URLs = %v, want none", seen)
	}
	if !strings.Contains(out, "hi") {
		t.Errorf("output lost text content: %s", out)
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
