// Package urlmapping implements the UrlMapping routing table from
// SPEC_FULL.md §3/§6: a function from a mirror-local path to the
// (possibly different) upstream URL to fetch, enabling one mirror to
// compose several upstream origins.
package urlmapping

import "strings"

// Resolution is what a Mapping returns for a path that is in scope.
type Resolution struct {
	// FetchURL is the upstream URL to actually request.
	FetchURL string
	// WakeUp, if non-nil, is invoked once before the fetch — e.g. to warm
	// up a lazily-started upstream. A non-nil error aborts processing of
	// this URL the same way a fetch error would.
	WakeUp func() error
}

// Mapping resolves a mirror-local path into an upstream fetch target.
// Resolve returns ok=false to mean "IGNORED" per SPEC_FULL.md §4.2 step 2
// — not an error, just out of scope for this mapping.
type Mapping interface {
	Resolve(partialURL string) (Resolution, bool)
	// KnownOrigins lists every upstream origin this mapping can resolve
	// to. Per SPEC_FULL.md §3, these are auto-added to rewrite_this_urls.
	KnownOrigins() []string
}

// SingleOrigin is the default Mapping: every in-scope path is fetched
// straight from one upstream origin, unchanged.
type SingleOrigin struct {
	SourceOrigin string
}

// Resolve implements Mapping.
func (s SingleOrigin) Resolve(partialURL string) (Resolution, bool) {
	return Resolution{FetchURL: s.SourceOrigin + partialURL}, true
}

// KnownOrigins implements Mapping.
func (s SingleOrigin) KnownOrigins() []string {
	return []string{s.SourceOrigin}
}

// Rule routes paths with a given prefix to a given upstream origin, with
// the prefix stripped before concatenation.
type Rule struct {
	Prefix string
	Origin string
}

// Composite tries each Rule in order and falls back to Default (which may
// be nil, meaning "unmapped paths are IGNORED"). This is the multi-origin
// composition mechanism described in SPEC_FULL.md §3.
type Composite struct {
	Rules   []Rule
	Default Mapping
}

// Resolve implements Mapping.
func (c Composite) Resolve(partialURL string) (Resolution, bool) {
	for _, rule := range c.Rules {
		if strings.HasPrefix(partialURL, rule.Prefix) {
			rest := strings.TrimPrefix(partialURL, rule.Prefix)
			return Resolution{FetchURL: rule.Origin + rest}, true
		}
	}
	if c.Default != nil {
		return c.Default.Resolve(partialURL)
	}
	return Resolution{}, false
}

// KnownOrigins implements Mapping.
func (c Composite) KnownOrigins() []string {
	origins := make([]string, 0, len(c.Rules)+1)
	for _, rule := range c.Rules {
		origins = append(origins, rule.Origin)
	}
	if c.Default != nil {
		origins = append(origins, c.Default.KnownOrigins()...)
	}
	return origins
}
