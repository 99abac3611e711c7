// Package urlpipeline normalizes, scopes and deduplicates URLs discovered
// while mirroring a site. It is the admission gate in front of the
// traversal scheduler: nothing reaches the group queue without first
// passing through Pipeline.Push.
package urlpipeline

import (
	"net/url"
	"strings"
)

// forbiddenSchemes lists schemes that are never followed, regardless of
// required_prefix. They show up as "word:" inside a URL with no "://".
var forbiddenSchemes = map[string]struct{}{
	"data":       {},
	"javascript": {},
	"mailto":     {},
	"tel":        {},
	"sms":        {},
	"ftp":        {},
}

// SeenSet tracks every URL ever admitted by a Pipeline. It grows
// monotonically for the lifetime of a crawl and is never pruned.
type SeenSet struct {
	m map[string]struct{}
}

// NewSeenSet returns an empty SeenSet.
func NewSeenSet() *SeenSet {
	return &SeenSet{m: make(map[string]struct{})}
}

// Contains reports whether u has already been admitted.
func (s *SeenSet) Contains(u string) bool {
	_, ok := s.m[u]
	return ok
}

// Add records u as admitted. Adding an already-present URL is a no-op.
func (s *SeenSet) Add(u string) {
	s.m[u] = struct{}{}
}

// Len returns the number of distinct URLs admitted so far.
func (s *SeenSet) Len() int {
	return len(s.m)
}

// PrefixList is an ordered list of URL prefixes, used both for the
// forbidden-URL list and for rewrite_this_urls.
type PrefixList []string

// MatchesAny reports whether u equals or is prefixed by any entry.
func (p PrefixList) MatchesAny(u string) bool {
	for _, prefix := range p {
		if strings.HasPrefix(u, prefix) {
			return true
		}
	}
	return false
}

// Config carries the normalization/scope-filtering knobs a Pipeline needs.
// It is built once from webmirror.Options at crawler construction time.
type Config struct {
	// OutputOrigin is the scheme+host[:port] that every admitted URL must
	// ultimately live under, e.g. "https://mirror.local".
	OutputOrigin string
	// RequiredPrefix gates admission; URLs must start with this
	// (case-insensitively). Defaults to OutputOrigin.
	RequiredPrefix string
	// RewriteThisURLs lists foreign-origin prefixes to rewrite onto
	// OutputOrigin before the RequiredPrefix check runs.
	RewriteThisURLs PrefixList
	// ForbiddenURLs lists prefixes that are admitted to the SeenSet (so
	// they are not repeatedly re-evaluated) but never enqueued for fetch.
	ForbiddenURLs PrefixList
}

// Pipeline is the URL normalization and admission gate described in
// SPEC_FULL.md §4.1. A Pipeline is owned by exactly one scheduler and is
// not safe for concurrent use, matching the single-threaded traversal
// model in §5.
type Pipeline struct {
	outputOrigin    string
	outputScheme    string
	requiredPrefix  string
	requiredPrefix2 string
	rewriteThisURLs PrefixList
	forbiddenURLs   PrefixList
	seen            *SeenSet
}

// New builds a Pipeline from cfg. cfg.OutputOrigin must be a valid absolute
// URL with no path (scheme://host[:port]).
func New(cfg Config) (*Pipeline, error) {
	outputURL, err := url.Parse(cfg.OutputOrigin)
	if err != nil {
		return nil, err
	}

	requiredPrefix := cfg.RequiredPrefix
	if requiredPrefix == "" {
		requiredPrefix = cfg.OutputOrigin
	}

	p := &Pipeline{
		outputOrigin:    cfg.OutputOrigin,
		outputScheme:    outputURL.Scheme,
		requiredPrefix:  requiredPrefix,
		rewriteThisURLs: cfg.RewriteThisURLs,
		forbiddenURLs:   cfg.ForbiddenURLs,
		seen:            NewSeenSet(),
	}
	p.requiredPrefix2 = computeRequiredPrefix2(cfg.RequiredPrefix, outputURL)
	return p, nil
}

// computeRequiredPrefix2 builds the scheme-relative host prefix used only
// to filter "//host/path" URLs, per SPEC_FULL.md §4.1.
func computeRequiredPrefix2(requiredPrefix string, outputURL *url.URL) string {
	if idx := strings.Index(requiredPrefix, ":"); idx >= 0 {
		return strings.ToLower(requiredPrefix[:idx+1])
	}
	return "//" + strings.ToLower(outputURL.Host)
}

// Seen exposes the underlying SeenSet for read access (e.g. metrics,
// testing). Callers must not mutate it directly.
func (p *Pipeline) Seen() *SeenSet {
	return p.seen
}

// ForbidURLFrom adds prefix to the forbidden list at runtime, implementing
// WebSiteCrawler.forbid_url_from from SPEC_FULL.md §6.
func (p *Pipeline) ForbidURLFrom(prefix string) {
	p.forbiddenURLs = append(p.forbiddenURLs, prefix)
}

// CleanUp implements clean_up_url from SPEC_FULL.md §4.1. currentURL is the
// URL of the page or stylesheet the reference was found in, used to resolve
// relative references. It returns ok=false for anything that should be
// silently dropped.
func (p *Pipeline) CleanUp(raw string, isCSS bool, currentURL string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if strings.HasPrefix(s, "#") {
		return "", false
	}

	if !strings.Contains(s, "://") {
		switch {
		case strings.HasPrefix(s, "?"):
			s = stripQuery(currentURL) + s
		case hasForbiddenScheme(s):
			return "", false
		case strings.HasPrefix(s, "//"):
			if !strings.HasPrefix(strings.ToLower(s), p.requiredPrefix2) {
				return "", false
			}
			s = p.outputScheme + ":" + s
		case strings.HasPrefix(s, "/"):
			s = p.outputOrigin + s
		default:
			resolved, ok := resolveRelative(currentURL, s)
			if !ok {
				return "", false
			}
			s = resolved
		}
	} else {
		s = p.rewriteSourceSiteURL(s)
	}

	if !strings.HasPrefix(strings.ToLower(s), strings.ToLower(p.requiredPrefix)) {
		return "", false
	}

	return strings.TrimSpace(s), true
}

// rewriteSourceSiteURL implements rewrite_source_site_url: the first
// RewriteThisURLs prefix that matches has the matched prefix replaced by
// OutputOrigin.
func (p *Pipeline) rewriteSourceSiteURL(u string) string {
	for _, prefix := range p.rewriteThisURLs {
		if strings.HasPrefix(u, prefix) {
			return p.outputOrigin + strings.TrimPrefix(u, prefix)
		}
	}
	return u
}

// PushResult is the outcome of admitting a URL into the crawl.
type PushResult struct {
	// URL is the cleaned, absolute URL, or "" if the raw value was
	// rejected outright by CleanUp.
	URL string
	// Enqueue is true only when URL is newly admitted and not forbidden;
	// the caller should append it to the current group's resource stack.
	Enqueue bool
}

// Push implements push_url from SPEC_FULL.md §4.1.
func (p *Pipeline) Push(raw string, isCSS bool, currentURL string) PushResult {
	cleaned, ok := p.CleanUp(raw, isCSS, currentURL)
	if !ok {
		return PushResult{}
	}
	if p.seen.Contains(cleaned) {
		return PushResult{URL: cleaned}
	}
	p.seen.Add(cleaned)
	// Forbidden prefixes may be absolute or root-relative ("/wp-json").
	if p.forbiddenURLs.MatchesAny(cleaned) || p.forbiddenURLs.MatchesAny(strings.TrimPrefix(cleaned, p.outputOrigin)) {
		return PushResult{URL: cleaned}
	}
	return PushResult{URL: cleaned, Enqueue: true}
}

func hasForbiddenScheme(s string) bool {
	idx := strings.Index(s, ":")
	if idx < 0 {
		return false
	}
	scheme := strings.ToLower(s[:idx])
	_, forbidden := forbiddenSchemes[scheme]
	return forbidden
}

func stripQuery(u string) string {
	if idx := strings.Index(u, "?"); idx >= 0 {
		return u[:idx]
	}
	return u
}

func resolveRelative(base, ref string) (string, bool) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	return baseURL.ResolveReference(refURL).String(), true
}
