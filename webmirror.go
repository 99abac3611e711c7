// Package webmirror mirrors a live website to a local filesystem tree:
// it walks pages starting at an entry URL, fetches linked pages and
// resources, rewrites discovered references so the result opens correctly
// via file://, and persists everything under an output directory.
//
// The crawl is strictly single-threaded and cooperative — see
// WebSiteCrawler.Start — so all of a crawler's hooks run on the calling
// goroutine, in traversal order, with no need for locking.
package webmirror

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tariktz/webmirror/internal/fetch"
	"github.com/tariktz/webmirror/internal/logging"
	"github.com/tariktz/webmirror/internal/mirror"
	"github.com/tariktz/webmirror/internal/scheduler"
	"github.com/tariktz/webmirror/internal/sorttools"
	"github.com/tariktz/webmirror/internal/urlmapping"
	"github.com/tariktz/webmirror/internal/urlpipeline"
)

// UrlSortTools is re-exported so embedders implementing SortPagesToDownload
// don't need to import the internal package directly.
type UrlSortTools = sorttools.Tools

// Result describes the outcome of a single fetch, passed to
// OnPageFullyDownloaded and OnResourceDownloaded.
type Result struct {
	// Status is one of "OK", "REDIRECTED", "ERROR", "IGNORED".
	Status     string
	StatusCode int
	RetryCount int
}

// Mapping resolves a mirror-local path into an upstream fetch target,
// enabling one mirror to compose several upstream origins. See
// urlmapping.SingleOrigin and urlmapping.Composite for ready-made
// implementations.
type Mapping = urlmapping.Mapping

// Options configures a WebSiteCrawler. Every field is optional; zero values
// fall back to the documented defaults.
type Options struct {
	// RequiredPrefix gates admission to URLs starting with this
	// (case-insensitive) prefix. Defaults to the output origin.
	RequiredPrefix string
	// OutputDir, if set, enables filesystem mirror persistence rooted here.
	OutputDir string
	// RequireRelocatableURL rewrites output links to relative "../" form
	// so the mirror opens via file:// without a server. Default true.
	RequireRelocatableURL *bool
	// RewriteThisURLs lists foreign-origin prefixes that get rewritten
	// onto the output origin.
	RewriteThisURLs []string
	// ForbiddenURLs lists prefixes to admit but never fetch.
	ForbiddenURLs []string
	// ScanThisURLs lists extra URLs injected into the entry group's stack.
	ScanThisURLs []string
	// URLMapping resolves mirror-local paths to upstream fetch targets.
	// Defaults to a SingleOrigin mapping onto the source website.
	URLMapping Mapping
	// NewWebsiteURL is the output site origin, if different from the
	// source website passed to New.
	NewWebsiteURL string
	// PauseDuration is inserted before every fetch. Default 0.
	PauseDuration time.Duration
	// UserAgent is sent on every request.
	UserAgent string
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
	// Logger receives write failures, retry/redirect notices and the
	// crawl summary. Defaults to a logger that discards everything.
	Logger logging.Logger

	OnURL                     func(localURL, fetchURL string)
	OnHTML                    func(htmlText, localURL, fetchURL string) string
	TransformURL              func(rawURL, comeFromPage string, requireRelocatable bool) string
	CanIgnoreIfAlreadyCrawled func(partialURL string, addedDate time.Time, sourceURL string) bool
	CanDownload               func(rawURL string, isResource bool) bool
	OnInvalidResponseCodeFound func(rawURL string, retryCount int, statusCode int) bool
	OnPageFullyDownloaded     func(rawURL string, result Result) bool
	OnResourceDownloaded      func(rawURL string, result Result)
	SortPagesToDownload       func(tools *UrlSortTools) *UrlSortTools
}

// WebSiteCrawler mirrors one website. Build one with New, then call Start.
// A WebSiteCrawler is not safe for concurrent use — the crawl is
// single-threaded by design (see package docs) — and Start is reentrant
// only in the sense that a second call while running is a no-op.
type WebSiteCrawler struct {
	sourceOrigin string
	outputOrigin string
	opts         Options
	pipeline     *urlpipeline.Pipeline
	logger       logging.Logger

	mu        sync.Mutex
	isStarted bool
}

// New builds a WebSiteCrawler for sourceWebsite, a valid absolute URL. If
// opts.NewWebsiteURL differs from sourceWebsite's origin, sourceWebsite's
// origin is auto-added to RewriteThisURLs so source-origin links get
// rewritten onto the mirror.
func New(sourceWebsite string, opts Options) (*WebSiteCrawler, error) {
	sourceOrigin, err := sourceOriginOf(sourceWebsite)
	if err != nil {
		return nil, fmt.Errorf("webmirror: %q is not a valid absolute URL", sourceWebsite)
	}

	outputOrigin := sourceOrigin
	if opts.NewWebsiteURL != "" {
		outputOrigin, err = sourceOriginOf(opts.NewWebsiteURL)
		if err != nil {
			return nil, fmt.Errorf("webmirror: NewWebsiteURL %q is not a valid absolute URL", opts.NewWebsiteURL)
		}
	}

	rewriteThisURLs := append([]string{}, opts.RewriteThisURLs...)
	if outputOrigin != sourceOrigin {
		rewriteThisURLs = append(rewriteThisURLs, sourceOrigin)
	}
	if opts.URLMapping != nil {
		rewriteThisURLs = append(rewriteThisURLs, opts.URLMapping.KnownOrigins()...)
	}

	pipeline, err := urlpipeline.New(urlpipeline.Config{
		OutputOrigin:    outputOrigin,
		RequiredPrefix:  opts.RequiredPrefix,
		RewriteThisURLs: rewriteThisURLs,
		ForbiddenURLs:   opts.ForbiddenURLs,
	})
	if err != nil {
		return nil, fmt.Errorf("webmirror: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &WebSiteCrawler{
		sourceOrigin: sourceOrigin,
		outputOrigin: outputOrigin,
		opts:         opts,
		pipeline:     pipeline,
		logger:       logger,
	}, nil
}

// ForbidURLFrom adds prefix to the forbidden list at runtime.
func (c *WebSiteCrawler) ForbidURLFrom(prefix string) {
	c.pipeline.ForbidURLFrom(prefix)
}

// Summary reports counters from the most recently completed Start call.
type Summary struct {
	Pages     int
	Resources int
	Errors    int
	Redirects int
	Retries   int
	Duration  time.Duration
}

// Start begins traversal at entryPoint (defaults to the output origin),
// with any ScanThisURLs injected into that entry's initial group stack. It
// returns when the queue drains or a hook halts the loop. A second
// concurrent or nested call is a no-op and returns a zero Summary, per the
// is_started reentrancy guard.
func (c *WebSiteCrawler) Start(ctx context.Context, entryPoint string) Summary {
	c.mu.Lock()
	if c.isStarted {
		c.mu.Unlock()
		return Summary{}
	}
	c.isStarted = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.isStarted = false
		c.mu.Unlock()
	}()

	if entryPoint == "" {
		entryPoint = c.outputOrigin
	}

	var cache *mirror.Cache
	if c.opts.OutputDir != "" {
		cache = mirror.New(c.opts.OutputDir)
	}

	mapping := c.opts.URLMapping
	if mapping == nil {
		mapping = urlmapping.SingleOrigin{SourceOrigin: c.sourceOrigin}
	}

	requireRelocatable := true
	if c.opts.RequireRelocatableURL != nil {
		requireRelocatable = *c.opts.RequireRelocatableURL
	}

	sched := scheduler.New(scheduler.Config{
		OutputOrigin:       c.outputOrigin,
		RequireRelocatable: requireRelocatable,
		PauseDuration:      c.opts.PauseDuration,
		Fetcher: fetch.New(fetch.Config{
			Timeout:   c.opts.Timeout,
			UserAgent: c.opts.UserAgent,
		}),
		Pipeline: c.pipeline,
		Cache:    cache,
		Mapping:  mapping,
		Logger:   c.logger,
		Hooks:    c.buildHooks(),
	})

	start := time.Now()
	sched.Run(ctx, entryPoint, c.opts.ScanThisURLs)
	elapsed := time.Since(start)

	c.logger.Infof("mirror complete: %d pages, %d resources, %d errors, %d redirects in %s",
		sched.PagesOK, sched.ResourcesOK, sched.Errors, sched.Redirects, elapsed)

	return Summary{
		Pages:     sched.PagesOK,
		Resources: sched.ResourcesOK,
		Errors:    sched.Errors,
		Redirects: sched.Redirects,
		Retries:   sched.RetriesUsed,
		Duration:  elapsed,
	}
}

// buildHooks translates Options' hooks into scheduler.Hooks, wrapping the
// status-code translation needed for the Result type at this layer's
// boundary.
func (c *WebSiteCrawler) buildHooks() scheduler.Hooks {
	return scheduler.Hooks{
		OnURL:                     c.opts.OnURL,
		OnHTML:                    c.opts.OnHTML,
		TransformURL:              c.opts.TransformURL,
		CanIgnoreIfAlreadyCrawled: c.opts.CanIgnoreIfAlreadyCrawled,
		CanDownload:               c.opts.CanDownload,
		OnInvalidResponseCode:     c.opts.OnInvalidResponseCodeFound,
		OnPageFullyDownloaded:     wrapPageHook(c.opts.OnPageFullyDownloaded),
		OnResourceDownloaded:      wrapResourceHook(c.opts.OnResourceDownloaded),
		SortPagesToDownload:       c.opts.SortPagesToDownload,
	}
}

func wrapPageHook(hook func(string, Result) bool) func(string, scheduler.Result) bool {
	if hook == nil {
		return nil
	}
	return func(u string, r scheduler.Result) bool {
		return hook(u, toResult(r))
	}
}

func wrapResourceHook(hook func(string, Result)) func(string, scheduler.Result) {
	if hook == nil {
		return nil
	}
	return func(u string, r scheduler.Result) {
		hook(u, toResult(r))
	}
}

func toResult(r scheduler.Result) Result {
	return Result{
		Status:     scheduler.StatusText(r.Status),
		StatusCode: r.StatusCode,
		RetryCount: r.RetryCount,
	}
}

// sourceOriginOf parses raw and returns its scheme://host origin.
func sourceOriginOf(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("not a valid absolute URL: %q", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}
