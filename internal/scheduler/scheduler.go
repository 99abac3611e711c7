// Package scheduler implements the traversal scheduler described in
// SPEC_FULL.md §4.2: a single-threaded group queue that fetches a page,
// drains its resources, and repeats until the queue is empty or a hook
// halts the loop. It is the component that ties the URL pipeline, the
// mirror cache, the HTML/CSS rewriter, the URL mapping table and the fetch
// client together.
package scheduler

import (
	"context"
	"mime"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/tariktz/webmirror/internal/fetch"
	"github.com/tariktz/webmirror/internal/logging"
	"github.com/tariktz/webmirror/internal/mirror"
	"github.com/tariktz/webmirror/internal/rewriter"
	"github.com/tariktz/webmirror/internal/sorttools"
	"github.com/tariktz/webmirror/internal/urlmapping"
	"github.com/tariktz/webmirror/internal/urlpipeline"
)

// resourceExtensions is the resource extension set from SPEC_FULL.md §6,
// used to partition a drained group's stack into resources and pages.
var resourceExtensions = map[string]bool{
	".css": true, ".js": true, ".jpg": true, ".png": true, ".jpeg": true,
	".gif": true, ".woff": true, ".woff2": true, ".ttf": true, ".txt": true,
	".avif": true,
}

// UrlGroup is one page plus the resource/page URLs discovered while
// processing it, per SPEC_FULL.md §3.
type UrlGroup struct {
	URL   string
	Stack []string
}

// ProcessStatus is the outcome of ProcessURL, per SPEC_FULL.md §4.2.
type ProcessStatus int

const (
	StatusOK ProcessStatus = iota
	StatusRedirected
	StatusError
	StatusIgnored
)

// Result is what a hook receives to describe a completed fetch.
type Result struct {
	Status     ProcessStatus
	StatusCode int
	RetryCount int
}

// Hooks bundles every user callback from SPEC_FULL.md §6. All fields are
// optional; a nil hook means "do the default thing" per the table there.
// Per §9's Decision, every hook is a plain synchronous Go function value —
// there is no separate async variant.
type Hooks struct {
	OnURL                     func(localURL, fetchURL string)
	OnHTML                    func(htmlText, localURL, fetchURL string) string
	TransformURL              func(rawURL, comeFromPage string, requireRelocatable bool) string
	CanIgnoreIfAlreadyCrawled func(partialURL string, addedDate time.Time, sourceURL string) bool
	CanDownload               func(rawURL string, isResource bool) bool
	OnInvalidResponseCode     func(rawURL string, retryCount int, statusCode int) bool
	OnPageFullyDownloaded     func(rawURL string, result Result) bool
	OnResourceDownloaded      func(rawURL string, result Result)
	SortPagesToDownload       func(tools *sorttools.Tools) *sorttools.Tools
}

// Config bundles everything the scheduler needs to run a crawl, built once
// by the top-level webmirror package from user Options.
type Config struct {
	OutputOrigin        string
	RequireRelocatable  bool
	PauseDuration       time.Duration
	Fetcher             *fetch.Client
	Pipeline            *urlpipeline.Pipeline
	Cache               *mirror.Cache // nil disables filesystem persistence
	Mapping             urlmapping.Mapping
	Logger              logging.Logger
	Hooks               Hooks
}

// Scheduler runs the single-threaded traversal loop. It is not safe for
// concurrent use, matching SPEC_FULL.md §5.
type Scheduler struct {
	cfg          Config
	queue        []*UrlGroup
	currentGroup *UrlGroup

	PagesOK       int
	ResourcesOK   int
	Errors        int
	Redirects     int
	RetriesUsed   int
}

// New builds a Scheduler from cfg.
func New(cfg Config) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Scheduler{cfg: cfg}
}

// Run drains the traversal loop described in SPEC_FULL.md §4.2, starting
// from a single initial group built from entryPoint. extraStack is injected
// into that initial group's stack per the scan_this_urls option (§6), so
// those URLs are partitioned alongside whatever the entry page itself
// discovers rather than treated as their own top-level groups. It returns
// when the queue is empty or a hook halts the loop; per §7, fetch/write
// errors never propagate out of Run.
func (s *Scheduler) Run(ctx context.Context, entryPoint string, extraStack []string) {
	entryRes := s.cfg.Pipeline.Push(entryPoint, false, s.cfg.OutputOrigin)
	if entryRes.Enqueue {
		group := &UrlGroup{URL: entryRes.URL}
		for _, extra := range extraStack {
			res := s.cfg.Pipeline.Push(extra, false, s.cfg.OutputOrigin)
			if res.Enqueue {
				group.Stack = append(group.Stack, res.URL)
			}
		}
		s.queue = append(s.queue, group)
	}

	for len(s.queue) > 0 {
		g := s.queue[0]
		s.queue = s.queue[1:]
		if !s.processGroup(ctx, g) {
			return
		}
	}
}

// processGroup implements process_group from SPEC_FULL.md §4.2. It returns
// false when on_page_fully_downloaded signals the traversal should halt.
func (s *Scheduler) processGroup(ctx context.Context, g *UrlGroup) bool {
	s.currentGroup = g

	status, statusCode, retries := s.processURL(ctx, g.URL, false)

	pages, resources := s.partitionStack(g)

	var newGroups []*UrlGroup
	for _, p := range pages {
		if s.cfg.Hooks.CanDownload != nil && !s.cfg.Hooks.CanDownload(p, false) {
			continue
		}
		// Every stack entry was already admitted by the pipeline when it was
		// discovered, so it becomes a group directly.
		ng := &UrlGroup{URL: p}
		s.queue = append(s.queue, ng)
		newGroups = append(newGroups, ng)
	}
	if len(newGroups) > 1 && s.cfg.Hooks.SortPagesToDownload != nil {
		s.reorderQueuedPages(newGroups)
	}

	s.drainResources(ctx, resources)

	result := Result{Status: status, StatusCode: statusCode, RetryCount: retries}
	if s.cfg.Hooks.OnPageFullyDownloaded != nil {
		return s.cfg.Hooks.OnPageFullyDownloaded(g.URL, result)
	}
	return true
}

// reorderQueuedPages runs the groups just appended to s.queue (newGroups)
// through the user's sort hook, then splices the reordered result back into
// the same tail slot, leaving every group queued before them untouched.
func (s *Scheduler) reorderQueuedPages(newGroups []*UrlGroup) {
	urls := make([]string, len(newGroups))
	for i, g := range newGroups {
		urls[i] = g.URL
	}

	tools := s.cfg.Hooks.SortPagesToDownload(sorttools.New(urls))
	if tools == nil {
		return
	}
	ordered := tools.Result()

	byURL := make(map[string]*UrlGroup, len(newGroups))
	for _, g := range newGroups {
		byURL[g.URL] = g
	}

	n := len(s.queue)
	kept := s.queue[:n-len(newGroups)]
	reordered := make([]*UrlGroup, 0, len(ordered))
	for _, u := range ordered {
		if g, ok := byURL[u]; ok {
			reordered = append(reordered, g)
		}
	}
	s.queue = append(kept, reordered...)
}

// partitionStack classifies g.Stack into pages and resources per the
// resource extension set (SPEC_FULL.md §6), consuming the stack.
func (s *Scheduler) partitionStack(g *UrlGroup) (pages, resources []string) {
	for _, u := range g.Stack {
		if isResource(u) {
			resources = append(resources, u)
		} else {
			pages = append(pages, u)
		}
	}
	g.Stack = nil
	return pages, resources
}

// drainResources implements step 5 of process_group: fetch every resource
// in order, re-checking the group's stack after each one since CSS
// processing may push further resources mid-drain.
func (s *Scheduler) drainResources(ctx context.Context, resources []string) {
	for len(resources) > 0 {
		u := resources[0]
		resources = resources[1:]

		if s.cfg.Hooks.CanDownload != nil && !s.cfg.Hooks.CanDownload(u, true) {
			continue
		}

		status, statusCode, retries := s.processURL(ctx, u, true)
		if s.cfg.Hooks.OnResourceDownloaded != nil {
			s.cfg.Hooks.OnResourceDownloaded(u, Result{Status: status, StatusCode: statusCode, RetryCount: retries})
		}

		if len(s.currentGroup.Stack) > 0 {
			newPages, newResources := s.partitionStack(s.currentGroup)
			for _, p := range newPages {
				s.queue = append(s.queue, &UrlGroup{URL: p})
			}
			resources = append(resources, newResources...)
		}
	}
}

// processURL implements process_url from SPEC_FULL.md §4.2. isResourceURL
// only affects which counter a successful fetch is attributed to.
func (s *Scheduler) processURL(ctx context.Context, u string, isResourceURL bool) (ProcessStatus, int, int) {
	partial := strings.TrimPrefix(u, s.cfg.OutputOrigin)

	resolution, ok := s.cfg.Mapping.Resolve(partial)
	if !ok {
		return StatusIgnored, 0, 0
	}

	writerPresent := s.cfg.Cache != nil
	var transformedURL string
	if writerPresent {
		transformedURL = s.transformFoundURL(u, "", false)

		if s.cfg.Hooks.CanIgnoreIfAlreadyCrawled != nil {
			entry, err := s.cfg.Cache.HasInCache(transformedURL)
			if err == nil && entry != nil {
				if s.cfg.Hooks.CanIgnoreIfAlreadyCrawled(partial, entry.AddedDate, u) {
					return StatusIgnored, 0, 0
				}
			}
		}
	}

	if resolution.WakeUp != nil {
		if err := resolution.WakeUp(); err != nil {
			s.cfg.Logger.Warnf("wake_up for %s failed: %v", u, err)
			return StatusError, 0, 0
		}
	}

	if s.cfg.Hooks.OnURL != nil {
		s.cfg.Hooks.OnURL(partial, resolution.FetchURL)
	}

	if s.cfg.PauseDuration > 0 {
		time.Sleep(s.cfg.PauseDuration)
	}

	return s.fetchWithRetry(ctx, u, resolution.FetchURL, isResourceURL)
}

// fetchWithRetry implements step 8 of process_url: the retry/redirect state
// machine, with the exact default backoff sequence (0s, 1s, 2s) called out
// in SPEC_FULL.md §9.
func (s *Scheduler) fetchWithRetry(ctx context.Context, u, fetchURL string, isResourceURL bool) (ProcessStatus, int, int) {
	retryCount := 0
	for {
		resp, err := s.cfg.Fetcher.Fetch(ctx, fetchURL)
		if err != nil {
			s.cfg.Logger.Warnf("fetch %s failed: %v", fetchURL, err)
			if !s.shouldRetry(u, retryCount, 0) {
				s.Errors++
				return StatusError, 0, retryCount
			}
			retryCount++
			s.RetriesUsed++
			continue
		}

		switch {
		case resp.StatusCode == 200:
			s.handleBody(u, resp)
			if isResourceURL {
				s.ResourcesOK++
			} else {
				s.PagesOK++
			}
			return StatusOK, resp.StatusCode, retryCount

		case resp.StatusCode >= 300 && resp.StatusCode < 400:
			s.Redirects++
			if loc := resp.Header.Get("Location"); loc != "" {
				res := s.cfg.Pipeline.Push(loc, false, u)
				if res.Enqueue {
					s.queue = append(s.queue, &UrlGroup{URL: res.URL})
				}
				s.cfg.Logger.Infof("redirect %s -> %s", u, loc)
			}
			return StatusRedirected, resp.StatusCode, retryCount

		default:
			if !s.shouldRetry(u, retryCount, resp.StatusCode) {
				s.Errors++
				return StatusError, resp.StatusCode, retryCount
			}
			s.cfg.Logger.Infof("retrying %s after status %d", fetchURL, resp.StatusCode)
			retryCount++
			s.RetriesUsed++
		}
	}
}

// shouldRetry implements the default retry policy (or the user's override)
// from SPEC_FULL.md §4.2 step 8 / §9: up to 3 retries after the first
// attempt, sleeping 1000*retryCount ms before each.
func (s *Scheduler) shouldRetry(u string, retryCount, statusCode int) bool {
	if s.cfg.Hooks.OnInvalidResponseCode != nil {
		return s.cfg.Hooks.OnInvalidResponseCode(u, retryCount, statusCode)
	}
	if retryCount >= 3 {
		return false
	}
	time.Sleep(time.Duration(1000*retryCount) * time.Millisecond)
	return true
}

// handleBody implements step 9 of process_url: content-type dispatch, then
// persistence through the mirror cache.
func (s *Scheduler) handleBody(u string, resp *fetch.Response) {
	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	body := resp.Body
	switch {
	case strings.HasPrefix(mediaType, "text/html"):
		rewritten, err := rewriter.Rewrite(string(resp.Body), s.makeHTMLResolve(u))
		if err != nil {
			s.cfg.Logger.Warnf("rewriting html for %s: %v", u, err)
		} else {
			body = []byte(rewritten)
			if s.cfg.Hooks.OnHTML != nil {
				partial := strings.TrimPrefix(u, s.cfg.OutputOrigin)
				body = []byte(s.cfg.Hooks.OnHTML(string(body), partial, u))
			}
		}

	case strings.HasPrefix(mediaType, "text/css"):
		for _, ref := range rewriter.ParseCSSUrls(string(resp.Body)) {
			res := s.cfg.Pipeline.Push(ref, true, u)
			if res.Enqueue {
				s.enqueueDiscovered(res.URL)
			}
		}
	}

	if s.cfg.Cache != nil {
		if err := s.cfg.Cache.AddToCache(u, resp.StatusCode, body); err != nil {
			s.cfg.Logger.Warnf("writing mirror file for %s: %v", u, err)
		}
	}
}

// enqueueDiscovered appends a newly admitted URL to the group currently
// being processed, per SPEC_FULL.md §9's current_group contract.
func (s *Scheduler) enqueueDiscovered(u string) {
	s.currentGroup.Stack = append(s.currentGroup.Stack, u)
}

// makeHTMLResolve returns the per-attribute Resolve callback the HTML
// rewriter calls for every href/src/srcset value found on page pageURL.
func (s *Scheduler) makeHTMLResolve(pageURL string) rewriter.Resolve {
	return func(raw string) (string, bool) {
		res := s.cfg.Pipeline.Push(raw, false, pageURL)
		if res.URL == "" {
			return "", false
		}
		if res.Enqueue {
			s.enqueueDiscovered(res.URL)
		}
		return s.transformFoundURL(res.URL, pageURL, s.cfg.RequireRelocatable), true
	}
}

// transformFoundURL applies the user's transform_url hook, if any, else the
// default relocatable-URL rewrite from SPEC_FULL.md §4.4.
func (s *Scheduler) transformFoundURL(rawURL, comeFromPage string, requireRelocatable bool) string {
	if s.cfg.Hooks.TransformURL != nil {
		return s.cfg.Hooks.TransformURL(rawURL, comeFromPage, requireRelocatable)
	}
	if !requireRelocatable || comeFromPage == "" {
		return rawURL
	}
	return mirror.BuildRelocatableURL(s.cfg.OutputOrigin, comeFromPage, rawURL)
}

// isResource reports whether u's pathname extension is in the resource
// extension set from SPEC_FULL.md §6, ignoring query and fragment per
// invariant 5 in §8.
func isResource(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	return resourceExtensions[ext]
}

// StatusText renders a ProcessStatus for logging.
func StatusText(s ProcessStatus) string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusRedirected:
		return "REDIRECTED"
	case StatusError:
		return "ERROR"
	case StatusIgnored:
		return "IGNORED"
	default:
		return "UNKNOWN(" + strconv.Itoa(int(s)) + ")"
	}
}
