// Package mirror implements the filesystem-backed mirror cache described in
// SPEC_FULL.md §4.4: URL-to-path mapping, the directory/index convention,
// and relocatable relative-path construction.
package mirror

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// CacheEntry is returned by HasInCache for a URL that is already mirrored.
type CacheEntry struct {
	AddedDate time.Time
	FilePath  string
}

// Cache writes fetched bodies to a filesystem tree rooted at Dir, keyed by
// URL via CalcFilePath, and answers "do we already have this" queries for
// the can_ignore_if_already_crawled hook.
type Cache struct {
	Dir string
}

// New returns a Cache rooted at dir. dir is created lazily as pages are
// written, matching the teacher's "create output directory automatically"
// convention (gopherseo's output.WriteSitemap).
func New(dir string) *Cache {
	return &Cache{Dir: dir}
}

// CalcFilePath implements calc_file_path from SPEC_FULL.md §4.4. The host
// component of rawURL is discarded in favor of a fixed "localhost" segment,
// so that the same page mirrored over http and https lands on one file.
func (c *Cache) CalcFilePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	p := applyIndexConvention(u.Path)
	return filepath.Join(c.Dir, "localhost", filepath.FromSlash(p)), nil
}

// applyIndexConvention appends the index.html suffix per SPEC_FULL.md §4.4
// step 4: a trailing slash becomes "index.html"; an extensionless final
// segment becomes a directory containing "index.html".
func applyIndexConvention(p string) string {
	if p == "" {
		p = "/"
	}
	if strings.HasSuffix(p, "/") {
		return p + "index.html"
	}
	if last := path.Base(p); !strings.Contains(last, ".") {
		return p + "/index.html"
	}
	return p
}

// AddToCache implements add_to_cache from SPEC_FULL.md §4.4. Only 200
// responses are persisted; write failures are reported to the caller so it
// can log them, but per §7 they must never abort the crawl.
func (c *Cache) AddToCache(rawURL string, status int, body []byte) error {
	if status != 200 {
		return nil
	}
	filePath, err := c.CalcFilePath(rawURL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filePath, body, 0o644)
}

// HasInCache implements has_in_cache from SPEC_FULL.md §4.4.
func (c *Cache) HasInCache(rawURL string) (*CacheEntry, error) {
	filePath, err := c.CalcFilePath(rawURL)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}
	return &CacheEntry{AddedDate: info.ModTime(), FilePath: filePath}, nil
}

// BuildRelocatableURL implements url_tool_build_filesystem_url from
// SPEC_FULL.md §4.4: it rewrites targetURL into a "../"-prefixed relative
// path from currentPageURL, so the mirrored tree opens correctly via
// file:// without a web server.
func BuildRelocatableURL(outputOrigin, currentPageURL, targetURL string) string {
	target := rootRelative(outputOrigin, targetURL)
	current := rootRelative(outputOrigin, currentPageURL)

	if current == "" || current == target {
		return target
	}

	depth := strings.Count(current, "/")
	return strings.Repeat("../", depth) + target
}

// rootRelative strips query/fragment, applies the index convention, and
// strips outputOrigin (and the following slash) from u.
func rootRelative(outputOrigin, u string) string {
	stripped := stripQueryFragment(u)
	indexed := applyIndexConventionOnURL(stripped)
	if strings.HasPrefix(indexed, outputOrigin) {
		rel := strings.TrimPrefix(indexed, outputOrigin)
		return strings.TrimPrefix(rel, "/")
	}
	return indexed
}

func stripQueryFragment(u string) string {
	if idx := strings.IndexAny(u, "?#"); idx >= 0 {
		return u[:idx]
	}
	return u
}

// applyIndexConventionOnURL applies the same index convention as
// applyIndexConvention but operates on a full absolute URL string, rewriting
// only its path component so it can be applied before or after origin
// stripping without corrupting the scheme/host.
func applyIndexConventionOnURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	parsed.Path = applyIndexConvention(parsed.Path)
	return parsed.String()
}
