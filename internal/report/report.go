// Package report generates a post-crawl Markdown summary of a mirror by
// re-opening every cached HTML file under the output directory and reading
// its title and heading counts with goquery, in the spirit of gopherseo's
// output.WriteIssueTasks/WriteSitemap reporting step — goquery is kept from
// the teacher but repointed here, since the crawl itself streams HTML
// through the rewriter rather than building a DOM.
package report

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tariktz/webmirror/internal/lastmod"
)

// PageSummary is what Collect extracts from a single mirrored HTML file.
type PageSummary struct {
	Path         string
	Title        string
	HeadingCount int
	LastModified time.Time
}

// Collect walks dir for ".html" files and parses each with goquery,
// returning one PageSummary per file, sorted by path. Malformed HTML is
// skipped rather than aborting the walk — a mirror report is best-effort.
func Collect(dir string) ([]PageSummary, error) {
	var summaries []PageSummary

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}

		f, openErr := os.Open(path)
		if openErr != nil {
			return nil
		}
		defer f.Close()

		doc, parseErr := goquery.NewDocumentFromReader(f)
		if parseErr != nil {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}

		mtime := time.Now()
		if info, infoErr := d.Info(); infoErr == nil {
			mtime = info.ModTime()
		}

		summaries = append(summaries, PageSummary{
			Path:         rel,
			Title:        strings.TrimSpace(doc.Find("title").First().Text()),
			HeadingCount: doc.Find("h1,h2,h3,h4,h5,h6").Length(),
			LastModified: lastmod.GetLastModified(nil, doc, mtime),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking mirror directory: %w", err)
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Path < summaries[j].Path })
	return summaries, nil
}

// Write renders summaries as a Markdown table at outputPath, matching the
// teacher's buffered-writer style in internal/output.
func Write(outputPath string, summaries []PageSummary) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create report output directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create report output file: %w", err)
	}

	w := bufio.NewWriter(f)

	writeErr := func(msg string, err error) error {
		_ = f.Close()
		return fmt.Errorf("%s: %w", msg, err)
	}

	if _, err := w.WriteString("# Mirror Report\n\n"); err != nil {
		return writeErr("write report header", err)
	}

	if len(summaries) == 0 {
		if _, err := w.WriteString("No pages were mirrored.\n"); err != nil {
			return writeErr("write empty-report message", err)
		}
		return flushAndClose(w, f)
	}

	if _, err := w.WriteString("| Path | Title | Headings | Last Modified |\n|---|---|---|---|\n"); err != nil {
		return writeErr("write report table header", err)
	}
	for _, s := range summaries {
		title := s.Title
		if title == "" {
			title = "_(untitled)_"
		}
		if _, err := fmt.Fprintf(w, "| `%s` | %s | %d | %s |\n", s.Path, title, s.HeadingCount, lastmod.FormatW3C(s.LastModified)); err != nil {
			return writeErr("write report row", err)
		}
	}

	return flushAndClose(w, f)
}

func flushAndClose(w *bufio.Writer, f *os.File) error {
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush report file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}
	return nil
}
