package rewriter

import (
	"regexp"
	"strings"
)

// cssURLPattern matches CSS url(...) references, tolerating single,
// double, or no quoting. Grounded on the CSS url() extraction regex used
// by the AldSenior-WebDowloanderLocal downloader in the retrieved corpus.
var cssURLPattern = regexp.MustCompile(`(?i)url\s*\(\s*['"]?([^'")]+)['"]?\s*\)`)

// ParseCSSUrls implements the CSS URL extractor external collaborator from
// SPEC_FULL.md §1/§4.3: a function css_text → [url_ref]. The CSS body is
// never modified; callers only use the extracted references to admit new
// URLs into the pipeline.
func ParseCSSUrls(cssText string) []string {
	matches := cssURLPattern.FindAllStringSubmatch(cssText, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, strings.TrimSpace(m[1]))
	}
	return urls
}
