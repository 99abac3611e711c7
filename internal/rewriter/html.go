// Package rewriter implements the streaming HTML/CSS reference extractor
// and rewriter described in SPEC_FULL.md §4.3. The HTML side is built
// directly on golang.org/x/net/html's Tokenizer — the spec's "streaming
// HTML tokenizer… an attribute-level rewriter API" external collaborator
// is this package wrapping that tokenizer, the way cametumbling's
// htmlparser package and Nibir1-Aether's internal/html package do.
package rewriter

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Resolve is called once per discovered URL (an href/src value, or one
// srcset entry). It returns the value to place in the rewritten attribute
// and whether to rewrite at all. Returning rewrite=false leaves the
// original attribute value untouched — this is the path taken when
// clean_up_url rejected the raw value outright (SPEC_FULL.md §4.1).
type Resolve func(rawURL string) (newValue string, rewrite bool)

// hrefTags and srcTags list the elements whose href/src SPEC_FULL.md §4.3
// rewrites. srcsetTags lists the elements whose srcset is rewritten.
var (
	hrefTags   = map[string]bool{"a": true, "link": true}
	srcTags    = map[string]bool{"img": true, "script": true, "iframe": true, "source": true}
	srcsetTags = map[string]bool{"img": true}
)

// Rewrite streams htmlText through a tokenizer, rewriting href, src and
// srcset attributes via resolve, and returns the reassembled document.
// Tokens the rewriter has no opinion about (text, comments, doctype) are
// re-emitted unchanged.
func Rewrite(htmlText string, resolve Resolve) (string, error) {
	z := html.NewTokenizer(strings.NewReader(htmlText))
	var out strings.Builder

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			break
		}

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(z.Raw())
			continue
		}
		tok := z.Token()
		rewriteAttrs(&tok, resolve)
		out.WriteString(tok.String())
	}

	return out.String(), nil
}

func rewriteAttrs(tok *html.Token, resolve Resolve) {
	name := tok.Data
	if hrefTags[name] {
		rewriteAttr(tok, "href", resolve)
	}
	if srcTags[name] {
		rewriteAttr(tok, "src", resolve)
	}
	if srcsetTags[name] {
		rewriteSrcsetAttr(tok, resolve)
	}
}

func rewriteSrcsetAttr(tok *html.Token, resolve Resolve) {
	for i := range tok.Attr {
		if tok.Attr[i].Key == "srcset" {
			tok.Attr[i].Val = rewriteSrcset(tok.Attr[i].Val, resolve)
		}
	}
}

func rewriteAttr(tok *html.Token, key string, resolve Resolve) {
	for i := range tok.Attr {
		if tok.Attr[i].Key != key {
			continue
		}
		if newValue, ok := resolve(tok.Attr[i].Val); ok {
			tok.Attr[i].Val = newValue
		}
	}
}

// rewriteSrcset implements the srcset parsing rule from SPEC_FULL.md §4.3:
// split on commas, trim each part, split on the first whitespace run into
// {url, descriptor}, and drop (silently) any part with no descriptor.
func rewriteSrcset(value string, resolve Resolve) string {
	parts := strings.Split(value, ",")
	rewritten := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.IndexAny(part, " \t\n")
		if idx < 0 {
			continue
		}
		url := part[:idx]
		descriptor := strings.TrimSpace(part[idx+1:])
		if descriptor == "" {
			continue
		}
		if newValue, ok := resolve(url); ok {
			url = newValue
		}
		rewritten = append(rewritten, url+" "+descriptor)
	}

	return strings.Join(rewritten, ",")
}
