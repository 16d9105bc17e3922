// Package source derives the language pair from a vocabulary listing URL.
package source

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultURL is the listing scraped when none is configured.
const DefaultURL = "https://duome.eu/vocabulary/en/ja"

var pairRe = regexp.MustCompile(`/([a-z]{2})/([a-z]{2})(?:/|$)`)

// Pair is a learning language pair, e.g. en→ja.
type Pair struct {
	From string
	To   string
	URL  string
}

// ParseError reports a URL with no language pair in its path.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source: parse %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("source: parse %q: no language pair in path", e.URL)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse extracts the two lowercase two-letter codes from rawURL's path.
func Parse(rawURL string) (Pair, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Pair{}, &ParseError{URL: rawURL, Err: err}
	}
	m := pairRe.FindStringSubmatch(u.Path)
	if m == nil {
		return Pair{}, &ParseError{URL: rawURL}
	}
	return Pair{From: m[1], To: m[2], URL: rawURL}, nil
}

// Slug names the pair in file names: "en_ja".
func (p Pair) Slug() string {
	return p.From + "_" + p.To
}

// Codes returns the upper-cased codes: "EN", "JA".
func (p Pair) Codes() (string, string) {
	return strings.ToUpper(p.From), strings.ToUpper(p.To)
}

func (p Pair) String() string {
	from, to := p.Codes()
	return from + "→" + to
}
