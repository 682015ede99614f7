// File: internal/fingerprint/tokens.go
package fingerprint

import (
	"net/url"
	"strings"

	"github.com/nullgrad/wayward/api/schemas"
)

// Token is one unit of the shared token universe consumed by both the
// fingerprinter and the vectorizer. The category prefix is baked into
// Value so "login" as a path segment and "login" as button text never
// collide; Weight only matters to the vectorizer.
type Token struct {
	Value  string
	Weight float64
}

// Per-category vectorizer weights. Hosts dominate because two pages on
// different hosts are never the "same" state; element text is noisy and
// gets discounted.
const (
	weightHost     = 2.0
	weightPath     = 1.0
	weightQuery    = 1.0
	weightElement  = 1.0
	weightText     = 0.5
	weightLandmark = 1.0
)

const (
	maxQueryLen   = 64
	maxSummaryLen = 256
	maxTextLen    = 40
)

// Tokenize flattens a captured state into the shared token stream. The
// output is deterministic for identical input, which is what makes the
// fingerprint deterministic.
func Tokenize(s *schemas.CapturedState) []Token {
	if s == nil {
		return nil
	}
	tokens := make([]Token, 0, 64)
	add := func(category, value string, weight float64) {
		value = strings.TrimSpace(strings.ToLower(value))
		if value == "" {
			return
		}
		tokens = append(tokens, Token{Value: category + ":" + value, Weight: weight})
	}

	if u, err := url.Parse(s.URL); err == nil {
		add("host", u.Hostname(), weightHost)
		for _, seg := range strings.Split(u.Path, "/") {
			add("path", seg, weightPath)
		}
		add("query", truncate(u.RawQuery, maxQueryLen), weightQuery)
	}

	for _, el := range s.Elements {
		add("tag", el.Tag, weightElement)
		add("role", el.Role, weightElement)
		add("type", el.Type, weightElement)
		for _, w := range strings.Fields(truncate(el.Text, maxTextLen)) {
			add("etext", w, weightText)
		}
	}

	for _, w := range strings.Fields(truncate(s.Summary, maxSummaryLen)) {
		add("sum", w, weightText)
	}
	for _, lm := range s.Landmarks {
		add("lm", lm, weightLandmark)
	}
	for _, h := range s.Headings {
		for _, w := range strings.Fields(h) {
			add("h", w, weightLandmark)
		}
	}

	return tokens
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
