// Package search provides a simple, deterministic, concurrency-safe in-memory
// search index over deal records. It is intentionally small, with
// production-grade ergonomics:
//
//   - No logging in the library (callers decide how/what to log)
//   - Clear, documented types and functional options (Option pattern)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// deal's token set: score = |Q ∩ D| / |Q ∪ D|. The indexed text of a deal is
// the concatenation of its business name, contact person, email, notes, and
// selected service names.
package search

import (
	"sort"
	"strings"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
)

// Result is one ranked deal with its similarity score.
type Result struct {
	DealID string
	Score  float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	maxDocs   int
}

func defaultConfig() config {
	return config{
		stopwords: nil,
		maxDocs:   0,
	}
}

// WithStopwords excludes the given words from both indexed text and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps how many deals the index will hold.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	dealID string
	tokens map[string]struct{}
	tLen   int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an immutable Index over the given deals. Deals whose
// indexable fields tokenize to nothing are skipped.
func NewIndex(deals []domain.Deal, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	docs := make([]doc, 0, len(deals))
	for _, d := range deals {
		toks := tokenize(dealText(&d), cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{dealID: d.ID, tokens: toks, tLen: len(toks)})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

// dealText concatenates a deal's searchable fields.
func dealText(d *domain.Deal) string {
	parts := []string{d.BusinessName, d.ContactPerson, d.Email, d.Notes}
	for _, s := range d.Services {
		parts = append(parts, s.Service)
	}
	return strings.Join(parts, " ")
}

// TopK returns up to k best-matching deals by Jaccard similarity. A blank
// query matches nothing.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 {
		return nil
	}
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 10
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	buf := make([]Result, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + d.tLen - over)
		if union <= 0 {
			continue
		}
		score := float64(over) / union
		if score <= 0 {
			continue
		}
		buf = append(buf, Result{DealID: d.dealID, Score: score})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		return buf[a].DealID < buf[b].DealID
	})

	if k > len(buf) {
		k = len(buf)
	}
	return buf[:k]
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
