// Package prospects reads the external prospect feed (a static JSON document
// of candidate deals and retainers) and merges it into the local deal set.
//
// The feed cache is an explicit object owned by the caller: nothing is
// memoized at package level, and staleness is controlled by calling Refresh.
// A feed that is unreachable or unparsable degrades to an empty document;
// merge callers never see an error from the feed itself.
package prospects

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
)

// Document is the feed's wire shape.
type Document struct {
	Deals       []domain.Deal     `json:"deals"`
	Retainers   []domain.Retainer `json:"retainers"`
	LastUpdated string            `json:"lastUpdated"`
}

// Feed fetches and caches the prospect document from an http(s) URL or a
// local file path. Safe for concurrent use.
type Feed struct {
	source string
	client *http.Client

	mu  sync.Mutex
	doc *Document
}

// NewFeed returns a feed reading from source (http(s) URL or file path).
func NewFeed(source string) *Feed {
	return &Feed{
		source: source,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Refresh re-fetches the document and replaces the cache. On failure the
// previous cache (if any) is kept and the error is returned for logging;
// Load still degrades gracefully.
func (f *Feed) Refresh(ctx context.Context) error {
	doc, err := f.fetch(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.doc = doc
	f.mu.Unlock()
	return nil
}

// Load returns the cached document, fetching it first when the cache is
// empty. A failed fetch logs a warning and yields an empty document, never
// an error: the merge then degrades to "local set unchanged".
func (f *Feed) Load(ctx context.Context) *Document {
	f.mu.Lock()
	cached := f.doc
	f.mu.Unlock()
	if cached != nil {
		return cached
	}

	if err := f.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("source", f.source).Msg("prospect feed unavailable, treating as empty")
		return &Document{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc
}

// fetch reads and decodes the document from the configured source.
func (f *Feed) fetch(ctx context.Context) (*Document, error) {
	var body []byte
	var err error

	if strings.HasPrefix(f.source, "http://") || strings.HasPrefix(f.source, "https://") {
		body, err = f.fetchHTTP(ctx)
	} else {
		body, err = os.ReadFile(f.source)
	}
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode prospect feed: %w", err)
	}
	return &doc, nil
}

func (f *Feed) fetchHTTP(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prospect feed: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// MergeDeals unions local and feed deal sets keyed by id with left bias:
// every local record is kept unchanged (local edits always win), and feed
// records whose id is absent locally are appended in feed order. The result
// keeps local records first for display stability. Merging the same feed
// twice is a no-op the second time.
func MergeDeals(local, feed []domain.Deal) []domain.Deal {
	seen := make(map[string]struct{}, len(local))
	out := make([]domain.Deal, 0, len(local)+len(feed))
	for _, d := range local {
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	for _, d := range feed {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	return out
}
