package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digitalwiz/go-crm-backend/internal/domain"
	"github.com/digitalwiz/go-crm-backend/internal/http/middleware"
	"github.com/digitalwiz/go-crm-backend/internal/notify"
	"github.com/digitalwiz/go-crm-backend/internal/services"
)

// fakeSyncService implements SyncService with programmable results.
type fakeSyncService struct {
	snapshot *services.Snapshot
	added    int
	total    int
	err      error

	applied []domain.Deal
}

func (f *fakeSyncService) Export(ctx context.Context) (*services.Snapshot, error) {
	return f.snapshot, f.err
}

func (f *fakeSyncService) Import(ctx context.Context, payload []byte) (*services.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	var snap services.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, services.ErrMalformedSnapshot
	}
	return &snap, nil
}

func (f *fakeSyncService) ApplyDeals(ctx context.Context, next []domain.Deal) error {
	f.applied = next
	return f.err
}

func (f *fakeSyncService) SyncProspects(ctx context.Context) (int, int, error) {
	return f.added, f.total, f.err
}

// newSyncRouter mounts the sync routes. replay simulates a stored
// Idempotency-Key hit via the real validator middleware.
func newSyncRouter(deals *fakeDealService, sync *fakeSyncService, replay bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(deals, nil, sync, notify.NewHub(), nil, Options{IdempotencyTTL: time.Hour})
	r := gin.New()
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
			return replay, nil
		},
	))
	r.GET("/export", h.ExportData)
	r.POST("/import", h.ImportData)
	r.PUT("/deals", h.ReplaceDeals)
	r.POST("/sync/prospects", h.SyncProspects)
	return r
}

func TestExportData(t *testing.T) {
	sync := &fakeSyncService{snapshot: &services.Snapshot{
		Deals:     []domain.Deal{{ID: "d1"}},
		Retainers: []domain.Retainer{{ID: "r1"}},
	}}
	r := newSyncRouter(&fakeDealService{}, sync, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonReq(http.MethodGet, "/export", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	var snap services.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Deals) != 1 || len(snap.Retainers) != 1 {
		t.Fatalf("snapshot: %+v", snap)
	}

	sync.err = errors.New("db down")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, jsonReq(http.MethodGet, "/export", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("export error = %d", w.Code)
	}
}

func TestImportData_CountsAndMalformed(t *testing.T) {
	r := newSyncRouter(&fakeDealService{}, &fakeSyncService{}, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonReq(http.MethodPost, "/import", gin.H{
		"deals":     []gin.H{{"id": "d1"}, {"id": "d2"}},
		"retainers": []gin.H{{"id": "r1"}},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("import = %d body=%s", w.Code, w.Body.String())
	}
	var resp ImportResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Deals != 2 || resp.Retainers != 1 || resp.Replayed {
		t.Fatalf("response: %+v", resp)
	}

	// Malformed document maps to 400
	req := httptest.NewRequest(http.MethodPost, "/import", nil)
	req.Body = http.NoBody
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty body = %d", w.Code)
	}
}

func TestImportData_ReplayShortCircuits(t *testing.T) {
	sync := &fakeSyncService{}
	r := newSyncRouter(&fakeDealService{}, sync, true)

	req := jsonReq(http.MethodPost, "/import", gin.H{"deals": []gin.H{{"id": "d1"}}})
	req.Header.Set(middleware.HeaderIdempotencyKey, "key-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("replay = %d", w.Code)
	}
	var resp ImportResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Replayed || resp.Deals != 0 {
		t.Fatalf("expected replay marker: %+v", resp)
	}
}

func TestReplaceDeals_AppliesAndReturnsFreshList(t *testing.T) {
	deals := &fakeDealService{deals: []domain.Deal{{ID: "keep"}}}
	sync := &fakeSyncService{}
	r := newSyncRouter(deals, sync, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonReq(http.MethodPut, "/deals", []gin.H{{"id": "keep", "businessName": "Biz"}}))
	if w.Code != http.StatusOK {
		t.Fatalf("replace = %d body=%s", w.Code, w.Body.String())
	}
	if len(sync.applied) != 1 || sync.applied[0].ID != "keep" {
		t.Fatalf("applied: %+v", sync.applied)
	}

	// Non-array body fails binding
	w = httptest.NewRecorder()
	r.ServeHTTP(w, jsonReq(http.MethodPut, "/deals", gin.H{"id": "oops"}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("non-array = %d", w.Code)
	}
}

func TestSyncProspects_CountsAndReplay(t *testing.T) {
	deals := &fakeDealService{deals: []domain.Deal{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	sync := &fakeSyncService{added: 2, total: 3}
	r := newSyncRouter(deals, sync, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonReq(http.MethodPost, "/sync/prospects", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("sync = %d", w.Code)
	}
	var resp SyncProspectsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Added != 2 || resp.Total != 3 || resp.Replayed {
		t.Fatalf("response: %+v", resp)
	}

	// Replay reports the current total without re-syncing
	r = newSyncRouter(deals, sync, true)
	req := jsonReq(http.MethodPost, "/sync/prospects", nil)
	req.Header.Set(middleware.HeaderIdempotencyKey, "key-2")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("replay = %d", w.Code)
	}
	resp = SyncProspectsResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Replayed || resp.Added != 0 || resp.Total != 3 {
		t.Fatalf("replay response: %+v", resp)
	}
}

func TestSyncProspects_ErrorMapsTo500(t *testing.T) {
	r := newSyncRouter(&fakeDealService{}, &fakeSyncService{err: errors.New("feed exploded")}, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonReq(http.MethodPost, "/sync/prospects", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("sync error = %d", w.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &er)
	if er.Code != ErrCodeSyncFailed {
		t.Fatalf("code = %q", er.Code)
	}
}
