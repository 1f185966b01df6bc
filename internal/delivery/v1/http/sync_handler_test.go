package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncUC struct {
	mu           sync.Mutex
	manualCalls  []domain.Source
	manualIDs    []string
	fullSyncDirs []domain.Direction
	fullSyncDone chan struct{}
}

func newFakeSyncUC() *fakeSyncUC {
	return &fakeSyncUC{fullSyncDone: make(chan struct{}, 1)}
}

func (f *fakeSyncUC) Reconcile(ctx context.Context, ev domain.SyncEvent) error { return nil }

func (f *fakeSyncUC) EnqueueManual(source domain.Source, ids []string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manualCalls = append(f.manualCalls, source)
	f.manualIDs = append(f.manualIDs, ids...)
	return len(ids)
}

func (f *fakeSyncUC) RunFullSync(ctx context.Context, direction domain.Direction) error {
	f.mu.Lock()
	f.fullSyncDirs = append(f.fullSyncDirs, direction)
	f.mu.Unlock()
	f.fullSyncDone <- struct{}{}
	return nil
}

func (f *fakeSyncUC) Status() *usecase.StatusRes {
	return &usecase.StatusRes{RecordsQueueDepth: 2, TrackerSize: 1}
}

func TestManualSync(t *testing.T) {
	uc := newFakeSyncUC()
	h := NewSyncHandler(uc, context.Background(), nopLogger{})

	req := httptest.NewRequest(http.MethodPost, "/sync/manual",
		strings.NewReader(`{"source": "records", "ids": ["rec1", "rec2"]}`))
	w := httptest.NewRecorder()

	h.manualSync(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []domain.Source{domain.SourceRecords}, uc.manualCalls)
	assert.Equal(t, []string{"rec1", "rec2"}, uc.manualIDs)

	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, float64(2), res["enqueued"])
}

func TestManualSync_InvalidSource(t *testing.T) {
	h := NewSyncHandler(newFakeSyncUC(), context.Background(), nopLogger{})

	req := httptest.NewRequest(http.MethodPost, "/sync/manual",
		strings.NewReader(`{"source": "mainframe", "ids": ["rec1"]}`))
	w := httptest.NewRecorder()

	h.manualSync(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManualSync_EmptyIDs(t *testing.T) {
	h := NewSyncHandler(newFakeSyncUC(), context.Background(), nopLogger{})

	req := httptest.NewRequest(http.MethodPost, "/sync/manual",
		strings.NewReader(`{"source": "records", "ids": []}`))
	w := httptest.NewRecorder()

	h.manualSync(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFullSync_DefaultsToBoth(t *testing.T) {
	uc := newFakeSyncUC()
	h := NewSyncHandler(uc, context.Background(), nopLogger{})

	req := httptest.NewRequest(http.MethodPost, "/sync/full", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	h.fullSync(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	select {
	case <-uc.fullSyncDone:
	case <-time.After(time.Second):
		t.Fatal("full sync was not started")
	}
	assert.Equal(t, []domain.Direction{domain.DirectionBoth}, uc.fullSyncDirs)
}

func TestFullSync_InvalidDirection(t *testing.T) {
	uc := newFakeSyncUC()
	h := NewSyncHandler(uc, context.Background(), nopLogger{})

	req := httptest.NewRequest(http.MethodPost, "/sync/full",
		strings.NewReader(`{"direction": "sideways"}`))
	w := httptest.NewRecorder()

	h.fullSync(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, uc.fullSyncDirs)
}

func TestStatus(t *testing.T) {
	h := NewSyncHandler(newFakeSyncUC(), context.Background(), nopLogger{})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()

	h.status(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res usecase.StatusRes
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.RecordsQueueDepth)
	assert.Equal(t, 1, res.TrackerSize)
}

func TestHealth(t *testing.T) {
	h := NewSyncHandler(newFakeSyncUC(), context.Background(), nopLogger{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
