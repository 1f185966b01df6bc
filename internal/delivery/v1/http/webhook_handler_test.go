package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any)            {}
func (nopLogger) Infof(format string, args ...any)             {}
func (nopLogger) Warnf(format string, args ...any)             {}
func (nopLogger) Errorf(err error, format string, args ...any) {}

func signHex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func signBase64(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newWebhookFixture() (*WebhookHandler, *queue.EventQueue, *queue.EventQueue) {
	recordsQueue := queue.New()
	catalogQueue := queue.New()
	h := NewWebhookHandler(
		&cfg.RecordsCfg{BaseID: "base123", WebhookSecret: "records-secret"},
		&cfg.CatalogCfg{WebhookSecret: "catalog-secret"},
		recordsQueue,
		catalogQueue,
		nopLogger{},
	)
	return h, recordsQueue, catalogQueue
}

func TestRecordsWebhook_EnqueuesBatch(t *testing.T) {
	h, recordsQueue, _ := newWebhookFixture()

	body := []byte(`{
		"base": {"id": "base123"},
		"events": [
			{"type": "record.created", "record_id": "rec1"},
			{"type": "record.updated", "record_id": "rec2"},
			{"type": "record.deleted", "record_id": "rec3"},
			{"type": "record.commented", "record_id": "rec4"}
		]
	}`)

	req := httptest.NewRequest(http.MethodPost, "/webhook/records", bytes.NewReader(body))
	req.Header.Set("X-Records-Signature", signHex("records-secret", body))
	w := httptest.NewRecorder()

	h.handleRecordsWebhook(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// Неизвестный тип события пропущен, остальные три в очереди.
	assert.Equal(t, 3, recordsQueue.Depth())

	ev, err := recordsQueue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SourceRecords, ev.Source)
	assert.Equal(t, "rec1", ev.ExternalID)
	assert.Equal(t, domain.OpCreate, ev.Op)
}

func TestRecordsWebhook_RejectsBadSignature(t *testing.T) {
	h, recordsQueue, _ := newWebhookFixture()

	body := []byte(`{"base": {"id": "base123"}, "events": []}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/records", bytes.NewReader(body))
	req.Header.Set("X-Records-Signature", "deadbeef")
	w := httptest.NewRecorder()

	h.handleRecordsWebhook(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, recordsQueue.Depth())
}

func TestRecordsWebhook_RejectsForeignBase(t *testing.T) {
	h, recordsQueue, _ := newWebhookFixture()

	body := []byte(`{"base": {"id": "other-base"}, "events": [{"type": "record.updated", "record_id": "rec1"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/records", bytes.NewReader(body))
	req.Header.Set("X-Records-Signature", signHex("records-secret", body))
	w := httptest.NewRecorder()

	h.handleRecordsWebhook(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, recordsQueue.Depth())
}

func TestRecordsWebhook_RejectsMalformedBody(t *testing.T) {
	h, _, _ := newWebhookFixture()

	body := []byte(`{not json`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/records", bytes.NewReader(body))
	req.Header.Set("X-Records-Signature", signHex("records-secret", body))
	w := httptest.NewRecorder()

	h.handleRecordsWebhook(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordsWebhook_EmptySecretSkipsCheck(t *testing.T) {
	recordsQueue := queue.New()
	h := NewWebhookHandler(
		&cfg.RecordsCfg{BaseID: "base123"},
		&cfg.CatalogCfg{},
		recordsQueue,
		queue.New(),
		nopLogger{},
	)

	body := []byte(`{"base": {"id": "base123"}, "events": [{"type": "record.updated", "record_id": "rec1"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/records", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.handleRecordsWebhook(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, recordsQueue.Depth())
}

func TestCatalogWebhook_EnqueuesEvent(t *testing.T) {
	h, _, catalogQueue := newWebhookFixture()

	body := []byte(`{"id": 771, "name": "Lamp", "sku": "LAMP-001"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/catalog", bytes.NewReader(body))
	req.Header.Set("X-Catalog-Signature", signBase64("catalog-secret", body))
	req.Header.Set("X-Catalog-Topic", "product.updated")
	w := httptest.NewRecorder()

	h.handleCatalogWebhook(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, catalogQueue.Depth())

	ev, err := catalogQueue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SourceCatalog, ev.Source)
	assert.Equal(t, "771", ev.ExternalID)
	assert.Equal(t, domain.OpUpdate, ev.Op)
}

func TestCatalogWebhook_DeleteTopic(t *testing.T) {
	h, _, catalogQueue := newWebhookFixture()

	body := []byte(`{"id": 771}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/catalog", bytes.NewReader(body))
	req.Header.Set("X-Catalog-Signature", signBase64("catalog-secret", body))
	req.Header.Set("X-Catalog-Topic", "product.deleted")
	w := httptest.NewRecorder()

	h.handleCatalogWebhook(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	ev, err := catalogQueue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OpDelete, ev.Op)
}

func TestCatalogWebhook_IgnoresPing(t *testing.T) {
	h, _, catalogQueue := newWebhookFixture()

	body := []byte(`{"webhook_id": 5}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/catalog", bytes.NewReader(body))
	req.Header.Set("X-Catalog-Signature", signBase64("catalog-secret", body))
	w := httptest.NewRecorder()

	h.handleCatalogWebhook(w, req)

	// Пинг при регистрации webhook: 200 без события, иначе каталог
	// посчитает доставку неудачной.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, catalogQueue.Depth())
}

func TestCatalogWebhook_RejectsBadSignature(t *testing.T) {
	h, _, catalogQueue := newWebhookFixture()

	body := []byte(`{"id": 771}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/catalog", bytes.NewReader(body))
	req.Header.Set("X-Catalog-Signature", "bm90LWEtc2lnbmF0dXJl")
	req.Header.Set("X-Catalog-Topic", "product.updated")
	w := httptest.NewRecorder()

	h.handleCatalogWebhook(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, catalogQueue.Depth())
}
