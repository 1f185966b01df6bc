package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/queue"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
)

const maxWebhookBodySize = 1 << 20

// WebhookHandler принимает уведомления обеих систем, проверяет подпись
// и ставит события в очередь. Тел обработки здесь нет: ответ отдаётся
// до обращения к внешним API.
type WebhookHandler struct {
	recordsCfg   *cfg.RecordsCfg
	catalogCfg   *cfg.CatalogCfg
	recordsQueue *queue.EventQueue
	catalogQueue *queue.EventQueue
	logger       logger.Logger
}

func NewWebhookHandler(
	recordsCfg *cfg.RecordsCfg,
	catalogCfg *cfg.CatalogCfg,
	recordsQueue *queue.EventQueue,
	catalogQueue *queue.EventQueue,
	logger logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		recordsCfg:   recordsCfg,
		catalogCfg:   catalogCfg,
		recordsQueue: recordsQueue,
		catalogQueue: catalogQueue,
		logger:       logger,
	}
}

// recordsWebhookPayload — уведомление хранилища записей. Несёт только
// идентификаторы: авторитетное состояние воркер читает сам.
type recordsWebhookPayload struct {
	Base struct {
		ID string `json:"id"`
	} `json:"base"`
	Events []struct {
		Type     string `json:"type"`
		RecordID string `json:"record_id"`
	} `json:"events"`
}

// handleRecordsWebhook
//
//	@Summary		Webhook хранилища записей
//	@Description	Принимает пакет событий изменения записей, проверяет HMAC-подпись и ставит события в очередь
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Records-Signature	header		string					true	"HMAC-SHA256 подпись тела (hex)"
//	@Success		200					{object}	map[string]interface{}	"События приняты"
//	@Failure		400					{object}	ErrorResponse			"Некорректный payload"
//	@Failure		401					{object}	ErrorResponse			"Неверная подпись"
//	@Router			/webhook/records [post]
func (h *WebhookHandler) handleRecordsWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		WriteError(w, e.ErrMalformedPayload)
		return
	}

	if err := verifyHexSignature(h.recordsCfg.WebhookSecret, body, r.Header.Get("X-Records-Signature")); err != nil {
		h.logger.Warnf("records webhook: bad signature from %s", r.RemoteAddr)
		WriteError(w, err)
		return
	}

	var payload recordsWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		WriteError(w, e.ErrMalformedPayload)
		return
	}

	// Уведомление для чужой базы — ошибка конфигурации на той стороне.
	if payload.Base.ID != "" && payload.Base.ID != h.recordsCfg.BaseID {
		h.logger.Warnf("records webhook: base mismatch: got %s", payload.Base.ID)
		WriteError(w, e.ErrBaseMismatch)
		return
	}

	accepted := 0
	for _, ev := range payload.Events {
		if ev.RecordID == "" {
			continue
		}

		op, ok := recordsOperation(ev.Type)
		if !ok {
			h.logger.Warnf("records webhook: unknown event type %q, skipped", ev.Type)
			continue
		}

		h.recordsQueue.Enqueue(domain.NewSyncEvent(domain.SourceRecords, ev.RecordID, op))
		accepted++
	}

	h.logger.Infof("records webhook: accepted %d of %d events", accepted, len(payload.Events))
	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"status":   "queued",
		"accepted": accepted,
	})
}

// handleCatalogWebhook
//
//	@Summary		Webhook каталог-сервиса
//	@Description	Принимает уведомление об изменении товара, проверяет HMAC-подпись и ставит событие в очередь
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Catalog-Signature	header		string					true	"HMAC-SHA256 подпись тела (base64)"
//	@Param			X-Catalog-Topic		header		string					true	"Тема уведомления, например product.updated"
//	@Success		200					{object}	map[string]interface{}	"Событие принято"
//	@Failure		400					{object}	ErrorResponse			"Некорректный payload"
//	@Failure		401					{object}	ErrorResponse			"Неверная подпись"
//	@Router			/webhook/catalog [post]
func (h *WebhookHandler) handleCatalogWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		WriteError(w, e.ErrMalformedPayload)
		return
	}

	if err := verifyBase64Signature(h.catalogCfg.WebhookSecret, body, r.Header.Get("X-Catalog-Signature")); err != nil {
		h.logger.Warnf("catalog webhook: bad signature from %s", r.RemoteAddr)
		WriteError(w, err)
		return
	}

	topic := r.Header.Get("X-Catalog-Topic")
	op, ok := catalogOperation(topic)
	if !ok {
		// Каталог шлёт и пинги при регистрации webhook — отвечаем 200.
		h.logger.Infof("catalog webhook: ignored topic %q", topic)
		WriteSuccess(w, http.StatusOK, map[string]interface{}{"status": "ignored"})
		return
	}

	// Каталог присылает сущность целиком, но из неё берётся только id:
	// авторитетное состояние воркер перечитает сам.
	var entity struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &entity); err != nil || entity.ID == 0 {
		WriteError(w, e.ErrMalformedPayload)
		return
	}

	h.catalogQueue.Enqueue(domain.NewSyncEvent(
		domain.SourceCatalog,
		strconv.FormatInt(entity.ID, 10),
		op,
	))

	h.logger.Infof("catalog webhook: queued %s for product %d", op, entity.ID)
	WriteSuccess(w, http.StatusOK, map[string]interface{}{"status": "queued"})
}

func recordsOperation(eventType string) (domain.Operation, bool) {
	switch eventType {
	case "record.created":
		return domain.OpCreate, true
	case "record.updated":
		return domain.OpUpdate, true
	case "record.deleted":
		return domain.OpDelete, true
	default:
		return "", false
	}
}

func catalogOperation(topic string) (domain.Operation, bool) {
	switch {
	case topic == "product.created":
		return domain.OpCreate, true
	case topic == "product.updated":
		return domain.OpUpdate, true
	case topic == "product.deleted", strings.HasSuffix(topic, ".trashed"):
		return domain.OpDelete, true
	default:
		return "", false
	}
}
