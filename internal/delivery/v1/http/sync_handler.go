package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
)

// SyncHandler — операторский API: ручная и полная синхронизация, статус.
// appCtx живёт до остановки приложения: полная синхронизация не должна
// обрываться вместе с HTTP-запросом, который её запустил.
type SyncHandler struct {
	syncUsecase usecase.SyncUC
	appCtx      context.Context
	logger      logger.Logger
}

func NewSyncHandler(syncUsecase usecase.SyncUC, appCtx context.Context, logger logger.Logger) *SyncHandler {
	return &SyncHandler{syncUsecase: syncUsecase, appCtx: appCtx, logger: logger}
}

type manualSyncReq struct {
	Source string   `json:"source"`
	IDs    []string `json:"ids"`
}

type fullSyncReq struct {
	Direction string `json:"direction"`
}

// manualSync
//
//	@Summary		Ручная синхронизация
//	@Description	Ставит в очередь события для перечисленных идентификаторов
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			request	body		manualSyncReq			true	"Источник и список идентификаторов"
//	@Success		202		{object}	map[string]interface{}	"События поставлены в очередь"
//	@Failure		400		{object}	ErrorResponse			"Ошибка валидации"
//	@Router			/sync/manual [post]
func (h *SyncHandler) manualSync(w http.ResponseWriter, r *http.Request) {
	var req manualSyncReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrMalformedPayload)
		return
	}

	source, err := domain.ParseSource(req.Source)
	if err != nil {
		h.logger.Warnf("manual sync: %v: %q", err, req.Source)
		WriteError(w, err)
		return
	}

	if len(req.IDs) == 0 {
		WriteError(w, e.ErrNoRecordIDs)
		return
	}

	n := h.syncUsecase.EnqueueManual(source, req.IDs)
	h.logger.Infof("manual sync: queued %d events for %s", n, source)
	WriteSuccess(w, http.StatusAccepted, map[string]interface{}{
		"status":   "queued",
		"enqueued": n,
	})
}

// fullSync
//
//	@Summary		Полная синхронизация
//	@Description	Запускает фоновый обход коллекций в заданном направлении
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			request	body		fullSyncReq				true	"Направление синхронизации"
//	@Success		202		{object}	map[string]interface{}	"Обход запущен"
//	@Failure		400		{object}	ErrorResponse			"Ошибка валидации"
//	@Router			/sync/full [post]
func (h *SyncHandler) fullSync(w http.ResponseWriter, r *http.Request) {
	var req fullSyncReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrMalformedPayload)
		return
	}

	direction := domain.DirectionBoth
	if req.Direction != "" {
		var err error
		direction, err = domain.ParseDirection(req.Direction)
		if err != nil {
			h.logger.Warnf("full sync: %v: %q", err, req.Direction)
			WriteError(w, err)
			return
		}
	}

	go func() {
		if err := h.syncUsecase.RunFullSync(h.appCtx, direction); err != nil {
			h.logger.Errorf(err, "full sync failed: direction=%s", direction)
		}
	}()

	h.logger.Infof("full sync started: direction=%s", direction)
	WriteSuccess(w, http.StatusAccepted, map[string]interface{}{
		"status":    "started",
		"direction": string(direction),
	})
}

// status
//
//	@Summary		Статус движка
//	@Description	Глубины очередей, счётчики и размер трекера подавления
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	usecase.StatusRes
//	@Router			/status [get]
func (h *SyncHandler) status(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, http.StatusOK, h.syncUsecase.Status())
}

// health
//
//	@Summary		Проверка живости
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/health [get]
func (h *SyncHandler) health(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}
