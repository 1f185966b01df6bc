package http

import (
	"context"

	_ "github.com/DRSN-tech/catalog-sync/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/internal/queue"
	"github.com/DRSN-tech/catalog-sync/internal/usecase"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// Init регистрирует маршруты. Webhook-и и операторский API живут в корне:
// адреса вбиты в настройки внешних систем и версионировать их нечем.
func (r *Router) Init(
	appCtx context.Context,
	syncUC usecase.SyncUC,
	recordsCfg *cfg.RecordsCfg,
	catalogCfg *cfg.CatalogCfg,
	recordsQueue *queue.EventQueue,
	catalogQueue *queue.EventQueue,
) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	whHandler := NewWebhookHandler(recordsCfg, catalogCfg, recordsQueue, catalogQueue, r.logger)
	syncHandler := NewSyncHandler(syncUC, appCtx, r.logger)

	r.router.Route("/webhook", func(wh chi.Router) {
		wh.Post("/records", whHandler.handleRecordsWebhook)
		wh.Post("/catalog", whHandler.handleCatalogWebhook)
	})

	r.router.Route("/sync", func(s chi.Router) {
		s.Post("/manual", syncHandler.manualSync)
		s.Post("/full", syncHandler.fullSync)
	})

	r.router.Get("/status", syncHandler.status)
	r.router.Get("/health", syncHandler.health)
}
