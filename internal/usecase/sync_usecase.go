package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/mapper"
	"github.com/DRSN-tech/catalog-sync/internal/queue"
	"github.com/DRSN-tech/catalog-sync/internal/tracker"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/jitter"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
)

// SyncUseCase реализует протокол согласования между хранилищем записей
// и каталогом: идентификация контрагента, нормализация полей, подавление
// обратных записей и идемпотентный upsert.
type SyncUseCase struct {
	records      RecordsClient
	catalog      CatalogClient
	assets       CatalogAssets
	links        LinkRepository
	trk          *tracker.Tracker
	recordsQueue *queue.EventQueue
	catalogQueue *queue.EventQueue
	cfg          *cfg.SyncCfg
	logger       logger.Logger
	startedAt    time.Time
}

func NewSyncUC(
	records RecordsClient,
	catalog CatalogClient,
	assets CatalogAssets,
	links LinkRepository,
	trk *tracker.Tracker,
	recordsQueue *queue.EventQueue,
	catalogQueue *queue.EventQueue,
	cfg *cfg.SyncCfg,
	logger logger.Logger,
) *SyncUseCase {
	return &SyncUseCase{
		records:      records,
		catalog:      catalog,
		assets:       assets,
		links:        links,
		trk:          trk,
		recordsQueue: recordsQueue,
		catalogQueue: catalogQueue,
		cfg:          cfg,
		logger:       logger,
		startedAt:    time.Now(),
	}
}

// Reconcile обрабатывает одно событие. Любая ошибка терминальна для события:
// воркер логирует её и отбрасывает событие (или отдаёт в dead-letter).
func (u *SyncUseCase) Reconcile(ctx context.Context, ev domain.SyncEvent) error {
	const op = "SyncUseCase.Reconcile"

	switch ev.Source {
	case domain.SourceRecords:
		return u.reconcileRecordsEvent(ctx, ev)
	case domain.SourceCatalog:
		return u.reconcileCatalogEvent(ctx, ev)
	default:
		return e.Wrap(op, e.ErrInvalidSource)
	}
}

// reconcileRecordsEvent применяет изменение записи к каталогу.
func (u *SyncUseCase) reconcileRecordsEvent(ctx context.Context, ev domain.SyncEvent) error {
	const op = "SyncUseCase.reconcileRecordsEvent"

	if ev.Op == domain.OpDelete {
		return u.deleteCatalogCounterpart(ctx, ev.ExternalID)
	}

	rec, err := u.records.GetRecord(ctx, ev.ExternalID)
	if errors.Is(err, e.ErrRecordNotFound) {
		// Запись исчезла между webhook и чтением — неявное удаление.
		return u.deleteCatalogCounterpart(ctx, ev.ExternalID)
	}
	if err != nil {
		return e.Wrap(op, err)
	}

	p := mapper.FromRecords(rec)
	key := canonicalKey(p.SKU, rec.ID)

	if !u.trk.ShouldProcess(key, domain.SourceRecords) {
		u.logger.Infof("suppressed echo of catalog write: key=%s event=%s", key, ev.ID)
		return nil
	}

	link, err := u.resolveFromRecords(ctx, rec, p.SKU)
	if err != nil {
		return e.Wrap(op, err)
	}

	payload := mapper.ToCatalog(&p)
	if err := u.ensureCatalogTerms(ctx, &payload); err != nil {
		return e.Wrap(op, err)
	}

	now := time.Now()
	mapper.StampCatalogLink(&payload, rec.ID, now)

	if link != nil {
		err = u.withRetry(ctx, "catalog.UpdateProduct", func() error {
			return u.catalog.UpdateProduct(ctx, link.CatalogID, &payload)
		})
		if err != nil {
			return e.Wrap(op, err)
		}

		link.SKU = p.SKU
		link.ConfirmedAt = now
		u.persistLink(ctx, link)
	} else {
		var created *mapper.CatalogProduct
		err = u.withRetry(ctx, "catalog.CreateProduct", func() error {
			var cErr error
			created, cErr = u.catalog.CreateProduct(ctx, &payload)
			return cErr
		})
		if err != nil {
			return e.Wrap(op, err)
		}

		link = domain.NewCrossReference(rec.ID, created.ID, p.SKU)
		u.persistLink(ctx, link)

		// id товара сохраняется и в самой записи, чтобы поиски были O(1)
		// даже при утере локального индекса.
		if err := u.records.UpdateRecord(ctx, rec.ID, mapper.RecordsLinkFields(created.ID, now)); err != nil {
			u.logger.Warnf("failed to stamp catalog id on record %s: %v", rec.ID, err)
		}
	}

	u.trk.RecordWrite(key, domain.SourceRecords)
	u.logger.Infof("records -> catalog: sku=%s records_id=%s catalog_id=%d event=%s",
		p.SKU, rec.ID, link.CatalogID, ev.ID)
	return nil
}

// reconcileCatalogEvent применяет изменение товара каталога к хранилищу записей.
func (u *SyncUseCase) reconcileCatalogEvent(ctx context.Context, ev domain.SyncEvent) error {
	const op = "SyncUseCase.reconcileCatalogEvent"

	catalogID, err := strconv.ParseInt(ev.ExternalID, 10, 64)
	if err != nil {
		return e.Wrap(op, e.ErrMalformedPayload)
	}

	if ev.Op == domain.OpDelete {
		return u.detachCatalogLink(ctx, catalogID)
	}

	prod, err := u.catalog.GetProduct(ctx, catalogID)
	if errors.Is(err, e.ErrRecordNotFound) {
		return u.detachCatalogLink(ctx, catalogID)
	}
	if err != nil {
		return e.Wrap(op, err)
	}

	p := mapper.FromCatalog(prod)

	// Канонический ключ: SKU, при его отсутствии — id записи из локального
	// индекса связей. Обе стороны должны прийти к одному ключу, иначе
	// подавление эха не сработает.
	var localLink *domain.CrossReference
	if l, lErr := u.links.GetByCatalogID(ctx, catalogID); lErr == nil {
		localLink = l
	} else if !errors.Is(lErr, e.ErrLinkNotFound) {
		return e.Wrap(op, lErr)
	}

	key := p.SKU
	if key == "" && localLink != nil {
		key = localLink.RecordsID
	}
	if key == "" {
		key = "catalog:" + ev.ExternalID
	}

	if !u.trk.ShouldProcess(key, domain.SourceCatalog) {
		u.logger.Infof("suppressed echo of records write: key=%s event=%s", key, ev.ID)
		return nil
	}

	link, err := u.resolveFromCatalog(ctx, prod, p.SKU, localLink)
	if err != nil {
		return e.Wrap(op, err)
	}

	now := time.Now()
	fields := mapper.ToRecords(&p)
	for name, v := range mapper.RecordsLinkFields(catalogID, now) {
		fields[name] = v
	}

	if link != nil {
		err = u.withRetry(ctx, "records.UpdateRecord", func() error {
			return u.records.UpdateRecord(ctx, link.RecordsID, fields)
		})
		if err != nil {
			return e.Wrap(op, err)
		}

		link.SKU = p.SKU
		link.CatalogID = catalogID
		link.ConfirmedAt = now
		u.persistLink(ctx, link)
	} else {
		var created *mapper.RecordsRecord
		err = u.withRetry(ctx, "records.CreateRecord", func() error {
			var cErr error
			created, cErr = u.records.CreateRecord(ctx, fields)
			return cErr
		})
		if err != nil {
			return e.Wrap(op, err)
		}

		link = domain.NewCrossReference(created.ID, catalogID, p.SKU)
		u.persistLink(ctx, link)

		// Связь дублируется в meta товара: каталог тоже должен знать контрагента.
		meta := []mapper.CatalogMeta{{Key: mapper.MetaRecordsID, Value: created.ID}}
		if err := u.catalog.UpdateProductMeta(ctx, catalogID, meta); err != nil {
			u.logger.Warnf("failed to stamp records id on product %d: %v", catalogID, err)
		}

		if key == "catalog:"+ev.ExternalID {
			key = link.CanonicalKey()
		}
	}

	u.trk.RecordWrite(key, domain.SourceCatalog)
	u.logger.Infof("catalog -> records: sku=%s catalog_id=%d records_id=%s event=%s",
		p.SKU, catalogID, link.RecordsID, ev.ID)
	return nil
}

// deleteCatalogCounterpart удаляет товар каталога, связанный с исчезнувшей записью.
func (u *SyncUseCase) deleteCatalogCounterpart(ctx context.Context, recordsID string) error {
	const op = "SyncUseCase.deleteCatalogCounterpart"

	link, err := u.links.GetByRecordsID(ctx, recordsID)
	if errors.Is(err, e.ErrLinkNotFound) {
		u.logger.Infof("delete for unlinked record %s, nothing to do", recordsID)
		return nil
	}
	if err != nil {
		return e.Wrap(op, err)
	}

	err = u.withRetry(ctx, "catalog.DeleteProduct", func() error {
		return u.catalog.DeleteProduct(ctx, link.CatalogID)
	})
	if err != nil && !errors.Is(err, e.ErrRecordNotFound) {
		return e.Wrap(op, err)
	}

	if err := u.links.Invalidate(ctx, link.RecordsID, link.CatalogID); err != nil {
		u.logger.Warnf("failed to invalidate link %s/%d: %v", link.RecordsID, link.CatalogID, err)
	}

	u.trk.RecordWrite(link.CanonicalKey(), domain.SourceRecords)
	u.logger.Infof("records -> catalog: deleted product %d for record %s", link.CatalogID, link.RecordsID)
	return nil
}

// detachCatalogLink обрабатывает удаление товара на стороне каталога.
// Запись в хранилище — операционный источник истины, поэтому она не удаляется:
// связь деактивируется, а следующая полная синхронизация пересоздаст товар.
func (u *SyncUseCase) detachCatalogLink(ctx context.Context, catalogID int64) error {
	const op = "SyncUseCase.detachCatalogLink"

	link, err := u.links.GetByCatalogID(ctx, catalogID)
	if errors.Is(err, e.ErrLinkNotFound) {
		u.logger.Infof("delete for unlinked product %d, nothing to do", catalogID)
		return nil
	}
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := u.links.Invalidate(ctx, link.RecordsID, link.CatalogID); err != nil {
		return e.Wrap(op, err)
	}

	u.trk.RecordWrite(link.CanonicalKey(), domain.SourceCatalog)
	u.logger.Infof("catalog product %d deleted, link to record %s detached", catalogID, link.RecordsID)
	return nil
}

// persistLink сохраняет связь в локальном индексе. Ошибка не фатальна для
// события: рассинхронизация индекса восстановима следующей полной синхронизацией.
func (u *SyncUseCase) persistLink(ctx context.Context, link *domain.CrossReference) {
	if err := u.links.Replace(ctx, link); err != nil {
		u.logger.Warnf("link persistence failed for %s/%d: %v", link.RecordsID, link.CatalogID, err)
	}
}

// ensureCatalogTerms подменяет имена категорий и тегов терминами с id,
// создавая отсутствующие через сервис активов каталога.
func (u *SyncUseCase) ensureCatalogTerms(ctx context.Context, payload *mapper.CatalogProduct) error {
	if len(payload.Categories) > 0 {
		names := make([]string, 0, len(payload.Categories))
		for _, t := range payload.Categories {
			names = append(names, t.Name)
		}
		terms, err := u.assets.EnsureCategories(ctx, names)
		if err != nil {
			return err
		}
		payload.Categories = terms
	}

	if len(payload.Tags) > 0 {
		names := make([]string, 0, len(payload.Tags))
		for _, t := range payload.Tags {
			names = append(names, t.Name)
		}
		terms, err := u.assets.EnsureTags(ctx, names)
		if err != nil {
			return err
		}
		payload.Tags = terms
	}

	return nil
}

// withRetry повторяет вызов внешнего API с экспоненциальным отступлением.
// При MaxRetries=0 (базовый дизайн) вызов выполняется ровно один раз.
func (u *SyncUseCase) withRetry(ctx context.Context, what string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= u.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := jitter.ExponentialBackoff(u.cfg.RetryBackoff, u.cfg.RetryMax, attempt-1, jitter.DefaultJitter)
			u.logger.Warnf("%s failed, retry %d/%d in %s: %v", what, attempt, u.cfg.MaxRetries, delay, err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err = fn(); err == nil {
			return nil
		}
		// Осмысленные исходы, а не сбои транспорта: повторять бессмысленно.
		if errors.Is(err, e.ErrRecordNotFound) || errors.Is(err, e.ErrResolutionConflict) {
			return err
		}
	}
	return err
}

// Status возвращает сводку для операторского API.
func (u *SyncUseCase) Status() *StatusRes {
	return &StatusRes{
		RecordsQueueDepth: u.recordsQueue.Depth(),
		CatalogQueueDepth: u.catalogQueue.Depth(),
		RecordsEnqueued:   u.recordsQueue.Enqueued(),
		CatalogEnqueued:   u.catalogQueue.Enqueued(),
		TrackerSize:       u.trk.Size(),
		Uptime:            int64(time.Since(u.startedAt).Seconds()),
	}
}

// EnqueueManual ставит в очередь события для перечисленных записей.
func (u *SyncUseCase) EnqueueManual(source domain.Source, ids []string) int {
	q := u.queueFor(source)
	for _, id := range ids {
		q.Enqueue(domain.NewSyncEvent(source, id, domain.OpUpdate))
	}
	return len(ids)
}

func (u *SyncUseCase) queueFor(source domain.Source) *queue.EventQueue {
	if source == domain.SourceRecords {
		return u.recordsQueue
	}
	return u.catalogQueue
}

func canonicalKey(sku, recordsID string) string {
	if sku != "" {
		return sku
	}
	return recordsID
}
