package usecase

import (
	"context"
	"strconv"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
)

// RunFullSync постранично обходит коллекции систем-источников и порождает
// синтетические события обновления. Путь через общие очереди и воркеры
// сохраняет гарантии подавления эха и разрешения связей; webhook-трафик
// может идти параллельно.
func (u *SyncUseCase) RunFullSync(ctx context.Context, direction domain.Direction) error {
	const op = "SyncUseCase.RunFullSync"

	if direction == domain.DirectionRecordsToCatalog || direction == domain.DirectionBoth {
		if err := u.fullSyncRecords(ctx); err != nil {
			return e.Wrap(op, err)
		}
	}

	if direction == domain.DirectionCatalogToRecords || direction == domain.DirectionBoth {
		if err := u.fullSyncCatalog(ctx); err != nil {
			return e.Wrap(op, err)
		}
	}

	return nil
}

// fullSyncRecords обходит хранилище записей по курсору-offset.
func (u *SyncUseCase) fullSyncRecords(ctx context.Context) error {
	const op = "SyncUseCase.fullSyncRecords"

	var (
		offset string
		total  int
	)
	for {
		// Остановка кооперативная: проверка между страницами.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		recs, next, err := u.records.ListRecords(ctx, u.cfg.PageSize, offset)
		if err != nil {
			return e.Wrap(op, err)
		}

		for _, rec := range recs {
			u.recordsQueue.Enqueue(domain.NewSyncEvent(domain.SourceRecords, rec.ID, domain.OpUpdate))
			total++
		}

		if next == "" {
			break
		}
		offset = next
	}

	u.logger.Infof("full sync: enqueued %d records events", total)
	return nil
}

// fullSyncCatalog обходит каталог по номерам страниц; неполная страница —
// терминальное условие.
func (u *SyncUseCase) fullSyncCatalog(ctx context.Context) error {
	const op = "SyncUseCase.fullSyncCatalog"

	total := 0
	for page := 1; ; page++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		products, err := u.catalog.ListProducts(ctx, page, u.cfg.PageSize)
		if err != nil {
			return e.Wrap(op, err)
		}
		if len(products) == 0 {
			break
		}

		for _, prod := range products {
			u.catalogQueue.Enqueue(domain.NewSyncEvent(
				domain.SourceCatalog,
				strconv.FormatInt(prod.ID, 10),
				domain.OpUpdate,
			))
			total++
		}

		if len(products) < u.cfg.PageSize {
			break
		}
	}

	u.logger.Infof("full sync: enqueued %d catalog events", total)
	return nil
}
