package usecase

import (
	"context"
	"errors"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/mapper"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
)

// resolveFromRecords находит товар-контрагент для записи хранилища.
// Порядок: локальный индекс связей -> id, сохранённый в самой записи ->
// локальный индекс по SKU -> поиск по SKU в каталоге. nil без ошибки
// означает «контрагента нет, нужно создание».
func (u *SyncUseCase) resolveFromRecords(ctx context.Context, rec *mapper.RecordsRecord, sku string) (*domain.CrossReference, error) {
	const op = "SyncUseCase.resolveFromRecords"

	link, err := u.links.GetByRecordsID(ctx, rec.ID)
	if err != nil && !errors.Is(err, e.ErrLinkNotFound) {
		return nil, e.Wrap(op, err)
	}
	if link != nil {
		exists, err := u.catalogProductExists(ctx, link.CatalogID)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		if exists {
			return link, nil
		}
		// Контрагент исчез — связь недействительна.
		if err := u.links.Invalidate(ctx, link.RecordsID, link.CatalogID); err != nil {
			u.logger.Warnf("failed to invalidate stale link %s/%d: %v", link.RecordsID, link.CatalogID, err)
		}
	}

	if cid := mapper.RecordsCounterpartID(rec); cid != 0 {
		exists, err := u.catalogProductExists(ctx, cid)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		if exists {
			return domain.NewCrossReference(rec.ID, cid, sku), nil
		}
	}

	if sku != "" {
		// Локальный индекс по SKU избавляет от поиска в каталоге, когда запись
		// пересоздана под тем же SKU: связь несёт id ещё живого товара.
		if l, lErr := u.links.GetBySKU(ctx, sku); lErr == nil {
			exists, err := u.catalogProductExists(ctx, l.CatalogID)
			if err != nil {
				return nil, e.Wrap(op, err)
			}
			if exists {
				return domain.NewCrossReference(rec.ID, l.CatalogID, sku), nil
			}
			if err := u.links.Invalidate(ctx, l.RecordsID, l.CatalogID); err != nil {
				u.logger.Warnf("failed to invalidate stale link %s/%d: %v", l.RecordsID, l.CatalogID, err)
			}
		} else if !errors.Is(lErr, e.ErrLinkNotFound) {
			return nil, e.Wrap(op, lErr)
		}

		matches, err := u.catalog.FindBySKU(ctx, sku)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		switch {
		case len(matches) > 1:
			// Гадать нельзя: событие отбрасывается без записи в любую из систем.
			return nil, e.ErrResolutionConflict
		case len(matches) == 1:
			return domain.NewCrossReference(rec.ID, matches[0].ID, sku), nil
		}
	}

	return nil, nil
}

// resolveFromCatalog — зеркальное разрешение для товара каталога.
// localLink — уже найденная связь из локального индекса, если была.
func (u *SyncUseCase) resolveFromCatalog(ctx context.Context, prod *mapper.CatalogProduct, sku string, localLink *domain.CrossReference) (*domain.CrossReference, error) {
	const op = "SyncUseCase.resolveFromCatalog"

	if localLink != nil {
		exists, err := u.recordExists(ctx, localLink.RecordsID)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		if exists {
			return localLink, nil
		}
		if err := u.links.Invalidate(ctx, localLink.RecordsID, localLink.CatalogID); err != nil {
			u.logger.Warnf("failed to invalidate stale link %s/%d: %v", localLink.RecordsID, localLink.CatalogID, err)
		}
	}

	if rid := mapper.CatalogCounterpartID(prod); rid != "" {
		exists, err := u.recordExists(ctx, rid)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		if exists {
			return domain.NewCrossReference(rid, prod.ID, sku), nil
		}
	}

	if sku != "" {
		// Зеркальный случай: товар пересоздан в каталоге под тем же SKU,
		// связь по SKU ведёт к прежней записи.
		if l, lErr := u.links.GetBySKU(ctx, sku); lErr == nil {
			exists, err := u.recordExists(ctx, l.RecordsID)
			if err != nil {
				return nil, e.Wrap(op, err)
			}
			if exists {
				return domain.NewCrossReference(l.RecordsID, prod.ID, sku), nil
			}
			if err := u.links.Invalidate(ctx, l.RecordsID, l.CatalogID); err != nil {
				u.logger.Warnf("failed to invalidate stale link %s/%d: %v", l.RecordsID, l.CatalogID, err)
			}
		} else if !errors.Is(lErr, e.ErrLinkNotFound) {
			return nil, e.Wrap(op, lErr)
		}

		matches, err := u.records.FindBySKU(ctx, sku)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		switch {
		case len(matches) > 1:
			return nil, e.ErrResolutionConflict
		case len(matches) == 1:
			return domain.NewCrossReference(matches[0].ID, prod.ID, sku), nil
		}
	}

	return nil, nil
}

// catalogProductExists проверяет, что товар ещё существует.
// Сетевые ошибки пробрасываются: молчаливое «не существует» привело бы к дублю.
func (u *SyncUseCase) catalogProductExists(ctx context.Context, id int64) (bool, error) {
	_, err := u.catalog.GetProduct(ctx, id)
	if errors.Is(err, e.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (u *SyncUseCase) recordExists(ctx context.Context, id string) (bool, error) {
	_, err := u.records.GetRecord(ctx, id)
	if errors.Is(err, e.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
