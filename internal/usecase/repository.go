package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
)

// LinkRepository — локальный индекс перекрёстных связей. Даёт O(1)-поиск
// вместо поиска по SKU и обеспечивает инвариант единственности активной связи.
type LinkRepository interface {
	GetByRecordsID(ctx context.Context, recordsID string) (*domain.CrossReference, error)
	GetByCatalogID(ctx context.Context, catalogID int64) (*domain.CrossReference, error)
	GetBySKU(ctx context.Context, sku string) (*domain.CrossReference, error)
	// Replace атомарно деактивирует связи, конфликтующие по любой из сторон,
	// и сохраняет свежую.
	Replace(ctx context.Context, link *domain.CrossReference) error
	Invalidate(ctx context.Context, recordsID string, catalogID int64) error
}
