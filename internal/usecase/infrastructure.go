package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/mapper"
)

// RecordsClient — REST-доступ к хранилищу записей (Store A).
// Единственный интерфейс движка к этой системе: прямого доступа к данным нет.
type RecordsClient interface {
	GetRecord(ctx context.Context, id string) (*mapper.RecordsRecord, error)
	FindBySKU(ctx context.Context, sku string) ([]mapper.RecordsRecord, error)
	ListRecords(ctx context.Context, pageSize int, offset string) ([]mapper.RecordsRecord, string, error)
	CreateRecord(ctx context.Context, fields map[string]any) (*mapper.RecordsRecord, error)
	UpdateRecord(ctx context.Context, id string, fields map[string]any) error
}

// CatalogClient — REST-доступ к каталог-сервису (Store B).
type CatalogClient interface {
	GetProduct(ctx context.Context, id int64) (*mapper.CatalogProduct, error)
	FindBySKU(ctx context.Context, sku string) ([]mapper.CatalogProduct, error)
	ListProducts(ctx context.Context, page, perPage int) ([]mapper.CatalogProduct, error)
	CreateProduct(ctx context.Context, prod *mapper.CatalogProduct) (*mapper.CatalogProduct, error)
	UpdateProduct(ctx context.Context, id int64, prod *mapper.CatalogProduct) error
	UpdateProductMeta(ctx context.Context, id int64, meta []mapper.CatalogMeta) error
	DeleteProduct(ctx context.Context, id int64) error
}

// CatalogAssets — узкий интерфейс к сервису активов каталога: гарантирует
// существование терминов категорий и тегов и возвращает их с проставленными id.
type CatalogAssets interface {
	EnsureCategories(ctx context.Context, names []string) ([]mapper.CatalogTerm, error)
	EnsureTags(ctx context.Context, names []string) ([]mapper.CatalogTerm, error)
}

// DeadLetterProducer публикует событие, окончательно отброшенное воркером.
// Опциональное усиление базового дизайна; при отсутствии события теряются до
// следующей полной синхронизации.
type DeadLetterProducer interface {
	Publish(ctx context.Context, ev domain.SyncEvent, cause error) error
}
