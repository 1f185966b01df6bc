package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// LinkRepo реализует индекс перекрёстных связей поверх PostgreSQL.
// Частичные уникальные индексы по records_id и catalog_id (WHERE active)
// закрепляют инвариант «не более одной активной связи на сторону».
type LinkRepo struct {
	pool *pgxpool.Pool
}

func NewLinkRepo(pool *pgxpool.Pool) *LinkRepo {
	return &LinkRepo{pool: pool}
}

const selectLink = `
	SELECT records_id, catalog_id, sku, confirmed_at
	FROM links
`

func (l *LinkRepo) GetByRecordsID(ctx context.Context, recordsID string) (*domain.CrossReference, error) {
	query := selectLink + `WHERE records_id = $1 AND active`
	return l.queryOne(ctx, query, recordsID)
}

func (l *LinkRepo) GetByCatalogID(ctx context.Context, catalogID int64) (*domain.CrossReference, error) {
	query := selectLink + `WHERE catalog_id = $1 AND active`
	return l.queryOne(ctx, query, catalogID)
}

// GetBySKU при нескольких активных связях с одним SKU возвращает
// подтверждённую последней.
func (l *LinkRepo) GetBySKU(ctx context.Context, sku string) (*domain.CrossReference, error) {
	query := selectLink + `WHERE sku = $1 AND active ORDER BY confirmed_at DESC LIMIT 1`
	return l.queryOne(ctx, query, sku)
}

// Replace атомарно деактивирует связи, конфликтующие по любой из сторон,
// и сохраняет свежую. Транзакция обязательна: между деактивацией и вставкой
// не должно появиться чужой активной связи.
func (l *LinkRepo) Replace(ctx context.Context, link *domain.CrossReference) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, l.pool)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = tr.WithTx(ctx, tx.Transaction().(pgx.Tx))

	if err = l.deactivateConflicting(ctx, link); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err = l.insertLink(ctx, link); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (l *LinkRepo) deactivateConflicting(ctx context.Context, link *domain.CrossReference) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE links
		SET active = false
		WHERE active AND (records_id = $1 OR catalog_id = $2)
	`
	_, err = tx.Exec(ctx, query, link.RecordsID, link.CatalogID)
	return err
}

func (l *LinkRepo) insertLink(ctx context.Context, link *domain.CrossReference) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO links (records_id, catalog_id, sku, active, confirmed_at)
		VALUES ($1, $2, $3, true, $4)
	`
	_, err = tx.Exec(ctx, query, link.RecordsID, link.CatalogID, link.SKU, link.ConfirmedAt)
	return err
}

// Invalidate деактивирует связь по обеим сторонам. Отсутствие строк не ошибка:
// связь могла быть уже вытеснена.
func (l *LinkRepo) Invalidate(ctx context.Context, recordsID string, catalogID int64) error {
	query := `
		UPDATE links
		SET active = false
		WHERE active AND records_id = $1 AND catalog_id = $2
	`
	if _, err := l.pool.Exec(ctx, query, recordsID, catalogID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (l *LinkRepo) queryOne(ctx context.Context, query string, arg any) (*domain.CrossReference, error) {
	var link domain.CrossReference
	err := l.pool.QueryRow(ctx, query, arg).
		Scan(&link.RecordsID, &link.CatalogID, &link.SKU, &link.ConfirmedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, e.ErrLinkNotFound
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &link, nil
}
