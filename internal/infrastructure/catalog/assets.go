package catalog

import (
	"context"
	"strings"

	"github.com/DRSN-tech/catalog-sync/internal/mapper"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/jimlawless/whereami"
)

const (
	taxonomyCategories = "categories"
	taxonomyTags       = "tags"
)

// TermCache — кэш соответствий «имя термина -> id». Промах не ошибка.
type TermCache interface {
	Get(ctx context.Context, taxonomy, name string) (int64, bool)
	Set(ctx context.Context, taxonomy, name string, id int64)
}

// AssetService гарантирует существование терминов категорий и тегов в каталоге,
// создавая отсутствующие. Read-through: кэш -> поиск в каталоге -> создание.
type AssetService struct {
	client *Client
	cache  TermCache
	logger logger.Logger
}

func NewAssetService(client *Client, cache TermCache, logger logger.Logger) *AssetService {
	return &AssetService{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

func (a *AssetService) EnsureCategories(ctx context.Context, names []string) ([]mapper.CatalogTerm, error) {
	return a.ensureTerms(ctx, taxonomyCategories, names)
}

func (a *AssetService) EnsureTags(ctx context.Context, names []string) ([]mapper.CatalogTerm, error) {
	return a.ensureTerms(ctx, taxonomyTags, names)
}

func (a *AssetService) ensureTerms(ctx context.Context, taxonomy string, names []string) ([]mapper.CatalogTerm, error) {
	terms := make([]mapper.CatalogTerm, 0, len(names))
	for _, name := range names {
		term, err := a.ensureTerm(ctx, taxonomy, name)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		terms = append(terms, term)
	}

	return terms, nil
}

func (a *AssetService) ensureTerm(ctx context.Context, taxonomy, name string) (mapper.CatalogTerm, error) {
	if id, ok := a.cache.Get(ctx, taxonomy, name); ok {
		return mapper.CatalogTerm{ID: id, Name: name}, nil
	}

	// Поиск каталога нестрогий, поэтому совпадение проверяется по имени.
	found, err := a.client.ListTerms(ctx, taxonomy, name)
	if err != nil {
		return mapper.CatalogTerm{}, err
	}
	for _, t := range found {
		if strings.EqualFold(t.Name, name) {
			a.cache.Set(ctx, taxonomy, name, t.ID)
			return t, nil
		}
	}

	created, err := a.client.CreateTerm(ctx, taxonomy, name)
	if err != nil {
		return mapper.CatalogTerm{}, err
	}

	a.logger.Infof("created catalog %s term: %s (id=%d)", taxonomy, created.Name, created.ID)
	a.cache.Set(ctx, taxonomy, name, created.ID)
	return *created, nil
}
