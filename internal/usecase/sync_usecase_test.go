package usecase

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/DRSN-tech/catalog-sync/internal/mapper"
	"github.com/DRSN-tech/catalog-sync/internal/queue"
	"github.com/DRSN-tech/catalog-sync/internal/tracker"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- фейки внешних систем ---

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any)            {}
func (nopLogger) Infof(format string, args ...any)             {}
func (nopLogger) Warnf(format string, args ...any)             {}
func (nopLogger) Errorf(err error, format string, args ...any) {}

type fakeRecords struct {
	records     map[string]*mapper.RecordsRecord
	updates     map[string][]map[string]any
	skuSearches int
	nextID      int
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		records: map[string]*mapper.RecordsRecord{},
		updates: map[string][]map[string]any{},
		nextID:  1,
	}
}

func (f *fakeRecords) GetRecord(_ context.Context, id string) (*mapper.RecordsRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, e.ErrRecordNotFound
	}
	return rec, nil
}

func (f *fakeRecords) FindBySKU(_ context.Context, sku string) ([]mapper.RecordsRecord, error) {
	f.skuSearches++
	var out []mapper.RecordsRecord
	for _, rec := range f.records {
		if s, _ := rec.Fields[mapper.FieldSKU].(string); s == sku {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeRecords) ListRecords(_ context.Context, pageSize int, offset string) ([]mapper.RecordsRecord, string, error) {
	ids := make([]string, 0, len(f.records))
	for id := range f.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if offset != "" {
		start, _ = strconv.Atoi(offset)
	}
	end := start + pageSize
	if end >= len(ids) {
		out := make([]mapper.RecordsRecord, 0)
		for _, id := range ids[start:] {
			out = append(out, *f.records[id])
		}
		return out, "", nil
	}

	out := make([]mapper.RecordsRecord, 0, pageSize)
	for _, id := range ids[start:end] {
		out = append(out, *f.records[id])
	}
	return out, strconv.Itoa(end), nil
}

func (f *fakeRecords) CreateRecord(_ context.Context, fields map[string]any) (*mapper.RecordsRecord, error) {
	id := "rec" + strconv.Itoa(f.nextID)
	f.nextID++
	rec := &mapper.RecordsRecord{ID: id, Fields: fields}
	f.records[id] = rec
	return rec, nil
}

func (f *fakeRecords) UpdateRecord(_ context.Context, id string, fields map[string]any) error {
	rec, ok := f.records[id]
	if !ok {
		return e.ErrRecordNotFound
	}
	for k, v := range fields {
		rec.Fields[k] = v
	}
	f.updates[id] = append(f.updates[id], fields)
	return nil
}

type fakeCatalog struct {
	products    map[int64]*mapper.CatalogProduct
	updated     map[int64]int
	deleted     []int64
	skuSearches int
	nextID      int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: map[int64]*mapper.CatalogProduct{},
		updated:  map[int64]int{},
		nextID:   100,
	}
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (*mapper.CatalogProduct, error) {
	prod, ok := f.products[id]
	if !ok {
		return nil, e.ErrRecordNotFound
	}
	return prod, nil
}

func (f *fakeCatalog) FindBySKU(_ context.Context, sku string) ([]mapper.CatalogProduct, error) {
	f.skuSearches++
	var out []mapper.CatalogProduct
	for _, prod := range f.products {
		if prod.SKU == sku {
			out = append(out, *prod)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ListProducts(_ context.Context, page, perPage int) ([]mapper.CatalogProduct, error) {
	var all []mapper.CatalogProduct
	for _, prod := range f.products {
		all = append(all, *prod)
	}

	start := (page - 1) * perPage
	if start >= len(all) {
		return nil, nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, prod *mapper.CatalogProduct) (*mapper.CatalogProduct, error) {
	created := *prod
	created.ID = f.nextID
	f.nextID++
	f.products[created.ID] = &created
	return &created, nil
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, id int64, prod *mapper.CatalogProduct) error {
	if _, ok := f.products[id]; !ok {
		return e.ErrRecordNotFound
	}
	updated := *prod
	updated.ID = id
	f.products[id] = &updated
	f.updated[id]++
	return nil
}

func (f *fakeCatalog) UpdateProductMeta(_ context.Context, id int64, meta []mapper.CatalogMeta) error {
	prod, ok := f.products[id]
	if !ok {
		return e.ErrRecordNotFound
	}
	prod.MetaData = append(prod.MetaData, meta...)
	return nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return e.ErrRecordNotFound
	}
	delete(f.products, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeAssets struct {
	nextID int64
	ids    map[string]int64
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{nextID: 1, ids: map[string]int64{}}
}

func (f *fakeAssets) ensure(names []string) []mapper.CatalogTerm {
	terms := make([]mapper.CatalogTerm, 0, len(names))
	for _, name := range names {
		id, ok := f.ids[name]
		if !ok {
			id = f.nextID
			f.nextID++
			f.ids[name] = id
		}
		terms = append(terms, mapper.CatalogTerm{ID: id, Name: name})
	}
	return terms
}

func (f *fakeAssets) EnsureCategories(_ context.Context, names []string) ([]mapper.CatalogTerm, error) {
	return f.ensure(names), nil
}

func (f *fakeAssets) EnsureTags(_ context.Context, names []string) ([]mapper.CatalogTerm, error) {
	return f.ensure(names), nil
}

type fakeLinks struct {
	links []*domain.CrossReference
}

func (f *fakeLinks) GetByRecordsID(_ context.Context, recordsID string) (*domain.CrossReference, error) {
	for _, l := range f.links {
		if l.RecordsID == recordsID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, e.ErrLinkNotFound
}

func (f *fakeLinks) GetByCatalogID(_ context.Context, catalogID int64) (*domain.CrossReference, error) {
	for _, l := range f.links {
		if l.CatalogID == catalogID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, e.ErrLinkNotFound
}

func (f *fakeLinks) GetBySKU(_ context.Context, sku string) (*domain.CrossReference, error) {
	for _, l := range f.links {
		if l.SKU == sku {
			cp := *l
			return &cp, nil
		}
	}
	return nil, e.ErrLinkNotFound
}

func (f *fakeLinks) Replace(_ context.Context, link *domain.CrossReference) error {
	kept := f.links[:0]
	for _, l := range f.links {
		if l.RecordsID != link.RecordsID && l.CatalogID != link.CatalogID {
			kept = append(kept, l)
		}
	}
	cp := *link
	f.links = append(kept, &cp)
	return nil
}

func (f *fakeLinks) Invalidate(_ context.Context, recordsID string, catalogID int64) error {
	kept := f.links[:0]
	for _, l := range f.links {
		if l.RecordsID != recordsID || l.CatalogID != catalogID {
			kept = append(kept, l)
		}
	}
	f.links = kept
	return nil
}

// --- сборка движка под тест ---

type syncFixture struct {
	uc      *SyncUseCase
	records *fakeRecords
	catalog *fakeCatalog
	links   *fakeLinks
	trk     *tracker.Tracker
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	f := &syncFixture{
		records: newFakeRecords(),
		catalog: newFakeCatalog(),
		links:   &fakeLinks{},
		trk:     tracker.New(30 * time.Second),
	}
	f.uc = NewSyncUC(
		f.records,
		f.catalog,
		newFakeAssets(),
		f.links,
		f.trk,
		queue.New(),
		queue.New(),
		&cfg.SyncCfg{
			TrackerTTL:   30 * time.Second,
			PageSize:     100,
			RetryBackoff: time.Millisecond,
			RetryMax:     time.Millisecond,
		},
		nopLogger{},
	)
	return f
}

func (f *syncFixture) addRecord(id string, fields map[string]any) {
	f.records.records[id] = &mapper.RecordsRecord{ID: id, Fields: fields}
}

func (f *syncFixture) addLink(recordsID string, catalogID int64, sku string) {
	f.links.links = append(f.links.links, domain.NewCrossReference(recordsID, catalogID, sku))
}

// --- сценарии ---

func TestReconcile_RecordsCreatePropagatesToCatalog(t *testing.T) {
	f := newSyncFixture(t)
	f.addRecord("recA", map[string]any{
		mapper.FieldName:     "Vintage Lamp",
		mapper.FieldSKU:      "LAMP-001",
		mapper.FieldPrice:    149.99,
		mapper.FieldStock:    float64(3),
		mapper.FieldCategory: "Lighting",
	})

	err := f.uc.Reconcile(context.Background(),
		domain.NewSyncEvent(domain.SourceRecords, "recA", domain.OpCreate))
	require.NoError(t, err)

	// Товар создан с нормализованными полями и проставленными id терминов.
	require.Len(t, f.catalog.products, 1)
	var prod *mapper.CatalogProduct
	for _, p := range f.catalog.products {
		prod = p
	}
	assert.Equal(t, "LAMP-001", prod.SKU)
	assert.Equal(t, "149.99", prod.RegularPrice)
	assert.Equal(t, "instock", prod.StockStatus)
	require.Len(t, prod.Categories, 1)
	assert.NotZero(t, prod.Categories[0].ID)
	assert.Equal(t, "recA", mapper.CatalogCounterpartID(prod))

	// Связь сохранена, запись помечена id товара.
	link, err := f.links.GetByRecordsID(context.Background(), "recA")
	require.NoError(t, err)
	assert.Equal(t, prod.ID, link.CatalogID)
	assert.Equal(t, strconv.FormatInt(prod.ID, 10), f.records.records["recA"].Fields[mapper.FieldCatalogID])
}

func TestReconcile_EchoSuppressed(t *testing.T) {
	f := newSyncFixture(t)
	f.addRecord("recA", map[string]any{
		mapper.FieldName:  "Lamp",
		mapper.FieldSKU:   "LAMP-001",
		mapper.FieldPrice: 100.0,
		mapper.FieldStock: float64(1),
	})

	err := f.uc.Reconcile(context.Background(),
		domain.NewSyncEvent(domain.SourceRecords, "recA", domain.OpUpdate))
	require.NoError(t, err)

	link, err := f.links.GetByRecordsID(context.Background(), "recA")
	require.NoError(t, err)

	// Каталог сообщает о записи, которую только что сделал движок:
	// событие гасится, обратной записи в хранилище нет.
	err = f.uc.Reconcile(context.Background(),
		domain.NewSyncEvent(domain.SourceCatalog, strconv.FormatInt(link.CatalogID, 10), domain.OpUpdate))
	require.NoError(t, err)

	assert.Empty(t, f.records.updates["recA"][1:], "suppressed echo must not write back")
	require.Len(t, f.records.updates["recA"], 1) // только отметка Catalog ID при создании
}

func TestReconcile_UpdateReusesExistingLink(t *testing.T) {
	f := newSyncFixture(t)
	f.addRecord("recA", map[string]any{
		mapper.FieldName:  "Lamp",
		mapper.FieldSKU:   "LAMP-001",
		mapper.FieldPrice: 100.0,
		mapper.FieldStock: float64(1),
	})

	ctx := context.Background()
	require.NoError(t, f.uc.Reconcile(ctx, domain.NewSyncEvent(domain.SourceRecords, "recA", domain.OpCreate)))
	require.Len(t, f.catalog.products, 1)

	f.records.records["recA"].Fields[mapper.FieldPrice] = 120.0
	require.NoError(t, f.uc.Reconcile(ctx, domain.NewSyncEvent(domain.SourceRecords, "recA", domain.OpUpdate)))

	// Повторное событие обновляет тот же товар, а не создаёт новый.
	require.Len(t, f.catalog.products, 1)
	link, err := f.links.GetByRecordsID(ctx, "recA")
	require.NoError(t, err)
	assert.Equal(t, 1, f.catalog.updated[link.CatalogID])
	assert.Equal(t, "120", f.catalog.products[link.CatalogID].RegularPrice)
}

func TestReconcile_ResolvesBySKUWithoutLink(t *testing.T) {
	f := newSyncFixture(t)
	f.addRecord("recA", map[string]any{
		mapper.FieldName:  "Lamp",
		mapper.FieldSKU:   "LAMP-001",
		mapper.FieldPrice: 100.0,
		mapper.FieldStock: float64(1),
	})
	existing, err := f.catalog.CreateProduct(context.Background(), &mapper.CatalogProduct{
		Name: "Lamp (old import)", SKU: "LAMP-001", RegularPrice: "90",
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.Reconcile(context.Background(),
		domain.NewSyncEvent(domain.SourceRecords, "recA", domain.OpUpdate)))

	// Индекс пуст, но SKU совпал: товар обновлён, дубль не создан.
	require.Len(t, f.catalog.products, 1)
	assert.Equal(t, 1, f.catalog.updated[existing.ID])

	link, err := f.links.GetByRecordsID(context.Background(), "recA")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, link.CatalogID)
}

func TestReconcile_AmbiguousSKUDropsEvent(t *testing.T) {
	f := newSyncFixture(t)
	f.addRecord("recA", map[string]any{
		mapper.FieldName:  "Lamp",
		mapper.FieldSKU:   "LAMP-001",
		mapper.FieldPrice: 100.0,
		mapper.FieldStock: float64(1),
	})
	_, err := f.catalog.CreateProduct(context.Background(), &mapper.CatalogProduct{SKU: "LAMP-001"})
	require.NoError(t, err)
	_, err = f.catalog.CreateProduct(context.Background(), &mapper.CatalogProduct{SKU: "LAMP-001"})
	require.NoError(t, err)

	err = f.uc.Reconcile(context.Background(),
		domain.NewSyncEvent(domain.SourceRecords, "recA", domain.OpUpdate))

	// Два кандидата — гадать нельзя: событие отброшено, записи нетронуты.
	assert.ErrorIs(t, err, e.ErrResolutionConflict)
	assert.Empty(t, f.catalog.updated)
}

func TestReconcile_ImplicitDelete(t *testing.T) {
	f := newSyncFixture(t)
	f.addRecord("recA", map[string]any{
		mapper.FieldName:  "Lamp",
		mapper.FieldSKU:   "LAMP-001",
		mapper.FieldPrice: 100.0,
		mapper.FieldStock: float64(1),
	})

	ctx := context.Background()
	require.NoError(t, f.uc.Reconcile(ctx, domain.NewSyncEvent(domain.SourceRecords, "recA", domain.OpCreate)))
	link, err := f.links.GetByRecordsID(ctx, "recA")
	require.NoError(t, err)

	// Запись исчезла между webhook и чтением — update становится удалением.
	delete(f.records.records, "recA")
	require.NoError(t, f.uc.Reconcile(ctx, domain.NewSyncEvent(domain.SourceRecords, "recA", domain.OpUpdate)))

	assert.Contains(t, f.catalog.deleted, link.CatalogID)
	_, err = f.links.GetByRecordsID(ctx, "recA")
	assert.ErrorIs(t, err, e.ErrLinkNotFound)
}

func TestReconcile_CatalogDeleteDetachesWithoutDeletingRecord(t *testing.T) {
	f := newSyncFixture(t)
	f.addRecord("recA", map[string]any{
		mapper.FieldName:  "Lamp",
		mapper.FieldSKU:   "LAMP-001",
		mapper.FieldPrice: 100.0,
		mapper.FieldStock: float64(1),
	})

	ctx := context.Background()
	require.NoError(t, f.uc.Reconcile(ctx, domain.NewSyncEvent(domain.SourceRecords, "recA", domain.OpCreate)))
	link, err := f.links.GetByRecordsID(ctx, "recA")
	require.NoError(t, err)

	delete(f.catalog.products, link.CatalogID)
	require.NoError(t, f.uc.Reconcile(ctx,
		domain.NewSyncEvent(domain.SourceCatalog, strconv.FormatInt(link.CatalogID, 10), domain.OpDelete)))

	// Хранилище — источник истины: запись живёт, связь деактивирована.
	assert.Contains(t, f.records.records, "recA")
	_, err = f.links.GetByRecordsID(ctx, "recA")
	assert.ErrorIs(t, err, e.ErrLinkNotFound)
}

func TestReconcile_CatalogCreatePropagatesToRecords(t *testing.T) {
	f := newSyncFixture(t)
	prod, err := f.catalog.CreateProduct(context.Background(), &mapper.CatalogProduct{
		Name:          "Showroom Chair",
		SKU:           "CHAIR-007",
		RegularPrice:  "250",
		StockQuantity: 4,
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.Reconcile(context.Background(),
		domain.NewSyncEvent(domain.SourceCatalog, strconv.FormatInt(prod.ID, 10), domain.OpCreate)))

	// Запись создана и связана в обе стороны.
	require.Len(t, f.records.records, 1)
	var rec *mapper.RecordsRecord
	for _, r := range f.records.records {
		rec = r
	}
	assert.Equal(t, "CHAIR-007", rec.Fields[mapper.FieldSKU])
	assert.Equal(t, "Showroom Chair", rec.Fields[mapper.FieldName])
	assert.Equal(t, strconv.FormatInt(prod.ID, 10), rec.Fields[mapper.FieldCatalogID])
	assert.Equal(t, rec.ID, mapper.CatalogCounterpartID(f.catalog.products[prod.ID]))

	link, err := f.links.GetByCatalogID(context.Background(), prod.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, link.RecordsID)
}

func TestReconcile_CatalogStockOutPropagatesToRecords(t *testing.T) {
	f := newSyncFixture(t)
	f.addRecord("recA", map[string]any{
		mapper.FieldName:  "Lamp",
		mapper.FieldSKU:   "LAMP-001",
		mapper.FieldPrice: 100.0,
		mapper.FieldStock: float64(5),
	})
	prod, err := f.catalog.CreateProduct(context.Background(), &mapper.CatalogProduct{
		Name: "Lamp", SKU: "LAMP-001", RegularPrice: "100", StockQuantity: 0,
	})
	require.NoError(t, err)
	f.addLink("recA", prod.ID, "LAMP-001")

	// Каталог сообщает об обнулении остатка: запись обновляется через
	// существующую связь, без создания дубля.
	err = f.uc.Reconcile(context.Background(),
		domain.NewSyncEvent(domain.SourceCatalog, strconv.FormatInt(prod.ID, 10), domain.OpUpdate))
	require.NoError(t, err)

	rec := f.records.records["recA"]
	assert.Equal(t, 0, rec.Fields[mapper.FieldStock])
	assert.Equal(t, "outofstock", rec.Fields[mapper.FieldStockStatus])
	assert.Equal(t, strconv.FormatInt(prod.ID, 10), rec.Fields[mapper.FieldCatalogID])
	require.Len(t, f.records.records, 1)

	link, err := f.links.GetByCatalogID(context.Background(), prod.ID)
	require.NoError(t, err)
	assert.Equal(t, "recA", link.RecordsID)

	// Обратный webhook хранилища о том же ключе в пределах TTL гасится:
	// записи в каталог нет.
	err = f.uc.Reconcile(context.Background(),
		domain.NewSyncEvent(domain.SourceRecords, "recA", domain.OpUpdate))
	require.NoError(t, err)
	assert.Empty(t, f.catalog.updated)
	require.Len(t, f.catalog.products, 1)
}

func TestReconcile_LocalSKUIndexRelinksRecreatedRecord(t *testing.T) {
	f := newSyncFixture(t)
	prod, err := f.catalog.CreateProduct(context.Background(), &mapper.CatalogProduct{
		Name: "Lamp", SKU: "LAMP-001", RegularPrice: "90",
	})
	require.NoError(t, err)
	// Старая запись исчезла, связь осталась; новая запись пришла с тем же SKU.
	f.addLink("recOld", prod.ID, "LAMP-001")
	f.addRecord("recNew", map[string]any{
		mapper.FieldName:  "Lamp",
		mapper.FieldSKU:   "LAMP-001",
		mapper.FieldPrice: 100.0,
		mapper.FieldStock: float64(1),
	})

	require.NoError(t, f.uc.Reconcile(context.Background(),
		domain.NewSyncEvent(domain.SourceRecords, "recNew", domain.OpUpdate)))

	// Товар найден через локальный индекс по SKU: обновление, а не дубль,
	// и без обращения к поиску каталога.
	require.Len(t, f.catalog.products, 1)
	assert.Equal(t, 1, f.catalog.updated[prod.ID])
	assert.Zero(t, f.catalog.skuSearches)

	link, err := f.links.GetByRecordsID(context.Background(), "recNew")
	require.NoError(t, err)
	assert.Equal(t, prod.ID, link.CatalogID)
}

func TestReconcile_LocalSKUIndexRelinksRecreatedProduct(t *testing.T) {
	f := newSyncFixture(t)
	f.addRecord("recA", map[string]any{
		mapper.FieldName:  "Chair",
		mapper.FieldSKU:   "CHAIR-007",
		mapper.FieldPrice: 250.0,
		mapper.FieldStock: float64(4),
	})
	// Товар пересоздан в каталоге: связь ведёт к исчезнувшему id.
	f.addLink("recA", 999, "CHAIR-007")
	prod, err := f.catalog.CreateProduct(context.Background(), &mapper.CatalogProduct{
		Name: "Chair", SKU: "CHAIR-007", RegularPrice: "250", StockQuantity: 4,
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.Reconcile(context.Background(),
		domain.NewSyncEvent(domain.SourceCatalog, strconv.FormatInt(prod.ID, 10), domain.OpUpdate)))

	// Запись найдена через локальный индекс по SKU, дубль не создан.
	require.Len(t, f.records.records, 1)
	assert.Zero(t, f.records.skuSearches)

	link, err := f.links.GetByCatalogID(context.Background(), prod.ID)
	require.NoError(t, err)
	assert.Equal(t, "recA", link.RecordsID)
}

func TestReconcile_InvalidSource(t *testing.T) {
	f := newSyncFixture(t)

	err := f.uc.Reconcile(context.Background(), domain.SyncEvent{
		ID: "x", Source: "unknown", ExternalID: "1", Op: domain.OpUpdate,
	})
	assert.ErrorIs(t, err, e.ErrInvalidSource)
}

func TestEnqueueManualAndStatus(t *testing.T) {
	f := newSyncFixture(t)

	n := f.uc.EnqueueManual(domain.SourceRecords, []string{"recA", "recB", "recC"})
	assert.Equal(t, 3, n)

	st := f.uc.Status()
	assert.Equal(t, 3, st.RecordsQueueDepth)
	assert.Equal(t, uint64(3), st.RecordsEnqueued)
	assert.Equal(t, 0, st.CatalogQueueDepth)
}

// --- повторы внешних вызовов ---

func TestWithRetry_TransientFailureRecovered(t *testing.T) {
	f := newSyncFixture(t)
	f.uc.cfg.MaxRetries = 2

	calls := 0
	err := f.uc.withRetry(context.Background(), "flaky", func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_SingleAttemptByDefault(t *testing.T) {
	f := newSyncFixture(t)

	calls := 0
	err := f.uc.withRetry(context.Background(), "flaky", func() error {
		calls++
		return errors.New("connection reset")
	})

	// MaxRetries=0: вызов выполняется ровно один раз, ошибка терминальна.
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_NotFoundNotRetried(t *testing.T) {
	f := newSyncFixture(t)
	f.uc.cfg.MaxRetries = 3

	calls := 0
	err := f.uc.withRetry(context.Background(), "lookup", func() error {
		calls++
		return e.ErrRecordNotFound
	})

	// Осмысленный исход, а не сбой транспорта: повторы не выполняются.
	assert.ErrorIs(t, err, e.ErrRecordNotFound)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_CancelledBeforeRetry(t *testing.T) {
	f := newSyncFixture(t)
	f.uc.cfg.MaxRetries = 5
	f.uc.cfg.RetryBackoff = time.Minute
	f.uc.cfg.RetryMax = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := f.uc.withRetry(ctx, "flaky", func() error {
		calls++
		return errors.New("connection reset")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
