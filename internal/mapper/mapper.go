// Package mapper — чистые двунаправленные преобразования между схемой
// хранилища записей, схемой каталога и канонической моделью ProductRecord.
// Никаких побочных эффектов: вся работа с сетью и хранилищами — у вызывающих.
package mapper

import (
	"fmt"
	"strconv"
	"time"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/shopspring/decimal"
)

// mappedRecordsFields — поля записи, у которых есть именованное место в канонической
// модели. Всё остальное уходит в Meta, чтобы не потеряться при проходе через движок.
var mappedRecordsFields = map[string]struct{}{
	FieldName: {}, FieldSKU: {}, FieldPrice: {}, FieldSalePrice: {},
	FieldStock: {}, FieldDescription: {}, FieldShortDesc: {}, FieldWeight: {},
	FieldLength: {}, FieldWidth: {}, FieldHeight: {},
	FieldCategory: {}, FieldTags: {}, FieldImages: {},
	FieldChannel: {}, FieldStartingBid: {},
	FieldCatalogID: {}, FieldStockStatus: {}, FieldLastSync: {},
}

// reservedCatalogMeta — meta-ключи, относящиеся к связи и учёту синхронизации.
var reservedCatalogMeta = map[string]struct{}{
	MetaRecordsID: {}, MetaLastSync: {},
}

// FromRecords строит каноническую модель из сырой записи хранилища записей.
func FromRecords(rec *RecordsRecord) domain.ProductRecord {
	f := rec.Fields
	p := domain.ProductRecord{
		SKU:              asString(f[FieldSKU]),
		Name:             asString(f[FieldName]),
		Description:      asString(f[FieldDescription]),
		ShortDescription: asString(f[FieldShortDesc]),
		RegularPrice:     asDecimal(f[FieldPrice]),
		StockQuantity:    asInt(f[FieldStock]),
		Categories:       normalizeSet(asStringList(f[FieldCategory])),
		Tags:             normalizeSet(asStringList(f[FieldTags])),
		Images:           recordsImageURLs(f[FieldImages]),
		Meta:             map[string]string{},
	}

	if v, ok := f[FieldSalePrice]; ok && v != nil {
		d := asDecimal(v)
		p.SalePrice = &d
	}
	if v, ok := f[FieldWeight]; ok && v != nil {
		d := asDecimal(v)
		p.Weight = &d
	}
	p.Dimensions = domain.Dimensions{
		Length: asDecimal(f[FieldLength]),
		Width:  asDecimal(f[FieldWidth]),
		Height: asDecimal(f[FieldHeight]),
	}

	if v := asString(f[FieldChannel]); v != "" {
		p.Meta[MetaChannel] = v
	}
	if v, ok := f[FieldStartingBid]; ok && v != nil {
		p.Meta[MetaStartingBid] = asDecimal(v).String()
	}

	// Неизвестные поля сохраняются как есть — аддитивность, а не перезапись.
	for name, v := range f {
		if _, known := mappedRecordsFields[name]; known || v == nil {
			continue
		}
		p.Meta[name] = fmt.Sprint(v)
	}

	return p
}

// ToRecords строит карту полей для записи в хранилище записей.
func ToRecords(p *domain.ProductRecord) map[string]any {
	fields := map[string]any{
		FieldName:        p.Name,
		FieldSKU:         p.SKU,
		FieldPrice:       p.RegularPrice.InexactFloat64(),
		FieldStock:       p.StockQuantity,
		FieldDescription: p.Description,
		FieldShortDesc:   p.ShortDescription,
		FieldStockStatus: p.StockStatus(),
	}

	if p.SalePrice != nil {
		fields[FieldSalePrice] = p.SalePrice.InexactFloat64()
	}
	if p.Weight != nil {
		fields[FieldWeight] = p.Weight.InexactFloat64()
	}
	if !p.Dimensions.Length.IsZero() {
		fields[FieldLength] = p.Dimensions.Length.InexactFloat64()
	}
	if !p.Dimensions.Width.IsZero() {
		fields[FieldWidth] = p.Dimensions.Width.InexactFloat64()
	}
	if !p.Dimensions.Height.IsZero() {
		fields[FieldHeight] = p.Dimensions.Height.InexactFloat64()
	}
	if len(p.Categories) > 0 {
		fields[FieldCategory] = append([]string(nil), p.Categories...)
	}
	if len(p.Tags) > 0 {
		fields[FieldTags] = append([]string(nil), p.Tags...)
	}

	for key, v := range p.Meta {
		switch key {
		case MetaChannel:
			fields[FieldChannel] = v
		case MetaStartingBid:
			if bid, err := decimal.NewFromString(v); err == nil {
				fields[FieldStartingBid] = bid.InexactFloat64()
			}
		default:
			fields[key] = v
		}
	}

	return fields
}

// FromCatalog строит каноническую модель из сырого товара каталога.
func FromCatalog(prod *CatalogProduct) domain.ProductRecord {
	p := domain.ProductRecord{
		SKU:              prod.SKU,
		Name:             prod.Name,
		Description:      prod.Description,
		ShortDescription: prod.ShortDescription,
		RegularPrice:     parseDecimal(prod.RegularPrice),
		StockQuantity:    prod.StockQuantity,
		Categories:       normalizeSet(termNames(prod.Categories)),
		Tags:             normalizeSet(termNames(prod.Tags)),
		Meta:             map[string]string{},
	}

	if prod.SalePrice != "" {
		d := parseDecimal(prod.SalePrice)
		p.SalePrice = &d
	}
	if prod.Weight != "" {
		d := parseDecimal(prod.Weight)
		p.Weight = &d
	}
	p.Dimensions = domain.Dimensions{
		Length: parseDecimal(prod.Dimensions.Length),
		Width:  parseDecimal(prod.Dimensions.Width),
		Height: parseDecimal(prod.Dimensions.Height),
	}

	for _, img := range prod.Images {
		if img.Src != "" {
			p.Images = append(p.Images, img.Src)
		}
	}

	for _, meta := range prod.MetaData {
		if _, reserved := reservedCatalogMeta[meta.Key]; reserved || meta.Value == nil {
			continue
		}
		p.Meta[meta.Key] = fmt.Sprint(meta.Value)
	}

	return p
}

// ToCatalog строит сырой товар каталога из канонической модели.
// Термины категорий и тегов несут только имена; их id проставляет
// Catalog Asset-коллаборатор перед записью.
func ToCatalog(p *domain.ProductRecord) CatalogProduct {
	prod := CatalogProduct{
		Name:             p.Name,
		Type:             "simple",
		SKU:              p.SKU,
		RegularPrice:     p.RegularPrice.String(),
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		ManageStock:      true,
		StockQuantity:    p.StockQuantity,
		StockStatus:      p.StockStatus(),
	}

	if p.SalePrice != nil {
		prod.SalePrice = p.SalePrice.String()
	}
	if p.Weight != nil {
		prod.Weight = p.Weight.String()
	}
	if !p.Dimensions.Length.IsZero() || !p.Dimensions.Width.IsZero() || !p.Dimensions.Height.IsZero() {
		prod.Dimensions = CatalogDimensions{
			Length: dimString(p.Dimensions.Length),
			Width:  dimString(p.Dimensions.Width),
			Height: dimString(p.Dimensions.Height),
		}
	}

	for _, name := range p.Categories {
		prod.Categories = append(prod.Categories, CatalogTerm{Name: name})
	}
	for _, name := range p.Tags {
		prod.Tags = append(prod.Tags, CatalogTerm{Name: name})
	}
	for _, src := range p.Images {
		prod.Images = append(prod.Images, CatalogImage{Src: src})
	}
	for key, v := range p.Meta {
		prod.MetaData = append(prod.MetaData, CatalogMeta{Key: key, Value: v})
	}

	return prod
}

// StampCatalogLink дописывает в товар каталога ссылку на запись-источник
// и отметку времени синхронизации.
func StampCatalogLink(prod *CatalogProduct, recordsID string, at time.Time) {
	prod.MetaData = append(prod.MetaData,
		CatalogMeta{Key: MetaRecordsID, Value: recordsID},
		CatalogMeta{Key: MetaLastSync, Value: at.Format(time.RFC3339)},
	)
}

// RecordsLinkFields возвращает поля, которыми запись помечается как связанная
// с товаром каталога.
func RecordsLinkFields(catalogID int64, at time.Time) map[string]any {
	return map[string]any{
		FieldCatalogID: strconv.FormatInt(catalogID, 10),
		FieldLastSync:  at.Format(time.RFC3339),
	}
}

// RecordsCounterpartID читает id товара каталога, сохранённый в полях записи.
// Ноль — связи нет.
func RecordsCounterpartID(rec *RecordsRecord) int64 {
	v, ok := rec.Fields[FieldCatalogID]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case string:
		id, _ := strconv.ParseInt(t, 10, 64)
		return id
	case float64:
		return int64(t)
	default:
		return 0
	}
}

// CatalogCounterpartID читает id записи-источника из meta-атрибутов товара.
func CatalogCounterpartID(prod *CatalogProduct) string {
	for _, meta := range prod.MetaData {
		if meta.Key == MetaRecordsID && meta.Value != nil {
			return fmt.Sprint(meta.Value)
		}
	}
	return ""
}
