package domain

import "time"

// CrossReference — долговременная связь между записью в records и товаром в catalog.
// Инвариант: не более одной активной связи на RecordsID и на CatalogID;
// при коллизии предпочитается связь с более поздним ConfirmedAt.
type CrossReference struct {
	RecordsID   string
	CatalogID   int64
	SKU         string
	ConfirmedAt time.Time
}

func NewCrossReference(recordsID string, catalogID int64, sku string) *CrossReference {
	return &CrossReference{
		RecordsID:   recordsID,
		CatalogID:   catalogID,
		SKU:         sku,
		ConfirmedAt: time.Now(),
	}
}

// CanonicalKey — стабильный идентификатор товара в обеих системах:
// натуральный ключ SKU, при его отсутствии — id записи в records.
func (c *CrossReference) CanonicalKey() string {
	if c.SKU != "" {
		return c.SKU
	}
	return c.RecordsID
}
