package domain

import "github.com/shopspring/decimal"

// Статусы наличия товара в каталоге.
const (
	StockStatusInStock    = "instock"
	StockStatusOutOfStock = "outofstock"
)

// Dimensions описывает габариты товара.
type Dimensions struct {
	Length decimal.Decimal
	Width  decimal.Decimal
	Height decimal.Decimal
}

// ProductRecord — каноническое представление товара, не зависящее от системы-источника.
// Живет только в рамках одного прохода синхронизации и нигде не персистится.
type ProductRecord struct {
	SKU              string
	Name             string
	Description      string
	ShortDescription string
	RegularPrice     decimal.Decimal
	SalePrice        *decimal.Decimal
	StockQuantity    int
	Weight           *decimal.Decimal
	Dimensions       Dimensions
	Categories       []string
	Tags             []string
	Images           []string
	// Meta хранит поля, известные только одной из систем, чтобы они не терялись при проходе.
	Meta map[string]string
}

// StockStatus выводится из количества и никогда не хранится как отдельный источник истины.
func (p *ProductRecord) StockStatus() string {
	if p.StockQuantity > 0 {
		return StockStatusInStock
	}
	return StockStatusOutOfStock
}
