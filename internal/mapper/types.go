package mapper

// Имена полей записи в хранилище записей (Store A).
const (
	FieldName        = "Product Name"
	FieldSKU         = "SKU"
	FieldPrice       = "Price"
	FieldSalePrice   = "Sale Price"
	FieldStock       = "Stock Quantity"
	FieldDescription = "Description"
	FieldShortDesc   = "Short Description"
	FieldWeight      = "Weight"
	FieldLength      = "Length"
	FieldWidth       = "Width"
	FieldHeight      = "Height"
	FieldCategory    = "Category"
	FieldTags        = "Tags"
	FieldImages      = "Images"
	FieldChannel     = "Channel"
	FieldStartingBid = "Starting Bid"

	// Служебные поля связи и учёта; в каноническую модель не входят.
	FieldCatalogID   = "Catalog ID"
	FieldStockStatus = "Stock Status"
	FieldLastSync    = "Last Catalog Sync"
)

// Ключи meta-атрибутов товара в каталоге (Store B).
const (
	MetaRecordsID   = "records_id"
	MetaChannel     = "channel"
	MetaStartingBid = "starting_bid"
	MetaLastSync    = "last_records_sync"
)

// RecordsRecord — запись хранилища записей в сыром виде.
type RecordsRecord struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// CatalogTerm — категория или тег каталога.
type CatalogTerm struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

type CatalogImage struct {
	Src string `json:"src"`
}

type CatalogMeta struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type CatalogDimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// CatalogProduct — товар каталог-сервиса в сыром виде.
type CatalogProduct struct {
	ID               int64             `json:"id,omitempty"`
	Name             string            `json:"name"`
	Type             string            `json:"type,omitempty"`
	SKU              string            `json:"sku"`
	RegularPrice     string            `json:"regular_price"`
	SalePrice        string            `json:"sale_price"`
	Description      string            `json:"description"`
	ShortDescription string            `json:"short_description"`
	ManageStock      bool              `json:"manage_stock"`
	StockQuantity    int               `json:"stock_quantity"`
	StockStatus      string            `json:"stock_status"`
	Weight           string            `json:"weight,omitempty"`
	Dimensions       CatalogDimensions `json:"dimensions"`
	Categories       []CatalogTerm     `json:"categories"`
	Tags             []CatalogTerm     `json:"tags"`
	Images           []CatalogImage    `json:"images"`
	MetaData         []CatalogMeta     `json:"meta_data"`
}
