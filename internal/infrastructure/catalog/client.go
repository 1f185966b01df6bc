package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DRSN-tech/catalog-sync/internal/cfg"
	"github.com/DRSN-tech/catalog-sync/internal/mapper"
	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/jimlawless/whereami"
)

// Client — REST-клиент каталог-сервиса. Авторизация basic auth парой
// consumer key / consumer secret.
type Client struct {
	http   *http.Client
	cfg    *cfg.CatalogCfg
	logger logger.Logger
}

func NewClient(cfg *cfg.CatalogCfg, logger logger.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*mapper.CatalogProduct, error) {
	var prod mapper.CatalogProduct
	if err := c.do(ctx, http.MethodGet, c.productURL(id), nil, &prod); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &prod, nil
}

// FindBySKU возвращает товары с точным совпадением SKU. Каталог сам
// гарантирует точность совпадения по этому параметру.
func (c *Client) FindBySKU(ctx context.Context, sku string) ([]mapper.CatalogProduct, error) {
	params := url.Values{}
	params.Set("sku", sku)

	var products []mapper.CatalogProduct
	if err := c.do(ctx, http.MethodGet, c.cfg.BaseURL+"/products?"+params.Encode(), nil, &products); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

func (c *Client) ListProducts(ctx context.Context, page, perPage int) ([]mapper.CatalogProduct, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	var products []mapper.CatalogProduct
	if err := c.do(ctx, http.MethodGet, c.cfg.BaseURL+"/products?"+params.Encode(), nil, &products); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

func (c *Client) CreateProduct(ctx context.Context, prod *mapper.CatalogProduct) (*mapper.CatalogProduct, error) {
	var created mapper.CatalogProduct
	if err := c.do(ctx, http.MethodPost, c.cfg.BaseURL+"/products", prod, &created); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &created, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, prod *mapper.CatalogProduct) error {
	if err := c.do(ctx, http.MethodPut, c.productURL(id), prod, nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// UpdateProductMeta обновляет только meta-атрибуты, не трогая остальные поля.
func (c *Client) UpdateProductMeta(ctx context.Context, id int64, meta []mapper.CatalogMeta) error {
	body := map[string]any{"meta_data": meta}
	if err := c.do(ctx, http.MethodPut, c.productURL(id), body, nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteProduct удаляет товар без корзины: восстанавливать его будет
// полная синхронизация, а не каталог.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, c.productURL(id)+"?force=true", nil, nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// ListTerms возвращает страницу терминов таксономии ("categories" или "tags")
// с фильтром поиска по имени.
func (c *Client) ListTerms(ctx context.Context, taxonomy, search string) ([]mapper.CatalogTerm, error) {
	params := url.Values{}
	params.Set("per_page", "100")
	if search != "" {
		params.Set("search", search)
	}

	var terms []mapper.CatalogTerm
	rawURL := fmt.Sprintf("%s/products/%s?%s", c.cfg.BaseURL, taxonomy, params.Encode())
	if err := c.do(ctx, http.MethodGet, rawURL, nil, &terms); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return terms, nil
}

func (c *Client) CreateTerm(ctx context.Context, taxonomy, name string) (*mapper.CatalogTerm, error) {
	var created mapper.CatalogTerm
	rawURL := fmt.Sprintf("%s/products/%s", c.cfg.BaseURL, taxonomy)
	if err := c.do(ctx, http.MethodPost, rawURL, &mapper.CatalogTerm{Name: name}, &created); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &created, nil
}

func (c *Client) productURL(id int64) string {
	return fmt.Sprintf("%s/products/%d", c.cfg.BaseURL, id)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return e.ErrRecordNotFound
	case resp.StatusCode >= 400:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("catalog api: %s %s: status %d: %s", method, rawURL, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
