package records

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

// Client — REST-клиент хранилища записей. API адресуется как
// {base}/{base_id}/{table}, авторизация bearer-токеном.
type Client struct {
	http    *http.Client
	cfg     *cfg.RecordsCfg
	baseURL string
	logger  logger.Logger
}

func NewClient(cfg *cfg.RecordsCfg, logger logger.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		baseURL: fmt.Sprintf("%s/%s/%s", cfg.BaseURL, cfg.BaseID, url.PathEscape(cfg.Table)),
		logger:  logger,
	}
}

type listResponse struct {
	Records []mapper.RecordsRecord `json:"records"`
	Offset  string                 `json:"offset"`
}

type writeRequest struct {
	Fields map[string]any `json:"fields"`
	// Хранилище приводит типы полей на своей стороне (числа из строк и т.п.).
	Typecast bool `json:"typecast"`
}

func (c *Client) GetRecord(ctx context.Context, id string) (*mapper.RecordsRecord, error) {
	var rec mapper.RecordsRecord
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/"+id, nil, &rec); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &rec, nil
}

// FindBySKU возвращает записи с точным совпадением SKU. Запрашиваются максимум
// две: больше одной — уже конфликт разрешения, остальные не нужны.
func (c *Client) FindBySKU(ctx context.Context, sku string) ([]mapper.RecordsRecord, error) {
	params := url.Values{}
	params.Set("filterByFormula", fmt.Sprintf("{%s}='%s'", mapper.FieldSKU, escapeFormulaValue(sku)))
	params.Set("maxRecords", "2")

	var res listResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return res.Records, nil
}

// ListRecords возвращает страницу записей и курсор следующей страницы.
// Пустой курсор означает конец коллекции.
func (c *Client) ListRecords(ctx context.Context, pageSize int, offset string) ([]mapper.RecordsRecord, string, error) {
	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(pageSize))
	if offset != "" {
		params.Set("offset", offset)
	}

	var res listResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil, &res); err != nil {
		return nil, "", e.Wrap(whereami.WhereAmI(), err)
	}

	return res.Records, res.Offset, nil
}

func (c *Client) CreateRecord(ctx context.Context, fields map[string]any) (*mapper.RecordsRecord, error) {
	var rec mapper.RecordsRecord
	if err := c.do(ctx, http.MethodPost, c.baseURL, &writeRequest{Fields: fields, Typecast: true}, &rec); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &rec, nil
}

// UpdateRecord отправляет частичное обновление: поля, не вошедшие в fields,
// остаются нетронутыми.
func (c *Client) UpdateRecord(ctx context.Context, id string, fields map[string]any) error {
	if err := c.do(ctx, http.MethodPatch, c.baseURL+"/"+id, &writeRequest{Fields: fields, Typecast: true}, nil); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
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
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
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
		return fmt.Errorf("records api: %s %s: status %d: %s", method, rawURL, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// escapeFormulaValue экранирует одинарные кавычки в значении формулы поиска.
func escapeFormulaValue(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}

	return string(out)
}
