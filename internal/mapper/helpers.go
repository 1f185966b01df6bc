package mapper

import (
	"strings"

	"github.com/shopspring/decimal"
)

// asString приводит значение произвольного JSON-поля к строке.
func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// asDecimal приводит JSON-число или строку к decimal; непригодные значения дают ноль.
func asDecimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	case string:
		return parseDecimal(t)
	default:
		return decimal.Zero
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	default:
		return 0
	}
}

// asStringList принимает скаляр или список: многозначные поля записи
// могут приходить в обоих видах.
func asStringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// recordsImageURLs разворачивает поле вложений записи в список URL.
func recordsImageURLs(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		attach, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if url, ok := attach["url"].(string); ok && url != "" {
			out = append(out, url)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeSet приводит имена к упорядоченному множеству: обрезает пробелы,
// убирает пустые и повторы, сохраняя исходный порядок.
func normalizeSet(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func termNames(terms []CatalogTerm) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t.Name != "" {
			out = append(out, t.Name)
		}
	}
	return out
}

// parseDecimal разбирает денежную строку каталога; пустая строка — ноль.
func parseDecimal(s string) decimal.Decimal {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// dimString — габарит в строковом виде каталога; ноль передаётся пустой строкой.
func dimString(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
