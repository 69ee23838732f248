package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/saadjs/nutrilog/internal/domain"
)

const (
	defaultBaseURL = "https://world.openfoodfacts.org"
	userAgent      = "nutrilog/1.0 (+https://github.com/saadjs/nutrilog)"
)

// Product is an Open Food Facts item with nutrition normalized to 100 g.
type Product struct {
	Code            string
	Name            string
	Brand           string
	ImageURL        string
	CaloriesPer100g float64
	ProteinPer100g  float64
	ServingAmount   float64
	ServingUnit     string
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (Product, []byte, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Product{}, nil, domain.Validationf("openfoodfacts: barcode is required")
	}
	u := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL(), url.PathEscape(barcode))
	body, err := c.get(ctx, u)
	if err != nil {
		return Product{}, body, err
	}

	var parsed offResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Product{}, body, domain.Infra("decode openfoodfacts response", err)
	}
	if parsed.Status != 1 || strings.TrimSpace(parsed.Product.ProductName) == "" {
		return Product{}, body, domain.NotFoundf("no openfoodfacts product found for barcode %q", barcode)
	}
	p := toProduct(parsed.Product)
	if p.Code == "" {
		p.Code = barcode
	}
	return p, body, nil
}

func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]Product, []byte, error) {
	if limit <= 0 {
		limit = 10
	}
	u := fmt.Sprintf("%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=%d",
		c.baseURL(),
		url.QueryEscape(strings.TrimSpace(query)),
		limit,
	)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, body, err
	}
	var parsed offSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, body, domain.Infra("decode openfoodfacts search response", err)
	}
	out := make([]Product, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if strings.TrimSpace(p.ProductName) == "" {
			continue
		}
		out = append(out, toProduct(p))
	}
	if len(out) == 0 {
		return nil, body, domain.NotFoundf("no openfoodfacts product found for query %q", query)
	}
	return out, body, nil
}

func (c *Client) baseURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return defaultBaseURL
	}
	return base
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, domain.Infra("create openfoodfacts request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, domain.Infra("execute openfoodfacts request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Infra("read openfoodfacts response", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return body, domain.RateLimitf("openfoodfacts rate limit exceeded")
	case resp.StatusCode == http.StatusNotFound:
		return body, domain.NotFoundf("openfoodfacts product not found")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return body, domain.Infra(fmt.Sprintf("openfoodfacts request failed with status %d", resp.StatusCode), nil)
	}
	return body, nil
}

func toProduct(p offProduct) Product {
	servingAmount, servingUnit := parseServing(p)
	return Product{
		Code:            strings.TrimSpace(firstNonEmpty(p.Code, p.ID)),
		Name:            strings.TrimSpace(p.ProductName),
		Brand:           strings.TrimSpace(p.Brands),
		ImageURL:        strings.TrimSpace(p.ImageURL),
		CaloriesPer100g: per100g(p.Nutriments, "energy-kcal", servingAmount, servingUnit),
		ProteinPer100g:  per100g(p.Nutriments, "proteins", servingAmount, servingUnit),
		ServingAmount:   servingAmount,
		ServingUnit:     servingUnit,
	}
}

// per100g prefers the catalogue's own per-100g value and otherwise scales the
// per-serving value when the serving is expressed in grams or millilitres.
func per100g(n map[string]any, base string, servingAmount float64, servingUnit string) float64 {
	if v, ok := parseFloatAny(n[base+"_100g"]); ok {
		return v
	}
	if v, ok := parseFloatAny(n[base+"_serving"]); ok && servingAmount > 0 {
		switch strings.ToLower(servingUnit) {
		case "g", "ml":
			return v * 100 / servingAmount
		}
	}
	if v, ok := parseFloatAny(n[base]); ok {
		return v
	}
	return 0
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func parseServing(p offProduct) (float64, string) {
	if p.ServingQuantity > 0 {
		unit := strings.TrimSpace(p.ServingQuantityUnit)
		if unit == "" {
			unit = "g"
		}
		return p.ServingQuantity, unit
	}
	if strings.TrimSpace(p.ServingSize) != "" {
		parts := strings.Fields(strings.TrimSpace(p.ServingSize))
		if len(parts) >= 2 {
			if val, err := strconv.ParseFloat(strings.ReplaceAll(parts[0], ",", ""), 64); err == nil && val > 0 {
				return val, parts[1]
			}
		}
	}
	return 100, "g"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	ID                  string         `json:"_id"`
	Code                string         `json:"code"`
	ProductName         string         `json:"product_name"`
	Brands              string         `json:"brands"`
	ImageURL            string         `json:"image_url"`
	ServingSize         string         `json:"serving_size"`
	ServingQuantity     float64        `json:"serving_quantity"`
	ServingQuantityUnit string         `json:"serving_quantity_unit"`
	Nutriments          map[string]any `json:"nutriments"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}
