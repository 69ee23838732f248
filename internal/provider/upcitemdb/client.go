package upcitemdb

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

const defaultBaseURL = "https://api.upcitemdb.com"

// Product is a UPCitemdb item. Nutrition facts there are per serving; they
// are scaled to 100 g when the serving size is given in grams or millilitres.
type Product struct {
	UPC             string
	Name            string
	Brand           string
	ImageURL        string
	CaloriesPer100g float64
	ProteinPer100g  float64
	ServingAmount   float64
	ServingUnit     string
}

// Client talks to the trial endpoints unless APIKey is set.
type Client struct {
	BaseURL    string
	APIKey     string
	APIKeyType string
	HTTPClient *http.Client
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (Product, []byte, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Product{}, nil, domain.Validationf("upcitemdb: barcode is required")
	}
	body, err := c.get(ctx, "lookup", url.Values{"upc": {barcode}})
	if err != nil {
		return Product{}, body, err
	}
	items, err := decodeItems(body)
	if err != nil {
		return Product{}, body, err
	}
	if len(items) == 0 {
		return Product{}, body, domain.NotFoundf("no upcitemdb product found for barcode %q", barcode)
	}
	p := toProduct(items[0])
	if p.UPC == "" {
		p.UPC = barcode
	}
	return p, body, nil
}

func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]Product, []byte, error) {
	body, err := c.get(ctx, "search", url.Values{"s": {strings.TrimSpace(query)}, "type": {"product"}})
	if err != nil {
		return nil, body, err
	}
	items, err := decodeItems(body)
	if err != nil {
		return nil, body, err
	}
	out := make([]Product, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}
		out = append(out, toProduct(it))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, body, domain.NotFoundf("no upcitemdb product found for query %q", query)
	}
	return out, body, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	tier := "trial"
	if strings.TrimSpace(c.APIKey) != "" {
		tier = "v1"
	}
	u := fmt.Sprintf("%s/prod/%s/%s?%s", base, tier, endpoint, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, domain.Infra("create upcitemdb request", err)
	}
	if key := strings.TrimSpace(c.APIKey); key != "" {
		keyType := strings.TrimSpace(c.APIKeyType)
		if keyType == "" {
			keyType = "3scale"
		}
		req.Header.Set("key_type", keyType)
		req.Header.Set("user_key", key)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, domain.Infra("execute upcitemdb request", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Infra("read upcitemdb response", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return body, domain.RateLimitf("upcitemdb rate limit exceeded")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return body, domain.Authf("upcitemdb rejected the api key (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return body, domain.NotFoundf("upcitemdb product not found")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return body, domain.Infra(fmt.Sprintf("upcitemdb request failed with status %d", resp.StatusCode), nil)
	}
	return body, nil
}

func decodeItems(body []byte) ([]item, error) {
	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, domain.Infra("decode upcitemdb response", err)
	}
	if strings.ToUpper(parsed.Code) != "OK" {
		return nil, nil
	}
	return parsed.Items, nil
}

func toProduct(it item) Product {
	amount, unit := parseServing(it.Size)
	image := ""
	if len(it.Images) > 0 {
		image = strings.TrimSpace(it.Images[0])
	}
	return Product{
		UPC:             strings.TrimSpace(it.UPC),
		Name:            strings.TrimSpace(it.Title),
		Brand:           strings.TrimSpace(it.Brand),
		ImageURL:        image,
		CaloriesPer100g: scale(parseNutrient(it.NutritionFacts, "calories"), amount, unit),
		ProteinPer100g:  scale(parseNutrient(it.NutritionFacts, "protein"), amount, unit),
		ServingAmount:   amount,
		ServingUnit:     unit,
	}
}

func scale(perServing, amount float64, unit string) float64 {
	switch strings.ToLower(unit) {
	case "g", "ml":
		if amount > 0 {
			return perServing * 100 / amount
		}
	}
	return perServing
}

func parseServing(size string) (float64, string) {
	size = strings.TrimSpace(size)
	if size == "" {
		return 100, "g"
	}
	parts := strings.Fields(size)
	if len(parts) >= 2 {
		if f, err := strconv.ParseFloat(strings.Trim(parts[0], ","), 64); err == nil && f > 0 {
			return f, strings.ToLower(parts[1])
		}
	}
	return 100, "g"
}

// parseNutrient finds the first key containing keyContains and reads the
// number out of values like "12g" or "150 kcal".
func parseNutrient(n map[string]any, keyContains string) float64 {
	for k, v := range n {
		if !strings.Contains(strings.ToLower(k), keyContains) {
			continue
		}
		var filtered strings.Builder
		for _, r := range fmt.Sprintf("%v", v) {
			if (r >= '0' && r <= '9') || r == '.' {
				filtered.WriteRune(r)
			}
		}
		if f, err := strconv.ParseFloat(filtered.String(), 64); err == nil {
			return f
		}
	}
	return 0
}

type response struct {
	Code  string `json:"code"`
	Items []item `json:"items"`
}

type item struct {
	UPC            string         `json:"upc"`
	Title          string         `json:"title"`
	Brand          string         `json:"brand"`
	Size           string         `json:"size"`
	Images         []string       `json:"images"`
	NutritionFacts map[string]any `json:"nutrition_facts"`
}
