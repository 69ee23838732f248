package usda

import (
	"bytes"
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

const defaultBaseURL = "https://api.nal.usda.gov"

// Food is a USDA FoodData Central branded item. Branded search results report
// nutrients per 100 g.
type Food struct {
	FDCID           int64   `json:"fdc_id"`
	Barcode         string  `json:"barcode"`
	Description     string  `json:"description"`
	Brand           string  `json:"brand"`
	CaloriesPer100g float64 `json:"calories_per_100g"`
	ProteinPer100g  float64 `json:"protein_per_100g"`
	ServingAmount   float64 `json:"serving_amount"`
	ServingUnit     string  `json:"serving_unit"`
}

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (Food, []byte, error) {
	barcode = strings.TrimSpace(barcode)
	if strings.TrimSpace(c.APIKey) == "" {
		return Food{}, nil, domain.Authf("missing USDA API key")
	}
	if barcode == "" {
		return Food{}, nil, domain.Validationf("usda: barcode is required")
	}
	body, err := c.search(ctx, barcode, 20)
	if err != nil {
		return Food{}, body, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Food{}, body, domain.Infra("decode USDA response", err)
	}
	food, ok := selectBarcodeMatch(parsed.Foods, barcode)
	if !ok {
		return Food{}, body, domain.NotFoundf("no USDA branded food found for barcode %q", barcode)
	}
	out := toFood(food)
	out.Barcode = barcode
	return out, body, nil
}

func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]Food, []byte, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, nil, domain.Authf("missing USDA API key")
	}
	if limit <= 0 {
		limit = 10
	}
	body, err := c.search(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, body, err
	}
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, body, domain.Infra("decode USDA response", err)
	}
	if len(parsed.Foods) == 0 {
		return nil, body, domain.NotFoundf("no USDA branded food found for query %q", query)
	}
	out := make([]Food, 0, len(parsed.Foods))
	for _, f := range parsed.Foods {
		out = append(out, toFood(f))
	}
	return out, body, nil
}

func (c *Client) search(ctx context.Context, query string, pageSize int) ([]byte, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}

	payload, err := json.Marshal(map[string]any{
		"query":    query,
		"dataType": []string{"Branded"},
		"pageSize": pageSize,
	})
	if err != nil {
		return nil, domain.Infra("marshal USDA search payload", err)
	}

	u := fmt.Sprintf("%s/fdc/v1/foods/search?api_key=%s", baseURL, url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.Infra("create USDA request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, domain.Infra("execute USDA request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Infra("read USDA response", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return body, domain.RateLimitf("USDA rate limit exceeded")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return body, domain.Authf("USDA rejected the API key (status %d)", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return body, domain.Infra("USDA request failed with status "+strconv.Itoa(resp.StatusCode), nil)
	}
	return body, nil
}

func toFood(f usdaFood) Food {
	out := Food{
		FDCID:         f.FDCID,
		Barcode:       strings.TrimSpace(f.GTINUPC),
		Description:   strings.TrimSpace(f.Description),
		Brand:         strings.TrimSpace(f.BrandOwner),
		ServingAmount: f.ServingSize,
		ServingUnit:   strings.TrimSpace(f.ServingSizeUnit),
	}
	for _, n := range f.FoodNutrients {
		switch strings.ToLower(strings.TrimSpace(n.NutrientName)) {
		case "energy":
			unit := strings.ToLower(strings.TrimSpace(n.UnitName))
			if unit == "kj" {
				if out.CaloriesPer100g == 0 {
					out.CaloriesPer100g = n.Value / 4.184
				}
				continue
			}
			out.CaloriesPer100g = n.Value
		case "protein":
			out.ProteinPer100g = n.Value
		}
	}
	return out
}

func selectBarcodeMatch(foods []usdaFood, barcode string) (usdaFood, bool) {
	for _, f := range foods {
		if normalizeGTIN(f.GTINUPC) == normalizeGTIN(barcode) {
			return f, true
		}
	}
	if len(foods) > 0 {
		return foods[0], true
	}
	return usdaFood{}, false
}

// normalizeGTIN drops leading zeros so UPC-A and EAN-13 forms compare equal.
func normalizeGTIN(code string) string {
	return strings.TrimLeft(strings.TrimSpace(code), "0")
}

type searchResponse struct {
	Foods []usdaFood `json:"foods"`
}

type usdaFood struct {
	FDCID           int64          `json:"fdcId"`
	Description     string         `json:"description"`
	BrandOwner      string         `json:"brandOwner"`
	GTINUPC         string         `json:"gtinUpc"`
	ServingSize     float64        `json:"servingSize"`
	ServingSizeUnit string         `json:"servingSizeUnit"`
	FoodNutrients   []usdaNutrient `json:"foodNutrients"`
}

type usdaNutrient struct {
	NutrientName string  `json:"nutrientName"`
	UnitName     string  `json:"unitName"`
	Value        float64 `json:"value"`
}
