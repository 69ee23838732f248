package openfoodfacts

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/saadjs/nutrilog/internal/domain"
)

func TestLookupBarcodePrefersPer100gValues(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/product/3017620422003.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("expected user agent header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "status": 1,
  "product": {
    "code": "3017620422003",
    "product_name": "Hazelnut Spread",
    "brands": "Brand Co",
    "image_url": "https://images.example/spread.jpg",
    "serving_quantity": 15,
    "serving_quantity_unit": "g",
    "nutriments": {
      "energy-kcal_100g": 539,
      "energy-kcal_serving": 80.9,
      "proteins_100g": "6.3"
    }
  }
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	item, raw, err := c.LookupBarcode(context.Background(), "3017620422003")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("expected raw body")
	}
	if item.Name != "Hazelnut Spread" || item.CaloriesPer100g != 539 || item.ProteinPer100g != 6.3 {
		t.Fatalf("unexpected parsed item: %+v", item)
	}
	if item.ImageURL != "https://images.example/spread.jpg" || item.Code != "3017620422003" {
		t.Fatalf("unexpected metadata: %+v", item)
	}
}

func TestLookupBarcodeScalesServingValues(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
  "status": 1,
  "product": {
    "product_name": "Yogurt Cup",
    "serving_quantity": 170,
    "serving_quantity_unit": "g",
    "nutriments": {
      "energy-kcal_serving": 119,
      "proteins_serving": 17
    }
  }
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	item, _, err := c.LookupBarcode(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if math.Abs(item.CaloriesPer100g-70) > 0.001 || math.Abs(item.ProteinPer100g-10) > 0.001 {
		t.Fatalf("expected serving values scaled to 100 g, got %+v", item)
	}
	if item.Code != "12345678" {
		t.Fatalf("expected barcode fallback for code, got %q", item.Code)
	}
}

func TestLookupBarcodeMapsStatusCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, want: domain.ErrRateLimit},
		{name: "missing", status: http.StatusNotFound, want: domain.ErrNotFound},
		{name: "unknown product", status: http.StatusOK, body: `{"status":0}`, want: domain.ErrNotFound},
		{name: "server error", status: http.StatusBadGateway, want: domain.ErrInfra},
		{name: "garbage", status: http.StatusOK, body: `not json`, want: domain.ErrInfra},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
			_, _, err := c.LookupBarcode(context.Background(), "1")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSearchProductsSkipsUnnamed(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search_terms") != "greek yogurt" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"products":[
  {"code":"1","product_name":"","nutriments":{}},
  {"code":"2","product_name":"Greek Yogurt","nutriments":{"energy-kcal_100g":97,"proteins_100g":9}}
]}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	items, _, err := c.SearchProducts(context.Background(), " greek yogurt ", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].Code != "2" || items[0].CaloriesPer100g != 97 {
		t.Fatalf("unexpected search results: %+v", items)
	}
}
