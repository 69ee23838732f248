package upcitemdb

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/saadjs/nutrilog/internal/domain"
)

func TestLookupBarcodeScalesServingToPer100g(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prod/trial/lookup" || r.URL.Query().Get("upc") != "123456789012" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "code": "OK",
  "items": [
    {
      "upc": "123456789012",
      "title": "Test Cereal",
      "brand": "Test Brand",
      "size": "40 g",
      "images": ["https://img.example/cereal.jpg"],
      "nutrition_facts": {
        "Calories": "150",
        "Protein": "3g",
        "Total Carbohydrate": "30g"
      }
    }
  ]
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	p, raw, err := c.LookupBarcode(context.Background(), "123456789012")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("expected raw body")
	}
	if p.Name != "Test Cereal" || p.Brand != "Test Brand" || p.UPC != "123456789012" || p.ImageURL != "https://img.example/cereal.jpg" {
		t.Fatalf("unexpected product: %+v", p)
	}
	if math.Abs(p.CaloriesPer100g-375) > 1e-9 || math.Abs(p.ProteinPer100g-7.5) > 1e-9 {
		t.Fatalf("expected per-100g 375 kcal / 7.5 g, got %+v", p)
	}
}

func TestLookupBarcodeUsesKeyedEndpoint(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prod/v1/lookup" {
			t.Errorf("expected v1 endpoint, got %s", r.URL.Path)
		}
		if r.Header.Get("user_key") != "secret" || r.Header.Get("key_type") != "3scale" {
			t.Errorf("missing key headers: %v", r.Header)
		}
		_, _ = w.Write([]byte(`{"code":"OK","items":[{"title":"Bar","nutrition_facts":{"Calories":"200","Protein":"10g"}}]}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, APIKey: "secret", HTTPClient: ts.Client()}
	p, _, err := c.LookupBarcode(context.Background(), "999")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if p.UPC != "999" || p.CaloriesPer100g != 200 || p.ProteinPer100g != 10 {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestLookupBarcodeMapsErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		status int
		body   string
		code   domain.Code
	}{
		{name: "no items", status: http.StatusOK, body: `{"code":"OK","total":0,"items":[]}`, code: domain.CodeNotFound},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"code":"TOO_FAST"}`, code: domain.CodeRateLimit},
		{name: "bad key", status: http.StatusUnauthorized, body: `{}`, code: domain.CodeAuth},
		{name: "server error", status: http.StatusBadGateway, body: `oops`, code: domain.CodeInfra},
		{name: "bad json", status: http.StatusOK, body: `{`, code: domain.CodeInfra},
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
			_, _, err := c.LookupBarcode(context.Background(), "123")
			if got := domain.CodeOf(err); got != tc.code {
				t.Fatalf("expected %s, got %s (%v)", tc.code, got, err)
			}
		})
	}
}

func TestSearchProductsLimitsResults(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prod/trial/search" || r.URL.Query().Get("s") != "yogurt" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{
  "code": "OK",
  "items": [
    {"upc": "1", "title": "Greek Yogurt", "size": "150 g", "nutrition_facts": {"Calories": "150", "Protein": "15g"}},
    {"upc": "2", "title": ""},
    {"upc": "3", "title": "Skyr"},
    {"upc": "4", "title": "Kefir"}
  ]
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	items, _, err := c.SearchProducts(context.Background(), "yogurt", 2)
	if err != nil {
		t.Fatalf("search products: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Greek Yogurt" || items[1].Name != "Skyr" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if math.Abs(items[0].CaloriesPer100g-100) > 1e-9 || math.Abs(items[0].ProteinPer100g-10) > 1e-9 {
		t.Fatalf("unexpected per-100g values: %+v", items[0])
	}
}

func TestLookupBarcodeRejectsEmptyBarcode(t *testing.T) {
	t.Parallel()
	c := &Client{}
	if _, _, err := c.LookupBarcode(context.Background(), "  "); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
