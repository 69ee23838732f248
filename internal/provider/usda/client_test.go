package usda

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/saadjs/nutrilog/internal/domain"
)

func TestLookupBarcodeParsesUSDAResponse(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "demo" {
			t.Errorf("expected api key in query, got %q", r.URL.RawQuery)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["query"] != "12345678905" {
			t.Errorf("unexpected query payload %v", payload["query"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "foods": [
    {
      "fdcId": 1,
      "description": "Other Yogurt",
      "gtinUpc": "099999999999",
      "foodNutrients": [{"nutrientName": "Energy", "unitName": "KCAL", "value": 50}]
    },
    {
      "fdcId": 12345,
      "description": "Greek Yogurt",
      "brandOwner": "Test Brand",
      "gtinUpc": "012345678905",
      "servingSize": 170,
      "servingSizeUnit": "g",
      "foodNutrients": [
        {"nutrientName": "Energy", "unitName": "KCAL", "value": 59},
        {"nutrientName": "Protein", "unitName": "G", "value": 10.3},
        {"nutrientName": "Total lipid (fat)", "unitName": "G", "value": 0.4}
      ]
    }
  ]
}`))
	}))
	defer ts.Close()

	c := &Client{
		APIKey:     "demo",
		BaseURL:    ts.URL,
		HTTPClient: ts.Client(),
	}

	item, _, err := c.LookupBarcode(context.Background(), "12345678905")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if item.FDCID != 12345 {
		t.Fatalf("expected fdc id 12345, got %d", item.FDCID)
	}
	if item.CaloriesPer100g != 59 || item.ProteinPer100g != 10.3 {
		t.Fatalf("unexpected nutrients: %+v", item)
	}
	if item.Barcode != "12345678905" {
		t.Fatalf("expected requested barcode to be kept, got %q", item.Barcode)
	}
}

func TestLookupBarcodeConvertsKilojoules(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"foods":[{"fdcId":7,"description":"Bar","gtinUpc":"1",
  "foodNutrients":[{"nutrientName":"Energy","unitName":"kJ","value":418.4},{"nutrientName":"Protein","value":5}]}]}`))
	}))
	defer ts.Close()

	c := &Client{APIKey: "demo", BaseURL: ts.URL, HTTPClient: ts.Client()}
	item, _, err := c.LookupBarcode(context.Background(), "1")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if item.CaloriesPer100g < 99.99 || item.CaloriesPer100g > 100.01 {
		t.Fatalf("expected ~100 kcal, got %f", item.CaloriesPer100g)
	}
}

func TestLookupBarcodeErrors(t *testing.T) {
	t.Parallel()

	c := &Client{}
	if _, _, err := c.LookupBarcode(context.Background(), "1"); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected auth error without key, got %v", err)
	}

	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, want: domain.ErrRateLimit},
		{name: "forbidden", status: http.StatusForbidden, want: domain.ErrAuth},
		{name: "no foods", status: http.StatusOK, body: `{"foods":[]}`, want: domain.ErrNotFound},
		{name: "server error", status: http.StatusInternalServerError, want: domain.ErrInfra},
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

			c := &Client{APIKey: "demo", BaseURL: ts.URL, HTTPClient: ts.Client()}
			_, _, err := c.LookupBarcode(context.Background(), "1")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
