package service_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

type fakeProvider struct {
	source   domain.ExternalSource
	products map[string]service.ExternalProduct
	search   []service.ExternalProduct
	err      error
	calls    int
}

func (p *fakeProvider) Source() domain.ExternalSource { return p.source }

func (p *fakeProvider) LookupBarcode(_ context.Context, barcode string) (service.ExternalProduct, []byte, error) {
	p.calls++
	if p.err != nil {
		return service.ExternalProduct{}, nil, p.err
	}
	product, ok := p.products[barcode]
	if !ok {
		return service.ExternalProduct{}, nil, domain.NotFoundf("%s: no product %s", p.source, barcode)
	}
	return product, []byte(`{"code":"` + barcode + `"}`), nil
}

func (p *fakeProvider) Search(_ context.Context, _ string, _ int) ([]service.ExternalProduct, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([]service.ExternalProduct, 0, len(p.search))
	for _, item := range p.search {
		item.Source = p.source
		out = append(out, item)
	}
	return out, nil
}

func newImporter(t *testing.T, db *sql.DB, providers ...service.ProductProvider) *service.IngredientImporter {
	t.Helper()
	imp, err := service.NewIngredientImporter(db, providers, time.Hour)
	if err != nil {
		t.Fatalf("new importer: %v", err)
	}
	return imp
}

func TestLookupFallsBackAcrossProviders(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	off := &fakeProvider{source: domain.SourceOpenFoodFacts, products: map[string]service.ExternalProduct{}}
	usda := &fakeProvider{source: domain.SourceUSDA, products: map[string]service.ExternalProduct{
		"012345678905": {Name: "Greek yogurt", Brand: "Fage", CaloriesPer100g: 97, ProteinPer100g: 9},
	}}
	imp := newImporter(t, db, off, usda)

	product, err := imp.Lookup(context.Background(), "012345678905")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if product.Source != domain.SourceUSDA || product.FromCache {
		t.Fatalf("expected a fresh USDA hit, got %+v", product)
	}
	if len(product.LookupTrail) != 2 {
		t.Fatalf("expected both providers in the trail, got %v", product.LookupTrail)
	}

	again, err := imp.Lookup(context.Background(), "012345678905")
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if !again.FromCache || usda.calls != 1 {
		t.Fatalf("expected cached result without a second provider call, calls=%d", usda.calls)
	}

	items, err := service.ListLookupCache(db, "usda", 10)
	if err != nil {
		t.Fatalf("list lookup cache: %v", err)
	}
	if len(items) != 1 || items[0].ExternalID != "012345678905" {
		t.Fatalf("expected one usda cache row, got %+v", items)
	}

	if _, err := imp.Lookup(context.Background(), "99999999"); !domain.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND when no provider knows the barcode, got %v", err)
	}
	if _, err := imp.Lookup(context.Background(), "12ab"); !domain.IsValidation(err) {
		t.Fatalf("expected invalid barcode to fail validation, got %v", err)
	}
}

func TestLookupReportsProviderFailure(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	off := &fakeProvider{source: domain.SourceOpenFoodFacts, err: domain.RateLimitf("openfoodfacts: too many requests")}
	usda := &fakeProvider{source: domain.SourceUSDA, products: map[string]service.ExternalProduct{}}
	imp := newImporter(t, db, off, usda)

	_, err := imp.Lookup(context.Background(), "3017620422003")
	if domain.CodeOf(err) != domain.CodeRateLimit {
		t.Fatalf("expected the rate limit to surface, got %v", err)
	}
}

func TestImportCreatesIngredientOnce(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	off := &fakeProvider{source: domain.SourceOpenFoodFacts, products: map[string]service.ExternalProduct{
		"3017620422003": {Name: "Nutella", Brand: "Ferrero", CaloriesPer100g: 539, ProteinPer100g: 6.3},
		"5000000000001": {Name: "Diet soda", CaloriesPer100g: 0.4, ProteinPer100g: 0},
	}}
	imp := newImporter(t, db, off)

	ing, created, err := imp.Import(context.Background(), "", "3017620422003")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !created || ing.Name() != "Nutella (Ferrero)" {
		t.Fatalf("unexpected import result: created=%v name=%q", created, ing.Name())
	}

	again, created, err := imp.Import(context.Background(), "openfoodfacts", "3017620422003")
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if created || again.ID() != ing.ID() {
		t.Fatalf("expected re-import to return the existing ingredient")
	}

	ref, err := service.ResolveExternalRef(db, "openfoodfacts", "3017620422003")
	if err != nil {
		t.Fatalf("resolve ref: %v", err)
	}
	if ref.IngredientID() != ing.ID() {
		t.Fatalf("expected ref to point at %s, got %s", ing.ID(), ref.IngredientID())
	}
	refs, err := service.ListExternalRefs(db, ing.ID())
	if err != nil {
		t.Fatalf("list refs: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("expected one ref, got %d", len(refs))
	}

	if _, _, err := imp.Import(context.Background(), "", "5000000000001"); !domain.IsValidation(err) {
		t.Fatalf("expected a product without protein to fail validation, got %v", err)
	}
	if _, _, err := imp.Import(context.Background(), "usda", "3017620422003"); !domain.IsValidation(err) {
		t.Fatalf("expected an unconfigured source to fail validation, got %v", err)
	}
}

func TestPurgeLookupCache(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	off := &fakeProvider{source: domain.SourceOpenFoodFacts, products: map[string]service.ExternalProduct{
		"3017620422003": {Name: "Nutella", CaloriesPer100g: 539, ProteinPer100g: 6.3},
	}}
	imp := newImporter(t, db, off)
	if _, err := imp.Lookup(context.Background(), "3017620422003"); err != nil {
		t.Fatalf("lookup: %v", err)
	}

	if _, err := service.PurgeLookupCache(db, "", "", false); !domain.IsValidation(err) {
		t.Fatalf("expected purge without a selector to fail validation, got %v", err)
	}
	n, err := imp.Purge("openfoodfacts", "", false)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one purged row, got %d", n)
	}
	if _, err := imp.Lookup(context.Background(), "3017620422003"); err != nil {
		t.Fatalf("lookup after purge: %v", err)
	}
	if off.calls != 2 {
		t.Fatalf("expected purge to force a provider call, got %d calls", off.calls)
	}
}

func TestListLookupCacheReportsCorruptTimestamps(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	off := &fakeProvider{source: domain.SourceOpenFoodFacts, products: map[string]service.ExternalProduct{
		"3017620422003": {Name: "Nutella", CaloriesPer100g: 539, ProteinPer100g: 6.3},
	}}
	imp := newImporter(t, db, off)
	if _, err := imp.Lookup(context.Background(), "3017620422003"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	items, err := service.ListLookupCache(db, "", 10)
	if err != nil {
		t.Fatalf("list lookup cache: %v", err)
	}
	if len(items) != 1 || !items[0].ExpiresAt.After(items[0].FetchedAt) {
		t.Fatalf("unexpected cache items: %+v", items)
	}

	if _, err := db.Exec(`UPDATE lookup_cache SET expires_at = 'soon'`); err != nil {
		t.Fatalf("corrupt expiry: %v", err)
	}
	if _, err := service.ListLookupCache(db, "", 10); err == nil {
		t.Fatalf("expected an unparseable expiry to be reported")
	}
}

func TestNewProviders(t *testing.T) {
	t.Parallel()
	providers, err := service.NewProviders([]string{"usda", "openfoodfacts", "USDA"}, service.ProviderOptions{})
	if err != nil {
		t.Fatalf("new providers: %v", err)
	}
	if len(providers) != 2 || providers[0].Source() != domain.SourceUSDA {
		t.Fatalf("expected deduplicated providers in order, got %d", len(providers))
	}
	if _, err := service.NewProviders([]string{"fatsecret"}, service.ProviderOptions{}); !domain.IsValidation(err) {
		t.Fatalf("expected unsupported provider to fail validation, got %v", err)
	}
	if _, err := service.NewProviders(nil, service.ProviderOptions{}); !domain.IsValidation(err) {
		t.Fatalf("expected empty provider list to fail validation, got %v", err)
	}
}

func TestUPCItemDBProviderImportsThroughHTTP(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"OK","items":[{"upc":"0123456789012","title":"Oat Bar","size":"50 g","nutrition_facts":{"Calories":"200","Protein":"5g"}}]}`))
	}))
	defer ts.Close()

	p, err := service.NewProvider("upcitemdb", service.ProviderOptions{UPCItemDBBaseURL: ts.URL, HTTPClient: ts.Client()})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	imp := newImporter(t, db, p)
	ing, created, err := imp.Import(context.Background(), "upcitemdb", "0123456789012")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	n := ing.NutritionalInfoPer100g()
	if !created || ing.Name() != "Oat Bar" || n.Calories != 400 || n.Protein != 10 {
		t.Fatalf("unexpected ingredient: created=%v name=%q nutrition=%+v", created, ing.Name(), n)
	}
}
