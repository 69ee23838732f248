package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/provider/openfoodfacts"
	"github.com/saadjs/nutrilog/internal/provider/upcitemdb"
	"github.com/saadjs/nutrilog/internal/provider/usda"
)

const (
	DefaultLookupTTL      = 30 * 24 * time.Hour
	defaultMemoSize       = 256
	defaultLookupDeadline = 15 * time.Second
)

var barcodePattern = regexp.MustCompile(`^\d{8,14}$`)

// ExternalProduct is a catalogue item with nutrition per 100 g.
type ExternalProduct struct {
	Source          domain.ExternalSource `json:"source"`
	ExternalID      string                `json:"external_id"`
	Name            string                `json:"name"`
	Brand           string                `json:"brand,omitempty"`
	CaloriesPer100g float64               `json:"calories_per_100g"`
	ProteinPer100g  float64               `json:"protein_per_100g"`
	ImageURL        string                `json:"image_url,omitempty"`
	FromCache       bool                  `json:"from_cache"`
	LookupTrail     []string              `json:"lookup_trail,omitempty"`
}

// ProductProvider is one external food catalogue.
type ProductProvider interface {
	Source() domain.ExternalSource
	LookupBarcode(ctx context.Context, barcode string) (ExternalProduct, []byte, error)
	Search(ctx context.Context, query string, limit int) ([]ExternalProduct, error)
}

type ProviderOptions struct {
	USDAAPIKey           string
	UPCItemDBAPIKey      string
	OpenFoodFactsBaseURL string
	USDABaseURL          string
	UPCItemDBBaseURL     string
	HTTPClient           *http.Client
}

// NewProvider builds the client for a supported source name.
func NewProvider(source string, opts ProviderOptions) (ProductProvider, error) {
	s, err := domain.NewExternalSource(source)
	if err != nil {
		return nil, err
	}
	switch s {
	case domain.SourceOpenFoodFacts:
		return &openFoodFactsProvider{client: &openfoodfacts.Client{BaseURL: opts.OpenFoodFactsBaseURL, HTTPClient: opts.HTTPClient}}, nil
	case domain.SourceUSDA:
		return &usdaProvider{client: &usda.Client{APIKey: opts.USDAAPIKey, BaseURL: opts.USDABaseURL, HTTPClient: opts.HTTPClient}}, nil
	case domain.SourceUPCItemDB:
		return &upcItemDBProvider{client: &upcitemdb.Client{APIKey: opts.UPCItemDBAPIKey, BaseURL: opts.UPCItemDBBaseURL, HTTPClient: opts.HTTPClient}}, nil
	}
	return nil, domain.Validationf("unsupported provider %q", source)
}

// NewProviders builds providers in fallback order, skipping duplicates.
func NewProviders(sources []string, opts ProviderOptions) ([]ProductProvider, error) {
	seen := map[domain.ExternalSource]bool{}
	out := make([]ProductProvider, 0, len(sources))
	for _, raw := range sources {
		p, err := NewProvider(raw, opts)
		if err != nil {
			return nil, err
		}
		if seen[p.Source()] {
			continue
		}
		seen[p.Source()] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, domain.Validationf("no lookup providers configured")
	}
	return out, nil
}

type memoEntry struct {
	product   ExternalProduct
	expiresAt time.Time
}

// IngredientImporter looks products up through providers in order and turns
// them into ingredients. Lookups are cached in memory and in lookup_cache.
type IngredientImporter struct {
	db        *sql.DB
	providers []ProductProvider
	ttl       time.Duration
	memo      *lru.Cache[string, memoEntry]
	now       func() time.Time
}

func NewIngredientImporter(db *sql.DB, providers []ProductProvider, ttl time.Duration) (*IngredientImporter, error) {
	if len(providers) == 0 {
		return nil, domain.Validationf("no lookup providers configured")
	}
	if ttl <= 0 {
		ttl = DefaultLookupTTL
	}
	memo, err := lru.New[string, memoEntry](defaultMemoSize)
	if err != nil {
		return nil, fmt.Errorf("create lookup memo: %w", err)
	}
	return &IngredientImporter{db: db, providers: providers, ttl: ttl, memo: memo, now: time.Now}, nil
}

// Lookup tries each provider in order and returns the first product found.
// When every provider fails, the error of the last provider that did not
// report NOT_FOUND is returned.
func (imp *IngredientImporter) Lookup(ctx context.Context, barcode string) (ExternalProduct, error) {
	barcode, err := normalizeBarcode(barcode)
	if err != nil {
		return ExternalProduct{}, err
	}
	trail := make([]string, 0, len(imp.providers))
	var lastErr error
	for _, p := range imp.providers {
		trail = append(trail, p.Source().String())
		product, err := imp.lookupWith(ctx, p, barcode)
		if err == nil {
			product.LookupTrail = trail
			return product, nil
		}
		log.WithFields(logrus.Fields{"source": p.Source(), "barcode": barcode, "error": err}).Debug("provider lookup failed")
		if !domain.IsNotFound(err) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return ExternalProduct{}, fmt.Errorf("lookup %q across providers [%s]: %w", barcode, strings.Join(trail, ","), lastErr)
	}
	return ExternalProduct{}, domain.NotFoundf("no product found for barcode %q across providers [%s]", barcode, strings.Join(trail, ","))
}

// LookupFrom queries a single configured source.
func (imp *IngredientImporter) LookupFrom(ctx context.Context, source, barcode string) (ExternalProduct, error) {
	p, err := imp.provider(source)
	if err != nil {
		return ExternalProduct{}, err
	}
	barcode, err = normalizeBarcode(barcode)
	if err != nil {
		return ExternalProduct{}, err
	}
	product, err := imp.lookupWith(ctx, p, barcode)
	if err != nil {
		return ExternalProduct{}, err
	}
	product.LookupTrail = []string{p.Source().String()}
	return product, nil
}

// Search queries providers in order and returns the first non-empty result.
func (imp *IngredientImporter) Search(ctx context.Context, query string, limit int) ([]ExternalProduct, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.Validationf("search query is required")
	}
	var lastErr error
	for _, p := range imp.providers {
		ctx, cancel := context.WithTimeout(ctx, defaultLookupDeadline)
		items, err := p.Search(ctx, query, limit)
		cancel()
		if err == nil && len(items) > 0 {
			return items, nil
		}
		if err != nil && !domain.IsNotFound(err) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, domain.NotFoundf("no product found for query %q", query)
}

// Import creates an ingredient from a barcode and records where it came from.
// An empty source uses the provider fallback order. Importing a product that
// already has a reference returns the existing ingredient with created=false.
func (imp *IngredientImporter) Import(ctx context.Context, source, barcode string) (*domain.Ingredient, bool, error) {
	barcode, err := normalizeBarcode(barcode)
	if err != nil {
		return nil, false, err
	}
	candidates := imp.providers
	if strings.TrimSpace(source) != "" {
		p, err := imp.provider(source)
		if err != nil {
			return nil, false, err
		}
		candidates = []ProductProvider{p}
	}
	for _, p := range candidates {
		ref, err := ResolveExternalRef(imp.db, p.Source().String(), barcode)
		if err == nil {
			ing, err := loadIngredient(imp.db, ref.IngredientID())
			if err != nil {
				return nil, false, err
			}
			log.WithFields(logrus.Fields{"source": ref.Source(), "barcode": barcode, "ingredient_id": ing.ID()}).Debug("import matched existing reference")
			return ing, false, nil
		}
		if !domain.IsNotFound(err) {
			return nil, false, err
		}
	}

	var product ExternalProduct
	if len(candidates) == 1 {
		product, err = imp.LookupFrom(ctx, candidates[0].Source().String(), barcode)
	} else {
		product, err = imp.Lookup(ctx, barcode)
	}
	if err != nil {
		return nil, false, err
	}

	ing, err := domain.NewIngredient(domain.IngredientProps{
		ID:   domain.GenerateID().Value(),
		Name: productDisplayName(product),
		NutritionalInfoPer100g: domain.NutritionalInfo{
			Calories: product.CaloriesPer100g,
			Protein:  product.ProteinPer100g,
		},
		ImageURL: product.ImageURL,
	})
	if err != nil {
		return nil, false, err
	}
	ref, err := domain.NewExternalIngredientRef(domain.ExternalIngredientRefProps{
		ExternalID:   product.ExternalID,
		Source:       product.Source.String(),
		IngredientID: ing.ID(),
	})
	if err != nil {
		return nil, false, err
	}

	tx, err := imp.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("begin import tx: %w", err)
	}
	if err := saveIngredient(tx, ing); err != nil {
		_ = tx.Rollback()
		return nil, false, err
	}
	if err := insertExternalRef(tx, ref); err != nil {
		_ = tx.Rollback()
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit import: %w", err)
	}
	log.WithFields(logrus.Fields{"source": ref.Source(), "barcode": barcode, "ingredient_id": ing.ID()}).Debug("imported ingredient")
	return ing, true, nil
}

// Purge drops cached lookups from memory and from lookup_cache.
func (imp *IngredientImporter) Purge(source, externalID string, all bool) (int64, error) {
	imp.memo.Purge()
	return PurgeLookupCache(imp.db, source, externalID, all)
}

func (imp *IngredientImporter) provider(source string) (ProductProvider, error) {
	s, err := domain.NewExternalSource(source)
	if err != nil {
		return nil, err
	}
	for _, p := range imp.providers {
		if p.Source() == s {
			return p, nil
		}
	}
	return nil, domain.Validationf("provider %q is not configured", source)
}

func (imp *IngredientImporter) lookupWith(ctx context.Context, p ProductProvider, barcode string) (ExternalProduct, error) {
	key := p.Source().String() + ":" + barcode
	now := imp.now()
	if entry, ok := imp.memo.Get(key); ok && now.Before(entry.expiresAt) {
		product := entry.product
		product.FromCache = true
		log.WithFields(logrus.Fields{"source": p.Source(), "barcode": barcode}).Debug("lookup memo hit")
		return product, nil
	}

	cached, expiresAt, found, err := readLookupCache(imp.db, p.Source(), barcode, now)
	if err != nil {
		return ExternalProduct{}, err
	}
	if found {
		imp.memo.Add(key, memoEntry{product: cached, expiresAt: expiresAt})
		cached.FromCache = true
		log.WithFields(logrus.Fields{"source": p.Source(), "barcode": barcode}).Debug("lookup cache hit")
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultLookupDeadline)
	defer cancel()
	product, raw, err := p.LookupBarcode(ctx, barcode)
	if err != nil {
		return ExternalProduct{}, err
	}
	product.Source = p.Source()
	product.ExternalID = barcode
	expiresAt = now.Add(imp.ttl)
	if err := writeLookupCache(imp.db, product, raw, now, expiresAt); err != nil {
		return ExternalProduct{}, err
	}
	imp.memo.Add(key, memoEntry{product: product, expiresAt: expiresAt})
	log.WithFields(logrus.Fields{"source": p.Source(), "barcode": barcode}).Debug("lookup cache miss")
	return product, nil
}

func normalizeBarcode(raw string) (string, error) {
	barcode := strings.TrimSpace(raw)
	if !barcodePattern.MatchString(barcode) {
		return "", domain.Validationf("invalid barcode %q (expected 8-14 digits)", raw)
	}
	return barcode, nil
}

func productDisplayName(p ExternalProduct) string {
	name := strings.TrimSpace(p.Name)
	brand := strings.TrimSpace(p.Brand)
	if brand != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(brand)) {
		name = name + " (" + brand + ")"
	}
	if len(name) > 100 {
		name = strings.TrimSpace(p.Name)
	}
	return name
}

// ResolveExternalRef finds the ingredient imported from (source, externalID).
func ResolveExternalRef(db *sql.DB, source, externalID string) (*domain.ExternalIngredientRef, error) {
	s, err := domain.NewExternalSource(source)
	if err != nil {
		return nil, err
	}
	externalID = strings.TrimSpace(externalID)
	var ingredientID, createdRaw string
	err = db.QueryRow(`SELECT ingredient_id, created_at FROM external_ingredient_refs WHERE source = ? AND external_id = ?`, s.String(), externalID).
		Scan(&ingredientID, &createdRaw)
	if isNoRows(err) {
		return nil, domain.NotFoundf("no ingredient imported from %s %q", s, externalID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve external ref: %w", err)
	}
	created, err := parseTime(createdRaw)
	if err != nil {
		return nil, err
	}
	return domain.NewExternalIngredientRef(domain.ExternalIngredientRefProps{
		ExternalID:   externalID,
		Source:       s.String(),
		IngredientID: ingredientID,
		CreatedAt:    created,
	})
}

// ListExternalRefs returns the references pointing at an ingredient.
func ListExternalRefs(db *sql.DB, ingredientID string) ([]*domain.ExternalIngredientRef, error) {
	rows, err := db.Query(`SELECT source, external_id, created_at FROM external_ingredient_refs WHERE ingredient_id = ? ORDER BY source ASC, external_id ASC`, strings.TrimSpace(ingredientID))
	if err != nil {
		return nil, fmt.Errorf("list external refs: %w", err)
	}
	defer rows.Close()
	out := make([]*domain.ExternalIngredientRef, 0)
	for rows.Next() {
		var source, externalID, createdRaw string
		if err := rows.Scan(&source, &externalID, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan external ref: %w", err)
		}
		created, err := parseTime(createdRaw)
		if err != nil {
			return nil, err
		}
		ref, err := domain.NewExternalIngredientRef(domain.ExternalIngredientRefProps{
			ExternalID:   externalID,
			Source:       source,
			IngredientID: strings.TrimSpace(ingredientID),
			CreatedAt:    created,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate external refs: %w", err)
	}
	return out, nil
}

func insertExternalRef(q querier, ref *domain.ExternalIngredientRef) error {
	_, err := q.Exec(`INSERT INTO external_ingredient_refs(source, external_id, ingredient_id, created_at) VALUES(?, ?, ?, ?)`,
		ref.Source().String(), ref.ExternalID(), ref.IngredientID(), formatTime(ref.CreatedAt()))
	if err != nil {
		return fmt.Errorf("save external ref %s/%s: %w", ref.Source(), ref.ExternalID(), err)
	}
	return nil
}

type LookupCacheItem struct {
	Source     string    `json:"source"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	FetchedAt  time.Time `json:"fetched_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func ListLookupCache(db *sql.DB, source string, limit int) ([]LookupCacheItem, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT source, external_id, name, fetched_at, expires_at FROM lookup_cache`
	args := make([]any, 0, 2)
	if strings.TrimSpace(source) != "" {
		s, err := domain.NewExternalSource(source)
		if err != nil {
			return nil, err
		}
		query += ` WHERE source = ?`
		args = append(args, s.String())
	}
	query += ` ORDER BY fetched_at DESC LIMIT ?`
	args = append(args, limit)
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lookup cache: %w", err)
	}
	defer rows.Close()
	out := make([]LookupCacheItem, 0)
	for rows.Next() {
		var item LookupCacheItem
		var fetched, expires string
		if err := rows.Scan(&item.Source, &item.ExternalID, &item.Name, &fetched, &expires); err != nil {
			return nil, fmt.Errorf("scan lookup cache: %w", err)
		}
		if item.FetchedAt, err = parseTime(fetched); err != nil {
			return nil, err
		}
		if item.ExpiresAt, err = parseTime(expires); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookup cache: %w", err)
	}
	return out, nil
}

func PurgeLookupCache(db *sql.DB, source, externalID string, all bool) (int64, error) {
	source = strings.ToLower(strings.TrimSpace(source))
	externalID = strings.TrimSpace(externalID)
	var (
		res sql.Result
		err error
	)
	switch {
	case all:
		res, err = db.Exec(`DELETE FROM lookup_cache`)
	case source != "" && externalID != "":
		res, err = db.Exec(`DELETE FROM lookup_cache WHERE source = ? AND external_id = ?`, source, externalID)
	case source != "":
		res, err = db.Exec(`DELETE FROM lookup_cache WHERE source = ?`, source)
	case externalID != "":
		res, err = db.Exec(`DELETE FROM lookup_cache WHERE external_id = ?`, externalID)
	default:
		return 0, domain.Validationf("specify --all, --source, --barcode, or source+barcode")
	}
	if err != nil {
		return 0, fmt.Errorf("purge lookup cache: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge lookup cache rows affected: %w", err)
	}
	return affected, nil
}

func readLookupCache(db *sql.DB, source domain.ExternalSource, externalID string, now time.Time) (ExternalProduct, time.Time, bool, error) {
	p := ExternalProduct{Source: source, ExternalID: externalID}
	var expiresRaw string
	err := db.QueryRow(`
SELECT name, calories_per_100g, protein_per_100g, image_url, expires_at
FROM lookup_cache
WHERE source = ? AND external_id = ?
`, source.String(), externalID).Scan(&p.Name, &p.CaloriesPer100g, &p.ProteinPer100g, &p.ImageURL, &expiresRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return ExternalProduct{}, time.Time{}, false, nil
	}
	if err != nil {
		return ExternalProduct{}, time.Time{}, false, fmt.Errorf("read lookup cache: %w", err)
	}
	expiresAt, err := parseTime(expiresRaw)
	if err != nil {
		return ExternalProduct{}, time.Time{}, false, err
	}
	if !now.Before(expiresAt) {
		return ExternalProduct{}, time.Time{}, false, nil
	}
	return p, expiresAt, true, nil
}

func writeLookupCache(db *sql.DB, p ExternalProduct, raw []byte, fetchedAt, expiresAt time.Time) error {
	rawStr := ""
	if json.Valid(raw) {
		rawStr = string(raw)
	}
	_, err := db.Exec(`
INSERT INTO lookup_cache(source, external_id, name, calories_per_100g, protein_per_100g, image_url, raw_json, fetched_at, expires_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source, external_id) DO UPDATE SET
  name = excluded.name,
  calories_per_100g = excluded.calories_per_100g,
  protein_per_100g = excluded.protein_per_100g,
  image_url = excluded.image_url,
  raw_json = excluded.raw_json,
  fetched_at = excluded.fetched_at,
  expires_at = excluded.expires_at
`, p.Source.String(), p.ExternalID, productDisplayName(p), p.CaloriesPer100g, p.ProteinPer100g, p.ImageURL, rawStr, formatTime(fetchedAt), formatTime(expiresAt))
	if err != nil {
		return fmt.Errorf("write lookup cache: %w", err)
	}
	return nil
}

type openFoodFactsProvider struct {
	client *openfoodfacts.Client
}

func (a *openFoodFactsProvider) Source() domain.ExternalSource { return domain.SourceOpenFoodFacts }

func (a *openFoodFactsProvider) LookupBarcode(ctx context.Context, barcode string) (ExternalProduct, []byte, error) {
	p, raw, err := a.client.LookupBarcode(ctx, barcode)
	if err != nil {
		return ExternalProduct{}, nil, err
	}
	return fromOpenFoodFacts(p), raw, nil
}

func (a *openFoodFactsProvider) Search(ctx context.Context, query string, limit int) ([]ExternalProduct, error) {
	products, _, err := a.client.SearchProducts(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ExternalProduct, 0, len(products))
	for _, p := range products {
		out = append(out, fromOpenFoodFacts(p))
	}
	return out, nil
}

func fromOpenFoodFacts(p openfoodfacts.Product) ExternalProduct {
	return ExternalProduct{
		Source:          domain.SourceOpenFoodFacts,
		ExternalID:      p.Code,
		Name:            p.Name,
		Brand:           p.Brand,
		CaloriesPer100g: p.CaloriesPer100g,
		ProteinPer100g:  p.ProteinPer100g,
		ImageURL:        p.ImageURL,
	}
}

type usdaProvider struct {
	client *usda.Client
}

func (a *usdaProvider) Source() domain.ExternalSource { return domain.SourceUSDA }

func (a *usdaProvider) LookupBarcode(ctx context.Context, barcode string) (ExternalProduct, []byte, error) {
	f, raw, err := a.client.LookupBarcode(ctx, barcode)
	if err != nil {
		return ExternalProduct{}, nil, err
	}
	return fromUSDA(f), raw, nil
}

func (a *usdaProvider) Search(ctx context.Context, query string, limit int) ([]ExternalProduct, error) {
	foods, _, err := a.client.SearchFoods(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ExternalProduct, 0, len(foods))
	for _, f := range foods {
		out = append(out, fromUSDA(f))
	}
	return out, nil
}

func fromUSDA(f usda.Food) ExternalProduct {
	externalID := f.Barcode
	if externalID == "" {
		externalID = fmt.Sprintf("%d", f.FDCID)
	}
	return ExternalProduct{
		Source:          domain.SourceUSDA,
		ExternalID:      externalID,
		Name:            f.Description,
		Brand:           f.Brand,
		CaloriesPer100g: f.CaloriesPer100g,
		ProteinPer100g:  f.ProteinPer100g,
	}
}

type upcItemDBProvider struct {
	client *upcitemdb.Client
}

func (a *upcItemDBProvider) Source() domain.ExternalSource { return domain.SourceUPCItemDB }

func (a *upcItemDBProvider) LookupBarcode(ctx context.Context, barcode string) (ExternalProduct, []byte, error) {
	p, raw, err := a.client.LookupBarcode(ctx, barcode)
	if err != nil {
		return ExternalProduct{}, nil, err
	}
	return fromUPCItemDB(p), raw, nil
}

func (a *upcItemDBProvider) Search(ctx context.Context, query string, limit int) ([]ExternalProduct, error) {
	products, _, err := a.client.SearchProducts(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ExternalProduct, 0, len(products))
	for _, p := range products {
		out = append(out, fromUPCItemDB(p))
	}
	return out, nil
}

func fromUPCItemDB(p upcitemdb.Product) ExternalProduct {
	return ExternalProduct{
		Source:          domain.SourceUPCItemDB,
		ExternalID:      p.UPC,
		Name:            p.Name,
		Brand:           p.Brand,
		CaloriesPer100g: p.CaloriesPer100g,
		ProteinPer100g:  p.ProteinPer100g,
		ImageURL:        p.ImageURL,
	}
}
