package service

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/saadjs/nutrilog/internal/domain"
)

var searchKeyPattern = regexp.MustCompile(`[^a-z0-9]+`)

// SearchResult is one product with the same product from lower-ranked
// providers folded into Alternatives.
type SearchResult struct {
	ExternalProduct
	Alternatives []ExternalProduct `json:"alternatives,omitempty"`
}

// SearchAll queries every configured provider and merges the hits. Products
// with the same name and brand collapse into one result; complete nutrition
// wins, then provider order. A provider that fails is logged and skipped as
// long as another one answered.
func (imp *IngredientImporter) SearchAll(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.Validationf("search query is required")
	}
	var (
		items   []ExternalProduct
		lastErr error
		order   = make([]string, 0, len(imp.providers))
	)
	for _, p := range imp.providers {
		order = append(order, p.Source().String())
		ctx, cancel := context.WithTimeout(ctx, defaultLookupDeadline)
		found, err := p.Search(ctx, query, limit)
		cancel()
		if err != nil {
			if !domain.IsNotFound(err) {
				log.WithFields(logrus.Fields{"source": p.Source(), "query": query}).WithError(err).Warn("provider search failed")
				lastErr = err
			}
			continue
		}
		items = append(items, found...)
	}
	if len(items) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, domain.NotFoundf("no product found for query %q", query)
	}
	out := dedupeAndRankSearch(items, order)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func dedupeAndRankSearch(items []ExternalProduct, providerOrder []string) []SearchResult {
	rank := map[string]int{}
	for i, p := range providerOrder {
		rank[p] = i
	}
	groups := map[string][]ExternalProduct{}
	keys := make([]string, 0)
	for _, item := range items {
		key := canonicalSearchKey(item.Name, item.Brand)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], item)
	}
	out := make([]SearchResult, 0, len(groups))
	for _, key := range keys {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return compareSearch(group[i], group[j], rank)
		})
		res := SearchResult{ExternalProduct: group[0]}
		if len(group) > 1 {
			res.Alternatives = append(res.Alternatives, group[1:]...)
		}
		out = append(out, res)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return compareSearch(out[i].ExternalProduct, out[j].ExternalProduct, rank)
	})
	return out
}

func compareSearch(a, b ExternalProduct, providerRank map[string]int) bool {
	ca, cb := completenessRank(a), completenessRank(b)
	if ca != cb {
		return ca > cb
	}
	ra, rb := providerRank[a.Source.String()], providerRank[b.Source.String()]
	if ra != rb {
		return ra < rb
	}
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}

func completenessRank(p ExternalProduct) int {
	rank := 0
	if p.CaloriesPer100g > 0 {
		rank++
	}
	if p.ProteinPer100g > 0 {
		rank++
	}
	return rank
}

func canonicalSearchKey(name, brand string) string {
	normalize := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		s = searchKeyPattern.ReplaceAllString(s, " ")
		return strings.Join(strings.Fields(s), " ")
	}
	return normalize(name) + "|" + normalize(brand)
}
