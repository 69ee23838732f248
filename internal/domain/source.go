package domain

import "strings"

// ExternalSource names a third-party food catalogue.
type ExternalSource string

const (
	SourceOpenFoodFacts ExternalSource = "openfoodfacts"
	SourceUSDA          ExternalSource = "usda"
	SourceUPCItemDB     ExternalSource = "upcitemdb"
)

var validSources = map[ExternalSource]bool{
	SourceOpenFoodFacts: true,
	SourceUSDA:          true,
	SourceUPCItemDB:     true,
}

func NewExternalSource(raw string) (ExternalSource, error) {
	s := ExternalSource(strings.ToLower(strings.TrimSpace(raw)))
	if !validSources[s] {
		return "", Validationf("ExternalIngredientRefSource: unsupported source %q", raw)
	}
	return s, nil
}

func AllExternalSources() []ExternalSource {
	return []ExternalSource{SourceOpenFoodFacts, SourceUSDA, SourceUPCItemDB}
}

func (s ExternalSource) String() string { return string(s) }
