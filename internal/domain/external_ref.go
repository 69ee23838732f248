package domain

import "time"

type ExternalIngredientRefProps struct {
	ExternalID   string
	Source       string
	IngredientID string
	CreatedAt    time.Time
}

// ExternalIngredientRef maps a catalogue product (source, external id) to the
// ingredient imported from it. The pair is its natural key.
type ExternalIngredientRef struct {
	externalID   ID
	source       ExternalSource
	ingredientID ID
	createdAt    time.Time
}

func NewExternalIngredientRef(p ExternalIngredientRefProps) (*ExternalIngredientRef, error) {
	externalID, err := NewID(p.ExternalID)
	if err != nil {
		return nil, err
	}
	source, err := NewExternalSource(p.Source)
	if err != nil {
		return nil, err
	}
	ingredientID, err := NewID(p.IngredientID)
	if err != nil {
		return nil, err
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = Now().Value()
	}
	return &ExternalIngredientRef{
		externalID:   externalID,
		source:       source,
		ingredientID: ingredientID,
		createdAt:    createdAt.UTC(),
	}, nil
}

func (r *ExternalIngredientRef) ExternalID() string     { return r.externalID.Value() }
func (r *ExternalIngredientRef) Source() ExternalSource { return r.source }
func (r *ExternalIngredientRef) IngredientID() string   { return r.ingredientID.Value() }
func (r *ExternalIngredientRef) CreatedAt() time.Time   { return r.createdAt }
