// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package recommend

// Placeholder values used when the catalog has no row for a product.
const (
	PlaceholderProductName = "Unknown Product"
	PlaceholderProductType = "Unknown"
)

// Scored is a raw model output: an internal item index and its score.
type Scored struct {
	// Index is the internal item index.
	Index int `json:"index"`

	// Score is the inner-product affinity. Higher is more relevant.
	Score float64 `json:"score"`
}

// MatrixEntry is one non-zero cell of the interaction matrix.
type MatrixEntry struct {
	User  int     `json:"user"`
	Item  int     `json:"item"`
	Value float64 `json:"value"`
}

// Product is one catalog row.
type Product struct {
	// ID is the external product identifier.
	ID string `json:"product_id"`

	// Name is the English product name.
	Name string `json:"product_name_en"`

	// Price is nil when the source row has no parseable price.
	Price *float64 `json:"product_price,omitempty"`

	// Type is the product category (GOODS, SERVICE, ...).
	Type string `json:"product_type"`

	// Unit is the unit of measurement.
	Unit string `json:"unit_of_measurement,omitempty"`

	// Description is the English description.
	Description string `json:"product_description_en,omitempty"`

	// SKU is the stock keeping unit.
	SKU string `json:"product_sku,omitempty"`
}

// ResultItem is one served recommendation.
//
// The field set is the response schema. Adding a field is a schema change.
type ResultItem struct {
	// ProductID is the external product identifier.
	ProductID string `json:"product_id"`

	// ProductName is the catalog name or PlaceholderProductName.
	ProductName string `json:"product_name_en"`

	// Price is the catalog price, null when unknown.
	Price *float64 `json:"price"`

	// ProductType is the catalog type or PlaceholderProductType.
	ProductType string `json:"product_type"`

	// Unit is the unit of measurement, empty when unknown.
	Unit string `json:"unit_of_measurement,omitempty"`

	// RelevanceScore is the model score. Fallback items score exactly 0.
	RelevanceScore float64 `json:"relevance_score"`

	// RecommendationID identifies this presented recommendation for feedback correlation.
	RecommendationID string `json:"recommendation_id"`
}

// Source describes where a result list came from.
type Source int

const (
	// SourcePersonalized means the factor model produced the list.
	SourcePersonalized Source = iota

	// SourceFallback means the list came from the fallback provider.
	SourceFallback
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourcePersonalized:
		return "personalized"
	case SourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// FallbackReason explains why a query was served from the fallback provider.
type FallbackReason int

const (
	// ReasonNone is used for personalized results.
	ReasonNone FallbackReason = iota

	// ReasonUnknownID means the identifier is not in the encoder.
	ReasonUnknownID

	// ReasonStaleIndex means the encoder index is outside the loaded model.
	ReasonStaleIndex

	// ReasonEmptyResult means the model returned nothing usable.
	ReasonEmptyResult

	// ReasonModelFailure means the model query failed or panicked.
	ReasonModelFailure
)

// String returns the string representation of the reason.
func (r FallbackReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonUnknownID:
		return "unknown_id"
	case ReasonStaleIndex:
		return "stale_index"
	case ReasonEmptyResult:
		return "empty_result"
	case ReasonModelFailure:
		return "model_failure"
	default:
		return "unknown"
	}
}

// Result is the outcome of a recommendation query. It is never an error.
type Result struct {
	// Items is ordered by descending score, ties by ascending item index.
	Items []ResultItem `json:"items"`

	// Source tells whether the list is personalized.
	Source Source `json:"-"`

	// Reason is set when Source is SourceFallback.
	Reason FallbackReason `json:"-"`

	// SnapshotVersion is the snapshot the query ran against, 0 if none.
	SnapshotVersion int `json:"snapshot_version"`
}

// IsFallback reports whether the result came from the fallback provider.
func (r *Result) IsFallback() bool {
	return r.Source == SourceFallback
}

// Recommender is the query surface of a factor model.
type Recommender interface {
	// Recommend returns up to n items for the user, excluding items in row when filterLiked is set.
	Recommend(user int, row []MatrixEntry, n int, filterLiked bool) ([]Scored, error)

	// SimilarItems returns up to n items nearest to item, usually including item itself.
	SimilarItems(item, n int) ([]Scored, error)

	// Users is the number of user vectors.
	Users() int

	// Items is the number of item vectors.
	Items() int
}
