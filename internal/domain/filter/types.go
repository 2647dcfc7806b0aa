// Package filter describes query constraints as transport-neutral rows.
package filter

// ComparisonType defines the comparison kinds.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"  // equals
	GreaterOrEqual ComparisonType = "gte" // on or after (dates)
	LessOrEqual    ComparisonType = "lte" // on or before (dates)
	Between        ComparisonType = "between"
)

// Field names accepted in Item.Field (snake_case).
const (
	FieldProductLine = "product_line"
	FieldProductCode = "product_code"
	FieldChannel     = "channel"
	FieldClient      = "client"
	FieldSalesperson = "salesperson"
	FieldDate        = "date"
)

// Item is a single filter row.
type Item struct {
	Field    string         `json:"field"`    // Field name (snake_case)
	Operator ComparisonType `json:"operator"` // Comparison kind
	Value    any            `json:"value"`    // String, date string, or [from, to] pair for Between
}

// Eq builds an equality row.
func Eq(field string, value any) Item {
	return Item{Field: field, Operator: Equal, Value: value}
}
