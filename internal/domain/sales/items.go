package sales

import (
	"fmt"
	"strings"
	"time"

	"salesboard/internal/core/apperror"
	"salesboard/internal/domain/filter"
)

// SpecFromItems builds a FilterSpec from generic filter rows.
//
// Categorical fields accept only Equal with a string value. The date accepts
// GreaterOrEqual, LessOrEqual or Between with "2006-01-02" / RFC 3339 strings
// or time.Time values. Any other shape, an unknown field, a repeated bound, or
// a missing date range is an InvalidArgument error.
func SpecFromItems(items []filter.Item) (FilterSpec, error) {
	var spec FilterSpec
	var from, to time.Time

	for _, item := range items {
		switch item.Field {
		case filter.FieldProductLine, filter.FieldProductCode, filter.FieldChannel,
			filter.FieldClient, filter.FieldSalesperson:
			if item.Operator != filter.Equal {
				return FilterSpec{}, unsupportedOperator(item)
			}
			value, ok := item.Value.(string)
			if !ok {
				return FilterSpec{}, apperror.NewInvalidField(item.Field,
					fmt.Sprintf("%s expects a string value, got %T", item.Field, item.Value))
			}
			target := categoricalTarget(&spec, item.Field)
			if target.IsSet() {
				return FilterSpec{}, duplicateField(item.Field)
			}
			*target = Eq(value)

		case filter.FieldDate:
			switch item.Operator {
			case filter.GreaterOrEqual:
				if !from.IsZero() {
					return FilterSpec{}, duplicateField(item.Field)
				}
				t, err := dateValue(item.Field, item.Value)
				if err != nil {
					return FilterSpec{}, err
				}
				from = t
			case filter.LessOrEqual:
				if !to.IsZero() {
					return FilterSpec{}, duplicateField(item.Field)
				}
				t, err := dateValue(item.Field, item.Value)
				if err != nil {
					return FilterSpec{}, err
				}
				to = t
			case filter.Between:
				if !from.IsZero() || !to.IsZero() {
					return FilterSpec{}, duplicateField(item.Field)
				}
				lo, hi, err := dateBounds(item.Field, item.Value)
				if err != nil {
					return FilterSpec{}, err
				}
				from, to = lo, hi
			default:
				return FilterSpec{}, unsupportedOperator(item)
			}

		default:
			return FilterSpec{}, apperror.NewInvalidField(item.Field, "unknown filter field "+item.Field)
		}
	}

	if !from.IsZero() && !to.IsZero() {
		spec.Dates = NewDateRange(from, to)
	}
	if err := spec.Validate(); err != nil {
		return FilterSpec{}, err
	}
	return spec, nil
}

// ParseDate parses a calendar date given as "2006-01-02" or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s or RFC3339", s, DateLayout)
	}
	return t, nil
}

func categoricalTarget(spec *FilterSpec, field string) *Constraint {
	switch field {
	case filter.FieldProductLine:
		return &spec.ProductLine
	case filter.FieldProductCode:
		return &spec.ProductCode
	case filter.FieldChannel:
		return &spec.Channel
	case filter.FieldClient:
		return &spec.Client
	default:
		return &spec.Salesperson
	}
}

func dateValue(field string, v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			break
		}
		return val, nil
	case string:
		t, err := ParseDate(val)
		if err != nil {
			return time.Time{}, apperror.NewInvalidField(field, err.Error())
		}
		return t, nil
	}
	return time.Time{}, apperror.NewInvalidField(field,
		fmt.Sprintf("%s expects a date value, got %T", field, v))
}

func dateBounds(field string, v any) (time.Time, time.Time, error) {
	var pair []any
	switch val := v.(type) {
	case []any:
		pair = val
	case []string:
		for _, s := range val {
			pair = append(pair, s)
		}
	case []time.Time:
		for _, t := range val {
			pair = append(pair, t)
		}
	}
	if len(pair) != 2 {
		return time.Time{}, time.Time{}, apperror.NewInvalidField(field,
			field+" between expects exactly two dates")
	}
	lo, err := dateValue(field, pair[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	hi, err := dateValue(field, pair[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return lo, hi, nil
}

func unsupportedOperator(item filter.Item) error {
	return apperror.NewInvalidField(item.Field,
		fmt.Sprintf("operator %q is not supported for %s", item.Operator, item.Field)).
		WithDetail("operator", string(item.Operator))
}

func duplicateField(field string) error {
	return apperror.NewInvalidField(field, field+" is constrained more than once")
}
