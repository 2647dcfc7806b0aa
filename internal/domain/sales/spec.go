package sales

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"salesboard/internal/core/apperror"
)

// DateLayout is the calendar date format used at every boundary.
const DateLayout = "2006-01-02"

// Constraint is an optional exact-match condition on one categorical field.
// The zero value imposes no restriction.
type Constraint struct {
	value string
	set   bool
}

// Eq returns a constraint that matches only v (case-sensitive).
func Eq(v string) Constraint { return Constraint{value: v, set: true} }

// IsSet reports whether the constraint restricts values.
func (c Constraint) IsSet() bool { return c.set }

// Value returns the required value; empty when unset.
func (c Constraint) Value() string { return c.value }

// Matches reports whether v satisfies the constraint.
func (c Constraint) Matches(v string) bool {
	return !c.set || c.value == v
}

func (c Constraint) String() string {
	if !c.set {
		return "*"
	}
	return strconv.Quote(c.value)
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange builds a range from two instants, keeping only their calendar dates.
func NewDateRange(from, to time.Time) DateRange {
	return DateRange{From: CivilDay(from), To: CivilDay(to)}
}

// IsZero reports whether either bound is missing.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() || r.To.IsZero()
}

// Contains reports whether t falls on a day within the range, bounds included.
// Time of day is ignored.
func (r DateRange) Contains(t time.Time) bool {
	day := CivilDay(t)
	return !day.Before(CivilDay(r.From)) && !day.After(CivilDay(r.To))
}

func (r DateRange) String() string {
	return CivilDay(r.From).Format(DateLayout) + ".." + CivilDay(r.To).Format(DateLayout)
}

// FilterSpec selects the transactions in scope for one query.
// It is a plain value: build a new one per query instead of mutating.
type FilterSpec struct {
	ProductLine Constraint
	ProductCode Constraint
	Channel     Constraint
	Client      Constraint
	Salesperson Constraint
	Dates       DateRange
}

// Validate checks the mandatory parts of the spec.
func (s FilterSpec) Validate() error {
	if s.Dates.IsZero() {
		return apperror.NewInvalidField("date", "filter specification requires a date range")
	}
	return nil
}

// Matches reports whether tx satisfies every constraint of the spec.
func (s FilterSpec) Matches(tx Transaction) bool {
	return s.ProductLine.Matches(tx.ProductLine) &&
		s.ProductCode.Matches(tx.ProductCode) &&
		s.Channel.Matches(tx.Channel) &&
		s.Client.Matches(tx.Client) &&
		s.Salesperson.Matches(tx.Salesperson) &&
		s.Dates.Contains(tx.Date)
}

// Key returns a canonical representation; two specs select the same rows of
// any table when their keys are equal.
func (s FilterSpec) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "line=%s;product=%s;channel=%s;client=%s;salesperson=%s;dates=%s",
		s.ProductLine, s.ProductCode, s.Channel, s.Client, s.Salesperson, s.Dates)
	return b.String()
}
