// Package query translates user-supplied listing parameters into store
// predicates and pagination windows. It performs no I/O.
package query

import (
	"time"

	"paywatch/transaction-api/internal/store"
)

// Criteria is the sparse set of listing filters; every field is
// independently omittable. Identifier fields match as case-insensitive
// substrings, so a partial id finds every transaction containing it.
type Criteria struct {
	DateFrom      *time.Time
	DateTo        *time.Time
	TransactionID string
	PayerID       string
	PayeeID       string
}

// BuildFilter converts criteria into a store predicate.
//
// DateTo is expanded to the last instant of its calendar day so a
// single-day range covers the whole day. An inverted range (from after to)
// still builds a valid predicate; it simply matches nothing.
func BuildFilter(c Criteria) store.TransactionFilter {
	f := store.TransactionFilter{
		DateFrom:      c.DateFrom,
		TransactionID: c.TransactionID,
		PayerID:       c.PayerID,
		PayeeID:       c.PayeeID,
	}
	if c.DateTo != nil {
		end := endOfDay(*c.DateTo)
		f.DateTo = &end
	}
	return f
}

// endOfDay returns 23:59:59.999 of t's calendar day in t's location.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// ParseDate accepts the formats listing clients send: a bare calendar day
// or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
