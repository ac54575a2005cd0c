// Package store defines the transaction store contract and its drivers.
//
// The core treats persistence as an abstract collection of transaction
// records with field-predicate queries, offset pagination, single-document
// fraud-field updates, grouped aggregation, and an append-only fraud report
// collection. Two drivers ship: a thread-safe in-memory store (default, and
// what the tests run against) and a Postgres store for durable deployments.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"paywatch/transaction-api/internal/domain"
)

// ErrNotFound is returned when a referenced transaction does not exist.
var ErrNotFound = errors.New("transaction not found")

// ErrDuplicateTransaction is returned when a transaction id is inserted twice.
var ErrDuplicateTransaction = errors.New("transaction already exists")

// Groupable fields for GroupByField.
const (
	FieldPaymentMode    = "payment_mode"
	FieldPaymentChannel = "payment_channel"
)

// TransactionFilter is the predicate produced by the query builder.
// Zero-valued fields impose no constraint. Identifier fields match as
// case-insensitive substrings; the date bounds are inclusive and DateTo is
// expected to already be expanded to the end of its calendar day.
type TransactionFilter struct {
	DateFrom      *time.Time
	DateTo        *time.Time
	TransactionID string
	PayerID       string
	PayeeID       string
}

// Matches reports whether a transaction satisfies every set criterion.
func (f TransactionFilter) Matches(tx *domain.Transaction) bool {
	if f.DateFrom != nil && tx.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && tx.Date.After(*f.DateTo) {
		return false
	}
	if !containsFold(tx.TransactionID, f.TransactionID) {
		return false
	}
	if !containsFold(tx.PayerID, f.PayerID) {
		return false
	}
	if !containsFold(tx.PayeeID, f.PayeeID) {
		return false
	}
	return true
}

// containsFold is a case-insensitive substring test; an empty pattern
// matches everything.
func containsFold(s, pattern string) bool {
	if pattern == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(pattern))
}

// FraudUpdate names the mutable fraud fields of a stored transaction.
// Nil pointers leave the field untouched. Updates are last-write-wins;
// the store offers no cross-document transaction.
type FraudUpdate struct {
	IsFraudPredicted *bool
	FraudScore       *float64
	IsFraudReported  *bool
}

// Summary holds the whole-store counters used by the statistics service.
type Summary struct {
	Total          int
	FraudPredicted int
	FraudReported  int
}

// Store is the transaction store contract.
//
// Find returns matches sorted by date descending, windowed by skip/limit.
// GroupByField accepts FieldPaymentMode or FieldPaymentChannel and computes
// per-value counters in a single pass. Drivers never delete transactions.
type Store interface {
	Insert(ctx context.Context, tx *domain.Transaction) error
	FindOne(ctx context.Context, transactionID string) (*domain.Transaction, error)
	Find(ctx context.Context, f TransactionFilter, skip, limit int) ([]*domain.Transaction, error)
	Count(ctx context.Context, f TransactionFilter) (int, error)
	UpdateFraudFields(ctx context.Context, transactionID string, u FraudUpdate) error
	GroupByField(ctx context.Context, field string) (map[string]domain.GroupStat, error)
	CountSummary(ctx context.Context) (Summary, error)
	InsertReport(ctx context.Context, r *domain.FraudReport) error
	ReportsByTransaction(ctx context.Context, transactionID string) ([]*domain.FraudReport, error)
}
