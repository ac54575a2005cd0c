package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"paywatch/transaction-api/internal/domain"
)

// Memory is the thread-safe in-memory store driver.
//
// Design rationale: filter evaluation is a linear scan, which is fine for
// demo and test loads; the map gives O(1) id lookups, which is the hot path
// for reporting and flagging. A production deployment selects the Postgres
// driver instead.
type Memory struct {
	mu sync.RWMutex

	transactions map[string]*domain.Transaction
	// insertion-ordered report log; reports are append-only and immutable.
	reports []*domain.FraudReport
}

// NewMemory creates an empty, ready-to-use in-memory store.
func NewMemory() *Memory {
	return &Memory{transactions: make(map[string]*domain.Transaction)}
}

var _ Store = (*Memory)(nil)

// Insert persists a transaction. Returns ErrDuplicateTransaction if the
// external id already exists.
func (m *Memory) Insert(_ context.Context, tx *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.transactions[tx.TransactionID]; exists {
		return ErrDuplicateTransaction
	}
	cp := *tx
	m.transactions[tx.TransactionID] = &cp
	return nil
}

// FindOne retrieves a single transaction by its external id.
func (m *Memory) FindOne(_ context.Context, transactionID string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.transactions[transactionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

// Find returns matching transactions sorted by date descending, windowed by
// skip/limit. A window past the end yields an empty slice, not an error.
func (m *Memory) Find(_ context.Context, f TransactionFilter, skip, limit int) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.matchLocked(f)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date)
	})

	if skip >= len(matched) {
		return []*domain.Transaction{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]*domain.Transaction, len(matched))
	for i, tx := range matched {
		cp := *tx
		out[i] = &cp
	}
	return out, nil
}

// Count returns how many transactions satisfy the filter.
func (m *Memory) Count(_ context.Context, f TransactionFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matchLocked(f)), nil
}

// matchLocked collects matching transactions. Callers hold at least a read lock.
func (m *Memory) matchLocked(f TransactionFilter) []*domain.Transaction {
	var matched []*domain.Transaction
	for _, tx := range m.transactions {
		if f.Matches(tx) {
			matched = append(matched, tx)
		}
	}
	return matched
}

// UpdateFraudFields applies a partial update to the fraud fields of one
// transaction. Missing ids return ErrNotFound.
func (m *Memory) UpdateFraudFields(_ context.Context, transactionID string, u FraudUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[transactionID]
	if !ok {
		return ErrNotFound
	}
	if u.IsFraudPredicted != nil {
		tx.IsFraudPredicted = *u.IsFraudPredicted
	}
	if u.FraudScore != nil {
		tx.FraudScore = *u.FraudScore
	}
	if u.IsFraudReported != nil {
		tx.IsFraudReported = *u.IsFraudReported
	}
	return nil
}

// GroupByField computes per-value counters for a groupable field in a
// single pass over the store.
func (m *Memory) GroupByField(_ context.Context, field string) (map[string]domain.GroupStat, error) {
	switch field {
	case FieldPaymentMode, FieldPaymentChannel:
	default:
		return nil, fmt.Errorf("ungroupable field %q", field)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	groups := make(map[string]domain.GroupStat)
	for _, tx := range m.transactions {
		var key string
		if field == FieldPaymentMode {
			key = tx.PaymentMode
		} else {
			key = tx.PaymentChannel
		}

		g := groups[key]
		g.Count++
		if tx.IsFraudPredicted {
			g.FraudCount++
		}
		groups[key] = g
	}
	return groups, nil
}

// CountSummary returns the whole-store counters in a single pass.
func (m *Memory) CountSummary(_ context.Context) (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s Summary
	for _, tx := range m.transactions {
		s.Total++
		if tx.IsFraudPredicted {
			s.FraudPredicted++
		}
		if tx.IsFraudReported {
			s.FraudReported++
		}
	}
	return s, nil
}

// InsertReport appends a fraud report. Reports are never mutated or removed.
func (m *Memory) InsertReport(_ context.Context, r *domain.FraudReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *r
	m.reports = append(m.reports, &cp)
	return nil
}

// ReportsByTransaction returns every report referencing the transaction,
// oldest first. An unknown id yields an empty slice: the report relation is
// a weak reference, not an existence proof.
func (m *Memory) ReportsByTransaction(_ context.Context, transactionID string) ([]*domain.FraudReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*domain.FraudReport{}
	for _, r := range m.reports {
		if r.TransactionID == transactionID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}
