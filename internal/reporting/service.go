// Package reporting records operator-submitted fraud reports against
// stored transactions.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"paywatch/transaction-api/internal/domain"
	"paywatch/transaction-api/internal/store"
)

// ErrInvalidInput is returned when a required report field is missing.
// The request is rejected before any store mutation.
var ErrInvalidInput = errors.New("invalid input")

// Service persists fraud reports. A report is an orthogonal human or
// downstream-system signal: submission never requires the rule engine to
// have flagged the transaction first.
type Service struct {
	store store.Store
	now   func() time.Time
}

// New creates a reporting service backed by the given store.
func New(s store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// Report validates the submission, looks up the referenced transaction and
// appends an immutable FraudReport carrying the engine score at report
// time. As a side effect the transaction is marked fraud-reported.
//
// The read and the two writes are individually atomic but not serialized
// against each other; concurrent reports on the same transaction settle
// last-write-wins on is_fraud_reported, which is idempotent here.
func (s *Service) Report(ctx context.Context, transactionID, reportingEntityID, fraudDetails string) (*domain.FraudReport, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transaction_id is required", ErrInvalidInput)
	}
	if reportingEntityID == "" {
		return nil, fmt.Errorf("%w: reporting_entity_id is required", ErrInvalidInput)
	}
	if fraudDetails == "" {
		// A report asserting fraud must say what happened.
		return nil, fmt.Errorf("%w: fraud_details is required", ErrInvalidInput)
	}

	tx, err := s.store.FindOne(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	report := &domain.FraudReport{
		ReportID:          uuid.NewString(),
		TransactionID:     tx.TransactionID,
		ReportingEntityID: reportingEntityID,
		FraudDetails:      fraudDetails,
		FraudScore:        tx.FraudScore,
		CreatedAt:         s.now().UTC(),
	}

	if err := s.store.InsertReport(ctx, report); err != nil {
		return nil, fmt.Errorf("persist fraud report: %w", err)
	}

	reported := true
	if err := s.store.UpdateFraudFields(ctx, tx.TransactionID, store.FraudUpdate{IsFraudReported: &reported}); err != nil {
		return nil, fmt.Errorf("mark transaction reported: %w", err)
	}

	return report, nil
}
