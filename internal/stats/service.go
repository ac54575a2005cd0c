// Package stats computes grouped fraud-rate statistics over the
// transaction store.
package stats

import (
	"context"
	"fmt"
	"math"

	"paywatch/transaction-api/internal/domain"
	"paywatch/transaction-api/internal/store"
)

// Service aggregates fraud signal across the whole store. It is read-only
// and safe for unbounded concurrent use.
type Service struct {
	store store.Store
}

// New creates a statistics service backed by the given store.
func New(s store.Store) *Service {
	return &Service{store: s}
}

// Summarize computes the overview counters and the per-mode/per-channel
// breakdowns. Each breakdown is a single grouped pass over the store; there
// is no per-group re-query.
func (s *Service) Summarize(ctx context.Context) (domain.Stats, error) {
	summary, err := s.store.CountSummary(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("summarize: %w", err)
	}

	byMode, err := s.store.GroupByField(ctx, store.FieldPaymentMode)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("summarize by payment mode: %w", err)
	}

	byChannel, err := s.store.GroupByField(ctx, store.FieldPaymentChannel)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("summarize by channel: %w", err)
	}

	return domain.Stats{
		Overview: domain.Overview{
			TotalTransactions:   summary.Total,
			FraudPredictedCount: summary.FraudPredicted,
			FraudReportedCount:  summary.FraudReported,
			FraudPredictionRate: predictionRate(summary.FraudPredicted, summary.Total),
		},
		ByPaymentMode: byMode,
		ByChannel:     byChannel,
	}, nil
}

// predictionRate is the predicted-fraud percentage rounded to two decimals.
// An empty store yields 0, never NaN.
func predictionRate(predicted, total int) float64 {
	if total == 0 {
		return 0
	}
	rate := float64(predicted) / float64(total) * 100
	return math.Round(rate*100) / 100
}
