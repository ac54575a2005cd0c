// Package webhook delivers asynchronous alerts to configured endpoints
// when an ingested transaction is predicted fraudulent.
//
// Deliveries run in a goroutine so they never hold up the HTTP response.
// Failed deliveries are logged but not retried; a production deployment
// would put a persistent queue with backoff in front of this.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"paywatch/transaction-api/internal/domain"
)

// Payload is the body sent to every configured alert URL.
type Payload struct {
	Event       string             `json:"event"` // always "fraud_predicted"
	TriggeredAt time.Time          `json:"triggered_at"`
	FraudReason string             `json:"fraud_reason"`
	Transaction domain.Transaction `json:"transaction"`
}

// Notifier fans fraud alerts out to a fixed set of endpoint URLs.
type Notifier struct {
	urls     []string
	minScore float64
	client   *http.Client
}

// New creates a Notifier. Alerts fire only for fraud-predicted
// transactions whose score reaches minScore. An empty URL list disables
// alerting entirely.
func New(urls []string, minScore float64) *Notifier {
	return &Notifier{
		urls:     urls,
		minScore: minScore,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// NotifyAsync fires alert deliveries in the background for the given
// transaction if it qualifies.
func (n *Notifier) NotifyAsync(tx *domain.Transaction, reason string) {
	if !tx.IsFraudPredicted || tx.FraudScore < n.minScore {
		return
	}
	for _, url := range n.urls {
		go n.send(url, tx, reason)
	}
}

// send delivers a single alert and logs the outcome.
func (n *Notifier) send(url string, tx *domain.Transaction, reason string) {
	payload := Payload{
		Event:       "fraud_predicted",
		TriggeredAt: time.Now().UTC(),
		FraudReason: reason,
		Transaction: *tx,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("webhook: failed to marshal payload", "url", url, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		slog.Error("webhook: failed to build request", "url", url, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-PayWatch-Event", "fraud_predicted")

	resp, err := n.client.Do(req)
	if err != nil {
		slog.Warn("webhook: delivery failed", "url", url, "error", err)
		return
	}
	defer resp.Body.Close()

	slog.Info("webhook: delivered",
		"url", url,
		"status", resp.StatusCode,
		"transaction_id", tx.TransactionID,
		"fraud_score", tx.FraudScore,
	)
}
