// Package domain contains all core types used across the application.
// Keeping domain types in one place makes the fraud rules and the query
// layer easy to reason about.
package domain

import "time"

// ─── Constants ───────────────────────────────────────────────────────────────

// Payment status values a transaction can carry.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Payment channels observed in the monitored traffic. The field is an open
// string; these are the values the seed data and dashboards use.
const (
	ChannelMobile = "Mobile"
	ChannelWeb    = "Web"
	ChannelATM    = "ATM"
)

// Payment modes observed in the monitored traffic.
const (
	ModeCreditCard = "CreditCard"
	ModeDebitCard  = "DebitCard"
	ModeUPI        = "UPI"
	ModeCash       = "Cash"
)

// ─── Core domain types ────────────────────────────────────────────────────────

// TransactionRecord is the payload submitted by an upstream payment flow.
// All identifying fields are fixed at creation; the fraud fields on
// Transaction are owned by the rule engine and the reporting service.
type TransactionRecord struct {
	TransactionID  string    `json:"transaction_id"`
	Date           time.Time `json:"date"`
	Amount         float64   `json:"amount"`
	PayerID        string    `json:"payer_id"`
	PayeeID        string    `json:"payee_id"`
	PaymentChannel string    `json:"payment_channel"` // e.g. Mobile / Web / ATM
	PaymentMode    string    `json:"payment_mode"`    // e.g. CreditCard / DebitCard / Cash
	PaymentStatus  string    `json:"payment_status"`  // pending | completed | failed
	OriginatingIP  string    `json:"ip"`
	Region         string    `json:"region"` // state or territory
	FailedAttempts int       `json:"failed_attempts"`
}

// Transaction is a TransactionRecord enriched with its fraud assessment.
// This is the canonical record stored and returned by the API.
//
// IsFraudPredicted and FraudScore are written exactly once, when the rule
// engine evaluates the record at submission time. IsFraudReported flips to
// true as soon as the first FraudReport references this transaction, no
// matter what the engine concluded. Records are never deleted (audit trail).
type Transaction struct {
	TransactionRecord
	IsFraudPredicted bool    `json:"is_fraud"`
	FraudScore       float64 `json:"fraud_score"` // always in [0,1]
	IsFraudReported  bool    `json:"is_fraud_reported"`
}

// FraudReport is an operator- or downstream-system-submitted accusation
// against a transaction. It references the transaction by its external id
// only — the report never owns the transaction's lifetime. Reports are
// immutable once created; a transaction may accumulate any number of them.
type FraudReport struct {
	ReportID          string    `json:"report_id"`
	TransactionID     string    `json:"transaction_id"`
	ReportingEntityID string    `json:"reporting_entity_id"`
	FraudDetails      string    `json:"fraud_details"`
	FraudScore        float64   `json:"fraud_score"` // engine score at report time
	CreatedAt         time.Time `json:"created_at"`
}

// ─── Listing ──────────────────────────────────────────────────────────────────

// TransactionItem is the row shape returned by the listing endpoint.
// It mirrors what operator dashboards render; amounts stay numeric —
// currency formatting is a presentation concern.
type TransactionItem struct {
	ID             string  `json:"id"`
	Date           string  `json:"date"` // "YYYY-MM-DD HH:MM:SS"
	Amount         float64 `json:"amount"`
	Payer          string  `json:"payer"`
	Payee          string  `json:"payee"`
	Channel        string  `json:"channel"`
	Mode           string  `json:"mode"`
	FraudPredicted string  `json:"fraudPredicted"` // "Yes" | "No"
	FraudReported  string  `json:"fraudReported"`  // "Yes" | "No"
	FraudScore     float64 `json:"fraudScore"`
}

// PageInfo describes the pagination envelope around a listing response.
type PageInfo struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// ─── Statistics ───────────────────────────────────────────────────────────────

// GroupStat holds per-group counters for one observed enum value
// (a payment mode or a payment channel).
type GroupStat struct {
	Count      int `json:"count"`
	FraudCount int `json:"fraudCount"`
}

// Overview holds the headline counters of the statistics endpoint.
// FraudPredictionRate is a percentage rounded to two decimals and is
// defined as 0 when the store is empty.
type Overview struct {
	TotalTransactions   int     `json:"totalTransactions"`
	FraudPredictedCount int     `json:"fraudPredictedCount"`
	FraudReportedCount  int     `json:"fraudReportedCount"`
	FraudPredictionRate float64 `json:"fraudPredictionRate"`
}

// Stats is the full payload of the statistics endpoint.
type Stats struct {
	Overview      Overview             `json:"overview"`
	ByPaymentMode map[string]GroupStat `json:"byPaymentMode"`
	ByChannel     map[string]GroupStat `json:"byChannel"`
}

// YesNo renders a boolean the way the listing rows expect it.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
