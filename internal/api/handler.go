package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paywatch/transaction-api/internal/domain"
	"paywatch/transaction-api/internal/query"
	"paywatch/transaction-api/internal/reporting"
	"paywatch/transaction-api/internal/rules"
	"paywatch/transaction-api/internal/stats"
	"paywatch/transaction-api/internal/store"
	"paywatch/transaction-api/internal/webhook"
)

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	store     store.Store
	engine    *rules.Engine
	stats     *stats.Service
	reporting *reporting.Service
	notifier  *webhook.Notifier
}

// NewHandler creates a Handler wired to the given dependencies.
func NewHandler(s store.Store, e *rules.Engine, st *stats.Service, rep *reporting.Service, n *webhook.Notifier) *Handler {
	return &Handler{store: s, engine: e, stats: st, reporting: rep, notifier: n}
}

// ─── POST /api/v1/fraud/assess ───────────────────────────────────────────────

type assessRequest struct {
	TransactionID  string   `json:"transaction_id"`
	OriginatingIP  string   `json:"ip"`
	Region         string   `json:"region"`
	Amount         *float64 `json:"amount"`
	FailedAttempts int      `json:"failed_attempts"`
}

type assessResponse struct {
	TransactionID string  `json:"transaction_id"`
	IsFraud       bool    `json:"is_fraud"`
	FraudReason   string  `json:"fraud_reason"`
	FraudScore    float64 `json:"fraud_score"`
}

// AssessFraud evaluates a transaction snapshot against the rule engine and
// returns the verdict synchronously. Nothing is persisted — the endpoint is
// a pure scoring surface for upstream payment flows.
func (h *Handler) AssessFraud(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "INVALID_JSON", "request body must be valid JSON")
		return
	}
	if req.TransactionID == "" {
		badRequest(w, "VALIDATION_ERROR", "transaction_id is required")
		return
	}
	// Malformed numbers are an input error, not the engine's problem.
	if req.Amount == nil || *req.Amount < 0 {
		badRequest(w, "VALIDATION_ERROR", "amount must be a non-negative number")
		return
	}
	if req.FailedAttempts < 0 {
		badRequest(w, "VALIDATION_ERROR", "failed_attempts must not be negative")
		return
	}

	v := h.engine.Evaluate(rules.Signals{
		Amount:         *req.Amount,
		OriginatingIP:  req.OriginatingIP,
		Region:         req.Region,
		FailedAttempts: req.FailedAttempts,
	})

	ok(w, assessResponse{
		TransactionID: req.TransactionID,
		IsFraud:       v.IsFraud,
		FraudReason:   v.Reason,
		FraudScore:    v.Score,
	})
}

// ─── POST /api/v1/transactions ───────────────────────────────────────────────

// SubmitTransaction ingests a transaction record, assesses it, and persists
// the enriched result. The fraud fields are written here exactly once; the
// record itself is immutable afterwards apart from operator reporting.
func (h *Handler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var rec domain.TransactionRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		badRequest(w, "INVALID_JSON", "request body must be valid JSON")
		return
	}
	if err := validateRecord(&rec); err != nil {
		badRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}

	v := h.engine.Evaluate(rules.Signals{
		Amount:         rec.Amount,
		OriginatingIP:  rec.OriginatingIP,
		Region:         rec.Region,
		FailedAttempts: rec.FailedAttempts,
	})

	tx := &domain.Transaction{
		TransactionRecord: rec,
		IsFraudPredicted:  v.IsFraud,
		FraudScore:        v.Score,
	}

	if err := h.store.Insert(r.Context(), tx); err != nil {
		respondError(w, err)
		return
	}

	// Fire async alerts for fraud-predicted transactions.
	h.notifier.NotifyAsync(tx, v.Reason)

	created(w, tx)
}

// ─── GET /api/v1/transactions ────────────────────────────────────────────────

type listResponse struct {
	Transactions []domain.TransactionItem `json:"transactions"`
	Pagination   domain.PageInfo          `json:"pagination"`
}

// ListTransactions returns a filtered, paginated transaction listing,
// newest first.
//
// Query params (all optional): dateFrom, dateTo, transactionId, payerId,
// payeeId, page, limit.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	criteria := query.Criteria{
		TransactionID: q.Get("transactionId"),
		PayerID:       q.Get("payerId"),
		PayeeID:       q.Get("payeeId"),
	}
	if s := q.Get("dateFrom"); s != "" {
		t, err := query.ParseDate(s)
		if err != nil {
			badRequest(w, "INVALID_PARAM", "dateFrom must be YYYY-MM-DD or RFC 3339")
			return
		}
		criteria.DateFrom = &t
	}
	if s := q.Get("dateTo"); s != "" {
		t, err := query.ParseDate(s)
		if err != nil {
			badRequest(w, "INVALID_PARAM", "dateTo must be YYYY-MM-DD or RFC 3339")
			return
		}
		criteria.DateTo = &t
	}

	filter := query.BuildFilter(criteria)

	total, err := h.store.Count(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}

	window := query.Paginate(total, intParam(q.Get("page")), intParam(q.Get("limit")))

	txns, err := h.store.Find(r.Context(), filter, window.Skip, window.Limit)
	if err != nil {
		respondError(w, err)
		return
	}

	items := make([]domain.TransactionItem, len(txns))
	for i, tx := range txns {
		items[i] = domain.TransactionItem{
			ID:             tx.TransactionID,
			Date:           tx.Date.Format("2006-01-02 15:04:05"),
			Amount:         tx.Amount,
			Payer:          tx.PayerID,
			Payee:          tx.PayeeID,
			Channel:        tx.PaymentChannel,
			Mode:           tx.PaymentMode,
			FraudPredicted: domain.YesNo(tx.IsFraudPredicted),
			FraudReported:  domain.YesNo(tx.IsFraudReported),
			FraudScore:     tx.FraudScore,
		}
	}

	ok(w, listResponse{Transactions: items, Pagination: window.PageInfo})
}

// intParam parses an optional positive integer query parameter;
// anything unusable falls back to 0 so Paginate applies its default.
func intParam(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// ─── GET /api/v1/transactions/{id} ───────────────────────────────────────────

// GetTransaction retrieves a single stored transaction by its external id.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.store.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, tx)
}

// ─── POST /api/v1/transactions/{id}/flag ─────────────────────────────────────

// FlagTransaction is the operator override: it marks an existing
// transaction as fraudulent regardless of the engine's verdict.
func (h *Handler) FlagTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tx, err := h.store.FindOne(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	flagged := true
	if err := h.store.UpdateFraudFields(r.Context(), tx.TransactionID, store.FraudUpdate{IsFraudPredicted: &flagged}); err != nil {
		respondError(w, err)
		return
	}

	ok(w, map[string]any{
		"transaction_id": tx.TransactionID,
		"is_fraud":       true,
	})
}

// ─── GET /api/v1/transactions/stats ──────────────────────────────────────────

// GetStats returns the overview counters and grouped fraud-rate breakdowns.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.Summarize(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	ok(w, s)
}

// ─── POST /api/v1/reports ────────────────────────────────────────────────────

type reportRequest struct {
	TransactionID     string `json:"transaction_id"`
	ReportingEntityID string `json:"reporting_entity_id"`
	FraudDetails      string `json:"fraud_details"`
}

type reportResponse struct {
	TransactionID   string `json:"transaction_id"`
	IsFraud         bool   `json:"is_fraud"`
	IsFraudReported bool   `json:"is_fraud_reported"`
	FraudDetails    string `json:"fraud_details"`
	FraudReportID   string `json:"fraud_report_id"`
}

// ReportFraud records an operator fraud report against a transaction.
// Reports are accepted whether or not the rule engine flagged the
// transaction — they are an independent signal.
func (h *Handler) ReportFraud(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "INVALID_JSON", "request body must be valid JSON")
		return
	}

	report, err := h.reporting.Report(r.Context(), req.TransactionID, req.ReportingEntityID, req.FraudDetails)
	if err != nil {
		respondError(w, err)
		return
	}

	tx, err := h.store.FindOne(r.Context(), report.TransactionID)
	if err != nil {
		respondError(w, err)
		return
	}

	created(w, reportResponse{
		TransactionID:   tx.TransactionID,
		IsFraud:         tx.IsFraudPredicted,
		IsFraudReported: tx.IsFraudReported,
		FraudDetails:    report.FraudDetails,
		FraudReportID:   report.ReportID,
	})
}

// ─── GET /api/v1/transactions/{id}/reports ───────────────────────────────────

type reportListResponse struct {
	TransactionID string                `json:"transaction_id"`
	Reports       []*domain.FraudReport `json:"reports"`
}

// ListReports returns every fraud report filed against a transaction,
// oldest first. The transaction must exist; its report list may be empty.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	tx, err := h.store.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	reports, err := h.store.ReportsByTransaction(r.Context(), tx.TransactionID)
	if err != nil {
		respondError(w, err)
		return
	}

	ok(w, reportListResponse{TransactionID: tx.TransactionID, Reports: reports})
}

// ─── Validation ──────────────────────────────────────────────────────────────

func validateRecord(rec *domain.TransactionRecord) error {
	if rec.TransactionID == "" {
		return fmt.Errorf("transaction_id is required")
	}
	if rec.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if rec.Amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}
	if rec.PayerID == "" {
		return fmt.Errorf("payer_id is required")
	}
	if rec.PayeeID == "" {
		return fmt.Errorf("payee_id is required")
	}
	if rec.PaymentChannel == "" {
		return fmt.Errorf("payment_channel is required")
	}
	if rec.PaymentMode == "" {
		return fmt.Errorf("payment_mode is required")
	}
	switch rec.PaymentStatus {
	case domain.StatusPending, domain.StatusCompleted, domain.StatusFailed:
	default:
		return fmt.Errorf("payment_status must be pending, completed, or failed")
	}
	if rec.FailedAttempts < 0 {
		return fmt.Errorf("failed_attempts must not be negative")
	}
	return nil
}
