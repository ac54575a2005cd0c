package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"paywatch/transaction-api/internal/api"
	"paywatch/transaction-api/internal/reporting"
	"paywatch/transaction-api/internal/rules"
	"paywatch/transaction-api/internal/stats"
	"paywatch/transaction-api/internal/store"
	"paywatch/transaction-api/internal/webhook"
)

// ─── Test server setup ────────────────────────────────────────────────────────

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := store.NewMemory()
	e := rules.New(rules.DefaultConfig())
	st := stats.New(s)
	rep := reporting.New(s)
	n := webhook.New(nil, 0.5)
	h := api.NewHandler(s, e, st, rep, n)
	return httptest.NewServer(api.NewRouter(h))
}

func post(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeData(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	d, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no 'data' key: %v", env)
	}
	return d
}

func decodeError(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	e, ok := env["error"].(map[string]any)
	if !ok {
		t.Fatalf("response has no 'error' key: %v", env)
	}
	return e
}

func validTxPayload(id string) map[string]any {
	return map[string]any{
		"transaction_id":  id,
		"date":            "2026-08-25T14:00:00Z",
		"amount":          2500.0,
		"payer_id":        "PAYER_1001",
		"payee_id":        "MERCH_2001",
		"payment_channel": "Web",
		"payment_mode":    "UPI",
		"payment_status":  "completed",
		"ip":              "49.36.12.101",
		"region":          "Maharashtra",
		"failed_attempts": 0,
	}
}

// ─── Health ───────────────────────────────────────────────────────────────────

func TestHealth_Returns200(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

// ─── POST /api/v1/fraud/assess ────────────────────────────────────────────────

func TestAssessFraud_CleanTransaction_NotFraud(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := post(t, srv, "/api/v1/fraud/assess", map[string]any{
		"transaction_id":  "assess-001",
		"amount":          500.0,
		"ip":              "10.0.0.1",
		"region":          "Kerala",
		"failed_attempts": 0,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	d := decodeData(t, resp)
	if d["is_fraud"] != false {
		t.Errorf("expected is_fraud=false, got %v", d["is_fraud"])
	}
	if d["fraud_score"] != 0.0 {
		t.Errorf("expected fraud_score=0, got %v", d["fraud_score"])
	}
	if d["fraud_reason"] != "No fraud detected" {
		t.Errorf("unexpected fraud_reason %q", d["fraud_reason"])
	}
}

func TestAssessFraud_HighAmount_Flagged(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := post(t, srv, "/api/v1/fraud/assess", map[string]any{
		"transaction_id": "assess-002",
		"amount":         150000.0,
		"ip":             "10.0.0.1",
		"region":         "Kerala",
	})
	d := decodeData(t, resp)
	if d["is_fraud"] != true {
		t.Errorf("expected is_fraud=true, got %v", d["is_fraud"])
	}
	if d["fraud_reason"] != "High transaction amount" {
		t.Errorf("unexpected fraud_reason %q", d["fraud_reason"])
	}
	if d["fraud_score"].(float64) != 0.8 {
		t.Errorf("expected fraud_score=0.8, got %v", d["fraud_score"])
	}
}

func TestAssessFraud_NothingPersisted(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	post(t, srv, "/api/v1/fraud/assess", map[string]any{
		"transaction_id": "assess-003",
		"amount":         150000.0,
	})

	resp := get(t, srv, "/api/v1/transactions/assess-003")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unstored assessment, got %d", resp.StatusCode)
	}
}

func TestAssessFraud_MissingAmount_Returns400(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := post(t, srv, "/api/v1/fraud/assess", map[string]any{
		"transaction_id": "assess-004",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	e := decodeError(t, resp)
	if e["code"] != "VALIDATION_ERROR" {
		t.Errorf("unexpected error code %v", e["code"])
	}
}

// ─── POST /api/v1/transactions ────────────────────────────────────────────────

func TestSubmitTransaction_ValidRequest_Returns201(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := post(t, srv, "/api/v1/transactions", validTxPayload("tx-api-001"))
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}
}

func TestSubmitTransaction_ResponseHasFraudFields(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := post(t, srv, "/api/v1/transactions", validTxPayload("tx-api-002"))
	d := decodeData(t, resp)

	if _, ok := d["is_fraud"]; !ok {
		t.Error("response must contain 'is_fraud'")
	}
	if _, ok := d["fraud_score"]; !ok {
		t.Error("response must contain 'fraud_score'")
	}
	if _, ok := d["is_fraud_reported"]; !ok {
		t.Error("response must contain 'is_fraud_reported'")
	}
}

func TestSubmitTransaction_BlocklistedIP_Flagged(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	payload := validTxPayload("tx-api-003")
	payload["ip"] = "192.168.1.1"
	resp := post(t, srv, "/api/v1/transactions", payload)
	d := decodeData(t, resp)

	if d["is_fraud"] != true {
		t.Errorf("expected is_fraud=true, got %v", d["is_fraud"])
	}
	if d["fraud_score"].(float64) != 0.6 {
		t.Errorf("expected fraud_score=0.6, got %v", d["fraud_score"])
	}
}

func TestSubmitTransaction_DuplicateID_Returns409(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	payload := validTxPayload("dup-tx")
	post(t, srv, "/api/v1/transactions", payload)
	resp := post(t, srv, "/api/v1/transactions", payload)

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
	e := decodeError(t, resp)
	if e["code"] != "CONFLICT" {
		t.Errorf("unexpected error code %v", e["code"])
	}
}

func TestSubmitTransaction_MissingField_Returns400(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	payload := validTxPayload("tx-api-004")
	delete(payload, "payer_id")
	resp := post(t, srv, "/api/v1/transactions", payload)

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSubmitTransaction_BadStatus_Returns400(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	payload := validTxPayload("tx-api-005")
	payload["payment_status"] = "in-flight"
	resp := post(t, srv, "/api/v1/transactions", payload)

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

// ─── GET /api/v1/transactions ─────────────────────────────────────────────────

func seedListData(t *testing.T, srv *httptest.Server, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		payload := validTxPayload(fmt.Sprintf("list-tx-%03d", i))
		payload["date"] = fmt.Sprintf("2026-08-%02dT10:00:00Z", 1+i%25)
		resp := post(t, srv, "/api/v1/transactions", payload)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("seeding tx %d: got %d", i, resp.StatusCode)
		}
	}
}

func TestListTransactions_DefaultPagination(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	seedListData(t, srv, 15)

	d := decodeData(t, get(t, srv, "/api/v1/transactions"))
	rows := d["transactions"].([]any)
	if len(rows) != 10 {
		t.Errorf("expected default limit of 10 rows, got %d", len(rows))
	}

	p := d["pagination"].(map[string]any)
	if p["total"].(float64) != 15 {
		t.Errorf("expected total=15, got %v", p["total"])
	}
	if p["page"].(float64) != 1 {
		t.Errorf("expected page=1, got %v", p["page"])
	}
	if p["pages"].(float64) != 2 {
		t.Errorf("expected pages=2, got %v", p["pages"])
	}
}

func TestListTransactions_SecondPage(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	seedListData(t, srv, 15)

	d := decodeData(t, get(t, srv, "/api/v1/transactions?page=2&limit=10"))
	rows := d["transactions"].([]any)
	if len(rows) != 5 {
		t.Errorf("expected 5 rows on page 2, got %d", len(rows))
	}
}

func TestListTransactions_NewestFirst(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	early := validTxPayload("order-early")
	early["date"] = "2026-08-01T10:00:00Z"
	late := validTxPayload("order-late")
	late["date"] = "2026-08-20T10:00:00Z"
	post(t, srv, "/api/v1/transactions", early)
	post(t, srv, "/api/v1/transactions", late)

	d := decodeData(t, get(t, srv, "/api/v1/transactions"))
	rows := d["transactions"].([]any)
	first := rows[0].(map[string]any)
	if first["id"] != "order-late" {
		t.Errorf("expected newest transaction first, got %v", first["id"])
	}
}

func TestListTransactions_FilterBySubstring(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	seedListData(t, srv, 3)

	other := validTxPayload("special-abc")
	post(t, srv, "/api/v1/transactions", other)

	d := decodeData(t, get(t, srv, "/api/v1/transactions?transactionId=SPECIAL"))
	rows := d["transactions"].([]any)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row for case-insensitive substring match, got %d", len(rows))
	}
	if rows[0].(map[string]any)["id"] != "special-abc" {
		t.Errorf("unexpected row %v", rows[0])
	}
}

func TestListTransactions_DateRangeInclusive(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	boundary := validTxPayload("boundary-tx")
	boundary["date"] = "2026-08-10T18:30:00Z"
	post(t, srv, "/api/v1/transactions", boundary)

	d := decodeData(t, get(t, srv, "/api/v1/transactions?dateFrom=2026-08-10&dateTo=2026-08-10"))
	rows := d["transactions"].([]any)
	if len(rows) != 1 {
		t.Errorf("expected same-day range to include the transaction, got %d rows", len(rows))
	}
}

func TestListTransactions_RowShape(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	payload := validTxPayload("shape-tx")
	payload["amount"] = 150000.0
	post(t, srv, "/api/v1/transactions", payload)

	d := decodeData(t, get(t, srv, "/api/v1/transactions"))
	row := d["transactions"].([]any)[0].(map[string]any)

	if row["fraudPredicted"] != "Yes" {
		t.Errorf("expected fraudPredicted=\"Yes\", got %v", row["fraudPredicted"])
	}
	if row["fraudReported"] != "No" {
		t.Errorf("expected fraudReported=\"No\", got %v", row["fraudReported"])
	}
	if row["date"] != "2026-08-25 14:00:00" {
		t.Errorf("unexpected date format %v", row["date"])
	}
}

func TestListTransactions_BadDateParam_Returns400(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/api/v1/transactions?dateFrom=not-a-date")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

// ─── GET /api/v1/transactions/{id} ────────────────────────────────────────────

func TestGetTransaction_Found(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	post(t, srv, "/api/v1/transactions", validTxPayload("fetch-me"))
	resp := get(t, srv, "/api/v1/transactions/fetch-me")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	d := decodeData(t, resp)
	if d["transaction_id"] != "fetch-me" {
		t.Errorf("unexpected transaction %v", d["transaction_id"])
	}
}

func TestGetTransaction_Unknown_Returns404(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := get(t, srv, "/api/v1/transactions/no-such-tx")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

// ─── POST /api/v1/transactions/{id}/flag ──────────────────────────────────────

func TestFlagTransaction_OverridesVerdict(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	post(t, srv, "/api/v1/transactions", validTxPayload("flag-me"))

	resp := post(t, srv, "/api/v1/transactions/flag-me/flag", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	d := decodeData(t, resp)
	if d["is_fraud"] != true {
		t.Errorf("expected is_fraud=true after flagging, got %v", d["is_fraud"])
	}

	// Override persists on the stored record.
	stored := decodeData(t, get(t, srv, "/api/v1/transactions/flag-me"))
	if stored["is_fraud"] != true {
		t.Errorf("stored transaction should be marked fraudulent, got %v", stored["is_fraud"])
	}
}

func TestFlagTransaction_Unknown_Returns404(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := post(t, srv, "/api/v1/transactions/no-such-tx/flag", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

// ─── GET /api/v1/transactions/stats ───────────────────────────────────────────

func TestGetStats_EmptyStore_ZeroRate(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	d := decodeData(t, get(t, srv, "/api/v1/transactions/stats"))
	overview := d["overview"].(map[string]any)
	if overview["totalTransactions"].(float64) != 0 {
		t.Errorf("expected 0 transactions, got %v", overview["totalTransactions"])
	}
	if overview["fraudPredictionRate"].(float64) != 0 {
		t.Errorf("expected rate 0 on empty store, got %v", overview["fraudPredictionRate"])
	}
}

func TestGetStats_CountsAndBreakdowns(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	clean := validTxPayload("stats-clean")
	post(t, srv, "/api/v1/transactions", clean)

	fraud := validTxPayload("stats-fraud")
	fraud["amount"] = 150000.0
	fraud["payment_mode"] = "CreditCard"
	post(t, srv, "/api/v1/transactions", fraud)

	d := decodeData(t, get(t, srv, "/api/v1/transactions/stats"))
	overview := d["overview"].(map[string]any)
	if overview["totalTransactions"].(float64) != 2 {
		t.Errorf("expected 2 transactions, got %v", overview["totalTransactions"])
	}
	if overview["fraudPredictedCount"].(float64) != 1 {
		t.Errorf("expected 1 fraud prediction, got %v", overview["fraudPredictedCount"])
	}
	if overview["fraudPredictionRate"].(float64) != 50 {
		t.Errorf("expected fraud rate 50, got %v", overview["fraudPredictionRate"])
	}

	byMode := d["byPaymentMode"].(map[string]any)
	cc := byMode["CreditCard"].(map[string]any)
	if cc["count"].(float64) != 1 || cc["fraudCount"].(float64) != 1 {
		t.Errorf("unexpected CreditCard breakdown %v", cc)
	}
}

// ─── POST /api/v1/reports ─────────────────────────────────────────────────────

func TestReportFraud_ValidReport_Returns201(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	post(t, srv, "/api/v1/transactions", validTxPayload("report-me"))

	resp := post(t, srv, "/api/v1/reports", map[string]any{
		"transaction_id":      "report-me",
		"reporting_entity_id": "BANK_001",
		"fraud_details":       "customer dispute: unauthorized charge",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	d := decodeData(t, resp)
	if d["is_fraud_reported"] != true {
		t.Errorf("expected is_fraud_reported=true, got %v", d["is_fraud_reported"])
	}
	if d["fraud_report_id"] == "" {
		t.Error("expected a fraud_report_id")
	}
}

func TestReportFraud_IndependentOfPrediction(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	// A clean transaction the engine did not flag.
	post(t, srv, "/api/v1/transactions", validTxPayload("report-clean"))

	resp := post(t, srv, "/api/v1/reports", map[string]any{
		"transaction_id":      "report-clean",
		"reporting_entity_id": "BANK_002",
		"fraud_details":       "reported via hotline",
	})
	d := decodeData(t, resp)
	if d["is_fraud"] != false {
		t.Errorf("reporting must not change the prediction, got is_fraud=%v", d["is_fraud"])
	}
	if d["is_fraud_reported"] != true {
		t.Errorf("expected is_fraud_reported=true, got %v", d["is_fraud_reported"])
	}
}

func TestReportFraud_MissingDetails_Returns400(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	post(t, srv, "/api/v1/transactions", validTxPayload("report-bad"))

	resp := post(t, srv, "/api/v1/reports", map[string]any{
		"transaction_id":      "report-bad",
		"reporting_entity_id": "BANK_003",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListReports_ReturnsFiledReports(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	post(t, srv, "/api/v1/transactions", validTxPayload("report-list"))
	for _, entity := range []string{"BANK_010", "BANK_011"} {
		post(t, srv, "/api/v1/reports", map[string]any{
			"transaction_id":      "report-list",
			"reporting_entity_id": entity,
			"fraud_details":       "dispute",
		})
	}

	d := decodeData(t, get(t, srv, "/api/v1/transactions/report-list/reports"))
	reports := d["reports"].([]any)
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	first := reports[0].(map[string]any)
	if first["reporting_entity_id"] != "BANK_010" {
		t.Errorf("expected oldest report first, got %v", first["reporting_entity_id"])
	}
}

func TestListReports_NoReports_EmptyList(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	post(t, srv, "/api/v1/transactions", validTxPayload("report-none"))

	d := decodeData(t, get(t, srv, "/api/v1/transactions/report-none/reports"))
	reports := d["reports"].([]any)
	if len(reports) != 0 {
		t.Errorf("expected no reports, got %d", len(reports))
	}
}

func TestReportFraud_UnknownTransaction_Returns404(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := post(t, srv, "/api/v1/reports", map[string]any{
		"transaction_id":      "no-such-tx",
		"reporting_entity_id": "BANK_004",
		"fraud_details":       "details",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
