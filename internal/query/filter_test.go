package query_test

import (
	"testing"
	"time"

	"paywatch/transaction-api/internal/domain"
	"paywatch/transaction-api/internal/query"
)

func tx(id string, ts time.Time) *domain.Transaction {
	return &domain.Transaction{TransactionRecord: domain.TransactionRecord{
		TransactionID: id,
		Date:          ts,
		PayerID:       "PAYER-77",
		PayeeID:       "MERCH-12",
	}}
}

func date(y int, m time.Month, d, hh int) time.Time {
	return time.Date(y, m, d, hh, 0, 0, 0, time.UTC)
}

// ─── Date handling ────────────────────────────────────────────────────────────

func TestBuildFilter_DateToExpandsToEndOfDay(t *testing.T) {
	to := date(2026, 3, 5, 0)
	f := query.BuildFilter(query.Criteria{DateTo: &to})

	// A transaction late on the same day must still match.
	if !f.Matches(tx("T1", date(2026, 3, 5, 23))) {
		t.Error("same-day 23:00 transaction should match an end-of-day-expanded bound")
	}
	// The next morning must not.
	if f.Matches(tx("T2", date(2026, 3, 6, 0))) {
		t.Error("next-day transaction should not match")
	}
}

func TestBuildFilter_SingleDayRange_CoversWholeDay(t *testing.T) {
	day := date(2026, 3, 5, 0)
	f := query.BuildFilter(query.Criteria{DateFrom: &day, DateTo: &day})

	for _, hh := range []int{0, 12, 23} {
		if !f.Matches(tx("T", date(2026, 3, 5, hh))) {
			t.Errorf("hour %d of the selected day should match", hh)
		}
	}
}

func TestBuildFilter_InvertedRange_BuildsAndMatchesNothing(t *testing.T) {
	from := date(2026, 3, 10, 0)
	to := date(2026, 3, 1, 0)
	f := query.BuildFilter(query.Criteria{DateFrom: &from, DateTo: &to})

	for _, ts := range []time.Time{date(2026, 2, 28, 12), date(2026, 3, 5, 12), date(2026, 3, 11, 12)} {
		if f.Matches(tx("T", ts)) {
			t.Errorf("inverted range must match nothing, matched %v", ts)
		}
	}
}

func TestBuildFilter_NoCriteria_MatchesEverything(t *testing.T) {
	f := query.BuildFilter(query.Criteria{})
	if !f.Matches(tx("anything", date(1999, 1, 1, 0))) {
		t.Error("an open filter must match every transaction")
	}
}

// ─── Identifier matching ──────────────────────────────────────────────────────

func TestBuildFilter_PartialID_MatchesSubstring(t *testing.T) {
	f := query.BuildFilter(query.Criteria{TransactionID: "10235"})
	if !f.Matches(tx("TXN10235X", date(2026, 3, 5, 0))) {
		t.Error("partial id should match a containing transaction id")
	}
	if f.Matches(tx("TXN10236", date(2026, 3, 5, 0))) {
		t.Error("non-containing id must not match")
	}
}

func TestBuildFilter_IDMatch_IsCaseInsensitive(t *testing.T) {
	f := query.BuildFilter(query.Criteria{PayerID: "payer"})
	if !f.Matches(tx("T", date(2026, 3, 5, 0))) {
		t.Error("payer criterion should match regardless of case")
	}

	f = query.BuildFilter(query.Criteria{PayeeID: "merch-12"})
	if !f.Matches(tx("T", date(2026, 3, 5, 0))) {
		t.Error("payee criterion should match regardless of case")
	}
}

func TestBuildFilter_CombinedCriteria_AllMustHold(t *testing.T) {
	from := date(2026, 3, 1, 0)
	f := query.BuildFilter(query.Criteria{DateFrom: &from, PayerID: "PAYER", TransactionID: "999"})

	if f.Matches(tx("TXN10235", date(2026, 3, 5, 0))) {
		t.Error("record failing one criterion must not match")
	}
	if !f.Matches(tx("TXN999", date(2026, 3, 5, 0))) {
		t.Error("record satisfying every criterion should match")
	}
}

// ─── ParseDate ────────────────────────────────────────────────────────────────

func TestParseDate_AcceptsCalendarDayAndRFC3339(t *testing.T) {
	if _, err := query.ParseDate("2026-03-05"); err != nil {
		t.Errorf("calendar day should parse: %v", err)
	}
	if _, err := query.ParseDate("2026-03-05T14:30:00Z"); err != nil {
		t.Errorf("RFC 3339 should parse: %v", err)
	}
	if _, err := query.ParseDate("05/03/2026"); err == nil {
		t.Error("unsupported layout should fail")
	}
}
