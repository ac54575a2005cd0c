package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"paywatch/transaction-api/internal/domain"
)

// Postgres is the durable store driver, backed by database/sql and lib/pq.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

var _ Store = (*Postgres)(nil)

// EnsureSchema creates the tables the driver needs if they are missing.
// Transactions are never deleted, so there is no retention DDL.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS transactions (
			transaction_id    TEXT PRIMARY KEY,
			date              TIMESTAMPTZ NOT NULL,
			amount            DOUBLE PRECISION NOT NULL,
			payer_id          TEXT NOT NULL,
			payee_id          TEXT NOT NULL,
			payment_channel   TEXT NOT NULL,
			payment_mode      TEXT NOT NULL,
			payment_status    TEXT NOT NULL,
			ip                TEXT NOT NULL,
			region            TEXT NOT NULL,
			failed_attempts   INTEGER NOT NULL DEFAULT 0,
			is_fraud          BOOLEAN NOT NULL DEFAULT FALSE,
			fraud_score       DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_fraud_reported BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE TABLE IF NOT EXISTS fraud_reports (
			report_id           TEXT PRIMARY KEY,
			transaction_id      TEXT NOT NULL,
			reporting_entity_id TEXT NOT NULL,
			fraud_details       TEXT NOT NULL,
			fraud_score         DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at          TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions (date DESC);
		CREATE INDEX IF NOT EXISTS idx_fraud_reports_tx ON fraud_reports (transaction_id);`

	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Insert persists a transaction.
func (p *Postgres) Insert(ctx context.Context, tx *domain.Transaction) error {
	const query = `
		INSERT INTO transactions (
			transaction_id, date, amount, payer_id, payee_id,
			payment_channel, payment_mode, payment_status,
			ip, region, failed_attempts,
			is_fraud, fraud_score, is_fraud_reported
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := p.db.ExecContext(ctx, query,
		tx.TransactionID, tx.Date, tx.Amount, tx.PayerID, tx.PayeeID,
		tx.PaymentChannel, tx.PaymentMode, tx.PaymentStatus,
		tx.OriginatingIP, tx.Region, tx.FailedAttempts,
		tx.IsFraudPredicted, tx.FraudScore, tx.IsFraudReported,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("insert transaction %s: %w", tx.TransactionID, err)
	}
	return nil
}

const txColumns = `transaction_id, date, amount, payer_id, payee_id,
	payment_channel, payment_mode, payment_status,
	ip, region, failed_attempts, is_fraud, fraud_score, is_fraud_reported`

func scanTransaction(row interface{ Scan(...any) error }) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := row.Scan(
		&tx.TransactionID, &tx.Date, &tx.Amount, &tx.PayerID, &tx.PayeeID,
		&tx.PaymentChannel, &tx.PaymentMode, &tx.PaymentStatus,
		&tx.OriginatingIP, &tx.Region, &tx.FailedAttempts,
		&tx.IsFraudPredicted, &tx.FraudScore, &tx.IsFraudReported,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// FindOne retrieves a single transaction by its external id.
func (p *Postgres) FindOne(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE transaction_id = $1`, txColumns)

	tx, err := scanTransaction(p.db.QueryRowContext(ctx, query, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction %s: %w", transactionID, err)
	}
	return tx, nil
}

// likeEscaper quotes the LIKE metacharacters so user-supplied criteria
// always match literally, like the in-memory driver's strings.Contains.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause renders the filter as SQL. Substring criteria use ILIKE so
// matching stays case-insensitive, mirroring the in-memory driver.
func whereClause(f TransactionFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.DateFrom != nil {
		add("date >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("date <= $%d", *f.DateTo)
	}
	if f.TransactionID != "" {
		add(`transaction_id ILIKE '%%' || $%d || '%%' ESCAPE '\'`, likeEscaper.Replace(f.TransactionID))
	}
	if f.PayerID != "" {
		add(`payer_id ILIKE '%%' || $%d || '%%' ESCAPE '\'`, likeEscaper.Replace(f.PayerID))
	}
	if f.PayeeID != "" {
		add(`payee_id ILIKE '%%' || $%d || '%%' ESCAPE '\'`, likeEscaper.Replace(f.PayeeID))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Find returns matching transactions, date descending, windowed by skip/limit.
func (p *Postgres) Find(ctx context.Context, f TransactionFilter, skip, limit int) ([]*domain.Transaction, error) {
	where, args := whereClause(f)
	query := fmt.Sprintf(`SELECT %s FROM transactions%s ORDER BY date DESC OFFSET $%d`,
		txColumns, where, len(args)+1)
	args = append(args, skip)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer rows.Close()

	out := []*domain.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	return out, nil
}

// Count returns how many transactions satisfy the filter.
func (p *Postgres) Count(ctx context.Context, f TransactionFilter) (int, error) {
	where, args := whereClause(f)
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// UpdateFraudFields applies a partial update to one transaction's fraud fields.
func (p *Postgres) UpdateFraudFields(ctx context.Context, transactionID string, u FraudUpdate) error {
	var sets []string
	var args []any

	set := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if u.IsFraudPredicted != nil {
		set("is_fraud", *u.IsFraudPredicted)
	}
	if u.FraudScore != nil {
		set("fraud_score", *u.FraudScore)
	}
	if u.IsFraudReported != nil {
		set("is_fraud_reported", *u.IsFraudReported)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, transactionID)
	query := fmt.Sprintf(`UPDATE transactions SET %s WHERE transaction_id = $%d`,
		strings.Join(sets, ", "), len(args))

	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", transactionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GroupByField computes per-value counters with a single GROUP BY query.
func (p *Postgres) GroupByField(ctx context.Context, field string) (map[string]domain.GroupStat, error) {
	switch field {
	case FieldPaymentMode, FieldPaymentChannel:
	default:
		return nil, fmt.Errorf("ungroupable field %q", field)
	}

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*), COUNT(*) FILTER (WHERE is_fraud)
		FROM transactions GROUP BY %s`, field, field)

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("group by %s: %w", field, err)
	}
	defer rows.Close()

	groups := make(map[string]domain.GroupStat)
	for rows.Next() {
		var key string
		var g domain.GroupStat
		if err := rows.Scan(&key, &g.Count, &g.FraudCount); err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		groups[key] = g
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("group by %s: %w", field, err)
	}
	return groups, nil
}

// CountSummary returns the whole-store counters in one query.
func (p *Postgres) CountSummary(ctx context.Context) (Summary, error) {
	const query = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_fraud),
		       COUNT(*) FILTER (WHERE is_fraud_reported)
		FROM transactions`

	var s Summary
	if err := p.db.QueryRowContext(ctx, query).Scan(&s.Total, &s.FraudPredicted, &s.FraudReported); err != nil {
		return Summary{}, fmt.Errorf("count summary: %w", err)
	}
	return s, nil
}

// InsertReport appends a fraud report.
func (p *Postgres) InsertReport(ctx context.Context, r *domain.FraudReport) error {
	const query = `
		INSERT INTO fraud_reports (
			report_id, transaction_id, reporting_entity_id,
			fraud_details, fraud_score, created_at
		) VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := p.db.ExecContext(ctx, query,
		r.ReportID, r.TransactionID, r.ReportingEntityID,
		r.FraudDetails, r.FraudScore, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fraud report %s: %w", r.ReportID, err)
	}
	return nil
}

// ReportsByTransaction returns every report referencing the transaction,
// oldest first.
func (p *Postgres) ReportsByTransaction(ctx context.Context, transactionID string) ([]*domain.FraudReport, error) {
	const query = `
		SELECT report_id, transaction_id, reporting_entity_id,
		       fraud_details, fraud_score, created_at
		FROM fraud_reports WHERE transaction_id = $1 ORDER BY created_at`

	rows, err := p.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list reports for %s: %w", transactionID, err)
	}
	defer rows.Close()

	out := []*domain.FraudReport{}
	for rows.Next() {
		var r domain.FraudReport
		err := rows.Scan(&r.ReportID, &r.TransactionID, &r.ReportingEntityID,
			&r.FraudDetails, &r.FraudScore, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports for %s: %w", transactionID, err)
	}
	return out, nil
}
