package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wimmeldj/gemini-dca/internal/models"
)

// PurchaseRepo mirrors ledger fills into Postgres so history can be
// queried without parsing the TSV file. The TSV ledger stays the
// system of record.
type PurchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

// EnsureSchema creates the mirror table on first use.
func (r *PurchaseRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS purchase_history (
			tid          BIGINT PRIMARY KEY,
			order_id     TEXT NOT NULL,
			ts           BIGINT NOT NULL,
			tsms         BIGINT NOT NULL,
			type         TEXT NOT NULL,
			pair         TEXT NOT NULL,
			price        NUMERIC NOT NULL,
			amount       NUMERIC NOT NULL,
			fee_currency TEXT NOT NULL,
			fee_amount   NUMERIC NOT NULL,
			cost_basis   NUMERIC NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

// Record inserts one fill. Replayed trade ids are ignored so a rerun
// after a partial mirror failure cannot duplicate rows.
func (r *PurchaseRepo) Record(ctx context.Context, f models.Fill) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO purchase_history
		 (tid, order_id, ts, tsms, type, pair, price, amount, fee_currency, fee_amount, cost_basis)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT (tid) DO NOTHING`,
		f.TradeID, f.OrderID, f.Timestamp, f.TimestampMS, f.Type, f.Pair,
		f.Price, f.Amount, f.FeeCurrency, f.FeeAmount, f.CostBasis(),
	)
	return err
}

// Recent returns the latest mirrored fills, newest first.
func (r *PurchaseRepo) Recent(ctx context.Context, limit int) ([]models.Fill, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tid, order_id, ts, tsms, type, pair, price, amount, fee_currency, fee_amount
		 FROM purchase_history ORDER BY tsms DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Fill
	for rows.Next() {
		var f models.Fill
		if err := rows.Scan(
			&f.TradeID, &f.OrderID, &f.Timestamp, &f.TimestampMS, &f.Type, &f.Pair,
			&f.Price, &f.Amount, &f.FeeCurrency, &f.FeeAmount,
		); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountSince counts mirrored fills executed at or after the cutoff.
func (r *PurchaseRepo) CountSince(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM purchase_history WHERE tsms >= $1`,
		cutoff.UnixMilli(),
	).Scan(&count)
	return count, err
}
