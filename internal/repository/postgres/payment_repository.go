// Package postgres implements the settlement repositories over pgx/v5.
// Status transitions are compare-and-set UPDATEs whose WHERE clause carries
// the expected current status; RowsAffected() == 0 means the precondition no
// longer held.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/repository"
)

const paymentColumns = `
    id, payer, recipient_ref, token, amount, encrypted_amount, encrypted_metadata,
    risk_score, status, proof_fingerprint, proof_verified, refund_reason,
    created_at, updated_at, completed_at`

const selectPaymentByID = `SELECT` + paymentColumns + `
    FROM payments
    WHERE id = $1`

type paymentRepository struct {
	db *pgxpool.Pool
}

// NewPaymentRepository creates a payment store backed by the given pool.
func NewPaymentRepository(db *pgxpool.Pool) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
        INSERT INTO payments (
            id, payer, recipient_ref, token, amount, encrypted_amount,
            encrypted_metadata, status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
    `

	_, err := r.db.Exec(ctx, query,
		p.ID, p.Payer, p.RecipientRef, p.Token, p.Amount,
		p.EncryptedAmount, p.EncryptedMetadata, p.Status, p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("payment %s: %w", p.ID, domain.ErrConflict)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, selectPaymentByID, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return p, nil
}

func (r *paymentRepository) NextSequence(ctx context.Context) (uint64, error) {
	var seq uint64
	if err := r.db.QueryRow(ctx, `SELECT nextval('payment_sequence')`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to advance payment sequence: %w", err)
	}
	return seq, nil
}

func (r *paymentRepository) SetRiskScore(ctx context.Context, id string, score int32, from, to domain.PaymentStatus) (bool, error) {
	query := `
        UPDATE payments
        SET risk_score = $3, status = $4, updated_at = NOW()
        WHERE id = $1 AND status = $2
    `

	result, err := r.db.Exec(ctx, query, id, from, score, to)
	if err != nil {
		return false, fmt.Errorf("failed to set risk score: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *paymentRepository) SetProofAttested(ctx context.Context, id, fingerprint string, from, to domain.PaymentStatus) (bool, error) {
	query := `
        UPDATE payments
        SET proof_fingerprint = $3, proof_verified = TRUE, status = $4,
            completed_at = CASE WHEN $4 = 'COMPLETED' THEN NOW() ELSE completed_at END,
            updated_at = NOW()
        WHERE id = $1 AND status = $2
    `

	result, err := r.db.Exec(ctx, query, id, from, fingerprint, to)
	if err != nil {
		return false, fmt.Errorf("failed to attach proof: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *paymentRepository) SetCompleted(ctx context.Context, id string, from domain.PaymentStatus, completedAt time.Time) (bool, error) {
	query := `
        UPDATE payments
        SET status = $3, completed_at = $4, updated_at = $4
        WHERE id = $1 AND status = $2
    `

	result, err := r.db.Exec(ctx, query, id, from, domain.StatusCompleted, completedAt)
	if err != nil {
		return false, fmt.Errorf("failed to complete payment: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *paymentRepository) SetRefunded(ctx context.Context, id, reason string, from domain.PaymentStatus) (bool, error) {
	query := `
        UPDATE payments
        SET status = $3, refund_reason = $4, updated_at = NOW()
        WHERE id = $1 AND status = $2
    `

	result, err := r.db.Exec(ctx, query, id, from, domain.StatusRefunded, reason)
	if err != nil {
		return false, fmt.Errorf("failed to refund payment: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *paymentRepository) ListByStatus(ctx context.Context, status domain.PaymentStatus, limit int) ([]*domain.Payment, error) {
	query := `SELECT` + paymentColumns + `
        FROM payments
        WHERE status = $1
        ORDER BY created_at ASC
        LIMIT $2
    `

	rows, err := r.db.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	return collectPayments(rows)
}

func (r *paymentRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error) {
	query := `SELECT` + paymentColumns + `
        FROM payments
        WHERE status = $1 AND created_at < $2
        ORDER BY created_at ASC
        LIMIT $3
    `

	rows, err := r.db.Query(ctx, query, domain.StatusPending, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired payments: %w", err)
	}
	defer rows.Close()

	return collectPayments(rows)
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID, &p.Payer, &p.RecipientRef, &p.Token, &p.Amount,
		&p.EncryptedAmount, &p.EncryptedMetadata,
		&p.RiskScore, &p.Status, &p.ProofFingerprint, &p.ProofVerified,
		&p.RefundReason, &p.CreatedAt, &p.UpdatedAt, &p.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPayments(rows pgx.Rows) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}
	return payments, nil
}
