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

const proofColumns = `
    fingerprint, payment_id, public_input, submitter, verifier, verified,
    failure_count, last_error, submitted_at, verified_at`

const selectProofByFingerprint = `SELECT` + proofColumns + `
    FROM proof_attestations
    WHERE fingerprint = $1`

type proofRepository struct {
	db *pgxpool.Pool
}

// NewProofRepository creates an attestation store backed by the given pool.
func NewProofRepository(db *pgxpool.Pool) repository.ProofRepository {
	return &proofRepository{db: db}
}

func (r *proofRepository) Create(ctx context.Context, a *domain.ProofAttestation) error {
	query := `
        INSERT INTO proof_attestations (fingerprint, payment_id, public_input, submitter, submitted_at)
        VALUES ($1, $2, $3, $4, $5)
    `

	_, err := r.db.Exec(ctx, query, a.Fingerprint, a.PaymentID, a.PublicInput, a.Submitter, a.SubmittedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("proof %s: %w", a.Fingerprint, domain.ErrConflict)
		}
		return fmt.Errorf("failed to create attestation: %w", err)
	}

	return nil
}

func (r *proofRepository) Get(ctx context.Context, fingerprint string) (*domain.ProofAttestation, error) {
	var a domain.ProofAttestation
	err := r.db.QueryRow(ctx, selectProofByFingerprint, fingerprint).Scan(
		&a.Fingerprint, &a.PaymentID, &a.PublicInput, &a.Submitter, &a.Verifier, &a.Verified,
		&a.FailureCount, &a.LastError, &a.SubmittedAt, &a.VerifiedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attestation: %w", err)
	}

	return &a, nil
}

func (r *proofRepository) GetByPayment(ctx context.Context, paymentID string) (*domain.ProofAttestation, error) {
	query := `SELECT` + proofColumns + `
        FROM proof_attestations
        WHERE payment_id = $1
        ORDER BY submitted_at DESC
        LIMIT 1
    `

	var a domain.ProofAttestation
	err := r.db.QueryRow(ctx, query, paymentID).Scan(
		&a.Fingerprint, &a.PaymentID, &a.PublicInput, &a.Submitter, &a.Verifier, &a.Verified,
		&a.FailureCount, &a.LastError, &a.SubmittedAt, &a.VerifiedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attestation by payment: %w", err)
	}

	return &a, nil
}

func (r *proofRepository) MarkVerified(ctx context.Context, fingerprint, verifier string, verifiedAt time.Time) (bool, error) {
	// verified = FALSE in the WHERE clause makes the latch one-way.
	query := `
        UPDATE proof_attestations
        SET verified = TRUE, verifier = $2, verified_at = $3, last_error = NULL
        WHERE fingerprint = $1 AND verified = FALSE
    `

	result, err := r.db.Exec(ctx, query, fingerprint, verifier, verifiedAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark attestation verified: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *proofRepository) RecordFailure(ctx context.Context, fingerprint, verifyErr string) error {
	query := `
        UPDATE proof_attestations
        SET failure_count = failure_count + 1, last_error = $2
        WHERE fingerprint = $1 AND verified = FALSE
    `

	result, err := r.db.Exec(ctx, query, fingerprint, verifyErr)
	if err != nil {
		return fmt.Errorf("failed to record verification failure: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("proof %s: %w", fingerprint, domain.ErrNotFound)
	}

	return nil
}

func (r *proofRepository) ListUnverified(ctx context.Context, limit int) ([]*domain.ProofAttestation, error) {
	query := `SELECT` + proofColumns + `
        FROM proof_attestations
        WHERE verified = FALSE
        ORDER BY submitted_at ASC
        LIMIT $1
    `

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unverified attestations: %w", err)
	}
	defer rows.Close()

	var attestations []*domain.ProofAttestation
	for rows.Next() {
		var a domain.ProofAttestation
		err := rows.Scan(
			&a.Fingerprint, &a.PaymentID, &a.PublicInput, &a.Submitter, &a.Verifier, &a.Verified,
			&a.FailureCount, &a.LastError, &a.SubmittedAt, &a.VerifiedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attestation: %w", err)
		}
		attestations = append(attestations, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attestations: %w", err)
	}

	return attestations, nil
}
