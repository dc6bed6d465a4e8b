package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// PaymentStatus is the lifecycle state of a payment.
// Pending -> {Verified, Flagged} -> Completed | Refunded.
// Flagged -> Refunded only.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusVerified  PaymentStatus = "VERIFIED"
	StatusFlagged   PaymentStatus = "FLAGGED"
	StatusCompleted PaymentStatus = "COMPLETED"
	StatusRefunded  PaymentStatus = "REFUNDED"
	// StatusFailed is terminal and retained for the durable record; no core
	// transition currently produces it.
	StatusFailed PaymentStatus = "FAILED"
)

// Terminal reports whether no further mutation is permitted.
func (s PaymentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRefunded || s == StatusFailed
}

// Payment is the ledger's unit of state. Payer, recipient reference, token and
// amount are immutable after creation; only status, risk score and proof
// attestation mutate.
type Payment struct {
	ID                string        `db:"id"` // 32-byte hex, content-derived
	Payer             string        `db:"payer"`
	RecipientRef      string        `db:"recipient_ref"` // may be a privacy-preserving hash
	Token             string        `db:"token"`
	Amount            string        `db:"amount"` // decimal string, never exposed in views
	EncryptedAmount   []byte        `db:"encrypted_amount"`
	EncryptedMetadata []byte        `db:"encrypted_metadata"`
	RiskScore         *int32        `db:"risk_score"` // nil until assessed
	Status            PaymentStatus `db:"status"`
	ProofFingerprint  *string       `db:"proof_fingerprint"` // nil until a proof is attached
	ProofVerified     bool          `db:"proof_verified"`
	RefundReason      *string       `db:"refund_reason"`
	CreatedAt         time.Time     `db:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at"`
	CompletedAt       *time.Time    `db:"completed_at"`
}

// CreatePaymentParams holds parameters for creating a new payment.
type CreatePaymentParams struct {
	Payer             string
	RecipientRef      string
	Token             string
	Amount            string
	EncryptedAmount   []byte
	EncryptedMetadata []byte
}

// PaymentView is the read-only projection returned to callers. It never
// carries the cleartext amount or metadata, only the encrypted blobs, so the
// privacy contract holds even for authorized readers without keys.
type PaymentView struct {
	ID                string        `json:"id"`
	Payer             string        `json:"payer"`
	RecipientRef      string        `json:"recipient_ref"`
	Token             string        `json:"token"`
	EncryptedAmount   []byte        `json:"encrypted_amount"`
	EncryptedMetadata []byte        `json:"encrypted_metadata,omitempty"`
	RiskScore         *int32        `json:"risk_score,omitempty"`
	Status            PaymentStatus `json:"status"`
	ProofFingerprint  *string       `json:"proof_fingerprint,omitempty"`
	ProofVerified     bool          `json:"proof_verified"`
	RefundReason      *string       `json:"refund_reason,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
}

// View projects the payment into its external shape.
func (p *Payment) View() *PaymentView {
	return &PaymentView{
		ID:                p.ID,
		Payer:             p.Payer,
		RecipientRef:      p.RecipientRef,
		Token:             p.Token,
		EncryptedAmount:   p.EncryptedAmount,
		EncryptedMetadata: p.EncryptedMetadata,
		RiskScore:         p.RiskScore,
		Status:            p.Status,
		ProofFingerprint:  p.ProofFingerprint,
		ProofVerified:     p.ProofVerified,
		RefundReason:      p.RefundReason,
		CreatedAt:         p.CreatedAt,
		CompletedAt:       p.CompletedAt,
	}
}

// DerivePaymentID builds the content-derived identifier: a SHA-256 over the
// immutable payment fields plus a per-ledger monotonic sequence and the
// creation instant. The sequence keeps concurrent creations from the same
// payer collision-free within the same timestamp.
func DerivePaymentID(params CreatePaymentParams, sequence uint64, createdAt time.Time) string {
	h := sha256.New()
	h.Write([]byte(params.Payer))
	h.Write([]byte{0})
	h.Write([]byte(params.RecipientRef))
	h.Write([]byte{0})
	h.Write([]byte(params.Token))
	h.Write([]byte{0})
	h.Write([]byte(params.Amount))
	h.Write([]byte{0})
	h.Write(params.EncryptedAmount)

	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], sequence)
	binary.BigEndian.PutUint64(buf[8:], uint64(createdAt.UnixNano()))
	h.Write(buf[:])

	return hex.EncodeToString(h.Sum(nil))
}
