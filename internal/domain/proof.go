package domain

import (
	"encoding/hex"
	"strings"
	"time"
)

// FingerprintHexLen is the length of a hex-encoded SHA-256 proof fingerprint.
const FingerprintHexLen = 64

// ProofAttestation records a proof submission and its verification outcome.
// Submission is write-once; verification is a one-way latch (false -> true).
// A failed cryptographic check never latches: it is counted and the
// attestation stays verifiable, so a prover can retry with corrected material.
type ProofAttestation struct {
	Fingerprint  string     `db:"fingerprint" json:"fingerprint"` // hex SHA-256 of the proof's canonical bytes
	PaymentID    string     `db:"payment_id" json:"payment_id"`   // payment the proof attests to
	PublicInput  []byte     `db:"public_input" json:"public_input,omitempty"`
	Submitter    string     `db:"submitter" json:"submitter"`
	Verifier     *string    `db:"verifier" json:"verifier,omitempty"` // nil until verified
	Verified     bool       `db:"verified" json:"verified"`
	FailureCount int32      `db:"failure_count" json:"failure_count"`
	LastError    *string    `db:"last_error" json:"last_error,omitempty"`
	SubmittedAt  time.Time  `db:"submitted_at" json:"submitted_at"`
	VerifiedAt   *time.Time `db:"verified_at" json:"verified_at,omitempty"`
}

// ValidFingerprint reports whether fp is a well-formed, non-zero fingerprint.
// An all-zero fingerprint is the canonical "empty" value and is rejected.
func ValidFingerprint(fp string) bool {
	if len(fp) != FingerprintHexLen {
		return false
	}
	if _, err := hex.DecodeString(fp); err != nil {
		return false
	}
	return strings.Trim(fp, "0") != ""
}
