package domain

import "time"

// Default policy values applied when a payer has never set a policy.
const (
	DefaultRiskThreshold = 75
)

// PrivacyPolicy is per-payer configuration consulted before allowing
// completion. Owned and mutable only by the payer it belongs to.
type PrivacyPolicy struct {
	Payer                      string `db:"payer" json:"payer"`
	ProofRequired              bool   `db:"proof_required" json:"proof_required"`
	RiskCheckRequired          bool   `db:"risk_check_required" json:"risk_check_required"`
	MinRiskThreshold           int32  `db:"min_risk_threshold" json:"min_risk_threshold"` // scores >= threshold flag the payment
	MetadataEncryptionRequired bool   `db:"metadata_encryption_required" json:"metadata_encryption_required"`
	// AutoCompleteOnProof settles the payment directly when its proof
	// verifies, instead of waiting for the payer's explicit completion call.
	AutoCompleteOnProof bool      `db:"auto_complete_on_proof" json:"auto_complete_on_proof"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// SetPolicyParams holds parameters for updating a payer's policy. The payer
// identity is never part of the params: it is bound to the authenticated
// caller by the service layer.
type SetPolicyParams struct {
	ProofRequired              bool
	RiskCheckRequired          bool
	MinRiskThreshold           int32
	MetadataEncryptionRequired bool
	AutoCompleteOnProof        bool
}

// DefaultPolicy returns the system defaults for a payer with no stored policy.
func DefaultPolicy(payer string) *PrivacyPolicy {
	return &PrivacyPolicy{
		Payer:             payer,
		ProofRequired:     false,
		RiskCheckRequired: true,
		MinRiskThreshold:  DefaultRiskThreshold,
	}
}
