package domain

import "time"

// Risk score bounds. Scores at or above a payer's policy threshold flag the
// payment; scores below it verify the payment.
const (
	MinRiskScore int32 = 0
	MaxRiskScore int32 = 100
)

// RiskAssessment ties a payment to a score and the assessor that produced it.
// At most one active score per payment; re-assessment overwrites.
type RiskAssessment struct {
	PaymentID  string    `db:"payment_id"`
	Score      int32     `db:"score"`
	Assessor   string    `db:"assessor"`
	Factors    []string  `db:"factors"` // optional human-readable factors
	AssessedAt time.Time `db:"assessed_at"`
}

// ValidScore reports whether score is within [0, 100].
func ValidScore(score int32) bool {
	return score >= MinRiskScore && score <= MaxRiskScore
}
