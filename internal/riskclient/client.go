// Package riskclient talks to the external risk-scoring service. The service
// receives transaction context and returns a 0-100 score with optional
// human-readable factors. Callers substitute FallbackScore when the service
// is unreachable; scoring must degrade, never block settlement processing.
package riskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
)

// FallbackScore is the conservative medium-risk default applied when the
// scoring service fails.
const FallbackScore int32 = 50

const defaultTimeout = 10 * time.Second

// Client is an HTTP client for the risk-scoring service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a scoring client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// ScoreRequest is the transaction context sent for assessment. Amounts travel
// encrypted; the scoring service works from the same opaque view as any other
// reader.
type ScoreRequest struct {
	Sender          string `json:"sender"`
	RecipientRef    string `json:"recipient_ref"`
	Token           string `json:"token"`
	EncryptedAmount []byte `json:"encrypted_amount"`
}

// ScoreResponse is the assessment result.
type ScoreResponse struct {
	Score   int32    `json:"score"`
	Factors []string `json:"factors,omitempty"`
}

// Score requests an assessment. Network failures, non-200 responses and
// out-of-range scores are all errors; the caller decides the fallback.
func (c *Client) Score(ctx context.Context, req ScoreRequest) (*ScoreResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode score request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build score request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("risk service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("risk service returned status %d", resp.StatusCode)
	}

	var result ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode score response: %w", err)
	}

	if !domain.ValidScore(result.Score) {
		return nil, fmt.Errorf("risk service returned out-of-range score %d", result.Score)
	}

	return &result, nil
}
