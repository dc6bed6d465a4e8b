// Package handler exposes the settlement core over HTTP. Handlers decode the
// request, resolve the authenticated caller from the request context, call
// the service layer and translate domain errors through the response package.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mja2001/SolCipher-Cronos/internal/auth"
	"github.com/mja2001/SolCipher-Cronos/internal/crypto"
	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/middleware"
	"github.com/mja2001/SolCipher-Cronos/internal/response"
	"github.com/mja2001/SolCipher-Cronos/internal/service"
)

// PaymentHandler serves the payment lifecycle endpoints.
type PaymentHandler struct {
	ledger      service.LedgerService
	gate        service.RiskGate
	policies    service.PolicyService
	metadataKey []byte // optional server-side envelope key
}

// NewPaymentHandler creates the payment endpoints. metadataKey may be nil;
// server-side metadata sealing is then unavailable.
func NewPaymentHandler(ledger service.LedgerService, gate service.RiskGate, policies service.PolicyService, metadataKey []byte) *PaymentHandler {
	return &PaymentHandler{ledger: ledger, gate: gate, policies: policies, metadataKey: metadataKey}
}

// RegisterRoutes attaches the payment endpoints to the mux.
func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payments", h.CreatePayment)
	mux.HandleFunc("GET /api/v1/payments/{id}", h.GetPayment)
	mux.HandleFunc("GET /api/v1/payments/{id}/history", h.GetHistory)
	mux.HandleFunc("POST /api/v1/payments/{id}/risk", h.ApplyRiskScore)
	mux.HandleFunc("POST /api/v1/payments/{id}/complete", h.CompletePayment)
	mux.HandleFunc("POST /api/v1/payments/{id}/refund", h.RefundPayment)
}

// CreatePayment handles POST /api/v1/payments. The payer identity comes from
// the authenticated token, never from the body.
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required")
		return
	}

	var reqBody struct {
		RecipientRef      string `json:"recipient_ref"`
		Token             string `json:"token"`
		Amount            string `json:"amount"`
		EncryptedAmount   []byte `json:"encrypted_amount"`
		EncryptedMetadata []byte `json:"encrypted_metadata"`
		Metadata          string `json:"metadata"` // cleartext; sealed server-side when policy demands
	}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return
	}

	encryptedMetadata := reqBody.EncryptedMetadata
	if len(encryptedMetadata) == 0 && reqBody.Metadata != "" {
		policy, err := h.policies.GetPolicy(r.Context(), caller.Identity)
		if err != nil {
			response.FromDomainError(w, err)
			return
		}
		if policy.MetadataEncryptionRequired {
			if h.metadataKey == nil {
				response.Error(w, http.StatusBadRequest, response.CodeBadRequest,
					"policy requires encrypted metadata and no server-side key is configured")
				return
			}
			sealed, err := crypto.Seal(h.metadataKey, []byte(reqBody.Metadata))
			if err != nil {
				response.Error(w, http.StatusInternalServerError, response.CodeInternalError, "failed to seal metadata")
				return
			}
			encryptedMetadata = sealed
		} else {
			encryptedMetadata = []byte(reqBody.Metadata)
		}
	}

	id, err := h.ledger.CreatePayment(r.Context(), domain.CreatePaymentParams{
		Payer:             caller.Identity,
		RecipientRef:      reqBody.RecipientRef,
		Token:             reqBody.Token,
		Amount:            reqBody.Amount,
		EncryptedAmount:   reqBody.EncryptedAmount,
		EncryptedMetadata: encryptedMetadata,
	})
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Created(w, map[string]string{"payment_id": id})
}

// GetPayment handles GET /api/v1/payments/{id}.
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	view, err := h.ledger.GetPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Success(w, view)
}

// GetHistory handles GET /api/v1/payments/{id}/history.
func (h *PaymentHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.ledger.GetHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Success(w, events)
}

// ApplyRiskScore handles POST /api/v1/payments/{id}/risk. Agent role only;
// the assessor identity is the authenticated caller.
func (h *PaymentHandler) ApplyRiskScore(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireRole(w, r, auth.RoleAgent, auth.RoleAdmin)
	if !ok {
		return
	}

	var reqBody struct {
		Score int32 `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return
	}

	status, err := h.gate.ApplyScore(r.Context(), r.PathValue("id"), reqBody.Score, caller.Identity)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Success(w, map[string]string{"status": string(status)})
}

// CompletePayment handles POST /api/v1/payments/{id}/complete. The ledger
// enforces that the caller is the original payer.
func (h *PaymentHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required")
		return
	}

	if err := h.ledger.CompletePayment(r.Context(), r.PathValue("id"), caller.Identity); err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Success(w, map[string]string{"status": string(domain.StatusCompleted)})
}

// RefundPayment handles POST /api/v1/payments/{id}/refund. Agent role only.
func (h *PaymentHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireRole(w, r, auth.RoleAgent, auth.RoleAdmin)
	if !ok {
		return
	}

	var reqBody struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return
	}
	if reqBody.Reason == "" {
		reqBody.Reason = "refunded by agent"
	}

	if err := h.ledger.RefundPayment(r.Context(), r.PathValue("id"), caller.Identity, reqBody.Reason); err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Success(w, map[string]string{"status": string(domain.StatusRefunded)})
}

// requireRole resolves the caller and checks their role, writing the error
// response itself when the check fails.
func requireRole(w http.ResponseWriter, r *http.Request, roles ...string) (*auth.Claims, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required")
		return nil, false
	}

	for _, role := range roles {
		if caller.Role == role {
			return caller, true
		}
	}

	response.Error(w, http.StatusForbidden, response.CodeForbidden, "insufficient role")
	return nil, false
}
