package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mja2001/SolCipher-Cronos/internal/auth"
	"github.com/mja2001/SolCipher-Cronos/internal/domain"
	"github.com/mja2001/SolCipher-Cronos/internal/middleware"
	"github.com/mja2001/SolCipher-Cronos/internal/response"
	"github.com/mja2001/SolCipher-Cronos/internal/service"
)

// PolicyHandler serves the per-payer privacy policy endpoints. The payer
// identity always comes from the authenticated caller, so a payer cannot
// touch anyone else's policy.
type PolicyHandler struct {
	policies service.PolicyService
}

// NewPolicyHandler creates the policy endpoints.
func NewPolicyHandler(policies service.PolicyService) *PolicyHandler {
	return &PolicyHandler{policies: policies}
}

// RegisterRoutes attaches the policy endpoints to the mux.
func (h *PolicyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("PUT /api/v1/policy", h.SetPolicy)
	mux.HandleFunc("GET /api/v1/policy", h.GetPolicy)
}

// SetPolicy handles PUT /api/v1/policy.
func (h *PolicyHandler) SetPolicy(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required")
		return
	}

	var reqBody struct {
		ProofRequired              bool  `json:"proof_required"`
		RiskCheckRequired          bool  `json:"risk_check_required"`
		MinRiskThreshold           int32 `json:"min_risk_threshold"`
		MetadataEncryptionRequired bool  `json:"metadata_encryption_required"`
		AutoCompleteOnProof        bool  `json:"auto_complete_on_proof"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return
	}

	policy, err := h.policies.SetPolicy(r.Context(), caller.Identity, domain.SetPolicyParams{
		ProofRequired:              reqBody.ProofRequired,
		RiskCheckRequired:          reqBody.RiskCheckRequired,
		MinRiskThreshold:           reqBody.MinRiskThreshold,
		MetadataEncryptionRequired: reqBody.MetadataEncryptionRequired,
		AutoCompleteOnProof:        reqBody.AutoCompleteOnProof,
	})
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Success(w, policy)
}

// GetPolicy handles GET /api/v1/policy.
func (h *PolicyHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required")
		return
	}

	policy, err := h.policies.GetPolicy(r.Context(), caller.Identity)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Success(w, policy)
}

// AdminHandler serves the agent authorization endpoints.
type AdminHandler struct {
	authz service.AuthzService
}

// NewAdminHandler creates the admin endpoints.
func NewAdminHandler(authz service.AuthzService) *AdminHandler {
	return &AdminHandler{authz: authz}
}

// RegisterRoutes attaches the admin endpoints to the mux.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/agents", h.SetAuthorization)
	mux.HandleFunc("GET /api/v1/agents/{identity}", h.GetAuthorization)
}

// SetAuthorization handles POST /api/v1/agents. Administrator only; the
// service re-checks the caller against the configured admin identity.
func (h *AdminHandler) SetAuthorization(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireRole(w, r, auth.RoleAdmin)
	if !ok {
		return
	}

	var reqBody struct {
		Identity   string `json:"identity"`
		Authorized bool   `json:"authorized"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return
	}

	err := h.authz.SetAuthorization(r.Context(), caller.Identity, reqBody.Identity, reqBody.Authorized)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"identity":   reqBody.Identity,
		"authorized": reqBody.Authorized,
	})
}

// GetAuthorization handles GET /api/v1/agents/{identity}.
func (h *AdminHandler) GetAuthorization(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")

	authorized, err := h.authz.IsAuthorized(r.Context(), identity)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"identity":   identity,
		"authorized": authorized,
	})
}
