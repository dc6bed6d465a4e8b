package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mja2001/SolCipher-Cronos/internal/auth"
	"github.com/mja2001/SolCipher-Cronos/internal/middleware"
	"github.com/mja2001/SolCipher-Cronos/internal/response"
	"github.com/mja2001/SolCipher-Cronos/internal/service"
)

// ProofHandler serves the proof attestation endpoints.
type ProofHandler struct {
	proofs service.ProofService
}

// NewProofHandler creates the proof endpoints.
func NewProofHandler(proofs service.ProofService) *ProofHandler {
	return &ProofHandler{proofs: proofs}
}

// RegisterRoutes attaches the proof endpoints to the mux.
func (h *ProofHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/proofs", h.SubmitProof)
	mux.HandleFunc("GET /api/v1/proofs/{fingerprint}", h.GetProof)
	mux.HandleFunc("POST /api/v1/proofs/{fingerprint}/verify", h.VerifyProof)
	mux.HandleFunc("POST /api/v1/proofs/batch-verify", h.BatchVerify)
}

// SubmitProof handles POST /api/v1/proofs.
func (h *ProofHandler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required")
		return
	}

	var reqBody struct {
		Fingerprint string `json:"fingerprint"`
		PaymentID   string `json:"payment_id"`
		PublicInput []byte `json:"public_input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return
	}

	err := h.proofs.Submit(r.Context(), reqBody.Fingerprint, reqBody.PaymentID, reqBody.PublicInput, caller.Identity)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Created(w, map[string]string{"fingerprint": reqBody.Fingerprint})
}

// GetProof handles GET /api/v1/proofs/{fingerprint}.
func (h *ProofHandler) GetProof(w http.ResponseWriter, r *http.Request) {
	attestation, err := h.proofs.Get(r.Context(), r.PathValue("fingerprint"))
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Success(w, attestation)
}

// VerifyProof handles POST /api/v1/proofs/{fingerprint}/verify. Agent role
// only; the proof material travels in the body and must hash to the
// fingerprint.
func (h *ProofHandler) VerifyProof(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireRole(w, r, auth.RoleAgent, auth.RoleAdmin)
	if !ok {
		return
	}

	var reqBody struct {
		Proof []byte `json:"proof"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return
	}

	valid, err := h.proofs.Verify(r.Context(), r.PathValue("fingerprint"), caller.Identity, reqBody.Proof)
	if err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Success(w, map[string]bool{"valid": valid})
}

// BatchVerify handles POST /api/v1/proofs/batch-verify. Agent role only.
func (h *ProofHandler) BatchVerify(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireRole(w, r, auth.RoleAgent, auth.RoleAdmin)
	if !ok {
		return
	}

	var reqBody struct {
		Fingerprints []string `json:"fingerprints"`
		Proofs       [][]byte `json:"proofs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		response.Error(w, http.StatusBadRequest, response.CodeBadRequest, "invalid request body")
		return
	}

	if err := h.proofs.BatchVerify(r.Context(), caller.Identity, reqBody.Fingerprints, reqBody.Proofs); err != nil {
		response.FromDomainError(w, err)
		return
	}

	response.Success(w, map[string]int{"submitted": len(reqBody.Fingerprints)})
}
