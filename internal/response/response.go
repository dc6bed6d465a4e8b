// Package response provides the JSON envelope and the mapping from domain
// errors onto HTTP status codes.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mja2001/SolCipher-Cronos/internal/domain"
)

type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success codes
const (
	CodeSuccess = "000"
)

// Error codes
const (
	CodeBadRequest    = "400"
	CodeUnauthorized  = "401"
	CodeForbidden     = "403"
	CodeNotFound      = "404"
	CodeConflict      = "409"
	CodeInvalidState  = "422"
	CodeInternalError = "500"
)

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: "created",
		Data:    data,
	})
}

func Error(w http.ResponseWriter, statusCode int, code, message string) {
	JSON(w, statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// FromDomainError maps a settlement-core error to an HTTP response.
// ErrAlreadyTerminal wraps ErrInvalidState, so its case must come first.
func FromDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidScore),
		errors.Is(err, domain.ErrInvalidInput):
		Error(w, http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		Error(w, http.StatusForbidden, CodeForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		Error(w, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, domain.ErrAlreadyTerminal):
		Error(w, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		Error(w, http.StatusUnprocessableEntity, CodeInvalidState, err.Error())
	default:
		Error(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
	}
}
