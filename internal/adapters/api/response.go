package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/poyrazK/hora/internal/core/domain"
)

// envelope is the uniform response shape: {"success": true, ...payload} on
// success, {"success": false, "error": {"code", "msg"}} on failure.
type wireError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// writeSuccess injects success:true unless the payload already carries the
// field.
func writeSuccess(w http.ResponseWriter, payload map[string]any) {
	if _, present := payload["success"]; !present {
		payload["success"] = true
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeErrorCode(w http.ResponseWriter, status, code int, msg string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   wireError{Code: code, Msg: msg},
	})
}

// writeDomainError renders a taxonomy error with its wire code. Errors
// outside the taxonomy are internal faults and produce an opaque 500.
func writeDomainError(w http.ResponseWriter, err error) {
	code, msg, known := domain.WireError(err)
	if !known {
		log.Printf("unexpected internal error: %v", err)
		writeErrorCode(w, http.StatusInternalServerError, 0, "Internal Server Error")
		return
	}
	writeErrorCode(w, statusFor(code), code, msg)
}

// statusFor maps wire codes to transport-level statuses.
func statusFor(code int) int {
	switch code {
	case domain.CodeLoginFailed, domain.CodeBadAPICredentials:
		return http.StatusUnauthorized
	case domain.CodeUserExists, domain.CodeTooManySessions:
		return http.StatusConflict
	case domain.CodeUnknownTarget:
		return http.StatusNotFound
	case domain.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case domain.CodeCorruptCredential:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
