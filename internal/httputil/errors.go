package httputil

import (
	"encoding/json"
	"net/http"
)

// DetailError is the single-field error body used by the access and
// rate-limit rejections.
type DetailError struct {
	Detail string `json:"detail"`
}

// ValidationDetail is one entry of a 422 validation response.
type ValidationDetail struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// ValidationError is the 422 body returned for malformed request payloads.
type ValidationError struct {
	Code    int                `json:"code"`
	Message string             `json:"message"`
	Errors  []ValidationDetail `json:"errors"`
}

const validationMessage = "请求参数验证失败"

// WriteJSON writes a JSON body with the request id echoed in the header.
func WriteJSON(w http.ResponseWriter, requestID string, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func WriteDetailError(w http.ResponseWriter, requestID string, statusCode int, detail string) {
	WriteJSON(w, requestID, statusCode, DetailError{Detail: detail})
}

// WriteForbidden rejects a request from a user outside the allow-list.
func WriteForbidden(w http.ResponseWriter, requestID string) {
	WriteDetailError(w, requestID, http.StatusForbidden, "禁止访问")
}

func WriteRateLimitError(w http.ResponseWriter, requestID, detail string) {
	WriteDetailError(w, requestID, http.StatusTooManyRequests, detail)
}

func WriteInternalError(w http.ResponseWriter, requestID, detail string) {
	WriteDetailError(w, requestID, http.StatusInternalServerError, detail)
}

// WriteValidationError writes the 422 body for payloads that fail
// request validation, one detail per offending field.
func WriteValidationError(w http.ResponseWriter, requestID string, details ...ValidationDetail) {
	if details == nil {
		details = []ValidationDetail{}
	}
	WriteJSON(w, requestID, http.StatusUnprocessableEntity, ValidationError{
		Code:    http.StatusUnprocessableEntity,
		Message: validationMessage,
		Errors:  details,
	})
}
