package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DRSN-tech/catalog-sync/pkg/e"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrBadSignature):
		return http.StatusUnauthorized, e.ErrBadSignature.Error()
	case errors.Is(err, e.ErrMalformedPayload):
		return http.StatusBadRequest, e.ErrMalformedPayload.Error()
	case errors.Is(err, e.ErrBaseMismatch):
		return http.StatusBadRequest, e.ErrBaseMismatch.Error()
	case errors.Is(err, e.ErrInvalidSource):
		return http.StatusBadRequest, e.ErrInvalidSource.Error()
	case errors.Is(err, e.ErrInvalidDirection):
		return http.StatusBadRequest, e.ErrInvalidDirection.Error()
	case errors.Is(err, e.ErrNoRecordIDs):
		return http.StatusBadRequest, e.ErrNoRecordIDs.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// verifyHexSignature проверяет hex-подпись HMAC-SHA256 тела запроса.
// Пустой секрет отключает проверку: решение деплоя, а не кода.
func verifyHexSignature(secret string, body []byte, signature string) error {
	if secret == "" {
		return nil
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return e.ErrBadSignature
	}

	return nil
}

// verifyBase64Signature — то же для base64-подписи каталог-сервиса.
func verifyBase64Signature(secret string, body []byte, signature string) error {
	if secret == "" {
		return nil
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return e.ErrBadSignature
	}

	return nil
}
