package e

import "fmt"

var (
	// Ошибки границы (webhook и операторский API)
	ErrBadSignature     = fmt.Errorf("invalid webhook signature")
	ErrMalformedPayload = fmt.Errorf("malformed payload")
	ErrBaseMismatch     = fmt.Errorf("base id mismatch")

	// 400 Bad Request
	ErrInvalidSource    = fmt.Errorf("invalid source system")
	ErrInvalidDirection = fmt.Errorf("invalid sync direction")
	ErrNoRecordIDs      = fmt.Errorf("no record ids provided")

	// Ошибки согласования
	ErrRecordNotFound     = fmt.Errorf("record not found")
	ErrResolutionConflict = fmt.Errorf("ambiguous natural key match")
	ErrLinkNotFound       = fmt.Errorf("cross reference not found")

	// Внутренние ошибки
	ErrTransactionNotFound  = fmt.Errorf("transaction not found")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect env variable")
	ErrInternalServerError  = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
