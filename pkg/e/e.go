package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Внутренние ошибки с векторами
	ErrInvalidVector           = fmt.Errorf("invalid vector")
	ErrVectorDimensionMismatch = fmt.Errorf("vector dimension mismatch")
	ErrVectorMissing           = fmt.Errorf("product has no feature vector")
	ErrVectorAttachFailed      = fmt.Errorf("vector attach failed")

	// Ошибки внешних коллабораторов
	ErrAnalysisUnavailable = fmt.Errorf("analysis service unavailable")
	ErrAnalysisRejected    = fmt.Errorf("analysis service rejected the image")
	ErrStoreUnavailable    = fmt.Errorf("store unavailable")

	// 400 Bad Request
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrNoImage              = fmt.Errorf("no image provided")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("product not found")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
