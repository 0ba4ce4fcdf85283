package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки импорта каталога
	ErrEmptyImport         = fmt.Errorf("import contains no products")
	ErrMalformedImport     = fmt.Errorf("malformed import row")
	ErrMissingImportColumn = fmt.Errorf("missing required import column")

	// Ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
