package statements

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the parent of every request validation failure.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrNoFileProvided       = fmt.Errorf("%w: no file provided", ErrInvalidInput)
	ErrNoTransactionsToSave = fmt.Errorf("%w: no transactions to save", ErrInvalidInput)
	ErrInvalidPaymentType   = fmt.Errorf("%w: payment type must be a numeric id", ErrInvalidInput)
	ErrInvalidTransaction   = fmt.Errorf("%w: malformed transaction", ErrInvalidInput)

	ErrUnsupportedFormat = errors.New("unsupported statement format")
	ErrParseFailure      = errors.New("failed to process statement")
	ErrPersistence       = errors.New("failed to save statement data")
	ErrStatementNotFound = errors.New("statement not found")
)
