package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrPayloadTooLarge  = errors.New("file too large")
	ErrTemporary        = errors.New("temporary failure")

	// ErrCredentialsRejected is an outbound provider (SMTP, SendGrid, Resend)
	// refusing our credentials. Retrying does not help.
	ErrCredentialsRejected = errors.New("credentials rejected")
)

// kinds is ordered from most to least specific.
var kinds = []error{
	ErrDocumentNotFound,
	ErrNotFound,
	ErrPayloadTooLarge,
	ErrInvalidInput,
	ErrCredentialsRejected,
	ErrTemporary,
}

// WrapError keeps the semantic kind reachable through errors.Is and prefixes the operation.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindOf returns the most specific kind err carries, or nil for unclassified errors.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
