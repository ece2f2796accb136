package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/document-router/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	switch domain.KindOf(err) {
	case domain.ErrPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case domain.ErrInvalidInput:
		return http.StatusBadRequest
	case domain.ErrDocumentNotFound, domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrTemporary:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
