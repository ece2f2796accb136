package httpadapter

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/document-router/internal/core/domain"
)

func pathID(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithLocation("simple", false, "id", runtime.ParamLocationPath, chi.URLParam(r, "id"), &id)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "bind path", err)
	}
	if id == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "bind path", errors.New("id is required"))
	}
	return id, nil
}

// bindQuery binds optional form-style query parameters; absent values keep their defaults.
func bindQuery(r *http.Request, params map[string]any) error {
	query := r.URL.Query()
	for name, dest := range params {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			return domain.WrapError(domain.ErrInvalidInput, "bind query", err)
		}
	}
	return nil
}

func listFilterFromQuery(r *http.Request) (domain.DocumentFilter, error) {
	var (
		department   string
		status       string
		reviewStatus string
		limit        int
		offset       int
	)
	err := bindQuery(r, map[string]any{
		"department":    &department,
		"status":        &status,
		"review_status": &reviewStatus,
		"limit":         &limit,
		"offset":        &offset,
	})
	if err != nil {
		return domain.DocumentFilter{}, err
	}
	return domain.DocumentFilter{
		Department:   department,
		Status:       domain.DocumentStatus(status),
		ReviewStatus: domain.ReviewStatus(reviewStatus),
		Limit:        limit,
		Offset:       offset,
	}.Normalize(), nil
}
