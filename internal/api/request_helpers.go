package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/service"
)

// MaxPageSize caps the limit query parameter of list requests.
const MaxPageSize = 100

// getPathUUID parses a UUID path parameter. The boolean is false when the
// parameter is missing or malformed.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, paramName))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// requireUserID returns the authenticated user or writes a 401.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthenticated)
		return uuid.Nil, false
	}
	return userID, true
}

// parseListParams reads filter[key], sort, order, limit and offset.
func parseListParams(q url.Values, ownerID uuid.UUID) (service.ListParams, error) {
	params := service.ListParams{
		Filters: make(map[string]string),
		Sort:    strings.TrimSpace(q.Get("sort")),
		Order:   strings.TrimSpace(q.Get("order")),
		OwnerID: ownerID,
	}

	// A blank sort is not the default sort: it falls back to createdAt ASC
	// like any other unsortable field.
	if q.Has("sort") && params.Sort == "" {
		params.Order = ""
	}

	for key, values := range q {
		if len(values) == 0 {
			continue
		}
		if name, ok := strings.CutPrefix(key, "filter["); ok && strings.HasSuffix(name, "]") {
			params.Filters[strings.TrimSuffix(name, "]")] = values[0]
		}
	}

	var err error
	if params.Limit, err = parseWindowParam(q, "limit"); err != nil {
		return service.ListParams{}, err
	}
	if params.Limit > MaxPageSize {
		params.Limit = MaxPageSize
	}
	if params.Offset, err = parseWindowParam(q, "offset"); err != nil {
		return service.ListParams{}, err
	}
	return params, nil
}

func parseWindowParam(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewFieldError(name, domain.ErrInvalidNumber,
			"Query parameter %s must be a non-negative integer", name)
	}
	return n, nil
}
