package chi

import (
	"encoding/json"

	"github.com/kailas-cloud/facetdash/internal/domain/filterset"
	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/domain/query/mode"
	"github.com/kailas-cloud/facetdash/internal/domain/search/entry"
	"github.com/kailas-cloud/facetdash/internal/version"
)

// ErrorCode is the machine-readable error kind returned to clients.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeDashboardNotFound ErrorCode = "dashboard_not_found"
	ErrorCodeQueryNotFound     ErrorCode = "query_not_found"
	ErrorCodeFilterNotFound    ErrorCode = "filter_not_found"
	ErrorCodeResolutionFailed  ErrorCode = "resolution_failed"
	ErrorCodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Wrap selects the shape of a compose response.
type Wrap string

// Compose response shapes.
const (
	WrapParts       Wrap = "parts"
	WrapFacetFilter Wrap = "facet_filter"
	WrapFacetQuery  Wrap = "facet_query"
	WrapPanel       Wrap = "panel"
)

type listResponse[T any] struct {
	Items []T `json:"items"`
}

type selectResponse struct {
	IDs []int `json:"ids"`
}

type resolveResponse struct {
	Generation uint64           `json:"generation"`
	Items      []query.Resolved `json:"items"`
}

// composeRequest is the body of POST /dashboards/{dashboard}/compose.
type composeRequest struct {
	Mode        mode.Mode  `json:"mode"`
	IDs         []int      `json:"ids"`
	QueryString entry.List `json:"query_string"`
	Stacked     entry.List `json:"stacked"`
	Highlight   []string   `json:"highlight"`
	Wrap        Wrap       `json:"wrap"`
}

type composeResponse struct {
	Query      any    `json:"query,omitempty"`
	Filter     any    `json:"filter,omitempty"`
	Generation uint64 `json:"generation"`
}

type facetFilterRequest struct {
	QueryString entry.List `json:"query_string"`
}

type filterResponse struct {
	Filter any `json:"filter"`
}

// filterRequest upserts a dashboard filter; a set id replaces that filter.
type filterRequest struct {
	ID *int `json:"id"`
	filterset.Filter
}

// UnmarshalJSON decodes the id and the filter separately, since the embedded
// Filter's decoder would otherwise take over the whole body.
func (r *filterRequest) UnmarshalJSON(data []byte) error {
	var head struct {
		ID *int `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err //nolint:wrapcheck // decoder errors carry their own context
	}
	if err := json.Unmarshal(data, &r.Filter); err != nil {
		return err //nolint:wrapcheck // decoder errors carry their own context
	}
	r.ID = head.ID
	return nil
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version version.Info      `json:"version"`
}
