package facetdash

import "github.com/kailas-cloud/facetdash/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrQueryNotFound    = domain.ErrQueryNotFound
	ErrFilterNotFound   = domain.ErrFilterNotFound
	ErrInvalidQuery     = domain.ErrInvalidQuery
	ErrInvalidFilter    = domain.ErrInvalidFilter
	ErrInvalidDashboard = domain.ErrInvalidDashboard
	ErrResolution       = domain.ErrResolution
)
