package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrQueryNotFound signals a reference to a query id that is not live.
	ErrQueryNotFound = errors.New("query not found")
	// ErrFilterNotFound signals a reference to a dashboard filter id that is not live.
	ErrFilterNotFound = errors.New("filter not found")
	// ErrInvalidQuery signals an invalid query definition.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidFilter signals an invalid dashboard filter.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidDashboard signals an unusable dashboard name.
	ErrInvalidDashboard = errors.New("invalid dashboard")
	// ErrResolution signals that an abstract query could not be resolved.
	ErrResolution = errors.New("query resolution failed")
)
