// Package dashboard models the persisted per-dashboard document.
package dashboard

import (
	"fmt"

	"github.com/kailas-cloud/facetdash/internal/domain/filterset"
	"github.com/kailas-cloud/facetdash/internal/domain/query"
)

const maxNameLen = 128

// Document is the durable state of one dashboard: its query registry and filters.
type Document struct {
	Name      string
	Queries   *query.State
	Filters   *filterset.State
	Revision  int
	UpdatedAt int64 // unix millis
}

// New returns an empty document for name.
func New(name string) Document {
	return Document{Name: name, Queries: query.NewState(), Filters: filterset.NewState()}
}

// ValidateName checks that name matches [a-zA-Z0-9_-]{1,128}.
func ValidateName(name string) error {
	if name == "" || len(name) > maxNameLen {
		return fmt.Errorf("dashboard name must be 1-%d characters", maxNameLen)
	}
	for _, r := range name {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isAlpha && !isDigit && r != '_' && r != '-' {
			return fmt.Errorf("dashboard name %q contains invalid character %q", name, r)
		}
	}
	return nil
}
