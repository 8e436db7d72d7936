package dashboard

import (
	"context"

	domdash "github.com/kailas-cloud/facetdash/internal/domain/dashboard"
)

// Repository defines the storage contract for dashboard documents.
type Repository interface {
	Load(ctx context.Context, name string) (domdash.Document, error)
	Save(ctx context.Context, doc domdash.Document) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}
