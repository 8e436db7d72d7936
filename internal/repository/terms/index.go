package terms

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/facetdash/internal/db"
)

// indexManager is the consumer interface for index bootstrap (ISP).
type indexManager interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// EnsureIndex creates the terms index unless it already exists.
// created is false when another writer won the race.
func EnsureIndex(ctx context.Context, m indexManager, def *db.IndexDefinition) (created bool, err error) {
	exists, err := m.IndexExists(ctx, def.Name)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", def.Name, err)
	}
	if exists {
		return false, nil
	}

	err = m.CreateIndex(ctx, def)
	switch {
	case errors.Is(err, db.ErrIndexExists):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return true, nil
}
