// Package dashboard persists dashboard documents in the KV store.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/facetdash/internal/db"
	"github.com/kailas-cloud/facetdash/internal/domain"
	domdash "github.com/kailas-cloud/facetdash/internal/domain/dashboard"
)

// DefaultPrefix namespaces every key the service writes.
const DefaultPrefix = "facetdash:"

// store is the consumer interface for dashboards (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/dashboard.Repository.
type Repo struct {
	store  store
	prefix string
}

// New creates a dashboard repository. An empty prefix uses DefaultPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// Load reads the document for name. A missing key yields domain.ErrNotFound.
func (r *Repo) Load(ctx context.Context, name string) (domdash.Document, error) {
	data, err := r.store.Get(ctx, r.key(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdash.Document{}, domain.ErrNotFound
		}
		return domdash.Document{}, fmt.Errorf("get dashboard %s: %w", name, err)
	}
	return documentFromJSON(name, data)
}

// Save writes the whole document.
func (r *Repo) Save(ctx context.Context, doc domdash.Document) error {
	data, err := documentToJSON(doc)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.key(doc.Name), data); err != nil {
		return fmt.Errorf("set dashboard %s: %w", doc.Name, err)
	}
	return nil
}

// Delete removes the document for name. Deleting a missing dashboard is not an error.
func (r *Repo) Delete(ctx context.Context, name string) error {
	if err := r.store.Del(ctx, r.key(name)); err != nil {
		return fmt.Errorf("del dashboard %s: %w", name, err)
	}
	return nil
}

// List returns stored dashboard names sorted alphabetically.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.key("*"))
	if err != nil {
		return nil, fmt.Errorf("scan dashboards: %w", err)
	}
	base := r.key("")
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, base))
	}
	sort.Strings(names)
	return names, nil
}

// Key pattern: {prefix}dashboard:{name}
func (r *Repo) key(name string) string {
	return r.prefix + "dashboard:" + name
}
