package dashboard

import (
	"sync"

	domdash "github.com/kailas-cloud/facetdash/internal/domain/dashboard"
	"github.com/kailas-cloud/facetdash/internal/usecase/compose"
	"github.com/kailas-cloud/facetdash/internal/usecase/filters"
	"github.com/kailas-cloud/facetdash/internal/usecase/registry"
	"github.com/kailas-cloud/facetdash/internal/usecase/resolve"
)

// session is the in-memory working copy of one dashboard.
// mu serializes every operation on it, including resolution round-trips.
type session struct {
	mu sync.Mutex

	name      string
	revision  int
	updatedAt int64

	queries  *registry.Registry
	filters  *filters.Service
	resolver *resolve.Resolver
	engine   *compose.Engine
}

func (s *Service) newSession(doc domdash.Document) *session {
	reg := registry.New()
	reg.Init(doc.Queries)
	flt := filters.New()
	flt.Init(doc.Filters)
	res := resolve.New(reg, s.terms, flt, s.logger.With(zapDashboard(doc.Name)))

	return &session{
		name:      doc.Name,
		revision:  doc.Revision,
		updatedAt: doc.UpdatedAt,
		queries:   reg,
		filters:   flt,
		resolver:  res,
		engine:    compose.New(reg, res, flt),
	}
}

// document snapshots the session for persistence.
func (ss *session) document() domdash.Document {
	return domdash.Document{
		Name:      ss.name,
		Queries:   ss.queries.Snapshot(),
		Filters:   ss.filters.Snapshot(),
		Revision:  ss.revision,
		UpdatedAt: ss.updatedAt,
	}
}
