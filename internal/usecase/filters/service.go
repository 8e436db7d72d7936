// Package filters manages the dashboard-wide filter list.
package filters

import (
	"fmt"
	"slices"
	"sync"

	"github.com/kailas-cloud/facetdash/internal/domain"
	"github.com/kailas-cloud/facetdash/internal/domain/filterset"
	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
)

// Service owns one dashboard's filters. Ids are reused smallest-first, like query ids.
type Service struct {
	mu    sync.RWMutex
	state *filterset.State
}

// New creates an empty filter list.
func New() *Service {
	return &Service{state: filterset.NewState()}
}

// Init adopts state as the backing store. Invalid stored filters are kept but
// deactivated so they never reach composition.
func (s *Service) Init(state *filterset.State) {
	if state == nil {
		state = filterset.NewState()
	}
	state.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, f := range state.List {
		f.ID = id
		if err := f.Validate(); err != nil {
			f.Active = false
		}
		state.List[id] = f
	}
	slices.Sort(state.IDQueue)
	s.state = state
}

// Set validates f and stores it. A nil id inserts under the next free id;
// otherwise the live filter with that id is replaced.
func (s *Service) Set(id *int, f filterset.Filter) (int, error) {
	if err := f.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrInvalidFilter, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id != nil {
		if _, live := s.state.List[*id]; !live {
			return 0, fmt.Errorf("filter %d: %w", *id, domain.ErrFilterNotFound)
		}
		f.ID = *id
		s.state.List[*id] = f
		return *id, nil
	}

	f.ID = s.nextID()
	s.state.List[f.ID] = f
	s.state.IDs = append(s.state.IDs, f.ID)
	return f.ID, nil
}

func (s *Service) nextID() int {
	for len(s.state.IDQueue) > 0 {
		id := s.state.IDQueue[0]
		s.state.IDQueue = s.state.IDQueue[1:]
		if _, live := s.state.List[id]; !live {
			return id
		}
	}
	id := len(s.state.IDs)
	for {
		if _, live := s.state.List[id]; !live {
			return id
		}
		id++
	}
}

// Remove deletes the filter and queues its id for reuse.
func (s *Service) Remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, live := s.state.List[id]; !live {
		return false
	}
	delete(s.state.List, id)
	s.state.IDs = slices.DeleteFunc(s.state.IDs, func(v int) bool { return v == id })
	s.state.IDQueue = append(s.state.IDQueue, id)
	slices.Sort(s.state.IDQueue)
	return true
}

// Get returns the filter with the given id.
func (s *Service) Get(id int) (filterset.Filter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.state.List[id]
	return f, ok
}

// List returns every filter in insertion order.
func (s *Service) List() []filterset.Filter {
	return s.collect(func(filterset.Filter) bool { return true })
}

// ByType returns the filters of type t in insertion order.
func (s *Service) ByType(t filterset.Type) []filterset.Filter {
	return s.collect(func(f filterset.Filter) bool { return f.Type == t })
}

// BoolFilter groups the active filters by mandate. A nil ids means every filter.
func (s *Service) BoolFilter(ids []int) clause.BoolFilter {
	var out clause.BoolFilter
	for _, f := range s.collect(func(f filterset.Filter) bool {
		return f.Active && (ids == nil || slices.Contains(ids, f.ID))
	}) {
		switch f.Mandate {
		case filterset.MustNot:
			out.MustNot = append(out.MustNot, f.Clause())
		case filterset.Either:
			out.Should = append(out.Should, f.Clause())
		default:
			out.Must = append(out.Must, f.Clause())
		}
	}
	return out
}

// Snapshot returns a detached copy of the backing state for persistence.
func (s *Service) Snapshot() *filterset.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := &filterset.State{
		List:    make(map[int]filterset.Filter, len(s.state.List)),
		IDs:     slices.Clone(s.state.IDs),
		IDQueue: slices.Clone(s.state.IDQueue),
	}
	for id, f := range s.state.List {
		f.Values = slices.Clone(f.Values)
		cp.List[id] = f
	}
	return cp
}

func (s *Service) collect(keep func(filterset.Filter) bool) []filterset.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]filterset.Filter, 0, len(s.state.IDs))
	for _, id := range s.state.IDs {
		if f, ok := s.state.List[id]; ok && keep(f) {
			out = append(out, f)
		}
	}
	return out
}
