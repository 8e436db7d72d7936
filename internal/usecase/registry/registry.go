// Package registry owns the collection of named dashboard queries.
package registry

import (
	"slices"
	"sync"

	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/domain/query/mode"
)

// Registry assigns stable ids and colors to queries and selects them by mode.
// All mutation goes through Add and Remove; the backing State must not be
// modified elsewhere while the registry owns it.
type Registry struct {
	mu    sync.RWMutex
	state *query.State
}

// New creates an empty registry. Call Init to adopt persisted state.
func New() *Registry {
	return &Registry{state: query.NewState()}
}

// Init adopts state as the backing store. Stored queries get their defaults
// and colors filled; an empty registry receives one default query.
func (r *Registry) Init(state *query.State) {
	if state == nil {
		state = query.NewState()
	}
	state.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = state
	for id, q := range state.List {
		q = query.FillDefaults(q)
		q.ID = id
		if q.Color == "" {
			q.Color = query.ColorAt(id)
		}
		state.List[id] = q
	}
	slices.Sort(state.IDQueue)

	if len(state.IDs) == 0 {
		r.addLocked(query.Spec{})
	}
}

// Add inserts a new query or, when spec names an id, merges spec into the
// live query with that id, filling defaults a type change introduces.
// ok is false when the named id is not live.
func (r *Registry) Add(spec query.Spec) (id int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if spec.ID != nil {
		id = *spec.ID
		cur, live := r.state.List[id]
		if !live {
			return 0, false
		}
		r.state.List[id] = query.FillDefaults(query.Merge(cur, spec))
		return id, true
	}
	return r.addLocked(spec), true
}

func (r *Registry) addLocked(spec query.Spec) int {
	id := r.nextID()
	q := spec.WithDefaults().Build(id)
	if q.Color == "" {
		q.Color = query.ColorAt(id)
	}
	r.state.List[id] = q
	r.state.IDs = append(r.state.IDs, id)
	return id
}

// nextID pops the smallest freed id, else uses the live count.
// Ids already live are skipped so adopted state with gaps stays unique.
func (r *Registry) nextID() int {
	for len(r.state.IDQueue) > 0 {
		id := r.state.IDQueue[0]
		r.state.IDQueue = r.state.IDQueue[1:]
		if _, live := r.state.List[id]; !live {
			return id
		}
	}
	id := len(r.state.IDs)
	for {
		if _, live := r.state.List[id]; !live {
			return id
		}
		id++
	}
}

// Remove deletes the query and queues its id for reuse.
func (r *Registry) Remove(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, live := r.state.List[id]; !live {
		return false
	}
	delete(r.state.List, id)
	r.state.IDs = slices.DeleteFunc(r.state.IDs, func(v int) bool { return v == id })
	r.state.IDQueue = append([]int{id}, r.state.IDQueue...)
	slices.Sort(r.state.IDQueue)
	return true
}

// SelectByMode returns enabled ids in registry order for the selection.
// Unknown modes behave like mode.All.
func (r *Registry) SelectByMode(sel mode.Selection) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keep func(q query.Query) bool
	switch sel.Mode {
	case mode.None, mode.Index:
		return []int{}
	case mode.Pinned:
		keep = func(q query.Query) bool { return q.Pin }
	case mode.Unpinned:
		keep = func(q query.Query) bool { return !q.Pin }
	case mode.Selected:
		keep = func(q query.Query) bool { return slices.Contains(sel.IDs, q.ID) }
	default:
		keep = func(query.Query) bool { return true }
	}

	out := make([]int, 0, len(r.state.IDs))
	for _, id := range r.state.IDs {
		q, live := r.state.List[id]
		if !live || !q.Enable || !keep(q) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// ColorAt returns the palette color for id.
func (r *Registry) ColorAt(id int) string {
	return query.ColorAt(id)
}

// Get returns the live query with id.
func (r *Registry) Get(id int) (query.Query, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.state.List[id]
	return q, ok
}

// List returns live queries in registry order.
func (r *Registry) List() []query.Query {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]query.Query, 0, len(r.state.IDs))
	for _, id := range r.state.IDs {
		if q, ok := r.state.List[id]; ok {
			out = append(out, q)
		}
	}
	return out
}

// FindByText returns the first query (registry order) whose text equals text.
func (r *Registry) FindByText(text string) (query.Query, bool) {
	for _, q := range r.List() {
		if q.Query == text {
			return q, true
		}
	}
	return query.Query{}, false
}

// Snapshot returns a deep copy of the backing state for persistence.
func (r *Registry) Snapshot() *query.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := &query.State{
		List:    make(map[int]query.Query, len(r.state.List)),
		IDs:     slices.Clone(r.state.IDs),
		IDQueue: slices.Clone(r.state.IDQueue),
	}
	for id, q := range r.state.List {
		s.List[id] = q
	}
	return s
}
