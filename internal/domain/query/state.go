package query

// State is the persisted shape of a query registry.
// List and IDs must stay consistent; IDQueue holds freed ids in ascending order.
type State struct {
	List    map[int]Query `json:"list"`
	IDs     []int         `json:"ids"`
	IDQueue []int         `json:"idQueue"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{List: map[int]Query{}, IDs: []int{}, IDQueue: []int{}}
}

// Normalize allocates nil collections in place.
func (s *State) Normalize() {
	if s.List == nil {
		s.List = map[int]Query{}
	}
	if s.IDs == nil {
		s.IDs = []int{}
	}
	if s.IDQueue == nil {
		s.IDQueue = []int{}
	}
}
