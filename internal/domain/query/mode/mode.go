package mode

// Mode selects which registry queries a panel uses.
type Mode string

// Selection mode constants.
const (
	All      Mode = "all"
	Pinned   Mode = "pinned"
	Unpinned Mode = "unpinned"
	Selected Mode = "selected"
	None     Mode = "none"
	// Index selects no queries and also drops the dashboard filters.
	Index Mode = "index"
)

// IsKnown reports whether m is one of the named modes.
// Unknown modes are still valid input and behave like All.
func (m Mode) IsKnown() bool {
	switch m {
	case All, Pinned, Unpinned, Selected, None, Index:
		return true
	default:
		return false
	}
}

// Selection is a panel's query selection: a mode plus explicit ids for Selected.
type Selection struct {
	Mode Mode  `json:"mode"`
	IDs  []int `json:"ids,omitempty"`
}
