// Package filterset models dashboard-wide filters applied to every panel.
package filterset

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
)

// Type is the kind of a dashboard filter.
type Type string

// Filter types.
const (
	QueryString Type = "querystring"
	Terms       Type = "terms"
	Field       Type = "field"
	Exists      Type = "exists"
	Range       Type = "range"
)

// IsValid checks if the filter type is supported.
func (t Type) IsValid() bool {
	switch t {
	case QueryString, Terms, Field, Exists, Range:
		return true
	default:
		return false
	}
}

// Mandate places a filter in the must, must-not or should list.
type Mandate string

// Mandate constants.
const (
	Must    Mandate = "must"
	MustNot Mandate = "mustNot"
	Either  Mandate = "either"
)

// IsValid checks if the mandate is supported.
func (m Mandate) IsValid() bool {
	return m == Must || m == MustNot || m == Either
}

// Filter is one dashboard filter.
type Filter struct {
	ID      int      `json:"id"`
	Type    Type     `json:"type"`
	Mandate Mandate  `json:"mandate"`
	Active  bool     `json:"active"`
	Field   string   `json:"field,omitempty"`
	Query   string   `json:"query,omitempty"`
	Value   string   `json:"value,omitempty"`
	Values  []string `json:"values,omitempty"`
	From    string   `json:"from,omitempty"`
	To      string   `json:"to,omitempty"`
}

// UnmarshalJSON decodes a filter. An absent "active" key means active.
func (f *Filter) UnmarshalJSON(data []byte) error {
	type plain Filter
	p := plain{Active: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err //nolint:wrapcheck // decoder errors carry their own context
	}
	*f = Filter(p)
	return nil
}

// Validate checks type-specific required fields. Missing mandate defaults to must.
func (f *Filter) Validate() error {
	if !f.Type.IsValid() {
		return fmt.Errorf("unknown filter type %q", f.Type)
	}
	if f.Mandate == "" {
		f.Mandate = Must
	}
	if !f.Mandate.IsValid() {
		return fmt.Errorf("unknown filter mandate %q", f.Mandate)
	}
	switch f.Type {
	case QueryString:
		if f.Query == "" {
			return fmt.Errorf("querystring filter requires query")
		}
	case Terms:
		if f.Field == "" || (f.Value == "" && len(f.Values) == 0) {
			return fmt.Errorf("terms filter requires field and value")
		}
	case Field:
		if f.Field == "" || f.Query == "" {
			return fmt.Errorf("field filter requires field and query")
		}
	case Exists:
		if f.Field == "" {
			return fmt.Errorf("exists filter requires field")
		}
	case Range:
		if f.Field == "" || (f.From == "" && f.To == "") {
			return fmt.Errorf("range filter requires field and at least one bound")
		}
	}
	return nil
}

// Clause converts the filter into a filter clause.
func (f Filter) Clause() clause.Filter {
	switch f.Type {
	case QueryString:
		return clause.QueryFilter{Query: clause.QueryString{Query: f.Query}, Cache: true}
	case Terms:
		values := f.Values
		if len(values) == 0 {
			values = []string{f.Value}
		}
		return clause.TermsFilter{Field: f.Field, Values: values}
	case Field:
		return clause.QueryFilter{
			Query: clause.QueryString{Query: f.Query, Fields: []string{f.Field}},
			Cache: true,
		}
	case Exists:
		return clause.ExistsFilter{Field: f.Field}
	case Range:
		return clause.RangeFilter{Field: f.Field, From: f.From, To: f.To}
	default:
		return clause.MatchAllFilter{}
	}
}

// State is the persisted shape of the dashboard filter list.
type State struct {
	List    map[int]Filter `json:"list"`
	IDs     []int          `json:"ids"`
	IDQueue []int          `json:"idQueue"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{List: map[int]Filter{}, IDs: []int{}, IDQueue: []int{}}
}

// Normalize allocates nil collections in place.
func (s *State) Normalize() {
	if s.List == nil {
		s.List = map[int]Filter{}
	}
	if s.IDs == nil {
		s.IDs = []int{}
	}
	if s.IDQueue == nil {
		s.IDQueue = []int{}
	}
}
