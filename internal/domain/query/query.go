package query

import (
	"encoding/json"
	"strings"
)

// Type is the kind of a query definition.
type Type string

// Query type constants.
const (
	// Lucene is a free-text query string.
	Lucene Type = "lucene"
	// Regex is a regular expression matched against all fields.
	Regex Type = "regex"
	// TopN is abstract: it expands into one lucene query per top term of a field.
	TopN Type = "topN"
)

// IsValid checks if the type is one of the known kinds.
func (t Type) IsValid() bool {
	return t == Lucene || t == Regex || t == TopN
}

// IsAbstract reports whether the type needs a search round-trip to resolve.
func (t Type) IsAbstract() bool {
	return t == TopN
}

// Union is the policy combining a topN term with the base query text.
type Union string

// Union policies.
const (
	UnionAnd  Union = "AND"
	UnionOr   Union = "OR"
	UnionNone Union = "none"
)

// IsValid checks if the union policy is supported.
func (u Union) IsValid() bool {
	return u == UnionAnd || u == UnionOr || u == UnionNone
}

// Query is a named, user-configurable search criterion.
type Query struct {
	ID     int    `json:"id"`
	Type   Type   `json:"type"`
	Query  string `json:"query"`
	Alias  string `json:"alias"`
	Pin    bool   `json:"pin"`
	Enable bool   `json:"enable"`
	Color  string `json:"color"`

	// topN only
	Field string `json:"field,omitempty"`
	Size  int    `json:"size,omitempty"`
	Union Union  `json:"union,omitempty"`
}

// UnmarshalJSON decodes a stored query. An absent "enable" key means enabled.
func (q *Query) UnmarshalJSON(data []byte) error {
	type plain Query
	p := plain{Enable: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err //nolint:wrapcheck // decoder errors carry their own context
	}
	*q = Query(p)
	return nil
}

// IsMatchAll reports whether the query text matches everything.
func (q Query) IsMatchAll() bool {
	return IsMatchAllText(q.Query)
}

// IsMatchAllText reports whether text is empty or the "*" wildcard.
func IsMatchAllText(text string) bool {
	t := strings.TrimSpace(text)
	return t == "" || t == "*"
}

// Resolved is a concrete leaf query produced by resolution.
// ID is sequential within one resolution run; Parent links back to the registry.
type Resolved struct {
	ID     int    `json:"id"`
	Parent int    `json:"parent"`
	Type   Type   `json:"type"`
	Query  string `json:"query"`
	Alias  string `json:"alias"`
	Color  string `json:"color"`
}

// IsMatchAll reports whether the resolved text matches everything.
func (r Resolved) IsMatchAll() bool {
	return IsMatchAllText(r.Query)
}

// Identity resolves a leaf query to itself.
func Identity(q Query) Resolved {
	return Resolved{
		ID:     q.ID,
		Parent: q.ID,
		Type:   q.Type,
		Query:  q.Query,
		Alias:  q.Alias,
		Color:  q.Color,
	}
}
