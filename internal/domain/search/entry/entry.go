// Package entry models ad-hoc query strings and stacked sub-queries.
package entry

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind names a structured entry type on the wire.
type Kind string

// Structured entry kinds.
const (
	KindTerm  Kind = "term"
	KindTerms Kind = "terms"
)

// Entry is one ad-hoc or stacked criterion.
type Entry interface {
	isEntry()
}

// Text is a free-text query string.
type Text struct {
	Query string
}

// Term is a single-value exact match.
type Term struct {
	Field string
	Value string
}

// Terms is a multi-value match.
type Terms struct {
	Field  string
	Values []string
}

// Unknown is a structured entry with an unrecognized type. It is ignored.
type Unknown struct {
	Kind Kind
}

func (Text) isEntry()    {}
func (Term) isEntry()    {}
func (Terms) isEntry()   {}
func (Unknown) isEntry() {}

// IsBlank reports whether a text entry carries no query.
func (t Text) IsBlank() bool {
	return strings.TrimSpace(t.Query) == ""
}

// Texts wraps plain strings as Text entries, skipping blanks.
func Texts(qs ...string) []Entry {
	out := make([]Entry, 0, len(qs))
	for _, q := range qs {
		t := Text{Query: q}
		if t.IsBlank() {
			continue
		}
		out = append(out, t)
	}
	return out
}

// List is a JSON-decodable entry list. It accepts null, a single string, a
// single object, or an array mixing strings and objects.
type List []Entry

type wireEntry struct {
	Type   Kind     `json:"type"`
	Field  string   `json:"field"`
	Value  string   `json:"value"`
	Terms  []string `json:"terms"`
	Values []string `json:"values"`
	Query  string   `json:"query"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*l = nil
		return nil
	}

	var raws []json.RawMessage
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &raws); err != nil {
			return fmt.Errorf("decode entry list: %w", err)
		}
	} else {
		raws = []json.RawMessage{json.RawMessage(data)}
	}

	out := make(List, 0, len(raws))
	for i, raw := range raws {
		e, ok, err := decodeOne(raw)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if ok {
			out = append(out, e)
		}
	}
	*l = out
	return nil
}

// decodeOne returns ok=false for null and blank strings.
func decodeOne(raw json.RawMessage) (Entry, bool, error) {
	s := strings.TrimSpace(string(raw))
	switch {
	case s == "null":
		return nil, false, nil
	case strings.HasPrefix(s, `"`):
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, false, fmt.Errorf("decode string entry: %w", err)
		}
		t := Text{Query: text}
		if t.IsBlank() {
			return nil, false, nil
		}
		return t, true, nil
	case strings.HasPrefix(s, "{"):
		var w wireEntry
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, false, fmt.Errorf("decode object entry: %w", err)
		}
		return fromWire(w), true, nil
	default:
		return nil, false, fmt.Errorf("entry must be a string or an object, got %s", s)
	}
}

func fromWire(w wireEntry) Entry {
	switch w.Type {
	case KindTerm:
		return Term{Field: w.Field, Value: w.Value}
	case KindTerms:
		values := w.Terms
		if len(values) == 0 {
			values = w.Values
		}
		return Terms{Field: w.Field, Values: values}
	case "":
		if w.Query != "" {
			return Text{Query: w.Query}
		}
		return Unknown{}
	default:
		return Unknown{Kind: w.Type}
	}
}
