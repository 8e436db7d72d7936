package query

// Generic defaults applied to every new query.
const (
	DefaultText = "*"
	DefaultType = Lucene
)

// topN defaults.
const (
	DefaultTopNField = "_type"
	DefaultTopNSize  = 5
	DefaultTopNUnion = UnionAnd
)

// Spec is a partial query definition. Nil fields are unset.
type Spec struct {
	ID     *int    `json:"id,omitempty"`
	Type   *Type   `json:"type,omitempty"`
	Query  *string `json:"query,omitempty"`
	Alias  *string `json:"alias,omitempty"`
	Pin    *bool   `json:"pin,omitempty"`
	Enable *bool   `json:"enable,omitempty"`
	Color  *string `json:"color,omitempty"`
	Field  *string `json:"field,omitempty"`
	Size   *int    `json:"size,omitempty"`
	Union  *Union  `json:"union,omitempty"`
}

// WithDefaults returns a copy of s with every unset field filled.
// Caller-provided fields are never overwritten.
func (s Spec) WithDefaults() Spec {
	fillPtr(&s.Type, DefaultType)
	fillPtr(&s.Query, DefaultText)
	fillPtr(&s.Alias, "")
	fillPtr(&s.Pin, false)
	fillPtr(&s.Enable, true)
	if *s.Type == TopN {
		fillPtr(&s.Field, DefaultTopNField)
		fillPtr(&s.Size, DefaultTopNSize)
		fillPtr(&s.Union, DefaultTopNUnion)
	}
	return s
}

// Build materializes a Query with the given id. Unset fields take zero values,
// so callers normally run WithDefaults first.
func (s Spec) Build(id int) Query {
	return Merge(Query{ID: id}, s)
}

// Merge copies every set field of s onto q. The id is never changed.
func Merge(q Query, s Spec) Query {
	setIf(&q.Type, s.Type)
	setIf(&q.Query, s.Query)
	setIf(&q.Alias, s.Alias)
	setIf(&q.Pin, s.Pin)
	setIf(&q.Enable, s.Enable)
	setIf(&q.Color, s.Color)
	setIf(&q.Field, s.Field)
	setIf(&q.Size, s.Size)
	setIf(&q.Union, s.Union)
	return q
}

// FillDefaults fills zero-valued fields of a stored query. Used when adopting
// persisted state, where absence is indistinguishable from the zero value.
func FillDefaults(q Query) Query {
	if q.Type == "" {
		q.Type = DefaultType
	}
	if q.Query == "" {
		q.Query = DefaultText
	}
	if q.Type == TopN {
		if q.Field == "" {
			q.Field = DefaultTopNField
		}
		if q.Size <= 0 {
			q.Size = DefaultTopNSize
		}
		if q.Union == "" {
			q.Union = DefaultTopNUnion
		}
	}
	return q
}

func fillPtr[T any](dst **T, v T) {
	if *dst == nil {
		*dst = &v
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
