package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/facetdash/internal/db"
)

const countAlias = "count"

// AggregateTerms returns the most frequent values of a TAG field within the
// query scope, most frequent first, via FT.AGGREGATE GROUPBY/REDUCE COUNT.
func (s *Store) AggregateTerms(ctx context.Context, q *db.TermsQuery) ([]db.TermCount, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if q.Field == "" {
		return nil, errors.New("field is required")
	}
	if q.Size <= 0 {
		return nil, errors.New("size must be positive")
	}

	scope, err := buildScope(q.Query, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("render scope: %w", err)
	}

	args := []string{
		q.IndexName, scope,
		"GROUPBY", "1", "@" + q.Field,
		"REDUCE", "COUNT", "0", "AS", countAlias,
		"SORTBY", "2", "@" + countAlias, "DESC",
		"MAX", strconv.Itoa(q.Size),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	return parseAggregateResult(raw, q.Field, q.Size)
}

// parseAggregateResult reads [total, row1, row2, ...] where each row is a flat
// field/value array. Rows without a group value are skipped.
func parseAggregateResult(raw []rueidis.RedisMessage, field string, limit int) ([]db.TermCount, error) {
	if len(raw) <= 1 {
		return []db.TermCount{}, nil
	}

	out := make([]db.TermCount, 0, min(len(raw)-1, limit))
	for _, row := range raw[1:] {
		pairs, err := row.ToArray()
		if err != nil {
			return nil, fmt.Errorf("parse aggregate row: %w", err)
		}
		m := parseFieldPairs(pairs)
		value, ok := m[field]
		if !ok || value == "" {
			continue
		}
		count, err := strconv.ParseInt(m[countAlias], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse count for %q: %w", value, err)
		}
		out = append(out, db.TermCount{Value: value, Count: count})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
