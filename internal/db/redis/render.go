package redis

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/facetdash/internal/db"
	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
)

// buildScope renders a query and a filter into one FT query string.
func buildScope(q clause.Query, f clause.Filter) (string, error) {
	qs, err := renderQuery(q)
	if err != nil {
		return "", err
	}
	fs, err := renderFilter(f)
	if err != nil {
		return "", err
	}
	scope := joinBool([]string{qs, fs}, nil, nil)
	if scope == "" {
		return "*", nil
	}
	return scope, nil
}

// renderQuery translates a query clause into RediSearch syntax.
// An empty string means the clause matches everything.
func renderQuery(q clause.Query) (string, error) {
	switch v := q.(type) {
	case nil, clause.MatchAll:
		return "", nil
	case clause.QueryString:
		return renderQueryString(v)
	case clause.Terms:
		return buildTagFilter(v.Field, v.Values...), nil
	case clause.Bool:
		must, err := renderQueries(v.Must)
		if err != nil {
			return "", err
		}
		should, err := renderQueries(v.Should)
		if err != nil {
			return "", err
		}
		mustNot, err := renderQueries(v.MustNot)
		if err != nil {
			return "", err
		}
		return joinBool(must, should, mustNot), nil
	case clause.Filtered:
		qs, err := renderQuery(v.Query)
		if err != nil {
			return "", err
		}
		fs, err := renderFilter(v.Filter)
		if err != nil {
			return "", err
		}
		return joinBool([]string{qs, fs}, nil, nil), nil
	case clause.Regexp:
		return "", fmt.Errorf("regexp on %s: %w", v.Field, db.ErrUnsupportedClause)
	default:
		return "", fmt.Errorf("query %T: %w", q, db.ErrUnsupportedClause)
	}
}

// renderFilter translates a filter clause into RediSearch syntax.
func renderFilter(f clause.Filter) (string, error) {
	switch v := f.(type) {
	case nil, clause.MatchAllFilter:
		return "", nil
	case clause.QueryFilter:
		return renderQuery(v.Query)
	case clause.TermFilter:
		return buildTagFilter(v.Field, v.Value), nil
	case clause.TermsFilter:
		return buildTagFilter(v.Field, v.Values...), nil
	case clause.ExistsFilter:
		return fmt.Sprintf("-ismissing(@%s)", v.Field), nil
	case clause.RangeFilter:
		return buildNumericFilter(v.Field, v.From, v.To), nil
	case clause.BoolFilter:
		must, err := renderFilters(v.Must)
		if err != nil {
			return "", err
		}
		should, err := renderFilters(v.Should)
		if err != nil {
			return "", err
		}
		mustNot, err := renderFilters(v.MustNot)
		if err != nil {
			return "", err
		}
		return joinBool(must, should, mustNot), nil
	default:
		return "", fmt.Errorf("filter %T: %w", f, db.ErrUnsupportedClause)
	}
}

func renderQueries(qs []clause.Query) ([]string, error) {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		s, err := renderQuery(q)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func renderFilters(fs []clause.Filter) ([]string, error) {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		s, err := renderFilter(f)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// joinBool combines rendered parts: must by intersection, should as one
// union group, mustNot negated. A match-all should part makes the group vacuous.
func joinBool(must, should, mustNot []string) string {
	var parts []string
	for _, p := range must {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if g := shouldGroup(should); g != "" {
		parts = append(parts, g)
	}
	for _, p := range mustNot {
		if p != "" {
			parts = append(parts, "-"+group(p))
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	for i, p := range parts {
		if !strings.HasPrefix(p, "-") {
			parts[i] = group(p)
		}
	}
	return strings.Join(parts, " ")
}

func shouldGroup(should []string) string {
	if len(should) == 0 {
		return ""
	}
	grouped := make([]string, len(should))
	for i, p := range should {
		if p == "" {
			return ""
		}
		grouped[i] = p
		if strings.ContainsAny(p, " |") {
			grouped[i] = group(p)
		}
	}
	if len(grouped) == 1 {
		return grouped[0]
	}
	return "(" + strings.Join(grouped, " | ") + ")"
}

// group parenthesizes p unless it already is a single parenthesized group.
func group(p string) string {
	if strings.HasPrefix(p, "(") && strings.HasSuffix(p, ")") && !strings.Contains(p[1:len(p)-1], "(") {
		return p
	}
	return "(" + p + ")"
}

func buildTagFilter(field string, values ...string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", field, strings.Join(escaped, " | "))
}

// buildNumericFilter renders inclusive bounds; empty or "*" bounds are open.
func buildNumericFilter(field, from, to string) string {
	return fmt.Sprintf("@%s:[%s %s]", field, bound(from, "-inf"), bound(to, "+inf"))
}

func bound(v, open string) string {
	if v == "" || v == "*" {
		return open
	}
	return v
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
	`.`, `\.`,
	`,`, `\,`,
)
