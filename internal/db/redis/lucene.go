package redis

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kailas-cloud/facetdash/internal/db"
	"github.com/kailas-cloud/facetdash/internal/domain/query"
	"github.com/kailas-cloud/facetdash/internal/domain/search/clause"
)

// renderQueryString translates the lucene subset dashboards use into
// RediSearch syntax: field:value and field:"phrase" become tag matches,
// field:[a TO b] a numeric range, AND/OR/NOT and +/- prefixes map to
// intersection, union and negation. Bare words are full-text terms.
// Unterminated ranges fail with db.ErrMalformedQuery.
func renderQueryString(q clause.QueryString) (string, error) {
	if query.IsMatchAllText(q.Query) {
		return "", nil
	}
	expr, err := translateLucene(q.Query)
	if err != nil {
		return "", err
	}
	fields := restrictFields(q.Fields)
	if len(fields) == 0 || expr == "" {
		return expr, nil
	}
	return "@" + strings.Join(fields, "|") + ":(" + expr + ")", nil
}

// restrictFields drops the restriction when _all is among the fields.
func restrictFields(fields []string) []string {
	for _, f := range fields {
		if f == clause.AllFields {
			return nil
		}
	}
	return fields
}

func translateLucene(text string) (string, error) {
	var out []string
	negate := false
	for _, tok := range tokenizeLucene(text) {
		switch tok {
		case "AND", "&&":
			continue
		case "OR", "||":
			out = append(out, "|")
			continue
		case "NOT", "!":
			negate = true
			continue
		case ")":
			out = append(out, ")")
			continue
		}

		switch tok[0] {
		case '-':
			negate, tok = true, tok[1:]
		case '+':
			tok = tok[1:]
		}
		if tok == "" {
			continue
		}

		if tok == "*" {
			negate = false
			continue
		}
		term := "("
		if tok != "(" {
			var err error
			if term, err = translateTerm(tok); err != nil {
				return "", err
			}
		}
		if negate {
			term = "-" + term
			negate = false
		}
		out = append(out, term)
	}
	joined := strings.Join(out, " ")
	joined = strings.ReplaceAll(joined, "( ", "(")
	joined = strings.ReplaceAll(joined, " )", ")")
	joined = strings.ReplaceAll(joined, "()", "")
	return strings.Join(strings.Fields(joined), " "), nil
}

func translateTerm(tok string) (string, error) {
	if field, value, ok := splitField(tok); ok {
		switch {
		case value == "*":
			return "-ismissing(@" + field + ")", nil
		case strings.HasPrefix(value, "[") || strings.HasPrefix(value, "{"):
			return translateRange(field, value)
		default:
			return buildTagFilter(field, unquote(value)), nil
		}
	}
	if strings.HasPrefix(tok, `"`) {
		return `"` + strings.ReplaceAll(unquote(tok), `"`, `\"`) + `"`, nil
	}
	if strings.HasSuffix(tok, "*") {
		return queryEscaper.Replace(strings.TrimSuffix(tok, "*")) + "*", nil
	}
	return queryEscaper.Replace(tok), nil
}

// splitField splits field:value on the first unescaped colon outside quotes.
func splitField(tok string) (field, value string, ok bool) {
	if strings.HasPrefix(tok, `"`) {
		return "", "", false
	}
	i := strings.IndexByte(tok, ':')
	if i <= 0 || i == len(tok)-1 || tok[i-1] == '\\' {
		return "", "", false
	}
	return tok[:i], tok[i+1:], true
}

// translateRange converts [a TO b] (inclusive) or {a TO b} (exclusive).
// A bracketed value without TO is matched as a tag.
func translateRange(field, value string) (string, error) {
	if len(value) < 2 || !strings.ContainsAny(value[len(value)-1:], "]}") {
		return "", fmt.Errorf("unterminated range %s:%s: %w", field, value, db.ErrMalformedQuery)
	}
	exclusiveLow := value[0] == '{'
	exclusiveHigh := strings.HasSuffix(value, "}")
	inner := strings.TrimSpace(value[1 : len(value)-1])
	lo, hi, found := strings.Cut(inner, " TO ")
	if !found {
		return buildTagFilter(field, value), nil
	}
	lo, hi = bound(strings.TrimSpace(lo), "-inf"), bound(strings.TrimSpace(hi), "+inf")
	if exclusiveLow && lo != "-inf" {
		lo = "(" + lo
	}
	if exclusiveHigh && hi != "+inf" {
		hi = "(" + hi
	}
	return "@" + field + ":[" + lo + " " + hi + "]", nil
}

// unquote strips phrase quotes and undoes \\ and \" escapes.
func unquote(v string) string {
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		return phraseUnescaper.Replace(v[1 : len(v)-1])
	}
	return v
}

var phraseUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`)

// tokenizeLucene splits on whitespace, keeping parentheses as tokens and
// quoted phrases or bracketed ranges inside a single token.
func tokenizeLucene(text string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes):
			cur.WriteRune(r)
			cur.WriteRune(runes[i+1])
			i++
		case r == '"':
			end := closing(runes, i, '"')
			cur.WriteString(string(runes[i : end+1]))
			i = end
		case (r == '[' || r == '{') && strings.HasSuffix(cur.String(), ":"):
			end := closingAny(runes, i, "]}")
			cur.WriteString(string(runes[i : end+1]))
			i = end
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

// closing returns the index of the matching unescaped delim after start, or the last index.
func closing(runes []rune, start int, delim rune) int {
	for j := start + 1; j < len(runes); j++ {
		if runes[j] == '\\' {
			j++
			continue
		}
		if runes[j] == delim {
			return j
		}
	}
	return len(runes) - 1
}

func closingAny(runes []rune, start int, delims string) int {
	for j := start + 1; j < len(runes); j++ {
		if strings.ContainsRune(delims, runes[j]) {
			return j
		}
	}
	return len(runes) - 1
}
