package planner

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultK is used when a statement has no TOP clause.
const DefaultK = 10

// AllSpaces selects every space known to the resolver.
const AllSpaces = "*"

// ErrSyntax is returned for input that is not a SemanticQL statement.
var ErrSyntax = errors.New("planner: invalid SemanticQL statement")

var semanticQL = regexp.MustCompile(`\s*FIND\s+SIMILAR\s+"(.+?)"\s+IN\s+([a-zA-Z0-9_]+|\*)(?:\s+TOP\s+(\d+))?\s*`)

// Query is a parsed SemanticQL statement.
type Query struct {
	Text  string
	Space string
	K     int
}

// String renders q back into SemanticQL.
func (q Query) String() string {
	return fmt.Sprintf("FIND SIMILAR %q IN %s TOP %d", q.Text, q.Space, q.K)
}

// ParseSemanticQL parses a FIND SIMILAR statement. A TOP value that does not
// fit an int falls back to DefaultK.
func ParseSemanticQL(input string) (Query, error) {
	m := semanticQL.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return Query{}, fmt.Errorf("%w: %q", ErrSyntax, input)
	}

	q := Query{Text: m[1], Space: m[2], K: DefaultK}
	if m[3] != "" {
		if k, err := strconv.Atoi(m[3]); err == nil {
			q.K = k
		}
	}
	return q, nil
}
