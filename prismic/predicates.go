package prismic

import (
	"strconv"
	"strings"
)

// Predicate is a single query predicate in the API's bracket syntax.
type Predicate string

// At matches documents whose path equals value.
func At(path, value string) Predicate {
	return Predicate("[at(" + path + ", " + strconv.Quote(value) + ")]")
}

// Any matches documents whose path equals one of values.
func Any(path string, values ...string) Predicate {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return Predicate("[any(" + path + ", [" + strings.Join(quoted, ", ") + "])]")
}

func buildQuery(preds []Predicate) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, p := range preds {
		b.WriteString(string(p))
	}
	b.WriteByte(']')
	return b.String()
}

// Ordering builds an orderings parameter such as
// "[document.first_publication_date desc]".
func Ordering(field string, desc bool) string {
	if desc {
		return "[" + field + " desc]"
	}
	return "[" + field + "]"
}
