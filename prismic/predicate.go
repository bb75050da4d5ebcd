package prismic

import (
	"strconv"
	"strings"
)

// Predicate is one query predicate in the API's bracket syntax.
type Predicate string

// At matches documents whose field equals value.
func At(field, value string) Predicate {
	return Predicate("[at(" + field + "," + strconv.Quote(value) + ")]")
}

// Any matches documents whose field equals one of values.
func Any(field string, values ...string) Predicate {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return Predicate("[any(" + field + ",[" + strings.Join(quoted, ",") + "])]")
}

// DocumentType matches every document of the given custom type.
func DocumentType(t string) Predicate {
	return At("document.type", t)
}

// Query wraps predicates into the q parameter value.
func Query(predicates ...Predicate) string {
	if len(predicates) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('[')
	for _, p := range predicates {
		b.WriteString(string(p))
	}
	b.WriteByte(']')
	return b.String()
}
