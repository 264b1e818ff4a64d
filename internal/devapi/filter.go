package devapi

import (
	"fmt"
	"strings"
)

// Filter is one col:op:value condition. Conditions are AND-combined.
type Filter struct {
	Column string
	Op     string
	Value  string
}

var sqlOps = map[string]string{
	"eq":    "=",
	"neq":   "<>",
	"gt":    ">",
	"lt":    "<",
	"gte":   ">=",
	"lte":   "<=",
	"like":  "LIKE",
	"ilike": "ILIKE",
}

// ParseFilters validates raw filters against the table. Hidden columns
// cannot be filtered on.
func ParseFilters(t Table, raw []string) ([]Filter, error) {
	filters := make([]Filter, 0, len(raw))
	for _, r := range raw {
		parts := strings.SplitN(r, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("bad filter: %s", r)
		}
		f := Filter{Column: parts[0], Op: parts[1], Value: parts[2]}
		if !t.HasColumn(f.Column) || t.hidden(f.Column) {
			return nil, fmt.Errorf("bad filter column: %s", f.Column)
		}
		if _, ok := sqlOps[f.Op]; !ok {
			return nil, fmt.Errorf("unknown operator: %s", f.Op)
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// arg is the SQL parameter for the filter: like and ilike match substrings.
func (f Filter) arg() string {
	if f.Op == "like" || f.Op == "ilike" {
		return "%" + f.Value + "%"
	}
	return f.Value
}

// Match evaluates the filter against a stored row. Columns are text, so the
// ordering operators compare strings.
func (f Filter) Match(r Row) bool {
	got := fmt.Sprint(r[f.Column])
	switch f.Op {
	case "eq":
		return got == f.Value
	case "neq":
		return got != f.Value
	case "gt":
		return got > f.Value
	case "lt":
		return got < f.Value
	case "gte":
		return got >= f.Value
	case "lte":
		return got <= f.Value
	case "like":
		return strings.Contains(got, f.Value)
	case "ilike":
		return strings.Contains(strings.ToLower(got), strings.ToLower(f.Value))
	}
	return false
}
