// Package devapi is a small stand-in for the CRM backend: a universal table
// API over a fixed registry of tables plus staff login. It is meant for local
// runs of the console and for integration tests.
package devapi

import (
	"fmt"
	"strings"
)

// Table is a known table with its column whitelist. Hidden columns are
// writable but never returned. Computed columns are derived on read.
type Table struct {
	Name     string
	Columns  []string
	Hidden   []string
	Computed []string
}

var tables = map[string]Table{
	"lc": {
		Name:     "lc",
		Columns:  []string{"id", "lc_name", "lc_address", "lc_phone", "currency"},
		Computed: []string{"staff_count"},
	},
	"user_staff": {
		Name:    "user_staff",
		Columns: []string{"id", "lc_id", "user_name", "user_mail", "user_role", "user_pass"},
		Hidden:  []string{"user_pass"},
	},
	"reg": {
		Name:    "reg",
		Columns: []string{"id", "center_id", "admin_name", "email", "phone", "status"},
	},
}

// LookupTable resolves a table name from the URL.
func LookupTable(name string) (Table, error) {
	t, ok := tables[name]
	if !ok {
		return Table{}, fmt.Errorf("unknown table %q", name)
	}
	return t, nil
}

func (t Table) HasColumn(col string) bool {
	return contains(t.Columns, col)
}

func (t Table) hidden(col string) bool {
	return contains(t.Hidden, col)
}

// Visible lists the columns returned to clients, computed ones last.
func (t Table) Visible() []string {
	var cols []string
	for _, c := range t.Columns {
		if !t.hidden(c) {
			cols = append(cols, c)
		}
	}
	return append(cols, t.Computed...)
}

// Row is one record keyed by column name.
type Row map[string]any

// visible drops hidden columns.
func (t Table) visible(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		if !t.hidden(k) {
			out[k] = v
		}
	}
	return out
}

// normalizeInput checks every key against the whitelist and turns values
// into the text the tables store.
func (t Table) normalizeInput(in map[string]any) (Row, error) {
	row := make(Row, len(in))
	for k, v := range in {
		if !t.HasColumn(k) {
			return nil, fmt.Errorf("unknown column %q for table %q", k, t.Name)
		}
		switch val := v.(type) {
		case nil:
			row[k] = ""
		case string:
			row[k] = val
		case float64, bool:
			row[k] = fmt.Sprint(val)
		default:
			return nil, fmt.Errorf("column %q: unsupported value", k)
		}
	}
	return row, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
