package devapi

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// PGStore keeps the tables in Postgres. All stored columns are text.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("devapi: migrate: %w", err)
	}
	return nil
}

// computedSQL renders derived columns for table alias t.
var computedSQL = map[string]string{
	"staff_count": "(SELECT count(*) FROM user_staff s WHERE s.lc_id = t.id)",
}

func selectList(t Table, withHidden bool) string {
	var cols []string
	for _, c := range t.Columns {
		if withHidden || !t.hidden(c) {
			cols = append(cols, "t."+pq.QuoteIdentifier(c))
		}
	}
	for _, c := range t.Computed {
		cols = append(cols, computedSQL[c]+" AS "+pq.QuoteIdentifier(c))
	}
	return strings.Join(cols, ", ")
}

func (s *PGStore) List(ctx context.Context, t Table, filters []Filter) ([]Row, error) {
	var (
		where []string
		args  []any
	)
	for _, f := range filters {
		args = append(args, f.arg())
		where = append(where, fmt.Sprintf("t.%s %s $%d", pq.QuoteIdentifier(f.Column), sqlOps[f.Op], len(args)))
	}

	q := "SELECT " + selectList(t, false) + " FROM " + pq.QuoteIdentifier(t.Name) + " t"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY t.created_at, t.id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("devapi: list %s: %w", t.Name, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *PGStore) Insert(ctx context.Context, t Table, row Row) (Row, error) {
	id, _ := row["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}

	var (
		cols, marks []string
		args        []any
	)
	for _, c := range t.Columns {
		v, ok := row[c]
		if c == "id" {
			v, ok = id, true
		}
		if !ok {
			continue
		}
		args = append(args, v)
		cols = append(cols, pq.QuoteIdentifier(c))
		marks = append(marks, fmt.Sprintf("$%d", len(args)))
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(t.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("devapi: insert %s: %w", t.Name, err)
	}

	created, err := s.List(ctx, t, []Filter{{Column: "id", Op: "eq", Value: id}})
	if err != nil {
		return nil, err
	}
	if len(created) != 1 {
		return nil, fmt.Errorf("devapi: insert %s: row not found after insert", t.Name)
	}
	return created[0], nil
}

func (s *PGStore) FindStaffByEmail(ctx context.Context, email string) (Row, error) {
	t := tables["user_staff"]
	q := "SELECT " + selectList(t, true) + " FROM user_staff t WHERE lower(trim(t.user_mail)) = $1 ORDER BY t.created_at LIMIT 1"
	rows, err := s.db.QueryContext(ctx, q, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("devapi: find staff: %w", err)
	}
	defer rows.Close()

	found, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

func (s *PGStore) SetStaffPassword(ctx context.Context, id, hash string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE user_staff SET user_pass = $1 WHERE id = $2", hash, id)
	if err != nil {
		return fmt.Errorf("devapi: set password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("devapi: scan: %w", err)
		}
		r := make(Row, len(cols))
		for i, c := range cols {
			switch v := vals[i].(type) {
			case []byte:
				r[c] = string(v)
			default:
				r[c] = v
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ Store = (*PGStore)(nil)
var _ Store = (*MemoryStore)(nil)

// isUniqueViolation reports a primary key clash.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
