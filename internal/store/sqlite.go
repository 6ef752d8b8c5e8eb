package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	table_name TEXT NOT NULL,
	fields TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_records_table ON records(table_name);
CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at);
`

// SQLiteStore is the local RecordStore backend. All logical tables share one
// physical table; field access goes through json_extract so filter and sort
// work on any field.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply record store schema: %w", err)
	}
	// Best-effort migration for stores created before the per-table index.
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_records_table_created ON records(table_name, created_at)`)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// newRecordID mints an Airtable-style identifier.
func newRecordID() string {
	return "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *SQLiteStore) Query(ctx context.Context, table string, opts QueryOptions) ([]Record, error) {
	conds, err := parseFilter(opts.Filter)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, fields, created_at FROM records WHERE table_name = ?`
	args := []any{table}

	for _, c := range conds {
		query += ` AND json_extract(fields, ?) = ?`
		args = append(args, "$."+c.Field, c.Value)
	}

	if len(opts.Sort) > 0 {
		clauses := make([]string, 0, len(opts.Sort))
		for _, sf := range opts.Sort {
			dir := "ASC"
			if strings.EqualFold(sf.Direction, SortDesc) {
				dir = "DESC"
			}
			clauses = append(clauses, fmt.Sprintf("json_extract(fields, '$.%s') %s", sf.Field, dir))
		}
		query += " ORDER BY " + strings.Join(clauses, ", ")
	} else {
		query += " ORDER BY created_at ASC"
	}

	if opts.MaxRecords > 0 {
		query += " LIMIT ?"
		args = append(args, opts.MaxRecords)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", table, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Insert(ctx context.Context, table string, fields map[string]any) (*Record, error) {
	blob, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: encode fields: %w", table, err)
	}

	id := newRecordID()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (id, table_name, fields, created_at) VALUES (?, ?, ?, ?)`,
		id, table, string(blob), now)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	return &Record{ID: id, Fields: decodeFields(string(blob)), CreatedAt: now}, nil
}

func (s *SQLiteStore) InsertMany(ctx context.Context, table string, fieldsList []map[string]any) ([]Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("insert many into %s: %w", table, err)
	}
	defer tx.Rollback()

	out := make([]Record, 0, len(fieldsList))
	for _, fields := range fieldsList {
		blob, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("insert many into %s: encode fields: %w", table, err)
		}
		id := newRecordID()
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (id, table_name, fields, created_at) VALUES (?, ?, ?, ?)`,
			id, table, string(blob), now); err != nil {
			return nil, fmt.Errorf("insert many into %s: %w", table, err)
		}
		out = append(out, Record{ID: id, Fields: decodeFields(string(blob)), CreatedAt: now})
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("insert many into %s: %w", table, err)
	}
	return out, nil
}

func (s *SQLiteStore) Update(ctx context.Context, table string, id string, fields map[string]any) (*Record, error) {
	existing, err := s.get(ctx, table, id)
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		existing.Fields[k] = v
	}
	blob, err := json.Marshal(existing.Fields)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: encode fields: %w", table, id, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE records SET fields = ? WHERE id = ? AND table_name = ?`,
		string(blob), id, table); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", table, id, err)
	}
	return existing, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, table string, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ? AND table_name = ?`, id, table)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s/%s: record not found", table, id)
	}
	return nil
}

func (s *SQLiteStore) get(ctx context.Context, table, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, fields, created_at FROM records WHERE id = ? AND table_name = ?`, id, table)
	var rec Record
	var blob string
	if err := row.Scan(&rec.ID, &blob, &rec.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("get %s/%s: record not found", table, id)
		}
		return nil, fmt.Errorf("get %s/%s: %w", table, id, err)
	}
	rec.Fields = decodeFields(blob)
	return &rec, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var rec Record
	var blob string
	if err := rows.Scan(&rec.ID, &blob, &rec.CreatedAt); err != nil {
		return Record{}, err
	}
	rec.Fields = decodeFields(blob)
	return rec, nil
}

func decodeFields(blob string) map[string]any {
	fields := map[string]any{}
	_ = json.Unmarshal([]byte(blob), &fields)
	return fields
}
