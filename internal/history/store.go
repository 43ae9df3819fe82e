package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS evaluations (
	id              TEXT PRIMARY KEY,
	function        TEXT NOT NULL,
	action          TEXT,
	score           REAL NOT NULL,
	components_json TEXT,
	context_json    TEXT NOT NULL,
	gate_action     TEXT,
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluations_function_created
	ON evaluations (function, created_at);
`

// timeLayout is fixed-width so created_at sorts lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// #endregion schema

// #region store-struct
// Store is an append-only evaluation log in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region record
// Record inserts rec. Missing ID and CreatedAt are filled in.
func (s *Store) Record(rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	ctxJSON, err := json.Marshal(rec.Context)
	if err != nil {
		return Record{}, fmt.Errorf("marshal context: %w", err)
	}

	var compPtr interface{}
	if len(rec.Components) > 0 {
		compJSON, err := json.Marshal(rec.Components)
		if err != nil {
			return Record{}, fmt.Errorf("marshal components: %w", err)
		}
		compPtr = string(compJSON)
	}

	_, err = s.db.Exec(
		`INSERT INTO evaluations (id, function, action, score, components_json, context_json, gate_action, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Function, nullIfEmpty(rec.Action), rec.Score, compPtr,
		string(ctxJSON), nullIfEmpty(rec.GateAction), rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert evaluation: %w", err)
	}
	return rec, nil
}

// #endregion record

// #region get
const selectColumns = `SELECT id, function, action, score, components_json, context_json, gate_action, created_at FROM evaluations`

// Get retrieves one evaluation by ID.
func (s *Store) Get(id string) (Record, error) {
	row := s.db.QueryRow(selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("get evaluation %s: %w", id, err)
	}
	return rec, nil
}

// #endregion get

// #region list
// List returns the most recent evaluations, newest first.
func (s *Store) List(limit int) ([]Record, error) {
	rows, err := s.db.Query(selectColumns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return collect(rows)
}

// ListByFunction returns the most recent evaluations of one function, newest first.
func (s *Store) ListByFunction(function string, limit int) ([]Record, error) {
	rows, err := s.db.Query(selectColumns+` WHERE function = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, function, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluations for %s: %w", function, err)
	}
	return collect(rows)
}

// Scores returns every recorded score for function in chronological order.
func (s *Store) Scores(function string) ([]float64, error) {
	rows, err := s.db.Query(`SELECT score FROM evaluations WHERE function = ? ORDER BY created_at ASC, rowid ASC`, function)
	if err != nil {
		return nil, fmt.Errorf("scores for %s: %w", function, err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, v)
	}
	return scores, rows.Err()
}

// Functions returns the distinct function names present in the log.
func (s *Store) Functions() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT function FROM evaluations ORDER BY function`)
	if err != nil {
		return nil, fmt.Errorf("list functions: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan function: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// #endregion list

// #region scanning
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var action, compJSON, gateAction sql.NullString
	var ctxJSON, createdStr string

	if err := row.Scan(&rec.ID, &rec.Function, &action, &rec.Score, &compJSON, &ctxJSON, &gateAction, &createdStr); err != nil {
		return Record{}, err
	}
	if action.Valid {
		rec.Action = action.String
	}
	if gateAction.Valid {
		rec.GateAction = gateAction.String
	}
	if compJSON.Valid {
		if err := json.Unmarshal([]byte(compJSON.String), &rec.Components); err != nil {
			return Record{}, fmt.Errorf("unmarshal components: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(ctxJSON), &rec.Context); err != nil {
		return Record{}, fmt.Errorf("unmarshal context: %w", err)
	}
	created, err := time.Parse(timeLayout, createdStr)
	if err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = created
	return rec, nil
}

func collect(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion scanning
