package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stridehq/stride/internal/goal"
)

// Journal event statuses.
const (
	JournalScheduled = "scheduled"
	JournalCancelled = "cancelled"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS goals (
	id TEXT PRIMARY KEY,
	parent_id TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	status TEXT NOT NULL,
	sort_index INTEGER NOT NULL DEFAULT 0,
	payload TEXT NOT NULL, -- full goal document as JSON
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_goals_parent ON goals(parent_id);
CREATE INDEX IF NOT EXISTS idx_goals_status ON goals(status);

CREATE TABLE IF NOT EXISTS edges (
	id TEXT PRIMARY KEY,
	prerequisite_id TEXT NOT NULL,
	dependent_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_edges_prerequisite ON edges(prerequisite_id);
CREATE INDEX IF NOT EXISTS idx_edges_dependent ON edges(dependent_id);

CREATE TABLE IF NOT EXISTS calendar_events (
	id TEXT PRIMARY KEY,
	goal_id TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	start_at TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'scheduled',
	created_at TEXT NOT NULL,
	cancelled_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_calendar_goal ON calendar_events(goal_id);

CREATE TABLE IF NOT EXISTS goal_embeddings (
	goal_id TEXT PRIMARY KEY,
	vector BLOB NOT NULL, -- float32 little-endian
	dims INTEGER NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);
`

// SQLiteStore keeps the goal graph, the calendar journal, and cached
// embedding vectors in one SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path and ensures
// the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	// The CLI and a long-running MCP server can share one workspace database.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Load rehydrates every stored goal and dependency edge.
func (s *SQLiteStore) Load() ([]*goal.Goal, []*goal.Edge, error) {
	rows, err := s.db.Query(`SELECT payload FROM goals ORDER BY parent_id, sort_index, id`)
	if err != nil {
		return nil, nil, fmt.Errorf("query goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []*goal.Goal
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, nil, fmt.Errorf("scan goal: %w", err)
		}
		var g goal.Goal
		if err := json.Unmarshal([]byte(payload), &g); err != nil {
			return nil, nil, fmt.Errorf("unmarshal goal: %w", err)
		}
		goals = append(goals, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate goals: %w", err)
	}

	edges, err := s.loadEdges()
	if err != nil {
		return nil, nil, err
	}
	return goals, edges, nil
}

func (s *SQLiteStore) loadEdges() ([]*goal.Edge, error) {
	rows, err := s.db.Query(`SELECT id, prerequisite_id, dependent_id, kind, note, created_at FROM edges ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var edges []*goal.Edge
	for rows.Next() {
		var e goal.Edge
		var kind, createdAt string
		if err := rows.Scan(&e.ID, &e.PrerequisiteID, &e.DependentID, &kind, &e.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		e.Kind = goal.DependencyKind(kind)
		if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parse edge timestamp: %w", err)
		}
		edges = append(edges, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}
	return edges, nil
}

// Apply writes one flushed change set in a single transaction.
func (s *SQLiteStore) Apply(cs *goal.ChangeSet) error {
	if cs == nil || cs.Empty() {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, g := range cs.Goals {
		payload, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("marshal goal %s: %w", g.ID, err)
		}
		_, err = tx.Exec(`
			INSERT INTO goals (id, parent_id, kind, status, sort_index, payload, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				parent_id = excluded.parent_id,
				kind = excluded.kind,
				status = excluded.status,
				sort_index = excluded.sort_index,
				payload = excluded.payload,
				updated_at = excluded.updated_at`,
			g.ID, g.ParentID, string(g.Kind), string(g.Status), g.SortIndex,
			string(payload), g.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("upsert goal %s: %w", g.ID, err)
		}
	}

	for _, id := range cs.RemovedIDs {
		if _, err := tx.Exec(`DELETE FROM goals WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete goal %s: %w", id, err)
		}
		if _, err := tx.Exec(`DELETE FROM goal_embeddings WHERE goal_id = ?`, id); err != nil {
			return fmt.Errorf("delete embedding %s: %w", id, err)
		}
	}

	if cs.EdgesChanged {
		if _, err := tx.Exec(`DELETE FROM edges`); err != nil {
			return fmt.Errorf("clear edges: %w", err)
		}
		for _, e := range cs.Edges {
			_, err := tx.Exec(`
				INSERT INTO edges (id, prerequisite_id, dependent_id, kind, note, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				e.ID, e.PrerequisiteID, e.DependentID, string(e.Kind), e.Note,
				e.CreatedAt.UTC().Format(time.RFC3339),
			)
			if err != nil {
				return fmt.Errorf("insert edge %s: %w", e.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// JournalEntry is one locally scheduled calendar event.
type JournalEntry struct {
	ID          string
	GoalID      string
	Title       string
	Notes       string
	Start       time.Time
	Duration    time.Duration
	Status      string
	CreatedAt   time.Time
	CancelledAt *time.Time
}

// RecordEvent appends a scheduled event to the calendar journal.
func (s *SQLiteStore) RecordEvent(e JournalEntry) error {
	if e.ID == "" {
		return fmt.Errorf("journal entry requires an id")
	}
	if e.Status == "" {
		e.Status = JournalScheduled
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO calendar_events (id, goal_id, title, notes, start_at, duration_minutes, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GoalID, e.Title, e.Notes,
		e.Start.UTC().Format(time.RFC3339), int(e.Duration.Minutes()),
		e.Status, e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert calendar event: %w", err)
	}
	return nil
}

// CancelEvent marks a journal event cancelled.
func (s *SQLiteStore) CancelEvent(id string) error {
	res, err := s.db.Exec(`UPDATE calendar_events SET status = ?, cancelled_at = ? WHERE id = ?`,
		JournalCancelled, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("cancel calendar event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel calendar event: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("calendar event not found: %s", id)
	}
	return nil
}

// JournalEntries lists journal events, newest first. An empty goalID lists
// events for every goal.
func (s *SQLiteStore) JournalEntries(goalID string) ([]JournalEntry, error) {
	query := `SELECT id, goal_id, title, notes, start_at, duration_minutes, status, created_at, cancelled_at
		FROM calendar_events`
	args := []any{}
	if goalID != "" {
		query += ` WHERE goal_id = ?`
		args = append(args, goalID)
	}
	query += ` ORDER BY start_at DESC, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query calendar events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var startAt, createdAt string
		var cancelledAt sql.NullString
		var minutes int
		if err := rows.Scan(&e.ID, &e.GoalID, &e.Title, &e.Notes, &startAt, &minutes, &e.Status, &createdAt, &cancelledAt); err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		if e.Start, err = time.Parse(time.RFC3339, startAt); err != nil {
			return nil, fmt.Errorf("parse event start: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parse event timestamp: %w", err)
		}
		if cancelledAt.Valid {
			t, err := time.Parse(time.RFC3339, cancelledAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse event timestamp: %w", err)
			}
			e.CancelledAt = &t
		}
		e.Duration = time.Duration(minutes) * time.Minute
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calendar events: %w", err)
	}
	return entries, nil
}

// SaveEmbedding caches the embedding vector for a goal, replacing any
// previous one.
func (s *SQLiteStore) SaveEmbedding(goalID, model string, vector []float32) error {
	if goalID == "" {
		return fmt.Errorf("embedding requires a goal id")
	}
	if len(vector) == 0 {
		return fmt.Errorf("embedding vector is empty")
	}

	_, err := s.db.Exec(`
		INSERT INTO goal_embeddings (goal_id, vector, dims, model, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(goal_id) DO UPDATE SET
			vector = excluded.vector,
			dims = excluded.dims,
			model = excluded.model,
			updated_at = excluded.updated_at`,
		goalID, float32SliceToBytes(vector), len(vector), model,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}
	return nil
}

// Embeddings returns every cached embedding vector keyed by goal id.
func (s *SQLiteStore) Embeddings() (map[string][]float32, error) {
	rows, err := s.db.Query(`SELECT goal_id, vector FROM goal_embeddings`)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	vectors := make(map[string][]float32)
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		vectors[id] = bytesToFloat32Slice(blob)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return vectors, nil
}

func float32SliceToBytes(floats []float32) []byte {
	b := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func bytesToFloat32Slice(b []byte) []float32 {
	floats := make([]float32, len(b)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return floats
}
