package artifact

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/grounded-app/risk-engine/internal/vocab"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS bundle_versions (
	version_id      TEXT PRIMARY KEY,
	parent_id       TEXT,
	schema_fp       TEXT NOT NULL,
	sequence_length INTEGER NOT NULL,
	n_features      INTEGER NOT NULL,
	unknown_policy  TEXT NOT NULL,
	transform_min   BLOB NOT NULL,
	transform_max   BLOB NOT NULL,
	model_type      TEXT NOT NULL,
	weights_json    TEXT NOT NULL,
	metrics_json    TEXT,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES bundle_versions(version_id)
);

CREATE TABLE IF NOT EXISTS run_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	version_id    TEXT NOT NULL,
	trigger       TEXT NOT NULL,
	metrics_json  TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES bundle_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_bundle (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES bundle_versions(version_id)
);
`

// Fixed-width timestamps so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const bundleColumns = `version_id, parent_id, schema_fp, sequence_length, n_features, unknown_policy,
	transform_min, transform_max, model_type, weights_json, metrics_json, created_at`

// #endregion schema

// #region store-struct
// Store manages versioned bundles in SQLite.
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
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an already-migrated database.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the bundle tables on db if they do not exist.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (run logging, history).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region create
// Create inserts a bundle version without activating it.
func (s *Store) Create(b Bundle) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertBundle(tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

// Commit inserts a bundle version and makes it active atomically.
func (s *Store) Commit(b Bundle) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertBundle(tx, b); err != nil {
		return err
	}
	if err := setActive(tx, b.VersionID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertBundle(tx *sql.Tx, b Bundle) error {
	if b.VersionID == "" {
		return errors.New("insert bundle: empty version ID")
	}
	weights, err := json.Marshal(b.Weights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	created := b.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = tx.Exec(
		`INSERT INTO bundle_versions (`+bundleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.VersionID, nullIfEmpty(b.ParentID), b.Schema, b.SequenceLength, b.NFeatures, string(b.Policy),
		encodeFloats(b.TransformMin), encodeFloats(b.TransformMax), b.ModelType, string(weights),
		nullIfEmpty(b.MetricsJSON), created.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

func setActive(tx *sql.Tx, id string) error {
	_, err := tx.Exec(
		`INSERT INTO active_bundle (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		id,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return nil
}

// #endregion create

// #region activate
// Activate points the active pointer at an existing version.
func (s *Store) Activate(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM bundle_versions WHERE version_id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("version %s: %w", id, ErrNotFound)
	}
	if err := setActive(tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback sets the active pointer back to a previous version.
func (s *Store) Rollback(targetVersionID string) error {
	if err := s.Activate(targetVersionID); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion activate

// #region get
// ActiveID returns the active version ID.
func (s *Store) ActiveID() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT version_id FROM active_bundle WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoActive
	}
	if err != nil {
		return "", fmt.Errorf("get active: %w", err)
	}
	return id, nil
}

// GetActive reads the active bundle.
func (s *Store) GetActive() (Bundle, error) {
	id, err := s.ActiveID()
	if err != nil {
		return Bundle{}, err
	}
	return s.Get(id)
}

// Get retrieves a specific bundle version by ID.
func (s *Store) Get(id string) (Bundle, error) {
	row := s.db.QueryRow(`SELECT `+bundleColumns+` FROM bundle_versions WHERE version_id = ?`, id)
	b, err := scanBundle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Bundle{}, fmt.Errorf("get version %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Bundle{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return b, nil
}

// #endregion get

// #region list
// List returns the most recent bundle versions, newest first.
func (s *Store) List(limit int) ([]Bundle, error) {
	rows, err := s.db.Query(
		`SELECT `+bundleColumns+` FROM bundle_versions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []Bundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListWithRuns returns the most recent versions joined with their latest run_log row.
func (s *Store) ListWithRuns(limit int) ([]BundleWithRun, error) {
	active, err := s.ActiveID()
	if err != nil && !errors.Is(err, ErrNoActive) {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT b.version_id, b.parent_id, b.schema_fp, b.sequence_length, b.n_features, b.unknown_policy,
		        b.transform_min, b.transform_max, b.model_type, b.weights_json, b.metrics_json, b.created_at,
		        r.run_id, r.trigger, r.decision, r.reason
		 FROM bundle_versions b
		 LEFT JOIN run_log r ON r.id = (SELECT MAX(id) FROM run_log WHERE version_id = b.version_id)
		 ORDER BY b.created_at DESC, b.rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list with runs: %w", err)
	}
	defer rows.Close()

	var out []BundleWithRun
	for rows.Next() {
		var runID, trigger, decision, reason sql.NullString
		b, err := scanBundle(rows, &runID, &trigger, &decision, &reason)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, BundleWithRun{
			Bundle:   b,
			Active:   b.VersionID == active,
			RunID:    runID.String,
			Trigger:  trigger.String,
			Decision: decision.String,
			Reason:   reason.String,
		})
	}
	return out, rows.Err()
}

// #endregion list

// #region scan
type scanner interface {
	Scan(dest ...any) error
}

func scanBundle(row scanner, extra ...any) (Bundle, error) {
	var b Bundle
	var parentID, metricsJSON sql.NullString
	var policy, weights, createdStr string
	var minBlob, maxBlob []byte

	dest := []any{&b.VersionID, &parentID, &b.Schema, &b.SequenceLength, &b.NFeatures, &policy,
		&minBlob, &maxBlob, &b.ModelType, &weights, &metricsJSON, &createdStr}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Bundle{}, err
	}

	b.ParentID = parentID.String
	b.MetricsJSON = metricsJSON.String
	b.Policy = vocab.UnknownPolicy(policy)
	var err error
	if b.TransformMin, err = decodeFloats(minBlob); err != nil {
		return Bundle{}, fmt.Errorf("decode transform min: %w", err)
	}
	if b.TransformMax, err = decodeFloats(maxBlob); err != nil {
		return Bundle{}, fmt.Errorf("decode transform max: %w", err)
	}
	if err := json.Unmarshal([]byte(weights), &b.Weights); err != nil {
		return Bundle{}, fmt.Errorf("unmarshal weights: %w", err)
	}
	created, err := time.Parse(timeLayout, createdStr)
	if err != nil {
		return Bundle{}, fmt.Errorf("parse created_at: %w", err)
	}
	b.CreatedAt = created
	return b, nil
}

// #endregion scan

// #region vector-encoding
func encodeFloats(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeFloats(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(b))
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v, nil
}

// #endregion vector-encoding

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
