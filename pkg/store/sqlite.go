package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"reneu/pkg/dendrogram"
	"reneu/pkg/errors"
	"reneu/pkg/skeleton"
)

// SQLiteStore keeps skeletons and dendrograms as blobs in one database file.
// Segment ids are stored bit-for-bit in the signed INTEGER key.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS skeletons (
  segid INTEGER PRIMARY KEY,
  data BLOB NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS dendrograms (
  name TEXT PRIMARY KEY,
  data BLOB NOT NULL
)`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) PutSkeleton(ctx context.Context, segid uint64, t *skeleton.Tree) error {
	const stmt = `
INSERT INTO skeletons (segid, data) VALUES (?, ?)
ON CONFLICT(segid) DO UPDATE SET data=excluded.data;
`
	buf := skeleton.EncodePrecomputed(t)
	if _, err := s.db.ExecContext(ctx, stmt, int64(segid), buf); err != nil {
		return fmt.Errorf("upsert skeleton %d: %w", segid, err)
	}
	log.Debug("stored skeleton", "segid", segid, "nodes", t.NodeCount(), "bytes", len(buf))
	return nil
}

func (s *SQLiteStore) GetSkeleton(ctx context.Context, segid uint64) (*skeleton.Tree, error) {
	var buf []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM skeletons WHERE segid = ?`, int64(segid)).Scan(&buf)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeNotFound, "skeleton %d", segid)
	}
	if err != nil {
		return nil, fmt.Errorf("query skeleton %d: %w", segid, err)
	}
	return skeleton.DecodePrecomputed(buf)
}

func (s *SQLiteStore) DeleteSkeleton(ctx context.Context, segid uint64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM skeletons WHERE segid = ?`, int64(segid))
	if err != nil {
		return fmt.Errorf("delete skeleton %d: %w", segid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete skeleton %d: %w", segid, err)
	}
	if n == 0 {
		return errors.New(errors.ErrCodeNotFound, "skeleton %d", segid)
	}
	return nil
}

func (s *SQLiteStore) ListSkeletons(ctx context.Context) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT segid FROM skeletons`)
	if err != nil {
		return nil, fmt.Errorf("list skeletons: %w", err)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan segid: %w", err)
		}
		ids = append(ids, uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list skeletons: %w", err)
	}
	// Ids past MaxInt64 sort negative in SQL, so order them here.
	slices.Sort(ids)
	return ids, nil
}

func (s *SQLiteStore) PutDendrogram(ctx context.Context, name string, d *dendrogram.Dendrogram) error {
	if err := validName(name); err != nil {
		return err
	}
	const stmt = `
INSERT INTO dendrograms (name, data) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET data=excluded.data;
`
	data, err := d.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode dendrogram %q: %w", name, err)
	}
	if _, err := s.db.ExecContext(ctx, stmt, name, data); err != nil {
		return fmt.Errorf("upsert dendrogram %q: %w", name, err)
	}
	log.Debug("stored dendrogram", "name", name, "edges", d.EdgeNum(), "bytes", len(data))
	return nil
}

func (s *SQLiteStore) GetDendrogram(ctx context.Context, name string) (*dendrogram.Dendrogram, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM dendrograms WHERE name = ?`, name).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeNotFound, "dendrogram %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("query dendrogram %q: %w", name, err)
	}
	return decodeDendrogram(data)
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
