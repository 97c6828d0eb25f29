// Package sqlite provides a persistent vector index stored in its own SQLite file.
//
// Vectors are kept as little-endian float32 BLOBs next to a JSON payload.
// Filters are evaluated by SQLite through json_extract; similarity is
// computed by brute-force cosine over the candidate rows.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-datasets/internal/adapters/driven/vector"
	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
)

// FileName is the index database inside the data directory.
const FileName = "vectors.db"

const schema = `
CREATE TABLE IF NOT EXISTS embedding_points (
    namespace  TEXT NOT NULL,
    id         TEXT NOT NULL,
    vector     BLOB NOT NULL,
    payload    TEXT NOT NULL,
    PRIMARY KEY (namespace, id)
);
`

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a driven.VectorIndex backed by SQLite.
type Index struct {
	db     *sql.DB
	path   string
	closed atomic.Bool
}

// Open creates or opens the vector index in dataDir.
func Open(dataDir string) (*Index, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating vector index directory: %w", err)
	}
	path := filepath.Join(dataDir, FileName)

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening vector index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vector schema: %w", err)
	}
	return &Index{db: db, path: path}, nil
}

// Path returns the index file path.
func (x *Index) Path() string {
	return x.path
}

// Upsert inserts or overwrites points by ID in one transaction.
func (x *Index) Upsert(ctx context.Context, namespace string, points []domain.EmbeddingPoint) error {
	if x.closed.Load() {
		return domain.ErrVectorIndexUnavailable
	}
	if len(points) == 0 {
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embedding_points (namespace, id, vector, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, id) DO UPDATE SET
			vector = excluded.vector,
			payload = excluded.payload
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("marshalling payload of %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, namespace, p.ID, vector.EncodeFloat32s(p.Vector), string(payload)); err != nil {
			return fmt.Errorf("upserting point %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// maxFiltersPerStatement bounds the OR chain of one DELETE. SQLite rejects
// expression trees deeper than 1000.
const maxFiltersPerStatement = 100

// Delete removes points matching any filter. Large filter lists are split
// across several statements that commit together.
func (x *Index) Delete(ctx context.Context, namespace string, filters []domain.Filter) error {
	if x.closed.Load() {
		return domain.ErrVectorIndexUnavailable
	}

	nonEmpty := make([]domain.Filter, 0, len(filters))
	for _, f := range filters {
		if len(f) > 0 { // empty filters match nothing
			nonEmpty = append(nonEmpty, f)
		}
	}
	if len(nonEmpty) == 0 {
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(nonEmpty); start += maxFiltersPerStatement {
		group := nonEmpty[start:min(start+maxFiltersPerStatement, len(nonEmpty))]

		clauses := make([]string, 0, len(group))
		args := []any{namespace}
		for _, f := range group {
			clause, fargs := filterClause(f)
			clauses = append(clauses, "("+clause+")")
			args = append(args, fargs...)
		}

		query := "DELETE FROM embedding_points WHERE namespace = ? AND (" + strings.Join(clauses, " OR ") + ")"
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("deleting points: %w", err)
		}
	}
	return tx.Commit()
}

// Search scores candidate rows by cosine similarity.
func (x *Index) Search(
	ctx context.Context,
	namespace string,
	query []float32,
	k int,
	filter domain.Filter,
) ([]domain.VectorHit, error) {
	if x.closed.Load() {
		return nil, domain.ErrVectorIndexUnavailable
	}

	q := "SELECT id, vector, payload FROM embedding_points WHERE namespace = ?"
	args := []any{namespace}
	if clause, fargs := filterClause(filter); clause != "" {
		q += " AND " + clause
		args = append(args, fargs...)
	}

	rows, err := x.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}
	defer rows.Close()

	var hits []domain.VectorHit
	for rows.Next() {
		var id, payloadJSON string
		var blob []byte
		if err := rows.Scan(&id, &blob, &payloadJSON); err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}
		payload := map[string]any{}
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, fmt.Errorf("unmarshaling payload of %s: %w", id, err)
		}
		hits = append(hits, domain.VectorHit{
			ID:         id,
			Similarity: vector.Cosine(query, vector.DecodeFloat32s(blob)),
			Payload:    payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating points: %w", err)
	}
	return vector.TopK(hits, k), nil
}

// Count returns the number of points matching filter.
func (x *Index) Count(ctx context.Context, namespace string, filter domain.Filter) (int, error) {
	if x.closed.Load() {
		return 0, domain.ErrVectorIndexUnavailable
	}

	q := "SELECT COUNT(*) FROM embedding_points WHERE namespace = ?"
	args := []any{namespace}
	if clause, fargs := filterClause(filter); clause != "" {
		q += " AND " + clause
		args = append(args, fargs...)
	}

	var n int
	if err := x.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return n, nil
}

// Close closes the database. Later calls fail with ErrVectorIndexUnavailable.
func (x *Index) Close() error {
	if x.closed.Swap(true) {
		return nil
	}
	return x.db.Close()
}

// filterClause renders an exact-match filter as a conjunction over payload
// keys. Only JSON strings can match. An empty filter renders "".
func filterClause(f domain.Filter) (string, []any) {
	if len(f) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)*3)
	for _, k := range keys {
		path := jsonPath(k)
		parts = append(parts, "(json_type(payload, ?) = 'text' AND json_extract(payload, ?) = ?)")
		args = append(args, path, path, f[k])
	}
	return strings.Join(parts, " AND "), args
}

// jsonPath quotes a payload key as a JSON path member.
func jsonPath(key string) string {
	return `$."` + strings.ReplaceAll(key, `"`, `\"`) + `"`
}
