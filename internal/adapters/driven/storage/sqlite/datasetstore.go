package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// maxIDsPerStatement bounds the number of bound ids in one IN clause.
const maxIDsPerStatement = 500

// datasetStore implements driven.DatasetStore.
type datasetStore struct {
	store *Store
}

var _ driven.DatasetStore = (*datasetStore)(nil)

const datapointColumns = `id, dataset_id, data, target, metadata, index_in_batch, created_at`

// GetDataset retrieves a dataset. An empty projectID matches any project.
func (s *datasetStore) GetDataset(ctx context.Context, projectID, datasetID string) (*domain.Dataset, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, indexed_on, created_at
		FROM datasets WHERE id = ? AND (? = '' OR project_id = ?)
	`, datasetID, projectID, projectID)
	return scanDataset(row)
}

// SaveDataset creates or updates a dataset.
func (s *datasetStore) SaveDataset(ctx context.Context, dataset *domain.Dataset) error {
	if dataset == nil || dataset.ID == "" {
		return domain.ErrInvalidInput
	}
	if dataset.CreatedAt.IsZero() {
		dataset.CreatedAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO datasets (id, project_id, name, indexed_on, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			name = excluded.name,
			indexed_on = excluded.indexed_on
	`, dataset.ID, dataset.ProjectID, dataset.Name, nullableColumn(dataset.IndexedOn),
		formatTime(dataset.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving dataset: %w", err)
	}
	return nil
}

// ListDatasets returns datasets ordered by creation time.
func (s *datasetStore) ListDatasets(ctx context.Context, projectID string) ([]domain.Dataset, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, project_id, name, indexed_on, created_at
		FROM datasets WHERE ? = '' OR project_id = ?
		ORDER BY created_at, id
	`, projectID, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying datasets: %w", err)
	}
	defer rows.Close()

	datasets := []domain.Dataset{}
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating datasets: %w", err)
	}
	return datasets, nil
}

// GetFullDatapoints returns datapoints in insertion order.
func (s *datasetStore) GetFullDatapoints(
	ctx context.Context,
	datasetID string,
	limit, offset int,
) ([]domain.FullDatapoint, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+datapointColumns+`
		FROM datapoints WHERE dataset_id = ?
		ORDER BY seq
		LIMIT ? OFFSET ?
	`, datasetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying datapoints: %w", err)
	}
	defer rows.Close()

	datapoints := []domain.FullDatapoint{}
	for rows.Next() {
		dp, err := scanDatapoint(rows)
		if err != nil {
			return nil, err
		}
		datapoints = append(datapoints, *dp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating datapoints: %w", err)
	}
	return datapoints, nil
}

// GetDatapoint retrieves a single datapoint.
func (s *datasetStore) GetDatapoint(ctx context.Context, datasetID, id string) (*domain.FullDatapoint, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+datapointColumns+`
		FROM datapoints WHERE dataset_id = ? AND id = ?
	`, datasetID, id)
	return scanDatapoint(row)
}

// InsertDatapoints persists new datapoints in one transaction.
func (s *datasetStore) InsertDatapoints(ctx context.Context, datapoints []domain.Datapoint) error {
	if len(datapoints) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO datapoints (id, dataset_id, data, target, metadata, index_in_batch, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for i, dp := range datapoints {
		data, target, metadata, err := encodeDatapoint(dp)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, dp.ID, dp.DatasetID, data, target, metadata, i, now); err != nil {
			return classifyConstraint(fmt.Errorf("inserting datapoint %s: %w", dp.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing datapoints: %w", err)
	}
	return nil
}

// UpdateDatapoint replaces data, target and metadata of a datapoint.
func (s *datasetStore) UpdateDatapoint(ctx context.Context, dp domain.Datapoint) (*domain.FullDatapoint, error) {
	data, target, metadata, err := encodeDatapoint(dp)
	if err != nil {
		return nil, err
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE datapoints SET data = ?, target = ?, metadata = ?
		WHERE dataset_id = ? AND id = ?
	`, data, target, metadata, dp.DatasetID, dp.ID)
	if err != nil {
		return nil, fmt.Errorf("updating datapoint: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrNotFound
	}

	return s.GetDatapoint(ctx, dp.DatasetID, dp.ID)
}

// UpdateIndexColumn sets the dataset's indexed field.
func (s *datasetStore) UpdateIndexColumn(ctx context.Context, datasetID string, column *string) (*domain.Dataset, error) {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE datasets SET indexed_on = ? WHERE id = ?", nullableColumn(column), datasetID)
	if err != nil {
		return nil, fmt.Errorf("updating index column: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrNotFound
	}
	return s.GetDataset(ctx, "", datasetID)
}

// DeleteDatapoints removes the given datapoints and returns the ids deleted.
func (s *datasetStore) DeleteDatapoints(ctx context.Context, datasetID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var deleted []string
	for start := 0; start < len(ids); start += maxIDsPerStatement {
		chunk := ids[start:min(start+maxIDsPerStatement, len(ids))]

		args := make([]any, 0, len(chunk)+1)
		args = append(args, datasetID)
		for _, id := range chunk {
			args = append(args, id)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")

		rows, err := tx.QueryContext(ctx,
			"DELETE FROM datapoints WHERE dataset_id = ? AND id IN ("+placeholders+") RETURNING id", args...)
		if err != nil {
			return nil, fmt.Errorf("deleting datapoints: %w", err)
		}
		ids, err := scanIDs(rows)
		if err != nil {
			return nil, err
		}
		deleted = append(deleted, ids...)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing delete: %w", err)
	}
	return deleted, nil
}

// DeleteAllDatapoints removes every datapoint of a dataset.
func (s *datasetStore) DeleteAllDatapoints(ctx context.Context, datasetID string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"DELETE FROM datapoints WHERE dataset_id = ? RETURNING id", datasetID)
	if err != nil {
		return nil, fmt.Errorf("deleting all datapoints: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// DeleteDataset removes a dataset; datapoints cascade.
func (s *datasetStore) DeleteDataset(ctx context.Context, datasetID string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM datasets WHERE id = ?", datasetID)
	if err != nil {
		return fmt.Errorf("deleting dataset: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Helper Functions ====================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row rowScanner) (*domain.Dataset, error) {
	var ds domain.Dataset
	var indexedOn sql.NullString
	var createdAt string

	if err := row.Scan(&ds.ID, &ds.ProjectID, &ds.Name, &indexedOn, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning dataset: %w", err)
	}

	if indexedOn.Valid {
		ds.IndexedOn = &indexedOn.String
	}
	ds.CreatedAt = parseTime(createdAt)
	return &ds, nil
}

func scanDatapoint(row rowScanner) (*domain.FullDatapoint, error) {
	var dp domain.FullDatapoint
	var data, metadata, createdAt string
	var target sql.NullString

	if err := row.Scan(&dp.ID, &dp.DatasetID, &data, &target, &metadata,
		&dp.IndexInBatch, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning datapoint: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &dp.Data); err != nil {
		return nil, fmt.Errorf("unmarshaling data of %s: %w", dp.ID, err)
	}
	if target.Valid && target.String != jsonNull {
		if err := json.Unmarshal([]byte(target.String), &dp.Target); err != nil {
			return nil, fmt.Errorf("unmarshaling target of %s: %w", dp.ID, err)
		}
	}
	dp.Metadata = map[string]any{}
	if metadata != "" && metadata != jsonNull {
		if err := json.Unmarshal([]byte(metadata), &dp.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata of %s: %w", dp.ID, err)
		}
	}
	dp.CreatedAt = parseTime(createdAt)
	return &dp, nil
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ids: %w", err)
	}
	return ids, nil
}

// encodeDatapoint marshals the JSON columns of a datapoint.
func encodeDatapoint(dp domain.Datapoint) (data string, target any, metadata string, err error) {
	b, err := json.Marshal(dp.Data)
	if err != nil {
		return "", nil, "", fmt.Errorf("marshalling data of %s: %w", dp.ID, err)
	}
	data = string(b)

	if dp.Target != nil {
		b, err := json.Marshal(dp.Target)
		if err != nil {
			return "", nil, "", fmt.Errorf("marshalling target of %s: %w", dp.ID, err)
		}
		target = string(b)
	}

	meta := dp.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	b, err = json.Marshal(meta)
	if err != nil {
		return "", nil, "", fmt.Errorf("marshalling metadata of %s: %w", dp.ID, err)
	}
	metadata = string(b)
	return data, target, metadata, nil
}

// classifyConstraint maps SQLite constraint failures to domain errors.
func classifyConstraint(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	default:
		return err
	}
}

func nullableColumn(column *string) any {
	if column == nil {
		return nil
	}
	return *column
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
