// FilePath: internal/repository/postgres/postgres.history.go
package postgres

import (
	"context"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/Toyman-tech/agroflow/internal/database"
	"github.com/Toyman-tech/agroflow/internal/errors"
	"github.com/Toyman-tech/agroflow/internal/repository"
)

type HistoryRepo struct {
	db database.DB
}

// NewHistoryRepository creates the document store for archived readings
// and ensures its schema exists.
func NewHistoryRepository(db database.DB) (*HistoryRepo, error) {
	repo := &HistoryRepo{db: db}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *HistoryRepo) initializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS reading_documents (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			doc JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reading_documents_device_ts
			ON reading_documents(device_id, ts DESC)`,
	}

	for _, query := range queries {
		if _, err := r.db.GetDB().Exec(query); err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}
	return nil
}

func (r *HistoryRepo) LatestDocuments(ctx context.Context, deviceID string, limit int) ([]repository.Document, error) {
	docs := []repository.Document{}
	query := `
		SELECT id, device_id, ts, doc
		FROM reading_documents
		WHERE device_id = $1
		ORDER BY ts DESC
		LIMIT $2`

	err := r.db.GetDB().SelectContext(ctx, &docs, query, deviceID, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to query reading documents", err)
	}
	return docs, nil
}

func (r *HistoryRepo) InsertDocument(ctx context.Context, deviceID string, ts time.Time, doc []byte) error {
	id := nuts.NID("rd", 12)
	query := `
		INSERT INTO reading_documents (id, device_id, ts, doc)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.GetDB().ExecContext(ctx, query, id, deviceID, ts, doc)
	if err != nil {
		return errors.NewDatabaseError("failed to insert reading document", err)
	}
	return nil
}

func (r *HistoryRepo) DeleteOldDocuments(ctx context.Context, before time.Time) error {
	query := `DELETE FROM reading_documents WHERE ts < $1`

	res, err := r.db.GetDB().ExecContext(ctx, query, before)
	if err != nil {
		return errors.NewDatabaseError("failed to delete old reading documents", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		nuts.L.Infof("[HistoryRepo] Deleted %d reading documents older than %s", n, before.Format(time.RFC3339))
	}
	return nil
}
