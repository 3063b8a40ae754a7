// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"time"
)

// Document is one raw reading document from the store, in store order.
// The sync layer decodes Doc defensively; a malformed document is
// dropped there, not here.
type Document struct {
	ID       string    `db:"id"`
	DeviceID string    `db:"device_id"`
	Ts       time.Time `db:"ts"`
	Doc      []byte    `db:"doc"`
}

// HistoryRepository defines the interface for the historical-reading
// document store.
type HistoryRepository interface {
	// LatestDocuments returns up to limit documents for the device,
	// most recent first. Fewer documents than requested is not an error.
	LatestDocuments(ctx context.Context, deviceID string, limit int) ([]Document, error)
	// InsertDocument archives one raw reading document.
	InsertDocument(ctx context.Context, deviceID string, ts time.Time, doc []byte) error
	DeleteOldDocuments(ctx context.Context, before time.Time) error
}
