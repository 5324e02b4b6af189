// Package storage archives rendered documents so they can be downloaded
// again by id.
//
// Implementations:
//   - [MemoryStore]: in-process map, for development and tests
//   - [MongoStore]: MongoDB collection, for server deployments
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Document is an archived .drawio file.
type Document struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Headers   []string  `bson:"headers" json:"headers"`
	Content   []byte    `bson:"content" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Store is the interface for document archives.
type Store interface {
	// Save stores doc. An empty ID is filled with a fresh UUID and an empty
	// CreatedAt with the current time.
	Save(ctx context.Context, doc *Document) error

	// Get returns the document with the given id, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*Document, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

func prepare(doc *Document) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
}
