package server

import (
	"context"
	"fmt"

	"github.com/patrickverol/docrag-go/internal/storage"
)

// pingable is satisfied by any dependency exposing a native health RPC,
// e.g. *rag.QdrantStore.
type pingable interface {
	Ping(ctx context.Context) error
}

// QdrantPinger probes the vector store via its HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type QdrantPinger struct {
	store pingable
}

// NewQdrantPinger constructs a QdrantPinger for the given store.
func NewQdrantPinger(store pingable) *QdrantPinger {
	return &QdrantPinger{store: store}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping delegates to the store's health check.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// StoragePinger probes the document storage backend by issuing a listing.
// A listing is the cheapest call every backend supports and exercises the
// same path ingestion depends on.
type StoragePinger struct {
	backend storage.Backend
}

// NewStoragePinger constructs a StoragePinger for the given backend.
func NewStoragePinger(backend storage.Backend) *StoragePinger {
	return &StoragePinger{backend: backend}
}

// Name returns the dependency label used in readiness responses.
func (p *StoragePinger) Name() string { return "storage" }

// Ping lists the backend's documents and discards the result.
func (p *StoragePinger) Ping(ctx context.Context) error {
	if _, err := p.backend.ListDocuments(ctx); err != nil {
		return fmt.Errorf("listing failed: %w", err)
	}
	return nil
}
