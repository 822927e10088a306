// Package rag defines the interfaces and data types for the retrieval side of
// the document QA pipeline: vector storage, embedding, and query-time context
// assembly. Concrete implementations (Qdrant, Ollama/OpenAI embedders)
// satisfy these interfaces so the ingestion driver and the query server never
// depend on a specific backend.
package rag

import "context"

const (
	// VectorSize is the fixed dimensionality of the embedding vectors stored
	// in the collection. The embedding model must produce vectors of exactly
	// this size; mismatched models silently degrade result quality.
	VectorSize = 768

	// DefaultTopK is the number of nearest neighbours returned per query when
	// the caller does not specify one.
	DefaultTopK = 10
)

// Document is one indexed chunk of extracted document text.
type Document struct {
	// ID is the unique identifier of this chunk within the collection.
	ID string

	// Content is the chunk's text, the unit of embedding and retrieval.
	Content string

	// Path is the originating document reference within the storage backend.
	// It is the only metadata attribute carried per chunk.
	Path string

	// Score is the similarity score assigned during retrieval.
	// Zero value means the score was not computed.
	Score float32
}

// VectorStore persists and searches chunk embeddings.
// Implementations must be safe to call from multiple goroutines; concurrent
// searches are read-only, but Recreate must not race any Upsert.
type VectorStore interface {
	// Recreate deletes the collection if it exists and creates it fresh with
	// the fixed vector size and distance metric. Every full reindex starts
	// here — the index carries no durability guarantee across ingestion runs.
	Recreate(ctx context.Context) error

	// EnsureCollection creates the collection if it does not already exist,
	// leaving an existing collection untouched. Used by the query server so
	// a fresh deployment can answer (empty) queries before the first reindex.
	EnsureCollection(ctx context.Context) error

	// Upsert stores a batch of documents with their pre-computed embeddings.
	// embeddings must be parallel to docs — embeddings[i] is the vector for docs[i].
	Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search returns the topK nearest documents for the query embedding,
	// in the engine's native rank order.
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Document, error)

	// Count returns the number of vector records currently in the collection.
	Count(ctx context.Context) (uint64, error)

	// Close releases any resources held by the store.
	Close() error
}

// Embedder converts text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever is the query-time interface that turns a user query into a
// citeable, ID-mapped answer context.
// Implementations must be safe to call from multiple goroutines.
type Retriever interface {
	// Retrieve embeds the query, searches the collection, and assembles the
	// ranked results into a RetrievalResult. topK <= 0 selects the default.
	Retrieve(ctx context.Context, query string, topK int) (*RetrievalResult, error)
}
