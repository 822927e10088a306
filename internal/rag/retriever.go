package rag

import (
	"context"
	"fmt"
	"strings"
)

// RetrievedChunk is one entry of the per-query result set. ID is the 0-based
// rank position, re-derived on every query — it is the handle the downstream
// prompt and citation layer uses and is meaningless across queries.
type RetrievedChunk struct {
	// ID is the local integer ID equal to the chunk's rank position.
	ID int `json:"id"`

	// Path is the originating document reference.
	Path string `json:"path"`

	// Content is the chunk text.
	Content string `json:"content"`
}

// RetrievalResult is the assembled, citeable answer context for one query.
type RetrievalResult struct {
	// Chunks lists the retrieved chunks in rank order with local IDs 0..k-1.
	Chunks []RetrievedChunk

	// Mappings maps each local ID to its source document reference. Repeated
	// source paths are not deduplicated — ten chunks from one document yield
	// ten mapping entries.
	Mappings map[int]string

	// Context is the labeled context string handed to the language model:
	// one "[{id}]" label per chunk followed by its content, blank-line
	// separated, concatenated in rank order.
	Context string
}

// DefaultRetriever implements Retriever by combining an Embedder and a
// VectorStore. It embeds the query at retrieval time, delegates similarity
// search to the store, and renumbers the results for citation.
type DefaultRetriever struct {
	// embedder converts query text to a dense vector. It must be the same
	// embedding model used at ingestion time.
	embedder Embedder

	// store performs the vector similarity search.
	store VectorStore

	// defaultTopK is the number of results to return when the caller passes 0.
	defaultTopK int
}

// NewRetriever constructs a DefaultRetriever from the given Embedder and
// VectorStore. defaultTopK sets the fallback result count when Retrieve is
// called with topK <= 0; non-positive values fall back to DefaultTopK.
func NewRetriever(embedder Embedder, store VectorStore, defaultTopK int) (*DefaultRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &DefaultRetriever{
		embedder:    embedder,
		store:       store,
		defaultTopK: defaultTopK,
	}, nil
}

// Retrieve embeds the query, searches the collection, and assembles the
// results. Local IDs are assigned by rank position (ties broken by the
// engine's native order); the mapping contains exactly the IDs 0..k-1.
func (r *DefaultRetriever) Retrieve(ctx context.Context, query string, topK int) (*RetrievalResult, error) {
	if topK <= 0 {
		topK = r.defaultTopK
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query failed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("rag: embedder returned empty result for query")
	}

	docs, err := r.store.Search(ctx, embeddings[0], topK)
	if err != nil {
		return nil, fmt.Errorf("rag: vector search failed: %w", err)
	}

	return assemble(docs), nil
}

// assemble renumbers the ranked documents 0..k-1 and builds the labeled
// context string and ID-to-path mapping.
func assemble(docs []Document) *RetrievalResult {
	result := &RetrievalResult{
		Chunks:   make([]RetrievedChunk, 0, len(docs)),
		Mappings: make(map[int]string, len(docs)),
	}

	var ctx strings.Builder
	for i, doc := range docs {
		fmt.Fprintf(&ctx, "[%d]\n%s\n\n", i, doc.Content)
		result.Mappings[i] = doc.Path
		result.Chunks = append(result.Chunks, RetrievedChunk{
			ID:      i,
			Path:    doc.Path,
			Content: doc.Content,
		})
	}
	result.Context = ctx.String()

	return result
}
