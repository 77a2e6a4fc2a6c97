package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/qazlegal/constitution-assistant/models"
)

// VectorIndex is the persistent collection of (vector, text, metadata)
// entries. Insertion is append-only; Clear is the only bulk deletion.
type VectorIndex interface {
	// Create embeds and persists the chunks, binding the index to its
	// storage location. Write failures wrap ErrStorage.
	Create(ctx context.Context, chunks []models.Chunk) error
	// Add embeds and appends without touching existing entries. Safe to
	// call repeatedly; never drops or deduplicates prior entries.
	Add(ctx context.Context, chunks []models.Chunk) error
	// Open attaches to an already-persisted index. A missing index is
	// reported as (false, nil), not as an error.
	Open(ctx context.Context) (bool, error)
	// Clear irreversibly deletes every persisted entry and reports
	// whether anything existed.
	Clear(ctx context.Context) (bool, error)
	// Search returns up to k entries for the query vector, picked by
	// maximal marginal relevance from a pool of fetchK nearest
	// neighbors.
	Search(ctx context.Context, queryVec []float32, k, fetchK int) ([]models.SourceDocument, error)
	// Count reports how many entries are stored.
	Count(ctx context.Context) (int, error)
	// Ready reports whether the index holds a usable collection.
	Ready() bool
}

// ChromaIndex implements VectorIndex on a Chroma collection. The
// collection name is the index's storage location; Chroma owns the
// on-disk layout.
type ChromaIndex struct {
	client     chromago.Client
	embedder   EmbeddingProvider
	name       string
	lambda     float64
	mu         sync.Mutex
	collection chromago.Collection
}

// NewChromaIndex wires the Chroma client and the embedding provider.
// lambda balances relevance against diversity during search.
func NewChromaIndex(client chromago.Client, embedder EmbeddingProvider, collectionName string, lambda float64) *ChromaIndex {
	return &ChromaIndex{
		client:   client,
		embedder: embedder,
		name:     collectionName,
		lambda:   lambda,
	}
}

// Ready implements VectorIndex.
func (x *ChromaIndex) Ready() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.collection != nil
}

// Create implements VectorIndex.
func (x *ChromaIndex) Create(ctx context.Context, chunks []models.Chunk) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.ensureCollection(ctx); err != nil {
		return err
	}
	return x.addChunks(ctx, chunks)
}

// Add implements VectorIndex. Adding to an index that was never created
// creates it first, so repeated ingestion "appends or builds" without
// the caller tracking which.
func (x *ChromaIndex) Add(ctx context.Context, chunks []models.Chunk) error {
	return x.Create(ctx, chunks)
}

// Open implements VectorIndex.
func (x *ChromaIndex) Open(ctx context.Context) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.collection != nil {
		return true, nil
	}
	collections, err := x.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: could not list collections: %v", ErrStorage, err)
	}
	for _, col := range collections {
		if col.Name() == x.name {
			x.collection = col
			log.Printf("INDEX: Opened existing collection %q.", x.name)
			return true, nil
		}
	}
	return false, nil
}

// Clear implements VectorIndex.
func (x *ChromaIndex) Clear(ctx context.Context) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	existed := x.collection != nil
	if !existed {
		collections, err := x.client.ListCollections(ctx)
		if err != nil {
			return false, fmt.Errorf("%w: could not list collections: %v", ErrStorage, err)
		}
		for _, col := range collections {
			if col.Name() == x.name {
				existed = true
				break
			}
		}
	}
	if !existed {
		return false, nil
	}
	if err := x.client.DeleteCollection(ctx, x.name); err != nil {
		return false, fmt.Errorf("%w: could not delete collection %q: %v", ErrStorage, x.name, err)
	}
	x.collection = nil
	log.Printf("INDEX: Cleared collection %q.", x.name)
	return true, nil
}

// Count implements VectorIndex.
func (x *ChromaIndex) Count(ctx context.Context) (int, error) {
	x.mu.Lock()
	col := x.collection
	x.mu.Unlock()
	if col == nil {
		return 0, nil
	}
	count, err := col.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count entries: %v", ErrStorage, err)
	}
	return int(count), nil
}

// Search implements VectorIndex.
func (x *ChromaIndex) Search(ctx context.Context, queryVec []float32, k, fetchK int) ([]models.SourceDocument, error) {
	x.mu.Lock()
	col := x.collection
	x.mu.Unlock()
	if col == nil {
		return nil, ErrNoIndex
	}
	if fetchK < k {
		fetchK = k
	}

	results, err := col.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(queryVec)),
		chromago.WithNResults(fetchK),
		chromago.WithIncludeQuery(chromago.IncludeDocuments, chromago.IncludeMetadatas, chromago.IncludeEmbeddings),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	embeddingGroups := results.GetEmbeddingsGroups()
	if len(documentGroups) == 0 {
		return nil, nil
	}

	var pool []models.SourceDocument
	var vectors [][]float32
	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		var metadataMap map[string]interface{}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) && metadataGroups[0][i] != nil {
			metadataMap = metadataToMap(metadataGroups[0][i])
		}
		var vec []float32
		if len(embeddingGroups) > 0 && i < len(embeddingGroups[0]) && embeddingGroups[0][i] != nil {
			vec = embeddingGroups[0][i].ContentAsFloat32()
		}
		pool = append(pool, models.SourceDocument{Text: doc.ContentString(), Metadata: metadataMap})
		vectors = append(vectors, vec)
	}

	picked := mmrSelect(queryVec, vectors, k, x.lambda)
	selected := make([]models.SourceDocument, 0, len(picked))
	for _, idx := range picked {
		selected = append(selected, pool[idx])
	}
	log.Printf("INDEX: Retrieved %d of %d pooled documents.", len(selected), len(pool))
	return selected, nil
}

// ensureCollection gets or creates the backing collection. Callers must
// hold the mutex.
func (x *ChromaIndex) ensureCollection(ctx context.Context) error {
	if x.collection != nil {
		return nil
	}
	collection, err := x.client.GetOrCreateCollection(
		ctx,
		x.name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "constitution assistant collection"),
				chromago.NewStringAttribute("created_by", "ingestion_service"),
			),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: could not get or create collection %q: %v", ErrStorage, x.name, err)
	}
	x.collection = collection
	return nil
}

// addChunks embeds the batch and appends the entries. The whole batch
// goes through one embedding call so a mid-ingestion provider fallback
// never stores two vector dimensions in the same collection. Callers
// must hold the mutex; writes are single-writer by construction.
func (x *ChromaIndex) addChunks(ctx context.Context, chunks []models.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := x.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("could not embed %d chunks: %w", len(chunks), err)
	}

	for i, chunk := range chunks {
		metadata := chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("source", chunk.Source),
			chromago.NewIntAttribute("position", int64(chunk.Position)),
		)
		err = x.collection.Add(ctx,
			chromago.WithIDs(chromago.DocumentID(chunk.ID)),
			chromago.WithTexts(chunk.Text),
			chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(vectors[i])),
			chromago.WithMetadatas(metadata),
		)
		if err != nil {
			return fmt.Errorf("%w: failed to add chunk %d of %q: %v", ErrStorage, chunk.Position, chunk.Source, err)
		}
	}
	log.Printf("INDEX: Stored %d chunks in collection %q.", len(chunks), x.name)
	return nil
}

// metadataToMap converts a DocumentMetadata to a plain map. The struct
// has no public accessor for its values, so round-trip through JSON.
func metadataToMap(metadata chromago.DocumentMetadata) map[string]interface{} {
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		log.Printf("WARN: could not marshal metadata for document: %v", err)
		return map[string]interface{}{}
	}
	var metadataMap map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &metadataMap); err != nil {
		log.Printf("WARN: could not unmarshal metadata for document: %v", err)
		return map[string]interface{}{}
	}
	return metadataMap
}
