package services

import (
	"context"
	"errors"
	"sync"

	"github.com/qazlegal/constitution-assistant/models"
)

// fakeEmbedder produces deterministic vectors from letter frequencies
// so identical texts always map to identical vectors.
type fakeEmbedder struct {
	mu        sync.Mutex
	calls     int
	fail      bool
	failAfter int // when set, fail every call after this many
	dim       int // vector length, 8 when unset
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	fail := f.fail || (f.failAfter > 0 && f.calls > f.failAfter)
	dim := f.dim
	f.mu.Unlock()
	if fail {
		return nil, errors.New("fake embedder down")
	}
	if dim == 0 {
		dim = 8
	}
	vec := make([]float32, dim)
	for _, r := range text {
		vec[int(r)%dim]++
	}
	return vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type memEntry struct {
	text string
	meta map[string]interface{}
	vec  []float32
}

// memIndex is an in-memory VectorIndex used to test the pipeline
// without a Chroma server.
type memIndex struct {
	embedder EmbeddingProvider
	lambda   float64
	mu       sync.Mutex
	entries  []memEntry
	ready    bool
	addErr   error
}

func newMemIndex(embedder EmbeddingProvider) *memIndex {
	return &memIndex{embedder: embedder, lambda: 0.5}
}

func (m *memIndex) Create(ctx context.Context, chunks []models.Chunk) error {
	return m.Add(ctx, chunks)
}

func (m *memIndex) Add(ctx context.Context, chunks []models.Chunk) error {
	if m.addErr != nil {
		return m.addErr
	}
	// Mirrors the production index: one batch embedding call per Add.
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	m.mu.Lock()
	for i, c := range chunks {
		m.entries = append(m.entries, memEntry{
			text: c.Text,
			meta: map[string]interface{}{"source": c.Source, "position": c.Position},
			vec:  vectors[i],
		})
	}
	if len(chunks) > 0 {
		m.ready = true
	}
	m.mu.Unlock()
	return nil
}

func (m *memIndex) Open(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready, nil
}

func (m *memIndex) Clear(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existed := m.ready
	m.entries = nil
	m.ready = false
	return existed, nil
}

func (m *memIndex) Search(_ context.Context, queryVec []float32, k, fetchK int) ([]models.SourceDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return nil, ErrNoIndex
	}

	// Candidate pool: fetchK most similar entries.
	type scored struct {
		idx   int
		score float64
	}
	pool := make([]scored, 0, len(m.entries))
	for i, e := range m.entries {
		pool = append(pool, scored{idx: i, score: cosineSimilarity(queryVec, e.vec)})
	}
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			if pool[j].score > pool[i].score {
				pool[i], pool[j] = pool[j], pool[i]
			}
		}
	}
	if fetchK < len(pool) {
		pool = pool[:fetchK]
	}

	vectors := make([][]float32, len(pool))
	for i, p := range pool {
		vectors[i] = m.entries[p.idx].vec
	}
	var out []models.SourceDocument
	for _, sel := range mmrSelect(queryVec, vectors, k, m.lambda) {
		e := m.entries[pool[sel].idx]
		out = append(out, models.SourceDocument{Text: e.text, Metadata: e.meta})
	}
	return out, nil
}

func (m *memIndex) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

func (m *memIndex) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// fakeCompleter records the prompt it was given and returns a canned
// answer, or an error when failing.
type fakeCompleter struct {
	mu         sync.Mutex
	lastPrompt string
	answer     string
	err        error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.lastPrompt = prompt
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}
