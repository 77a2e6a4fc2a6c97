package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/qazlegal/constitution-assistant/models"
)

// ChunkerService splits extracted document text into overlapping
// passages. Boundaries prefer paragraph breaks, then line breaks, then
// spaces, falling back to character positions.
type ChunkerService struct {
	splitter textsplitter.RecursiveCharacter
}

// NewChunkerService creates a chunker with the given target chunk size
// and overlap, both in characters.
func NewChunkerService(size, overlap int) *ChunkerService {
	return &ChunkerService{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

// Split turns documents into chunks carrying {source, position}
// metadata. Blank documents contribute nothing; empty input yields an
// empty slice, never an error.
func (s *ChunkerService) Split(docs []models.Document) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		pieces, err := s.splitter.SplitText(doc.Text)
		if err != nil {
			return nil, fmt.Errorf("could not split document %q: %w", doc.Source, err)
		}
		for i, piece := range pieces {
			chunks = append(chunks, models.Chunk{
				ID:       fmt.Sprintf("%s-chunk%d", uuid.New().String(), i),
				Text:     piece,
				Source:   doc.Source,
				Position: i,
			})
		}
		log.Printf("CHUNKER: Split %q into %d chunks.", doc.Source, len(pieces))
	}
	return chunks, nil
}
