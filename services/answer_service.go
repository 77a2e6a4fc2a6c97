package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/qazlegal/constitution-assistant/models"
)

// citationPreviewLen is how much of a retrieved chunk is echoed back as
// a citation.
const citationPreviewLen = 200

// AnswerService assembles retrieved context and the question into one
// prompt, invokes the language model once, and packages the answer with
// cited sources.
type AnswerService struct {
	embedder  EmbeddingProvider
	index     VectorIndex
	completer Completer
	topK      int
	fetchK    int
}

// NewAnswerService wires the retrieval and completion stages.
func NewAnswerService(embedder EmbeddingProvider, index VectorIndex, completer Completer, topK, fetchK int) *AnswerService {
	return &AnswerService{
		embedder:  embedder,
		index:     index,
		completer: completer,
		topK:      topK,
		fetchK:    fetchK,
	}
}

// Answer runs the retrieval-augmented pipeline for one question.
func (s *AnswerService) Answer(ctx context.Context, question string) (string, []models.Citation, error) {
	queryVec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return "", nil, fmt.Errorf("could not embed question: %w", err)
	}

	docs, err := s.index.Search(ctx, queryVec, s.topK, s.fetchK)
	if err != nil {
		return "", nil, fmt.Errorf("could not retrieve documents: %w", err)
	}
	log.Printf("ANSWER: Retrieved %d documents for question.", len(docs))

	var contextText strings.Builder
	for i, doc := range docs {
		if i > 0 {
			contextText.WriteString("\n\n")
		}
		contextText.WriteString(doc.Text)
	}

	prompt, err := BuildQAPrompt(contextText.String(), question)
	if err != nil {
		return "", nil, fmt.Errorf("could not build prompt: %w", err)
	}

	answer, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", nil, fmt.Errorf("could not generate answer: %w", err)
	}

	citations := make([]models.Citation, 0, len(docs))
	for _, doc := range docs {
		citations = append(citations, models.Citation{
			Source:  doc.SourceLabel(),
			Preview: previewText(doc.Text),
		})
	}
	return answer, citations, nil
}

func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= citationPreviewLen {
		return text
	}
	return string(runes[:citationPreviewLen]) + "..."
}
