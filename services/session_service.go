package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/qazlegal/constitution-assistant/models"
)

// NoIndexGuidance is shown when a question arrives before anything has
// been indexed. It is an answer, not an error.
const NoIndexGuidance = "Please load the Constitution or upload documents first."

// SessionService owns the in-memory conversation state and wires user
// actions to the ingestion and answering pipelines. Each interaction
// runs to completion before the next is accepted.
type SessionService struct {
	answer    *AnswerService
	ingestion *IngestionService
	history   *HistoryService
	index     VectorIndex
	mu        sync.Mutex
	sessions  map[string]*models.Session
}

// NewSessionService creates the orchestrator.
func NewSessionService(answer *AnswerService, ingestion *IngestionService, history *HistoryService, index VectorIndex) *SessionService {
	return &SessionService{
		answer:    answer,
		ingestion: ingestion,
		history:   history,
		index:     index,
		sessions:  make(map[string]*models.Session),
	}
}

// LoadConstitution ingests the fixed corpus, moving sessions out of the
// NoIndex state on success.
func (s *SessionService) LoadConstitution(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingestion.LoadConstitution(ctx)
}

// ProcessUploads ingests a batch of uploaded files.
func (s *SessionService) ProcessUploads(ctx context.Context, paths []string) models.BatchReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingestion.IngestFiles(ctx, paths)
}

// ClearIndex deletes every indexed entry.
func (s *SessionService) ClearIndex(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Clear(ctx)
}

// Ask answers one question within a session. Failures surface as the
// answer content so the conversation turn is never lost; only
// successful turns reach the persisted chat history log.
func (s *SessionService) Ask(ctx context.Context, sessionID, question string) *models.QueryRAGResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreateSession(sessionID)
	session.Messages = append(session.Messages, models.ChatMessage{Role: models.RoleUser, Content: question})

	if !s.index.Ready() {
		log.Printf("SESSION: Question received with no index loaded (session %s).", session.ID)
		session.State = models.StateNoIndex
		session.Messages = append(session.Messages, models.ChatMessage{Role: models.RoleAssistant, Content: NoIndexGuidance})
		return &models.QueryRAGResponse{Answer: NoIndexGuidance, SessionID: session.ID}
	}

	session.State = models.StateAnswering
	answer, citations, err := s.answer.Answer(ctx, question)
	session.State = models.StateIndexReady

	if err != nil {
		log.Printf("SESSION ERROR: Failed to answer question: %v", err)
		errMsg := fmt.Sprintf("Error generating response: %v", err)
		session.Messages = append(session.Messages, models.ChatMessage{Role: models.RoleAssistant, Content: errMsg})
		return &models.QueryRAGResponse{Answer: errMsg, SessionID: session.ID, Error: err.Error()}
	}

	session.Messages = append(session.Messages, models.ChatMessage{Role: models.RoleAssistant, Content: answer})
	if err := s.history.Append(question, answer); err != nil {
		log.Printf("SESSION WARN: Could not persist chat history record: %v", err)
	}
	return &models.QueryRAGResponse{Answer: answer, Sources: citations, SessionID: session.ID}
}

// Transcript returns a copy of a session's in-memory messages.
func (s *SessionService) Transcript(sessionID string) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]models.ChatMessage, len(session.Messages))
	copy(out, session.Messages)
	return out
}

// getOrCreateSession finds the session, or creates one when the ID is
// empty or unknown (e.g. after a server restart). Callers must hold the
// mutex.
func (s *SessionService) getOrCreateSession(sessionID string) *models.Session {
	if sessionID != "" {
		if session, ok := s.sessions[sessionID]; ok {
			return session
		}
	}
	log.Println("SESSION: No active session found. Creating a new one.")
	state := models.StateNoIndex
	if s.index.Ready() {
		state = models.StateIndexReady
	}
	session := &models.Session{
		ID:    uuid.New().String(),
		State: state,
	}
	s.sessions[session.ID] = session
	return session
}
