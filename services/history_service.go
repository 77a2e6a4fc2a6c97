package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/qazlegal/constitution-assistant/models"
)

// TimestampLayout is the format of the timestamp column in the chat
// history log.
const TimestampLayout = "2006-01-02 15:04:05"

var historyHeader = []string{"question", "answer", "timestamp"}

// HistoryService keeps the append-only chat history log: one CSV row
// per answered question, surviving process restarts.
type HistoryService struct {
	path string
	mu   sync.Mutex
}

// NewHistoryService binds the log to its file path. The file is created
// lazily on the first append.
func NewHistoryService(path string) *HistoryService {
	return &HistoryService{path: path}
}

// Append records one question/answer turn with the current time.
func (h *HistoryService) Append(question, answer string) error {
	return h.AppendAt(question, answer, time.Now())
}

// AppendAt records one turn with an explicit timestamp.
func (h *HistoryService) AppendAt(question, answer string, at time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, statErr := os.Stat(h.path)
	writeHeader := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("could not open chat history log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(historyHeader); err != nil {
			return fmt.Errorf("could not write chat history header: %w", err)
		}
	}
	if err := w.Write([]string{question, answer, at.Format(TimestampLayout)}); err != nil {
		return fmt.Errorf("could not append chat history record: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Load reads all persisted records in order. A missing log is an empty
// history, not an error.
func (h *HistoryService) Load() ([]models.ChatRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.ChatRecord{}, nil
		}
		return nil, fmt.Errorf("could not open chat history log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(historyHeader)

	var records []models.ChatRecord
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read chat history log: %w", err)
		}
		if first {
			first = false
			if row[0] == historyHeader[0] {
				continue
			}
		}
		records = append(records, models.ChatRecord{
			Question:  row[0],
			Answer:    row[1],
			Timestamp: row[2],
		})
	}
	if records == nil {
		records = []models.ChatRecord{}
	}
	return records, nil
}

// Export writes the whole log as delimited text to w, header included.
func (h *HistoryService) Export(w io.Writer) error {
	records, err := h.Load()
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write([]string{rec.Question, rec.Answer, rec.Timestamp}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
