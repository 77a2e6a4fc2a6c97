package models

type QueryRAGResponse struct {
	Answer    string     `json:"answer"`
	Sources   []Citation `json:"sources,omitempty"`
	SessionID string     `json:"sessionID"`
	Error     string     `json:"error,omitempty"`
}

// FileResult records the outcome of ingesting a single uploaded file.
type FileResult struct {
	File   string `json:"file"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}

// Batch statuses reported after a multi-file ingestion.
const (
	BatchAllSucceeded   = "all_succeeded"
	BatchPartialSuccess = "partial_success"
	BatchTotalFailure   = "total_failure"
)

// BatchReport aggregates per-file results so callers can tell full,
// partial and total failure apart without parsing logs.
type BatchReport struct {
	Status      string       `json:"status"`
	TotalChunks int          `json:"total_chunks"`
	Files       []FileResult `json:"files"`
}

// Classify sets Status from the per-file results.
func (r *BatchReport) Classify() {
	failed := 0
	for _, f := range r.Files {
		if f.Error != "" {
			failed++
		}
	}
	switch {
	case len(r.Files) == 0 || failed == 0:
		r.Status = BatchAllSucceeded
	case failed == len(r.Files):
		r.Status = BatchTotalFailure
	default:
		r.Status = BatchPartialSuccess
	}
}

type IngestCorpusResponse struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}

type HistoryResponse struct {
	Count   int          `json:"count"`
	Records []ChatRecord `json:"records"`
}
