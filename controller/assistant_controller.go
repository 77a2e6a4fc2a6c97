package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qazlegal/constitution-assistant/models"
	"github.com/qazlegal/constitution-assistant/services"
)

// AssistantController handles the HTTP requests for the assistant API.
// It delegates all business logic to the service layer.
type AssistantController struct {
	sessions *services.SessionService
	history  *services.HistoryService
	uploads  *services.UploadStore
}

// NewAssistantController is called from main.go to inject the service
// dependencies.
func NewAssistantController(sessions *services.SessionService, history *services.HistoryService, uploads *services.UploadStore) *AssistantController {
	return &AssistantController{
		sessions: sessions,
		history:  history,
		uploads:  uploads,
	}
}

// LoadCorpus is the handler for POST /api/v1/corpus/load. It ingests
// the fixed constitution document.
func (c *AssistantController) LoadCorpus(ctx *gin.Context) {
	count, err := c.sessions.LoadConstitution(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrCorpusNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Constitution file not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load the Constitution"})
		return
	}
	ctx.JSON(http.StatusOK, models.IngestCorpusResponse{
		Message: "Constitution loaded successfully",
		Chunks:  count,
	})
}

// UploadDocuments is the handler for POST /api/v1/documents. It accepts
// a multipart batch of PDF/DOCX/TXT files and returns a per-file
// report; one bad file never fails the request.
func (c *AssistantController) UploadDocuments(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form: " + err.Error()})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}

	var paths []string
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload " + fh.Filename})
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload " + fh.Filename})
			return
		}
		path, err := c.uploads.Save(fh.Filename, content)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store upload " + fh.Filename})
			return
		}
		paths = append(paths, path)
	}

	report := c.sessions.ProcessUploads(ctx.Request.Context(), paths)
	ctx.JSON(http.StatusOK, report)
}

// Query is the handler for POST /api/v1/query. Pipeline failures come
// back inside the response body so the conversation turn survives.
func (c *AssistantController) Query(ctx *gin.Context) {
	var req models.QueryTextRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	response := c.sessions.Ask(ctx.Request.Context(), req.SessionID, req.Query)
	ctx.JSON(http.StatusOK, response)
}

// GetHistory is the handler for GET /api/v1/history.
func (c *AssistantController) GetHistory(ctx *gin.Context) {
	records, err := c.history.Load()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read chat history"})
		return
	}
	ctx.JSON(http.StatusOK, models.HistoryResponse{Count: len(records), Records: records})
}

// ExportHistory is the handler for GET /api/v1/history/export. It
// streams the log as a CSV attachment.
func (c *AssistantController) ExportHistory(ctx *gin.Context) {
	ctx.Header("Content-Type", "text/csv")
	ctx.Header("Content-Disposition", `attachment; filename="chat_history.csv"`)
	if err := c.history.Export(ctx.Writer); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export chat history"})
	}
}

// ClearIndex is the handler for DELETE /api/v1/index.
func (c *AssistantController) ClearIndex(ctx *gin.Context) {
	deleted, err := c.sessions.ClearIndex(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear index"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
