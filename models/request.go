package models

type QueryTextRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"sessionID,omitempty"`
}
