package models

// SessionState tracks where a conversation is in the
// NoIndex -> IndexReady -> Answering -> IndexReady cycle.
type SessionState string

const (
	StateNoIndex    SessionState = "no_index"
	StateIndexReady SessionState = "index_ready"
	StateAnswering  SessionState = "answering"
)

// ChatMessage is one role-tagged entry of the in-memory transcript.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is the explicit per-conversation state. The transcript lives
// only for the process lifetime; the chat history log is persisted
// separately.
type Session struct {
	ID       string        `json:"sessionID"`
	State    SessionState  `json:"state"`
	Messages []ChatMessage `json:"messages"`
}
