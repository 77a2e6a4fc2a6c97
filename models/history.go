package models

// ChatRecord is one persisted question/answer turn. Timestamp uses the
// "2006-01-02 15:04:05" layout.
type ChatRecord struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
}
