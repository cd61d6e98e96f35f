package store

import "time"

// Summary is a cached, successful summarization of one document.
type Summary struct {
	Hash      string    `json:"hash"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	NumPages  int       `json:"num_pages"`
	Text      string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Run is one entry in the run history, successful or not.
type Run struct {
	ID        int       `json:"id"`
	Source    string    `json:"source"` // cli, web, telegram
	Reference string    `json:"reference"`
	Hash      string    `json:"hash,omitempty"`
	Status    string    `json:"status"` // success, failure
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
