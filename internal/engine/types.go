package engine

import "github.com/MakiNampei/Desktop-Auto-Filer/internal/rules"

// FileEvent describes a newly observed file. Path is optional when Name is
// set; Ext is derived from Name when absent.
type FileEvent struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Ext  string `json:"ext"`
}

// Suggestion is the engine's answer for a single file event.
type Suggestion struct {
	SuggestionID   string  `json:"suggestion_id"`
	Folder         string  `json:"folder"`
	Confidence     float64 `json:"confidence"`
	Rationale      string  `json:"rationale"`
	NeedsAllowlist bool    `json:"needs_allowlist"`
}

// FeedbackRequest reports what the user did with a suggestion. ChosenFolder
// is only consulted when Accepted is false; empty means the user rejected the
// suggestion without naming a better destination.
type FeedbackRequest struct {
	SuggestionID string `json:"suggestion_id"`
	Accepted     bool   `json:"accepted"`
	ChosenFolder string `json:"chosen_folder,omitempty"`
}

// Status classifies the outcome of feedback and allow-list operations.
type Status string

const (
	StatusOK                Status = "ok"
	StatusNotFound          Status = "not_found"
	StatusNotAFolder        Status = "not_a_folder"
	StatusUnknownSuggestion Status = "unknown_suggestion"
	StatusNoIndex           Status = "no_index"
)

// Ack acknowledges a feedback or allow-list mutation.
type Ack struct {
	Status        Status   `json:"status"`
	NewConfidence *float64 `json:"new_confidence,omitempty"`
}

// Learned exposes the strongest folder associations per extension and keyword.
type Learned struct {
	Ext   map[string][]rules.Association `json:"ext"`
	Token map[string][]rules.Association `json:"token"`
}

// StatusReport summarizes what the engine currently knows.
type StatusReport struct {
	Learned        Learned `json:"learned"`
	AllowlistCount int     `json:"allowlist_count"`
	Embeddings     bool    `json:"embeddings"`
}

// EventSink receives engine activity for live observers. Implementations
// must not block; a panicking sink is logged and ignored.
type EventSink interface {
	Publish(event any)
}

// SuggestionEvent is published after every suggestion, fallbacks included.
type SuggestionEvent struct {
	Type       string     `json:"type"`
	FileName   string     `json:"file_name"`
	Suggestion Suggestion `json:"suggestion"`
}

// FeedbackEvent is published after feedback has been applied.
type FeedbackEvent struct {
	Type         string `json:"type"`
	SuggestionID string `json:"suggestion_id"`
	Accepted     bool   `json:"accepted"`
	Folder       string `json:"folder"`
}
