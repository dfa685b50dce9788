package langprompt

import (
	"time"

	"github.com/google/uuid"
)

// Prompt types. A version without a type inherits its parent prompt's.
const (
	PromptTypeText = "text"
	PromptTypeChat = "chat"
)

// Message is one ordered entry of prompt content. Content is a string for
// regular roles and a placeholder name for the "placeholder" role.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Project is a named container for prompts. Immutable once fetched; the
// client never mutates it locally.
type Project struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
	UserRole    string         `json:"user_role,omitempty"`
}

// Prompt is a named, typed container for versions. Its name is unique within
// a project and its type is inherited by versions that omit one.
type Prompt struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ProjectID   uuid.UUID  `json:"project_id"`
	Type        string     `json:"type"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// PromptVersion is an immutable snapshot of prompt content. Version number
// and content never change after creation; labels and metadata may be moved
// by later calls. The remote service assigns monotonically increasing
// version numbers starting at 1.
type PromptVersion struct {
	ID            uuid.UUID      `json:"id"`
	PromptID      uuid.UUID      `json:"prompt_id"`
	ProjectID     uuid.UUID      `json:"project_id,omitempty"`
	Version       int            `json:"version"`
	Prompt        []Message      `json:"prompt"`
	Type          string         `json:"type,omitempty"`
	Labels        []string       `json:"labels,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CommitMessage string         `json:"commit_message,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     *time.Time     `json:"updated_at,omitempty"`
	CreatedBy     uuid.UUID      `json:"created_by,omitempty"`
}

// ProjectList is a page of projects.
type ProjectList struct {
	Projects []Project `json:"projects"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

// PromptPage is a page of prompts with a has-next indicator computed from
// the returned count and total.
type PromptPage struct {
	Items   []Prompt `json:"items"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
	HasNext bool     `json:"has_next"`
}
