package models

import (
	"time"

	"github.com/google/uuid"
)

// StoryStatus represents the lifecycle state of a generated story
type StoryStatus string

const (
	StoryStatusProcessing StoryStatus = "processing"
	StoryStatusApproved   StoryStatus = "approved"
	StoryStatusPending    StoryStatus = "pending"
	StoryStatusError      StoryStatus = "error"
)

// ApprovalMode is a per-user setting controlling whether generated stories
// require manual review before being shown to a child
type ApprovalMode string

const (
	ApprovalModeAuto  ApprovalMode = "auto"
	ApprovalModeApp   ApprovalMode = "app"
	ApprovalModeEmail ApprovalMode = "email"
)

// GenerationRequest is the immutable input to one pipeline run
type GenerationRequest struct {
	ID        uuid.UUID
	KidID     uuid.UUID
	Language  string
	Image     []byte
	ImageMime string
}

// KidProfile holds child identity and personalization data. Owned by the
// profile store; read-only during a pipeline run.
type KidProfile struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Appearance     string    `json:"appearance,omitempty"`
	FavoriteGenres []string  `json:"favorite_genres,omitempty"`
	ParentalNotes  string    `json:"parental_notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserSettings is the slice of the owning user's account the pipeline needs
type UserSettings struct {
	ID           uuid.UUID
	Email        string
	ApprovalMode ApprovalMode
}

// StoryDraft is produced by the storyteller step. It exists only inside a
// pipeline run before being folded into the persisted story record.
type StoryDraft struct {
	Title            string `json:"title"`
	Content          string `json:"content"`
	CoverDescription string `json:"cover_description,omitempty"`
}

// GenerationResult describes one image-generation attempt sequence
type GenerationResult struct {
	VendorUsed   string
	Model        string
	AttemptsMade int
	FallbackUsed bool
	ImageRef     string
}

// Story is the persisted pipeline outcome
type Story struct {
	ID               uuid.UUID   `json:"id"`
	KidID            uuid.UUID   `json:"kid_id"`
	Title            string      `json:"title,omitempty"`
	Content          string      `json:"content,omitempty"`
	ImageDescription string      `json:"image_description,omitempty"`
	CoverDescription string      `json:"cover_description,omitempty"`
	AudioRef         *string     `json:"audio_ref,omitempty"`
	CoverRef         *string     `json:"cover_ref,omitempty"`
	Language         string      `json:"language"`
	Status           StoryStatus `json:"status"`
	ErrorMessage     string      `json:"error,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// StoryUpdate is a partial update of a story record. Nil fields are left
// untouched.
type StoryUpdate struct {
	Title            *string
	Content          *string
	ImageDescription *string
	CoverDescription *string
	AudioRef         *string
	CoverRef         *string
	Status           *StoryStatus
	ErrorMessage     *string
}

// StringPtr returns a pointer to s, for building StoryUpdate values
func StringPtr(s string) *string { return &s }

// StatusPtr returns a pointer to st, for building StoryUpdate values
func StatusPtr(st StoryStatus) *StoryStatus { return &st }
