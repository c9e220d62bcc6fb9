package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mira/api/internal/database"
	"github.com/mira/api/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// Store persists kids, users and story records in Postgres
type Store struct {
	db *database.Postgres
}

// New creates a store on the shared connection pool
func New(db *database.Postgres) *Store {
	return &Store{db: db}
}

// GetKid loads a kid profile by id
func (s *Store) GetKid(ctx context.Context, id uuid.UUID) (models.KidProfile, error) {
	query := `
		SELECT id, user_id, name, age, appearance, favorite_genres, parental_notes, created_at
		FROM kids WHERE id = $1
	`
	var kid models.KidProfile
	err := s.db.Pool().QueryRow(ctx, query, id).Scan(
		&kid.ID, &kid.UserID, &kid.Name, &kid.Age,
		&kid.Appearance, &kid.FavoriteGenres, &kid.ParentalNotes, &kid.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.KidProfile{}, ErrNotFound
		}
		return models.KidProfile{}, fmt.Errorf("loading kid %s: %w", id, err)
	}
	return kid, nil
}

// GetUserSettings loads the approval settings of a user
func (s *Store) GetUserSettings(ctx context.Context, userID uuid.UUID) (models.UserSettings, error) {
	query := `SELECT id, email, approval_mode FROM users WHERE id = $1`
	var settings models.UserSettings
	err := s.db.Pool().QueryRow(ctx, query, userID).Scan(
		&settings.ID, &settings.Email, &settings.ApprovalMode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UserSettings{}, ErrNotFound
		}
		return models.UserSettings{}, fmt.Errorf("loading user %s: %w", userID, err)
	}
	return settings, nil
}

// CreateStory inserts a fresh story row in processing state
func (s *Store) CreateStory(ctx context.Context, story models.Story) error {
	query := `
		INSERT INTO stories (id, kid_id, language, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := s.db.Pool().Exec(ctx, query, story.ID, story.KidID, story.Language, story.Status)
	if err != nil {
		return fmt.Errorf("creating story %s: %w", story.ID, err)
	}
	return nil
}

// GetStory loads a story row by id
func (s *Store) GetStory(ctx context.Context, id uuid.UUID) (models.Story, error) {
	query := `
		SELECT id, kid_id, title, content, image_description, cover_description,
		       audio_ref, cover_ref, language, status, error_message, created_at, updated_at
		FROM stories WHERE id = $1
	`
	var story models.Story
	err := s.db.Pool().QueryRow(ctx, query, id).Scan(
		&story.ID, &story.KidID, &story.Title, &story.Content, &story.ImageDescription,
		&story.CoverDescription, &story.AudioRef, &story.CoverRef, &story.Language,
		&story.Status, &story.ErrorMessage, &story.CreatedAt, &story.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Story{}, ErrNotFound
		}
		return models.Story{}, fmt.Errorf("loading story %s: %w", id, err)
	}
	return story, nil
}

// UpdateStory applies a partial update to a story row. Nil fields are left
// untouched; updated_at always advances.
func (s *Store) UpdateStory(ctx context.Context, id uuid.UUID, upd models.StoryUpdate) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Content != nil {
		add("content", *upd.Content)
	}
	if upd.ImageDescription != nil {
		add("image_description", *upd.ImageDescription)
	}
	if upd.CoverDescription != nil {
		add("cover_description", *upd.CoverDescription)
	}
	if upd.AudioRef != nil {
		add("audio_ref", *upd.AudioRef)
	}
	if upd.CoverRef != nil {
		add("cover_ref", *upd.CoverRef)
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if upd.ErrorMessage != nil {
		add("error_message", *upd.ErrorMessage)
	}

	query := fmt.Sprintf("UPDATE stories SET %s WHERE id = $1", strings.Join(sets, ", "))
	tag, err := s.db.Pool().Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating story %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveStoryInput records the raw vision description as an auxiliary input row
func (s *Store) SaveStoryInput(ctx context.Context, storyID uuid.UUID, description string) error {
	query := `INSERT INTO story_inputs (story_id, description) VALUES ($1, $2)`
	if _, err := s.db.Pool().Exec(ctx, query, storyID, description); err != nil {
		return fmt.Errorf("saving story input for %s: %w", storyID, err)
	}
	return nil
}
