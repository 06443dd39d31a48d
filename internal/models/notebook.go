package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Notebook struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Note struct {
	ID         uuid.UUID `json:"id"`
	NotebookID uuid.UUID `json:"notebook_id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type NotebookWithNotes struct {
	Notebook
	Notes []Note `json:"notes"`
}

type CreateNotebookRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	// Summary seeds a first note when Notes is empty.
	Summary string              `json:"summary"`
	Notes   []CreateNoteRequest `json:"notes"`
}

type UpdateNotebookRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
}

type CreateNoteRequest struct {
	NotebookID string `json:"notebookId"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

type ImportRequest struct {
	Notebooks []ImportNotebook `json:"notebooks"`
	Notes     []ImportNote     `json:"notes"`
}

type ImportNotebook struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	CreatedAt *time.Time `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

type ImportNote struct {
	Title         string     `json:"title"`
	NotebookTitle string     `json:"notebookTitle"`
	Content       string     `json:"content"`
	CreatedAt     *time.Time `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt"`
}

type ImportResult struct {
	NotebooksCreated int `json:"notebooks_created"`
	NotebooksReused  int `json:"notebooks_reused"`
	NotesCreated     int `json:"notes_created"`
	NotesSkipped     int `json:"notes_skipped"`
}

type TagGroup struct {
	Name      string     `json:"name"`
	Notebooks []Notebook `json:"notebooks"`
}

// NormalizeTags trims and lowercases tags, dropping empties and repeats.
// NormalizeTag is the stored form of a single tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = NormalizeTag(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
