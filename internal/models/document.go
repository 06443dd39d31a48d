package models

import (
	"time"

	"github.com/google/uuid"
)

type Folder struct {
	ID        uuid.UUID  `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Document struct {
	ID        uuid.UUID  `json:"id"`
	UserID    string     `json:"user_id"`
	FolderID  *uuid.UUID `json:"folder_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Summary   *string    `json:"summary"`
	Tags      []string   `json:"tags"`
	Status    string     `json:"status"` // "ready" | "processing" | "failed"
	FileKey   *string    `json:"file_key"`
	MimeType  *string    `json:"mime_type"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

const (
	DocumentReady      = "ready"
	DocumentProcessing = "processing"
	DocumentFailed     = "failed"
)

type DocumentFilter struct {
	FolderID *uuid.UUID
	Search   string
	Tag      string
}

type CreateFolderRequest struct {
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parentId"`
}

type UpdateFolderRequest struct {
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parentId"`
}

type CreateDocumentRequest struct {
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	FolderID *uuid.UUID `json:"folderId"`
	Tags     []string   `json:"tags"`
}

type UpdateDocumentRequest struct {
	Title    *string    `json:"title"`
	Content  *string    `json:"content"`
	FolderID *uuid.UUID `json:"folderId"`
	Tags     []string   `json:"tags"`
}

type ParsedFile struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UploadAccepted struct {
	DocumentID uuid.UUID `json:"document_id"`
	JobID      uuid.UUID `json:"job_id"`
}
