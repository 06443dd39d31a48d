package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"notebooklm-backend/internal/models"
)

// ErrFolderHasChildren is returned when deleting a folder that still has subfolders.
var ErrFolderHasChildren = errors.New("folder has subfolders")

type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

const documentColumns = "id, user_id, folder_id, title, content, summary, tags, status, file_key, mime_type, created_at, updated_at"

func scanDocument(row pgx.Row) (*models.Document, error) {
	d := &models.Document{}
	err := row.Scan(&d.ID, &d.UserID, &d.FolderID, &d.Title, &d.Content, &d.Summary,
		&d.Tags, &d.Status, &d.FileKey, &d.MimeType, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d, nil
}

func (r *DocumentRepo) Create(ctx context.Context, d *models.Document) error {
	d.ID = uuid.New()
	d.Tags = models.NormalizeTags(d.Tags)
	if d.Status == "" {
		d.Status = models.DocumentReady
	}

	query := `INSERT INTO documents (id, user_id, folder_id, title, content, tags, status, file_key, mime_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		d.ID, d.UserID, d.FolderID, d.Title, d.Content, d.Tags, d.Status, d.FileKey, d.MimeType,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *DocumentRepo) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Document, error) {
	query := "SELECT " + documentColumns + " FROM documents WHERE id = $1 AND user_id = $2"
	return scanDocument(r.pool.QueryRow(ctx, query, id, userID))
}

// List returns the user's documents, newest first.
func (r *DocumentRepo) List(ctx context.Context, userID string, f models.DocumentFilter) ([]models.Document, error) {
	where, args := documentFilterClause(userID, f)

	rows, err := r.pool.Query(ctx,
		"SELECT "+documentColumns+" FROM documents "+where+" ORDER BY created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// documentFilterClause builds the WHERE clause and arguments for List.
// Stored tags are normalized, so the tag filter is too.
func documentFilterClause(userID string, f models.DocumentFilter) (string, []any) {
	args := []any{userID}
	argIdx := 2
	where := "WHERE user_id = $1"

	if f.FolderID != nil {
		where += fmt.Sprintf(" AND folder_id = $%d", argIdx)
		args = append(args, *f.FolderID)
		argIdx++
	}
	if f.Search != "" {
		where += fmt.Sprintf(" AND (title ILIKE $%d OR content ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+escapeLike(f.Search)+"%")
		argIdx++
	}
	if tag := models.NormalizeTag(f.Tag); tag != "" {
		where += fmt.Sprintf(" AND $%d = ANY(tags)", argIdx)
		args = append(args, tag)
	}
	return where, args
}

func (r *DocumentRepo) Update(ctx context.Context, d *models.Document) error {
	d.Tags = models.NormalizeTags(d.Tags)
	return r.pool.QueryRow(ctx,
		`UPDATE documents SET title = $1, content = $2, folder_id = $3, tags = $4, updated_at = NOW()
		 WHERE id = $5 AND user_id = $6 RETURNING updated_at`,
		d.Title, d.Content, d.FolderID, d.Tags, d.ID, d.UserID,
	).Scan(&d.UpdatedAt)
}

// SetExtracted stores extracted text and marks the document ready.
func (r *DocumentRepo) SetExtracted(ctx context.Context, id uuid.UUID, content string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE documents SET content = $1, status = $2, updated_at = NOW() WHERE id = $3",
		content, models.DocumentReady, id)
	return err
}

func (r *DocumentRepo) SetEnrichment(ctx context.Context, id uuid.UUID, summary string, tags []string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE documents SET summary = $1, tags = $2, updated_at = NOW() WHERE id = $3",
		summary, models.NormalizeTags(tags), id)
	return err
}

func (r *DocumentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, "UPDATE documents SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	return err
}

func (r *DocumentRepo) Delete(ctx context.Context, userID string, id uuid.UUID) (*models.Document, error) {
	d, err := scanDocument(r.pool.QueryRow(ctx,
		"DELETE FROM documents WHERE id = $1 AND user_id = $2 RETURNING "+documentColumns, id, userID))
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Folders

func (r *DocumentRepo) CreateFolder(ctx context.Context, f *models.Folder) error {
	f.ID = uuid.New()
	return r.pool.QueryRow(ctx,
		`INSERT INTO folders (id, user_id, name, parent_id) VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		f.ID, f.UserID, f.Name, f.ParentID,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
}

func (r *DocumentRepo) GetFolder(ctx context.Context, userID string, id uuid.UUID) (*models.Folder, error) {
	f := &models.Folder{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, user_id, name, parent_id, created_at, updated_at FROM folders WHERE id = $1 AND user_id = $2",
		id, userID,
	).Scan(&f.ID, &f.UserID, &f.Name, &f.ParentID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *DocumentRepo) ListFolders(ctx context.Context, userID string) ([]models.Folder, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, user_id, name, parent_id, created_at, updated_at FROM folders WHERE user_id = $1 ORDER BY name", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		var f models.Folder
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.ParentID, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (r *DocumentRepo) UpdateFolder(ctx context.Context, f *models.Folder) error {
	return r.pool.QueryRow(ctx,
		`UPDATE folders SET name = $1, parent_id = $2, updated_at = NOW()
		 WHERE id = $3 AND user_id = $4 RETURNING created_at, updated_at`,
		f.Name, f.ParentID, f.ID, f.UserID,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
}

// DeleteFolder refuses to remove folders with subfolders. Documents inside
// fall back to the root.
func (r *DocumentRepo) DeleteFolder(ctx context.Context, userID string, id uuid.UUID) error {
	var children int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM folders WHERE parent_id = $1 AND user_id = $2", id, userID,
	).Scan(&children); err != nil {
		return err
	}
	if children > 0 {
		return ErrFolderHasChildren
	}

	tag, err := r.pool.Exec(ctx, "DELETE FROM folders WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
