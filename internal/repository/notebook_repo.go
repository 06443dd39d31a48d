package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"notebooklm-backend/internal/models"
)

type NotebookRepo struct {
	pool *pgxpool.Pool
}

func NewNotebookRepo(pool *pgxpool.Pool) *NotebookRepo {
	return &NotebookRepo{pool: pool}
}

const notebookColumns = "id, user_id, title, content, tags, created_at, updated_at"

func scanNotebook(row pgx.Row) (*models.Notebook, error) {
	n := &models.Notebook{}
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Tags, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n, nil
}

func collectNotebooks(rows pgx.Rows) ([]models.Notebook, error) {
	defer rows.Close()
	out := []models.Notebook{}
	for rows.Next() {
		n, err := scanNotebook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (r *NotebookRepo) Create(ctx context.Context, n *models.Notebook) error {
	return r.createWith(ctx, r.pool, n, nil, nil)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *NotebookRepo) createWith(ctx context.Context, q querier, n *models.Notebook, createdAt, updatedAt *time.Time) error {
	n.ID = uuid.New()
	n.Tags = models.NormalizeTags(n.Tags)

	query := `INSERT INTO notebooks (id, user_id, title, content, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), COALESCE($7, $6, NOW()))
		RETURNING created_at, updated_at`

	return q.QueryRow(ctx, query,
		n.ID, n.UserID, n.Title, n.Content, n.Tags, createdAt, updatedAt,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
}

// CreateWithNotes inserts a notebook and its first notes atomically.
func (r *NotebookRepo) CreateWithNotes(ctx context.Context, n *models.Notebook, notes []models.Note) ([]models.Note, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := r.createWith(ctx, tx, n, nil, nil); err != nil {
		return nil, err
	}
	created := make([]models.Note, 0, len(notes))
	for _, note := range notes {
		note.NotebookID = n.ID
		note.UserID = n.UserID
		if err := createNoteWith(ctx, tx, &note, nil, nil); err != nil {
			return nil, err
		}
		created = append(created, note)
	}
	return created, tx.Commit(ctx)
}

func (r *NotebookRepo) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Notebook, error) {
	query := "SELECT " + notebookColumns + " FROM notebooks WHERE id = $1 AND user_id = $2"
	return scanNotebook(r.pool.QueryRow(ctx, query, id, userID))
}

func (r *NotebookRepo) ListByUser(ctx context.Context, userID string) ([]models.Notebook, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+notebookColumns+" FROM notebooks WHERE user_id = $1 ORDER BY updated_at DESC", userID)
	if err != nil {
		return nil, err
	}
	return collectNotebooks(rows)
}

func (r *NotebookRepo) Update(ctx context.Context, n *models.Notebook) error {
	n.Tags = models.NormalizeTags(n.Tags)
	return r.pool.QueryRow(ctx,
		`UPDATE notebooks SET title = $1, content = $2, tags = $3, updated_at = NOW()
		 WHERE id = $4 AND user_id = $5 RETURNING updated_at`,
		n.Title, n.Content, n.Tags, n.ID, n.UserID,
	).Scan(&n.UpdatedAt)
}

func (r *NotebookRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM notebooks WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Search runs a case-insensitive substring match. field is "title",
// "content" or "" for both.
func (r *NotebookRepo) Search(ctx context.Context, userID, q, field string) ([]models.Notebook, error) {
	where := "(title ILIKE $2 OR content ILIKE $2)"
	switch field {
	case "title":
		where = "title ILIKE $2"
	case "content":
		where = "content ILIKE $2"
	}
	query := fmt.Sprintf("SELECT %s FROM notebooks WHERE user_id = $1 AND %s ORDER BY updated_at DESC", notebookColumns, where)

	rows, err := r.pool.Query(ctx, query, userID, "%"+escapeLike(q)+"%")
	if err != nil {
		return nil, err
	}
	return collectNotebooks(rows)
}

// SearchTags returns notebooks carrying at least one tag that contains q.
func (r *NotebookRepo) SearchTags(ctx context.Context, userID, q string) ([]models.Notebook, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+notebookColumns+` FROM notebooks
		 WHERE user_id = $1 AND EXISTS (SELECT 1 FROM unnest(tags) t WHERE t ILIKE $2)
		 ORDER BY updated_at DESC`,
		userID, "%"+escapeLike(q)+"%")
	if err != nil {
		return nil, err
	}
	return collectNotebooks(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Notes

const noteColumns = "id, notebook_id, user_id, title, content, created_at, updated_at"

func (r *NotebookRepo) CreateNote(ctx context.Context, note *models.Note) error {
	return createNoteWith(ctx, r.pool, note, nil, nil)
}

func createNoteWith(ctx context.Context, q querier, note *models.Note, createdAt, updatedAt *time.Time) error {
	note.ID = uuid.New()
	return q.QueryRow(ctx,
		`INSERT INTO notes (id, notebook_id, user_id, title, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), COALESCE($7, $6, NOW()))
		 RETURNING created_at, updated_at`,
		note.ID, note.NotebookID, note.UserID, note.Title, note.Content, createdAt, updatedAt,
	).Scan(&note.CreatedAt, &note.UpdatedAt)
}

// ListNotes returns the user's notes, newest first, optionally limited to
// one notebook.
func (r *NotebookRepo) ListNotes(ctx context.Context, userID string, notebookID *uuid.UUID) ([]models.Note, error) {
	query := "SELECT " + noteColumns + " FROM notes WHERE user_id = $1"
	args := []any{userID}
	if notebookID != nil {
		query += " AND notebook_id = $2"
		args = append(args, *notebookID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.NotebookID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Import creates notebooks and notes in one transaction. Notebooks are
// matched by exact title and reused; a note is skipped when its notebook
// already holds a note with the same title.
func (r *NotebookRepo) Import(ctx context.Context, userID string, req *models.ImportRequest) (*models.ImportResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	res := &models.ImportResult{}
	byTitle := map[string]uuid.UUID{}

	resolve := func(title string, src *models.ImportNotebook) (uuid.UUID, error) {
		if id, ok := byTitle[title]; ok {
			return id, nil
		}
		var id uuid.UUID
		err := tx.QueryRow(ctx,
			"SELECT id FROM notebooks WHERE user_id = $1 AND title = $2 ORDER BY created_at LIMIT 1",
			userID, title).Scan(&id)
		switch {
		case err == nil:
			res.NotebooksReused++
		case errors.Is(err, pgx.ErrNoRows):
			n := &models.Notebook{UserID: userID, Title: title}
			var createdAt, updatedAt *time.Time
			if src != nil {
				n.Content = src.Content
				n.Tags = src.Tags
				createdAt, updatedAt = src.CreatedAt, src.UpdatedAt
			}
			if err := r.createWith(ctx, tx, n, createdAt, updatedAt); err != nil {
				return uuid.Nil, err
			}
			id = n.ID
			res.NotebooksCreated++
		default:
			return uuid.Nil, err
		}
		byTitle[title] = id
		return id, nil
	}

	for i := range req.Notebooks {
		nb := &req.Notebooks[i]
		if _, err := resolve(nb.Title, nb); err != nil {
			return nil, fmt.Errorf("import notebook %q: %w", nb.Title, err)
		}
	}

	for _, in := range req.Notes {
		notebookID, err := resolve(in.NotebookTitle, nil)
		if err != nil {
			return nil, fmt.Errorf("import notebook %q: %w", in.NotebookTitle, err)
		}

		var exists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM notes WHERE notebook_id = $1 AND title = $2)",
			notebookID, in.Title).Scan(&exists); err != nil {
			return nil, err
		}
		if exists {
			res.NotesSkipped++
			continue
		}

		note := &models.Note{NotebookID: notebookID, UserID: userID, Title: in.Title, Content: in.Content}
		if err := createNoteWith(ctx, tx, note, in.CreatedAt, in.UpdatedAt); err != nil {
			return nil, fmt.Errorf("import note %q: %w", in.Title, err)
		}
		res.NotesCreated++
	}

	return commitImport(ctx, tx, res)
}

// committer is the part of pgx.Tx that finishes an import.
type committer interface {
	Commit(ctx context.Context) error
}

// commitImport returns res only once the transaction is durable.
func commitImport(ctx context.Context, tx committer, res *models.ImportResult) (*models.ImportResult, error) {
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return res, nil
}

// Analytics

func (r *NotebookRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM notebooks WHERE user_id = $1", userID).Scan(&n)
	return n, err
}

// ActivityByDay counts notebooks updated per day over the last days days.
func (r *NotebookRepo) ActivityByDay(ctx context.Context, userID string, days int) ([]models.DailyCount, error) {
	return dailyCounts(ctx, r.pool,
		`SELECT to_char(date_trunc('day', updated_at), 'YYYY-MM-DD') AS day, COUNT(*)
		 FROM notebooks WHERE user_id = $1 AND updated_at >= NOW() - make_interval(days => $2)
		 GROUP BY day ORDER BY day`, userID, days)
}

// WordTotals returns the total word count of the user's notes and the words
// written per day over the last days days.
func (r *NotebookRepo) WordTotals(ctx context.Context, userID string, days int) (int, []models.DailyCount, error) {
	const words = "COALESCE(array_length(regexp_split_to_array(btrim(content), '\\s+'), 1), 0) * (btrim(content) <> '')::int"

	var total int
	if err := r.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM("+words+"), 0) FROM notes WHERE user_id = $1", userID,
	).Scan(&total); err != nil {
		return 0, nil, err
	}

	growth, err := dailyCounts(ctx, r.pool,
		`SELECT to_char(date_trunc('day', created_at), 'YYYY-MM-DD') AS day, COALESCE(SUM(`+words+`), 0)
		 FROM notes WHERE user_id = $1 AND created_at >= NOW() - make_interval(days => $2)
		 GROUP BY day ORDER BY day`, userID, days)
	return total, growth, err
}

func dailyCounts(ctx context.Context, pool *pgxpool.Pool, query string, args ...any) ([]models.DailyCount, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.DailyCount{}
	for rows.Next() {
		var d models.DailyCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
