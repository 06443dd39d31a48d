package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"notebooklm-backend/internal/models"
)

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"plain":      "plain",
		"50%":        `50\%`,
		"snake_case": `snake\_case`,
		`back\slash`: `back\\slash`,
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Fatalf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

type fakeCommitter struct{ err error }

func (f fakeCommitter) Commit(context.Context) error { return f.err }

func TestCommitImport(t *testing.T) {
	res := &models.ImportResult{NotebooksCreated: 2, NotesCreated: 5}

	got, err := commitImport(context.Background(), fakeCommitter{}, res)
	if err != nil || got != res {
		t.Fatalf("commitImport() = %v, %v; want the result and no error", got, err)
	}

	commitErr := errors.New("serialization failure")
	got, err = commitImport(context.Background(), fakeCommitter{err: commitErr}, res)
	if !errors.Is(err, commitErr) {
		t.Fatalf("commitImport() error = %v, want %v", err, commitErr)
	}
	if got != nil {
		t.Fatalf("commitImport() returned %+v after a failed commit", got)
	}
}

func TestDocumentFilterClause(t *testing.T) {
	folder := uuid.New()

	where, args := documentFilterClause("user-1", models.DocumentFilter{})
	if where != "WHERE user_id = $1" || len(args) != 1 {
		t.Fatalf("empty filter = %q %v", where, args)
	}

	where, args = documentFilterClause("user-1", models.DocumentFilter{FolderID: &folder, Search: "50%", Tag: "  Biology "})
	want := "WHERE user_id = $1 AND folder_id = $2 AND (title ILIKE $3 OR content ILIKE $3) AND $4 = ANY(tags)"
	if where != want {
		t.Fatalf("where = %q, want %q", where, want)
	}
	if len(args) != 4 || args[1] != folder || args[2] != `%50\%%` || args[3] != "biology" {
		t.Fatalf("args = %v", args)
	}

	where, args = documentFilterClause("user-1", models.DocumentFilter{Tag: "   "})
	if where != "WHERE user_id = $1" || len(args) != 1 {
		t.Fatalf("blank tag filter = %q %v", where, args)
	}
}
