package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("object not found")

// Store keeps uploaded file bytes until the extraction job has read them.
type Store interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Type      string // "local" | "s3"
	LocalPath string
	S3        S3Config
}

func New(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "local":
		return NewLocalStore(cfg.LocalPath)
	case "s3":
		return NewS3Store(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// UploadKey builds the object key for a user's upload. Only the extension
// of the client-supplied name is kept.
func UploadKey(userID string, id uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, `\`, "/"))))
	return fmt.Sprintf("uploads/%s/%s%s", sanitizeSegment(userID), id.String(), ext)
}

func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.', r == '@':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 || strings.Trim(b.String(), ".") == "" {
		return "_"
	}
	return b.String()
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("key is required")
	}
	cleaned := path.Clean(key)
	if cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return cleaned, nil
}
