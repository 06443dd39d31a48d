package services

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"

	"notebooklm-backend/internal/models"
)

const (
	ExportMarkdown = "markdown"
	ExportHTML     = "html"
)

// ExportService renders a notebook and its notes as a standalone document.
type ExportService struct {
	md goldmark.Markdown
}

func NewExportService() *ExportService {
	return &ExportService{md: goldmark.New()}
}

func (s *ExportService) Markdown(nb *models.Notebook, notes []models.Note) string {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(singleLine(nb.Title))
	b.WriteString("\n\n")

	if len(nb.Tags) > 0 {
		tags := make([]string, len(nb.Tags))
		for i, t := range nb.Tags {
			tags[i] = "`" + strings.ReplaceAll(t, "`", "") + "`"
		}
		b.WriteString("Tags: ")
		b.WriteString(strings.Join(tags, ", "))
		b.WriteString("\n\n")
	}

	if content := strings.TrimSpace(nb.Content); content != "" {
		b.WriteString(content)
		b.WriteString("\n\n")
	}

	if len(notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, n := range notes {
			b.WriteString("### ")
			b.WriteString(singleLine(n.Title))
			b.WriteString("\n\n")
			if content := strings.TrimSpace(n.Content); content != "" {
				b.WriteString(content)
				b.WriteString("\n\n")
			}
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// HTML renders the markdown export. Raw HTML in notes is not passed through.
func (s *ExportService) HTML(nb *models.Notebook, notes []models.Note) (string, error) {
	var body bytes.Buffer
	if err := s.md.Convert([]byte(s.Markdown(nb, notes)), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(nb.Title))
	b.WriteString("</title>\n</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

func singleLine(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, "\r", " "), "\n", " "))
	if s == "" {
		return "Untitled"
	}
	return s
}
