package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"notebooklm-backend/internal/ai"
	"notebooklm-backend/internal/database"
	"notebooklm-backend/internal/services"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "notebookctl",
		Short:        "NotebookLM backend operator tools",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newPromptCmd(), newExtractCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	var (
		databaseURL string
		dir         string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return errors.New("database url is required (--database-url or DATABASE_URL)")
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()
			zap.ReplaceGlobals(logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			pool, err := database.NewPostgresPool(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := database.RunMigrations(ctx, pool, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	cmd.Flags().StringVarP(&dir, "dir", "d", envOr("MIGRATIONS_DIR", "migrations"), "directory holding the .sql files")
	return cmd
}

func newPromptCmd() *cobra.Command {
	var (
		featureType string
		file        string
		opts        ai.Options
	)

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt an AI feature would send",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			feature, ok := ai.ParseFeature(featureType)
			if !ok {
				return fmt.Errorf("unknown feature %q (known: %s)", featureType, featureList())
			}

			content, err := readContent(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			prompt, err := ai.BuildPrompt(feature, content, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), prompt)
			return nil
		},
	}

	cmd.Flags().StringVarP(&featureType, "type", "t", "", "feature type, e.g. summarize")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read content from this file instead of stdin")
	cmd.Flags().StringVar(&opts.TargetLanguage, "target-language", "", "translate target language")
	cmd.Flags().StringVar(&opts.Type, "summary-type", "", "advanced-summarize type")
	cmd.Flags().StringVar(&opts.Length, "length", "", "advanced-summarize length")
	cmd.MarkFlagRequired("type")
	return cmd
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text extracted from a PDF, DOCX or TXT file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := services.NewFileExtractService().ExtractTextFromPath(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func readContent(stdin io.Reader, file string) (string, error) {
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func featureList() string {
	names := make([]string, 0)
	for _, f := range ai.Features() {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
