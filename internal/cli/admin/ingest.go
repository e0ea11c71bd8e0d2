package admin

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voltaic-labs/examdex/internal/config"
	"github.com/voltaic-labs/examdex/internal/database"
	"github.com/voltaic-labs/examdex/internal/domain"
	"github.com/voltaic-labs/examdex/internal/openai"
	"github.com/voltaic-labs/examdex/internal/repository"
	"github.com/voltaic-labs/examdex/internal/service"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <path>",
		Short: "Ingest reference documents",
		Long:  "Chunk, tag, and embed reference documents from a file or directory of .md/.txt files",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().String("category", "", "Force a category instead of classifying the content")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	categoryFlag, _ := cmd.Flags().GetString("category")
	category := domain.CategoryID(categoryFlag)
	if categoryFlag != "" && !domain.ValidCategory(category) {
		return fmt.Errorf("unknown category %q", categoryFlag)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var embedder service.EmbeddingClient
	if cfg.HasOpenAI() {
		embedder = openai.NewClient(cfg.OpenAIAPIKey)
	} else {
		log.Println("OPENAI_API_KEY not set: chunks will be stored without embeddings")
	}

	svc := service.NewIngestService(
		repository.NewDocumentRepository(pool),
		repository.NewChunkRepository(pool),
		embedder,
	)

	paths, err := collectDocumentPaths(args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no .md or .txt files found under %s", args[0])
	}

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		result, err := svc.Ingest(ctx, service.IngestInput{
			Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Source:   path,
			Content:  string(content),
			Category: category,
		})
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}

		log.Printf("ingested %s: document %s, %d chunks (%d embedded)",
			path, result.DocumentID, result.ChunkCount, result.Embedded)
	}

	return nil
}

func collectDocumentPaths(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}

	if !info.IsDir() {
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".txt":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return paths, nil
}
