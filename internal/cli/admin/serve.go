package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/voltaic-labs/examdex/internal/api/handlers"
	"github.com/voltaic-labs/examdex/internal/config"
	"github.com/voltaic-labs/examdex/internal/database"
	"github.com/voltaic-labs/examdex/internal/jobs"
	"github.com/voltaic-labs/examdex/internal/openai"
	"github.com/voltaic-labs/examdex/internal/repository"
	"github.com/voltaic-labs/examdex/internal/retrieval"
	"github.com/voltaic-labs/examdex/internal/server"
	"github.com/voltaic-labs/examdex/internal/service"
	"github.com/voltaic-labs/examdex/internal/storage"
	"github.com/voltaic-labs/examdex/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the examdex API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	chunkRepo := repository.NewChunkRepository(pool)
	questionLogRepo := repository.NewQuestionLogRepository(pool)

	engine := retrieval.NewEngine(chunkRepo, chunkRepo, chunkRepo)

	var openaiClient *openai.Client
	var backfillWorker *jobs.Worker
	if cfg.HasOpenAI() {
		openaiClient = openai.NewClient(cfg.OpenAIAPIKey)

		if cfg.BackfillIntervalSec > 0 {
			processor := jobs.NewBackfillWorker(chunkRepo, openaiClient)
			backfillWorker = jobs.NewWorker("embedding-backfill", processor, time.Duration(cfg.BackfillIntervalSec)*time.Second)
			go backfillWorker.Start(ctx)
			log.Println("embedding backfill worker started")
		}
	} else {
		log.Println("OPENAI_API_KEY not set: answering and semantic search disabled")
	}

	var pipeline *service.Pipeline
	if openaiClient != nil {
		pipeline = service.NewPipeline(engine, openaiClient, openaiClient).
			WithOCR(openaiClient).
			WithQuestionLog(questionLogRepo)
	} else {
		pipeline = service.NewPipeline(engine, nil, nil).WithQuestionLog(questionLogRepo)
	}

	var imageStore handlers.ImageStore
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		imageStore = s3Client
	}

	var searchEmbedder handlers.QueryEmbedder
	if openaiClient != nil {
		searchEmbedder = openaiClient
	} else {
		searchEmbedder = noEmbedder{}
	}

	router := server.NewRouter(server.RouterConfig{
		APIKeys:       cfg.APIKeys,
		AskHandler:    handlers.NewAskHandler(pipeline),
		SearchHandler: handlers.NewSearchHandler(engine, searchEmbedder),
		VerifyHandler: handlers.NewVerifyHandler(),
		ImageHandler:  handlers.NewImageHandler(imageStore),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if backfillWorker != nil {
		backfillWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type noEmbedder struct{}

func (noEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("embedding backend not configured: OPENAI_API_KEY required")
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	log.Printf("migrations applied (version: %d, dirty: %v)", version, dirty)

	return nil
}
