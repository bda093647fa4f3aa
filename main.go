package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"

	"github.com/sawtline/callsight/config"
	"github.com/sawtline/callsight/db"
	"github.com/sawtline/callsight/handlers"
	"github.com/sawtline/callsight/logging"
	"github.com/sawtline/callsight/server"
	"github.com/sawtline/callsight/services/analysis_service"
	"github.com/sawtline/callsight/services/llm_service"
	"github.com/sawtline/callsight/services/rag_service"
	"github.com/sawtline/callsight/services/storage_service"
	"github.com/sawtline/callsight/services/transcription_service"
)

func main() {
	cfg := config.Load()

	logger, err := initLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	tokenizer, err := rag_service.NewTokenizer(cfg.Tokenizer)
	if err != nil {
		log.Fatalf("Failed to initialize tokenizer: %v", err)
	}

	chunker, err := rag_service.NewChunker(tokenizer, cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("Failed to initialize chunker: %v", err)
	}

	extractor := rag_service.NewDocumentExtractor(logger)
	embedder := rag_service.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIAPIBase, cfg.EmbeddingModel, logger)

	store := initStore(cfg, embedder, logger)

	llm := llm_service.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIAPIBase, cfg.GenerationModel, cfg.Temperature, cfg.MaxTokens, logger)
	rag := rag_service.NewService(store, llm, cfg.MatchThreshold, logger)
	analysis := analysis_service.NewService(llm, logger)
	transcriber := transcription_service.NewService(cfg.ElevenLabsAPIKey, "", logger)

	uploader, err := storage_service.NewS3Uploader(context.Background(), cfg.StorageBucket, cfg.StorageRegion, logger)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	r := server.SetupRoutes(
		handlers.NewUploadDocumentHandler(extractor, chunker, embedder, store, uploader, logger),
		handlers.NewQueryDocumentsHandler(rag, logger),
		handlers.NewTranscribeHandler(transcriber, logger),
		handlers.NewAnalysisHandler(analysis, logger),
	)
	n := setupNegroni(r)

	serverCfg := server.Config{
		Domains:      cfg.Domains,
		CertCacheDir: cfg.CertCacheDir,
		HTTPPort:     cfg.HTTPPort,
		HTTPSPort:    cfg.HTTPSPort,
	}

	if cfg.Environment == "production" {
		server.ServeProduction(n, serverCfg)
	} else {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      n,
			IdleTimeout:  time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 300 * time.Second,
		}
		server.ServeDevelopment(srv)
	}
}

func initStore(cfg config.Config, embedder rag_service.Embedder, logger *slog.Logger) rag_service.ChunkStore {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory chunk store; documents will not survive restarts")
		return rag_service.NewMemoryStore(embedder)
	}

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}

	ctx := context.Background()
	if err := db.Migrate(ctx, pool, rag_service.EmbeddingDimension); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := rag_service.NewIndexManager(pool, logger).ReindexIfNeeded(ctx); err != nil {
		logger.Error("Failed to maintain vector index",
			slog.String("error", err.Error()))
	}

	return rag_service.NewPostgresStore(pool, embedder, logger)
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()

	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	n.UseHandler(r)
	return n
}

func initLogger() (*slog.Logger, error) {
	logDir := filepath.Join("logs", "callsight")

	fileHandler, err := logging.NewDailyFileHandler(logDir, "callsight", &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	if err != nil {
		return nil, err
	}

	return slog.New(fileHandler), nil
}
