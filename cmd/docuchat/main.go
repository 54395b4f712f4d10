package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms/openai"

	"docuchat/internal/api"
	"docuchat/internal/chunker"
	"docuchat/internal/config"
	"docuchat/internal/embedding"
	"docuchat/internal/generation"
	"docuchat/internal/ingest"
	"docuchat/internal/retrieval"
	"docuchat/internal/vectorstore"
	chromemstore "docuchat/internal/vectorstore/chromem"
	pgstore "docuchat/internal/vectorstore/postgres"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "docuchat",
		Short:         "Document question answering, summaries, and quizzes over RAG",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "./configs/config.yaml", "Path to the config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newIngestCmd(&configPath))
	root.AddCommand(newAskCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, err := buildServices(*configPath)
			if err != nil {
				return err
			}

			handler := api.NewHandler(svc.ingest, svc.orchestrator)
			router := api.NewRouter(handler, cfg.Server.CORSOrigins)

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			log.Info().Int("port", cfg.Server.Port).Msg("server listening")
			return srv.ListenAndServe()
		},
	}
}

func newIngestCmd(configPath *string) *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a document file into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if filePath == "" {
				return fmt.Errorf("please provide a document file using the --file flag")
			}
			_, svc, err := buildServices(*configPath)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			result, err := svc.ingest.Ingest(cmd.Context(), filepath.Base(filePath), data)
			if err != nil {
				return err
			}
			fmt.Printf("docId: %s\nchunks: %d\n", result.DocID, result.Chunks)
			return nil
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "Path to the document file")
	return cmd
}

func newAskCmd(configPath *string) *cobra.Command {
	var (
		docID    string
		question string
		language string
	)

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask a question against an ingested document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if docID == "" || question == "" {
				return fmt.Errorf("please provide both --doc and --question")
			}
			_, svc, err := buildServices(*configPath)
			if err != nil {
				return err
			}

			answer, err := svc.orchestrator.AnswerQuestion(cmd.Context(), docID, question, language)
			if err != nil {
				return err
			}

			fmt.Printf("%s\n\n", answer.Answer)
			for i, src := range answer.Sources {
				fmt.Printf("Source %d (score %.3f, page %d)\n", i+1, src.Score, src.Page)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&docID, "doc", "", "Document id returned by ingest")
	cmd.Flags().StringVar(&question, "question", "", "Question to be answered")
	cmd.Flags().StringVar(&language, "language", "en", "Answer language code")
	return cmd
}

type services struct {
	ingest       *ingest.Service
	orchestrator *generation.Orchestrator
}

// buildServices wires every component explicitly from config; nothing is a
// process-wide singleton.
func buildServices(configPath string) (*config.Config, *services, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	embedder := embedding.NewClient(&cfg.Embedding)

	store, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.Inference.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Inference.Key, "Bearer ")),
		openai.WithModel(cfg.Inference.ChatModel),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing LLM: %w", err)
	}

	retriever := retrieval.NewService(embedder, store)
	orchestrator := generation.NewOrchestrator(llm, retriever, generation.TaskModels{
		Chat:    cfg.Inference.ChatModel,
		Summary: cfg.Inference.SummaryModel,
		Quiz:    cfg.Inference.QuizModel,
	})

	splitter := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	ingestSvc := ingest.NewService(splitter, embedder, store)

	return cfg, &services{ingest: ingestSvc, orchestrator: orchestrator}, nil
}

func buildStore(cfg *config.Config) (vectorstore.Store, error) {
	switch cfg.Store.Type {
	case "chromem":
		return chromemstore.New(cfg.Store.Path, cfg.Embedding.Dimensions)
	case "postgres":
		db, err := pgstore.Connect(cfg.Store.DSN, cfg.Store.Password, cfg.Store.Debug)
		if err != nil {
			return nil, err
		}
		return pgstore.New(db, cfg.Embedding.Dimensions)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Store.Type)
	}
}
