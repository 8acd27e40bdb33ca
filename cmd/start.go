/*
Copyright © 2025 lacuradellauto
*/
package cmd

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/lacuradellauto/support-rag-be/config"
	"github.com/lacuradellauto/support-rag-be/database"
	"github.com/lacuradellauto/support-rag-be/handler"
	"github.com/lacuradellauto/support-rag-be/logger"
	"github.com/lacuradellauto/support-rag-be/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the answer server",
	Long:  `Starts the HTTP server that drafts support replies from the knowledge base.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		zapLogger, err := logger.New(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			log.Fatalf("Failed to build logger: %v", err)
		}
		defer zapLogger.Sync()

		backend, _ := cmd.Flags().GetString("backend")

		weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
		if err != nil {
			zapLogger.Fatal("failed to connect to Weaviate", zap.Error(err))
		}

		embedder := service.NewOpenAIEmbeddingService(cfg.OllamaBaseURL+"/v1", "ollama", cfg.EmbeddingModel)

		var generator service.Generator
		switch backend {
		case "gemini":
			generator, err = service.NewGeminiService(cfg.GeminiAPIKeys, cfg.Model)
			if err != nil {
				zapLogger.Fatal("failed to initialize gemini backend", zap.Error(err))
			}
		default:
			generator = service.NewOllamaService(cfg.OllamaBaseURL, cfg.Model)
		}

		cache := service.NewMemoryCache(cfg.CacheTTL)
		prompts := service.NewPromptBuilder(cfg.MaxContextChars, cfg.NumCtx)
		retrieval := service.NewRetrievalService(weaviateDb, embedder, zapLogger)
		rag := service.NewRAGService(retrieval, generator, cache, prompts, service.RAGConfig{
			NumCtx:          cfg.NumCtx,
			GenerateTimeout: cfg.GenerateTimeout,
		}, zapLogger)

		wsService := service.NewWebSocketService(rag, zapLogger)

		answerHandler := handler.NewAnswerHandler(rag, cfg.DefaultNTickets, cfg.DefaultNGuides)
		searchHandler := handler.NewSearchHandler(retrieval, cfg.DefaultNTickets, cfg.DefaultNGuides)
		statusHandler := handler.NewStatusHandler(rag)
		router := handler.NewRouter(answerHandler, searchHandler, statusHandler, wsService.HandleAnswer)

		server := &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: router,
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			zapLogger.Info("starting server",
				zap.String("port", cfg.Port),
				zap.String("model", cfg.Model),
				zap.String("backend", backend))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				zapLogger.Fatal("server error", zap.Error(err))
			}
		}()

		<-ctx.Done()
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Warn("shutdown incomplete", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().String("backend", "ollama", "generation backend (ollama or gemini)")
}
