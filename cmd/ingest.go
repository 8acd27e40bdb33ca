/*
Copyright © 2025 lacuradellauto
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lacuradellauto/support-rag-be/config"
	"github.com/lacuradellauto/support-rag-be/database"
	"github.com/lacuradellauto/support-rag-be/logger"
	"github.com/lacuradellauto/support-rag-be/service"
	"github.com/lacuradellauto/support-rag-be/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Sections shorter than this carry no useful signal and are skipped,
// matching the minimum content length enforced by the scraper.
const minSectionLength = 50

const embedBatchSize = 50

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load processed tickets and guides into the vector database",
	Long: `Reads the ETL's processed_tickets.json and the scraper's guides.json
from the data directory, embeds every document and batch-inserts them
into Weaviate. Use --reset to drop and recreate both collections first.`,
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

		ticketsFile, _ := cmd.Flags().GetString("tickets")
		guidesFile, _ := cmd.Flags().GetString("guides")
		reset, _ := cmd.Flags().GetBool("reset")
		if ticketsFile == "" {
			ticketsFile = filepath.Join(cfg.DataDir, "processed", "processed_tickets.json")
		}
		if guidesFile == "" {
			guidesFile = filepath.Join(cfg.DataDir, "guides", "guides.json")
		}

		weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
		if err != nil {
			zapLogger.Fatal("failed to connect to Weaviate", zap.Error(err))
		}
		embedder := service.NewOpenAIEmbeddingService(cfg.OllamaBaseURL+"/v1", "ollama", cfg.EmbeddingModel)

		ctx := context.Background()
		if reset {
			zapLogger.Warn("resetting collections, all existing data will be deleted")
			if err := weaviateDb.Reset(ctx); err != nil {
				zapLogger.Fatal("reset failed", zap.Error(err))
			}
		}

		ticketDocs, err := loadTicketDocuments(ticketsFile)
		if err != nil {
			zapLogger.Fatal("failed to load tickets", zap.Error(err))
		}
		guideDocs, err := loadGuideDocuments(guidesFile)
		if err != nil {
			zapLogger.Fatal("failed to load guides", zap.Error(err))
		}
		zapLogger.Info("ingestion input loaded",
			zap.Int("tickets", len(ticketDocs)),
			zap.Int("guide_sections", len(guideDocs)))

		docs := append(ticketDocs, guideDocs...)
		if err := embedAndInsert(ctx, weaviateDb, embedder, docs, zapLogger); err != nil {
			zapLogger.Fatal("ingestion failed", zap.Error(err))
		}
		zapLogger.Info("ingestion complete", zap.Int("documents", len(docs)))
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().String("tickets", "", "path to processed_tickets.json (default <data_dir>/processed/processed_tickets.json)")
	ingestCmd.Flags().String("guides", "", "path to guides.json (default <data_dir>/guides/guides.json)")
	ingestCmd.Flags().Bool("reset", false, "drop and recreate both collections before inserting")
}

func loadTicketDocuments(path string) ([]types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tickets []types.TicketRecord
	if err := json.Unmarshal(data, &tickets); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	now := time.Now().Unix()
	var docs []types.Document
	for _, ticket := range tickets {
		if ticket.SearchableText == "" {
			continue
		}
		metadata := map[string]string{
			"ticket_id": strconv.FormatInt(ticket.TicketID, 10),
			"subject":   truncate(ticket.Subject, 500),
			"type":      "ticket",
		}
		setIfNotEmpty(metadata, "status", ticket.Status)
		setIfNotEmpty(metadata, "priority", ticket.Priority)
		setIfNotEmpty(metadata, "created_at", ticket.CreatedAt)
		setIfNotEmpty(metadata, "updated_at", ticket.UpdatedAt)
		if ticket.CommentCount > 0 {
			metadata["comment_count"] = strconv.Itoa(ticket.CommentCount)
		}

		docs = append(docs, types.Document{
			ID:         fmt.Sprintf("ticket_%d", ticket.TicketID),
			Content:    ticket.SearchableText,
			Metadata:   metadata,
			Collection: types.CollectionTickets,
			CreatedAt:  now,
		})
	}
	return docs, nil
}

func loadGuideDocuments(path string) ([]types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var guides []types.GuideRecord
	if err := json.Unmarshal(data, &guides); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	now := time.Now().Unix()
	var docs []types.Document
	for _, guide := range guides {
		for idx, section := range guide.Sections {
			if len(section.Content) < minSectionLength {
				continue
			}
			metadata := map[string]string{
				"guide_number":  guide.GuideNumber,
				"guide_title":   truncate(guide.Title, 500),
				"section_title": truncate(section.Title, 500),
				"section_index": strconv.Itoa(idx),
				"type":          "guide",
			}
			setIfNotEmpty(metadata, "url", guide.URL)
			setIfNotEmpty(metadata, "anchor_id", section.AnchorID)

			docs = append(docs, types.Document{
				ID:         fmt.Sprintf("guide_%s_%d", guide.GuideNumber, idx),
				Content:    section.Title + "\n\n" + section.Content,
				Metadata:   metadata,
				Collection: types.CollectionGuides,
				CreatedAt:  now,
			})
		}
	}
	return docs, nil
}

func embedAndInsert(ctx context.Context, db database.VectorDatabase, embedder *service.OpenAIEmbeddingService, docs []types.Document, zapLogger *zap.Logger) error {
	for i := 0; i < len(docs); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[i:end]

		texts := make([]string, len(batch))
		for j, doc := range batch {
			texts[j] = doc.Content
		}
		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		if err := db.BatchInsertDocuments(ctx, batch, vectors); err != nil {
			return err
		}
		zapLogger.Info("inserted batch", zap.Int("from", i), zap.Int("to", end), zap.Int("total", len(docs)))
	}
	return nil
}

func setIfNotEmpty(metadata map[string]string, key, value string) {
	if value != "" {
		metadata[key] = value
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
