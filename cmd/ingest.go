package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipmine/clipmine/internal/config"
	"github.com/clipmine/clipmine/internal/model"
	"github.com/clipmine/clipmine/internal/repository/dedup"
	"github.com/clipmine/clipmine/internal/repository/searchindex"
	"github.com/clipmine/clipmine/internal/repository/segment"
	"github.com/clipmine/clipmine/internal/repository/video"
	"github.com/clipmine/clipmine/internal/service"
)

// ingestCmd fetches a transcript and files it into the review queue
var ingestCmd = &cobra.Command{
	Use:   "ingest [VIDEO_ID]",
	Short: "Fetch and archive a video transcript",
	Long: `Fetch a video's transcript with yt-dlp, validate it, and file the video
into the review queue. Already-seen video IDs are skipped unless --force
is given, which re-fetches and supersedes the stored transcript.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		videoID := args[0]
		force, _ := cmd.Flags().GetBool("force")

		// Load configuration
		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Timeout covers the fetch plus persistence
		ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout()+60*time.Second)
		defer cancel()

		// Create database connection
		dbPool, err := config.NewDatabasePool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbPool.Close()

		// Create repositories
		videoRepo := video.NewRepository(dbPool)
		segmentRepo := segment.NewRepository(dbPool)
		ledger := dedup.NewLedger(dbPool)
		indexRepo := searchindex.NewRepository(dbPool)

		// Create services
		logger := newLogger()
		indexer := service.NewIndexerService(videoRepo, segmentRepo, indexRepo, logger)
		policy := service.NewManualApprovalPolicy()
		if cfg.AutoApprove {
			policy = service.NewAutoApprovalPolicy()
		}
		ingestService := service.NewIngestService(
			videoRepo,
			segmentRepo,
			ledger,
			indexer,
			service.NewYtdlpSupplier(service.NewCmdRunner(), nil),
			policy,
			service.NewKeyedMutex(),
			cfg.FetchTimeout(),
			logger,
		)

		// Run the pipeline
		result, err := ingestService.Ingest(ctx, videoID, force)
		if err != nil {
			return fmt.Errorf("failed to ingest video: %w", err)
		}

		// Display result as JSON
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}
		fmt.Println(string(output))

		if result.State == model.StateFailed && result.ErrorReason != nil {
			return fmt.Errorf("ingestion failed: %s", *result.ErrorReason)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().Bool("force", false, "Re-fetch even if the video ID was processed before")
	rootCmd.AddCommand(ingestCmd)
}
