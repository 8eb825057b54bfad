package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipmine/clipmine/internal/config"
	"github.com/clipmine/clipmine/internal/model"
	"github.com/clipmine/clipmine/internal/repository/searchindex"
	"github.com/clipmine/clipmine/internal/repository/segment"
	"github.com/clipmine/clipmine/internal/repository/video"
	"github.com/clipmine/clipmine/internal/service"
)

// videoCmd represents the video command
var videoCmd = &cobra.Command{
	Use:   "video",
	Short: "Archived video operations",
	Long:  `Operations for inspecting archived videos and their review status.`,
}

// videoGetCmd shows one archived video
var videoGetCmd = &cobra.Command{
	Use:   "get [VIDEO_ID]",
	Short: "Show an archived video",
	Long:  `Display the metadata and review status of one archived video.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		videoID := args[0]

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Load configuration
		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Create database connection
		dbPool, err := config.NewDatabasePool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbPool.Close()

		videoRepo := video.NewRepository(dbPool)

		v, err := videoRepo.GetByID(ctx, videoID)
		if err != nil {
			return fmt.Errorf("failed to get video: %w", err)
		}

		// Display result as JSON
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}
		fmt.Println(string(output))
		return nil
	},
}

// videoListCmd lists archived videos by review state
var videoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived videos by review state",
	Long:  `List archived videos in the given review state, most recently fetched first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, _ := cmd.Flags().GetString("state")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Load configuration
		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Create database connection
		dbPool, err := config.NewDatabasePool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbPool.Close()

		// Create repositories and services
		videoRepo := video.NewRepository(dbPool)
		segmentRepo := segment.NewRepository(dbPool)
		indexRepo := searchindex.NewRepository(dbPool)

		logger := newLogger()
		indexer := service.NewIndexerService(videoRepo, segmentRepo, indexRepo, logger)
		reviewService := service.NewReviewService(videoRepo, indexer, service.NewKeyedMutex(), logger)

		videos, err := reviewService.ListByState(ctx, model.ReviewState(state), limit, offset)
		if err != nil {
			return fmt.Errorf("failed to list videos: %w", err)
		}

		if len(videos) == 0 {
			fmt.Printf("No videos found in state: %s\n", state)
			return nil
		}

		// Display result as JSON
		output, err := json.MarshalIndent(videos, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}
		fmt.Printf("Found %d video(s) in state %s:\n%s\n", len(videos), state, string(output))
		return nil
	},
}

func init() {
	videoListCmd.Flags().String("state", string(model.StatePending), "Review state to list (pending, approved, rejected, failed)")
	videoListCmd.Flags().Int("limit", 20, "Maximum number of videos to retrieve")
	videoListCmd.Flags().Int("offset", 0, "Number of videos to skip")

	videoCmd.AddCommand(videoGetCmd)
	videoCmd.AddCommand(videoListCmd)
	rootCmd.AddCommand(videoCmd)
}
