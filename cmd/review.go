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

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review queued videos",
	Long: `Approve or reject archived videos. Approved videos become searchable;
rejected videos are revoked from search but stay archived.`,
}

// reviewApproveCmd approves a video
var reviewApproveCmd = &cobra.Command{
	Use:   "approve [VIDEO_ID]",
	Short: "Approve a video for search",
	Long:  `Approve a pending or rejected video and add its segments to the search index.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReviewTransition(args[0], model.StateApproved)
	},
}

// reviewRejectCmd rejects a video
var reviewRejectCmd = &cobra.Command{
	Use:   "reject [VIDEO_ID]",
	Short: "Reject a video",
	Long:  `Reject a pending or approved video and remove its segments from the search index.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReviewTransition(args[0], model.StateRejected)
	},
}

// runReviewTransition wires the review service and applies one transition
func runReviewTransition(videoID string, target model.ReviewState) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
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

	var result *model.Video
	switch target {
	case model.StateApproved:
		result, err = reviewService.Approve(ctx, videoID)
	case model.StateRejected:
		result, err = reviewService.Reject(ctx, videoID)
	default:
		return fmt.Errorf("unsupported review transition: %s", target)
	}
	if err != nil {
		return fmt.Errorf("failed to %s video: %w", target, err)
	}

	// Display result as JSON
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format result: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

func init() {
	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewRejectCmd)
	rootCmd.AddCommand(reviewCmd)
}
