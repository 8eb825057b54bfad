package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipmine/clipmine/internal/config"
	"github.com/clipmine/clipmine/internal/repository/searchindex"
	"github.com/clipmine/clipmine/internal/repository/segment"
	"github.com/clipmine/clipmine/internal/repository/video"
	"github.com/clipmine/clipmine/internal/service"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the search index",
	Long: `Maintenance operations for the search index. The index is derived from
the approved corpus and can always be reconstructed from it.`,
}

// indexRebuildCmd rebuilds the whole index
var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the search index from scratch",
	Long:  `Drop every index entry and reindex all approved videos.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		indexer, cleanup, err := newIndexer(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		indexed, err := indexer.RebuildAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to rebuild index: %w", err)
		}

		fmt.Printf("Index rebuilt: %d video(s) indexed.\n", indexed)
		return nil
	},
}

// indexVerifyCmd repairs approved videos missing from the index
var indexVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify and repair the search index",
	Long:  `Check that every approved video is indexed and reindex the ones that are not.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		indexer, cleanup, err := newIndexer(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		repaired, err := indexer.Verify(ctx)
		if err != nil {
			return fmt.Errorf("failed to verify index: %w", err)
		}

		if repaired == 0 {
			fmt.Println("Index verified: no repairs needed.")
		} else {
			fmt.Printf("Index verified: %d video(s) repaired.\n", repaired)
		}
		return nil
	},
}

// newIndexer wires an IndexerService with a live database connection
func newIndexer(ctx context.Context) (service.IndexerService, func(), error) {
	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database connection
	dbPool, err := config.NewDatabasePool(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Create repositories and the indexer
	videoRepo := video.NewRepository(dbPool)
	segmentRepo := segment.NewRepository(dbPool)
	indexRepo := searchindex.NewRepository(dbPool)
	indexer := service.NewIndexerService(videoRepo, segmentRepo, indexRepo, newLogger())

	return indexer, dbPool.Close, nil
}

func init() {
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexVerifyCmd)
	rootCmd.AddCommand(indexCmd)
}
