package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipmine/clipmine/internal/config"
	"github.com/clipmine/clipmine/internal/model"
	"github.com/clipmine/clipmine/internal/repository/searchindex"
	"github.com/clipmine/clipmine/internal/repository/segment"
	"github.com/clipmine/clipmine/internal/repository/video"
	"github.com/clipmine/clipmine/internal/service"
)

// searchCmd queries the approved corpus
var searchCmd = &cobra.Command{
	Use:   "search [QUERY...]",
	Short: "Search approved transcripts",
	Long: `Full-text search over segments of approved videos. Results are ranked
by tf-idf relevance; ties break on newest published date.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

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

		// Create repositories and the search service
		videoRepo := video.NewRepository(dbPool)
		segmentRepo := segment.NewRepository(dbPool)
		indexRepo := searchindex.NewRepository(dbPool)
		searchService := service.NewSearchService(videoRepo, segmentRepo, indexRepo, newLogger())

		filters, err := parseSearchFilters(cmd)
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.SearchLimit
		}

		matches, err := searchService.Search(ctx, query, filters, limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			output, err := json.MarshalIndent(matches, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to format result: %w", err)
			}
			fmt.Println(string(output))
		case "text":
			printMatches(matches)
		default:
			return fmt.Errorf("unsupported format: %s (expected text or json)", format)
		}
		return nil
	},
}

// parseSearchFilters reads the metadata filter flags
func parseSearchFilters(cmd *cobra.Command) (model.SearchFilters, error) {
	var filters model.SearchFilters

	filters.Channel, _ = cmd.Flags().GetString("channel")
	filters.MinDuration, _ = cmd.Flags().GetFloat64("min-duration")
	filters.MaxDuration, _ = cmd.Flags().GetFloat64("max-duration")

	if after, _ := cmd.Flags().GetString("after"); after != "" {
		t, err := time.Parse("2006-01-02", after)
		if err != nil {
			return filters, fmt.Errorf("invalid --after date (expected YYYY-MM-DD): %w", err)
		}
		filters.PublishedAfter = &t
	}
	if before, _ := cmd.Flags().GetString("before"); before != "" {
		t, err := time.Parse("2006-01-02", before)
		if err != nil {
			return filters, fmt.Errorf("invalid --before date (expected YYYY-MM-DD): %w", err)
		}
		filters.PublishedBefore = &t
	}
	return filters, nil
}

// printMatches renders matches for a terminal
func printMatches(matches []*model.Match) {
	if len(matches) == 0 {
		fmt.Println("No matches found.")
		return
	}

	fmt.Printf("Found %d match(es):\n\n", len(matches))
	for i, match := range matches {
		fmt.Printf("%d. %s (%s) @ %s  score=%.3f\n",
			i+1,
			match.Video.Title,
			match.Video.Channel,
			formatTimestamp(match.Segment.Start),
			match.Score,
		)
		fmt.Printf("   %s\n", match.Snippet)
		fmt.Printf("   https://www.youtube.com/watch?v=%s&t=%ds\n\n",
			match.Video.ID, int(match.Segment.Start))
	}
}

// formatTimestamp renders seconds as HH:MM:SS, dropping the hour when zero
func formatTimestamp(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func init() {
	searchCmd.Flags().String("channel", "", "Only match videos from this channel")
	searchCmd.Flags().String("after", "", "Only match videos published on or after this date (YYYY-MM-DD)")
	searchCmd.Flags().String("before", "", "Only match videos published on or before this date (YYYY-MM-DD)")
	searchCmd.Flags().Float64("min-duration", 0, "Only match videos at least this many seconds long")
	searchCmd.Flags().Float64("max-duration", 0, "Only match videos at most this many seconds long")
	searchCmd.Flags().Int("limit", 0, "Maximum number of matches (defaults to search_limit from config)")
	searchCmd.Flags().String("format", "text", "Output format (text or json)")
	rootCmd.AddCommand(searchCmd)
}
