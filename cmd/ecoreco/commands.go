package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecoreco/backend/internal/domain"
)

var searchMode string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank catalog products against a free-text query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := domain.RankingMode(searchMode)
		if mode != "" && !mode.Valid() {
			return fmt.Errorf("unknown mode %q (want intent or similarity)", searchMode)
		}

		results, err := app.Search.Search(cmd.Context(), &domain.SearchRequest{
			Query: strings.Join(args, " "),
			Mode:  mode,
		})
		if err != nil {
			return err
		}
		return renderResults(out(cmd), results, outputJSON)
	},
}

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List the best-rated products of the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := app.Recommendations.Popular(cmd.Context())
		if err != nil {
			return err
		}
		return renderResults(out(cmd), results, outputJSON)
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <product-id>",
	Short: "List the best-rated products of the same category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProductID(args[0])
		if err != nil {
			return err
		}
		results, err := app.Recommendations.Recommend(cmd.Context(), id)
		if err != nil {
			return err
		}
		return renderResults(out(cmd), results, outputJSON)
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar <product-id>",
	Short: "List products with the closest category and description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProductID(args[0])
		if err != nil {
			return err
		}
		results, err := app.Recommendations.SimilarProducts(cmd.Context(), id)
		if err != nil {
			return err
		}
		return renderResults(out(cmd), results, outputJSON)
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review <product-id> <text>",
	Short: "Score a review and apply the resulting eco rating change",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProductID(args[0])
		if err != nil {
			return err
		}
		text := strings.Join(args[1:], " ")
		if strings.TrimSpace(text) == "" {
			return domain.ErrInvalidRequest
		}

		adjustment, err := app.Ratings.SubmitReview(cmd.Context(), id, text)
		if err != nil {
			return err
		}
		return renderAdjustment(out(cmd), adjustment, outputJSON)
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "ranking mode: intent or similarity (default from config)")
}

func parseProductID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: product id must be a positive integer, got %q", domain.ErrInvalidRequest, arg)
	}
	return id, nil
}
