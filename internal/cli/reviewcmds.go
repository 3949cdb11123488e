package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/review"
)

var (
	nameThreshold      float64
	nameMaxSuggestions int
	oldMembersFormat   string
)

// reviewWebsitesCmd reviews agent-proposed websites
var reviewWebsitesCmd = &cobra.Command{
	Use:   "review-websites",
	Short: "Review website URLs proposed by the search agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		reviewer := review.NewWebsiteReviewer(newGroupStore(cfg), os.Stdin, os.Stdout)
		return reviewer.Run(model.ParliamentUK)
	},
}

// correctNamesCmd resolves scraped names that failed to match
var correctNamesCmd = &cobra.Command{
	Use:   "correct-unmatched-names",
	Short: "Interactively resolve member names that did not match a legislator",
	Long: `Walk through scraped member names that could not be matched against the
legislator database, with fuzzy-matched suggestions from the current
MP roster. Decisions are saved immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		registry, err := newRegistry(cfg)
		if err != nil {
			return err
		}
		reviewer := review.NewNameReviewer(newCorrectionStore(cfg), registry, os.Stdin, os.Stdout)
		reviewer.Threshold = nameThreshold
		reviewer.MaxSuggestions = nameMaxSuggestions
		return reviewer.Run(time.Now().Format("2006-01-02"))
	},
}

// findOldMembersCmd reports members who have left parliament
var findOldMembersCmd = &cobra.Command{
	Use:   "find-old-members",
	Short: "Report listed members who are no longer in Parliament",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		registry, err := newRegistry(cfg)
		if err != nil {
			return err
		}
		reporter := review.NewOldMemberReporter(newGroupStore(cfg), registry, os.Stdout)
		today := time.Now().Format("2006-01-02")

		switch oldMembersFormat {
		case "list":
			return reporter.RunList(model.ParliamentUK, today)
		case "table":
			return reporter.RunTable(model.ParliamentUK, today)
		default:
			return fmt.Errorf("unknown format %q, expected list or table", oldMembersFormat)
		}
	},
}

func init() {
	correctNamesCmd.Flags().Float64Var(&nameThreshold, "threshold", 0.5, "maximum normalized distance for suggestions")
	correctNamesCmd.Flags().IntVar(&nameMaxSuggestions, "max-suggestions", 5, "suggestions shown per name")

	findOldMembersCmd.Flags().StringVar(&oldMembersFormat, "format", "list", "output format (list or table)")

	rootCmd.AddCommand(reviewWebsitesCmd)
	rootCmd.AddCommand(correctNamesCmd)
	rootCmd.AddCommand(findOldMembersCmd)
}
