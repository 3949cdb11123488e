package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/appgwatch/appgwatch/internal/agent"
	"github.com/appgwatch/appgwatch/internal/cache"
	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/scrape"
)

var (
	fetchLatestOnly   bool
	assignParliaments []string
	assignOnlyMissing bool
	assignSlug        string
)

// fetchIndexCmd scrapes the Westminster register
var fetchIndexCmd = &cobra.Command{
	Use:   "fetch-index",
	Short: "Scrape the Westminster register of all-party parliamentary groups",
	Long: `Fetch every group page from the published register editions and store
them as release snapshots. The latest edition also updates the current
dataset, carrying over membership lists and categories from the
previous state of each group.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scraper := scrape.NewUKScraper(newFetcher(cfg), newGroupStore(cfg), newClassifier(cfg), os.Stdout)
		return scraper.FetchAll(context.Background(), fetchLatestOnly)
	},
}

// scrapeScotlandCmd scrapes the Scottish Parliament CPG register
var scrapeScotlandCmd = &cobra.Command{
	Use:   "scrape-scotland",
	Short: "Scrape cross-party groups from the Scottish Parliament API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		purposes := cache.NewDiskCache(filepath.Join(cfg.Cache.Dir, "purposes"), cache.NoExpiry)
		registry, err := newRegistry(cfg)
		if err != nil {
			return err
		}
		scraper := scrape.NewScotlandScraper(
			newRestyClient(cfg), newFetcher(cfg), newGroupStore(cfg),
			registry, purposes, newClassifier(cfg), os.Stdout)
		return scraper.Run(context.Background())
	},
}

// scrapeSeneddCmd scrapes the Senedd cross-party group listings
var scrapeSeneddCmd = &cobra.Command{
	Use:   "scrape-senedd",
	Short: "Scrape cross-party groups from the Senedd website (English and Welsh)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		registry, err := newRegistry(cfg)
		if err != nil {
			return err
		}
		scraper := scrape.NewSeneddScraper(newFetcher(cfg), newGroupStore(cfg), registry, os.Stdout)
		return scraper.Run(context.Background())
	},
}

// scrapeNICmd scrapes the NI Assembly all-party groups
var scrapeNICmd = &cobra.Command{
	Use:   "scrape-ni",
	Short: "Scrape all-party groups from the Northern Ireland Assembly API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		registry, err := newRegistry(cfg)
		if err != nil {
			return err
		}
		scraper := scrape.NewNIScraper(
			newRestyClient(cfg), newFetcher(cfg), newGroupStore(cfg),
			registry, newClassifier(cfg), os.Stdout)
		return scraper.Run(context.Background())
	},
}

// assignCategoriesCmd classifies stored groups into subject categories
var assignCategoriesCmd = &cobra.Command{
	Use:   "assign-categories",
	Short: "Assign subject categories to groups using the LLM classifier",
	Long: `Classify groups into subject categories. Defaults to the devolved
legislatures, whose registers carry no category information.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		client, err := newLLMClient(cfg)
		if err != nil {
			return err
		}

		var parliaments []model.Parliament
		for _, p := range assignParliaments {
			parliament, err := model.ParseParliament(p)
			if err != nil {
				return fmt.Errorf("invalid parliament %q: %w", p, err)
			}
			parliaments = append(parliaments, parliament)
		}

		return scrape.AssignCategories(
			context.Background(), newGroupStore(cfg),
			agent.NewCategoryClassifier(client), parliaments, assignOnlyMissing, assignSlug, os.Stdout)
	},
}

func init() {
	fetchIndexCmd.Flags().BoolVar(&fetchLatestOnly, "latest-only", false, "only fetch the most recent register edition")

	assignCategoriesCmd.Flags().StringSliceVar(&assignParliaments, "parliament", nil, "parliament to classify (repeatable, default: devolved legislatures)")
	assignCategoriesCmd.Flags().BoolVar(&assignOnlyMissing, "only-missing", false, "skip groups that already have categories")
	assignCategoriesCmd.Flags().StringVar(&assignSlug, "slug", "", "restrict to a single group slug")

	rootCmd.AddCommand(fetchIndexCmd)
	rootCmd.AddCommand(scrapeScotlandCmd)
	rootCmd.AddCommand(scrapeSeneddCmd)
	rootCmd.AddCommand(scrapeNICmd)
	rootCmd.AddCommand(assignCategoriesCmd)
}
