package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/appgwatch/appgwatch/internal/agent"
)

var (
	websiteOverride bool
	websiteSlug     string
	membersOverride bool
	membersSlug     string
)

// searchWebsitesCmd runs the website-finding agent
var searchWebsitesCmd = &cobra.Command{
	Use:   "search-websites",
	Short: "Find group websites with the LLM search agent",
	Long: `Run the website search agent over groups that have no website from the
register. Proposed URLs are stored awaiting human review, use
review-websites to accept or reject them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		client, err := newLLMClient(cfg)
		if err != nil {
			return err
		}
		a := agent.NewWebsiteAgent(
			client, newRestyClient(cfg), cfg.Search.APIKey,
			newFetcher(cfg), newGroupStore(cfg), os.Stdout)
		return a.UpdateAll(context.Background(), agent.UpdateOptions{
			Override: websiteOverride,
			Slug:     websiteSlug,
		})
	},
}

// scrapeMembershipsCmd runs the membership extraction agent
var scrapeMembershipsCmd = &cobra.Command{
	Use:   "scrape-memberships",
	Short: "Extract membership lists from group websites with the LLM agent",
	Long: `Run the membership agent over groups with a known website. The agent
browses each site, extracts listed members and officers, and verifies
every extracted name against the fetched pages before saving.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		client, err := newLLMClient(cfg)
		if err != nil {
			return err
		}
		a := agent.NewMembershipAgent(client, newFetcher(cfg), newGroupStore(cfg), os.Stdout)
		return a.UpdateAll(context.Background(), agent.UpdateOptions{
			Override: membersOverride,
			Slug:     membersSlug,
		})
	},
}

func init() {
	searchWebsitesCmd.Flags().BoolVar(&websiteOverride, "override", false, "also revisit groups with previous search outcomes")
	searchWebsitesCmd.Flags().StringVar(&websiteSlug, "slug", "", "restrict to a single group slug")

	scrapeMembershipsCmd.Flags().BoolVar(&membersOverride, "override", false, "revisit groups updated in the current collection round")
	scrapeMembershipsCmd.Flags().StringVar(&membersSlug, "slug", "", "restrict to a single group slug")

	rootCmd.AddCommand(searchWebsitesCmd)
	rootCmd.AddCommand(scrapeMembershipsCmd)
}
