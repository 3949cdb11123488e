package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/appgwatch/appgwatch/internal/diff"
	"github.com/appgwatch/appgwatch/internal/export"
	"github.com/appgwatch/appgwatch/internal/manual"
	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/register"
)

var (
	manualDocURL       string
	manualSkipDownload bool
	exportOutput       string
	diffCurrent        string
	diffPrevious       string
	diffReportDir      string
)

// loadSpreadsheetsCmd loads returned crowdsource workbooks
var loadSpreadsheetsCmd = &cobra.Command{
	Use:   "load-spreadsheets",
	Short: "Load membership lists from returned crowdsource workbooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		loader := export.NewSpreadsheetLoader(newGroupStore(cfg), cfg, os.Stdout)
		return loader.LoadAll()
	},
}

// loadManualDataCmd loads the shared Google Docs membership document
var loadManualDataCmd = &cobra.Command{
	Use:   "load-manual-data",
	Short: "Load membership lists from the shared manual collection document",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		loader := manual.NewLoader(newRestyClient(cfg), newGroupStore(cfg), cfg, os.Stdout)
		return loader.Load(manualDocURL, manualSkipDownload)
	},
}

// blankMembershipCmd resets one group's membership list
var blankMembershipCmd = &cobra.Command{
	Use:   "blank-membership <slug>",
	Short: "Reset a group's membership list to the empty state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		return manual.BlankMembership(newGroupStore(cfg), model.ParliamentUK, args[0], os.Stdout)
	},
}

// addPersonIDsCmd reconciles member names against the legislator database
var addPersonIDsCmd = &cobra.Command{
	Use:   "add-person-ids",
	Short: "Resolve member names to canonical legislator IDs",
	Long: `Match scraped officer and member names against the legislator database
and attach their person IDs. Names that fail to match are recorded for
review with correct-unmatched-names.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		registry, err := newRegistry(cfg)
		if err != nil {
			return err
		}
		rc := register.NewReconciler(newGroupStore(cfg), newCorrectionStore(cfg), registry, os.Stdout)
		return rc.Run()
	},
}

// buildCmd assembles the published data package
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the published data package tables",
	Long: `Load returned workbooks, resolve person IDs, then write the register,
members and categories tables to the package directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		st := newGroupStore(cfg)
		registry, err := newRegistry(cfg)
		if err != nil {
			return err
		}

		loader := export.NewSpreadsheetLoader(st, cfg, os.Stdout)
		if err := loader.LoadAll(); err != nil {
			fmt.Fprintf(os.Stderr, "Skipping workbook load: %v\n", err)
		}

		rc := register.NewReconciler(st, newCorrectionStore(cfg), registry, os.Stdout)
		if err := rc.Run(); err != nil {
			return err
		}

		builder := export.NewPackageBuilder(st, registry, cfg, os.Stdout)
		return builder.Build()
	},
}

// exportCrowdsourceCmd writes the crowdsource review workbook
var exportCrowdsourceCmd = &cobra.Command{
	Use:   "export-crowdsource",
	Short: "Export the crowdsource review workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		exporter := export.NewCrowdsourceExporter(newGroupStore(cfg), cfg, os.Stdout)
		_, err := exporter.Export(exportOutput)
		return err
	},
}

// generateDiffsCmd compares register release snapshots
var generateDiffsCmd = &cobra.Command{
	Use:   "generate-diffs",
	Short: "Generate change reports between register releases",
	Long: `Compare release snapshots of the Westminster register. By default every
consecutive pair of releases is diffed, use --current to diff a single
release against its predecessor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		engine := diff.NewEngine(newGroupStore(cfg))

		releases := model.RegisterDates[1:]
		if diffCurrent != "" {
			releases = []string{diffCurrent}
		}

		for _, release := range releases {
			previous := ""
			if diffCurrent != "" {
				previous = diffPrevious
			}
			result, err := engine.Compare(release, previous)
			if err != nil {
				return fmt.Errorf("diff %s: %w", release, err)
			}
			if err := result.Save(cfg.DiffsDir()); err != nil {
				return fmt.Errorf("save diff %s: %w", release, err)
			}
			if err := result.RenderMarkdown(diffReportDir); err != nil {
				return fmt.Errorf("render diff %s: %w", release, err)
			}
			fmt.Printf("Diffed %s against %s: %d added, %d removed, %d updated\n",
				result.CurrentIndex, result.PreviousIndex,
				len(result.AddedGroups), len(result.RemovedGroups), len(result.UpdatedGroups))
		}
		return nil
	},
}

func init() {
	loadManualDataCmd.Flags().StringVar(&manualDocURL, "url", "", "document URL (default: the shared collection document)")
	loadManualDataCmd.Flags().BoolVar(&manualSkipDownload, "skip-download", false, "parse the existing local copy without downloading")

	exportCrowdsourceCmd.Flags().StringVar(&exportOutput, "out", "", "output path (default: timestamped file in the exports directory)")

	generateDiffsCmd.Flags().StringVar(&diffCurrent, "current", "", "register date to diff (default: all consecutive pairs)")
	generateDiffsCmd.Flags().StringVar(&diffPrevious, "previous", "", "register date to diff against (default: the preceding release)")
	generateDiffsCmd.Flags().StringVar(&diffReportDir, "report-dir", "docs/_diffs", "directory for markdown change reports")

	rootCmd.AddCommand(loadSpreadsheetsCmd)
	rootCmd.AddCommand(loadManualDataCmd)
	rootCmd.AddCommand(blankMembershipCmd)
	rootCmd.AddCommand(addPersonIDsCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(exportCrowdsourceCmd)
	rootCmd.AddCommand(generateDiffsCmd)
}
