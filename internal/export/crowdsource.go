// Package export produces the outward-facing artifacts of the dataset: the
// crowdsourcing spreadsheet, the published data package tables, and the
// loader for returned crowdsource spreadsheets.
package export

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/store"
)

// crowdsourceSheet is the single sheet of the crowdsource workbook
const crowdsourceSheet = "APPG Information"

var crowdsourceHeaders = []string{
	"starting_status",
	"review_status",
	"appg_slug",
	"appg_name",
	"parliament_source_url",
	"google_link",
	"appg_website",
	"appg_members_page",
}

// GoogleSearchLink builds a prepopulated Google search for a group
func GoogleSearchLink(title string) string {
	query := fmt.Sprintf("All-Party Parliamentary Group %s UK parliament", title)
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}

// StartingStatus summarizes how much we already know about a group, shown to
// crowdsourcers so they can prioritize
func StartingStatus(group *model.Group) string {
	hasWebsite := group.HasWebsite()
	hasMembers := len(group.MembersList.Members) > 0 &&
		group.MembersList.SourceMethod != model.SourceEmpty

	switch {
	case !hasWebsite:
		return "no_website"
	case hasMembers:
		return "website_members_list"
	default:
		return "website_no_members"
	}
}

// CrowdsourceExporter writes the review workbook handed to crowdsourcers
type CrowdsourceExporter struct {
	store *store.GroupStore
	cfg   *model.Config
	out   io.Writer
}

// NewCrowdsourceExporter creates a crowdsource exporter
func NewCrowdsourceExporter(st *store.GroupStore, cfg *model.Config, out io.Writer) *CrowdsourceExporter {
	return &CrowdsourceExporter{store: st, cfg: cfg, out: out}
}

// Export writes the workbook. An empty outputPath picks a timestamped file
// under the exports directory. Returns the path written.
func (e *CrowdsourceExporter) Export(outputPath string) (string, error) {
	groups, err := e.store.LoadAll(model.ParliamentUK)
	if err != nil {
		return "", fmt.Errorf("load groups: %w", err)
	}

	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = filepath.Join(e.cfg.ExportsDir(), fmt.Sprintf("appg_crowdsource_%s.xlsx", timestamp))
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", crowdsourceSheet); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}

	widths := make([]int, len(crowdsourceHeaders))
	for col, header := range crowdsourceHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(crowdsourceSheet, cell, header); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		if err := f.SetCellStyle(crowdsourceSheet, cell, cell, headerStyle); err != nil {
			return "", fmt.Errorf("style header: %w", err)
		}
		widths[col] = len(header)
	}

	for rowIdx, group := range groups {
		website := group.ContactDetails.Website.URL
		values := []string{
			StartingStatus(group),
			"", // review_status is blank at export
			group.Slug,
			group.Title,
			group.SourceURL,
			GoogleSearchLink(group.Title),
			website,
			website, // members page starts out the same as the website
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(crowdsourceSheet, cell, value); err != nil {
				return "", fmt.Errorf("write row for %s: %w", group.Slug, err)
			}
			if n := len(value); n > widths[col] {
				if n > 100 {
					n = 100
				}
				widths[col] = n
			}
		}
	}

	for col, width := range widths {
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(crowdsourceSheet, name, name, float64(width+2)); err != nil {
			return "", fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	fmt.Fprintf(e.out, "Excel export created at: %s\n", outputPath)
	fmt.Fprintf(e.out, "Exported %d groups\n", len(groups))
	return outputPath, nil
}
