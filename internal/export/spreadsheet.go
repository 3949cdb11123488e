package export

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/store"
)

// Sheet names inside the returned workbooks. The trailing space in the
// parliamentary tab is present in the template and must be preserved.
const (
	parliamentaryTab    = "D. Parliamentary Membership "
	nonParliamentaryTab = "E. Non-Parliamentary Membership"

	// headerRowIndex is the zero-based row holding the column headers
	headerRowIndex = 6

	roleColumn = "Role (e.g. Chair, Officer, Treasurer)"

	fillerRowText = "Add more rows as needed"
)

var houseToMemberType = map[string]model.MemberType{
	"hoc":              model.MemberTypeMP,
	"house of commons": model.MemberTypeMP,
	"commons":          model.MemberTypeMP,
	"hol":              model.MemberTypeLord,
	"house of lords":   model.MemberTypeLord,
	"lords":            model.MemberTypeLord,
}

var lordTitleWords = []string{"Lord", "Baroness", "Baron", "Lady", "Viscount", "Dame"}

// spreadsheetDate is recorded as the last-updated date for loaded workbooks,
// matching when the membership collection round closed
var spreadsheetDate = model.NewDate(2024, 12, 1)

// memberTypeFromRow resolves a member's chamber from the House column,
// falling back to name heuristics when the column is blank
func memberTypeFromRow(house, name string) model.MemberType {
	if t, ok := houseToMemberType[strings.ToLower(strings.TrimSpace(house))]; ok {
		return t
	}
	if strings.Contains(name, " MP") {
		return model.MemberTypeMP
	}
	for _, title := range lordTitleWords {
		if strings.Contains(name, title) {
			return model.MemberTypeLord
		}
	}
	return model.MemberTypeMP
}

// SpreadsheetLoader reads completed membership workbooks back into the dataset
type SpreadsheetLoader struct {
	store *store.GroupStore
	cfg   *model.Config
	out   io.Writer
}

// NewSpreadsheetLoader creates a spreadsheet loader
func NewSpreadsheetLoader(st *store.GroupStore, cfg *model.Config, out io.Writer) *SpreadsheetLoader {
	return &SpreadsheetLoader{store: st, cfg: cfg, out: out}
}

// LoadAll reads every workbook in the raw spreadsheets directory and merges
// the membership lists into the matching groups. Groups whose membership was
// already sourced elsewhere are left alone.
func (l *SpreadsheetLoader) LoadAll() error {
	dir := l.cfg.SpreadsheetsDir()
	paths, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	if err != nil {
		return fmt.Errorf("list spreadsheets: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no workbooks found in %s", dir)
	}

	var loaded, skipped int
	for _, path := range paths {
		slug := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		members, err := l.readWorkbook(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}

		group, err := l.store.Load(model.ParliamentUK, slug)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintf(l.out, "No group found for %s, skipping\n", slug)
				skipped++
				continue
			}
			return fmt.Errorf("load group %s: %w", slug, err)
		}

		switch group.MembersList.SourceMethod {
		case model.SourceEmpty, model.SourceManual:
		default:
			fmt.Fprintf(l.out, "Skipping %s, membership already sourced via %s\n", slug, group.MembersList.SourceMethod)
			skipped++
			continue
		}

		date := spreadsheetDate
		group.MembersList.Members = members
		group.MembersList.SourceMethod = model.SourceManual
		group.MembersList.LastUpdated = &date
		if err := l.store.Save(group); err != nil {
			return fmt.Errorf("save group %s: %w", slug, err)
		}
		fmt.Fprintf(l.out, "Loaded %d members for %s\n", len(members), slug)
		loaded++
	}

	fmt.Fprintf(l.out, "Loaded %d workbooks, skipped %d\n", loaded, skipped)
	return nil
}

// readWorkbook extracts members from both membership tabs of one workbook
func (l *SpreadsheetLoader) readWorkbook(path string) ([]model.Member, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var members []model.Member
	for _, tab := range []string{parliamentaryTab, nonParliamentaryTab} {
		rows, err := f.GetRows(tab)
		if err != nil {
			// template tabs are sometimes renamed or deleted by crowdsourcers
			continue
		}
		parliamentary := tab == parliamentaryTab
		members = append(members, membersFromRows(rows, parliamentary)...)
	}
	return members, nil
}

// membersFromRows converts sheet rows below the header into members
func membersFromRows(rows [][]string, parliamentary bool) []model.Member {
	if len(rows) <= headerRowIndex+1 {
		return nil
	}
	headers := rows[headerRowIndex]
	col := func(name string) int {
		for i, h := range headers {
			if strings.TrimSpace(h) == name {
				return i
			}
		}
		return -1
	}
	nameCol := col("Name")
	houseCol := col("House")
	roleCol := col(roleColumn)
	if nameCol < 0 {
		return nil
	}

	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var members []model.Member
	for _, row := range rows[headerRowIndex+1:] {
		name := cell(row, nameCol)
		if name == "" || name == fillerRowText {
			continue
		}

		role := cell(row, roleCol)
		if role == "" {
			role = "Member"
		}

		memberType := model.MemberTypeOther
		if parliamentary {
			memberType = memberTypeFromRow(cell(row, houseCol), name)
		}

		members = append(members, model.Member{
			Name:       name,
			IsOfficer:  role != "Member",
			MemberType: memberType,
		})
	}
	return members
}
