package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/names"
	"github.com/appgwatch/appgwatch/internal/register"
	"github.com/appgwatch/appgwatch/internal/store"
)

// registerColumns fixes the column order of register.csv. FlattenedRow keys
// not listed here would be silently dropped, so keep the two in sync.
var registerColumns = []string{
	"slug",
	"title",
	"purpose",
	"category",
	"categories",
	"registrable_benefits",
	"detailed_benefits",
	"registered_contact_name",
	"registered_contact_address",
	"registered_contact_email",
	"public_enquiry_point_name",
	"public_enquiry_point_email",
	"secretariat",
	"website",
	"website_status",
	"date_of_most_recent_agm",
	"published_income_expenditure_statement",
	"reporting_year",
	"next_reporting_deadline",
	"source_url",
}

var memberColumns = []string{
	"appg",
	"parliament",
	"name",
	"canon_name",
	"member_type",
	"is_officer",
	"officer_role",
	"twfy_id",
	"mnis_id",
	"removed",
	"source",
	"url_source",
	"last_updated",
}

var categoryColumns = []string{"appg_slug", "category_slug", "category_name"}

// memberRow is one row of members.csv before dedupe and ordering
type memberRow struct {
	appg        string
	parliament  string
	name        string
	canonName   string
	memberType  string
	isOfficer   bool
	officerRole string
	twfyID      string
	mnisID      string
	removed     bool
	source      string
	urlSource   string
	lastUpdated string
}

func (r memberRow) record() []string {
	return []string{
		r.appg,
		r.parliament,
		r.name,
		r.canonName,
		r.memberType,
		strconv.FormatBool(r.isOfficer),
		r.officerRole,
		r.twfyID,
		r.mnisID,
		strconv.FormatBool(r.removed),
		r.source,
		r.urlSource,
		r.lastUpdated,
	}
}

// dedupeKey identifies one person within one group, preferring the resolved
// ID over the display name when available
func (r memberRow) dedupeKey() string {
	id := r.twfyID
	if id == "" {
		id = r.name
	}
	return id + "\x00" + r.appg
}

// PackageBuilder assembles the published data package tables
type PackageBuilder struct {
	store    *store.GroupStore
	registry *register.Registry
	cfg      *model.Config
	out      io.Writer
}

// NewPackageBuilder creates a package builder
func NewPackageBuilder(st *store.GroupStore, reg *register.Registry, cfg *model.Config, out io.Writer) *PackageBuilder {
	return &PackageBuilder{store: st, registry: reg, cfg: cfg, out: out}
}

// Build writes register.csv, members.csv and categories.csv to the package
// directory
func (b *PackageBuilder) Build() error {
	groups, err := b.store.LoadAllParliaments()
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}

	dir := b.cfg.PackagesDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create package dir: %w", err)
	}

	if err := b.buildRegister(groups, filepath.Join(dir, "register.csv")); err != nil {
		return fmt.Errorf("build register table: %w", err)
	}
	if err := b.buildMembers(groups, filepath.Join(dir, "members.csv")); err != nil {
		return fmt.Errorf("build members table: %w", err)
	}
	if err := b.buildCategories(groups, filepath.Join(dir, "categories.csv")); err != nil {
		return fmt.Errorf("build categories table: %w", err)
	}

	fmt.Fprintf(b.out, "Built data package for %d groups in %s\n", len(groups), dir)
	return nil
}

func writeCSV(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func (b *PackageBuilder) buildRegister(groups []*model.Group, path string) error {
	records := make([][]string, 0, len(groups))
	for _, g := range groups {
		row := g.FlattenedRow()
		record := make([]string, len(registerColumns))
		for i, col := range registerColumns {
			record[i] = row[col]
		}
		records = append(records, record)
	}
	return writeCSV(path, registerColumns, records)
}

// canonName resolves a person ID to their canonical display name
func (b *PackageBuilder) canonName(twfyID string) string {
	if twfyID == "" {
		return ""
	}
	person, ok := b.registry.PersonByID(twfyID)
	if !ok {
		return ""
	}
	return person.MainName()
}

func officerMemberType(group *model.Group, name string) string {
	switch group.Parliament {
	case model.ParliamentScotland:
		return string(model.MemberTypeMSP)
	case model.ParliamentSeneddEN, model.ParliamentSeneddCY:
		return string(model.MemberTypeMS)
	case model.ParliamentNI:
		return string(model.MemberTypeMLA)
	}
	if names.IsLord(name) {
		return string(model.MemberTypeLord)
	}
	return string(model.MemberTypeMP)
}

func (b *PackageBuilder) buildMembers(groups []*model.Group, path string) error {
	registerDate, err := model.RegisterDateAsDate(model.LatestRegisterDate())
	if err != nil {
		return fmt.Errorf("latest register date: %w", err)
	}

	var rows []memberRow
	for _, g := range groups {
		for _, officer := range g.Officers {
			rows = append(rows, memberRow{
				appg:        g.Slug,
				parliament:  string(g.Parliament),
				name:        officer.Name,
				canonName:   b.canonName(officer.TwfyID),
				memberType:  officerMemberType(g, officer.Name),
				isOfficer:   true,
				officerRole: officer.Role,
				twfyID:      officer.TwfyID,
				mnisID:      officer.MnisID,
				removed:     officer.Removed,
				source:      "parliament",
				urlSource:   g.SourceURL,
				lastUpdated: registerDate.String(),
			})
		}
		list := g.MembersList
		lastUpdated := ""
		if list.LastUpdated != nil {
			lastUpdated = list.LastUpdated.String()
		}
		for _, member := range list.Members {
			rows = append(rows, memberRow{
				appg:        g.Slug,
				parliament:  string(g.Parliament),
				name:        member.Name,
				canonName:   b.canonName(member.TwfyID),
				memberType:  string(member.MemberType),
				isOfficer:   member.IsOfficer,
				twfyID:      member.TwfyID,
				mnisID:      member.MnisID,
				removed:     member.Removed,
				source:      string(list.SourceMethod),
				urlSource:   strings.Join(list.SourceURLs, " "),
				lastUpdated: lastUpdated,
			})
		}
	}

	rows = dedupeMemberRows(rows)
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return writeCSV(path, memberColumns, records)
}

// dedupeMemberRows drops duplicate people within each group, preferring the
// row taken from the official register over crowdsourced and scraped rows,
// then orders the table for stable output
func dedupeMemberRows(rows []memberRow) []memberRow {
	fromRegister := func(r memberRow) int {
		if r.source == "parliament" {
			return 0
		}
		return 1
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return fromRegister(rows[i]) < fromRegister(rows[j])
	})

	seen := make(map[string]struct{}, len(rows))
	deduped := rows[:0]
	for _, r := range rows {
		key := r.dedupeKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, r)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].appg != deduped[j].appg {
			return deduped[i].appg < deduped[j].appg
		}
		if a, b := fromRegister(deduped[i]), fromRegister(deduped[j]); a != b {
			return a < b
		}
		return deduped[i].twfyID < deduped[j].twfyID
	})
	return deduped
}

func (b *PackageBuilder) buildCategories(groups []*model.Group, path string) error {
	var records [][]string
	for _, g := range groups {
		for _, category := range g.Categories {
			records = append(records, []string{g.Slug, category.Slug(), string(category)})
		}
	}
	return writeCSV(path, categoryColumns, records)
}
