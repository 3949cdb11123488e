// Package scrape parses the official registers of the UK and devolved
// parliaments into group records.
package scrape

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/appgwatch/appgwatch/internal/fetch"
	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/store"
)

// ukRegisterBase is the folder holding one published register edition
const ukRegisterBase = "https://publications.parliament.uk/pa/cm/cmallparty/%s/"

// excludedSlugs are index pages that are not group entries
var excludedSlugs = map[string]bool{
	"introduction":   true,
	"topical-issues": true,
}

// Classifier assigns subject categories to a group
type Classifier interface {
	Classify(ctx context.Context, group *model.Group) ([]model.Category, error)
}

// UKScraper fetches and parses the Westminster register
type UKScraper struct {
	fetcher    *fetch.Fetcher
	store      *store.GroupStore
	classifier Classifier
	out        io.Writer
}

// NewUKScraper creates a scraper for the Westminster register. The classifier
// may be nil to skip category assignment.
func NewUKScraper(fetcher *fetch.Fetcher, st *store.GroupStore, classifier Classifier, out io.Writer) *UKScraper {
	return &UKScraper{fetcher: fetcher, store: st, classifier: classifier, out: out}
}

// FetchAll fetches every register edition, or only the most recent one
func (s *UKScraper) FetchAll(ctx context.Context, latestOnly bool) error {
	registers := model.RegisterDates
	if latestOnly {
		registers = registers[len(registers)-1:]
	}

	latest := model.LatestRegisterDate()
	for _, indexDate := range registers {
		fmt.Fprintf(s.out, "Fetching groups from register date: %s\n", indexDate)
		if err := s.FetchRegister(ctx, indexDate, indexDate == latest); err != nil {
			return fmt.Errorf("fetch register %s: %w", indexDate, err)
		}
	}
	return nil
}

// FetchRegister fetches one register edition and saves each group as a release
// snapshot. When isLatest is set the current records are refreshed too, with
// membership lists and categories carried forward from the existing data.
func (s *UKScraper) FetchRegister(ctx context.Context, indexDate string, isLatest bool) error {
	urls, err := s.indexURLs(ctx, indexDate)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Found %d group pages in the index\n", len(urls))

	for _, pageURL := range urls {
		slug := slugFromURL(pageURL)
		group, err := s.fetchGroup(ctx, pageURL, slug, indexDate)
		if err != nil {
			return fmt.Errorf("fetch group %s: %w", slug, err)
		}

		if err := s.store.SaveRelease(group, indexDate); err != nil {
			return fmt.Errorf("save release %s: %w", slug, err)
		}
		if !isLatest {
			continue
		}

		current, err := s.store.Load(model.ParliamentUK, slug)
		switch {
		case err == nil:
			group.UpdateFrom(current)
		case err == store.ErrNotFound:
			fmt.Fprintf(s.out, "New group in this register: %s\n", slug)
		default:
			return fmt.Errorf("load current %s: %w", slug, err)
		}

		if group.Category != "Subject Group" {
			group.Categories = []model.Category{model.CategoryCountryGroup}
		}
		if len(group.Categories) == 0 && s.classifier != nil {
			categories, err := s.classifier.Classify(ctx, group)
			if err != nil {
				fmt.Fprintf(s.out, "Could not classify %s: %v\n", slug, err)
			} else {
				group.Categories = categories
			}
		}

		if err := s.store.Save(group); err != nil {
			return fmt.Errorf("save %s: %w", slug, err)
		}
	}
	return nil
}

// indexURLs reads the register's contents page and returns sorted group page
// URLs
func (s *UKScraper) indexURLs(ctx context.Context, indexDate string) ([]string, error) {
	folder := fmt.Sprintf(ukRegisterBase, indexDate)
	result, err := s.fetcher.Fetch(ctx, folder+"contents.htm")
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(result.Body)))
	if err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}

	seen := make(map[string]bool)
	var urls []string
	doc.Find("a").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok || !strings.HasSuffix(href, ".htm") {
			return
		}
		pageURL := folder + href
		if seen[pageURL] || excludedSlugs[slugFromURL(pageURL)] {
			return
		}
		seen[pageURL] = true
		urls = append(urls, pageURL)
	})
	sort.Strings(urls)
	return urls, nil
}

func (s *UKScraper) fetchGroup(ctx context.Context, pageURL, slug, indexDate string) (*model.Group, error) {
	result, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ParseUKGroupPage(string(result.Body), slug, pageURL, indexDate)
}

func slugFromURL(pageURL string) string {
	last := pageURL[strings.LastIndex(pageURL, "/")+1:]
	if idx := strings.Index(last, "."); idx >= 0 {
		last = last[:idx]
	}
	return last
}

// ParseUKGroupPage parses one register page into a group record. It tolerates
// missing tables, leaving the affected fields empty.
func ParseUKGroupPage(pageHTML, slug, sourceURL, indexDate string) (*model.Group, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	group := model.NewGroup(slug, model.ParliamentUK)
	group.SourceURL = sourceURL
	group.IndexDate = indexDate

	tables := doc.Find("table.basicTable")

	if overview := tables.First(); overview.Length() > 0 {
		rows := overview.Find("tr")
		group.Title = valueFromRow(rows.Eq(0))
		group.Purpose = valueFromRow(rows.Eq(1))
		group.Category = valueFromRow(rows.Eq(2))
	}

	group.Officers = parseOfficers(tableByHeader(tables, "Officers"))

	if contact := parseContactDetails(tableByHeader(tables, "Contact Details")); contact != nil {
		group.ContactDetails = *contact
	}

	group.AGM = parseAGMDetails(tableByHeader(tables, "Annual General Meeting"))

	benefits, detailed := parseBenefits(tableByHeader(tables, "Registrable benefits received by the group"))
	group.RegistrableBenefits = benefits
	group.DetailedBenefits = detailed

	return group, nil
}

// valueFromRow returns the second cell's text for a row
func valueFromRow(row *goquery.Selection) string {
	cells := row.Find("td")
	if cells.Length() < 2 {
		return ""
	}
	return cellText(cells.Eq(1))
}

// cellText collapses all whitespace in a cell to single spaces
func cellText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// tableByHeader finds the first table whose first <strong> matches headerText
func tableByHeader(tables *goquery.Selection, headerText string) *goquery.Selection {
	var match *goquery.Selection
	tables.EachWithBreak(func(_ int, table *goquery.Selection) bool {
		strong := table.Find("strong").First()
		if strong.Length() > 0 && strings.TrimSpace(strong.Text()) == headerText {
			match = table
			return false
		}
		return true
	})
	return match
}

func parseOfficers(table *goquery.Selection) []model.Officer {
	var officers []model.Officer
	if table == nil {
		return officers
	}

	// the first two rows are the caption and column headers
	table.Find("tr").Slice(2, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		officers = append(officers, model.Officer{
			Role:  cellText(cells.Eq(0)),
			Name:  cellText(cells.Eq(1)),
			Party: cellText(cells.Eq(2)),
		})
	})
	return officers
}

func parseContactDetails(table *goquery.Selection) *model.ContactDetails {
	if table == nil {
		return nil
	}

	lines := textLines(table)
	extractBlock := func(label string) []string {
		var block []string
		start := -1
		for i, line := range lines {
			if strings.HasPrefix(strings.ToLower(line), strings.ToLower(label)) {
				start = i
				break
			}
		}
		if start < 0 {
			return nil
		}
		for _, line := range lines[start+1:] {
			if strings.HasSuffix(line, ":") {
				break
			}
			block = append(block, line)
		}
		return block
	}

	regBlock := extractBlock("Registered Contact:")
	pubBlock := extractBlock("Public Enquiry Point:")
	secBlock := extractBlock("Secretariat:")
	webBlock := extractBlock("Group's Website:")

	details := &model.ContactDetails{Website: model.NewWebsiteSource()}

	if len(regBlock) > 0 {
		name, addr, found := strings.Cut(regBlock[0], ",")
		details.RegisteredContactName = strings.TrimSpace(name)
		if found {
			details.RegisteredContactAddress = strings.TrimSpace(addr)
		}
		details.RegisteredContactEmail = model.CleanEmail(emailFromBlock(regBlock))
	}

	if len(pubBlock) > 0 {
		details.PublicEnquiryPointName = pubBlock[0]
		details.PublicEnquiryPointEmail = model.CleanEmail(emailFromBlock(pubBlock))
	}

	if len(secBlock) > 0 {
		details.Secretariat = strings.Join(secBlock, " ")
	}

	if len(webBlock) > 0 {
		details.Website = model.WebsiteSource{
			Status: model.WebsiteRegister,
			URL:    webBlock[0],
		}
	}

	return details
}

func emailFromBlock(block []string) string {
	for _, line := range block {
		if strings.HasPrefix(strings.ToLower(line), "email:") {
			_, value, _ := strings.Cut(line, ":")
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func parseAGMDetails(table *goquery.Selection) *model.AGMDetails {
	if table == nil {
		return nil
	}

	mapping := make(map[string]string)
	// the first row is the table caption
	table.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		mapping[cellText(cells.Eq(0))] = valueFromRow(row)
	})

	return &model.AGMDetails{
		DateOfMostRecentAGM:                 parseRegisterDate(mapping["Date of most recent AGM in this Parliament"]),
		PublishedIncomeExpenditureStatement: model.YesNoToBool(mapping["Did the group publish an income and expenditure statement relating to the AGM above?"]),
		ReportingYear:                       mapping["Reporting year"],
		NextReportingDeadline:               parseRegisterDate(mapping["Next reporting deadline"]),
	}
}

// parseRegisterDate parses the register's dd/mm/yyyy dates, returning nil on
// anything it cannot read
func parseRegisterDate(s string) *model.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		return nil
	}
	d := model.Date{Time: t}
	return &d
}

// parseBenefits reads the registrable-benefits table. The register renders
// either a single "None" row or a four-column table with colspan category
// headers.
func parseBenefits(table *goquery.Selection) (string, []map[string]string) {
	if table == nil {
		return "", nil
	}

	rows := table.Find("tr")
	if rows.Length() <= 1 {
		return "", nil
	}
	if rows.Length() == 2 && strings.EqualFold(cellText(rows.Eq(1)), "none") {
		return "", nil
	}

	var detailed []map[string]string
	var headers []string
	benefitType := ""

	rows.Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		if colspan, ok := cells.Eq(0).Attr("colspan"); ok {
			if n, err := strconv.Atoi(colspan); err == nil && n > 1 {
				benefitType = cellText(cells.Eq(0))
				return
			}
		}

		if cells.Length() != 4 {
			return
		}

		isHeader := false
		cells.Each(func(_ int, cell *goquery.Selection) {
			if strings.Contains(cell.Text(), "Source") {
				isHeader = true
			}
		})
		if isHeader {
			headers = headers[:0]
			cells.Each(func(_ int, cell *goquery.Selection) {
				headers = append(headers, cellText(cell))
			})
			return
		}

		if len(headers) != 4 {
			return
		}
		benefit := make(map[string]string, 5)
		cells.Each(func(i int, cell *goquery.Selection) {
			benefit[headers[i]] = cellText(cell)
		})
		benefit["benefit_type"] = benefitType
		detailed = append(detailed, benefit)
	})

	if len(detailed) == 0 {
		return "", nil
	}
	return benefitType, detailed
}

// textLines returns the trimmed text nodes of a selection in document order,
// skipping blanks
func textLines(sel *goquery.Selection) []string {
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				lines = append(lines, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, node := range sel.Nodes {
		walk(node)
	}
	return lines
}
