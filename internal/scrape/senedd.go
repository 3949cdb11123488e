package scrape

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/appgwatch/appgwatch/internal/fetch"
	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/register"
	"github.com/appgwatch/appgwatch/internal/store"
)

// The Senedd publishes Cross Party Groups as ModernGov "outside bodies", with
// mirrored English and Welsh sites
const (
	seneddENBase = "https://business.senedd.wales/"
	seneddCYBase = "https://busnes.senedd.cymru/"

	seneddListPage   = "mgListOutsideBodiesByCategory.aspx"
	seneddDetailPage = "mgOutsideBodyDetails.aspx?ID=%s"
)

// seneddOfficerRoles covers both English and Welsh role names
var seneddOfficerRoles = map[string]bool{
	"chair":         true,
	"co-chair":      true,
	"vice chair":    true,
	"vice-chair":    true,
	"deputy chair":  true,
	"secretary":     true,
	"treasurer":     true,
	"cadeirydd":     true,
	"cyd-gadeirydd": true,
	"is-gadeirydd":  true,
	"ysgrifennydd":  true,
	"trysorydd":     true,
}

var (
	seneddENSuffixRe = regexp.MustCompile(`(?i)\s*-\s*Cross Party Group\s*$`)
	seneddCYSuffixRe = regexp.MustCompile(`(?i)\s*-\s*Grŵp Trawsbleidiol\s*$`)
	seneddUIDRe      = regexp.MustCompile(`(?i)mgUserInfo\.aspx\?UID=(\d+)`)
	seneddRoleRe     = regexp.MustCompile(`\(([^)]*)\)`)
	seneddPurposeRe  = regexp.MustCompile(`(?is)(?:Purpose|Diben)(.*?)(?:Office-holders|Deiliaid swyddi|Documentation|Dogfennau)`)
)

// SeneddSlug converts a Senedd Cross Party Group name to a slug, e.g.
// "Academic Staff in Universities - Cross Party Group" to
// "academic-staff-in-universities"
func SeneddSlug(name string) string {
	clean := seneddENSuffixRe.ReplaceAllString(name, "")
	clean = seneddCYSuffixRe.ReplaceAllString(clean, "")
	slug := nonSlugCharRe.ReplaceAllString(strings.ToLower(clean), "")
	slug = slugSpacerRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// seneddMember is one entry parsed from a detail page's members list
type seneddMember struct {
	Name     string
	Role     string
	SeneddID string
}

// SeneddScraper converts the Senedd's outside-body pages into group records,
// saving English and Welsh versions of each group
type SeneddScraper struct {
	fetcher  *fetch.Fetcher
	store    *store.GroupStore
	registry *register.Registry
	out      io.Writer
}

// NewSeneddScraper creates a Senedd scraper
func NewSeneddScraper(fetcher *fetch.Fetcher, st *store.GroupStore, registry *register.Registry, out io.Writer) *SeneddScraper {
	return &SeneddScraper{fetcher: fetcher, store: st, registry: registry, out: out}
}

// Run fetches the group listing and both language versions of every group
func (s *SeneddScraper) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Fetching Senedd Cross Party Group listing...")
	result, err := s.fetcher.Fetch(ctx, seneddENBase+seneddListPage)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}

	entries, err := ParseSeneddList(string(result.Body))
	if err != nil {
		return fmt.Errorf("parse listing: %w", err)
	}
	fmt.Fprintf(s.out, "Found %d Cross Party Group entries\n", len(entries))

	enCount, cyCount := 0, 0
	for _, entry := range entries {
		fmt.Fprintf(s.out, "Processing: %s (ID: %s)\n", entry.Name, entry.ID)

		enGroup, cyGroup := s.processGroup(ctx, entry.ID, entry.Name)
		if enGroup != nil {
			if err := s.store.Save(enGroup); err != nil {
				return fmt.Errorf("save %s: %w", enGroup.Slug, err)
			}
			enCount++
		}
		if cyGroup != nil {
			if err := s.store.Save(cyGroup); err != nil {
				return fmt.Errorf("save %s: %w", cyGroup.Slug, err)
			}
			cyCount++
		}
	}
	fmt.Fprintf(s.out, "Saved %d English and %d Welsh group records\n", enCount, cyCount)
	return nil
}

// processGroup fetches both language versions of one group. The members are
// shared between the versions, so the Welsh record reuses the English parse
// when available.
func (s *SeneddScraper) processGroup(ctx context.Context, bodyID, enName string) (*model.Group, *model.Group) {
	slug := SeneddSlug(enName)
	enURL := seneddENBase + fmt.Sprintf(seneddDetailPage, bodyID)
	cyURL := seneddCYBase + fmt.Sprintf(seneddDetailPage, bodyID)

	var enGroup *model.Group
	if result, err := s.fetcher.Fetch(ctx, enURL); err != nil {
		fmt.Fprintf(s.out, "  Warning: could not fetch English page for %s: %v\n", enName, err)
	} else {
		enGroup = s.buildSeneddGroup(string(result.Body), slug, enName, enURL, model.ParliamentSeneddEN)
	}

	var cyGroup *model.Group
	if result, err := s.fetcher.Fetch(ctx, cyURL); err != nil {
		fmt.Fprintf(s.out, "  Warning: could not fetch Welsh page for %s: %v\n", enName, err)
	} else {
		cyGroup = s.buildSeneddGroup(string(result.Body), slug, enName, cyURL, model.ParliamentSeneddCY)
		if enGroup != nil {
			cyGroup.Officers = append([]model.Officer(nil), enGroup.Officers...)
			cyGroup.MembersList.Members = append([]model.Member(nil), enGroup.MembersList.Members...)
		}
	}

	return enGroup, cyGroup
}

func (s *SeneddScraper) buildSeneddGroup(pageHTML, slug, fallbackTitle, sourceURL string, parliament model.Parliament) *model.Group {
	group := model.NewGroup(slug, parliament)
	group.SourceURL = sourceURL
	group.ContactDetails.Website = model.WebsiteSource{
		Status: model.WebsiteRegister,
		URL:    sourceURL,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		group.Title = fallbackTitle
		return group
	}

	group.Title = seneddTitle(doc)
	if group.Title == "" {
		group.Title = fallbackTitle
	}
	group.Purpose = seneddPurpose(doc)

	var officers []model.Officer
	var memberList []model.Member
	for _, m := range parseSeneddMembers(doc) {
		twfyID := s.lookupTwfyID(m.SeneddID)
		if seneddOfficerRoles[strings.ToLower(strings.TrimSpace(m.Role))] {
			officers = append(officers, model.Officer{
				Role:   m.Role,
				Name:   m.Name,
				MnisID: m.SeneddID,
				TwfyID: twfyID,
			})
		} else {
			memberList = append(memberList, model.Member{
				Name:       m.Name,
				MemberType: model.MemberTypeMS,
				MnisID:     m.SeneddID,
				TwfyID:     twfyID,
			})
		}
	}

	group.Officers = officers
	group.MembersList = model.MembershipList{
		SourceMethod: model.SourceOfficial,
		SourceURLs:   []string{sourceURL},
		Members:      memberList,
	}
	return group
}

func (s *SeneddScraper) lookupTwfyID(seneddID string) string {
	if s.registry == nil || seneddID == "" {
		return ""
	}
	person, ok := s.registry.PersonByIdentifier(register.SchemeSenedd, seneddID)
	if !ok {
		return ""
	}
	return person.ID
}

// SeneddListEntry is one group on the listing page
type SeneddListEntry struct {
	ID   string
	Name string
}

// ParseSeneddList extracts body IDs and names from the listing page
func ParseSeneddList(pageHTML string) ([]SeneddListEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var entries []SeneddListEntry
	doc.Find(`a[href^="mgOutsideBodyDetails.aspx?ID="]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		id := strings.TrimPrefix(href, "mgOutsideBodyDetails.aspx?ID=")
		name := strings.Join(strings.Fields(link.Text()), " ")
		if id == "" || name == "" {
			return
		}
		entries = append(entries, SeneddListEntry{ID: id, Name: name})
	})
	return entries, nil
}

// seneddTitle reads the group name from a detail page, preferring the
// ModernGov subtitle heading
func seneddTitle(doc *goquery.Document) string {
	if title := strings.Join(strings.Fields(doc.Find("h2.mgSubTitleTxt").First().Text()), " "); title != "" {
		return title
	}
	if title := strings.Join(strings.Fields(doc.Find("h1").First().Text()), " "); title != "" {
		return title
	}
	title := doc.Find("title").First().Text()
	if idx := strings.Index(title, " - "); idx >= 0 {
		title = title[:idx]
	}
	return strings.Join(strings.Fields(title), " ")
}

// seneddPurpose reads the purpose text, which sits between the Purpose/Diben
// and Office-holders/Documentation headings of the description block
func seneddPurpose(doc *goquery.Document) string {
	content := doc.Find("div.mgWordPara").First().Text()
	if content == "" {
		return ""
	}
	match := seneddPurposeRe.FindStringSubmatch(content)
	if match == nil {
		return ""
	}
	purpose := strings.Join(strings.Fields(match[1]), " ")
	return strings.Trim(purpose, "  ")
}

// parseSeneddMembers reads the members bullet list. Roles appear in
// parentheses after the member link, e.g. "Mike Hedges MS (Chair)".
func parseSeneddMembers(doc *goquery.Document) []seneddMember {
	list := doc.Find("h2:contains('Members')").First().NextFiltered("ul.mgBulletList")
	if list.Length() == 0 {
		list = doc.Find("h2:contains('Aelodau')").First().NextFiltered("ul.mgBulletList")
	}
	if list.Length() == 0 {
		list = doc.Find("ul.mgBulletList").First()
	}

	var members []seneddMember
	list.Find("li").Each(func(_ int, item *goquery.Selection) {
		itemHTML, _ := goquery.OuterHtml(item)

		seneddID := ""
		if match := seneddUIDRe.FindStringSubmatch(itemHTML); match != nil {
			seneddID = match[1]
		}

		name := strings.Join(strings.Fields(item.Find("a").First().Text()), " ")
		fullText := strings.Join(strings.Fields(item.Text()), " ")
		if name == "" {
			name = seneddRoleRe.ReplaceAllString(fullText, "")
			name = strings.TrimSpace(name)
		}
		if name == "" {
			return
		}

		role := ""
		if match := seneddRoleRe.FindStringSubmatch(fullText); match != nil {
			role = strings.TrimSpace(match[1])
		}

		members = append(members, seneddMember{Name: name, Role: role, SeneddID: seneddID})
	})
	return members
}
