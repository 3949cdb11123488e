package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/appgwatch/appgwatch/internal/fetch"
	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/register"
	"github.com/appgwatch/appgwatch/internal/store"
)

// NI Assembly endpoints. The data service expects POST requests.
const (
	niOrganisationsURL = "https://data.niassembly.gov.uk/organisations.asmx/GetAllPartyGroupsListCurrent_JSON"
	niMemberRolesURL   = "https://data.niassembly.gov.uk/members.asmx/GetAllMemberRoles_JSON"
	niDetailPageURL    = "https://aims.niassembly.gov.uk/mlas/apgdetails.aspx?&cid=%s"
)

// niAPGRoleType marks role assignments belonging to All-Party Groups
const niAPGRoleType = "All Party Group Role"

var niOfficerRoles = map[string]bool{
	"assembly party group chairperson":      true,
	"assembly party group vice-chairperson": true,
	"assembly party group secretary":        true,
	"assembly party group treasurer":        true,
}

var (
	niPrefixRe     = regexp.MustCompile(`(?i)^All-Party Group on\s+`)
	niRolePrefixRe = regexp.MustCompile(`(?i)^Assembly Party Group\s+`)
	niPurposeRe    = regexp.MustCompile(`(?i)^Purpose\s*:\s*`)
)

// NISlug converts an All-Party Group name to a slug, e.g.
// "All-Party Group on Access to Justice" to "access-to-justice"
func NISlug(name string) string {
	clean := niPrefixRe.ReplaceAllString(name, "")
	clean = leadingTheRe.ReplaceAllString(clean, "")
	slug := nonSlugCharRe.ReplaceAllString(strings.ToLower(clean), "")
	slug = slugSpacerRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// NormalizeNIRole shortens an NI role title for display, e.g.
// "Assembly Party Group Chairperson" to "Chairperson"
func NormalizeNIRole(role string) string {
	return strings.TrimSpace(niRolePrefixRe.ReplaceAllString(role, ""))
}

type niOrganisation struct {
	OrganisationID   string `json:"OrganisationId"`
	OrganisationName string `json:"OrganisationName"`
	OrganisationType string `json:"OrganisationType"`
}

type niOrganisationsResponse struct {
	OrganisationsList struct {
		Organisation []niOrganisation `json:"Organisation"`
	} `json:"OrganisationsList"`
}

type niMemberRole struct {
	PersonID              string `json:"PersonId"`
	AffiliationID         string `json:"AffiliationId"`
	MemberFullDisplayName string `json:"MemberFullDisplayName"`
	RoleType              string `json:"RoleType"`
	Role                  string `json:"Role"`
	OrganisationID        string `json:"OrganisationId"`
	Organisation          string `json:"Organisation"`
	AffiliationStart      string `json:"AffiliationStart"`
	AffiliationTitle      string `json:"AffiliationTitle"`
}

type niMemberRolesResponse struct {
	AllMembersRoles struct {
		Role []niMemberRole `json:"Role"`
	} `json:"AllMembersRoles"`
}

// NIScraper converts the NI Assembly's All-Party Group data into group records
type NIScraper struct {
	client     *resty.Client
	fetcher    *fetch.Fetcher
	store      *store.GroupStore
	registry   *register.Registry
	classifier Classifier
	out        io.Writer
}

// NewNIScraper creates an NI Assembly scraper. The classifier may be nil.
func NewNIScraper(client *resty.Client, fetcher *fetch.Fetcher, st *store.GroupStore, registry *register.Registry, classifier Classifier, out io.Writer) *NIScraper {
	return &NIScraper{
		client:     client,
		fetcher:    fetcher,
		store:      st,
		registry:   registry,
		classifier: classifier,
		out:        out,
	}
}

// Run fetches the current All-Party Groups and saves one record per group
func (s *NIScraper) Run(ctx context.Context) error {
	previousSlugs, err := s.store.Slugs(model.ParliamentNI)
	if err != nil {
		return fmt.Errorf("list existing groups: %w", err)
	}

	fmt.Fprintln(s.out, "Fetching NI Assembly All-Party Groups...")
	var orgResponse niOrganisationsResponse
	if err := s.postJSON(ctx, niOrganisationsURL, &orgResponse); err != nil {
		return fmt.Errorf("fetch organisations: %w", err)
	}
	organisations := orgResponse.OrganisationsList.Organisation
	fmt.Fprintf(s.out, "Found %d All-Party Groups\n", len(organisations))

	fmt.Fprintln(s.out, "Fetching member roles...")
	var rolesResponse niMemberRolesResponse
	if err := s.postJSON(ctx, niMemberRolesURL, &rolesResponse); err != nil {
		return fmt.Errorf("fetch member roles: %w", err)
	}

	rolesByOrg := make(map[string][]niMemberRole)
	apgRoles := 0
	for _, role := range rolesResponse.AllMembersRoles.Role {
		if role.RoleType != niAPGRoleType {
			continue
		}
		rolesByOrg[role.OrganisationID] = append(rolesByOrg[role.OrganisationID], role)
		apgRoles++
	}
	fmt.Fprintf(s.out, "Found %d All-Party Group role assignments\n", apgRoles)

	for _, org := range organisations {
		fmt.Fprintf(s.out, "Processing: %s\n", org.OrganisationName)

		group := s.buildGroup(ctx, org, rolesByOrg[org.OrganisationID])

		existing, err := s.store.Load(model.ParliamentNI, group.Slug)
		if err == nil {
			group.Categories = existing.Categories
		} else if err != store.ErrNotFound {
			return fmt.Errorf("load existing %s: %w", group.Slug, err)
		}

		if err := s.store.Save(group); err != nil {
			return fmt.Errorf("save %s: %w", group.Slug, err)
		}
		fmt.Fprintf(s.out, "  Saved: %s (%d officers, %d members)\n", group.Slug, len(group.Officers), len(group.MembersList.Members))
	}
	fmt.Fprintf(s.out, "Completed processing %d All-Party Groups\n", len(organisations))

	return classifyNewGroups(ctx, s.store, s.classifier, model.ParliamentNI, previousSlugs, s.out)
}

func (s *NIScraper) buildGroup(ctx context.Context, org niOrganisation, orgRoles []niMemberRole) *model.Group {
	detailURL := fmt.Sprintf(niDetailPageURL, org.OrganisationID)

	group := model.NewGroup(NISlug(org.OrganisationName), model.ParliamentNI)
	group.Title = org.OrganisationName
	group.SourceURL = detailURL
	group.ContactDetails.Website = model.WebsiteSource{
		Status: model.WebsiteRegister,
		URL:    detailURL,
	}

	if result, err := s.fetcher.Fetch(ctx, detailURL); err != nil {
		fmt.Fprintf(s.out, "  Warning: could not fetch detail page: %v\n", err)
	} else {
		group.Purpose = ParseNIPurpose(string(result.Body))
		group.RegistrableBenefits = ParseNIBenefits(string(result.Body))
	}

	// deduplicate role assignments per person, preferring officer roles
	seen := make(map[string]niMemberRole)
	order := make([]string, 0, len(orgRoles))
	for _, role := range orgRoles {
		existing, ok := seen[role.PersonID]
		if !ok {
			seen[role.PersonID] = role
			order = append(order, role.PersonID)
		} else if niOfficerRoles[strings.ToLower(strings.TrimSpace(role.Role))] && !niOfficerRoles[strings.ToLower(strings.TrimSpace(existing.Role))] {
			seen[role.PersonID] = role
		}
	}

	var officers []model.Officer
	var memberList []model.Member
	for _, personID := range order {
		role := seen[personID]
		twfyID := s.lookupTwfyID(role.PersonID)
		memberType := model.MemberTypeMLA
		if twfyID == "" {
			memberType = model.MemberTypeOther
		}

		if niOfficerRoles[strings.ToLower(strings.TrimSpace(role.Role))] {
			officers = append(officers, model.Officer{
				Role:   NormalizeNIRole(role.Role),
				Name:   role.MemberFullDisplayName,
				TwfyID: twfyID,
				MnisID: role.PersonID,
			})
		} else {
			memberList = append(memberList, model.Member{
				Name:       role.MemberFullDisplayName,
				MemberType: memberType,
				TwfyID:     twfyID,
				MnisID:     role.PersonID,
			})
		}
	}

	group.Officers = officers
	group.MembersList = model.MembershipList{
		SourceMethod: model.SourceOfficial,
		SourceURLs:   []string{detailURL},
		Members:      memberList,
	}
	return group
}

func (s *NIScraper) lookupTwfyID(personID string) string {
	if s.registry == nil || personID == "" {
		return ""
	}
	person, ok := s.registry.PersonByIdentifier(register.SchemeNIAssembly, personID)
	if !ok {
		return ""
	}
	return person.ID
}

// postJSON issues a POST and decodes the JSON response body
func (s *NIScraper) postJSON(ctx context.Context, url string, target any) error {
	resp, err := s.client.R().SetContext(ctx).Post(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("POST %s: status %d", url, resp.StatusCode())
	}
	return json.Unmarshal(resp.Body(), target)
}

// ParseNIPurpose extracts the purpose text from an APG detail page's
// synopsis block. Bullet points are flattened to a semicolon-joined sentence.
func ParseNIPurpose(pageHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return ""
	}

	synopsis := doc.Find("div.synopsis").First()
	if synopsis.Length() == 0 {
		// older pages hold the purpose in the first accordion pane
		synopsis = doc.Find("#ctl00_MainContentPlaceHolder_AccordionPane0_content").First()
	}
	if synopsis.Length() == 0 {
		return ""
	}
	synopsis.Find("script, style, noscript").Remove()

	var parts []string
	items := synopsis.Find("li")
	if items.Length() > 0 {
		items.Each(func(_ int, item *goquery.Selection) {
			if text := strings.Join(strings.Fields(item.Text()), " "); text != "" {
				parts = append(parts, strings.TrimSuffix(text, "."))
			}
		})
	}

	text := strings.Join(strings.Fields(synopsis.Text()), " ")
	text = niPurposeRe.ReplaceAllString(text, "")
	if len(parts) > 0 {
		text = strings.Join(parts, "; ")
	}
	return strings.TrimSpace(text)
}

// ParseNIBenefits extracts the financial-benefits text from an APG detail
// page, preferring the finance table to avoid picking up page chrome
func ParseNIBenefits(pageHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return ""
	}

	if table := doc.Find("#ctl00_MainContentPlaceHolder_AccordionPane1_content_APGFinanceGridView").First(); table.Length() > 0 {
		return strings.Join(strings.Fields(table.Text()), " ")
	}

	const noFinance = "There have been no financial or other benefits received by this committee"
	if strings.Contains(pageHTML, noFinance) {
		return noFinance
	}

	if pane := doc.Find("#ctl00_MainContentPlaceHolder_AccordionPane1_content").First(); pane.Length() > 0 {
		pane.Find("script, style, noscript").Remove()
		return strings.Join(strings.Fields(pane.Text()), " ")
	}
	return ""
}
