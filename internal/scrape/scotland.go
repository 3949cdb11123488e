package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/appgwatch/appgwatch/internal/cache"
	"github.com/appgwatch/appgwatch/internal/fetch"
	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/register"
	"github.com/appgwatch/appgwatch/internal/store"
)

// Scottish Parliament open data endpoints
const (
	scotGroupsURL  = "https://data.parliament.scot/api/crosspartygroups/json"
	scotRolesURL   = "https://data.parliament.scot/api/crosspartygrouproles/json"
	scotMembersURL = "https://data.parliament.scot/api/membercrosspartyroles/json"
)

// scotGroup mirrors one record of the crosspartygroups endpoint
type scotGroup struct {
	ID             int     `json:"ID"`
	Name           string  `json:"Name"`
	GaelicName     *string `json:"GaelicName"`
	Description    *string `json:"Description"`
	ValidFromDate  string  `json:"ValidFromDate"`
	ValidUntilDate *string `json:"ValidUntilDate"`
}

type scotRole struct {
	ID    int     `json:"ID"`
	Name  string  `json:"Name"`
	Notes *string `json:"Notes"`
}

type scotMember struct {
	ID                    int     `json:"ID"`
	PersonID              int     `json:"PersonID"`
	CrossPartyGroupRoleID int     `json:"CrossPartyGroupRoleID"`
	CrossPartyGroupID     int     `json:"CrossPartyGroupID"`
	ValidFromDate         string  `json:"ValidFromDate"`
	ValidUntilDate        *string `json:"ValidUntilDate"`
}

// scotOfficerRoles are the roles filed under officers rather than members
var scotOfficerRoles = map[string]bool{
	"convener":        true,
	"co-convener":     true,
	"deputy convener": true,
	"secretary":       true,
	"treasurer":       true,
}

// urlYearCorrections fixes groups whose public URL year does not match the
// year the API reports
var urlYearCorrections = map[string]int{
	"space": 2023,
}

var (
	scotPrefixRe   = regexp.MustCompile(`(?i)^Cross-Party Group in the Scottish Parliament on\s+`)
	leadingTheRe   = regexp.MustCompile(`(?i)^the\s+`)
	nonSlugCharRe  = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugSpacerRe   = regexp.MustCompile(`[-\s]+`)
)

// ScotlandSlug converts a Cross-Party Group name to a slug, e.g.
// "Cross-Party Group in the Scottish Parliament on Epilepsy" to "epilepsy"
func ScotlandSlug(name string) string {
	clean := scotPrefixRe.ReplaceAllString(name, "")
	clean = leadingTheRe.ReplaceAllString(clean, "")
	slug := nonSlugCharRe.ReplaceAllString(strings.ToLower(clean), "")
	slug = slugSpacerRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// PublicURL returns the group's page on parliament.scot
func (g scotGroup) PublicURL() string {
	slug := ScotlandSlug(g.Name)
	year := 0
	if len(g.ValidFromDate) >= 4 {
		year, _ = strconv.Atoi(g.ValidFromDate[:4])
	}
	if corrected, ok := urlYearCorrections[slug]; ok {
		year = corrected
	}
	return fmt.Sprintf("https://www.parliament.scot/get-involved/cross-party-groups/current-cross-party-groups/%d/%s", year, slug)
}

// ScotlandScraper converts the Scottish Parliament's open data into group
// records
type ScotlandScraper struct {
	client     *resty.Client
	fetcher    *fetch.Fetcher
	store      *store.GroupStore
	registry   *register.Registry
	purposes   cache.Cache
	classifier Classifier
	out        io.Writer
}

// NewScotlandScraper creates a Scotland scraper. The purposes cache persists
// scraped group purposes between runs; the classifier may be nil.
func NewScotlandScraper(client *resty.Client, fetcher *fetch.Fetcher, st *store.GroupStore, registry *register.Registry, purposes cache.Cache, classifier Classifier, out io.Writer) *ScotlandScraper {
	return &ScotlandScraper{
		client:     client,
		fetcher:    fetcher,
		store:      st,
		registry:   registry,
		purposes:   purposes,
		classifier: classifier,
		out:        out,
	}
}

// Run fetches the current Cross-Party Groups and saves one record per group.
// Groups with no current members are assumed defunct and skipped.
func (s *ScotlandScraper) Run(ctx context.Context) error {
	previousSlugs, err := s.store.Slugs(model.ParliamentScotland)
	if err != nil {
		return fmt.Errorf("list existing groups: %w", err)
	}

	fmt.Fprintln(s.out, "Fetching Cross-Party Groups...")
	var groups []scotGroup
	if err := s.getJSON(ctx, scotGroupsURL, &groups); err != nil {
		return fmt.Errorf("fetch groups: %w", err)
	}

	fmt.Fprintln(s.out, "Fetching roles...")
	var roles []scotRole
	if err := s.getJSON(ctx, scotRolesURL, &roles); err != nil {
		return fmt.Errorf("fetch roles: %w", err)
	}

	fmt.Fprintln(s.out, "Fetching members...")
	var members []scotMember
	if err := s.getJSON(ctx, scotMembersURL, &members); err != nil {
		return fmt.Errorf("fetch members: %w", err)
	}

	roleNames := make(map[int]string, len(roles))
	for _, role := range roles {
		roleNames[role.ID] = role.Name
	}

	membersByGroup := make(map[int][]scotMember)
	for _, member := range members {
		if member.ValidUntilDate != nil {
			continue
		}
		membersByGroup[member.CrossPartyGroupID] = append(membersByGroup[member.CrossPartyGroupID], member)
	}

	count := 0
	for _, apiGroup := range groups {
		if apiGroup.ValidUntilDate != nil {
			continue
		}
		count++
		fmt.Fprintf(s.out, "Processing: %s\n", apiGroup.Name)

		groupMembers := membersByGroup[apiGroup.ID]
		if len(groupMembers) == 0 {
			fmt.Fprintf(s.out, "  Skipping %s, no members found (assumed defunct)\n", apiGroup.Name)
			continue
		}

		group := s.buildGroup(ctx, apiGroup, groupMembers, roleNames)

		// preserve categories already assigned to this group
		existing, err := s.store.Load(model.ParliamentScotland, group.Slug)
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
	fmt.Fprintf(s.out, "Processed %d current Cross-Party Groups\n", count)

	return classifyNewGroups(ctx, s.store, s.classifier, model.ParliamentScotland, previousSlugs, s.out)
}

func (s *ScotlandScraper) buildGroup(ctx context.Context, apiGroup scotGroup, groupMembers []scotMember, roleNames map[int]string) *model.Group {
	group := model.NewGroup(ScotlandSlug(apiGroup.Name), model.ParliamentScotland)
	group.Title = apiGroup.Name
	group.SourceURL = apiGroup.PublicURL()
	group.ContactDetails.Website = model.WebsiteSource{
		Status: model.WebsiteRegister,
		URL:    apiGroup.PublicURL(),
	}

	var officers []model.Officer
	var memberList []model.Member
	for _, m := range groupMembers {
		person, ok := s.registry.PersonByIdentifier(register.SchemeScotparl, strconv.Itoa(m.PersonID))
		if !ok {
			fmt.Fprintf(s.out, "  Warning: no person with ScotParl ID %d\n", m.PersonID)
			continue
		}
		name := person.MainName()
		if name == "" {
			fmt.Fprintf(s.out, "  Warning: no name for person %d\n", m.PersonID)
			continue
		}

		roleName := roleNames[m.CrossPartyGroupRoleID]
		if roleName == "" {
			roleName = "Member"
		}

		// party affiliation is not exposed by the Scotland API
		if scotOfficerRoles[strings.ToLower(roleName)] {
			officers = append(officers, model.Officer{
				Role:   roleName,
				Name:   name,
				TwfyID: person.ID,
				MnisID: person.Identifier(register.SchemeDatadotparl),
			})
		} else {
			memberList = append(memberList, model.Member{
				Name:       name,
				MemberType: model.MemberTypeMSP,
				TwfyID:     person.ID,
				MnisID:     person.Identifier(register.SchemeDatadotparl),
			})
		}
	}

	group.Officers = officers
	group.MembersList = model.MembershipList{
		SourceMethod: model.SourceOfficial,
		SourceURLs:   []string{scotGroupsURL},
		Members:      memberList,
	}
	group.Purpose = s.groupPurpose(ctx, apiGroup)
	return group
}

// groupPurpose returns the group's purpose, scraped from its public page and
// cached forever. Failed scrapes are cached as empty to avoid re-fetching.
func (s *ScotlandScraper) groupPurpose(ctx context.Context, apiGroup scotGroup) string {
	key := "purpose-" + ScotlandSlug(apiGroup.Name)
	if cached, ok := s.purposes.Get(key); ok {
		return string(cached)
	}

	fmt.Fprintf(s.out, "  Scraping purpose for %s...\n", apiGroup.Name)
	purpose, err := s.scrapePurpose(ctx, apiGroup.PublicURL())
	if err != nil {
		fmt.Fprintf(s.out, "  Warning: could not scrape purpose: %v\n", err)
		purpose = ""
	}
	if err := s.purposes.Set(key, []byte(purpose), cache.NoExpiry); err != nil {
		fmt.Fprintf(s.out, "  Warning: could not cache purpose: %v\n", err)
	}
	return purpose
}

// scrapePurpose pulls the purpose paragraph from a group's public page. The
// page renders the purpose marker in a rich-text block, with the content
// either inline, in the following paragraph, or as a bullet list.
func (s *ScotlandScraper) scrapePurpose(ctx context.Context, pageURL string) (string, error) {
	result, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(result.Body)))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	const marker = "this cross-party group's purpose:"
	purpose := ""
	doc.Find("div.rich-text p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := strings.Join(strings.Fields(p.Text()), " ")
		lower := strings.ToLower(text)
		idx := strings.Index(lower, marker)
		if idx < 0 {
			return true
		}

		// content inline after the marker
		if rest := strings.TrimSpace(text[idx+len(marker):]); rest != "" {
			purpose = rest
			return false
		}

		// content in the next paragraph or bullet list
		next := p.Next()
		if next.Is("p") || next.Is("ul") {
			purpose = strings.Join(strings.Fields(next.Text()), " ")
		}
		return false
	})

	return purpose, nil
}

// getJSON issues a GET and decodes the JSON response body
func (s *ScotlandScraper) getJSON(ctx context.Context, url string, target any) error {
	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode())
	}
	return json.Unmarshal(resp.Body(), target)
}

// classifyNewGroups assigns categories to groups that appeared in this run
func classifyNewGroups(ctx context.Context, st *store.GroupStore, classifier Classifier, parliament model.Parliament, previous map[string]struct{}, out io.Writer) error {
	if classifier == nil {
		return nil
	}

	currentSlugs, err := st.Slugs(parliament)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}

	assigned := 0
	for slug := range currentSlugs {
		if _, ok := previous[slug]; ok {
			continue
		}
		group, err := st.Load(parliament, slug)
		if err != nil {
			return fmt.Errorf("load %s: %w", slug, err)
		}
		if len(group.Categories) > 0 {
			continue
		}
		categories, err := classifier.Classify(ctx, group)
		if err != nil {
			fmt.Fprintf(out, "Could not classify %s: %v\n", slug, err)
			continue
		}
		group.Categories = categories
		if err := st.Save(group); err != nil {
			return fmt.Errorf("save %s: %w", slug, err)
		}
		assigned++
	}
	if assigned > 0 {
		fmt.Fprintf(out, "Assigned categories for %d new %s groups\n", assigned, parliament)
	}
	return nil
}
