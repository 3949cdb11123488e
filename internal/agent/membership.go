package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/appgwatch/appgwatch/internal/fetch"
	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/store"
)

const membershipPrompt = `
You are navigating around a website looking for a list of members of an All-Party Parliamentary Group (APPG).
APPGs are required to publish a list of their members on their website.
However, some don't - so not finding it is not a failure and should be reported as such.
You will be given a name of an APPG and a URL to search.

Starting at this URL, the first thing to do is to see if there is a link to a page that contains a list of members.
This might be called APPG members, membership, officers, etc.
If there is a good candidate for this - fetch this link and review the contents. If not, review the content of the starting page.

Look for clues you are looking at a partial list and need to hunt for the full one - e.g. attendees at a meeting, or a list of officers is not a full list of members.

Sometimes this is spread over *multiple* pages, e.g. a page for MPs, a page for Lords, and a page for other members (associate members or similar). You'll need to get each of these.
Associate members are likely to be organisations rather than people.

If you are on a page that might contain the membership list, examine the page looking for a list of members that goes beyond the officers.
You need to determine if there is a list of members, and if so, return the list of members.
Remove the honourific 'MP' but keep Lords titles.
If there is no list of members, return an empty list.

Respond with a JSON object:
{"members_list_found": bool, "source_pages": [{"source_url": "...", "members": [{"name": "...", "is_officer": bool, "type": "mp"|"lord"|"other", "officer_role": "..."}]}]}
`

// FoundMember is one member the agent extracted from a page
type FoundMember struct {
	Name        string `json:"name"`
	IsOfficer   bool   `json:"is_officer"`
	Type        string `json:"type"`
	OfficerRole string `json:"officer_role"`
}

// SourcePage is one page the agent sourced members from
type SourcePage struct {
	SourceURL string        `json:"source_url"`
	Members   []FoundMember `json:"members"`
}

// MemberSearchResult is the agent's final answer for one group
type MemberSearchResult struct {
	MembersListFound bool         `json:"members_list_found"`
	SourcePages      []SourcePage `json:"source_pages"`
}

// AllMembers flattens members across all source pages
func (r *MemberSearchResult) AllMembers() []FoundMember {
	var all []FoundMember
	for _, page := range r.SourcePages {
		all = append(all, page.Members...)
	}
	return all
}

// SourceURLs lists the URLs of the source pages
func (r *MemberSearchResult) SourceURLs() []string {
	urls := make([]string, 0, len(r.SourcePages))
	for _, page := range r.SourcePages {
		urls = append(urls, page.SourceURL)
	}
	return urls
}

// MembershipAgent extracts membership lists from group websites
type MembershipAgent struct {
	client  *Client
	fetcher *fetch.Fetcher
	store   *store.GroupStore
	out     io.Writer
}

// NewMembershipAgent creates a membership extraction agent
func NewMembershipAgent(client *Client, fetcher *fetch.Fetcher, st *store.GroupStore, out io.Writer) *MembershipAgent {
	return &MembershipAgent{client: client, fetcher: fetcher, store: st, out: out}
}

// membershipEpoch: lists updated on or after this date are considered fresh
// and skipped unless overridden
var membershipEpoch = model.NewDate(2025, 4, 28)

// UpdateOptions controls which groups a membership run covers
type UpdateOptions struct {
	Override bool
	Slug     string
}

// UpdateAll runs the membership search over every UK group with a known
// website, merging the results into each group's membership list
func (a *MembershipAgent) UpdateAll(ctx context.Context, opts UpdateOptions) error {
	groups, err := a.store.LoadAll(model.ParliamentUK)
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}

	for _, group := range groups {
		if !group.HasWebsite() {
			continue
		}
		if opts.Slug != "" {
			if group.Slug != opts.Slug {
				continue
			}
		} else if !opts.Override {
			if updated := group.MembersList.LastUpdated; updated != nil && !updated.Before(membershipEpoch) {
				continue
			}
		}

		fmt.Fprintf(a.out, "Searching for %s...\n", group.Title)
		result, err := a.Search(ctx, group, 0)
		if err != nil {
			return fmt.Errorf("search %s: %w", group.Slug, err)
		}

		if a.applyResult(group, result) {
			if err := a.store.Save(group); err != nil {
				return fmt.Errorf("save %s: %w", group.Slug, err)
			}
		}
	}
	return nil
}

// Search asks the agent for the group's membership list, verifying that the
// names it returns appear on the pages it cites. Unverified answers are
// retried up to three times before giving up.
func (a *MembershipAgent) Search(ctx context.Context, group *model.Group, recursion int) (*MemberSearchResult, error) {
	message := fmt.Sprintf("Search for the members of the %s starting at %s",
		group.Title, group.ContactDetails.Website.URL)

	var result MemberSearchResult
	if err := a.client.Run(ctx, membershipPrompt, message, []Tool{a.fetchPageTool()}, &result); err != nil {
		fmt.Fprintf(a.out, "Error searching %s: %v\n", group.Title, err)
		return &MemberSearchResult{}, nil
	}

	if len(result.SourcePages) == 0 {
		return &result, nil
	}

	if a.namesPresent(ctx, &result) {
		return &result, nil
	}
	if recursion < 3 {
		return a.Search(ctx, group, recursion+1)
	}
	return &MemberSearchResult{}, nil
}

// applyResult merges a search result into the group's membership list and
// reports whether the group changed
func (a *MembershipAgent) applyResult(group *model.Group, result *MemberSearchResult) bool {
	if !result.MembersListFound {
		// only degrade lists we populated ourselves
		method := group.MembersList.SourceMethod
		if method == model.SourceEmpty || method == model.SourceAISearch {
			group.MembersList.Blank()
			today := model.Today()
			group.MembersList.LastUpdated = &today
			return true
		}
		return false
	}
	if len(result.SourcePages) == 0 {
		return false
	}

	fmt.Fprintf(a.out, "Found members list for %s: %s (%d members)\n",
		group.Title, strings.Join(result.SourceURLs(), ", "), len(result.AllMembers()))

	today := model.Today()
	group.MembersList.SourceMethod = model.SourceAISearch
	group.MembersList.LastUpdated = &today
	group.MembersList.SourceURLs = result.SourceURLs()

	found := result.AllMembers()
	foundNames := make(map[string]bool, len(found))
	for _, member := range found {
		foundNames[member.Name] = true
	}

	added, removed := 0, 0
	existingNames := make(map[string]bool, len(group.MembersList.Members))
	for i := range group.MembersList.Members {
		existing := &group.MembersList.Members[i]
		existingNames[existing.Name] = true
		if !foundNames[existing.Name] {
			if !existing.Removed {
				existing.Removed = true
				removed++
			}
		} else if existing.Removed {
			existing.Removed = false
		}
	}

	for _, member := range found {
		if existingNames[member.Name] {
			continue
		}
		group.MembersList.Members = append(group.MembersList.Members, model.Member{
			Name:       member.Name,
			IsOfficer:  member.IsOfficer,
			MemberType: model.MemberType(member.Type),
		})
		added++
	}

	if added > 0 || removed > 0 {
		fmt.Fprintf(a.out, "Added %d new members and marked %d members as removed for %s (%d total)\n",
			added, removed, group.Title, len(group.MembersList.Members))
	}
	return true
}

// namesPresent fetches each cited page and checks every extracted name
// appears on it. The comparison strips whitespace to survive markdown line
// wrapping.
func (a *MembershipAgent) namesPresent(ctx context.Context, result *MemberSearchResult) bool {
	// cited pages without a claimed list means the model contradicted
	// itself, so treat the result as unverified and retry
	if !result.MembersListFound {
		return false
	}
	for _, page := range result.SourcePages {
		content, err := a.fetcher.Markdown(ctx, page.SourceURL)
		if err != nil {
			fmt.Fprintf(a.out, "Error fetching %s: %v\n", page.SourceURL, err)
			return false
		}
		haystack := stripWhitespace(strings.ToLower(content))
		for _, member := range page.Members {
			if !strings.Contains(haystack, stripWhitespace(strings.ToLower(member.Name))) {
				fmt.Fprintf(a.out, "Member %s not found in %s\n", member.Name, page.SourceURL)
				return false
			}
		}
	}
	return true
}

func (a *MembershipAgent) fetchPageTool() Tool {
	return Tool{
		Definition: openai.FunctionDefinition{
			Name:        "get_url_as_markdown",
			Description: "Fetch a URL and return a reduced markdown version of the content. PDF content is returned as plain text.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"url": {"type": "string", "description": "The URL to fetch"}
				},
				"required": ["url"]
			}`),
		},
		Call: func(ctx context.Context, arguments string) (string, error) {
			var args struct {
				URL string `json:"url"`
			}
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return "", fmt.Errorf("decode arguments: %w", err)
			}
			content, err := a.fetcher.Markdown(ctx, args.URL)
			if err != nil {
				return fmt.Sprintf("Failed to fetch the page: %v", err), nil
			}
			return content, nil
		},
	}
}
