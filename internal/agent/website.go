package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/appgwatch/appgwatch/internal/fetch"
	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/store"
)

const tavilySearchURL = "https://api.tavily.com/search"

const websitePrompt = `
You are searching for the page on the internet of a given all party parliamentary group (APPG) in the UK Parliament.
You will be given the name of the APPG and you should search for the page on the UK Parliament website.
This is not the site in the register on parliament.uk or parallelparliament.co.uk - but will be a seperate page, sometimes hosted
by the convening organisation of the APPG (so might sit as subpages on a seperate site.)

Sometimes the APPG will not have a page, in which case you should say so rather than using unlikely candidates.

Sometimes you will find a blog post or a news article about the APPG, but not the page itself. This is not what we're looking for.

You might need to try several variations of the name of the APPG to find the page.
for instance '[x] APPG' or 'All-Party Parliamentary Group on [x]'

Sometimes an APPG's website used to exist but doesn't - worth checking the final candidate for a 404 error.

Respond with a JSON object:
{"has_website": bool, "url": "..." or null, "desc": "a description of the page if it exists"}
`

// WebsiteSearchResult is the agent's final answer for one group
type WebsiteSearchResult struct {
	HasWebsite bool    `json:"has_website"`
	URL        *string `json:"url"`
	Desc       string  `json:"desc"`
}

// WebsiteAgent proposes candidate websites for groups with no registered one
type WebsiteAgent struct {
	client       *Client
	searchClient *resty.Client
	searchAPIKey string
	fetcher      *fetch.Fetcher
	store        *store.GroupStore
	out          io.Writer
}

// NewWebsiteAgent creates a website search agent
func NewWebsiteAgent(client *Client, searchClient *resty.Client, searchAPIKey string, fetcher *fetch.Fetcher, st *store.GroupStore, out io.Writer) *WebsiteAgent {
	return &WebsiteAgent{
		client:       client,
		searchClient: searchClient,
		searchAPIKey: searchAPIKey,
		fetcher:      fetcher,
		store:        st,
		out:          out,
	}
}

// UpdateAll searches for websites for every UK group whose status admits a
// search. Found candidates are parked as search_precheck for human review;
// definite misses become no_search.
func (a *WebsiteAgent) UpdateAll(ctx context.Context, opts UpdateOptions) error {
	eligible := map[model.WebsiteStatus]bool{model.WebsiteNoRegister: true}
	if opts.Override {
		eligible[model.WebsiteSearch] = true
		eligible[model.WebsiteNoSearch] = true
	}

	groups, err := a.store.LoadAll(model.ParliamentUK)
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}

	for _, group := range groups {
		if opts.Slug != "" && group.Slug != opts.Slug {
			continue
		}
		if !eligible[group.ContactDetails.Website.Status] {
			continue
		}

		fmt.Fprintf(a.out, "Searching for %s...\n", group.Title)
		result, err := a.Search(ctx, group)
		if err != nil {
			return fmt.Errorf("search %s: %w", group.Slug, err)
		}

		changed := false
		if result.HasWebsite && result.URL != nil && *result.URL != "" {
			group.ContactDetails.Website.Status = model.WebsiteSearchPrecheck
			group.ContactDetails.Website.URL = *result.URL
			fmt.Fprintf(a.out, "Found website for %s: %s (%s)\n", group.Title, *result.URL, result.Desc)
			changed = true
		} else if !result.HasWebsite {
			group.ContactDetails.Website.Status = model.WebsiteNoSearch
			fmt.Fprintf(a.out, "No website found for %s\n", group.Title)
			changed = true
		}

		if changed {
			if err := a.store.Save(group); err != nil {
				return fmt.Errorf("save %s: %w", group.Slug, err)
			}
		}
	}
	return nil
}

// Search asks the agent whether the group has a website of its own
func (a *WebsiteAgent) Search(ctx context.Context, group *model.Group) (*WebsiteSearchResult, error) {
	message := fmt.Sprintf("Search for the page of the %s", group.Title)

	var result WebsiteSearchResult
	tools := []Tool{a.webSearchTool(), a.check404Tool()}
	if err := a.client.Run(ctx, websitePrompt, message, tools, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// tavilyResponse is the subset of the search API response passed to the model
type tavilyResponse struct {
	Answer  string `json:"answer,omitempty"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (a *WebsiteAgent) webSearchTool() Tool {
	return Tool{
		Definition: openai.FunctionDefinition{
			Name:        "web_search",
			Description: "Search the web and return matching pages with titles, URLs and content snippets.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The search query"}
				},
				"required": ["query"]
			}`),
		},
		Call: func(ctx context.Context, arguments string) (string, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return "", fmt.Errorf("decode arguments: %w", err)
			}

			var results tavilyResponse
			resp, err := a.searchClient.R().
				SetContext(ctx).
				SetBody(map[string]any{
					"api_key":     a.searchAPIKey,
					"query":       args.Query,
					"max_results": 8,
				}).
				SetResult(&results).
				Post(tavilySearchURL)
			if err != nil {
				return "", fmt.Errorf("search request: %w", err)
			}
			if resp.IsError() {
				return "", fmt.Errorf("search request: status %d", resp.StatusCode())
			}

			encoded, err := json.Marshal(results)
			if err != nil {
				return "", fmt.Errorf("encode results: %w", err)
			}
			return string(encoded), nil
		},
	}
}

func (a *WebsiteAgent) check404Tool() Tool {
	return Tool{
		Definition: openai.FunctionDefinition{
			Name:        "check_if_url_404",
			Description: "Check whether the given URL returns a 404 status. Returns true when the page is gone or unreachable.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"url": {"type": "string", "description": "The URL to check"}
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
			status, err := a.fetcher.StatusOf(ctx, args.URL)
			if err != nil {
				return "true", nil
			}
			if status == http.StatusNotFound {
				return "true", nil
			}
			return "false", nil
		},
	}
}
