// Package manual loads hand-collected membership lists from a shared
// Google Docs document exported as markdown.
//
// The document structure is: H1 ignored, each H2 names a group, H3 sections
// split "notes" (ignored) from "members". An H2 with no H3 sections is
// treated as all members.
package manual

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/store"
)

// DefaultDocURL is the markdown export of the shared membership document
const DefaultDocURL = "https://docs.google.com/document/d/1IzlRjxXyT8qmU3_-xLO3z_VmTnPIjkb1Hz6SFtkBnKs/export?format=markdown"

const markdownFileName = "manual_membership.md"

var (
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]+)\*`)
	codeRe       = regexp.MustCompile("`([^`]+)`")
	bulletRe     = regexp.MustCompile(`^[-*+]\s+`)
	orderedRe    = regexp.MustCompile(`^\d+\.\s+`)
	escapedNumRe = regexp.MustCompile(`^\d+\\\.\s+`)
	// Google Docs escapes list markers when exporting markdown
	escapedBulletRe = regexp.MustCompile(`^\\[-*+]\s+`)

	slugStripRe  = regexp.MustCompile(`[^\w\s-]`)
	slugSpacerRe = regexp.MustCompile(`[-\s]+`)
)

var partyNames = []string{
	"Labour",
	"Conservative",
	"Liberal Democrat",
	"Liberal Democrats",
	"LibDem",
	"SNP",
	"Plaid Cymru",
	"Green",
	"DUP",
	"Ulster Unionist",
	"SDLP",
	"Alliance",
	"Independent",
	"Crossbench",
	"Cross Bench",
	"Crossbencher",
	"Non-affiliated",
	"Sinn Fein",
	"Sinn Féin",
}

var partySuffixRe = buildPartySuffixRe()

func buildPartySuffixRe() *regexp.Regexp {
	escaped := make([]string, len(partyNames))
	for i, p := range partyNames {
		escaped[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)\s+(` + strings.Join(escaped, "|") + `)$`)
}

var titlePrefixes = []string{
	"All-Party Parliamentary Group for",
	"All-Party Parliamentary Group on",
	"All-Party Parliamentary Group",
	"APPG for",
	"APPG on",
	"APPG",
}

var lordTitles = []string{"lord", "baroness", "baron", "lady", "viscount", "dame", "earl", "countess"}

// CleanMemberName strips markdown formatting, list markers and trailing party
// names from a document line. Returns empty when the line is not a name.
func CleanMemberName(line string) string {
	line = boldRe.ReplaceAllString(line, "$1")
	line = italicRe.ReplaceAllString(line, "$1")
	line = codeRe.ReplaceAllString(line, "$1")

	line = bulletRe.ReplaceAllString(line, "")
	line = orderedRe.ReplaceAllString(line, "")
	line = escapedNumRe.ReplaceAllString(line, "")
	line = escapedBulletRe.ReplaceAllString(line, "")

	line = strings.TrimSpace(line)

	// text after the MP suffix is party or constituency detail
	if idx := strings.Index(line, " MP "); idx >= 0 {
		line = line[:idx] + " MP"
	}

	line = partySuffixRe.ReplaceAllString(line, "")

	if line == "" || strings.HasPrefix(line, "#") || len(line) < 3 {
		return ""
	}
	return line
}

// TitleToSlug converts a document heading into a group slug, stripping the
// usual APPG title prefixes
func TitleToSlug(title string) string {
	for _, prefix := range titlePrefixes {
		if strings.HasPrefix(title, prefix) {
			title = strings.TrimSpace(title[len(prefix):])
			break
		}
	}
	slug := slugStripRe.ReplaceAllString(strings.ToLower(title), "")
	slug = slugSpacerRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// InferMemberType guesses a member's chamber from their display name
func InferMemberType(name string) model.MemberType {
	lower := strings.ToLower(name)
	if strings.Contains(lower, " mp") || strings.HasSuffix(lower, " mp") {
		return model.MemberTypeMP
	}
	for _, title := range lordTitles {
		if strings.Contains(lower, title) {
			return model.MemberTypeLord
		}
	}
	return model.MemberTypeMP
}

// ParseDocument extracts group titles and their member name lists from the
// markdown export. Returned slices preserve document order.
type DocumentEntry struct {
	Title   string
	Members []string
}

func ParseDocument(content string) []DocumentEntry {
	var entries []DocumentEntry
	var current *DocumentEntry
	section := ""

	flush := func() {
		if current != nil && len(current.Members) > 0 {
			entries = append(entries, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "## "):
			flush()
			title := boldRe.ReplaceAllString(strings.TrimSpace(line[3:]), "$1")
			current = &DocumentEntry{Title: title}
			section = ""
		case strings.HasPrefix(line, "# "):
			// document title
		case strings.HasPrefix(line, "### "):
			if strings.EqualFold(strings.TrimSpace(line[4:]), "notes") {
				section = "notes"
			} else {
				section = "members"
			}
		default:
			if current == nil {
				continue
			}
			if section == "" {
				section = "members"
			}
			if section != "members" {
				continue
			}
			if name := CleanMemberName(line); name != "" {
				current.Members = append(current.Members, name)
			}
		}
	}
	flush()
	return entries
}

// Loader downloads and applies the manual membership document
type Loader struct {
	client *resty.Client
	store  *store.GroupStore
	cfg    *model.Config
	out    io.Writer
}

// NewLoader creates a manual data loader
func NewLoader(client *resty.Client, st *store.GroupStore, cfg *model.Config, out io.Writer) *Loader {
	return &Loader{client: client, store: st, cfg: cfg, out: out}
}

func (l *Loader) markdownPath() string {
	return filepath.Join(l.cfg.ManualDataDir(), markdownFileName)
}

// Download fetches the markdown export and saves it locally
func (l *Loader) Download(docURL string) error {
	if docURL == "" {
		docURL = DefaultDocURL
	}
	fmt.Fprintf(l.out, "Downloading markdown from %s\n", docURL)

	resp, err := l.client.R().Get(docURL)
	if err != nil {
		return fmt.Errorf("download document: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("download document: status %d", resp.StatusCode())
	}

	path := l.markdownPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create manual data dir: %w", err)
	}
	if err := os.WriteFile(path, resp.Body(), 0644); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	fmt.Fprintf(l.out, "Saved markdown to %s\n", path)
	return nil
}

// Load parses the saved document and applies its membership lists. With
// skipDownload set, an existing local file is used as-is.
func (l *Loader) Load(docURL string, skipDownload bool) error {
	if !skipDownload {
		if err := l.Download(docURL); err != nil {
			return err
		}
	} else if _, err := os.Stat(l.markdownPath()); err != nil {
		return fmt.Errorf("markdown file not found, run without --skip-download first: %w", err)
	}

	content, err := os.ReadFile(l.markdownPath())
	if err != nil {
		return fmt.Errorf("read markdown: %w", err)
	}

	entries := ParseDocument(string(content))
	if len(entries) == 0 {
		return fmt.Errorf("no group data found in %s", l.markdownPath())
	}
	fmt.Fprintf(l.out, "Found %d groups in document\n", len(entries))

	updated := 0
	for _, entry := range entries {
		slug := l.findGroupSlug(entry.Title)
		if slug == "" {
			fmt.Fprintf(l.out, "No matching group for %q (tried slug %s)\n", entry.Title, TitleToSlug(entry.Title))
			continue
		}
		ok, err := l.applyEntry(slug, entry.Members)
		if err != nil {
			return fmt.Errorf("update %s: %w", slug, err)
		}
		if ok {
			updated++
		}
	}
	fmt.Fprintf(l.out, "Updated %d groups\n", updated)
	return nil
}

// findGroupSlug matches a document heading to a stored group, first by the
// inferred slug and then by prefix-stripped title comparison
func (l *Loader) findGroupSlug(title string) string {
	inferred := TitleToSlug(title)
	if _, err := l.store.Load(model.ParliamentUK, inferred); err == nil {
		return inferred
	}

	groups, err := l.store.LoadAll(model.ParliamentUK)
	if err != nil {
		return ""
	}
	wanted := stripTitlePrefix(strings.ToLower(title))
	for _, g := range groups {
		if stripTitlePrefix(strings.ToLower(g.Title)) == wanted {
			return g.Slug
		}
	}
	return ""
}

func stripTitlePrefix(title string) string {
	for _, prefix := range titlePrefixes {
		lower := strings.ToLower(prefix)
		if strings.HasPrefix(title, lower) {
			return strings.TrimSpace(title[len(lower):])
		}
	}
	return title
}

// applyEntry replaces or merges a group's membership with the manual names.
// Lists sourced from AI search keep their existing members and gain the
// manual ones under the combined source method.
func (l *Loader) applyEntry(slug string, memberNames []string) (bool, error) {
	group, err := l.store.Load(model.ParliamentUK, slug)
	if err != nil {
		return false, err
	}

	members := make([]model.Member, 0, len(memberNames))
	for _, name := range memberNames {
		members = append(members, model.Member{
			Name:       strings.TrimSpace(name),
			MemberType: InferMemberType(name),
		})
	}

	today := model.Today()
	list := &group.MembersList

	switch list.SourceMethod {
	case model.SourceEmpty, model.SourceManual:
		list.SourceMethod = model.SourceManual
		list.Members = members
		list.SourceURLs = nil
	case model.SourceAISearch, model.SourceAISearchWithManual:
		existing := make(map[string]struct{}, len(list.Members))
		for _, m := range list.Members {
			existing[strings.ToLower(m.Name)] = struct{}{}
		}
		added := 0
		for _, m := range members {
			if _, ok := existing[strings.ToLower(m.Name)]; ok {
				continue
			}
			list.Members = append(list.Members, m)
			added++
		}
		list.SourceMethod = model.SourceAISearchWithManual
		fmt.Fprintf(l.out, "Merged %d manual members into %s\n", added, slug)
	default:
		fmt.Fprintf(l.out, "Skipping %s, already has %s data\n", slug, list.SourceMethod)
		return false, nil
	}

	list.LastUpdated = &today
	if err := l.store.Save(group); err != nil {
		return false, err
	}
	fmt.Fprintf(l.out, "Updated %s with %d members\n", slug, len(list.Members))
	return true, nil
}

// BlankMembership resets a group's membership list to the empty state and
// reports how many members were removed
func BlankMembership(st *store.GroupStore, parliament model.Parliament, slug string, out io.Writer) error {
	group, err := st.Load(parliament, slug)
	if err != nil {
		return fmt.Errorf("load group %s: %w", slug, err)
	}

	original := len(group.MembersList.Members)
	group.MembersList.Blank()
	if err := st.Save(group); err != nil {
		return fmt.Errorf("save group %s: %w", slug, err)
	}

	fmt.Fprintf(out, "Blanked membership for %s, removed %d members\n", slug, original)
	return nil
}
