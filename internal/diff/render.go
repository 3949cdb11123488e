package diff

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GroupPageURL rebuilds the register page URL for a slug in a given release
func GroupPageURL(indexDate, slug string) string {
	return fmt.Sprintf("https://publications.parliament.uk/pa/cm/cmallparty/%s/%s.htm", indexDate, slug)
}

// RenderMarkdown writes a consolidated per-release change report into the
// given directory, one markdown page per register date
func (r *Result) RenderMarkdown(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	var b strings.Builder

	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: \"Changes in %s Register\"\n", r.CurrentIndex)
	fmt.Fprintf(&b, "previous_register: %q\n", r.PreviousIndex)
	fmt.Fprintf(&b, "current_register: %q\n", r.CurrentIndex)
	b.WriteString("layout: datasets/analysis\n")
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# APPG Register Changes: %s → %s\n\n", r.PreviousIndex, r.CurrentIndex)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Added groups**: %d\n", len(r.AddedGroups))
	fmt.Fprintf(&b, "- **Removed groups**: %d\n", len(r.RemovedGroups))
	fmt.Fprintf(&b, "- **Updated groups**: %d\n\n", len(r.UpdatedGroups))

	writeRefList(&b, "Added groups", r.AddedGroups, r.CurrentIndex)
	writeRefList(&b, "Removed groups", r.RemovedGroups, r.PreviousIndex)

	if len(r.UpdatedGroups) > 0 {
		b.WriteString("## Updated groups\n\n")

		updated := make([]GroupRef, len(r.UpdatedGroups))
		copy(updated, r.UpdatedGroups)
		sort.Slice(updated, func(i, j int) bool {
			return updated[i].ShortTitle() < updated[j].ShortTitle()
		})

		diffBySlug := make(map[string]GroupDiff, len(r.Differences))
		for _, d := range r.Differences {
			diffBySlug[d.Slug] = d
		}

		for _, g := range updated {
			d, ok := diffBySlug[g.Slug]
			if !ok {
				continue
			}

			fmt.Fprintf(&b, "### Changes to %s\n\n", g.ShortTitle())

			sourceURL := d.SourceURL
			if sourceURL == "" {
				sourceURL = g.SourceURL
			}
			if sourceURL == "" {
				sourceURL = GroupPageURL(r.CurrentIndex, g.Slug)
			}
			fmt.Fprintf(&b, "[View on Parliament website](%s)\n\n", sourceURL)

			b.WriteString("| Field | Previous Value | Current Value |\n")
			b.WriteString("|-------|---------------|---------------|\n")
			for _, line := range d.Differences {
				key := strings.ReplaceAll(line.Key, "__", " › ")
				oldValue := strings.ReplaceAll(line.OldValue, "|", "\\|")
				newValue := strings.ReplaceAll(line.NewValue, "|", "\\|")
				fmt.Fprintf(&b, "| %s | %s | %s |\n", key, oldValue, newValue)
			}
			b.WriteString("\n")
		}
	}

	path := filepath.Join(dir, r.CurrentIndex+".md")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func writeRefList(b *strings.Builder, heading string, refs []GroupRef, indexDate string) {
	if len(refs) == 0 {
		return
	}

	sorted := make([]GroupRef, len(refs))
	copy(sorted, refs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Title < sorted[j].Title })

	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, g := range sorted {
		url := g.SourceURL
		if url == "" {
			url = GroupPageURL(indexDate, g.Slug)
		}
		fmt.Fprintf(b, "- [%s](%s)\n", g.ShortTitle(), url)
	}
	b.WriteString("\n")
}
