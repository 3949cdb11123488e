package review

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/store"
)

// WebsiteReviewer walks the reviewer through website URLs the search agent
// proposed, promoting accepted ones to confirmed status
type WebsiteReviewer struct {
	store *store.GroupStore
	in    *bufio.Reader
	out   io.Writer
}

// NewWebsiteReviewer creates a website reviewer
func NewWebsiteReviewer(st *store.GroupStore, in io.Reader, out io.Writer) *WebsiteReviewer {
	return &WebsiteReviewer{store: st, in: bufio.NewReader(in), out: out}
}

func (r *WebsiteReviewer) prompt(text string) (string, error) {
	fmt.Fprint(r.out, text)
	line, err := r.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Run reviews every group whose website is awaiting a human decision.
// Each decision is saved immediately.
func (r *WebsiteReviewer) Run(parliament model.Parliament) error {
	groups, err := r.store.LoadAll(parliament)
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}

	var pending []*model.Group
	for _, g := range groups {
		if g.ContactDetails.Website.Status == model.WebsiteSearchPrecheck && g.HasWebsite() {
			pending = append(pending, g)
		}
	}
	if len(pending) == 0 {
		fmt.Fprintln(r.out, "No websites awaiting review")
		return nil
	}

	var accepted, rejected, manual, skipped int
	for i, g := range pending {
		fmt.Fprintf(r.out, "\n[%d/%d] %s\n", i+1, len(pending), g.Title)
		fmt.Fprintf(r.out, "Proposed website: %s\n", g.ContactDetails.Website.URL)

		answer, err := r.prompt("(a)ccept, (r)eject, (m)anual URL, (s)kip, (q)uit: ")
		if err != nil {
			return err
		}

		switch answer {
		case "q":
			fmt.Fprintf(r.out, "\nAccepted %d, rejected %d, manual %d, skipped %d\n", accepted, rejected, manual, skipped)
			return nil
		case "a":
			g.ContactDetails.Website.Status = model.WebsiteSearch
			accepted++
		case "r":
			g.ContactDetails.Website.Status = model.WebsiteBadSearch
			g.ContactDetails.Website.URL = ""
			rejected++
		case "m":
			url, err := r.prompt("Website URL: ")
			if err != nil {
				return err
			}
			if url == "" {
				skipped++
				continue
			}
			g.ContactDetails.Website.Status = model.WebsiteManual
			g.ContactDetails.Website.URL = url
			manual++
		default:
			skipped++
			continue
		}

		if err := r.store.Save(g); err != nil {
			return fmt.Errorf("save group %s: %w", g.Slug, err)
		}
	}

	fmt.Fprintf(r.out, "\nAccepted %d, rejected %d, manual %d, skipped %d\n", accepted, rejected, manual, skipped)
	return nil
}
