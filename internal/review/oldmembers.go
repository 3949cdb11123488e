package review

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/register"
	"github.com/appgwatch/appgwatch/internal/store"
)

// significantProportion is the share of departed members above which a
// group's list is probably stale rather than slightly out of date
const significantProportion = 1.0 / 3.0

// OldMemberStats summarizes one group's departed members
type OldMemberStats struct {
	Slug       string
	Old        int
	Total      int
	Proportion float64
}

// Significant reports whether enough of the list has left parliament that
// the whole list should be rechecked
func (s OldMemberStats) Significant() bool {
	return s.Proportion >= significantProportion
}

// OldMemberReporter finds listed members who are no longer in parliament.
// Only people with a resolved person ID are checked.
type OldMemberReporter struct {
	store    *store.GroupStore
	registry *register.Registry
	out      io.Writer
}

// NewOldMemberReporter creates an old-member reporter
func NewOldMemberReporter(st *store.GroupStore, reg *register.Registry, out io.Writer) *OldMemberReporter {
	return &OldMemberReporter{store: st, registry: reg, out: out}
}

func (r *OldMemberReporter) stillServing(twfyID, today string) bool {
	return r.registry.StillServing(twfyID, today, register.OrgCommons, register.OrgLords)
}

// RunList prints one line per departed person
func (r *OldMemberReporter) RunList(parliament model.Parliament, today string) error {
	groups, err := r.store.LoadAll(parliament)
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}

	found := false
	for _, g := range groups {
		for _, officer := range g.Officers {
			if officer.TwfyID != "" && !r.stillServing(officer.TwfyID, today) {
				fmt.Fprintf(r.out, "%s is listed as a member of %s but is no longer in Parliament\n", officer.Name, g.Slug)
				found = true
			}
		}
		for _, member := range g.MembersList.Members {
			if member.TwfyID != "" && !r.stillServing(member.TwfyID, today) {
				fmt.Fprintf(r.out, "%s is listed as a member of %s but is no longer in Parliament\n", member.Name, g.Slug)
				found = true
			}
		}
	}
	if !found {
		fmt.Fprintln(r.out, "No groups found with members who have left Parliament")
	}
	return nil
}

// Stats computes per-group departed-member counts, highest proportion first
func (r *OldMemberReporter) Stats(parliament model.Parliament, today string) ([]OldMemberStats, error) {
	groups, err := r.store.LoadAll(parliament)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}

	var results []OldMemberStats
	for _, g := range groups {
		stats := OldMemberStats{Slug: g.Slug}
		check := func(twfyID string) {
			if twfyID == "" {
				return
			}
			stats.Total++
			if !r.stillServing(twfyID, today) {
				stats.Old++
			}
		}
		for _, officer := range g.Officers {
			check(officer.TwfyID)
		}
		for _, member := range g.MembersList.Members {
			check(member.TwfyID)
		}
		if stats.Old > 0 && stats.Total > 0 {
			stats.Proportion = float64(stats.Old) / float64(stats.Total)
			results = append(results, stats)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Proportion > results[j].Proportion
	})
	return results, nil
}

// RunTable prints the per-group summary table
func (r *OldMemberReporter) RunTable(parliament model.Parliament, today string) error {
	results, err := r.Stats(parliament, today)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(r.out, "No groups found with members who have left Parliament")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(fmt.Sprintf("Found %d groups with members who have left Parliament", len(results)))
	t.AppendHeader(table.Row{"Group Slug", "Old Members", "Total", "Proportion", "Significant"})
	for _, s := range results {
		significant := ""
		if s.Significant() {
			significant = "✓"
		}
		t.AppendRow(table.Row{s.Slug, s.Old, s.Total, fmt.Sprintf("%.1f%%", s.Proportion*100), significant})
	}
	t.Render()
	return nil
}
