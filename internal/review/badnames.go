// Package review holds the interactive curation loops: resolving unmatched
// member names, vetting websites proposed by the search agent, and reporting
// members who have left parliament.
package review

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/register"
	"github.com/appgwatch/appgwatch/internal/store"
)

const (
	defaultSuggestionThreshold = 0.5
	defaultMaxSuggestions      = 5
)

// Suggestion pairs a candidate canonical name with its normalized distance
// from the unmatched name
type Suggestion struct {
	Name     string
	Distance float64
}

// NormalizedDistance is the Levenshtein distance scaled by the longer string,
// so 0 is identical and 1 shares nothing
func NormalizedDistance(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	return float64(matchr.Levenshtein(a, b)) / float64(maxLen)
}

// Suggest ranks candidate names within the threshold, closest first
func Suggest(name string, candidates []string, threshold float64, max int) []Suggestion {
	var suggestions []Suggestion
	for _, candidate := range candidates {
		d := NormalizedDistance(strings.ToLower(name), strings.ToLower(candidate))
		if d <= threshold {
			suggestions = append(suggestions, Suggestion{Name: candidate, Distance: d})
		}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Distance < suggestions[j].Distance
	})
	if len(suggestions) > max {
		suggestions = suggestions[:max]
	}
	return suggestions
}

// NameReviewer walks the reviewer through unresolved name corrections
type NameReviewer struct {
	corrections *store.CorrectionStore
	registry    *register.Registry

	Threshold      float64
	MaxSuggestions int

	in  *bufio.Reader
	out io.Writer
}

// NewNameReviewer creates a name correction reviewer
func NewNameReviewer(corrections *store.CorrectionStore, reg *register.Registry, in io.Reader, out io.Writer) *NameReviewer {
	return &NameReviewer{
		corrections:    corrections,
		registry:       reg,
		Threshold:      defaultSuggestionThreshold,
		MaxSuggestions: defaultMaxSuggestions,
		in:             bufio.NewReader(in),
		out:            out,
	}
}

func (r *NameReviewer) prompt(text string) (string, error) {
	fmt.Fprint(r.out, text)
	line, err := r.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Run presents each unresolved correction with ranked suggestions and records
// the reviewer's decision. The correction file is saved after every decision
// so quitting mid-session loses nothing.
func (r *NameReviewer) Run(today string) error {
	list, err := r.corrections.Load()
	if err != nil {
		return fmt.Errorf("load corrections: %w", err)
	}

	unresolved := list.Unresolved()
	if len(unresolved) == 0 {
		fmt.Fprintln(r.out, "No unresolved names to review")
		return nil
	}

	currentMPs := r.registry.CurrentMPNames(today)
	fmt.Fprintf(r.out, "%d unresolved names, %d current MPs to match against\n\n", len(unresolved), len(currentMPs))

	for i, correction := range unresolved {
		fmt.Fprintf(r.out, "[%d/%d] %s\n", i+1, len(unresolved), correction.Original)

		suggestions := Suggest(correction.Original, currentMPs, r.Threshold, r.MaxSuggestions)
		if len(suggestions) > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(r.out)
			t.AppendHeader(table.Row{"#", "Distance", "MP Name"})
			for idx, s := range suggestions {
				t.AppendRow(table.Row{idx + 1, fmt.Sprintf("%.3f", s.Distance), s.Name})
			}
			t.Render()
		} else {
			fmt.Fprintln(r.out, "No close matches found")
		}

		answer, err := r.prompt("[1-n] accept, (m)anual, (k)eep as-is, (i)gnore, (s)kip, (q)uit: ")
		if err != nil {
			return err
		}

		switch answer {
		case "q":
			return r.corrections.Save(list)
		case "s", "":
			continue
		case "i":
			list.SetCanon(correction.Original, model.IgnoreSentinel)
		case "k":
			list.SetCanon(correction.Original, correction.Original)
		case "m":
			manual, err := r.prompt("Canonical name: ")
			if err != nil {
				return err
			}
			if manual != "" {
				list.SetCanon(correction.Original, manual)
			}
		default:
			n, err := strconv.Atoi(answer)
			if err != nil || n < 1 || n > len(suggestions) {
				fmt.Fprintln(r.out, "Unrecognized choice, skipping")
				continue
			}
			list.SetCanon(correction.Original, suggestions[n-1].Name)
		}

		if err := r.corrections.Save(list); err != nil {
			return fmt.Errorf("save corrections: %w", err)
		}
	}

	return nil
}
