// Package diff computes structural differences between two release snapshots
// of the group store and renders them as human-readable reports.
package diff

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/store"
)

// ignoreKeys are noise keys excluded from comparison, matched by substring on
// the flattened path
var ignoreKeys = []string{"index_date", "category", "source_url"}

// LineDiff is one leaf-level field change
type LineDiff struct {
	Key      string `json:"key"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// GroupRef is a slim reference to a group used in diff summaries
type GroupRef struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
}

// ShortTitle strips standard APPG boilerplate from the title for display
func (g GroupRef) ShortTitle() string {
	if g.Title == "" {
		return g.Slug
	}
	s := g.Title
	s = strings.ReplaceAll(s, "All-Party Parliamentary Group for ", "")
	s = strings.ReplaceAll(s, " All-Party Parliamentary Group", "")
	s = strings.ReplaceAll(s, "All-Party Parliamentary Group on ", "")
	return strings.ToUpper(s[:1]) + s[1:]
}

// GroupDiff is every field change for one group present in both releases
type GroupDiff struct {
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Differences []LineDiff `json:"differences"`
	SourceURL   string     `json:"source_url"`
}

// Result is the structural comparison of two releases
type Result struct {
	CurrentIndex  string      `json:"current_index"`
	PreviousIndex string      `json:"previous_index"`
	AddedGroups   []GroupRef  `json:"added_appgs"`
	RemovedGroups []GroupRef  `json:"removed_appgs"`
	UpdatedGroups []GroupRef  `json:"updated_appgs"`
	Differences   []GroupDiff `json:"differences"`
}

// Save writes the result as a JSON document under the diffs directory
func (r *Result) Save(diffsDir string) error {
	if err := os.MkdirAll(diffsDir, 0755); err != nil {
		return fmt.Errorf("create diffs dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal diff: %w", err)
	}
	path := filepath.Join(diffsDir, r.CurrentIndex+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write diff: %w", err)
	}
	return nil
}

// LoadResult reads a previously saved diff document
func LoadResult(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read diff: %w", err)
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse diff %s: %w", path, err)
	}
	return &r, nil
}

// Flatten reduces a group to leaf-path -> string-value pairs, joining nested
// keys with "__" and indexing list elements by position
func Flatten(g *model.Group) (map[string]string, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal group: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("reparse group: %w", err)
	}

	out := make(map[string]string)
	flattenValue(generic, "", out)
	return out, nil
}

func flattenValue(v interface{}, parent string, out map[string]string) {
	switch val := v.(type) {
	case map[string]interface{}:
		for key, child := range val {
			flattenValue(child, joinKey(parent, key), out)
		}
	case []interface{}:
		for i, child := range val {
			flattenValue(child, joinKey(parent, fmt.Sprintf("%d", i)), out)
		}
	case nil:
		out[parent] = ""
	case bool:
		out[parent] = fmt.Sprintf("%t", val)
	case float64:
		// JSON numbers; render integers without a decimal point
		if val == float64(int64(val)) {
			out[parent] = fmt.Sprintf("%d", int64(val))
		} else {
			out[parent] = fmt.Sprintf("%v", val)
		}
	case string:
		out[parent] = val
	default:
		out[parent] = fmt.Sprintf("%v", val)
	}
}

func joinKey(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "__" + key
}

func ignored(key string) bool {
	for _, ik := range ignoreKeys {
		if strings.Contains(key, ik) {
			return true
		}
	}
	return false
}

// Engine compares release snapshots held by a group store
type Engine struct {
	store *store.GroupStore
}

// NewEngine creates a diff engine over the given store
func NewEngine(s *store.GroupStore) *Engine {
	return &Engine{store: s}
}

// Compare diffs a release against a previous one. When previous is empty the
// chronologically preceding register date is used.
func (e *Engine) Compare(current, previous string) (*Result, error) {
	if previous == "" {
		var err error
		previous, err = precedingRelease(current)
		if err != nil {
			return nil, err
		}
	}

	currentGroups, err := e.store.LoadReleaseAll(current)
	if err != nil {
		return nil, err
	}
	previousGroups, err := e.store.LoadReleaseAll(previous)
	if err != nil {
		return nil, err
	}

	currentBySlug := bySlug(currentGroups)
	previousBySlug := bySlug(previousGroups)

	result := &Result{
		CurrentIndex:  current,
		PreviousIndex: previous,
		AddedGroups:   []GroupRef{},
		RemovedGroups: []GroupRef{},
		UpdatedGroups: []GroupRef{},
		Differences:   []GroupDiff{},
	}

	for _, g := range currentGroups {
		if _, ok := previousBySlug[g.Slug]; !ok {
			result.AddedGroups = append(result.AddedGroups, ref(g))
		}
	}
	for _, g := range previousGroups {
		if _, ok := currentBySlug[g.Slug]; !ok {
			result.RemovedGroups = append(result.RemovedGroups, ref(g))
		}
	}

	var shared []string
	for slug := range currentBySlug {
		if _, ok := previousBySlug[slug]; ok {
			shared = append(shared, slug)
		}
	}
	sort.Strings(shared)

	for _, slug := range shared {
		lineDiffs, err := compareGroups(previousBySlug[slug], currentBySlug[slug])
		if err != nil {
			return nil, err
		}
		if len(lineDiffs) == 0 {
			continue
		}
		cur := currentBySlug[slug]
		result.UpdatedGroups = append(result.UpdatedGroups, ref(cur))
		result.Differences = append(result.Differences, GroupDiff{
			Slug:        slug,
			Name:        cur.Title,
			Differences: lineDiffs,
			SourceURL:   cur.SourceURL,
		})
	}

	return result, nil
}

func compareGroups(previous, current *model.Group) ([]LineDiff, error) {
	currentFlat, err := Flatten(current)
	if err != nil {
		return nil, err
	}
	previousFlat, err := Flatten(previous)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]struct{}, len(currentFlat)+len(previousFlat))
	for k := range currentFlat {
		keys[k] = struct{}{}
	}
	for k := range previousFlat {
		keys[k] = struct{}{}
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var diffs []LineDiff
	for _, key := range sorted {
		if ignored(key) {
			continue
		}
		// Equality is on stringified values; type differences that stringify
		// identically are no change.
		oldValue := previousFlat[key]
		newValue := currentFlat[key]
		if oldValue != newValue {
			diffs = append(diffs, LineDiff{Key: key, OldValue: oldValue, NewValue: newValue})
		}
	}
	return diffs, nil
}

func bySlug(groups []*model.Group) map[string]*model.Group {
	out := make(map[string]*model.Group, len(groups))
	for _, g := range groups {
		out[g.Slug] = g
	}
	return out
}

func ref(g *model.Group) GroupRef {
	return GroupRef{Slug: g.Slug, Title: g.Title, SourceURL: g.SourceURL}
}

func precedingRelease(current string) (string, error) {
	for i, date := range model.RegisterDates {
		if date == current {
			if i == 0 {
				return "", fmt.Errorf("register date %s is the oldest available, nothing to compare with", current)
			}
			return model.RegisterDates[i-1], nil
		}
	}
	return "", fmt.Errorf("register date %s not found in known registers", current)
}
