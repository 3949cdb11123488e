package model

import (
	"sort"
	"strings"
)

// IgnoreSentinel marks a name correction the reviewer chose to skip permanently
const IgnoreSentinel = "IGNORE"

// NameCorrection maps an unmatched scraped name to its approved canonical form.
// Canon is empty until a reviewer resolves it.
type NameCorrection struct {
	Original string `json:"original"`
	Canon    string `json:"canon"`
}

// Resolved reports whether the correction has been reviewed
func (c NameCorrection) Resolved() bool {
	return c.Canon != ""
}

// NameCorrectionList is the persisted set of corrections. Entries accumulate
// monotonically: names are added unresolved and filled in by a reviewer.
type NameCorrectionList struct {
	Items []NameCorrection
}

// AddBadNames appends any names not already present, unresolved
func (l *NameCorrectionList) AddBadNames(names []string) int {
	known := make(map[string]struct{}, len(l.Items))
	for _, item := range l.Items {
		known[item.Original] = struct{}{}
	}
	added := 0
	for _, name := range names {
		if _, ok := known[name]; ok {
			continue
		}
		l.Items = append(l.Items, NameCorrection{Original: name})
		known[name] = struct{}{}
		added++
	}
	return added
}

// Unresolved returns the corrections still awaiting review
func (l *NameCorrectionList) Unresolved() []NameCorrection {
	var out []NameCorrection
	for _, item := range l.Items {
		if !item.Resolved() {
			out = append(out, item)
		}
	}
	return out
}

// SetCanon records the canonical form for an original name
func (l *NameCorrectionList) SetCanon(original, canon string) bool {
	for i := range l.Items {
		if l.Items[i].Original == original {
			l.Items[i].Canon = canon
			return true
		}
	}
	return false
}

// AsMap returns resolved corrections keyed by original name, with canonical
// values lowercased for lookup against the normalized-name index
func (l *NameCorrectionList) AsMap() map[string]string {
	out := make(map[string]string)
	for _, item := range l.Items {
		if item.Resolved() {
			out[item.Original] = strings.ToLower(item.Canon)
		}
	}
	return out
}

// SortBadNames dedupes and sorts a bad-name collection, dropping the literal
// "ignore" entry that earlier runs recorded
func SortBadNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, name := range names {
		if name == "ignore" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
