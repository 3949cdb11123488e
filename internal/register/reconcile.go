package register

import (
	"fmt"
	"io"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/names"
	"github.com/appgwatch/appgwatch/internal/store"
)

// IneligiblePersonIDs is the fixed denylist of resolved persons who must be
// flagged as removed wherever they appear (suspended or otherwise ineligible
// to sit).
var IneligiblePersonIDs = map[string]struct{}{
	"uk.org.publicwhip/person/25873": {},
	"uk.org.publicwhip/person/26558": {},
}

// Reconciler joins scraped officer and member names to canonical person IDs
type Reconciler struct {
	groups      *store.GroupStore
	corrections *store.CorrectionStore
	registry    *Registry
	out         io.Writer
}

// NewReconciler wires a reconciliation pass over the given stores and registry
func NewReconciler(groups *store.GroupStore, corrections *store.CorrectionStore, registry *Registry, out io.Writer) *Reconciler {
	return &Reconciler{groups: groups, corrections: corrections, registry: registry, out: out}
}

// Run resolves person IDs for every officer and member across every loaded
// group, writes mutated groups back, and merges newly unmatched names into the
// correction store for later review. A missing registry or malformed group
// file is fatal.
func (rc *Reconciler) Run() error {
	corrections, err := rc.corrections.Load()
	if err != nil {
		return err
	}
	normalizer := names.New(corrections.AsMap())
	index := BuildNameIndex(rc.registry, normalizer)

	groups, err := rc.groups.LoadAllParliaments()
	if err != nil {
		return err
	}

	var badNames []string
	for _, g := range groups {
		badNames = append(badNames, rc.reconcileGroup(g, index, normalizer)...)
		if err := rc.groups.Save(g); err != nil {
			return err
		}
	}

	badNames = model.SortBadNames(badNames)
	added := corrections.AddBadNames(badNames)
	if err := rc.corrections.Save(corrections); err != nil {
		return err
	}

	fmt.Fprintf(rc.out, "Reconciled %d groups; %d unmatched names (%d new) queued for review\n",
		len(groups), len(badNames), added)
	return nil
}

// reconcileGroup resolves one group's officers and members in place and
// returns the normalized names that could not be matched
func (rc *Reconciler) reconcileGroup(g *model.Group, index *NameIndex, normalizer *names.Normalizer) []string {
	var bad []string

	for i := range g.Officers {
		officer := &g.Officers[i]
		key := normalizer.Normalize(officer.Name)
		person, ok := index.Resolve(key)
		if !ok {
			// Peers are validated manually; the peerage roster is out of
			// scope for this lookup.
			if !names.IsLord(officer.Name) {
				bad = append(bad, key)
			}
			continue
		}
		officer.TwfyID = person.ID
		officer.MnisID = person.Identifier(SchemeDatadotparl)
		if _, denied := IneligiblePersonIDs[person.ID]; denied {
			officer.Removed = true
		}
	}

	for i := range g.MembersList.Members {
		member := &g.MembersList.Members[i]
		key := normalizer.Normalize(member.Name)
		person, ok := index.Resolve(key)
		if !ok {
			if member.MemberType == model.MemberTypeMP {
				bad = append(bad, key)
			}
			continue
		}
		member.TwfyID = person.ID
		member.MnisID = person.Identifier(SchemeDatadotparl)
		if _, denied := IneligiblePersonIDs[person.ID]; denied {
			member.Removed = true
		}
	}

	return bad
}
