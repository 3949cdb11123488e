package register

import "github.com/appgwatch/appgwatch/internal/names"

// NameIndex maps normalized name variants to persons
type NameIndex struct {
	lookup map[string]*Person
}

// BuildNameIndex indexes every name variant of every person under its
// normalized form.
//
// Collision policy, when two people normalize to the same key: a person with a
// Westminster (datadotparl) identifier beats one without; otherwise the later
// explicit membership end date wins. A person whose memberships are all
// open-ended never displaces an earlier entry with a past end date, even when
// they are currently serving. That last branch reproduces the established
// dataset behavior and is pinned by a test; see the index collision test
// before changing it.
func BuildNameIndex(r *Registry, n *names.Normalizer) *NameIndex {
	idx := &NameIndex{lookup: make(map[string]*Person)}

	for _, person := range r.Persons {
		for _, variant := range person.Names {
			nice := variant.NiceName()
			if nice == "" {
				continue
			}
			key := n.Normalize(nice)
			previous, ok := idx.lookup[key]
			if !ok {
				idx.lookup[key] = person
				continue
			}
			if previous.ID == person.ID {
				continue
			}
			if replaces(r, previous, person) {
				idx.lookup[key] = person
			}
		}
	}

	return idx
}

func replaces(r *Registry, previous, current *Person) bool {
	prevMnis := previous.Identifier(SchemeDatadotparl) != ""
	curMnis := current.Identifier(SchemeDatadotparl) != ""
	if prevMnis != curMnis {
		return curMnis
	}

	prevEnd := r.HighestEndDate(previous.ID)
	curEnd := r.HighestEndDate(current.ID)
	return curEnd != "" && (prevEnd == "" || curEnd > prevEnd)
}

// Resolve looks up a person by normalized name key
func (idx *NameIndex) Resolve(key string) (*Person, bool) {
	p, ok := idx.lookup[key]
	return p, ok
}

// Len returns the number of distinct normalized keys
func (idx *NameIndex) Len() int {
	return len(idx.lookup)
}
