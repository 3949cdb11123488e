// Package register wraps the canonical legislator database (a parlparse-style
// popolo document) and reconciles scraped names against it.
package register

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Identifier schemes and organization ids used in the popolo document
const (
	SchemeDatadotparl = "datadotparl_id"
	SchemeScotparl    = "scottish_parliament_id"
	SchemeSenedd      = "senedd"
	SchemeNIAssembly  = "ni_assembly"

	OrgCommons = "house-of-commons"
	OrgLords   = "house-of-lords"
)

// Identifier is one external ID held by a person
type Identifier struct {
	Scheme     string `json:"scheme"`
	Identifier string `json:"identifier"`
}

// Name is one name variant a person has held
type Name struct {
	GivenName   string `json:"given_name,omitempty"`
	FamilyName  string `json:"family_name,omitempty"`
	Honorific   string `json:"honorific_prefix,omitempty"`
	LordName    string `json:"lordname,omitempty"`
	LordOfName  string `json:"lordofname,omitempty"`
	Name        string `json:"name,omitempty"`
	Note        string `json:"note,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

// NiceName renders the variant as a display name
func (n Name) NiceName() string {
	if n.Name != "" {
		return n.Name
	}
	if n.LordName != "" {
		title := n.Honorific
		if title == "" {
			title = "Lord"
		}
		out := title + " " + n.LordName
		if n.LordOfName != "" {
			out += " of " + n.LordOfName
		}
		return strings.TrimSpace(out)
	}
	return strings.TrimSpace(n.GivenName + " " + n.FamilyName)
}

// Person is one canonical legislator record
type Person struct {
	ID          string       `json:"id"`
	Identifiers []Identifier `json:"identifiers,omitempty"`
	Names       []Name       `json:"other_names,omitempty"`
}

// Identifier returns the person's ID in the given scheme, or ""
func (p *Person) Identifier(scheme string) string {
	for _, id := range p.Identifiers {
		if id.Scheme == scheme {
			return id.Identifier
		}
	}
	return ""
}

// MainName returns the person's primary name variant
func (p *Person) MainName() string {
	for _, n := range p.Names {
		if n.Note == "Main name" || n.Note == "Main" {
			return n.NiceName()
		}
	}
	if len(p.Names) > 0 {
		return p.Names[0].NiceName()
	}
	return ""
}

// Membership is one seat a person has held
type Membership struct {
	ID             string `json:"id"`
	PersonID       string `json:"person_id"`
	PostID         string `json:"post_id,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
}

// Post is a seat definition tying memberships to a chamber
type Post struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
}

type popoloDoc struct {
	Persons     []*Person    `json:"persons"`
	Memberships []Membership `json:"memberships"`
	Posts       []Post       `json:"posts"`
}

// Registry is the loaded canonical person database
type Registry struct {
	Persons []*Person

	byID          map[string]*Person
	byScheme      map[string]map[string]*Person
	memberships   map[string][]Membership
	postChambers  map[string]string
}

// Load reads a popolo people document from disk
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read people file: %w", err)
	}

	var doc popoloDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse people file %s: %w", path, err)
	}

	r := &Registry{
		Persons:      doc.Persons,
		byID:         make(map[string]*Person, len(doc.Persons)),
		byScheme:     make(map[string]map[string]*Person),
		memberships:  make(map[string][]Membership),
		postChambers: make(map[string]string, len(doc.Posts)),
	}

	for _, p := range doc.Persons {
		r.byID[p.ID] = p
		for _, id := range p.Identifiers {
			if r.byScheme[id.Scheme] == nil {
				r.byScheme[id.Scheme] = make(map[string]*Person)
			}
			r.byScheme[id.Scheme][id.Identifier] = p
		}
	}
	for _, m := range doc.Memberships {
		r.memberships[m.PersonID] = append(r.memberships[m.PersonID], m)
	}
	for _, post := range doc.Posts {
		r.postChambers[post.ID] = post.OrganizationID
	}

	return r, nil
}

// PersonByID looks up a person by canonical ID
func (r *Registry) PersonByID(id string) (*Person, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// PersonByIdentifier looks up a person by an external scheme identifier
func (r *Registry) PersonByIdentifier(scheme, id string) (*Person, bool) {
	p, ok := r.byScheme[scheme][id]
	return p, ok
}

// Memberships returns the seats a person has held
func (r *Registry) Memberships(personID string) []Membership {
	return r.memberships[personID]
}

// chamber resolves the organization a membership belongs to, via its post
// where one is set
func (r *Registry) chamber(m Membership) string {
	if m.PostID != "" {
		if org, ok := r.postChambers[m.PostID]; ok {
			return org
		}
	}
	return m.OrganizationID
}

// HighestEndDate returns the latest explicit membership end date for a person,
// or "" when every membership is open-ended
func (r *Registry) HighestEndDate(personID string) string {
	highest := ""
	for _, m := range r.memberships[personID] {
		if m.EndDate != "" && m.EndDate > highest {
			highest = m.EndDate
		}
	}
	return highest
}

// StillServing reports whether the person currently holds a seat in one of the
// given chambers as of the given ISO date. An empty end date means ongoing.
func (r *Registry) StillServing(personID string, today string, chambers ...string) bool {
	for _, m := range r.memberships[personID] {
		org := r.chamber(m)
		matched := false
		for _, want := range chambers {
			if org == want {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if m.StartDate != "" && m.StartDate > today {
			continue
		}
		if m.EndDate == "" || m.EndDate >= today {
			return true
		}
	}
	return false
}

// CurrentMPNames returns every name variant of every currently-sitting MP,
// used to rank correction candidates for unmatched names
func (r *Registry) CurrentMPNames(today string) []string {
	var names []string
	for _, p := range r.Persons {
		if !r.StillServing(p.ID, today, OrgCommons) {
			continue
		}
		for _, n := range p.Names {
			if nice := n.NiceName(); nice != "" {
				names = append(names, nice)
			}
		}
	}
	return names
}
