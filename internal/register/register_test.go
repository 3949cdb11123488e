package register

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/names"
	"github.com/appgwatch/appgwatch/internal/store"
	"github.com/stretchr/testify/require"
)

func testRegistry(persons []*Person, memberships []Membership, posts []Post) *Registry {
	r := &Registry{
		Persons:      persons,
		byID:         make(map[string]*Person),
		byScheme:     make(map[string]map[string]*Person),
		memberships:  make(map[string][]Membership),
		postChambers: make(map[string]string),
	}
	for _, p := range persons {
		r.byID[p.ID] = p
		for _, id := range p.Identifiers {
			if r.byScheme[id.Scheme] == nil {
				r.byScheme[id.Scheme] = make(map[string]*Person)
			}
			r.byScheme[id.Scheme][id.Identifier] = p
		}
	}
	for _, m := range memberships {
		r.memberships[m.PersonID] = append(r.memberships[m.PersonID], m)
	}
	for _, post := range posts {
		r.postChambers[post.ID] = post.OrganizationID
	}
	return r
}

func TestNiceName(t *testing.T) {
	tests := []struct {
		name Name
		want string
	}{
		{Name{GivenName: "Jane", FamilyName: "Smith"}, "Jane Smith"},
		{Name{LordName: "Smith", LordOfName: "Hindhead"}, "Lord Smith of Hindhead"},
		{Name{Honorific: "Baroness", LordName: "Jones"}, "Baroness Jones"},
		{Name{Name: "Full Display Name"}, "Full Display Name"},
	}
	for _, tt := range tests {
		if got := tt.name.NiceName(); got != tt.want {
			t.Errorf("NiceName(%+v) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	doc := `{
		"persons": [
			{"id": "uk.org.publicwhip/person/1",
			 "identifiers": [{"scheme": "datadotparl_id", "identifier": "4321"}],
			 "other_names": [{"given_name": "Jane", "family_name": "Smith", "note": "Main"}]}
		],
		"memberships": [
			{"id": "m1", "person_id": "uk.org.publicwhip/person/1", "post_id": "p1",
			 "start_date": "2019-12-12", "end_date": "2024-05-30"}
		],
		"posts": [{"id": "p1", "organization_id": "house-of-commons"}]
	}`
	path := filepath.Join(t.TempDir(), "people.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	r, err := Load(path)
	require.NoError(t, err)

	p, ok := r.PersonByID("uk.org.publicwhip/person/1")
	require.True(t, ok)
	require.Equal(t, "4321", p.Identifier(SchemeDatadotparl))
	require.Equal(t, "Jane Smith", p.MainName())
	require.Equal(t, "2024-05-30", r.HighestEndDate(p.ID))

	byScheme, ok := r.PersonByIdentifier(SchemeDatadotparl, "4321")
	require.True(t, ok)
	require.Equal(t, p, byScheme)
}

func TestStillServing(t *testing.T) {
	r := testRegistry(
		[]*Person{{ID: "p/1"}, {ID: "p/2"}},
		[]Membership{
			{PersonID: "p/1", OrganizationID: OrgCommons, StartDate: "2024-07-04"},
			{PersonID: "p/2", OrganizationID: OrgCommons, StartDate: "2019-12-12", EndDate: "2024-05-30"},
		},
		nil,
	)

	require.True(t, r.StillServing("p/1", "2025-01-01", OrgCommons, OrgLords))
	require.False(t, r.StillServing("p/2", "2025-01-01", OrgCommons, OrgLords))
	require.False(t, r.StillServing("p/1", "2025-01-01", OrgLords))
}

func TestBuildNameIndex_MnisPreferred(t *testing.T) {
	shared := Name{GivenName: "Alex", FamilyName: "Morgan"}
	withMnis := &Person{ID: "p/1", Names: []Name{shared},
		Identifiers: []Identifier{{Scheme: SchemeDatadotparl, Identifier: "100"}}}
	withoutMnis := &Person{ID: "p/2", Names: []Name{shared}}

	r := testRegistry([]*Person{withoutMnis, withMnis}, nil, nil)
	idx := BuildNameIndex(r, names.New(nil))

	got, ok := idx.Resolve("alex morgan")
	require.True(t, ok)
	require.Equal(t, "p/1", got.ID)
}

// Pins the established collision tie-break: a later explicit past end date
// beats a currently-serving person whose memberships are all open-ended. This
// exists to catch regressions in the edge case, not to bless it.
func TestBuildNameIndex_PastEndDateBeatsOngoing(t *testing.T) {
	shared := Name{GivenName: "Alex", FamilyName: "Morgan"}
	former := &Person{ID: "p/former", Names: []Name{shared}}
	serving := &Person{ID: "p/serving", Names: []Name{shared}}

	r := testRegistry(
		[]*Person{former, serving},
		[]Membership{
			{PersonID: "p/former", OrganizationID: OrgCommons, EndDate: "2024-05-30"},
			{PersonID: "p/serving", OrganizationID: OrgCommons, StartDate: "2024-07-04"},
		},
		nil,
	)

	// Insertion order must not matter: the open-ended person never displaces
	// a past end date, and is displaced by one.
	idx := BuildNameIndex(r, names.New(nil))
	got, ok := idx.Resolve("alex morgan")
	require.True(t, ok)
	require.Equal(t, "p/former", got.ID)

	r2 := testRegistry(
		[]*Person{serving, former},
		[]Membership{
			{PersonID: "p/former", OrganizationID: OrgCommons, EndDate: "2024-05-30"},
			{PersonID: "p/serving", OrganizationID: OrgCommons, StartDate: "2024-07-04"},
		},
		nil,
	)
	idx2 := BuildNameIndex(r2, names.New(nil))
	got, ok = idx2.Resolve("alex morgan")
	require.True(t, ok)
	require.Equal(t, "p/former", got.ID)
}

func TestBuildNameIndex_LaterEndDateWins(t *testing.T) {
	shared := Name{GivenName: "Alex", FamilyName: "Morgan"}
	older := &Person{ID: "p/older", Names: []Name{shared}}
	newer := &Person{ID: "p/newer", Names: []Name{shared}}

	r := testRegistry(
		[]*Person{older, newer},
		[]Membership{
			{PersonID: "p/older", OrganizationID: OrgCommons, EndDate: "2017-05-03"},
			{PersonID: "p/newer", OrganizationID: OrgCommons, EndDate: "2024-05-30"},
		},
		nil,
	)

	idx := BuildNameIndex(r, names.New(nil))
	got, ok := idx.Resolve("alex morgan")
	require.True(t, ok)
	require.Equal(t, "p/newer", got.ID)
}

func TestReconciler_Run(t *testing.T) {
	dir := t.TempDir()
	groups := store.NewGroupStore(dir)
	corrections := store.NewCorrectionStore(filepath.Join(dir, "corrections.json"))

	g := model.NewGroup("test-group", model.ParliamentUK)
	g.Title = "Test Group"
	g.Officers = []model.Officer{
		{Role: "Chair", Name: "Rt Hon Jane Smith MP", Party: "Labour"},
		{Role: "Secretary", Name: "Lord Nobody of Nowhere", Party: ""},
	}
	g.MembersList = model.MembershipList{
		SourceMethod: model.SourceAISearch,
		Members: []model.Member{
			{Name: "Jane Smith", MemberType: model.MemberTypeMP},
			{Name: "Unknown Person MP", MemberType: model.MemberTypeMP},
			{Name: "Baroness Unknown", MemberType: model.MemberTypeLord},
		},
	}
	require.NoError(t, groups.Save(g))

	registry := testRegistry(
		[]*Person{{
			ID:          "uk.org.publicwhip/person/10001",
			Identifiers: []Identifier{{Scheme: SchemeDatadotparl, Identifier: "4321"}},
			Names:       []Name{{GivenName: "Jane", FamilyName: "Smith"}},
		}},
		nil, nil,
	)

	rc := NewReconciler(groups, corrections, registry, os.Stderr)
	require.NoError(t, rc.Run())

	saved, err := groups.Load(model.ParliamentUK, "test-group")
	require.NoError(t, err)

	// Officer resolved; both ID schemes copied on.
	require.Equal(t, "uk.org.publicwhip/person/10001", saved.Officers[0].TwfyID)
	require.Equal(t, "4321", saved.Officers[0].MnisID)
	// Unmatched peer officer tolerated silently.
	require.Empty(t, saved.Officers[1].TwfyID)

	// Member resolved by the same index.
	require.Equal(t, "uk.org.publicwhip/person/10001", saved.MembersList.Members[0].TwfyID)

	// Only the unmatched MP-type name lands in the correction queue.
	list, err := corrections.Load()
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, "unknown person", list.Items[0].Original)
}
