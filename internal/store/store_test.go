package store

import (
	"errors"
	"testing"
	"time"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/stretchr/testify/require"
)

func sampleGroup() *model.Group {
	agmDate := model.NewDate(2025, time.January, 15)
	updated := model.NewDate(2025, time.March, 1)
	return &model.Group{
		Slug:       "cycling-and-walking",
		Title:      "Cycling and Walking",
		Purpose:    "To promote cycling and walking.",
		Parliament: model.ParliamentUK,
		Officers: []model.Officer{
			{Role: "Chair", Name: "Jane Smith MP", Party: "Labour", TwfyID: "uk.org.publicwhip/person/10001"},
		},
		MembersList: model.MembershipList{
			SourceMethod: model.SourceAISearch,
			SourceURLs:   []string{"https://example.com/members"},
			LastUpdated:  &updated,
			Members: []model.Member{
				{Name: "John Jones MP", MemberType: model.MemberTypeMP},
				{Name: "Baroness Brown", MemberType: model.MemberTypeLord, Removed: true},
			},
		},
		ContactDetails: model.ContactDetails{
			RegisteredContactName: "Jane Smith MP",
			Website:               model.WebsiteSource{Status: model.WebsiteRegister, URL: "https://example.com"},
		},
		AGM: &model.AGMDetails{
			DateOfMostRecentAGM:                 &agmDate,
			PublishedIncomeExpenditureStatement: true,
			ReportingYear:                       "2024-25",
		},
		RegistrableBenefits: "Secretariat",
		DetailedBenefits: []map[string]string{
			{"Source": "Example Ltd", "benefit_type": "Secretariat"},
		},
		IndexDate:  "250328",
		SourceURL:  "https://publications.parliament.uk/pa/cm/cmallparty/250328/cycling-and-walking.htm",
		Categories: []model.Category{model.CategorySport},
	}
}

func TestGroupStore_RoundTrip(t *testing.T) {
	s := NewGroupStore(t.TempDir())
	g := sampleGroup()

	require.NoError(t, s.Save(g))

	loaded, err := s.Load(model.ParliamentUK, g.Slug)
	require.NoError(t, err)
	require.Equal(t, g, loaded)
}

func TestGroupStore_NotFound(t *testing.T) {
	s := NewGroupStore(t.TempDir())

	_, err := s.Load(model.ParliamentUK, "missing")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestGroupStore_ReleaseSnapshot(t *testing.T) {
	s := NewGroupStore(t.TempDir())
	g := sampleGroup()

	require.NoError(t, s.SaveRelease(g, "250328"))

	// The live dataset is untouched by a release save.
	_, err := s.Load(model.ParliamentUK, g.Slug)
	require.True(t, errors.Is(err, ErrNotFound))

	loaded, err := s.LoadRelease("250328", g.Slug)
	require.NoError(t, err)
	require.Equal(t, g.Title, loaded.Title)
}

func TestGroupStore_LoadAllSortsByTitle(t *testing.T) {
	s := NewGroupStore(t.TempDir())

	for _, title := range []string{"zebra", "Apple", "middle"} {
		g := model.NewGroup(title, model.ParliamentUK)
		g.Title = title
		require.NoError(t, s.Save(g))
	}

	groups, err := s.LoadAll(model.ParliamentUK)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	require.Equal(t, "Apple", groups[0].Title)
	require.Equal(t, "middle", groups[1].Title)
	require.Equal(t, "zebra", groups[2].Title)
}

func TestGroupStore_LoadAllMissingFolder(t *testing.T) {
	s := NewGroupStore(t.TempDir())

	groups, err := s.LoadAll(model.ParliamentScotland)
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestCorrectionStore_RoundTrip(t *testing.T) {
	s := NewCorrectionStore(t.TempDir() + "/corrections.json")

	list, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, list.Items)

	list.AddBadNames([]string{"jane smyth", "john jones"})
	require.True(t, list.SetCanon("jane smyth", "Jane Smith"))
	require.NoError(t, s.Save(list))

	reloaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 2)
	require.Equal(t, map[string]string{"jane smyth": "jane smith"}, reloaded.AsMap())
	require.Len(t, reloaded.Unresolved(), 1)
}
