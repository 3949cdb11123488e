package export

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/appgwatch/appgwatch/internal/model"
)

func TestStartingStatus(t *testing.T) {
	noWebsite := model.NewGroup("a", model.ParliamentUK)

	withWebsite := model.NewGroup("b", model.ParliamentUK)
	withWebsite.ContactDetails.Website.URL = "https://example.org"

	withMembers := model.NewGroup("c", model.ParliamentUK)
	withMembers.ContactDetails.Website.URL = "https://example.org"
	withMembers.MembersList.SourceMethod = model.SourceAISearch
	withMembers.MembersList.Members = []model.Member{{Name: "Jane Smith MP"}}

	emptyMethod := model.NewGroup("d", model.ParliamentUK)
	emptyMethod.ContactDetails.Website.URL = "https://example.org"
	emptyMethod.MembersList.SourceMethod = model.SourceEmpty

	assert.Equal(t, "no_website", StartingStatus(noWebsite))
	assert.Equal(t, "website_no_members", StartingStatus(withWebsite))
	assert.Equal(t, "website_members_list", StartingStatus(withMembers))
	assert.Equal(t, "website_no_members", StartingStatus(emptyMethod))
}

func TestGoogleSearchLink(t *testing.T) {
	link := GoogleSearchLink("Beer Group")
	assert.Equal(t, "https://www.google.com/search?q=All-Party+Parliamentary+Group+Beer+Group+UK+parliament", link)
}

func TestMemberTypeFromRow(t *testing.T) {
	tests := []struct {
		house string
		name  string
		want  model.MemberType
	}{
		{"HoC", "Jane Smith", model.MemberTypeMP},
		{"House of Lords", "Lord Example", model.MemberTypeLord},
		{"commons", "Someone", model.MemberTypeMP},
		{"", "John Doe MP", model.MemberTypeMP},
		{"", "Baroness Example of Somewhere", model.MemberTypeLord},
		{"", "Viscount Example", model.MemberTypeLord},
		{"", "Jane Smith", model.MemberTypeMP},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, memberTypeFromRow(tt.house, tt.name), "house=%q name=%q", tt.house, tt.name)
	}
}

func TestMembersFromRows(t *testing.T) {
	rows := [][]string{
		{"Template notes"},
		{}, {}, {}, {}, {},
		{"Name", "House", "Role (e.g. Chair, Officer, Treasurer)"},
		{"Jane Smith MP", "HoC", "Chair"},
		{"Lord Example", "HoL", ""},
		{"Add more rows as needed", "", ""},
		{"", "", ""},
	}

	members := membersFromRows(rows, true)
	assert.Len(t, members, 2)

	assert.Equal(t, "Jane Smith MP", members[0].Name)
	assert.True(t, members[0].IsOfficer)
	assert.Equal(t, model.MemberTypeMP, members[0].MemberType)

	assert.Equal(t, "Lord Example", members[1].Name)
	assert.False(t, members[1].IsOfficer)
	assert.Equal(t, model.MemberTypeLord, members[1].MemberType)
}

func TestMembersFromRowsNonParliamentary(t *testing.T) {
	rows := [][]string{
		{}, {}, {}, {}, {}, {},
		{"Name", "Organisation"},
		{"Campaign Group Ltd", "Campaign Group"},
	}

	members := membersFromRows(rows, false)
	assert.Len(t, members, 1)
	assert.Equal(t, model.MemberTypeOther, members[0].MemberType)
	assert.False(t, members[0].IsOfficer)
}

func TestDedupeMemberRows(t *testing.T) {
	rows := []memberRow{
		{appg: "beer", name: "Jane Smith MP", twfyID: "10001", source: "ai_search"},
		{appg: "beer", name: "Jane Smith", twfyID: "10001", source: "parliament", isOfficer: true},
		{appg: "beer", name: "No ID Person", source: "manual"},
		{appg: "aerospace", name: "Jane Smith", twfyID: "10001", source: "ai_search"},
	}

	deduped := dedupeMemberRows(rows)
	assert.Len(t, deduped, 3)

	// sorted by group first
	assert.Equal(t, "aerospace", deduped[0].appg)

	// the register row wins over the scraped row for the same person
	assert.Equal(t, "beer", deduped[1].appg)
	assert.Equal(t, "parliament", deduped[1].source)
	assert.True(t, deduped[1].isOfficer)

	assert.Equal(t, "No ID Person", deduped[2].name)
}
