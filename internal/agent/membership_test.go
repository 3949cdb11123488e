package agent

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/appgwatch/appgwatch/internal/model"
)

func testGroup() *model.Group {
	group := model.NewGroup("test-group", model.ParliamentUK)
	group.Title = "Test Group"
	group.MembersList = model.MembershipList{
		SourceMethod: model.SourceAISearch,
		Members: []model.Member{
			{Name: "Jane Smith", MemberType: model.MemberTypeMP},
			{Name: "Lord Example", MemberType: model.MemberTypeLord},
			{Name: "Old Member", MemberType: model.MemberTypeMP},
		},
	}
	return group
}

func TestApplyResult_MergesMembers(t *testing.T) {
	a := &MembershipAgent{out: io.Discard}
	group := testGroup()

	result := &MemberSearchResult{
		MembersListFound: true,
		SourcePages: []SourcePage{{
			SourceURL: "https://example.org/members",
			Members: []FoundMember{
				{Name: "Jane Smith", Type: "mp"},
				{Name: "Lord Example", Type: "lord"},
				{Name: "New Person", Type: "mp"},
			},
		}},
	}

	require.True(t, a.applyResult(group, result))

	require.Equal(t, model.SourceAISearch, group.MembersList.SourceMethod)
	require.Equal(t, []string{"https://example.org/members"}, group.MembersList.SourceURLs)
	require.NotNil(t, group.MembersList.LastUpdated)

	require.Len(t, group.MembersList.Members, 4)
	byName := make(map[string]model.Member)
	for _, m := range group.MembersList.Members {
		byName[m.Name] = m
	}
	require.False(t, byName["Jane Smith"].Removed)
	require.True(t, byName["Old Member"].Removed, "members absent from the new list are marked removed")
	require.False(t, byName["New Person"].Removed)
	require.Equal(t, model.MemberTypeMP, byName["New Person"].MemberType)
}

func TestApplyResult_UnmarksReturnedMember(t *testing.T) {
	a := &MembershipAgent{out: io.Discard}
	group := testGroup()
	group.MembersList.Members[0].Removed = true

	result := &MemberSearchResult{
		MembersListFound: true,
		SourcePages: []SourcePage{{
			SourceURL: "https://example.org/members",
			Members:   []FoundMember{{Name: "Jane Smith", Type: "mp"}},
		}},
	}

	require.True(t, a.applyResult(group, result))
	require.False(t, group.MembersList.Members[0].Removed)
}

func TestApplyResult_NotFoundBlanksOwnLists(t *testing.T) {
	a := &MembershipAgent{out: io.Discard}

	group := testGroup()
	require.True(t, a.applyResult(group, &MemberSearchResult{}))
	require.Equal(t, model.SourceEmpty, group.MembersList.SourceMethod)
	require.Empty(t, group.MembersList.Members)
	require.NotNil(t, group.MembersList.LastUpdated)
}

func TestApplyResult_NotFoundKeepsManualLists(t *testing.T) {
	a := &MembershipAgent{out: io.Discard}

	group := testGroup()
	group.MembersList.SourceMethod = model.SourceManual
	require.False(t, a.applyResult(group, &MemberSearchResult{}))
	require.Equal(t, model.SourceManual, group.MembersList.SourceMethod)
	require.Len(t, group.MembersList.Members, 3)
}

func TestMemberSearchResultHelpers(t *testing.T) {
	result := &MemberSearchResult{
		MembersListFound: true,
		SourcePages: []SourcePage{
			{SourceURL: "https://a.example.org", Members: []FoundMember{{Name: "A"}}},
			{SourceURL: "https://b.example.org", Members: []FoundMember{{Name: "B"}, {Name: "C"}}},
		},
	}
	require.Equal(t, []string{"https://a.example.org", "https://b.example.org"}, result.SourceURLs())
	require.Len(t, result.AllMembers(), 3)
}

func TestNamesPresent_RejectsContradictoryResult(t *testing.T) {
	a := &MembershipAgent{out: io.Discard}

	// pages cited but no list claimed: must fail verification so the
	// search retries rather than accepting the contradictory answer
	result := &MemberSearchResult{
		MembersListFound: false,
		SourcePages: []SourcePage{{
			SourceURL: "https://example.org/members",
			Members:   []FoundMember{{Name: "Jane Smith", Type: "mp"}},
		}},
	}
	require.False(t, a.namesPresent(context.Background(), result))
}

func TestStripWhitespace(t *testing.T) {
	require.Equal(t, "janesmith", stripWhitespace("jane \n\t smith"))
}
