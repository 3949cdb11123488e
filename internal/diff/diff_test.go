package diff

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/appgwatch/appgwatch/internal/model"
	"github.com/appgwatch/appgwatch/internal/store"
	"github.com/stretchr/testify/require"
)

func releaseGroup(slug, title string) *model.Group {
	g := model.NewGroup(slug, model.ParliamentUK)
	g.Title = title
	g.IndexDate = "250328"
	g.SourceURL = GroupPageURL("250328", slug)
	return g
}

func TestFlatten(t *testing.T) {
	g := releaseGroup("test", "Test Group")
	g.Officers = []model.Officer{{Role: "Chair", Name: "Jane Smith MP", Party: "Labour"}}

	flat, err := Flatten(g)
	require.NoError(t, err)

	require.Equal(t, "Test Group", flat["title"])
	require.Equal(t, "Jane Smith MP", flat["officers__0__name"])
	require.Equal(t, "empty", flat["members_list__source_method"])
	require.Equal(t, "false", flat["officers__0__removed"])
}

func TestCompare_SelfIsEmpty(t *testing.T) {
	dir := t.TempDir()
	s := store.NewGroupStore(dir)

	g := releaseGroup("alpha", "Alpha Group")
	require.NoError(t, s.SaveRelease(g, "250212"))
	require.NoError(t, s.SaveRelease(g, "250328"))

	result, err := NewEngine(s).Compare("250328", "250212")
	require.NoError(t, err)
	require.Empty(t, result.AddedGroups)
	require.Empty(t, result.RemovedGroups)
	require.Empty(t, result.UpdatedGroups)
	require.Empty(t, result.Differences)
}

func TestCompare_TitleChange(t *testing.T) {
	dir := t.TempDir()
	s := store.NewGroupStore(dir)

	require.NoError(t, s.SaveRelease(releaseGroup("x", "Foo"), "250212"))
	require.NoError(t, s.SaveRelease(releaseGroup("x", "Bar"), "250328"))

	result, err := NewEngine(s).Compare("250328", "250212")
	require.NoError(t, err)

	require.Len(t, result.UpdatedGroups, 1)
	require.Equal(t, "x", result.UpdatedGroups[0].Slug)
	require.Len(t, result.Differences, 1)
	require.Len(t, result.Differences[0].Differences, 1)

	line := result.Differences[0].Differences[0]
	require.Equal(t, "title", line.Key)
	require.Equal(t, "Foo", line.OldValue)
	require.Equal(t, "Bar", line.NewValue)
}

func TestCompare_AddedAndRemoved(t *testing.T) {
	dir := t.TempDir()
	s := store.NewGroupStore(dir)

	require.NoError(t, s.SaveRelease(releaseGroup("old", "Old Group"), "250212"))
	require.NoError(t, s.SaveRelease(releaseGroup("new", "New Group"), "250328"))

	result, err := NewEngine(s).Compare("250328", "250212")
	require.NoError(t, err)

	require.Len(t, result.AddedGroups, 1)
	require.Equal(t, "new", result.AddedGroups[0].Slug)
	require.Len(t, result.RemovedGroups, 1)
	require.Equal(t, "old", result.RemovedGroups[0].Slug)
}

func TestCompare_NoiseKeysIgnored(t *testing.T) {
	dir := t.TempDir()
	s := store.NewGroupStore(dir)

	previous := releaseGroup("x", "Same Title")
	previous.IndexDate = "250212"
	previous.SourceURL = GroupPageURL("250212", "x")
	previous.Category = "Subject Group"
	require.NoError(t, s.SaveRelease(previous, "250212"))

	current := releaseGroup("x", "Same Title")
	current.Category = "Country Group"
	require.NoError(t, s.SaveRelease(current, "250328"))

	result, err := NewEngine(s).Compare("250328", "250212")
	require.NoError(t, err)
	require.Empty(t, result.Differences)
}

func TestCompare_DefaultsToPrecedingRelease(t *testing.T) {
	dir := t.TempDir()
	s := store.NewGroupStore(dir)

	require.NoError(t, s.SaveRelease(releaseGroup("x", "Foo"), "250212"))
	require.NoError(t, s.SaveRelease(releaseGroup("x", "Foo"), "250328"))

	result, err := NewEngine(s).Compare("250328", "")
	require.NoError(t, err)
	require.Equal(t, "250212", result.PreviousIndex)

	_, err = NewEngine(s).Compare("240828", "")
	require.Error(t, err)
}

func TestResult_SaveAndRender(t *testing.T) {
	dir := t.TempDir()

	result := &Result{
		CurrentIndex:  "250328",
		PreviousIndex: "250212",
		AddedGroups:   []GroupRef{{Slug: "new", Title: "All-Party Parliamentary Group for New Things"}},
		UpdatedGroups: []GroupRef{{Slug: "x", Title: "X Group"}},
		Differences: []GroupDiff{{
			Slug: "x", Name: "X Group",
			Differences: []LineDiff{{Key: "title", OldValue: "Foo", NewValue: "Bar|Baz"}},
		}},
	}

	require.NoError(t, result.Save(dir))
	loaded, err := LoadResult(filepath.Join(dir, "250328.json"))
	require.NoError(t, err)
	require.Equal(t, result, loaded)

	reportDir := filepath.Join(dir, "reports")
	require.NoError(t, result.RenderMarkdown(reportDir))

	raw, err := os.ReadFile(filepath.Join(reportDir, "250328.md"))
	require.NoError(t, err)
	report := string(raw)

	require.True(t, strings.Contains(report, "## Added groups"))
	// Boilerplate stripped from display titles.
	require.True(t, strings.Contains(report, "[New Things]"))
	// Pipes escaped inside markdown tables.
	require.True(t, strings.Contains(report, "Bar\\|Baz"))
}

func TestShortTitle(t *testing.T) {
	tests := []struct {
		in   GroupRef
		want string
	}{
		{GroupRef{Slug: "x", Title: "All-Party Parliamentary Group for Cycling"}, "Cycling"},
		{GroupRef{Slug: "x", Title: "Jazz All-Party Parliamentary Group"}, "Jazz"},
		{GroupRef{Slug: "x", Title: "All-Party Parliamentary Group on beer"}, "Beer"},
		{GroupRef{Slug: "fallback", Title: ""}, "fallback"},
	}
	for _, tt := range tests {
		if got := tt.in.ShortTitle(); got != tt.want {
			t.Errorf("ShortTitle(%q) = %q, want %q", tt.in.Title, got, tt.want)
		}
	}
}
