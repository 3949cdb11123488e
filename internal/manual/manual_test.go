package manual

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/appgwatch/appgwatch/internal/model"
)

func TestCleanMemberName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"**Jane Smith MP**", "Jane Smith MP"},
		{"- Jane Smith MP", "Jane Smith MP"},
		{"1. Jane Smith MP", "Jane Smith MP"},
		{`1\. Jane Smith MP`, "Jane Smith MP"},
		{`\- Jane Smith MP`, "Jane Smith MP"},
		{"Jane Smith MP Labour", "Jane Smith MP"},
		{"Jane Smith MP (Labour, Anytown)", "Jane Smith MP"},
		{"Lord Example Crossbench", "Lord Example"},
		{"Baroness Example sinn féin", "Baroness Example"},
		{"## Not a name", ""},
		{"ab", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanMemberName(tt.in), "input %q", tt.in)
	}
}

func TestTitleToSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"All-Party Parliamentary Group for Beer", "beer"},
		{"All-Party Parliamentary Group on Fair Business Banking", "fair-business-banking"},
		{"APPG for Dark Skies", "dark-skies"},
		{"Motor Neurone Disease", "motor-neurone-disease"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TitleToSlug(tt.in))
	}
}

func TestInferMemberType(t *testing.T) {
	assert.Equal(t, model.MemberTypeMP, InferMemberType("Jane Smith MP"))
	assert.Equal(t, model.MemberTypeLord, InferMemberType("Baroness Example"))
	assert.Equal(t, model.MemberTypeLord, InferMemberType("The Earl of Somewhere"))
	assert.Equal(t, model.MemberTypeMP, InferMemberType("Jane Smith"))
}

func TestParseDocument(t *testing.T) {
	content := `# Manual membership collection

## **All-Party Parliamentary Group for Beer**

### Notes

Collected from the group website in March.

### Members

- Jane Smith MP Labour
- Lord Example

## Dark Skies

John Doe MP
Baroness Example Crossbench
`
	entries := ParseDocument(content)
	assert.Len(t, entries, 2)

	assert.Equal(t, "All-Party Parliamentary Group for Beer", entries[0].Title)
	assert.Equal(t, []string{"Jane Smith MP", "Lord Example"}, entries[0].Members)

	// no H3 sections means everything under the heading is members
	assert.Equal(t, "Dark Skies", entries[1].Title)
	assert.Equal(t, []string{"John Doe MP", "Baroness Example"}, entries[1].Members)
}

func TestParseDocumentSkipsMemberlessGroups(t *testing.T) {
	content := `## Empty Group

### Notes

Nothing found yet.
`
	assert.Empty(t, ParseDocument(content))
}
