package scrape

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/appgwatch/appgwatch/internal/model"
)

const ukPageFixture = `
<html><body>
<table class="basicTable">
<tr><td>Title</td><td>Zoos and Aquariums</td></tr>
<tr><td>Purpose</td><td>To promote the role of zoos and aquariums.</td></tr>
<tr><td>Category</td><td>Subject Group</td></tr>
</table>
<table class="basicTable">
<tr><td colspan="3"><strong>Officers</strong></td></tr>
<tr><td>Role</td><td>Name</td><td>Party</td></tr>
<tr><td>Chair</td><td>Jane Smith MP</td><td>Labour</td></tr>
<tr><td>Vice Chair</td><td>Lord Example</td><td>Crossbench</td></tr>
</table>
<table class="basicTable">
<tr><td><strong>Contact Details</strong></td></tr>
<tr><td><strong>Registered Contact:</strong></td></tr>
<tr><td>Jane Smith MP, House of Commons, London SW1A 0AA</td></tr>
<tr><td>Email: jane.smith@example.org</td></tr>
<tr><td><strong>Public Enquiry Point:</strong></td></tr>
<tr><td>Sam Jones</td></tr>
<tr><td>Email: no email supplied</td></tr>
<tr><td><strong>Secretariat:</strong></td></tr>
<tr><td>Zoo Association acts as the</td></tr>
<tr><td>secretariat to this group</td></tr>
<tr><td><strong>Group's Website:</strong></td></tr>
<tr><td>https://zoos.example.org</td></tr>
</table>
<table class="basicTable">
<tr><td><strong>Annual General Meeting</strong></td></tr>
<tr><td>Date of most recent AGM in this Parliament</td><td>05/11/2024</td></tr>
<tr><td>Did the group publish an income and expenditure statement relating to the AGM above?</td><td>Yes</td></tr>
<tr><td>Reporting year</td><td>2024-25</td></tr>
<tr><td>Next reporting deadline</td><td>30/04/2025</td></tr>
</table>
<table class="basicTable">
<tr><td><strong>Registrable benefits received by the group</strong></td></tr>
<tr><td colspan="4">Financial Benefits</td></tr>
<tr><td>Source</td><td>Value &#163;s</td><td>Received</td><td>Registered</td></tr>
<tr><td>Zoo Association</td><td>12,000</td><td>01/09/2024</td><td>15/09/2024</td></tr>
</table>
</body></html>`

func TestParseUKGroupPage(t *testing.T) {
	group, err := ParseUKGroupPage(ukPageFixture, "zoos-and-aquariums", "https://example.org/zoos.htm", "250328")
	require.NoError(t, err)

	require.Equal(t, "Zoos and Aquariums", group.Title)
	require.Equal(t, "To promote the role of zoos and aquariums.", group.Purpose)
	require.Equal(t, "Subject Group", group.Category)
	require.Equal(t, model.ParliamentUK, group.Parliament)
	require.Equal(t, "250328", group.IndexDate)

	require.Len(t, group.Officers, 2)
	require.Equal(t, model.Officer{Role: "Chair", Name: "Jane Smith MP", Party: "Labour"}, group.Officers[0])
	require.Equal(t, "Lord Example", group.Officers[1].Name)

	contact := group.ContactDetails
	require.Equal(t, "Jane Smith MP", contact.RegisteredContactName)
	require.Equal(t, "House of Commons, London SW1A 0AA", contact.RegisteredContactAddress)
	require.Equal(t, "jane.smith@example.org", contact.RegisteredContactEmail)
	require.Equal(t, "Sam Jones", contact.PublicEnquiryPointName)
	require.Empty(t, contact.PublicEnquiryPointEmail, "no email supplied should be cleaned")
	require.Equal(t, "Zoo Association acts as the secretariat to this group", contact.Secretariat)
	require.Equal(t, model.WebsiteRegister, contact.Website.Status)
	require.Equal(t, "https://zoos.example.org", contact.Website.URL)

	require.NotNil(t, group.AGM)
	require.Equal(t, "2024-11-05", group.AGM.DateOfMostRecentAGM.String())
	require.True(t, group.AGM.PublishedIncomeExpenditureStatement)
	require.Equal(t, "2024-25", group.AGM.ReportingYear)
	require.Equal(t, "2025-04-30", group.AGM.NextReportingDeadline.String())

	require.Equal(t, "Financial Benefits", group.RegistrableBenefits)
	require.Len(t, group.DetailedBenefits, 1)
	require.Equal(t, "Zoo Association", group.DetailedBenefits[0]["Source"])
	require.Equal(t, "Financial Benefits", group.DetailedBenefits[0]["benefit_type"])
}

// Some register pages wrap each contact section in paragraph elements
// instead of one row per line.
const ukParagraphContactFixture = `
<html><body>
<table class="basicTable">
<tr><td>Title</td><td>Zoos and Aquariums</td></tr>
<tr><td>Purpose</td><td>To promote the role of zoos and aquariums.</td></tr>
<tr><td>Category</td><td>Subject Group</td></tr>
</table>
<table class="basicTable">
<tr><td><strong>Contact Details</strong></td></tr>
<tr><td>
<p><strong>Registered Contact:</strong> Jane Smith MP, House of Commons, London SW1A 0AA</p>
<p>Email: jane.smith@example.org</p>
<p><strong>Public Enquiry Point:</strong></p>
<p>Sam Jones</p>
<p>Email: no email supplied</p>
<p><strong>Secretariat:</strong></p>
<p>Zoo Association acts as the</p>
<p>secretariat to this group</p>
<p><strong>Group's Website:</strong></p>
<p>https://zoos.example.org</p>
</td></tr>
</table>
</body></html>`

func TestParseUKGroupPage_ParagraphContactDetails(t *testing.T) {
	group, err := ParseUKGroupPage(ukParagraphContactFixture, "zoos-and-aquariums", "https://example.org/zoos.htm", "250328")
	require.NoError(t, err)

	contact := group.ContactDetails
	require.Equal(t, "Jane Smith MP", contact.RegisteredContactName)
	require.Equal(t, "House of Commons, London SW1A 0AA", contact.RegisteredContactAddress)
	require.Equal(t, "jane.smith@example.org", contact.RegisteredContactEmail)
	require.Equal(t, "Sam Jones", contact.PublicEnquiryPointName)
	require.Empty(t, contact.PublicEnquiryPointEmail)
	require.Equal(t, "Zoo Association acts as the secretariat to this group", contact.Secretariat)
	require.Equal(t, model.WebsiteRegister, contact.Website.Status)
	require.Equal(t, "https://zoos.example.org", contact.Website.URL)
}

func TestParseUKGroupPage_MinimalPage(t *testing.T) {
	group, err := ParseUKGroupPage("<html><body><p>no tables here</p></body></html>", "empty", "https://example.org/empty.htm", "250328")
	require.NoError(t, err)
	require.Equal(t, "", group.Title)
	require.Empty(t, group.Officers)
	require.Nil(t, group.AGM)
	require.Equal(t, model.WebsiteNoRegister, group.ContactDetails.Website.Status)
}

func TestParseUKGroupPage_BenefitsNone(t *testing.T) {
	page := `
<table class="basicTable">
<tr><td>Title</td><td>Test</td></tr>
</table>
<table class="basicTable">
<tr><td><strong>Registrable benefits received by the group</strong></td></tr>
<tr><td>None</td></tr>
</table>`
	group, err := ParseUKGroupPage(page, "test", "https://example.org/test.htm", "250328")
	require.NoError(t, err)
	require.Empty(t, group.RegistrableBenefits)
	require.Empty(t, group.DetailedBenefits)
}

func TestSlugFromURL(t *testing.T) {
	cases := map[string]string{
		"https://publications.parliament.uk/pa/cm/cmallparty/250328/zoos.htm": "zoos",
		"https://example.org/folder/armed-forces.htm":                         "armed-forces",
	}
	for input, want := range cases {
		require.Equal(t, want, slugFromURL(input))
	}
}
