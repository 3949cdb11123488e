package scrape

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNISlug(t *testing.T) {
	cases := map[string]string{
		"All-Party Group on Access to Justice": "access-to-justice",
		"All-Party Group on the Armed Forces":  "armed-forces",
		"All-Party Group on Science, Technology, Engineering and Mathematics": "science-technology-engineering-and-mathematics",
		"All-Party Group on Food to Go": "food-to-go",
	}
	for input, want := range cases {
		require.Equal(t, want, NISlug(input), input)
	}
}

func TestNormalizeNIRole(t *testing.T) {
	require.Equal(t, "Chairperson", NormalizeNIRole("Assembly Party Group Chairperson"))
	require.Equal(t, "Vice-Chairperson", NormalizeNIRole("Assembly Party Group Vice-Chairperson"))
	require.Equal(t, "Member", NormalizeNIRole("Member"))
}

func TestNIOfficerRoles(t *testing.T) {
	require.True(t, niOfficerRoles["assembly party group chairperson"])
	require.True(t, niOfficerRoles["assembly party group treasurer"])
	require.False(t, niOfficerRoles["assembly party group member"])
}

func TestNIResponseDecoding(t *testing.T) {
	orgPayload := `{"OrganisationsList":{"Organisation":[
		{"OrganisationId":"121","OrganisationName":"All-Party Group on Access to Justice","OrganisationType":"All-Party Groups"}
	]}}`
	var orgs niOrganisationsResponse
	require.NoError(t, json.Unmarshal([]byte(orgPayload), &orgs))
	require.Len(t, orgs.OrganisationsList.Organisation, 1)
	require.Equal(t, "121", orgs.OrganisationsList.Organisation[0].OrganisationID)

	rolePayload := `{"AllMembersRoles":{"Role":[
		{"PersonId":"90","AffiliationId":"1","MemberFullDisplayName":"Ms Jane Doe","RoleType":"All Party Group Role","Role":"Assembly Party Group Chairperson","OrganisationId":"121","Organisation":"All-Party Group on Access to Justice","AffiliationStart":"2023-01-01","AffiliationTitle":"Chair"}
	]}}`
	var roles niMemberRolesResponse
	require.NoError(t, json.Unmarshal([]byte(rolePayload), &roles))
	require.Len(t, roles.AllMembersRoles.Role, 1)
	require.Equal(t, "Assembly Party Group Chairperson", roles.AllMembersRoles.Role[0].Role)
}

func TestParseNIPurpose_Synopsis(t *testing.T) {
	page := `<html><body>
<div class="accordion"><div class="synopsis">
<p>Purpose: To promote awareness of justice issues.</p>
</div></div>
</body></html>`
	require.Equal(t, "To promote awareness of justice issues.", ParseNIPurpose(page))
}

func TestParseNIPurpose_BulletList(t *testing.T) {
	page := `<html><body>
<div class="synopsis">
<p>Purpose:</p>
<ul><li>Promote access to justice.</li><li>Support reform.</li></ul>
</div>
</body></html>`
	require.Equal(t, "Promote access to justice; Support reform", ParseNIPurpose(page))
}

func TestParseNIPurpose_Missing(t *testing.T) {
	require.Empty(t, ParseNIPurpose("<html><body><p>nothing</p></body></html>"))
}

func TestParseNIBenefits_FinanceTable(t *testing.T) {
	page := `<html><body>
<table id="ctl00_MainContentPlaceHolder_AccordionPane1_content_APGFinanceGridView">
<tr><td>Secretariat support provided by Justice Charity</td></tr>
</table>
</body></html>`
	require.Equal(t, "Secretariat support provided by Justice Charity", ParseNIBenefits(page))
}

func TestParseNIBenefits_NoFinanceMessage(t *testing.T) {
	page := `<html><body><p>There have been no financial or other benefits received by this committee</p></body></html>`
	require.Equal(t, "There have been no financial or other benefits received by this committee", ParseNIBenefits(page))
}
