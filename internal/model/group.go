package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Parliament identifies which legislature a group belongs to
type Parliament string

const (
	ParliamentUK       Parliament = "uk"
	ParliamentScotland Parliament = "scotland"
	ParliamentSeneddEN Parliament = "senedd-en"
	ParliamentSeneddCY Parliament = "senedd-cy"
	ParliamentNI       Parliament = "ni"
)

// AllParliaments lists every known parliament in storage order
var AllParliaments = []Parliament{
	ParliamentUK,
	ParliamentScotland,
	ParliamentSeneddEN,
	ParliamentSeneddCY,
	ParliamentNI,
}

// DevolvedParliaments lists the non-Westminster legislatures
var DevolvedParliaments = []Parliament{
	ParliamentScotland,
	ParliamentSeneddEN,
	ParliamentSeneddCY,
	ParliamentNI,
}

// Folder returns the data subdirectory for a parliament's group files
func (p Parliament) Folder() string {
	switch p {
	case ParliamentScotland:
		return "cpg_scotland"
	case ParliamentSeneddEN:
		return "cpg_senedd_en"
	case ParliamentSeneddCY:
		return "cpg_senedd_cy"
	case ParliamentNI:
		return "apg_ni"
	default:
		return "appgs"
	}
}

// ParseParliament converts a string value into a Parliament
func ParseParliament(s string) (Parliament, error) {
	for _, p := range AllParliaments {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown parliament: %q", s)
}

// MemberType classifies a member of a group
type MemberType string

const (
	MemberTypeMP    MemberType = "mp"
	MemberTypeLord  MemberType = "lord"
	MemberTypeMSP   MemberType = "msp"
	MemberTypeMS    MemberType = "ms"
	MemberTypeMLA   MemberType = "mla"
	MemberTypeOther MemberType = "other"
)

// SourceMethod records how a membership list was obtained
type SourceMethod string

const (
	SourceOfficial           SourceMethod = "official"
	SourceAISearch           SourceMethod = "ai_search"
	SourceManual             SourceMethod = "manual"
	SourceEmpty              SourceMethod = "empty"
	SourceNotFound           SourceMethod = "not_found"
	SourceAISearchWithManual SourceMethod = "ai_search_with_manual"
)

// WebsiteStatus records how a group's website URL was established
type WebsiteStatus string

const (
	WebsiteRegister       WebsiteStatus = "register"
	WebsiteNoRegister     WebsiteStatus = "no_register"
	WebsiteSearch         WebsiteStatus = "search"
	WebsiteNoSearch       WebsiteStatus = "no_search"
	WebsiteSearchPrecheck WebsiteStatus = "search_precheck"
	WebsiteBadSearch      WebsiteStatus = "bad_search"
	WebsiteManual         WebsiteStatus = "manual"
)

// Member is one entry in a group's membership list
type Member struct {
	Name       string     `json:"name"`
	IsOfficer  bool       `json:"is_officer"`
	MemberType MemberType `json:"member_type"`
	MnisID     string     `json:"mnis_id,omitempty"`
	TwfyID     string     `json:"twfy_id,omitempty"`
	Removed    bool       `json:"removed"`
}

// Officer is a group member holding a named role
type Officer struct {
	Role    string `json:"role"`
	Name    string `json:"name"`
	Party   string `json:"party"`
	TwfyID  string `json:"twfy_id,omitempty"`
	MnisID  string `json:"mnis_id,omitempty"`
	Removed bool   `json:"removed"`
}

// Date is a calendar day serialized as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate builds a Date from year/month/day
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Before reports whether d falls before other
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// MarshalJSON serializes the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" or null
func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MembershipList wraps a group's members with provenance metadata
type MembershipList struct {
	SourceMethod SourceMethod `json:"source_method"`
	SourceURLs   []string     `json:"source_url"`
	LastUpdated  *Date        `json:"last_updated"`
	Members      []Member     `json:"members"`
}

// Blank resets the list to the empty state. This is the only mutator that
// establishes the "empty source method implies no members" convention.
func (m *MembershipList) Blank() {
	m.SourceMethod = SourceEmpty
	m.SourceURLs = nil
	m.LastUpdated = nil
	m.Members = nil
}

// Validate checks the empty-implies-no-members convention
func (m *MembershipList) Validate() error {
	if m.SourceMethod == SourceEmpty && len(m.Members) > 0 {
		return fmt.Errorf("membership list has source_method %q but %d members", SourceEmpty, len(m.Members))
	}
	return nil
}

// WebsiteSource holds a group's website URL and how it was found
type WebsiteSource struct {
	Status WebsiteStatus `json:"status"`
	URL    string        `json:"url,omitempty"`
}

// NewWebsiteSource returns the default no-register website source
func NewWebsiteSource() WebsiteSource {
	return WebsiteSource{Status: WebsiteNoRegister}
}

// ContactDetails holds the register's contact block for a group
type ContactDetails struct {
	RegisteredContactName    string        `json:"registered_contact_name,omitempty"`
	RegisteredContactAddress string        `json:"registered_contact_address,omitempty"`
	RegisteredContactEmail   string        `json:"registered_contact_email,omitempty"`
	PublicEnquiryPointName   string        `json:"public_enquiry_point_name,omitempty"`
	PublicEnquiryPointEmail  string        `json:"public_enquiry_point_email,omitempty"`
	Secretariat              string        `json:"secretariat,omitempty"`
	Website                  WebsiteSource `json:"website"`
}

// FlattenedRow converts the contact details into a flat string map
func (c ContactDetails) FlattenedRow() map[string]string {
	return map[string]string{
		"registered_contact_name":    c.RegisteredContactName,
		"registered_contact_address": c.RegisteredContactAddress,
		"registered_contact_email":   c.RegisteredContactEmail,
		"public_enquiry_point_name":  c.PublicEnquiryPointName,
		"public_enquiry_point_email": c.PublicEnquiryPointEmail,
		"secretariat":                c.Secretariat,
		"website":                    c.Website.URL,
		"website_status":             string(c.Website.Status),
	}
}

// CleanEmail normalizes the "no email supplied" sentinel to empty
func CleanEmail(s string) string {
	if strings.Contains(strings.ToLower(s), "no email supplied") {
		return ""
	}
	return strings.TrimSpace(s)
}

// AGMDetails holds the register's annual-general-meeting block
type AGMDetails struct {
	DateOfMostRecentAGM                  *Date  `json:"date_of_most_recent_agm"`
	PublishedIncomeExpenditureStatement  bool   `json:"published_income_expenditure_statement"`
	ReportingYear                        string `json:"reporting_year,omitempty"`
	NextReportingDeadline                *Date  `json:"next_reporting_deadline"`
}

// YesNoToBool normalizes a Yes/No register value to a bool
func YesNoToBool(s string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "y")
}

// Group is one cross-party interest group (APPG/CPG)
type Group struct {
	Slug       string     `json:"slug"`
	Title      string     `json:"title"`
	Purpose    string     `json:"purpose,omitempty"`
	Category   string     `json:"category,omitempty"`
	Parliament Parliament `json:"parliament"`

	Officers       []Officer      `json:"officers"`
	MembersList    MembershipList `json:"members_list"`
	ContactDetails ContactDetails `json:"contact_details"`
	AGM            *AGMDetails    `json:"agm"`

	RegistrableBenefits string              `json:"registrable_benefits,omitempty"`
	DetailedBenefits    []map[string]string `json:"detailed_benefits"`

	IndexDate  string     `json:"index_date"`
	SourceURL  string     `json:"source_url,omitempty"`
	Categories []Category `json:"categories"`
}

// NewGroup returns a group with required defaults set
func NewGroup(slug string, parliament Parliament) *Group {
	return &Group{
		Slug:           slug,
		Parliament:     parliament,
		MembersList:    MembershipList{SourceMethod: SourceEmpty},
		ContactDetails: ContactDetails{Website: NewWebsiteSource()},
	}
}

// HasWebsite reports whether the group has a known website URL
func (g *Group) HasWebsite() bool {
	return g.ContactDetails.Website.URL != ""
}

// UpdateFrom carries forward data maintained by later pipeline stages onto a
// freshly parsed group. The membership list and assigned categories always come
// from the previous record; the website does too, unless the fresh parse found
// an officially registered one.
func (g *Group) UpdateFrom(other *Group) {
	g.MembersList = other.MembersList
	g.Categories = other.Categories
	if g.ContactDetails.Website.Status != WebsiteRegister {
		g.ContactDetails.Website = other.ContactDetails.Website
	}
}

// FlattenedRow converts the group into a flat string map for tabular export
func (g *Group) FlattenedRow() map[string]string {
	row := map[string]string{
		"slug":                 g.Slug,
		"title":                g.Title,
		"purpose":              g.Purpose,
		"category":             g.Category,
		"registrable_benefits": g.RegistrableBenefits,
		"source_url":           g.SourceURL,
	}

	if len(g.DetailedBenefits) > 0 {
		if data, err := json.Marshal(g.DetailedBenefits); err == nil {
			row["detailed_benefits"] = string(data)
		}
	}

	names := make([]string, 0, len(g.Categories))
	for _, c := range g.Categories {
		names = append(names, string(c))
	}
	row["categories"] = strings.Join(names, "|")

	for k, v := range g.ContactDetails.FlattenedRow() {
		row[k] = v
	}

	if g.AGM != nil {
		if g.AGM.DateOfMostRecentAGM != nil {
			row["date_of_most_recent_agm"] = g.AGM.DateOfMostRecentAGM.String()
		}
		row["published_income_expenditure_statement"] = fmt.Sprintf("%t", g.AGM.PublishedIncomeExpenditureStatement)
		row["reporting_year"] = g.AGM.ReportingYear
		if g.AGM.NextReportingDeadline != nil {
			row["next_reporting_deadline"] = g.AGM.NextReportingDeadline.String()
		}
	}

	return row
}
