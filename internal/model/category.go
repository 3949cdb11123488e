package model

import "strings"

// Category is one of the fixed topic categories assigned to groups
type Category string

const (
	CategoryHealth          Category = "Health, Medicine & Public Health"
	CategorySocialCare      Category = "Social Care, Welfare & Family Support"
	CategoryEducation       Category = "Education, Skills & Youth"
	CategoryScience         Category = "Science, Technology & Innovation"
	CategoryEnvironment     Category = "Environment, Climate & Sustainability"
	CategoryEnergy          Category = "Energy & Utilities"
	CategoryInfrastructure  Category = "Infrastructure, Transport & Mobility"
	CategoryEconomy         Category = "Economy, Business & Industry"
	CategoryFinance         Category = "Finance, Markets & Consumer Affairs"
	CategoryFood            Category = "Food, Agriculture & Rural Affairs"
	CategoryAnimals         Category = "Animals & Animal Welfare"
	CategoryArts            Category = "Arts, Culture, Heritage & Media"
	CategorySport           Category = "Sport, Recreation & Physical Activity"
	CategoryJustice         Category = "Justice, Law & Security"
	CategoryHumanRights     Category = "Human Rights, Equality & Social Justice"
	CategoryInternational   Category = "International Affairs, Development & Trade"
	CategoryRegions         Category = "Regions, Nations & Devolution"
	CategoryHousing         Category = "Housing, Planning & Built Environment"
	CategoryGovernance      Category = "Governance, Democracy & Political Reform"
	CategoryReligion        Category = "Religion, Faith & Belief Communities"
	CategoryOther           Category = "Other"
	CategoryCountryGroup    Category = "Country Group"
)

// categorySlugs maps categories to stable slug names for tabular output
var categorySlugs = map[Category]string{
	CategoryHealth:         "health_medicine_public_health",
	CategorySocialCare:     "social_care_welfare_family_support",
	CategoryEducation:      "education_skills_youth",
	CategoryScience:        "science_technology_innovation",
	CategoryEnvironment:    "environment_climate_sustainability",
	CategoryEnergy:         "energy_utilities",
	CategoryInfrastructure: "infrastructure_transport_mobility",
	CategoryEconomy:        "economy_business_industry",
	CategoryFinance:        "finance_markets_consumer_affairs",
	CategoryFood:           "food_agriculture_rural_affairs",
	CategoryAnimals:        "animals_animal_welfare",
	CategoryArts:           "arts_culture_heritage_media",
	CategorySport:          "sport_recreation_physical_activity",
	CategoryJustice:        "justice_law_security",
	CategoryHumanRights:    "human_rights_equality_social_justice",
	CategoryInternational:  "international_affairs_development_trade",
	CategoryRegions:        "regions_nations_devolution",
	CategoryHousing:        "housing_planning_built_environment",
	CategoryGovernance:     "governance_democracy_political_reform",
	CategoryReligion:       "religion_faith_belief_communities",
	CategoryOther:          "other",
	CategoryCountryGroup:   "country_group",
}

// AllCategories lists every assignable category
func AllCategories() []Category {
	return []Category{
		CategoryHealth, CategorySocialCare, CategoryEducation, CategoryScience,
		CategoryEnvironment, CategoryEnergy, CategoryInfrastructure, CategoryEconomy,
		CategoryFinance, CategoryFood, CategoryAnimals, CategoryArts, CategorySport,
		CategoryJustice, CategoryHumanRights, CategoryInternational, CategoryRegions,
		CategoryHousing, CategoryGovernance, CategoryReligion, CategoryOther,
		CategoryCountryGroup,
	}
}

// Slug returns the stable slug name for a category
func (c Category) Slug() string {
	return categorySlugs[c]
}

// ParseCategory resolves a category by its display name, tolerating surrounding
// whitespace. Unknown names return false.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range AllCategories() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}
