// Package classify is the single translation table between upstream
// free-text wording and derived classifications. Upstream title or signup
// wording changes are absorbed by editing the tables here, nowhere else.
package classify

import "strings"

// Activity categories derived from line-item titles.
const (
	CategoryHousing     = "housing"
	CategoryBanquet     = "banquet"
	CategoryDonation    = "donation"
	CategoryMeal        = "meal"
	CategoryMerchandise = "merchandise"
	CategoryExcursion   = "excursion"
	CategoryOther       = "other"
)

// titleRules map a lowercase substring of the provider's line-item title to
// a category. First match wins; order matters where titles overlap.
var titleRules = []struct {
	substr   string
	category string
}{
	{"single room", CategoryHousing},
	{"double room", CategoryHousing},
	{"apartment", CategoryHousing},
	{"dorm", CategoryHousing},
	{"housing", CategoryHousing},
	{"banquet", CategoryBanquet},
	{"donation", CategoryDonation},
	{"meal plan", CategoryMeal},
	{"breakfast", CategoryMeal},
	{"dinner", CategoryMeal},
	{"t-shirt", CategoryMerchandise},
	{"tshirt", CategoryMerchandise},
	{"excursion", CategoryExcursion},
	{"tour", CategoryExcursion},
}

// Activity derives a line item's category from its free-text title.
func Activity(title string) string {
	lowered := strings.ToLower(title)
	for _, rule := range titleRules {
		if strings.Contains(lowered, rule.substr) {
			return rule.category
		}
	}
	return CategoryOther
}

// Tournament names.
const (
	TournamentOpen      = "open"
	TournamentMasters   = "masters"
	TournamentSeniors   = "seniors"
	TournamentWomens    = "womens"
	TournamentYouth     = "youth"
	TournamentPair      = "pair"
	TournamentLightning = "lightning"
)

// tournamentKeywords map signup free-text fragments to tournament names.
// Masters is deliberately absent: wanting masters on the signup form does
// not enroll anyone, enrollment there is override-only.
var tournamentKeywords = []struct {
	keyword    string
	tournament string
}{
	{"open", TournamentOpen},
	{"senior", TournamentSeniors},
	{"women", TournamentWomens},
	{"youth", TournamentYouth},
	{"pair go", TournamentPair},
	{"pair", TournamentPair},
	{"lightning", TournamentLightning},
}

// Tournaments parses a signup free-text field into tournament names.
func Tournaments(signup string) []string {
	lowered := strings.ToLower(signup)
	seen := map[string]bool{}
	var out []string
	for _, rule := range tournamentKeywords {
		if seen[rule.tournament] {
			continue
		}
		if strings.Contains(lowered, rule.keyword) {
			seen[rule.tournament] = true
			out = append(out, rule.tournament)
		}
	}
	return out
}

// AllTournaments lists every tournament an override flag may enroll into.
func AllTournaments() []string {
	return []string{
		TournamentOpen,
		TournamentMasters,
		TournamentSeniors,
		TournamentWomens,
		TournamentYouth,
		TournamentPair,
		TournamentLightning,
	}
}
