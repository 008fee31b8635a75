package importer

import (
	"context"
	"strconv"
	"strings"

	"github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
)

// FeedKind selects how typed rows are folded into the badgefile.
type FeedKind string

const (
	FeedRegistration FeedKind = "registration"
	FeedActivities   FeedKind = "activities"
	FeedHousing      FeedKind = "housing"
	FeedRatings      FeedKind = "ratings"
	FeedCharges      FeedKind = "charges"
)

// FeedDef declares one feed: its heading-to-field mapping and which fields
// stay strings no matter how numeric they look (leading zeros matter).
type FeedDef struct {
	Name      string
	Kind      FeedKind
	Headings  map[string]string
	Protected []string
}

// FeedSource is the boundary to the out-of-scope scraping/CSV adapters: it
// produces raw string records for one feed. A malformed feed must fail
// loudly here rather than deliver partial data.
type FeedSource interface {
	Def() FeedDef
	Fetch(ctx context.Context) ([]map[string]string, error)
}

// RegistrationFeed is the standard heading mapping for the main
// registration list report.
func RegistrationFeed() FeedDef {
	return FeedDef{
		Name: "registration",
		Kind: FeedRegistration,
		Headings: map[string]string{
			"First Name":         domain.FieldNameGiven,
			"Last Name":          domain.FieldNameFamily,
			"Middle Initial":     domain.FieldNameMI,
			"Date of Birth":      domain.FieldDateOfBirth,
			"Email":              domain.FieldEmail,
			"Phone":              domain.FieldPhone,
			"Address":            domain.FieldAddress,
			"City":               domain.FieldCity,
			"State":              domain.FieldState,
			"Zip":                domain.FieldPostalCode,
			"Country":            domain.FieldCountry,
			"AGA ID":             domain.FieldAGAID,
			"Registration Type":  domain.FieldRegType,
			"Status":             domain.FieldRegStatus,
			"TransRefNo":         domain.FieldTransRefNo,
			"Primary Registrant": domain.FieldPrimaryRegistrant,
			"Is Primary":         domain.FieldIsPrimary,
			"Tournaments":        domain.FieldSignupTournaments,
			"Languages":          domain.FieldLanguages,
			"Comments":           domain.FieldComment,
		},
		Protected: []string{domain.FieldPhone, domain.FieldPostalCode, domain.FieldTransRefNo},
	}
}

// ActivityFeed maps the activity line-item report, including its housing
// variants (same shape, different report).
func ActivityFeed(name string, kind FeedKind) FeedDef {
	return FeedDef{
		Name: name,
		Kind: kind,
		Headings: map[string]string{
			"Registrant ID":  "activity_registrant_id",
			"First Name":     domain.FieldNameGiven,
			"Last Name":      domain.FieldNameFamily,
			"Middle Initial": domain.FieldNameMI,
			"Date of Birth":  domain.FieldDateOfBirth,
			"AGA ID":         domain.FieldAGAID,
			"Activity Title": "title",
			"Fee":            "fee",
			"Quantity":       "quantity",
			"TransRefNo":     domain.FieldTransRefNo,
		},
		Protected: []string{domain.FieldTransRefNo},
	}
}

// RatingsFeed maps the TD list export from the ratings registry.
func RatingsFeed() FeedDef {
	return FeedDef{
		Name: "ratings",
		Kind: FeedRatings,
		Headings: map[string]string{
			"AGA ID":     domain.FieldAGAID,
			"First Name": domain.FieldNameGiven,
			"Last Name":  domain.FieldNameFamily,
			"Rating":     domain.FieldRating,
			"Expiration": "membership_expiration",
		},
	}
}

// ChargesFeed maps the fees/charges export joined by transaction reference.
func ChargesFeed() FeedDef {
	return FeedDef{
		Name: "charges",
		Kind: FeedCharges,
		Headings: map[string]string{
			"TransRefNo": domain.FieldTransRefNo,
			"Category":   "category",
			"Amount Due": "amount_due",
		},
		Protected: []string{domain.FieldTransRefNo},
	}
}

// TypeRow maps raw headings to canonical field keys and types the values:
// blank becomes nil, numeric-looking strings become numbers, protected
// fields stay strings.
func TypeRow(def FeedDef, raw map[string]string) domain.Row {
	protected := map[string]bool{}
	for _, field := range def.Protected {
		protected[field] = true
	}

	row := domain.Row{}
	for heading, value := range raw {
		field, ok := def.Headings[heading]
		if !ok {
			field = canonicalKey(heading)
		}
		row[field] = typeValue(value, protected[field])
	}
	return row
}

func typeValue(value string, protected bool) any {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	if protected {
		return trimmed
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return trimmed
}

// canonicalKey snake_cases a heading the feed declaration does not map, so
// unexpected upstream columns still land (in the extras side table).
func canonicalKey(heading string) string {
	lowered := strings.ToLower(strings.TrimSpace(heading))
	var b strings.Builder
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
