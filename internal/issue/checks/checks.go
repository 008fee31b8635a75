// Package checks holds the static registry of issue predicates. Adding a
// check means adding a type here and listing it in Registry; nothing is
// discovered at runtime.
package checks

import (
	"fmt"
	"math"
	"strings"

	attendeedomain "github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
	"github.com/jonasacres/badgefile-sub000/internal/classify"
	"github.com/jonasacres/badgefile-sub000/internal/issue/domain"
)

// Registry returns every shipped check. Order carries no meaning; checks
// are independent of each other.
func Registry() []domain.Check {
	return []domain.Check{
		missingContact{},
		unresolvedPrimary{},
		congressBalanceDue{},
		youthMissingDOB{},
		minorWithoutAdult{},
		tournamentMissingRating{},
		housingQuantitySuspect{},
	}
}

const adultAge = 18

type missingContact struct{}

func (missingContact) Name() string { return "missing_contact" }

func (missingContact) Evaluate(cctx *domain.CheckContext) *domain.Finding {
	a := cctx.Attendee
	if a.StringField(attendeedomain.FieldEmail) != "" || a.StringField(attendeedomain.FieldPhone) != "" {
		return nil
	}
	return &domain.Finding{
		Message:  "no email address or phone number on file",
		Category: "contact",
		Code:     "missing_contact",
	}
}

type unresolvedPrimary struct{}

func (unresolvedPrimary) Name() string { return "unresolved_primary" }

func (unresolvedPrimary) Evaluate(cctx *domain.CheckContext) *domain.Finding {
	if cctx.Attendee.PrimaryRegistrantID != 0 {
		return nil
	}
	return &domain.Finding{
		Message:  "no primary registrant could be determined",
		Category: "party",
		Code:     "unresolved_primary",
		Details: map[string]any{
			"primary_registrant": cctx.Attendee.StringField(attendeedomain.FieldPrimaryRegistrant),
		},
	}
}

type congressBalanceDue struct{}

func (congressBalanceDue) Name() string { return "congress_balance_due" }

func (congressBalanceDue) Evaluate(cctx *domain.CheckContext) *domain.Finding {
	if cctx.CongressDue <= 0 {
		return nil
	}
	return &domain.Finding{
		Message:  fmt.Sprintf("congress balance of %.2f outstanding", cctx.CongressDue),
		Category: "financial",
		Code:     "congress_balance_due",
		Details: map[string]any{
			"amount_due": cctx.CongressDue,
		},
	}
}

type youthMissingDOB struct{}

func (youthMissingDOB) Name() string { return "youth_missing_dob" }

func (youthMissingDOB) Evaluate(cctx *domain.CheckContext) *domain.Finding {
	a := cctx.Attendee
	if a.StringField(attendeedomain.FieldDateOfBirth) != "" {
		return nil
	}
	regType := a.StringField(attendeedomain.FieldRegType)
	if !isYouthRegType(regType) {
		return nil
	}
	return &domain.Finding{
		Message:  "youth registration without a date of birth",
		Category: "registration",
		Code:     "youth_missing_dob",
		Details: map[string]any{
			"reg_type": regType,
		},
	}
}

type minorWithoutAdult struct{}

func (minorWithoutAdult) Name() string { return "minor_without_adult_in_party" }

func (minorWithoutAdult) Evaluate(cctx *domain.CheckContext) *domain.Finding {
	age, ok := cctx.Attendee.AgeAtCongress(cctx.CongressDate)
	if !ok || age >= adultAge {
		return nil
	}
	for _, member := range cctx.Party {
		if member.BadgefileID == cctx.Attendee.BadgefileID {
			continue
		}
		if memberAge, ok := member.AgeAtCongress(cctx.CongressDate); ok && memberAge >= adultAge {
			return nil
		}
	}
	return &domain.Finding{
		Message:  "minor attendee with no adult in their party",
		Category: "party",
		Code:     "minor_without_adult",
		Details: map[string]any{
			"age": age,
		},
	}
}

type tournamentMissingRating struct{}

func (tournamentMissingRating) Name() string { return "tournament_missing_rating" }

func (tournamentMissingRating) Evaluate(cctx *domain.CheckContext) *domain.Finding {
	a := cctx.Attendee
	tournaments := a.Tournaments()
	if len(tournaments) == 0 || a.BadgeRating() != "" {
		return nil
	}
	return &domain.Finding{
		Message:  "tournament entrant with no usable rating",
		Category: "tournament",
		Code:     "tournament_missing_rating",
		Details: map[string]any{
			"tournaments": tournaments,
		},
	}
}

// The provider reports housing as a fee total, not a unit count, so counts
// are backed out by dividing by the configured nightly rate. A fee that does
// not divide evenly means the upstream price changed and every derived bed
// count is suspect.
type housingQuantitySuspect struct{}

func (housingQuantitySuspect) Name() string { return "housing_quantity_suspect" }

func (housingQuantitySuspect) Evaluate(cctx *domain.CheckContext) *domain.Finding {
	rate := cctx.HousingNightlyRate
	if rate <= 0 {
		return nil
	}
	for _, activity := range cctx.Activities {
		if activity.Category != classify.CategoryHousing || activity.Fee <= 0 {
			continue
		}
		units := activity.Fee / rate
		if units == math.Trunc(units) {
			continue
		}
		return &domain.Finding{
			Message:  "housing fee does not divide by the unit price",
			Category: "housing",
			Code:     "housing_quantity_suspect",
			Details: map[string]any{
				"activity_registrant_id": activity.ActivityRegistrantID,
				"fee":                    activity.Fee,
				"unit_price":             rate,
			},
		}
	}
	return nil
}

func isYouthRegType(regType string) bool {
	lowered := strings.ToLower(regType)
	for _, marker := range []string{"youth", "minor", "child"} {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
