package checks

import (
	"testing"
	"time"

	attendeedomain "github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
	"github.com/jonasacres/badgefile-sub000/internal/classify"
	"github.com/jonasacres/badgefile-sub000/internal/issue/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

var congressDate = time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC)

func attendee(id int64, info map[string]any) *attendeedomain.Attendee {
	a := &attendeedomain.Attendee{
		BadgefileID: id,
		Info:        datatypes.JSONMap(info),
		Overrides:   datatypes.JSONMap{},
	}
	a.SyncColumns()
	return a
}

func ctxFor(a *attendeedomain.Attendee) *domain.CheckContext {
	return &domain.CheckContext{
		Attendee:           a,
		Party:              []*attendeedomain.Attendee{a},
		CongressDate:       congressDate,
		HousingNightlyRate: 68,
	}
}

func TestMissingContact(t *testing.T) {
	assert.NotNil(t, missingContact{}.Evaluate(ctxFor(attendee(1, map[string]any{}))))
	assert.Nil(t, missingContact{}.Evaluate(ctxFor(attendee(1, map[string]any{
		attendeedomain.FieldEmail: "a@example.com",
	}))))
	assert.Nil(t, missingContact{}.Evaluate(ctxFor(attendee(1, map[string]any{
		attendeedomain.FieldPhone: "555-0100",
	}))))
}

func TestUnresolvedPrimary(t *testing.T) {
	unset := attendee(1, map[string]any{})
	assert.NotNil(t, unresolvedPrimary{}.Evaluate(ctxFor(unset)))

	resolved := attendee(1, map[string]any{})
	resolved.PrimaryRegistrantID = 1
	assert.Nil(t, unresolvedPrimary{}.Evaluate(ctxFor(resolved)))
}

func TestCongressBalanceDue(t *testing.T) {
	cctx := ctxFor(attendee(1, map[string]any{}))
	assert.Nil(t, congressBalanceDue{}.Evaluate(cctx))

	cctx.CongressDue = 150
	finding := congressBalanceDue{}.Evaluate(cctx)
	assert.NotNil(t, finding)
	assert.Equal(t, 150.0, finding.Details["amount_due"])
}

func TestYouthMissingDOB(t *testing.T) {
	assert.NotNil(t, youthMissingDOB{}.Evaluate(ctxFor(attendee(1, map[string]any{
		attendeedomain.FieldRegType: "Youth Weekend",
	}))))
	// A date of birth satisfies the check regardless of reg type.
	assert.Nil(t, youthMissingDOB{}.Evaluate(ctxFor(attendee(1, map[string]any{
		attendeedomain.FieldRegType:     "Youth Weekend",
		attendeedomain.FieldDateOfBirth: "01/02/2012",
	}))))
	// Adult reg types never need one.
	assert.Nil(t, youthMissingDOB{}.Evaluate(ctxFor(attendee(1, map[string]any{
		attendeedomain.FieldRegType: "Full Week Adult",
	}))))
}

func TestMinorWithoutAdult(t *testing.T) {
	minor := attendee(1, map[string]any{
		attendeedomain.FieldDateOfBirth: "01/02/2015",
	})
	adult := attendee(2, map[string]any{
		attendeedomain.FieldDateOfBirth: "01/02/1980",
	})

	alone := ctxFor(minor)
	assert.NotNil(t, minorWithoutAdult{}.Evaluate(alone))

	together := ctxFor(minor)
	together.Party = []*attendeedomain.Attendee{minor, adult}
	assert.Nil(t, minorWithoutAdult{}.Evaluate(together))

	// Unknown age is not treated as a minor.
	unknown := ctxFor(attendee(3, map[string]any{}))
	assert.Nil(t, minorWithoutAdult{}.Evaluate(unknown))
}

func TestTournamentMissingRating(t *testing.T) {
	entrant := attendee(1, map[string]any{
		attendeedomain.FieldSignupTournaments: "Open",
	})
	assert.NotNil(t, tournamentMissingRating{}.Evaluate(ctxFor(entrant)))

	rated := attendee(1, map[string]any{
		attendeedomain.FieldSignupTournaments: "Open",
		attendeedomain.FieldRating:            5.3,
	})
	assert.Nil(t, tournamentMissingRating{}.Evaluate(ctxFor(rated)))

	nonEntrant := attendee(1, map[string]any{})
	assert.Nil(t, tournamentMissingRating{}.Evaluate(ctxFor(nonEntrant)))
}

func TestHousingQuantitySuspect(t *testing.T) {
	cctx := ctxFor(attendee(1, map[string]any{}))
	cctx.Activities = []*attendeedomain.Activity{
		{ActivityRegistrantID: 1, Category: classify.CategoryHousing, Fee: 340}, // 5 nights
	}
	assert.Nil(t, housingQuantitySuspect{}.Evaluate(cctx))

	cctx.Activities = []*attendeedomain.Activity{
		{ActivityRegistrantID: 2, Category: classify.CategoryHousing, Fee: 350},
	}
	finding := housingQuantitySuspect{}.Evaluate(cctx)
	assert.NotNil(t, finding)
	assert.Equal(t, int64(2), finding.Details["activity_registrant_id"])

	// Non-housing fees are ignored.
	cctx.Activities = []*attendeedomain.Activity{
		{ActivityRegistrantID: 3, Category: classify.CategoryBanquet, Fee: 350},
	}
	assert.Nil(t, housingQuantitySuspect{}.Evaluate(cctx))
}

func TestHousingQuantityTracksConfiguredRate(t *testing.T) {
	cctx := ctxFor(attendee(1, map[string]any{}))
	cctx.Activities = []*attendeedomain.Activity{
		{ActivityRegistrantID: 1, Category: classify.CategoryHousing, Fee: 350},
	}

	// 350 is suspect at the default price but clean after a price change.
	assert.NotNil(t, housingQuantitySuspect{}.Evaluate(cctx))
	cctx.HousingNightlyRate = 70
	assert.Nil(t, housingQuantitySuspect{}.Evaluate(cctx))

	// An unset price disables the derivation entirely.
	cctx.HousingNightlyRate = 0
	assert.Nil(t, housingQuantitySuspect{}.Evaluate(cctx))
}

func TestRegistryIsStable(t *testing.T) {
	names := map[string]bool{}
	for _, check := range Registry() {
		assert.False(t, names[check.Name()], "duplicate check name %s", check.Name())
		names[check.Name()] = true
	}
	assert.Len(t, names, 7)
}
