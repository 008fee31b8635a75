package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonasacres/badgefile-sub000/internal/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var congress = time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC)

func TestAgeAtCongress(t *testing.T) {
	tests := []struct {
		name     string
		dob      string
		expected int
		ok       bool
	}{
		{"birthday already passed", "01/02/1990", 36, true},
		{"birthday later this year", "12/25/1990", 35, true},
		{"birthday is congress day", "07/11/2008", 18, true},
		{"iso format", "2010-08-01", 15, true},
		{"unparseable", "sometime in spring", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Attendee{Info: datatypes.JSONMap{FieldDateOfBirth: tt.dob}}
			age, ok := a.AgeAtCongress(congress)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, age)
			}
		})
	}
}

func TestBadgeRatingLayering(t *testing.T) {
	a := &Attendee{
		Info:      datatypes.JSONMap{FieldRating: -3.4},
		Overrides: datatypes.JSONMap{},
	}

	// Raw registry rating: kyu ranks ceil then negate.
	assert.Equal(t, "3k", a.BadgeRating())

	// Dan ranks floor.
	a.Info[FieldRating] = 5.8
	assert.Equal(t, "5d", a.BadgeRating())

	// Category override beats raw.
	a.Overrides[OverrideRankCategory] = "pro"
	assert.Equal(t, "pro", a.BadgeRating())

	// Numeric override beats everything.
	a.Overrides[OverrideRating] = 2.1
	assert.Equal(t, "2d", a.BadgeRating())
}

func TestBadgeRatingAbsent(t *testing.T) {
	a := &Attendee{Info: datatypes.JSONMap{}}
	assert.Equal(t, "", a.BadgeRating())

	a.Info[FieldRating] = 0.0
	assert.Equal(t, "", a.BadgeRating())
}

func TestTournamentEnrollment(t *testing.T) {
	a := &Attendee{
		Info: datatypes.JSONMap{FieldSignupTournaments: "US Open and Pair Go"},
	}
	assert.True(t, a.IsInTournament(classify.TournamentOpen))
	assert.True(t, a.IsInTournament(classify.TournamentPair))
	assert.False(t, a.IsInTournament(classify.TournamentSeniors))

	// Masters is override-only, regardless of signup text.
	a.Info[FieldSignupTournaments] = "masters"
	assert.False(t, a.IsInTournament(classify.TournamentMasters))

	a.Overrides = datatypes.JSONMap{"tournament_masters": true}
	assert.True(t, a.IsInTournament(classify.TournamentMasters))

	// An override flag can also remove an inferred enrollment.
	a.Info[FieldSignupTournaments] = "US Open"
	a.Overrides["tournament_open"] = false
	assert.False(t, a.IsInTournament(classify.TournamentOpen))
}

func TestFieldOverridePrecedence(t *testing.T) {
	a := &Attendee{
		Info:      datatypes.JSONMap{FieldEmail: "raw@example.com"},
		Overrides: datatypes.JSONMap{FieldEmail: "fixed@example.com"},
	}
	assert.Equal(t, "fixed@example.com", a.StringField(FieldEmail))

	delete(a.Overrides, FieldEmail)
	assert.Equal(t, "raw@example.com", a.StringField(FieldEmail))
}

func TestMergeRowNilNeverClobbers(t *testing.T) {
	a := &Attendee{}
	a.MergeRow(Row{FieldNameGiven: "Jane", FieldEmail: "jane@example.com"})
	a.MergeRow(Row{FieldNameGiven: "Jane", FieldEmail: nil, FieldPhone: "555-0100"})

	assert.Equal(t, "jane@example.com", a.StringField(FieldEmail))
	assert.Equal(t, "555-0100", a.StringField(FieldPhone))
}

func TestSyncColumns(t *testing.T) {
	a := &Attendee{}
	a.MergeRow(Row{
		FieldNameGiven:  "Jane",
		FieldNameFamily: "Doe",
		FieldAGAID:      int64(12345),
		FieldRating:     4.2,
		FieldPostalCode: "01234",
	})

	require.Equal(t, "Jane", a.NameGiven)
	require.Equal(t, "Doe", a.NameFamily)
	assert.Equal(t, int64(12345), a.AGAID)
	assert.Equal(t, 4.2, a.Rating)
	assert.Equal(t, "01234", a.PostalCode)
}

func TestFieldCoercionOfReloadedNumbers(t *testing.T) {
	// JSONMap decodes with UseNumber, so every numeric field read back from
	// the store is a json.Number rather than a Go numeric.
	a := &Attendee{
		Info: datatypes.JSONMap{
			FieldRating: json.Number("5.8"),
			FieldAGAID:  json.Number("12345"),
		},
		Overrides: datatypes.JSONMap{"tournament_open": json.Number("1")},
	}

	assert.Equal(t, "5d", a.BadgeRating())
	assert.True(t, a.IsInTournament(classify.TournamentOpen))
	assert.Equal(t, "12345", a.StringField(FieldAGAID))

	a.SyncColumns()
	assert.Equal(t, int64(12345), a.AGAID)
	assert.Equal(t, 5.8, a.Rating)

	a.Overrides[OverrideRating] = json.Number("-3.4")
	assert.Equal(t, "3k", a.BadgeRating())
}

func TestIsCancelled(t *testing.T) {
	a := &Attendee{Info: datatypes.JSONMap{FieldRegStatus: "Cancelled"}}
	assert.True(t, a.IsCancelled())

	a.Info[FieldRegStatus] = "active"
	assert.False(t, a.IsCancelled())
}
