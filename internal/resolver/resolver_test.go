package resolver

import (
	"encoding/json"
	"testing"

	"github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func newTestResolver(cfg Config) *Resolver {
	return New(Params{
		Log:    zap.NewNop(),
		Holder: NewStaticHolder(cfg),
	})
}

func attendeeWith(id int64, info map[string]any) *domain.Attendee {
	return &domain.Attendee{BadgefileID: id, Info: datatypes.JSONMap(info)}
}

func TestAcceptGate(t *testing.T) {
	cfg := Config{MinScore: 100, MinMargin: 100}

	// Margin 110 clears the gate.
	assert.True(t, Accept(cfg, 150, 40))

	// Margin 30 fails even though 150 clears the minimum score alone.
	assert.False(t, Accept(cfg, 150, 120))

	// Best score below the minimum fails regardless of margin.
	assert.False(t, Accept(cfg, 90, 0))
}

func TestFindAttendeeConcreteExample(t *testing.T) {
	r := newTestResolver(DefaultConfig())

	row := domain.Row{
		"name_given":    "Jane",
		"name_family":   "Doe",
		"date_of_birth": "01/02/1990",
		"aga_id":        nil,
	}
	jane := attendeeWith(1, map[string]any{
		"name_given":    "Jane",
		"name_family":   "Doe",
		"date_of_birth": "01/02/1990",
	})
	jan := attendeeWith(2, map[string]any{
		"name_given":  "Jan",
		"name_family": "Doe",
	})

	require.GreaterOrEqual(t, r.Score(row, jane), 10_000)
	require.Equal(t, 0, r.Score(row, jan))

	match := r.FindAttendee(row, []*domain.Attendee{jane, jan})
	require.NotNil(t, match)
	assert.Equal(t, int64(1), match.BadgefileID)
}

func TestFindAttendeeAmbiguousTie(t *testing.T) {
	cfg := Config{
		MinScore:  100,
		MinMargin: 100,
		Rules: []Rule{
			{Fields: []string{"email"}, Weight: 150},
			{Fields: []string{"phone"}, Weight: 120},
		},
	}
	r := newTestResolver(cfg)

	row := domain.Row{"email": "x@example.com", "phone": "555-0100"}
	byEmail := attendeeWith(1, map[string]any{"email": "x@example.com"})
	byPhone := attendeeWith(2, map[string]any{"phone": "555-0100"})

	// 150 vs 120: margin 30 is under the minimum, so no match even though
	// the best score clears the floor.
	assert.Nil(t, r.FindAttendee(row, []*domain.Attendee{byEmail, byPhone}))
}

func TestRuleRequiresAllFields(t *testing.T) {
	r := newTestResolver(DefaultConfig())

	row := domain.Row{
		"name_given":  "Jane",
		"name_family": "Doe",
		// No date of birth on the row.
	}
	jane := attendeeWith(1, map[string]any{
		"name_given":    "Jane",
		"name_family":   "Doe",
		"date_of_birth": "01/02/1990",
	})
	assert.Equal(t, 0, r.Score(row, jane))
}

func TestScoreCaseInsensitive(t *testing.T) {
	r := newTestResolver(DefaultConfig())

	row := domain.Row{
		"name_given":    "JANE",
		"name_family":   "doe",
		"date_of_birth": "01/02/1990",
	}
	jane := attendeeWith(1, map[string]any{
		"name_given":    "Jane",
		"name_family":   "Doe",
		"date_of_birth": "01/02/1990",
	})
	assert.GreaterOrEqual(t, r.Score(row, jane), 10_000)
}

func TestScoreMatchesNumericRegistryNumber(t *testing.T) {
	r := newTestResolver(DefaultConfig())

	row := domain.Row{"aga_id": int64(12345)}
	candidate := attendeeWith(1, map[string]any{"aga_id": 12345.0})
	assert.GreaterOrEqual(t, r.Score(row, candidate), 1_000_000)

	// Candidates loaded from the store carry json.Number fields.
	reloaded := attendeeWith(2, map[string]any{"aga_id": json.Number("12345")})
	assert.GreaterOrEqual(t, r.Score(row, reloaded), 1_000_000)
}
