// Package consistency derives primary-registrant relationships across the
// whole attendee set after every import. It never guesses: an ambiguous
// primary is logged and left unset for an operator.
package consistency

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Badgefile domain.Service
}

type Engine struct {
	log       *zap.Logger
	badgefile domain.Service
}

func New(p Params) *Engine {
	return &Engine{
		log:       p.Log.Named("consistency"),
		badgefile: p.Badgefile,
	}
}

// passLimit bounds the fixpoint loop; in practice the set stabilizes in two
// passes (primaries first, then their party members).
const passLimit = 5

// Resolve reassigns every attendee's primary registrant, repeating until no
// assignment changes. Idempotent: a re-run over a stable set writes nothing.
func (e *Engine) Resolve(ctx context.Context) error {
	for pass := 0; pass < passLimit; pass++ {
		attendees, err := e.badgefile.ListAll(ctx)
		if err != nil {
			return err
		}

		changed := false
		for _, attendee := range attendees {
			if attendee.IsCancelled() {
				continue
			}
			primaryID := e.resolvePrimary(attendee, attendees)
			if primaryID == 0 || primaryID == attendee.PrimaryRegistrantID {
				continue
			}
			attendee.PrimaryRegistrantID = primaryID
			if err := e.badgefile.Save(ctx, attendee); err != nil {
				return err
			}
			changed = true
		}
		if !changed {
			return nil
		}
	}
	e.log.Warn("primary resolution did not reach fixpoint", zap.Int("passes", passLimit))
	return nil
}

// resolvePrimary tries the ordered strategies: manual override, the row's
// own primary flag, transaction-reference match, then exact name match.
// Zero means unresolved.
func (e *Engine) resolvePrimary(attendee *domain.Attendee, all []*domain.Attendee) int64 {
	if attendee.Overrides != nil {
		if id, ok := overridePrimary(attendee); ok {
			return id
		}
	}

	if attendee.MarkedPrimary() {
		return attendee.BadgefileID
	}

	if attendee.TransRefNo != "" {
		for _, other := range all {
			if other.BadgefileID == attendee.BadgefileID {
				continue
			}
			if other.MarkedPrimary() && other.TransRefNo == attendee.TransRefNo {
				return other.BadgefileID
			}
		}
	}

	return e.matchPrimaryByName(attendee, all)
}

func (e *Engine) matchPrimaryByName(attendee *domain.Attendee, all []*domain.Attendee) int64 {
	wanted := strings.TrimSpace(attendee.StringField(domain.FieldPrimaryRegistrant))
	if wanted == "" {
		e.log.Warn("no primary candidate",
			zap.Int64("badgefile_id", attendee.BadgefileID))
		return 0
	}

	var matches []*domain.Attendee
	for _, other := range all {
		if !other.MarkedPrimary() {
			continue
		}
		if strings.EqualFold(other.FullName(), wanted) {
			matches = append(matches, other)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0].BadgefileID
	case 0:
		e.log.Warn("primary name matched nobody",
			zap.Int64("badgefile_id", attendee.BadgefileID),
			zap.String("primary_registrant", wanted))
	default:
		e.log.Warn("primary name is ambiguous",
			zap.Int64("badgefile_id", attendee.BadgefileID),
			zap.String("primary_registrant", wanted),
			zap.Int("candidates", len(matches)))
	}
	return 0
}

func overridePrimary(attendee *domain.Attendee) (int64, bool) {
	v, ok := attendee.Overrides[domain.OverridePrimary]
	if !ok {
		return 0, false
	}
	switch value := v.(type) {
	case int64:
		return value, value > 0
	case int:
		return int64(value), value > 0
	case float64:
		return int64(value), value > 0
	case json.Number:
		// Overrides reloaded from the store decode numerics as json.Number.
		id, err := value.Int64()
		return id, err == nil && id > 0
	default:
		return 0, false
	}
}

// Module wires the consistency engine.
var Module = fx.Module("consistency",
	fx.Provide(New),
)
