// Package resolver decides whether an incoming registration row extends an
// existing attendee or describes a new person. The scoring table is an
// explicit, tunable domain heuristic, not a general matcher.
package resolver

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
	"github.com/jonasacres/badgefile-sub000/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Holder *ConfigHolder
}

type Resolver struct {
	log    *zap.Logger
	holder *ConfigHolder
}

func New(p Params) *Resolver {
	return &Resolver{
		log:    p.Log.Named("resolver"),
		holder: p.Holder,
	}
}

// FindAttendee scores every candidate against the row and returns the best
// one, or nil when no candidate clears both the minimum score and the
// minimum margin over the runner-up. A nil result means "create a new
// attendee".
func (r *Resolver) FindAttendee(row domain.Row, candidates []*domain.Attendee) *domain.Attendee {
	cfg := r.holder.Get()

	var best *domain.Attendee
	bestScore, secondScore := 0, 0
	for _, candidate := range candidates {
		score := r.Score(row, candidate)
		switch {
		case score > bestScore:
			secondScore = bestScore
			bestScore = score
			best = candidate
		case score > secondScore:
			secondScore = score
		}
	}

	if best == nil || !Accept(cfg, bestScore, secondScore) {
		return nil
	}
	return best
}

// Score sums the weight of every rule whose full field tuple is present and
// matches on both sides.
func (r *Resolver) Score(row domain.Row, candidate *domain.Attendee) int {
	cfg := r.holder.Get()
	total := 0
	for _, rule := range cfg.Rules {
		if ruleMatches(rule, row, candidate) {
			total += rule.Weight
		}
	}
	return total
}

// Accept applies the two-part gate: the winner must clear the minimum score
// and beat the runner-up by the minimum margin. Weak matches and ambiguous
// ties both come back as "no match".
func Accept(cfg Config, bestScore, secondScore int) bool {
	return bestScore >= cfg.MinScore && bestScore-secondScore >= cfg.MinMargin
}

func ruleMatches(rule Rule, row domain.Row, candidate *domain.Attendee) bool {
	for _, field := range rule.Fields {
		rowValue := norm(row[field])
		if rowValue == "" {
			return false
		}
		candidateValue := norm(candidate.Field(field))
		if candidateValue == "" || rowValue != candidateValue {
			return false
		}
	}
	return true
}

// norm renders a value for case-insensitive comparison; integral floats
// print without a decimal point so 12345.0 matches "12345".
func norm(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(value))
	case float64:
		if value == math.Trunc(value) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case json.Number:
		// Reloaded JSONMap numerics. Render integral values without a
		// decimal point, same as the float64 arm.
		if f, err := value.Float64(); err == nil {
			if f == math.Trunc(f) {
				return strconv.FormatInt(int64(f), 10)
			}
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return strings.ToLower(strings.TrimSpace(value.String()))
	default:
		return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
	}
}

// NewHolderFromConfig builds the live tunables holder from app config.
func NewHolderFromConfig(appCfg config.Config, log *zap.Logger) (*ConfigHolder, error) {
	return NewConfigHolder(appCfg.ResolverPath, log.Named("resolver"))
}

// Module wires the similarity resolver.
var Module = fx.Module("resolver",
	fx.Provide(NewHolderFromConfig),
	fx.Provide(New),
)
