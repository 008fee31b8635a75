package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jonasacres/badgefile-sub000/internal/classify"
	"gorm.io/datatypes"
)

// Override keys. Overrides live in their own sparse map and shadow raw feed
// data wherever present.
const (
	OverrideRating       = "rating"
	OverrideRankCategory = "rank_category"
	OverridePrimary      = "primary"
	overrideTournament   = "tournament_" // + tournament name, boolean
)

// Field resolves a raw field through the override layer.
func (a *Attendee) Field(key string) any {
	if a.Overrides != nil {
		if v, ok := a.Overrides[key]; ok {
			return v
		}
	}
	if a.Info == nil {
		return nil
	}
	return a.Info[key]
}

func (a *Attendee) StringField(key string) string {
	return asString(a.Field(key))
}

func (a *Attendee) FloatField(key string) (float64, bool) {
	return asFloat(a.Field(key))
}

func (a *Attendee) FullName() string {
	return strings.TrimSpace(a.StringField(FieldNameGiven) + " " + a.StringField(FieldNameFamily))
}

func (a *Attendee) IsCancelled() bool {
	return strings.EqualFold(a.StringField(FieldRegStatus), StatusCancelled)
}

// MarkedPrimary reports whether the registration row itself flags this
// attendee as the primary registrant of its party.
func (a *Attendee) MarkedPrimary() bool {
	return truthy(a.Field(FieldIsPrimary))
}

// IsPrimary reports whether the resolved primary relationship points back at
// this attendee.
func (a *Attendee) IsPrimary() bool {
	return a.PrimaryRegistrantID != 0 && a.PrimaryRegistrantID == a.BadgefileID
}

// AgeAtCongress computes whole years of age at the fixed reference date,
// with the has-the-birthday-happened-yet adjustment. The second return is
// false when no parseable date of birth is known.
func (a *Attendee) AgeAtCongress(ref time.Time) (int, bool) {
	dob, ok := parseDOB(a.StringField(FieldDateOfBirth))
	if !ok {
		return 0, false
	}
	age := ref.Year() - dob.Year()
	if ref.Month() < dob.Month() || (ref.Month() == dob.Month() && ref.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}

// BadgeRating resolves the rating shown on the badge: an explicit numeric
// override first, then a manual category override (pro/dan/kyu), then the
// raw registry rating rendered as Nd or Nk.
func (a *Attendee) BadgeRating() string {
	if a.Overrides != nil {
		if v, ok := a.Overrides[OverrideRating]; ok {
			if f, ok := asFloat(v); ok {
				return formatRating(f)
			}
		}
		if v, ok := a.Overrides[OverrideRankCategory]; ok {
			if s := asString(v); s != "" {
				return s
			}
		}
	}
	if f, ok := asFloat(a.Info[FieldRating]); ok {
		return formatRating(f)
	}
	return ""
}

// EffectiveRank is the numeric rating used for pairing: override first, raw
// registry rating otherwise.
func (a *Attendee) EffectiveRank() (float64, bool) {
	if a.Overrides != nil {
		if v, ok := a.Overrides[OverrideRating]; ok {
			if f, ok := asFloat(v); ok {
				return f, true
			}
		}
	}
	return asFloat(a.Info[FieldRating])
}

func formatRating(rating float64) string {
	switch {
	case rating > 0:
		return fmt.Sprintf("%dd", int(math.Floor(rating)))
	case rating < 0:
		return fmt.Sprintf("%dk", -int(math.Ceil(rating)))
	default:
		return ""
	}
}

// Tournaments lists every tournament this attendee is enrolled in. Override
// flags are authoritative in both directions; absent an override, enrollment
// is inferred from the signup free-text field. Masters is never inferred
// from signup text.
func (a *Attendee) Tournaments() []string {
	inferred := map[string]bool{}
	for _, name := range classify.Tournaments(a.StringField(FieldSignupTournaments)) {
		inferred[name] = true
	}

	var out []string
	for _, name := range classify.AllTournaments() {
		enrolled := inferred[name]
		if a.Overrides != nil {
			if v, ok := a.Overrides[overrideTournament+name]; ok {
				enrolled = truthy(v)
			}
		}
		if enrolled {
			out = append(out, name)
		}
	}
	return out
}

func (a *Attendee) IsInTournament(name string) bool {
	for _, t := range a.Tournaments() {
		if t == name {
			return true
		}
	}
	return false
}

// MergeRow folds one normalized feed row into the raw info map. Later feeds
// win, except that a nil value never clobbers known data.
func (a *Attendee) MergeRow(row Row) {
	if a.Info == nil {
		a.Info = datatypes.JSONMap{}
	}
	for key, value := range row {
		if value == nil {
			if _, exists := a.Info[key]; exists {
				continue
			}
		}
		a.Info[key] = value
	}
	a.SyncColumns()
}

// SyncColumns mirrors the hot info-map fields into the typed columns.
func (a *Attendee) SyncColumns() {
	a.NameGiven = asString(a.Info[FieldNameGiven])
	a.NameFamily = asString(a.Info[FieldNameFamily])
	a.NameMI = asString(a.Info[FieldNameMI])
	a.DateOfBirth = asString(a.Info[FieldDateOfBirth])
	a.Email = asString(a.Info[FieldEmail])
	a.Phone = asString(a.Info[FieldPhone])
	a.Address = asString(a.Info[FieldAddress])
	a.City = asString(a.Info[FieldCity])
	a.State = asString(a.Info[FieldState])
	a.PostalCode = asString(a.Info[FieldPostalCode])
	a.Country = asString(a.Info[FieldCountry])
	a.RegType = asString(a.Info[FieldRegType])
	a.RegStatus = asString(a.Info[FieldRegStatus])
	a.TransRefNo = asString(a.Info[FieldTransRefNo])
	if id, ok := asInt(a.Info[FieldAGAID]); ok {
		a.AGAID = id
	}
	if rating, ok := asFloat(a.Info[FieldRating]); ok {
		a.Rating = rating
	}
}

// TypedKeys are info-map keys mirrored into typed columns; anything else
// lands in the extra_attributes side table.
var TypedKeys = map[string]bool{
	FieldNameGiven:   true,
	FieldNameFamily:  true,
	FieldNameMI:      true,
	FieldDateOfBirth: true,
	FieldEmail:       true,
	FieldPhone:       true,
	FieldAddress:     true,
	FieldCity:        true,
	FieldState:       true,
	FieldPostalCode:  true,
	FieldCountry:     true,
	FieldAGAID:       true,
	FieldRegType:     true,
	FieldRegStatus:   true,
	FieldTransRefNo:  true,
	FieldRating:      true,
}

func parseDOB(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"01/02/2006", "2006-01-02", "1/2/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func asString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
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
		return value.String()
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// asFloat coerces the value shapes a JSONMap field can take. Values written
// in-process are Go numerics; values reloaded from the store arrive as
// json.Number, because JSONMap decodes with UseNumber.
func asFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asInt(v any) (int64, bool) {
	f, ok := asFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func truthy(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case string:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "y":
			return true
		}
		return false
	case float64:
		return value != 0
	case int:
		return value != 0
	case int64:
		return value != 0
	case json.Number:
		f, err := value.Float64()
		return err == nil && f != 0
	default:
		return false
	}
}
