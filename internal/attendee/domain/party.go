package domain

import "sort"

// PartyOf returns every attendee sharing a's resolved primary, primary
// first, then the rest ordered by badgefile ID. Cancelled members are
// filtered out unless includeCancelled is set. An attendee with no resolved
// primary is a party of itself.
func PartyOf(a *Attendee, all []*Attendee, includeCancelled bool) []*Attendee {
	primaryID := a.PrimaryRegistrantID
	if primaryID == 0 {
		if !includeCancelled && a.IsCancelled() {
			return nil
		}
		return []*Attendee{a}
	}

	var primary *Attendee
	var rest []*Attendee
	for _, member := range all {
		if member.PrimaryRegistrantID != primaryID {
			continue
		}
		if !includeCancelled && member.IsCancelled() {
			continue
		}
		if member.BadgefileID == primaryID {
			primary = member
			continue
		}
		rest = append(rest, member)
	}

	sort.Slice(rest, func(i, j int) bool {
		return rest[i].BadgefileID < rest[j].BadgefileID
	})

	if primary == nil {
		return rest
	}
	return append([]*Attendee{primary}, rest...)
}
