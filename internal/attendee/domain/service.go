package domain

import (
	"context"
	"errors"
)

// Service is the badgefile: the canonical collection of attendees and the
// only surface downstream artifact generators read through.
type Service interface {
	// MergeRow find-or-creates the attendee a feed row refers to, merges
	// the row into it and persists the result. The second return reports
	// whether a new attendee was created.
	MergeRow(ctx context.Context, row Row) (*Attendee, bool, error)

	GetByID(ctx context.Context, badgefileID int64) (*Attendee, error)
	ListAll(ctx context.Context) ([]*Attendee, error)

	// Party returns the attendee's registration group, primary first.
	Party(ctx context.Context, attendee *Attendee, includeCancelled bool) ([]*Attendee, error)

	// Save persists an attendee mutated outside MergeRow (overrides,
	// consistency repairs).
	Save(ctx context.Context, attendee *Attendee) error

	MergeActivityRow(ctx context.Context, row Row) (*Activity, error)
	Activities(ctx context.Context, badgefileID int64) ([]*Activity, error)

	ReplaceCharges(ctx context.Context, charges []*Charge) error
	// CongressBalanceDue and HousingBalanceDue join the attendee's
	// transaction reference against the charges feed. A missing reference
	// logs a warning and reports zero; it never fails the pipeline.
	CongressBalanceDue(ctx context.Context, attendee *Attendee) float64
	HousingBalanceDue(ctx context.Context, attendee *Attendee) float64

	RecordEmail(ctx context.Context, record *EmailRecord) error
	EmailHistory(ctx context.Context, badgefileID int64) ([]*EmailRecord, error)
}

var (
	ErrNotFound   = errors.New("not_found")
	ErrInvalidRow = errors.New("invalid_row")
)
