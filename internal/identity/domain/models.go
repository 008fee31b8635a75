package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// IDAlias records that badgefile_id is not canonical and resolves to
// another ID. Directed, many-to-one.
type IDAlias struct {
	BadgefileID          int64 `gorm:"primaryKey;column:badgefile_id"`
	CanonicalBadgefileID int64 `gorm:"column:canonical_badgefile_id"`
}

func (IDAlias) TableName() string { return "badgefile_id_maps" }

// GuestIDMap maps a content hash of identifying fields to a synthetic guest
// ID so repeated imports re-identify guests without a registry number.
type GuestIDMap struct {
	GuestID  int64  `gorm:"primaryKey;column:guest_id"`
	UserHash string `gorm:"column:userhash"`
}

func (GuestIDMap) TableName() string { return "guest_id_maps" }

// Manager assigns and looks up canonical badgefile IDs.
type Manager interface {
	// MapRegistryNumber resolves a membership-registry number (or any
	// badgefile ID) through the alias map to its canonical form.
	MapRegistryNumber(ctx context.Context, id int64) (int64, error)

	// MapRegistrationRow returns the canonical badgefile ID a row refers
	// to, issuing a fresh guest ID above the reserved floor when the row
	// carries no registry number and its identity hash is unknown.
	MapRegistrationRow(ctx context.Context, row map[string]any) (int64, error)

	// SetAlias records that aliasID resolves to canonicalID from now on.
	SetAlias(ctx context.Context, canonicalID, aliasID int64) error
}

type Repository interface {
	FindAlias(ctx context.Context, db *gorm.DB, badgefileID int64) (*IDAlias, error)
	UpsertAlias(ctx context.Context, db *gorm.DB, alias *IDAlias) error
	FindGuestByHash(ctx context.Context, db *gorm.DB, userHash string) (*GuestIDMap, error)
	MaxGuestID(ctx context.Context, db *gorm.DB) (int64, error)
	InsertGuest(ctx context.Context, db *gorm.DB, guest *GuestIDMap) error
}

var (
	ErrInvalidID    = errors.New("invalid_id")
	ErrAliasCycle   = errors.New("alias_cycle")
	ErrMissingNames = errors.New("missing_identity_fields")
)
