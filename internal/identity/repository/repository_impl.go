package repository

import (
	"context"
	"errors"

	"github.com/jonasacres/badgefile-sub000/internal/identity/domain"
	pkgdb "github.com/jonasacres/badgefile-sub000/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindAlias(ctx context.Context, db *gorm.DB, badgefileID int64) (*domain.IDAlias, error) {
	var alias domain.IDAlias
	err := db.WithContext(ctx).
		Where("badgefile_id = ?", badgefileID).
		Take(&alias).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alias, nil
}

func (r *repo) UpsertAlias(ctx context.Context, db *gorm.DB, alias *domain.IDAlias) error {
	return pkgdb.WithRetry(func() error {
		return db.WithContext(ctx).Exec(
			`INSERT INTO badgefile_id_maps (badgefile_id, canonical_badgefile_id) VALUES (?, ?)
			 ON CONFLICT (badgefile_id) DO UPDATE SET
			   canonical_badgefile_id = excluded.canonical_badgefile_id`,
			alias.BadgefileID,
			alias.CanonicalBadgefileID,
		).Error
	})
}

func (r *repo) FindGuestByHash(ctx context.Context, db *gorm.DB, userHash string) (*domain.GuestIDMap, error) {
	var guest domain.GuestIDMap
	err := db.WithContext(ctx).
		Where("userhash = ?", userHash).
		Take(&guest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

func (r *repo) MaxGuestID(ctx context.Context, db *gorm.DB) (int64, error) {
	var maxID int64
	err := db.WithContext(ctx).
		Raw(`SELECT COALESCE(MAX(guest_id), 0) FROM guest_id_maps`).
		Scan(&maxID).Error
	if err != nil {
		return 0, err
	}
	return maxID, nil
}

func (r *repo) InsertGuest(ctx context.Context, db *gorm.DB, guest *domain.GuestIDMap) error {
	return pkgdb.WithRetry(func() error {
		return db.WithContext(ctx).Exec(
			`INSERT INTO guest_id_maps (guest_id, userhash) VALUES (?, ?)`,
			guest.GuestID,
			guest.UserHash,
		).Error
	})
}
