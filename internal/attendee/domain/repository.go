package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, attendee *Attendee) error
	FindByID(ctx context.Context, db *gorm.DB, badgefileID int64) (*Attendee, error)
	ListAll(ctx context.Context, db *gorm.DB) ([]*Attendee, error)

	UpsertActivity(ctx context.Context, db *gorm.DB, activity *Activity) error
	ListActivities(ctx context.Context, db *gorm.DB, badgefileID int64) ([]*Activity, error)

	ReplaceCharges(ctx context.Context, db *gorm.DB, charges []*Charge) error
	ChargesByRef(ctx context.Context, db *gorm.DB, transRefNo string) ([]*Charge, error)

	AppendEmail(ctx context.Context, db *gorm.DB, record *EmailRecord) error
	EmailHistory(ctx context.Context, db *gorm.DB, badgefileID int64) ([]*EmailRecord, error)
}
