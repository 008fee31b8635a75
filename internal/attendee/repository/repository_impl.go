package repository

import (
	"context"
	"errors"

	"github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
	pkgdb "github.com/jonasacres/badgefile-sub000/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, attendee *domain.Attendee) error {
	if attendee.Info == nil {
		attendee.Info = datatypes.JSONMap{}
	}
	if attendee.Overrides == nil {
		attendee.Overrides = datatypes.JSONMap{}
	}
	return pkgdb.WithRetry(func() error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			err := tx.Exec(
				`INSERT INTO attendees (badgefile_id, name_given, name_family, name_mi, date_of_birth,
				   email, phone, address, city, state, postal_code, country, aga_id, reg_type,
				   reg_status, trans_ref_no, rating, primary_registrant_id, manual, info, overrides,
				   created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT (badgefile_id) DO UPDATE SET
				   name_given = excluded.name_given,
				   name_family = excluded.name_family,
				   name_mi = excluded.name_mi,
				   date_of_birth = excluded.date_of_birth,
				   email = excluded.email,
				   phone = excluded.phone,
				   address = excluded.address,
				   city = excluded.city,
				   state = excluded.state,
				   postal_code = excluded.postal_code,
				   country = excluded.country,
				   aga_id = excluded.aga_id,
				   reg_type = excluded.reg_type,
				   reg_status = excluded.reg_status,
				   trans_ref_no = excluded.trans_ref_no,
				   rating = excluded.rating,
				   primary_registrant_id = excluded.primary_registrant_id,
				   manual = excluded.manual,
				   info = excluded.info,
				   overrides = excluded.overrides,
				   updated_at = excluded.updated_at`,
				attendee.BadgefileID,
				attendee.NameGiven,
				attendee.NameFamily,
				attendee.NameMI,
				attendee.DateOfBirth,
				attendee.Email,
				attendee.Phone,
				attendee.Address,
				attendee.City,
				attendee.State,
				attendee.PostalCode,
				attendee.Country,
				attendee.AGAID,
				attendee.RegType,
				attendee.RegStatus,
				attendee.TransRefNo,
				attendee.Rating,
				attendee.PrimaryRegistrantID,
				attendee.Manual,
				attendee.Info,
				attendee.Overrides,
				attendee.CreatedAt,
				attendee.UpdatedAt,
			).Error
			if err != nil {
				return err
			}
			return r.replaceExtras(ctx, tx, attendee)
		})
	})
}

// replaceExtras rewrites the key-value side rows for info keys outside the
// typed schema.
func (r *repo) replaceExtras(ctx context.Context, tx *gorm.DB, attendee *domain.Attendee) error {
	if err := tx.WithContext(ctx).Exec(
		`DELETE FROM extra_attributes WHERE badgefile_id = ?`, attendee.BadgefileID,
	).Error; err != nil {
		return err
	}
	for key := range attendee.Info {
		if domain.TypedKeys[key] {
			continue
		}
		err := tx.WithContext(ctx).Exec(
			`INSERT INTO extra_attributes (badgefile_id, attr_key, attr_value) VALUES (?, ?, ?)`,
			attendee.BadgefileID,
			key,
			attendee.StringField(key),
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, badgefileID int64) (*domain.Attendee, error) {
	var attendee domain.Attendee
	err := db.WithContext(ctx).
		Where("badgefile_id = ?", badgefileID).
		Take(&attendee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attendee, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB) ([]*domain.Attendee, error) {
	var attendees []*domain.Attendee
	err := db.WithContext(ctx).
		Order("badgefile_id asc").
		Find(&attendees).Error
	if err != nil {
		return nil, err
	}
	return attendees, nil
}

func (r *repo) UpsertActivity(ctx context.Context, db *gorm.DB, activity *domain.Activity) error {
	return pkgdb.WithRetry(func() error {
		return db.WithContext(ctx).Exec(
			`INSERT INTO activities (activity_registrant_id, badgefile_id, title, category, fee,
			   quantity, trans_ref_no, info, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (activity_registrant_id) DO UPDATE SET
			   badgefile_id = excluded.badgefile_id,
			   title = excluded.title,
			   category = excluded.category,
			   fee = excluded.fee,
			   quantity = excluded.quantity,
			   trans_ref_no = excluded.trans_ref_no,
			   info = excluded.info,
			   updated_at = excluded.updated_at`,
			activity.ActivityRegistrantID,
			activity.BadgefileID,
			activity.Title,
			activity.Category,
			activity.Fee,
			activity.Quantity,
			activity.TransRefNo,
			activity.Info,
			activity.CreatedAt,
			activity.UpdatedAt,
		).Error
	})
}

func (r *repo) ListActivities(ctx context.Context, db *gorm.DB, badgefileID int64) ([]*domain.Activity, error) {
	var activities []*domain.Activity
	err := db.WithContext(ctx).
		Where("badgefile_id = ?", badgefileID).
		Order("activity_registrant_id asc").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *repo) ReplaceCharges(ctx context.Context, db *gorm.DB, charges []*domain.Charge) error {
	return pkgdb.WithRetry(func() error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(`DELETE FROM charges`).Error; err != nil {
				return err
			}
			for _, charge := range charges {
				err := tx.Exec(
					`INSERT INTO charges (trans_ref_no, category, amount_due, info) VALUES (?, ?, ?, ?)
					 ON CONFLICT (trans_ref_no, category) DO UPDATE SET
					   amount_due = excluded.amount_due,
					   info = excluded.info`,
					charge.TransRefNo,
					charge.Category,
					charge.AmountDue,
					charge.Info,
				).Error
				if err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func (r *repo) ChargesByRef(ctx context.Context, db *gorm.DB, transRefNo string) ([]*domain.Charge, error) {
	var charges []*domain.Charge
	err := db.WithContext(ctx).
		Where("trans_ref_no = ?", transRefNo).
		Find(&charges).Error
	if err != nil {
		return nil, err
	}
	return charges, nil
}

func (r *repo) AppendEmail(ctx context.Context, db *gorm.DB, record *domain.EmailRecord) error {
	// NULL email_id lets sqlite assign the next rowid.
	var emailID any
	if record.EmailID != 0 {
		emailID = record.EmailID
	}
	return pkgdb.WithRetry(func() error {
		return db.WithContext(ctx).Exec(
			`INSERT INTO email_history (email_id, badgefile_id, template, sent_at, info)
			 VALUES (?, ?, ?, ?, ?)`,
			emailID,
			record.BadgefileID,
			record.Template,
			record.SentAt,
			record.Info,
		).Error
	})
}

func (r *repo) EmailHistory(ctx context.Context, db *gorm.DB, badgefileID int64) ([]*domain.EmailRecord, error) {
	var records []*domain.EmailRecord
	err := db.WithContext(ctx).
		Where("badgefile_id = ?", badgefileID).
		Order("sent_at asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
