package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
	"github.com/jonasacres/badgefile-sub000/internal/classify"
	"github.com/jonasacres/badgefile-sub000/internal/clock"
	identitydomain "github.com/jonasacres/badgefile-sub000/internal/identity/domain"
	"github.com/jonasacres/badgefile-sub000/internal/notifier"
	"github.com/jonasacres/badgefile-sub000/internal/resolver"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     domain.Repository
	Identity identitydomain.Manager
	Resolver *resolver.Resolver
	Notifier *notifier.Notifier
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     domain.Repository
	identity identitydomain.Manager
	resolver *resolver.Resolver
	notifier *notifier.Notifier
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("badgefile.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		identity: p.Identity,
		resolver: p.Resolver,
		notifier: p.Notifier,
	}
}

func (s *Service) MergeRow(ctx context.Context, row domain.Row) (*domain.Attendee, bool, error) {
	if len(row) == 0 {
		return nil, false, domain.ErrInvalidRow
	}

	attendee, err := s.findExisting(ctx, row)
	if err != nil {
		return nil, false, err
	}

	created := false
	if attendee == nil {
		badgefileID, err := s.identity.MapRegistrationRow(ctx, row)
		if err != nil {
			return nil, false, fmt.Errorf("assign badgefile id: %w", err)
		}
		attendee, err = s.repo.FindByID(ctx, s.db, badgefileID)
		if err != nil {
			return nil, false, err
		}
		if attendee == nil {
			attendee = &domain.Attendee{
				BadgefileID: badgefileID,
				Info:        datatypes.JSONMap{},
				Overrides:   datatypes.JSONMap{},
				CreatedAt:   s.clock.Now(),
			}
			created = true
		}
	}

	attendee.MergeRow(row)
	attendee.UpdatedAt = s.clock.Now()
	if err := s.repo.Upsert(ctx, s.db, attendee); err != nil {
		return nil, false, fmt.Errorf("save attendee %d: %w", attendee.BadgefileID, err)
	}

	action := "updated"
	if created {
		action = "created"
	}
	s.notifier.Publish("event", map[string]any{
		"action":       action,
		"badgefile_id": attendee.BadgefileID,
	})
	return attendee, created, nil
}

// findExisting resolves a row to an already-known attendee: exactly via the
// registry number when present, otherwise by similarity scoring over the
// current attendee set.
func (s *Service) findExisting(ctx context.Context, row domain.Row) (*domain.Attendee, error) {
	if id, ok := row[domain.FieldAGAID]; ok && id != nil {
		badgefileID, err := s.identity.MapRegistrationRow(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("map registry number: %w", err)
		}
		return s.repo.FindByID(ctx, s.db, badgefileID)
	}

	candidates, err := s.repo.ListAll(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return s.resolver.FindAttendee(row, candidates), nil
}

func (s *Service) GetByID(ctx context.Context, badgefileID int64) (*domain.Attendee, error) {
	attendee, err := s.repo.FindByID(ctx, s.db, badgefileID)
	if err != nil {
		return nil, err
	}
	if attendee == nil {
		return nil, domain.ErrNotFound
	}
	return attendee, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*domain.Attendee, error) {
	return s.repo.ListAll(ctx, s.db)
}

func (s *Service) Party(ctx context.Context, attendee *domain.Attendee, includeCancelled bool) ([]*domain.Attendee, error) {
	all, err := s.repo.ListAll(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return domain.PartyOf(attendee, all, includeCancelled), nil
}

func (s *Service) Save(ctx context.Context, attendee *domain.Attendee) error {
	attendee.SyncColumns()
	attendee.UpdatedAt = s.clock.Now()
	if err := s.repo.Upsert(ctx, s.db, attendee); err != nil {
		return fmt.Errorf("save attendee %d: %w", attendee.BadgefileID, err)
	}
	s.notifier.Publish("event", map[string]any{
		"action":       "updated",
		"badgefile_id": attendee.BadgefileID,
	})
	return nil
}

func (s *Service) MergeActivityRow(ctx context.Context, row domain.Row) (*domain.Activity, error) {
	registrantID, ok := intField(row, "activity_registrant_id")
	if !ok {
		return nil, domain.ErrInvalidRow
	}

	badgefileID, err := s.identity.MapRegistrationRow(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("resolve activity owner: %w", err)
	}

	title, _ := row["title"].(string)
	fee, _ := floatField(row, "fee")
	quantity, _ := intField(row, "quantity")
	transRefNo, _ := row[domain.FieldTransRefNo].(string)

	activity := &domain.Activity{
		ActivityRegistrantID: registrantID,
		BadgefileID:          badgefileID,
		Title:                title,
		Category:             classify.Activity(title),
		Fee:                  fee,
		Quantity:             int(quantity),
		TransRefNo:           transRefNo,
		Info:                 datatypes.JSONMap(row),
		CreatedAt:            s.clock.Now(),
		UpdatedAt:            s.clock.Now(),
	}
	if err := s.repo.UpsertActivity(ctx, s.db, activity); err != nil {
		return nil, fmt.Errorf("save activity %d: %w", registrantID, err)
	}
	return activity, nil
}

func (s *Service) Activities(ctx context.Context, badgefileID int64) ([]*domain.Activity, error) {
	return s.repo.ListActivities(ctx, s.db, badgefileID)
}

func (s *Service) ReplaceCharges(ctx context.Context, charges []*domain.Charge) error {
	return s.repo.ReplaceCharges(ctx, s.db, charges)
}

func (s *Service) CongressBalanceDue(ctx context.Context, attendee *domain.Attendee) float64 {
	return s.balanceDue(ctx, attendee, domain.ChargeCategoryCongress)
}

func (s *Service) HousingBalanceDue(ctx context.Context, attendee *domain.Attendee) float64 {
	return s.balanceDue(ctx, attendee, domain.ChargeCategoryHousing)
}

func (s *Service) balanceDue(ctx context.Context, attendee *domain.Attendee, category string) float64 {
	if attendee.TransRefNo == "" {
		return 0
	}
	charges, err := s.repo.ChargesByRef(ctx, s.db, attendee.TransRefNo)
	if err != nil {
		s.log.Warn("charge lookup failed",
			zap.Int64("badgefile_id", attendee.BadgefileID),
			zap.Error(err))
		return 0
	}
	if len(charges) == 0 {
		s.log.Warn("transaction reference not in charges feed",
			zap.Int64("badgefile_id", attendee.BadgefileID),
			zap.String("trans_ref_no", attendee.TransRefNo))
		return 0
	}
	total := 0.0
	for _, charge := range charges {
		if charge.Category == category {
			total += charge.AmountDue
		}
	}
	return total
}

func (s *Service) RecordEmail(ctx context.Context, record *domain.EmailRecord) error {
	if record.SentAt.IsZero() {
		record.SentAt = s.clock.Now()
	}
	return s.repo.AppendEmail(ctx, s.db, record)
}

func (s *Service) EmailHistory(ctx context.Context, badgefileID int64) ([]*domain.EmailRecord, error) {
	return s.repo.EmailHistory(ctx, s.db, badgefileID)
}

func intField(row domain.Row, key string) (int64, bool) {
	switch value := row[key].(type) {
	case int64:
		return value, true
	case int:
		return int64(value), true
	case float64:
		return int64(value), true
	case json.Number:
		id, err := value.Int64()
		return id, err == nil
	default:
		return 0, false
	}
}

func floatField(row domain.Row, key string) (float64, bool) {
	switch value := row[key].(type) {
	case float64:
		return value, true
	case int64:
		return float64(value), true
	case int:
		return float64(value), true
	case json.Number:
		f, err := value.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
