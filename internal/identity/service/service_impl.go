package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	attendeedomain "github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
	"github.com/jonasacres/badgefile-sub000/internal/config"
	"github.com/jonasacres/badgefile-sub000/internal/identity/domain"
	pkgdb "github.com/jonasacres/badgefile-sub000/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config config.Config
	Repo   domain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	idFloor int64
}

func New(p Params) domain.Manager {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("identity.service"),
		repo:    p.Repo,
		idFloor: p.Config.GuestIDFloor,
	}
}

// maxAliasHops bounds alias-chain resolution so a bad manual edit can't
// loop forever.
const maxAliasHops = 32

func (s *Service) MapRegistryNumber(ctx context.Context, id int64) (int64, error) {
	if id <= 0 {
		return 0, domain.ErrInvalidID
	}

	current := id
	for hop := 0; hop < maxAliasHops; hop++ {
		alias, err := s.repo.FindAlias(ctx, s.db, current)
		if err != nil {
			return 0, fmt.Errorf("resolve alias for %d: %w", current, err)
		}
		if alias == nil || alias.CanonicalBadgefileID == current {
			return current, nil
		}
		current = alias.CanonicalBadgefileID
	}
	return 0, domain.ErrAliasCycle
}

func (s *Service) MapRegistrationRow(ctx context.Context, row map[string]any) (int64, error) {
	if id, ok := registryNumber(row); ok {
		return s.MapRegistryNumber(ctx, id)
	}

	hash, err := UserHash(row)
	if err != nil {
		return 0, err
	}

	guest, err := s.repo.FindGuestByHash(ctx, s.db, hash)
	if err != nil {
		return 0, fmt.Errorf("look up guest hash: %w", err)
	}
	if guest != nil {
		return s.MapRegistryNumber(ctx, guest.GuestID)
	}

	id, err := s.issueGuestID(ctx, hash)
	if err != nil {
		return 0, err
	}
	s.log.Info("issued guest id",
		zap.Int64("guest_id", id),
		zap.String("userhash", hash[:12]))
	return id, nil
}

// issueGuestID atomically assigns the next guest ID above the reserved
// floor. On a unique-constraint race the winning row is re-read.
func (s *Service) issueGuestID(ctx context.Context, hash string) (int64, error) {
	var issued int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		maxID, err := s.repo.MaxGuestID(ctx, tx)
		if err != nil {
			return err
		}
		if maxID < s.idFloor {
			maxID = s.idFloor
		}
		issued = maxID + 1
		return s.repo.InsertGuest(ctx, tx, &domain.GuestIDMap{
			GuestID:  issued,
			UserHash: hash,
		})
	})
	if pkgdb.IsDuplicateKeyErr(err) {
		guest, findErr := s.repo.FindGuestByHash(ctx, s.db, hash)
		if findErr == nil && guest != nil {
			return guest.GuestID, nil
		}
		return 0, fmt.Errorf("issue guest id: %w", err)
	}
	if err != nil {
		return 0, fmt.Errorf("issue guest id: %w", err)
	}
	return issued, nil
}

func (s *Service) SetAlias(ctx context.Context, canonicalID, aliasID int64) error {
	if canonicalID <= 0 || aliasID <= 0 || canonicalID == aliasID {
		return domain.ErrInvalidID
	}
	err := s.repo.UpsertAlias(ctx, s.db, &domain.IDAlias{
		BadgefileID:          aliasID,
		CanonicalBadgefileID: canonicalID,
	})
	if err != nil {
		return fmt.Errorf("set alias %d -> %d: %w", aliasID, canonicalID, err)
	}
	s.log.Info("alias recorded",
		zap.Int64("alias_id", aliasID),
		zap.Int64("canonical_id", canonicalID))
	return nil
}

// UserHash computes the stable identity hash for a row with no registry
// number: SHA-256 of the lowercased family name, given name, middle initial
// and date of birth. Collisions are treated as the same person.
func UserHash(row map[string]any) (string, error) {
	family := normalized(row[attendeedomain.FieldNameFamily])
	given := normalized(row[attendeedomain.FieldNameGiven])
	if family == "" && given == "" {
		return "", domain.ErrMissingNames
	}
	parts := []string{
		family,
		given,
		normalized(row[attendeedomain.FieldNameMI]),
		normalized(row[attendeedomain.FieldDateOfBirth]),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:]), nil
}

func normalized(v any) string {
	if v == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", v)))
}

func registryNumber(row map[string]any) (int64, bool) {
	switch value := row[attendeedomain.FieldAGAID].(type) {
	case int64:
		return value, value > 0
	case int:
		return int64(value), value > 0
	case float64:
		return int64(value), value > 0
	case json.Number:
		id, err := value.Int64()
		return id, err == nil && id > 0
	default:
		return 0, false
	}
}
