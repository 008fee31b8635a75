package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	attendeedomain "github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
	"github.com/jonasacres/badgefile-sub000/internal/clock"
	"github.com/jonasacres/badgefile-sub000/internal/config"
	"github.com/jonasacres/badgefile-sub000/internal/issue/domain"
	"github.com/jonasacres/badgefile-sub000/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Config    config.Config
	GenID     *snowflake.Node
	Repo      domain.Repository
	Badgefile attendeedomain.Service
	Checks    []domain.Check
	Metrics   *metrics.Metrics
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	genID        *snowflake.Node
	repo         domain.Repository
	badgefile    attendeedomain.Service
	checks       []domain.Check
	metrics      *metrics.Metrics
	congressDate time.Time
	nightlyRate  float64
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("issue.service"),
		clock:        p.Clock,
		genID:        p.GenID,
		repo:         p.Repo,
		badgefile:    p.Badgefile,
		checks:       p.Checks,
		metrics:      p.Metrics,
		congressDate: p.Config.CongressDate,
		nightlyRate:  p.Config.HousingNightlyRate,
	}
}

func (s *Service) ScanAll(ctx context.Context) (domain.ScanStats, error) {
	attendees, err := s.badgefile.ListAll(ctx)
	if err != nil {
		return domain.ScanStats{}, err
	}

	var stats domain.ScanStats
	for _, attendee := range attendees {
		findings := s.evaluate(ctx, attendee, attendees)
		created, updated, resolved, err := s.reconcile(ctx, attendee, findings)
		if err != nil {
			return stats, err
		}
		stats.Scanned++
		stats.Created += created
		stats.Updated += updated
		stats.Resolved += resolved
	}
	s.log.Info("issue scan complete",
		zap.Int("scanned", stats.Scanned),
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("resolved", stats.Resolved))
	return stats, nil
}

// evaluate runs every registered check against one attendee. Cancelled and
// manually managed attendees have zero issues by definition. Each check
// runs inside its own recover boundary so one bad rule cannot block the
// rest of the scan.
func (s *Service) evaluate(ctx context.Context, attendee *attendeedomain.Attendee, all []*attendeedomain.Attendee) map[string]*domain.Finding {
	findings := map[string]*domain.Finding{}
	if attendee.IsCancelled() || attendee.Manual {
		return findings
	}

	cctx := &domain.CheckContext{
		Attendee:           attendee,
		Party:              attendeedomain.PartyOf(attendee, all, false),
		CongressDue:        s.badgefile.CongressBalanceDue(ctx, attendee),
		HousingDue:         s.badgefile.HousingBalanceDue(ctx, attendee),
		CongressDate:       s.congressDate,
		HousingNightlyRate: s.nightlyRate,
	}
	if activities, err := s.badgefile.Activities(ctx, attendee.BadgefileID); err == nil {
		cctx.Activities = activities
	} else {
		s.log.Warn("activity load failed during scan",
			zap.Int64("badgefile_id", attendee.BadgefileID),
			zap.Error(err))
	}

	for _, check := range s.checks {
		if finding := s.runCheck(check, cctx); finding != nil {
			findings[check.Name()] = finding
		}
	}
	return findings
}

func (s *Service) runCheck(check domain.Check, cctx *domain.CheckContext) (finding *domain.Finding) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("issue check panicked, skipping",
				zap.String("check", check.Name()),
				zap.Int64("badgefile_id", cctx.Attendee.BadgefileID),
				zap.Any("panic", r))
			finding = nil
		}
	}()
	return check.Evaluate(cctx)
}

// reconcile diffs the fresh findings against the persisted open issues:
// new type opens a row, vanished type resolves it in place, changed payload
// updates it, identical payload writes nothing.
func (s *Service) reconcile(ctx context.Context, attendee *attendeedomain.Attendee, findings map[string]*domain.Finding) (created, updated, resolved int, err error) {
	open, err := s.repo.OpenByAttendee(ctx, s.db, attendee.BadgefileID)
	if err != nil {
		return 0, 0, 0, err
	}
	openByType := map[string]*domain.Issue{}
	for _, issue := range open {
		openByType[issue.IssueType] = issue
	}

	now := s.clock.Now()
	for issueType, finding := range findings {
		payload := datatypes.JSONMap(finding.Payload())
		existing, ok := openByType[issueType]
		if !ok {
			issue := &domain.Issue{
				IssueID:           s.genID.Generate(),
				BadgefileID:       attendee.BadgefileID,
				IssueType:         issueType,
				Data:              payload,
				Status:            domain.StatusOpen,
				TimeFirstObserved: now,
			}
			if err := s.repo.Insert(ctx, s.db, issue); err != nil {
				return created, updated, resolved, fmt.Errorf("open issue %s: %w", issueType, err)
			}
			s.metrics.IssuesOpened.WithLabelValues(issueType).Inc()
			created++
			continue
		}
		if samePayload(existing.Data, payload) {
			continue
		}
		if err := s.repo.UpdateData(ctx, s.db, existing.IssueID, payload); err != nil {
			return created, updated, resolved, fmt.Errorf("update issue %s: %w", issueType, err)
		}
		updated++
	}

	for issueType, issue := range openByType {
		if _, stillPresent := findings[issueType]; stillPresent {
			continue
		}
		if err := s.repo.Resolve(ctx, s.db, issue.IssueID, now); err != nil {
			return created, updated, resolved, fmt.Errorf("resolve issue %s: %w", issueType, err)
		}
		s.metrics.IssuesResolved.WithLabelValues(issueType).Inc()
		resolved++
	}
	return created, updated, resolved, nil
}

// samePayload compares payloads via canonical JSON so map ordering and
// number representation differences do not force spurious writes.
func samePayload(a, b datatypes.JSONMap) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aj) == string(bj)
}

func (s *Service) OpenIssues(ctx context.Context, badgefileID int64) ([]*domain.Issue, error) {
	return s.repo.OpenByAttendee(ctx, s.db, badgefileID)
}

func (s *Service) History(ctx context.Context, badgefileID int64) ([]*domain.Issue, error) {
	return s.repo.History(ctx, s.db, badgefileID)
}
