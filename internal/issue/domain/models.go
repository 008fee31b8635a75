package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	attendeedomain "github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusOpen     = "open"
	StatusResolved = "resolved"
)

// Issue is one detected data-quality problem with an open/resolved
// lifecycle. Resolved rows are retained forever as the audit trail; at most
// one open issue exists per (attendee, issue type).
type Issue struct {
	IssueID           snowflake.ID      `gorm:"primaryKey;column:issue_id"`
	BadgefileID       int64             `gorm:"column:badgefile_id"`
	IssueType         string            `gorm:"column:issue_type"`
	Data              datatypes.JSONMap `gorm:"column:issue_data"`
	Status            string            `gorm:"column:status"`
	TimeFirstObserved time.Time         `gorm:"column:time_first_observed"`
	TimeResolved      *time.Time        `gorm:"column:time_resolved"`
}

func (Issue) TableName() string { return "issues" }

// Finding is a check's diagnostic payload. Nil finding means "no issue".
type Finding struct {
	Message  string
	Category string
	Code     string
	Details  map[string]any
}

// Payload renders the finding as the stored issue_data document.
func (f *Finding) Payload() map[string]any {
	payload := map[string]any{
		"message":  f.Message,
		"category": f.Category,
		"code":     f.Code,
	}
	for key, value := range f.Details {
		payload[key] = value
	}
	return payload
}

// CheckContext is everything a check may inspect. Checks are pure functions
// of this snapshot; they must not reach back into storage.
type CheckContext struct {
	Attendee     *attendeedomain.Attendee
	Party        []*attendeedomain.Attendee
	Activities   []*attendeedomain.Activity
	CongressDue  float64
	HousingDue   float64
	CongressDate time.Time

	// HousingNightlyRate is the configured flat unit price for housing
	// line items; zero disables fee-division checks.
	HousingNightlyRate float64
}

// Check is one independent issue predicate. Implementations are registered
// statically; there is no runtime plugin discovery.
type Check interface {
	Name() string
	Evaluate(cctx *CheckContext) *Finding
}

// ScanStats summarizes one full scan.
type ScanStats struct {
	Scanned  int
	Created  int
	Updated  int
	Resolved int
}

type Repository interface {
	OpenByAttendee(ctx context.Context, db *gorm.DB, badgefileID int64) ([]*Issue, error)
	History(ctx context.Context, db *gorm.DB, badgefileID int64) ([]*Issue, error)
	Insert(ctx context.Context, db *gorm.DB, issue *Issue) error
	UpdateData(ctx context.Context, db *gorm.DB, issueID snowflake.ID, data datatypes.JSONMap) error
	Resolve(ctx context.Context, db *gorm.DB, issueID snowflake.ID, at time.Time) error
}

type Service interface {
	// ScanAll re-evaluates every attendee and reconciles findings against
	// the persisted open issues.
	ScanAll(ctx context.Context) (ScanStats, error)
	OpenIssues(ctx context.Context, badgefileID int64) ([]*Issue, error)
	History(ctx context.Context, badgefileID int64) ([]*Issue, error)
}
