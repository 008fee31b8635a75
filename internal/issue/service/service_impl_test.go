package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	attendeedomain "github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
	attendeerepo "github.com/jonasacres/badgefile-sub000/internal/attendee/repository"
	attendeeservice "github.com/jonasacres/badgefile-sub000/internal/attendee/service"
	"github.com/jonasacres/badgefile-sub000/internal/clock"
	"github.com/jonasacres/badgefile-sub000/internal/config"
	identitydomain "github.com/jonasacres/badgefile-sub000/internal/identity/domain"
	identityrepo "github.com/jonasacres/badgefile-sub000/internal/identity/repository"
	identityservice "github.com/jonasacres/badgefile-sub000/internal/identity/service"
	"github.com/jonasacres/badgefile-sub000/internal/issue/domain"
	"github.com/jonasacres/badgefile-sub000/internal/issue/repository"
	"github.com/jonasacres/badgefile-sub000/internal/metrics"
	"github.com/jonasacres/badgefile-sub000/internal/notifier"
	"github.com/jonasacres/badgefile-sub000/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubCheck struct {
	name string
	fn   func(*domain.CheckContext) *domain.Finding
}

func (c *stubCheck) Name() string                                   { return c.name }
func (c *stubCheck) Evaluate(cctx *domain.CheckContext) *domain.Finding { return c.fn(cctx) }

type testStack struct {
	issues    domain.Service
	badgefile attendeedomain.Service
	clock     *clock.FakeClock
}

func newTestStack(t *testing.T, checks ...domain.Check) *testStack {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&attendeedomain.Attendee{},
		&attendeedomain.Activity{},
		&attendeedomain.ExtraAttribute{},
		&attendeedomain.Charge{},
		&attendeedomain.EmailRecord{},
		&identitydomain.IDAlias{},
		&identitydomain.GuestIDMap{},
		&domain.Issue{},
	))

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	identity := identityservice.New(identityservice.Params{
		DB:     db,
		Log:    log,
		Config: config.Config{GuestIDFloor: 70_000_000},
		Repo:   identityrepo.Provide(),
	})
	badgefile := attendeeservice.New(attendeeservice.Params{
		DB:    db,
		Log:   log,
		Clock: fake,
		Repo:  attendeerepo.Provide(),
		Identity: identity,
		Resolver: resolver.New(resolver.Params{
			Log:    log,
			Holder: resolver.NewStaticHolder(resolver.DefaultConfig()),
		}),
		Notifier: notifier.New(),
	})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	issues := New(Params{
		DB:    db,
		Log:   log,
		Clock: fake,
		Config: config.Config{
			CongressDate:       time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC),
			HousingNightlyRate: 68,
		},
		GenID:     node,
		Repo:      repository.Provide(),
		Badgefile: badgefile,
		Checks:    checks,
		Metrics:   metrics.New(),
	})
	return &testStack{issues: issues, badgefile: badgefile, clock: fake}
}

func (s *testStack) merge(t *testing.T, row attendeedomain.Row) *attendeedomain.Attendee {
	t.Helper()
	attendee, _, err := s.badgefile.MergeRow(context.Background(), row)
	require.NoError(t, err)
	return attendee
}

func TestScanLifecycle(t *testing.T) {
	active := true
	detail := "v1"
	check := &stubCheck{name: "stub", fn: func(cctx *domain.CheckContext) *domain.Finding {
		if !active {
			return nil
		}
		return &domain.Finding{
			Message:  "stub finding",
			Category: "test",
			Code:     "stub",
			Details:  map[string]any{"detail": detail},
		}
	}}
	stack := newTestStack(t, check)
	ctx := context.Background()

	stack.merge(t, attendeedomain.Row{
		attendeedomain.FieldAGAID:      int64(100),
		attendeedomain.FieldNameGiven:  "Ida",
		attendeedomain.FieldNameFamily: "Issue",
	})

	// First scan opens the issue.
	opened := stack.clock.Now()
	stats, err := stack.issues.ScanAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)

	open, err := stack.issues.OpenIssues(ctx, 100)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, domain.StatusOpen, open[0].Status)
	assert.WithinDuration(t, opened, open[0].TimeFirstObserved, time.Second)

	// Identical payload on a later scan writes nothing.
	stack.clock.Advance(time.Hour)
	stats, err = stack.issues.ScanAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Created)
	assert.Zero(t, stats.Updated)
	assert.Zero(t, stats.Resolved)

	open, err = stack.issues.OpenIssues(ctx, 100)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.WithinDuration(t, opened, open[0].TimeFirstObserved, time.Second)

	// A changed payload updates in place without touching first-observed.
	detail = "v2"
	stack.clock.Advance(time.Hour)
	stats, err = stack.issues.ScanAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	open, err = stack.issues.OpenIssues(ctx, 100)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "v2", open[0].Data["detail"])
	assert.WithinDuration(t, opened, open[0].TimeFirstObserved, time.Second)

	// Once the condition clears the issue resolves but stays on record.
	active = false
	stack.clock.Advance(time.Hour)
	resolvedAt := stack.clock.Now()
	stats, err = stack.issues.ScanAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Resolved)

	open, err = stack.issues.OpenIssues(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, open)

	history, err := stack.issues.History(ctx, 100)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusResolved, history[0].Status)
	require.NotNil(t, history[0].TimeResolved)
	assert.WithinDuration(t, resolvedAt, *history[0].TimeResolved, time.Second)
}

func TestScanReopensAsNewIssue(t *testing.T) {
	active := true
	check := &stubCheck{name: "stub", fn: func(cctx *domain.CheckContext) *domain.Finding {
		if !active {
			return nil
		}
		return &domain.Finding{Message: "m", Category: "c", Code: "stub"}
	}}
	stack := newTestStack(t, check)
	ctx := context.Background()

	stack.merge(t, attendeedomain.Row{
		attendeedomain.FieldAGAID:      int64(100),
		attendeedomain.FieldNameGiven:  "Rex",
		attendeedomain.FieldNameFamily: "Reopen",
	})

	_, err := stack.issues.ScanAll(ctx)
	require.NoError(t, err)
	active = false
	_, err = stack.issues.ScanAll(ctx)
	require.NoError(t, err)
	active = true
	_, err = stack.issues.ScanAll(ctx)
	require.NoError(t, err)

	// The resolved row is retained; recurrence opens a distinct row.
	history, err := stack.issues.History(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	open, err := stack.issues.OpenIssues(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestScanSkipsCancelledAndManual(t *testing.T) {
	check := &stubCheck{name: "stub", fn: func(cctx *domain.CheckContext) *domain.Finding {
		return &domain.Finding{Message: "m", Category: "c", Code: "stub"}
	}}
	stack := newTestStack(t, check)
	ctx := context.Background()

	stack.merge(t, attendeedomain.Row{
		attendeedomain.FieldAGAID:      int64(100),
		attendeedomain.FieldNameGiven:  "Norm",
		attendeedomain.FieldNameFamily: "Normal",
	})
	stack.merge(t, attendeedomain.Row{
		attendeedomain.FieldAGAID:      int64(200),
		attendeedomain.FieldNameGiven:  "Cal",
		attendeedomain.FieldNameFamily: "Cancelled",
		attendeedomain.FieldRegStatus:  attendeedomain.StatusCancelled,
	})
	manual := stack.merge(t, attendeedomain.Row{
		attendeedomain.FieldAGAID:      int64(300),
		attendeedomain.FieldNameGiven:  "Manny",
		attendeedomain.FieldNameFamily: "Manual",
	})
	manual.Manual = true
	require.NoError(t, stack.badgefile.Save(ctx, manual))

	stats, err := stack.issues.ScanAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Scanned)
	assert.Equal(t, 1, stats.Created)

	for _, id := range []int64{200, 300} {
		open, err := stack.issues.OpenIssues(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, open, "attendee %d", id)
	}
}

func TestScanResolvesIssuesOfCancelledAttendee(t *testing.T) {
	check := &stubCheck{name: "stub", fn: func(cctx *domain.CheckContext) *domain.Finding {
		return &domain.Finding{Message: "m", Category: "c", Code: "stub"}
	}}
	stack := newTestStack(t, check)
	ctx := context.Background()

	attendee := stack.merge(t, attendeedomain.Row{
		attendeedomain.FieldAGAID:      int64(100),
		attendeedomain.FieldNameGiven:  "Quinn",
		attendeedomain.FieldNameFamily: "Quit",
	})
	_, err := stack.issues.ScanAll(ctx)
	require.NoError(t, err)

	attendee.Info[attendeedomain.FieldRegStatus] = attendeedomain.StatusCancelled
	require.NoError(t, stack.badgefile.Save(ctx, attendee))

	stats, err := stack.issues.ScanAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Resolved)

	open, err := stack.issues.OpenIssues(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestScanIsolatesPanickingCheck(t *testing.T) {
	bad := &stubCheck{name: "bad", fn: func(cctx *domain.CheckContext) *domain.Finding {
		panic("boom")
	}}
	good := &stubCheck{name: "good", fn: func(cctx *domain.CheckContext) *domain.Finding {
		return &domain.Finding{Message: "m", Category: "c", Code: "good"}
	}}
	stack := newTestStack(t, bad, good)
	ctx := context.Background()

	stack.merge(t, attendeedomain.Row{
		attendeedomain.FieldAGAID:      int64(100),
		attendeedomain.FieldNameGiven:  "Pan",
		attendeedomain.FieldNameFamily: "Icky",
	})

	stats, err := stack.issues.ScanAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)

	open, err := stack.issues.OpenIssues(ctx, 100)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "good", open[0].IssueType)
}
