package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jonasacres/badgefile-sub000/internal/issue/domain"
	pkgdb "github.com/jonasacres/badgefile-sub000/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) OpenByAttendee(ctx context.Context, db *gorm.DB, badgefileID int64) ([]*domain.Issue, error) {
	var issues []*domain.Issue
	err := db.WithContext(ctx).
		Where("badgefile_id = ? AND status = ?", badgefileID, domain.StatusOpen).
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *repo) History(ctx context.Context, db *gorm.DB, badgefileID int64) ([]*domain.Issue, error) {
	var issues []*domain.Issue
	err := db.WithContext(ctx).
		Where("badgefile_id = ?", badgefileID).
		Order("time_first_observed asc").
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, issue *domain.Issue) error {
	return pkgdb.WithRetry(func() error {
		return db.WithContext(ctx).Exec(
			`INSERT INTO issues (issue_id, badgefile_id, issue_type, issue_data, status, time_first_observed, time_resolved)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			issue.IssueID,
			issue.BadgefileID,
			issue.IssueType,
			issue.Data,
			issue.Status,
			issue.TimeFirstObserved,
			issue.TimeResolved,
		).Error
	})
}

func (r *repo) UpdateData(ctx context.Context, db *gorm.DB, issueID snowflake.ID, data datatypes.JSONMap) error {
	return pkgdb.WithRetry(func() error {
		return db.WithContext(ctx).Exec(
			`UPDATE issues SET issue_data = ? WHERE issue_id = ?`,
			data,
			issueID,
		).Error
	})
}

func (r *repo) Resolve(ctx context.Context, db *gorm.DB, issueID snowflake.ID, at time.Time) error {
	return pkgdb.WithRetry(func() error {
		return db.WithContext(ctx).Exec(
			`UPDATE issues SET status = ?, time_resolved = ? WHERE issue_id = ?`,
			domain.StatusResolved,
			at,
			issueID,
		).Error
	})
}
