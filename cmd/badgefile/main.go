package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bwmarrin/snowflake"
	"github.com/jonasacres/badgefile-sub000/internal/attendee"
	"github.com/jonasacres/badgefile-sub000/internal/clock"
	"github.com/jonasacres/badgefile-sub000/internal/config"
	"github.com/jonasacres/badgefile-sub000/internal/consistency"
	"github.com/jonasacres/badgefile-sub000/internal/identity"
	"github.com/jonasacres/badgefile-sub000/internal/importer"
	"github.com/jonasacres/badgefile-sub000/internal/issue"
	"github.com/jonasacres/badgefile-sub000/internal/logger"
	"github.com/jonasacres/badgefile-sub000/internal/metrics"
	"github.com/jonasacres/badgefile-sub000/internal/migration"
	"github.com/jonasacres/badgefile-sub000/internal/notifier"
	"github.com/jonasacres/badgefile-sub000/internal/overrides"
	"github.com/jonasacres/badgefile-sub000/internal/resolver"
	"github.com/jonasacres/badgefile-sub000/internal/seed"
	"github.com/jonasacres/badgefile-sub000/internal/syncer"
	"github.com/jonasacres/badgefile-sub000/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		metrics.Module,
		notifier.Module,

		// Badgefile core
		identity.Module,
		resolver.Module,
		attendee.Module,
		consistency.Module,
		issue.Module,
		importer.Module,
		overrides.Module,
		syncer.Module,

		fx.Invoke(runUpdate),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

type updateParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Log        *zap.Logger
	Config     config.Config
	Pipeline   *importer.Pipeline
	Overrides  *overrides.Loader
}

// runUpdate performs one full update cycle on startup: overrides, feeds,
// consistency, issue scan. Unless the background sync loop is enabled the
// process exits when the cycle completes.
func runUpdate(p updateParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ctx := context.Background()
				log := p.Log.Named("update")

				if p.Config.SeedDemo {
					if err := seed.EnsureSampleFeeds(p.Config.DataDir); err != nil {
						log.Error("sample feed seed failed", zap.Error(err))
						_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
						return
					}
				}

				if err := p.Overrides.Apply(ctx); err != nil {
					log.Error("override load failed", zap.Error(err))
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				p.Overrides.Watch()

				if err := p.Pipeline.Run(ctx, feedSources(p.Config)); err != nil {
					log.Error("update failed", zap.Error(err))
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
					return
				}

				if !p.Config.SyncEnabled {
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
	})
}

// feedSources builds a CSV source for every feed file present in the data
// directory. Absent files are simply not imported this run.
func feedSources(cfg config.Config) []importer.FeedSource {
	candidates := []struct {
		file string
		def  importer.FeedDef
	}{
		{"registration.csv", importer.RegistrationFeed()},
		{"activities.csv", importer.ActivityFeed("activities", importer.FeedActivities)},
		{"housing.csv", importer.ActivityFeed("housing", importer.FeedHousing)},
		{"ratings.csv", importer.RatingsFeed()},
		{"charges.csv", importer.ChargesFeed()},
	}

	var sources []importer.FeedSource
	for _, candidate := range candidates {
		path := filepath.Join(cfg.DataDir, candidate.file)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		sources = append(sources, importer.NewCSVSource(candidate.def, path))
	}
	return sources
}
