// Package importer drives the batch pipeline: feed ingestion, the
// consistency fixpoint and a full issue scan, in that order.
package importer

import (
	"context"
	"fmt"

	attendeedomain "github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
	"github.com/jonasacres/badgefile-sub000/internal/consistency"
	issuedomain "github.com/jonasacres/badgefile-sub000/internal/issue/domain"
	"github.com/jonasacres/badgefile-sub000/internal/metrics"
	"github.com/jonasacres/badgefile-sub000/internal/notifier"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Badgefile   attendeedomain.Service
	Consistency *consistency.Engine
	Issues      issuedomain.Service
	Metrics     *metrics.Metrics
	Notifier    *notifier.Notifier
}

type Pipeline struct {
	log         *zap.Logger
	badgefile   attendeedomain.Service
	consistency *consistency.Engine
	issues      issuedomain.Service
	metrics     *metrics.Metrics
	notifier    *notifier.Notifier
}

func New(p Params) *Pipeline {
	return &Pipeline{
		log:         p.Log.Named("importer"),
		badgefile:   p.Badgefile,
		consistency: p.Consistency,
		issues:      p.Issues,
		metrics:     p.Metrics,
		notifier:    p.Notifier,
	}
}

// Run imports every feed, then repairs cross-references, then rescans for
// issues. Feeds are independent: one failing loudly is logged and skipped,
// the rest still import.
func (p *Pipeline) Run(ctx context.Context, sources []FeedSource) error {
	batchID := uuid.NewString()
	log := p.log.With(zap.String("batch_id", batchID))

	for _, source := range sources {
		def := source.Def()
		if err := p.importFeed(ctx, source); err != nil {
			p.metrics.FeedFailures.WithLabelValues(def.Name).Inc()
			log.Error("feed import failed, continuing with remaining feeds",
				zap.String("feed", def.Name),
				zap.Error(err))
		}
	}

	if err := p.consistency.Resolve(ctx); err != nil {
		return fmt.Errorf("consistency pass: %w", err)
	}

	stats, err := p.issues.ScanAll(ctx)
	if err != nil {
		return fmt.Errorf("issue scan: %w", err)
	}

	p.notifier.Publish("import_complete", map[string]any{
		"batch_id":        batchID,
		"issues_created":  stats.Created,
		"issues_resolved": stats.Resolved,
	})
	return nil
}

func (p *Pipeline) importFeed(ctx context.Context, source FeedSource) error {
	def := source.Def()
	records, err := source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", def.Name, err)
	}

	switch def.Kind {
	case FeedCharges:
		return p.importCharges(ctx, def, records)
	case FeedActivities, FeedHousing:
		return p.importActivities(ctx, def, records)
	default:
		return p.importRegistrations(ctx, def, records)
	}
}

func (p *Pipeline) importRegistrations(ctx context.Context, def FeedDef, records []map[string]string) error {
	for _, record := range records {
		row := TypeRow(def, record)
		_, created, err := p.badgefile.MergeRow(ctx, row)
		if err != nil {
			return fmt.Errorf("merge row: %w", err)
		}
		p.metrics.RowsMerged.WithLabelValues(def.Name).Inc()
		if created {
			p.metrics.AttendeesCreated.Inc()
		}
	}
	return nil
}

func (p *Pipeline) importActivities(ctx context.Context, def FeedDef, records []map[string]string) error {
	for _, record := range records {
		row := TypeRow(def, record)
		if _, err := p.badgefile.MergeActivityRow(ctx, row); err != nil {
			return fmt.Errorf("merge activity row: %w", err)
		}
		p.metrics.RowsMerged.WithLabelValues(def.Name).Inc()
	}
	return nil
}

func (p *Pipeline) importCharges(ctx context.Context, def FeedDef, records []map[string]string) error {
	charges := make([]*attendeedomain.Charge, 0, len(records))
	for _, record := range records {
		row := TypeRow(def, record)
		transRefNo, _ := row[attendeedomain.FieldTransRefNo].(string)
		if transRefNo == "" {
			return fmt.Errorf("charges row without transaction reference: %w", attendeedomain.ErrInvalidRow)
		}
		category, _ := row["category"].(string)
		if category == "" {
			category = attendeedomain.ChargeCategoryCongress
		}
		amount := 0.0
		switch value := row["amount_due"].(type) {
		case float64:
			amount = value
		case int64:
			amount = float64(value)
		}
		charges = append(charges, &attendeedomain.Charge{
			TransRefNo: transRefNo,
			Category:   category,
			AmountDue:  amount,
		})
		p.metrics.RowsMerged.WithLabelValues(def.Name).Inc()
	}
	return p.badgefile.ReplaceCharges(ctx, charges)
}

// Module wires the import pipeline.
var Module = fx.Module("importer",
	fx.Provide(New),
)
