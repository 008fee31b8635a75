// Package syncer runs the optional background loop pushing badgefile state
// to an external tournament platform. The platform client is an out-of-scope
// collaborator behind the Client interface.
package syncer

import (
	"context"
	"time"

	"github.com/jonasacres/badgefile-sub000/internal/config"
	"github.com/jonasacres/badgefile-sub000/internal/notifier"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Client is one round of synchronization against the external system.
type Client interface {
	Sync(ctx context.Context) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Config   config.Config
	Notifier *notifier.Notifier
	Client   Client `optional:"true"`
}

type Loop struct {
	log      *zap.Logger
	cfg      config.Config
	notifier *notifier.Notifier
	client   Client

	cancel context.CancelFunc
	done   chan struct{}
}

func New(p Params) *Loop {
	return &Loop{
		log:      p.Log.Named("syncer"),
		cfg:      p.Config,
		notifier: p.Notifier,
		client:   p.Client,
	}
}

// Start launches the loop. Failures back off exponentially up to the
// configured maximum interval; a success resets to the base interval.
func (l *Loop) Start() {
	if l.client == nil || !l.cfg.SyncEnabled {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx)
}

func (l *Loop) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	interval := l.cfg.SyncBaseInterval
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		if err := l.client.Sync(ctx); err != nil {
			interval = nextInterval(interval, l.cfg.SyncMaxInterval)
			l.log.Warn("sync failed, backing off",
				zap.Duration("next_attempt_in", interval),
				zap.Error(err))
			continue
		}

		interval = l.cfg.SyncBaseInterval
		l.notifier.Publish("sync_complete", map[string]any{
			"at": time.Now().UTC(),
		})
	}
}

func nextInterval(current, max time.Duration) time.Duration {
	doubled := current * 2
	if doubled > max {
		return max
	}
	return doubled
}

func registerHooks(lc fx.Lifecycle, loop *Loop) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			loop.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			loop.Stop()
			return nil
		},
	})
}

// Module wires the background sync loop.
var Module = fx.Module("syncer",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)
