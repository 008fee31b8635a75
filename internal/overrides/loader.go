// Package overrides layers operator-maintained corrections on top of raw
// feed data. The override file is authoritative wherever it speaks.
package overrides

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/fsnotify/fsnotify"
	attendeedomain "github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
	"github.com/jonasacres/badgefile-sub000/internal/config"
	identitydomain "github.com/jonasacres/badgefile-sub000/internal/identity/domain"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Document is the override file shape: one override record per attendee,
// plus explicit ID aliases discovered by operators.
type Document struct {
	Attendees map[string]map[string]any `mapstructure:"attendees"`
	Aliases   []AliasEntry              `mapstructure:"aliases"`
}

type AliasEntry struct {
	Canonical int64 `mapstructure:"canonical"`
	Alias     int64 `mapstructure:"alias"`
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Config    config.Config
	Badgefile attendeedomain.Service
	Identity  identitydomain.Manager
}

type Loader struct {
	log       *zap.Logger
	path      string
	badgefile attendeedomain.Service
	identity  identitydomain.Manager
	v         *viper.Viper
}

func New(p Params) *Loader {
	return &Loader{
		log:       p.Log.Named("overrides"),
		path:      p.Config.OverridesPath,
		badgefile: p.Badgefile,
		identity:  p.Identity,
	}
}

// Apply reads the override file and layers it onto the badgefile. A missing
// file is fine; a malformed one is an error.
func (l *Loader) Apply(ctx context.Context) error {
	if l.path == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(l.path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read overrides %s: %w", l.path, err)
	}
	l.v = v

	var doc Document
	if err := v.Unmarshal(&doc); err != nil {
		return fmt.Errorf("parse overrides %s: %w", l.path, err)
	}
	return l.apply(ctx, doc)
}

func (l *Loader) apply(ctx context.Context, doc Document) error {
	for _, alias := range doc.Aliases {
		if err := l.identity.SetAlias(ctx, alias.Canonical, alias.Alias); err != nil {
			return fmt.Errorf("alias %d -> %d: %w", alias.Alias, alias.Canonical, err)
		}
	}

	for rawID, fields := range doc.Attendees {
		badgefileID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return fmt.Errorf("override key %q is not a badgefile id", rawID)
		}
		attendee, err := l.badgefile.GetByID(ctx, badgefileID)
		if errors.Is(err, attendeedomain.ErrNotFound) {
			l.log.Warn("override for unknown attendee",
				zap.Int64("badgefile_id", badgefileID))
			continue
		}
		if err != nil {
			return err
		}
		if attendee.Overrides == nil {
			attendee.Overrides = map[string]any{}
		}
		for key, value := range fields {
			attendee.Overrides[key] = value
		}
		if err := l.badgefile.Save(ctx, attendee); err != nil {
			return err
		}
	}

	l.log.Info("overrides applied",
		zap.Int("attendees", len(doc.Attendees)),
		zap.Int("aliases", len(doc.Aliases)))
	return nil
}

// Watch reapplies the override file whenever it changes on disk.
func (l *Loader) Watch() {
	if l.v == nil {
		return
	}
	l.v.WatchConfig()
	l.v.OnConfigChange(func(e fsnotify.Event) {
		var doc Document
		if err := l.v.Unmarshal(&doc); err != nil {
			l.log.Warn("override reload failed", zap.Error(err))
			return
		}
		if err := l.apply(context.Background(), doc); err != nil {
			l.log.Warn("override reapply failed", zap.Error(err))
			return
		}
		l.log.Info("overrides reloaded", zap.String("file", e.Name))
	})
}

// Module wires the override loader.
var Module = fx.Module("overrides",
	fx.Provide(New),
)
