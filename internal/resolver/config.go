package resolver

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	attendeedomain "github.com/jonasacres/badgefile-sub000/internal/attendee/domain"
)

// Rule awards its full weight only when every field in the tuple is present
// and matches case-insensitively on both sides.
type Rule struct {
	Fields []string `mapstructure:"fields"`
	Weight int      `mapstructure:"weight"`
}

// Config holds the scoring table and the two-part acceptance gate. The
// weights are tunables, not constants: the scheme is a domain heuristic the
// original operators never fully trusted.
type Config struct {
	MinScore  int    `mapstructure:"minScore"`
	MinMargin int    `mapstructure:"minMargin"`
	Rules     []Rule `mapstructure:"rules"`
}

func DefaultConfig() Config {
	return Config{
		MinScore:  100,
		MinMargin: 100,
		Rules: []Rule{
			{Fields: []string{attendeedomain.FieldAGAID}, Weight: 1_000_000},
			{Fields: []string{attendeedomain.FieldNameGiven, attendeedomain.FieldNameFamily, attendeedomain.FieldDateOfBirth}, Weight: 10_000},
			{Fields: []string{attendeedomain.FieldNameGiven, attendeedomain.FieldNameFamily, attendeedomain.FieldPhone}, Weight: 5_000},
			{Fields: []string{attendeedomain.FieldNameGiven, attendeedomain.FieldNameFamily, attendeedomain.FieldEmail}, Weight: 5_000},
			{Fields: []string{attendeedomain.FieldNameFamily, attendeedomain.FieldDateOfBirth}, Weight: 100},
			{Fields: []string{attendeedomain.FieldAddress, attendeedomain.FieldCity, attendeedomain.FieldPostalCode}, Weight: 40},
		},
	}
}

// ConfigHolder keeps the live scoring config, hot-reloading it when the
// backing file changes. An empty path serves the defaults.
type ConfigHolder struct {
	current atomic.Value // holds Config
}

func NewConfigHolder(path string, log *zap.Logger) (*ConfigHolder, error) {
	holder := &ConfigHolder{}
	holder.current.Store(DefaultConfig())
	if path == "" {
		return holder, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return holder, nil
		}
		return nil, err
	}

	var cfg Config
	if err := v.UnmarshalKey("resolver", &cfg); err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Config
		if err := v.UnmarshalKey("resolver", &updated); err != nil {
			log.Warn("resolver config reload failed", zap.Error(err))
			return
		}
		if err := validateConfig(updated); err != nil {
			log.Warn("resolver config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("resolver config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticHolder serves a fixed config, mainly for tests.
func NewStaticHolder(cfg Config) *ConfigHolder {
	holder := &ConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *ConfigHolder) Get() Config {
	return h.current.Load().(Config)
}

func validateConfig(cfg Config) error {
	if len(cfg.Rules) == 0 {
		return errors.New("resolver.rules cannot be empty")
	}
	if cfg.MinScore <= 0 || cfg.MinMargin < 0 {
		return errors.New("resolver thresholds must be positive")
	}
	for _, rule := range cfg.Rules {
		if len(rule.Fields) == 0 || rule.Weight <= 0 {
			return errors.New("resolver rule needs fields and a positive weight")
		}
	}
	return nil
}
