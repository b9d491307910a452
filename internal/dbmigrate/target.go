package dbmigrate

import (
	"context"
	"errors"
	"strings"

	"github.com/fdg312/food-advisor/internal/config"
	"github.com/rs/zerolog"
)

var ErrNoDatabaseURL = errors.New("no database URL configured (set DATABASE_URL_DIRECT or DATABASE_URL)")

// Target is the database migrations run against.
type Target struct {
	URL    string
	Source string // env var the URL came from
	Pooled bool   // DDL through a pooler; works but is discouraged
}

// ResolveTarget picks the DSN for DDL: DATABASE_URL_DIRECT, then
// DATABASE_URL, then DATABASE_URL_POOLED. Runtime uses the reverse order.
func ResolveTarget(cfg *config.Config) (Target, error) {
	candidates := []Target{
		{URL: cfg.DatabaseURLDirect, Source: "DATABASE_URL_DIRECT"},
		{URL: cfg.DatabaseURLRaw, Source: "DATABASE_URL"},
		{URL: cfg.DatabaseURLPooled, Source: "DATABASE_URL_POOLED", Pooled: true},
	}
	for _, c := range candidates {
		if strings.TrimSpace(c.URL) != "" {
			return c, nil
		}
	}
	return Target{}, ErrNoDatabaseURL
}

// Migrate resolves the target from cfg and applies command to it. Used by
// cmd/migrate and by startup migrations.
func Migrate(ctx context.Context, cfg *config.Config, command, migrationsDir string, logger zerolog.Logger) error {
	target, err := ResolveTarget(cfg)
	if err != nil {
		return err
	}

	evt := logger.Info()
	if target.Pooled {
		evt = logger.Warn().Str("hint", "set DATABASE_URL_DIRECT")
	}
	evt.Str("command", command).Str("using", target.Source).Msg("migrate")

	return Run(ctx, command, target.URL, migrationsDir, logger)
}
