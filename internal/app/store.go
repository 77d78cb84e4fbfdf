package app

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-pos/internal/storage"
	"github.com/xenking/restaurant-pos/internal/storage/mongodb"
	"github.com/xenking/restaurant-pos/internal/storage/postgres"
)

// errNoDatabase is reported by /test when no connection string is set.
var errNoDatabase = errors.New("no database configured")

// OpenStore selects the backend from the scheme of cfg.DatabaseURL. It never
// fails: a missing or unusable URL yields a storage.Unavailable backend so
// the server still starts and answers 503 on data endpoints.
func OpenStore(ctx context.Context, lg *zap.Logger, cfg *Config) storage.Backend {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		lg.Warn("Store unavailable", zap.String("reason", err.Error()))
		return storage.NewUnavailable(err, cfg.DatabaseName)
	}
	lg.Info("Store configured",
		zap.String("store", b.Name()),
		zap.String("database", b.Database()),
	)
	return b
}

func openBackend(ctx context.Context, cfg *Config) (storage.Backend, error) {
	if cfg.DatabaseURL == "" {
		return nil, errNoDatabase
	}
	scheme, _, ok := strings.Cut(cfg.DatabaseURL, "://")
	if !ok {
		return nil, errors.New("database url has no scheme")
	}

	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		s, err := mongodb.Open(ctx, cfg.DatabaseURL, cfg.DatabaseName, cfg.StoreTimeout)
		if err != nil {
			return nil, errors.Wrap(err, "open mongodb")
		}
		return s, nil
	case "postgres", "postgresql":
		s, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.StoreTimeout)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres")
		}
		return s, nil
	default:
		return nil, errors.Errorf("unsupported database scheme %q", scheme)
	}
}
