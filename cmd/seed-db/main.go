package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	pgzip "github.com/klauspost/pgzip"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/restaurant-pos/db"
	"github.com/xenking/restaurant-pos/internal/app"
	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/storage"
)

func main() {
	_ = godotenv.Load()

	var (
		databaseURL  string
		databaseName string
		menuFile     string
		workers      int
	)

	flag.StringVar(&databaseURL, "database-url", "", "MongoDB or PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&databaseName, "database-name", "pos", "MongoDB database when the URL names none (or DATABASE_NAME env)")
	flag.StringVar(&menuFile, "menu-file", "", "menu JSON file, optionally .json.gz (default: built-in sample menu)")
	flag.IntVar(&workers, "workers", 4, "concurrent inserts")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" && databaseName == "pos" {
		databaseName = v
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg := &app.Config{
		DatabaseURL:  databaseURL,
		DatabaseName: databaseName,
	}
	if err := run(ctx, cfg, menuFile, workers); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, cfg *app.Config, menuFile string, workers int) error {
	items, err := loadMenu(menuFile)
	if err != nil {
		return errors.Wrap(err, "load menu")
	}

	store := app.OpenStore(ctx, zap.NewNop(), cfg)
	defer func() { _ = store.Close(context.Background()) }()

	slog.Info("connecting to database", slog.String("store", store.Name()), slog.String("database", store.Database()))
	if err := store.Ping(ctx); err != nil {
		return errors.Wrap(err, "ping")
	}

	svc := menu.NewService(store.Menu(), otel.GetMeterProvider())
	return seed(ctx, svc, items, workers)
}

func seed(ctx context.Context, svc *menu.Service, items []menu.CreateItemRequest, workers int) error {
	slog.Info("inserting menu items", slog.Int("count", len(items)), slog.Int("workers", workers))

	var inserted atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, req := range items {
		g.Go(func() error {
			item, err := svc.Create(ctx, req)
			if err != nil {
				if errors.Is(err, storage.ErrUnavailable) {
					return err
				}
				return errors.Wrapf(err, "insert %q", req.Name)
			}
			slog.Info("inserted menu item",
				slog.String("id", item.ID),
				slog.String("name", item.Name),
				slog.Int64("done", inserted.Add(1)),
			)
			return nil
		})
	}
	return g.Wait()
}

// loadMenu reads path, or the built-in sample menu when path is empty.
// Files ending in .gz are decompressed.
func loadMenu(path string) ([]menu.CreateItemRequest, error) {
	if path == "" {
		return parseMenu(db.SampleMenu)
	}

	slog.Info("reading menu file", slog.String("path", path))
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "gzip")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, "read")
	}
	return parseMenu(buf.Bytes())
}
