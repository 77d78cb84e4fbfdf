// Package app wires configuration, storage, services and the HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/domain/order"
	"github.com/xenking/restaurant-pos/internal/events"
	"github.com/xenking/restaurant-pos/internal/handler"
	"github.com/xenking/restaurant-pos/internal/storage"
	"github.com/xenking/restaurant-pos/pkg/health"
	"github.com/xenking/restaurant-pos/pkg/httpmiddleware"
)

const serviceName = "pos-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application. m is usually
// the *app.Telemetry of go-faster/sdk.
func Run(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	store := storage.Guard(OpenStore(ctx, lg, cfg), cfg.Breaker, lg)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			lg.Warn("Close store", zap.Error(err))
		}
	}()

	var publisher order.Publisher
	if cfg.AMQPURL != "" {
		p := events.NewPublisher(events.Config{
			URL:         cfg.AMQPURL,
			Exchange:    cfg.AMQPExchange,
			DialTimeout: cfg.StoreTimeout,
		})
		defer func() {
			if err := p.Close(); err != nil {
				lg.Warn("Close publisher", zap.Error(err))
			}
		}()
		publisher = p
		lg.Info("Order events enabled", zap.String("exchange", cfg.AMQPExchange))
	}

	healthSvc := health.New(lg.Named("health"))
	healthSvc.Register(health.Probe{
		Name:    "store",
		Kind:    health.Readiness,
		Timeout: cfg.StoreTimeout,
		Check:   store.Ping,
	})
	healthSvc.Register(health.Probe{
		Name:    "goroutines",
		Kind:    health.Liveness,
		Timeout: time.Second,
		Check:   health.Goroutines(10000),
	})
	healthSvc.Register(health.Probe{
		Name:    "gc_pause",
		Kind:    health.Liveness,
		Timeout: time.Second,
		Check:   health.GCPause(time.Second),
	})

	// Domain services.
	menuService := menu.NewService(store.Menu(), m.MeterProvider())
	orderService := order.NewService(store.Orders(), publisher, m.MeterProvider())

	h := handler.NewHandler(menuService, orderService, handler.Diagnostics{
		Store:       store,
		DatabaseURL: cfg.DatabaseURL,
		Circuit:     store.State,
		Timeout:     cfg.StoreTimeout,
	})

	mux := http.NewServeMux()
	mux.Handle("GET /livez", healthSvc.LiveHandler())
	mux.Handle("GET /readyz", healthSvc.ReadyHandler())
	h.Register(mux)

	routeFinder := httpmiddleware.MakeRouteFinder(mux)
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				Origins: cfg.CORS.Origins,
				MaxAge:  86400,
			}),
			httpmiddleware.Instrument(serviceName, routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()
	healthSvc.SetReady(true)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}
