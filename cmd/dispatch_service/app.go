package dispatchservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"geo-dispatch/internal/general/config"
	"geo-dispatch/internal/general/contracts"
	"geo-dispatch/internal/general/jwt"
	"geo-dispatch/internal/general/logger"
	"geo-dispatch/internal/general/memstore"
	"geo-dispatch/internal/general/metrics"
	"geo-dispatch/internal/general/postgres"
	"geo-dispatch/internal/general/rabbitmq"
	"geo-dispatch/internal/general/websocket"
	"geo-dispatch/internal/graph"
	"geo-dispatch/internal/pathfinder"
	"geo-dispatch/internal/ports"
	"geo-dispatch/internal/seed"
	adminhandler "geo-dispatch/internal/software/adminboard/handler"
	adminservice "geo-dispatch/internal/software/adminboard/service"
	dandlhandler "geo-dispatch/internal/software/dandl/handler"
	dandlservice "geo-dispatch/internal/software/dandl/service"
	"geo-dispatch/internal/software/dispatch/handler"
	"geo-dispatch/internal/software/dispatch/service"
)

const consumerPrefetch = 8

// App holds the store and road network shared by the server and the one-shot commands.
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Graph   *graph.CityGraph
	Orders  ports.OrderRepository
	Drivers ports.DriverRepository
	UoW     ports.UnitOfWork

	closers []func()
}

// NewApp opens the configured store, then loads the road network and seed data.
func NewApp(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg, logger)
		if err != nil {
			logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
			return nil, err
		}
		app.closers = append(app.closers, pool.Close)
		if err := postgres.InitSchema(ctx, pool); err != nil {
			app.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
		app.Orders = postgres.NewOrderRepo(pool)
		app.Drivers = postgres.NewDriverRepo(pool)
		app.UoW = postgres.NewUnitOfWork(pool)
	default:
		store := memstore.New()
		app.Orders = memstore.NewOrderRepo(store)
		app.Drivers = memstore.NewDriverRepo(store)
		app.UoW = memstore.NewUnitOfWork(store)
	}

	g, err := graph.New(cfg.Dispatch.NearestCacheSize)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Graph = g

	if err := app.loadSeed(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) loadSeed(ctx context.Context) error {
	var (
		file *seed.File
		err  error
	)
	switch {
	case app.Config.Seed.Path != "":
		if file, err = seed.Load(app.Config.Seed.Path); err != nil {
			return err
		}
	case app.Config.Seed.Demo:
		file = seed.Demo()
	default:
		app.Logger.Warn(ctx, "seed_skipped", "No seed configured; the road network starts empty", nil)
		return nil
	}

	sum, err := file.Apply(ctx, app.Graph, app.Drivers, app.Orders)
	if err != nil {
		app.Logger.Error(ctx, "seed_failed", "Failed to apply seed data", err, nil)
		return fmt.Errorf("seed: %w", err)
	}
	app.Logger.Info(ctx, "seed_applied", "Seed data applied", map[string]any{
		"nodes":   sum.Nodes,
		"roads":   sum.Roads,
		"drivers": sum.Drivers,
		"orders":  sum.Orders,
		"skipped": sum.Skipped,
	})
	return nil
}

// DispatchService builds the dispatch coordinator over the app's store and graph.
func (app *App) DispatchService(notifier ports.DispatchNotifier, m ports.DispatchMetrics) ports.DispatchService {
	return service.NewDispatchService(
		app.Logger, app.UoW, app.Orders, app.Drivers, app.Graph,
		pathfinder.NewDijkstra(), notifier, m, app.Config.Dispatch.AvgSpeedKMH,
	)
}

// Close releases the store in reverse order of acquisition.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}

// Run wires the dispatch service and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *logger.Logger) error {
	ctx = logger.WithRequestID(ctx, "startup-001")

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	var (
		notifiers []ports.DispatchNotifier
		dm        ports.DispatchMetrics
		registry  *prometheus.Registry
		hub       *websocket.Hub
		rmq       *rabbitmq.Client
		auth      *jwt.Manager
	)

	if cfg.Auth.Enabled {
		auth, err = jwt.NewManager(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
		if err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		pm, err := metrics.NewPromMetrics(registry)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		pm.SetGraphNodes(app.Graph.Len())
		dm = pm
	}

	if cfg.WebSocket.Enabled {
		hub = websocket.NewHub(logger)
		notifiers = append(notifiers, hub)
	}

	if cfg.RabbitMQ.Enabled {
		rmq, err = rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
		if err != nil {
			logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
			return err
		}
		defer rmq.Close()
		notifiers = append(notifiers, rabbitmq.NewDispatchEvents(rabbitmq.NewMQPublisher(rmq), cfg.Service.Name))
	}

	dispatchSvc := app.DispatchService(service.NewMultiNotifier(notifiers...), dm)
	listener := service.NewOrderListener(logger, dispatchSvc)

	var (
		events ports.OrderEvents
		local  *service.LocalEvents
	)
	if rmq != nil {
		events = rabbitmq.NewOrderEvents(rabbitmq.NewMQPublisher(rmq), cfg.Service.Name)
	} else {
		local = service.NewLocalEvents(listener)
		events = local
	}
	orderSvc := service.NewOrderService(logger, app.UoW, app.Orders, app.Drivers, events)

	api := http.NewServeMux()
	handler.NewDispatchHTTPHandler(orderSvc, dispatchSvc, app.Graph, logger).RegisterRoutes(api)
	dandlhandler.NewDriverHTTPHandler(dandlservice.NewDriverOpsService(logger, app.UoW, app.Drivers, app.Orders), logger, auth).RegisterRoutes(api)
	adminhandler.NewAdminHTTPHandler(adminservice.NewAdminService(app.UoW, app.Drivers, app.Graph), logger, auth).RegisterRoutes(api)
	if registry != nil {
		api.Handle("GET "+cfg.Metrics.Path, metrics.Handler(registry))
	}

	// websocket subscribers are long-lived and stay outside the request limiter
	root := http.NewServeMux()
	root.Handle("/", withConcurrencyLimit(cfg.Service.MaxConcurrent, api))
	if hub != nil {
		root.HandleFunc("GET /ws/dispatch", hub.ConnectDispatch)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Service.HTTPPort),
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Dispatch service started on port %d", cfg.Service.HTTPPort),
		map[string]any{
			"port":           cfg.Service.HTTPPort,
			"max_concurrent": cfg.Service.MaxConcurrent,
			"storage":        cfg.Storage.Backend,
			"rabbitmq":       rmq != nil,
			"websocket":      hub != nil,
			"metrics":        registry != nil,
		},
	)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Service.HTTPPort})
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info(ctx, "shutdown_started", "Graceful shutdown started", nil)
		shCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Service.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		if hub != nil {
			hub.Close()
		}
		if err := srv.Shutdown(shCtx); err != nil {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
		return nil
	})

	if rmq != nil {
		eg.Go(func() error {
			return rmq.ConsumeWithRetry(egCtx, contracts.QueueOrderDispatch, cfg.Service.Name, consumerPrefetch,
				func(ctx context.Context, d amqp.Delivery) error {
					return listener.HandleDelivery(ctx, d.Body)
				})
		})
	}

	err = eg.Wait()
	if local != nil {
		local.Wait()
	}
	logger.Info(ctx, "service_stopped", "Dispatch service stopped", nil)
	return err
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
