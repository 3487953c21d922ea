package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/menus/internal/cache"
	healthcheck "github.com/vladislavdragonenkov/menus/internal/health"
	"github.com/vladislavdragonenkov/menus/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/menus/internal/metrics"
	"github.com/vladislavdragonenkov/menus/internal/seed"
	"github.com/vladislavdragonenkov/menus/internal/service/httpapi"
	menusvc "github.com/vladislavdragonenkov/menus/internal/service/menu"
	"github.com/vladislavdragonenkov/menus/internal/service/outbox"
	"github.com/vladislavdragonenkov/menus/internal/version"
)

const (
	grpcServiceName     = "menus.MenuService"
	healthWatchInterval = 10 * time.Second
)

// Run поднимает menu-service и блокируется до отмены ctx или ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	menuMetrics := metrics.NewMenuMetrics()
	outboxMetrics := metrics.NewOutboxMetrics()

	serviceOpts := []menusvc.Option{
		menusvc.WithLogger(log.WithField("component", "menu-service")),
		menusvc.WithMetrics(menuMetrics),
	}
	if cfg.TreeCache {
		treeCache, err := cache.NewTreeCache(cache.WithStats(menuMetrics))
		if err != nil {
			return fmt.Errorf("create tree cache: %w", err)
		}
		defer treeCache.Close()
		serviceOpts = append(serviceOpts, menusvc.WithCache(treeCache))
	}

	producer, _ := initKafkaProducer(cfg.Brokers(), logger)
	defer closeKafkaProducer(producer, logger)
	// события пишутся в outbox, только если их есть кому публиковать
	serviceOpts = append(serviceOpts, menusvc.WithOutboxEvents(producer != nil))

	engine := menusvc.NewService(deps.store, serviceOpts...)

	if cfg.Seed {
		seedMenus(ctx, engine, logger)
	}

	var (
		grpcServer   *grpc.Server
		healthServer *health.Server
		grpcLis      net.Listener
	)
	if cfg.GRPCAddr != "" {
		grpcLis, err = net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddr, err)
		}
		grpcServer, healthServer = newGRPCServer(logger)
	}

	g, gctx := errgroup.WithContext(ctx)

	if producer != nil {
		worker := outbox.NewWorker(
			deps.outboxRepo,
			kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
			outbox.WithLogger(log.WithField("component", "outbox-worker")),
			outbox.WithMetrics(outboxMetrics),
			outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, kafka.DLQTopic(cfg.KafkaTopic))),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		g.Go(func() error {
			worker.Run(gctx)
			return nil
		})
	}

	consumer := startCacheConsumer(gctx, cfg, engine, producer, logger)
	defer stopKafkaConsumer(consumer, logger)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", deps.storageChecker)
	if len(cfg.Brokers()) > 0 {
		healthHandler.RegisterChecker("kafka", healthcheck.NewOptionalChecker("kafka", func(context.Context) error {
			if producer == nil {
				return errors.New("kafka producer is not available")
			}
			return nil
		}))
	}

	api := httpapi.NewHandler(engine,
		httpapi.WithDebug(cfg.Debug),
		httpapi.WithLogger(log.WithField("component", "http-api")),
		httpapi.WithRequestTimeout(cfg.RequestTimeout),
	)
	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Routes(), ReadHeaderTimeout: 5 * time.Second}
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(healthHandler), ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error { return serveHTTP(apiSrv, "api", logger) })
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return serveHTTP(metricsSrv, "metrics", logger) })
	}

	if grpcServer != nil {
		g.Go(func() error {
			logger.Infof("gRPC health сервер слушает %s", grpcLis.Addr())
			if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			watchHealth(gctx, healthHandler, healthServer)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("получен сигнал остановки, останавливаем серверы")
		if healthServer != nil {
			healthServer.Shutdown()
		}
		shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		if grpcServer != nil {
			stopGRPC(grpcServer, cfg.ShutdownTimeout, logger)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func seedMenus(ctx context.Context, engine *menusvc.Service, logger *log.Entry) {
	created, err := seed.Run(ctx, engine, seed.Options{Logger: log.WithField("component", "seed")})
	switch {
	case errors.Is(err, seed.ErrNotEmpty):
		logger.Info("menu storage already populated, seeding skipped")
	case err != nil:
		logger.WithError(err).Warn("failed to seed menus")
	default:
		logger.WithField("created", created).Info("default menus seeded")
	}
}

// metricsMux — служебные эндпоинты: /metrics и health checks.
func metricsMux(healthHandler *healthcheck.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	return mux
}

// serveHTTP слушает адрес сервера до Shutdown.
func serveHTTP(srv *http.Server, name string, logger *log.Entry) error {
	lis, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s %s: %w", name, srv.Addr, err)
	}
	logger.WithFields(log.Fields{"server": name, "addr": lis.Addr().String()}).Info("http server started")
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

// newGRPCServer создаёт gRPC-сервер со стандартным health-сервисом и метриками.
func newGRPCServer(logger *log.Entry) (*grpc.Server, *health.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	grpcMetrics.InitializeMetrics(grpcServer)

	return grpcServer, healthServer
}

// watchHealth переносит результат HTTP health checks в gRPC health-статус.
func watchHealth(ctx context.Context, checks *healthcheck.Handler, healthServer *health.Server) {
	ticker := time.NewTicker(healthWatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := healthpb.HealthCheckResponse_SERVING
			if overall, _ := checks.RunChecks(ctx); overall == healthcheck.StatusUnhealthy {
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
			healthServer.SetServingStatus("", status)
			healthServer.SetServingStatus(grpcServiceName, status)
		}
	}
}

func stopGRPC(srv *grpc.Server, timeout time.Duration, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		srv.Stop()
	}
}
