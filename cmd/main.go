// job-tracker
//
// Personal job application tracker. Serves the list, board and analytics
// views over HTTP, streams live snapshots to open clients, and reports
// readiness over the gRPC health protocol.
//
// Storage is PostgreSQL with Redis (or NATS) change notifications, or a
// single-process in-memory store for local use (STORE_DRIVER=memory).
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/ntrioooo/job-tracker/internal/analytics"
	"github.com/ntrioooo/job-tracker/internal/auth"
	"github.com/ntrioooo/job-tracker/internal/config"
	"github.com/ntrioooo/job-tracker/internal/db"
	"github.com/ntrioooo/job-tracker/internal/grpcserver"
	"github.com/ntrioooo/job-tracker/internal/kanban"
	"github.com/ntrioooo/job-tracker/internal/scheduler"
	"github.com/ntrioooo/job-tracker/internal/server"
	"github.com/ntrioooo/job-tracker/internal/store"
	"github.com/ntrioooo/job-tracker/internal/telemetry"
)

const version = "1.0.0"

// backends are the optional external connections. A nil field means the
// backend is not configured.
type backends struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	nc   *nats.Conn
}

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

func newBackends(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*backends, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b := &backends{}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		if b.nc != nil {
			b.nc.Close()
		}
		if b.pool != nil {
			b.pool.Close()
		}
		if b.rdb != nil {
			return b.rdb.Close()
		}
		return nil
	}})

	if cfg.StoreDriver == config.StoreDriverPostgres {
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.pool = pool
		if err := db.EnsureSchema(ctx, pool); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		logger.Info("postgres connected")
	}

	if cfg.RedisURL != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, server.ServiceName)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		b.rdb = rdb
		logger.Info("redis connected")
	}

	if cfg.StoreDriver == config.StoreDriverPostgres && cfg.NotifierDriver == config.NotifierDriverNATS {
		nc, err := store.ConnectNATS(cfg.NATSURL, cfg.NATSTimeout)
		if err != nil {
			return nil, fmt.Errorf("nats: %w", err)
		}
		b.nc = nc
		logger.Info("nats connected", zap.String("url", cfg.NATSURL))
	}
	return b, nil
}

// ping checks every configured backend.
func (b *backends) ping(ctx context.Context) error {
	if b.pool != nil {
		if err := b.pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if b.rdb != nil {
		if err := b.rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if b.nc != nil {
		if err := b.nc.FlushTimeout(5 * time.Second); err != nil {
			return fmt.Errorf("nats: %w", err)
		}
	}
	return nil
}

func newStore(cfg *config.Config, b *backends, logger *zap.Logger) store.Store {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return store.NewMemoryStore(store.NewMemoryNotifier(), logger)
	}

	var notifier store.Notifier
	if b.nc != nil {
		notifier = store.NewNATSNotifier(b.nc, logger)
	} else {
		notifier = store.NewRedisNotifier(b.rdb, logger)
	}
	return store.NewPostgresStore(b.pool, notifier, logger)
}

func newUsers(b *backends) auth.UserRepository {
	if b.pool != nil {
		return auth.NewPostgresUsers(b.pool)
	}
	return auth.NewMemoryUsers()
}

func newBlacklist(b *backends) auth.Blacklist {
	if b.rdb != nil {
		return auth.NewRedisBlacklist(b.rdb)
	}
	return auth.NewMemoryBlacklist()
}

func newAuth(cfg *config.Config, users auth.UserRepository, blacklist auth.Blacklist, logger *zap.Logger) *auth.Service {
	var google *auth.GoogleProvider
	if cfg.GoogleEnabled() {
		google = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}
	return auth.NewService(users, auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL), blacklist, google, logger)
}

func newAnalytics(cfg *config.Config, b *backends, logger *zap.Logger) analytics.Summarizer {
	if b.rdb != nil {
		return analytics.NewCachedAggregator(b.rdb, cfg.AnalyticsCacheTTL, logger)
	}
	return analytics.Direct{}
}

func newSessions(st store.Store, logger *zap.Logger) *kanban.Sessions {
	return kanban.NewSessions(st, st.Get, logger)
}

func newScheduler(cfg *config.Config, sessions *kanban.Sessions, blacklist auth.Blacklist, logger *zap.Logger) *scheduler.Scheduler {
	var cleaners []scheduler.Cleaner
	if c, ok := blacklist.(scheduler.Cleaner); ok {
		cleaners = append(cleaners, c)
	}
	return scheduler.New(cfg.MaintenanceSpec, sessions, cfg.BoardSessionIdle, logger, cleaners...)
}

func newHTTPServer(cfg *config.Config, st store.Store, sessions *kanban.Sessions, sum analytics.Summarizer,
	authSvc *auth.Service, logger *zap.Logger) *http.Server {
	srv := server.New(server.Deps{
		Store:        st,
		Sessions:     sessions,
		Analytics:    sum,
		Auth:         authSvc,
		Logger:       logger,
		AllowOrigins: cfg.AllowOrigins,
		Version:      version,
	})
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: /applications/stream holds the response open.
	}
}

// ─── Lifecycle ───────────────────────────────────────────────────────────────

func registerTracing(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) {
	shutdown := func(context.Context) error { return nil }
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			fn, err := telemetry.InitTracer(ctx, server.ServiceName, version, cfg.OTLPEndpoint)
			if err != nil {
				return err
			}
			shutdown = fn
			if cfg.OTLPEndpoint != "" {
				logger.Info("tracing enabled", zap.String("endpoint", cfg.OTLPEndpoint))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error { return shutdown(ctx) },
	})
}

func runHTTP(lc fx.Lifecycle, srv *http.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			lis, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				logger.Info("http listening", zap.String("addr", srv.Addr), zap.String("version", version))
				if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func runGRPC(lc fx.Lifecycle, cfg *config.Config, srv *grpcserver.Server, b *backends, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(lis); err != nil {
					logger.Error("grpc server error", zap.Error(err))
				}
			}()
			if err := b.ping(ctx); err != nil {
				logger.Warn("backends not ready; reporting NOT_SERVING", zap.Error(err))
				return nil
			}
			srv.SetServing(true)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			return nil
		},
	})
}

func runScheduler(lc fx.Lifecycle, s *scheduler.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return s.Start() },
		OnStop: func(context.Context) error {
			s.Stop()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(
			config.Load,
			newLogger,
			newBackends,
			newStore,
			newUsers,
			newBlacklist,
			newAuth,
			newAnalytics,
			newSessions,
			newScheduler,
			newHTTPServer,
			grpcserver.NewServer,
		),
		fx.Invoke(
			registerTracing,
			runHTTP,
			runGRPC,
			runScheduler,
		),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}
