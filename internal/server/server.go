package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrigankDubey/My-Second-app/internal/api"
	"github.com/MrigankDubey/My-Second-app/internal/catalog"
	"github.com/MrigankDubey/My-Second-app/internal/event"
	"github.com/MrigankDubey/My-Second-app/internal/mastery"
	"github.com/MrigankDubey/My-Second-app/internal/recency"
	"github.com/MrigankDubey/My-Second-app/internal/selector"
	"github.com/MrigankDubey/My-Second-app/internal/session"
	"github.com/MrigankDubey/My-Second-app/internal/telemetry"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Redis struct {
		Recency struct {
			Addrs  []string
			Pass   string
			Prefix string
			Window int
		}

		Pubsub struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Postgres struct {
		Quiz struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Session struct {
		IdleTimeout   time.Duration
		SweepInterval time.Duration
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			recency redis.UniversalClient
			pubsub  redis.UniversalClient
		}

		postgres struct {
			quiz *pgxpool.Pool
		}
	}

	store struct {
		catalog *catalog.Store
		mastery *mastery.Store
		recency *recency.Tracker
	}

	service struct {
		selector *selector.Service
		session  *session.Service
	}

	registry *session.Registry

	http  *http.Server
	sweep chan struct{}
}

func Init(c Config) (*Server, error) {
	s := &Server{
		c:     c,
		sweep: make(chan struct{}),
	}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(addrs []string, pass string) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: pass,
		})

		if err := telemetry.MonitorRedis(r); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.recency, err = connect(s.c.Redis.Recency.Addrs, s.c.Redis.Recency.Pass)
	if err != nil {
		return fmt.Errorf("recency: %w", err)
	}

	s.infra.redis.pubsub, err = connect(s.c.Redis.Pubsub.Addrs, s.c.Redis.Pubsub.Pass)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initPostgres() (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pc := s.c.Postgres.Quiz
	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", pc.User, pc.Pass, pc.Addr, pc.Name))
	if err != nil {
		return fmt.Errorf("quiz: %w", err)
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return fmt.Errorf("quiz: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("quiz: %w", err)
	}

	s.infra.postgres.quiz = db
	return nil
}

func (s *Server) initService() {
	s.store.catalog = catalog.NewStore(catalog.Config{
		DB: s.infra.postgres.quiz,
	})

	s.store.mastery = mastery.NewStore(mastery.Config{
		DB: s.infra.postgres.quiz,
	})

	s.store.recency = recency.NewTracker(recency.Config{
		Redis:  s.infra.redis.recency,
		Prefix: s.c.Redis.Recency.Prefix,
		Window: s.c.Redis.Recency.Window,
	})

	s.service.selector = selector.NewService(selector.Config{
		Catalog: s.store.catalog,
		History: s.store.recency,
		Mastery: s.store.mastery,
	})

	s.registry = session.NewRegistry()
	s.service.session = session.NewService(session.Config{
		Registry: s.registry,
		Selector: s.service.selector,
		Recorder: s.store.mastery,
		Recency:  s.store.recency,
		EventBus: s.eb,
	})
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	api.New(api.Config{
		Router:       e,
		EventBus:     s.eb,
		Session:      s.service.session,
		Mastery:      s.store.mastery,
		Catalog:      s.store.catalog,
		Redis:        s.infra.redis.pubsub,
		PubsubPrefix: s.c.Redis.Pubsub.Prefix,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		s.sweepLoop(ctx)
		return nil
	})

	err := eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

// sweepLoop periodically evicts idle sessions from the registry.
func (s *Server) sweepLoop(ctx context.Context) {
	interval := s.c.Session.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	maxIdle := s.c.Session.IdleTimeout
	if maxIdle <= 0 {
		maxIdle = 30 * time.Minute
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-s.sweep:
			return
		case <-t.C:
			if n := s.registry.Sweep(maxIdle); n > 0 {
				slog.InfoContext(ctx, "server: swept idle sessions",
					"evicted", n, "remaining", s.registry.Len())
			}
		}
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	close(s.sweep)
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	slog.InfoContext(ctx, "server: shutdown completed")
}
