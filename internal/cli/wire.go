package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"trivia-client/internal/app"
	"trivia-client/internal/config"
	"trivia-client/internal/content"
	"trivia-client/internal/domain"
	"trivia-client/internal/infra/file"
	"trivia-client/internal/infra/memory"
	"trivia-client/internal/infra/postgres"
	infraredis "trivia-client/internal/infra/redis"
	"trivia-client/internal/transport/ws"
)

// deps holds everything a command may need, built from config.
type deps struct {
	cfg        config.Config
	redis      *redis.Client
	pool       *pgxpool.Pool
	content    *content.Client
	sets       memory.TriviaSetLoader
	identities app.IdentityStore
	archive    archive
}

type archive interface {
	app.ResultArchive
	ListResults(ctx context.Context, limit int) ([]domain.GameResult, error)
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if profile != "" {
		cfg.Session.Profile = profile
	}
	setupLogging(cfg, os.Stderr)
	return cfg, nil
}

func setupLogging(cfg config.Config, w io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Log.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

func buildDeps(ctx context.Context, cfg config.Config) (*deps, func(), error) {
	d := &deps{cfg: cfg}
	cleanup := func() {
		if d.redis != nil {
			_ = d.redis.Close()
		}
		if d.pool != nil {
			d.pool.Close()
		}
	}

	if cfg.Redis.Addr != "" {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		d.pool = pool
	}

	d.content = content.NewClient(cfg.Content.URL, config.TTLDuration(cfg.Content.Timeout, 10*time.Second))
	cacheTTL := config.TTLDuration(cfg.Content.CacheTTL, 5*time.Minute)
	if d.redis != nil {
		d.sets = infraredis.NewTriviaSetCache(d.redis, d.content, cacheTTL)
	} else {
		d.sets = memory.NewTriviaSetCache(d.content, cacheTTL)
	}

	switch cfg.Identity.Backend {
	case config.BackendRedis:
		if d.redis == nil {
			cleanup()
			return nil, nil, fmt.Errorf("identity backend redis needs redis.addr")
		}
		d.identities = infraredis.NewIdentityStore(d.redis, cfg.Session.Profile, config.TTLDuration(cfg.Identity.TTL, 24*time.Hour))
	case config.BackendMemory:
		d.identities = memory.NewIdentityStore()
	case config.BackendFile, "":
		d.identities = file.NewIdentityStore(cfg.IdentityPath())
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unknown identity backend %q", cfg.Identity.Backend)
	}

	if d.pool != nil {
		d.archive = postgres.NewResultArchive(d.pool)
	} else {
		d.archive = memory.NewResultArchive()
	}
	return d, cleanup, nil
}

func (d *deps) newClient() (*app.Client, error) {
	policy, err := app.ParsePolicy(d.cfg.Session.Policy)
	if err != nil {
		return nil, err
	}
	transport := ws.New(ws.Config{
		URL:               d.cfg.Server.URL,
		HandshakeTimeout:  config.TTLDuration(d.cfg.Server.HandshakeTimeout, 10*time.Second),
		PongWait:          config.TTLDuration(d.cfg.Server.PongWait, 60*time.Second),
		ReconnectAttempts: d.cfg.Server.ReconnectAttempts,
		ReconnectWait:     config.TTLDuration(d.cfg.Server.ReconnectWait, time.Second),
	})
	return app.NewClient(transport, d.identities, app.Options{
		Policy:     policy,
		ResyncWait: config.TTLDuration(d.cfg.Session.ResyncWait, 5*time.Second),
		Archive:    d.archive,
	}), nil
}
