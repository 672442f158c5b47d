package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/partpilot/server/internal/agent/graph"
	"github.com/partpilot/server/internal/agent/model"
	"github.com/partpilot/server/internal/core"
	"github.com/partpilot/server/internal/embedding"
	"github.com/partpilot/server/internal/rules"
	"github.com/partpilot/server/internal/server"
	"github.com/partpilot/server/internal/session"
	"github.com/partpilot/server/internal/store"
	logx "github.com/partpilot/server/pkg/logger"
	pkgredis "github.com/partpilot/server/pkg/redis"
)

// AppConfig collects every tunable of the service, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	CORSOrigin  string `envconfig:"CORS_ORIGIN" default:"*"`

	// RulesPath points at an optional YAML overlay for the deterministic
	// fallback rules. Empty means built-in defaults.
	RulesPath string `envconfig:"RULES_PATH"`

	Catalog  store.Config
	Embedder embedding.Config
	Redis    pkgredis.Config
	Session  model.SessionConfig
	LLM      model.ChatModelConfig
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}

	env := core.ParseEnvironment(cfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: env, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := rules.Load(cfg.RulesPath)
	if err != nil {
		logx.Fatal().Err(err).Str("path", cfg.RulesPath).Msg("failed to load rules")
	}

	catalog, err := store.Open(cfg.Catalog)
	if err != nil {
		logx.Fatal().Err(err).Str("path", cfg.Catalog.Path).Msg("failed to open catalog")
	}
	defer catalog.Close()

	engine, err := embedding.NewEngine(cfg.Embedder)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build embedding engine")
	}

	index, err := store.NewSemanticStore(catalog.DB(), engine)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to open semantic index")
	}

	// Redis is optional: without it every turn is served stateless and the
	// conversation forgets its slots between requests.
	var sessions model.SessionStore
	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Warn().Err(err).Msg("redis unavailable, conversations will not persist")
	} else {
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, cfg.Session)
	}

	runner, err := graph.BuildChatGraph(ctx, graph.Config{
		ChatModel: cfg.LLM,
		Session:   cfg.Session,
		Rules:     r,
		Catalog:   catalog,
		Semantic:  index,
		Sessions:  sessions,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build chat graph")
	}

	health := server.NewHealth()
	health.AddChecker("catalog", catalog.Ping)
	health.AddChecker("semantic_index", index.Ping)
	health.AddChecker("model", func(context.Context) error { return cfg.LLM.Validate() })
	if sessions != nil {
		health.AddChecker("sessions", sessions.Ping)
	}
	if hc, ok := engine.(embedding.HealthChecker); ok {
		health.AddChecker("embedder", hc.HealthCheck)
	}

	srv := server.New(server.Config{
		Addr:        cfg.HTTPAddr,
		CORSOrigin:  cfg.CORSOrigin,
		ServiceName: "partpilot",
		Environment: env.String(),
	}, runner, catalog, health)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
		logx.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logx.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
