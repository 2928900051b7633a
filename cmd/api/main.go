package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/ezazahamad2003/pre-funnel/internal/auth"
	"github.com/ezazahamad2003/pre-funnel/internal/config"
	"github.com/ezazahamad2003/pre-funnel/internal/database"
	"github.com/ezazahamad2003/pre-funnel/internal/entity"
	"github.com/ezazahamad2003/pre-funnel/internal/handler"
	"github.com/ezazahamad2003/pre-funnel/internal/llm"
	"github.com/ezazahamad2003/pre-funnel/internal/logx"
	middlewarepkg "github.com/ezazahamad2003/pre-funnel/internal/middleware"
	"github.com/ezazahamad2003/pre-funnel/internal/quota"
	"github.com/ezazahamad2003/pre-funnel/internal/repository"
	"github.com/ezazahamad2003/pre-funnel/internal/router"
	"github.com/ezazahamad2003/pre-funnel/internal/scout"
	"github.com/ezazahamad2003/pre-funnel/internal/service"
	"github.com/ezazahamad2003/pre-funnel/internal/service/ranking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logx.Init(logx.Config{Debug: cfg.LogDebug, Pretty: cfg.LogPretty})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	usersRepo, connectionsRepo, tracker, closeDB := buildStorage(ctx, cfg)
	defer closeDB()

	client, err := llm.New(ctx, llm.Config{
		Provider:     cfg.LLMProvider,
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIModel,
	})
	if err != nil {
		log.Warn().Err(err).Msg("collaborator unavailable, running deterministic fallbacks")
		client = nil
	}

	dispatcher := scout.NewDispatcher(
		buildRouter(context.Background(), cfg, connectionsRepo, tracker),
		scout.WithOverallDeadline(cfg.DiscoveryDeadline),
		scout.WithCallTimeout(cfg.ScoutTimeout),
		scout.WithRetryBackoff(cfg.RetryBackoff),
		scout.WithConcurrency(cfg.DispatchConcurrency),
	)

	discoveryService := service.NewDiscoveryService(
		service.NewStrategyService(client, service.WithNetworkBoost(cfg.NetworkBoost)),
		dispatcher,
		service.NewMessageService(client),
		connectionsRepo,
		service.WithRankWeights(ranking.Weights{
			Goal:         cfg.RankWeights.Goal,
			Reliability:  cfg.RankWeights.Reliability,
			Completeness: cfg.RankWeights.Completeness,
			Network:      cfg.RankWeights.Network,
		}),
		service.WithTargetBounds(cfg.DefaultTarget, cfg.MaxTarget),
	)
	userService := service.NewUserService(usersRepo, connectionsRepo, tracker)

	state := auth.NewStateManager(cfg.JWTSecret, cfg.StateTTL)
	handlers := router.Handlers{
		Discovery: handler.NewDiscoveryHandler(discoveryService),
		Users:     handler.NewUserHandler(userService),
		Social:    handler.NewSocialHandler(userService),
	}
	if cfg.OAuthX.Configured() || cfg.OAuthLinkedIn.Configured() {
		handlers.OAuth = handler.NewOAuthHandler(state, userService, cfg.OAuthX, cfg.OAuthLinkedIn)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()
	log.Info().Str("port", cfg.Port).Msg("pre-funnel api listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildStorage selects the backing store. Without DATABASE_URL everything
// runs in memory, which is enough for local development and the synthetic
// tier.
func buildStorage(ctx context.Context, cfg *config.Config) (repository.UsersRepository, repository.ConnectionsRepository, quota.Tracker, func()) {
	limits := buildLimits(cfg)

	if cfg.DatabaseURL == "" {
		log.Info().Msg("no DATABASE_URL configured, using in-memory storage")
		return repository.NewMemoryUsersRepository(),
			repository.NewMemoryConnectionsRepository(),
			quota.NewMemoryTracker(limits),
			func() {}
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	var sealer repository.TokenSealer = auth.PlaintextSealer{}
	if cfg.TokenSealKey != "" {
		boxed, err := auth.NewSecretboxSealer(cfg.TokenSealKey)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid TOKEN_SEAL_KEY")
		}
		sealer = boxed
	} else {
		log.Warn().Msg("no TOKEN_SEAL_KEY configured, storing credentials unsealed")
	}

	return repository.NewPGXUsersRepository(pool),
		repository.NewPGXConnectionsRepository(pool, sealer),
		quota.NewStoreTracker(repository.NewPGXUsageRepository(pool), limits),
		pool.Close
}

// buildRouter attaches a shared provider per configured credential; channels
// without one stay on the synthetic tier.
func buildRouter(ctx context.Context, cfg *config.Config, connections repository.ConnectionsRepository, tracker quota.Tracker) *scout.Router {
	opts := []scout.RouterOption{}

	if cfg.PDLAPIKey != "" {
		opts = append(opts, scout.WithSharedScout(scout.NewEmailScout(cfg.PDLAPIKey, cfg.PhoneRegion)))
	}
	if cfg.GoogleCSEAPIKey != "" && cfg.GoogleCSEID != "" {
		web, err := scout.NewWebScout(ctx, cfg.GoogleCSEAPIKey, cfg.GoogleCSEID)
		if err != nil {
			log.Warn().Err(err).Msg("web scout unavailable, channel stays synthetic")
		} else {
			opts = append(opts, scout.WithSharedScout(web))
		}
	}
	if cfg.TwitterBearer != "" {
		xShared := scout.NewXScout(cfg.TwitterBearer)
		opts = append(opts,
			scout.WithSharedScout(xShared),
			scout.WithPersonalScout(entity.ChannelX, func(token string) scout.Scout {
				return xShared.WithCredential(token)
			}),
		)
	} else {
		opts = append(opts, scout.WithPersonalScout(entity.ChannelX, func(token string) scout.Scout {
			return scout.NewXScout("").WithCredential(token)
		}))
	}
	if cfg.PhantomAPIKey != "" && cfg.PhantomAgentID != "" {
		opts = append(opts, scout.WithSharedScout(scout.NewSharedLinkedInScout(cfg.PhantomAPIKey, cfg.PhantomAgentID)))
	}
	opts = append(opts, scout.WithPersonalScout(entity.ChannelLinkedIn, func(token string) scout.Scout {
		return scout.NewPersonalLinkedInScout(token)
	}))

	if modes := buildChannelModes(cfg); len(modes) > 0 {
		opts = append(opts, scout.WithChannelModes(modes))
	}

	return scout.NewRouter(connections, tracker, opts...)
}

func buildLimits(cfg *config.Config) quota.Limits {
	limits := quota.DefaultLimits()
	for raw, qc := range cfg.Quotas {
		window := quota.WindowDaily
		if qc.Window == "monthly" {
			window = quota.WindowMonthly
		}
		limits[entity.Channel(raw)] = quota.Limit{Ceiling: qc.Ceiling, Window: window}
	}
	return limits
}

func buildChannelModes(cfg *config.Config) map[entity.Channel]scout.ChannelMode {
	modes := make(map[entity.Channel]scout.ChannelMode, len(cfg.ChannelModes))
	for raw, mode := range cfg.ChannelModes {
		modes[entity.Channel(raw)] = scout.ChannelMode(mode)
	}
	return modes
}
