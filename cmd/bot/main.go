// Package main is the entry point for the Russian Roulette economy bot.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"telegram-roulette-bot/internal/bot"
	"telegram-roulette-bot/internal/config"
	"telegram-roulette-bot/internal/game"
	"telegram-roulette-bot/internal/game/gather"
	"telegram-roulette-bot/internal/game/roulette"
	"telegram-roulette-bot/internal/pkg/db"
	"telegram-roulette-bot/internal/pkg/lock"
	"telegram-roulette-bot/internal/repository"
	"telegram-roulette-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	clock := quartz.NewReal()

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)
	counterRepo := repository.NewCounterRepository(dbPool.Pool)

	// Initialize services
	userLock := lock.NewUserLock()
	accountService := service.NewAccountService(
		userRepo,
		txRepo,
		userLock,
		clock,
		cfg.Daily.RewardAmount(),
		cfg.Daily.CooldownHours,
	)
	transferService := service.NewTransferService(accountService, userRepo)
	rankingService := service.NewRankingService(userRepo, txRepo, clock, time.Local)
	statsService := service.NewStatsService(counterRepo)

	// One random source for timed actions and the revolver
	rng := game.NewRand()

	// Timed actions
	actions := game.NewRegistry()
	if err := gather.Register(actions, cfg.Actions.GatherCooldown, cfg.Actions.HarvestCooldown, rng); err != nil {
		log.Fatal().Err(err).Msg("Failed to register actions")
	}
	runner := game.NewRunner(actions, accountService, statsService, clock)

	log.Info().
		Int("action_count", actions.Count()).
		Msg("Actions registered")

	teleBot, err := bot.NewTeleBot(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}
	cleaner := bot.NewMessageCleaner(teleBot, clock, bot.MessageDeleteInterval)

	engine := roulette.NewEngine(accountService, roulette.Config{
		LobbyTimeout:      cfg.Roulette.LobbyTimeout,
		TurnTimeout:       cfg.Roulette.TurnTimeout,
		MaxBet:            cfg.Roulette.MaxBetAmount(),
		DefaultMaxPlayers: cfg.Roulette.MaxPlayers,
	},
		roulette.WithClock(clock),
		roulette.WithSampler(roulette.NewShuffleSampler(rng)),
		roulette.WithNotifier(bot.NewRouletteNotifier(teleBot, cleaner)),
		roulette.WithStats(statsService),
	)

	telegramBot := bot.New(teleBot, cleaner, &bot.Dependencies{
		Config:          cfg,
		AccountService:  accountService,
		TransferService: transferService,
		RankingService:  rankingService,
		StatsService:    statsService,
		Actions:         actions,
		ActionRunner:    runner,
		Roulette:        engine,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return telegramBot.Run(gctx)
	})
	if cfg.HTTP.Addr != "" {
		g.Go(func() error {
			return serveHealth(gctx, cfg.HTTP.Addr, dbPool)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Bot exited with error")
	}

	if n := engine.Registry().Len(); n > 0 {
		log.Warn().Int("sessions", n).Msg("Shutting down with roulette games still open")
	}
	log.Info().Msg("Bot stopped gracefully")
}

// serveHealth exposes /healthz until ctx is cancelled.
func serveHealth(ctx context.Context, addr string, pool *db.Pool) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.HealthCheck(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Health endpoint listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
