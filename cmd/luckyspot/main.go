package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"luckyspot/internal/adapters/discord"
	httprouter "luckyspot/internal/adapters/http/router"
	"luckyspot/internal/application"
	"luckyspot/internal/config"
	"luckyspot/internal/infrastructure/database"
	"luckyspot/internal/infrastructure/feed"
	"luckyspot/internal/infrastructure/i18n"
	"luckyspot/internal/infrastructure/memstore"
	"luckyspot/internal/infrastructure/metrics"
	"luckyspot/internal/infrastructure/queue"
	"luckyspot/internal/infrastructure/telemetry"
	"luckyspot/internal/ports/output"
	"luckyspot/internal/worker"
	"luckyspot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(ctx, cfg.OTel)
	if err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}
	logger.Setup(logger.Options{
		Env:         cfg.Env,
		ServiceName: cfg.OTel.ServiceName,
		OTel:        cfg.OTel.Enabled(),
	})
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "luckyspot.main"})

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			fatal(ctx, "parsing REDIS_URL", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			fatal(ctx, "redis unreachable", err)
		}
	}

	var changes output.ChangeFeed = feed.NewLocal()
	if redisClient != nil {
		changes = feed.NewRedis(redisClient, cfg.Redis.ChangePrefix)
	}

	var (
		store   output.EntrantStore
		closers []func()
	)
	switch cfg.StoreBackend {
	case config.BackendMemory:
		slog.WarnContext(ctx, "using the in-memory store, data is lost on restart")
		store = memstore.New(changes)
	default:
		if cfg.RunMigrations {
			if err := database.RunMigrations(cfg.DB.DSN); err != nil {
				fatal(ctx, "running migrations", err)
			}
		}
		pool, err := database.NewPool(ctx, cfg.DB)
		if err != nil {
			fatal(ctx, "database initialization failed", err)
		}
		closers = append(closers, pool.Close)
		store = database.NewEntrantStore(pool, changes)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)
	translator := i18n.NewTranslator(cfg.DefaultLocale)

	var retry output.PromotionQueue
	if redisClient != nil {
		retry = queue.NewProducer(redisClient, cfg.Redis.Stream)
	}

	var notifier output.Notifier
	session, err := newDiscordSession(cfg)
	if err != nil {
		fatal(ctx, "discord session", err)
	}
	if session != nil {
		notifier = discord.NewDMNotifier(session, translator, cfg.DefaultLocale)
	}

	appCfg := application.Config{
		MaxAttempts:   cfg.Lifecycle.TxMaxAttempts,
		InvitationTTL: cfg.Lifecycle.InvitationTTL,
	}
	entrants := application.NewEntrantService(store, recorder, appCfg)
	promotions := application.NewPromotionService(store, notifier, recorder, appCfg)
	query := application.NewQueryEngine(store, recorder)

	var wg sync.WaitGroup
	jobs, stopJobs := context.WithCancel(ctx)

	var bot *discord.Bot
	if session != nil {
		handler := discord.NewHandler(discord.HandlerDeps{
			Entrants:      entrants,
			Promotions:    promotions,
			Query:         query,
			Retry:         retry,
			T:             translator,
			DefaultLocale: cfg.DefaultLocale,
		})
		bot = discord.NewBot(session, cfg.Discord, handler)
		if err := bot.Open(); err != nil {
			fatal(ctx, "discord bot startup failed", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.RunScheduledTasks(jobs)
		}()
	}

	if redisClient != nil {
		consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
			Stream:       cfg.Redis.Stream,
			Group:        cfg.Redis.Group,
			Consumer:     cfg.Redis.Consumer,
			DLQStream:    cfg.Redis.DLQStream,
			RequeueDelay: cfg.Redis.RequeueBackoff,
		})
		if err != nil {
			fatal(ctx, "promotion consumer", err)
		}
		promotionWorker := worker.NewPromotionWorker(consumer, promotions, recorder, worker.Config{MaxAttempts: cfg.Redis.MaxAttempts})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := promotionWorker.Run(jobs); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "promotion worker stopped", "error", err)
			}
		}()
	}

	sweeper := worker.NewExpirySweeper(entrants, promotions, retry, cfg.Lifecycle.ExpirySweepInterval)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(jobs)
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	routerCfg := httprouter.RouterConfig{Gatherer: registry}
	if cfg.OTel.Enabled() {
		routerCfg.ServiceName = cfg.OTel.ServiceName
	}
	server := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: httprouter.New(httprouter.Services{
			Entrants:   entrants,
			Promotions: promotions,
			Query:      query,
			Retry:      retry,
		}, routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.HTTPPort, "store", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}
	if bot != nil {
		if err := bot.Close(); err != nil {
			slog.ErrorContext(shutdownCtx, "discord shutdown error", "error", err)
		}
	}
	stopJobs()
	wg.Wait()

	for _, fn := range closers {
		fn()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
	}
	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func newDiscordSession(cfg *config.Config) (*discordgo.Session, error) {
	if !cfg.Discord.Enabled() {
		return nil, nil
	}
	return discord.NewSession(cfg.Discord)
}

func fatal(ctx context.Context, msg string, err error) {
	slog.ErrorContext(ctx, msg, "error", err)
	os.Exit(1)
}
