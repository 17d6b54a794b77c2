package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/ellavondegurechaff/familiars/familiarbot"
	"github.com/ellavondegurechaff/familiars/familiarbot/commands"
	"github.com/ellavondegurechaff/familiars/familiarbot/config"
	"github.com/ellavondegurechaff/familiars/familiarbot/database"
	"github.com/ellavondegurechaff/familiars/familiarbot/database/repositories"
	"github.com/ellavondegurechaff/familiars/familiarbot/logger"
	"github.com/ellavondegurechaff/familiars/familiarbot/ops"
	"github.com/ellavondegurechaff/familiars/familiarbot/services"
	"github.com/ellavondegurechaff/familiars/internal/domain/catalog"
	"github.com/ellavondegurechaff/familiars/internal/domain/familiars"
	"github.com/ellavondegurechaff/familiars/internal/gateways/memory"
	"github.com/ellavondegurechaff/familiars/internal/gateways/redislock"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(slog.LevelInfo)))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := familiarbot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(-1)
	}
	slog.SetDefault(logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.AddSource))

	slog.Info("Starting Familiars Discord Bot",
		slog.String("type", "sys"),
		slog.String("version", version),
		slog.String("commit", commit),
		slog.String("storage", cfg.Game.Storage),
		slog.String("lock_mode", cfg.Game.LockMode))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	b := familiarbot.New(*cfg, version, commit)
	checks := map[string]ops.Pinger{}

	store, cat, err := setupStorage(ctx, b, checks)
	if err != nil {
		slog.Error("Failed to set up storage", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(-1)
	}
	if b.DB != nil {
		defer b.DB.Close()
	}

	b.Search, err = services.NewCardSearch(cat, config.SearchCacheSize)
	if err != nil {
		slog.Error("Failed to build card search", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(-1)
	}

	if cfg.Spaces.Enabled() {
		b.Spaces, err = services.NewSpacesService(ctx,
			cfg.Spaces.Key,
			cfg.Spaces.Secret,
			cfg.Spaces.Region,
			cfg.Spaces.Bucket,
			cfg.Spaces.CardRoot,
		)
		if err != nil {
			slog.Error("Failed to set up spaces", slog.String("type", "sys"), slog.Any("error", err))
			os.Exit(-1)
		}
	}

	locker, closeLocker, err := setupLocker(ctx, cfg, checks)
	if err != nil {
		slog.Error("Failed to set up locker", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(-1)
	}
	defer closeLocker()

	b.Registry = prometheus.NewRegistry()
	b.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	b.Engine = familiars.NewService(store, b.Settings, cat, familiars.Config{
		DrawCost:        cfg.Game.DrawCost,
		BlessedDrawCost: cfg.Game.BlessedDrawCost,
		HuntCap:         cfg.Game.HuntCap,
		StartingPoints:  cfg.Game.StartingPoints,
	},
		familiars.WithLocker(locker),
		familiars.WithMetrics(familiars.NewMetrics(b.Registry)),
	)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Ops.ListenAddress != "" {
		srv := ops.NewServer(cfg.Ops.ListenAddress, b.Registry, checks)
		go func() {
			if err := srv.Run(runCtx); err != nil {
				slog.Error("Ops server stopped", slog.String("type", "sys"), slog.Any("error", err))
			}
		}()
	}

	h := handler.New()
	commands.Register(h, b)

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "gateway"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.", slog.String("type", "sys"))
	<-runCtx.Done()
	slog.Info("Shutting down bot...", slog.String("type", "sys"))
}

// setupStorage builds the character store, the settings source and the catalog for the
// configured storage mode.
func setupStorage(ctx context.Context, b *familiarbot.Bot, checks map[string]ops.Pinger) (familiars.Store, *catalog.Catalog, error) {
	cfg := b.Cfg
	seeds, err := cfg.Game.Definitions()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read card seeds: %w", err)
	}

	if cfg.Game.Storage == familiarbot.StorageMemory {
		cat, err := catalog.New(seeds)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build catalog: %w", err)
		}
		store := memory.New()
		b.Settings = memory.NewSettings(cfg.Game.Chances, cfg.Game.Locations)
		checks["store"] = store
		slog.Warn("Using in-memory storage, state is lost on restart", slog.String("type", "sys"))
		return store, cat, nil
	}

	dbStart := time.Now()
	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("Database connected successfully",
		slog.String("type", "db"),
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStart)))

	if err := db.InitializeSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	b.DB = db
	checks["database"] = db

	cards := repositories.NewCardRepository(db.BunDB())
	settings := repositories.NewSettingsRepository(db.BunDB(), cfg.Game.SettingsCacheTTL())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(seeds) == 0 {
			return nil
		}
		n, err := cards.Upsert(gctx, seeds, false)
		if err != nil {
			return err
		}
		slog.Info("Card seeds applied", slog.String("type", "db"), slog.Int("inserted", n))
		return nil
	})
	g.Go(func() error {
		return settings.Seed(gctx, cfg.Game.Chances, cfg.Game.Locations)
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to seed game data: %w", err)
	}

	cat, err := cards.Catalog(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if cat.Len() == 0 {
		return nil, nil, errors.New("card catalog is empty, add [[game.cards]] to the config or run the migrate tool")
	}
	slog.Info("Card catalog loaded", slog.String("type", "sys"), slog.Int("cards", cat.Len()))

	b.Settings = settings
	return repositories.NewStore(db.BunDB()), cat, nil
}

func setupLocker(ctx context.Context, cfg *familiarbot.Config, checks map[string]ops.Pinger) (familiars.Locker, func(), error) {
	if cfg.Game.LockMode != familiarbot.LockRedis {
		return familiars.NewLocalLocker(), func() {}, nil
	}

	client, err := redislock.NewClient(ctx, redislock.Config{
		Address:  cfg.Redis.Address,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return nil, nil, err
	}

	prefix := cfg.Redis.LockPrefix
	if prefix == "" {
		prefix = config.DefaultRedisLockPath
	}
	locker := redislock.New(client, prefix, cfg.Redis.LockTTL())
	checks["redis"] = locker
	return locker, func() { _ = client.Close() }, nil
}
