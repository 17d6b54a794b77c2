package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ellavondegurechaff/familiars/familiarbot"
	"github.com/ellavondegurechaff/familiars/familiarbot/database"
	"github.com/ellavondegurechaff/familiars/familiarbot/database/repositories"
	"github.com/ellavondegurechaff/familiars/familiarbot/logger"
	"github.com/ellavondegurechaff/familiars/familiarbot/migration"
)

type migrateOptions struct {
	configPath string
	mongoURI   string
	mongoDB    string
	reset      bool
	collNames  map[string]string
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(slog.LevelInfo)))

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Migration failed", slog.String("type", "sys"), slog.Any("error", err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &migrateOptions{}

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Import legacy MongoDB data into the familiars database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, (*migration.Migrator).MigrateAll)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config.toml", "path to the bot config, used for the postgres connection")
	flags.StringVar(&opts.mongoURI, "mongo-uri", "mongodb://localhost:27017", "legacy MongoDB connection string")
	flags.StringVar(&opts.mongoDB, "mongo-db", "familiars", "legacy MongoDB database name")
	flags.BoolVar(&opts.reset, "reset", false, "truncate every application table before importing")
	flags.StringToStringVar(&opts.collNames, "collection", nil, "override collection names, e.g. --collection cards=legacy_cards")

	root.AddCommand(
		&cobra.Command{
			Use:   "cards",
			Short: "Import card definitions only",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), opts, (*migration.Migrator).MigrateCards)
			},
		},
		&cobra.Command{
			Use:   "characters",
			Short: "Import characters and point balances, cards must already exist",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), opts, func(m *migration.Migrator, ctx context.Context) error {
					if err := m.MigrateCharacters(ctx); err != nil {
						return err
					}
					return m.MigrateBalances(ctx)
				})
			},
		},
	)
	return root
}

func run(ctx context.Context, opts *migrateOptions, step func(*migration.Migrator, context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := familiarbot.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		return err
	}
	if opts.reset {
		if err := db.ResetAppTables(ctx); err != nil {
			return err
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(opts.mongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}()
	if err := client.Ping(connectCtx, nil); err != nil {
		return fmt.Errorf("failed to ping mongo: %w", err)
	}

	m := migration.NewMigrator(
		client.Database(opts.mongoDB),
		repositories.NewCardRepository(db.BunDB()),
		repositories.NewStore(db.BunDB()),
	)
	for kind, name := range opts.collNames {
		m.SetMongoCollectionName(kind, name)
	}

	slog.Info("Starting migration",
		slog.String("type", "sys"),
		slog.String("mongo_db", opts.mongoDB),
		slog.Bool("reset", opts.reset))
	return step(m, ctx)
}
