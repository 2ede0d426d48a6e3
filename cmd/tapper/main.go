package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tapper/internal/auth"
	"tapper/internal/chat"
	"tapper/internal/config"
	"tapper/internal/logger"
	"tapper/internal/player"
	"tapper/internal/quest"
	"tapper/internal/server"
	"tapper/internal/store/postgres"
	"tapper/internal/store/sqlite"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tapper",
	Short: "Clicker game server",
	Long: `Tapper is the clicker game server: tap to earn coins, buy click
upgrades, prestige through rebirths, and work through the quest board.
State lives in Postgres or a local SQLite file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(setupCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.Init(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	srv, err := server.New(server.Options{
		Config:  cfg,
		Logger:  log,
		Players: st.players,
		Catalog: st.catalog,
		Chats:   st.chats,
	})
	if err != nil {
		return err
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the schema, seed the quest catalog, and bootstrap the admin account",
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.Init(cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	if err := st.setup(ctx); err != nil {
		return err
	}
	log.Info("schema ready")

	if err := quest.SeedDefaults(ctx, st.catalog); err != nil {
		return fmt.Errorf("seed quest catalog: %w", err)
	}
	log.Info("quest catalog seeded")

	if err := bootstrapAdmin(ctx, cfg, st.players, log); err != nil {
		return err
	}

	log.Info("setup complete")
	return nil
}

// bootstrapAdmin creates (or promotes) the admin account named by
// ADMIN_USERNAME / ADMIN_PASSWORD. Skipped when no password is set.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, players player.Repo, log *zap.Logger) error {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Warn("ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	svc := auth.NewService(players, cfg.JWTSecret, nil, log)
	u, _, err := svc.Register(ctx, username, password)
	if errors.Is(err, player.ErrUsernameTaken) {
		if u, err = players.ByUsername(ctx, username); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	if err := players.SetRole(ctx, u.ID, player.RoleAdmin); err != nil {
		return err
	}
	log.Info("admin account ready", zap.String("username", username))
	return nil
}

// stores bundles the per-feature repositories of whichever driver the
// config selected.
type stores struct {
	players player.Repo
	catalog quest.Repo
	chats   chat.Repo
	setup   func(context.Context) error
	close   func()
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		st, err := postgres.Connect(ctx, cfg.Database.DSN, log)
		if err != nil {
			return nil, err
		}
		return &stores{
			players: st.Players(),
			catalog: st.Quests(),
			chats:   st.Chat(),
			setup:   st.Setup,
			close:   st.Close,
		}, nil
	case config.DriverSQLite:
		st, err := sqlite.Open(cfg.Database.Path, log)
		if err != nil {
			return nil, err
		}
		return &stores{
			players: st.Players(),
			catalog: st.Quests(),
			chats:   st.Chat(),
			setup:   func(context.Context) error { return st.Setup() },
			close:   func() { _ = st.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
