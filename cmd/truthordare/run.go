package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"truthordare/internal/bot"
	"truthordare/internal/game"
	"truthordare/internal/paranoia"
	"truthordare/internal/question"
	"truthordare/internal/settings"
	"truthordare/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and serve commands until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
}

func run(ctx context.Context) error {
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	store := storage.New(db)
	defer store.Close()
	if err := storage.Migrate(db); err != nil {
		return err
	}

	index := question.NewIndex()
	questions := question.NewStore(store, index, logger)
	questions.WithPageSize(cfg.Questions.PageSize)
	if err := questions.LoadAll(ctx); err != nil {
		return err
	}
	if cfg.Questions.SeedFile != "" && index.Len() == 0 {
		if err := seed(ctx, questions, cfg.Questions.SeedFile); err != nil {
			return err
		}
	}

	settingsStore := settings.NewStore(store, logger)
	settingsStore.WithSweepInterval(cfg.Cache.SweepInterval)

	session, err := bot.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}
	relay := paranoia.NewService(paranoia.NewQueue(store), bot.NewMessenger(session), logger)
	svc := game.NewService(
		questions,
		question.NewSelector(index, nil),
		settingsStore,
		relay,
		game.NewPremiumList(cfg.PremiumGuilds...),
		logger,
	)
	discord := bot.New(cfg, logger, session, svc)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return discord.Run(ctx) })
	g.Go(func() error { return settingsStore.Run(ctx) })
	if cfg.Health.Enabled {
		g.Go(func() error { return serveHealth(ctx, cfg.Health.Addr, store, index) })
	}

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}

func seed(ctx context.Context, questions *question.Store, path string) error {
	drafts, err := readQuestionFile(path)
	if err != nil {
		return err
	}
	n, err := questions.Import(ctx, drafts)
	logger.Info("question catalog seeded", zap.String("file", path), zap.Int("count", n))
	return err
}

// serveHealth answers 200 once questions are loaded and the database
// responds, 503 otherwise.
func serveHealth(ctx context.Context, addr string, store *storage.Store, index *question.Index) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if !index.Ready() {
			http.Error(w, "loading", http.StatusServiceUnavailable)
			return
		}
		if err := store.Ping(pingCtx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("health endpoint enabled", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
