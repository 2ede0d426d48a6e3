// Package server assembles the HTTP surface: routing, middleware, the
// static client, and graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tapper/internal/admin"
	"tapper/internal/auth"
	"tapper/internal/chat"
	"tapper/internal/config"
	"tapper/internal/httpmw"
	"tapper/internal/metrics"
	"tapper/internal/player"
	"tapper/internal/quest"
	"tapper/internal/session"
	staticfiles "tapper/static"
)

type Options struct {
	Config  *config.Config
	Logger  *zap.Logger
	Players player.Repo
	Catalog quest.Repo
	Chats   chat.Repo
}

type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	players  player.Repo
	catalog  quest.Repo
	chats    chat.Repo
	authsvc  *auth.Service
	sessions *session.Manager
}

func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Players == nil || opts.Catalog == nil || opts.Chats == nil {
		return nil, errors.New("all stores are required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	sessions := session.NewManager(opts.Players, opts.Catalog, session.Options{
		Economy:     opts.Config.Balance.Economy(),
		QuietPeriod: opts.Config.Balance.QuietPeriod(),
		Logger:      opts.Logger,
		OnSave: func(err error) {
			metrics.SavesTotal.Inc()
			if err != nil {
				metrics.SaveFailures.Inc()
			}
		},
	})

	return &Server{
		cfg:      opts.Config,
		log:      opts.Logger,
		players:  opts.Players,
		catalog:  opts.Catalog,
		chats:    opts.Chats,
		authsvc:  auth.NewService(opts.Players, opts.Config.JWTSecret, nil, opts.Logger),
		sessions: sessions,
	}, nil
}

// Handler builds the full route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpmw.WithRequestID)
	r.Use(httpmw.WithRecover(s.log))
	r.Use(httpmw.WithAccessLog(s.log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":   true,
			"time": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.players.Count(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Handle("/metrics", metrics.Handler())

	authHandler := auth.NewHandler(s.authsvc, s.players)
	playerHandler := player.NewHandler(s.players)
	gameHandler := session.NewHandler(s.sessions)
	chatHandler := chat.NewHandler(s.chats, s.players, nil)
	adminHandler := admin.NewHandler(s.players, s.catalog, s.sessions, s.log)

	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)
	r.Get("/api/leaderboard", playerHandler.Leaderboard)

	// Bearer-protected surface. Every authenticated request refreshes
	// presence.
	r.Group(func(r chi.Router) {
		r.Use(s.authsvc.RequireAPI(s.sessions.Touch))

		r.Get("/api/me", authHandler.Me)
		r.Put("/api/profile", authHandler.UpdateProfile)
		r.Post("/api/profile/password", authHandler.ChangePassword)

		r.Get("/api/quests", gameHandler.Quests)
		r.Post("/api/save", gameHandler.Save)
		r.Route("/api/game", func(r chi.Router) {
			r.Get("/state", gameHandler.State)
			r.Post("/tap", gameHandler.Tap)
			r.Post("/upgrade", gameHandler.BuyUpgrade)
			r.Post("/rebirth", gameHandler.Rebirth)
			r.Post("/claim", gameHandler.Claim)
		})

		r.Get("/api/chats", chatHandler.Contacts)
		r.Get("/api/messages/{userID}", chatHandler.Conversation)
		r.Post("/api/messages", chatHandler.Send)
		r.Post("/api/chats/{userID}/block", chatHandler.Block)
		r.Post("/api/chats/{userID}/unblock", chatHandler.Unblock)

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/stats", adminHandler.Stats)
			r.Get("/users", adminHandler.ListUsers)
			r.Put("/users/{id}", adminHandler.UpdateUser)
			r.Post("/quests", adminHandler.CreateQuest)
			r.Put("/quests/{id}", adminHandler.UpdateQuest)
			r.Delete("/quests/{id}", adminHandler.DeleteQuest)
		})
	})

	r.Handle("/*", http.FileServer(http.FS(staticfiles.EmbeddedFS())))

	return r
}

// Run serves until the context is canceled, then drains connections and
// flushes every live session.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.sessions.Shutdown()
	return err
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
