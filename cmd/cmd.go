package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"couple-journal-backend/internal/cache"
	"couple-journal-backend/internal/config"
	"couple-journal-backend/internal/gateway"
	"couple-journal-backend/internal/handlers"
	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/middleware"
	"couple-journal-backend/internal/realtime"
	"couple-journal-backend/internal/repository"
	"couple-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	log.Info().Msg("Database connection established")

	st := repository.NewStore(db)

	// Change feed, shared across instances when Redis is available
	rdb := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if rdb != nil {
		defer rdb.Close()
	}
	broker := realtime.NewBroker()
	bridge := realtime.NewRedisBridge(rdb, broker)
	if err := bridge.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start change feed")
	}

	resolver := identity.NewResolver(st.Profiles)
	gw := gateway.New(st, bridge)

	// Initialize services
	userService := services.NewUserService(st, cache.NewRevocations(rdb), cfg.JWT.Secret, cfg.JWT.TTL)
	wsHub := services.NewWSHub()
	pairService := services.NewPairService(st.Profiles, wsHub)
	photoService, err := services.NewPhotoService(ctx, cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create photo service")
	}
	pushService, err := services.NewPushService(cfg.APNs, wsHub)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create push service")
	}
	feeds := services.NewFeedService(st, broker, gw)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, resolver)
	pairHandler := handlers.NewPairHandler(pairService, resolver)
	postHandler := handlers.NewPostHandler(gw, feeds, resolver)
	diaryHandler := handlers.NewDiaryHandler(gw, feeds, resolver)
	playlistHandler := handlers.NewPlaylistHandler(gw, feeds, resolver)
	quoteHandler := handlers.NewQuoteHandler(gw, feeds, pushService, resolver)
	photoHandler := handlers.NewPhotoHandler(gw, feeds, photoService, resolver)
	chatHandler := handlers.NewChatHandler(gw, feeds, pushService, resolver)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService, feeds, pushService, resolver)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/signup", userHandler.SignUp)
		r.Post("/auth/signin", userHandler.SignIn)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Post("/auth/signout", userHandler.SignOut)
			r.Get("/me", userHandler.Me)
			r.Put("/me/push-token", userHandler.UpdatePushToken)

			r.Post("/pairs", pairHandler.CreatePair)
			r.Delete("/pairs", pairHandler.DeletePair)

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", postHandler.ListPosts)
				r.Post("/", postHandler.CreatePost)
				r.Get("/memories", postHandler.ListMemories)
				r.Put("/{id}", postHandler.UpdatePost)
				r.Delete("/{id}", postHandler.DeletePost)
				r.Post("/{id}/reactions", postHandler.ToggleReaction)
			})

			r.Get("/diary", diaryHandler.ListDiary)
			r.Put("/diary/{date}", diaryHandler.SaveDiary)
			r.Delete("/diary/{id}", diaryHandler.DeleteDiary)
			r.Get("/moods", diaryHandler.Moods)

			r.Route("/playlist", func(r chi.Router) {
				r.Get("/", playlistHandler.ListPlaylist)
				r.Post("/", playlistHandler.AddItem)
				r.Put("/{id}", playlistHandler.UpdateItem)
				r.Delete("/{id}", playlistHandler.DeleteItem)
			})

			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", quoteHandler.ListQuotes)
				r.Post("/", quoteHandler.CreateQuote)
				r.Post("/read", quoteHandler.MarkRead)
				r.Put("/{id}", quoteHandler.UpdateQuote)
				r.Delete("/{id}", quoteHandler.DeleteQuote)
			})

			r.Route("/photos", func(r chi.Router) {
				r.Get("/", photoHandler.ListPhotos)
				r.Post("/", photoHandler.AddPhoto)
				r.Post("/upload", photoHandler.GetUploadURL)
				r.Put("/{id}", photoHandler.UpdatePhoto)
				r.Delete("/{id}", photoHandler.DeletePhoto)
			})

			r.Route("/chat", func(r chi.Router) {
				r.Get("/", chatHandler.ListMessages)
				r.Post("/", chatHandler.SendMessage)
				r.Post("/read", chatHandler.MarkRead)
				r.Delete("/{id}", chatHandler.DeleteMessage)
			})
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Bool("redis", rdb != nil).
			Bool("push", pushService.Enabled()).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	<-ctx.Done()

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown; their read
	// loops end when the process exits.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// requestLogger logs each request through zerolog
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Info().
			Str("request_id", chiMiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
