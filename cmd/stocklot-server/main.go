package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authhandler "github.com/stocklot/stocklot-backend/internal/auth/handler"
	"github.com/stocklot/stocklot-backend/internal/auth/jwt"
	authrepo "github.com/stocklot/stocklot-backend/internal/auth/repository"
	authservice "github.com/stocklot/stocklot-backend/internal/auth/service"
	authstore "github.com/stocklot/stocklot-backend/internal/auth/store"
	"github.com/stocklot/stocklot-backend/internal/inventory/events"
	"github.com/stocklot/stocklot-backend/internal/inventory/handler"
	"github.com/stocklot/stocklot-backend/internal/inventory/repository"
	"github.com/stocklot/stocklot-backend/internal/inventory/service"
	"github.com/stocklot/stocklot-backend/internal/inventory/store"
	"github.com/stocklot/stocklot-backend/pkg/config"
	"github.com/stocklot/stocklot-backend/pkg/database"
	"github.com/stocklot/stocklot-backend/pkg/httputil"
	"github.com/stocklot/stocklot-backend/pkg/logger"
	"github.com/stocklot/stocklot-backend/pkg/messaging"
)

// Fresh installs get a working login; the service logs a warning until
// the password is changed.
const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("stocklot-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("stocklot-server", cfg.Server.Environment)
	log.Info().Str("storage", cfg.Storage.Driver).Msg("starting StockLot server")

	// Select the persistence driver
	var (
		inventoryStore service.Store
		userStore      authservice.UserStore
		db             *database.DB
	)
	switch cfg.Storage.Driver {
	case "postgres":
		db, err = database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx := context.Background()
		if err := repository.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to run inventory migrations")
		}
		if err := authrepo.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to run auth migrations")
		}

		inventoryStore = repository.NewStore(db)
		userStore = authrepo.NewUserRepository(db)
	default:
		csvStore, err := store.NewCSV(cfg.Storage.Dir, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open inventory files")
		}
		inventoryStore = csvStore

		userCSV, err := authstore.NewCSV(cfg.Storage.Dir, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open user file")
		}
		userStore = userCSV
	}

	// Connect to RabbitMQ when configured; the server runs without a
	// broker and simply skips event publishing.
	var publisher *events.InventoryEventPublisher
	if cfg.RabbitMQ.URL != "" {
		rmq, err := messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewInventoryEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	} else {
		log.Info().Msg("no RabbitMQ URL configured, events disabled")
	}

	// Initialize services
	tokenManager := jwt.NewManager(&cfg.JWT)
	authSvc := authservice.NewAuthService(userStore, tokenManager, log)
	inventorySvc := service.NewInventoryService(inventoryStore, publisher, cfg.Inventory.WarningMultiplier, log)

	if err := authSvc.EnsureDefaultAdmin(context.Background(), defaultAdminUsername, defaultAdminPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to seed default admin")
	}

	// Initialize handlers
	authHandler := authhandler.NewAuthHandler(authSvc, log)
	productHandler := handler.NewProductHandler(inventorySvc, log)
	movementHandler := handler.NewMovementHandler(inventorySvc, log)
	dashboardHandler := handler.NewDashboardHandler(inventorySvc, log)
	exportHandler := handler.NewExportHandler(inventorySvc, log)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":  "healthy",
			"service": "stocklot-server",
			"storage": cfg.Storage.Driver,
		}
		if db != nil {
			health["database"] = db.Health(r.Context())
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authhandler.Authenticate(tokenManager))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/inventory", func(r chi.Router) {
				r.Route("/products", func(r chi.Router) {
					r.Get("/", productHandler.List)
					r.Post("/", productHandler.Create)
					r.Route("/{code}", func(r chi.Router) {
						r.Get("/", productHandler.Get)
						r.Put("/", productHandler.Update)
						r.Delete("/", productHandler.Delete)
						r.Get("/movements", movementHandler.ListByProduct)
						r.Post("/movements", movementHandler.Apply)
					})
				})

				r.Get("/movements", movementHandler.List)
				r.Get("/dashboard/stats", dashboardHandler.Stats)
				r.Get("/alerts", dashboardHandler.Alerts)

				r.Get("/export/inventory", exportHandler.InventoryReport)
				r.Get("/export/movements", exportHandler.MovementLog)
			})
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
