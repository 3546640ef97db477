package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sovushik/SparkyFitness/handlers"
	"github.com/sovushik/SparkyFitness/internal/logging"
	"github.com/sovushik/SparkyFitness/internal/secrets"
	"github.com/sovushik/SparkyFitness/middleware"
	"github.com/sovushik/SparkyFitness/migrations"
	"github.com/sovushik/SparkyFitness/repository"
	"github.com/sovushik/SparkyFitness/services"

	_ "net/http/pprof"
)

var (
	dbPool             *pgxpool.Pool
	authService        *services.AuthService
	userService        *services.UserService
	goalService        *services.GoalService
	foodService        *services.FoodService
	exerciseService    *services.ExerciseService
	measurementService *services.MeasurementService
	waterService       *services.WaterService
	healthDataService  *services.HealthDataService
	chatService        *services.ChatService
	retentionWorker    *services.ChatRetentionWorker
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found")
	}

	if err := logging.Setup(os.Getenv("SPARKY_FITNESS_LOG_LEVEL"), os.Getenv("SPARKY_FITNESS_LOG_FILE")); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logging")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal().Msg("DATABASE_URL environment variable is not set")
	}

	jwtSecret := os.Getenv("SPARKY_FITNESS_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal().Msg("SPARKY_FITNESS_JWT_SECRET environment variable is not set")
	}
	middleware.SetJWTSecret([]byte(jwtSecret))

	cipher, err := secrets.NewCipher(os.Getenv("SPARKY_FITNESS_API_ENCRYPTION_KEY"))
	if err != nil {
		log.Fatal().Err(err).Msg("SPARKY_FITNESS_API_ENCRYPTION_KEY is missing or malformed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse database URL")
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create connection pool")
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}

	log.Info().Msg("Successfully connected to PostgreSQL")

	if err := migrations.Up(dbURL); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}
	log.Info().Msg("Database schema is up to date")

	userRepo := repository.NewUserRepo(dbPool)
	goalRepo := repository.NewGoalRepo(dbPool)
	foodRepo := repository.NewFoodRepo(dbPool)
	exerciseRepo := repository.NewExerciseRepo(dbPool)
	measurementRepo := repository.NewMeasurementRepo(dbPool)
	waterRepo := repository.NewWaterRepo(dbPool)
	chatRepo := repository.NewChatRepo(dbPool)

	authService = services.NewAuthService(userRepo, []byte(jwtSecret))
	userService = services.NewUserService(userRepo)
	goalService = services.NewGoalService(goalRepo)
	foodService = services.NewFoodService(foodRepo)
	exerciseService = services.NewExerciseService(exerciseRepo)
	measurementService = services.NewMeasurementService(measurementRepo)
	waterService = services.NewWaterService(waterRepo)
	healthDataService = services.NewHealthDataService(measurementRepo, waterRepo, exerciseRepo)
	chatService = services.NewChatService(chatRepo, userRepo, cipher)
	retentionWorker = services.NewChatRetentionWorker(chatRepo)

	if adminEmail := os.Getenv("SPARKY_FITNESS_ADMIN_EMAIL"); adminEmail != "" {
		if err := authService.EnsureAdmin(ctx, adminEmail); err != nil {
			log.Warn().Err(err).Str("email", adminEmail).Msg("Could not promote admin user")
		}
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Info().Msg("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(authService, userService)
	goalHandler := handlers.NewGoalHandler(goalService)
	foodHandler := handlers.NewFoodHandler(foodService)
	exerciseHandler := handlers.NewExerciseHandler(exerciseService)
	measurementHandler := handlers.NewMeasurementHandler(measurementService)
	waterHandler := handlers.NewWaterHandler(waterService)
	healthDataHandler := handlers.NewHealthDataHandler(healthDataService)
	chatHandler := handlers.NewChatHandler(chatService)

	r := mux.NewRouter()

	apiLimiter := middleware.NewRateLimiter(5, 30)
	// Signup and login get a much tighter budget to slow down
	// credential stuffing.
	authLimiter := middleware.NewRateLimiter(1, 5)

	stopCleanup := make(chan struct{})
	go apiLimiter.CleanupVisitors(stopCleanup)
	go authLimiter.CleanupVisitors(stopCleanup)

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(apiLimiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "sparkyfitness-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API SUBROUTER
	// -------------------------------------------------------------------------
	api := standardRouter.PathPrefix("/api").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.Use(authLimiter.Middleware)
	auth.HandleFunc("/register", userHandler.Register).Methods("POST")
	auth.HandleFunc("/login", userHandler.Login).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/user/preferences", userHandler.GetPreferences).Methods("GET")
	protected.HandleFunc("/user/preferences", userHandler.UpdatePreferences).Methods("PUT")

	protected.HandleFunc("/goals", goalHandler.GetGoal).Methods("GET")
	protected.HandleFunc("/goals", goalHandler.UpsertGoal).Methods("PUT")

	protected.HandleFunc("/foods", foodHandler.Search).Methods("GET")
	protected.HandleFunc("/foods", foodHandler.Create).Methods("POST")
	protected.HandleFunc("/foods/{id}", foodHandler.Get).Methods("GET")
	protected.HandleFunc("/foods/{id}", foodHandler.Update).Methods("PUT")
	protected.HandleFunc("/foods/{id}", foodHandler.Delete).Methods("DELETE")

	protected.HandleFunc("/food-entries", foodHandler.AddEntry).Methods("POST")
	protected.HandleFunc("/food-entries/{date}", foodHandler.ListEntriesByDate).Methods("GET")
	protected.HandleFunc("/food-entries/{id}", foodHandler.UpdateEntry).Methods("PUT")
	protected.HandleFunc("/food-entries/{id}", foodHandler.DeleteEntry).Methods("DELETE")

	protected.HandleFunc("/exercises", exerciseHandler.Search).Methods("GET")
	protected.HandleFunc("/exercises", exerciseHandler.Create).Methods("POST")
	protected.HandleFunc("/exercises/{id}", exerciseHandler.Get).Methods("GET")
	protected.HandleFunc("/exercises/{id}", exerciseHandler.Update).Methods("PUT")
	protected.HandleFunc("/exercises/{id}", exerciseHandler.Delete).Methods("DELETE")

	protected.HandleFunc("/exercise-entries", exerciseHandler.AddEntry).Methods("POST")
	protected.HandleFunc("/exercise-entries/{date}", exerciseHandler.ListEntriesByDate).Methods("GET")
	protected.HandleFunc("/exercise-entries/{id}", exerciseHandler.UpdateEntry).Methods("PUT")
	protected.HandleFunc("/exercise-entries/{id}", exerciseHandler.DeleteEntry).Methods("DELETE")

	protected.HandleFunc("/check-in", measurementHandler.ListCheckIns).Methods("GET")
	protected.HandleFunc("/check-in", measurementHandler.UpsertCheckIn).Methods("PUT")
	protected.HandleFunc("/check-in/{date}", measurementHandler.GetCheckIn).Methods("GET")
	protected.HandleFunc("/check-in/{date}", measurementHandler.DeleteCheckIn).Methods("DELETE")

	protected.HandleFunc("/measurement-categories", measurementHandler.ListCategories).Methods("GET")
	protected.HandleFunc("/measurement-categories", measurementHandler.CreateCategory).Methods("POST")
	protected.HandleFunc("/measurement-categories/{id}", measurementHandler.UpdateCategory).Methods("PUT")
	protected.HandleFunc("/measurement-categories/{id}", measurementHandler.DeleteCategory).Methods("DELETE")

	// The category route is registered before the date route so that
	// "category" never gets read as a {date} value.
	protected.HandleFunc("/measurements", measurementHandler.CreateEntry).Methods("POST")
	protected.HandleFunc("/measurements/category/{id}", measurementHandler.ListEntriesByCategory).Methods("GET")
	protected.HandleFunc("/measurements/{date}", measurementHandler.ListEntriesByDate).Methods("GET")
	protected.HandleFunc("/measurements/{id}", measurementHandler.DeleteEntry).Methods("DELETE")

	protected.HandleFunc("/water", waterHandler.UpsertIntake).Methods("POST")
	protected.HandleFunc("/water/{date}", waterHandler.GetIntake).Methods("GET")

	protected.HandleFunc("/water-containers", waterHandler.ListContainers).Methods("GET")
	protected.HandleFunc("/water-containers", waterHandler.CreateContainer).Methods("POST")
	protected.HandleFunc("/water-containers/{id}", waterHandler.UpdateContainer).Methods("PUT")
	protected.HandleFunc("/water-containers/{id}", waterHandler.DeleteContainer).Methods("DELETE")
	protected.HandleFunc("/water-containers/{id}/primary", waterHandler.SetPrimaryContainer).Methods("POST")

	protected.HandleFunc("/health-data", healthDataHandler.Receive).Methods("POST")

	protected.HandleFunc("/chat", chatHandler.SendMessage).Methods("POST")
	protected.HandleFunc("/chat/history", chatHandler.History).Methods("GET")
	protected.HandleFunc("/chat/history", chatHandler.ClearHistory).Methods("DELETE")
	protected.HandleFunc("/chat/providers", chatHandler.ListProviders).Methods("GET")
	protected.HandleFunc("/chat/providers", chatHandler.CreateProvider).Methods("POST")
	protected.HandleFunc("/chat/providers/{id}", chatHandler.UpdateProvider).Methods("PUT")
	protected.HandleFunc("/chat/providers/{id}", chatHandler.DeleteProvider).Methods("DELETE")
	protected.HandleFunc("/chat/providers/{id}/activate", chatHandler.ActivateProvider).Methods("POST")

	// CORS configuration
	allowedOrigin := os.Getenv("SPARKY_FITNESS_FRONTEND_URL")
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{allowedOrigin}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3010"
	}
	port = ":" + port

	server := http.Server{
		Addr:        port,
		Handler:     corsHandler(r),
		ReadTimeout: 5 * time.Second,
		// AI chat completions can hold a response open for up to 35
		// seconds, so the write window has to outlast them.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Error starting server")
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Got signal")

	close(stopCleanup)
	retentionWorker.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server shutdown complete")
}
