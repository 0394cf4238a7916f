package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpattn/sortable/internal/config"
	"github.com/rpattn/sortable/internal/db"
	"github.com/rpattn/sortable/internal/export"
	"github.com/rpattn/sortable/internal/graphql"
	"github.com/rpattn/sortable/internal/ingestion"
	"github.com/rpattn/sortable/internal/middleware"
	"github.com/rpattn/sortable/internal/repository"
	"github.com/rpattn/sortable/pkg/sortspec"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/rs/cors"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database, "./migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Register sortable entity types
	reg, err := buildRegistry(cfg.Sorting)
	if err != nil {
		log.Fatalf("Failed to build entity registry: %v", err)
	}

	sortLogger := sortspec.LoggerFunc(func(format string, args ...any) {
		log.Printf("[SORT] "+format, args...)
	})

	// Create repositories
	taskRepo := repository.NewTaskRepository(conn.Pool, reg.MustGet("tasks"), sortLogger)
	projectRepo := repository.NewProjectRepository(conn.Pool, reg.MustGet("projects"), sortLogger)
	userRepo := repository.NewUserRepository(conn.Pool, reg.MustGet("users"), sortLogger)
	importLogRepo := repository.NewImportLogRepository(conn.Pool)

	// Create GraphQL resolver
	resolver := graphql.NewResolver(reg, taskRepo, projectRepo, userRepo, cfg.Sorting.Policy)

	// Create GraphQL server
	srv := handler.NewDefaultServer(graphql.NewExecutableSchema(resolver))

	// Add the operation logging extension
	srv.Use(&middleware.OperationLoggerExtension{})

	// Create REST services
	exportService := export.NewService(taskRepo, projectRepo, userRepo)
	exportHandler := export.NewHTTPHandler(exportService, cfg.Sorting.Policy)
	ingestionService := ingestion.NewService(taskRepo, projectRepo, userRepo, importLogRepo)
	ingestionHandler := ingestion.NewHTTPHandler(ingestionService)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	withPolicy := middleware.PolicyMiddleware(cfg.Sorting.Policy, cfg.Sorting.AllowHeaderOverride)

	graphqlHandler := middleware.LoggingMiddleware(
		withPolicy(middleware.DataLoaderMiddleware(projectRepo, userRepo)(srv)),
	)
	restHandler := func(h http.Handler) http.Handler {
		return middleware.LoggingMiddleware(withPolicy(h))
	}

	http.Handle("/query", corsHandler.Handler(graphqlHandler))
	http.Handle("/", corsHandler.Handler(middleware.LoggingMiddleware(playground.Handler("GraphQL playground", "/query"))))
	http.Handle("/api/tasks", corsHandler.Handler(restHandler(exportHandler)))
	http.Handle("/api/tasks/export", corsHandler.Handler(restHandler(exportHandler)))
	http.Handle("/api/tasks/import", corsHandler.Handler(restHandler(ingestionHandler)))
	http.Handle("/api/imports/errors", corsHandler.Handler(restHandler(ingestionHandler)))

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		log.Println("GraphQL playground available at /")
		log.Println("GraphQL endpoint available at /query")
		log.Println("Task REST endpoints available under /api/tasks")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
