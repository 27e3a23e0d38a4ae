package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/campuslend/lendhub/internal/config"
	"github.com/campuslend/lendhub/internal/db"
	"github.com/campuslend/lendhub/internal/handlers"
	"github.com/campuslend/lendhub/internal/lifecycle"
	mw "github.com/campuslend/lendhub/internal/middleware"
	"github.com/campuslend/lendhub/internal/repo"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "prod" && cfg.JWTSecret == "supersecretkey" {
		log.Fatal("JWT_SECRET must be set in prod")
	}

	setupLogging(cfg.LogFormat)

	database, err := db.Connect(
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBUser,
		cfg.DBPass,
		cfg.DBMaxOpenConns,
		cfg.DBMaxIdleConns,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.Run(cfg.DatabaseURL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Connected to the database, migrations applied")

	// Stores and the lifecycle engine.
	itemRepo := repo.NewItemRepo(database)
	requestRepo := repo.NewRequestRepo(database)
	auditRepo := repo.NewAuditRepo(database)
	userRepo := repo.NewUserRepo(database)
	engine := lifecycle.NewEngine(itemRepo, requestRepo, auditRepo)

	itemHandler := &handlers.ItemHandler{Repo: itemRepo, Audit: auditRepo}
	requestHandler := &handlers.RequestHandler{Engine: engine, Repo: requestRepo}
	memberHandler := &handlers.MemberHandler{UserRepo: userRepo, Audit: auditRepo}
	logHandler := &handlers.LogHandler{Repo: auditRepo}
	authHandler := &handlers.AuthHandler{
		UserRepo:    userRepo,
		Secret:      []byte(cfg.JWTSecret),
		ExpireHours: cfg.JWTExpireHours,
	}

	useTLS := cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLog)
	r.Use(mw.Recoverer)
	r.Use(mw.Prometheus)
	r.Use(mw.SecurityHeaders(useTLS))
	r.Use(mw.CORS(cfg.CORSAllowedOrigins))
	r.Use(mw.MaxBytes(cfg.MaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authLimit := mw.AuthRateLimit()
	submitLimit := mw.SubmitRateLimit()

	// Public routes.
	r.Group(func(r chi.Router) {
		r.With(authLimit).Post("/v1/auth/login", authHandler.Login)
		r.With(authLimit).Post("/v1/auth/seed-super", authHandler.SeedSuper)
		r.Get("/v1/items", itemHandler.List)
		r.Get("/v1/items/{id}", itemHandler.Get)
		r.With(submitLimit).Post("/v1/requests", requestHandler.Submit)
	})

	// Staff routes: request handling. One guard for every transition.
	r.Group(func(r chi.Router) {
		r.Use(mw.Auth([]byte(cfg.JWTSecret)))
		r.Use(mw.RequireStaff)
		r.Get("/v1/requests", requestHandler.List)
		r.Post("/v1/requests/{id}/approve", requestHandler.Approve)
		r.Post("/v1/requests/{id}/reject", requestHandler.Reject)
		r.Post("/v1/requests/{id}/return", requestHandler.Return)
	})

	// Super routes: item CRUD, members, log reporting.
	r.Group(func(r chi.Router) {
		r.Use(mw.Auth([]byte(cfg.JWTSecret)))
		r.Use(mw.RequireSuper)
		r.Post("/v1/items", itemHandler.Create)
		r.Put("/v1/items/{id}", itemHandler.Update)
		r.Delete("/v1/items/{id}", itemHandler.Delete)
		r.Get("/v1/members", memberHandler.List)
		r.Post("/v1/members", memberHandler.Create)
		r.Post("/v1/members/{id}/approve", memberHandler.Approve)
		r.Get("/v1/logs", logHandler.List)
	})

	addr := ":" + cfg.Port
	if useTLS {
		log.Println("Starting HTTPS server on " + addr)
		err = http.ListenAndServeTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile, r)
	} else {
		log.Println("Starting server on " + addr)
		err = http.ListenAndServe(addr, r)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func setupLogging(format string) {
	if format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}
}
