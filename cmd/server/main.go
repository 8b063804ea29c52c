package main

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/cherianmatt/healthAI/internal/agent"
	"github.com/cherianmatt/healthAI/internal/interview"
	"github.com/cherianmatt/healthAI/internal/knowledge"
	"github.com/cherianmatt/healthAI/internal/logging"
	"github.com/cherianmatt/healthAI/internal/report"
)

func main() {
	logging.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	log := logging.New("server")

	// 1. Knowledge base. A broken base must never serve traffic.
	var (
		kb  *knowledge.Base
		err error
	)
	if kbPath := os.Getenv("KNOWLEDGE_BASE"); kbPath != "" {
		kb, err = knowledge.Load(kbPath)
	} else {
		kb, err = knowledge.Default()
	}
	if err != nil {
		log.Error("failed to load knowledge base", "error", err)
		os.Exit(1)
	}
	log.Info("knowledge base loaded", "symptoms", kb.Len())

	// 2. Session store. DATABASE_URL selects PostgreSQL; without it the
	// server runs on a local SQLite file.
	var repo interview.Repository
	storeKind := "sqlite"
	if dbConnStr := os.Getenv("DATABASE_URL"); dbConnStr != "" {
		db, err := connectPostgres(log, dbConnStr)
		if err != nil {
			log.Error("could not connect to database", "error", err)
			os.Exit(1)
		}
		if err := runMigrations(dbConnStr); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		log.Info("connected to database, migrations applied")
		repo = interview.NewRepository(db)
		storeKind = "postgres"
	} else {
		path := getenv("SQLITE_PATH", "healthai.db")
		repo, err = interview.NewSQLiteRepository(path)
		if err != nil {
			log.Error("could not open session store", "error", err)
			os.Exit(1)
		}
		log.Info("using sqlite session store", "path", path)
	}

	// 3. Clients. Both are optional: without them the pipeline still
	// answers with template questions and text-only recordings.
	var gen interview.QuestionGenerator
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		gen = agent.NewOpenAIGenerator(key, os.Getenv("OPENAI_MODEL"))
	} else {
		log.Warn("OPENAI_API_KEY not set, question suggestions use templates only")
	}

	var stt interview.Transcriber
	if key := os.Getenv("ASSEMBLYAI_API_KEY"); key != "" {
		stt = agent.NewAssemblyAIClient(key)
	} else {
		log.Warn("ASSEMBLYAI_API_KEY not set, audio uploads will be rejected")
	}

	// 4. Services
	reportSvc := report.NewService(kb)
	svc := interview.NewService(repo, kb, gen, stt, reportSvc)

	questionSource := "templates"
	if gen != nil {
		questionSource = "openai"
	}
	transcriber := "disabled"
	if stt != nil {
		transcriber = "assemblyai"
	}
	handler := interview.NewHandler(svc, interview.HealthInfo{
		SymptomsLoaded: kb.Len(),
		QuestionSource: questionSource,
		Transcriber:    transcriber,
		SessionStore:   storeKind,
	})

	// 5. Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
			if r.Method == "OPTIONS" {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", handler.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		interview.RegisterRoutes(r, handler)
	})

	port := getenv("PORT", "8080")
	log.Info("server starting", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func connectPostgres(log *slog.Logger, connStr string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			return db, nil
		}
		log.Info("waiting for database", "attempt", i+1)
		time.Sleep(2 * time.Second)
	}
	return nil, err
}

func runMigrations(dbConnStr string) error {
	m, err := migrate.New("file://migrations", dbConnStr)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
