package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/edunav/admitscore/internal/api/http"
	"github.com/edunav/admitscore/internal/catalog"
	"github.com/edunav/admitscore/internal/config"
	"github.com/edunav/admitscore/internal/db"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// --- Catalog source ---
	var load api.SnapshotLoader
	switch cfg.CatalogSource {
	case config.SourceDB:
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		store := catalog.NewSQLStore(dbh)
		load = store.LoadLatest
	case config.SourceFile:
		load = func(context.Context) (*catalog.Snapshot, error) {
			return catalog.LoadFile(cfg.CatalogPath)
		}
	default:
		log.Fatalf("unknown catalog source: %s", cfg.CatalogSource)
	}

	snap, err := load(ctx)
	if err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}
	holder := catalog.NewHolder(snap)
	log.Printf("catalog %s (year %d) loaded: %d formulas, %d programs",
		snap.Version, snap.Year, snap.Formulas.Len(), len(snap.Engine.Programs()))

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(ar chi.Router) {
		ar.Post("/convert", api.ConvertHandler(holder))
		ar.Post("/score", api.ScoreHandler(holder))
		ar.Post("/search", api.SearchHandler(holder))
		ar.Get("/programs", api.ListProgramsHandler(holder))
		ar.Post("/admin/catalog/reload", api.ReloadHandler(holder, load))
	})

	log.Printf("listening on %s (mode=%s)", cfg.HTTPAddr, cfg.Mode)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("server: %v", err)
	}
}
