package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/fudahub/fudahub/internal/api/http"
	"github.com/fudahub/fudahub/internal/auth"
	authmw "github.com/fudahub/fudahub/internal/auth/middleware"
	"github.com/fudahub/fudahub/internal/config"
	"github.com/fudahub/fudahub/internal/corpus"
	"github.com/fudahub/fudahub/internal/db"
	"github.com/fudahub/fudahub/internal/group"
	"github.com/fudahub/fudahub/internal/match"
	"github.com/fudahub/fudahub/internal/ranking"
	"github.com/fudahub/fudahub/internal/rbac"
	"github.com/fudahub/fudahub/internal/storage"
	syncx "github.com/fudahub/fudahub/internal/sync"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	poems := corpus.NewSQLStore(dbh)
	matchStore := match.NewSQLStore(dbh)
	seasons := ranking.NewSQLStore(dbh)
	groups := group.NewSQLStore(dbh)
	events := syncx.NewEventRepo(dbh)
	users := auth.NewUserStore(dbh)

	if err := users.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	validator := match.NewValidator(matchStore, poems, cfg.Match, events)
	engine := match.NewEngine(matchStore, poems, cfg.Match, validator, nil)

	authSvc := authmw.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

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
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/register", api.RegisterHandler(users, authSvc))
		r.Post("/auth/login", api.LoginHandler(users, authSvc))
	}

	// Protected API (JWT → subject+role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))

		pr.With(rbac.Require("poems:view")).Get("/poems", api.ListPoemsHandler(poems))
		pr.With(rbac.Require("poems:view")).Get("/poems/{poemID}", api.GetPoemHandler(poems))
		pr.With(rbac.Require("poems:import")).Post("/poems/import", api.ImportPoemsHandler(poems))

		pr.With(rbac.Require("poems:view")).Get("/levels", api.ListLevelsHandler())

		// Match flow
		pr.With(rbac.Require("sessions:create")).
			Post("/sessions", api.CreateSessionHandler(engine, seasons))
		pr.With(rbac.Require("sessions:answer")).
			Post("/sessions/{sessionID}/answers", api.AnswerHandler(engine))
		pr.With(rbac.Require("sessions:submit")).
			Post("/sessions/{sessionID}/submit", api.SubmitSessionHandler(engine))
		pr.With(rbac.Require("sessions:answer")).
			Get("/sessions/{sessionID}/question", api.CurrentQuestionHandler(engine))
		pr.With(rbac.RequireAny("sessions:view-own", "sessions:view-all")).
			Get("/sessions/{sessionID}", api.GetSessionHandler(matchStore, engine))
		pr.With(rbac.RequireAny("sessions:view-own", "sessions:view-all")).
			Get("/sessions", api.ListSessionsHandler(matchStore))

		// Seasons and the banzuke
		pr.With(rbac.Require("ranking:view")).
			Get("/seasons/current", api.CurrentSeasonHandler(seasons))
		pr.With(rbac.Require("seasons:manage")).
			Post("/seasons", api.CreateSeasonHandler(seasons))
		pr.With(rbac.Require("ranking:view")).
			Get("/seasons/{seasonID}/ranking", api.SeasonRankingHandler(seasons))

		// Clubs
		pr.With(rbac.Require("groups:create")).Post("/groups", api.CreateGroupHandler(groups))
		pr.With(rbac.Require("groups:view")).Get("/groups", api.ListGroupsHandler(groups))
		pr.With(rbac.Require("groups:view")).Get("/groups/{groupID}", api.GetGroupHandler(groups, seasons))
		pr.With(rbac.Require("groups:join")).Post("/groups/{groupID}/join", api.JoinGroupHandler(groups))
		pr.With(rbac.Require("groups:join")).Post("/groups/{groupID}/leave", api.LeaveGroupHandler(groups))
		pr.With(rbac.Require("groups:manage")).Delete("/groups/{groupID}/members/{userID}", api.RemoveMemberHandler(groups))

		// Admin tooling
		pr.With(rbac.Require("admin:sweep")).
			Post("/admin/sessions/sweep", api.SweepExpiredHandler(matchStore, events, cfg.Match.Expiry))

		// Recitation audio
		pr.With(rbac.Require("poems:view")).
			Get("/assets/poems/{poemID}/audio", api.GetPoemAudioHandler(bs))
		pr.With(rbac.Require("assets:upload")).
			Put("/assets/poems/{poemID}/audio", api.PutPoemAudioHandler(bs, poems))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
