package server

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"dialogue/internal/directory"
	"dialogue/internal/domain/assessment"
	"dialogue/internal/domain/audit"
	"dialogue/internal/domain/identity"
	"dialogue/internal/domain/notifications"
	"dialogue/internal/platform/config"
	cryptoutil "dialogue/internal/platform/crypto"
	"dialogue/internal/platform/db"
	"dialogue/internal/platform/email"
	"dialogue/internal/platform/metrics"
	assessmenthandler "dialogue/internal/transport/http/handlers/assessment"
	authhandler "dialogue/internal/transport/http/handlers/auth"
	notificationshandler "dialogue/internal/transport/http/handlers/notifications"
	reportshandler "dialogue/internal/transport/http/handlers/reports"
	"dialogue/internal/transport/http/middleware"
)

type App struct {
	Config   config.Config
	Pool     *pgxpool.Pool
	Router   http.Handler
	Sessions identity.StoreAPI
}

// New builds the full application graph against an already reachable
// database. Run wraps it for the binary; tests can call it directly.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			pool.Close()
			return nil, err
		}
	}

	cryptoSvc, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, err
	}

	sessionStore := identity.NewStore(pool, cryptoSvc)
	assessmentStore := assessment.NewStore(pool)
	assessmentSvc := assessment.NewService(assessmentStore, cfg.PMDashboardAllStatuses)
	auditSvc := audit.New(pool)
	notificationSvc := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailFrom)
	dirClient := directory.New(cfg.GraphBaseURL, cfg.DirectoryTimeout)

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.AzureClientID,
		ClientSecret: cfg.AzureClientSecret,
		RedirectURL:  cfg.AzureRedirectURL,
		Endpoint:     microsoft.AzureADEndpoint(cfg.AzureTenantID),
		Scopes:       []string{"openid", "profile", "email", "User.Read", "Directory.Read.All"},
	}

	secureCookies := cfg.Environment == "production"
	authHandler := authhandler.New(oauthCfg, sessionStore, dirClient, auditSvc, cfg.SessionSecret, cfg.SessionTTL, secureCookies)
	assessmentHandler := assessmenthandler.New(assessmentSvc, auditSvc, notificationSvc)
	reportsHandler := reportshandler.New(assessmentSvc)
	notificationsHandler := notificationshandler.New(notificationSvc)

	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(collector))
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(collector.Snapshot())
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/auth/login", authHandler.HandleLogin)
		r.Get("/auth/redirect", authHandler.HandleRedirect)
		r.Post("/auth/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg.SessionSecret, sessionStore))
			r.Get("/auth/me", authHandler.HandleMe)
			assessmentHandler.RegisterRoutes(r)
			reportsHandler.RegisterRoutes(r)
			notificationsHandler.RegisterRoutes(r)
		})
	})

	return &App{
		Config:   cfg,
		Pool:     pool,
		Router:   router,
		Sessions: sessionStore,
	}, nil
}

func (a *App) Close() {
	a.Pool.Close()
}

// cleanupSessions deletes expired session rows on an hourly tick.
func (a *App) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := a.Sessions.DeleteExpired(ctx)
			if err != nil {
				slog.Warn("session cleanup failed", "err", err)
				continue
			}
			if deleted > 0 {
				slog.Info("expired sessions removed", "count", deleted)
			}
		}
	}
}

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration invalid: %v", err)
	}

	ctx := context.Background()
	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	go app.cleanupSessions(ctx)

	log.Printf("dialogue server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
