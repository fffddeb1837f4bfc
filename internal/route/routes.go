package route

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/afero"

	"beecam/internal/handler"
	"beecam/internal/logger"
	"beecam/internal/middleware"
	"beecam/internal/repository"
	"beecam/internal/service/query"
	hubsvc "beecam/internal/service/websocket"
	"beecam/internal/state"
)

// Deps are the services the HTTP surface reads from.
type Deps struct {
	Password string
	Fs       afero.Fs
	Runtime  *state.Runtime
	Query    *query.Service
	Hub      *hubsvc.HubService
	Journal  repository.JournalRepository
	Logger   *logger.Logger
}

// SetupRoutes registers the query API, the viewer pages and the log
// endpoints. Every response is sent with caching disabled.
func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(middleware.AuthMiddleware(d.Password))

	r.NotFound(handler.NotFoundHandler)

	// Query API
	r.Get("/api/health", handler.HealthHandler)
	r.Get("/api/state", handler.GetStateHandler(d.Runtime, d.Logger))
	r.Post("/api/state", handler.SetStateHandler(d.Runtime, publisher(d.Hub), d.Logger))
	r.Get("/api/boots", handler.BootsHandler(d.Query, d.Logger))
	r.Get("/api/images", handler.ImagesHandler(d.Query, d.Logger))
	r.Get("/sd", handler.FileHandler(d.Query, d.Logger))

	// Journal and live updates
	r.Get("/api/journal", handler.JournalHandler(d.Journal, d.Logger))
	r.Get("/api/journal/crops", handler.JournalCropsHandler(d.Journal, d.Logger))
	if d.Hub != nil {
		r.Get("/api/live", handler.LiveWebsocketHandler(d.Hub, d.Runtime, d.Logger))
	}

	// Log endpoints
	r.Get("/logs/session", handler.SessionLogHandler(d.Fs, d.Runtime))
	r.Get("/logs/info", handler.ShowInfoLogsHandler(d.Logger))
	r.Get("/logs/warning", handler.ShowWarningLogsHandler(d.Logger))
	r.Get("/logs/error", handler.ShowErrorLogsHandler(d.Logger))
	r.Post("/logs/info/clear", handler.ClearLogsHandler(d.Logger, logger.InfoFile))
	r.Post("/logs/warning/clear", handler.ClearLogsHandler(d.Logger, logger.WarningFile))
	r.Post("/logs/error/clear", handler.ClearLogsHandler(d.Logger, logger.ErrorFile))

	// Viewer and auth
	r.Get("/", handler.IndexHandler)
	r.Get("/login", handler.LoginPageHandler)
	r.Post("/auth/login", handler.LoginHandler(d.Password, d.Logger))
	r.Post("/auth/logout", handler.LogoutHandler)

	return r
}

// publisher keeps a nil hub from turning into a non-nil interface.
func publisher(hub *hubsvc.HubService) handler.Publisher {
	if hub == nil {
		return nil
	}
	return hub
}
