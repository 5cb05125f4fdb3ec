package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/brumalio/taskforge/internal/taskforge/service"
	"github.com/brumalio/taskforge/internal/taskforge/store"
	"github.com/brumalio/taskforge/pkg/httpx"
	"github.com/brumalio/taskforge/pkg/slogx"

	_ "github.com/brumalio/taskforge/api/taskforge" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	UserService  *service.UserService
	TokenService *service.TokenService
	TaskService  *service.TaskService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTasks()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
//
//	@title			TaskForge API
//	@version		0.1.0
//	@description	Multi-user task tracking API with bearer-token authentication.
//	@description	Tasks are strictly owner-scoped: another user's task is indistinguishable from a nonexistent one.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	registerHandler := &RegisterHandler{UserService: r.UserService}
	loginHandler := &LoginHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
	}

	// Both credential endpoints get the strict per-IP limit; they are the
	// brute-force surface.
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerTasks() {
	h := &TasksHandler{TaskService: r.TaskService}
	authn := AuthnMiddleware(r.TokenService, r.UserService)

	// Authn runs before the per-user limiter so the limiter can key on the
	// resolved identity.
	r.Mux.Handle("POST /tasks",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			authn,
			rateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /tasks",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			authn,
			rateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /tasks/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			authn,
			rateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PATCH /tasks/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			authn,
			rateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /tasks/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			authn,
			rateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
