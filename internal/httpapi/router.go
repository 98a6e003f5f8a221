package httpapi

import (
	"context"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"zonebourse-go/internal/apiclient"
	"zonebourse-go/internal/logger"
	"zonebourse-go/internal/model"
	"zonebourse-go/internal/render"
	"zonebourse-go/internal/repositories"
	"zonebourse-go/internal/services/catalog"
)

// Accounts is the part of the backend that handles authentication.
type Accounts interface {
	Login(ctx context.Context, in model.LoginRequest) (model.Result, apiclient.Auth, error)
	Register(ctx context.Context, in model.RegisterRequest) (model.Result, error)
	Logout(ctx context.Context, auth apiclient.Auth) (model.Result, error)
}

type Deps struct {
	Catalog      *catalog.Service
	Accounts     Accounts
	Sessions     repositories.SessionRepository
	Renderer     *render.Renderer
	CSRFSecret   string
	CookieSecure bool
	SessionTTL   time.Duration
	MaxUpload    int64
	Pprof        bool
	Now          func() time.Time
}

type Handler struct {
	catalog      *catalog.Service
	accounts     Accounts
	sessions     repositories.SessionRepository
	renderer     *render.Renderer
	validate     *validator.Validate
	csrfSecret   string
	cookieSecure bool
	sessionTTL   time.Duration
	maxUpload    int64
	pprof        bool
	now          func() time.Time
}

func NewHandler(deps Deps) *Handler {
	h := &Handler{
		catalog:      deps.Catalog,
		accounts:     deps.Accounts,
		sessions:     deps.Sessions,
		renderer:     deps.Renderer,
		validate:     validator.New(),
		csrfSecret:   deps.CSRFSecret,
		cookieSecure: deps.CookieSecure,
		sessionTTL:   deps.SessionTTL,
		maxUpload:    deps.MaxUpload,
		pprof:        deps.Pprof,
		now:          deps.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.sessionTTL <= 0 {
		h.sessionTTL = 24 * time.Hour
	}
	if h.maxUpload <= 0 {
		h.maxUpload = 50 << 20
	}
	return h
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Requests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)

	r.NotFound(h.handleNotFound)
	r.Handle("/static/*", render.Static())

	r.Group(func(r chi.Router) {
		r.Use(h.withSession)
		for _, route := range h.Routes() {
			handler := h.verifyCSRF(h.bodyLimit(route.Access), route.Handler)
			r.Method(route.Method, route.Pattern, h.guard(route.Access, handler))
		}
	})

	if h.pprof {
		r.Route("/debug/pprof", func(r chi.Router) {
			r.Get("/", pprof.Index)
			r.Get("/cmdline", pprof.Cmdline)
			r.Get("/profile", pprof.Profile)
			r.Get("/symbol", pprof.Symbol)
			r.Post("/symbol", pprof.Symbol)
			r.Get("/trace", pprof.Trace)
			r.Get("/allocs", pprof.Handler("allocs").ServeHTTP)
			r.Get("/block", pprof.Handler("block").ServeHTTP)
			r.Get("/goroutine", pprof.Handler("goroutine").ServeHTTP)
			r.Get("/heap", pprof.Handler("heap").ServeHTTP)
			r.Get("/mutex", pprof.Handler("mutex").ServeHTTP)
			r.Get("/threadcreate", pprof.Handler("threadcreate").ServeHTTP)
		})
	}
	return r
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Page(w, http.StatusNotFound, "not_found.html", map[string]any{"Title": "Page introuvable"}); err != nil {
		logger.Error().Err(err).Msg("render not found page")
		http.NotFound(w, r)
	}
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
