package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"zonebourse-go/internal/apiclient"
	"zonebourse-go/internal/logger"
	"zonebourse-go/internal/model"
	"zonebourse-go/internal/repositories"
)

const (
	sessionCookie = "zb_session"
	multipartMem  = 32 << 20
	// formLimit caps bodies on routes that never take uploads.
	formLimit = 64 << 10
)

type contextKey string

const sessionContextKey contextKey = "session"

func sessionFrom(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(sessionContextKey).(*model.Session)
	return sess
}

// withSession loads the session named by the cookie or starts a new one.
// Sessions are persisted, and the cookie issued, only when a response is
// written through render or redirect.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *model.Session
		if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
			loaded, err := h.sessions.Get(r.Context(), cookie.Value)
			switch {
			case err == nil:
				sess = &loaded
			case errors.Is(err, repositories.ErrNotFound):
			default:
				logger.Error().Err(err).Msg("load session")
			}
		}
		if sess == nil {
			sess = &model.Session{ID: uuid.NewString()}
		}
		sess.Flash.SetClock(h.now)

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// rotate moves the session to a fresh id after a privilege change.
func (h *Handler) rotate(w http.ResponseWriter, r *http.Request, sess *model.Session) {
	if err := h.sessions.Delete(r.Context(), sess.ID); err != nil {
		logger.Warn().Err(err).Msg("delete rotated session")
	}
	sess.ID = uuid.NewString()
}

// persist saves the session and re-issues the cookie so its lifetime slides
// along with the stored expiry.
func (h *Handler) persist(w http.ResponseWriter, r *http.Request, sess *model.Session) {
	h.setCookie(w, sess.ID)
	if err := h.sessions.Save(r.Context(), *sess); err != nil {
		logger.Error().Err(err).Str("session", sess.ID).Msg("save session")
	}
}

func (h *Handler) csrfToken(sessionID string) string {
	mac := hmac.New(sha256.New, []byte(h.csrfSecret))
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))[:32]
}

// bodyLimit is the largest request body a route with the given access accepts.
func (h *Handler) bodyLimit(access Access) int64 {
	if access == Admin {
		return h.maxUpload
	}
	return formLimit
}

// verifyCSRF checks the form token on every state-changing request. It also
// caps the request body at limit, so multipart uploads are parsed here. It
// runs after guard, so only authorised sessions get their uploads read.
func (h *Handler) verifyCSRF(limit int64, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next(w, r)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, limit)
		var err error
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			err = r.ParseMultipartForm(multipartMem)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Requête trop volumineuse", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Formulaire invalide", http.StatusBadRequest)
			return
		}

		token := r.FormValue("csrf_token")
		if token == "" {
			token = r.Header.Get("X-CSRF-Token")
		}
		sess := sessionFrom(r.Context())
		if sess == nil || !hmac.Equal([]byte(token), []byte(h.csrfToken(sess.ID))) {
			http.Error(w, "Invalid CSRF token", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func (h *Handler) guard(access Access, next http.HandlerFunc) http.HandlerFunc {
	if access == Public {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		if !sess.LoggedIn() {
			sess.Flash.Error("Veuillez vous connecter")
			h.redirect(w, r, "/login")
			return
		}
		if access == Admin && !sess.IsAdmin() {
			sess.Flash.Error("Accès réservé aux administrateurs")
			h.redirect(w, r, "/dashboard")
			return
		}
		next(w, r)
	}
}

// render fills the layout keys, drains the flash board into the page and
// persists the session before writing.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	sess := sessionFrom(r.Context())
	data["User"] = sess.User
	data["CSRFToken"] = h.csrfToken(sess.ID)
	data["Flashes"] = sess.Flash.Drain(h.now())
	h.persist(w, r, sess)

	if err := h.renderer.Page(w, status, page, data); err != nil {
		logger.Error().Err(err).Str("page", page).Msg("render page")
		http.Error(w, "Erreur interne", http.StatusInternalServerError)
	}
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, target string) {
	h.persist(w, r, sessionFrom(r.Context()))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func backendAuth(sess *model.Session) apiclient.Auth {
	if len(sess.Backend) == 0 {
		return nil
	}
	auth := make(apiclient.Auth, 0, len(sess.Backend))
	for _, c := range sess.Backend {
		auth = append(auth, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return auth
}

func storedCookies(auth apiclient.Auth) []model.StoredCookie {
	out := make([]model.StoredCookie, 0, len(auth))
	for _, c := range auth {
		out = append(out, model.StoredCookie{Name: c.Name, Value: c.Value})
	}
	return out
}
