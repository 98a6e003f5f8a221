package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"zonebourse-go/internal/apiclient"
	"zonebourse-go/internal/logger"
	"zonebourse-go/internal/model"
	"zonebourse-go/internal/services/catalog"
)

const (
	msgLoadBourses  = "Erreur lors du chargement des bourses"
	msgLoadDetail   = "Erreur lors du chargement des détails"
	msgLoginFailed  = "Erreur de connexion"
	msgSignupFailed = "Erreur d'inscription"
	msgLogoutFailed = "Erreur de déconnexion"
	msgMismatch     = "Les mots de passe ne correspondent pas"
	msgMissing      = "Veuillez remplir tous les champs obligatoires"
)

// listing loads the catalogue for a grid page. Failures are flashed and an
// empty grid is shown.
func (h *Handler) listing(r *http.Request, sess *model.Session) catalog.Listing {
	query := r.URL.Query().Get("q")
	listing, err := h.catalog.List(r.Context(), backendAuth(sess), query)
	if err != nil {
		logger.Error().Err(err).Msg("load bourses")
		sess.Flash.Error(msgLoadBourses)
		return catalog.Listing{Query: strings.TrimSpace(query)}
	}
	return listing
}

func gridData(listing catalog.Listing, gridID string, admin bool) map[string]any {
	return map[string]any{
		"GridID":  gridID,
		"Admin":   admin,
		"Bourses": listing.Bourses,
		"Stats":   listing.Stats,
		"Query":   listing.Query,
		"Total":   listing.Total,
	}
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	data := gridData(h.listing(r, sess), "boursesGrid", false)
	h.render(w, r, http.StatusOK, "home.html", data)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login.html", map[string]any{"Title": "Connexion"})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	in := model.LoginRequest{
		NumeroWhatsapp: strings.TrimSpace(r.PostFormValue("numero_whatsapp")),
		Password:       r.PostFormValue("password"),
	}
	data := map[string]any{"Title": "Connexion", "NumeroWhatsapp": in.NumeroWhatsapp}

	if err := h.validate.Struct(in); err != nil {
		sess.Flash.Error(msgMissing)
		h.render(w, r, http.StatusUnprocessableEntity, "login.html", data)
		return
	}

	result, auth, err := h.accounts.Login(r.Context(), in)
	if err != nil || !result.Success {
		logger.Warn().Err(err).Str("numero_whatsapp", in.NumeroWhatsapp).Msg("login failed")
		sess.Flash.Error(failureMessage(err, result, msgLoginFailed))
		h.render(w, r, http.StatusOK, "login.html", data)
		return
	}

	user := result.User
	if user == nil {
		user = &model.UserProfile{NumeroWhatsapp: in.NumeroWhatsapp}
	}
	h.rotate(w, r, sess)
	sess.User = user
	sess.Backend = storedCookies(auth)
	sess.Flash.Success(orDefault(result.Message, "Connexion réussie"))
	logger.Info().Str("numero_whatsapp", in.NumeroWhatsapp).Bool("admin", user.IsAdmin).Msg("user logged in")

	w.Header().Set("Refresh", "1; url=/dashboard")
	data["Redirect"] = true
	h.render(w, r, http.StatusOK, "login.html", data)
}

func (h *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register.html", map[string]any{
		"Title": "Inscription",
		"Form":  model.RegisterRequest{},
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	in := model.RegisterRequest{
		Nom:             strings.TrimSpace(r.PostFormValue("nom")),
		Prenom:          strings.TrimSpace(r.PostFormValue("prenom")),
		NumeroWhatsapp:  strings.TrimSpace(r.PostFormValue("numero_whatsapp")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	form := in
	form.Password, form.ConfirmPassword = "", ""
	data := map[string]any{"Title": "Inscription", "Form": form}

	if !in.PasswordsMatch() {
		sess.Flash.Error(msgMismatch)
		h.render(w, r, http.StatusUnprocessableEntity, "register.html", data)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		sess.Flash.Error(msgMissing)
		h.render(w, r, http.StatusUnprocessableEntity, "register.html", data)
		return
	}

	result, err := h.accounts.Register(r.Context(), in)
	if err != nil || !result.Success {
		logger.Warn().Err(err).Str("numero_whatsapp", in.NumeroWhatsapp).Msg("registration failed")
		sess.Flash.Error(failureMessage(err, result, msgSignupFailed))
		h.render(w, r, http.StatusOK, "register.html", data)
		return
	}

	sess.Flash.Success(orDefault(result.Message, "Inscription réussie"))
	w.Header().Set("Refresh", "2; url=/login")
	data["Redirect"] = true
	h.render(w, r, http.StatusOK, "register.html", data)
}

// handleLogout calls the backend once per submit. The local user is only
// forgotten when the backend confirms; on failure the current page is shown
// again with the error and nothing navigates.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	result, err := h.accounts.Logout(r.Context(), backendAuth(sess))
	if err != nil || !result.Success {
		logger.Warn().Err(err).Msg("logout failed")
		sess.Flash.Error(failureMessage(err, result, msgLogoutFailed))
		if sess.LoggedIn() {
			h.handleDashboard(w, r)
		} else {
			h.handleHome(w, r)
		}
		return
	}

	sess.SignOut()
	h.rotate(w, r, sess)
	sess.Flash.Success(orDefault(result.Message, "Déconnexion réussie"))
	w.Header().Set("Refresh", "1; url=/")
	h.render(w, r, http.StatusOK, "logout.html", map[string]any{"Title": "Déconnexion"})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	data := gridData(h.listing(r, sess), "boursesGrid", false)
	data["Title"] = "Tableau de bord"
	h.render(w, r, http.StatusOK, "dashboard.html", data)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	id, err := bourseID(r)
	if err != nil {
		sess.Flash.Error("Bourse introuvable")
		h.render(w, r, http.StatusNotFound, "detail.html", nil)
		return
	}

	bourse, err := h.catalog.Detail(r.Context(), backendAuth(sess), id)
	if err != nil {
		status := http.StatusOK
		if errors.Is(err, apiclient.ErrNotFound) {
			status = http.StatusNotFound
		} else {
			logger.Error().Err(err).Str("id", id.String()).Msg("load bourse detail")
		}
		sess.Flash.Error(apiclient.Message(err, msgLoadDetail))
		h.render(w, r, status, "detail.html", nil)
		return
	}

	h.render(w, r, http.StatusOK, "detail.html", map[string]any{
		"Title":  bourse.Titre,
		"Bourse": bourse,
	})
}

// failureMessage prefers the server message and falls back to a generic one
// for transport and decoding problems.
func failureMessage(err error, result model.Result, fallback string) string {
	if err != nil {
		return apiclient.Message(err, fallback)
	}
	return orDefault(result.Message, fallback)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
