package httpapi

import "net/http"

// Access is the minimum session state a route requires.
type Access int

const (
	Public Access = iota
	Member
	Admin
)

func (a Access) String() string {
	switch a {
	case Member:
		return "member"
	case Admin:
		return "admin"
	default:
		return "public"
	}
}

type Route struct {
	Name    string
	Method  string
	Pattern string
	Access  Access
	Handler http.HandlerFunc
}

// Routes is the full table of pages served behind the session middleware.
// Anything not listed here is answered by the not-found page.
func (h *Handler) Routes() []Route {
	return []Route{
		{"home", http.MethodGet, "/", Public, h.handleHome},
		{"home-index", http.MethodGet, "/index.html", Public, h.handleHome},
		{"login-page", http.MethodGet, "/login", Public, h.handleLoginPage},
		{"login", http.MethodPost, "/login", Public, h.handleLogin},
		{"register-page", http.MethodGet, "/register", Public, h.handleRegisterPage},
		{"register", http.MethodPost, "/register", Public, h.handleRegister},
		{"logout", http.MethodPost, "/logout", Public, h.handleLogout},
		{"dashboard", http.MethodGet, "/dashboard", Member, h.handleDashboard},
		{"bourse-detail", http.MethodGet, "/bourse/{id}", Public, h.handleDetail},
		{"admin", http.MethodGet, "/admin", Admin, h.handleAdmin},
		{"admin-create", http.MethodPost, "/admin/bourses", Admin, h.handleCreate},
		{"admin-edit", http.MethodPost, "/admin/bourses/{id}/edit", Admin, h.handleEdit},
		{"admin-delete", http.MethodPost, "/admin/bourses/{id}/delete", Admin, h.handleDelete},
		{"admin-previews", http.MethodPost, "/admin/previews", Admin, h.handlePreviews},
		{"admin-export", http.MethodGet, "/admin/export.xlsx", Admin, h.handleExport},
		{"healthz", http.MethodGet, "/healthz", Public, h.handleHealthz},
	}
}
