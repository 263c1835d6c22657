package httpapi

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

const (
	loginPath   = "/login"
	landingPath = "/news"
)

var viewRoutes = []string{
	loginPath,
	landingPath,
	"/inventory",
	"/inventory/new",
	"/inventory/edit/{id}",
	"/invoice",
	"/invoice/create",
	"/sales",
}

func (a *API) mountViews(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, landingPath, http.StatusFound)
	})
	for _, route := range viewRoutes {
		r.Get(route, a.handleView)
	}
	if a.staticDir != "" {
		r.Handle("/assets/*", http.FileServer(http.Dir(a.staticDir)))
	}
}

// handleView gates the browser routes on the session: signed-out visitors
// only see the login view, signed-in ones never do.
func (a *API) handleView(w http.ResponseWriter, r *http.Request) {
	user, authenticated := a.guard.Current()
	onLogin := r.URL.Path == loginPath

	switch {
	case !authenticated && !onLogin:
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	case authenticated && onLogin:
		http.Redirect(w, r, landingPath, http.StatusFound)
		return
	}

	if a.staticDir != "" {
		index := filepath.Join(a.staticDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	}

	view := map[string]any{
		"view":          r.URL.Path,
		"authenticated": authenticated,
	}
	if authenticated {
		view["user"] = user
	}
	if t := r.URL.Query().Get("type"); t != "" && r.URL.Path == "/invoice/create" {
		view["type"] = t
	}
	writeJSON(w, http.StatusOK, view)
}
