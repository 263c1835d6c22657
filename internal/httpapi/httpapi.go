package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"luxepos/internal/cart"
	"luxepos/internal/invoice"
	"luxepos/internal/market"
	"luxepos/internal/service"
	"luxepos/internal/session"
	"luxepos/internal/store"
)

type Options struct {
	AllowedOrigin string
	// StaticDir holds the built single-page app. When empty, browser
	// routes answer with a JSON description of the view instead.
	StaticDir string
	Logger    logrus.FieldLogger
}

type API struct {
	service       *service.Service
	guard         *session.Guard
	tokens        *TokenIssuer
	allowedOrigin string
	staticDir     string
	log           logrus.FieldLogger
	loginLimiter  *attemptLimiter
}

func New(svc *service.Service, guard *session.Guard, tokens *TokenIssuer, opts Options) *API {
	if svc == nil || guard == nil || tokens == nil {
		panic("httpapi: nil dependency")
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &API{
		service:       svc,
		guard:         guard,
		tokens:        tokens,
		allowedOrigin: opts.AllowedOrigin,
		staticDir:     strings.TrimSpace(opts.StaticDir),
		log:           log.WithField("component", "http"),
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	entries   map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time), now: time.Now}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(cutoff)
		l.lastSweep = now
	}

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	l.entries[key] = append(kept, now)
	return true
}

// sweep drops keys with no attempt inside the window.
func (l *attemptLimiter) sweep(cutoff time.Time) {
	for key, history := range l.entries {
		if len(history) == 0 || !history[len(history)-1].After(cutoff) {
			delete(l.entries, key)
		}
	}
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(a.withHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMethodNotAllowed(w)
	})

	r.Get("/healthz", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)
		r.Get("/auth/session", a.handleSession)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)

			r.Post("/auth/logout", a.handleLogout)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", a.handleListProducts)
				r.Post("/", a.handleCreateProduct)
				r.Get("/{id}", a.handleGetProduct)
				r.Put("/{id}", a.handleUpdateProduct)
				r.Delete("/{id}", a.handleDeleteProduct)
				r.Put("/{id}/stock", a.handleSetStock)
				r.Post("/{id}/stock/adjust", a.handleAdjustStock)
			})
			r.Get("/inventory/summary", a.handleInventorySummary)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", a.handleCart)
				r.Delete("/", a.handleClearCart)
				r.Post("/items", a.handleAddCartItem)
				r.Patch("/items/{id}", a.handleUpdateCartItem)
				r.Delete("/items/{id}", a.handleRemoveCartItem)
				r.Post("/checkout", a.handleCheckout)
			})

			r.Route("/sales", func(r chi.Router) {
				r.Get("/", a.handleListSales)
				r.Get("/export.csv", a.handleExportSales)
				r.Get("/dashboard", a.handleDashboard)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", a.handleListInvoices)
				r.Get("/picker", a.handlePicker)
				r.Post("/drafts", a.handleCreateDraft)
				r.Get("/drafts/{id}", a.handleGetDraft)
				r.Patch("/drafts/{id}", a.handleUpdateDraft)
				r.Delete("/drafts/{id}", a.handleDiscardDraft)
				r.Post("/drafts/{id}/items", a.handleAddDraftItem)
				r.Patch("/drafts/{id}/items/{index}", a.handleUpdateDraftItem)
				r.Delete("/drafts/{id}/items/{index}", a.handleRemoveDraftItem)
				r.Post("/drafts/{id}/submit", a.handleSubmitDraft)
				r.Get("/{id}", a.handleGetInvoice)
			})

			r.Get("/news", a.handleNews)
		})
	})

	a.mountViews(r)
	return r
}

// requireAuth admits a request only when its bearer token is valid and
// names the user the guard currently holds a session for.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		claimed, err := a.tokens.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		current, ok := a.guard.Current()
		if !ok || !strings.EqualFold(current.Email, claimed.Email) {
			writeError(w, http.StatusUnauthorized, errors.New("session is not active"))
			return
		}

		next.ServeHTTP(w, r.WithContext(service.WithUser(r.Context(), current)))
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		startedAt := time.Now()
		next.ServeHTTP(ww, r)
		a.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(startedAt).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}

func (a *API) withHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, invoice.ErrSubmitted):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrInvalidProduct),
		errors.Is(err, invoice.ErrValidation),
		errors.Is(err, invoice.ErrWrongType),
		errors.Is(err, invoice.ErrItemIndex),
		errors.Is(err, cart.ErrEmpty),
		errors.Is(err, cart.ErrInvalidPaymentMethod):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrNoData):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		a.log.WithError(err).WithFields(logrus.Fields{
			"status":     status,
			"request_id": middleware.GetReqID(r.Context()),
		}).Error("request failed")
	}
	writeError(w, status, err)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(r *http.Request, dest any) error {
	if err := decodeJSON(r, dest); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func pathIndex(r *http.Request, name string) (int, error) {
	index, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || index < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return index, nil
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// writeError hides the message of 5xx responses. 4xx messages are meant
// for the client and go out unchanged.
func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
