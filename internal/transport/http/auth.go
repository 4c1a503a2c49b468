package http

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apierrors "gradepulse/internal/errors"
)

const (
	sessionCookieName = "gradepulse_session"
	sessionTTL        = 12 * time.Hour
)

// Auth guards the dashboard with a single admin password. Sessions are
// opaque random tokens held in memory; restarting the service logs
// everyone out, which is acceptable for an operator dashboard.
type Auth struct {
	passwordHash string
	logger       *slog.Logger

	mu       sync.Mutex
	sessions map[string]time.Time
}

// NewAuth creates the auth layer. An empty bcrypt hash disables
// authentication entirely, mirroring how an empty DSN selects the
// in-memory store.
func NewAuth(passwordHash string, logger *slog.Logger) *Auth {
	return &Auth{
		passwordHash: passwordHash,
		logger:       logger.With(slog.String("component", "auth")),
		sessions:     make(map[string]time.Time),
	}
}

// Enabled reports whether a password hash is configured
func (a *Auth) Enabled() bool {
	return a.passwordHash != ""
}

// loginRequest is the POST /api/login body
type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

// Bind implements render.Binder
func (req *loginRequest) Bind(r *http.Request) error {
	if apiErr := validateStruct(req); apiErr != nil {
		return apiErr
	}
	return nil
}

// Login handles POST /api/login
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	req := &loginRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(bindError(err)))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(req.Password)); err != nil {
		a.logger.WarnContext(r.Context(), "login rejected",
			slog.String("remote_addr", r.RemoteAddr))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrUnauthorized))
		return
	}

	token := uuid.NewString()
	a.mu.Lock()
	a.sessions[token] = time.Now().Add(sessionTTL)
	a.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(sessionTTL),
	})

	a.logger.InfoContext(r.Context(), "admin logged in")
	render.JSON(w, r, map[string]bool{"success": true})
}

// Logout handles POST /api/logout
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		a.mu.Lock()
		delete(a.sessions, cookie.Value)
		a.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	render.JSON(w, r, map[string]bool{"success": true})
}

// Middleware rejects requests without a live session. With auth
// disabled it is a no-op.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || !a.validSession(cookie.Value) {
			apierrors.WriteError(w, apierrors.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) validSession(token string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	expiry, ok := a.sessions[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(a.sessions, token)
		return false
	}
	return true
}
