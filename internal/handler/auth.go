package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/abacus-app/abacus/internal/auth"
	"github.com/abacus-app/abacus/internal/handler/dto"
	"github.com/abacus-app/abacus/internal/middleware"
)

// AuthService is the identity lifecycle used by AuthHandler.
type AuthService interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (*auth.SignInResult, error)
	SignIn(ctx context.Context, email, password string) (*auth.SignInResult, error)
	SignOut(ctx context.Context, token string) error
	StartFederated(ctx context.Context) (*auth.FederatedStart, error)
	CompleteFederated(ctx context.Context, signedState, code string) (*auth.SignInResult, error)
	PollFederated(ctx context.Context, signedState string) (*auth.SignInResult, error)
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Secure bool
	// Landing is where the browser goes after a federated callback.
	Landing string
}

// AuthHandler handles sign-up, sign-in, sign-out and federated sign-in.
type AuthHandler struct {
	svc    AuthService
	cookie CookieConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AuthService, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	if cookie.Landing == "" {
		cookie.Landing = "/"
	}
	return &AuthHandler{svc: svc, cookie: cookie, logger: logger, now: time.Now}
}

// SignUp handles POST /api/v1/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.SignUp(r.Context(), auth.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, res)
	writeJSON(w, http.StatusCreated, toSessionResponse(res))
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, res)
	writeJSON(w, http.StatusOK, toSessionResponse(res))
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context(), auth.TokenFromContext(r.Context())); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// State handles GET /api/v1/auth/state. It restores the session behind the
// request, reporting a null identity when there is none.
func (h *AuthHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.StateResponse{Identity: auth.PrincipalFromContext(r.Context())})
}

// GoogleLogin handles GET /api/v1/auth/google/login by redirecting the
// browser to the consent screen.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	start, err := h.svc.StartFederated(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	http.Redirect(w, r, start.URL, http.StatusFound)
}

// GoogleStart handles POST /api/v1/auth/google/start for clients that open
// the consent URL themselves and poll for the outcome.
func (h *AuthHandler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	start, err := h.svc.StartFederated(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FederatedStartResponse{
		URL:       start.URL,
		State:     start.State,
		ExpiresAt: start.ExpiresAt,
	})
}

// GoogleCallback handles GET /api/v1/auth/google/callback.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	if providerErr := query.Get("error"); providerErr != "" {
		h.logger.Warn("consent denied", slog.String("reason", providerErr))
		code = ""
	}

	res, err := h.svc.CompleteFederated(r.Context(), query.Get("state"), code)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, res)
	http.Redirect(w, r, h.cookie.Landing, http.StatusSeeOther)
}

// GooglePoll handles GET /api/v1/auth/google/poll?state=.
func (h *AuthHandler) GooglePoll(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.PollFederated(r.Context(), r.URL.Query().Get("state"))
	if errors.Is(err, auth.ErrFederatedPending) {
		writeJSON(w, http.StatusAccepted, dto.PendingResponse{Status: "pending"})
		return
	}
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(res))
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, res *auth.SignInResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		MaxAge:   int(res.Session.ExpiresAt.Sub(h.now()).Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func toSessionResponse(res *auth.SignInResult) dto.SessionResponse {
	return dto.SessionResponse{
		Token:     res.Token,
		ExpiresAt: res.Session.ExpiresAt,
		Identity:  res.Principal,
	}
}
