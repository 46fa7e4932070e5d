package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/abacus-app/abacus/internal/auth"
	"github.com/abacus-app/abacus/internal/handler/dto"
	"github.com/abacus-app/abacus/internal/model"
)

// ProfileService reads and provisions profile records.
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	ProvisionProfile(ctx context.Context, userID string, profile model.Profile) (*model.Profile, bool, error)
}

// ProfileHandler serves the profile record of the signed-in user.
type ProfileHandler struct {
	svc    ProfileService
	logger *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

// Get handles GET /api/v1/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.GetProfile(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Put handles PUT /api/v1/profile. An existing profile is never
// overwritten; the stored record is returned either way, with 201 when it
// was created by this call.
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	principal := auth.PrincipalFromContext(r.Context())
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = principal.Email
	}

	profile, created, err := h.svc.ProvisionProfile(r.Context(), principal.UserID, model.Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.logger.Info("profile provisioned", slog.String("user_id", principal.UserID))
	}
	writeJSON(w, status, profile)
}
