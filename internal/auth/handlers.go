package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-salon/internal/branch"
	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/ratelimit"
)

// AttemptLimiter throttles login attempts per key.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
	Reset(ctx context.Context, key string) error
}

// Handler exposes login, profile and staff admin endpoints.
type Handler struct {
	Service          *Service
	Attempts         AttemptLimiter
	AccessCookieName string
	CookieSecure     bool
	Logger           *zerolog.Logger
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return false
	}
	return true
}

func loginKey(r *http.Request, email string) string {
	return "login:" + common.ClientIP(r) + ":" + NormalizeEmail(email)
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req loginRequest
	if !common.DecodeAndValidate(w, r, &req) {
		return
	}
	key := loginKey(r, req.Email)
	if h.Attempts != nil {
		d, err := h.Attempts.Allow(r.Context(), key)
		switch {
		case err != nil:
			if h.Logger != nil {
				h.Logger.Warn().Err(err).Msg("login limiter unavailable")
			}
		case !d.Allowed:
			now := h.Service.now()
			ratelimit.WriteHeaders(w, d, now)
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many login attempts",
				map[string]int{"retryAfter": ratelimit.RetryAfter(d, now)})
			return
		default:
			ratelimit.WriteHeaders(w, d, h.Service.now())
		}
	}
	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
		return
	}
	if h.Attempts != nil {
		if err := h.Attempts.Reset(r.Context(), key); err != nil && h.Logger != nil {
			h.Logger.Warn().Err(err).Msg("login limiter reset failed")
		}
	}
	if h.AccessCookieName != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     h.AccessCookieName,
			Value:    result.AccessToken,
			Path:     "/",
			Expires:  result.AccessExpiry,
			HttpOnly: true,
			Secure:   h.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	common.Data(w, http.StatusOK, result)
}

// Logout clears the access cookie. Tokens are stateless and simply expire.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	if h.AccessCookieName != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     h.AccessCookieName,
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   h.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	p, ok := common.PrincipalFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	staff, err := h.Service.Me(r.Context(), p.StaffID)
	if err != nil {
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
		return
	}
	common.Data(w, http.StatusOK, staff)
}

// CreateStaff handles POST /api/v1/staff.
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in StaffInput
	if !common.DecodeAndValidate(w, r, &in) {
		return
	}
	staff, err := h.Service.CreateStaff(r.Context(), in)
	if err != nil {
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
		return
	}
	common.Data(w, http.StatusCreated, staff)
}

// UpdateStaff handles PUT /api/v1/staff/{id}.
func (h *Handler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "staff id")
	if !ok {
		return
	}
	var in StaffUpdate
	if !common.DecodeAndValidate(w, r, &in) {
		return
	}
	staff, err := h.Service.UpdateStaff(r.Context(), actorID(r), id, in)
	if err != nil {
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
		return
	}
	common.Data(w, http.StatusOK, staff)
}

// DeactivateStaff handles DELETE /api/v1/staff/{id}.
func (h *Handler) DeactivateStaff(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "staff id")
	if !ok {
		return
	}
	staff, err := h.Service.DeactivateStaff(r.Context(), actorID(r), id)
	if err != nil {
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
		return
	}
	common.Data(w, http.StatusOK, staff)
}

func actorID(r *http.Request) uuid.UUID {
	p, _ := common.PrincipalFrom(r.Context())
	return p.StaffID
}

// ListStaff handles GET /api/v1/staff for the request's branch.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	items, err := h.Service.ListStaff(r.Context(), branch.Ptr(r.Context()))
	if err != nil {
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
		return
	}
	common.Data(w, http.StatusOK, items)
}
