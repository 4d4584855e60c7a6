package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"mediagate/media-api/internal/audit"
	"mediagate/media-api/internal/auth"
	"mediagate/media-api/internal/media"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createMediaRequest struct {
	Title   string `json:"title" validate:"required"`
	Type    string `json:"type" validate:"required,oneof=video audio"`
	FileURL string `json:"file_url" validate:"required"`
}

func credentialsMessage(validator.ValidationErrors) string {
	return "email and password required"
}

func createMediaMessage(verrs validator.ValidationErrors) string {
	if hasTag(verrs, "Type", "oneof") {
		return "type must be video or audio"
	}
	return "title, type, file_url required"
}

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decodeBody(w, r, &req, credentialsMessage) {
		return
	}

	user, err := h.deps.Auth.Signup(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	case errors.Is(err, auth.ErrEmailTaken):
		h.audit(r, req.Email, audit.ActionSignup, "", audit.OutcomeFailure, "email already in use")
		writeError(w, http.StatusBadRequest, "email already in use")
		return
	default:
		h.internalError(w, r, "signup failed", err)
		return
	}

	h.audit(r, user.Email, audit.ActionSignup, user.ID, audit.OutcomeSuccess, "")
	writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID, "email": user.Email})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decodeBody(w, r, &req, credentialsMessage) {
		return
	}

	token, err := h.deps.Auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.audit(r, req.Email, audit.ActionLogin, "", audit.OutcomeFailure, "invalid credentials")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	default:
		h.internalError(w, r, "login failed", err)
		return
	}

	h.deps.Metrics.TokenIssued(string(auth.KindSession))
	h.audit(r, req.Email, audit.ActionLogin, "", audit.OutcomeSuccess, "")
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *handler) createMedia(w http.ResponseWriter, r *http.Request) {
	admin, _ := adminFromContext(r.Context())

	var req createMediaRequest
	if !h.decodeBody(w, r, &req, createMediaMessage) {
		return
	}

	asset, err := h.deps.Media.Create(r.Context(), media.Asset{
		Title:   req.Title,
		Type:    req.Type,
		FileURL: req.FileURL,
	})
	if err != nil {
		if errors.Is(err, media.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), media.ErrInvalidInput.Error()+": "))
			return
		}
		h.internalError(w, r, "create media failed", err)
		return
	}

	h.audit(r, admin.Email, audit.ActionMediaCreate, asset.ID, audit.OutcomeSuccess, "")
	writeJSON(w, http.StatusCreated, asset)
}

func (h *handler) streamURL(w http.ResponseWriter, r *http.Request) {
	link, err := h.deps.Media.StreamURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, media.ErrNotFound) || errors.Is(err, media.ErrInvalidID) {
			writeError(w, http.StatusNotFound, "media not found")
			return
		}
		h.internalError(w, r, "stream url failed", err)
		return
	}
	h.deps.Metrics.TokenIssued(string(auth.KindStream))
	writeJSON(w, http.StatusOK, link)
}

func (h *handler) redeemStream(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	asset, err := h.deps.Media.Redeem(r.Context(), token)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	case errors.Is(err, media.ErrNotFound), errors.Is(err, media.ErrInvalidID):
		writeError(w, http.StatusNotFound, "media not found")
		return
	default:
		h.internalError(w, r, "redeem stream token failed", err)
		return
	}
	http.Redirect(w, r, asset.FileURL, http.StatusFound)
}

func (h *handler) recordView(w http.ResponseWriter, r *http.Request) {
	admin, _ := adminFromContext(r.Context())
	id := chi.URLParam(r, "id")

	_, err := h.deps.Media.RecordView(r.Context(), id, clientIP(r, h.trustProxy))
	if err != nil {
		h.mediaLookupError(w, r, "record view failed", err)
		return
	}

	h.deps.Metrics.ViewRecorded()
	h.audit(r, admin.Email, audit.ActionMediaView, id, audit.OutcomeSuccess, "")
	writeJSON(w, http.StatusOK, map[string]string{"message": "view logged"})
}

func (h *handler) analytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.Media.Analytics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.mediaLookupError(w, r, "analytics failed", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) mediaLookupError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, media.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "invalid media id")
	case errors.Is(err, media.ErrNotFound):
		writeError(w, http.StatusNotFound, "media not found")
	default:
		h.internalError(w, r, msg, err)
	}
}
