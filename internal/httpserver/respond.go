package httpserver

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (h *handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.Error(msg, "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// decodeBody reads a JSON body into dst and runs struct validation. It writes
// the 400 response itself and reports whether the handler should continue.
func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any, invalidMsg func(validator.ValidationErrors) string) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, invalidMsg(verrs))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func hasTag(verrs validator.ValidationErrors, field, tag string) bool {
	for _, fe := range verrs {
		if fe.Field() == field && fe.Tag() == tag {
			return true
		}
	}
	return false
}

// clientIP returns the viewer address. Forwarding headers are honoured only
// when the server runs behind a trusted proxy.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
			parts := strings.Split(fwd, ",")
			return strings.TrimSpace(parts[0])
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func (h *handler) audit(r *http.Request, actor, action, target, outcome, detail string) {
	if h.deps.Audit == nil {
		return
	}
	parts := []string{
		"rid=" + requestIDFromContext(r.Context()),
		"ip=" + clientIP(r, h.trustProxy),
		"ua=" + strings.TrimSpace(r.UserAgent()),
	}
	if strings.TrimSpace(detail) != "" {
		parts = append(parts, "detail="+strings.TrimSpace(detail))
	}
	if err := h.deps.Audit.Log(actor, action, target, outcome, strings.Join(parts, " | ")); err != nil {
		h.log.Warn("audit write failed", "action", action, "err", err)
	}
}
