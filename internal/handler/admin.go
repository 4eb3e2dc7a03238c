package handler

import (
	"errors"
	"net/http"

	"github.com/tokengate/tokengate/internal/auth"
	"github.com/tokengate/tokengate/internal/service"
)

// --- Admin Handlers ---

// AdminLogin exchanges the admin password for a session token
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	token, err := h.sessions.Login(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAdminDisabled):
			writeError(w, http.StatusForbidden, "admin_disabled", "The admin API is not configured")
		case errors.Is(err, auth.ErrInvalidPassword):
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid password")
		default:
			h.log.Error().Err(err).Msg("admin login failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "Login failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"sessionToken": token})
}

// IssueToken creates a new access token
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExpiryDays *int `json:"expiryDays"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
			return
		}
	}
	if req.ExpiryDays != nil && *req.ExpiryDays < 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "expiryDays must not be negative")
		return
	}
	// Omitted expiryDays falls back to the configured default; an explicit
	// zero means the token never expires.
	if req.ExpiryDays == nil && h.cfg.Store.DefaultExpiryDays > 0 {
		days := h.cfg.Store.DefaultExpiryDays
		req.ExpiryDays = &days
	}
	if req.ExpiryDays != nil && *req.ExpiryDays == 0 {
		req.ExpiryDays = nil
	}

	token, err := h.tokenSvc.Issue(r.Context(), req.ExpiryDays)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to issue token")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusCreated, token)
}

// ListTokens returns all tokens, newest first
func (h *Handler) ListTokens(w http.ResponseWriter, r *http.Request) {
	tokens := h.tokenSvc.List(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": tokens,
		"count":  len(tokens),
	})
}

// ReleaseToken force-retires a token (administrative logout)
func (h *Handler) ReleaseToken(w http.ResponseWriter, r *http.Request) {
	value := r.PathValue("value")
	if value == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "Token value is required")
		return
	}

	h.tokenSvc.Release(r.Context(), value)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Token released"})
}

// DeleteToken removes a token permanently
func (h *Handler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	value := r.PathValue("value")
	if value == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "Token value is required")
		return
	}

	h.tokenSvc.Delete(r.Context(), value)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Token deleted"})
}

// ExportBackup returns the full token set as an obfuscated backup blob.
// The blob deters casual inspection only; it is not encrypted.
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	blob, err := h.backupSvc.Export(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to export backup")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to export backup")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"backup": blob})
}

// ImportBackup merges a backup blob into the store
func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Backup string `json:"backup"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}
	if req.Backup == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "backup is required")
		return
	}

	result, err := h.backupSvc.Import(r.Context(), req.Backup)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBackupUnreadable):
			writeError(w, http.StatusBadRequest, "backup_unreadable", "The backup file could not be read")
		case errors.Is(err, service.ErrBackupFormat):
			writeError(w, http.StatusBadRequest, "backup_invalid", "The backup file has an invalid format")
		case errors.Is(err, service.ErrWrongApplication):
			writeError(w, http.StatusBadRequest, "wrong_application", "The backup file belongs to a different application")
		default:
			h.log.Error().Err(err).Msg("failed to import backup")
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to import backup")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
