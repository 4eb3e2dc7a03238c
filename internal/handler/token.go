package handler

import (
	"net/http"
)

// ActivateRequest is the body of the public activate and heartbeat calls.
type ActivateRequest struct {
	Token       string `json:"token"`
	Fingerprint string `json:"fingerprint"`
}

// ActivateResponse reports the outcome of an activation attempt. Rejections
// are expected business results, not errors: wrong device, used, expired,
// and unknown tokens all come back as success=false with HTTP 200.
type ActivateResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	ExpiresAt *int64 `json:"expiresAt,omitempty"`
}

// Activate claims a token for the calling device
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	var req ActivateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}
	if req.Token == "" || req.Fingerprint == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "token and fingerprint are required")
		return
	}

	token, ok := h.tokenSvc.Activate(r.Context(), req.Token, req.Fingerprint)
	if !ok {
		writeJSON(w, http.StatusOK, ActivateResponse{
			Success: false,
			Message: "This access token is invalid, expired, or in use on another device",
		})
		return
	}

	writeJSON(w, http.StatusOK, ActivateResponse{
		Success:   true,
		SessionID: token.SessionID,
		ExpiresAt: token.ExpiresAt,
	})
}

// Heartbeat refreshes the session activity of an active token. Always 204:
// the heartbeat is best-effort and carries no business outcome.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req ActivateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	h.tokenSvc.Touch(r.Context(), req.Token, req.Fingerprint)
	w.WriteHeader(http.StatusNoContent)
}

// Release retires a token (client logout)
func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "token is required")
		return
	}

	h.tokenSvc.Release(r.Context(), req.Token)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Token released"})
}
