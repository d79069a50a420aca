package handler

import (
	"encoding/json"
	"net/http"

	"github.com/asaskevich/govalidator"

	"openid-provider/internal/session"
	dErrors "openid-provider/pkg/domain-errors"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin binds the browser session to an account. The OpenID flow
// itself never calls this; it is where the "needs login" redirect lands.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := session.FromContext(ctx)
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeInternal, "session missing from context"))
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validateLoginRequest(req); err != nil {
		writeError(w, err)
		return
	}

	acc, err := h.accounts.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.sessions.Bind(ctx, sess, acc.ID); err != nil {
		writeError(w, err)
		return
	}

	// The login page passes through ?next so the parked protocol request
	// resumes at the provider endpoint.
	if next := r.URL.Query().Get("next"); next != "" && next[0] == '/' {
		http.Redirect(w, r, next, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"account_id": acc.ID})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := session.FromContext(ctx)
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeInternal, "session missing from context"))
		return
	}

	if _, err := h.sessions.Unbind(ctx, sess); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateLoginRequest(req loginRequest) error {
	if !govalidator.StringLength(req.Username, "1", "255") {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid username")
	}
	if !govalidator.StringLength(req.Password, "1", "1024") {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid password")
	}
	return nil
}
