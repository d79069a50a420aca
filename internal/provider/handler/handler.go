// Package handler is the thin HTTP layer over the authorization engine.
// It owns routing, parameter plumbing and error envelopes; every decision
// belongs to the engine.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"openid-provider/internal/account"
	"openid-provider/internal/identity"
	"openid-provider/internal/openid"
	"openid-provider/internal/platform/metrics"
	"openid-provider/internal/platform/middleware"
	"openid-provider/internal/provider"
	"openid-provider/internal/session"
	dErrors "openid-provider/pkg/domain-errors"
)

type Handler struct {
	engine     *provider.Engine
	consent    *provider.ConsentFlow
	sessions   *session.Manager
	accounts   *account.Service
	identities identity.Store
	codec      openid.Codec
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func New(
	engine *provider.Engine,
	consent *provider.ConsentFlow,
	sessions *session.Manager,
	accounts *account.Service,
	identities identity.Store,
	codec openid.Codec,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		engine:     engine,
		consent:    consent,
		sessions:   sessions,
		accounts:   accounts,
		identities: identities,
		codec:      codec,
		metrics:    m,
		logger:     logger,
	}
}

// Register mounts all provider routes on the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Instrument(h.metrics))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(h.sessions.Middleware)

	router.Get("/openid", h.handleServe)
	router.Post("/openid", h.handleServe)
	router.Get("/openid/id/{identifier}", h.handleIdentity)
	router.Get("/openid/decide", h.handlePendingInfo)
	router.Post("/openid/decide", h.handleDecide)

	router.Post("/auth/login", h.handleLogin)
	router.Post("/auth/logout", h.handleLogout)

	r.Mount("/", router)
}

// handleServe is the provider endpoint: one engine pass per call.
func (h *Handler) handleServe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := session.FromContext(ctx)
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeInternal, "session missing from context"))
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request parameters"))
		return
	}

	result, err := h.engine.Handle(ctx, sess, r.Form)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeImmediateMode) {
			// Protocol-level failure: encode through the protocol error
			// path rather than the JSON envelope.
			h.logger.WarnContext(ctx, "immediate mode rejected",
				"request_id", middleware.GetRequestID(ctx),
			)
			web := h.codec.EncodeResponse(h.codec.ErrorResponse(nil, "checkid_immediate mode not supported"))
			writeWeb(w, web)
			return
		}
		h.logger.ErrorContext(ctx, "engine pass failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}

	h.writeResult(w, r, result)
}

// handleDecide is the consent submission entry point.
func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := session.FromContext(ctx)
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeInternal, "session missing from context"))
		return
	}

	result, err := h.consent.Complete(ctx, sess)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnresolvedIdentity) || dErrors.HasCode(err, dErrors.CodeBadRequest) {
			h.logger.WarnContext(ctx, "consent rejected",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
			writeError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "consent completion failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, dErrors.New(dErrors.CodeInternal, "failed to record consent"))
		return
	}

	h.writeResult(w, r, result)
}

// handlePendingInfo feeds the external consent UI.
func (h *Handler) handlePendingInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := session.FromContext(ctx)
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeInternal, "session missing from context"))
		return
	}

	summary, err := h.consent.Pending(ctx, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleIdentity answers identity URLs so claimed identifiers are live
// resources. Discovery documents are out of scope; this stays minimal.
func (h *Handler) handleIdentity(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if _, err := h.identities.FindByIdentifier(r.Context(), identifier); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"identifier": identifier})
}

func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, result provider.Result) {
	if result.RedirectURL != "" {
		http.Redirect(w, r, result.RedirectURL, http.StatusFound)
		return
	}
	writeWeb(w, result.Web)
}

func writeWeb(w http.ResponseWriter, web openid.WebResponse) {
	for k, v := range web.Headers {
		w.Header().Set(k, v)
	}
	if web.Body != "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(web.Code)
	_, _ = w.Write([]byte(web.Body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError centralizes domain error translation to the JSON envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	payload := map[string]string{"error": string(code)}
	var de *dErrors.Error
	if errors.As(err, &de) && de.Message != "" {
		payload["message"] = de.Message
	}
	writeJSON(w, dErrors.ToHTTPStatus(code), payload)
}
