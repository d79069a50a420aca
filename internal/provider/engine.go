// Package provider holds the authorization decision core of the OpenID
// provider: classifying incoming protocol requests, carrying them across
// the interactive login/consent detour, and assembling the final answer.
package provider

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"openid-provider/internal/openid"
	"openid-provider/internal/platform/metrics"
	"openid-provider/internal/session"
	"openid-provider/internal/trust"
	dErrors "openid-provider/pkg/domain-errors"
)

// Decision is the engine's classification of one pass.
type Decision string

const (
	// DecisionNoOp: nothing decoded and nothing pending; answer with an
	// empty acknowledgement.
	DecisionNoOp Decision = "noop"
	// DecisionAnswer: an assertion (positive or the protocol error path)
	// was produced and encoded.
	DecisionAnswer Decision = "answer"
	// DecisionNeedsLogin: the request was parked and the caller must log in.
	DecisionNeedsLogin Decision = "needs_login"
	// DecisionNeedsConsent: the request was parked pending explicit consent.
	DecisionNeedsConsent Decision = "needs_consent"
	// DecisionDirect: a non-interactive mode handled by the protocol layer.
	DecisionDirect Decision = "direct"
	// DecisionGranted: consent completion committed a trust grant.
	DecisionGranted Decision = "granted"
)

// Result is what a single engine pass hands back to the transport layer:
// either an encoded protocol response or a redirect target.
type Result struct {
	Decision    Decision
	Web         openid.WebResponse
	RedirectURL string
}

// Routes tells the engine where its own interactive pages live so it can
// issue redirects without knowing about the router.
type Routes struct {
	Endpoint string
	Decide   string
	Login    string
}

// Engine orchestrates resolution, trust checks and the pending-request
// continuation into one decision per incoming protocol request.
type Engine struct {
	codec      openid.Codec
	authorizer *trust.Authorizer
	pending    session.PendingStore
	assembler  *ExtensionAssembler
	routes     Routes
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewEngine(
	codec openid.Codec,
	authorizer *trust.Authorizer,
	pending session.PendingStore,
	assembler *ExtensionAssembler,
	routes Routes,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		codec:      codec,
		authorizer: authorizer,
		pending:    pending,
		assembler:  assembler,
		routes:     routes,
		metrics:    m,
		logger:     logger,
	}
}

// Handle runs one engine pass over the raw protocol parameters.
//
// A freshly decoded request always takes precedence; the pending slot is
// only consulted when decoding yields nothing, which is how a request
// resumes after the login or consent detour.
func (e *Engine) Handle(ctx context.Context, sess session.Session, params url.Values) (Result, error) {
	req := e.codec.DecodeRequest(params)
	if req == nil {
		held, ok, err := e.pending.Take(ctx, sess.ID)
		if err != nil {
			return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read pending request")
		}
		if !ok {
			// Informational no-op, not an error.
			e.metrics.ObserveDecision(string(DecisionNoOp))
			return Result{Decision: DecisionNoOp, Web: openid.WebResponse{Code: http.StatusOK}}, nil
		}
		req = held
	}

	if !req.IsBrowserMode() {
		resp := e.codec.HandleRequest(ctx, req)
		e.attachExtensions(ctx, sess, req, resp)
		e.metrics.ObserveDecision(string(DecisionDirect))
		return Result{Decision: DecisionDirect, Web: e.codec.EncodeResponse(resp)}, nil
	}

	if !sess.Authenticated() {
		if err := e.pending.Put(ctx, sess.ID, req); err != nil {
			return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to park pending request")
		}
		e.logger.DebugContext(ctx, "no local authentication, deferring to login",
			"session_id", sess.ID,
			"trust_root", req.TrustRoot,
		)
		e.metrics.ObserveDecision(string(DecisionNeedsLogin))
		return Result{Decision: DecisionNeedsLogin, RedirectURL: e.loginRedirect()}, nil
	}

	id, err := e.authorizer.Authorize(ctx, sess.AccountID, req.Identity, req.TrustRoot)
	if err != nil {
		return Result{}, err
	}

	switch {
	case id != nil:
		identityURL := e.authorizer.Resolver().URLFor(id)
		resp := e.codec.Answer(req, true, identityURL)
		e.logger.DebugContext(ctx, "answering affirmatively",
			"identity", identityURL,
			"trust_root", req.TrustRoot,
		)
		e.attachExtensions(ctx, sess, req, resp)
		e.metrics.ObserveDecision(string(DecisionAnswer))
		return Result{Decision: DecisionAnswer, Web: e.codec.EncodeResponse(resp)}, nil

	case req.Immediate:
		// Immediate mode must never fall back to interactive consent and
		// must not park the request.
		e.metrics.ObserveDecision("immediate_rejected")
		return Result{}, dErrors.New(dErrors.CodeImmediateMode, "checkid_immediate requires prior authorization")

	default:
		if err := e.pending.Put(ctx, sess.ID, req); err != nil {
			return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to park pending request")
		}
		e.logger.DebugContext(ctx, "redirecting to consent page", "session_id", sess.ID)
		e.metrics.ObserveDecision(string(DecisionNeedsConsent))
		return Result{Decision: DecisionNeedsConsent, RedirectURL: e.routes.Decide}, nil
	}
}

// attachExtensions is best-effort: a failure or panic while decorating the
// response must not disturb the already-computed base answer.
func (e *Engine) attachExtensions(ctx context.Context, sess session.Session, req *openid.Request, resp *openid.Response) {
	if !sess.Authenticated() {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.ErrorContext(ctx, "panic while attaching extensions", "panic", rec)
		}
	}()
	e.assembler.Attach(ctx, sess.AccountID, req, resp)
}

func (e *Engine) loginRedirect() string {
	u, err := url.Parse(e.routes.Login)
	if err != nil {
		return e.routes.Login
	}
	q := u.Query()
	q.Set("next", e.routes.Endpoint)
	u.RawQuery = q.Encode()
	return u.String()
}
