package provider

import (
	"context"

	"github.com/google/uuid"

	"openid-provider/internal/session"
	"openid-provider/internal/trust"
	dErrors "openid-provider/pkg/domain-errors"
)

// TrustTxRunner runs a consent grant against the trust registry so that it
// is durably committed before the caller issues any redirect. The Postgres
// runner wraps fn in a SQL transaction; the memory runner just calls it.
type TrustTxRunner interface {
	RunInTx(ctx context.Context, fn func(registry trust.Store) error) error
}

// ConsentFlow is the engine's second entry point, invoked from the
// interactive consent page after an explicit user action.
type ConsentFlow struct {
	engine  *Engine
	pending session.PendingStore
	tx      TrustTxRunner
}

func NewConsentFlow(engine *Engine, pending session.PendingStore, tx TrustTxRunner) *ConsentFlow {
	return &ConsentFlow{engine: engine, pending: pending, tx: tx}
}

// Complete records the user's approval of the pending request's trust root
// and sends the browser back to the provider endpoint, where the next
// engine pass answers affirmatively.
//
// The pending slot is consumed up front; on success the request is parked
// again for that next pass. An unresolvable claimed identifier is a
// user-facing error and creates no grant.
func (f *ConsentFlow) Complete(ctx context.Context, sess session.Session) (Result, error) {
	if !sess.Authenticated() {
		return Result{Decision: DecisionNeedsLogin, RedirectURL: f.engine.loginRedirect()}, nil
	}

	req, ok, err := f.pending.Take(ctx, sess.ID)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read pending request")
	}
	if !ok {
		return Result{}, dErrors.New(dErrors.CodeBadRequest, "no authentication request awaiting consent")
	}

	id, err := f.engine.authorizer.Resolver().Resolve(ctx, sess.AccountID, req.Identity)
	if err != nil {
		return Result{}, err
	}
	if id == nil {
		return Result{}, dErrors.New(dErrors.CodeUnresolvedIdentity,
			"a website tried to authenticate you using url "+req.Identity+
				", but this url is not associated with your account")
	}

	// The grant is unconditional on submission and must be visible to the
	// very next authorization check, so it commits before the redirect.
	err = f.tx.RunInTx(ctx, func(registry trust.Store) error {
		return registry.Create(ctx, trust.TrustRoot{
			ID:         uuid.NewString(),
			IdentityID: id.ID,
			TrustRoot:  req.TrustRoot,
		})
	})
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record trust grant")
	}
	f.engine.metrics.IncrementTrustGrants()

	if err := f.pending.Put(ctx, sess.ID, req); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to park pending request")
	}
	return Result{Decision: DecisionGranted, RedirectURL: f.engine.routes.Endpoint}, nil
}

// PendingSummary describes the held request for the consent UI.
type PendingSummary struct {
	TrustRoot string `json:"trust_root"`
	Identity  string `json:"identity"`
	Immediate bool   `json:"immediate"`
}

// Pending shows what the session is being asked to approve, without
// consuming the slot.
func (f *ConsentFlow) Pending(ctx context.Context, sess session.Session) (*PendingSummary, error) {
	req, ok, err := f.pending.Peek(ctx, sess.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read pending request")
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "no authentication request awaiting consent")
	}
	return &PendingSummary{
		TrustRoot: req.TrustRoot,
		Identity:  req.Identity,
		Immediate: req.Immediate,
	}, nil
}

// MemoryTxRunner satisfies TrustTxRunner without transactional storage.
type MemoryTxRunner struct {
	Registry trust.Store
}

func (r MemoryTxRunner) RunInTx(_ context.Context, fn func(registry trust.Store) error) error {
	return fn(r.Registry)
}
