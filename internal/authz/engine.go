// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

// Package authz provides authorization decisions for Plume.
//
// Decide is a pure function over (actor, action, target): it reads no
// ambient session state, so every call site names the identity it is
// deciding for. Denials carry an internal Reason for audit logging; the
// user-facing outcome is always the same generic redirect, so the reason
// must never leak to the client.
package authz

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/plumeapp/plume/internal/identity"
	"github.com/plumeapp/plume/internal/observability"
)

// Action is a requested operation on a user record.
type Action string

// Actions gated by the engine.
const (
	ActionList    Action = "list"
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionUpdate  Action = "update"
	ActionDestroy Action = "destroy"
)

// Reason is an internal code explaining a decision. Reasons exist for audit
// logs and metrics only; all denials look identical from outside.
type Reason string

// Decision reasons.
const (
	ReasonPublic               Reason = "public"
	ReasonAnonymous            Reason = "anonymous"
	ReasonSelf                 Reason = "self"
	ReasonAdmin                Reason = "admin"
	ReasonAlreadyAuthenticated Reason = "already_authenticated"
	ReasonSignInRequired       Reason = "sign_in_required"
	ReasonMissingTarget        Reason = "missing_target"
	ReasonNotSelf              Reason = "not_self"
	ReasonSelfDestruct         Reason = "self_destruct"
	ReasonNotAdmin             Reason = "not_admin"
	ReasonUnknownAction        Reason = "unknown_action"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason

	// Informational is true for the one denial that is a UX rule rather
	// than a security one: an already-authenticated actor asking to sign
	// up again. Callers show an informational notice instead of the
	// generic "not permitted" one. The redirect itself is the same.
	Informational bool
}

func allow(reason Reason) Decision {
	return Decision{Allowed: true, Reason: reason}
}

func deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Decide returns the decision for an actor performing an action on a target
// user record. A nil actor is anonymous; a nil target means the action has
// no target record.
//
// Evaluation order matters for destroy: the self-destruct check runs before
// the admin rule, so an admin can never remove their own account here.
func Decide(actor *identity.User, action Action, target *identity.User) Decision {
	switch action {
	case ActionList, ActionView:
		return allow(ReasonPublic)

	case ActionCreate:
		// Signing up while signed in is redirected away, not blocked with
		// an error.
		if actor != nil {
			d := deny(ReasonAlreadyAuthenticated)
			d.Informational = true
			return d
		}
		return allow(ReasonAnonymous)

	case ActionEdit, ActionUpdate:
		if actor == nil {
			return deny(ReasonSignInRequired)
		}
		if target == nil {
			return deny(ReasonMissingTarget)
		}
		if actor.ID.Compare(target.ID) == 0 {
			return allow(ReasonSelf)
		}
		return deny(ReasonNotSelf)

	case ActionDestroy:
		if actor == nil {
			return deny(ReasonSignInRequired)
		}
		if target == nil {
			return deny(ReasonMissingTarget)
		}
		if actor.ID.Compare(target.ID) == 0 {
			// Overrides the admin rule below.
			return deny(ReasonSelfDestruct)
		}
		if !actor.Admin {
			return deny(ReasonNotAdmin)
		}
		return allow(ReasonAdmin)
	}

	// Deny by default.
	return deny(ReasonUnknownAction)
}

// Engine wraps Decide with audit logging and metrics. Use it at request
// boundaries; use the bare function in code that already logs.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		return nil, oops.Code("AUTHZ_NIL_LOGGER").Errorf("logger is required")
	}
	return &Engine{logger: logger}, nil
}

// Decide evaluates the decision table, records the outcome, and logs
// denials with their internal reason.
func (e *Engine) Decide(ctx context.Context, actor *identity.User, action Action, target *identity.User) Decision {
	d := Decide(actor, action, target)

	outcome := "allow"
	if !d.Allowed {
		outcome = "deny"
		e.logger.DebugContext(ctx, "authorization denied",
			"action", string(action),
			"reason", string(d.Reason),
			"actor_id", actorID(actor),
			"target_id", actorID(target),
		)
	}
	observability.RecordAuthzDecision(string(action), outcome)

	return d
}

func actorID(u *identity.User) string {
	if u == nil {
		return ""
	}
	return u.ID.String()
}
