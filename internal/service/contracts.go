package service

import (
	"context"

	"github.com/pagecraft/pagecraft-backend/internal/domain"
)

// Actor identifies the caller of a state-machine transition. It is
// passed explicitly into every transition instead of being pulled
// from ambient request context, so authorization stays testable.
type Actor struct {
	UserID uint64
	Role   string
}

// AuthorizationGate answers whether a role may perform a staging
// transition. Implemented outside the core (level thresholds from
// config in this deployment).
type AuthorizationGate interface {
	CanSaveDraft(role string, tier domain.Tier, postType string) bool
	CanApprove(role string, tier domain.Tier, postType string) bool
	CanUpdateStatus(role string, targetStatus string, postType string) bool
}

// ModuleTypeRegistry validates inline edit paths against the module
// type's schema. The registry itself is an external collaborator.
type ModuleTypeRegistry interface {
	ValidateFieldPath(moduleType, rootKey string) bool
}

// Notifier fans a committed promotion out to interested parties
// (webhooks, cache warmers). Delivery failures are observability
// concerns and never fail the mutation.
type Notifier interface {
	PostChanged(ctx context.Context, postID uint64, tier domain.Tier, action string) error
}

// NoopNotifier is the default Notifier
type NoopNotifier struct{}

func (NoopNotifier) PostChanged(context.Context, uint64, domain.Tier, string) error { return nil }

// SideEffectFailure records a best-effort side effect that failed
// (activity log, cache invalidation, notifier). Callers can inspect
// or ignore the list; the primary operation already succeeded.
type SideEffectFailure struct {
	Name string `json:"name"`
	Err  string `json:"error"`
}

// PostCache is the slice of the cache service the staging engine
// needs: tier-keyed post payloads invalidated on every commit.
type PostCache interface {
	InvalidatePost(ctx context.Context, postID uint64) error
}
