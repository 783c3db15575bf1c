package middleware

import (
	"github.com/pagecraft/pagecraft-backend/internal/config"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
)

// LevelGate answers staging-transition permission questions from the
// role-to-level mapping in config. Unknown roles resolve to level 0
// and fail every check.
type LevelGate struct {
	perms config.PermissionsConfig
}

// NewLevelGate creates a permission gate from config
func NewLevelGate(perms config.PermissionsConfig) *LevelGate {
	return &LevelGate{perms: perms}
}

func (g *LevelGate) roleLevel(role string) int {
	return g.perms.Roles[role]
}

// CanSaveDraft reports whether the role may write a staged draft.
// The AI review tier accepts the same roles as the review tier; the
// distinction is which slot the payload lands in, not who may write.
func (g *LevelGate) CanSaveDraft(role string, tier domain.Tier, postType string) bool {
	if !tier.IsDraft() {
		return false
	}
	return g.roleLevel(role) >= g.perms.SaveLevel
}

// CanApprove reports whether the role may fold a tier into source
func (g *LevelGate) CanApprove(role string, tier domain.Tier, postType string) bool {
	if !tier.IsDraft() {
		return false
	}
	return g.roleLevel(role) >= g.perms.ApproveLevel
}

// CanUpdateStatus reports whether the role may move a post to the
// target status. Statuses missing from config fall back to the
// approve threshold.
func (g *LevelGate) CanUpdateStatus(role string, targetStatus string, postType string) bool {
	required, ok := g.perms.StatusLevels[targetStatus]
	if !ok {
		required = g.perms.ApproveLevel
	}
	return g.roleLevel(role) >= required
}
