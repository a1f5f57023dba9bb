package authz

import (
	"context"
	"log/slog"

	"github.com/opentrusty/autoop/internal/observability/logger"
)

// Evaluate decides whether requester may act and reports which path admitted them.
// The allow-list probe runs first since it does not depend on the membership view.
func Evaluate(requester Identity, roles MembershipView, roleName string, allow AllowList) Decision {
	if allow.Contains(requester) {
		return Decision{Allowed: true, Reason: ReasonAllowList}
	}
	if roles.HasRoleNamed(roleName) {
		return Decision{Allowed: true, Reason: ReasonRole}
	}
	return Decision{Allowed: false, Reason: ReasonNone}
}

// IsAuthorized reports whether requester holds a role named roleName or is allow-listed
func IsAuthorized(requester Identity, roles MembershipView, roleName string, allow AllowList) bool {
	return Evaluate(requester, roles, roleName, allow).Allowed
}

// Service provides authorization decisions against a fixed policy
type Service struct {
	policy Policy
	logger *slog.Logger
}

// NewService creates a new authorization service.
// The policy must not be modified after it is handed over.
func NewService(policy Policy, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		policy: policy,
		logger: log.With(logger.Component("authz")),
	}
}

// Policy returns the policy the service evaluates against
func (s *Service) Policy() Policy {
	return s.policy
}

// Authorize evaluates the policy for requester and logs the decision
func (s *Service) Authorize(ctx context.Context, requester Identity, roles MembershipView) Decision {
	d := Evaluate(requester, roles, s.policy.RoleName, s.policy.AllowList)

	s.logger.InfoContext(ctx, "authorization decision",
		logger.UserID(requester.String()),
		slog.Bool("decision", d.Allowed),
		slog.String("reason", string(d.Reason)),
		slog.Int("held_roles", len(roles)),
	)

	return d
}
