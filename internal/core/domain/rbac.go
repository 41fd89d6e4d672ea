package domain

import "context"

// Principal is the authenticated caller attached to a request after the auth gate succeeds.
type Principal struct {
	UserID   int64
	Username string
	Role     Role
}

// NewPrincipal builds a principal from a resolved identity.
func NewPrincipal(identity Identity) *Principal {
	return &Principal{
		UserID:   identity.UserID,
		Username: identity.Username,
		Role:     identity.Role,
	}
}

type principalKey struct{}

// WithPrincipal stores the principal on the context for downstream authorization checks.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext returns the principal attached by the auth gate, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	principal, ok := ctx.Value(principalKey{}).(*Principal)
	return principal, ok && principal != nil
}

// HasRole reports whether the principal carries any of the supplied roles.
func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal holds the elevated role.
func IsAdmin(p *Principal) bool {
	return p.HasRole(RoleAdmin)
}

// IsOwner reports whether the principal owns the resource identified by ownerID.
func IsOwner(p *Principal, ownerID int64) bool {
	return p != nil && ownerID != 0 && p.UserID == ownerID
}

// CanEditOwned allows only the resource owner (content edits).
func CanEditOwned(p *Principal, ownerID int64) bool {
	return IsOwner(p, ownerID)
}

// CanModifyOwned allows the resource owner or an administrator (deletes, status changes).
func CanModifyOwned(p *Principal, ownerID int64) bool {
	return IsOwner(p, ownerID) || IsAdmin(p)
}

