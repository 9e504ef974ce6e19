package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleCustomer    Role = "customer"
	RoleAdmin       Role = "admin"
	RoleDistributor Role = "distributor"
	RoleVendor      Role = "vendor"
	RoleSuperAdmin  Role = "super-admin"
)

var (
	ErrUnknownRole     = errors.New("unknown role")
	ErrSwitchForbidden = errors.New("role switching requires super-admin")
	ErrNoVendorStore   = errors.New("vendor has no store")
)

// ParseRole accepts the stored spellings ("SUPER_ADMIN", "super admin", ...).
func ParseRole(s string) (Role, error) {
	r := Role(strings.Join(strings.FieldsFunc(strings.ToLower(s), func(c rune) bool {
		return c == '_' || c == '-' || c == ' '
	}), "-"))
	switch r {
	case RoleCustomer, RoleAdmin, RoleDistributor, RoleVendor, RoleSuperAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) CanManageCatalog() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type Principal struct {
	UserID string
	Role   Role
	// ActingAs is the role a super-admin has switched to, if any.
	ActingAs Role
}

// Effective is the role the principal's requests are served as.
func (p Principal) Effective() (Role, error) {
	if p.ActingAs == "" {
		return p.Role, nil
	}
	if p.Role != RoleSuperAdmin {
		return "", ErrSwitchForbidden
	}
	if p.ActingAs == RoleSuperAdmin {
		return RoleSuperAdmin, nil
	}
	return p.ActingAs, nil
}

// VendorDirectory finds the storefront a vendor user owns.
type VendorDirectory interface {
	StoreSlug(ctx context.Context, userID string) (string, bool, error)
}

// Resolver maps a principal to the route it lands on after sign-in.
type Resolver struct {
	Vendors VendorDirectory
}

var staticDestinations = map[Role]string{
	RoleCustomer:    "/",
	RoleAdmin:       "/admin",
	RoleDistributor: "/distributor",
	RoleSuperAdmin:  "/super-admin",
}

func (r *Resolver) Destination(ctx context.Context, p Principal) (string, error) {
	role, err := p.Effective()
	if err != nil {
		return "", err
	}

	if dest, ok := staticDestinations[role]; ok {
		return dest, nil
	}
	if role != RoleVendor {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	if r.Vendors == nil {
		return "", ErrNoVendorStore
	}
	slug, found, err := r.Vendors.StoreSlug(ctx, p.UserID)
	if err != nil {
		return "", fmt.Errorf("vendor lookup: %w", err)
	}
	if !found || slug == "" {
		return "", ErrNoVendorStore
	}
	return "/vendor/" + slug, nil
}
