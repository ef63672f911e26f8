// Package adminauth talks to the admin authentication endpoints and defines the
// admin roles and their permissions.
package adminauth

// Role is the role of an admin user within a tenant.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleReception Role = "RECEPTION"
	RoleStaff     Role = "STAFF"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleReception, RoleStaff:
		return true
	default:
		return false
	}
}

// User is the signed-in admin user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Tenant is the tenant the session is bound to.
type Tenant struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// Identity is the session identity returned by login and me.
type Identity struct {
	User   User   `json:"user"`
	Tenant Tenant `json:"tenant"`
}

// LoginRequest is the body of the login call.
type LoginRequest struct {
	TenantSlug string `json:"tenant_slug"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// LogoutResponse is the body returned by logout.
type LogoutResponse struct {
	Status string `json:"status"`
}
