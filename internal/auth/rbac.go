package auth

import "github.com/supportdesk-io/supportdesk-ce/internal/models"

type Permission string

const (
	// Ticket permissions
	PermissionTicketCreate Permission = "ticket:create"
	PermissionTicketRead   Permission = "ticket:read"
	PermissionTicketUpdate Permission = "ticket:update"
	PermissionTicketDelete Permission = "ticket:delete"
	PermissionTicketAssign Permission = "ticket:assign"

	// User permissions
	PermissionUserRead   Permission = "user:read"
	PermissionUserManage Permission = "user:manage"

	// Admin permissions
	PermissionAdminAccess Permission = "admin:access"

	// Dashboard and AI permissions
	PermissionDashboardView Permission = "dashboard:view"
	PermissionAIAssist      Permission = "ai:assist"

	// Customer permissions
	PermissionOwnTicketRead   Permission = "own:ticket:read"
	PermissionOwnTicketCreate Permission = "own:ticket:create"
)

type RBAC struct {
	rolePermissions map[string][]Permission
}

func NewRBAC() *RBAC {
	rbac := &RBAC{
		rolePermissions: make(map[string][]Permission),
	}
	rbac.initializePermissions()
	return rbac
}

func (r *RBAC) initializePermissions() {
	// Admin has all permissions
	r.rolePermissions[models.RoleAdmin] = []Permission{
		PermissionTicketCreate, PermissionTicketRead, PermissionTicketUpdate, PermissionTicketDelete,
		PermissionTicketAssign,
		PermissionUserRead, PermissionUserManage,
		PermissionAdminAccess,
		PermissionDashboardView, PermissionAIAssist,
		PermissionOwnTicketRead, PermissionOwnTicketCreate,
	}

	// Agents work tickets and use the AI tooling
	r.rolePermissions[models.RoleAgent] = []Permission{
		PermissionTicketCreate, PermissionTicketRead, PermissionTicketUpdate,
		PermissionTicketAssign,
		PermissionUserRead,
		PermissionDashboardView, PermissionAIAssist,
		PermissionOwnTicketRead, PermissionOwnTicketCreate,
	}

	// Customers only touch their own tickets
	r.rolePermissions[models.RoleCustomer] = []Permission{
		PermissionOwnTicketRead, PermissionOwnTicketCreate,
		PermissionDashboardView,
	}
}

func (r *RBAC) HasPermission(role string, permission Permission) bool {
	permissions, exists := r.rolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}

func (r *RBAC) GetRolePermissions(role string) []Permission {
	return r.rolePermissions[role]
}

func (r *RBAC) CanAssignTicket(role string) bool {
	return r.HasPermission(role, PermissionTicketAssign)
}

func (r *RBAC) CanDeleteTicket(role string) bool {
	return r.HasPermission(role, PermissionTicketDelete)
}

func (r *RBAC) CanManageUsers(role string) bool {
	return r.HasPermission(role, PermissionUserManage)
}

func (r *RBAC) CanUseAI(role string) bool {
	return r.HasPermission(role, PermissionAIAssist)
}
