package authz

import (
	apperrors "taskhub/internal/domain/errors"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const (
	PermGetTasks    = "getTasks"
	PermManageTasks = "manageTasks"
	PermGetUsers    = "getUsers"
	PermManageUsers = "manageUsers"
)

// rolePermissions is fixed at process start; adding a role means shipping a
// new build.
var rolePermissions = map[Role][]string{
	RoleUser:  {PermGetTasks, PermManageTasks},
	RoleAdmin: {PermGetUsers, PermManageUsers, PermGetTasks, PermManageTasks},
}

func Roles() []Role {
	return []Role{RoleUser, RoleAdmin}
}

func IsValidRole(role Role) bool {
	_, ok := rolePermissions[role]
	return ok
}

// PermissionsFor returns a copy of the permission set owned by role.
func PermissionsFor(role Role) ([]string, error) {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil, apperrors.ErrUnknownRole
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out, nil
}

// Allowed reports whether role holds permission. Unknown roles hold nothing.
func Allowed(role Role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
