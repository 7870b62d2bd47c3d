package service

import "backend/internal/model"

// approverRoles is the single policy point for decision capability. Adding a
// role here is the only change needed to widen who may approve.
var approverRoles = map[string]bool{
	model.RoleRestaurantAdmin: true,
}

// CanApprove reports whether a role carries approval capability.
func CanApprove(role string) bool {
	return approverRoles[role]
}
