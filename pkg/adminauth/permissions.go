package adminauth

// CanViewPlanning reports whether role may open the planning board. Every
// admin role can.
func CanViewPlanning(_ Role) bool {
	return true
}

// CanManageServices reports whether role may edit the service catalog.
func CanManageServices(role Role) bool {
	return role == RoleAdmin
}

// CanManageStaff reports whether role may edit staff members.
func CanManageStaff(role Role) bool {
	return role == RoleAdmin
}

// CanChangeAppointments reports whether role may create, reschedule or change
// the status of appointments from the planning board.
func CanChangeAppointments(role Role) bool {
	return role == RoleAdmin || role == RoleReception
}
