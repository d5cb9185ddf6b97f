package authz

// Role management policies. Role administration is gated by role
// membership rather than named permissions: admins and superusers
// manage roles, only superusers delete them.

// CanBrowseRoles checks the role listing action.
func CanBrowseRoles(actor Actor) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.HasAnyRole(RoleAdmin, RoleSuperuser) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanViewRole checks viewing a single role.
func CanViewRole(actor Actor) Decision {
	return CanBrowseRoles(actor)
}

// CanCreateRole checks role creation.
func CanCreateRole(actor Actor) Decision {
	return CanBrowseRoles(actor)
}

// CanUpdateRole checks editing a role. The superuser role itself is
// immutable; that guard lives in the role service because it depends
// on the target row, not the actor.
func CanUpdateRole(actor Actor) Decision {
	return CanBrowseRoles(actor)
}

// CanDeleteRole checks deleting a role. Superuser only.
func CanDeleteRole(actor Actor) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.HasRole(RoleSuperuser) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}
