package authz

// Account-control policies: resetting another user's password and
// force-logout. Both share the staff/admin ceiling: staff may only act
// on clients, admins on anyone below admin, superusers without
// restriction.

func accountControlCeiling(actor Actor, target Subject) Decision {
	if actor.HasRole(RoleSuperuser) {
		return Allow()
	}
	if actor.HasRole(RoleStaff) && !actor.HasRole(RoleAdmin) {
		if !target.HasRole(RoleClient) {
			return Deny(ReasonRoleCeiling)
		}
		return Allow()
	}
	if actor.HasRole(RoleAdmin) {
		if target.HasRole(RoleAdmin) || target.HasRole(RoleSuperuser) {
			return Deny(ReasonRoleCeiling)
		}
	}
	return Allow()
}

// CanResetPasswordForUser checks sending a password-reset link on
// another user's behalf.
func CanResetPasswordForUser(actor Actor, target Subject) Decision {
	if !actor.Can(PermAuthResetPasswordOthers) {
		return Deny(ReasonMissingPerm)
	}
	return accountControlCeiling(actor, target)
}

// CanForceLogoutUser checks revoking another user's tokens.
func CanForceLogoutUser(actor Actor, target Subject) Decision {
	if !actor.Can(PermAuthForceLogoutOthers) {
		return Deny(ReasonMissingPerm)
	}
	return accountControlCeiling(actor, target)
}

// CanForceLogoutRole checks revoking tokens for every user holding a
// role. The same ceiling applies, evaluated against the role itself.
func CanForceLogoutRole(actor Actor, role string) Decision {
	if !actor.Can(PermAuthForceLogoutOthers) {
		return Deny(ReasonMissingPerm)
	}
	if actor.HasRole(RoleSuperuser) {
		return Allow()
	}
	if actor.HasRole(RoleStaff) && !actor.HasRole(RoleAdmin) {
		if Role(role) != RoleClient {
			return Deny(ReasonRoleCeiling)
		}
		return Allow()
	}
	if actor.HasRole(RoleAdmin) {
		if Role(role) == RoleAdmin || Role(role) == RoleSuperuser {
			return Deny(ReasonRoleCeiling)
		}
	}
	return Allow()
}
