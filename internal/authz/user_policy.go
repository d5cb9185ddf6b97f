package authz

// User-target policies. These combine the permission check with the
// role-ceiling rule: holding a blanket permission never authorizes
// acting on an admin or superuser target unless the actor is a
// superuser and the target is not.

// blanketCeiling applies the role-ceiling rule for blanket (*.any)
// permissions on user targets.
func blanketCeiling(actor Actor, target Subject) Decision {
	if target.HasRole(RoleSuperuser) {
		return Deny(ReasonSuperuserTarget)
	}
	if target.HasRole(RoleAdmin) && !actor.HasRole(RoleSuperuser) {
		return Deny(ReasonRoleCeiling)
	}
	return Allow()
}

// CanBrowseUsers checks the user listing action.
func CanBrowseUsers(actor Actor) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.Can(PermUserBrowse) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanViewUser checks viewing a single user. Viewing yourself is
// always allowed.
func CanViewUser(actor Actor, target Subject) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if actor.ID == target.ID {
		return Allow()
	}
	if !actor.Can(PermUserShowAny) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanCreateUser checks whether the actor may create users at all.
func CanCreateUser(actor Actor) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if actor.Can(PermUserAddClient) || actor.Can(PermUserAddStaff) || actor.Can(PermUserAddAdmin) {
		return Allow()
	}
	return Deny(ReasonMissingPerm)
}

// CanCreateUserWithRole checks creation of a user holding a specific
// role. The superuser role can never be created through the API.
func CanCreateUserWithRole(actor Actor, role string) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	var perm string
	switch Role(role) {
	case RoleClient:
		perm = PermUserAddClient
	case RoleStaff:
		perm = PermUserAddStaff
	case RoleAdmin:
		perm = PermUserAddAdmin
	default:
		return Deny(ReasonSuperuserGrant)
	}
	if !actor.Can(perm) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanUpdateUser checks updating another user's account. Decision
// order: own carve-out, blanket permission with ceiling, role-scoped
// permissions.
func CanUpdateUser(actor Actor, target Subject) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if actor.ID == target.ID {
		if actor.Can(PermUserEditOwn) {
			return Allow()
		}
		return Deny(ReasonMissingPerm)
	}
	if actor.Can(PermUserEditAny) {
		return blanketCeiling(actor, target)
	}
	if actor.Can(PermUserEditStaff) && target.HasRole(RoleStaff) {
		return Allow()
	}
	if actor.Can(PermUserEditClient) && target.HasRole(RoleClient) {
		return Allow()
	}
	return Deny(ReasonMissingPerm)
}

// CanDeleteUser checks soft-deleting a user. Self-deletion is a
// client-only carve-out; blanket deletion never applies to self.
func CanDeleteUser(actor Actor, target Subject) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if actor.ID == target.ID {
		if target.HasRole(RoleClient) && actor.Can(PermUserDeleteOwn) {
			return Allow()
		}
		return Deny(ReasonSelfTarget)
	}
	if actor.Can(PermUserDeleteAny) {
		return blanketCeiling(actor, target)
	}
	if actor.Can(PermUserDeleteStaff) && target.HasRole(RoleStaff) {
		return Allow()
	}
	if actor.Can(PermUserDeleteClient) && target.HasRole(RoleClient) {
		return Allow()
	}
	return Deny(ReasonMissingPerm)
}

// CanRestoreUser checks restoring a trashed user. The same scope
// restrictions as deletion apply.
func CanRestoreUser(actor Actor, target Subject) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.Can(PermUserTrashRestore) {
		return Deny(ReasonMissingPerm)
	}
	if actor.Can(PermUserDeleteAny) {
		if actor.ID == target.ID {
			return Deny(ReasonSelfTarget)
		}
		return blanketCeiling(actor, target)
	}
	if actor.Can(PermUserDeleteStaff) && target.HasRole(RoleStaff) {
		return Allow()
	}
	if actor.Can(PermUserDeleteClient) && target.HasRole(RoleClient) {
		return Allow()
	}
	return Deny(ReasonMissingPerm)
}

// CanForceDeleteUser checks permanently deleting a trashed user.
func CanForceDeleteUser(actor Actor, target Subject) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.Can(PermUserDeleteAny) {
		return Deny(ReasonMissingPerm)
	}
	if actor.ID == target.ID {
		return Deny(ReasonSelfTarget)
	}
	return blanketCeiling(actor, target)
}

// CanSearchUsers checks the user search action.
func CanSearchUsers(actor Actor) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.Can(PermUserSearch) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanAssignRole checks changing a user's role. Role assignment reuses
// the creation permission namespace: whoever may create a staff user
// may promote to staff. Superuser targets are untouchable and the
// superuser role is never grantable.
func CanAssignRole(actor Actor, target Subject, newRole string) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.Can(PermUserAssignRole) {
		return Deny(ReasonMissingPerm)
	}
	if target.HasRole(RoleSuperuser) {
		return Deny(ReasonSuperuserTarget)
	}
	if Role(newRole) == RoleSuperuser {
		return Deny(ReasonSuperuserGrant)
	}

	var perm string
	switch Role(newRole) {
	case RoleClient:
		perm = PermUserAddClient
	case RoleStaff:
		perm = PermUserAddStaff
	case RoleAdmin:
		perm = PermUserAddAdmin
	default:
		return Deny(ReasonMissingPerm)
	}
	if !actor.Can(perm) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanViewTrashedUsers checks listing the user trash. No verification
// gate applies to trash listings.
func CanViewTrashedUsers(actor Actor) Decision {
	if !actor.Can(PermUserTrashView) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanRestoreAllUsers checks the bulk restore action. Per-target
// restrictions are applied by the caller while iterating.
func CanRestoreAllUsers(actor Actor) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.Can(PermUserTrashRestore) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanEmptyUserTrash checks the bulk purge action.
func CanEmptyUserTrash(actor Actor) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.Can(PermUserDeleteAny) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}
