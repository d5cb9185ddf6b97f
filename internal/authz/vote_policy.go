package authz

// Vote policies. Votes are strictly personal: only the voter may
// change or remove their vote. Moderation operations carry their own
// coarse permissions plus an admin ceiling.

// CanCreateVote checks casting a fresh vote.
func CanCreateVote(actor Actor) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.Can(PermVoteAdd) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanUpdateVote checks overwriting an existing vote's rating.
func CanUpdateVote(actor Actor, voterID string) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if actor.ID != voterID {
		return Deny(ReasonNotOwner)
	}
	if !actor.Can(PermVoteEditOwn) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanDeleteVote checks removing an existing vote.
func CanDeleteVote(actor Actor, voterID string) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if actor.ID != voterID {
		return Deny(ReasonNotOwner)
	}
	if !actor.Can(PermVoteDeleteOwn) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanClearUserVotes checks wiping every vote a target user has cast.
// An admin-classified actor may only clear votes of staff or client
// users; superusers are unrestricted.
func CanClearUserVotes(actor Actor, target Subject) Decision {
	if !actor.Can(PermVoteClearUser) {
		return Deny(ReasonMissingPerm)
	}
	if actor.HasRole(RoleAdmin) && !actor.HasRole(RoleSuperuser) {
		if !target.HasRole(RoleStaff) && !target.HasRole(RoleClient) {
			return Deny(ReasonRoleCeiling)
		}
	}
	return Allow()
}

// CanResetAllVotes checks wiping the entire vote ledger.
func CanResetAllVotes(actor Actor) Decision {
	if !actor.Can(PermVoteResetAll) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}
