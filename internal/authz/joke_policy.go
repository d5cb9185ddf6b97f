package authz

// Joke policies follow the own/any split: moderators hold the blanket
// permission, content authors hold the own-scoped one. Creating and
// removing own content deliberately skips the email-verification gate
// so early-registration users can manage what they posted before
// verifying.

// CanBrowseJokes checks the joke listing action.
func CanBrowseJokes(actor Actor) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.Can(PermJokeBrowse) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanViewJoke checks viewing a single joke.
func CanViewJoke(actor Actor) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.Can(PermJokeShowAny) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanCreateJoke checks joke creation. No verification gate.
func CanCreateJoke(actor Actor) Decision {
	if !actor.Can(PermJokeAdd) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanUpdateJoke checks editing a joke owned by ownerID.
func CanUpdateJoke(actor Actor, ownerID string) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if actor.Can(PermJokeEditAny) {
		return Allow()
	}
	if !actor.Can(PermJokeEditOwn) {
		return Deny(ReasonMissingPerm)
	}
	if actor.ID != ownerID {
		return Deny(ReasonNotOwner)
	}
	return Allow()
}

// CanDeleteJoke checks trashing a joke owned by ownerID.
func CanDeleteJoke(actor Actor, ownerID string) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if actor.Can(PermJokeDeleteAny) {
		return Allow()
	}
	if !actor.Can(PermJokeDeleteOwn) {
		return Deny(ReasonMissingPerm)
	}
	if actor.ID != ownerID {
		return Deny(ReasonNotOwner)
	}
	return Allow()
}

// CanRestoreJoke checks restoring a single trashed joke.
func CanRestoreJoke(actor Actor) Decision {
	if !actor.Can(PermJokeTrashRecoverOne) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanForceDeleteJoke checks purging a single trashed joke.
func CanForceDeleteJoke(actor Actor) Decision {
	if !actor.Can(PermJokeTrashRemoveOne) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanViewTrashedJokes checks listing the joke trash.
func CanViewTrashedJokes(actor Actor) Decision {
	if !actor.Can(PermJokeTrashView) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanRestoreAllJokes checks the bulk restore action.
func CanRestoreAllJokes(actor Actor) Decision {
	if !actor.Can(PermJokeTrashRecoverAll) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanEmptyJokeTrash checks the bulk purge action.
func CanEmptyJokeTrash(actor Actor) Decision {
	if !actor.Can(PermJokeTrashEmptyAll) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}
