package authz

// Category policies. Categories have no owner, so every mutation is
// blanket-scoped.

// CanBrowseCategories checks the category listing action.
func CanBrowseCategories(actor Actor) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.Can(PermCategoryBrowse) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanViewCategory checks viewing a single category.
func CanViewCategory(actor Actor) Decision {
	if !actor.EmailVerified {
		return Deny(ReasonEmailNotVerified)
	}
	if !actor.Can(PermCategoryShowAny) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanCreateCategory checks category creation. No verification gate.
func CanCreateCategory(actor Actor) Decision {
	if !actor.Can(PermCategoryAdd) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanUpdateCategory checks editing a category.
func CanUpdateCategory(actor Actor) Decision {
	if !actor.Can(PermCategoryEditAny) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanDeleteCategory checks trashing a category.
func CanDeleteCategory(actor Actor) Decision {
	if !actor.Can(PermCategoryDeleteAny) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanRestoreCategory checks restoring a single trashed category.
func CanRestoreCategory(actor Actor) Decision {
	if !actor.Can(PermCategoryTrashRecoverOne) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanForceDeleteCategory checks purging a single trashed category.
func CanForceDeleteCategory(actor Actor) Decision {
	if !actor.Can(PermCategoryTrashRemoveOne) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanViewTrashedCategories checks listing the category trash.
func CanViewTrashedCategories(actor Actor) Decision {
	if !actor.Can(PermCategoryTrashView) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanRestoreAllCategories checks the bulk restore action.
func CanRestoreAllCategories(actor Actor) Decision {
	if !actor.Can(PermCategoryTrashRecoverAll) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}

// CanEmptyCategoryTrash checks the bulk purge action.
func CanEmptyCategoryTrash(actor Actor) Decision {
	if !actor.Can(PermCategoryTrashEmptyAll) {
		return Deny(ReasonMissingPerm)
	}
	return Allow()
}
