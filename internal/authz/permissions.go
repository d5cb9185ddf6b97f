// Package authz implements the JokeHub authorization core: the static
// permission catalog, the five-role privilege model with its
// permission grants, and the policy engine that evaluates actions
// against a pre-loaded actor snapshot.
package authz

// Permission name constants. Names follow the dotted
// resource.action[.scope] convention; the scope suffix distinguishes
// blanket ("any"), self ("own") and role-scoped grants.
const (
	// User administration
	PermUserBrowse       = "user.browse"
	PermUserShowAny      = "user.show.any"
	PermUserShowOwn      = "user.show.own"
	PermUserEditAny      = "user.edit.any"
	PermUserEditStaff    = "user.edit.staff"
	PermUserEditClient   = "user.edit.client"
	PermUserEditOwn      = "user.edit.own"
	PermUserAddClient    = "user.add.client"
	PermUserAddStaff     = "user.add.staff"
	PermUserAddAdmin     = "user.add.admin"
	PermUserDeleteAny    = "user.delete.any"
	PermUserDeleteStaff  = "user.delete.staff"
	PermUserDeleteClient = "user.delete.client"
	PermUserDeleteOwn    = "user.delete.own"
	PermUserSearch       = "user.search"
	PermUserAssignRole   = "user.assign.role"
	PermUserBan          = "user.ban"
	PermUserSuspend      = "user.suspend"
	PermUserRevertStatus = "user.revert.status"
	PermUserTrashView    = "user.trash.view"
	PermUserTrashRestore = "user.trash.restore"

	// Jokes
	PermJokeBrowse          = "joke.browse"
	PermJokeShowAny         = "joke.show.any"
	PermJokeShowOwn         = "joke.show.own"
	PermJokeEditAny         = "joke.edit.any"
	PermJokeEditOwn         = "joke.edit.own"
	PermJokeAdd             = "joke.add"
	PermJokeDeleteAny       = "joke.delete.any"
	PermJokeDeleteOwn       = "joke.delete.own"
	PermJokeSearch          = "joke.search"
	PermJokeRandomOne       = "joke.random.one"
	PermJokeTrashView       = "joke.trash.view"
	PermJokeTrashRecoverOne = "joke.trash.recover.one"
	PermJokeTrashRemoveOne  = "joke.trash.remove.one"
	PermJokeTrashRecoverAll = "joke.trash.recover.all"
	PermJokeTrashEmptyAll   = "joke.trash.empty.all"

	// Categories
	PermCategoryBrowse          = "category.browse"
	PermCategoryShowAny         = "category.show.any"
	PermCategoryEditAny         = "category.edit.any"
	PermCategoryAdd             = "category.add"
	PermCategoryDeleteAny       = "category.delete.any"
	PermCategorySearch          = "category.search"
	PermCategoryTrashView       = "category.trash.view"
	PermCategoryTrashRecoverOne = "category.trash.recover.one"
	PermCategoryTrashRemoveOne  = "category.trash.remove.one"
	PermCategoryTrashRecoverAll = "category.trash.recover.all"
	PermCategoryTrashEmptyAll   = "category.trash.empty.all"

	// Votes
	PermVoteAdd       = "vote.add"
	PermVoteEditOwn   = "vote.edit.own"
	PermVoteDeleteOwn = "vote.delete.own"
	PermVoteClearUser = "vote.clear.user"
	PermVoteClearAll  = "vote.clear.all"
	PermVoteResetAll  = "vote.reset.all"

	// Authentication
	PermAuthRegister            = "auth.register"
	PermAuthLogin               = "auth.login"
	PermAuthLogout              = "auth.logout"
	PermAuthResetPasswordOwn    = "auth.reset.password.own"
	PermAuthResetPasswordOthers = "auth.reset.password.others"
	PermAuthForceLogoutOthers   = "auth.force.logout.others"

	// Profile
	PermProfileViewOwn   = "profile.view.own"
	PermProfileEditOwn   = "profile.edit.own"
	PermProfileDeleteOwn = "profile.delete.own"
)

// Registry groups every permission by resource. It is the single
// source of truth for provisioning the permission table.
var Registry = map[string][]string{
	"user": {
		PermUserBrowse,
		PermUserShowAny,
		PermUserShowOwn,
		PermUserEditAny,
		PermUserEditStaff,
		PermUserEditClient,
		PermUserEditOwn,
		PermUserAddClient,
		PermUserAddStaff,
		PermUserAddAdmin,
		PermUserDeleteAny,
		PermUserDeleteStaff,
		PermUserDeleteClient,
		PermUserDeleteOwn,
		PermUserSearch,
		PermUserAssignRole,
		PermUserBan,
		PermUserSuspend,
		PermUserRevertStatus,
		PermUserTrashView,
		PermUserTrashRestore,
	},
	"joke": {
		PermJokeBrowse,
		PermJokeShowAny,
		PermJokeShowOwn,
		PermJokeEditAny,
		PermJokeEditOwn,
		PermJokeAdd,
		PermJokeDeleteAny,
		PermJokeDeleteOwn,
		PermJokeSearch,
		PermJokeRandomOne,
		PermJokeTrashView,
		PermJokeTrashRecoverOne,
		PermJokeTrashRemoveOne,
		PermJokeTrashRecoverAll,
		PermJokeTrashEmptyAll,
	},
	"category": {
		PermCategoryBrowse,
		PermCategoryShowAny,
		PermCategoryEditAny,
		PermCategoryAdd,
		PermCategoryDeleteAny,
		PermCategorySearch,
		PermCategoryTrashView,
		PermCategoryTrashRecoverOne,
		PermCategoryTrashRemoveOne,
		PermCategoryTrashRecoverAll,
		PermCategoryTrashEmptyAll,
	},
	"vote": {
		PermVoteAdd,
		PermVoteEditOwn,
		PermVoteDeleteOwn,
		PermVoteClearUser,
		PermVoteClearAll,
		PermVoteResetAll,
	},
	"auth": {
		PermAuthRegister,
		PermAuthLogin,
		PermAuthLogout,
		PermAuthResetPasswordOwn,
		PermAuthResetPasswordOthers,
		PermAuthForceLogoutOthers,
	},
	"profile": {
		PermProfileViewOwn,
		PermProfileEditOwn,
		PermProfileDeleteOwn,
	},
}

// AllPermissions returns every registered permission name.
func AllPermissions() []string {
	var perms []string
	for _, group := range Registry {
		perms = append(perms, group...)
	}
	return perms
}

// IsRegistered reports whether the permission name exists in the
// catalog.
func IsRegistered(perm string) bool {
	for _, group := range Registry {
		for _, p := range group {
			if p == perm {
				return true
			}
		}
	}
	return false
}
