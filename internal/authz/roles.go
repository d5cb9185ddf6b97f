package authz

// Role represents one of the five built-in roles.
type Role string

const (
	// RoleGuest is the unauthenticated baseline role
	RoleGuest Role = "guest"
	// RoleClient is the default role for registered users
	RoleClient Role = "client"
	// RoleStaff moderates content and manages client accounts
	RoleStaff Role = "staff"
	// RoleAdmin manages staff and clients but not other admins
	RoleAdmin Role = "admin"
	// RoleSuperuser holds every permission; exactly one such role
	// exists and it can be neither edited nor deleted
	RoleSuperuser Role = "superuser"
)

// AllRoles lists every built-in role in ascending privilege order.
var AllRoles = []Role{RoleGuest, RoleClient, RoleStaff, RoleAdmin, RoleSuperuser}

// RoleLevel maps each role to its privilege level. Levels order the
// roles for ceiling checks; the values themselves are never exposed.
var RoleLevel = map[Role]int{
	RoleGuest:     0,
	RoleClient:    100,
	RoleStaff:     500,
	RoleAdmin:     750,
	RoleSuperuser: 999,
}

// IsValidRole reports whether name is one of the built-in roles.
func IsValidRole(name string) bool {
	_, ok := RoleLevel[Role(name)]
	return ok
}

// AssignableRoles are the roles an endpoint may grant. The superuser
// role is provisioned once and never assigned through the API.
var AssignableRoles = []Role{RoleClient, RoleStaff, RoleAdmin}

// RoleGrants defines the permission set provisioned for each role.
// The superuser entry is computed in init from the full registry.
var RoleGrants = map[Role][]string{
	RoleGuest: {
		PermAuthRegister,
		PermJokeRandomOne,
	},
	RoleClient: {
		PermAuthLogin,
		PermAuthLogout,
		PermAuthResetPasswordOwn,
		PermProfileViewOwn,
		PermProfileEditOwn,
		PermProfileDeleteOwn,
		PermJokeBrowse,
		PermJokeShowAny,
		PermJokeShowOwn,
		PermJokeEditOwn,
		PermJokeAdd,
		PermJokeDeleteOwn,
		PermJokeSearch,
		PermCategoryBrowse,
		PermCategoryShowAny,
		PermCategorySearch,
		PermVoteAdd,
		PermVoteEditOwn,
		PermVoteDeleteOwn,
		PermUserShowOwn,
		PermUserEditOwn,
		PermUserDeleteOwn,
	},
	RoleStaff: {
		PermAuthLogin,
		PermAuthLogout,
		PermAuthResetPasswordOwn,
		PermAuthResetPasswordOthers,
		PermAuthForceLogoutOthers,
		PermProfileViewOwn,
		PermProfileEditOwn,
		PermUserBrowse,
		PermUserShowAny,
		PermUserShowOwn,
		PermUserEditClient,
		PermUserEditOwn,
		PermUserAddClient,
		PermUserDeleteClient,
		PermUserSearch,
		PermUserBan,
		PermUserSuspend,
		PermUserRevertStatus,
		PermJokeBrowse,
		PermJokeShowAny,
		PermJokeEditAny,
		PermJokeAdd,
		PermJokeDeleteAny,
		PermJokeSearch,
		PermCategoryBrowse,
		PermCategoryShowAny,
		PermCategoryEditAny,
		PermCategoryAdd,
		PermCategoryDeleteAny,
		PermCategorySearch,
		PermCategoryTrashView,
		PermCategoryTrashRecoverOne,
		PermVoteAdd,
		PermVoteEditOwn,
		PermVoteDeleteOwn,
	},
	RoleAdmin: {
		PermAuthLogin,
		PermAuthLogout,
		PermAuthResetPasswordOwn,
		PermAuthResetPasswordOthers,
		PermAuthForceLogoutOthers,
		PermProfileViewOwn,
		PermProfileEditOwn,
		PermUserBrowse,
		PermUserShowAny,
		PermUserEditAny,
		PermUserAddClient,
		PermUserAddStaff,
		PermUserDeleteStaff,
		PermUserDeleteClient,
		PermUserSearch,
		PermUserAssignRole,
		PermUserBan,
		PermUserSuspend,
		PermUserRevertStatus,
		PermJokeBrowse,
		PermJokeShowAny,
		PermJokeEditAny,
		PermJokeAdd,
		PermJokeDeleteAny,
		PermJokeSearch,
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
		PermVoteAdd,
		PermVoteEditOwn,
		PermVoteDeleteOwn,
		PermVoteClearUser,
	},
}

func init() {
	// Superuser holds every registered permission.
	RoleGrants[RoleSuperuser] = AllPermissions()
}

// GrantsForRoles returns the effective permission set for a set of
// role names, deduplicated.
func GrantsForRoles(roles []string) map[string]bool {
	perms := make(map[string]bool)
	for _, name := range roles {
		for _, p := range RoleGrants[Role(name)] {
			perms[p] = true
		}
	}
	return perms
}
