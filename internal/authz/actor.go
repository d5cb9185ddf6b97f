package authz

// Actor is the pre-loaded snapshot of the acting user that the policy
// engine evaluates against. It is plain data: the auth middleware
// resolves roles and effective permissions once per request and the
// engine never reaches back into storage.
type Actor struct {
	ID            string
	Roles         []string
	Permissions   map[string]bool
	EmailVerified bool
}

// Can reports whether the actor holds the named permission.
func (a Actor) Can(perm string) bool {
	return a.Permissions[perm]
}

// HasRole reports whether the actor holds the named role.
func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if Role(r) == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the actor holds at least one of the
// given roles.
func (a Actor) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if a.HasRole(r) {
			return true
		}
	}
	return false
}

// Subject is the lightweight view of a target user that instance
// checks evaluate against.
type Subject struct {
	ID    string
	Roles []string
}

// HasRole reports whether the subject holds the named role.
func (s Subject) HasRole(role Role) bool {
	for _, r := range s.Roles {
		if Role(r) == role {
			return true
		}
	}
	return false
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

// DecisionObserver, when set, is called once per policy evaluation.
// Wired at startup to the metrics counter; the package itself stays
// free of metrics dependencies. Set it before serving traffic, it is
// read without synchronization afterwards.
var DecisionObserver func(allowed bool, reason string)

// Allow returns an allowing decision.
func Allow() Decision {
	if DecisionObserver != nil {
		DecisionObserver(true, "")
	}
	return Decision{Allowed: true}
}

// Deny returns a denying decision with the given reason.
func Deny(reason string) Decision {
	if DecisionObserver != nil {
		DecisionObserver(false, reason)
	}
	return Decision{Reason: reason}
}

// Common deny reasons shared across policies.
const (
	ReasonEmailNotVerified = "email address is not verified"
	ReasonMissingPerm      = "missing required permission"
	ReasonRoleCeiling      = "target outranks the acting user"
	ReasonNotOwner         = "resource belongs to another user"
	ReasonSelfTarget       = "cannot target own account"
	ReasonSuperuserTarget  = "superuser accounts cannot be targeted"
	ReasonSuperuserGrant   = "the superuser role cannot be granted"
)
