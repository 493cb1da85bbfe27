package navigation

import (
	"car-rental-client/internal/domain"
	"car-rental-client/internal/session"
)

type AccessLevel int

const (
	AccessPublic        AccessLevel = iota // No session needed
	AccessAuthenticated                    // Any signed-in user
	AccessMember                           // Customer or admin
	AccessCustomer                         // Customers only
	AccessNonAdmin                         // Signed in, but not admin
	AccessAdmin                            // Admins only
)

// PageAccessConfig maps each page to the session it requires.
// Decoded roles are advisory; the API enforces the same rules again.
var PageAccessConfig = map[PageKind]AccessLevel{
	KindHome:     AccessPublic,
	KindLogin:    AccessPublic,
	KindRegister: AccessPublic,

	KindVehicles: AccessNonAdmin,
	KindOrder:    AccessCustomer,

	KindMyRentals:     AccessMember,
	KindProfile:       AccessMember,
	KindUpdateProfile: AccessMember,

	KindAdminCars:    AccessAdmin,
	KindAdminRentals: AccessAdmin,
}

// GetAccessLevel returns the access level for a page
func GetAccessLevel(kind PageKind) AccessLevel {
	if level, exists := PageAccessConfig[kind]; exists {
		return level
	}
	// Unknown pages get the strictest level
	return AccessAdmin
}

// Landing is where a session goes right after sign-in
func Landing(sess *session.Session) Page {
	switch {
	case !sess.Authenticated():
		return Home{}
	case sess.IsAdmin():
		return AdminCars{}
	default:
		return Vehicles{}
	}
}

// Guard returns the page the session may actually see when it asks for
// target. A missing session goes to Login, a role mismatch goes to the
// session's landing page.
func Guard(target Page, sess *session.Session) Page {
	level := GetAccessLevel(target.Kind())
	if level == AccessPublic {
		return target
	}
	if !sess.Authenticated() {
		return Login{}
	}

	role := sess.Role()
	allowed := false
	switch level {
	case AccessAuthenticated:
		allowed = true
	case AccessMember:
		allowed = role == domain.RoleCustomer || role == domain.RoleAdmin
	case AccessCustomer:
		allowed = role == domain.RoleCustomer
	case AccessNonAdmin:
		allowed = role != domain.RoleAdmin
	case AccessAdmin:
		allowed = role == domain.RoleAdmin
	}
	if allowed {
		return target
	}
	if level == AccessMember {
		return Home{}
	}
	return Landing(sess)
}

// Allowed reports whether Guard would show target unchanged
func Allowed(target Page, sess *session.Session) bool {
	return Guard(target, sess) == target
}
