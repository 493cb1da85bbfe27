// Package booking decides whether a customer may submit a rental request.
package booking

import (
	"car-rental-client/internal/domain"
	"car-rental-client/internal/session"
)

// Decision is the outcome of CanSubmit. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  domain.ReasonCode
}

var reasonMessages = map[domain.ReasonCode]string{
	domain.ReasonInvalidDateRange:  "please choose a valid start and end date",
	domain.ReasonWrongRole:         "only customers can book a car",
	domain.ReasonIncompleteProfile: "please complete your full name in your profile before booking",
}

// Err converts a refusal into the error a caller reports. Nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == domain.ReasonNotAuthenticated {
		return domain.NewNoSessionError()
	}
	return &domain.ValidationError{Reason: d.Reason, Message: reasonMessages[d.Reason]}
}

func deny(reason domain.ReasonCode) Decision {
	return Decision{Reason: reason}
}

// CanSubmit runs the booking checks in a fixed order and stops at the first
// failure: date range, session, role, then profile name.
func CanSubmit(q domain.Quote, sess *session.Session, profile *domain.User) Decision {
	if q.DayCount <= 0 {
		return deny(domain.ReasonInvalidDateRange)
	}
	if !sess.Authenticated() {
		return deny(domain.ReasonNotAuthenticated)
	}
	if sess.Role() != domain.RoleCustomer {
		return deny(domain.ReasonWrongRole)
	}
	if !profile.HasCompleteName() {
		return deny(domain.ReasonIncompleteProfile)
	}
	return Decision{Allowed: true}
}
