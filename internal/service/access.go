package service

import (
	"fmt"

	"bloodbridge-backend/internal/domain"
)

// Access guards. Each returns domain.ErrForbidden on a mismatch; callers
// surface that directly as a 403.

// assertCanMutateRequest allows only the original requester to accept,
// reject or complete their own request.
func assertCanMutateRequest(caller domain.Caller, req *domain.BloodRequest) error {
	if caller.IsUser() && caller.UserID == req.RequesterID {
		return nil
	}
	return fmt.Errorf("%w: caller %d is not the requester of request %d",
		domain.ErrForbidden, caller.UserID, req.ID)
}

// assertCanMutateMembership allows an organization to modify or remove only
// its own members, or users who have not joined any organization yet.
func assertCanMutateMembership(caller domain.Caller, target *domain.User) error {
	if !caller.IsOrganization() {
		return fmt.Errorf("%w: membership changes require an organization caller", domain.ErrForbidden)
	}
	if target.OrganizationID == nil || *target.OrganizationID == caller.OrgID {
		return nil
	}
	return fmt.Errorf("%w: user %d belongs to organization %d, not %d",
		domain.ErrForbidden, target.ID, *target.OrganizationID, caller.OrgID)
}
