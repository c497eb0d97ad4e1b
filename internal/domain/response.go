package domain

import "time"

// ResponseStatus is the sub-status of one donor's response, tracked
// independently of the parent request's status so several donors can respond
// before one is finally selected.
type ResponseStatus string

const (
	ResponseStatusApproved  ResponseStatus = "APPROVED"
	ResponseStatusCompleted ResponseStatus = "COMPLETED"
	ResponseStatusRejected  ResponseStatus = "REJECTED"
)

func IsValidResponseStatus(s string) bool {
	switch ResponseStatus(s) {
	case ResponseStatusApproved, ResponseStatusCompleted, ResponseStatusRejected:
		return true
	}
	return false
}

// DonorResponse is the ledger entry for one (request, donor) pair. The pair
// is unique; recording a second response for the same pair updates in place.
type DonorResponse struct {
	ID             int32          `json:"id"`
	RequestID      int32          `json:"request_id"`
	DonorID        int32          `json:"donor_id"`
	OrganizationID *int32         `json:"organization_id,omitempty"`
	Status         ResponseStatus `json:"status"`
	Remarks        string         `json:"remarks"`
	DistanceKm     *float64       `json:"distance_km,omitempty"`
	CreatedOn      time.Time      `json:"created_on"`
	UpdatedOn      time.Time      `json:"updated_on"`
}

// DonorResponseDetail joins the donor's public profile onto a ledger entry
// for the requester's selection view.
type DonorResponseDetail struct {
	DonorResponse
	Donor PublicProfile `json:"donor"`
}
