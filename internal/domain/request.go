package domain

import "time"

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusResponded RequestStatus = "RESPONDED"
	RequestStatusAccepted  RequestStatus = "ACCEPTED"
	RequestStatusCompleted RequestStatus = "COMPLETED"
	RequestStatusRejected  RequestStatus = "REJECTED"
)

// Terminal reports whether no further transition is permitted.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusRejected
}

type RequestPriority string

const (
	PriorityCritical RequestPriority = "critical"
	PriorityUrgent   RequestPriority = "urgent"
	PriorityModerate RequestPriority = "moderate"
)

func IsValidPriority(s string) bool {
	switch RequestPriority(s) {
	case PriorityCritical, PriorityUrgent, PriorityModerate:
		return true
	}
	return false
}

type BloodRequest struct {
	ID              int32           `json:"id"`
	RequesterID     int32           `json:"requester_id"`
	BloodGroup      BloodType       `json:"blood_group"`
	Units           int32           `json:"units"`
	PatientName     string          `json:"patient_name"`
	HospitalName    string          `json:"hospital_name"`
	HospitalAddress string          `json:"hospital_address"`
	PhoneNumber     string          `json:"phone_number"`
	Notes           string          `json:"notes"`
	Location        Point           `json:"location"`
	Priority        RequestPriority `json:"priority"`
	Status          RequestStatus   `json:"status"`
	IsActive        bool            `json:"is_active"`
	CreatedOn       time.Time       `json:"created_on"`
	UpdatedOn       time.Time       `json:"updated_on"`
}

// RequestWithDistance carries the proximity-ordered listing distance,
// computed in the query layer.
type RequestWithDistance struct {
	BloodRequest
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// ActiveRequestFilter narrows ListActive. Origin enables nearest-first
// ordering; ExcludeRequesterID drops the caller's own requests.
type ActiveRequestFilter struct {
	ExcludeRequesterID int32
	Origin             *Point
	Page               int32
	PageSize           int32
}
