package domain

import "time"

type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
)

var validBloodTypes = map[BloodType]bool{
	BloodTypeAPos: true, BloodTypeANeg: true,
	BloodTypeBPos: true, BloodTypeBNeg: true,
	BloodTypeABPos: true, BloodTypeABNeg: true,
	BloodTypeOPos: true, BloodTypeONeg: true,
}

// IsValidBloodType reports whether s is one of the eight canonical groups.
func IsValidBloodType(s string) bool {
	return validBloodTypes[BloodType(s)]
}

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinates are inside the WGS84 envelope.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

type User struct {
	ID               int32      `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	PhoneNumber      string     `json:"phone_number"`
	PasswordHash     string     `json:"-"`
	DateOfBirth      string     `json:"date_of_birth"`
	BloodType        BloodType  `json:"blood_type"`
	Location         Point      `json:"location"`
	OrganizationID   *int32     `json:"organization_id,omitempty"`
	IsAvailableDonor bool       `json:"is_available_donor"`
	IsVerified       bool       `json:"is_verified"`
	DonationCount    int32      `json:"donation_count"`
	LastDonationOn   *time.Time `json:"last_donation_on,omitempty"`
	PushToken        *string    `json:"-"`
	HeightCm         *int32     `json:"height_cm,omitempty"`
	WeightKg         *int32     `json:"weight_kg,omitempty"`
	CreatedOn        time.Time  `json:"created_on"`
	UpdatedOn        time.Time  `json:"updated_on"`
}

// PublicProfile strips credentials and device state for embedding in
// payloads visible to other users.
type PublicProfile struct {
	ID            int32     `json:"id"`
	Name          string    `json:"name"`
	BloodType     BloodType `json:"blood_type"`
	PhoneNumber   string    `json:"phone_number"`
	DonationCount int32     `json:"donation_count"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:            u.ID,
		Name:          u.Name,
		BloodType:     u.BloodType,
		PhoneNumber:   u.PhoneNumber,
		DonationCount: u.DonationCount,
	}
}

// Donor is a user row enriched with the distance to a query origin and the
// timestamp of the most recent completed donation, both computed in the query.
type Donor struct {
	User
	DistanceKm   float64    `json:"distance_km"`
	LastDonation *time.Time `json:"last_donation,omitempty"`
}
