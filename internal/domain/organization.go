package domain

import "time"

type OrganizationType string

const (
	OrgTypeHospital       OrganizationType = "Hospital"
	OrgTypeBloodBank      OrganizationType = "Blood Bank"
	OrgTypeNGO            OrganizationType = "NGO"
	OrgTypeMedicalCollege OrganizationType = "Medical College"
)

func IsValidOrganizationType(s string) bool {
	switch OrganizationType(s) {
	case OrgTypeHospital, OrgTypeBloodBank, OrgTypeNGO, OrgTypeMedicalCollege:
		return true
	}
	return false
}

type Organization struct {
	ID            int32            `json:"id"`
	Name          string           `json:"name"`
	Type          OrganizationType `json:"type"`
	LicenseNo     string           `json:"license_no"`
	ContactPerson string           `json:"contact_person"`
	Email         string           `json:"email"`
	Phone         string           `json:"phone"`
	Address       string           `json:"address"`
	City          string           `json:"city"`
	State         string           `json:"state"`
	Pincode       string           `json:"pincode"`
	PasswordHash  string           `json:"-"`
	Location      Point            `json:"location"`
	CreatedOn     time.Time        `json:"created_on"`
	UpdatedOn     time.Time        `json:"updated_on"`
}
