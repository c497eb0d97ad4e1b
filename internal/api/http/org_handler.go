package http

import (
	"net/http"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/service"
)

type OrganizationHandler struct {
	orgSvc  service.OrganizationService
	authSvc service.AuthService
}

func NewOrganizationHandler(orgSvc service.OrganizationService, authSvc service.AuthService) *OrganizationHandler {
	return &OrganizationHandler{orgSvc: orgSvc, authSvc: authSvc}
}

func (h *OrganizationHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireOrganization(w, r)
	if !ok {
		return
	}

	org, err := h.orgSvc.GetProfile(r.Context(), caller.OrgID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

type updateOrgRequest struct {
	Name          string       `json:"name"`
	ContactPerson string       `json:"contact_person"`
	Phone         string       `json:"phone"`
	Address       string       `json:"address"`
	City          string       `json:"city"`
	State         string       `json:"state"`
	Pincode       string       `json:"pincode"`
	Location      domain.Point `json:"location"`
}

func (h *OrganizationHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireOrganization(w, r)
	if !ok {
		return
	}

	var req updateOrgRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	org, err := h.orgSvc.UpdateProfile(r.Context(), caller.OrgID, &domain.Organization{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Pincode:       req.Pincode,
		Location:      req.Location,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *OrganizationHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireOrganization(w, r)
	if !ok {
		return
	}

	members, err := h.orgSvc.ListMembers(r.Context(), caller.OrgID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": members, "count": len(members)})
}

type addMemberRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	DateOfBirth string `json:"date_of_birth"`
	BloodType   string `json:"blood_type"`
}

// AddMember registers a donor account pre-affiliated with the calling
// organization. The member still completes OTP verification themselves.
func (h *OrganizationHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireOrganization(w, r)
	if !ok {
		return
	}

	var req addMemberRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	orgID := caller.OrgID
	user, err := h.authSvc.Signup(r.Context(), service.SignupInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		PhoneNumber:    req.PhoneNumber,
		DateOfBirth:    req.DateOfBirth,
		BloodType:      req.BloodType,
		OrganizationID: &orgID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "member registered, verification code sent",
		"user":    user,
	})
}

type updateMemberRequest struct {
	Name             *string `json:"name,omitempty"`
	PhoneNumber      *string `json:"phone_number,omitempty"`
	BloodType        *string `json:"blood_type,omitempty"`
	IsAvailableDonor *bool   `json:"is_available_donor,omitempty"`
}

func (h *OrganizationHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireOrganization(w, r)
	if !ok {
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateMemberRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.orgSvc.UpdateMember(r.Context(), caller, userID, service.UpdateProfileInput{
		Name:             req.Name,
		PhoneNumber:      req.PhoneNumber,
		BloodType:        req.BloodType,
		IsAvailableDonor: req.IsAvailableDonor,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *OrganizationHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireOrganization(w, r)
	if !ok {
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.orgSvc.RemoveMember(r.Context(), caller, userID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "member removed"})
}
