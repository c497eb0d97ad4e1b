package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/service"
)

type UserHandler struct {
	userSvc service.UserService
}

func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func pathID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return int32(id), nil
}

func queryInt32(r *http.Request, name string, fallback int32) int32 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 1 {
		return fallback
	}
	return int32(v)
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.userSvc.GetProfile(r.Context(), caller.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireCaller(w, r); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := h.userSvc.GetProfile(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Other principals only see the public projection.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":            profile.User.Public(),
		"total_donations": profile.TotalDonations,
		"last_donation":   profile.LastDonation,
	})
}

type updateProfileRequest struct {
	Name             *string       `json:"name,omitempty"`
	PhoneNumber      *string       `json:"phone_number,omitempty"`
	BloodType        *string       `json:"blood_type,omitempty"`
	Location         *domain.Point `json:"location,omitempty"`
	IsAvailableDonor *bool         `json:"is_available_donor,omitempty"`
	HeightCm         *int32        `json:"height_cm,omitempty"`
	WeightKg         *int32        `json:"weight_kg,omitempty"`
	PushToken        *string       `json:"push_token,omitempty"`
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userSvc.UpdateProfile(r.Context(), caller.UserID, service.UpdateProfileInput{
		Name:             req.Name,
		PhoneNumber:      req.PhoneNumber,
		BloodType:        req.BloodType,
		Location:         req.Location,
		IsAvailableDonor: req.IsAvailableDonor,
		HeightCm:         req.HeightCm,
		WeightKg:         req.WeightKg,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.PushToken != nil {
		if err := h.userSvc.UpdatePushToken(r.Context(), caller.UserID, *req.PushToken); err != nil {
			writeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireCaller(w, r); !ok {
		return
	}

	search := r.URL.Query().Get("search")
	page := queryInt32(r, "page", 1)
	pageSize := queryInt32(r, "page_size", 10)

	donors, total, totalPages, err := h.userSvc.ListDonors(r.Context(), search, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"donors":      donors,
		"total":       total,
		"page":        page,
		"total_pages": totalPages,
	})
}

type findNearbyRequest struct {
	BloodType    string       `json:"blood_type"`
	Location     domain.Point `json:"location"`
	RadiusMeters float64      `json:"radius_meters,omitempty"`
}

func (h *UserHandler) FindNearby(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req findNearbyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	donors, err := h.userSvc.FindNearbyDonors(r.Context(), caller.UserID, req.BloodType,
		req.Location, req.RadiusMeters)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"donors": donors, "count": len(donors)})
}

func (h *UserHandler) LeaveOrganization(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.userSvc.LeaveOrganization(r.Context(), caller.UserID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "left organization"})
}
