package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/service"
)

type RequestHandler struct {
	requestSvc service.RequestService
}

func NewRequestHandler(requestSvc service.RequestService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc}
}

type createRequestBody struct {
	BloodGroup      string       `json:"blood_group"`
	Units           int32        `json:"units"`
	PatientName     string       `json:"patient_name"`
	HospitalName    string       `json:"hospital_name"`
	HospitalAddress string       `json:"hospital_address"`
	PhoneNumber     string       `json:"phone_number"`
	Notes           string       `json:"notes"`
	Location        domain.Point `json:"location"`
	Priority        string       `json:"priority"`
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createRequestBody
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	request, err := h.requestSvc.CreateRequest(r.Context(), caller.UserID, service.CreateRequestInput{
		BloodGroup:      req.BloodGroup,
		Units:           req.Units,
		PatientName:     req.PatientName,
		HospitalName:    req.HospitalName,
		HospitalAddress: req.HospitalAddress,
		PhoneNumber:     req.PhoneNumber,
		Notes:           req.Notes,
		Location:        req.Location,
		Priority:        req.Priority,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := domain.ActiveRequestFilter{
		Page:     queryInt32(r, "page", 1),
		PageSize: queryInt32(r, "page_size", 10),
	}
	if caller.IsUser() {
		filter.ExcludeRequesterID = caller.UserID
	}
	if latRaw, lngRaw := q.Get("latitude"), q.Get("longitude"); latRaw != "" && lngRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lng, lngErr := strconv.ParseFloat(lngRaw, 64)
		if latErr != nil || lngErr != nil {
			writeError(w, r, domain.NewValidationError("location", "latitude and longitude must be numbers"))
			return
		}
		filter.Origin = &domain.Point{Latitude: lat, Longitude: lng}
	}

	page, err := h.requestSvc.ListActiveRequests(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireCaller(w, r); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	request, err := h.requestSvc.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

type respondBody struct {
	Remarks string `json:"remarks"`
}

func (h *RequestHandler) Respond(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req respondBody
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	response, err := h.requestSvc.RespondToRequest(r.Context(), caller, id, req.Remarks)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, response)
}

func (h *RequestHandler) ListResponses(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	responses, err := h.requestSvc.ListResponses(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"responses": responses, "count": len(responses)})
}

type donorActionBody struct {
	DonorID int32 `json:"donor_id"`
}

func (h *RequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req donorActionBody
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.DonorID <= 0 {
		writeError(w, r, domain.NewValidationError("donor_id", "must be a positive integer"))
		return
	}

	if err := h.requestSvc.AcceptDonor(r.Context(), caller, id, req.DonorID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "donor accepted"})
}

func (h *RequestHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req donorActionBody
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.DonorID <= 0 {
		writeError(w, r, domain.NewValidationError("donor_id", "must be a positive integer"))
		return
	}

	if err := h.requestSvc.ConfirmCompletion(r.Context(), caller, id, req.DonorID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "donation confirmed"})
}

func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.requestSvc.RejectRequest(r.Context(), caller, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "request rejected"})
}

func (h *RequestHandler) History(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	requesterID := caller.UserID
	if _, present := mux.Vars(r)["userID"]; present {
		id, err := pathID(r, "userID")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !caller.IsAdmin() && id != caller.UserID {
			writeError(w, r, domain.ErrForbidden)
			return
		}
		requesterID = id
	}

	requests, err := h.requestSvc.RequestHistory(r.Context(), requesterID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": requests, "count": len(requests)})
}

func (h *RequestHandler) Donations(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}

	donations, err := h.requestSvc.DonationHistory(r.Context(), caller.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"donations": donations, "count": len(donations)})
}
