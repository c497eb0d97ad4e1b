package http

import (
	"net/http"

	"bloodbridge-backend/internal/service"
)

type RatingHandler struct {
	ratingSvc service.RatingService
}

func NewRatingHandler(ratingSvc service.RatingService) *RatingHandler {
	return &RatingHandler{ratingSvc: ratingSvc}
}

type ratingRequest struct {
	Stars   int32  `json:"stars"`
	Comment string `json:"comment"`
}

func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ratingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rating, err := h.ratingSvc.SubmitRating(r.Context(), caller.UserID, req.Stars, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rating)
}

func (h *RatingHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireUser(w, r)
	if !ok {
		return
	}

	rating, err := h.ratingSvc.GetRating(r.Context(), caller.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}
