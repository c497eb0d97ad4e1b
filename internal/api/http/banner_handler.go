package http

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/service"
	"bloodbridge-backend/internal/storage"
)

type BannerHandler struct {
	bannerSvc   service.BannerService
	maxFileSize int64
}

func NewBannerHandler(bannerSvc service.BannerService, maxFileSize int64) *BannerHandler {
	if maxFileSize <= 0 {
		maxFileSize = 5 << 20
	}
	return &BannerHandler{bannerSvc: bannerSvc, maxFileSize: maxFileSize}
}

// Create accepts a multipart form with the image under "image" and
// title/start_date/end_date as form fields.
func (h *BannerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		writeError(w, r, domain.NewValidationError("image", "file exceeds the allowed size"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, domain.NewValidationError("image", "file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, domain.NewValidationError("image", "could not read file"))
		return
	}

	banner, err := h.bannerSvc.CreateBanner(r.Context(), service.CreateBannerInput{
		Title:       r.FormValue("title"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		StartDate:   r.FormValue("start_date"),
		EndDate:     r.FormValue("end_date"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, banner)
}

func (h *BannerHandler) List(w http.ResponseWriter, r *http.Request) {
	banners, err := h.bannerSvc.ListActiveBanners(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"banners": banners, "count": len(banners)})
}

func (h *BannerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.bannerSvc.DeleteBanner(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "banner deleted"})
}

// FileHandler serves objects written by the local mock storage backend.
// It is only registered when that backend is active.
type FileHandler struct {
	store *storage.MockStorage
}

func NewFileHandler(store *storage.MockStorage) *FileHandler {
	return &FileHandler{store: store}
}

func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if key == "" {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	http.ServeFile(w, r, h.store.FilePath(key))
}
