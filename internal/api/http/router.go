package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"bloodbridge-backend/internal/service"
	"bloodbridge-backend/internal/storage"
)

// RouterDeps bundles the services the HTTP surface is built from.
type RouterDeps struct {
	AuthSvc    service.AuthService
	UserSvc    service.UserService
	RequestSvc service.RequestService
	OrgSvc     service.OrganizationService
	BannerSvc  service.BannerService
	RatingSvc  service.RatingService

	// MaxUploadBytes caps multipart banner uploads.
	MaxUploadBytes int64
	// LocalFiles is non-nil when the mock storage backend is active and
	// uploaded objects should be served from disk.
	LocalFiles *storage.MockStorage
}

// NewRouter builds the full REST surface under /api/v1.
func NewRouter(deps RouterDeps) *mux.Router {
	authHandler := NewAuthHandler(deps.AuthSvc)
	userHandler := NewUserHandler(deps.UserSvc)
	requestHandler := NewRequestHandler(deps.RequestSvc)
	orgHandler := NewOrganizationHandler(deps.OrgSvc, deps.AuthSvc)
	bannerHandler := NewBannerHandler(deps.BannerSvc, deps.MaxUploadBytes)
	ratingHandler := NewRatingHandler(deps.RatingSvc)

	r := mux.NewRouter()
	r.Use(LoggingMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	if deps.LocalFiles != nil {
		fileHandler := NewFileHandler(deps.LocalFiles)
		r.HandleFunc("/files/{key:.+}", fileHandler.Serve).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// Unauthenticated surface.
	api.HandleFunc("/auth/signup", authHandler.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify", authHandler.VerifyOTP).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/forgot-password", authHandler.ForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset-password/{token}", authHandler.ResetPassword).Methods(http.MethodPost)
	api.HandleFunc("/org", authHandler.OrganizationSignup).Methods(http.MethodPost)
	api.HandleFunc("/org/login", authHandler.OrganizationLogin).Methods(http.MethodPost)
	api.HandleFunc("/admin/signup", authHandler.AdminSignup).Methods(http.MethodPost)
	api.HandleFunc("/admin/login", authHandler.AdminLogin).Methods(http.MethodPost)
	api.HandleFunc("/banners", bannerHandler.List).Methods(http.MethodGet)

	// Everything below requires a resolved caller.
	protected := api.PathPrefix("/").Subrouter()
	protected.Use(AuthMiddleware(deps.AuthSvc))

	protected.HandleFunc("/org/profile", orgHandler.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/org/profile", orgHandler.UpdateProfile).Methods(http.MethodPut)
	protected.HandleFunc("/org/members", orgHandler.ListMembers).Methods(http.MethodGet)
	protected.HandleFunc("/org/members", orgHandler.AddMember).Methods(http.MethodPost)
	protected.HandleFunc("/org/members/{userID:[0-9]+}", orgHandler.UpdateMember).Methods(http.MethodPut)
	protected.HandleFunc("/org/members/{userID:[0-9]+}", orgHandler.RemoveMember).Methods(http.MethodDelete)

	protected.HandleFunc("/users", userHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/users/me", userHandler.GetMe).Methods(http.MethodGet)
	protected.HandleFunc("/users/me", userHandler.UpdateMe).Methods(http.MethodPut)
	protected.HandleFunc("/users/me/leave-org", userHandler.LeaveOrganization).Methods(http.MethodPut)
	protected.HandleFunc("/users/{id:[0-9]+}", userHandler.GetByID).Methods(http.MethodGet)
	protected.HandleFunc("/donors/nearby", userHandler.FindNearby).Methods(http.MethodPost)

	protected.HandleFunc("/requests", requestHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/requests", requestHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/requests/history", requestHandler.History).Methods(http.MethodGet)
	protected.HandleFunc("/requests/history/{userID:[0-9]+}", requestHandler.History).Methods(http.MethodGet)
	protected.HandleFunc("/requests/{id:[0-9]+}", requestHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/requests/{id:[0-9]+}/respond", requestHandler.Respond).Methods(http.MethodPost)
	protected.HandleFunc("/requests/{id:[0-9]+}/responses", requestHandler.ListResponses).Methods(http.MethodGet)
	protected.HandleFunc("/requests/{id:[0-9]+}/accept", requestHandler.Accept).Methods(http.MethodPost)
	protected.HandleFunc("/requests/{id:[0-9]+}/confirm", requestHandler.Confirm).Methods(http.MethodPost)
	protected.HandleFunc("/requests/{id:[0-9]+}/reject", requestHandler.Reject).Methods(http.MethodPost)
	protected.HandleFunc("/donations", requestHandler.Donations).Methods(http.MethodGet)

	protected.HandleFunc("/ratings", ratingHandler.Submit).Methods(http.MethodPost)
	protected.HandleFunc("/ratings", ratingHandler.GetMine).Methods(http.MethodGet)

	protected.HandleFunc("/banners", bannerHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/banners/{id:[0-9]+}", bannerHandler.Delete).Methods(http.MethodDelete)

	return r
}
