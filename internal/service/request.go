package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/geo"
	"bloodbridge-backend/internal/logger"
	"bloodbridge-backend/internal/push"
	"bloodbridge-backend/internal/repository"
)

// MatchingOptions tune the donor fan-out.
type MatchingOptions struct {
	RadiusMeters      float64
	EligibilityWindow time.Duration
	SendTimeout       time.Duration
}

type requestService struct {
	requestRepo  repository.RequestRepository
	responseRepo repository.ResponseRepository
	userRepo     repository.UserRepository
	sender       push.Sender
	opts         MatchingOptions
	log          *slog.Logger

	// wg tracks in-flight fan-outs so tests and shutdown can drain them.
	wg sync.WaitGroup
}

func NewRequestService(
	requestRepo repository.RequestRepository,
	responseRepo repository.ResponseRepository,
	userRepo repository.UserRepository,
	sender push.Sender,
	opts MatchingOptions,
) RequestService {
	if opts.RadiusMeters <= 0 {
		opts.RadiusMeters = 5000
	}
	if opts.EligibilityWindow <= 0 {
		opts.EligibilityWindow = 90 * 24 * time.Hour
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	return &requestService{
		requestRepo:  requestRepo,
		responseRepo: responseRepo,
		userRepo:     userRepo,
		sender:       sender,
		opts:         opts,
		log:          logger.WithService("request"),
	}
}

func (s *requestService) CreateRequest(ctx context.Context, requesterID int32, input CreateRequestInput) (*domain.BloodRequest, error) {
	if err := validateCreateRequest(requesterID, input); err != nil {
		return nil, err
	}

	priority := domain.RequestPriority(input.Priority)
	if input.Priority == "" {
		priority = domain.PriorityModerate
	}

	req := &domain.BloodRequest{
		RequesterID:     requesterID,
		BloodGroup:      domain.BloodType(input.BloodGroup),
		Units:           input.Units,
		PatientName:     strings.TrimSpace(input.PatientName),
		HospitalName:    strings.TrimSpace(input.HospitalName),
		HospitalAddress: input.HospitalAddress,
		PhoneNumber:     strings.TrimSpace(input.PhoneNumber),
		Notes:           input.Notes,
		Location:        input.Location,
		Priority:        priority,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	// Fan-out runs detached: the request is already durable and push
	// delivery is best-effort, so a slow provider never stalls creation.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.notifyEligibleDonors(req)
	}()

	return req, nil
}

// notifyEligibleDonors looks up matching donors and pushes one notification
// per donor holding a token. One donor's failure never aborts the rest; a
// permanently invalid token is cleared so future fan-outs skip it.
func (s *requestService) notifyEligibleDonors(req *domain.BloodRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SendTimeout*3)
	defer cancel()

	cutoff := time.Now().Add(-s.opts.EligibilityWindow)
	donors, err := s.userRepo.FindEligibleDonors(ctx, req.BloodGroup, req.Location,
		s.opts.RadiusMeters, req.RequesterID, cutoff)
	if err != nil {
		s.log.Error("Eligible donor lookup failed", "request_id", req.ID, "error", err)
		return
	}
	if len(donors) == 0 {
		s.log.Info("No eligible donors found for request", "request_id", req.ID,
			"blood_group", req.BloodGroup)
		return
	}

	title := "Urgent Blood Request"
	body := fmt.Sprintf("%s blood needed at %s", req.BloodGroup, req.HospitalName)
	data := map[string]string{
		"request_id":  strconv.Itoa(int(req.ID)),
		"blood_group": string(req.BloodGroup),
		"hospital":    req.HospitalName,
		"priority":    string(req.Priority),
	}

	var wg sync.WaitGroup
	for _, donor := range donors {
		if donor.PushToken == nil || *donor.PushToken == "" {
			continue
		}
		wg.Add(1)
		go func(donorID int32, token string) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
			defer cancel()
			if err := s.sender.Send(sendCtx, token, title, body, data); err != nil {
				if errors.Is(err, push.ErrTokenInvalid) {
					s.log.Warn("Clearing invalid push token", "donor_id", donorID)
					if clearErr := s.userRepo.ClearPushToken(context.Background(), donorID); clearErr != nil {
						s.log.Error("Failed to clear push token", "donor_id", donorID, "error", clearErr)
					}
					return
				}
				s.log.Error("Push delivery failed", "request_id", req.ID, "donor_id", donorID, "error", err)
			}
		}(donor.ID, *donor.PushToken)
	}
	wg.Wait()

	s.log.Info("Donor fan-out finished", "request_id", req.ID, "eligible", len(donors))
}

func (s *requestService) GetRequest(ctx context.Context, id int32) (*domain.BloodRequest, error) {
	return s.requestRepo.GetByID(ctx, id)
}

func (s *requestService) ListActiveRequests(ctx context.Context, filter domain.ActiveRequestFilter) (*RequestPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 10
	}
	requests, total, err := s.requestRepo.ListActive(ctx, filter)
	if err != nil {
		return nil, err
	}
	totalPages := (total + filter.PageSize - 1) / filter.PageSize
	return &RequestPage{
		Requests:   requests,
		Total:      total,
		Page:       filter.Page,
		TotalPages: totalPages,
	}, nil
}

func (s *requestService) RespondToRequest(ctx context.Context, donor domain.Caller, requestID int32, remarks string) (*domain.DonorResponse, error) {
	if !donor.IsUser() {
		return nil, fmt.Errorf("%w: only users can respond to requests", domain.ErrForbidden)
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequesterID == donor.UserID {
		return nil, fmt.Errorf("%w: cannot respond to your own request", domain.ErrForbidden)
	}

	// Gate first: responding is only legal while the request is open.
	err = s.requestRepo.TransitionStatus(ctx, requestID, domain.RequestStatusResponded,
		domain.RequestStatusPending, domain.RequestStatusResponded)
	if err != nil {
		return nil, err
	}

	resp := &domain.DonorResponse{
		RequestID:      requestID,
		DonorID:        donor.UserID,
		OrganizationID: donor.OrgMemberOf,
		Status:         domain.ResponseStatusApproved,
		Remarks:        remarks,
	}
	if donorUser, err := s.userRepo.GetByID(ctx, donor.UserID); err == nil && donorUser.Location.Valid() {
		km := geo.DistanceKm(donorUser.Location, req.Location)
		resp.DistanceKm = &km
	}
	if err := s.responseRepo.Upsert(ctx, resp); err != nil {
		return nil, err
	}

	s.notifyCounterparty(req.RequesterID, "Your Blood Request Has a Response",
		"A donor has responded to your blood request.", map[string]string{
			"request_id": strconv.Itoa(int(requestID)),
			"donor_id":   strconv.Itoa(int(donor.UserID)),
		})

	return resp, nil
}

func (s *requestService) AcceptDonor(ctx context.Context, caller domain.Caller, requestID, donorID int32) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if err := assertCanMutateRequest(caller, req); err != nil {
		return err
	}
	resp, err := s.responseRepo.Get(ctx, requestID, donorID)
	if err != nil {
		return err
	}
	// A withdrawn or already-completed response cannot be selected.
	if resp.Status != domain.ResponseStatusApproved {
		return fmt.Errorf("%w: response already %s", domain.ErrConflict, resp.Status)
	}

	err = s.requestRepo.TransitionStatus(ctx, requestID, domain.RequestStatusAccepted,
		domain.RequestStatusPending, domain.RequestStatusResponded)
	if err != nil {
		return err
	}

	s.notifyCounterparty(donorID, "Your Response Was Accepted",
		fmt.Sprintf("The requester selected you. Contact: %s, %s.", req.PhoneNumber, req.HospitalName),
		map[string]string{"request_id": strconv.Itoa(int(requestID))})

	return nil
}

func (s *requestService) ConfirmCompletion(ctx context.Context, caller domain.Caller, requestID, donorID int32) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if err := assertCanMutateRequest(caller, req); err != nil {
		return err
	}

	// Only an APPROVED response may be confirmed; checking before the
	// terminal transition keeps a bad donor id from stranding the request
	// in COMPLETED with no completed ledger entry.
	resp, err := s.responseRepo.Get(ctx, requestID, donorID)
	if err != nil {
		return err
	}
	if resp.Status != domain.ResponseStatusApproved {
		return fmt.Errorf("%w: response already %s", domain.ErrConflict, resp.Status)
	}

	// The conditional update is the completion gate: a second confirm,
	// for any donor, finds the request already COMPLETED and conflicts.
	err = s.requestRepo.TransitionStatus(ctx, requestID, domain.RequestStatusCompleted,
		domain.RequestStatusAccepted)
	if err != nil {
		return err
	}

	if err := s.responseRepo.MarkCompleted(ctx, requestID, donorID); err != nil {
		return err
	}
	if err := s.userRepo.RecordDonation(ctx, donorID, time.Now()); err != nil {
		s.log.Error("Failed to record donation counters", "donor_id", donorID, "error", err)
	}

	s.notifyCounterparty(donorID, "Donation Confirmed",
		"The requester confirmed your donation. Thank you for saving a life.",
		map[string]string{"request_id": strconv.Itoa(int(requestID))})

	return nil
}

func (s *requestService) RejectRequest(ctx context.Context, caller domain.Caller, requestID int32) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}

	if caller.IsUser() && caller.UserID != req.RequesterID {
		// Donor withdrawal: only their ledger entry changes.
		resp, err := s.responseRepo.Get(ctx, requestID, caller.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: no response to withdraw", domain.ErrForbidden)
			}
			return err
		}
		if resp.Status != domain.ResponseStatusApproved {
			return fmt.Errorf("%w: response already %s", domain.ErrConflict, resp.Status)
		}
		resp.Status = domain.ResponseStatusRejected
		if err := s.responseRepo.Upsert(ctx, resp); err != nil {
			return err
		}
		s.notifyCounterparty(req.RequesterID, "A Donor Withdrew",
			"A donor withdrew their response to your blood request.",
			map[string]string{"request_id": strconv.Itoa(int(requestID))})
		return nil
	}

	if err := assertCanMutateRequest(caller, req); err != nil {
		return err
	}
	// Accepted requests cannot be rejected; terminal ones conflict too.
	return s.requestRepo.TransitionStatus(ctx, requestID, domain.RequestStatusRejected,
		domain.RequestStatusPending, domain.RequestStatusResponded)
}

func (s *requestService) ListResponses(ctx context.Context, caller domain.Caller, requestID int32) ([]domain.DonorResponseDetail, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		if err := assertCanMutateRequest(caller, req); err != nil {
			return nil, err
		}
	}
	return s.responseRepo.ListByRequest(ctx, requestID)
}

func (s *requestService) RequestHistory(ctx context.Context, requesterID int32) ([]domain.BloodRequest, error) {
	return s.requestRepo.ListByRequester(ctx, requesterID)
}

// DonationHistory is the donor's "my donations" view, so only completed
// entries appear.
func (s *requestService) DonationHistory(ctx context.Context, donorID int32) ([]domain.DonorResponse, error) {
	return s.responseRepo.ListByDonor(ctx, donorID, domain.ResponseStatusCompleted)
}

// notifyCounterparty sends one targeted push; the state change already
// persisted is the source of truth, so failures are only logged.
func (s *requestService) notifyCounterparty(userID int32, title, body string, data map[string]string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.SendTimeout)
		defer cancel()

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			s.log.Error("Counterparty lookup failed", "user_id", userID, "error", err)
			return
		}
		if user.PushToken == nil || *user.PushToken == "" {
			return
		}
		if err := s.sender.Send(ctx, *user.PushToken, title, body, data); err != nil {
			if errors.Is(err, push.ErrTokenInvalid) {
				if clearErr := s.userRepo.ClearPushToken(context.Background(), userID); clearErr != nil {
					s.log.Error("Failed to clear push token", "user_id", userID, "error", clearErr)
				}
				return
			}
			s.log.Error("Counterparty push failed", "user_id", userID, "error", err)
		}
	}()
}

// Wait drains in-flight notification goroutines. Used by shutdown and tests.
func (s *requestService) Wait() {
	s.wg.Wait()
}

func validateCreateRequest(requesterID int32, input CreateRequestInput) error {
	if requesterID == 0 {
		return domain.NewValidationError("requester_id", "is required")
	}
	if !domain.IsValidBloodType(input.BloodGroup) {
		return domain.NewValidationError("blood_group", "must be one of the eight canonical groups")
	}
	if input.Units < 1 {
		return domain.NewValidationError("units", "must be at least 1")
	}
	if strings.TrimSpace(input.HospitalName) == "" {
		return domain.NewValidationError("hospital_name", "is required")
	}
	if strings.TrimSpace(input.PhoneNumber) == "" {
		return domain.NewValidationError("phone_number", "is required")
	}
	if !input.Location.Valid() {
		return domain.NewValidationError("location", "latitude and longitude must be valid coordinates")
	}
	if input.Priority != "" && !domain.IsValidPriority(input.Priority) {
		return domain.NewValidationError("priority", "must be critical, urgent or moderate")
	}
	return nil
}
