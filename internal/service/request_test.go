package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/push"
	"bloodbridge-backend/internal/service"
)

func strPtr(s string) *string { return &s }

func newRequestService(t *testing.T) (service.RequestService, *MockRequestRepo, *MockResponseRepo, *MockUserRepo, *fakeSender) {
	t.Helper()
	requestRepo := new(MockRequestRepo)
	responseRepo := new(MockResponseRepo)
	userRepo := new(MockUserRepo)
	sender := newFakeSender()
	svc := service.NewRequestService(requestRepo, responseRepo, userRepo, sender, service.MatchingOptions{
		RadiusMeters:      5000,
		EligibilityWindow: 90 * 24 * time.Hour,
		SendTimeout:       time.Second,
	})
	return svc, requestRepo, responseRepo, userRepo, sender
}

// drain waits for detached notification goroutines to finish.
func drain(svc service.RequestService) {
	svc.(interface{ Wait() }).Wait()
}

func validCreateInput() service.CreateRequestInput {
	return service.CreateRequestInput{
		BloodGroup:   "A+",
		Units:        2,
		PatientName:  "John Doe",
		HospitalName: "City Hospital",
		PhoneNumber:  "5550100",
		Location:     domain.Point{Latitude: 12.97, Longitude: 77.59},
		Priority:     "urgent",
	}
}

func TestCreateRequest_Validation(t *testing.T) {
	svc, requestRepo, _, _, _ := newRequestService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*service.CreateRequestInput)
	}{
		{"invalid blood group", func(in *service.CreateRequestInput) { in.BloodGroup = "X+" }},
		{"zero units", func(in *service.CreateRequestInput) { in.Units = 0 }},
		{"missing hospital", func(in *service.CreateRequestInput) { in.HospitalName = " " }},
		{"missing phone", func(in *service.CreateRequestInput) { in.PhoneNumber = "" }},
		{"bad latitude", func(in *service.CreateRequestInput) { in.Location.Latitude = 123 }},
		{"bad priority", func(in *service.CreateRequestInput) { in.Priority = "asap" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput()
			tc.mutate(&input)

			_, err := svc.CreateRequest(ctx, 1, input)
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
		})
	}
	// Nothing may be persisted when validation fails.
	requestRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateRequest_FanOut(t *testing.T) {
	svc, requestRepo, _, userRepo, sender := newRequestService(t)
	ctx := context.Background()

	requestRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.BloodRequest")).
		Run(func(args mock.Arguments) {
			req := args.Get(1).(*domain.BloodRequest)
			req.ID = 42
		}).Return(nil)

	near := domain.Donor{User: domain.User{ID: 2, PushToken: strPtr("token-near")}, DistanceKm: 1.8}
	noToken := domain.Donor{User: domain.User{ID: 3}, DistanceKm: 3.1}
	stale := domain.Donor{User: domain.User{ID: 4, PushToken: strPtr("token-dead")}, DistanceKm: 4.0}
	userRepo.On("FindEligibleDonors", mock.Anything, domain.BloodType("A+"), mock.Anything,
		5000.0, int32(1), mock.AnythingOfType("time.Time")).
		Return([]domain.Donor{near, noToken, stale}, nil)

	// The dead token is permanently invalid and must be cleared.
	sender.fail["token-dead"] = push.ErrTokenInvalid
	userRepo.On("ClearPushToken", mock.Anything, int32(4)).Return(nil)

	req, err := svc.CreateRequest(ctx, 1, validCreateInput())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, req.Status)

	drain(svc)

	assert.Equal(t, []string{"token-near"}, sender.Sent())
	userRepo.AssertCalled(t, "ClearPushToken", mock.Anything, int32(4))
	requestRepo.AssertExpectations(t)
}

func TestCreateRequest_LookupFailureDoesNotAffectCreation(t *testing.T) {
	svc, requestRepo, _, userRepo, sender := newRequestService(t)
	ctx := context.Background()

	requestRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	userRepo.On("FindEligibleDonors", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.Donor{}, assert.AnError)

	_, err := svc.CreateRequest(ctx, 1, validCreateInput())
	require.NoError(t, err)

	drain(svc)
	assert.Empty(t, sender.Sent())
}

func TestRespondToRequest(t *testing.T) {
	ctx := context.Background()
	donor := domain.Caller{Kind: domain.ActorUser, UserID: 7}
	request := &domain.BloodRequest{
		ID:          10,
		RequesterID: 1,
		BloodGroup:  "B-",
		Status:      domain.RequestStatusPending,
		Location:    domain.Point{Latitude: 12.97, Longitude: 77.59},
	}

	t.Run("own request is forbidden", func(t *testing.T) {
		svc, requestRepo, _, _, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)

		self := domain.Caller{Kind: domain.ActorUser, UserID: 1}
		_, err := svc.RespondToRequest(ctx, self, 10, "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("records approved response with distance", func(t *testing.T) {
		svc, requestRepo, responseRepo, userRepo, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)
		requestRepo.On("TransitionStatus", mock.Anything, int32(10), domain.RequestStatusResponded,
			domain.RequestStatusPending, domain.RequestStatusResponded).Return(nil)
		userRepo.On("GetByID", mock.Anything, int32(7)).Return(&domain.User{
			ID:       7,
			Location: domain.Point{Latitude: 12.99, Longitude: 77.60},
		}, nil)
		responseRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.DonorResponse")).Return(nil)
		// Counterparty notification looks up the requester.
		userRepo.On("GetByID", mock.Anything, int32(1)).Return(&domain.User{ID: 1}, nil)

		resp, err := svc.RespondToRequest(ctx, donor, 10, "can be there in 20")
		require.NoError(t, err)
		assert.Equal(t, domain.ResponseStatusApproved, resp.Status)
		require.NotNil(t, resp.DistanceKm)
		assert.InDelta(t, 2.5, *resp.DistanceKm, 1.0)

		drain(svc)
		responseRepo.AssertExpectations(t)
	})

	t.Run("closed request conflicts", func(t *testing.T) {
		svc, requestRepo, responseRepo, _, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)
		requestRepo.On("TransitionStatus", mock.Anything, int32(10), domain.RequestStatusResponded,
			domain.RequestStatusPending, domain.RequestStatusResponded).Return(domain.ErrConflict)

		_, err := svc.RespondToRequest(ctx, donor, 10, "")
		assert.ErrorIs(t, err, domain.ErrConflict)
		responseRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})
}

func TestAcceptDonor(t *testing.T) {
	ctx := context.Background()
	request := &domain.BloodRequest{ID: 10, RequesterID: 1, PhoneNumber: "5550100",
		HospitalName: "City Hospital", Status: domain.RequestStatusResponded}

	t.Run("only the requester may accept", func(t *testing.T) {
		svc, requestRepo, _, _, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)

		other := domain.Caller{Kind: domain.ActorUser, UserID: 99}
		err := svc.AcceptDonor(ctx, other, 10, 7)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("accept requires an existing response", func(t *testing.T) {
		svc, requestRepo, responseRepo, _, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)
		responseRepo.On("Get", mock.Anything, int32(10), int32(7)).Return(nil, domain.ErrNotFound)

		requester := domain.Caller{Kind: domain.ActorUser, UserID: 1}
		err := svc.AcceptDonor(ctx, requester, 10, 7)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("a withdrawn response cannot be selected", func(t *testing.T) {
		svc, requestRepo, responseRepo, _, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)
		responseRepo.On("Get", mock.Anything, int32(10), int32(7)).
			Return(&domain.DonorResponse{RequestID: 10, DonorID: 7, Status: domain.ResponseStatusRejected}, nil)

		requester := domain.Caller{Kind: domain.ActorUser, UserID: 1}
		err := svc.AcceptDonor(ctx, requester, 10, 7)
		assert.ErrorIs(t, err, domain.ErrConflict)
		requestRepo.AssertNotCalled(t, "TransitionStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("moves the request to accepted and notifies the donor", func(t *testing.T) {
		svc, requestRepo, responseRepo, userRepo, sender := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)
		responseRepo.On("Get", mock.Anything, int32(10), int32(7)).
			Return(&domain.DonorResponse{RequestID: 10, DonorID: 7, Status: domain.ResponseStatusApproved}, nil)
		requestRepo.On("TransitionStatus", mock.Anything, int32(10), domain.RequestStatusAccepted,
			domain.RequestStatusPending, domain.RequestStatusResponded).Return(nil)
		userRepo.On("GetByID", mock.Anything, int32(7)).
			Return(&domain.User{ID: 7, PushToken: strPtr("donor-token")}, nil)

		requester := domain.Caller{Kind: domain.ActorUser, UserID: 1}
		err := svc.AcceptDonor(ctx, requester, 10, 7)
		require.NoError(t, err)

		drain(svc)
		assert.Equal(t, []string{"donor-token"}, sender.Sent())
	})
}

func TestConfirmCompletion(t *testing.T) {
	ctx := context.Background()
	requester := domain.Caller{Kind: domain.ActorUser, UserID: 1}
	request := &domain.BloodRequest{ID: 10, RequesterID: 1, Status: domain.RequestStatusAccepted}

	t.Run("first confirmation completes and records the donation", func(t *testing.T) {
		svc, requestRepo, responseRepo, userRepo, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)
		responseRepo.On("Get", mock.Anything, int32(10), int32(7)).
			Return(&domain.DonorResponse{RequestID: 10, DonorID: 7, Status: domain.ResponseStatusApproved}, nil)
		requestRepo.On("TransitionStatus", mock.Anything, int32(10), domain.RequestStatusCompleted,
			domain.RequestStatusAccepted).Return(nil)
		responseRepo.On("MarkCompleted", mock.Anything, int32(10), int32(7)).Return(nil)
		userRepo.On("RecordDonation", mock.Anything, int32(7), mock.AnythingOfType("time.Time")).Return(nil)
		userRepo.On("GetByID", mock.Anything, int32(7)).Return(&domain.User{ID: 7}, nil)

		err := svc.ConfirmCompletion(ctx, requester, 10, 7)
		require.NoError(t, err)

		drain(svc)
		userRepo.AssertCalled(t, "RecordDonation", mock.Anything, int32(7), mock.AnythingOfType("time.Time"))
	})

	t.Run("second confirmation conflicts and touches nothing", func(t *testing.T) {
		svc, requestRepo, responseRepo, userRepo, _ := newRequestService(t)
		completed := &domain.BloodRequest{ID: 10, RequesterID: 1, Status: domain.RequestStatusCompleted}
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(completed, nil)
		responseRepo.On("Get", mock.Anything, int32(10), int32(8)).
			Return(&domain.DonorResponse{RequestID: 10, DonorID: 8, Status: domain.ResponseStatusApproved}, nil)
		requestRepo.On("TransitionStatus", mock.Anything, int32(10), domain.RequestStatusCompleted,
			domain.RequestStatusAccepted).Return(domain.ErrConflict)

		err := svc.ConfirmCompletion(ctx, requester, 10, 8)
		assert.ErrorIs(t, err, domain.ErrConflict)
		responseRepo.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything)
		userRepo.AssertNotCalled(t, "RecordDonation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unresponded donor never reaches the terminal transition", func(t *testing.T) {
		svc, requestRepo, responseRepo, userRepo, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)
		responseRepo.On("Get", mock.Anything, int32(10), int32(99)).Return(nil, domain.ErrNotFound)

		err := svc.ConfirmCompletion(ctx, requester, 10, 99)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		requestRepo.AssertNotCalled(t, "TransitionStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		responseRepo.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything)
		userRepo.AssertNotCalled(t, "RecordDonation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("withdrawn donor conflicts before the terminal transition", func(t *testing.T) {
		svc, requestRepo, responseRepo, _, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)
		responseRepo.On("Get", mock.Anything, int32(10), int32(7)).
			Return(&domain.DonorResponse{RequestID: 10, DonorID: 7, Status: domain.ResponseStatusRejected}, nil)

		err := svc.ConfirmCompletion(ctx, requester, 10, 7)
		assert.ErrorIs(t, err, domain.ErrConflict)
		requestRepo.AssertNotCalled(t, "TransitionStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRejectRequest(t *testing.T) {
	ctx := context.Background()
	request := &domain.BloodRequest{ID: 10, RequesterID: 1, Status: domain.RequestStatusResponded}

	t.Run("requester rejects an open request", func(t *testing.T) {
		svc, requestRepo, _, _, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)
		requestRepo.On("TransitionStatus", mock.Anything, int32(10), domain.RequestStatusRejected,
			domain.RequestStatusPending, domain.RequestStatusResponded).Return(nil)

		requester := domain.Caller{Kind: domain.ActorUser, UserID: 1}
		assert.NoError(t, svc.RejectRequest(ctx, requester, 10))
	})

	t.Run("donor withdrawal flips only their response", func(t *testing.T) {
		svc, requestRepo, responseRepo, userRepo, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)
		responseRepo.On("Get", mock.Anything, int32(10), int32(7)).
			Return(&domain.DonorResponse{RequestID: 10, DonorID: 7, Status: domain.ResponseStatusApproved}, nil)
		responseRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(r *domain.DonorResponse) bool {
			return r.Status == domain.ResponseStatusRejected
		})).Return(nil)
		userRepo.On("GetByID", mock.Anything, int32(1)).Return(&domain.User{ID: 1}, nil)

		withdrawing := domain.Caller{Kind: domain.ActorUser, UserID: 7}
		require.NoError(t, svc.RejectRequest(ctx, withdrawing, 10))

		drain(svc)
		requestRepo.AssertNotCalled(t, "TransitionStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("withdrawal without a response is forbidden", func(t *testing.T) {
		svc, requestRepo, responseRepo, _, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)
		responseRepo.On("Get", mock.Anything, int32(10), int32(8)).Return(nil, domain.ErrNotFound)

		bystander := domain.Caller{Kind: domain.ActorUser, UserID: 8}
		err := svc.RejectRequest(ctx, bystander, 10)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("accepted request cannot be rejected", func(t *testing.T) {
		svc, requestRepo, _, _, _ := newRequestService(t)
		accepted := &domain.BloodRequest{ID: 10, RequesterID: 1, Status: domain.RequestStatusAccepted}
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(accepted, nil)
		requestRepo.On("TransitionStatus", mock.Anything, int32(10), domain.RequestStatusRejected,
			domain.RequestStatusPending, domain.RequestStatusResponded).Return(domain.ErrConflict)

		requester := domain.Caller{Kind: domain.ActorUser, UserID: 1}
		err := svc.RejectRequest(ctx, requester, 10)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestListResponses_Access(t *testing.T) {
	ctx := context.Background()
	request := &domain.BloodRequest{ID: 10, RequesterID: 1}

	t.Run("stranger is forbidden", func(t *testing.T) {
		svc, requestRepo, _, _, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)

		stranger := domain.Caller{Kind: domain.ActorUser, UserID: 5}
		_, err := svc.ListResponses(ctx, stranger, 10)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("admin may inspect any request", func(t *testing.T) {
		svc, requestRepo, responseRepo, _, _ := newRequestService(t)
		requestRepo.On("GetByID", mock.Anything, int32(10)).Return(request, nil)
		responseRepo.On("ListByRequest", mock.Anything, int32(10)).
			Return([]domain.DonorResponseDetail{}, nil)

		admin := domain.Caller{Kind: domain.ActorAdmin, UserID: 100}
		_, err := svc.ListResponses(ctx, admin, 10)
		assert.NoError(t, err)
	})
}
