package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"bloodbridge-backend/internal/domain"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockUserRepo) DeleteByEmailUnverified(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}
func (m *MockUserRepo) List(ctx context.Context, search string, page, pageSize int32) ([]domain.Donor, int32, error) {
	args := m.Called(ctx, search, page, pageSize)
	return args.Get(0).([]domain.Donor), args.Get(1).(int32), args.Error(2)
}
func (m *MockUserRepo) ListByOrganization(ctx context.Context, orgID int32) ([]domain.User, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]domain.User), args.Error(1)
}
func (m *MockUserRepo) FindEligibleDonors(ctx context.Context, bloodType domain.BloodType, origin domain.Point, radiusMeters float64, excludeUserID int32, completedAfter time.Time) ([]domain.Donor, error) {
	args := m.Called(ctx, bloodType, origin, radiusMeters, excludeUserID, completedAfter)
	return args.Get(0).([]domain.Donor), args.Error(1)
}
func (m *MockUserRepo) MarkVerified(ctx context.Context, id int32, pushToken *string) error {
	args := m.Called(ctx, id, pushToken)
	return args.Error(0)
}
func (m *MockUserRepo) SetPushToken(ctx context.Context, id int32, token *string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}
func (m *MockUserRepo) ClearPushToken(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockUserRepo) SetPassword(ctx context.Context, id int32, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}
func (m *MockUserRepo) LeaveOrganization(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockUserRepo) RecordDonation(ctx context.Context, id int32, donatedOn time.Time) error {
	args := m.Called(ctx, id, donatedOn)
	return args.Error(0)
}

// MockRequestRepo
type MockRequestRepo struct {
	mock.Mock
}

func (m *MockRequestRepo) Create(ctx context.Context, req *domain.BloodRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockRequestRepo) GetByID(ctx context.Context, id int32) (*domain.BloodRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BloodRequest), args.Error(1)
}
func (m *MockRequestRepo) ListActive(ctx context.Context, filter domain.ActiveRequestFilter) ([]domain.RequestWithDistance, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.RequestWithDistance), args.Get(1).(int32), args.Error(2)
}
func (m *MockRequestRepo) ListByRequester(ctx context.Context, requesterID int32) ([]domain.BloodRequest, error) {
	args := m.Called(ctx, requesterID)
	return args.Get(0).([]domain.BloodRequest), args.Error(1)
}
func (m *MockRequestRepo) TransitionStatus(ctx context.Context, id int32, next domain.RequestStatus, allowed ...domain.RequestStatus) error {
	callArgs := []interface{}{ctx, id, next}
	for _, a := range allowed {
		callArgs = append(callArgs, a)
	}
	args := m.Called(callArgs...)
	return args.Error(0)
}
func (m *MockRequestRepo) RejectStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockResponseRepo
type MockResponseRepo struct {
	mock.Mock
}

func (m *MockResponseRepo) Upsert(ctx context.Context, resp *domain.DonorResponse) error {
	args := m.Called(ctx, resp)
	return args.Error(0)
}
func (m *MockResponseRepo) Get(ctx context.Context, requestID, donorID int32) (*domain.DonorResponse, error) {
	args := m.Called(ctx, requestID, donorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DonorResponse), args.Error(1)
}
func (m *MockResponseRepo) ListByRequest(ctx context.Context, requestID int32) ([]domain.DonorResponseDetail, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]domain.DonorResponseDetail), args.Error(1)
}
func (m *MockResponseRepo) ListByDonor(ctx context.Context, donorID int32, status domain.ResponseStatus) ([]domain.DonorResponse, error) {
	args := m.Called(ctx, donorID, status)
	return args.Get(0).([]domain.DonorResponse), args.Error(1)
}
func (m *MockResponseRepo) MarkCompleted(ctx context.Context, requestID, donorID int32) error {
	args := m.Called(ctx, requestID, donorID)
	return args.Error(0)
}

// MockOrganizationRepo
type MockOrganizationRepo struct {
	mock.Mock
}

func (m *MockOrganizationRepo) Create(ctx context.Context, org *domain.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}
func (m *MockOrganizationRepo) GetByID(ctx context.Context, id int32) (*domain.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}
func (m *MockOrganizationRepo) GetByEmail(ctx context.Context, email string) (*domain.Organization, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}
func (m *MockOrganizationRepo) Update(ctx context.Context, org *domain.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

// MockAdminRepo
type MockAdminRepo struct {
	mock.Mock
}

func (m *MockAdminRepo) Create(ctx context.Context, admin *domain.Admin) error {
	args := m.Called(ctx, admin)
	return args.Error(0)
}
func (m *MockAdminRepo) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Admin), args.Error(1)
}

// fakeSender records pushes and can fail selected tokens, so fan-out tests
// can observe partial failure without timing games.
type fakeSender struct {
	mu   sync.Mutex
	sent []string
	fail map[string]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{fail: map[string]error{}}
}

func (f *fakeSender) Send(_ context.Context, token, _, _ string, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[token]; ok {
		return err
	}
	f.sent = append(f.sent, token)
	return nil
}

func (f *fakeSender) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

// fakeOTPStore is an in-memory stand-in for the Redis-backed store.
type fakeOTPStore struct {
	mu    sync.Mutex
	codes map[string]string
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{codes: map[string]string{}}
}

func (f *fakeOTPStore) Issue(_ context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[email] = "123456"
	return "123456", nil
}

func (f *fakeOTPStore) Verify(_ context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.codes[email]
	if !ok {
		return domain.ErrNotFound
	}
	if stored != code {
		return domain.ErrUnauthorized
	}
	delete(f.codes, email)
	return nil
}

func (f *fakeOTPStore) Invalidate(_ context.Context, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.codes, email)
}

// fakeEmail drops messages and records recipients.
type fakeEmail struct {
	mu        sync.Mutex
	otps      map[string]string
	resetLink string
}

func newFakeEmail() *fakeEmail {
	return &fakeEmail{otps: map[string]string{}}
}

func (f *fakeEmail) SendOTP(_ context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.otps[email] = code
	return nil
}

func (f *fakeEmail) SendPasswordReset(_ context.Context, _, resetLink string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLink = resetLink
	return nil
}
