package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parceldesk/courier-system/internal/api/middleware"
	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	profileFn  func(caller domain.Caller, upd ports.ProfileUpdate) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) EnsureAdmin(context.Context, string, string) error { return nil }

func (s *stubAuthService) UpdateProfile(_ context.Context, c domain.Caller, upd ports.ProfileUpdate) (*domain.User, error) {
	return s.profileFn(c, upd)
}

// stubParcelService routes every transition through transitionFn with the
// operation name so tests can assert which use case a route reached.
type stubParcelService struct {
	createFn     func(ctx context.Context, caller domain.Caller, in ports.CreateParcelInput) (*ports.CreateParcelResult, error)
	transitionFn func(op string, caller domain.Caller, id string, in ports.TransitionInput) (*domain.Parcel, error)
	statusFn     func(caller domain.Caller, id string, to domain.ParcelStatus, in ports.TransitionInput) (*domain.Parcel, error)
}

func (s *stubParcelService) CreateParcel(ctx context.Context, caller domain.Caller, in ports.CreateParcelInput) (*ports.CreateParcelResult, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubParcelService) ApproveParcel(_ context.Context, c domain.Caller, id string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.transitionFn(domain.OpApprove, c, id, in)
}

func (s *stubParcelService) DeclineParcel(_ context.Context, c domain.Caller, id string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.transitionFn(domain.OpDecline, c, id, in)
}

func (s *stubParcelService) CancelBySender(_ context.Context, c domain.Caller, id string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.transitionFn(domain.OpCancel, c, id, in)
}

func (s *stubParcelService) PickUp(_ context.Context, c domain.Caller, id string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.transitionFn(domain.OpPickUp, c, id, in)
}

func (s *stubParcelService) StartTransit(_ context.Context, c domain.Caller, id string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.transitionFn(domain.OpStartTransit, c, id, in)
}

func (s *stubParcelService) Deliver(_ context.Context, c domain.Caller, id string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.transitionFn(domain.OpDeliver, c, id, in)
}

func (s *stubParcelService) Return(_ context.Context, c domain.Caller, id string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.transitionFn(domain.OpReturn, c, id, in)
}

func (s *stubParcelService) Hold(_ context.Context, c domain.Caller, id string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.transitionFn(domain.OpHold, c, id, in)
}

func (s *stubParcelService) Block(_ context.Context, c domain.Caller, id string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.transitionFn(domain.OpBlock, c, id, in)
}

func (s *stubParcelService) Unblock(_ context.Context, c domain.Caller, id string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.transitionFn(domain.OpUnblock, c, id, in)
}

func (s *stubParcelService) UpdateStatus(_ context.Context, c domain.Caller, id string, to domain.ParcelStatus, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.statusFn(c, id, to, in)
}

type stubQueryService struct {
	trackFn     func(code string) (*ports.TrackingView, error)
	getSentFn   func(caller domain.Caller, id string) (*domain.Parcel, error)
	listSentFn  func(caller domain.Caller, page, limit int) (*ports.ParcelPage, error)
	incomingFn  func(caller domain.Caller) ([]*domain.Parcel, error)
	historyFn   func(caller domain.Caller) ([]*domain.Parcel, error)
	adminGetFn  func(caller domain.Caller, id string) (*domain.Parcel, error)
	adminListFn func(caller domain.Caller, in ports.AdminListInput) (*ports.ParcelPage, error)
	receiversFn func(caller domain.Caller) (*ports.UserList, error)
	usersFn     func(caller domain.Caller, role string) (*ports.UserList, error)
}

func (s *stubQueryService) TrackParcel(_ context.Context, code string) (*ports.TrackingView, error) {
	return s.trackFn(code)
}

func (s *stubQueryService) GetSentParcel(_ context.Context, c domain.Caller, id string) (*domain.Parcel, error) {
	return s.getSentFn(c, id)
}

func (s *stubQueryService) ListSentParcels(_ context.Context, c domain.Caller, page, limit int) (*ports.ParcelPage, error) {
	return s.listSentFn(c, page, limit)
}

func (s *stubQueryService) ListIncoming(_ context.Context, c domain.Caller) ([]*domain.Parcel, error) {
	return s.incomingFn(c)
}

func (s *stubQueryService) ListDeliveryHistory(_ context.Context, c domain.Caller) ([]*domain.Parcel, error) {
	return s.historyFn(c)
}

func (s *stubQueryService) AdminGetParcel(_ context.Context, c domain.Caller, id string) (*domain.Parcel, error) {
	return s.adminGetFn(c, id)
}

func (s *stubQueryService) AdminListParcels(_ context.Context, c domain.Caller, in ports.AdminListInput) (*ports.ParcelPage, error) {
	return s.adminListFn(c, in)
}

func (s *stubQueryService) ListReceivers(_ context.Context, c domain.Caller) (*ports.UserList, error) {
	return s.receiversFn(c)
}

func (s *stubQueryService) AdminListUsers(_ context.Context, c domain.Caller, role string) (*ports.UserList, error) {
	return s.usersFn(c, role)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newContext builds a request context. A non-empty userID simulates the Auth
// middleware having run.
func newContext(e *echo.Echo, method, target string, body io.Reader, userID string, role domain.Role) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(middleware.CtxUserID, userID)
		c.Set(middleware.CtxRole, string(role))
	}
	return c, rec
}

func sampleParcel(status domain.ParcelStatus) *domain.Parcel {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	return &domain.Parcel{
		ID:           "p-1",
		TrackingCode: "TRK-20250314-123456",
		SenderID:     "sender-1",
		ReceiverInfo: domain.ReceiverInfo{
			Name:    "Rina",
			Phone:   "+8801700000000",
			Address: "12 Lake Road",
			City:    "Dhaka",
		},
		Details:       domain.ParcelDetails{Type: "document", WeightKg: 0.5},
		Fee:           50,
		CurrentStatus: status,
		StatusHistory: []domain.StatusLog{{Status: status, Timestamp: now, UpdatedBy: "sender-1"}},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
