package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	// receiverListLimit bounds the unpaged receiver lists.
	receiverListLimit = 500
)

var (
	incomingStatuses = []domain.ParcelStatus{
		domain.StatusRequested,
		domain.StatusApproved,
		domain.StatusPickedUp,
		domain.StatusInTransit,
	}
	historyStatuses = []domain.ParcelStatus{
		domain.StatusDelivered,
		domain.StatusCancelled,
		domain.StatusReturned,
	}
)

type queryService struct {
	parcels ports.ParcelRepository
	users   ports.UserRepository
	cache   ports.TrackingCache
	log     zerolog.Logger
}

// NewQueryService returns a QueryService implementation. cache may be nil.
func NewQueryService(parcels ports.ParcelRepository, users ports.UserRepository, cache ports.TrackingCache, log zerolog.Logger) ports.QueryService {
	return &queryService{parcels: parcels, users: users, cache: cache, log: log}
}

// TrackParcel returns the public tracking view. Blocked parcels are hidden.
func (s *queryService) TrackParcel(ctx context.Context, code string) (*ports.TrackingView, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("track parcel: %w: tracking code is required", domain.ErrInvalidInput)
	}

	if s.cache != nil {
		if view, ok := s.cache.Get(ctx, code); ok {
			return view, nil
		}
	}

	p, err := s.parcels.FindByTrackingCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("track parcel: %w", err)
	}
	if p.IsBlocked {
		return nil, fmt.Errorf("track parcel: %w: parcel is blocked", domain.ErrInvalidState)
	}

	view := &ports.TrackingView{
		TrackingCode:         p.TrackingCode,
		ParcelType:           p.Details.Type,
		DestinationCity:      p.ReceiverInfo.City,
		CurrentStatus:        string(p.CurrentStatus),
		StatusHistory:        p.StatusHistory,
		CreatedAt:            p.CreatedAt,
		ExpectedDeliveryDate: p.ExpectedDeliveryDate,
	}
	if s.cache != nil {
		s.cache.Set(ctx, view)
		s.dropIfChanged(ctx, p)
	}
	return view, nil
}

// dropIfChanged re-reads the parcel after a cache fill. A write that landed
// between the first read and Set would otherwise leave a stale or blocked
// view cached until the TTL expires.
func (s *queryService) dropIfChanged(ctx context.Context, read *domain.Parcel) {
	cur, err := s.parcels.FindByTrackingCode(ctx, read.TrackingCode)
	if err == nil && cur.Version == read.Version && !cur.IsBlocked {
		return
	}
	s.cache.Invalidate(ctx, read.TrackingCode)
	s.log.Debug().Str("tracking_code", read.TrackingCode).Msg("tracking view changed during cache fill")
}

func (s *queryService) GetSentParcel(ctx context.Context, caller domain.Caller, parcelID string) (*domain.Parcel, error) {
	p, err := s.parcels.FindByID(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("get sent parcel: %w", err)
	}
	if err := domain.AuthorizeSender(caller, p); err != nil {
		return nil, fmt.Errorf("get sent parcel: %w", err)
	}
	return p, nil
}

func (s *queryService) ListSentParcels(ctx context.Context, caller domain.Caller, page, limit int) (*ports.ParcelPage, error) {
	r, ok := caller.(domain.Registered)
	if !ok || r.Role != domain.RoleSender {
		return nil, fmt.Errorf("list sent parcels: %w", domain.ErrUnauthorized)
	}
	return s.page(ctx, ports.ListParcelsFilter{SenderID: r.UserID, Page: page, Limit: limit})
}

func (s *queryService) ListIncoming(ctx context.Context, caller domain.Caller) ([]*domain.Parcel, error) {
	return s.receiverList(ctx, caller, incomingStatuses)
}

func (s *queryService) ListDeliveryHistory(ctx context.Context, caller domain.Caller) ([]*domain.Parcel, error) {
	return s.receiverList(ctx, caller, historyStatuses)
}

func (s *queryService) receiverList(ctx context.Context, caller domain.Caller, statuses []domain.ParcelStatus) ([]*domain.Parcel, error) {
	r, ok := caller.(domain.Registered)
	if !ok || r.Role != domain.RoleReceiver || r.UserID == "" {
		return nil, fmt.Errorf("list receiver parcels: %w", domain.ErrUnauthorized)
	}
	items, _, err := s.parcels.List(ctx, ports.ListParcelsFilter{
		ReceiverID: r.UserID,
		Statuses:   statuses,
		Page:       1,
		Limit:      receiverListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list receiver parcels: %w", err)
	}
	return items, nil
}

func (s *queryService) AdminGetParcel(ctx context.Context, caller domain.Caller, parcelID string) (*domain.Parcel, error) {
	if err := domain.AuthorizeAdmin(caller); err != nil {
		return nil, fmt.Errorf("admin get parcel: %w", err)
	}
	p, err := s.parcels.FindByID(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("admin get parcel: %w", err)
	}
	return p, nil
}

func (s *queryService) AdminListParcels(ctx context.Context, caller domain.Caller, in ports.AdminListInput) (*ports.ParcelPage, error) {
	if err := domain.AuthorizeAdmin(caller); err != nil {
		return nil, fmt.Errorf("admin list parcels: %w", err)
	}
	filter := ports.ListParcelsFilter{
		Search: strings.TrimSpace(in.Search),
		Page:   in.Page,
		Limit:  in.Limit,
	}
	if in.Status != "" {
		status := domain.ParcelStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
		if !status.IsValid() {
			return nil, fmt.Errorf("admin list parcels: %w: unknown status %q", domain.ErrInvalidInput, in.Status)
		}
		filter.Statuses = []domain.ParcelStatus{status}
	}
	return s.page(ctx, filter)
}

// ListReceivers returns the active registered receivers a sender can address
// a parcel to, newest first.
func (s *queryService) ListReceivers(ctx context.Context, caller domain.Caller) (*ports.UserList, error) {
	r, ok := caller.(domain.Registered)
	if !ok || r.Role != domain.RoleSender {
		return nil, fmt.Errorf("list receivers: %w", domain.ErrUnauthorized)
	}
	items, total, err := s.users.List(ctx, ports.UserFilter{Role: domain.RoleReceiver, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list receivers: %w", err)
	}
	return &ports.UserList{Items: items, Total: total}, nil
}

func (s *queryService) AdminListUsers(ctx context.Context, caller domain.Caller, role string) (*ports.UserList, error) {
	if err := domain.AuthorizeAdmin(caller); err != nil {
		return nil, fmt.Errorf("admin list users: %w", err)
	}
	var filter ports.UserFilter
	if role = strings.ToUpper(strings.TrimSpace(role)); role != "" {
		filter.Role = domain.Role(role)
		if !filter.Role.IsValid() {
			return nil, fmt.Errorf("admin list users: %w: unknown role %q", domain.ErrInvalidInput, role)
		}
	}
	items, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("admin list users: %w", err)
	}
	return &ports.UserList{Items: items, Total: total}, nil
}

func (s *queryService) page(ctx context.Context, filter ports.ListParcelsFilter) (*ports.ParcelPage, error) {
	filter.Page, filter.Limit = normalizePaging(filter.Page, filter.Limit)

	items, total, err := s.parcels.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ports.ParcelPage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
