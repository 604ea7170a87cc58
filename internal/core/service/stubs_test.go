package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory parcel repository with the same version check as the Mongo one
// ---------------------------------------------------------------------------

type stubParcelRepo struct {
	mu         sync.Mutex
	byID       map[string]*domain.Parcel
	takenCodes map[string]bool
	createErr  error
	saveErr    error
	creates    int
	saves      int
	lastFilter ports.ListParcelsFilter
}

func newStubParcelRepo() *stubParcelRepo {
	return &stubParcelRepo{
		byID:       make(map[string]*domain.Parcel),
		takenCodes: make(map[string]bool),
	}
}

func (r *stubParcelRepo) Create(_ context.Context, p *domain.Parcel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	if r.takenCodes[p.TrackingCode] {
		return domain.ErrDuplicateTrackingCode
	}
	r.takenCodes[p.TrackingCode] = true
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *stubParcelRepo) FindByID(_ context.Context, id string) (*domain.Parcel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrParcelNotFound
	}
	return p.Clone(), nil
}

func (r *stubParcelRepo) FindByTrackingCode(_ context.Context, code string) (*domain.Parcel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.TrackingCode == code {
			return p.Clone(), nil
		}
	}
	return nil, domain.ErrParcelNotFound
}

func (r *stubParcelRepo) Save(_ context.Context, p *domain.Parcel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	stored, ok := r.byID[p.ID]
	if !ok {
		return domain.ErrParcelNotFound
	}
	if stored.Version != p.Version {
		return domain.ErrConcurrentModification
	}
	p.Version++
	next := p.Clone()
	next.TrackingCode = stored.TrackingCode
	r.byID[p.ID] = next
	return nil
}

func (r *stubParcelRepo) List(_ context.Context, f ports.ListParcelsFilter) ([]*domain.Parcel, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = f

	var matched []*domain.Parcel
	for _, p := range r.byID {
		if f.SenderID != "" && p.SenderID != f.SenderID {
			continue
		}
		if f.ReceiverID != "" && p.ReceiverID != f.ReceiverID {
			continue
		}
		if len(f.Statuses) > 0 && !statusIn(p.CurrentStatus, f.Statuses) {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(p.TrackingCode), q) &&
				!strings.Contains(strings.ToLower(p.ReceiverInfo.Name), q) &&
				!strings.Contains(strings.ToLower(p.ReceiverInfo.City), q) {
				continue
			}
		}
		matched = append(matched, p.Clone())
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// seed stores p as-is and returns its id.
func (r *stubParcelRepo) seed(p *domain.Parcel) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID] = p.Clone()
	r.takenCodes[p.TrackingCode] = true
	return p.ID
}

func (r *stubParcelRepo) stored(id string) *domain.Parcel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].Clone()
}

// ---------------------------------------------------------------------------
// User repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users   map[string]*domain.User
	findErr error
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = cloneUser(u)
	}
	return r
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	copy := cloneUser(user)
	r.users[copy.ID] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindActiveReceiverByPhone(_ context.Context, phone string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Phone == phone && u.Role == domain.RoleReceiver && !u.IsDeleted && u.AccountStatus != domain.AccountBlocked {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) PhoneTaken(_ context.Context, phone, excludeID string) (bool, error) {
	if r.findErr != nil {
		return false, r.findErr
	}
	for _, u := range r.users {
		if u.Phone == phone && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, upd ports.ProfileUpdate) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if upd.Phone != "" {
		u.Phone = upd.Phone
	}
	if upd.Address != "" {
		u.Address = upd.Address
	}
	if upd.City != "" {
		u.City = upd.City
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.UserFilter) ([]*domain.User, int64, error) {
	if r.findErr != nil {
		return nil, 0, r.findErr
	}
	var out []*domain.User
	for _, u := range r.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.ActiveOnly && (u.IsDeleted || u.AccountStatus != domain.AccountActive) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

// ---------------------------------------------------------------------------
// Idempotency, cache and event sink
// ---------------------------------------------------------------------------

type stubIdempotency struct {
	keys      map[string]string
	lookupErr error
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Lookup(_ context.Context, senderID, key string) (string, error) {
	if s.lookupErr != nil {
		return "", s.lookupErr
	}
	return s.keys[senderID+":"+key], nil
}

func (s *stubIdempotency) Remember(_ context.Context, senderID, key, parcelID string, _ time.Duration) error {
	s.keys[senderID+":"+key] = parcelID
	return nil
}

type stubCache struct {
	views       map[string]*ports.TrackingView
	invalidated []string
	sets        int
}

func newStubCache() *stubCache {
	return &stubCache{views: make(map[string]*ports.TrackingView)}
}

func (c *stubCache) Get(_ context.Context, code string) (*ports.TrackingView, bool) {
	v, ok := c.views[code]
	return v, ok
}

func (c *stubCache) Set(_ context.Context, v *ports.TrackingView) {
	c.sets++
	c.views[v.TrackingCode] = v
}

func (c *stubCache) Invalidate(_ context.Context, code string) {
	c.invalidated = append(c.invalidated, code)
	delete(c.views, code)
}

type recordingSink struct {
	events []domain.ParcelEvent
}

func (s *recordingSink) Enqueue(e domain.ParcelEvent) {
	s.events = append(s.events, e)
}
