package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

// Default ledger notes.
const (
	NoteCreated      = "Parcel request created by sender"
	NoteApproved     = "Parcel approved by receiver"
	NoteDeclined     = "Parcel cancelled by receiver"
	NoteCancelled    = "Parcel cancelled by sender"
	NotePickedUp     = "Parcel picked up by courier"
	NoteInTransit    = "Parcel in transit to destination"
	NoteDelivered    = "Parcel delivered successfully"
	NoteReturned     = "Parcel returned to sender"
	NoteOnHold       = "Parcel put on hold"
	NoteBlocked      = "Parcel blocked by admin"
	NoteUnblocked    = "Parcel unblocked by admin"
	NoteStatusUpdate = "Status updated by admin"
)

const maxTrackingCodeAttempts = 5

// forcedHoldOnBlock lists the statuses a block pulls into ON_HOLD.
var forcedHoldOnBlock = map[domain.ParcelStatus]bool{
	domain.StatusApproved:  true,
	domain.StatusPickedUp:  true,
	domain.StatusInTransit: true,
}

// LifecycleOption configures optional collaborators of LifecycleService.
type LifecycleOption func(*LifecycleService)

// WithIdempotency enables Idempotency-Key replay on CreateParcel.
func WithIdempotency(store ports.IdempotencyStore, ttl time.Duration) LifecycleOption {
	return func(s *LifecycleService) {
		s.idem = store
		s.idemTTL = ttl
	}
}

// WithTrackingCache invalidates cached tracking views after every save.
func WithTrackingCache(cache ports.TrackingCache) LifecycleOption {
	return func(s *LifecycleService) { s.cache = cache }
}

// WithEvents publishes a ParcelEvent after every save.
func WithEvents(sink ports.EventSink) LifecycleOption {
	return func(s *LifecycleService) { s.events = sink }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) LifecycleOption {
	return func(s *LifecycleService) { s.now = now }
}

// LifecycleService implements ports.ParcelService.
type LifecycleService struct {
	parcels   ports.ParcelRepository
	receivers *ReceiverValidator
	fees      FeeCalculator
	idem      ports.IdempotencyStore
	idemTTL   time.Duration
	cache     ports.TrackingCache
	events    ports.EventSink
	now       func() time.Time
	log       zerolog.Logger
}

// NewLifecycleService returns a ParcelService implementation.
func NewLifecycleService(
	parcels ports.ParcelRepository,
	receivers *ReceiverValidator,
	fees FeeCalculator,
	log zerolog.Logger,
	opts ...LifecycleOption,
) *LifecycleService {
	s := &LifecycleService{
		parcels:   parcels,
		receivers: receivers,
		fees:      fees,
		idemTTL:   24 * time.Hour,
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.ParcelService = (*LifecycleService)(nil)

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

// CreateParcel registers a new parcel request for the calling sender. If an
// idempotency key was already used by this sender, the earlier parcel is
// returned without side effects.
func (s *LifecycleService) CreateParcel(ctx context.Context, caller domain.Caller, in ports.CreateParcelInput) (*ports.CreateParcelResult, error) {
	sender, ok := caller.(domain.Registered)
	if !ok || sender.Role != domain.RoleSender || sender.UserID == "" {
		return nil, fmt.Errorf("create parcel: %w", domain.ErrUnauthorized)
	}

	if existing := s.replay(ctx, sender.UserID, in.IdempotencyKey); existing != nil {
		return &ports.CreateParcelResult{Parcel: existing, AlreadyExisted: true}, nil
	}

	receiver := domain.ReceiverInfo{
		Name:    strings.TrimSpace(in.Receiver.Name),
		Phone:   strings.TrimSpace(in.Receiver.Phone),
		Address: strings.TrimSpace(in.Receiver.Address),
		City:    strings.TrimSpace(in.Receiver.City),
	}
	details := domain.ParcelDetails{
		Type:        strings.TrimSpace(in.Details.Type),
		WeightKg:    in.Details.WeightKg,
		Description: strings.TrimSpace(in.Details.Description),
	}
	if err := validateCreate(receiver, details); err != nil {
		return nil, fmt.Errorf("create parcel: %w", err)
	}

	fee, err := s.fees.Calculate(details.WeightKg)
	if err != nil {
		return nil, fmt.Errorf("create parcel: %w", err)
	}

	receiverID, err := s.receivers.Resolve(ctx, receiver)
	if err != nil {
		return nil, fmt.Errorf("create parcel: %w", err)
	}

	now := s.now().UTC()
	parcel := &domain.Parcel{
		ID:                   uuid.NewString(),
		SenderID:             sender.UserID,
		ReceiverID:           receiverID,
		ReceiverInfo:         receiver,
		Details:              details,
		Fee:                  fee,
		CurrentStatus:        domain.StatusRequested,
		ExpectedDeliveryDate: in.ExpectedDeliveryDate,
		CreatedAt:            now,
		UpdatedAt:            now,
		StatusHistory: []domain.StatusLog{{
			Status:    domain.StatusRequested,
			Timestamp: now,
			UpdatedBy: sender.UserID,
			Note:      NoteCreated,
		}},
	}

	if err := s.insertWithTrackingCode(ctx, parcel, now); err != nil {
		s.log.Error().Err(err).Str("sender_id", sender.UserID).Msg("failed to create parcel")
		return nil, fmt.Errorf("create parcel: %w", err)
	}

	if in.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.Remember(ctx, sender.UserID, in.IdempotencyKey, parcel.ID, s.idemTTL); err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("failed to store idempotency key")
		}
	}

	s.publish(domain.OpCreate, parcel)
	s.log.Info().
		Str("parcel_id", parcel.ID).
		Str("tracking_code", parcel.TrackingCode).
		Str("sender_id", sender.UserID).
		Bool("guest_receiver", receiverID == "").
		Msg("parcel created")

	return &ports.CreateParcelResult{Parcel: parcel}, nil
}

func (s *LifecycleService) replay(ctx context.Context, senderID, key string) *domain.Parcel {
	if key == "" || s.idem == nil {
		return nil
	}
	id, err := s.idem.Lookup(ctx, senderID, key)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed, creating anyway")
		return nil
	}
	if id == "" {
		return nil
	}
	existing, err := s.parcels.FindByID(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Str("parcel_id", id).Msg("idempotent parcel not loadable")
		return nil
	}
	s.log.Info().Str("idempotency_key", key).Str("parcel_id", id).Msg("idempotent replay")
	return existing
}

func (s *LifecycleService) insertWithTrackingCode(ctx context.Context, p *domain.Parcel, now time.Time) error {
	for attempt := 1; attempt <= maxTrackingCodeAttempts; attempt++ {
		code, err := domain.GenerateTrackingCode(now)
		if err != nil {
			return err
		}
		p.TrackingCode = code
		err = s.parcels.Create(ctx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicateTrackingCode) {
			return err
		}
		s.log.Debug().Str("tracking_code", code).Int("attempt", attempt).Msg("tracking code collision, regenerating")
	}
	p.TrackingCode = ""
	return domain.ErrDuplicateTrackingCode
}

func validateCreate(r domain.ReceiverInfo, d domain.ParcelDetails) error {
	var missing []string
	if r.Name == "" {
		missing = append(missing, "receiver name")
	}
	if r.Phone == "" {
		missing = append(missing, "receiver phone")
	}
	if r.Address == "" {
		missing = append(missing, "receiver address")
	}
	if r.City == "" {
		missing = append(missing, "receiver city")
	}
	if d.Type == "" {
		missing = append(missing, "parcel type")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Receiver and sender self-service
// ---------------------------------------------------------------------------

// ApproveParcel accepts a REQUESTED parcel on behalf of its receiver.
func (s *LifecycleService) ApproveParcel(ctx context.Context, caller domain.Caller, parcelID string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.mutate(ctx, caller, parcelID, in, domain.OpApprove, NoteApproved, func(p *domain.Parcel) (domain.ParcelStatus, bool, error) {
		if err := domain.AuthorizeReceiver(caller, p); err != nil {
			return "", false, err
		}
		return ownerMove(p, domain.StatusApproved, domain.RoleReceiver)
	})
}

// DeclineParcel cancels a REQUESTED or APPROVED parcel on behalf of its receiver.
func (s *LifecycleService) DeclineParcel(ctx context.Context, caller domain.Caller, parcelID string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.mutate(ctx, caller, parcelID, in, domain.OpDecline, NoteDeclined, func(p *domain.Parcel) (domain.ParcelStatus, bool, error) {
		if err := domain.AuthorizeReceiver(caller, p); err != nil {
			return "", false, err
		}
		return ownerMove(p, domain.StatusCancelled, domain.RoleReceiver)
	})
}

// CancelBySender cancels the caller's own REQUESTED or APPROVED parcel.
func (s *LifecycleService) CancelBySender(ctx context.Context, caller domain.Caller, parcelID string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.mutate(ctx, caller, parcelID, in, domain.OpCancel, NoteCancelled, func(p *domain.Parcel) (domain.ParcelStatus, bool, error) {
		if err := domain.AuthorizeSender(caller, p); err != nil {
			return "", false, err
		}
		return ownerMove(p, domain.StatusCancelled, domain.RoleSender)
	})
}

// ---------------------------------------------------------------------------
// Admin moves
// ---------------------------------------------------------------------------

func (s *LifecycleService) PickUp(ctx context.Context, caller domain.Caller, parcelID string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.adminMove(ctx, caller, parcelID, in, domain.OpPickUp, NotePickedUp, domain.StatusPickedUp,
		domain.StatusApproved)
}

func (s *LifecycleService) StartTransit(ctx context.Context, caller domain.Caller, parcelID string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.adminMove(ctx, caller, parcelID, in, domain.OpStartTransit, NoteInTransit, domain.StatusInTransit,
		domain.StatusPickedUp)
}

func (s *LifecycleService) Deliver(ctx context.Context, caller domain.Caller, parcelID string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.adminMove(ctx, caller, parcelID, in, domain.OpDeliver, NoteDelivered, domain.StatusDelivered,
		domain.StatusInTransit)
}

func (s *LifecycleService) Return(ctx context.Context, caller domain.Caller, parcelID string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.adminMove(ctx, caller, parcelID, in, domain.OpReturn, NoteReturned, domain.StatusReturned,
		domain.StatusPickedUp, domain.StatusInTransit, domain.StatusOnHold)
}

func (s *LifecycleService) Hold(ctx context.Context, caller domain.Caller, parcelID string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.adminMove(ctx, caller, parcelID, in, domain.OpHold, NoteOnHold, domain.StatusOnHold,
		domain.StatusRequested, domain.StatusPickedUp, domain.StatusInTransit)
}

// UpdateStatus performs any move the admin transition table allows, such as
// resuming an ON_HOLD parcel.
func (s *LifecycleService) UpdateStatus(ctx context.Context, caller domain.Caller, parcelID string, to domain.ParcelStatus, in ports.TransitionInput) (*domain.Parcel, error) {
	if !to.IsValid() {
		return nil, fmt.Errorf("update status: %w: unknown status %q", domain.ErrInvalidInput, to)
	}
	return s.adminMove(ctx, caller, parcelID, in, domain.OpUpdateStatus, NoteStatusUpdate, to)
}

// Block sets the administrative block flag. Active parcels are pulled into
// ON_HOLD; the ledger entry records the status the parcel ends up in.
func (s *LifecycleService) Block(ctx context.Context, caller domain.Caller, parcelID string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.mutate(ctx, caller, parcelID, in, domain.OpBlock, NoteBlocked, func(p *domain.Parcel) (domain.ParcelStatus, bool, error) {
		if err := domain.AuthorizeAdmin(caller); err != nil {
			return "", false, err
		}
		if p.CurrentStatus.IsTerminal() {
			return "", false, &domain.TransitionError{From: p.CurrentStatus, To: domain.StatusOnHold}
		}
		if p.IsBlocked {
			return "", false, fmt.Errorf("%w: parcel is already blocked", domain.ErrInvalidState)
		}
		if forcedHoldOnBlock[p.CurrentStatus] {
			return domain.StatusOnHold, true, nil
		}
		return p.CurrentStatus, true, nil
	})
}

// Unblock clears the block flag and logs the unchanged status.
func (s *LifecycleService) Unblock(ctx context.Context, caller domain.Caller, parcelID string, in ports.TransitionInput) (*domain.Parcel, error) {
	return s.mutate(ctx, caller, parcelID, in, domain.OpUnblock, NoteUnblocked, func(p *domain.Parcel) (domain.ParcelStatus, bool, error) {
		if err := domain.AuthorizeAdmin(caller); err != nil {
			return "", false, err
		}
		if p.CurrentStatus.IsTerminal() {
			return "", false, &domain.TransitionError{From: p.CurrentStatus, To: p.CurrentStatus}
		}
		if !p.IsBlocked {
			return "", false, fmt.Errorf("%w: parcel is not blocked", domain.ErrInvalidState)
		}
		return p.CurrentStatus, false, nil
	})
}

func (s *LifecycleService) adminMove(
	ctx context.Context,
	caller domain.Caller,
	parcelID string,
	in ports.TransitionInput,
	op, defaultNote string,
	to domain.ParcelStatus,
	from ...domain.ParcelStatus,
) (*domain.Parcel, error) {
	return s.mutate(ctx, caller, parcelID, in, op, defaultNote, func(p *domain.Parcel) (domain.ParcelStatus, bool, error) {
		if err := domain.AuthorizeAdmin(caller); err != nil {
			return "", false, err
		}
		if err := ensureNotBlocked(p); err != nil {
			return "", false, err
		}
		permitted := domain.IsTransitionAllowed(p.CurrentStatus, to, domain.RoleAdmin)
		if len(from) > 0 && !statusIn(p.CurrentStatus, from) {
			permitted = false
		}
		if !permitted {
			return "", false, &domain.TransitionError{
				From:    p.CurrentStatus,
				To:      to,
				Allowed: domain.AllowedTransitions(p.CurrentStatus, domain.RoleAdmin),
			}
		}
		return to, false, nil
	})
}

func ownerMove(p *domain.Parcel, to domain.ParcelStatus, role domain.Role) (domain.ParcelStatus, bool, error) {
	if err := ensureNotBlocked(p); err != nil {
		return "", false, err
	}
	if !domain.IsOwnerTransitionAllowed(p.CurrentStatus, to, role) {
		return "", false, &domain.TransitionError{
			From:    p.CurrentStatus,
			To:      to,
			Allowed: domain.AllowedOwnerTransitions(p.CurrentStatus, role),
		}
	}
	return to, false, nil
}

func ensureNotBlocked(p *domain.Parcel) error {
	if p.IsBlocked {
		return fmt.Errorf("%w: parcel is blocked", domain.ErrInvalidState)
	}
	return nil
}

func statusIn(s domain.ParcelStatus, set []domain.ParcelStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Shared read-modify-write
// ---------------------------------------------------------------------------

// decideFunc authorizes the caller against the loaded parcel and returns the
// resulting status and block flag.
type decideFunc func(p *domain.Parcel) (domain.ParcelStatus, bool, error)

func (s *LifecycleService) mutate(
	ctx context.Context,
	caller domain.Caller,
	parcelID string,
	in ports.TransitionInput,
	op, defaultNote string,
	decide decideFunc,
) (*domain.Parcel, error) {
	if caller == nil {
		return nil, fmt.Errorf("%s parcel: %w", op, domain.ErrUnauthorized)
	}

	parcel, err := s.parcels.FindByID(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("%s parcel: %w", op, err)
	}

	status, blocked, err := decide(parcel)
	if err != nil {
		s.log.Debug().Err(err).Str("parcel_id", parcelID).Str("op", op).Msg("parcel operation rejected")
		return nil, fmt.Errorf("%s parcel: %w", op, err)
	}

	note := strings.TrimSpace(in.Note)
	if note == "" {
		note = defaultNote
	}
	parcel.Apply(domain.Change{
		Status:  status,
		Blocked: blocked,
		Entry: domain.StatusLog{
			Status:    status,
			Timestamp: s.now().UTC(),
			UpdatedBy: caller.ActorID(),
			Location:  strings.TrimSpace(in.Location),
			Note:      note,
		},
	})

	if err := s.parcels.Save(ctx, parcel); err != nil {
		return nil, fmt.Errorf("%s parcel: %w", op, err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, parcel.TrackingCode)
	}
	s.publish(op, parcel)

	s.log.Info().
		Str("parcel_id", parcel.ID).
		Str("op", op).
		Str("status", string(parcel.CurrentStatus)).
		Bool("blocked", parcel.IsBlocked).
		Str("actor", caller.ActorID()).
		Msg("parcel updated")

	return parcel, nil
}

func (s *LifecycleService) publish(op string, p *domain.Parcel) {
	if s.events == nil {
		return
	}
	last, _ := p.LastLog()
	s.events.Enqueue(domain.ParcelEvent{
		ID:           uuid.NewString(),
		ParcelID:     p.ID,
		TrackingCode: p.TrackingCode,
		Operation:    op,
		Status:       p.CurrentStatus,
		IsBlocked:    p.IsBlocked,
		UpdatedBy:    last.UpdatedBy,
		Note:         last.Note,
		Location:     last.Location,
		OccurredAt:   last.Timestamp,
	})
}
