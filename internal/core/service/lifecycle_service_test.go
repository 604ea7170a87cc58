package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parceldesk/courier-system/internal/core/domain"
	"github.com/parceldesk/courier-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var (
	fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	sender   = domain.Registered{UserID: "sender-1", Role: domain.RoleSender}
	receiver = domain.Registered{UserID: "receiver-1", Role: domain.RoleReceiver}
	admin    = domain.Registered{UserID: "admin-1", Role: domain.RoleAdmin}
	guest    = domain.Guest{Phone: "+8801700000000"}
)

type lifecycleFixture struct {
	svc    *LifecycleService
	repo   *stubParcelRepo
	users  *stubUserRepo
	idem   *stubIdempotency
	cache  *stubCache
	events *recordingSink
}

func newLifecycleFixture(t *testing.T, policy ReceiverPolicy, users ...*domain.User) *lifecycleFixture {
	t.Helper()
	f := &lifecycleFixture{
		repo:   newStubParcelRepo(),
		users:  newStubUserRepo(users...),
		idem:   newStubIdempotency(),
		cache:  newStubCache(),
		events: &recordingSink{},
	}
	f.svc = NewLifecycleService(
		f.repo,
		NewReceiverValidator(f.users, policy),
		NewFeeCalculator(50, 20),
		zerolog.Nop(),
		WithIdempotency(f.idem, time.Hour),
		WithTrackingCache(f.cache),
		WithEvents(f.events),
		WithClock(func() time.Time { return fixedNow }),
	)
	return f
}

func createInput(weight float64) ports.CreateParcelInput {
	return ports.CreateParcelInput{
		Receiver: ports.ReceiverInput{
			Name:    "Ana Rahman",
			Phone:   "+8801700000000",
			Address: "House 7, Road 3",
			City:    "Dhaka",
		},
		Details: ports.DetailsInput{Type: "document", WeightKg: weight, Description: "contracts"},
	}
}

// seedParcel stores a parcel in the given state with a consistent ledger.
func (f *lifecycleFixture) seedParcel(status domain.ParcelStatus, receiverID string, blocked bool) string {
	return f.repo.seed(&domain.Parcel{
		ID:            "parcel-" + string(status),
		TrackingCode:  "TRK-20260504-" + map[bool]string{true: "222222", false: "111111"}[blocked],
		SenderID:      sender.UserID,
		ReceiverID:    receiverID,
		ReceiverInfo:  domain.ReceiverInfo{Name: "Ana Rahman", Phone: "+8801700000000", Address: "House 7", City: "Dhaka"},
		Details:       domain.ParcelDetails{Type: "box", WeightKg: 2},
		Fee:           70,
		CurrentStatus: status,
		IsBlocked:     blocked,
		StatusHistory: []domain.StatusLog{{Status: status, Timestamp: fixedNow.Add(-time.Hour), UpdatedBy: "seed"}},
		CreatedAt:     fixedNow.Add(-time.Hour),
	})
}

func assertLedgerConsistent(t *testing.T, p *domain.Parcel) {
	t.Helper()
	require.NotEmpty(t, p.StatusHistory)
	last, _ := p.LastLog()
	assert.Equal(t, p.CurrentStatus, last.Status, "last ledger entry must match current status")
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreateParcel_ScenarioA_LightParcel(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)

	res, err := f.svc.CreateParcel(context.Background(), sender, createInput(0.5))
	require.NoError(t, err)

	p := res.Parcel
	assert.False(t, res.AlreadyExisted)
	assert.Equal(t, 50.0, p.Fee)
	assert.Equal(t, domain.StatusRequested, p.CurrentStatus)
	require.Len(t, p.StatusHistory, 1)
	assert.Equal(t, NoteCreated, p.StatusHistory[0].Note)
	assert.Equal(t, sender.UserID, p.StatusHistory[0].UpdatedBy)
	assert.Regexp(t, `^TRK-20260504-\d{6}$`, p.TrackingCode)
	assert.Empty(t, p.ReceiverID, "unregistered receiver stays a guest")
	assertLedgerConsistent(t, p)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, domain.OpCreate, f.events.events[0].Operation)
}

func TestCreateParcel_ScenarioB_FeeByWeight(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)

	res, err := f.svc.CreateParcel(context.Background(), sender, createInput(3))
	require.NoError(t, err)
	assert.Equal(t, 90.0, res.Parcel.Fee)
}

func TestCreateParcel_LinksRegisteredReceiver(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyStrict, registeredReceiver())

	in := createInput(1)
	in.Receiver.Address = "House 7, Road 3"
	res, err := f.svc.CreateParcel(context.Background(), sender, in)
	require.NoError(t, err)
	assert.Equal(t, "receiver-1", res.Parcel.ReceiverID)
}

func TestCreateParcel_StrictPolicyRejectsGuest(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyStrict)

	_, err := f.svc.CreateParcel(context.Background(), sender, createInput(1))
	assert.ErrorIs(t, err, domain.ErrNoRegisteredReceiver)
	assert.Zero(t, f.repo.creates)
}

func TestCreateParcel_InvalidInput(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)

	in := createInput(1)
	in.Receiver.Phone = "  "
	_, err := f.svc.CreateParcel(context.Background(), sender, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = createInput(1)
	in.Details.Type = ""
	_, err = f.svc.CreateParcel(context.Background(), sender, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.CreateParcel(context.Background(), sender, createInput(0.01))
	assert.ErrorIs(t, err, domain.ErrInvalidWeight)

	assert.Zero(t, f.repo.creates)
}

func TestCreateParcel_OnlySenders(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)

	for _, c := range []domain.Caller{receiver, admin, guest, nil} {
		_, err := f.svc.CreateParcel(context.Background(), c, createInput(1))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	}
}

func TestCreateParcel_IdempotentReplay(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)

	in := createInput(1)
	in.IdempotencyKey = "req-42"

	first, err := f.svc.CreateParcel(context.Background(), sender, in)
	require.NoError(t, err)
	second, err := f.svc.CreateParcel(context.Background(), sender, in)
	require.NoError(t, err)

	assert.True(t, second.AlreadyExisted)
	assert.Equal(t, first.Parcel.ID, second.Parcel.ID)
	assert.Equal(t, 1, f.repo.creates)
	assert.Len(t, f.events.events, 1)
}

func TestCreateParcel_IdempotencyLookupFailureStillCreates(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	f.idem.lookupErr = errors.New("redis down")

	in := createInput(1)
	in.IdempotencyKey = "req-1"
	res, err := f.svc.CreateParcel(context.Background(), sender, in)
	require.NoError(t, err)
	assert.False(t, res.AlreadyExisted)
}

func TestCreateParcel_RetriesTrackingCodeCollision(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	wrapped := &collidingRepo{stubParcelRepo: f.repo, collisions: 2}
	f.svc.parcels = wrapped

	res, err := f.svc.CreateParcel(context.Background(), sender, createInput(1))
	require.NoError(t, err)
	assert.Equal(t, 3, wrapped.attempts)
	assert.NotEmpty(t, res.Parcel.TrackingCode)
}

func TestCreateParcel_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	wrapped := &collidingRepo{stubParcelRepo: f.repo, collisions: 100}
	f.svc.parcels = wrapped

	_, err := f.svc.CreateParcel(context.Background(), sender, createInput(1))
	assert.ErrorIs(t, err, domain.ErrDuplicateTrackingCode)
	assert.Equal(t, maxTrackingCodeAttempts, wrapped.attempts)
}

type collidingRepo struct {
	*stubParcelRepo
	collisions int
	attempts   int
}

func (r *collidingRepo) Create(ctx context.Context, p *domain.Parcel) error {
	r.attempts++
	if r.attempts <= r.collisions {
		return domain.ErrDuplicateTrackingCode
	}
	return r.stubParcelRepo.Create(ctx, p)
}

// ---------------------------------------------------------------------------
// Receiver and sender operations
// ---------------------------------------------------------------------------

func TestApproveParcel_ScenarioD_RegisteredReceiver(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusRequested, receiver.UserID, false)

	p, err := f.svc.ApproveParcel(context.Background(), receiver, id, ports.TransitionInput{})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusApproved, p.CurrentStatus)
	require.Len(t, p.StatusHistory, 2)
	last, _ := p.LastLog()
	assert.Equal(t, domain.StatusApproved, last.Status)
	assert.Equal(t, NoteApproved, last.Note)
	assert.Equal(t, receiver.UserID, last.UpdatedBy)
	assert.Equal(t, fixedNow, last.Timestamp)

	stored := f.repo.stored(id)
	assert.Equal(t, domain.StatusApproved, stored.CurrentStatus)
	assert.Equal(t, int64(1), stored.Version)
	assertLedgerConsistent(t, p)
	assertLedgerConsistent(t, stored)
	assert.Equal(t, []string{stored.TrackingCode}, f.cache.invalidated)
}

func TestApproveParcel_Guest(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusRequested, "", false)

	p, err := f.svc.ApproveParcel(context.Background(), guest, id, ports.TransitionInput{Note: "see you soon"})
	require.NoError(t, err)

	last, _ := p.LastLog()
	assert.Equal(t, domain.AnonymousActor, last.UpdatedBy)
	assert.Equal(t, "see you soon", last.Note)
}

func TestApproveParcel_ScenarioE_GuestWrongPhone(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusRequested, "", false)

	_, err := f.svc.ApproveParcel(context.Background(), domain.Guest{Phone: "+8801799999999"}, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, f.repo.saves)
}

func TestApproveParcel_RegisteredCallerNeverMatchedByPhone(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusRequested, "", false)

	caller := domain.ResolveCaller("someone-else", domain.RoleReceiver, "+8801700000000")
	_, err := f.svc.ApproveParcel(context.Background(), caller, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestApproveParcel_WrongStatus(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusApproved, receiver.UserID, false)

	_, err := f.svc.ApproveParcel(context.Background(), receiver, id, ports.TransitionInput{})
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusApproved, te.From)
	assert.Equal(t, []domain.ParcelStatus{domain.StatusCancelled}, te.Allowed)
}

func TestDeclineParcel(t *testing.T) {
	for _, from := range []domain.ParcelStatus{domain.StatusRequested, domain.StatusApproved} {
		f := newLifecycleFixture(t, ReceiverPolicyLenient)
		id := f.seedParcel(from, "", false)

		p, err := f.svc.DeclineParcel(context.Background(), guest, id, ports.TransitionInput{})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, p.CurrentStatus)
		last, _ := p.LastLog()
		assert.Equal(t, NoteDeclined, last.Note)
		assertLedgerConsistent(t, p)
		assertLedgerConsistent(t, f.repo.stored(id))
	}

	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusPickedUp, "", false)
	_, err := f.svc.DeclineParcel(context.Background(), guest, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancelBySender(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusApproved, "", false)

	_, err := f.svc.CancelBySender(context.Background(), domain.Registered{UserID: "sender-2", Role: domain.RoleSender}, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	p, err := f.svc.CancelBySender(context.Background(), sender, id, ports.TransitionInput{Location: "Dhaka hub"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, p.CurrentStatus)
	last, _ := p.LastLog()
	assert.Equal(t, NoteCancelled, last.Note)
	assert.Equal(t, "Dhaka hub", last.Location)
	assertLedgerConsistent(t, p)
	assertLedgerConsistent(t, f.repo.stored(id))

	_, err = f.svc.CancelBySender(context.Background(), sender, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ---------------------------------------------------------------------------
// Admin operations
// ---------------------------------------------------------------------------

func TestAdminMoves_HappyPath(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusApproved, receiver.UserID, false)
	ctx := context.Background()

	steps := []struct {
		op   func(context.Context, domain.Caller, string, ports.TransitionInput) (*domain.Parcel, error)
		want domain.ParcelStatus
		note string
	}{
		{f.svc.PickUp, domain.StatusPickedUp, NotePickedUp},
		{f.svc.Hold, domain.StatusOnHold, NoteOnHold},
	}
	for _, step := range steps {
		p, err := step.op(ctx, admin, id, ports.TransitionInput{})
		require.NoError(t, err)
		assert.Equal(t, step.want, p.CurrentStatus)
		last, _ := p.LastLog()
		assert.Equal(t, step.note, last.Note)
		assertLedgerConsistent(t, p)
	}

	p, err := f.svc.UpdateStatus(ctx, admin, id, domain.StatusInTransit, ports.TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInTransit, p.CurrentStatus)
	last, _ := p.LastLog()
	assert.Equal(t, NoteStatusUpdate, last.Note)
	assertLedgerConsistent(t, p)

	p, err = f.svc.Deliver(ctx, admin, id, ports.TransitionInput{Location: "Gulshan"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, p.CurrentStatus)
	assert.Len(t, p.StatusHistory, 5)
	assertLedgerConsistent(t, p)
	assertLedgerConsistent(t, f.repo.stored(id))
	assert.Equal(t, int64(4), f.repo.stored(id).Version)
	assert.Len(t, f.events.events, 4)
}

func TestPickUp_ScenarioC_RequestedRejected(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusRequested, "", false)

	_, err := f.svc.PickUp(context.Background(), admin, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusRequested, f.repo.stored(id).CurrentStatus)
}

func TestPickUp_FromOnHoldGoesThroughUpdateStatus(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusOnHold, "", false)

	_, err := f.svc.PickUp(context.Background(), admin, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	p, err := f.svc.UpdateStatus(context.Background(), admin, id, domain.StatusPickedUp, ports.TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPickedUp, p.CurrentStatus)
	assertLedgerConsistent(t, p)
}

func TestReturnAndHold_AllowedSources(t *testing.T) {
	for _, from := range []domain.ParcelStatus{domain.StatusPickedUp, domain.StatusInTransit, domain.StatusOnHold} {
		f := newLifecycleFixture(t, ReceiverPolicyLenient)
		id := f.seedParcel(from, "", false)
		p, err := f.svc.Return(context.Background(), admin, id, ports.TransitionInput{})
		require.NoErrorf(t, err, "return from %s", from)
		assert.Equal(t, domain.StatusReturned, p.CurrentStatus)
		assertLedgerConsistent(t, p)
	}
	for _, from := range []domain.ParcelStatus{domain.StatusRequested, domain.StatusPickedUp, domain.StatusInTransit} {
		f := newLifecycleFixture(t, ReceiverPolicyLenient)
		id := f.seedParcel(from, "", false)
		p, err := f.svc.Hold(context.Background(), admin, id, ports.TransitionInput{})
		require.NoErrorf(t, err, "hold from %s", from)
		assert.Equal(t, domain.StatusOnHold, p.CurrentStatus)
		assertLedgerConsistent(t, p)
	}

	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusApproved, "", false)
	_, err := f.svc.Hold(context.Background(), admin, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.svc.Return(context.Background(), admin, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestAdminMoves_RequireAdmin(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusApproved, receiver.UserID, false)

	for _, c := range []domain.Caller{sender, receiver, guest} {
		_, err := f.svc.PickUp(context.Background(), c, id, ports.TransitionInput{})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		_, err = f.svc.Block(context.Background(), c, id, ports.TransitionInput{})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	}
	assert.Zero(t, f.repo.saves)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusApproved, "", false)

	_, err := f.svc.UpdateStatus(context.Background(), admin, id, domain.ParcelStatus("LOST"), ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOperations_NotFound(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)

	_, err := f.svc.Deliver(context.Background(), admin, "missing", ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrParcelNotFound)
	_, err = f.svc.ApproveParcel(context.Background(), guest, "missing", ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrParcelNotFound)
}

// ---------------------------------------------------------------------------
// Block / unblock
// ---------------------------------------------------------------------------

func TestBlock_ScenarioF_InTransit(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusInTransit, "", false)

	p, err := f.svc.Block(context.Background(), admin, id, ports.TransitionInput{})
	require.NoError(t, err)
	assert.True(t, p.IsBlocked)
	assert.Equal(t, domain.StatusOnHold, p.CurrentStatus)
	last, _ := p.LastLog()
	assert.Equal(t, domain.StatusOnHold, last.Status)
	assert.Equal(t, NoteBlocked, last.Note)
	assertLedgerConsistent(t, p)

	p, err = f.svc.Unblock(context.Background(), admin, id, ports.TransitionInput{})
	require.NoError(t, err)
	assert.False(t, p.IsBlocked)
	assert.Equal(t, domain.StatusOnHold, p.CurrentStatus)
	require.Len(t, p.StatusHistory, 3)
	last, _ = p.LastLog()
	assert.Equal(t, domain.StatusOnHold, last.Status)
	assert.Equal(t, NoteUnblocked, last.Note)
	assertLedgerConsistent(t, p)
	assertLedgerConsistent(t, f.repo.stored(id))
}

func TestBlock_RequestedKeepsStatusAndLogsIt(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusRequested, "", false)

	p, err := f.svc.Block(context.Background(), admin, id, ports.TransitionInput{})
	require.NoError(t, err)
	assert.True(t, p.IsBlocked)
	assert.Equal(t, domain.StatusRequested, p.CurrentStatus)
	assertLedgerConsistent(t, p)
}

func TestBlock_Twice(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusPickedUp, "", false)

	_, err := f.svc.Block(context.Background(), admin, id, ports.TransitionInput{})
	require.NoError(t, err)
	_, err = f.svc.Block(context.Background(), admin, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Len(t, f.repo.stored(id).StatusHistory, 2)
}

func TestUnblock_NotBlocked(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusPickedUp, "", false)

	_, err := f.svc.Unblock(context.Background(), admin, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestBlockedParcel_RejectsTransitions(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusRequested, "", true)

	_, err := f.svc.ApproveParcel(context.Background(), guest, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.svc.CancelBySender(context.Background(), sender, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.svc.Hold(context.Background(), admin, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// ---------------------------------------------------------------------------
// Invariants
// ---------------------------------------------------------------------------

func TestLedgerTracksCurrentStatus_EveryOperation(t *testing.T) {
	ctx := context.Background()
	in := ports.TransitionInput{Note: "checked", Location: "Dhaka hub"}

	tests := []struct {
		name       string
		from       domain.ParcelStatus
		receiverID string
		blocked    bool
		call       func(f *lifecycleFixture, id string) (*domain.Parcel, error)
		want       domain.ParcelStatus
	}{
		{"approve", domain.StatusRequested, receiver.UserID, false, func(f *lifecycleFixture, id string) (*domain.Parcel, error) {
			return f.svc.ApproveParcel(ctx, receiver, id, in)
		}, domain.StatusApproved},
		{"decline", domain.StatusApproved, receiver.UserID, false, func(f *lifecycleFixture, id string) (*domain.Parcel, error) {
			return f.svc.DeclineParcel(ctx, receiver, id, in)
		}, domain.StatusCancelled},
		{"cancel", domain.StatusRequested, "", false, func(f *lifecycleFixture, id string) (*domain.Parcel, error) {
			return f.svc.CancelBySender(ctx, sender, id, in)
		}, domain.StatusCancelled},
		{"pickup", domain.StatusApproved, "", false, func(f *lifecycleFixture, id string) (*domain.Parcel, error) {
			return f.svc.PickUp(ctx, admin, id, in)
		}, domain.StatusPickedUp},
		{"transit", domain.StatusPickedUp, "", false, func(f *lifecycleFixture, id string) (*domain.Parcel, error) {
			return f.svc.StartTransit(ctx, admin, id, in)
		}, domain.StatusInTransit},
		{"deliver", domain.StatusInTransit, "", false, func(f *lifecycleFixture, id string) (*domain.Parcel, error) {
			return f.svc.Deliver(ctx, admin, id, in)
		}, domain.StatusDelivered},
		{"return", domain.StatusInTransit, "", false, func(f *lifecycleFixture, id string) (*domain.Parcel, error) {
			return f.svc.Return(ctx, admin, id, in)
		}, domain.StatusReturned},
		{"hold", domain.StatusPickedUp, "", false, func(f *lifecycleFixture, id string) (*domain.Parcel, error) {
			return f.svc.Hold(ctx, admin, id, in)
		}, domain.StatusOnHold},
		{"block", domain.StatusApproved, "", false, func(f *lifecycleFixture, id string) (*domain.Parcel, error) {
			return f.svc.Block(ctx, admin, id, in)
		}, domain.StatusOnHold},
		{"unblock", domain.StatusOnHold, "", true, func(f *lifecycleFixture, id string) (*domain.Parcel, error) {
			return f.svc.Unblock(ctx, admin, id, in)
		}, domain.StatusOnHold},
		{"update status", domain.StatusOnHold, "", false, func(f *lifecycleFixture, id string) (*domain.Parcel, error) {
			return f.svc.UpdateStatus(ctx, admin, id, domain.StatusInTransit, in)
		}, domain.StatusInTransit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLifecycleFixture(t, ReceiverPolicyLenient)
			id := f.seedParcel(tt.from, tt.receiverID, tt.blocked)

			p, err := tt.call(f, id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.CurrentStatus)
			require.Len(t, p.StatusHistory, 2, "one entry appended per operation")
			assertLedgerConsistent(t, p)

			stored := f.repo.stored(id)
			assertLedgerConsistent(t, stored)
			last, _ := stored.LastLog()
			assert.Equal(t, "checked", last.Note)
			assert.Equal(t, "Dhaka hub", last.Location)
		})
	}
}

func TestTerminalClosure(t *testing.T) {
	for _, terminal := range []domain.ParcelStatus{domain.StatusDelivered, domain.StatusCancelled, domain.StatusReturned} {
		f := newLifecycleFixture(t, ReceiverPolicyLenient)
		id := f.seedParcel(terminal, receiver.UserID, false)
		ctx := context.Background()
		in := ports.TransitionInput{}

		calls := map[string]func() (*domain.Parcel, error){
			"approve":   func() (*domain.Parcel, error) { return f.svc.ApproveParcel(ctx, receiver, id, in) },
			"decline":   func() (*domain.Parcel, error) { return f.svc.DeclineParcel(ctx, receiver, id, in) },
			"cancel":    func() (*domain.Parcel, error) { return f.svc.CancelBySender(ctx, sender, id, in) },
			"pickup":    func() (*domain.Parcel, error) { return f.svc.PickUp(ctx, admin, id, in) },
			"transit":   func() (*domain.Parcel, error) { return f.svc.StartTransit(ctx, admin, id, in) },
			"deliver":   func() (*domain.Parcel, error) { return f.svc.Deliver(ctx, admin, id, in) },
			"return":    func() (*domain.Parcel, error) { return f.svc.Return(ctx, admin, id, in) },
			"hold":      func() (*domain.Parcel, error) { return f.svc.Hold(ctx, admin, id, in) },
			"block":     func() (*domain.Parcel, error) { return f.svc.Block(ctx, admin, id, in) },
			"unblock":   func() (*domain.Parcel, error) { return f.svc.Unblock(ctx, admin, id, in) },
			"resume":    func() (*domain.Parcel, error) { return f.svc.UpdateStatus(ctx, admin, id, domain.StatusPickedUp, in) },
			"reopen":    func() (*domain.Parcel, error) { return f.svc.UpdateStatus(ctx, admin, id, domain.StatusRequested, in) },
			"redeliver": func() (*domain.Parcel, error) { return f.svc.UpdateStatus(ctx, admin, id, domain.StatusDelivered, in) },
		}
		for name, call := range calls {
			_, err := call()
			assert.ErrorIsf(t, err, domain.ErrInvalidTransition, "%s from %s", name, terminal)
		}
		assert.Zero(t, f.repo.saves)
		assert.Len(t, f.repo.stored(id).StatusHistory, 1)
	}
}

func TestTrackingCodeNeverRewritten(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)

	res, err := f.svc.CreateParcel(context.Background(), sender, createInput(1))
	require.NoError(t, err)
	code := res.Parcel.TrackingCode

	ctx := context.Background()
	_, err = f.svc.ApproveParcel(ctx, guest, res.Parcel.ID, ports.TransitionInput{})
	require.NoError(t, err)
	_, err = f.svc.PickUp(ctx, admin, res.Parcel.ID, ports.TransitionInput{})
	require.NoError(t, err)
	_, err = f.svc.Block(ctx, admin, res.Parcel.ID, ports.TransitionInput{})
	require.NoError(t, err)

	stored := f.repo.stored(res.Parcel.ID)
	assert.Equal(t, code, stored.TrackingCode)
	assertLedgerConsistent(t, stored)
	assert.Len(t, stored.StatusHistory, 4)
	assert.Equal(t, domain.StatusOnHold, stored.CurrentStatus)
}

func TestSave_ConcurrentModification(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusApproved, "", false)

	// Simulate another writer bumping the version after our load.
	f.svc.parcels = &racingRepo{stubParcelRepo: f.repo}

	_, err := f.svc.PickUp(context.Background(), admin, id, ports.TransitionInput{})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.Empty(t, f.events.events)
	assert.Equal(t, domain.StatusApproved, f.repo.stored(id).CurrentStatus)
}

type racingRepo struct {
	*stubParcelRepo
}

func (r *racingRepo) FindByID(ctx context.Context, id string) (*domain.Parcel, error) {
	p, err := r.stubParcelRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.byID[id].Version++
	r.mu.Unlock()
	return p, nil
}

func TestSave_ErrorIsReturned(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusApproved, "", false)
	f.repo.saveErr = errors.New("write failed")

	_, err := f.svc.PickUp(context.Background(), admin, id, ports.TransitionInput{})
	assert.Error(t, err)
	assert.Empty(t, f.events.events)
	assert.Empty(t, f.cache.invalidated)
}

func TestEvents_CarryLedgerEntry(t *testing.T) {
	f := newLifecycleFixture(t, ReceiverPolicyLenient)
	id := f.seedParcel(domain.StatusInTransit, "", false)

	_, err := f.svc.Deliver(context.Background(), admin, id, ports.TransitionInput{Note: "left at door", Location: "Banani"})
	require.NoError(t, err)

	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, id, ev.ParcelID)
	assert.Equal(t, domain.OpDeliver, ev.Operation)
	assert.Equal(t, domain.StatusDelivered, ev.Status)
	assert.Equal(t, admin.UserID, ev.UpdatedBy)
	assert.Equal(t, "left at door", ev.Note)
	assert.Equal(t, "Banani", ev.Location)
	assert.Equal(t, fixedNow, ev.OccurredAt)
}
