package booking_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hackgods/spa-bookings/internal/booking"
	"github.com/hackgods/spa-bookings/internal/booking/bookingtest"
	"github.com/hackgods/spa-bookings/internal/config"
	redisclient "github.com/hackgods/spa-bookings/internal/redis"
)

func testConfig() config.Config {
	return config.Config{
		ConflictLookback:   2 * time.Hour,
		MaxBookingDuration: 2 * time.Hour,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo booking.Repository, notifier booking.Notifier) *booking.Service {
	return booking.NewService(repo, redisclient.NewLocalTherapistLocker(5*time.Second), notifier, testConfig(), discardLogger())
}

func input(therapist string, hour, minute, duration int) booking.CreateInput {
	return booking.CreateInput{
		Service:         "Deep Tissue Massage",
		TherapistName:   therapist,
		DurationMinutes: duration,
		Price:           decimal.RequireFromString("60"),
		CustomerName:    "Maya Lin",
		CustomerPhone:   "+1 555 0100",
		StartTime:       time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC),
	}
}

type lockerFunc func(ctx context.Context, therapist string, fn func(ctx context.Context) error) error

func (f lockerFunc) WithTherapistLock(ctx context.Context, therapist string, fn func(ctx context.Context) error) error {
	return f(ctx, therapist, fn)
}

func TestServiceCreate_PersistsPendingAndNotifies(t *testing.T) {
	repo := bookingtest.NewMemoryRepository()
	notifier := &bookingtest.RecordingNotifier{}
	svc := newTestService(repo, notifier)

	in := input("  Anna ", 10, 0, 60)
	in.Service = "  Hot Stone "
	created, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if created.ID == uuid.Nil {
		t.Fatalf("expected id assigned by storage")
	}
	if created.PaymentStatus != booking.PaymentPending {
		t.Fatalf("payment status = %q, want pending", created.PaymentStatus)
	}
	if created.TherapistName != "Anna" || created.Service != "Hot Stone" {
		t.Fatalf("fields not trimmed: therapist=%q service=%q", created.TherapistName, created.Service)
	}
	if !created.EndTime().Equal(time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("end time = %v", created.EndTime())
	}

	events := notifier.Events()
	if len(events) != 1 || events[0].Type != booking.EventBookingCreated {
		t.Fatalf("notifications = %+v, want one booking.created", events)
	}
	if events[0].Booking.ID != created.ID {
		t.Fatalf("notified booking = %s, want %s", events[0].Booking.ID, created.ID)
	}

	logs := repo.Events()
	if len(logs) != 1 || logs[0].EventType != booking.EventBookingCreated {
		t.Fatalf("event log = %+v, want one booking.created", logs)
	}
}

func TestServiceCreate_PartialOverlapRejected(t *testing.T) {
	repo := bookingtest.NewMemoryRepository()
	notifier := &bookingtest.RecordingNotifier{}
	svc := newTestService(repo, notifier)

	first, err := svc.Create(context.Background(), input("Anna", 10, 0, 60))
	if err != nil {
		t.Fatalf("first Create error: %v", err)
	}

	_, err = svc.Create(context.Background(), input("Anna", 10, 30, 60))
	var conflict *booking.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want *ConflictError", err)
	}
	if conflict.ExistingID != first.ID {
		t.Fatalf("conflict names %s, want %s", conflict.ExistingID, first.ID)
	}
	if !strings.Contains(err.Error(), "Anna") || !strings.Contains(err.Error(), "10:00 AM") {
		t.Fatalf("message = %q, want therapist and first window", err.Error())
	}

	if repo.Creates() != 1 {
		t.Fatalf("creates = %d, want 1", repo.Creates())
	}
	if len(notifier.Events()) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.Events()))
	}
}

func TestServiceCreate_ContainmentRejected(t *testing.T) {
	svc := newTestService(bookingtest.NewMemoryRepository(), nil)

	if _, err := svc.Create(context.Background(), input("Anna", 10, 0, 120)); err != nil {
		t.Fatalf("first Create error: %v", err)
	}
	_, err := svc.Create(context.Background(), input("Anna", 10, 30, 30))
	var conflict *booking.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want *ConflictError", err)
	}
}

func TestServiceCreate_BackToBackAndOtherTherapistsAccepted(t *testing.T) {
	repo := bookingtest.NewMemoryRepository()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	for _, in := range []booking.CreateInput{
		input("Anna", 9, 0, 60),
		input("Anna", 10, 0, 60),
		input("Anna", 8, 0, 60),
		input("Ben", 9, 30, 60),
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("Create(%s %v) error: %v", in.TherapistName, in.StartTime, err)
		}
	}
	if repo.Creates() != 4 {
		t.Fatalf("creates = %d, want 4", repo.Creates())
	}
}

func TestServiceCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(in *booking.CreateInput)
		wantField string
	}{
		{"missing service", func(in *booking.CreateInput) { in.Service = " " }, "service"},
		{"missing therapist", func(in *booking.CreateInput) { in.TherapistName = "" }, "therapistName"},
		{"missing customer name", func(in *booking.CreateInput) { in.CustomerName = "" }, "customerName"},
		{"missing phone", func(in *booking.CreateInput) { in.CustomerPhone = "" }, "customerPhone"},
		{"missing start", func(in *booking.CreateInput) { in.StartTime = time.Time{} }, "startTime"},
		{"zero duration", func(in *booking.CreateInput) { in.DurationMinutes = 0 }, "durationMinutes"},
		{"duration over maximum", func(in *booking.CreateInput) { in.DurationMinutes = 121 }, "durationMinutes"},
		{"duration overflowing time arithmetic", func(in *booking.CreateInput) { in.DurationMinutes = 153722868 }, "durationMinutes"},
		{"negative price", func(in *booking.CreateInput) { in.Price = decimal.NewFromInt(-1) }, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := bookingtest.NewMemoryRepository()
			notifier := &bookingtest.RecordingNotifier{}
			svc := newTestService(repo, notifier)

			in := input("Anna", 10, 0, 60)
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)
			var vErr *booking.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Fatalf("field = %q, want %q", vErr.Field, tt.wantField)
			}
			if repo.Creates() != 0 {
				t.Fatalf("validation failure persisted a booking")
			}
			if len(notifier.Events()) != 0 {
				t.Fatalf("validation failure dispatched a notification")
			}
		})
	}
}

func TestServiceCreate_NotificationAndEventFailuresDoNotFailCreate(t *testing.T) {
	repo := bookingtest.NewMemoryRepository()
	repo.EventErr = errors.New("event table missing")
	notifier := &bookingtest.RecordingNotifier{Err: errors.New("telegram down")}
	svc := newTestService(repo, notifier)

	created, err := svc.Create(context.Background(), input("Anna", 10, 0, 60))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created == nil || repo.Creates() != 1 {
		t.Fatalf("booking not persisted")
	}
	if len(notifier.Events()) != 1 {
		t.Fatalf("notification was not attempted")
	}
}

func TestServiceCreate_StorageErrorIsWrapped(t *testing.T) {
	repo := bookingtest.NewMemoryRepository()
	repo.CreateErr = errors.New("disk full")
	notifier := &bookingtest.RecordingNotifier{}
	svc := newTestService(repo, notifier)

	_, err := svc.Create(context.Background(), input("Anna", 10, 0, 60))
	if !errors.Is(err, repo.CreateErr) {
		t.Fatalf("error = %v, want wrapped %v", err, repo.CreateErr)
	}
	var conflict *booking.ConflictError
	if errors.As(err, &conflict) {
		t.Fatalf("storage error reported as conflict")
	}
	if len(notifier.Events()) != 0 {
		t.Fatalf("failed create dispatched a notification")
	}
}

// racingRepository lets another writer slip an overlapping row in just before
// the insert, which the storage constraint then rejects.
type racingRepository struct {
	*bookingtest.MemoryRepository
	rival booking.Booking
}

func (r *racingRepository) CreateBooking(ctx context.Context, b booking.Booking) (*booking.Booking, error) {
	if _, err := r.MemoryRepository.CreateBooking(ctx, r.rival); err != nil {
		return nil, err
	}
	return nil, &booking.ConflictError{Therapist: b.TherapistName}
}

func TestServiceCreate_ConstraintConflictNamesExistingWindow(t *testing.T) {
	repo := &racingRepository{MemoryRepository: bookingtest.NewMemoryRepository()}
	rival := input("Anna", 10, 0, 60)
	repo.rival = booking.Booking{
		Service:         rival.Service,
		TherapistName:   rival.TherapistName,
		DurationMinutes: rival.DurationMinutes,
		Price:           rival.Price,
		CustomerName:    "Ivo",
		CustomerPhone:   "556",
		StartTime:       rival.StartTime,
	}
	notifier := &bookingtest.RecordingNotifier{}
	svc := newTestService(repo, notifier)

	_, err := svc.Create(context.Background(), input("Anna", 10, 30, 60))
	var conflict *booking.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want *ConflictError", err)
	}
	want := "Therapist Anna is already booked from 2026-03-14 10:00 AM to 2026-03-14 11:00 AM"
	if conflict.Error() != want {
		t.Fatalf("message = %q, want %q", conflict.Error(), want)
	}
	if len(notifier.Events()) != 0 {
		t.Fatalf("rejected create dispatched a notification")
	}
}

func TestServiceCreate_LockNotAcquired(t *testing.T) {
	locker := lockerFunc(func(ctx context.Context, therapist string, fn func(ctx context.Context) error) error {
		return redisclient.ErrLockNotAcquired
	})
	repo := bookingtest.NewMemoryRepository()
	svc := booking.NewService(repo, locker, nil, testConfig(), discardLogger())

	_, err := svc.Create(context.Background(), input("Anna", 10, 0, 60))
	if !errors.Is(err, booking.ErrTherapistBusy) {
		t.Fatalf("error = %v, want %v", err, booking.ErrTherapistBusy)
	}
	if repo.Creates() != 0 {
		t.Fatalf("booking persisted without lock")
	}
}

func TestServiceCreate_LocksTherapist(t *testing.T) {
	var locked []string
	locker := lockerFunc(func(ctx context.Context, therapist string, fn func(ctx context.Context) error) error {
		locked = append(locked, therapist)
		return fn(ctx)
	})
	svc := booking.NewService(bookingtest.NewMemoryRepository(), locker, nil, testConfig(), discardLogger())

	if _, err := svc.Create(context.Background(), input(" Anna", 10, 0, 60)); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(locked) != 1 || locked[0] != "Anna" {
		t.Fatalf("locked = %v, want [Anna]", locked)
	}
}

func TestServiceCreate_ConcurrentOverlappingRequestsAdmitOne(t *testing.T) {
	repo := bookingtest.NewMemoryRepository()
	repo.CreateDelay = time.Millisecond
	svc := newTestService(repo, nil)

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded, conflicted int

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), input("Anna", 10, offset%30, 60))

			mu.Lock()
			defer mu.Unlock()
			var conflict *booking.ConflictError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &conflict):
				conflicted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want 1", succeeded)
	}
	if conflicted != attempts-1 {
		t.Fatalf("conflicted = %d, want %d", conflicted, attempts-1)
	}
}

func TestServiceNew_LookbackNeverShorterThanMaxDuration(t *testing.T) {
	repo := bookingtest.NewMemoryRepository()
	cfg := config.Config{ConflictLookback: time.Hour, MaxBookingDuration: 3 * time.Hour}
	svc := booking.NewService(repo, redisclient.NewLocalTherapistLocker(time.Second), nil, cfg, discardLogger())
	ctx := context.Background()

	if _, err := svc.Create(ctx, input("Anna", 8, 0, 180)); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	// starts 2h30m after the long booking, still inside it
	_, err := svc.Create(ctx, input("Anna", 10, 30, 30))
	var conflict *booking.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want *ConflictError", err)
	}
}

func TestServiceCancel(t *testing.T) {
	repo := bookingtest.NewMemoryRepository()
	notifier := &bookingtest.RecordingNotifier{}
	svc := newTestService(repo, notifier)
	ctx := context.Background()

	created, err := svc.Create(ctx, input("Anna", 10, 0, 60))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	deleted, err := svc.Cancel(ctx, created.ID)
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if deleted.ID != created.ID {
		t.Fatalf("deleted = %s, want %s", deleted.ID, created.ID)
	}

	events := notifier.Events()
	if len(events) != 2 || events[1].Type != booking.EventBookingCancelled {
		t.Fatalf("notifications = %+v, want created then cancelled", events)
	}

	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, booking.ErrBookingNotFound) {
		t.Fatalf("Get after cancel error = %v, want not found", err)
	}

	// the freed window can be booked again
	if _, err := svc.Create(ctx, input("Anna", 10, 0, 60)); err != nil {
		t.Fatalf("rebook error: %v", err)
	}
}

func TestServiceCancel_NotFoundDoesNotNotify(t *testing.T) {
	notifier := &bookingtest.RecordingNotifier{}
	svc := newTestService(bookingtest.NewMemoryRepository(), notifier)

	_, err := svc.Cancel(context.Background(), uuid.New())
	if !errors.Is(err, booking.ErrBookingNotFound) {
		t.Fatalf("error = %v, want %v", err, booking.ErrBookingNotFound)
	}
	if len(notifier.Events()) != 0 {
		t.Fatalf("not found cancel dispatched a notification")
	}
}

func TestServiceConfirmPayment(t *testing.T) {
	repo := bookingtest.NewMemoryRepository()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, input("Anna", 10, 0, 60))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	for i := 0; i < 2; i++ {
		updated, err := svc.ConfirmPayment(ctx, created.ID)
		if err != nil {
			t.Fatalf("ConfirmPayment #%d error: %v", i+1, err)
		}
		if updated.PaymentStatus != booking.PaymentCompleted {
			t.Fatalf("payment status = %q, want completed", updated.PaymentStatus)
		}
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 || list[0].PaymentStatus != booking.PaymentCompleted {
		t.Fatalf("list = %+v, want one completed booking", list)
	}

	if _, err := svc.ConfirmPayment(ctx, uuid.New()); !errors.Is(err, booking.ErrBookingNotFound) {
		t.Fatalf("confirm unknown error = %v, want not found", err)
	}
}
