package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"library-service/events"
	"library-service/models"
	"library-service/repository"
	"library-service/services"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// --- Mock Material Repository ---

// mockMaterialRepo mirrors the storage-level contract the service relies
// on: Decrement only succeeds while copies remain, Increment clamps at
// totalCopies, and both are atomic under the mutex.
type mockMaterialRepo struct {
	mu           sync.Mutex
	materials    map[primitive.ObjectID]*models.Material
	incrementErr error
}

func newMockMaterialRepo() *mockMaterialRepo {
	return &mockMaterialRepo{materials: make(map[primitive.ObjectID]*models.Material)}
}

func (m *mockMaterialRepo) Create(_ context.Context, mat *models.Material) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mat.ID.IsZero() {
		mat.ID = primitive.NewObjectID()
	}
	m.materials[mat.ID] = mat
	return nil
}

func (m *mockMaterialRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mat, ok := m.materials[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *mat
	return &copied, nil
}

func (m *mockMaterialRepo) Find(_ context.Context, _ bson.M, _ *options.FindOptions) ([]models.Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Material, 0, len(m.materials))
	for _, mat := range m.materials {
		out = append(out, *mat)
	}
	return out, nil
}

func (m *mockMaterialRepo) Count(_ context.Context, _ bson.M) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.materials)), nil
}

func (m *mockMaterialRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.materials[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.materials, id)
	return nil
}

func (m *mockMaterialRepo) DecrementAvailable(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mat, ok := m.materials[id]
	if !ok {
		return repository.ErrNotFound
	}
	if mat.AvailableCopies <= 0 {
		return repository.ErrNoCopiesAvailable
	}
	mat.AvailableCopies--
	return nil
}

func (m *mockMaterialRepo) IncrementAvailable(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrementErr != nil {
		return m.incrementErr
	}
	mat, ok := m.materials[id]
	if !ok {
		return repository.ErrNotFound
	}
	if mat.AvailableCopies < mat.TotalCopies {
		mat.AvailableCopies++
	}
	return nil
}

func (m *mockMaterialRepo) available(id primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.materials[id].AvailableCopies
}

// --- Mock Booking Repository ---

// mockBookingRepo enforces the same uniqueness the partial index does: at
// most one non-terminal booking per (user, material).
type mockBookingRepo struct {
	mu        sync.Mutex
	bookings  map[primitive.ObjectID]*models.Booking
	insertErr error
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[primitive.ObjectID]*models.Booking)}
}

func nonTerminal(status string) bool {
	for _, s := range models.NonTerminalBookingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (m *mockBookingRepo) Insert(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, existing := range m.bookings {
		if existing.User == b.User && existing.Material == b.Material && nonTerminal(existing.Status) {
			return repository.ErrDuplicateActiveBooking
		}
	}
	b.ID = primitive.NewObjectID()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	m.bookings[b.ID] = b
	return nil
}

func (m *mockBookingRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockBookingRepo) FindActive(_ context.Context, user, material primitive.ObjectID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.User == user && b.Material == material && nonTerminal(b.Status) {
			copied := *b
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockBookingRepo) List(_ context.Context, opts repository.ListBookingsOptions) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Booking, 0)
	for _, b := range m.bookings {
		if opts.Status != "" && b.Status != opts.Status {
			continue
		}
		if !opts.User.IsZero() && b.User != opts.User {
			continue
		}
		if !opts.Material.IsZero() && b.Material != opts.Material {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockBookingRepo) MarkReturned(_ context.Context, id primitive.ObjectID, returnedAt time.Time) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if b.Status == models.BookingStatusReturned {
		return nil, repository.ErrAlreadyReturned
	}
	b.Status = models.BookingStatusReturned
	b.ReturnedAt = &returnedAt
	b.UpdatedAt = time.Now().UTC()
	copied := *b
	return &copied, nil
}

// --- Mock Event Publisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
}

func (m *mockPublisher) PublishBookingEvent(_ context.Context, e events.BookingEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *mockPublisher) Close() {}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// --- Helpers ---

func newTestBookingService(bookings repository.BookingRepository, materials repository.MaterialRepository, pub events.Publisher) *services.BookingService {
	logger, _ := zap.NewDevelopment()
	return services.NewBookingService(bookings, materials, pub, logger, 0)
}

func physicalMaterial(copies int) *models.Material {
	return &models.Material{
		ID:              primitive.NewObjectID(),
		Title:           "Distributed Systems",
		MaterialType:    models.MaterialTypeBook,
		IsPhysical:      true,
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
}

// --- Tests ---

func TestBorrow_Success(t *testing.T) {
	materials := newMockMaterialRepo()
	bookings := newMockBookingRepo()
	pub := &mockPublisher{}
	svc := newTestBookingService(bookings, materials, pub)

	mat := physicalMaterial(3)
	_ = materials.Create(context.Background(), mat)
	user := primitive.NewObjectID()

	booking, err := svc.Borrow(context.Background(), mat.ID.Hex(), user.Hex())
	assert.NoError(t, err)
	assert.NotNil(t, booking)
	assert.Equal(t, models.BookingStatusActive, booking.Status)
	assert.Equal(t, mat.ID, booking.Material)
	assert.Equal(t, user, booking.User)
	assert.Equal(t, 2, materials.available(mat.ID))
	assert.WithinDuration(t, booking.BorrowedAt.Add(services.DefaultLoanPeriod), booking.DueDate, time.Second)
	assert.Equal(t, 1, pub.count())
}

func TestBorrow_NoCopiesAvailable(t *testing.T) {
	materials := newMockMaterialRepo()
	bookings := newMockBookingRepo()
	svc := newTestBookingService(bookings, materials, &mockPublisher{})

	mat := physicalMaterial(1)
	mat.AvailableCopies = 0
	_ = materials.Create(context.Background(), mat)

	_, err := svc.Borrow(context.Background(), mat.ID.Hex(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, services.ErrNoCopiesAvailable)
	assert.Equal(t, 0, materials.available(mat.ID))
	assert.Empty(t, bookings.bookings)
}

func TestBorrow_NotPhysical(t *testing.T) {
	materials := newMockMaterialRepo()
	svc := newTestBookingService(newMockBookingRepo(), materials, &mockPublisher{})

	mat := physicalMaterial(1)
	mat.IsPhysical = false
	_ = materials.Create(context.Background(), mat)

	_, err := svc.Borrow(context.Background(), mat.ID.Hex(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, services.ErrNotBorrowable)
}

func TestBorrow_MaterialNotFound(t *testing.T) {
	svc := newTestBookingService(newMockBookingRepo(), newMockMaterialRepo(), &mockPublisher{})

	_, err := svc.Borrow(context.Background(), primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestBorrow_InvalidID(t *testing.T) {
	svc := newTestBookingService(newMockBookingRepo(), newMockMaterialRepo(), &mockPublisher{})

	_, err := svc.Borrow(context.Background(), "not-an-id", primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, services.ErrInvalidID)
}

func TestBorrow_DuplicateActiveLoan(t *testing.T) {
	materials := newMockMaterialRepo()
	bookings := newMockBookingRepo()
	svc := newTestBookingService(bookings, materials, &mockPublisher{})

	mat := physicalMaterial(5)
	_ = materials.Create(context.Background(), mat)
	user := primitive.NewObjectID()

	_, err := svc.Borrow(context.Background(), mat.ID.Hex(), user.Hex())
	assert.NoError(t, err)

	_, err = svc.Borrow(context.Background(), mat.ID.Hex(), user.Hex())
	assert.ErrorIs(t, err, services.ErrDuplicateActiveLoan)
	assert.Equal(t, 4, materials.available(mat.ID), "second attempt must not consume a copy")
}

func TestBorrow_InsertFailureCompensatesDecrement(t *testing.T) {
	materials := newMockMaterialRepo()
	bookings := newMockBookingRepo()
	bookings.insertErr = errors.New("write concern failure")
	svc := newTestBookingService(bookings, materials, &mockPublisher{})

	mat := physicalMaterial(2)
	_ = materials.Create(context.Background(), mat)

	_, err := svc.Borrow(context.Background(), mat.ID.Hex(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, services.ErrBorrowFailed)
	assert.Equal(t, 2, materials.available(mat.ID), "decrement must be compensated")
}

func TestBorrow_LastCopyRace_ExactlyOneWinner(t *testing.T) {
	materials := newMockMaterialRepo()
	bookings := newMockBookingRepo()
	svc := newTestBookingService(bookings, materials, &mockPublisher{})

	mat := physicalMaterial(1)
	_ = materials.Create(context.Background(), mat)

	const borrowers = 8
	var wg sync.WaitGroup
	errs := make([]error, borrowers)
	for i := 0; i < borrowers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Borrow(context.Background(), mat.ID.Hex(), primitive.NewObjectID().Hex())
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, services.ErrNoCopiesAvailable)
		}
	}
	assert.Equal(t, 1, wins, "exactly one borrower may take the last copy")
	assert.Equal(t, 0, materials.available(mat.ID))
	assert.Len(t, bookings.bookings, 1)
}

func TestReturn_Success(t *testing.T) {
	materials := newMockMaterialRepo()
	bookings := newMockBookingRepo()
	pub := &mockPublisher{}
	svc := newTestBookingService(bookings, materials, pub)

	mat := physicalMaterial(1)
	_ = materials.Create(context.Background(), mat)
	user := primitive.NewObjectID()

	booking, err := svc.Borrow(context.Background(), mat.ID.Hex(), user.Hex())
	assert.NoError(t, err)
	assert.Equal(t, 0, materials.available(mat.ID))

	returned, err := svc.Return(context.Background(), booking.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, models.BookingStatusReturned, returned.Status)
	assert.NotNil(t, returned.ReturnedAt)
	assert.Equal(t, 1, materials.available(mat.ID), "round trip restores the counter")
	assert.Equal(t, 2, pub.count())
}

func TestReturn_Twice(t *testing.T) {
	materials := newMockMaterialRepo()
	bookings := newMockBookingRepo()
	svc := newTestBookingService(bookings, materials, &mockPublisher{})

	mat := physicalMaterial(1)
	_ = materials.Create(context.Background(), mat)

	booking, _ := svc.Borrow(context.Background(), mat.ID.Hex(), primitive.NewObjectID().Hex())
	_, err := svc.Return(context.Background(), booking.ID.Hex())
	assert.NoError(t, err)

	_, err = svc.Return(context.Background(), booking.ID.Hex())
	assert.ErrorIs(t, err, services.ErrAlreadyReturned)
	assert.Equal(t, 1, materials.available(mat.ID), "double return must not exceed totalCopies")
}

func TestReturn_NotFound(t *testing.T) {
	svc := newTestBookingService(newMockBookingRepo(), newMockMaterialRepo(), &mockPublisher{})

	_, err := svc.Return(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestReturn_MissingMaterialIsIntegrityViolation(t *testing.T) {
	materials := newMockMaterialRepo()
	bookings := newMockBookingRepo()
	svc := newTestBookingService(bookings, materials, &mockPublisher{})

	mat := physicalMaterial(1)
	_ = materials.Create(context.Background(), mat)

	booking, _ := svc.Borrow(context.Background(), mat.ID.Hex(), primitive.NewObjectID().Hex())
	_ = materials.Delete(context.Background(), mat.ID)

	_, err := svc.Return(context.Background(), booking.ID.Hex())
	assert.ErrorIs(t, err, services.ErrIntegrityViolation)
}

func TestReturn_IncrementFailureIsIntegrityViolation(t *testing.T) {
	materials := newMockMaterialRepo()
	bookings := newMockBookingRepo()
	svc := newTestBookingService(bookings, materials, &mockPublisher{})

	mat := physicalMaterial(1)
	_ = materials.Create(context.Background(), mat)

	booking, _ := svc.Borrow(context.Background(), mat.ID.Hex(), primitive.NewObjectID().Hex())
	materials.incrementErr = errors.New("connection reset")

	_, err := svc.Return(context.Background(), booking.ID.Hex())
	assert.ErrorIs(t, err, services.ErrIntegrityViolation)
}

func TestReturn_IncrementClampsAtTotal(t *testing.T) {
	materials := newMockMaterialRepo()
	bookings := newMockBookingRepo()
	svc := newTestBookingService(bookings, materials, &mockPublisher{})

	mat := physicalMaterial(2)
	_ = materials.Create(context.Background(), mat)

	booking, _ := svc.Borrow(context.Background(), mat.ID.Hex(), primitive.NewObjectID().Hex())

	// Simulate an out-of-band correction that already restored the counter.
	materials.mu.Lock()
	materials.materials[mat.ID].AvailableCopies = 2
	materials.mu.Unlock()

	_, err := svc.Return(context.Background(), booking.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, 2, materials.available(mat.ID), "counter must not exceed totalCopies")
}

func TestFindActiveLoan(t *testing.T) {
	materials := newMockMaterialRepo()
	bookings := newMockBookingRepo()
	svc := newTestBookingService(bookings, materials, &mockPublisher{})

	mat := physicalMaterial(1)
	_ = materials.Create(context.Background(), mat)
	user := primitive.NewObjectID()

	loan, err := svc.FindActiveLoan(context.Background(), user.Hex(), mat.ID.Hex())
	assert.NoError(t, err)
	assert.Nil(t, loan)

	booking, _ := svc.Borrow(context.Background(), mat.ID.Hex(), user.Hex())

	loan, err = svc.FindActiveLoan(context.Background(), user.Hex(), mat.ID.Hex())
	assert.NoError(t, err)
	assert.NotNil(t, loan)
	assert.Equal(t, booking.ID, loan.ID)
}

func TestListByBorrower_IgnoresUnknownStatus(t *testing.T) {
	materials := newMockMaterialRepo()
	bookings := newMockBookingRepo()
	svc := newTestBookingService(bookings, materials, &mockPublisher{})

	mat := physicalMaterial(2)
	_ = materials.Create(context.Background(), mat)
	user := primitive.NewObjectID()
	_, _ = svc.Borrow(context.Background(), mat.ID.Hex(), user.Hex())

	listed, err := svc.ListByBorrower(context.Background(), user.Hex(), "bogus")
	assert.NoError(t, err)
	assert.Len(t, listed, 1)

	listed, err = svc.ListByBorrower(context.Background(), user.Hex(), models.BookingStatusReturned)
	assert.NoError(t, err)
	assert.Empty(t, listed)
}
