package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripost/backend/internal/domain"
	"github.com/tripost/backend/internal/repo"
	"github.com/tripost/backend/internal/service"
)

// ---- Mocks ----

// mockTripRepo is a function-field double; set only what a test needs.
type mockTripRepo struct {
	create    func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID   func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	list      func(ctx context.Context) ([]domain.Trip, error)
	listPaged func(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	update    func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	delete    func(ctx context.Context, id uuid.UUID) error
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	return m.list(ctx)
}
func (m *mockTripRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listPaged(ctx, p)
}
func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.update(ctx, trip)
}
func (m *mockTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

// ---- Helpers ----

func kyotoTrip() domain.Trip {
	return domain.Trip{
		ID:    uuid.New(),
		Title: "Kyoto weekend",
		Days:  2,
		Itinerary: domain.Itinerary{
			1: {
				{Time: "09:00", Place: "Kiyomizu-dera", Lat: domain.Float(34.9949), Lng: domain.Float(135.7850)},
				{Time: "12:00", Place: "Nishiki Market", Lat: domain.Float(35.0050), Lng: domain.Float(135.7649)},
			},
			2: {
				{Time: "10:00", Place: "Arashiyama", Lat: domain.Float(35.0094), Lng: domain.Float(135.6668)},
			},
		},
	}
}

// echoRepo returns whatever it is asked to write and serves stored by id.
func echoRepo(stored domain.Trip) *mockTripRepo {
	return &mockTripRepo{
		create: func(_ context.Context, t domain.Trip) (domain.Trip, error) { return t, nil },
		update: func(_ context.Context, t domain.Trip) (domain.Trip, error) { return t, nil },
		getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
			if id != stored.ID {
				return domain.Trip{}, domain.ErrNotFound
			}
			return stored, nil
		},
	}
}

// ---- Create ----

func TestTripService_Create_Valid(t *testing.T) {
	svc := service.NewTripService(echoRepo(domain.Trip{}))

	in := kyotoTrip()
	in.Title = "  Kyoto weekend "
	got, err := svc.Create(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "Kyoto weekend", got.Title)
	assert.Equal(t, kyotoTrip().Itinerary, got.Itinerary)
}

func TestTripService_Create_CleansBlankEntries(t *testing.T) {
	svc := service.NewTripService(echoRepo(domain.Trip{}))

	in := kyotoTrip()
	in.Itinerary[2] = append(in.Itinerary[2], domain.Entry{})

	got, err := svc.Create(context.Background(), in)

	require.NoError(t, err)
	assert.Len(t, got.Itinerary[2], 1)
}

func TestTripService_Create_Invalid(t *testing.T) {
	cases := map[string]func(*domain.Trip){
		"blank title": func(t *domain.Trip) { t.Title = "  " },
		"zero days":   func(t *domain.Trip) { t.Days = 0 },
		"day beyond":  func(t *domain.Trip) { t.Itinerary[3] = []domain.Entry{{Time: "09:00", Place: "Nara"}} },
		"day zero":    func(t *domain.Trip) { t.Itinerary[0] = []domain.Entry{{Time: "09:00", Place: "Nara"}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc := service.NewTripService(echoRepo(domain.Trip{}))
			in := kyotoTrip()
			mutate(&in)

			_, err := svc.Create(context.Background(), in)

			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestTripService_Create_RepoError(t *testing.T) {
	boom := errors.New("db down")
	svc := service.NewTripService(&mockTripRepo{
		create: func(context.Context, domain.Trip) (domain.Trip, error) { return domain.Trip{}, boom },
	})

	_, err := svc.Create(context.Background(), kyotoTrip())

	assert.ErrorIs(t, err, boom)
}

// ---- Reads ----

func TestTripService_GetByID_NotFound(t *testing.T) {
	svc := service.NewTripService(echoRepo(kyotoTrip()))

	_, err := svc.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripService_List_NeverNil(t *testing.T) {
	svc := service.NewTripService(&mockTripRepo{
		list: func(context.Context) ([]domain.Trip, error) { return nil, nil },
		listPaged: func(context.Context, domain.PaginationParams) ([]domain.Trip, int64, error) {
			return nil, 0, nil
		},
	})

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)

	page, total, err := svc.ListPaged(context.Background(), domain.NewPaginationParams(nil, nil))
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Zero(t, total)
}

// ---- UpdateItinerary ----

func TestTripService_UpdateItinerary_ReplacesPlanAndDays(t *testing.T) {
	stored := kyotoTrip()
	svc := service.NewTripService(echoRepo(stored))

	days := 3
	plan := domain.Itinerary{3: {{Time: "08:00", Place: "Nara Park"}}, 1: {{}}}
	got, err := svc.UpdateItinerary(context.Background(), stored.ID, &days, plan)

	require.NoError(t, err)
	assert.Equal(t, 3, got.Days)
	assert.Equal(t, domain.Itinerary{3: {{Time: "08:00", Place: "Nara Park"}}}, got.Itinerary)
}

func TestTripService_UpdateItinerary_KeepsDaysWhenNil(t *testing.T) {
	stored := kyotoTrip()
	svc := service.NewTripService(echoRepo(stored))

	_, err := svc.UpdateItinerary(context.Background(), stored.ID, nil, domain.Itinerary{3: {{Place: "Nara"}}})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTripService_UpdateItinerary_NotFound(t *testing.T) {
	svc := service.NewTripService(echoRepo(kyotoTrip()))

	_, err := svc.UpdateItinerary(context.Background(), uuid.New(), nil, domain.Itinerary{})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Delete ----

func TestTripService_Delete(t *testing.T) {
	var deleted uuid.UUID
	svc := service.NewTripService(&mockTripRepo{
		delete: func(_ context.Context, id uuid.UUID) error { deleted = id; return nil },
	})

	id := uuid.New()
	require.NoError(t, svc.Delete(context.Background(), id))
	assert.Equal(t, id, deleted)
}
